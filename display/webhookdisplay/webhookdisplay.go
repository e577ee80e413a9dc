// Package webhookdisplay implements display.Display as an HTTP POST
// notifier, adapted from the teacher's adapter/webhook package: the same
// retry-with-exponential-backoff POST loop, retargeted from publishing one
// run-completion payload to publishing the full lifecycle of callbacks a
// run drives a Display through.
package webhookdisplay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pithecene-io/grana/actions"
	"github.com/pithecene-io/grana/display"
	"github.com/pithecene-io/grana/iox"
	"github.com/pithecene-io/grana/types"
	"github.com/pithecene-io/grana/workflow"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 10 * time.Second

// DefaultRetries is the default number of retry attempts.
const DefaultRetries = 3

// Config configures the webhook display.
type Config struct {
	// URL is the HTTP endpoint to POST to (required).
	URL string
	// Headers are custom HTTP headers added to each request.
	Headers map[string]string
	// Timeout is the per-request timeout (default 10s).
	Timeout time.Duration
	// Retries is the number of retry attempts on failure (default 3).
	Retries int
	// RunID and Workflow are stamped on every payload.
	RunID    string
	Workflow string
}

// Display posts one JSON event per lifecycle callback to a webhook.
// OnPlanInteraction is not supported: a network notifier cannot mediate
// interactive selection, so it is a no-op returning nil (every action
// stays enabled).
type Display struct {
	config Config
	client *http.Client
}

// New creates a webhook display from cfg. Returns an error if URL is
// empty or Retries is negative.
func New(cfg Config) (*Display, error) {
	if cfg.URL == "" {
		return nil, errors.New("webhook display requires a URL")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}
	return &Display{config: cfg, client: &http.Client{Timeout: cfg.Timeout}}, nil
}

// eventPayload is the JSON body posted for every lifecycle callback.
type eventPayload struct {
	RunID    string   `json:"run_id,omitempty"`
	Workflow string   `json:"workflow,omitempty"`
	Kind     string   `json:"kind"`
	Action   string   `json:"action,omitempty"`
	Status   string   `json:"status,omitempty"`
	Lines    []string `json:"lines,omitempty"`
	Stderr   bool     `json:"stderr,omitempty"`
	Message  string   `json:"message,omitempty"`
}

func (d *Display) OnRunnerStart() error {
	return d.post(context.Background(), eventPayload{Kind: "runner_start"})
}

func (d *Display) OnRunnerFinish() error {
	return d.post(context.Background(), eventPayload{Kind: "runner_finish"})
}

func (d *Display) OnPlanInteraction(_ *workflow.Graph) error { return nil }

func (d *Display) OnActionStart(a actions.Action) {
	_ = d.post(context.Background(), eventPayload{Kind: "action_start", Action: a.Name()})
}

func (d *Display) OnActionFinish(a actions.Action) {
	_ = d.post(context.Background(), eventPayload{
		Kind: "action_finish", Action: a.Name(), Status: a.Status().String(),
	})
}

func (d *Display) EmitActionMessage(a actions.Action, msg types.Event, stderr bool) {
	d.EmitActionMessages(a, []types.EventItem{{Message: msg, Stderr: stderr}})
}

// EmitActionMessages coalesces a batch of drained events for one action
// into a single POST (display.BatchDisplay), so a buffered/streaming
// event policy actually saves the round trips it is meant to.
func (d *Display) EmitActionMessages(a actions.Action, msgs []types.EventItem) {
	lines := make([]string, len(msgs))
	stderr := false
	for i, m := range msgs {
		lines[i] = string(m.Message)
		stderr = stderr || m.Stderr
	}
	_ = d.post(context.Background(), eventPayload{
		Kind: "action_message", Action: a.Name(), Lines: lines, Stderr: stderr,
	})
}

func (d *Display) EmitActionError(a actions.Action, msg string) {
	_ = d.post(context.Background(), eventPayload{
		Kind: "action_error", Action: a.Name(), Message: msg,
	})
}

// Close releases display resources.
func (d *Display) Close() error {
	d.client.CloseIdleConnections()
	return nil
}

// post sends payload as JSON, retrying with exponential backoff on
// transient failures. A 4xx response is non-retriable.
func (d *Display) post(ctx context.Context, payload eventPayload) error {
	payload.RunID = d.config.RunID
	payload.Workflow = d.config.Workflow

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("webhookdisplay: marshal event: %w", err)
	}

	var lastErr error
	attempts := 1 + d.config.Retries

	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("webhookdisplay: context canceled: %w", err)
		}

		if i > 0 {
			backoff := time.Duration(1<<uint(i-1)) * 500 * time.Millisecond
			select {
			case <-ctx.Done():
				return fmt.Errorf("webhookdisplay: context canceled during backoff: %w", ctx.Err())
			case <-time.After(backoff):
			}
		}

		lastErr = d.doRequest(ctx, body)
		if lastErr == nil {
			return nil
		}

		var statusErr *StatusError
		if errors.As(lastErr, &statusErr) && statusErr.Code >= 400 && statusErr.Code < 500 {
			return fmt.Errorf("webhookdisplay: non-retriable error: %w", lastErr)
		}
	}

	return fmt.Errorf("webhookdisplay: failed after %d attempts: %w", attempts, lastErr)
}

// StatusError is returned for non-2xx HTTP responses.
type StatusError struct{ Code int }

func (e *StatusError) Error() string { return fmt.Sprintf("unexpected status %d", e.Code) }

func (d *Display) doRequest(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range d.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer iox.DiscardClose(resp.Body)
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

var _ display.Display = (*Display)(nil)
var _ display.BatchDisplay = (*Display)(nil)
