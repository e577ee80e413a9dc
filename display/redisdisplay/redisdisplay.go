// Package redisdisplay implements display.Display as a Redis pub/sub
// notifier, adapted from the teacher's adapter/redis package: the same
// PUBLISH-with-retry loop, retargeted from a single run-completion payload
// to the full lifecycle of callbacks a run drives a Display through.
package redisdisplay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pithecene-io/grana/actions"
	"github.com/pithecene-io/grana/display"
	"github.com/pithecene-io/grana/types"
	"github.com/pithecene-io/grana/workflow"
)

// DefaultChannel is the default pub/sub channel name.
const DefaultChannel = "grana:run"

// DefaultTimeout is the default per-publish timeout.
const DefaultTimeout = 5 * time.Second

// DefaultRetries is the default number of retry attempts.
const DefaultRetries = 3

// Config configures the Redis pub/sub display.
type Config struct {
	// URL is the Redis connection URL (required). Format:
	// redis://[:password@]host:port[/db]
	URL string
	// Channel is the pub/sub channel name (default: grana:run).
	Channel string
	// Timeout is the per-publish timeout (default 5s).
	Timeout time.Duration
	// Retries is the number of retry attempts on failure (default 3).
	Retries int
	// RunID and Workflow are stamped on every payload.
	RunID    string
	Workflow string
}

// Display publishes one JSON event per lifecycle callback to a Redis
// channel. OnPlanInteraction is not supported: a pub/sub notifier cannot
// mediate interactive selection, so it is a no-op returning nil.
type Display struct {
	config Config
	client *goredis.Client
}

// New creates a Redis pub/sub display from cfg.
func New(cfg Config) (*Display, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis display requires a URL")
	}
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redisdisplay: invalid URL: %w", err)
	}
	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}
	return &Display{config: cfg, client: goredis.NewClient(opts)}, nil
}

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
	return d.publish(context.Background(), eventPayload{Kind: "runner_start"})
}

func (d *Display) OnRunnerFinish() error {
	return d.publish(context.Background(), eventPayload{Kind: "runner_finish"})
}

func (d *Display) OnPlanInteraction(_ *workflow.Graph) error { return nil }

func (d *Display) OnActionStart(a actions.Action) {
	_ = d.publish(context.Background(), eventPayload{Kind: "action_start", Action: a.Name()})
}

func (d *Display) OnActionFinish(a actions.Action) {
	_ = d.publish(context.Background(), eventPayload{
		Kind: "action_finish", Action: a.Name(), Status: a.Status().String(),
	})
}

func (d *Display) EmitActionMessage(a actions.Action, msg types.Event, stderr bool) {
	d.EmitActionMessages(a, []types.EventItem{{Message: msg, Stderr: stderr}})
}

// EmitActionMessages coalesces a batch of drained events for one action
// into a single PUBLISH (display.BatchDisplay).
func (d *Display) EmitActionMessages(a actions.Action, msgs []types.EventItem) {
	lines := make([]string, len(msgs))
	stderr := false
	for i, m := range msgs {
		lines[i] = string(m.Message)
		stderr = stderr || m.Stderr
	}
	_ = d.publish(context.Background(), eventPayload{
		Kind: "action_message", Action: a.Name(), Lines: lines, Stderr: stderr,
	})
}

func (d *Display) EmitActionError(a actions.Action, msg string) {
	_ = d.publish(context.Background(), eventPayload{
		Kind: "action_error", Action: a.Name(), Message: msg,
	})
}

// Close releases the Redis client.
func (d *Display) Close() error { return d.client.Close() }

// publish sends payload as JSON, retrying with exponential backoff.
func (d *Display) publish(ctx context.Context, payload eventPayload) error {
	payload.RunID = d.config.RunID
	payload.Workflow = d.config.Workflow

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("redisdisplay: marshal event: %w", err)
	}

	var lastErr error
	attempts := 1 + d.config.Retries

	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("redisdisplay: context canceled: %w", err)
		}
		if i > 0 {
			backoff := time.Duration(1<<uint(i-1)) * 500 * time.Millisecond
			select {
			case <-ctx.Done():
				return fmt.Errorf("redisdisplay: context canceled during backoff: %w", ctx.Err())
			case <-time.After(backoff):
			}
		}

		publishCtx, cancel := context.WithTimeout(ctx, d.config.Timeout)
		lastErr = d.client.Publish(publishCtx, d.config.Channel, body).Err()
		cancel()

		if lastErr == nil {
			return nil
		}
	}

	return fmt.Errorf("redisdisplay: failed after %d attempts: %w", attempts, lastErr)
}

var _ display.Display = (*Display)(nil)
var _ display.BatchDisplay = (*Display)(nil)
