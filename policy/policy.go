// Package policy controls the cadence at which an action's event stream is
// forwarded to a display.Display sink: write every message immediately
// (strict), batch messages up to a size trigger (buffered), batch on a
// size-or-time trigger (streaming), or discard them after counting
// (noop). The orchestrator owns one Policy per run and feeds it every
// drained action event instead of calling the display directly, so a
// network-backed display (webhookdisplay, redisdisplay) doesn't pay a
// round trip per line of shell output.
//
// Adapted from the teacher's ingestion-policy family
// (quarry/policy/{noop,strict,buffered,streaming}.go), which governs
// buffering/dropping/persistence of scraped records against a storage
// Sink; retargeted here from "persist a record" to "flush an action's
// event stream to a display", with the event-type-based drop rules
// replaced by a single closed domain (there is no droppable/
// non-droppable event distinction for action messages - an Ingest or
// Flush error is logged by the orchestrator and the run continues, and
// nothing here is ever silently dropped by content).
package policy

import (
	"context"
	"sync"
	"time"

	"github.com/pithecene-io/grana/actions"
	"github.com/pithecene-io/grana/types"
)

// Message is one drained action event awaiting delivery to a Sink.
type Message struct {
	Action actions.Action
	Text   types.Event
	Stderr bool
}

// Sink abstracts delivery of a batch of messages to a display or other
// downstream consumer. Implementations may write to a terminal, POST to a
// webhook, or PUBLISH to Redis. Methods are batch-oriented so strict
// (batch of 1) and buffered/streaming (batch of N) policies share one
// interface.
type Sink interface {
	// Write delivers msgs in order. Returns error on failure; the
	// policy decides whether that terminates the run.
	Write(ctx context.Context, msgs []Message) error
	// Close releases sink resources.
	Close() error
}

// Policy is the event-delivery cadence contract the orchestrator drives.
type Policy interface {
	// Ingest accepts one drained action event. May buffer it, may write
	// it immediately, may drop it (noop only). Returns error only when
	// the underlying sink fails and the policy does not buffer past
	// that failure.
	Ingest(ctx context.Context, msg Message) error
	// Flush delivers any buffered messages. Called by the orchestrator
	// once after the run's strategy finishes iterating, and by
	// streaming policies on their own interval.
	Flush(ctx context.Context) error
	// Close flushes (best effort) and releases the sink.
	Close() error
	// Stats returns an atomic snapshot of delivery statistics.
	Stats() Stats
}

// Stats is policy observability, returned by Policy.Stats().
type Stats struct {
	// TotalMessages is the total number of messages ingested.
	TotalMessages int64
	// MessagesPersisted is the number of messages handed to the sink
	// (noop counts messages as "dropped", never persisted).
	MessagesPersisted int64
	// MessagesDropped is the number of messages never handed to a sink.
	MessagesDropped int64
	// BufferSize is the current number of buffered, not-yet-flushed
	// messages (0 for strict and noop).
	BufferSize int64
	// FlushCount is the number of Flush operations performed.
	FlushCount int64
	// Errors is the count of sink write failures encountered.
	Errors int64
}

// Names lists the event-delivery policies selectable by name (CLI flag /
// config value).
const (
	Noop      = "noop"
	Strict    = "strict"
	Buffered  = "buffered"
	Streaming = "streaming"
)

// statsRecorder is a thread-safe holder for Stats, shared by every
// concrete policy so Stats() has one implementation to get right.
type statsRecorder struct {
	mu    sync.Mutex
	stats Stats
}

func (r *statsRecorder) incTotal() {
	r.mu.Lock()
	r.stats.TotalMessages++
	r.mu.Unlock()
}

func (r *statsRecorder) incPersisted(n int64) {
	r.mu.Lock()
	r.stats.MessagesPersisted += n
	r.mu.Unlock()
}

func (r *statsRecorder) incDropped(n int64) {
	r.mu.Lock()
	r.stats.MessagesDropped += n
	r.mu.Unlock()
}

func (r *statsRecorder) incErrors() {
	r.mu.Lock()
	r.stats.Errors++
	r.mu.Unlock()
}

func (r *statsRecorder) incFlush() {
	r.mu.Lock()
	r.stats.FlushCount++
	r.mu.Unlock()
}

func (r *statsRecorder) setBufferSize(n int64) {
	r.mu.Lock()
	r.stats.BufferSize = n
	r.mu.Unlock()
}

func (r *statsRecorder) snapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// New builds the named policy writing to sink. buffer is the batch-size
// trigger used by buffered/streaming (a value <= 0 defaults to 32);
// interval is the time trigger used by streaming only (a value <= 0
// defaults to one second).
func New(name string, sink Sink, buffer int, interval time.Duration) (Policy, error) {
	switch name {
	case Noop, "":
		return NewNoopPolicy(), nil
	case Strict:
		return NewStrictPolicy(sink), nil
	case Buffered:
		return NewBufferedPolicy(sink, buffer), nil
	case Streaming:
		return NewStreamingPolicy(sink, buffer, interval), nil
	default:
		return nil, &UnknownPolicyError{Name: name}
	}
}

// UnknownPolicyError is returned by New for an unrecognized policy name.
type UnknownPolicyError struct{ Name string }

func (e *UnknownPolicyError) Error() string { return "unknown event policy: " + e.Name }
