package policy_test

import (
	"testing"
	"time"

	"github.com/pithecene-io/grana/policy"
	"github.com/pithecene-io/grana/types"
)

func TestStreamingPolicy_FlushesAtSizeTrigger(t *testing.T) {
	sink := policy.NewStubSink()
	pol := policy.NewStreamingPolicy(sink, 2, time.Hour)
	defer pol.Close()

	_ = pol.Ingest(t.Context(), policy.Message{Text: types.Event("x")})
	if sink.Stats().Batches != 0 {
		t.Fatalf("expected no flush before size trigger, got %d", sink.Stats().Batches)
	}
	_ = pol.Ingest(t.Context(), policy.Message{Text: types.Event("x")})
	if sink.Stats().Batches != 1 {
		t.Errorf("expected size trigger to flush, got %d batches", sink.Stats().Batches)
	}
}

func TestStreamingPolicy_FlushesOnInterval(t *testing.T) {
	sink := policy.NewStubSink()
	pol := policy.NewStreamingPolicy(sink, 1000, 5*time.Millisecond)
	defer pol.Close()

	_ = pol.Ingest(t.Context(), policy.Message{Text: types.Event("x")})

	deadline := time.After(200 * time.Millisecond)
	for sink.Stats().Batches == 0 {
		select {
		case <-deadline:
			t.Fatal("expected interval trigger to flush the buffered message")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if sink.Stats().MessagesWritten != 1 {
		t.Errorf("expected 1 message flushed on interval, got %d", sink.Stats().MessagesWritten)
	}
}

func TestStreamingPolicy_CloseStopsLoopAndFlushesRemainder(t *testing.T) {
	sink := policy.NewStubSink()
	pol := policy.NewStreamingPolicy(sink, 1000, time.Hour)

	_ = pol.Ingest(t.Context(), policy.Message{Text: types.Event("x")})
	if err := pol.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sink.Stats().MessagesWritten != 1 {
		t.Errorf("expected Close to flush remaining message, got %d", sink.Stats().MessagesWritten)
	}
	if !sink.Stats().Closed {
		t.Error("sink should be closed")
	}
}

func TestStreamingPolicy_CloseIsIdempotent(t *testing.T) {
	sink := policy.NewStubSink()
	pol := policy.NewStreamingPolicy(sink, 1000, time.Hour)

	if err := pol.Close(); err != nil {
		t.Fatalf("unexpected error on first close: %v", err)
	}
	if err := pol.Close(); err != nil {
		t.Fatalf("unexpected error on second close: %v", err)
	}
}
