package policy_test

import (
	"errors"
	"testing"

	"github.com/pithecene-io/grana/policy"
	"github.com/pithecene-io/grana/types"
)

var errSinkFailure = errors.New("sink failure")

func TestBufferedPolicy_FlushesAtSizeTrigger(t *testing.T) {
	sink := policy.NewStubSink()
	pol := policy.NewBufferedPolicy(sink, 3)

	for i := 0; i < 2; i++ {
		if err := pol.Ingest(t.Context(), policy.Message{Text: types.Event("x")}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if sink.Stats().Batches != 0 {
		t.Fatalf("expected no flush before trigger, got %d batches", sink.Stats().Batches)
	}

	if err := pol.Ingest(t.Context(), policy.Message{Text: types.Event("x")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sink.Stats().Batches != 1 {
		t.Errorf("expected 1 batch after reaching trigger, got %d", sink.Stats().Batches)
	}
	if sink.Stats().MessagesWritten != 3 {
		t.Errorf("expected 3 messages written, got %d", sink.Stats().MessagesWritten)
	}
}

func TestBufferedPolicy_DefaultsWhenNonPositive(t *testing.T) {
	sink := policy.NewStubSink()
	pol := policy.NewBufferedPolicy(sink, 0)

	for i := 0; i < 31; i++ {
		_ = pol.Ingest(t.Context(), policy.Message{Text: types.Event("x")})
	}
	if sink.Stats().Batches != 0 {
		t.Fatalf("expected default buffer (32) not yet triggered, got %d batches", sink.Stats().Batches)
	}
	_ = pol.Ingest(t.Context(), policy.Message{Text: types.Event("x")})
	if sink.Stats().Batches != 1 {
		t.Errorf("expected default buffer of 32 to trigger a flush, got %d batches", sink.Stats().Batches)
	}
}

func TestBufferedPolicy_ExplicitFlushDrainsPartialBuffer(t *testing.T) {
	sink := policy.NewStubSink()
	pol := policy.NewBufferedPolicy(sink, 10)

	_ = pol.Ingest(t.Context(), policy.Message{Text: types.Event("x")})
	_ = pol.Ingest(t.Context(), policy.Message{Text: types.Event("x")})

	if err := pol.Flush(t.Context()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sink.Stats().Batches != 1 {
		t.Errorf("expected explicit flush to write 1 batch, got %d", sink.Stats().Batches)
	}
	if sink.Stats().MessagesWritten != 2 {
		t.Errorf("expected 2 messages flushed, got %d", sink.Stats().MessagesWritten)
	}

	if err := pol.Flush(t.Context()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sink.Stats().Batches != 1 {
		t.Errorf("flushing an empty buffer should not write another batch, got %d", sink.Stats().Batches)
	}
}

func TestBufferedPolicy_SinkErrorPropagates(t *testing.T) {
	sink := policy.NewStubSink()
	sink.ErrorOnWrite = errSinkFailure

	pol := policy.NewBufferedPolicy(sink, 1)
	err := pol.Ingest(t.Context(), policy.Message{Text: types.Event("x")})
	if err != errSinkFailure {
		t.Errorf("expected sink error to propagate, got %v", err)
	}
	if pol.Stats().Errors != 1 {
		t.Errorf("expected Errors=1, got %d", pol.Stats().Errors)
	}
}

func TestBufferedPolicy_CloseFlushesRemainder(t *testing.T) {
	sink := policy.NewStubSink()
	pol := policy.NewBufferedPolicy(sink, 10)

	_ = pol.Ingest(t.Context(), policy.Message{Text: types.Event("x")})
	if err := pol.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sink.Stats().MessagesWritten != 1 {
		t.Errorf("expected Close to flush remaining message, got %d written", sink.Stats().MessagesWritten)
	}
	if !sink.Stats().Closed {
		t.Error("sink should be closed")
	}
}
