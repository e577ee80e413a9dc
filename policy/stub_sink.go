package policy

import (
	"context"
	"sync"
)

// StubSink is a test sink that accepts writes without persisting
// anywhere, tracking statistics and write order for assertions.
type StubSink struct {
	mu sync.Mutex

	// MessagesWritten is the total count of messages written.
	MessagesWritten int64
	// Batches is the number of Write calls.
	Batches int64
	// Closed indicates whether Close was called.
	Closed bool
	// WrittenBatches stores every batch passed to Write, in order.
	WrittenBatches [][]Message

	// ErrorOnWrite, if non-nil, is returned by Write instead of
	// recording anything.
	ErrorOnWrite error
}

// NewStubSink creates a new stub sink for testing.
func NewStubSink() *StubSink {
	return &StubSink{}
}

// Write records msgs without persisting them.
func (s *StubSink) Write(_ context.Context, msgs []Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ErrorOnWrite != nil {
		return s.ErrorOnWrite
	}

	s.Batches++
	s.MessagesWritten += int64(len(msgs))
	batch := make([]Message, len(msgs))
	copy(batch, msgs)
	s.WrittenBatches = append(s.WrittenBatches, batch)
	return nil
}

// Close marks the sink as closed.
func (s *StubSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed = true
	return nil
}

// Stats returns a snapshot of sink statistics.
func (s *StubSink) Stats() StubSinkStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StubSinkStats{
		MessagesWritten: s.MessagesWritten,
		Batches:         s.Batches,
		Closed:          s.Closed,
	}
}

// StubSinkStats is a snapshot of StubSink statistics.
type StubSinkStats struct {
	MessagesWritten int64
	Batches         int64
	Closed          bool
}
