package policy

import "context"

// StrictPolicy writes every message to its sink immediately (batch of
// one), matching the teacher's unbuffered/no-drop semantics: the caller
// blocks on sink latency, and a sink error is returned to the caller
// rather than swallowed.
type StrictPolicy struct {
	sink  Sink
	stats statsRecorder
}

// NewStrictPolicy creates a policy writing to sink with no buffering.
func NewStrictPolicy(sink Sink) *StrictPolicy {
	return &StrictPolicy{sink: sink}
}

// Ingest writes msg to the sink before returning.
func (p *StrictPolicy) Ingest(ctx context.Context, msg Message) error {
	p.stats.incTotal()
	if err := p.sink.Write(ctx, []Message{msg}); err != nil {
		p.stats.incErrors()
		return err
	}
	p.stats.incPersisted(1)
	return nil
}

// Flush is a no-op; strict never buffers.
func (p *StrictPolicy) Flush(_ context.Context) error {
	p.stats.incFlush()
	return nil
}

// Close closes the underlying sink.
func (p *StrictPolicy) Close() error { return p.sink.Close() }

// Stats returns the policy's delivery counters.
func (p *StrictPolicy) Stats() Stats { return p.stats.snapshot() }
