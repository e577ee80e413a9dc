package policy

import "context"

// NoopPolicy discards every message after counting it. Useful for a run
// where the display itself is a no-op and there is no point paying for
// the draining goroutine's Sink call at all.
type NoopPolicy struct {
	stats statsRecorder
}

// NewNoopPolicy creates a policy that drops everything it ingests.
func NewNoopPolicy() *NoopPolicy {
	return &NoopPolicy{}
}

// Ingest counts msg as dropped. Never returns an error.
func (p *NoopPolicy) Ingest(_ context.Context, _ Message) error {
	p.stats.incTotal()
	p.stats.incDropped(1)
	return nil
}

// Flush is a no-op (nothing is ever buffered).
func (p *NoopPolicy) Flush(_ context.Context) error {
	p.stats.incFlush()
	return nil
}

// Close is a no-op.
func (p *NoopPolicy) Close() error { return nil }

// Stats returns the policy's drop counters.
func (p *NoopPolicy) Stats() Stats { return p.stats.snapshot() }
