package policy

import (
	"context"
	"sync"
)

const defaultBufferSize = 32

// BufferedPolicy accumulates messages and flushes once the buffer
// reaches maxBuffer, or when Flush is called explicitly (the
// orchestrator always calls Flush once after the run finishes, to
// drain whatever is left under the trigger).
type BufferedPolicy struct {
	sink      Sink
	maxBuffer int
	mu        sync.Mutex
	buf       []Message
	stats     statsRecorder
}

// NewBufferedPolicy creates a policy that batches up to maxBuffer
// messages before writing them to sink. maxBuffer <= 0 defaults to 32.
func NewBufferedPolicy(sink Sink, maxBuffer int) *BufferedPolicy {
	if maxBuffer <= 0 {
		maxBuffer = defaultBufferSize
	}
	return &BufferedPolicy{sink: sink, maxBuffer: maxBuffer}
}

// Ingest appends msg to the buffer, flushing if the buffer has reached
// maxBuffer.
func (p *BufferedPolicy) Ingest(ctx context.Context, msg Message) error {
	p.stats.incTotal()

	p.mu.Lock()
	p.buf = append(p.buf, msg)
	full := len(p.buf) >= p.maxBuffer
	p.stats.setBufferSize(int64(len(p.buf)))
	p.mu.Unlock()

	if full {
		return p.Flush(ctx)
	}
	return nil
}

// Flush writes any buffered messages to the sink and empties the
// buffer, regardless of whether the size trigger was reached.
func (p *BufferedPolicy) Flush(ctx context.Context) error {
	p.mu.Lock()
	pending := p.buf
	p.buf = nil
	p.mu.Unlock()

	p.stats.incFlush()
	p.stats.setBufferSize(0)
	if len(pending) == 0 {
		return nil
	}
	if err := p.sink.Write(ctx, pending); err != nil {
		p.stats.incErrors()
		return err
	}
	p.stats.incPersisted(int64(len(pending)))
	return nil
}

// Close flushes any remaining messages (best effort) and closes the
// sink.
func (p *BufferedPolicy) Close() error {
	_ = p.Flush(context.Background())
	return p.sink.Close()
}

// Stats returns the policy's delivery counters.
func (p *BufferedPolicy) Stats() Stats { return p.stats.snapshot() }
