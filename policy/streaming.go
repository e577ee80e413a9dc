package policy

import (
	"context"
	"sync"
	"time"
)

const defaultFlushInterval = time.Second

// StreamingPolicy batches messages like BufferedPolicy but adds a time
// trigger: a background goroutine flushes on interval even if the size
// trigger never fires, so a slow-talking action's output still reaches
// the display promptly.
type StreamingPolicy struct {
	sink      Sink
	maxBuffer int
	interval  time.Duration

	mu    sync.Mutex
	buf   []Message
	stats statsRecorder

	closeOnce sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// NewStreamingPolicy creates a policy that batches messages up to
// maxBuffer (<=0 defaults to 32) or interval (<=0 defaults to one
// second), whichever triggers first. The background flush loop starts
// immediately.
func NewStreamingPolicy(sink Sink, maxBuffer int, interval time.Duration) *StreamingPolicy {
	if maxBuffer <= 0 {
		maxBuffer = defaultBufferSize
	}
	if interval <= 0 {
		interval = defaultFlushInterval
	}
	p := &StreamingPolicy{
		sink:      sink,
		maxBuffer: maxBuffer,
		interval:  interval,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go p.loop()
	return p
}

func (p *StreamingPolicy) loop() {
	defer close(p.done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = p.Flush(context.Background())
		case <-p.stop:
			return
		}
	}
}

// Ingest appends msg to the buffer, flushing immediately if the buffer
// has reached maxBuffer. The time trigger is handled by the background
// loop, not here.
func (p *StreamingPolicy) Ingest(ctx context.Context, msg Message) error {
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
// buffer. Safe to call concurrently with the background timer.
func (p *StreamingPolicy) Flush(ctx context.Context) error {
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

// Close stops the background flush loop, flushes whatever remains, and
// closes the sink.
func (p *StreamingPolicy) Close() error {
	p.closeOnce.Do(func() {
		close(p.stop)
		<-p.done
	})
	_ = p.Flush(context.Background())
	return p.sink.Close()
}

// Stats returns the policy's delivery counters.
func (p *StreamingPolicy) Stats() Stats { return p.stats.snapshot() }
