// Package metrics provides per-run metrics collection for the orchestrator.
//
// The Collector accumulates counters during a single run: action lifecycle
// (started/terminal-by-status), tier timing, and render/run error counts. It
// is a leaf package with no internal dependencies, adapted from the
// teacher's executor/ingestion counters (quarry/metrics/collector.go)
// retargeted from subprocess/ingestion events to action-status and
// tier-timing events.
package metrics

import (
	"sync"
	"time"
)

// Snapshot is an immutable point-in-time view of a run's metrics. Returned
// by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Run lifecycle
	RunsStarted   int64
	RunsCompleted int64
	RunsFailed    int64

	// Action lifecycle, by terminal status string ("SUCCESS", "FAILURE", ...)
	ActionsStarted  int64
	ActionsByStatus map[string]int64

	// Render/run error counts
	RenderErrors int64
	RunErrors    int64

	// Tier timing: wall-clock duration of each tier, index by tier number.
	TierDurations []time.Duration

	// Dimensions (informational, set at construction)
	Strategy string
	Workflow string
	RunID    string
}

// Collector accumulates metrics during a single run. Thread-safe via
// sync.Mutex. All increment methods are nil-receiver safe, so a Config
// without a Collector costs nothing.
type Collector struct {
	mu sync.Mutex

	runsStarted   int64
	runsCompleted int64
	runsFailed    int64

	actionsStarted  int64
	actionsByStatus map[string]int64

	renderErrors int64
	runErrors    int64

	tierStart    map[int]time.Time
	tierDuration map[int]time.Duration

	strategy string
	workflow string
	runID    string
}

// NewCollector creates a Collector with dimension labels.
func NewCollector(strategy, workflow, runID string) *Collector {
	return &Collector{
		actionsByStatus: make(map[string]int64),
		tierStart:       make(map[int]time.Time),
		tierDuration:    make(map[int]time.Duration),
		strategy:        strategy,
		workflow:        workflow,
		runID:           runID,
	}
}

// IncRunStarted records a run start.
func (c *Collector) IncRunStarted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.runsStarted++
	c.mu.Unlock()
}

// IncRunCompleted records a run that finished without execution-failed.
func (c *Collector) IncRunCompleted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.runsCompleted++
	c.mu.Unlock()
}

// IncRunFailed records a run that finished flagged failed.
func (c *Collector) IncRunFailed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.runsFailed++
	c.mu.Unlock()
}

// IncActionStarted records one action transitioning PENDING -> RUNNING.
func (c *Collector) IncActionStarted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.actionsStarted++
	c.mu.Unlock()
}

// IncActionTerminal records one action reaching the given terminal status
// (its types.ActionStatus string form).
func (c *Collector) IncActionTerminal(status string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.actionsByStatus[status]++
	c.mu.Unlock()
}

// IncRenderError records a render failure scoped to one action.
func (c *Collector) IncRenderError() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.renderErrors++
	c.mu.Unlock()
}

// IncRunError records an action body failure.
func (c *Collector) IncRunError() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.runErrors++
	c.mu.Unlock()
}

// StartTier marks the wall-clock start of tier.
func (c *Collector) StartTier(tier int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	if _, ok := c.tierStart[tier]; !ok {
		c.tierStart[tier] = time.Now()
	}
	c.mu.Unlock()
}

// FinishTier records the wall-clock duration elapsed since StartTier(tier),
// keeping the largest value observed so far. The orchestrator calls this
// once per completing action; since a tier isn't "done" until its last
// action finishes, the running maximum converges on that tier's true
// completion time without the collector needing to know tier membership
// counts. A no-op if StartTier was never called for tier.
func (c *Collector) FinishTier(tier int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	start, ok := c.tierStart[tier]
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > c.tierDuration[tier] {
		c.tierDuration[tier] = elapsed
	}
}

// Snapshot returns an immutable point-in-time view of all metrics. The
// Collector may continue to be mutated independently afterward.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	byStatus := make(map[string]int64, len(c.actionsByStatus))
	for k, v := range c.actionsByStatus {
		byStatus[k] = v
	}

	maxTier := -1
	for tier := range c.tierDuration {
		if tier > maxTier {
			maxTier = tier
		}
	}
	var durations []time.Duration
	if maxTier >= 0 {
		durations = make([]time.Duration, maxTier+1)
		for tier, d := range c.tierDuration {
			durations[tier] = d
		}
	}

	return Snapshot{
		RunsStarted:   c.runsStarted,
		RunsCompleted: c.runsCompleted,
		RunsFailed:    c.runsFailed,

		ActionsStarted:  c.actionsStarted,
		ActionsByStatus: byStatus,

		RenderErrors: c.renderErrors,
		RunErrors:    c.runErrors,

		TierDurations: durations,

		Strategy: c.strategy,
		Workflow: c.workflow,
		RunID:    c.runID,
	}
}
