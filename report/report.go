// Package report assembles a run's final action states into a portable
// artifact and writes it to a local file or an S3 destination. There is
// no report concept in the original implementation beyond its terminal
// banner; this package exists to give the binary run-report format
// (msgpack) and the S3 client a concrete home (SPEC_FULL.md §3/§4).
package report

import (
	"time"

	"github.com/pithecene-io/grana/workflow"
)

// ActionReport is one action's final state, as carried in a Report.
type ActionReport struct {
	Name     string            `json:"name" msgpack:"name"`
	Status   string            `json:"status" msgpack:"status"`
	Tier     int               `json:"tier" msgpack:"tier"`
	Outcomes map[string]string `json:"outcomes,omitempty" msgpack:"outcomes,omitempty"`
}

// Report is the full run-report artifact.
type Report struct {
	RunID       string         `json:"run_id" msgpack:"run_id"`
	Workflow    string         `json:"workflow" msgpack:"workflow"`
	Strategy    string         `json:"strategy" msgpack:"strategy"`
	Outcome     string         `json:"outcome" msgpack:"outcome"`
	GeneratedAt time.Time      `json:"generated_at" msgpack:"generated_at"`
	Actions     []ActionReport `json:"actions" msgpack:"actions"`
}

// Outcome values for Report.Outcome.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Build assembles a Report from g's final action states, read after
// orchestrator.Run has returned. failed is the same execution-failed
// determination Run already made; Build does not re-derive it from
// individual action statuses so a WARNING-only run correctly reports
// success.
func Build(g *workflow.Graph, runID, workflowName, strategy string, failed bool) *Report {
	entries := g.IterByTier()
	actionsReport := make([]ActionReport, 0, len(entries))
	for _, entry := range entries {
		outcomes := entry.Action.GetOutcomes()
		var om map[string]string
		if len(outcomes) > 0 {
			om = make(map[string]string, len(outcomes))
			for k, v := range outcomes {
				om[k] = v
			}
		}
		actionsReport = append(actionsReport, ActionReport{
			Name:     entry.Name,
			Status:   entry.Action.Status().String(),
			Tier:     entry.Tier,
			Outcomes: om,
		})
	}

	outcome := OutcomeSuccess
	if failed {
		outcome = OutcomeFailure
	}

	return &Report{
		RunID:       runID,
		Workflow:    workflowName,
		Strategy:    strategy,
		Outcome:     outcome,
		GeneratedAt: time.Now().UTC(),
		Actions:     actionsReport,
	}
}
