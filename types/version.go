// Package types holds the small value types shared across grana's packages:
// action status and severity, dependency edges, and event payloads. Keeping
// these in a leaf package (no internal imports) avoids import cycles between
// actions, workflow, rendering, and orchestrator.
package types

// Version is the grana semantic version, reported by `grana version` and
// checked against any context.requires package-requirement declared by a
// loaded workflow.
const Version = "0.1.0"
