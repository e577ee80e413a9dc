package report_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pithecene-io/grana/report"
	"github.com/vmihailenco/msgpack/v5"
)

func sampleReport() *report.Report {
	return &report.Report{
		RunID:       "run-1",
		Workflow:    "build.yaml",
		Strategy:    "free",
		Outcome:     report.OutcomeSuccess,
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Actions: []report.ActionReport{
			{Name: "a", Status: "SUCCESS", Tier: 0, Outcomes: map[string]string{"x": "1"}},
		},
	}
}

func TestEncode_JSON(t *testing.T) {
	data, err := report.Encode(report.FormatJSON, sampleReport())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var decoded report.Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.RunID != "run-1" {
		t.Errorf("RunID = %q, want run-1", decoded.RunID)
	}
}

func TestEncode_Msgpack(t *testing.T) {
	data, err := report.Encode(report.FormatMsgpack, sampleReport())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var decoded report.Report
	if err := msgpack.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Workflow != "build.yaml" {
		t.Errorf("Workflow = %q, want build.yaml", decoded.Workflow)
	}
}

func TestEncode_UnknownFormat(t *testing.T) {
	_, err := report.Encode(report.Format("bogus"), sampleReport())
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestWrite_LocalFile(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "report.json")

	if err := report.Write(t.Context(), sampleReport(), report.FormatJSON, dest); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var decoded report.Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.RunID != "run-1" {
		t.Errorf("RunID = %q, want run-1", decoded.RunID)
	}
}

func TestWrite_EmptyDestination(t *testing.T) {
	if err := report.Write(t.Context(), sampleReport(), report.FormatJSON, ""); err == nil {
		t.Fatal("expected error for empty destination")
	}
}
