package actions

import (
	"context"
	"testing"

	"github.com/pithecene-io/grana/types"
)

func TestShellEmitsStdoutLines(t *testing.T) {
	s, err := NewShellAction("sh-0", ShellArgs{Command: "echo hi"}, nil, "", true, types.SeverityNormal)
	if err != nil {
		t.Fatalf("NewShellAction: %v", err)
	}
	ctx := context.Background()
	s.Start(ctx)
	events := drainEvents(t, s.Base)
	if err := s.AwaitCompletion(ctx); err != nil {
		t.Fatalf("AwaitCompletion: %v", err)
	}
	if len(events) != 1 || events[0] != "hi" {
		t.Fatalf("events = %v, want [hi]", events)
	}
}

func TestShellNonZeroExitFails(t *testing.T) {
	s, err := NewShellAction("sh-1", ShellArgs{Command: "exit 3"}, nil, "", true, types.SeverityNormal)
	if err != nil {
		t.Fatalf("NewShellAction: %v", err)
	}
	ctx := context.Background()
	s.Start(ctx)
	drainEvents(t, s.Base)
	if err := s.AwaitCompletion(ctx); err == nil {
		t.Fatalf("expected failure")
	}
	if got := s.Status(); got != types.StatusFailure {
		t.Fatalf("status = %v, want FAILURE", got)
	}
}

func TestShellPreludeYieldOutcome(t *testing.T) {
	s, err := NewShellAction("sh-2", ShellArgs{
		Command:       "yield_outcome k v",
		InjectPrelude: true,
	}, nil, "", true, types.SeverityNormal)
	if err != nil {
		t.Fatalf("NewShellAction: %v", err)
	}
	ctx := context.Background()
	s.Start(ctx)
	drainEvents(t, s.Base)
	if err := s.AwaitCompletion(ctx); err != nil {
		t.Fatalf("AwaitCompletion: %v", err)
	}
	if got := s.GetOutcomes()["k"]; got != "v" {
		t.Fatalf("outcome k = %q, want v", got)
	}
}

func TestShellArgsValidation(t *testing.T) {
	if _, err := NewShellAction("x", ShellArgs{}, nil, "", true, types.SeverityNormal); err == nil {
		t.Fatalf("expected error for neither command nor file")
	}
	if _, err := NewShellAction("x", ShellArgs{Command: "a", File: "b"}, nil, "", true, types.SeverityNormal); err == nil {
		t.Fatalf("expected error for both command and file")
	}
}
