package policy_test

import (
	"testing"

	"github.com/pithecene-io/grana/policy"
	"github.com/pithecene-io/grana/types"
)

func TestNoopPolicy_DropsEverything(t *testing.T) {
	pol := policy.NewNoopPolicy()

	for i := 0; i < 4; i++ {
		if err := pol.Ingest(t.Context(), policy.Message{Text: types.Event("x")}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	stats := pol.Stats()
	if stats.TotalMessages != 4 {
		t.Errorf("expected TotalMessages=4, got %d", stats.TotalMessages)
	}
	if stats.MessagesDropped != 4 {
		t.Errorf("expected MessagesDropped=4, got %d", stats.MessagesDropped)
	}
	if stats.MessagesPersisted != 0 {
		t.Errorf("expected MessagesPersisted=0, got %d", stats.MessagesPersisted)
	}
}

func TestNoopPolicy_FlushAndCloseAreNoops(t *testing.T) {
	pol := policy.NewNoopPolicy()
	if err := pol.Flush(t.Context()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := pol.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pol.Stats().FlushCount != 1 {
		t.Errorf("expected FlushCount=1, got %d", pol.Stats().FlushCount)
	}
}
