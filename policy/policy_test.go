package policy_test

import (
	"errors"
	"testing"
	"time"

	"github.com/pithecene-io/grana/policy"
)

func TestNew_SelectsPolicyByName(t *testing.T) {
	cases := []struct {
		name string
		want any
	}{
		{policy.Noop, &policy.NoopPolicy{}},
		{"", &policy.NoopPolicy{}},
		{policy.Strict, &policy.StrictPolicy{}},
		{policy.Buffered, &policy.BufferedPolicy{}},
		{policy.Streaming, &policy.StreamingPolicy{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			sink := policy.NewStubSink()
			got, err := policy.New(c.name, sink, 8, time.Millisecond)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer got.Close()

			switch c.want.(type) {
			case *policy.NoopPolicy:
				if _, ok := got.(*policy.NoopPolicy); !ok {
					t.Errorf("expected *NoopPolicy, got %T", got)
				}
			case *policy.StrictPolicy:
				if _, ok := got.(*policy.StrictPolicy); !ok {
					t.Errorf("expected *StrictPolicy, got %T", got)
				}
			case *policy.BufferedPolicy:
				if _, ok := got.(*policy.BufferedPolicy); !ok {
					t.Errorf("expected *BufferedPolicy, got %T", got)
				}
			case *policy.StreamingPolicy:
				if _, ok := got.(*policy.StreamingPolicy); !ok {
					t.Errorf("expected *StreamingPolicy, got %T", got)
				}
			}
		})
	}
}

func TestNew_UnknownPolicyName(t *testing.T) {
	sink := policy.NewStubSink()
	_, err := policy.New("bogus", sink, 8, time.Millisecond)
	if err == nil {
		t.Fatal("expected an error for an unknown policy name")
	}
	var unknownErr *policy.UnknownPolicyError
	if !errors.As(err, &unknownErr) {
		t.Errorf("expected *UnknownPolicyError, got %T: %v", err, err)
	}
}
