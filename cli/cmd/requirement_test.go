package cmd

import (
	"testing"

	"github.com/pithecene-io/grana/errs"
	"github.com/pithecene-io/grana/loader"
)

func TestCheckPackageRequirement_NoConstraint(t *testing.T) {
	doc := &loader.Document{Context: map[string]interface{}{}}
	if err := checkPackageRequirement(doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckPackageRequirement_Satisfied(t *testing.T) {
	doc := &loader.Document{Context: map[string]interface{}{"requires": ">=0.0.1"}}
	if err := checkPackageRequirement(doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckPackageRequirement_Unsatisfied(t *testing.T) {
	doc := &loader.Document{Context: map[string]interface{}{"requires": ">=99.0.0"}}
	err := checkPackageRequirement(doc)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errs.IsPackageRequirementError(err) {
		t.Errorf("expected a package-requirement error, got %v", err)
	}
}

func TestCheckPackageRequirement_NonStringValue(t *testing.T) {
	doc := &loader.Document{Context: map[string]interface{}{"requires": 5}}
	err := checkPackageRequirement(doc)
	if err == nil || !errs.IsPackageRequirementError(err) {
		t.Fatalf("expected a package-requirement error, got %v", err)
	}
}

func TestSatisfiesConstraint(t *testing.T) {
	cases := []struct {
		version, constraint string
		want                bool
	}{
		{"0.1.0", ">=0.1.0", true},
		{"0.1.0", ">0.1.0", false},
		{"0.1.0", "<0.2.0", true},
		{"0.1.0", "==0.1.0", true},
		{"0.1.0", "0.1.0", true},
		{"0.2.0", ">=0.1.0", true},
		{"0.0.9", ">=0.1.0", false},
	}
	for _, c := range cases {
		got, err := satisfiesConstraint(c.version, c.constraint)
		if err != nil {
			t.Fatalf("satisfiesConstraint(%q, %q): %v", c.version, c.constraint, err)
		}
		if got != c.want {
			t.Errorf("satisfiesConstraint(%q, %q) = %v, want %v", c.version, c.constraint, got, c.want)
		}
	}
}
