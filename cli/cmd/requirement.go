package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pithecene-io/grana/errs"
	"github.com/pithecene-io/grana/loader"
	"github.com/pithecene-io/grana/types"
)

// checkPackageRequirement enforces a workflow's optional context.requires
// version bound against the running grana binary, mirroring
// original_source's loader.check_requirements() call in runner.py, adapted
// from a Python-package-registry lookup to a single semver bound on the
// binary itself (there is no package registry a Go module can query at
// runtime). The CLI checks this once, before any action runs, per
// SPEC_FULL.md §4.
func checkPackageRequirement(doc *loader.Document) error {
	raw, ok := doc.Context["requires"]
	if !ok {
		return nil
	}
	constraint, ok := raw.(string)
	if !ok {
		return errs.New(errs.KindPackageRequirement, "'context.requires' must be a string")
	}
	satisfied, err := satisfiesConstraint(types.Version, constraint)
	if err != nil {
		return errs.Wrap(errs.KindPackageRequirement, "parsing context.requires", err)
	}
	if !satisfied {
		return errs.New(errs.KindPackageRequirement,
			fmt.Sprintf("workflow requires grana %s, running %s", constraint, types.Version))
	}
	return nil
}

// satisfiesConstraint checks version against a constraint of the form
// "<op><major>.<minor>.<patch>", where op is one of >=, <=, ==, >, <, or
// the empty string (meaning ==). Pre-release/build metadata are not
// supported, matching the plain "x.y.z" form types.Version itself uses.
func satisfiesConstraint(version, constraint string) (bool, error) {
	constraint = strings.TrimSpace(constraint)
	op, verStr := splitOperator(constraint)

	want, err := parseSemver(verStr)
	if err != nil {
		return false, err
	}
	got, err := parseSemver(version)
	if err != nil {
		return false, err
	}

	cmp := compareSemver(got, want)
	switch op {
	case ">=":
		return cmp >= 0, nil
	case "<=":
		return cmp <= 0, nil
	case ">":
		return cmp > 0, nil
	case "<":
		return cmp < 0, nil
	case "==", "":
		return cmp == 0, nil
	default:
		return false, fmt.Errorf("unsupported operator %q", op)
	}
}

func splitOperator(constraint string) (op, version string) {
	for _, candidate := range []string{">=", "<=", "==", ">", "<"} {
		if strings.HasPrefix(constraint, candidate) {
			return candidate, strings.TrimSpace(strings.TrimPrefix(constraint, candidate))
		}
	}
	return "", constraint
}

type semver struct{ major, minor, patch int }

func parseSemver(s string) (semver, error) {
	parts := strings.SplitN(s, ".", 3)
	if len(parts) == 0 || parts[0] == "" {
		return semver{}, fmt.Errorf("invalid version %q", s)
	}
	var v semver
	var err error
	if v.major, err = strconv.Atoi(parts[0]); err != nil {
		return semver{}, fmt.Errorf("invalid version %q: %w", s, err)
	}
	if len(parts) > 1 {
		if v.minor, err = strconv.Atoi(parts[1]); err != nil {
			return semver{}, fmt.Errorf("invalid version %q: %w", s, err)
		}
	}
	if len(parts) > 2 {
		if v.patch, err = strconv.Atoi(parts[2]); err != nil {
			return semver{}, fmt.Errorf("invalid version %q: %w", s, err)
		}
	}
	return v, nil
}

// compareSemver returns <0, 0, >0 as a is less than, equal to, or greater
// than b.
func compareSemver(a, b semver) int {
	if a.major != b.major {
		return a.major - b.major
	}
	if a.minor != b.minor {
		return a.minor - b.minor
	}
	return a.patch - b.patch
}
