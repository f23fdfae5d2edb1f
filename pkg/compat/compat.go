// Package compat checks declared version ranges against indexed versions.
//
// Every edge produced by [depgraph.Index.PopulateDependents] carries the
// range a dependent declared for its dependency. Check reports whether the
// dependency's indexed version falls inside that range. Nothing outside the
// index is consulted: a range naming a registry tag, a git URL or a local
// path is reported as unparseable.
package compat

import (
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/matzehuels/revdeps/pkg/depgraph"
	"github.com/matzehuels/revdeps/pkg/errors"
	"github.com/matzehuels/revdeps/pkg/manifest"
)

// Status is the outcome of checking one edge.
type Status string

const (
	StatusSatisfied   Status = "satisfied"
	StatusUnsatisfied Status = "unsatisfied"
	StatusUnparseable Status = "unparseable"
)

// Finding describes one dependent's range against a package's version.
type Finding struct {
	Package        string        `json:"package"`
	PackageVersion string        `json:"packageVersion"`
	Dependent      string        `json:"dependent"`
	Kind           manifest.Kind `json:"kind"`
	Range          string        `json:"range"`
	Status         Status        `json:"status"`
	Reason         string        `json:"reason,omitempty"`
}

// Report groups findings with per-status counts.
type Report struct {
	Findings    []Finding `json:"findings"`
	Satisfied   int       `json:"satisfied"`
	Unsatisfied int       `json:"unsatisfied"`
	Unparseable int       `json:"unparseable"`
}

// OK reports whether no range was unsatisfied.
func (r Report) OK() bool { return r.Unsatisfied == 0 }

// NewReport tallies findings.
func NewReport(findings []Finding) Report {
	r := Report{Findings: findings}
	for _, f := range findings {
		switch f.Status {
		case StatusSatisfied:
			r.Satisfied++
		case StatusUnsatisfied:
			r.Unsatisfied++
		case StatusUnparseable:
			r.Unparseable++
		}
	}
	return r
}

// Check returns one finding per direct dependent of name, ordered by
// dependent name.
func Check(ix *depgraph.Index, name string) ([]Finding, error) {
	rec, ok := ix.Get(name)
	if !ok {
		return nil, errors.Wrap(errors.ErrCodePackageNotFound, depgraph.ErrNotFound, "package %q", name)
	}
	return checkRecord(rec), nil
}

// CheckAll checks every edge in the index, ordered by package and then by
// dependent.
func CheckAll(ix *depgraph.Index) []Finding {
	var out []Finding
	ix.ForEachPackage(func(r *depgraph.Record, _ string) {
		out = append(out, checkRecord(r)...)
	})
	return out
}

// Unsatisfied filters findings down to the ones that failed.
func Unsatisfied(findings []Finding) []Finding {
	return slices.DeleteFunc(slices.Clone(findings), func(f Finding) bool {
		return f.Status != StatusUnsatisfied
	})
}

func checkRecord(r *depgraph.Record) []Finding {
	findings := make([]Finding, 0, r.DependentCount())
	version, verr := semver.NewVersion(r.Version)

	r.ForEachDependent(func(e depgraph.Edge, dependent string) {
		f := Finding{
			Package:        r.Name,
			PackageVersion: r.Version,
			Dependent:      dependent,
			Kind:           e.Kind,
			Range:          e.VersionRange,
		}
		f.Status, f.Reason = evaluate(version, verr, e.VersionRange)
		findings = append(findings, f)
	})
	return findings
}

func evaluate(version *semver.Version, verr error, rng string) (Status, string) {
	if verr != nil {
		return StatusUnparseable, "version: " + verr.Error()
	}
	c, err := ParseRange(rng)
	if err != nil {
		return StatusUnparseable, err.Error()
	}
	if ok, errs := c.Validate(version); !ok {
		if len(errs) > 0 {
			return StatusUnsatisfied, errs[0].Error()
		}
		return StatusUnsatisfied, ""
	}
	return StatusSatisfied, ""
}

// ParseRange parses an npm-style range. "latest" and "x" match any
// version. An empty range is invalid, as it is for dependent edges.
// Protocol ranges such as "workspace:", "file:", "npm:" or git URLs are
// rejected.
func ParseRange(rng string) (*semver.Constraints, error) {
	r := strings.TrimSpace(rng)
	switch r {
	case "":
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty version range")
	case "latest", "x", "X":
		r = "*"
	}
	if strings.Contains(r, ":") || strings.Contains(r, "/") {
		return nil, errors.New(errors.ErrCodeUnsupported, "range %q is not a semver range", rng)
	}
	c, err := semver.NewConstraint(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "range %q", rng)
	}
	return c, nil
}
