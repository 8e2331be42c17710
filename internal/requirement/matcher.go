package requirement

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Match modes accepted by MatcherFor.
const (
	ModeContainment = "containment"
	ModeAlias       = "alias"
)

// NameMatcher decides whether a student's subject name satisfies a required
// subject name.
type NameMatcher interface {
	Match(student, required string) bool
}

// Containment matches case-insensitively when either name contains the
// other. It tolerates inconsistently written requirements at the cost of
// false positives ("Mathematics" matches "Further Mathematics").
type Containment struct{}

func (Containment) Match(student, required string) bool {
	fold := cases.Fold()
	s := strings.TrimSpace(fold.String(student))
	r := strings.TrimSpace(fold.String(required))
	if s == "" || r == "" {
		return false
	}
	return s == r || strings.Contains(s, r) || strings.Contains(r, s)
}

// MatcherFor returns the matcher for a configured mode.
func MatcherFor(mode string) (NameMatcher, error) {
	switch mode {
	case "", ModeContainment:
		return Containment{}, nil
	case ModeAlias:
		table, err := DefaultAliasTable()
		if err != nil {
			return nil, err
		}
		return AliasMatcher{Table: table}, nil
	default:
		return nil, fmt.Errorf("unknown match mode %q", mode)
	}
}

// Meets reports whether some student subject matching subject has at least
// minLevel. Subjects are searched in order and the first qualifying match wins.
func Meets(levels Levels, subject string, minLevel int, m NameMatcher) bool {
	for _, l := range levels {
		if m.Match(l.Name, subject) && l.Level >= minLevel {
			return true
		}
	}
	return false
}

// MeetsRequirement reports whether req, declared under key, is satisfied. An
// alternatives requirement is met when any alternative is; an empty
// alternatives list is never met.
func MeetsRequirement(levels Levels, key string, req Requirement, m NameMatcher) bool {
	if !req.HasAlternatives() {
		return Meets(levels, key, req.MinLevel, m)
	}
	for _, alt := range req.Alternatives {
		if Meets(levels, alt.Subject, alt.Level, m) {
			return true
		}
	}
	return false
}

// Outcome lists which requirement entries were met and describes the missing ones.
type Outcome struct {
	Met     []string `json:"met"`
	Missing []string `json:"missing"`
}

// Satisfied reports whether nothing is missing.
func (o Outcome) Satisfied() bool {
	return len(o.Missing) == 0
}

// Check evaluates every entry of reqs in key order. No requirements means
// the outcome is satisfied.
func Check(levels Levels, reqs Requirements, m NameMatcher) Outcome {
	out := Outcome{Met: []string{}, Missing: []string{}}
	for _, key := range reqs.Keys() {
		req := reqs[key]
		if MeetsRequirement(levels, key, req, m) {
			out.Met = append(out.Met, key)
		} else {
			out.Missing = append(out.Missing, req.Describe(key))
		}
	}
	return out
}

// Satisfied reports whether every entry of reqs is met.
func Satisfied(levels Levels, reqs Requirements, m NameMatcher) bool {
	for key, req := range reqs {
		if !MeetsRequirement(levels, key, req, m) {
			return false
		}
	}
	return true
}
