// Package aps computes institution-specific Admission Point Scores.
//
// Every strategy is a pure function of the subject list it is given: it never
// modifies its input, keeps no state between calls and never fails. Strategies
// are looked up by institution id through a Registry.
package aps

import (
	"cmp"
	"slices"

	"github.com/p-n-ai/pai-aps/internal/nsc"
)

// Strategy scores a subject list for one institution family.
type Strategy interface {
	Calculate(subjects []nsc.Subject) Result
	Info() Info
}

// Result is one APS computation. Breakdown has one line per scored subject.
type Result struct {
	APS              float64       `json:"aps"`
	Method           string        `json:"method"`
	Breakdown        []string      `json:"breakdown"`
	EligibleSubjects []nsc.Subject `json:"eligible_subjects"`
}

// Info describes a strategy for display.
type Info struct {
	ID        string   `json:"id"`
	Aliases   []string `json:"aliases,omitempty"`
	Method    string   `json:"method"`
	MaxPoints float64  `json:"max_points"`
}

func emptyResult() Result {
	return Result{Breakdown: []string{}, EligibleSubjects: []nsc.Subject{}}
}

// splitLifeOrientation separates Life Orientation from the other subjects.
// Only the first Life Orientation entry is returned; any duplicates are dropped
// from both halves.
func splitLifeOrientation(subjects []nsc.Subject) (others []nsc.Subject, lo *nsc.Subject) {
	others = make([]nsc.Subject, 0, len(subjects))
	for _, s := range subjects {
		if !s.IsLifeOrientation() {
			others = append(others, s)
			continue
		}
		if lo == nil {
			loCopy := s
			lo = &loCopy
		}
	}
	return others, lo
}

// best returns the n highest-percentage subjects. Ties keep input order.
func best(subjects []nsc.Subject, n int) []nsc.Subject {
	sorted := slices.Clone(subjects)
	slices.SortStableFunc(sorted, func(a, b nsc.Subject) int {
		return cmp.Compare(b.Percentage, a.Percentage)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	if sorted == nil {
		sorted = []nsc.Subject{}
	}
	return sorted
}
