// Package nsc models National Senior Certificate subject results and the
// rules that decide whether a subject selection is a legal NSC result.
package nsc

import (
	"encoding/json"
	"strconv"
	"strings"
)

// LifeOrientation is the compulsory subject most APS methods exclude or down-weight.
const LifeOrientation = "Life Orientation"

// Subject is a single entered subject result.
// The achievement level is never stored; it is always derived from Percentage.
type Subject struct {
	Name       string  `json:"name" yaml:"name"`
	Percentage float64 `json:"percentage" yaml:"percentage"`
}

// Level returns the 7-point NSC achievement level for the subject.
func (s Subject) Level() int {
	return PercentageToLevel7(s.Percentage)
}

// Level8 returns the 8-point achievement level used by some institutions.
func (s Subject) Level8() int {
	return PercentageToLevel8(s.Percentage)
}

// IsLifeOrientation reports whether the subject is Life Orientation (case-insensitive).
func (s Subject) IsLifeOrientation() bool {
	return strings.EqualFold(s.Name, LifeOrientation)
}

// MarshalJSON includes the derived level so clients never have to compute it.
func (s Subject) MarshalJSON() ([]byte, error) {
	type plain Subject
	return json.Marshal(struct {
		plain
		Level int `json:"level"`
	}{plain(s), s.Level()})
}

// Entered returns the subjects that count as entered: a non-blank name and a
// positive percentage. A 0% subject is treated as "not entered", not "failed".
// The input slice is never modified.
func Entered(subjects []Subject) []Subject {
	out := make([]Subject, 0, len(subjects))
	for _, s := range subjects {
		if strings.TrimSpace(s.Name) == "" || !(s.Percentage > 0) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// FormatPercent renders a percentage without trailing zeros (65, 72.5).
func FormatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
