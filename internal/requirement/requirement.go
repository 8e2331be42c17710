// Package requirement models course subject requirements and decides whether
// a student's subject levels satisfy them.
package requirement

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/p-n-ai/pai-aps/internal/nsc"
)

// Alternative is one acceptable subject within an alternatives requirement.
type Alternative struct {
	Subject string `json:"subject" yaml:"subject"`
	Level   int    `json:"level" yaml:"level"`
}

// Requirement is either a bare minimum level for the subject named by its
// key, or a list of alternatives of which any one must be met.
//
// In YAML and JSON the bare form is a number (Mathematics: 5) and the
// alternatives form is {alternatives: [{subject, level}, ...]}.
type Requirement struct {
	MinLevel     int
	Alternatives []Alternative
}

// Level returns a bare minimum-level requirement.
func Level(n int) Requirement {
	return Requirement{MinLevel: n}
}

// AnyOf returns a requirement satisfied by any of alts.
func AnyOf(alts ...Alternative) Requirement {
	return Requirement{Alternatives: alts}
}

// HasAlternatives reports whether r is an alternatives requirement.
func (r Requirement) HasAlternatives() bool {
	return r.Alternatives != nil
}

// Describe renders the requirement for display, using key as the subject of a
// bare requirement: "Mathematics (Level 5)" or
// "Mathematics (Level 5) OR Mathematical Literacy (Level 6)".
func (r Requirement) Describe(key string) string {
	if !r.HasAlternatives() {
		return fmt.Sprintf("%s (Level %d)", key, r.MinLevel)
	}
	parts := make([]string, len(r.Alternatives))
	for i, alt := range r.Alternatives {
		parts[i] = fmt.Sprintf("%s (Level %d)", alt.Subject, alt.Level)
	}
	return strings.Join(parts, " OR ")
}

type alternativesForm struct {
	Alternatives []Alternative `json:"alternatives" yaml:"alternatives"`
}

// UnmarshalYAML accepts a scalar level or an alternatives mapping.
func (r *Requirement) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var level int
		if err := node.Decode(&level); err != nil {
			return fmt.Errorf("line %d: requirement level: %w", node.Line, err)
		}
		*r = Level(level)
		return nil
	case yaml.MappingNode:
		var form alternativesForm
		if err := node.Decode(&form); err != nil {
			return fmt.Errorf("line %d: requirement alternatives: %w", node.Line, err)
		}
		*r = AnyOf(normalizeAlternatives(form.Alternatives)...)
		return nil
	default:
		return fmt.Errorf("line %d: requirement must be a level or an alternatives mapping", node.Line)
	}
}

// MarshalYAML writes the same shapes UnmarshalYAML reads.
func (r Requirement) MarshalYAML() (any, error) {
	if r.HasAlternatives() {
		return alternativesForm{Alternatives: r.Alternatives}, nil
	}
	return r.MinLevel, nil
}

// UnmarshalJSON accepts a number or an {"alternatives": [...]} object.
func (r *Requirement) UnmarshalJSON(data []byte) error {
	var level int
	if err := json.Unmarshal(data, &level); err == nil {
		*r = Level(level)
		return nil
	}

	var form alternativesForm
	if err := json.Unmarshal(data, &form); err != nil {
		return fmt.Errorf("requirement must be a level or an alternatives object: %w", err)
	}
	*r = AnyOf(normalizeAlternatives(form.Alternatives)...)
	return nil
}

// MarshalJSON writes the same shapes UnmarshalJSON reads.
func (r Requirement) MarshalJSON() ([]byte, error) {
	if r.HasAlternatives() {
		return json.Marshal(alternativesForm{Alternatives: r.Alternatives})
	}
	return json.Marshal(r.MinLevel)
}

// normalizeAlternatives keeps an empty alternatives list distinct from a bare
// requirement.
func normalizeAlternatives(alts []Alternative) []Alternative {
	if alts == nil {
		return []Alternative{}
	}
	return alts
}

// Requirements maps a subject key to its requirement. All entries must be met.
type Requirements map[string]Requirement

// Keys returns the requirement keys in sorted order.
func (rs Requirements) Keys() []string {
	keys := make([]string, 0, len(rs))
	for k := range rs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// StudentLevel is a student's subject with its 7-point level.
type StudentLevel struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// Levels is a student's subject levels, searched in order.
type Levels []StudentLevel

// FromSubjects derives levels from entered subjects.
func FromSubjects(subjects []nsc.Subject) Levels {
	levels := make(Levels, len(subjects))
	for i, s := range subjects {
		levels[i] = StudentLevel{Name: s.Name, Level: s.Level()}
	}
	return levels
}
