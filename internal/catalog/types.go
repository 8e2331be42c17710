// Package catalog holds the institutions and courses the engine reads, and
// finds the courses a student qualifies for.
package catalog

import (
	"strings"

	"github.com/p-n-ai/pai-aps/internal/requirement"
)

// Course is one programme offered by an institution. APSMin is expressed on
// the scale of the owning institution's strategy.
type Course struct {
	ID                     string                   `json:"id" yaml:"id"`
	Name                   string                   `json:"name" yaml:"name"`
	Faculty                string                   `json:"faculty,omitempty" yaml:"faculty"`
	APSMin                 int                      `json:"aps_min" yaml:"aps_min"`
	Duration               string                   `json:"duration,omitempty" yaml:"duration"`
	SubjectRequirements    requirement.Requirements `json:"subject_requirements,omitempty" yaml:"subject_requirements"`
	AdditionalRequirements string                   `json:"additional_requirements,omitempty" yaml:"additional_requirements"`
	Careers                []string                 `json:"careers,omitempty" yaml:"careers"`
	ExtendedCurriculum     bool                     `json:"extended_curriculum,omitempty" yaml:"extended_curriculum"`
}

// Institution owns its course list. Strategy names the APS strategy used to
// score applicants; when empty the institution id is used.
type Institution struct {
	ID        string   `json:"id" yaml:"id"`
	Name      string   `json:"name" yaml:"name"`
	ShortName string   `json:"short_name,omitempty" yaml:"short_name"`
	Location  string   `json:"location,omitempty" yaml:"location"`
	Website   string   `json:"website,omitempty" yaml:"website"`
	Strategy  string   `json:"strategy,omitempty" yaml:"strategy"`
	Courses   []Course `json:"courses" yaml:"courses"`
}

// StrategyID returns the id to resolve the institution's APS strategy with.
func (i Institution) StrategyID() string {
	if s := strings.TrimSpace(i.Strategy); s != "" {
		return s
	}
	return i.ID
}

// Summary is an institution without its courses, for listings.
type Summary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name,omitempty"`
	Location  string `json:"location,omitempty"`
	Strategy  string `json:"strategy"`
	Courses   int    `json:"courses"`
}

// Summarize drops the course list from an institution.
func (i Institution) Summarize() Summary {
	return Summary{
		ID:        i.ID,
		Name:      i.Name,
		ShortName: i.ShortName,
		Location:  i.Location,
		Strategy:  i.StrategyID(),
		Courses:   len(i.Courses),
	}
}
