package catalog

import "github.com/p-n-ai/pai-aps/internal/requirement"

// CourseMatch explains how a student fares against one course.
type CourseMatch struct {
	Course            Course   `json:"course"`
	APSMet            bool     `json:"aps_met"`
	MeetsRequirements bool     `json:"meets_requirements"`
	Met               []string `json:"met"`
	Missing           []string `json:"missing"`
}

// Qualifies reports whether both the APS floor and every subject requirement are met.
func (m CourseMatch) Qualifies() bool {
	return m.APSMet && m.MeetsRequirements
}

// QualifyingCourses returns the institution's courses whose APS floor is at
// most score and whose subject requirements are all satisfied. score must
// come from the institution's own strategy. Course order is preserved.
func QualifyingCourses(inst Institution, score float64, levels requirement.Levels, m requirement.NameMatcher) []Course {
	courses := []Course{}
	for _, c := range inst.Courses {
		if score >= float64(c.APSMin) && requirement.Satisfied(levels, c.SubjectRequirements, m) {
			courses = append(courses, c)
		}
	}
	return courses
}

// MatchCourses evaluates every course of the institution and reports which
// requirements were met and which are missing.
func MatchCourses(inst Institution, score float64, levels requirement.Levels, m requirement.NameMatcher) []CourseMatch {
	matches := make([]CourseMatch, 0, len(inst.Courses))
	for _, c := range inst.Courses {
		out := requirement.Check(levels, c.SubjectRequirements, m)
		matches = append(matches, CourseMatch{
			Course:            c,
			APSMet:            score >= float64(c.APSMin),
			MeetsRequirements: out.Satisfied(),
			Met:               out.Met,
			Missing:           out.Missing,
		})
	}
	return matches
}
