package nsc

import "strings"

// QualificationLevel is the highest NSC pass a subject set achieves.
type QualificationLevel string

const (
	Bachelor          QualificationLevel = "Bachelor"
	Diploma           QualificationLevel = "Diploma"
	HigherCertificate QualificationLevel = "Higher Certificate"
	Fail              QualificationLevel = "Fail"
)

// Bachelor pass thresholds set by the Department of Basic Education.
const (
	bachelorMinimumSubjects    = 7
	bachelorLanguagePercentage = 30
	bachelorSubjectsAtMinimum  = 4
	bachelorMinimumPercentage  = 50
)

// DiplomaRequirements overrides the Diploma pass thresholds. A nil field keeps
// the DBE default; a set field, zero included, replaces it.
type DiplomaRequirements struct {
	MinimumSubjects              *int     `json:"minimum_subjects,omitempty" yaml:"minimum_subjects,omitempty"`
	LanguageOfLearningPercentage *float64 `json:"language_of_learning_percentage,omitempty" yaml:"language_of_learning_percentage,omitempty"`
	SubjectsAtMinimum            *int     `json:"subjects_at_minimum,omitempty" yaml:"subjects_at_minimum,omitempty"`
	MinimumPercentage            *float64 `json:"minimum_percentage,omitempty" yaml:"minimum_percentage,omitempty"`
}

// DefaultDiplomaRequirements returns the DBE Diploma pass thresholds.
func DefaultDiplomaRequirements() DiplomaRequirements {
	return DiplomaRequirements{
		MinimumSubjects:              ptr(6),
		LanguageOfLearningPercentage: ptr(30.0),
		SubjectsAtMinimum:            ptr(4),
		MinimumPercentage:            ptr(40.0),
	}
}

func (r DiplomaRequirements) withDefaults() DiplomaRequirements {
	d := DefaultDiplomaRequirements()
	return DiplomaRequirements{
		MinimumSubjects:              firstSet(r.MinimumSubjects, d.MinimumSubjects),
		LanguageOfLearningPercentage: firstSet(r.LanguageOfLearningPercentage, d.LanguageOfLearningPercentage),
		SubjectsAtMinimum:            firstSet(r.SubjectsAtMinimum, d.SubjectsAtMinimum),
		MinimumPercentage:            firstSet(r.MinimumPercentage, d.MinimumPercentage),
	}
}

// HigherCertificateRequirements overrides the Higher Certificate pass
// thresholds and adds optional programme-specific required subjects. Nil
// thresholds keep the DBE defaults. MinimumGrades is keyed by the names used
// in RequiredSubjects.
type HigherCertificateRequirements struct {
	MinimumSubjects              *int               `json:"minimum_subjects,omitempty" yaml:"minimum_subjects,omitempty"`
	LanguageOfLearningPercentage *float64           `json:"language_of_learning_percentage,omitempty" yaml:"language_of_learning_percentage,omitempty"`
	RequiredSubjects             []string           `json:"required_subjects,omitempty" yaml:"required_subjects,omitempty"`
	MinimumGrades                map[string]float64 `json:"minimum_grades,omitempty" yaml:"minimum_grades,omitempty"`
}

// DefaultHigherCertificateRequirements returns the DBE Higher Certificate thresholds.
func DefaultHigherCertificateRequirements() HigherCertificateRequirements {
	return HigherCertificateRequirements{
		MinimumSubjects:              ptr(6),
		LanguageOfLearningPercentage: ptr(30.0),
	}
}

func (r HigherCertificateRequirements) withDefaults() HigherCertificateRequirements {
	d := DefaultHigherCertificateRequirements()
	r.MinimumSubjects = firstSet(r.MinimumSubjects, d.MinimumSubjects)
	r.LanguageOfLearningPercentage = firstSet(r.LanguageOfLearningPercentage, d.LanguageOfLearningPercentage)
	return r
}

func ptr[T any](v T) *T { return &v }

func firstSet[T any](v, fallback *T) *T {
	if v != nil {
		return v
	}
	return fallback
}

// ValidateBachelorPass reports whether the subjects meet the Bachelor pass:
// at least 7 subjects, the language of learning at 30% or more, and at least
// four subjects (any, the language included) at 50% or more.
func ValidateBachelorPass(subjects []Subject, languageOfLearning string) bool {
	return passes(subjects, languageOfLearning,
		bachelorMinimumSubjects,
		bachelorLanguagePercentage,
		bachelorSubjectsAtMinimum,
		bachelorMinimumPercentage,
	)
}

// ValidateDiplomaPass reports whether the subjects meet the Diploma pass.
// Pass a zero DiplomaRequirements for the DBE defaults.
func ValidateDiplomaPass(subjects []Subject, languageOfLearning string, reqs DiplomaRequirements) bool {
	r := reqs.withDefaults()
	return passes(subjects, languageOfLearning,
		*r.MinimumSubjects,
		*r.LanguageOfLearningPercentage,
		*r.SubjectsAtMinimum,
		*r.MinimumPercentage,
	)
}

// ValidateHigherCertificatePass reports whether the subjects meet the Higher
// Certificate pass. Every required subject must be present and, when a
// minimum grade is configured for it, at or above that grade.
func ValidateHigherCertificatePass(subjects []Subject, languageOfLearning string, reqs HigherCertificateRequirements) bool {
	r := reqs.withDefaults()

	if len(subjects) < *r.MinimumSubjects {
		return false
	}
	if !languageMet(subjects, languageOfLearning, *r.LanguageOfLearningPercentage) {
		return false
	}

	for _, name := range r.RequiredSubjects {
		s, ok := findByName(subjects, name)
		if !ok {
			return false
		}
		if minGrade, ok := r.MinimumGrades[name]; ok && minGrade > 0 && s.Percentage < minGrade {
			return false
		}
	}
	return true
}

// DetermineQualificationLevel returns the first pass level satisfied, checked
// in the order Bachelor, Diploma, Higher Certificate, using default thresholds.
func DetermineQualificationLevel(subjects []Subject, languageOfLearning string) QualificationLevel {
	switch {
	case ValidateBachelorPass(subjects, languageOfLearning):
		return Bachelor
	case ValidateDiplomaPass(subjects, languageOfLearning, DiplomaRequirements{}):
		return Diploma
	case ValidateHigherCertificatePass(subjects, languageOfLearning, HigherCertificateRequirements{}):
		return HigherCertificate
	default:
		return Fail
	}
}

func passes(subjects []Subject, languageOfLearning string, minSubjects int, languagePct float64, atMinimum int, minPct float64) bool {
	if len(subjects) < minSubjects {
		return false
	}
	if !languageMet(subjects, languageOfLearning, languagePct) {
		return false
	}

	count := 0
	for _, s := range subjects {
		if s.Percentage >= minPct {
			count++
		}
	}
	return count >= atMinimum
}

func languageMet(subjects []Subject, languageOfLearning string, minPct float64) bool {
	s, ok := findByName(subjects, languageOfLearning)
	return ok && s.Percentage >= minPct
}

func findByName(subjects []Subject, name string) (Subject, bool) {
	for _, s := range subjects {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return Subject{}, false
}
