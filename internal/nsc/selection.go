package nsc

import (
	"fmt"
	"slices"
	"strings"
)

// Compulsory subject names, matched exactly.
const (
	Mathematics          = "Mathematics"
	MathematicalLiteracy = "Mathematical Literacy"
)

// HomeLanguages lists the subject names that fill the Home Language slot.
var HomeLanguages = []string{
	"English Home Language",
	"Afrikaans Home Language",
	"IsiZulu Home Language",
	"IsiXhosa Home Language",
	"Sepedi Home Language",
	"Sesotho Home Language",
	"Setswana Home Language",
	"Tshivenda Home Language",
	"Xitsonga Home Language",
	"SiSwati Home Language",
}

// FirstAdditionalLanguages lists the subject names that fill the First
// Additional Language slot.
var FirstAdditionalLanguages = []string{
	"English First Additional Language",
	"Afrikaans First Additional Language",
	"IsiZulu First Additional Language",
	"IsiXhosa First Additional Language",
	"Sepedi First Additional Language",
	"Sesotho First Additional Language",
	"Setswana First Additional Language",
	"Tshivenda First Additional Language",
	"Xitsonga First Additional Language",
	"SiSwati First Additional Language",
}

const (
	requiredSubjectCount = 7
	minimumElectives     = 3
)

// ProgressStatus is the state of one checklist item.
type ProgressStatus string

const (
	StatusDone    ProgressStatus = "done"
	StatusMissing ProgressStatus = "missing"
	StatusWarning ProgressStatus = "warning"
)

// ProgressItem is one line of the selection checklist.
type ProgressItem struct {
	Key    string         `json:"key"`
	Label  string         `json:"label"`
	Status ProgressStatus `json:"status"`
	Detail string         `json:"detail,omitempty"`
}

// SelectionResult is the derived view of a subject selection. It holds no
// reference to the input slice.
type SelectionResult struct {
	HomeLanguage              *Subject       `json:"home_language"`
	FirstAdditionalLanguage   *Subject       `json:"first_additional_language"`
	HasMath                   bool           `json:"has_math"`
	HasMathLit                bool           `json:"has_math_lit"`
	HasLifeOrientation        bool           `json:"has_life_orientation"`
	HasSelectionConflicts     bool           `json:"has_selection_conflicts"`
	CompulsorySelectionsValid bool           `json:"compulsory_selections_valid"`
	ElectiveCount             int            `json:"elective_count"`
	MeetsNSCMinimums          bool           `json:"meets_nsc_minimums"`
	CanCalculate              bool           `json:"can_calculate"`
	Progress                  []ProgressItem `json:"progress"`
	Errors                    []string       `json:"errors"`
}

// IsHomeLanguage reports whether name is one of the Home Language subjects.
func IsHomeLanguage(name string) bool {
	return slices.Contains(HomeLanguages, name)
}

// IsFirstAdditionalLanguage reports whether name is one of the First
// Additional Language subjects.
func IsFirstAdditionalLanguage(name string) bool {
	return slices.Contains(FirstAdditionalLanguages, name)
}

// LanguageBase returns the language family of a language subject name,
// the text before the first space.
func LanguageBase(name string) string {
	base, _, _ := strings.Cut(name, " ")
	return base
}

func isLanguageOfTeaching(name string) bool {
	return strings.HasPrefix(name, "English") || strings.HasPrefix(name, "Afrikaans")
}

// LanguageOfLearning picks the subject used as the language of learning and
// teaching: an English or Afrikaans Home Language first, then an English or
// Afrikaans First Additional Language, then whatever Home Language is present.
// It returns "" when no language subject is selected.
func LanguageOfLearning(subjects []Subject) string {
	hl, hasHL := find(subjects, IsHomeLanguage)
	fal, hasFAL := find(subjects, IsFirstAdditionalLanguage)

	switch {
	case hasHL && isLanguageOfTeaching(hl.Name):
		return hl.Name
	case hasFAL && isLanguageOfTeaching(fal.Name):
		return fal.Name
	case hasHL:
		return hl.Name
	default:
		return ""
	}
}

// ValidateSelection evaluates a student's current subject selection against
// the NSC compulsory-subject rules. Every call recomputes from scratch.
func ValidateSelection(subjects []Subject) SelectionResult {
	var r SelectionResult

	if hl, ok := find(subjects, IsHomeLanguage); ok {
		r.HomeLanguage = &hl
	}
	if fal, ok := find(subjects, IsFirstAdditionalLanguage); ok {
		r.FirstAdditionalLanguage = &fal
	}
	r.HasMath = hasName(subjects, Mathematics)
	r.HasMathLit = hasName(subjects, MathematicalLiteracy)
	r.HasLifeOrientation = hasName(subjects, LifeOrientation)

	bothLanguages := r.HomeLanguage != nil && r.FirstAdditionalLanguage != nil
	sameLanguage := bothLanguages &&
		LanguageBase(r.HomeLanguage.Name) == LanguageBase(r.FirstAdditionalLanguage.Name)
	bothMaths := r.HasMath && r.HasMathLit
	oneMaths := r.HasMath != r.HasMathLit
	lolt := bothLanguages &&
		(isLanguageOfTeaching(r.HomeLanguage.Name) || isLanguageOfTeaching(r.FirstAdditionalLanguage.Name))

	r.HasSelectionConflicts = sameLanguage || bothMaths
	r.CompulsorySelectionsValid = bothLanguages && r.HasLifeOrientation && !sameLanguage && oneMaths && lolt
	r.ElectiveCount = countElectives(subjects, r)
	r.MeetsNSCMinimums = ValidateBachelorPass(subjects, LanguageOfLearning(subjects))

	r.CanCalculate = len(subjects) == requiredSubjectCount &&
		r.CompulsorySelectionsValid &&
		r.ElectiveCount >= minimumElectives &&
		!r.HasSelectionConflicts &&
		r.MeetsNSCMinimums

	r.Errors = selectionErrors(subjects, r, sameLanguage, bothMaths, oneMaths)
	r.Progress = selectionProgress(subjects, r, bothMaths, oneMaths, lolt)
	return r
}

func countElectives(subjects []Subject, r SelectionResult) int {
	compulsory := make(map[string]bool, 5)
	if r.HomeLanguage != nil {
		compulsory[r.HomeLanguage.Name] = true
	}
	if r.FirstAdditionalLanguage != nil {
		compulsory[r.FirstAdditionalLanguage.Name] = true
	}
	if r.HasMath {
		compulsory[Mathematics] = true
	}
	if r.HasMathLit {
		compulsory[MathematicalLiteracy] = true
	}
	if r.HasLifeOrientation {
		compulsory[LifeOrientation] = true
	}

	n := 0
	for _, s := range subjects {
		if !compulsory[s.Name] {
			n++
		}
	}
	return n
}

func selectionErrors(subjects []Subject, r SelectionResult, sameLanguage, bothMaths, oneMaths bool) []string {
	errs := []string{}
	if sameLanguage {
		errs = append(errs, "Home Language and First Additional Language must be different languages.")
	}
	if bothMaths {
		errs = append(errs, "Choose either Mathematics OR Mathematical Literacy, not both.")
	}
	if r.HomeLanguage == nil {
		errs = append(errs, "Select a Home Language.")
	}
	if r.FirstAdditionalLanguage == nil {
		errs = append(errs, "Select a First Additional Language.")
	}
	if !r.HasLifeOrientation {
		errs = append(errs, "Add Life Orientation.")
	}
	if !oneMaths {
		errs = append(errs, "Choose Mathematics or Mathematical Literacy.")
	}
	if !r.MeetsNSCMinimums {
		errs = append(errs, "NSC minimums not met yet.")
	}
	if len(subjects) != requiredSubjectCount {
		errs = append(errs, "You must enter exactly 7 subjects.")
	}
	if r.ElectiveCount < minimumElectives {
		errs = append(errs, "You need at least three elective subjects.")
	}
	return errs
}

func selectionProgress(subjects []Subject, r SelectionResult, bothMaths, oneMaths, lolt bool) []ProgressItem {
	hl := ProgressItem{Key: "hl", Label: "Home Language selected (≥40%)", Status: StatusMissing}
	if r.HomeLanguage != nil {
		hl.Status = StatusDone
		hl.Detail = fmt.Sprintf("%s - %s%%", r.HomeLanguage.Name, FormatPercent(r.HomeLanguage.Percentage))
	}

	fal := ProgressItem{Key: "fal", Label: "First Additional Language selected", Status: StatusMissing}
	if r.FirstAdditionalLanguage != nil {
		fal.Status = StatusDone
		fal.Detail = r.FirstAdditionalLanguage.Name
	}

	maths := ProgressItem{Key: "math", Label: "Mathematics OR Mathematical Literacy (choose one)", Status: StatusMissing}
	switch {
	case oneMaths:
		maths.Status = StatusDone
	case bothMaths:
		maths.Status = StatusWarning
	}
	switch {
	case r.HasMath:
		maths.Detail = "Mathematics selected"
	case r.HasMathLit:
		maths.Detail = "Mathematical Literacy selected"
	}

	electives := "electives"
	if r.ElectiveCount == 1 {
		electives = "elective"
	}

	return []ProgressItem{
		hl,
		fal,
		maths,
		{Key: "lo", Label: "Life Orientation added", Status: status(r.HasLifeOrientation)},
		{Key: "lolt", Label: "Language of Learning & Teaching (English/Afrikaans in HL/FAL)", Status: status(lolt)},
		{
			Key:    "count",
			Label:  "Exactly 7 subjects",
			Status: status(len(subjects) == requiredSubjectCount),
			Detail: fmt.Sprintf("%d/%d selected", len(subjects), requiredSubjectCount),
		},
		{
			Key:    "electives",
			Label:  "At least 3 electives",
			Status: status(r.ElectiveCount >= minimumElectives),
			Detail: fmt.Sprintf("%d %s", r.ElectiveCount, electives),
		},
		{Key: "nsc", Label: "NSC minimums met", Status: status(r.MeetsNSCMinimums)},
	}
}

func status(ok bool) ProgressStatus {
	if ok {
		return StatusDone
	}
	return StatusMissing
}

func find(subjects []Subject, match func(string) bool) (Subject, bool) {
	for _, s := range subjects {
		if match(s.Name) {
			return s, true
		}
	}
	return Subject{}, false
}

func hasName(subjects []Subject, name string) bool {
	for _, s := range subjects {
		if s.Name == name {
			return true
		}
	}
	return false
}
