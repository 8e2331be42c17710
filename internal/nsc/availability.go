package nsc

import (
	"fmt"
	"slices"
)

// conflictGroups are subject sets of which a student may take only one.
var conflictGroups = func() [][]string {
	groups := [][]string{{Mathematics, MathematicalLiteracy}}
	for i := range HomeLanguages {
		groups = append(groups, []string{HomeLanguages[i], FirstAdditionalLanguages[i]})
	}
	return append(groups, []string{"Information Technology", "Computer Applications Technology"})
}()

// Availability reports whether candidate can still be added to selected and,
// when it cannot, a message explaining why.
func Availability(selected []Subject, candidate string) (ok bool, reason string) {
	if hasName(selected, candidate) {
		return false, "This subject is already added"
	}

	if IsHomeLanguage(candidate) {
		if hl, found := find(selected, IsHomeLanguage); found {
			return false, fmt.Sprintf("You can only choose ONE home language. Currently selected: %s.", hl.Name)
		}
	}
	if IsFirstAdditionalLanguage(candidate) {
		if fal, found := find(selected, IsFirstAdditionalLanguage); found {
			return false, fmt.Sprintf("You can only choose ONE first additional language. Currently selected: %s.", fal.Name)
		}
	}

	for _, group := range conflictGroups {
		if !slices.Contains(group, candidate) {
			continue
		}
		for _, s := range selected {
			if s.Name != candidate && slices.Contains(group, s.Name) {
				return false, fmt.Sprintf("Cannot add %s because %s is already selected.", candidate, s.Name)
			}
		}
	}
	return true, ""
}
