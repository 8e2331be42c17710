package nsc

// PassLevel is the pass level reported by Evaluate.
type PassLevel string

const (
	PassNone              PassLevel = "none"
	PassHigherCertificate PassLevel = "higher_certificate"
	PassDiploma           PassLevel = "diploma"
	PassBachelor          PassLevel = "bachelor"
)

// Result is the outcome of the basic NSC check.
type Result struct {
	MeetsBasicNSC bool      `json:"meets_basic_nsc"`
	PassLevel     PassLevel `json:"pass_level"`
	Reasons       []string  `json:"reasons"`
}

// Evaluate applies the basic DBE certificate rules: Home Language at 40% or
// more, two other subjects at 40% or more, three other subjects at 30% or
// more, and at least six subjects passed at 30%. It also derives a pass level
// from the Home Language and the remaining subjects, Life Orientation excluded
// where the DBE thresholds exclude it.
func Evaluate(subjects []Subject) Result {
	reasons := []string{}

	hlIndex := -1
	for i, s := range subjects {
		if IsHomeLanguage(s.Name) {
			hlIndex = i
			break
		}
	}
	fal, hasFAL := find(subjects, IsFirstAdditionalLanguage)

	if hlIndex < 0 {
		reasons = append(reasons, "No Home Language selected")
	}
	if !hasFAL {
		reasons = append(reasons, "No First Additional Language selected")
	}
	if !hasName(subjects, LifeOrientation) {
		reasons = append(reasons, "Life Orientation not selected")
	}

	hlMet := false
	if hlIndex >= 0 {
		hlMet = subjects[hlIndex].Percentage >= 40
		if !hlMet {
			reasons = append(reasons, "Home Language must be at least 40%")
		}
	}

	var others, othersNoLO []Subject
	for i, s := range subjects {
		if i == hlIndex {
			continue
		}
		others = append(others, s)
		if s.Name != LifeOrientation {
			othersNoLO = append(othersNoLO, s)
		}
	}

	passAtLeastSix := countAtLeast(subjects, 30) >= 6
	meetsBasic := hlMet &&
		countAtLeast(others, 40) >= 2 &&
		countAtLeast(others, 30) >= 3 &&
		passAtLeastSix
	if !passAtLeastSix {
		reasons = append(reasons, "You must pass at least 6 subjects (>=30%)")
	}

	meetsBachelor := hlMet && countAtLeast(othersNoLO, 50) >= 4 && countAtLeast(othersNoLO, 30) >= 2
	meetsDiploma := hlMet && countAtLeast(othersNoLO, 40) >= 3 && countAtLeast(others, 30) >= 2

	lolt := hlIndex >= 0 && hasFAL &&
		(isLanguageOfTeaching(subjects[hlIndex].Name) || isLanguageOfTeaching(fal.Name))
	meetsHC := hlMet &&
		countAtLeast(others, 40) >= 2 &&
		countAtLeast(others, 30) >= 3 &&
		passAtLeastSix &&
		lolt
	if !lolt {
		reasons = append(reasons, "One of HL or FAL must be English or Afrikaans for Higher Certificate")
	}

	level := PassNone
	switch {
	case meetsBachelor:
		level = PassBachelor
	case meetsDiploma:
		level = PassDiploma
	case meetsHC:
		level = PassHigherCertificate
	}

	return Result{MeetsBasicNSC: meetsBasic, PassLevel: level, Reasons: reasons}
}

func countAtLeast(subjects []Subject, pct float64) int {
	n := 0
	for _, s := range subjects {
		if s.Percentage >= pct {
			n++
		}
	}
	return n
}
