package nsc

// PercentageToLevel7 maps a percentage to the standard 7-point NSC level.
// Out-of-range percentages are not rejected here.
func PercentageToLevel7(pct float64) int {
	switch {
	case pct >= 80:
		return 7
	case pct >= 70:
		return 6
	case pct >= 60:
		return 5
	case pct >= 50:
		return 4
	case pct >= 40:
		return 3
	case pct >= 30:
		return 2
	default:
		return 1
	}
}

// PercentageToLevel8 maps a percentage to the 8-point scale (90-100 is level 8).
func PercentageToLevel8(pct float64) int {
	if pct >= 90 {
		return 8
	}
	return PercentageToLevel7(pct)
}

// LevelRange describes the percentage band of a 7-point level.
func LevelRange(level int) string {
	switch level {
	case 7:
		return "80-100%"
	case 6:
		return "70-79%"
	case 5:
		return "60-69%"
	case 4:
		return "50-59%"
	case 3:
		return "40-49%"
	case 2:
		return "30-39%"
	case 1:
		return "0-29%"
	default:
		return "0%"
	}
}

// LeveledSubject is a read-only view pairing a subject with its derived level.
type LeveledSubject struct {
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
	Level      int     `json:"level"`
}

// WithLevels returns a fresh slice of subjects paired with their 7-point level.
func WithLevels(subjects []Subject) []LeveledSubject {
	out := make([]LeveledSubject, len(subjects))
	for i, s := range subjects {
		out[i] = LeveledSubject{Name: s.Name, Percentage: s.Percentage, Level: s.Level()}
	}
	return out
}
