package aps

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/p-n-ai/pai-aps/internal/nsc"
)

func pct(p float64) string { return nsc.FormatPercent(p) }

// Standard is the NSC 7-point method used by most universities: the best six
// subjects excluding Life Orientation.
type Standard struct{}

func (Standard) Info() Info {
	return Info{Method: "Standard: NSC 1-7 scale, 6 subjects (excluding LO) (max 42)", MaxPoints: 42}
}

func (s Standard) Calculate(subjects []nsc.Subject) Result {
	others, _ := splitLifeOrientation(subjects)
	top := best(others, 6)

	r := Result{Method: s.Info().Method, Breakdown: make([]string, 0, len(top)), EligibleSubjects: top}
	for _, sub := range top {
		level := sub.Level()
		r.APS += float64(level)
		r.Breakdown = append(r.Breakdown, fmt.Sprintf("%s: %s%% = %d pts", sub.Name, pct(sub.Percentage), level))
	}
	return r
}

// Wits uses the 8-point scale over the best seven subjects. Life Orientation
// competes for a place and scores half its level, rounded down.
type Wits struct{}

func (Wits) Info() Info {
	return Info{Method: "Wits: NSC 1-8 scale, best 7 subjects (LO counts half)", MaxPoints: 56}
}

func (w Wits) Calculate(subjects []nsc.Subject) Result {
	top := best(subjects, 7)

	r := Result{Method: w.Info().Method, Breakdown: make([]string, 0, len(top)), EligibleSubjects: top}
	for _, sub := range top {
		level := sub.Level8()
		if sub.IsLifeOrientation() {
			points := level / 2
			r.APS += float64(points)
			r.Breakdown = append(r.Breakdown, fmt.Sprintf("%s: %s%% = Level %d ÷ 2 = %d pts", sub.Name, pct(sub.Percentage), level, points))
			continue
		}
		r.APS += float64(level)
		r.Breakdown = append(r.Breakdown, fmt.Sprintf("%s: %s%% = Level %d = %d pts", sub.Name, pct(sub.Percentage), level, level))
	}
	return r
}

// UWC weights every subject: English and Mathematics up to 15 points, Life
// Orientation up to 3 and everything else up to 8.
type UWC struct{}

func (UWC) Info() Info {
	return Info{Method: "UWC: Weighted points (Eng/Math: 15, Others: 8, LO: 3)", MaxPoints: 67}
}

func (u UWC) Calculate(subjects []nsc.Subject) Result {
	r := Result{
		Method:           u.Info().Method,
		Breakdown:        make([]string, 0, len(subjects)),
		EligibleSubjects: make([]nsc.Subject, 0, len(subjects)),
	}
	for _, sub := range subjects {
		name := strings.ToLower(sub.Name)

		weight := 8
		switch {
		case strings.Contains(name, "english") || strings.Contains(name, "mathematics"):
			weight = 15
		case sub.IsLifeOrientation():
			weight = 3
		}

		points := weighted(sub.Percentage, weight)
		r.APS += float64(points)
		r.Breakdown = append(r.Breakdown, fmt.Sprintf("%s: %s%% = %d/%d pts", sub.Name, pct(sub.Percentage), points, weight))
		r.EligibleSubjects = append(r.EligibleSubjects, sub)
	}
	return r
}

// weighted scales a percentage onto 0..weight, rounding down.
func weighted(percentage float64, weight int) int {
	points := int(math.Floor(percentage * float64(weight) / 100))
	return min(points, weight)
}

// UFH scores the best five subjects excluding Life Orientation, then adds
// Life Orientation's level capped at 4.
type UFH struct{}

func (UFH) Info() Info {
	return Info{Method: "UFH: Best 5 subjects + LO (capped at Level 4) (max 39)", MaxPoints: 39}
}

func (u UFH) Calculate(subjects []nsc.Subject) Result {
	others, lo := splitLifeOrientation(subjects)
	top := best(others, 5)

	r := Result{Method: u.Info().Method, Breakdown: make([]string, 0, len(top)+1), EligibleSubjects: top}
	for _, sub := range top {
		level := sub.Level()
		r.APS += float64(level)
		r.Breakdown = append(r.Breakdown, fmt.Sprintf("%s: %s%% = Level %d", sub.Name, pct(sub.Percentage), level))
	}
	if lo != nil {
		level := min(lo.Level(), 4)
		r.APS += float64(level)
		r.Breakdown = append(r.Breakdown, fmt.Sprintf("%s: %s%% = Level %d (capped at 4)", lo.Name, pct(lo.Percentage), level))
		r.EligibleSubjects = append(r.EligibleSubjects, *lo)
	}
	return r
}

// MUT scores the best five subjects excluding Life Orientation on its own
// point table, where anything under 40% earns nothing.
type MUT struct{}

func (MUT) Info() Info {
	return Info{Method: "MUT: Best 5 subjects, MUT point table (max 40)", MaxPoints: 40}
}

func (m MUT) Calculate(subjects []nsc.Subject) Result {
	others, _ := splitLifeOrientation(subjects)
	top := best(others, 5)

	r := Result{Method: m.Info().Method, Breakdown: make([]string, 0, len(top)), EligibleSubjects: top}
	for _, sub := range top {
		points := mutPoints(sub.Percentage)
		r.APS += float64(points)
		r.Breakdown = append(r.Breakdown, fmt.Sprintf("%s: %s%% = %d pts", sub.Name, pct(sub.Percentage), points))
	}
	return r
}

func mutPoints(percentage float64) int {
	switch {
	case percentage >= 90:
		return 8
	case percentage >= 80:
		return 7
	case percentage >= 70:
		return 6
	case percentage >= 60:
		return 5
	case percentage >= 50:
		return 4
	case percentage >= 40:
		return 3
	default:
		return 0
	}
}

// CUT scores the best six subjects excluding Life Orientation, which adds a
// flat point when present.
type CUT struct{}

func (CUT) Info() Info {
	return Info{Method: "CUT: Best 6 subjects + LO (1 point) (max 43)", MaxPoints: 43}
}

func (c CUT) Calculate(subjects []nsc.Subject) Result {
	others, lo := splitLifeOrientation(subjects)
	top := best(others, 6)

	r := Result{Method: c.Info().Method, Breakdown: make([]string, 0, len(top)+1), EligibleSubjects: top}
	for _, sub := range top {
		level := sub.Level()
		r.APS += float64(level)
		r.Breakdown = append(r.Breakdown, fmt.Sprintf("%s: %s%% = Level %d", sub.Name, pct(sub.Percentage), level))
	}
	if lo != nil {
		r.APS++
		r.Breakdown = append(r.Breakdown, fmt.Sprintf("%s: %s%% = 1 pt (fixed)", lo.Name, pct(lo.Percentage)))
		r.EligibleSubjects = append(r.EligibleSubjects, *lo)
	}
	return r
}

// Rhodes sums the six best percentages excluding Life Orientation and divides
// by ten, keeping one decimal.
type Rhodes struct{}

func (Rhodes) Info() Info {
	return Info{Method: "Rhodes: Sum of 6 best subjects ÷ 10 (max ~60)", MaxPoints: 60}
}

func (rh Rhodes) Calculate(subjects []nsc.Subject) Result {
	others, _ := splitLifeOrientation(subjects)
	top := best(others, 6)

	r := Result{Method: rh.Info().Method, Breakdown: make([]string, 0, len(top)), EligibleSubjects: top}
	var total float64
	for _, sub := range top {
		total += sub.Percentage
		r.Breakdown = append(r.Breakdown, fmt.Sprintf("%s: %s%% = %s pts",
			sub.Name, pct(sub.Percentage), strconv.FormatFloat(sub.Percentage/10, 'f', 1, 64)))
	}
	r.APS = math.Round(total) / 10
	return r
}

// Stellenbosch averages the six best percentages excluding Life Orientation,
// keeping one decimal. The sum is always divided by six, so a student with
// fewer subjects is averaged over the empty slots as zeros.
type Stellenbosch struct{}

const stellenboschSubjects = 6

func (Stellenbosch) Info() Info {
	return Info{Method: "Stellenbosch: Average of 6 best subjects (percentage)", MaxPoints: 100}
}

func (st Stellenbosch) Calculate(subjects []nsc.Subject) Result {
	others, _ := splitLifeOrientation(subjects)
	top := best(others, stellenboschSubjects)

	r := Result{Method: st.Info().Method, Breakdown: make([]string, 0, len(top)), EligibleSubjects: top}
	if len(top) == 0 {
		return r
	}
	var total float64
	for _, sub := range top {
		total += sub.Percentage
		r.Breakdown = append(r.Breakdown, fmt.Sprintf("%s: %s%%", sub.Name, pct(sub.Percentage)))
	}
	r.APS = math.Round(total/stellenboschSubjects*10) / 10
	return r
}
