// Package advisor combines the NSC rules, the APS strategies and the course
// catalog into one evaluation of a student's results.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/p-n-ai/pai-aps/internal/aps"
	"github.com/p-n-ai/pai-aps/internal/catalog"
	"github.com/p-n-ai/pai-aps/internal/nsc"
	"github.com/p-n-ai/pai-aps/internal/requirement"
)

// EngineConfig holds dependencies for the advisor engine.
type EngineConfig struct {
	Catalog  catalog.Source          // default: empty in-memory catalog
	Registry *aps.Registry           // default: aps.DefaultRegistry()
	Matcher  requirement.NameMatcher // default: requirement.Containment
	Events   EventLogger             // default: NopEventLogger
}

// Engine evaluates subject lists. It holds no per-student state; every call
// recomputes from its input.
type Engine struct {
	catalog  catalog.Source
	registry *aps.Registry
	matcher  requirement.NameMatcher
	events   EventLogger
}

// NewEngine creates a new advisor engine.
func NewEngine(cfg EngineConfig) *Engine {
	src := cfg.Catalog
	if src == nil {
		src = catalog.NewMemorySource()
	}
	registry := cfg.Registry
	if registry == nil {
		registry = aps.DefaultRegistry()
	}
	matcher := cfg.Matcher
	if matcher == nil {
		matcher = requirement.Containment{}
	}
	events := cfg.Events
	if events == nil {
		events = NopEventLogger{}
	}
	return &Engine{
		catalog:  src,
		registry: registry,
		matcher:  matcher,
		events:   events,
	}
}

// Registry returns the strategy registry the engine scores with.
func (e *Engine) Registry() *aps.Registry {
	return e.registry
}

// Catalog returns the engine's catalog source.
func (e *Engine) Catalog() catalog.Source {
	return e.catalog
}

// Request is one evaluation request. LanguageOfLearning is optional and is
// derived from the subjects when empty.
type Request struct {
	Subjects           []nsc.Subject `json:"subjects"`
	InstitutionID      string        `json:"institution_id,omitempty"`
	LanguageOfLearning string        `json:"language_of_learning,omitempty"`
}

// Report is the full evaluation of one request.
type Report struct {
	InstitutionID      string                 `json:"institution_id,omitempty"`
	Institution        *catalog.Summary       `json:"institution,omitempty"`
	LanguageOfLearning string                 `json:"language_of_learning"`
	Subjects           []nsc.LeveledSubject   `json:"subjects"`
	Selection          nsc.SelectionResult    `json:"selection"`
	NSC                nsc.Result             `json:"nsc"`
	Qualification      nsc.QualificationLevel `json:"qualification"`
	APS                aps.Result             `json:"aps"`
	Courses            []catalog.CourseMatch  `json:"courses"`
	Qualifying         []catalog.Course       `json:"qualifying"`
}

// Evaluate validates the selection, determines the qualification level,
// scores the subjects for the requested institution and matches them against
// its courses. An institution missing from the catalog is scored with its
// registered strategy (or the default) and has no courses.
func (e *Engine) Evaluate(ctx context.Context, req Request) (Report, error) {
	entered := nsc.Entered(req.Subjects)
	lang := strings.TrimSpace(req.LanguageOfLearning)
	if lang == "" {
		lang = nsc.LanguageOfLearning(entered)
	}

	report := Report{
		InstitutionID:      req.InstitutionID,
		LanguageOfLearning: lang,
		Subjects:           nsc.WithLevels(entered),
		Selection:          nsc.ValidateSelection(entered),
		NSC:                nsc.Evaluate(entered),
		Qualification:      nsc.DetermineQualificationLevel(entered, lang),
		Courses:            []catalog.CourseMatch{},
		Qualifying:         []catalog.Course{},
	}

	inst, strategyID, err := e.resolve(ctx, req.InstitutionID)
	if err != nil {
		return Report{}, err
	}
	report.APS = e.registry.Calculate(entered, strategyID)

	if inst != nil {
		summary := inst.Summarize()
		report.Institution = &summary
		levels := requirement.FromSubjects(entered)
		report.Courses = catalog.MatchCourses(*inst, report.APS.APS, levels, e.matcher)
		report.Qualifying = catalog.QualifyingCourses(*inst, report.APS.APS, levels, e.matcher)
	}

	slog.Debug("evaluation complete",
		"institution_id", req.InstitutionID,
		"subjects", len(entered),
		"aps", report.APS.APS,
		"qualification", report.Qualification,
		"qualifying_courses", len(report.Qualifying),
	)
	e.logEvent(ctx, Event{
		EventType:     EventEvaluation,
		InstitutionID: req.InstitutionID,
		Data: map[string]any{
			"strategy":           strategyID,
			"subjects":           len(entered),
			"aps":                report.APS.APS,
			"qualification":      string(report.Qualification),
			"can_calculate":      report.Selection.CanCalculate,
			"qualifying_courses": len(report.Qualifying),
		},
	})
	return report, nil
}

// Score calculates the APS for an institution. A catalog institution is
// scored with its configured strategy; any other id goes straight to the
// registry, which falls back to the default strategy.
func (e *Engine) Score(ctx context.Context, subjects []nsc.Subject, institutionID string) (aps.Result, error) {
	_, strategyID, err := e.resolve(ctx, institutionID)
	if err != nil {
		return aps.Result{}, err
	}
	return e.registry.Calculate(nsc.Entered(subjects), strategyID), nil
}

// resolve looks the institution up in the catalog and returns it with the
// strategy id to score it by. A missing institution is not an error.
func (e *Engine) resolve(ctx context.Context, institutionID string) (*catalog.Institution, string, error) {
	if strings.TrimSpace(institutionID) == "" {
		return nil, institutionID, nil
	}
	found, err := e.catalog.GetInstitution(ctx, institutionID)
	switch {
	case err == nil:
		return &found, found.StrategyID(), nil
	case errors.Is(err, catalog.ErrNotFound):
		slog.Debug("institution not in catalog, scoring by id", "institution_id", institutionID)
		return nil, institutionID, nil
	default:
		return nil, "", fmt.Errorf("loading institution %s: %w", institutionID, err)
	}
}

// Placement is a student's standing at one institution.
type Placement struct {
	Institution catalog.Summary  `json:"institution"`
	APS         float64          `json:"aps"`
	Method      string           `json:"method"`
	Qualifying  []catalog.Course `json:"qualifying"`
}

// FindCourses scores the subjects for every institution in the catalog
// concurrently and lists the courses qualified for at each. Institutions are
// returned in catalog order, including those with no qualifying course.
func (e *Engine) FindCourses(ctx context.Context, subjects []nsc.Subject) ([]Placement, error) {
	insts, err := e.catalog.AllInstitutions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing institutions: %w", err)
	}

	entered := nsc.Entered(subjects)
	ids := make([]string, len(insts))
	for i, inst := range insts {
		ids[i] = inst.StrategyID()
	}
	scores, err := e.registry.CalculateAll(ctx, entered, ids)
	if err != nil {
		return nil, err
	}

	levels := requirement.FromSubjects(entered)
	placements := make([]Placement, len(insts))
	qualifying := 0
	for i, inst := range insts {
		result := scores[i].Result
		placements[i] = Placement{
			Institution: inst.Summarize(),
			APS:         result.APS,
			Method:      result.Method,
			Qualifying:  catalog.QualifyingCourses(inst, result.APS, levels, e.matcher),
		}
		qualifying += len(placements[i].Qualifying)
	}
	e.logEvent(ctx, Event{
		EventType: EventCourseSearch,
		Data: map[string]any{
			"subjects":           len(entered),
			"institutions":       len(insts),
			"qualifying_courses": qualifying,
		},
	})
	return placements, nil
}

// ScoreAll scores the subjects with every strategy in the registry.
func (e *Engine) ScoreAll(ctx context.Context, subjects []nsc.Subject) ([]aps.Score, error) {
	infos := e.registry.Strategies()
	ids := make([]string, len(infos))
	for i, info := range infos {
		ids[i] = info.ID
	}
	return e.registry.CalculateAll(ctx, subjects, ids)
}
