package aps

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/p-n-ai/pai-aps/internal/nsc"
)

// DefaultID is the registry entry used for institution ids nobody registered.
const DefaultID = "default"

// Registry maps institution ids (and their aliases) to strategies.
// Unknown ids resolve to the DefaultID entry.
type Registry struct {
	strategies map[string]Strategy
	aliases    map[string][]string
	order      []string
	mu         sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[string]Strategy),
		aliases:    make(map[string][]string),
	}
}

// DefaultRegistry returns a registry with every built-in strategy. Standard
// is registered as the default.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(DefaultID, Standard{})
	r.Register("standard", Standard{})
	r.Register("wits", Wits{})
	r.Register("uwc", UWC{})
	r.Register("ufh", UFH{})
	r.Register("mut", MUT{})
	r.Register("cut", CUT{})
	r.Register("rhodes", Rhodes{}, "ru")
	r.Register("stellenbosch", Stellenbosch{}, "sun")
	return r
}

// Register adds a strategy under id and any aliases. Ids are case-insensitive.
// Registering an existing id replaces its strategy.
func (r *Registry) Register(id string, s Strategy, aliases ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id = normalizeID(id)
	if _, exists := r.strategies[id]; !exists {
		r.order = append(r.order, id)
	}
	r.strategies[id] = s
	for _, alias := range aliases {
		alias = normalizeID(alias)
		r.strategies[alias] = s
		r.aliases[id] = append(r.aliases[id], alias)
	}
}

// Lookup returns the strategy registered under id or one of its aliases.
func (r *Registry) Lookup(id string) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[normalizeID(id)]
	return s, ok
}

// Resolve returns the strategy for id, falling back to the DefaultID entry
// and then to Standard when no default is registered.
func (r *Registry) Resolve(id string) Strategy {
	if s, ok := r.Lookup(id); ok {
		return s
	}
	if s, ok := r.Lookup(DefaultID); ok {
		return s
	}
	return Standard{}
}

// Calculate scores subjects for an institution. Subjects without a name or
// with a non-positive percentage are ignored. It never fails: an empty
// subject list yields a zero result with empty slices.
func (r *Registry) Calculate(subjects []nsc.Subject, institutionID string) Result {
	entered := nsc.Entered(subjects)
	if len(entered) == 0 {
		return emptyResult()
	}
	return r.Resolve(institutionID).Calculate(entered)
}

// Strategies describes every registered id in registration order, aliases
// folded into their primary entry.
func (r *Registry) Strategies() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.order))
	for _, id := range r.order {
		info := r.strategies[id].Info()
		info.ID = id
		info.Aliases = append([]string(nil), r.aliases[id]...)
		infos = append(infos, info)
	}
	return infos
}

// Score is the result of scoring one institution.
type Score struct {
	InstitutionID string `json:"institution_id"`
	Result        Result `json:"result"`
}

// CalculateAll scores the same subjects for every institution id
// concurrently. Results keep the order of ids.
func (r *Registry) CalculateAll(ctx context.Context, subjects []nsc.Subject, institutionIDs []string) ([]Score, error) {
	scores := make([]Score, len(institutionIDs))

	g, ctx := errgroup.WithContext(ctx)
	for i, id := range institutionIDs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("scoring %s: %w", id, err)
			}
			scores[i] = Score{InstitutionID: id, Result: r.Calculate(subjects, id)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

var builtin = DefaultRegistry()

// Calculate scores subjects with the built-in strategies.
func Calculate(subjects []nsc.Subject, institutionID string) Result {
	return builtin.Calculate(subjects, institutionID)
}
