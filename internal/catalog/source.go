package catalog

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// ErrNotFound is returned when an institution id is not in the catalog.
var ErrNotFound = errors.New("institution not found")

// Source provides read-only access to the institution catalog.
type Source interface {
	GetInstitution(ctx context.Context, id string) (Institution, error)
	AllInstitutions(ctx context.Context) ([]Institution, error)
}

// MemorySource is an in-memory catalog, used in tests and as the store
// behind the YAML loader.
type MemorySource struct {
	institutions map[string]Institution
	mu           sync.RWMutex
}

// NewMemorySource creates a catalog holding insts.
func NewMemorySource(insts ...Institution) *MemorySource {
	s := &MemorySource{institutions: make(map[string]Institution, len(insts))}
	for _, inst := range insts {
		s.Put(inst)
	}
	return s
}

// Put adds or replaces an institution.
func (s *MemorySource) Put(inst Institution) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.institutions[normalizeID(inst.ID)] = inst
}

func (s *MemorySource) GetInstitution(_ context.Context, id string) (Institution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.institutions[normalizeID(id)]
	if !ok {
		return Institution{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return inst, nil
}

// AllInstitutions returns every institution ordered by id.
func (s *MemorySource) AllInstitutions(_ context.Context) ([]Institution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	insts := make([]Institution, 0, len(s.institutions))
	for _, inst := range s.institutions {
		insts = append(insts, inst)
	}
	slices.SortFunc(insts, func(a, b Institution) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return insts, nil
}

// Len returns the number of institutions.
func (s *MemorySource) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.institutions)
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
