package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader reads one institution per YAML file from a directory tree and
// serves them from memory. Files that fail to parse or validate are skipped
// with a warning.
type Loader struct {
	rootDir string
	*MemorySource
}

// NewLoader creates a loader and loads every institution under rootDir.
func NewLoader(rootDir string) (*Loader, error) {
	l := &Loader{
		rootDir:      rootDir,
		MemorySource: NewMemorySource(),
	}

	if err := l.loadAll(); err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	slog.Info("catalog loaded", "institutions", l.Len(), "path", rootDir)
	return l, nil
}

func (l *Loader) loadAll() error {
	if _, err := os.Stat(l.rootDir); err != nil {
		return err
	}
	return filepath.Walk(l.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
			return l.loadInstitution(path)
		}
		return nil
	})
}

func (l *Loader) loadInstitution(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	inst, err := ParseInstitution(data)
	if err != nil {
		slog.Warn("skipping invalid institution YAML", "path", path, "error", err)
		return nil
	}

	if _, err := l.GetInstitution(context.Background(), inst.ID); err == nil {
		slog.Warn("duplicate institution id, later file wins", "id", inst.ID, "path", path)
	}
	l.Put(inst)
	return nil
}

// ParseInstitution decodes and schema-validates one institution document.
func ParseInstitution(data []byte) (Institution, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Institution{}, fmt.Errorf("parsing yaml: %w", err)
	}
	if err := ValidateDocument(doc); err != nil {
		return Institution{}, err
	}

	var inst Institution
	if err := yaml.Unmarshal(data, &inst); err != nil {
		return Institution{}, fmt.Errorf("decoding institution: %w", err)
	}
	return inst, nil
}
