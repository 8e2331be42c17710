// Package transcript reads a student's subject results from files.
//
// Supported formats are YAML and JSON (a list of {name, percentage} or a
// document with a subjects key) and Excel workbooks with subject names in
// the first column and percentages in the second.
package transcript

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/p-n-ai/pai-aps/internal/nsc"
)

type document struct {
	Subjects []nsc.Subject `json:"subjects" yaml:"subjects"`
}

// Load reads subjects from path, choosing the format by file extension.
func Load(path string) ([]nsc.Subject, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading transcript: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".json":
		return ParseJSON(data)
	case ".xlsx":
		return ReadWorkbook(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unsupported transcript format %q", ext)
	}
}

// ParseYAML decodes a YAML transcript.
func ParseYAML(data []byte) ([]nsc.Subject, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	if len(node.Content) == 0 {
		return []nsc.Subject{}, nil
	}

	root := node.Content[0]
	if root.Kind == yaml.SequenceNode {
		var subjects []nsc.Subject
		if err := root.Decode(&subjects); err != nil {
			return nil, fmt.Errorf("decoding subjects: %w", err)
		}
		return nonNil(subjects), nil
	}

	var doc document
	if err := root.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding transcript: %w", err)
	}
	return nonNil(doc.Subjects), nil
}

// ParseJSON decodes a JSON transcript.
func ParseJSON(data []byte) ([]nsc.Subject, error) {
	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte("[")) {
		var subjects []nsc.Subject
		if err := json.Unmarshal(trimmed, &subjects); err != nil {
			return nil, fmt.Errorf("decoding subjects: %w", err)
		}
		return nonNil(subjects), nil
	}

	var doc document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("decoding transcript: %w", err)
	}
	return nonNil(doc.Subjects), nil
}

// ReadWorkbook reads subjects from the first sheet of an Excel workbook. A
// first row whose percentage cell is not a number is treated as a header.
// Rows with an empty subject cell are skipped.
func ReadWorkbook(r io.Reader) ([]nsc.Subject, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}

	subjects := []nsc.Subject{}
	for i, row := range rows {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		name := strings.TrimSpace(row[0])
		cell := ""
		if len(row) > 1 {
			cell = row[1]
		}

		pct, err := parsePercentage(cell)
		if err != nil {
			if i == 0 && errors.Is(err, errNotNumber) {
				continue
			}
			return nil, fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
		subjects = append(subjects, nsc.Subject{Name: name, Percentage: pct})
	}
	return subjects, nil
}

var errNotNumber = errors.New("not a number")

// parsePercentage accepts "72", "72.5" and "72%". An empty cell is 0, the
// same as a subject with no mark entered.
func parsePercentage(cell string) (float64, error) {
	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(cell), "%"))
	if s == "" {
		return 0, nil
	}
	pct, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("percentage %q: %w", cell, errNotNumber)
	}
	if pct < 0 || pct > 100 {
		return 0, fmt.Errorf("percentage %v out of range 0-100", pct)
	}
	return pct, nil
}

func nonNil(subjects []nsc.Subject) []nsc.Subject {
	if subjects == nil {
		return []nsc.Subject{}
	}
	return subjects
}
