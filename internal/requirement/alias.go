package requirement

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

//go:embed aliases.yaml
var defaultAliases []byte

// AliasTable resolves subject spellings to a canonical name.
type AliasTable struct {
	canonical map[string]string
}

// ParseAliasTable reads a YAML mapping of canonical name to accepted spellings.
func ParseAliasTable(data []byte) (*AliasTable, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing alias table: %w", err)
	}

	t := &AliasTable{canonical: make(map[string]string, len(raw)*4)}
	for name, spellings := range raw {
		name = normalizeName(name)
		t.canonical[name] = name
		for _, s := range spellings {
			s = normalizeName(s)
			if existing, ok := t.canonical[s]; ok && existing != name {
				return nil, fmt.Errorf("alias %q maps to both %q and %q", s, existing, name)
			}
			t.canonical[s] = name
		}
	}
	return t, nil
}

var loadDefaultAliases = sync.OnceValues(func() (*AliasTable, error) {
	return ParseAliasTable(defaultAliases)
})

// DefaultAliasTable returns the built-in alias table.
func DefaultAliasTable() (*AliasTable, error) {
	return loadDefaultAliases()
}

// Canonical returns the canonical form of name, or its normalized form when
// the table does not know it.
func (t *AliasTable) Canonical(name string) string {
	n := normalizeName(name)
	if c, ok := t.canonical[n]; ok {
		return c
	}
	return n
}

// Len returns the number of known spellings.
func (t *AliasTable) Len() int {
	return len(t.canonical)
}

var parens = strings.NewReplacer("(", "", ")", "")

func normalizeName(name string) string {
	n := strings.Join(strings.Fields(cases.Fold().String(name)), " ")
	n = strings.ReplaceAll(n, "&", "and")
	return parens.Replace(n)
}

// AliasMatcher matches subjects by canonical name, then by language and
// language level. A Home Language satisfies a First Additional Language
// requirement, and any level satisfies a Second Additional Language one.
type AliasMatcher struct {
	Table *AliasTable
}

func (m AliasMatcher) Match(student, required string) bool {
	if strings.TrimSpace(student) == "" || strings.TrimSpace(required) == "" {
		return false
	}
	if m.Table.Canonical(student) == m.Table.Canonical(required) {
		return true
	}
	return m.languageMatches(student, required)
}

type languageLevel int

const (
	levelAny languageLevel = iota
	levelHL
	levelFAL
	levelSAL
)

var (
	hlWord  = regexp.MustCompile(`\bhl\b`)
	falWord = regexp.MustCompile(`\bfal\b`)
	salWord = regexp.MustCompile(`\bsal\b`)

	stripHL  = strings.NewReplacer("home language", "", "hl", "", "(", "", ")", "")
	stripFAL = strings.NewReplacer("first additional language", "", "fal", "", "(", "", ")", "")
	stripSAL = strings.NewReplacer("second additional language", "", "sal", "", "(", "", ")", "")
)

func parseLanguage(name string) (string, languageLevel) {
	n := cases.Fold().String(name)
	clean := func(r *strings.Replacer) string {
		return strings.Join(strings.Fields(r.Replace(n)), " ")
	}

	switch {
	case strings.Contains(n, "home language") || hlWord.MatchString(n):
		return clean(stripHL), levelHL
	case strings.Contains(n, "first additional") || falWord.MatchString(n):
		return clean(stripFAL), levelFAL
	case strings.Contains(n, "second additional") || salWord.MatchString(n):
		return clean(stripSAL), levelSAL
	default:
		return n, levelAny
	}
}

func (m AliasMatcher) languageMatches(student, required string) bool {
	studentLang, studentLevel := parseLanguage(student)
	requiredLang, requiredLevel := parseLanguage(required)

	if m.Table.Canonical(studentLang) != m.Table.Canonical(requiredLang) {
		return false
	}

	switch requiredLevel {
	case levelHL:
		return studentLevel == levelHL
	case levelFAL:
		return studentLevel == levelHL || studentLevel == levelFAL
	case levelSAL:
		return studentLevel != levelAny
	default:
		return true
	}
}
