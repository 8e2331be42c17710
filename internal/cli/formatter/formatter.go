// Package formatter renders CLI output with lipgloss styles.
package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/p-n-ai/pai-aps/internal/nsc"
)

var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorDim    = lipgloss.Color("#928374")
	ColorHeader = lipgloss.Color("#83a598")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Bold(true)
)

// Header renders a section title underlined to its width.
func Header(text string) string {
	upper := strings.ToUpper(text)
	return StyleHeader.Render(upper) + "\n" + StyleDim.Render(strings.Repeat("─", lipgloss.Width(upper)))
}

// Dim renders secondary text.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Bold renders emphasised text.
func Bold(text string) string {
	return StyleBold.Render(text)
}

// Check renders a pass/fail marker.
func Check(ok bool) string {
	if ok {
		return StyleGreen.Render("✓")
	}
	return StyleRed.Render("✗")
}

// Status renders a selection checklist status.
func Status(s nsc.ProgressStatus) string {
	switch s {
	case nsc.StatusDone:
		return StyleGreen.Render("✓")
	case nsc.StatusWarning:
		return StyleYellow.Render("!")
	default:
		return StyleRed.Render("✗")
	}
}

// Qualification colours a qualification level by how far it reaches.
func Qualification(q nsc.QualificationLevel) string {
	switch q {
	case nsc.Bachelor:
		return StyleGreen.Render(string(q))
	case nsc.Diploma, nsc.HigherCertificate:
		return StyleYellow.Render(string(q))
	default:
		return StyleRed.Render(string(q))
	}
}

// Score renders an APS value without trailing zeros.
func Score(v float64) string {
	return nsc.FormatPercent(v)
}

// Table renders rows under a styled header with columns padded to the widest
// visible cell. ANSI sequences do not count toward width.
func Table(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}
	const gap = 2

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < len(headers) && i < len(row); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}

	var b strings.Builder
	writeRow := func(cells []string, style func(string) string) {
		for i := range headers {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			b.WriteString(style(cell))
			if i < len(headers)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(cell)+gap))
			}
		}
		b.WriteString("\n")
	}

	writeRow(headers, func(s string) string { return StyleHeader.Render(s) })
	rules := make([]string, len(widths))
	for i, w := range widths {
		rules[i] = strings.Repeat("─", w)
	}
	writeRow(rules, Dim)
	for _, row := range rows {
		writeRow(row, func(s string) string { return s })
	}
	return b.String()
}

// KeyValues renders aligned "key: value" lines indented by two spaces.
func KeyValues(pairs [][2]string) string {
	width := 0
	for _, p := range pairs {
		width = max(width, lipgloss.Width(p[0]))
	}
	var b strings.Builder
	for _, p := range pairs {
		fmt.Fprintf(&b, "  %s%s  %s\n", p[0]+":", strings.Repeat(" ", width-lipgloss.Width(p[0])), p[1])
	}
	return b.String()
}
