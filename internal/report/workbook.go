// Package report exports evaluation results as Excel workbooks.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-aps/internal/advisor"
	"github.com/p-n-ai/pai-aps/internal/catalog"
)

// Sheet names.
const (
	SheetSummary    = "Summary"
	SheetSubjects   = "Subjects"
	SheetCourses    = "Courses"
	SheetExtended   = "Extended Curriculum"
	SheetPlacements = "Placements"
)

type workbook struct {
	f      *excelize.File
	header int
}

func newWorkbook(first string) (*workbook, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", first); err != nil {
		f.Close()
		return nil, err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, err
	}
	return &workbook{f: f, header: header}, nil
}

// table writes a header row and data rows starting at A1 of sheet, creating
// the sheet when needed.
func (wb *workbook) table(sheet string, header []any, rows [][]any, widths ...float64) error {
	if idx, _ := wb.f.GetSheetIndex(sheet); idx < 0 {
		if _, err := wb.f.NewSheet(sheet); err != nil {
			return err
		}
	}
	if err := wb.f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := wb.f.SetCellStyle(sheet, "A1", last, wb.header); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := wb.f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := wb.f.SetColWidth(sheet, col, col, w); err != nil {
			return err
		}
	}
	return nil
}

func (wb *workbook) write(w io.Writer) error {
	defer wb.f.Close()
	if _, err := wb.f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// WriteReport writes one evaluation as a workbook with a summary, the
// subject levels and every course of the institution. Extended curriculum
// courses get their own sheet.
func WriteReport(w io.Writer, r advisor.Report) error {
	wb, err := newWorkbook(SheetSummary)
	if err != nil {
		return fmt.Errorf("creating workbook: %w", err)
	}

	institution := r.InstitutionID
	if r.Institution != nil {
		institution = r.Institution.Name
	}
	summary := [][]any{
		{"Institution", institution},
		{"APS", r.APS.APS},
		{"Method", r.APS.Method},
		{"Qualification", string(r.Qualification)},
		{"Language of learning", r.LanguageOfLearning},
		{"NSC pass level", string(r.NSC.PassLevel)},
		{"Selection complete", yesNo(r.Selection.CanCalculate)},
		{"Qualifying courses", len(r.Qualifying)},
	}
	if err := wb.table(SheetSummary, []any{"Field", "Value"}, summary, 24, 60); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}

	subjects := make([][]any, len(r.Subjects))
	for i, s := range r.Subjects {
		subjects[i] = []any{s.Name, s.Percentage, s.Level}
	}
	if err := wb.table(SheetSubjects, []any{"Subject", "Percentage", "Level"}, subjects, 40, 12, 8); err != nil {
		return fmt.Errorf("writing subjects: %w", err)
	}

	var mainstream, extended [][]any
	for _, m := range r.Courses {
		row := courseRow(m)
		if m.Course.ExtendedCurriculum {
			extended = append(extended, row)
		} else {
			mainstream = append(mainstream, row)
		}
	}
	courseHeader := []any{"Course", "Faculty", "APS Min", "APS Met", "Requirements Met", "Qualifies", "Missing"}
	widths := []float64{44, 30, 10, 10, 18, 10, 60}
	if err := wb.table(SheetCourses, courseHeader, mainstream, widths...); err != nil {
		return fmt.Errorf("writing courses: %w", err)
	}
	if len(extended) > 0 {
		if err := wb.table(SheetExtended, courseHeader, extended, widths...); err != nil {
			return fmt.Errorf("writing extended courses: %w", err)
		}
	}

	return wb.write(w)
}

func courseRow(m catalog.CourseMatch) []any {
	return []any{
		m.Course.Name,
		m.Course.Faculty,
		m.Course.APSMin,
		yesNo(m.APSMet),
		yesNo(m.MeetsRequirements),
		yesNo(m.Qualifies()),
		strings.Join(m.Missing, "; "),
	}
}

// WritePlacements writes one row per qualifying course across institutions,
// and a row with no course for institutions where nothing qualifies.
func WritePlacements(w io.Writer, placements []advisor.Placement) error {
	wb, err := newWorkbook(SheetPlacements)
	if err != nil {
		return fmt.Errorf("creating workbook: %w", err)
	}

	var rows [][]any
	for _, p := range placements {
		if len(p.Qualifying) == 0 {
			rows = append(rows, []any{p.Institution.Name, p.APS, "", "", ""})
			continue
		}
		for _, c := range p.Qualifying {
			rows = append(rows, []any{p.Institution.Name, p.APS, c.Name, c.Faculty, c.APSMin})
		}
	}
	header := []any{"Institution", "APS", "Course", "Faculty", "APS Min"}
	if err := wb.table(SheetPlacements, header, rows, 36, 8, 44, 30, 10); err != nil {
		return fmt.Errorf("writing placements: %w", err)
	}
	return wb.write(w)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
