package report_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-aps/internal/advisor"
	"github.com/p-n-ai/pai-aps/internal/catalog"
	"github.com/p-n-ai/pai-aps/internal/nsc"
	"github.com/p-n-ai/pai-aps/internal/report"
	"github.com/p-n-ai/pai-aps/internal/requirement"
)

func evaluate(t *testing.T) advisor.Report {
	t.Helper()
	src := catalog.NewMemorySource(catalog.Institution{
		ID:   "cut",
		Name: "Central University of Technology",
		Courses: []catalog.Course{
			{ID: "dip-it", Name: "Diploma in Information Technology", Faculty: "Engineering", APSMin: 27},
			{ID: "dip-it-ext", Name: "Diploma in Information Technology (Extended)", APSMin: 22, ExtendedCurriculum: true},
			{ID: "beng", Name: "BEngTech Civil", APSMin: 30, SubjectRequirements: requirement.Requirements{
				"Mathematics": requirement.Level(6),
			}},
		},
	})
	e := advisor.NewEngine(advisor.EngineConfig{Catalog: src})
	r, err := e.Evaluate(t.Context(), advisor.Request{
		InstitutionID: "cut",
		Subjects: []nsc.Subject{
			{Name: "English Home Language", Percentage: 72},
			{Name: "Afrikaans First Additional Language", Percentage: 65},
			{Name: "Mathematics", Percentage: 58},
			{Name: "Physical Sciences", Percentage: 61},
			{Name: "Information Technology", Percentage: 75},
			{Name: "Geography", Percentage: 50},
			{Name: "Life Orientation", Percentage: 80},
		},
	})
	require.NoError(t, err)
	return r
}

func open(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestWriteReport(t *testing.T) {
	r := evaluate(t)

	var buf bytes.Buffer
	require.NoError(t, report.WriteReport(&buf, r))
	f := open(t, buf.Bytes())

	assert.Equal(t, []string{report.SheetSummary, report.SheetSubjects, report.SheetCourses, report.SheetExtended}, f.GetSheetList())

	inst, err := f.GetCellValue(report.SheetSummary, "B2")
	require.NoError(t, err)
	assert.Equal(t, "Central University of Technology", inst)

	subjects, err := f.GetRows(report.SheetSubjects)
	require.NoError(t, err)
	require.Len(t, subjects, 8)
	assert.Equal(t, []string{"Subject", "Percentage", "Level"}, subjects[0])
	assert.Equal(t, []string{"Mathematics", "58", "4"}, subjects[3])

	courses, err := f.GetRows(report.SheetCourses)
	require.NoError(t, err)
	require.Len(t, courses, 3)
	assert.Equal(t, "Diploma in Information Technology", courses[1][0])
	assert.Equal(t, "Mathematics (Level 6)", courses[2][6])

	extended, err := f.GetRows(report.SheetExtended)
	require.NoError(t, err)
	require.Len(t, extended, 2)
	assert.Equal(t, "Yes", extended[1][5])
}

func TestWriteReport_HeaderIsBold(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.WriteReport(&buf, evaluate(t)))
	f := open(t, buf.Bytes())

	id, err := f.GetCellStyle(report.SheetCourses, "A1")
	require.NoError(t, err)
	style, err := f.GetStyle(id)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)
}

func TestWriteReport_NoExtendedSheet(t *testing.T) {
	r := evaluate(t)
	r.Courses = r.Courses[:1]

	var buf bytes.Buffer
	require.NoError(t, report.WriteReport(&buf, r))
	assert.NotContains(t, open(t, buf.Bytes()).GetSheetList(), report.SheetExtended)
}

func TestWritePlacements(t *testing.T) {
	placements := []advisor.Placement{
		{
			Institution: catalog.Summary{ID: "cut", Name: "Central University of Technology"},
			APS:         30,
			Qualifying: []catalog.Course{
				{Name: "Diploma in Information Technology", APSMin: 27},
				{Name: "Higher Certificate in IT", APSMin: 20},
			},
		},
		{Institution: catalog.Summary{ID: "sun", Name: "Stellenbosch University"}, APS: 64.5, Qualifying: []catalog.Course{}},
	}

	var buf bytes.Buffer
	require.NoError(t, report.WritePlacements(&buf, placements))
	rows, err := open(t, buf.Bytes()).GetRows(report.SheetPlacements)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Higher Certificate in IT", rows[2][2])
	assert.Equal(t, []string{"Stellenbosch University", "64.5"}, rows[3])
}
