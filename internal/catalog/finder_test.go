package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-n-ai/pai-aps/internal/catalog"
	"github.com/p-n-ai/pai-aps/internal/requirement"
)

func testInstitution() catalog.Institution {
	return catalog.Institution{
		ID:   "up",
		Name: "University of Pretoria",
		Courses: []catalog.Course{
			{
				ID:     "bcom",
				Name:   "BCom Accounting Sciences",
				APSMin: 34,
				SubjectRequirements: requirement.Requirements{
					"English":     requirement.Level(5),
					"Mathematics": requirement.Level(5),
				},
			},
			{
				ID:     "ba",
				Name:   "BA General",
				APSMin: 28,
				SubjectRequirements: requirement.Requirements{
					"English": requirement.Level(4),
					"Mathematics": requirement.AnyOf(
						requirement.Alternative{Subject: "Mathematics", Level: 3},
						requirement.Alternative{Subject: "Mathematical Literacy", Level: 4},
					),
				},
			},
			{ID: "hc", Name: "Higher Certificate in Sport Sciences", APSMin: 20},
			{ID: "bsc", Name: "BSc Computer Science", APSMin: 36, SubjectRequirements: requirement.Requirements{
				"Mathematics": requirement.Level(6),
			}},
		},
	}
}

func courseIDs(courses []catalog.Course) []string {
	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestQualifyingCourses(t *testing.T) {
	levels := requirement.Levels{
		{Name: "English Home Language", Level: 5},
		{Name: "Mathematical Literacy", Level: 6},
		{Name: "History", Level: 5},
	}

	tests := []struct {
		name  string
		score float64
		want  []string
	}{
		{"high score", 36, []string{"ba", "hc"}},
		{"mid score", 28, []string{"ba", "hc"}},
		{"low score", 27.5, []string{"hc"}},
		{"too low", 19, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := catalog.QualifyingCourses(testInstitution(), tt.score, levels, requirement.Containment{})
			assert.Equal(t, tt.want, courseIDs(got))
		})
	}
}

func TestQualifyingCourses_AllRequirementsANDed(t *testing.T) {
	levels := requirement.Levels{
		{Name: "English Home Language", Level: 6},
		{Name: "Mathematics", Level: 4},
	}
	got := catalog.QualifyingCourses(testInstitution(), 40, levels, requirement.Containment{})
	assert.Equal(t, []string{"ba", "hc"}, courseIDs(got), "bcom needs both English and Mathematics at 5")

	levels[1].Level = 6
	got = catalog.QualifyingCourses(testInstitution(), 40, levels, requirement.Containment{})
	assert.Equal(t, []string{"bcom", "ba", "hc", "bsc"}, courseIDs(got))
}

func TestMatchCourses(t *testing.T) {
	levels := requirement.Levels{
		{Name: "English Home Language", Level: 5},
		{Name: "Mathematical Literacy", Level: 6},
	}
	matches := catalog.MatchCourses(testInstitution(), 30, levels, requirement.Containment{})
	require.Len(t, matches, 4)

	bcom := matches[0]
	assert.False(t, bcom.APSMet)
	assert.False(t, bcom.MeetsRequirements)
	assert.Equal(t, []string{"English"}, bcom.Met)
	assert.Equal(t, []string{"Mathematics (Level 5)"}, bcom.Missing)
	assert.False(t, bcom.Qualifies())

	ba := matches[1]
	assert.True(t, ba.Qualifies())
	assert.Equal(t, []string{"English", "Mathematics"}, ba.Met)
	assert.Empty(t, ba.Missing)

	hc := matches[2]
	assert.True(t, hc.Qualifies())
	assert.Empty(t, hc.Met)

	bsc := matches[3]
	assert.False(t, bsc.APSMet)
	assert.Equal(t, []string{"Mathematics (Level 6)"}, bsc.Missing)
}

func TestMatchCourses_AgreesWithQualifyingCourses(t *testing.T) {
	levels := requirement.Levels{
		{Name: "English First Additional Language", Level: 4},
		{Name: "Mathematics", Level: 7},
	}
	inst := testInstitution()

	var fromMatches []catalog.Course
	for _, m := range catalog.MatchCourses(inst, 35, levels, requirement.Containment{}) {
		if m.Qualifies() {
			fromMatches = append(fromMatches, m.Course)
		}
	}
	assert.Equal(t, courseIDs(catalog.QualifyingCourses(inst, 35, levels, requirement.Containment{})), courseIDs(fromMatches))
}
