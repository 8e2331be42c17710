package catalog_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/p-n-ai/pai-aps/internal/catalog"
	"github.com/p-n-ai/pai-aps/internal/platform/database"
	"github.com/p-n-ai/pai-aps/internal/requirement"
)

func TestNewPostgresSource_NilPool(t *testing.T) {
	_, err := catalog.NewPostgresSource(nil)
	assert.Error(t, err)
}

func TestPostgresSource(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	ctx := t.Context()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("aps"),
		postgres.WithUsername("aps"),
		postgres.WithPassword("aps"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.New(ctx, dsn, 4, 1)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Migrate(ctx), "migrations should be idempotent")

	insts := []catalog.Institution{
		testInstitution(),
		{ID: "ru", Name: "Rhodes University", Strategy: "rhodes", Courses: []catalog.Course{}},
	}
	require.NoError(t, catalog.Seed(ctx, db.Pool, insts))

	src, err := catalog.NewPostgresSource(db.Pool)
	require.NoError(t, err)

	up, err := src.GetInstitution(ctx, "UP")
	require.NoError(t, err)
	assert.Equal(t, "University of Pretoria", up.Name)
	require.Len(t, up.Courses, 4)
	assert.Equal(t, []string{"bcom", "ba", "hc", "bsc"}, courseIDs(up.Courses))
	assert.Equal(t, requirement.Level(5), up.Courses[0].SubjectRequirements["English"])
	assert.True(t, up.Courses[1].SubjectRequirements["Mathematics"].HasAlternatives())
	assert.Nil(t, up.Courses[2].SubjectRequirements)

	_, err = src.GetInstitution(ctx, "uct")
	assert.True(t, errors.Is(err, catalog.ErrNotFound))

	all, err := src.AllInstitutions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "ru", all[0].ID)
	assert.Empty(t, all[0].Courses)
	assert.Len(t, all[1].Courses, 4)

	// Reseeding replaces the course list.
	trimmed := testInstitution()
	trimmed.Courses = trimmed.Courses[:1]
	require.NoError(t, catalog.Seed(ctx, db.Pool, []catalog.Institution{trimmed}))
	up, err = src.GetInstitution(ctx, "up")
	require.NoError(t, err)
	assert.Len(t, up.Courses, 1)
}
