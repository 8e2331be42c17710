package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/p-n-ai/pai-aps/internal/requirement"
)

// PostgresSource reads the catalog from the institutions and courses tables.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource creates a PostgreSQL-backed catalog source.
func NewPostgresSource(pool *pgxpool.Pool) (*PostgresSource, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresSource{pool: pool}, nil
}

const institutionColumns = `id, name, short_name, location, website, strategy`

const courseColumns = `institution_id, id, name, faculty, aps_min, duration,
	subject_requirements, additional_requirements, careers, extended_curriculum`

func (s *PostgresSource) GetInstitution(ctx context.Context, id string) (Institution, error) {
	var inst Institution
	err := s.pool.QueryRow(ctx,
		`SELECT `+institutionColumns+` FROM institutions WHERE id = $1`,
		normalizeID(id),
	).Scan(&inst.ID, &inst.Name, &inst.ShortName, &inst.Location, &inst.Website, &inst.Strategy)
	if errors.Is(err, pgx.ErrNoRows) {
		return Institution{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Institution{}, fmt.Errorf("query institution: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE institution_id = $1 ORDER BY position`,
		inst.ID,
	)
	if err != nil {
		return Institution{}, fmt.Errorf("query courses: %w", err)
	}
	defer rows.Close()

	inst.Courses = []Course{}
	for rows.Next() {
		_, c, err := scanCourse(rows)
		if err != nil {
			return Institution{}, err
		}
		inst.Courses = append(inst.Courses, c)
	}
	if err := rows.Err(); err != nil {
		return Institution{}, fmt.Errorf("iterate courses: %w", err)
	}
	return inst, nil
}

// AllInstitutions returns every institution ordered by id.
func (s *PostgresSource) AllInstitutions(ctx context.Context) ([]Institution, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+institutionColumns+` FROM institutions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query institutions: %w", err)
	}
	insts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Institution, error) {
		var inst Institution
		err := row.Scan(&inst.ID, &inst.Name, &inst.ShortName, &inst.Location, &inst.Website, &inst.Strategy)
		inst.Courses = []Course{}
		return inst, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan institution: %w", err)
	}

	index := make(map[string]int, len(insts))
	for i, inst := range insts {
		index[inst.ID] = i
	}

	rows, err = s.pool.Query(ctx, `SELECT `+courseColumns+` FROM courses ORDER BY institution_id, position`)
	if err != nil {
		return nil, fmt.Errorf("query courses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		instID, c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		if i, ok := index[instID]; ok {
			insts[i].Courses = append(insts[i].Courses, c)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate courses: %w", err)
	}
	return insts, nil
}

func scanCourse(rows pgx.Rows) (string, Course, error) {
	var (
		instID  string
		c       Course
		reqJSON []byte
		careers []string
	)
	if err := rows.Scan(
		&instID,
		&c.ID,
		&c.Name,
		&c.Faculty,
		&c.APSMin,
		&c.Duration,
		&reqJSON,
		&c.AdditionalRequirements,
		&careers,
		&c.ExtendedCurriculum,
	); err != nil {
		return "", Course{}, fmt.Errorf("scan course: %w", err)
	}

	if len(reqJSON) > 0 {
		var reqs requirement.Requirements
		if err := json.Unmarshal(reqJSON, &reqs); err != nil {
			return "", Course{}, fmt.Errorf("decode requirements for %s/%s: %w", instID, c.ID, err)
		}
		if len(reqs) > 0 {
			c.SubjectRequirements = reqs
		}
	}
	if len(careers) > 0 {
		c.Careers = careers
	}
	return instID, c, nil
}

// Seed writes institutions and their courses in one transaction, replacing
// any existing rows for the same institution ids.
func Seed(ctx context.Context, pool *pgxpool.Pool, insts []Institution) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		for _, inst := range insts {
			id := normalizeID(inst.ID)
			if _, err := tx.Exec(ctx,
				`INSERT INTO institutions (`+institutionColumns+`)
				 VALUES ($1, $2, $3, $4, $5, $6)
				 ON CONFLICT (id) DO UPDATE SET
				   name = EXCLUDED.name,
				   short_name = EXCLUDED.short_name,
				   location = EXCLUDED.location,
				   website = EXCLUDED.website,
				   strategy = EXCLUDED.strategy`,
				id, inst.Name, inst.ShortName, inst.Location, inst.Website, inst.Strategy,
			); err != nil {
				return fmt.Errorf("upsert institution %s: %w", id, err)
			}

			if _, err := tx.Exec(ctx, `DELETE FROM courses WHERE institution_id = $1`, id); err != nil {
				return fmt.Errorf("clear courses for %s: %w", id, err)
			}

			batch := &pgx.Batch{}
			for pos, c := range inst.Courses {
				reqs := c.SubjectRequirements
				if reqs == nil {
					reqs = requirement.Requirements{}
				}
				reqJSON, err := json.Marshal(reqs)
				if err != nil {
					return fmt.Errorf("encode requirements for %s/%s: %w", id, c.ID, err)
				}
				careers := c.Careers
				if careers == nil {
					careers = []string{}
				}
				batch.Queue(
					`INSERT INTO courses (position, `+courseColumns+`)
					 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
					pos, id, c.ID, c.Name, c.Faculty, c.APSMin, c.Duration,
					reqJSON, c.AdditionalRequirements, careers, c.ExtendedCurriculum,
				)
			}
			if batch.Len() == 0 {
				continue
			}
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return fmt.Errorf("insert courses for %s: %w", id, err)
			}
		}
		return nil
	})
}
