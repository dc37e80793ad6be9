// internal/catalog/postgres.go
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"school-match-workers/internal/common/logger"
	"school-match-workers/internal/models"
)

const defaultPageSize = 1000

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// PostgresStore reads the catalog tables.
type PostgresStore struct {
	db       *sql.DB
	pageSize int
	logger   logger.Logger
}

func NewPostgresStore(db *sql.DB, pageSize int, log logger.Logger) *PostgresStore {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &PostgresStore{
		db:       db,
		pageSize: pageSize,
		logger:   log.WithFields(map[string]interface{}{"component": "catalog-postgres"}),
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// Schools pages through the schools table until a short page is returned.
func (s *PostgresStore) Schools(ctx context.Context, countries []string) ([]models.School, error) {
	start := time.Now()

	patterns := make([]string, 0, len(countries))
	for _, c := range countries {
		if c = strings.TrimSpace(c); c != "" {
			patterns = append(patterns, "%"+likeEscaper.Replace(c)+"%")
		}
	}

	schools := []models.School{}
	for offset := 0; ; offset += s.pageSize {
		page, err := s.schoolPage(ctx, patterns, offset)
		if err != nil {
			return nil, err
		}
		schools = append(schools, page...)
		if len(page) < s.pageSize {
			break
		}
	}

	s.logger.Debug("schools loaded", map[string]interface{}{
		"countries":  countries,
		"count":      len(schools),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return schools, nil
}

func (s *PostgresStore) schoolPage(ctx context.Context, patterns []string, offset int) ([]models.School, error) {
	rows, err := s.db.QueryContext(ctx, Statements[models.QueryTypeSchoolsByCountry], pq.Array(patterns), s.pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", models.QueryTypeSchoolsByCountry, err)
	}
	defer rows.Close()

	var page []models.School
	for rows.Next() {
		school, err := scanSchool(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", models.QueryTypeSchoolsByCountry, err)
		}
		page = append(page, school)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", models.QueryTypeSchoolsByCountry, err)
	}
	return page, nil
}

// Programs skips ids that are not UUIDs.
func (s *PostgresStore) Programs(ctx context.Context, schoolIDs []string) ([]models.Program, error) {
	ids := make([]string, 0, len(schoolIDs))
	for _, id := range schoolIDs {
		if ValidID(id) {
			ids = append(ids, id)
		}
	}
	if skipped := len(schoolIDs) - len(ids); skipped > 0 {
		s.logger.Warn("skipping invalid school ids", map[string]interface{}{"skipped": skipped})
	}
	if len(ids) == 0 {
		return []models.Program{}, nil
	}

	rows, err := s.db.QueryContext(ctx, Statements[models.QueryTypeProgramsBySchool], pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", models.QueryTypeProgramsBySchool, err)
	}
	defer rows.Close()

	programs := []models.Program{}
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", models.QueryTypeProgramsBySchool, err)
		}
		programs = append(programs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", models.QueryTypeProgramsBySchool, err)
	}
	return programs, nil
}

func (s *PostgresStore) School(ctx context.Context, id string) (*models.School, error) {
	if !ValidID(id) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidID, id)
	}
	school, err := scanSchool(s.db.QueryRowContext(ctx, Statements[models.QueryTypeSchoolDetails], id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: school %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", models.QueryTypeSchoolDetails, err)
	}
	return &school, nil
}

func (s *PostgresStore) Program(ctx context.Context, id string) (*models.Program, error) {
	if !ValidID(id) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidID, id)
	}
	program, err := scanProgram(s.db.QueryRowContext(ctx, Statements[models.QueryTypeProgramDetails], id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: program %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", models.QueryTypeProgramDetails, err)
	}
	return &program, nil
}

func scanSchool(row rowScanner) (models.School, error) {
	var (
		id                                    string
		cnName, enName, country, city, region sql.NullString
		tags                                  sql.NullString
		ranking                               sql.NullInt64
	)
	if err := row.Scan(&id, &cnName, &enName, &country, &city, &region, &ranking, &tags); err != nil {
		return models.School{}, err
	}

	school := models.School{
		ID:       id,
		Name:     firstNonEmpty(cnName.String, enName.String, models.UnknownSchool),
		Country:  country.String,
		Region:   region.String,
		City:     city.String,
		Location: models.ComposeLocation(country.String, city.String),
		Tags:     parseTags(tags.String),
	}
	if ranking.Valid && ranking.Int64 > 0 {
		r := int(ranking.Int64)
		school.Ranking = &r
	}
	return school, nil
}

func scanProgram(row rowScanner) (models.Program, error) {
	var (
		id, schoolID                              string
		cnName, enName, degree, duration, tuition sql.NullString
		category, faculty, url                    sql.NullString
	)
	if err := row.Scan(&id, &schoolID, &cnName, &enName, &degree, &duration, &tuition, &category, &faculty, &url); err != nil {
		return models.Program{}, err
	}

	return models.Program{
		ID:         id,
		SchoolID:   schoolID,
		Name:       cnName.String,
		EnName:     enName.String,
		Degree:     firstNonEmpty(degree.String, models.UnknownDegree),
		Duration:   duration.String,
		TuitionFee: tuition.String,
		Category:   category.String,
		Faculty:    faculty.String,
		URL:        url.String,
	}, nil
}
