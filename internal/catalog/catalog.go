// internal/catalog/catalog.go

// Package catalog reads schools and programs from the record store, caches
// them in Redis and searches programs in Elasticsearch.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"

	"school-match-workers/internal/models"
)

var (
	ErrNotFound     = errors.New("catalog record not found")
	ErrInvalidID    = errors.New("catalog id is not a valid uuid")
	ErrMissingParam = errors.New("missing required parameter")
)

// Provider is the read side of the catalog.
type Provider interface {
	// Schools returns schools whose country matches any of countries
	// (all schools for an empty list), best ranked first.
	Schools(ctx context.Context, countries []string) ([]models.School, error)
	// Programs returns the programs of the given schools.
	Programs(ctx context.Context, schoolIDs []string) ([]models.Program, error)
	School(ctx context.Context, id string) (*models.School, error)
	Program(ctx context.Context, id string) (*models.Program, error)
}

// Load fetches the schools for countries and all their programs.
func Load(ctx context.Context, p Provider, countries []string) ([]models.School, []models.Program, error) {
	schools, err := p.Schools(ctx, countries)
	if err != nil {
		return nil, nil, err
	}
	if len(schools) == 0 {
		return schools, []models.Program{}, nil
	}

	ids := make([]string, len(schools))
	for i, s := range schools {
		ids[i] = s.ID
	}
	programs, err := p.Programs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	return schools, programs, nil
}

// ValidID reports whether id is a UUID, the key format of the record store.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// parseTags accepts a JSON array or a pipe-separated list.
func parseTags(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err == nil {
		return tags
	}
	out := []string{}
	for _, t := range strings.Split(raw, "|") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
