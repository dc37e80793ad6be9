// internal/catalog/snapshot.go
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"school-match-workers/internal/matching"
	"school-match-workers/internal/models"
)

// Snapshot is an offline copy of the catalog, read from YAML or JSON.
type Snapshot struct {
	Schools  []models.School  `json:"schools" yaml:"schools" validate:"dive"`
	Programs []models.Program `json:"programs" yaml:"programs" validate:"dive"`
}

var validate = validator.New()

// LoadSnapshot reads and validates a snapshot file. Files ending in .json
// are decoded as JSON, everything else as YAML.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap Snapshot
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &snap)
	default:
		err = yaml.Unmarshal(data, &snap)
	}
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}

	snap.fillDefaults()
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *Snapshot) fillDefaults() {
	for i := range s.Schools {
		sc := &s.Schools[i]
		if sc.Location == "" {
			sc.Location = models.ComposeLocation(sc.Country, sc.City)
		}
	}
	for i := range s.Programs {
		if s.Programs[i].Degree == "" {
			s.Programs[i].Degree = models.UnknownDegree
		}
	}
}

// Validate checks field rules, id uniqueness and that every program points
// at a school in the snapshot.
func (s *Snapshot) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid snapshot: %w", err)
	}

	schools := make(map[string]struct{}, len(s.Schools))
	for _, sc := range s.Schools {
		if _, dup := schools[sc.ID]; dup {
			return fmt.Errorf("invalid snapshot: duplicate school id %q", sc.ID)
		}
		schools[sc.ID] = struct{}{}
	}

	programs := make(map[string]struct{}, len(s.Programs))
	for _, p := range s.Programs {
		if _, dup := programs[p.ID]; dup {
			return fmt.Errorf("invalid snapshot: duplicate program id %q", p.ID)
		}
		programs[p.ID] = struct{}{}
		if _, ok := schools[p.SchoolID]; !ok {
			return fmt.Errorf("invalid snapshot: program %q references unknown school %q", p.ID, p.SchoolID)
		}
	}
	return nil
}

// MemoryProvider serves a Snapshot through the Provider interface.
type MemoryProvider struct {
	schools  []models.School
	programs []models.Program
}

// NewMemoryProvider orders schools best ranked first, unranked last,
// keeping file order among equals.
func NewMemoryProvider(snap *Snapshot) *MemoryProvider {
	schools := append([]models.School(nil), snap.Schools...)
	sort.SliceStable(schools, func(i, j int) bool {
		return rankKey(schools[i]) < rankKey(schools[j])
	})
	return &MemoryProvider{
		schools:  schools,
		programs: append([]models.Program(nil), snap.Programs...),
	}
}

func rankKey(s models.School) int {
	if s.Ranking == nil || *s.Ranking <= 0 {
		return int(^uint(0) >> 1)
	}
	return *s.Ranking
}

func (m *MemoryProvider) Schools(_ context.Context, countries []string) ([]models.School, error) {
	out := []models.School{}
	for _, s := range m.schools {
		if len(countries) == 0 || matching.CountryMatches(s.Country, countries) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MemoryProvider) Programs(_ context.Context, schoolIDs []string) ([]models.Program, error) {
	wanted := make(map[string]struct{}, len(schoolIDs))
	for _, id := range schoolIDs {
		wanted[id] = struct{}{}
	}
	out := []models.Program{}
	for _, p := range m.programs {
		if _, ok := wanted[p.SchoolID]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemoryProvider) School(_ context.Context, id string) (*models.School, error) {
	for _, s := range m.schools {
		if s.ID == id {
			found := s
			return &found, nil
		}
	}
	return nil, fmt.Errorf("%w: school %s", ErrNotFound, id)
}

func (m *MemoryProvider) Program(_ context.Context, id string) (*models.Program, error) {
	for _, p := range m.programs {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, fmt.Errorf("%w: program %s", ErrNotFound, id)
}
