// internal/matching/engine.go

// Package matching scores (school, program) pairs against a candidate's
// criteria, sorts them into reach/target/safety tiers and picks a balanced
// shortlist. Everything here is pure: no I/O, no shared state.
package matching

import (
	"fmt"
	"sort"

	"github.com/sourcegraph/conc/iter"

	"school-match-workers/internal/models"
)

// SelectionPolicy caps how many results each tier contributes.
type SelectionPolicy struct {
	Reach  int `json:"reach" mapstructure:"reach"`
	Target int `json:"target" mapstructure:"target"`
	Safety int `json:"safety" mapstructure:"safety"`
}

func DefaultSelectionPolicy() SelectionPolicy {
	return SelectionPolicy{Reach: 2, Target: 3, Safety: 2}
}

func (p SelectionPolicy) capFor(t models.SchoolType) int {
	switch t {
	case models.TypeReach:
		return p.Reach
	case models.TypeTarget:
		return p.Target
	case models.TypeSafety:
		return p.Safety
	default:
		return 0
	}
}

// tierOrder is the group order of the shortlist.
var tierOrder = models.SchoolTypes

type Engine struct {
	weights     models.Weights
	ranking     RankingPolicy
	selection   SelectionPolicy
	parallelism int
}

type Option func(*Engine) error

// WithWeights sets the weights used when the criteria carry no override.
func WithWeights(w models.Weights) Option {
	return func(e *Engine) error {
		if !w.IsZero() {
			e.weights = w
		}
		return nil
	}
}

// WithRankingPolicy replaces the rank-to-score table. An empty table keeps
// the default; a table that rises anywhere is rejected.
func WithRankingPolicy(p RankingPolicy) Option {
	return func(e *Engine) error {
		if len(p.Bands) == 0 {
			return nil
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("ranking policy: %w", err)
		}
		e.ranking = p
		return nil
	}
}

func WithSelectionPolicy(p SelectionPolicy) Option {
	return func(e *Engine) error {
		if p.Reach < 0 || p.Target < 0 || p.Safety < 0 {
			return fmt.Errorf("selection policy: negative tier cap in %+v", p)
		}
		e.selection = p
		return nil
	}
}

// WithParallelism scores pairs on up to n goroutines. n <= 1 is sequential.
func WithParallelism(n int) Option {
	return func(e *Engine) error {
		e.parallelism = n
		return nil
	}
}

func NewEngine(opts ...Option) (*Engine, error) {
	e := defaultEngine()
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func defaultEngine() *Engine {
	return &Engine{
		weights:     models.DefaultWeights(),
		ranking:     DefaultRankingPolicy(),
		selection:   DefaultSelectionPolicy(),
		parallelism: 1,
	}
}

// Outcome is a shortlist plus what was considered to produce it.
type Outcome struct {
	Results     []models.QuickMatchResult
	PairsScored int
	Candidates  map[models.SchoolType]int
}

type pair struct {
	school  models.School
	program models.Program
}

// Score computes the breakdown and weighted total for one pair.
func (e *Engine) Score(school models.School, program models.Program, criteria models.UserCriteria) models.MatchScore {
	c := NormalizeCriteria(criteria)
	return e.score(school, program, c)
}

func (e *Engine) score(school models.School, program models.Program, c models.UserCriteria) models.MatchScore {
	breakdown := models.Breakdown{
		Ranking:   e.ranking.RankingScore(school, program, c),
		Cost:      CostScore(school, program, c),
		Admission: AdmissionScore(school, program, c),
		Program:   ProgramScore(school, program, c),
		Location:  LocationScore(school, program, c),
	}
	weights := e.weights
	if c.Weights != nil {
		weights = *c.Weights
	}
	return Composite(breakdown, weights)
}

// Evaluate scores, classifies and explains a single pair.
func (e *Engine) Evaluate(school models.School, program models.Program, criteria models.UserCriteria, strategy models.MatchStrategy) models.QuickMatchResult {
	return e.evaluate(pair{school, program}, NormalizeCriteria(criteria), strategy)
}

func (e *Engine) evaluate(p pair, c models.UserCriteria, strategy models.MatchStrategy) models.QuickMatchResult {
	score := e.score(p.school, p.program, c)
	tier := Classify(score, strategy)
	return models.QuickMatchResult{
		School:     p.school,
		Program:    p.program,
		Type:       tier,
		MatchScore: score,
		Reason:     Explain(p.school, p.program, score, tier),
		Locked:     false,
	}
}

// Match returns the tier-balanced shortlist.
func (e *Engine) Match(schools []models.School, programs []models.Program, criteria models.UserCriteria, strategy models.MatchStrategy) []models.QuickMatchResult {
	return e.Run(schools, programs, criteria, strategy).Results
}

func (e *Engine) Run(schools []models.School, programs []models.Program, criteria models.UserCriteria, strategy models.MatchStrategy) Outcome {
	c := NormalizeCriteria(criteria)
	pairs := formPairs(schools, programs, c.Countries)

	scored := make([]models.QuickMatchResult, len(pairs))
	if e.parallelism > 1 && len(pairs) > 1 {
		it := iter.Iterator[pair]{MaxGoroutines: e.parallelism}
		it.ForEachIdx(pairs, func(i int, p *pair) {
			scored[i] = e.evaluate(*p, c, strategy)
		})
	} else {
		for i, p := range pairs {
			scored[i] = e.evaluate(p, c, strategy)
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].MatchScore.Total > scored[j].MatchScore.Total
	})

	return Outcome{
		Results:     e.selection.Select(scored),
		PairsScored: len(scored),
		Candidates:  models.TierCounts(scored),
	}
}

// formPairs keeps schools whose country matches (no filter for an empty list)
// and pairs each with its programs, in school order then program order.
func formPairs(schools []models.School, programs []models.Program, countries []string) []pair {
	bySchool := make(map[string][]models.Program)
	for _, p := range programs {
		bySchool[p.SchoolID] = append(bySchool[p.SchoolID], p)
	}

	pairs := make([]pair, 0, len(programs))
	for _, s := range schools {
		if len(countries) > 0 && !CountryMatches(s.Country, countries) {
			continue
		}
		for _, p := range bySchool[s.ID] {
			pairs = append(pairs, pair{school: s, program: p})
		}
	}
	return pairs
}

// Select takes results already sorted by score and keeps at most the capped
// number per tier, grouped reach, target, safety. Nothing is backfilled.
func (p SelectionPolicy) Select(sorted []models.QuickMatchResult) []models.QuickMatchResult {
	buckets := make(map[models.SchoolType][]models.QuickMatchResult, len(tierOrder))
	for _, r := range sorted {
		if len(buckets[r.Type]) < p.capFor(r.Type) {
			buckets[r.Type] = append(buckets[r.Type], r)
		}
	}

	out := make([]models.QuickMatchResult, 0, len(sorted))
	for _, t := range tierOrder {
		out = append(out, buckets[t]...)
	}
	return out
}

// MatchSchools runs the default engine.
func MatchSchools(schools []models.School, programs []models.Program, criteria models.UserCriteria, strategy models.MatchStrategy) []models.QuickMatchResult {
	return defaultEngine().Match(schools, programs, criteria, strategy)
}
