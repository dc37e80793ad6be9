// internal/models/match.go
package models

import "time"

type MatchStrategy string

const (
	StrategyConservative MatchStrategy = "conservative"
	StrategyBalanced     MatchStrategy = "balanced"
	StrategyAggressive   MatchStrategy = "aggressive"
)

// Strategies lists every MatchStrategy.
var Strategies = []MatchStrategy{StrategyConservative, StrategyBalanced, StrategyAggressive}

func (s MatchStrategy) Valid() bool {
	switch s {
	case StrategyConservative, StrategyBalanced, StrategyAggressive:
		return true
	default:
		return false
	}
}

// ParseMatchStrategy returns balanced for an empty string.
func ParseMatchStrategy(s string) (MatchStrategy, bool) {
	if s == "" {
		return StrategyBalanced, true
	}
	strategy := MatchStrategy(s)
	return strategy, strategy.Valid()
}

// SchoolType is the risk tier of a match.
type SchoolType string

const (
	TypeReach  SchoolType = "reach"
	TypeTarget SchoolType = "target"
	TypeSafety SchoolType = "safety"
)

// SchoolTypes lists every tier in shortlist order.
var SchoolTypes = []SchoolType{TypeReach, TypeTarget, TypeSafety}

func (t SchoolType) Valid() bool {
	switch t {
	case TypeReach, TypeTarget, TypeSafety:
		return true
	default:
		return false
	}
}

func (t SchoolType) Label() string {
	switch t {
	case TypeReach:
		return "冲刺校"
	case TypeTarget:
		return "目标校"
	case TypeSafety:
		return "保底校"
	default:
		return string(t)
	}
}

// Breakdown holds the unrounded per-dimension scores, keyed by calculator name.
type Breakdown struct {
	Ranking   float64 `json:"ranking"`
	Cost      float64 `json:"cost"`
	Admission float64 `json:"admission"`
	Program   float64 `json:"program"`
	Location  float64 `json:"location"`
}

type MatchScore struct {
	Total     int       `json:"total"`
	Breakdown Breakdown `json:"breakdown"`
}

type RecommendationReason struct {
	Pros        []string `json:"pros"`
	Cons        []string `json:"cons"`
	KeyPoints   []string `json:"keyPoints"`
	Suggestions []string `json:"suggestions"`
}

// QuickMatchResult is one shortlisted pair. Locked belongs to the caller.
type QuickMatchResult struct {
	School     School               `json:"school"`
	Program    Program              `json:"program"`
	Type       SchoolType           `json:"type"`
	MatchScore MatchScore           `json:"matchScore"`
	Reason     RecommendationReason `json:"reason"`
	Locked     bool                 `json:"locked"`
}

type QuickMatchPlan struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	CreatedAt time.Time          `json:"createdAt"`
	Strategy  MatchStrategy      `json:"strategy"`
	Criteria  UserCriteria       `json:"criteria"`
	Results   []QuickMatchResult `json:"results"`
}

// TierCounts tallies results per tier.
func TierCounts(results []QuickMatchResult) map[SchoolType]int {
	counts := map[SchoolType]int{TypeReach: 0, TypeTarget: 0, TypeSafety: 0}
	for _, r := range results {
		counts[r.Type]++
	}
	return counts
}
