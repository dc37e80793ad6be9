// internal/matching/tier.go
package matching

import "school-match-workers/internal/models"

const (
	reachTotalBelow  = 60
	safetyTotalAbove = 70
)

type Thresholds struct {
	Reach  float64
	Safety float64
}

// StrategyThresholds holds one entry per models.Strategies.
var StrategyThresholds = map[models.MatchStrategy]Thresholds{
	models.StrategyConservative: {Reach: 80, Safety: 50},
	models.StrategyBalanced:     {Reach: 70, Safety: 40},
	models.StrategyAggressive:   {Reach: 60, Safety: 30},
}

// ThresholdsFor returns the admission-difficulty thresholds of a strategy.
// Unknown strategies get the balanced pair.
func ThresholdsFor(strategy models.MatchStrategy) Thresholds {
	if t, ok := StrategyThresholds[strategy]; ok {
		return t
	}
	return StrategyThresholds[models.StrategyBalanced]
}

// Classify assigns the risk tier. The first matching rule wins.
func Classify(score models.MatchScore, strategy models.MatchStrategy) models.SchoolType {
	t := ThresholdsFor(strategy)
	difficulty := 100 - score.Breakdown.Admission

	switch {
	case difficulty > t.Reach || score.Total < reachTotalBelow:
		return models.TypeReach
	case difficulty < t.Safety && score.Total > safetyTotalAbove:
		return models.TypeSafety
	default:
		return models.TypeTarget
	}
}
