// internal/matching/composite.go
package matching

import (
	"math"

	"school-match-workers/internal/models"
)

// Dimension names a calculator. WeightKey names the externally exposed
// weight that applies to it.
type (
	Dimension string
	WeightKey string
)

const (
	DimensionRanking   Dimension = "ranking"
	DimensionCost      Dimension = "cost"
	DimensionAdmission Dimension = "admission"
	DimensionProgram   Dimension = "program"
	DimensionLocation  Dimension = "location"

	WeightRanking       WeightKey = "ranking"
	WeightCost          WeightKey = "cost"
	WeightEmployability WeightKey = "employability"
	WeightReputation    WeightKey = "reputation"
	WeightLocation      WeightKey = "location"
)

// DimensionWeights is the dimension to weight-key mapping. Admission is
// weighted as employability and program fit as reputation.
var DimensionWeights = map[Dimension]WeightKey{
	DimensionRanking:   WeightRanking,
	DimensionCost:      WeightCost,
	DimensionAdmission: WeightEmployability,
	DimensionProgram:   WeightReputation,
	DimensionLocation:  WeightLocation,
}

// Dimensions lists the calculators in breakdown order.
var Dimensions = []Dimension{
	DimensionRanking,
	DimensionCost,
	DimensionAdmission,
	DimensionProgram,
	DimensionLocation,
}

func weightFor(w models.Weights, key WeightKey) float64 {
	switch key {
	case WeightRanking:
		return w.Ranking
	case WeightCost:
		return w.Cost
	case WeightEmployability:
		return w.Employability
	case WeightReputation:
		return w.Reputation
	case WeightLocation:
		return w.Location
	default:
		return 0
	}
}

func dimensionScore(b models.Breakdown, d Dimension) float64 {
	switch d {
	case DimensionRanking:
		return b.Ranking
	case DimensionCost:
		return b.Cost
	case DimensionAdmission:
		return b.Admission
	case DimensionProgram:
		return b.Program
	case DimensionLocation:
		return b.Location
	default:
		return 0
	}
}

// Composite weights the breakdown into a rounded total. Weights are used as
// supplied; a vector that does not sum to 100 is not renormalized.
func Composite(breakdown models.Breakdown, weights models.Weights) models.MatchScore {
	var sum float64
	for _, d := range Dimensions {
		sum += dimensionScore(breakdown, d) * weightFor(weights, DimensionWeights[d])
	}
	return models.MatchScore{
		Total:     int(math.Round(sum / 100)),
		Breakdown: breakdown,
	}
}
