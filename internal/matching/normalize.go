// internal/matching/normalize.go
package matching

import (
	"math"
	"strings"

	"school-match-workers/internal/models"
)

const (
	minGPA = 0.0
	maxGPA = 4.0
)

// NormalizeCriteria returns a cleaned copy of the criteria: blank list entries
// dropped, GPA clamped into [0,4], negative budgets treated as absent and an
// inverted budget range swapped. An all-zero weight override counts as absent.
// The input is not modified.
func NormalizeCriteria(c models.UserCriteria) models.UserCriteria {
	out := c
	out.Countries = cleanList(c.Countries)
	out.Majors = cleanList(c.Majors)
	out.DegreeLevel = models.DegreeLevel(strings.ToLower(strings.TrimSpace(string(c.DegreeLevel))))

	if c.GPA != nil {
		if math.IsNaN(*c.GPA) {
			out.GPA = nil
		} else {
			gpa := math.Max(minGPA, math.Min(maxGPA, *c.GPA))
			out.GPA = &gpa
		}
	}

	out.BudgetMin = budgetBound(c.BudgetMin)
	out.BudgetMax = budgetBound(c.BudgetMax)
	if out.BudgetMin != nil && out.BudgetMax != nil && *out.BudgetMin > *out.BudgetMax {
		out.BudgetMin, out.BudgetMax = out.BudgetMax, out.BudgetMin
	}

	if c.Preferences != nil {
		prefs := *c.Preferences
		prefs.Locations = cleanList(c.Preferences.Locations)
		if c.Preferences.Ranking != nil {
			band := *c.Preferences.Ranking
			if band.Min > 0 && band.Max > 0 && band.Min > band.Max {
				band.Min, band.Max = band.Max, band.Min
			}
			prefs.Ranking = &band
		}
		out.Preferences = &prefs
	}

	if c.Weights != nil {
		if c.Weights.IsZero() {
			out.Weights = nil
		} else {
			w := *c.Weights
			out.Weights = &w
		}
	}
	return out
}

func budgetBound(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || *v < 0 {
		return nil
	}
	b := *v
	return &b
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
