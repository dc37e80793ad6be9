// internal/workers/matching/quick-match/models.go
package quickmatch

import "school-match-workers/internal/models"

type Input struct {
	Criteria models.UserCriteria `json:"criteria"`
	Strategy string              `json:"strategy,omitempty"`
	PlanName string              `json:"planName,omitempty"`
	SavePlan *bool               `json:"savePlan,omitempty"`
}

type Output struct {
	PlanID       string                    `json:"planId,omitempty"`
	PlanName     string                    `json:"planName"`
	Strategy     models.MatchStrategy      `json:"strategy"`
	Results      []models.QuickMatchResult `json:"results"`
	TierCounts   map[models.SchoolType]int `json:"tierCounts"`
	PairsScored  int                       `json:"pairsScored"`
	Candidates   map[models.SchoolType]int `json:"candidates"`
	CatalogEmpty bool                      `json:"catalogEmpty"`
}
