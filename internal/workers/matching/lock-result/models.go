// internal/workers/matching/lock-result/models.go
package lockresult

import "school-match-workers/internal/models"

// Input selects one result of a stored plan. A nil Locked toggles the flag.
type Input struct {
	PlanID string `json:"planId"`
	Index  int    `json:"index"`
	Locked *bool  `json:"locked,omitempty"`
}

type Output struct {
	PlanID string                  `json:"planId"`
	Index  int                     `json:"index"`
	Locked bool                    `json:"locked"`
	Result models.QuickMatchResult `json:"result"`
}
