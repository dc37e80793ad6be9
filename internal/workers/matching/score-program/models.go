// internal/workers/matching/score-program/models.go
package scoreprogram

import "school-match-workers/internal/models"

type Input struct {
	SchoolID  string              `json:"schoolId"`
	ProgramID string              `json:"programId"`
	Criteria  models.UserCriteria `json:"criteria"`
	Strategy  string              `json:"strategy,omitempty"`
}

type Output struct {
	SchoolID   string                      `json:"schoolId"`
	ProgramID  string                      `json:"programId"`
	Strategy   models.MatchStrategy        `json:"strategy"`
	MatchScore models.MatchScore           `json:"matchScore"`
	Type       models.SchoolType           `json:"type"`
	TypeLabel  string                      `json:"typeLabel"`
	Reason     models.RecommendationReason `json:"reason"`
	// CountryMismatch is set when the school lies outside the requested
	// countries. A full match would have dropped the pair.
	CountryMismatch bool `json:"countryMismatch"`
}
