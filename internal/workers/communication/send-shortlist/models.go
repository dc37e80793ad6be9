// internal/workers/communication/send-shortlist/models.go
package sendshortlist

import "school-match-workers/internal/models"

type Input struct {
	PlanID string       `json:"planId"`
	Email  string       `json:"email,omitempty"`
	Phone  string       `json:"phone,omitempty"`
	Report *ReportInput `json:"report,omitempty"`
}

// ReportInput overrides the configured report settings field by field.
type ReportInput struct {
	Title                  string `json:"title,omitempty"`
	IncludeAnalysis        *bool  `json:"includeAnalysis,omitempty"`
	IncludeRecommendations *bool  `json:"includeRecommendations,omitempty"`
	AdvisorNotes           string `json:"advisorNotes,omitempty"`
}

type Output struct {
	PlanID        string                `json:"planId"`
	EmailSent     bool                  `json:"emailSent"`
	SMSSent       bool                  `json:"smsSent"`
	MessageID     string                `json:"messageId,omitempty"`
	SMSMessageID  string                `json:"smsMessageId,omitempty"`
	Summary       string                `json:"summary"`
	Notifications []models.Notification `json:"notifications"`
}
