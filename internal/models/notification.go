// internal/models/notification.go
package models

import "time"

// Notification records one delivery attempt of a shortlist.
type Notification struct {
	ID        string     `json:"id"`
	PlanID    string     `json:"planId"`
	Channel   string     `json:"channel"` // "email", "sms"
	Recipient string     `json:"recipient"`
	Status    string     `json:"status"` // "sent", "failed", "disabled"
	MessageID string     `json:"messageId,omitempty"`
	Error     string     `json:"error,omitempty"`
	SentAt    *time.Time `json:"sentAt,omitempty"`
}

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"

	NotificationSent     = "sent"
	NotificationFailed   = "failed"
	NotificationDisabled = "disabled"
)
