package notifications

import "time"

// Kind classifies a notification for the console's rendering.
type Kind string

const (
	KindSessionScheduled Kind = "SESSION_SCHEDULED"
	KindSessionStatus    Kind = "SESSION_STATUS"
	KindSessionReminder  Kind = "SESSION_REMINDER"
	KindGeneral          Kind = "GENERAL"
)

// Notification is one entry in a user's feed.
type Notification struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	CouncilID string     `json:"councilId"`
	Kind      Kind       `json:"kind"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Recipient is a council member eligible for fanout.
type Recipient struct {
	ID                  string
	Name                string
	Email               string
	AcceptNotifications bool
}
