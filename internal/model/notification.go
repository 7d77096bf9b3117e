package model

import (
	"time"

	"github.com/google/uuid"
)

type RecipientType string

const (
	RecipientTypeCustomer RecipientType = "customer"
	RecipientTypeMover    RecipientType = "mover"
	RecipientTypeTeam     RecipientType = "team"
)

type NotificationType string

const (
	NotificationTypeJobAlert    NotificationType = "job_alert"
	NotificationTypeQuoteUpdate NotificationType = "quote_update"
	NotificationTypeAssignment  NotificationType = "assignment"
	NotificationTypeCompletion  NotificationType = "completion"
	NotificationTypeSystem      NotificationType = "system"
)

type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "low"
	NotificationPriorityNormal NotificationPriority = "normal"
	NotificationPriorityHigh   NotificationPriority = "high"
)

// Notification is a user-facing message tied to a job or alert event.
// The engine creates them; only the recipient mutates them afterwards.
type Notification struct {
	ID            uuid.UUID            `db:"id" json:"id"`
	RecipientID   uuid.UUID            `db:"recipient_id" json:"recipient_id"`
	RecipientType RecipientType        `db:"recipient_type" json:"recipient_type"`
	Type          NotificationType     `db:"type" json:"type"`
	Title         string               `db:"title" json:"title"`
	Message       string               `db:"message" json:"message"`
	JobID         *uuid.UUID           `db:"job_id" json:"job_id,omitempty"`
	AlertID       *uuid.UUID           `db:"alert_id" json:"alert_id,omitempty"`
	Priority      NotificationPriority `db:"priority" json:"priority"`

	EmailSent bool `db:"email_sent" json:"email_sent"`
	SMSSent   bool `db:"sms_sent" json:"sms_sent"`
	PushSent  bool `db:"push_sent" json:"push_sent"`
	Read      bool `db:"read" json:"read"`

	// ExpiresAt is used only for display pruning.
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type NotificationFilters struct {
	RecipientID uuid.UUID
	UnreadOnly  bool
	Limit       int
}
