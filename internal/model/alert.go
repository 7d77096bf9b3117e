package model

import (
	"time"

	"github.com/google/uuid"
)

type AlertStatus string

const (
	AlertStatusSent          AlertStatus = "sent"
	AlertStatusViewed        AlertStatus = "viewed"
	AlertStatusInterested    AlertStatus = "interested"
	AlertStatusNotInterested AlertStatus = "not_interested"
	AlertStatusClaimed       AlertStatus = "claimed"
	AlertStatusCompleted     AlertStatus = "completed"
	AlertStatusExpired       AlertStatus = "expired"
)

// Terminal reports whether no further response can land on an alert in
// this status.
func (s AlertStatus) Terminal() bool {
	switch s {
	case AlertStatusNotInterested, AlertStatusClaimed, AlertStatusCompleted, AlertStatusExpired:
		return true
	}
	return false
}

// Alert is one dispatch attempt of a job to one candidate mover. At most
// one live alert may exist per (job, mover) pair.
type Alert struct {
	ID      uuid.UUID   `db:"id" json:"id"`
	JobID   uuid.UUID   `db:"job_id" json:"job_id"`
	MoverID uuid.UUID   `db:"mover_id" json:"mover_id"`
	Status  AlertStatus `db:"status" json:"status"`

	Interested     *bool      `db:"interested" json:"interested,omitempty"`
	Message        string     `db:"message" json:"message,omitempty"`
	EstimatedPrice *float64   `db:"estimated_price" json:"estimated_price,omitempty"`
	EstimatedTime  string     `db:"estimated_time" json:"estimated_time,omitempty"`
	RespondedAt    *time.Time `db:"responded_at" json:"responded_at,omitempty"`

	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AlertResponse is a mover's reply to an alert.
type AlertResponse struct {
	Interested     bool     `json:"interested"`
	Message        string   `json:"message" binding:"max=2000"`
	EstimatedPrice *float64 `json:"estimated_price" binding:"omitempty,gte=0"`
	EstimatedTime  string   `json:"estimated_time" binding:"max=100"`
}
