package model

import (
	"time"

	"github.com/google/uuid"
)

type MoverStatus string

const (
	MoverStatusPending   MoverStatus = "pending"
	MoverStatusApproved  MoverStatus = "approved"
	MoverStatusSuspended MoverStatus = "suspended"
)

// Mover is a service provider account as the engine sees it: the fields the
// matcher ranks on plus contact info for alert emails. Account management
// lives outside this service.
type Mover struct {
	ID    uuid.UUID `db:"id" json:"id"`
	Name  string    `db:"name" json:"name"`
	Email string    `db:"email" json:"email"`
	Phone string    `db:"phone" json:"phone"`

	Active                bool        `db:"active" json:"active"`
	Status                MoverStatus `db:"status" json:"status"`
	ServiceAreaCode       string      `db:"service_area_code" json:"service_area_code"`
	BusinessPostal        string      `db:"business_postal" json:"business_postal"`
	SubscriptionExpiresAt time.Time   `db:"subscription_expires_at" json:"subscription_expires_at"`

	RatingAvg   float64 `db:"rating_avg" json:"rating_avg"`
	RatingCount int     `db:"rating_count" json:"rating_count"`
	HourlyRate  float64 `db:"hourly_rate" json:"hourly_rate"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
