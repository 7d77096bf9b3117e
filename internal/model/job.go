package model

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPendingAssignment JobStatus = "pending_assignment"
	JobStatusQuoteRequested    JobStatus = "quote_requested"
	JobStatusQuoteProvided     JobStatus = "quote_provided"
	JobStatusQuoteAccepted     JobStatus = "quote_accepted"
	JobStatusConfirmed         JobStatus = "confirmed"
	JobStatusInProgress        JobStatus = "in_progress"
	JobStatusCompleted         JobStatus = "completed"
	JobStatusCancelled         JobStatus = "cancelled"
	JobStatusDisputed          JobStatus = "disputed"
)

type PaymentStatus string

const (
	PaymentStatusPending     PaymentStatus = "pending"
	PaymentStatusDepositPaid PaymentStatus = "deposit_paid"
	PaymentStatusFullyPaid   PaymentStatus = "fully_paid"
	PaymentStatusRefunded    PaymentStatus = "refunded"
	PaymentStatusDisputed    PaymentStatus = "disputed"
)

type AssignmentStatus string

const (
	AssignmentStatusUnassigned AssignmentStatus = "unassigned"
	AssignmentStatusAlerted    AssignmentStatus = "alerted"
	AssignmentStatusClaimed    AssignmentStatus = "claimed"
	AssignmentStatusAssigned   AssignmentStatus = "assigned"
	AssignmentStatusInProgress AssignmentStatus = "in_progress"
	AssignmentStatusCompleted  AssignmentStatus = "completed"
	AssignmentStatusExpired    AssignmentStatus = "expired"
)

type AssignmentType string

const (
	AssignmentTypeSystem AssignmentType = "system"
	AssignmentTypeManual AssignmentType = "manual"
)

type ServiceType string

const (
	ServiceTypeMoving   ServiceType = "moving"
	ServiceTypeCleaning ServiceType = "cleaning"
)

// Job is a booking: one move or clean request. Guest bookings carry inline
// contact info instead of a customer reference.
type Job struct {
	ID             uuid.UUID   `db:"id" json:"id"`
	CustomerID     *uuid.UUID  `db:"customer_id" json:"customer_id,omitempty"`
	ContactName    string      `db:"contact_name" json:"contact_name,omitempty"`
	ContactEmail   string      `db:"contact_email" json:"contact_email,omitempty"`
	ContactPhone   string      `db:"contact_phone" json:"contact_phone,omitempty"`
	MoverID        *uuid.UUID  `db:"mover_id" json:"mover_id,omitempty"`
	ServiceType    ServiceType `db:"service_type" json:"service_type"`
	PickupAddress  string      `db:"pickup_address" json:"pickup_address"`
	PickupPostal   string      `db:"pickup_postal" json:"pickup_postal"`
	DropoffAddress string      `db:"dropoff_address" json:"dropoff_address"`
	DropoffPostal  string      `db:"dropoff_postal" json:"dropoff_postal"`
	MoveDate       time.Time   `db:"move_date" json:"move_date"`
	EstimatedHours float64     `db:"estimated_hours" json:"estimated_hours"`
	LongDistance   bool        `db:"long_distance" json:"long_distance"`
	// LongDistanceProcessed guards the one-time long-haul intake notification.
	LongDistanceProcessed bool `db:"long_distance_processed" json:"long_distance_processed"`

	DepositPaid   bool          `db:"deposit_paid" json:"deposit_paid"`
	DepositAmount float64       `db:"deposit_amount" json:"deposit_amount"`
	QuoteSubtotal *float64      `db:"quote_subtotal" json:"quote_subtotal,omitempty"`
	PaymentStatus PaymentStatus `db:"payment_status" json:"payment_status"`

	Status           JobStatus        `db:"status" json:"status"`
	AssignmentStatus AssignmentStatus `db:"assignment_status" json:"assignment_status"`
	AssignmentType   *AssignmentType  `db:"assignment_type" json:"assignment_type,omitempty"`
	AlertsSent       int              `db:"alerts_sent" json:"alerts_sent"`
	LastAlertAt      *time.Time       `db:"last_alert_at" json:"last_alert_at,omitempty"`
	AssignedAt       *time.Time       `db:"assigned_at" json:"assigned_at,omitempty"`
	ExpiresAt        time.Time        `db:"expires_at" json:"expires_at"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DispatchEligible reports whether the job may enter a dispatch round.
// A stale "alerted" job qualifies once its last alert is older than the
// re-alert threshold.
func (j *Job) DispatchEligible(realertAfter time.Duration, now time.Time) bool {
	if !j.DepositPaid {
		return false
	}
	switch j.AssignmentStatus {
	case AssignmentStatusUnassigned:
		return true
	case AssignmentStatusAlerted:
		return j.LastAlertAt == nil || now.Sub(*j.LastAlertAt) >= realertAfter
	default:
		return false
	}
}

// AmountDue is the balance for the claimed-job email: quote subtotal minus
// the deposit already collected. Returns false when no quote exists yet.
func (j *Job) AmountDue() (float64, bool) {
	if j.QuoteSubtotal == nil {
		return 0, false
	}
	return *j.QuoteSubtotal - j.DepositAmount, true
}

type AdminAssignRequest struct {
	MoverID uuid.UUID `json:"mover_id" binding:"required"`
}

type JobFilters struct {
	Status           JobStatus
	AssignmentStatus AssignmentStatus
	CustomerID       uuid.UUID
	MoverID          uuid.UUID
}
