package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/movermatch/marketplace-api/internal/model"
)

// All repository interfaces in one file
type (
	// JobRepository handles booking state. Every mutation that moves the
	// assignment state machine is a conditional UPDATE so concurrent
	// contenders serialize on the row.
	JobRepository interface {
		Create(ctx context.Context, job *model.Job) error
		Get(ctx context.Context, id uuid.UUID) (*model.Job, error)
		Delete(ctx context.Context, id uuid.UUID) error

		// MarkAlerted moves the job into the alerted sub-state, increments
		// the alert counter and stamps the last-alert time.
		MarkAlerted(ctx context.Context, id uuid.UUID, at time.Time) error

		// ResetUnassigned returns the job to unassigned with a new expiry
		// (zero-candidate outcome and re-dispatch preparation).
		ResetUnassigned(ctx context.Context, id uuid.UUID, expiresAt time.Time) error

		// AssignMover is the claim race arbiter: a compare-and-swap that
		// binds a mover only while the job is still unassigned/alerted and
		// unbound. Returns false when the race was already won.
		AssignMover(ctx context.Context, jobID, moverID uuid.UUID, typ model.AssignmentType, at time.Time) (bool, error)

		// MarkCompleted transitions status and assignment sub-state to
		// completed.
		MarkCompleted(ctx context.Context, id uuid.UUID) error

		// MarkExpired is the terminal failure branch for never-claimed jobs.
		MarkExpired(ctx context.Context, id uuid.UUID) error

		// MarkLongDistanceProcessed flips the one-shot long-haul intake
		// flag; returns false when another sweep already claimed it.
		MarkLongDistanceProcessed(ctx context.Context, id uuid.UUID) (bool, error)

		ListDispatchable(ctx context.Context, realertBefore, now time.Time) ([]*model.Job, error)
		ListAssignmentExpired(ctx context.Context, now time.Time) ([]*model.Job, error)
		ListUnpaidCreatedBefore(ctx context.Context, cutoff time.Time) ([]*model.Job, error)
		ListUnprocessedLongDistance(ctx context.Context) ([]*model.Job, error)
	}

	// AlertRepository handles per-candidate dispatch records.
	AlertRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Alert, error)
		ListForJob(ctx context.Context, jobID uuid.UUID) ([]*model.Alert, error)

		// CreateDispatchBatch inserts one dispatch round (alerts and their
		// in-app notifications) in a single transaction.
		CreateDispatchBatch(ctx context.Context, alerts []*model.Alert, notifications []*model.Notification) error

		// CountCreatedSince backs the dispatch idempotency window.
		CountCreatedSince(ctx context.Context, jobID uuid.UUID, since time.Time) (int, error)

		// RecordResponse conditionally moves an alert out of `sent` with
		// the mover's response payload. Returns false when the alert was
		// no longer in `sent`.
		RecordResponse(ctx context.Context, id uuid.UUID, to model.AlertStatus, resp *model.AlertResponse, at time.Time) (bool, error)

		// ClaimAndVoidSiblings marks the winning alert claimed and forces
		// every other live alert on the job to not_interested, in one
		// transaction.
		ClaimAndVoidSiblings(ctx context.Context, id, jobID uuid.UUID, resp *model.AlertResponse, at time.Time) error

		// VoidLiveForJob forces live alerts for a job to not_interested,
		// optionally sparing one (the winner). Used by the admin override.
		VoidLiveForJob(ctx context.Context, jobID uuid.UUID, except *uuid.UUID) (int64, error)

		// MarkCompleted conditionally moves claimed → completed. Returns
		// false when the alert was not claimed.
		MarkCompleted(ctx context.Context, id uuid.UUID) (bool, error)

		// ExpireStale moves every `sent` alert past its expiry to expired.
		ExpireStale(ctx context.Context, now time.Time) (int64, error)
	}

	NotificationRepository interface {
		Create(ctx context.Context, notification *model.Notification) error
		Get(ctx context.Context, id uuid.UUID) (*model.Notification, error)
		ListByRecipient(ctx context.Context, filters *model.NotificationFilters) ([]*model.Notification, error)
		MarkRead(ctx context.Context, id, recipientID uuid.UUID) error
		MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error)
		UnreadCount(ctx context.Context, recipientID uuid.UUID) (int, error)
		Delete(ctx context.Context, id, recipientID uuid.UUID) error
	}

	// MoverRepository is the read model the matcher queries. Mover account
	// mutation happens in a separate service.
	MoverRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Mover, error)
		FindEligible(ctx context.Context, pickupPostal, dropoffPostal string, now time.Time, limit int) ([]*model.Mover, error)
	}
)
