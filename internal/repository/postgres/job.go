package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/movermatch/marketplace-api/internal/model"
	"github.com/movermatch/marketplace-api/internal/repository"
)

type jobRepository struct {
	*BaseRepository
}

func NewJobRepository(base *BaseRepository) repository.JobRepository {
	return &jobRepository{BaseRepository: base}
}

const jobColumns = `
	id, customer_id, contact_name, contact_email, contact_phone, mover_id,
	service_type, pickup_address, pickup_postal, dropoff_address, dropoff_postal,
	move_date, estimated_hours, long_distance, long_distance_processed,
	deposit_paid, deposit_amount, quote_subtotal, payment_status,
	status, assignment_status, assignment_type, alerts_sent, last_alert_at,
	assigned_at, expires_at, created_at, updated_at`

func (r *jobRepository) Create(ctx context.Context, job *model.Job) error {
	query := `
		INSERT INTO jobs (
			id, customer_id, contact_name, contact_email, contact_phone,
			service_type, pickup_address, pickup_postal, dropoff_address, dropoff_postal,
			move_date, estimated_hours, long_distance, deposit_paid, deposit_amount,
			quote_subtotal, payment_status, status, assignment_status, alerts_sent,
			expires_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23)
	`
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	job.CreatedAt = time.Now()
	job.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		job.ID,
		job.CustomerID,
		job.ContactName,
		job.ContactEmail,
		job.ContactPhone,
		job.ServiceType,
		job.PickupAddress,
		job.PickupPostal,
		job.DropoffAddress,
		job.DropoffPostal,
		job.MoveDate,
		job.EstimatedHours,
		job.LongDistance,
		job.DepositPaid,
		job.DepositAmount,
		job.QuoteSubtotal,
		job.PaymentStatus,
		job.Status,
		job.AssignmentStatus,
		job.AlertsSent,
		job.ExpiresAt,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

func (r *jobRepository) Get(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

	var job model.Job
	err := r.db.GetContext(ctx, &job, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

func (r *jobRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM jobs WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("job not found")
	}

	return nil
}

func (r *jobRepository) MarkAlerted(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE jobs
		SET assignment_status = $1, alerts_sent = alerts_sent + 1,
			last_alert_at = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := r.db.ExecContext(ctx, query, model.AssignmentStatusAlerted, at, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark job alerted: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("job not found")
	}

	return nil
}

func (r *jobRepository) ResetUnassigned(ctx context.Context, id uuid.UUID, expiresAt time.Time) error {
	query := `
		UPDATE jobs
		SET assignment_status = $1, expires_at = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := r.db.ExecContext(ctx, query, model.AssignmentStatusUnassigned, expiresAt, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to reset job assignment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("job not found")
	}

	return nil
}

// AssignMover performs the first-committer-wins transition. The WHERE clause
// is the whole arbitration: only a job still unbound and in a pre-claim
// sub-state accepts the write. Losers see zero rows affected.
func (r *jobRepository) AssignMover(ctx context.Context, jobID, moverID uuid.UUID, typ model.AssignmentType, at time.Time) (bool, error) {
	query := `
		UPDATE jobs
		SET mover_id = $1,
			assignment_status = $2,
			assignment_type = $3,
			assigned_at = $4,
			status = CASE WHEN status = $5 THEN $6 ELSE status END,
			updated_at = $7
		WHERE id = $8
			AND mover_id IS NULL
			AND assignment_status IN ($9, $10)
	`
	result, err := r.db.ExecContext(ctx, query,
		moverID,
		model.AssignmentStatusAssigned,
		typ,
		at,
		model.JobStatusPendingAssignment,
		model.JobStatusQuoteRequested,
		time.Now(),
		jobID,
		model.AssignmentStatusUnassigned,
		model.AssignmentStatusAlerted,
	)
	if err != nil {
		return false, fmt.Errorf("failed to assign mover: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}

func (r *jobRepository) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE jobs
		SET status = $1, assignment_status = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := r.db.ExecContext(ctx, query,
		model.JobStatusCompleted, model.AssignmentStatusCompleted, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("job not found")
	}

	return nil
}

func (r *jobRepository) MarkExpired(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE jobs
		SET assignment_status = $1, updated_at = $2
		WHERE id = $3 AND assignment_status IN ($4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		model.AssignmentStatusExpired, time.Now(), id,
		model.AssignmentStatusUnassigned, model.AssignmentStatusAlerted)
	if err != nil {
		return fmt.Errorf("failed to expire job: %w", err)
	}
	return nil
}

// MarkLongDistanceProcessed flips the intake flag exactly once. The flag
// guard in the WHERE clause makes the long-haul notification idempotent
// across sweeps.
func (r *jobRepository) MarkLongDistanceProcessed(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE jobs
		SET long_distance_processed = TRUE, updated_at = $1
		WHERE id = $2 AND long_distance = TRUE AND long_distance_processed = FALSE
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return false, fmt.Errorf("failed to mark long-distance job processed: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}

func (r *jobRepository) ListDispatchable(ctx context.Context, realertBefore, now time.Time) ([]*model.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE deposit_paid = TRUE
			AND long_distance = FALSE
			AND move_date > $1
			AND status IN ($2, $3)
			AND (
				assignment_status = $4
				OR (assignment_status = $5 AND (last_alert_at IS NULL OR last_alert_at < $6))
			)
		ORDER BY move_date ASC
	`
	var jobs []*model.Job
	err := r.db.SelectContext(ctx, &jobs, query,
		now,
		model.JobStatusPendingAssignment, model.JobStatusQuoteRequested,
		model.AssignmentStatusUnassigned,
		model.AssignmentStatusAlerted, realertBefore,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list dispatchable jobs: %w", err)
	}
	return jobs, nil
}

func (r *jobRepository) ListAssignmentExpired(ctx context.Context, now time.Time) ([]*model.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE expires_at < $1
			AND assignment_status IN ($2, $3)
		ORDER BY expires_at ASC
	`
	var jobs []*model.Job
	err := r.db.SelectContext(ctx, &jobs, query,
		now, model.AssignmentStatusUnassigned, model.AssignmentStatusAlerted)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired jobs: %w", err)
	}
	return jobs, nil
}

func (r *jobRepository) ListUnpaidCreatedBefore(ctx context.Context, cutoff time.Time) ([]*model.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE deposit_paid = FALSE
			AND long_distance = FALSE
			AND created_at < $1
		ORDER BY created_at ASC
	`
	var jobs []*model.Job
	err := r.db.SelectContext(ctx, &jobs, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list unpaid jobs: %w", err)
	}
	return jobs, nil
}

func (r *jobRepository) ListUnprocessedLongDistance(ctx context.Context) ([]*model.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE long_distance = TRUE
			AND long_distance_processed = FALSE
			AND deposit_paid = TRUE
		ORDER BY created_at ASC
	`
	var jobs []*model.Job
	err := r.db.SelectContext(ctx, &jobs, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list long-distance jobs: %w", err)
	}
	return jobs, nil
}
