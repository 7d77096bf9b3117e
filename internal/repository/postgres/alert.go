package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/movermatch/marketplace-api/internal/model"
	"github.com/movermatch/marketplace-api/internal/repository"
)

type alertRepository struct {
	*BaseRepository
}

func NewAlertRepository(base *BaseRepository) repository.AlertRepository {
	return &alertRepository{BaseRepository: base}
}

const alertColumns = `
	id, job_id, mover_id, status, interested, message, estimated_price,
	estimated_time, responded_at, expires_at, created_at, updated_at`

func (r *alertRepository) Get(ctx context.Context, id uuid.UUID) (*model.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1`

	var alert model.Alert
	err := r.db.GetContext(ctx, &alert, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return &alert, nil
}

func (r *alertRepository) ListForJob(ctx context.Context, jobID uuid.UUID) ([]*model.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE job_id = $1 ORDER BY created_at ASC`

	var alerts []*model.Alert
	err := r.db.SelectContext(ctx, &alerts, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	return alerts, nil
}

// CreateDispatchBatch writes a full dispatch round atomically: either every
// candidate gets an alert and its notification, or none do.
func (r *alertRepository) CreateDispatchBatch(ctx context.Context, alerts []*model.Alert, notifications []*model.Notification) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		alertQuery := `
			INSERT INTO alerts (id, job_id, mover_id, status, expires_at, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		for _, alert := range alerts {
			if _, err := tx.ExecContext(ctx, alertQuery,
				alert.ID, alert.JobID, alert.MoverID, alert.Status,
				alert.ExpiresAt, alert.CreatedAt, alert.UpdatedAt,
			); err != nil {
				return fmt.Errorf("failed to create alert: %w", err)
			}
		}

		for _, n := range notifications {
			if err := insertNotificationTx(ctx, tx, n); err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *alertRepository) CountCreatedSince(ctx context.Context, jobID uuid.UUID, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM alerts WHERE job_id = $1 AND created_at > $2`

	var count int
	err := r.db.GetContext(ctx, &count, query, jobID, since)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent alerts: %w", err)
	}
	return count, nil
}

// RecordResponse moves an alert out of `sent` and stores the response
// payload. The status guard makes a second response on the same alert a
// no-op, which the caller reports as AlreadyResolved.
func (r *alertRepository) RecordResponse(ctx context.Context, id uuid.UUID, to model.AlertStatus, resp *model.AlertResponse, at time.Time) (bool, error) {
	query := `
		UPDATE alerts
		SET status = $1, interested = $2, message = $3, estimated_price = $4,
			estimated_time = $5, responded_at = $6, updated_at = $7
		WHERE id = $8 AND status = $9
	`
	result, err := r.db.ExecContext(ctx, query,
		to, resp.Interested, resp.Message, resp.EstimatedPrice,
		resp.EstimatedTime, at, time.Now(), id, model.AlertStatusSent)
	if err != nil {
		return false, fmt.Errorf("failed to record alert response: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}

// ClaimAndVoidSiblings runs the winner's alert update and the sibling void
// in one transaction, so a reader never observes a claimed alert alongside
// live siblings.
func (r *alertRepository) ClaimAndVoidSiblings(ctx context.Context, id, jobID uuid.UUID, resp *model.AlertResponse, at time.Time) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		claimQuery := `
			UPDATE alerts
			SET status = $1, interested = $2, message = $3, estimated_price = $4,
				estimated_time = $5, responded_at = $6, updated_at = $7
			WHERE id = $8
		`
		if _, err := tx.ExecContext(ctx, claimQuery,
			model.AlertStatusClaimed, resp.Interested, resp.Message,
			resp.EstimatedPrice, resp.EstimatedTime, at, time.Now(), id,
		); err != nil {
			return fmt.Errorf("failed to claim alert: %w", err)
		}

		voidQuery := `
			UPDATE alerts
			SET status = $1, updated_at = $2
			WHERE job_id = $3 AND id != $4 AND status IN ($5, $6, $7)
		`
		if _, err := tx.ExecContext(ctx, voidQuery,
			model.AlertStatusNotInterested, time.Now(), jobID, id,
			model.AlertStatusSent, model.AlertStatusViewed, model.AlertStatusInterested,
		); err != nil {
			return fmt.Errorf("failed to void sibling alerts: %w", err)
		}

		return nil
	})
}

func (r *alertRepository) VoidLiveForJob(ctx context.Context, jobID uuid.UUID, except *uuid.UUID) (int64, error) {
	query := `
		UPDATE alerts
		SET status = $1, updated_at = $2
		WHERE job_id = $3 AND status IN ($4, $5, $6)
	`
	args := []interface{}{
		model.AlertStatusNotInterested, time.Now(), jobID,
		model.AlertStatusSent, model.AlertStatusViewed, model.AlertStatusInterested,
	}

	if except != nil {
		query += " AND id != $7"
		args = append(args, *except)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to void alerts: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

func (r *alertRepository) MarkCompleted(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE alerts
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := r.db.ExecContext(ctx, query,
		model.AlertStatusCompleted, time.Now(), id, model.AlertStatusClaimed)
	if err != nil {
		return false, fmt.Errorf("failed to complete alert: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}

func (r *alertRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE alerts
		SET status = $1, updated_at = $2
		WHERE status = $3 AND expires_at < $4
	`
	result, err := r.db.ExecContext(ctx, query,
		model.AlertStatusExpired, time.Now(), model.AlertStatusSent, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire alerts: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}
