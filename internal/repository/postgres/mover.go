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

type moverRepository struct {
	*BaseRepository
}

func NewMoverRepository(base *BaseRepository) repository.MoverRepository {
	return &moverRepository{BaseRepository: base}
}

const moverColumns = `
	id, name, email, phone, active, status, service_area_code, business_postal,
	subscription_expires_at, rating_avg, rating_count, hourly_rate, created_at, updated_at`

func (r *moverRepository) Get(ctx context.Context, id uuid.UUID) (*model.Mover, error) {
	query := `SELECT ` + moverColumns + ` FROM movers WHERE id = $1`

	var mover model.Mover
	err := r.db.GetContext(ctx, &mover, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mover: %w", err)
	}
	return &mover, nil
}

// FindEligible returns approved, subscribed movers whose declared service
// area or business address matches either end of the job, best-rated first.
// Eligibility is exact postal-code equality; there is no distance
// computation.
func (r *moverRepository) FindEligible(ctx context.Context, pickupPostal, dropoffPostal string, now time.Time, limit int) ([]*model.Mover, error) {
	query := `
		SELECT ` + moverColumns + `
		FROM movers
		WHERE active = TRUE
			AND status = $1
			AND subscription_expires_at > $2
			AND (
				service_area_code IN ($3, $4)
				OR business_postal IN ($3, $4)
			)
		ORDER BY rating_avg DESC, rating_count DESC
		LIMIT $5
	`
	var movers []*model.Mover
	err := r.db.SelectContext(ctx, &movers, query,
		model.MoverStatusApproved, now, pickupPostal, dropoffPostal, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find eligible movers: %w", err)
	}
	return movers, nil
}
