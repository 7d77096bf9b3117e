package matcher

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movermatch/marketplace-api/internal/model"
	"github.com/movermatch/marketplace-api/internal/repository/repositorytest"
)

func testJob(pickup, dropoff string) *model.Job {
	return &model.Job{
		ID:            uuid.New(),
		ServiceType:   model.ServiceTypeMoving,
		PickupPostal:  pickup,
		DropoffPostal: dropoff,
		MoveDate:      time.Now().Add(72 * time.Hour),
	}
}

func TestFindCandidates(t *testing.T) {
	highRated := &model.Mover{ID: uuid.New(), Name: "Ace Moving", RatingAvg: 4.8, RatingCount: 120}
	lowRated := &model.Mover{ID: uuid.New(), Name: "Budget Crew", RatingAvg: 4.2, RatingCount: 50}

	movers := &repositorytest.MoverRepo{
		FindEligibleFn: func(_ context.Context, pickup, dropoff string, _ time.Time, limit int) ([]*model.Mover, error) {
			assert.Equal(t, "M5V1A1", pickup)
			assert.Equal(t, "M4B2J8", dropoff)
			assert.Equal(t, 20, limit)
			// Repository returns rows already ordered by rating.
			return []*model.Mover{highRated, lowRated}, nil
		},
	}

	svc := NewService(movers, 20, time.Minute)

	candidates, err := svc.FindCandidates(context.Background(), testJob("M5V1A1", "M4B2J8"))
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, highRated.ID, candidates[0].ID)
	assert.Equal(t, lowRated.ID, candidates[1].ID)
}

func TestFindCandidatesEmpty(t *testing.T) {
	movers := &repositorytest.MoverRepo{
		FindEligibleFn: func(context.Context, string, string, time.Time, int) ([]*model.Mover, error) {
			return nil, nil
		},
	}

	svc := NewService(movers, 20, time.Minute)

	candidates, err := svc.FindCandidates(context.Background(), testJob("K1A0A1", "K1A0A2"))
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestFindCandidatesCachesByPostalPair(t *testing.T) {
	calls := 0
	movers := &repositorytest.MoverRepo{
		FindEligibleFn: func(context.Context, string, string, time.Time, int) ([]*model.Mover, error) {
			calls++
			return []*model.Mover{{ID: uuid.New()}}, nil
		},
	}

	svc := NewService(movers, 20, time.Minute)
	ctx := context.Background()

	_, err := svc.FindCandidates(ctx, testJob("M5V1A1", "M4B2J8"))
	require.NoError(t, err)
	_, err = svc.FindCandidates(ctx, testJob("M5V1A1", "M4B2J8"))
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "second lookup for the same postal pair should hit the cache")

	_, err = svc.FindCandidates(ctx, testJob("V6B4Y8", "M4B2J8"))
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "a different postal pair must bypass the cache")
}
