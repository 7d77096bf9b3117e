package matcher

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/movermatch/marketplace-api/internal/model"
	"github.com/movermatch/marketplace-api/internal/repository"
)

// Service ranks eligible movers for a job. Eligibility is exact postal-code
// equality between the mover's service area (or business address) and either
// end of the job; ranking is rating average then rating count, capped to
// bound alert volume.
type Service struct {
	movers repository.MoverRepository
	cache  *gocache.Cache
	limit  int
}

func NewService(movers repository.MoverRepository, limit int, cacheTTL time.Duration) *Service {
	return &Service{
		movers: movers,
		cache:  gocache.New(cacheTTL, 2*cacheTTL),
		limit:  limit,
	}
}

// FindCandidates returns the ranked candidate list for a job. An empty list
// is a normal outcome, not an error. Results are cached briefly per postal
// pair so re-alert sweeps don't hammer the movers table.
func (s *Service) FindCandidates(ctx context.Context, job *model.Job) ([]*model.Mover, error) {
	key := cacheKey(job.PickupPostal, job.DropoffPostal)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]*model.Mover), nil
	}

	candidates, err := s.movers.FindEligible(ctx, job.PickupPostal, job.DropoffPostal, time.Now(), s.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to match movers: %w", err)
	}

	s.cache.Set(key, candidates, gocache.DefaultExpiration)
	return candidates, nil
}

func cacheKey(pickup, dropoff string) string {
	return pickup + "|" + dropoff
}
