package dispatch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/movermatch/marketplace-api/internal/config"
	"github.com/movermatch/marketplace-api/internal/email"
	"github.com/movermatch/marketplace-api/internal/model"
	"github.com/movermatch/marketplace-api/internal/repository"
	"github.com/movermatch/marketplace-api/internal/service/event"
	"github.com/movermatch/marketplace-api/internal/service/matcher"
	"github.com/movermatch/marketplace-api/internal/service/notification"
	apperrors "github.com/movermatch/marketplace-api/pkg/errors"
	"github.com/movermatch/marketplace-api/pkg/logger"
	"github.com/movermatch/marketplace-api/pkg/metrics"
)

// Result reports one dispatch round. Zero alerted movers is a valid
// outcome, not an error.
type Result struct {
	JobID         uuid.UUID   `json:"job_id"`
	AlertedMovers []uuid.UUID `json:"alerted_movers"`
	NoCandidates  bool        `json:"no_candidates"`
}

// Service fans a paid job out to every eligible mover: one alert record and
// one in-app notification per candidate, then a best-effort email each.
type Service struct {
	jobs     repository.JobRepository
	alerts   repository.AlertRepository
	matcher  *matcher.Service
	notifSvc *notification.Service
	emailSvc email.Service
	emitter  event.Emitter
	logger   *logger.Logger
	metrics  *metrics.Metrics
	cfg      config.EngineConfig
}

func NewService(
	jobs repository.JobRepository,
	alerts repository.AlertRepository,
	matcherSvc *matcher.Service,
	notifSvc *notification.Service,
	emailSvc email.Service,
	emitter event.Emitter,
	logger *logger.Logger,
	m *metrics.Metrics,
	cfg config.EngineConfig,
) *Service {
	return &Service{
		jobs:     jobs,
		alerts:   alerts,
		matcher:  matcherSvc,
		notifSvc: notifSvc,
		emailSvc: emailSvc,
		emitter:  emitter,
		logger:   logger,
		metrics:  m,
		cfg:      cfg,
	}
}

// Dispatch runs one alert round for a job. Preconditions: deposit paid and
// the assignment sub-state is unassigned, or alerted but stale. A round
// within the redispatch window is refused so the scheduler can never double
// a fan-out.
func (s *Service) Dispatch(ctx context.Context, jobID uuid.UUID) (*Result, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("job", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load job: %w", err)
	}

	now := time.Now()
	if !job.DepositPaid {
		s.metrics.DispatchesTotal.WithLabelValues("not_eligible").Inc()
		return nil, apperrors.NotEligible("job deposit has not been paid")
	}
	if !job.DispatchEligible(s.cfg.RealertThreshold, now) {
		s.metrics.DispatchesTotal.WithLabelValues("not_eligible").Inc()
		return nil, apperrors.NotEligible("job is not awaiting dispatch")
	}

	recent, err := s.alerts.CountCreatedSince(ctx, jobID, now.Add(-s.cfg.RedispatchWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to check recent alerts: %w", err)
	}
	if recent > 0 {
		s.metrics.DispatchesTotal.WithLabelValues("deduped").Inc()
		return nil, apperrors.NotEligible("job was already dispatched within the redispatch window")
	}

	candidates, err := s.matcher.FindCandidates(ctx, job)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		return s.handleNoCandidates(ctx, job, now)
	}

	alerts := make([]*model.Alert, 0, len(candidates))
	notifications := make([]*model.Notification, 0, len(candidates))
	for _, mover := range candidates {
		alert := &model.Alert{
			ID:        uuid.New(),
			JobID:     job.ID,
			MoverID:   mover.ID,
			Status:    model.AlertStatusSent,
			ExpiresAt: now.Add(s.cfg.AlertTTL),
			CreatedAt: now,
			UpdatedAt: now,
		}
		alerts = append(alerts, alert)
		notifications = append(notifications, notification.JobAlert(mover.ID, job, alert.ID))
	}

	if err := s.alerts.CreateDispatchBatch(ctx, alerts, notifications); err != nil {
		return nil, fmt.Errorf("failed to create dispatch batch: %w", err)
	}

	if err := s.jobs.MarkAlerted(ctx, job.ID, now); err != nil {
		return nil, fmt.Errorf("failed to mark job alerted: %w", err)
	}

	// Emails only go out once the alert round is durable. A failed send
	// skips that candidate; their alert record stands either way.
	alerted := make([]uuid.UUID, 0, len(candidates))
	for _, mover := range candidates {
		alerted = append(alerted, mover.ID)
		if err := s.emailSvc.SendJobAlert(ctx, mover, job); err != nil {
			s.metrics.EmailFailures.WithLabelValues("job_alert").Inc()
			s.logger.Error(err, "failed to send job alert email",
				"job_id", job.ID.String(), "mover_id", mover.ID.String())
		}
	}

	s.metrics.DispatchesTotal.WithLabelValues("alerted").Inc()
	s.metrics.AlertsCreated.Add(float64(len(alerts)))
	s.emitter.Emit(ctx, event.TypeJobDispatched, map[string]interface{}{
		"job_id":      job.ID,
		"alert_count": len(alerts),
	})
	s.logger.Info("job dispatched", "job_id", job.ID.String(), "candidates", len(candidates))

	return &Result{JobID: job.ID, AlertedMovers: alerted}, nil
}

// handleNoCandidates resets the job for a later round with an extended
// expiry. Guests get no in-app notification; there is no account to attach
// it to.
func (s *Service) handleNoCandidates(ctx context.Context, job *model.Job, now time.Time) (*Result, error) {
	if err := s.jobs.ResetUnassigned(ctx, job.ID, now.Add(s.cfg.NoMatchExtension)); err != nil {
		return nil, fmt.Errorf("failed to reset job after empty match: %w", err)
	}

	if job.CustomerID != nil {
		s.notifSvc.Notify(ctx, notification.NoMoversAvailable(*job.CustomerID, job.ID))
	}

	s.metrics.DispatchesTotal.WithLabelValues("no_candidates").Inc()
	s.metrics.NoCandidateRounds.Inc()
	s.logger.Info("no eligible movers for job", "job_id", job.ID.String(),
		"pickup", job.PickupPostal, "dropoff", job.DropoffPostal)

	return &Result{JobID: job.ID, NoCandidates: true}, nil
}
