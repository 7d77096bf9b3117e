package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/movermatch/marketplace-api/internal/config"
	"github.com/movermatch/marketplace-api/internal/email"
	"github.com/movermatch/marketplace-api/internal/model"
	"github.com/movermatch/marketplace-api/internal/repository"
	"github.com/movermatch/marketplace-api/internal/service/dispatch"
	"github.com/movermatch/marketplace-api/internal/service/event"
	"github.com/movermatch/marketplace-api/internal/service/notification"
	apperrors "github.com/movermatch/marketplace-api/pkg/errors"
	"github.com/movermatch/marketplace-api/pkg/logger"
	"github.com/movermatch/marketplace-api/pkg/metrics"
)

// Scheduler is the reconciliation loop: a fixed-interval process that
// re-examines live state and repairs it. Expiries are enforced only here,
// so staleness is bounded by the sweep interval, never by per-record
// timers.
type Scheduler struct {
	jobs        repository.JobRepository
	alerts      repository.AlertRepository
	dispatchSvc *dispatch.Service
	notifSvc    *notification.Service
	emailSvc    email.Service
	emitter     event.Emitter
	logger      *logger.Logger
	metrics     *metrics.Metrics
	cfg         config.EngineConfig

	dispatchInterval time.Duration
	cleanupInterval  time.Duration
}

func New(
	jobs repository.JobRepository,
	alerts repository.AlertRepository,
	dispatchSvc *dispatch.Service,
	notifSvc *notification.Service,
	emailSvc email.Service,
	emitter event.Emitter,
	logger *logger.Logger,
	m *metrics.Metrics,
	engineCfg config.EngineConfig,
	schedCfg config.SchedulerConfig,
) *Scheduler {
	return &Scheduler{
		jobs:             jobs,
		alerts:           alerts,
		dispatchSvc:      dispatchSvc,
		notifSvc:         notifSvc,
		emailSvc:         emailSvc,
		emitter:          emitter,
		logger:           logger,
		metrics:          m,
		cfg:              engineCfg,
		dispatchInterval: schedCfg.DispatchInterval,
		cleanupInterval:  schedCfg.CleanupInterval,
	}
}

// Start runs the loop until ctx is cancelled. The dispatch sweep runs on
// its own, faster ticker; the four cleanup sweeps share the slower one.
func (s *Scheduler) Start(ctx context.Context) {
	dispatchTicker := time.NewTicker(s.dispatchInterval)
	defer dispatchTicker.Stop()
	cleanupTicker := time.NewTicker(s.cleanupInterval)
	defer cleanupTicker.Stop()

	s.logger.Info("scheduler started",
		"dispatch_interval", s.dispatchInterval.String(),
		"cleanup_interval", s.cleanupInterval.String())

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler shutting down")
			return
		case <-dispatchTicker.C:
			s.runTask(ctx, "dispatch_sweep", s.dispatchSweep)
		case <-cleanupTicker.C:
			s.runTask(ctx, "expire_alerts", s.expireAlerts)
			s.runTask(ctx, "expire_assignments", s.expireAssignments)
			s.runTask(ctx, "purge_unpaid", s.purgeUnpaid)
			s.runTask(ctx, "long_distance_intake", s.longDistanceIntake)
		}
	}
}

// runTask fault-isolates one sweep: a panic or error in one task must not
// block the others.
func (s *Scheduler) runTask(ctx context.Context, name string, task func(context.Context) error) {
	timer := prometheus.NewTimer(s.metrics.SweepDuration.WithLabelValues(name))
	defer timer.ObserveDuration()

	defer func() {
		if r := recover(); r != nil {
			s.metrics.SweepErrors.WithLabelValues(name).Inc()
			s.logger.Error(fmt.Errorf("panic: %v", r), "scheduler task panicked", "task", name)
		}
	}()

	if err := task(ctx); err != nil {
		s.metrics.SweepErrors.WithLabelValues(name).Inc()
		s.logger.Error(err, "scheduler task failed", "task", name)
	}
}

// dispatchSweep finds paid, future-dated, assignable jobs that are either
// never-alerted or stale-alerted and runs a dispatch round for each. The
// dispatcher's own redispatch window keeps this idempotent between sweeps.
func (s *Scheduler) dispatchSweep(ctx context.Context) error {
	now := time.Now()
	jobs, err := s.jobs.ListDispatchable(ctx, now.Add(-s.cfg.RealertThreshold), now)
	if err != nil {
		return err
	}

	for _, job := range jobs {
		if _, err := s.dispatchSvc.Dispatch(ctx, job.ID); err != nil {
			if code, ok := apperrors.CodeOf(err); ok && code == apperrors.ErrNotEligible {
				// Normal: another trigger beat the sweep to it.
				continue
			}
			s.logger.Error(err, "dispatch sweep failed for job", "job_id", job.ID.String())
		}
	}
	return nil
}

// expireAlerts moves every sent alert past its deadline to expired.
func (s *Scheduler) expireAlerts(ctx context.Context) error {
	count, err := s.alerts.ExpireStale(ctx, time.Now())
	if err != nil {
		return err
	}
	if count > 0 {
		s.logger.Info("expired stale alerts", "count", count)
	}
	return nil
}

// expireAssignments handles jobs whose assignment window lapsed: stale
// alerted jobs get another round; never-alerted jobs are closed out with a
// customer notice.
func (s *Scheduler) expireAssignments(ctx context.Context) error {
	jobs, err := s.jobs.ListAssignmentExpired(ctx, time.Now())
	if err != nil {
		return err
	}

	for _, job := range jobs {
		if job.AssignmentStatus == model.AssignmentStatusAlerted {
			if err := s.jobs.ResetUnassigned(ctx, job.ID, time.Now().Add(s.cfg.NoMatchExtension)); err != nil {
				s.logger.Error(err, "failed to reset expired job", "job_id", job.ID.String())
				continue
			}
			if _, err := s.dispatchSvc.Dispatch(ctx, job.ID); err != nil {
				if code, ok := apperrors.CodeOf(err); ok && code == apperrors.ErrNotEligible {
					continue
				}
				s.logger.Error(err, "failed to redispatch expired job", "job_id", job.ID.String())
			}
			continue
		}

		if err := s.jobs.MarkExpired(ctx, job.ID); err != nil {
			s.logger.Error(err, "failed to expire job", "job_id", job.ID.String())
			continue
		}
		if job.CustomerID != nil {
			s.notifSvc.Notify(ctx, notification.JobExpired(*job.CustomerID, job.ID))
		}
		s.emitter.Emit(ctx, event.TypeJobExpired, map[string]interface{}{"job_id": job.ID})
		s.logger.Info("job expired without alerts", "job_id", job.ID.String())
	}
	return nil
}

// purgeUnpaid deletes bookings that never completed their deposit within
// the grace period. This is the engine's only hard-delete path; the
// cancellation notice goes out before the row disappears.
func (s *Scheduler) purgeUnpaid(ctx context.Context) error {
	cutoff := time.Now().Add(-s.cfg.UnpaidGracePeriod)
	jobs, err := s.jobs.ListUnpaidCreatedBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	for _, job := range jobs {
		if job.CustomerID != nil {
			s.notifSvc.Notify(ctx, notification.BookingCancelled(*job.CustomerID, job.ID))
		}
		if err := s.emailSvc.SendBookingCancelled(ctx, job); err != nil {
			s.metrics.EmailFailures.WithLabelValues("booking_cancelled").Inc()
			s.logger.Error(err, "failed to send cancellation email", "job_id", job.ID.String())
		}

		if err := s.jobs.Delete(ctx, job.ID); err != nil {
			s.logger.Error(err, "failed to purge unpaid job", "job_id", job.ID.String())
			continue
		}
		s.emitter.Emit(ctx, event.TypeJobPurged, map[string]interface{}{"job_id": job.ID})
		s.logger.Info("purged unpaid booking", "job_id", job.ID.String())
	}
	return nil
}

// longDistanceIntake routes long-haul jobs to the human coordination team.
// The processed-flag compare-and-swap guarantees the notices fire exactly
// once even if two scheduler instances sweep concurrently.
func (s *Scheduler) longDistanceIntake(ctx context.Context) error {
	jobs, err := s.jobs.ListUnprocessedLongDistance(ctx)
	if err != nil {
		return err
	}

	for _, job := range jobs {
		claimed, err := s.jobs.MarkLongDistanceProcessed(ctx, job.ID)
		if err != nil {
			s.logger.Error(err, "failed to mark long-distance job", "job_id", job.ID.String())
			continue
		}
		if !claimed {
			continue
		}

		if job.CustomerID != nil {
			s.notifSvc.Notify(ctx, notification.LongDistanceReceived(*job.CustomerID, job.ID))
		}
		s.notifSvc.Notify(ctx, notification.LongDistanceIntake(job))

		if err := s.emailSvc.SendLongDistanceConfirmation(ctx, job); err != nil {
			s.metrics.EmailFailures.WithLabelValues("long_distance_confirmation").Inc()
			s.logger.Error(err, "failed to send long-distance confirmation", "job_id", job.ID.String())
		}
		if err := s.emailSvc.SendLongDistanceIntake(ctx, job); err != nil {
			s.metrics.EmailFailures.WithLabelValues("long_distance_intake").Inc()
			s.logger.Error(err, "failed to send long-distance intake email", "job_id", job.ID.String())
		}
		s.logger.Info("long-distance job routed to coordination team", "job_id", job.ID.String())
	}
	return nil
}
