package assignment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/movermatch/marketplace-api/internal/email"
	"github.com/movermatch/marketplace-api/internal/model"
	"github.com/movermatch/marketplace-api/internal/repository"
	"github.com/movermatch/marketplace-api/internal/service/event"
	"github.com/movermatch/marketplace-api/internal/service/notification"
	apperrors "github.com/movermatch/marketplace-api/pkg/errors"
	"github.com/movermatch/marketplace-api/pkg/logger"
	"github.com/movermatch/marketplace-api/pkg/metrics"
)

// Service resolves mover responses to alerts, arbitrates the claim race,
// handles completion and the operator's direct-assign override.
type Service struct {
	jobs     repository.JobRepository
	alerts   repository.AlertRepository
	movers   repository.MoverRepository
	notifSvc *notification.Service
	emailSvc email.Service
	emitter  event.Emitter
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewService(
	jobs repository.JobRepository,
	alerts repository.AlertRepository,
	movers repository.MoverRepository,
	notifSvc *notification.Service,
	emailSvc email.Service,
	emitter event.Emitter,
	logger *logger.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		jobs:     jobs,
		alerts:   alerts,
		movers:   movers,
		notifSvc: notifSvc,
		emailSvc: emailSvc,
		emitter:  emitter,
		logger:   logger,
		metrics:  m,
	}
}

// Respond processes a mover's reply to an alert. Declines record the payload
// and stop. Accepts enter the claim race: the job-row compare-and-swap in
// AssignMover decides the winner; everyone else gets AlreadyAssigned.
func (s *Service) Respond(ctx context.Context, alertID uuid.UUID, resp *model.AlertResponse) (*model.Alert, error) {
	alert, err := s.alerts.Get(ctx, alertID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("alert", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load alert: %w", err)
	}

	if alert.Status != model.AlertStatusSent {
		return nil, apperrors.AlreadyResolved()
	}

	now := time.Now()
	if !resp.Interested {
		return s.decline(ctx, alert, resp, now)
	}
	return s.accept(ctx, alert, resp, now)
}

func (s *Service) decline(ctx context.Context, alert *model.Alert, resp *model.AlertResponse, now time.Time) (*model.Alert, error) {
	ok, err := s.alerts.RecordResponse(ctx, alert.ID, model.AlertStatusNotInterested, resp, now)
	if err != nil {
		return nil, fmt.Errorf("failed to record decline: %w", err)
	}
	if !ok {
		// Someone got here first (expiry sweep or a duplicate submit).
		return nil, apperrors.AlreadyResolved()
	}

	applyResponse(alert, model.AlertStatusNotInterested, resp, now)
	s.logger.Info("alert declined", "alert_id", alert.ID.String(), "job_id", alert.JobID.String())
	return alert, nil
}

func (s *Service) accept(ctx context.Context, alert *model.Alert, resp *model.AlertResponse, now time.Time) (*model.Alert, error) {
	// The job row is the arbiter, not the alert row: a contender whose
	// alert is still `sent` can have already lost to a sibling.
	won, err := s.jobs.AssignMover(ctx, alert.JobID, alert.MoverID, model.AssignmentTypeSystem, now)
	if err != nil {
		return nil, fmt.Errorf("failed to assign mover: %w", err)
	}
	if !won {
		s.metrics.ClaimsLost.Inc()
		// Close out the loser's alert so a retry precondition-fails fast.
		if _, err := s.alerts.RecordResponse(ctx, alert.ID, model.AlertStatusNotInterested, resp, now); err != nil {
			s.logger.Error(err, "failed to void losing alert", "alert_id", alert.ID.String())
		}
		return nil, apperrors.AlreadyAssigned()
	}

	if err := s.alerts.ClaimAndVoidSiblings(ctx, alert.ID, alert.JobID, resp, now); err != nil {
		return nil, fmt.Errorf("failed to claim alert: %w", err)
	}
	applyResponse(alert, model.AlertStatusClaimed, resp, now)

	s.metrics.ClaimsWon.Inc()
	s.notifyAssignment(ctx, alert)
	s.emitter.Emit(ctx, event.TypeJobAssigned, map[string]interface{}{
		"job_id":   alert.JobID,
		"mover_id": alert.MoverID,
		"alert_id": alert.ID,
	})
	s.logger.Info("job claimed", "job_id", alert.JobID.String(), "mover_id", alert.MoverID.String())

	return alert, nil
}

// notifyAssignment fires the in-app and email side effects of a won claim.
// Everything here is best-effort.
func (s *Service) notifyAssignment(ctx context.Context, alert *model.Alert) {
	job, err := s.jobs.Get(ctx, alert.JobID)
	if err != nil {
		s.logger.Error(err, "failed to reload job for assignment notices", "job_id", alert.JobID.String())
		return
	}
	mover, err := s.movers.Get(ctx, alert.MoverID)
	if err != nil {
		s.logger.Error(err, "failed to load mover for assignment notices", "mover_id", alert.MoverID.String())
		return
	}

	if job.CustomerID != nil {
		s.notifSvc.Notify(ctx, notification.JobAssignedCustomer(*job.CustomerID, job, mover.Name))
	}
	s.notifSvc.Notify(ctx, notification.JobAssignedMover(mover.ID, job))

	if err := s.emailSvc.SendJobClaimed(ctx, job, mover); err != nil {
		s.metrics.EmailFailures.WithLabelValues("job_claimed").Inc()
		s.logger.Error(err, "failed to send job claimed email", "job_id", job.ID.String())
	}
}

// Complete transitions a claimed alert and its job to completed and fires
// the completion notices to both parties.
func (s *Service) Complete(ctx context.Context, alertID uuid.UUID) (*model.Alert, error) {
	alert, err := s.alerts.Get(ctx, alertID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("alert", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load alert: %w", err)
	}

	ok, err := s.alerts.MarkCompleted(ctx, alert.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to complete alert: %w", err)
	}
	if !ok {
		return nil, apperrors.NotClaimed()
	}
	alert.Status = model.AlertStatusCompleted

	if err := s.jobs.MarkCompleted(ctx, alert.JobID); err != nil {
		return nil, fmt.Errorf("failed to complete job: %w", err)
	}

	s.notifyCompletion(ctx, alert)
	s.emitter.Emit(ctx, event.TypeJobCompleted, map[string]interface{}{
		"job_id":   alert.JobID,
		"mover_id": alert.MoverID,
	})
	s.logger.Info("job completed", "job_id", alert.JobID.String(), "mover_id", alert.MoverID.String())

	return alert, nil
}

func (s *Service) notifyCompletion(ctx context.Context, alert *model.Alert) {
	job, err := s.jobs.Get(ctx, alert.JobID)
	if err != nil {
		s.logger.Error(err, "failed to reload job for completion notices", "job_id", alert.JobID.String())
		return
	}
	mover, err := s.movers.Get(ctx, alert.MoverID)
	if err != nil {
		s.logger.Error(err, "failed to load mover for completion notices", "mover_id", alert.MoverID.String())
		return
	}

	if job.CustomerID != nil {
		s.notifSvc.Notify(ctx, notification.JobCompleted(*job.CustomerID, model.RecipientTypeCustomer, job.ID))
	}
	s.notifSvc.Notify(ctx, notification.JobCompleted(mover.ID, model.RecipientTypeMover, job.ID))

	subtotal := "To be determined"
	if job.QuoteSubtotal != nil {
		subtotal = fmt.Sprintf("$%.2f", *job.QuoteSubtotal)
	}
	summary := &email.CompletionSummary{
		CustomerName:   job.ContactName,
		CustomerEmail:  job.ContactEmail,
		MoverName:      mover.Name,
		MoverEmail:     mover.Email,
		PickupAddress:  job.PickupAddress,
		DropoffAddress: job.DropoffAddress,
		MoveDate:       job.MoveDate.Format("Mon, 02 Jan 2006"),
		Subtotal:       subtotal,
	}

	// The two completion emails fail independently.
	if err := s.emailSvc.SendCompletionToCustomer(ctx, summary); err != nil {
		s.metrics.EmailFailures.WithLabelValues("completion_customer").Inc()
		s.logger.Error(err, "failed to send customer completion email", "job_id", job.ID.String())
	}
	if err := s.emailSvc.SendCompletionToMover(ctx, summary); err != nil {
		s.metrics.EmailFailures.WithLabelValues("completion_mover").Inc()
		s.logger.Error(err, "failed to send mover completion email", "job_id", job.ID.String())
	}
}

// AdminAssign lets an operator bind a mover directly, bypassing matching
// and alerts. It rides the same compare-and-swap and produces the same side
// effects as a won claim: sibling alerts voided, both parties notified.
func (s *Service) AdminAssign(ctx context.Context, jobID, moverID uuid.UUID) error {
	mover, err := s.movers.Get(ctx, moverID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound("mover", err)
	}
	if err != nil {
		return fmt.Errorf("failed to load mover: %w", err)
	}

	won, err := s.jobs.AssignMover(ctx, jobID, moverID, model.AssignmentTypeManual, time.Now())
	if err != nil {
		return fmt.Errorf("failed to assign mover: %w", err)
	}
	if !won {
		return apperrors.AlreadyAssigned()
	}

	if _, err := s.alerts.VoidLiveForJob(ctx, jobID, nil); err != nil {
		s.logger.Error(err, "failed to void alerts after manual assignment", "job_id", jobID.String())
	}

	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		s.logger.Error(err, "failed to reload job after manual assignment", "job_id", jobID.String())
		return nil
	}

	if job.CustomerID != nil {
		s.notifSvc.Notify(ctx, notification.JobAssignedCustomer(*job.CustomerID, job, mover.Name))
	}
	s.notifSvc.Notify(ctx, notification.JobAssignedMover(mover.ID, job))

	if err := s.emailSvc.SendJobClaimed(ctx, job, mover); err != nil {
		s.metrics.EmailFailures.WithLabelValues("job_claimed").Inc()
		s.logger.Error(err, "failed to send job claimed email", "job_id", job.ID.String())
	}

	s.emitter.Emit(ctx, event.TypeJobAssigned, map[string]interface{}{
		"job_id":   jobID,
		"mover_id": moverID,
		"manual":   true,
	})
	s.logger.Info("job manually assigned", "job_id", jobID.String(), "mover_id", moverID.String())

	return nil
}

func applyResponse(alert *model.Alert, status model.AlertStatus, resp *model.AlertResponse, at time.Time) {
	alert.Status = status
	alert.Interested = &resp.Interested
	alert.Message = resp.Message
	alert.EstimatedPrice = resp.EstimatedPrice
	alert.EstimatedTime = resp.EstimatedTime
	alert.RespondedAt = &at
}
