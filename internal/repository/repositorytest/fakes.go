// Package repositorytest provides function-field fakes of the repository
// interfaces for service tests. Unset functions return zero values so a
// test only wires the calls it cares about.
package repositorytest

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/movermatch/marketplace-api/internal/model"
)

type JobRepo struct {
	CreateFn                    func(ctx context.Context, job *model.Job) error
	GetFn                       func(ctx context.Context, id uuid.UUID) (*model.Job, error)
	DeleteFn                    func(ctx context.Context, id uuid.UUID) error
	MarkAlertedFn               func(ctx context.Context, id uuid.UUID, at time.Time) error
	ResetUnassignedFn           func(ctx context.Context, id uuid.UUID, expiresAt time.Time) error
	AssignMoverFn               func(ctx context.Context, jobID, moverID uuid.UUID, typ model.AssignmentType, at time.Time) (bool, error)
	MarkCompletedFn             func(ctx context.Context, id uuid.UUID) error
	MarkExpiredFn               func(ctx context.Context, id uuid.UUID) error
	MarkLongDistanceProcessedFn func(ctx context.Context, id uuid.UUID) (bool, error)
	ListDispatchableFn          func(ctx context.Context, realertBefore, now time.Time) ([]*model.Job, error)
	ListAssignmentExpiredFn     func(ctx context.Context, now time.Time) ([]*model.Job, error)
	ListUnpaidCreatedBeforeFn   func(ctx context.Context, cutoff time.Time) ([]*model.Job, error)
	ListUnprocessedLongDistFn   func(ctx context.Context) ([]*model.Job, error)
}

func (f *JobRepo) Create(ctx context.Context, job *model.Job) error {
	if f.CreateFn != nil {
		return f.CreateFn(ctx, job)
	}
	return nil
}

func (f *JobRepo) Get(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	if f.GetFn != nil {
		return f.GetFn(ctx, id)
	}
	return nil, sql.ErrNoRows
}

func (f *JobRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if f.DeleteFn != nil {
		return f.DeleteFn(ctx, id)
	}
	return nil
}

func (f *JobRepo) MarkAlerted(ctx context.Context, id uuid.UUID, at time.Time) error {
	if f.MarkAlertedFn != nil {
		return f.MarkAlertedFn(ctx, id, at)
	}
	return nil
}

func (f *JobRepo) ResetUnassigned(ctx context.Context, id uuid.UUID, expiresAt time.Time) error {
	if f.ResetUnassignedFn != nil {
		return f.ResetUnassignedFn(ctx, id, expiresAt)
	}
	return nil
}

func (f *JobRepo) AssignMover(ctx context.Context, jobID, moverID uuid.UUID, typ model.AssignmentType, at time.Time) (bool, error) {
	if f.AssignMoverFn != nil {
		return f.AssignMoverFn(ctx, jobID, moverID, typ, at)
	}
	return true, nil
}

func (f *JobRepo) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	if f.MarkCompletedFn != nil {
		return f.MarkCompletedFn(ctx, id)
	}
	return nil
}

func (f *JobRepo) MarkExpired(ctx context.Context, id uuid.UUID) error {
	if f.MarkExpiredFn != nil {
		return f.MarkExpiredFn(ctx, id)
	}
	return nil
}

func (f *JobRepo) MarkLongDistanceProcessed(ctx context.Context, id uuid.UUID) (bool, error) {
	if f.MarkLongDistanceProcessedFn != nil {
		return f.MarkLongDistanceProcessedFn(ctx, id)
	}
	return true, nil
}

func (f *JobRepo) ListDispatchable(ctx context.Context, realertBefore, now time.Time) ([]*model.Job, error) {
	if f.ListDispatchableFn != nil {
		return f.ListDispatchableFn(ctx, realertBefore, now)
	}
	return nil, nil
}

func (f *JobRepo) ListAssignmentExpired(ctx context.Context, now time.Time) ([]*model.Job, error) {
	if f.ListAssignmentExpiredFn != nil {
		return f.ListAssignmentExpiredFn(ctx, now)
	}
	return nil, nil
}

func (f *JobRepo) ListUnpaidCreatedBefore(ctx context.Context, cutoff time.Time) ([]*model.Job, error) {
	if f.ListUnpaidCreatedBeforeFn != nil {
		return f.ListUnpaidCreatedBeforeFn(ctx, cutoff)
	}
	return nil, nil
}

func (f *JobRepo) ListUnprocessedLongDistance(ctx context.Context) ([]*model.Job, error) {
	if f.ListUnprocessedLongDistFn != nil {
		return f.ListUnprocessedLongDistFn(ctx)
	}
	return nil, nil
}

type AlertRepo struct {
	GetFn                  func(ctx context.Context, id uuid.UUID) (*model.Alert, error)
	ListForJobFn           func(ctx context.Context, jobID uuid.UUID) ([]*model.Alert, error)
	CreateDispatchBatchFn  func(ctx context.Context, alerts []*model.Alert, notifications []*model.Notification) error
	CountCreatedSinceFn    func(ctx context.Context, jobID uuid.UUID, since time.Time) (int, error)
	RecordResponseFn       func(ctx context.Context, id uuid.UUID, to model.AlertStatus, resp *model.AlertResponse, at time.Time) (bool, error)
	ClaimAndVoidSiblingsFn func(ctx context.Context, id, jobID uuid.UUID, resp *model.AlertResponse, at time.Time) error
	VoidLiveForJobFn       func(ctx context.Context, jobID uuid.UUID, except *uuid.UUID) (int64, error)
	MarkCompletedFn        func(ctx context.Context, id uuid.UUID) (bool, error)
	ExpireStaleFn          func(ctx context.Context, now time.Time) (int64, error)
}

func (f *AlertRepo) Get(ctx context.Context, id uuid.UUID) (*model.Alert, error) {
	if f.GetFn != nil {
		return f.GetFn(ctx, id)
	}
	return nil, sql.ErrNoRows
}

func (f *AlertRepo) ListForJob(ctx context.Context, jobID uuid.UUID) ([]*model.Alert, error) {
	if f.ListForJobFn != nil {
		return f.ListForJobFn(ctx, jobID)
	}
	return nil, nil
}

func (f *AlertRepo) CreateDispatchBatch(ctx context.Context, alerts []*model.Alert, notifications []*model.Notification) error {
	if f.CreateDispatchBatchFn != nil {
		return f.CreateDispatchBatchFn(ctx, alerts, notifications)
	}
	return nil
}

func (f *AlertRepo) CountCreatedSince(ctx context.Context, jobID uuid.UUID, since time.Time) (int, error) {
	if f.CountCreatedSinceFn != nil {
		return f.CountCreatedSinceFn(ctx, jobID, since)
	}
	return 0, nil
}

func (f *AlertRepo) RecordResponse(ctx context.Context, id uuid.UUID, to model.AlertStatus, resp *model.AlertResponse, at time.Time) (bool, error) {
	if f.RecordResponseFn != nil {
		return f.RecordResponseFn(ctx, id, to, resp, at)
	}
	return true, nil
}

func (f *AlertRepo) ClaimAndVoidSiblings(ctx context.Context, id, jobID uuid.UUID, resp *model.AlertResponse, at time.Time) error {
	if f.ClaimAndVoidSiblingsFn != nil {
		return f.ClaimAndVoidSiblingsFn(ctx, id, jobID, resp, at)
	}
	return nil
}

func (f *AlertRepo) VoidLiveForJob(ctx context.Context, jobID uuid.UUID, except *uuid.UUID) (int64, error) {
	if f.VoidLiveForJobFn != nil {
		return f.VoidLiveForJobFn(ctx, jobID, except)
	}
	return 0, nil
}

func (f *AlertRepo) MarkCompleted(ctx context.Context, id uuid.UUID) (bool, error) {
	if f.MarkCompletedFn != nil {
		return f.MarkCompletedFn(ctx, id)
	}
	return true, nil
}

func (f *AlertRepo) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	if f.ExpireStaleFn != nil {
		return f.ExpireStaleFn(ctx, now)
	}
	return 0, nil
}

type MoverRepo struct {
	GetFn          func(ctx context.Context, id uuid.UUID) (*model.Mover, error)
	FindEligibleFn func(ctx context.Context, pickupPostal, dropoffPostal string, now time.Time, limit int) ([]*model.Mover, error)
}

func (f *MoverRepo) Get(ctx context.Context, id uuid.UUID) (*model.Mover, error) {
	if f.GetFn != nil {
		return f.GetFn(ctx, id)
	}
	return nil, sql.ErrNoRows
}

func (f *MoverRepo) FindEligible(ctx context.Context, pickupPostal, dropoffPostal string, now time.Time, limit int) ([]*model.Mover, error) {
	if f.FindEligibleFn != nil {
		return f.FindEligibleFn(ctx, pickupPostal, dropoffPostal, now, limit)
	}
	return nil, nil
}

// NotificationRepo records everything created so tests can assert on the
// notifications an operation produced.
type NotificationRepo struct {
	Created []*model.Notification

	CreateFn          func(ctx context.Context, n *model.Notification) error
	GetFn             func(ctx context.Context, id uuid.UUID) (*model.Notification, error)
	ListByRecipientFn func(ctx context.Context, filters *model.NotificationFilters) ([]*model.Notification, error)
	MarkReadFn        func(ctx context.Context, id, recipientID uuid.UUID) error
	MarkAllReadFn     func(ctx context.Context, recipientID uuid.UUID) (int64, error)
	UnreadCountFn     func(ctx context.Context, recipientID uuid.UUID) (int, error)
	DeleteFn          func(ctx context.Context, id, recipientID uuid.UUID) error
}

func (f *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	if f.CreateFn != nil {
		return f.CreateFn(ctx, n)
	}
	f.Created = append(f.Created, n)
	return nil
}

func (f *NotificationRepo) Get(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	if f.GetFn != nil {
		return f.GetFn(ctx, id)
	}
	return nil, sql.ErrNoRows
}

func (f *NotificationRepo) ListByRecipient(ctx context.Context, filters *model.NotificationFilters) ([]*model.Notification, error) {
	if f.ListByRecipientFn != nil {
		return f.ListByRecipientFn(ctx, filters)
	}
	return nil, nil
}

func (f *NotificationRepo) MarkRead(ctx context.Context, id, recipientID uuid.UUID) error {
	if f.MarkReadFn != nil {
		return f.MarkReadFn(ctx, id, recipientID)
	}
	return nil
}

func (f *NotificationRepo) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	if f.MarkAllReadFn != nil {
		return f.MarkAllReadFn(ctx, recipientID)
	}
	return 0, nil
}

func (f *NotificationRepo) UnreadCount(ctx context.Context, recipientID uuid.UUID) (int, error) {
	if f.UnreadCountFn != nil {
		return f.UnreadCountFn(ctx, recipientID)
	}
	return 0, nil
}

func (f *NotificationRepo) Delete(ctx context.Context, id, recipientID uuid.UUID) error {
	if f.DeleteFn != nil {
		return f.DeleteFn(ctx, id, recipientID)
	}
	return nil
}
