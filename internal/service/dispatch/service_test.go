package dispatch

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movermatch/marketplace-api/internal/config"
	"github.com/movermatch/marketplace-api/internal/email"
	"github.com/movermatch/marketplace-api/internal/model"
	"github.com/movermatch/marketplace-api/internal/repository/repositorytest"
	"github.com/movermatch/marketplace-api/internal/service/matcher"
	"github.com/movermatch/marketplace-api/internal/service/notification"
	apperrors "github.com/movermatch/marketplace-api/pkg/errors"
	"github.com/movermatch/marketplace-api/pkg/logger"
	"github.com/movermatch/marketplace-api/pkg/metrics"
)

// Registered once; promauto panics on duplicate collectors.
var (
	testMetrics     *metrics.Metrics
	testMetricsOnce sync.Once
)

func engineMetrics() *metrics.Metrics {
	testMetricsOnce.Do(func() {
		testMetrics = metrics.New("dispatch_test")
	})
	return testMetrics
}

func testLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
}

func testEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		CandidateLimit:    20,
		AlertTTL:          24 * time.Hour,
		RedispatchWindow:  30 * time.Minute,
		RealertThreshold:  2 * time.Hour,
		NoMatchExtension:  24 * time.Hour,
		UnpaidGracePeriod: 30 * time.Minute,
		MatcherCacheTTL:   time.Minute,
	}
}

type fakeEmail struct {
	email.Service
	mu       sync.Mutex
	alertsTo []uuid.UUID
}

func (f *fakeEmail) SendJobAlert(_ context.Context, mover *model.Mover, _ *model.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alertsTo = append(f.alertsTo, mover.ID)
	return nil
}

type recordingEmitter struct {
	types []string
}

func (r *recordingEmitter) Emit(_ context.Context, eventType string, _ interface{}) {
	r.types = append(r.types, eventType)
}

func paidJob() *model.Job {
	customerID := uuid.New()
	return &model.Job{
		ID:               uuid.New(),
		CustomerID:       &customerID,
		ServiceType:      model.ServiceTypeMoving,
		PickupPostal:     "M5V1A1",
		DropoffPostal:    "M4B2J8",
		MoveDate:         time.Now().Add(72 * time.Hour),
		DepositPaid:      true,
		PaymentStatus:    model.PaymentStatusDepositPaid,
		Status:           model.JobStatusPendingAssignment,
		AssignmentStatus: model.AssignmentStatusUnassigned,
		ExpiresAt:        time.Now().Add(48 * time.Hour),
	}
}

func newTestService(
	jobs *repositorytest.JobRepo,
	alerts *repositorytest.AlertRepo,
	movers *repositorytest.MoverRepo,
	notifications *repositorytest.NotificationRepo,
	emailSvc email.Service,
	emitter *recordingEmitter,
) *Service {
	log := testLogger()
	cfg := testEngineConfig()
	return NewService(
		jobs,
		alerts,
		matcher.NewService(movers, cfg.CandidateLimit, cfg.MatcherCacheTTL),
		notification.NewService(notifications, log),
		emailSvc,
		emitter,
		log,
		engineMetrics(),
		cfg,
	)
}

func TestDispatchAlertsAllCandidates(t *testing.T) {
	job := paidJob()
	moverA := &model.Mover{ID: uuid.New(), Name: "Ace Moving", Email: "ace@example.com"}
	moverB := &model.Mover{ID: uuid.New(), Name: "Budget Crew", Email: "budget@example.com"}

	var batchAlerts []*model.Alert
	var batchNotifications []*model.Notification
	markedAlerted := false

	jobs := &repositorytest.JobRepo{
		GetFn: func(_ context.Context, id uuid.UUID) (*model.Job, error) {
			require.Equal(t, job.ID, id)
			return job, nil
		},
		MarkAlertedFn: func(_ context.Context, id uuid.UUID, _ time.Time) error {
			markedAlerted = true
			return nil
		},
	}
	alerts := &repositorytest.AlertRepo{
		CreateDispatchBatchFn: func(_ context.Context, a []*model.Alert, n []*model.Notification) error {
			batchAlerts = a
			batchNotifications = n
			return nil
		},
	}
	movers := &repositorytest.MoverRepo{
		FindEligibleFn: func(context.Context, string, string, time.Time, int) ([]*model.Mover, error) {
			return []*model.Mover{moverA, moverB}, nil
		},
	}
	notifications := &repositorytest.NotificationRepo{}
	emails := &fakeEmail{}
	emitter := &recordingEmitter{}

	svc := newTestService(jobs, alerts, movers, notifications, emails, emitter)

	result, err := svc.Dispatch(context.Background(), job.ID)
	require.NoError(t, err)
	assert.False(t, result.NoCandidates)
	assert.Equal(t, []uuid.UUID{moverA.ID, moverB.ID}, result.AlertedMovers)

	require.Len(t, batchAlerts, 2)
	require.Len(t, batchNotifications, 2)
	for i, alert := range batchAlerts {
		assert.Equal(t, job.ID, alert.JobID)
		assert.Equal(t, model.AlertStatusSent, alert.Status)
		assert.WithinDuration(t, time.Now().Add(24*time.Hour), alert.ExpiresAt, time.Minute)
		assert.Equal(t, alert.MoverID, batchNotifications[i].RecipientID)
		assert.Equal(t, model.NotificationTypeJobAlert, batchNotifications[i].Type)
	}

	assert.True(t, markedAlerted)
	assert.Equal(t, []uuid.UUID{moverA.ID, moverB.ID}, emails.alertsTo)
	assert.Equal(t, []string{"job.dispatched"}, emitter.types)
}

func TestDispatchRejectsUnpaidDeposit(t *testing.T) {
	job := paidJob()
	job.DepositPaid = false

	jobs := &repositorytest.JobRepo{
		GetFn: func(context.Context, uuid.UUID) (*model.Job, error) { return job, nil },
	}

	svc := newTestService(jobs, &repositorytest.AlertRepo{}, &repositorytest.MoverRepo{},
		&repositorytest.NotificationRepo{}, &fakeEmail{}, &recordingEmitter{})

	_, err := svc.Dispatch(context.Background(), job.ID)
	require.Error(t, err)
	code, ok := apperrors.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrNotEligible, code)
}

func TestDispatchRejectsAssignedJob(t *testing.T) {
	job := paidJob()
	moverID := uuid.New()
	job.MoverID = &moverID
	job.AssignmentStatus = model.AssignmentStatusAssigned

	jobs := &repositorytest.JobRepo{
		GetFn: func(context.Context, uuid.UUID) (*model.Job, error) { return job, nil },
	}

	svc := newTestService(jobs, &repositorytest.AlertRepo{}, &repositorytest.MoverRepo{},
		&repositorytest.NotificationRepo{}, &fakeEmail{}, &recordingEmitter{})

	_, err := svc.Dispatch(context.Background(), job.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}

func TestDispatchDedupedWithinWindow(t *testing.T) {
	job := paidJob()

	jobs := &repositorytest.JobRepo{
		GetFn: func(context.Context, uuid.UUID) (*model.Job, error) { return job, nil },
	}
	alerts := &repositorytest.AlertRepo{
		CountCreatedSinceFn: func(_ context.Context, _ uuid.UUID, since time.Time) (int, error) {
			assert.WithinDuration(t, time.Now().Add(-30*time.Minute), since, time.Minute)
			return 3, nil
		},
	}

	svc := newTestService(jobs, alerts, &repositorytest.MoverRepo{},
		&repositorytest.NotificationRepo{}, &fakeEmail{}, &recordingEmitter{})

	_, err := svc.Dispatch(context.Background(), job.ID)
	require.Error(t, err)
	code, ok := apperrors.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrNotEligible, code)
}

func TestDispatchNoCandidates(t *testing.T) {
	job := paidJob()

	var resetExpiry time.Time
	jobs := &repositorytest.JobRepo{
		GetFn: func(context.Context, uuid.UUID) (*model.Job, error) { return job, nil },
		ResetUnassignedFn: func(_ context.Context, _ uuid.UUID, expiresAt time.Time) error {
			resetExpiry = expiresAt
			return nil
		},
	}
	notifications := &repositorytest.NotificationRepo{}

	svc := newTestService(jobs, &repositorytest.AlertRepo{}, &repositorytest.MoverRepo{},
		notifications, &fakeEmail{}, &recordingEmitter{})

	result, err := svc.Dispatch(context.Background(), job.ID)
	require.NoError(t, err)
	assert.True(t, result.NoCandidates)
	assert.Empty(t, result.AlertedMovers)

	assert.WithinDuration(t, time.Now().Add(24*time.Hour), resetExpiry, time.Minute)

	require.Len(t, notifications.Created, 1)
	assert.Equal(t, *job.CustomerID, notifications.Created[0].RecipientID)
	assert.Equal(t, model.NotificationTypeSystem, notifications.Created[0].Type)
}

func TestDispatchNoCandidatesGuestBooking(t *testing.T) {
	job := paidJob()
	job.CustomerID = nil
	job.ContactEmail = "guest@example.com"

	jobs := &repositorytest.JobRepo{
		GetFn: func(context.Context, uuid.UUID) (*model.Job, error) { return job, nil },
	}
	notifications := &repositorytest.NotificationRepo{}

	svc := newTestService(jobs, &repositorytest.AlertRepo{}, &repositorytest.MoverRepo{},
		notifications, &fakeEmail{}, &recordingEmitter{})

	result, err := svc.Dispatch(context.Background(), job.ID)
	require.NoError(t, err)
	assert.True(t, result.NoCandidates)
	assert.Empty(t, notifications.Created, "guest bookings have no in-app inbox")
}

func TestDispatchUnknownJob(t *testing.T) {
	svc := newTestService(&repositorytest.JobRepo{}, &repositorytest.AlertRepo{},
		&repositorytest.MoverRepo{}, &repositorytest.NotificationRepo{}, &fakeEmail{}, &recordingEmitter{})

	_, err := svc.Dispatch(context.Background(), uuid.New())
	require.Error(t, err)
	code, ok := apperrors.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrNotFound, code)
}
