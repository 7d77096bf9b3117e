package scheduler

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
	"github.com/movermatch/marketplace-api/internal/service/dispatch"
	"github.com/movermatch/marketplace-api/internal/service/matcher"
	"github.com/movermatch/marketplace-api/internal/service/notification"
	"github.com/movermatch/marketplace-api/pkg/logger"
	"github.com/movermatch/marketplace-api/pkg/metrics"
)

var (
	testMetrics     *metrics.Metrics
	testMetricsOnce sync.Once
)

func engineMetrics() *metrics.Metrics {
	testMetricsOnce.Do(func() {
		testMetrics = metrics.New("scheduler_test")
	})
	return testMetrics
}

func testLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
}

type fakeEmail struct {
	email.Service
	jobAlerts int
	cancelled int
	ldConfirm int
	ldIntake  int
}

func (f *fakeEmail) SendJobAlert(context.Context, *model.Mover, *model.Job) error {
	f.jobAlerts++
	return nil
}

func (f *fakeEmail) SendBookingCancelled(context.Context, *model.Job) error {
	f.cancelled++
	return nil
}

func (f *fakeEmail) SendLongDistanceConfirmation(context.Context, *model.Job) error {
	f.ldConfirm++
	return nil
}

func (f *fakeEmail) SendLongDistanceIntake(context.Context, *model.Job) error {
	f.ldIntake++
	return nil
}

type recordingEmitter struct {
	types []string
}

func (r *recordingEmitter) Emit(_ context.Context, eventType string, _ interface{}) {
	r.types = append(r.types, eventType)
}

type fixture struct {
	jobs          *repositorytest.JobRepo
	alerts        *repositorytest.AlertRepo
	movers        *repositorytest.MoverRepo
	notifications *repositorytest.NotificationRepo
	emails        *fakeEmail
	emitter       *recordingEmitter
	sched         *Scheduler
}

func newFixture() *fixture {
	f := &fixture{
		jobs:          &repositorytest.JobRepo{},
		alerts:        &repositorytest.AlertRepo{},
		movers:        &repositorytest.MoverRepo{},
		notifications: &repositorytest.NotificationRepo{},
		emails:        &fakeEmail{},
		emitter:       &recordingEmitter{},
	}
	log := testLogger()
	engineCfg := config.EngineConfig{
		CandidateLimit:    20,
		AlertTTL:          24 * time.Hour,
		RedispatchWindow:  30 * time.Minute,
		RealertThreshold:  2 * time.Hour,
		NoMatchExtension:  24 * time.Hour,
		UnpaidGracePeriod: 30 * time.Minute,
		MatcherCacheTTL:   time.Minute,
	}
	notifSvc := notification.NewService(f.notifications, log)
	dispatchSvc := dispatch.NewService(
		f.jobs, f.alerts,
		matcher.NewService(f.movers, engineCfg.CandidateLimit, engineCfg.MatcherCacheTTL),
		notifSvc, f.emails, f.emitter, log, engineMetrics(), engineCfg,
	)
	f.sched = New(
		f.jobs, f.alerts, dispatchSvc, notifSvc, f.emails,
		f.emitter, log, engineMetrics(), engineCfg,
		config.SchedulerConfig{DispatchInterval: 2 * time.Minute, CleanupInterval: 15 * time.Minute},
	)
	return f
}

func unpaidJob() *model.Job {
	customerID := uuid.New()
	return &model.Job{
		ID:            uuid.New(),
		CustomerID:    &customerID,
		ContactEmail:  "dana@example.com",
		ServiceType:   model.ServiceTypeMoving,
		DepositPaid:   false,
		PaymentStatus: model.PaymentStatusPending,
		CreatedAt:     time.Now().Add(-2 * time.Hour),
	}
}

func TestPurgeUnpaid(t *testing.T) {
	f := newFixture()
	job := unpaidJob()

	var deleted []uuid.UUID
	f.jobs.ListUnpaidCreatedBeforeFn = func(_ context.Context, cutoff time.Time) ([]*model.Job, error) {
		assert.WithinDuration(t, time.Now().Add(-30*time.Minute), cutoff, time.Minute)
		return []*model.Job{job}, nil
	}
	f.jobs.DeleteFn = func(_ context.Context, id uuid.UUID) error {
		deleted = append(deleted, id)
		return nil
	}

	require.NoError(t, f.sched.purgeUnpaid(context.Background()))

	assert.Equal(t, []uuid.UUID{job.ID}, deleted)
	assert.Equal(t, 1, f.emails.cancelled)
	assert.Equal(t, []string{"job.purged"}, f.emitter.types)
	require.Len(t, f.notifications.Created, 1)
	assert.Equal(t, *job.CustomerID, f.notifications.Created[0].RecipientID)
}

func TestPurgeUnpaidDeleteFailureSkipsEvent(t *testing.T) {
	f := newFixture()
	job := unpaidJob()

	f.jobs.ListUnpaidCreatedBeforeFn = func(context.Context, time.Time) ([]*model.Job, error) {
		return []*model.Job{job}, nil
	}
	f.jobs.DeleteFn = func(context.Context, uuid.UUID) error {
		return assert.AnError
	}

	require.NoError(t, f.sched.purgeUnpaid(context.Background()))
	assert.Empty(t, f.emitter.types, "no purge event when the delete failed")
}

func TestLongDistanceIntake(t *testing.T) {
	f := newFixture()
	customerID := uuid.New()
	job := &model.Job{
		ID:           uuid.New(),
		CustomerID:   &customerID,
		LongDistance: true,
	}

	f.jobs.ListUnprocessedLongDistFn = func(context.Context) ([]*model.Job, error) {
		return []*model.Job{job}, nil
	}

	require.NoError(t, f.sched.longDistanceIntake(context.Background()))

	assert.Equal(t, 1, f.emails.ldConfirm)
	assert.Equal(t, 1, f.emails.ldIntake)

	// One notice for the customer, one for the coordination team.
	require.Len(t, f.notifications.Created, 2)
	assert.Equal(t, customerID, f.notifications.Created[0].RecipientID)
	assert.Equal(t, notification.TeamRecipient, f.notifications.Created[1].RecipientID)
}

func TestLongDistanceIntakeAlreadyClaimed(t *testing.T) {
	f := newFixture()
	job := &model.Job{ID: uuid.New(), LongDistance: true}

	f.jobs.ListUnprocessedLongDistFn = func(context.Context) ([]*model.Job, error) {
		return []*model.Job{job}, nil
	}
	f.jobs.MarkLongDistanceProcessedFn = func(context.Context, uuid.UUID) (bool, error) {
		return false, nil
	}

	require.NoError(t, f.sched.longDistanceIntake(context.Background()))

	assert.Zero(t, f.emails.ldConfirm, "a lost flag race must not re-send notices")
	assert.Zero(t, f.emails.ldIntake)
	assert.Empty(t, f.notifications.Created)
}

func TestExpireAssignmentsNeverAlerted(t *testing.T) {
	f := newFixture()
	customerID := uuid.New()
	job := &model.Job{
		ID:               uuid.New(),
		CustomerID:       &customerID,
		AssignmentStatus: model.AssignmentStatusUnassigned,
		ExpiresAt:        time.Now().Add(-time.Hour),
	}

	expired := false
	f.jobs.ListAssignmentExpiredFn = func(context.Context, time.Time) ([]*model.Job, error) {
		return []*model.Job{job}, nil
	}
	f.jobs.MarkExpiredFn = func(context.Context, uuid.UUID) error {
		expired = true
		return nil
	}

	require.NoError(t, f.sched.expireAssignments(context.Background()))

	assert.True(t, expired)
	assert.Equal(t, []string{"job.expired"}, f.emitter.types)
	require.Len(t, f.notifications.Created, 1)
	assert.Equal(t, customerID, f.notifications.Created[0].RecipientID)
}

func TestExpireAssignmentsAlertedGetsAnotherRound(t *testing.T) {
	f := newFixture()
	lastAlert := time.Now().Add(-3 * time.Hour)
	job := &model.Job{
		ID:               uuid.New(),
		ServiceType:      model.ServiceTypeMoving,
		DepositPaid:      true,
		Status:           model.JobStatusPendingAssignment,
		AssignmentStatus: model.AssignmentStatusAlerted,
		LastAlertAt:      &lastAlert,
		MoveDate:         time.Now().Add(48 * time.Hour),
		ExpiresAt:        time.Now().Add(-time.Hour),
	}

	reset := 0
	f.jobs.ListAssignmentExpiredFn = func(context.Context, time.Time) ([]*model.Job, error) {
		return []*model.Job{job}, nil
	}
	f.jobs.ResetUnassignedFn = func(_ context.Context, _ uuid.UUID, expiresAt time.Time) error {
		reset++
		assert.True(t, expiresAt.After(time.Now().Add(23*time.Hour)))
		return nil
	}
	f.jobs.GetFn = func(context.Context, uuid.UUID) (*model.Job, error) { return job, nil }

	require.NoError(t, f.sched.expireAssignments(context.Background()))

	// Once for the expiry reset, once more inside the empty dispatch round.
	assert.GreaterOrEqual(t, reset, 1)
}

func TestExpireAlerts(t *testing.T) {
	f := newFixture()

	var cutoff time.Time
	f.alerts.ExpireStaleFn = func(_ context.Context, now time.Time) (int64, error) {
		cutoff = now
		return 4, nil
	}

	require.NoError(t, f.sched.expireAlerts(context.Background()))
	assert.WithinDuration(t, time.Now(), cutoff, time.Minute)
}

func TestDispatchSweep(t *testing.T) {
	f := newFixture()
	customerID := uuid.New()
	job := &model.Job{
		ID:               uuid.New(),
		CustomerID:       &customerID,
		ServiceType:      model.ServiceTypeMoving,
		PickupPostal:     "M5V1A1",
		DropoffPostal:    "M4B2J8",
		DepositPaid:      true,
		Status:           model.JobStatusPendingAssignment,
		AssignmentStatus: model.AssignmentStatusUnassigned,
		MoveDate:         time.Now().Add(48 * time.Hour),
	}
	mover := &model.Mover{ID: uuid.New(), Name: "Ace Moving", Email: "ace@example.com"}

	var batch []*model.Alert
	f.jobs.ListDispatchableFn = func(context.Context, time.Time, time.Time) ([]*model.Job, error) {
		return []*model.Job{job}, nil
	}
	f.jobs.GetFn = func(context.Context, uuid.UUID) (*model.Job, error) { return job, nil }
	f.movers.FindEligibleFn = func(context.Context, string, string, time.Time, int) ([]*model.Mover, error) {
		return []*model.Mover{mover}, nil
	}
	f.alerts.CreateDispatchBatchFn = func(_ context.Context, alerts []*model.Alert, _ []*model.Notification) error {
		batch = alerts
		return nil
	}

	require.NoError(t, f.sched.dispatchSweep(context.Background()))

	require.Len(t, batch, 1)
	assert.Equal(t, mover.ID, batch[0].MoverID)
	assert.Contains(t, f.emitter.types, "job.dispatched")
}
