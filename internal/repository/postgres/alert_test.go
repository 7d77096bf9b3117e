package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movermatch/marketplace-api/internal/model"
)

func TestRecordResponseGuardsSentStatus(t *testing.T) {
	db, mock := newMockDB(t)
	base := NewBaseRepository(db)
	repo := NewAlertRepository(&base)

	mock.ExpectExec("UPDATE alerts").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.RecordResponse(context.Background(), uuid.New(),
		model.AlertStatusNotInterested, &model.AlertResponse{}, time.Now())
	require.NoError(t, err)
	assert.False(t, ok, "a resolved alert must reject further responses")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDispatchBatchIsTransactional(t *testing.T) {
	db, mock := newMockDB(t)
	base := NewBaseRepository(db)
	repo := NewAlertRepository(&base)

	now := time.Now()
	alerts := []*model.Alert{
		{ID: uuid.New(), JobID: uuid.New(), MoverID: uuid.New(), Status: model.AlertStatusSent, ExpiresAt: now.Add(24 * time.Hour)},
		{ID: uuid.New(), JobID: uuid.New(), MoverID: uuid.New(), Status: model.AlertStatusSent, ExpiresAt: now.Add(24 * time.Hour)},
	}
	notifications := []*model.Notification{
		{ID: uuid.New(), RecipientID: alerts[0].MoverID, RecipientType: model.RecipientTypeMover},
		{ID: uuid.New(), RecipientID: alerts[1].MoverID, RecipientType: model.RecipientTypeMover},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO alerts").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO alerts").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO notifications").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO notifications").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.CreateDispatchBatch(context.Background(), alerts, notifications)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDispatchBatchRollsBackOnFailure(t *testing.T) {
	db, mock := newMockDB(t)
	base := NewBaseRepository(db)
	repo := NewAlertRepository(&base)

	alerts := []*model.Alert{
		{ID: uuid.New(), JobID: uuid.New(), MoverID: uuid.New(), Status: model.AlertStatusSent},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO alerts").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.CreateDispatchBatch(context.Background(), alerts, nil)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimAndVoidSiblingsSingleTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	base := NewBaseRepository(db)
	repo := NewAlertRepository(&base)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE alerts").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE alerts").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	err := repo.ClaimAndVoidSiblings(context.Background(), uuid.New(), uuid.New(),
		&model.AlertResponse{Interested: true}, time.Now())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpireStaleReturnsCount(t *testing.T) {
	db, mock := newMockDB(t)
	base := NewBaseRepository(db)
	repo := NewAlertRepository(&base)

	mock.ExpectExec("UPDATE alerts").
		WillReturnResult(sqlmock.NewResult(0, 5))

	count, err := repo.ExpireStale(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
