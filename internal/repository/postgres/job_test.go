package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movermatch/marketplace-api/internal/model"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestAssignMoverWinsRace(t *testing.T) {
	db, mock := newMockDB(t)
	base := NewBaseRepository(db)
	repo := NewJobRepository(&base)

	mock.ExpectExec("UPDATE jobs").
		WillReturnResult(sqlmock.NewResult(0, 1))

	won, err := repo.AssignMover(context.Background(), uuid.New(), uuid.New(), model.AssignmentTypeSystem, time.Now())
	require.NoError(t, err)
	assert.True(t, won)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignMoverLosesRace(t *testing.T) {
	db, mock := newMockDB(t)
	base := NewBaseRepository(db)
	repo := NewJobRepository(&base)

	// Zero rows affected: another mover already won the conditional update.
	mock.ExpectExec("UPDATE jobs").
		WillReturnResult(sqlmock.NewResult(0, 0))

	won, err := repo.AssignMover(context.Background(), uuid.New(), uuid.New(), model.AssignmentTypeSystem, time.Now())
	require.NoError(t, err)
	assert.False(t, won)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkLongDistanceProcessedOnlyOnce(t *testing.T) {
	db, mock := newMockDB(t)
	base := NewBaseRepository(db)
	repo := NewJobRepository(&base)
	jobID := uuid.New()

	mock.ExpectExec("UPDATE jobs").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE jobs").
		WillReturnResult(sqlmock.NewResult(0, 0))

	claimed, err := repo.MarkLongDistanceProcessed(context.Background(), jobID)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = repo.MarkLongDistanceProcessed(context.Background(), jobID)
	require.NoError(t, err)
	assert.False(t, claimed, "second sweep must not claim the flag again")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMissingJob(t *testing.T) {
	db, mock := newMockDB(t)
	base := NewBaseRepository(db)
	repo := NewJobRepository(&base)

	mock.ExpectExec("DELETE FROM jobs").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), uuid.New())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
