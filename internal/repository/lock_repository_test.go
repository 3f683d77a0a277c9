package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/applicationadmin-sgt/sgtu-lms-api/internal/models"
)

func TestLockRepositoryIncrementTeacherUnlockApplied(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLockRepository(db)

	at := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND teacher_unlock_count < $4")).
		WithArgs("lock-1", "t-1", at, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	applied, err := repo.IncrementTeacherUnlock(context.Background(), "lock-1", "t-1", 3, at)
	require.NoError(t, err)
	assert.True(t, applied)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLockRepositoryIncrementTeacherUnlockQuotaHit(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLockRepository(db)

	at := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND teacher_unlock_count < $4")).
		WithArgs("lock-1", "t-1", at, 3).
		WillReturnResult(sqlmock.NewResult(0, 0))

	applied, err := repo.IncrementTeacherUnlock(context.Background(), "lock-1", "t-1", 3, at)
	require.NoError(t, err)
	assert.False(t, applied)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLockRepositoryRecordDeanUnlock(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLockRepository(db)

	at := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("SET dean_unlock_count = dean_unlock_count + 1")).
		WithArgs("lock-1", "d-1", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	found, err := repo.RecordDeanUnlock(context.Background(), "lock-1", "d-1", at)
	require.NoError(t, err)
	assert.True(t, found)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLockRepositoryRecordDeanUnlockMissingLock(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLockRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("SET dean_unlock_count = dean_unlock_count + 1")).
		WithArgs("ghost", "d-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	found, err := repo.RecordDeanUnlock(context.Background(), "ghost", "d-1", time.Now())
	require.NoError(t, err)
	assert.False(t, found)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLockRepositoryCreateZeroesCounters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLockRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO content_locks")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	lock := &models.ContentLock{StudentID: "s-1", TargetType: models.LockTargetQuiz, TargetID: "quiz-1", Reason: "failed attempts"}
	err := repo.Create(context.Background(), lock)
	require.NoError(t, err)
	assert.NotEmpty(t, lock.ID)
	assert.False(t, lock.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}
