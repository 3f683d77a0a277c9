package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/applicationadmin-sgt/sgtu-lms-api/internal/models"
	appErrors "github.com/applicationadmin-sgt/sgtu-lms-api/pkg/errors"
)

type mockLockRepo struct {
	locks map[string]*models.ContentLock
}

func (m *mockLockRepo) Create(ctx context.Context, lock *models.ContentLock) error {
	if lock.ID == "" {
		lock.ID = "lock-new"
	}
	lock.CreatedAt = time.Now().UTC()
	m.locks[lock.ID] = lock
	return nil
}

func (m *mockLockRepo) FindByID(ctx context.Context, id string) (*models.ContentLock, error) {
	if lock, ok := m.locks[id]; ok {
		copied := *lock
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockLockRepo) IncrementTeacherUnlock(ctx context.Context, id, actorID string, quota int, at time.Time) (bool, error) {
	lock, ok := m.locks[id]
	if !ok || lock.TeacherUnlockCount >= quota {
		return false, nil
	}
	lock.TeacherUnlockCount++
	lock.LastTeacherUnlockBy = &actorID
	lock.LastTeacherUnlockAt = &at
	return true, nil
}

func (m *mockLockRepo) RecordDeanUnlock(ctx context.Context, id, actorID string, at time.Time) (bool, error) {
	lock, ok := m.locks[id]
	if !ok {
		return false, nil
	}
	lock.DeanUnlockCount++
	lock.LastDeanUnlockBy = &actorID
	lock.LastDeanUnlockAt = &at
	return true, nil
}

func (m *mockLockRepo) ListByStudent(ctx context.Context, studentID string) ([]models.ContentLock, error) {
	var result []models.ContentLock
	for _, lock := range m.locks {
		if lock.StudentID == studentID {
			result = append(result, *lock)
		}
	}
	return result, nil
}

func newUnlockFixture() (*mockLockRepo, *UnlockService, *mockNotifier) {
	locks := &mockLockRepo{locks: map[string]*models.ContentLock{
		"lock1": {ID: "lock1", StudentID: "s1", TargetType: models.LockTargetQuiz, TargetID: "quiz1", Reason: "failed attempts"},
	}}
	users := &mockUserReader{users: map[string]*models.User{
		"t1": {ID: "t1", Role: models.RoleTeacher, Active: true},
		"d1": {ID: "d1", Roles: []string{"DEAN"}, Active: true},
		"a1": {ID: "a1", Role: models.RoleAdmin, Active: true},
		"s1": {ID: "s1", Role: models.RoleStudent, Active: true},
	}}
	notify := &mockNotifier{}
	svc := NewUnlockService(locks, users, notify, nil, 3, validator.New(), zap.NewNop())
	return locks, svc, notify
}

func TestTeacherUnlockIncrementsCounter(t *testing.T) {
	locks, svc, notify := newUnlockFixture()

	lock, err := svc.TeacherUnlock(context.Background(), "lock1", "t1", UnlockRequest{Reason: "reviewed with student"})
	require.NoError(t, err)
	assert.Equal(t, 1, lock.TeacherUnlockCount)
	assert.Equal(t, 0, lock.DeanUnlockCount)
	require.NotNil(t, locks.locks["lock1"].LastTeacherUnlockBy)
	assert.Equal(t, "t1", *locks.locks["lock1"].LastTeacherUnlockBy)
	assert.Contains(t, notify.recipients, "s1")
}

func TestTeacherUnlockQuotaExhaustedRequiresEscalation(t *testing.T) {
	locks, svc, _ := newUnlockFixture()
	locks.locks["lock1"].TeacherUnlockCount = 3

	_, err := svc.TeacherUnlock(context.Background(), "lock1", "t1", UnlockRequest{Reason: "one more try"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrEscalationRequired.Code, appErrors.FromError(err).Code)
	// Counter untouched past the quota.
	assert.Equal(t, 3, locks.locks["lock1"].TeacherUnlockCount)
}

func TestTeacherUnlockQuotaBoundary(t *testing.T) {
	locks, svc, _ := newUnlockFixture()

	for i := 1; i <= 3; i++ {
		lock, err := svc.TeacherUnlock(context.Background(), "lock1", "t1", UnlockRequest{Reason: "retry"})
		require.NoError(t, err)
		assert.Equal(t, i, lock.TeacherUnlockCount)
	}

	_, err := svc.TeacherUnlock(context.Background(), "lock1", "t1", UnlockRequest{Reason: "retry"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrEscalationRequired.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 3, locks.locks["lock1"].TeacherUnlockCount)
}

func TestTeacherUnlockMissingLock(t *testing.T) {
	_, svc, _ := newUnlockFixture()

	_, err := svc.TeacherUnlock(context.Background(), "ghost", "t1", UnlockRequest{Reason: "retry"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTeacherUnlockRequiresTeacherRole(t *testing.T) {
	_, svc, _ := newUnlockFixture()

	_, err := svc.TeacherUnlock(context.Background(), "lock1", "s1", UnlockRequest{Reason: "retry"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestDeanUnlockIgnoresTeacherQuota(t *testing.T) {
	locks, svc, notify := newUnlockFixture()
	locks.locks["lock1"].TeacherUnlockCount = 3

	lock, err := svc.DeanUnlock(context.Background(), "lock1", "d1", UnlockRequest{Reason: "approved appeal"})
	require.NoError(t, err)
	assert.Equal(t, 1, lock.DeanUnlockCount)
	// The teacher counter is never touched by a dean unlock.
	assert.Equal(t, 3, lock.TeacherUnlockCount)
	assert.Contains(t, notify.recipients, "s1")
}

func TestDeanUnlockRequiresDeanRole(t *testing.T) {
	_, svc, _ := newUnlockFixture()

	_, err := svc.DeanUnlock(context.Background(), "lock1", "t1", UnlockRequest{Reason: "nope"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestDeanUnlockAllowsAdmin(t *testing.T) {
	_, svc, _ := newUnlockFixture()

	lock, err := svc.DeanUnlock(context.Background(), "lock1", "a1", UnlockRequest{Reason: "registrar override"})
	require.NoError(t, err)
	assert.Equal(t, 1, lock.DeanUnlockCount)
}

func TestCreateLockStartsZeroed(t *testing.T) {
	_, svc, _ := newUnlockFixture()

	lock, err := svc.CreateLock(context.Background(), CreateLockRequest{
		StudentID: "s1", TargetType: "VIDEO", TargetID: "vid9", Reason: "skipped prerequisite",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, lock.TeacherUnlockCount)
	assert.Equal(t, 0, lock.DeanUnlockCount)
	assert.Equal(t, models.LockTargetVideo, lock.TargetType)
}

func TestCreateLockRejectsBadTarget(t *testing.T) {
	_, svc, _ := newUnlockFixture()

	_, err := svc.CreateLock(context.Background(), CreateLockRequest{
		StudentID: "s1", TargetType: "EXAM", TargetID: "x", Reason: "r",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
