package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/applicationadmin-sgt/sgtu-lms-api/internal/models"
	appErrors "github.com/applicationadmin-sgt/sgtu-lms-api/pkg/errors"
)

type lockRepo interface {
	Create(ctx context.Context, lock *models.ContentLock) error
	FindByID(ctx context.Context, id string) (*models.ContentLock, error)
	IncrementTeacherUnlock(ctx context.Context, id, actorID string, quota int, at time.Time) (bool, error)
	RecordDeanUnlock(ctx context.Context, id, actorID string, at time.Time) (bool, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.ContentLock, error)
}

type lockUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// CreateLockRequest describes a fresh content lock.
type CreateLockRequest struct {
	StudentID  string `json:"student_id" validate:"required"`
	TargetType string `json:"target_type" validate:"required,oneof=QUIZ VIDEO"`
	TargetID   string `json:"target_id" validate:"required"`
	Reason     string `json:"reason" validate:"required"`
}

// UnlockRequest carries the acting party's justification.
type UnlockRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// UnlockService runs the escalation ladder over content locks. A teacher may
// unlock the same lock up to the configured quota; past that only a dean can,
// on a counter of their own. The teacher counter never decreases and never
// passes the quota, which the conditional update in the repository enforces
// under concurrent attempts.
type UnlockService struct {
	locks     lockRepo
	users     lockUserReader
	notifier  notifier
	metrics   *MetricsService
	quota     int
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUnlockService creates a service instance.
func NewUnlockService(locks lockRepo, users lockUserReader, notify notifier, metrics *MetricsService, quota int, validate *validator.Validate, logger *zap.Logger) *UnlockService {
	if quota <= 0 {
		quota = 3
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UnlockService{locks: locks, users: users, notifier: notify, metrics: metrics, quota: quota, validator: validate, logger: logger}
}

// CreateLock records a fresh lock with zeroed counters. A student who fails
// again after being unlocked gets a new lock, never a reset of this one.
func (s *UnlockService) CreateLock(ctx context.Context, req CreateLockRequest) (*models.ContentLock, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lock payload")
	}
	student, err := s.users.FindByID(ctx, req.StudentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !student.HasRole(models.RoleStudent) {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "locks can only target student accounts")
	}

	lock := &models.ContentLock{
		StudentID:  req.StudentID,
		TargetType: models.LockTargetType(req.TargetType),
		TargetID:   req.TargetID,
		Reason:     req.Reason,
	}
	if err := s.locks.Create(ctx, lock); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lock")
	}
	return lock, nil
}

// Get returns a lock by id.
func (s *UnlockService) Get(ctx context.Context, id string) (*models.ContentLock, error) {
	lock, err := s.locks.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lock not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lock")
	}
	return lock, nil
}

// ListForStudent returns the student's locks, newest first.
func (s *UnlockService) ListForStudent(ctx context.Context, studentID string) ([]models.ContentLock, error) {
	locks, err := s.locks.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list locks")
	}
	return locks, nil
}

// TeacherUnlock spends one unit of the teacher quota. Once the counter has
// reached the quota the attempt is refused and the caller must escalate to a
// dean unlock.
func (s *UnlockService) TeacherUnlock(ctx context.Context, lockID, teacherID string, req UnlockRequest) (*models.ContentLock, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid unlock payload")
	}
	if err := s.requireAnyRole(ctx, teacherID, "acting user does not have the teacher role", models.RoleTeacher); err != nil {
		return nil, err
	}

	applied, err := s.locks.IncrementTeacherUnlock(ctx, lockID, teacherID, s.quota, time.Now().UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply teacher unlock")
	}
	if !applied {
		// Untouched row: either the lock is gone or the quota is spent.
		if _, err := s.locks.FindByID(ctx, lockID); err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "lock not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lock")
		}
		s.metrics.RecordUnlockEscalation()
		return nil, appErrors.Clone(appErrors.ErrEscalationRequired,
			fmt.Sprintf("teacher unlock quota of %d is exhausted for this lock; a dean unlock is required", s.quota))
	}

	lock, err := s.Get(ctx, lockID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("teacher unlock applied",
		zap.String("lock_id", lockID),
		zap.String("teacher_id", teacherID),
		zap.String("reason", req.Reason),
		zap.Int("teacher_unlock_count", lock.TeacherUnlockCount))
	s.notifyUnlock(lock, req.Reason)
	return lock, nil
}

// DeanUnlock is never refused for quota reasons; it counts on its own ledger
// and leaves the teacher counter untouched. Admins may act in a dean's stead.
func (s *UnlockService) DeanUnlock(ctx context.Context, lockID, deanID string, req UnlockRequest) (*models.ContentLock, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid unlock payload")
	}
	if err := s.requireAnyRole(ctx, deanID, "acting user does not have the dean role", models.RoleDean, models.RoleAdmin); err != nil {
		return nil, err
	}

	found, err := s.locks.RecordDeanUnlock(ctx, lockID, deanID, time.Now().UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply dean unlock")
	}
	if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "lock not found")
	}

	lock, err := s.Get(ctx, lockID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("dean unlock applied",
		zap.String("lock_id", lockID),
		zap.String("dean_id", deanID),
		zap.String("reason", req.Reason),
		zap.Int("dean_unlock_count", lock.DeanUnlockCount))
	s.notifyUnlock(lock, req.Reason)
	return lock, nil
}

func (s *UnlockService) requireAnyRole(ctx context.Context, userID, message string, roles ...models.UserRole) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "acting user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load acting user")
	}
	if !user.Active {
		return appErrors.Clone(appErrors.ErrInactiveAccount, "acting user account is inactive")
	}
	if !user.HasAnyRole(roles...) {
		return appErrors.Clone(appErrors.ErrForbidden, message)
	}
	return nil
}

func (s *UnlockService) notifyUnlock(lock *models.ContentLock, reason string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(lock.StudentID, fmt.Sprintf("Your %s was unlocked", lock.TargetType), map[string]interface{}{
		"lock_id":     lock.ID,
		"target_type": string(lock.TargetType),
		"target_id":   lock.TargetID,
		"reason":      reason,
	})
}
