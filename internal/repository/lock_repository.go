package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/applicationadmin-sgt/sgtu-lms-api/internal/models"
)

// LockRepository persists content locks and their unlock counters. The
// teacher counter increment is a conditional update so the quota holds under
// concurrent unlock attempts without an application-level read-check-write.
type LockRepository struct {
	db *sqlx.DB
}

// NewLockRepository constructs the repository.
func NewLockRepository(db *sqlx.DB) *LockRepository {
	return &LockRepository{db: db}
}

const lockColumns = `id, student_id, target_type, target_id, reason, teacher_unlock_count, dean_unlock_count,
       last_teacher_unlock_by, last_teacher_unlock_at, last_dean_unlock_by, last_dean_unlock_at, created_at`

// Create inserts a fresh lock with zeroed counters.
func (r *LockRepository) Create(ctx context.Context, lock *models.ContentLock) error {
	if lock.ID == "" {
		lock.ID = uuid.NewString()
	}
	if lock.CreatedAt.IsZero() {
		lock.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO content_locks (id, student_id, target_type, target_id, reason, teacher_unlock_count, dean_unlock_count, created_at)
		VALUES (:id, :student_id, :target_type, :target_id, :reason, 0, 0, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, lock); err != nil {
		return fmt.Errorf("create lock: %w", err)
	}
	return nil
}

// FindByID returns a lock by id.
func (r *LockRepository) FindByID(ctx context.Context, id string) (*models.ContentLock, error) {
	query := fmt.Sprintf(`SELECT %s FROM content_locks WHERE id = $1`, lockColumns)
	var lock models.ContentLock
	if err := r.db.GetContext(ctx, &lock, query, id); err != nil {
		return nil, err
	}
	return &lock, nil
}

// IncrementTeacherUnlock bumps the teacher counter iff it is still below
// quota, stamping actor and time. Returns false when the quota was already
// exhausted and the row was left untouched.
func (r *LockRepository) IncrementTeacherUnlock(ctx context.Context, id, actorID string, quota int, at time.Time) (bool, error) {
	const query = `UPDATE content_locks
SET teacher_unlock_count = teacher_unlock_count + 1, last_teacher_unlock_by = $2, last_teacher_unlock_at = $3
WHERE id = $1 AND teacher_unlock_count < $4`
	result, err := r.db.ExecContext(ctx, query, id, actorID, at, quota)
	if err != nil {
		return false, fmt.Errorf("increment teacher unlock: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check unlock rows: %w", err)
	}
	return affected > 0, nil
}

// RecordDeanUnlock bumps the dean counter unconditionally, stamping actor and
// time. The teacher counter is never touched. Returns false when the lock
// does not exist.
func (r *LockRepository) RecordDeanUnlock(ctx context.Context, id, actorID string, at time.Time) (bool, error) {
	const query = `UPDATE content_locks
SET dean_unlock_count = dean_unlock_count + 1, last_dean_unlock_by = $2, last_dean_unlock_at = $3
WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, actorID, at)
	if err != nil {
		return false, fmt.Errorf("record dean unlock: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check unlock rows: %w", err)
	}
	return affected > 0, nil
}

// ListByStudent returns the student's locks, newest first.
func (r *LockRepository) ListByStudent(ctx context.Context, studentID string) ([]models.ContentLock, error) {
	query := fmt.Sprintf(`SELECT %s FROM content_locks WHERE student_id = $1 ORDER BY created_at DESC`, lockColumns)
	var locks []models.ContentLock
	if err := r.db.SelectContext(ctx, &locks, query, studentID); err != nil {
		return nil, fmt.Errorf("list student locks: %w", err)
	}
	return locks, nil
}
