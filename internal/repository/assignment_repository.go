package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/applicationadmin-sgt/sgtu-lms-api/internal/models"
)

// AssignmentRepository persists section-course-teacher join rows. Rows are
// soft-deleted: is_active flips false on removal and the row stays for audit.
// The ux_section_course_teachers_active partial unique index guarantees at
// most one active row per (section, course) even under concurrent writers.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const assignmentColumns = `id, section_id, course_id, teacher_id, assigned_by, assigned_at, is_active, academic_year, semester, removed_at, removed_by`

// FindBySectionCourse returns the most recent row for the pair, active or
// not. The active row sorts first when one exists.
func (r *AssignmentRepository) FindBySectionCourse(ctx context.Context, sectionID, courseID string) (*models.SectionCourseTeacher, error) {
	query := fmt.Sprintf(`SELECT %s FROM section_course_teachers
WHERE section_id = $1 AND course_id = $2
ORDER BY is_active DESC, assigned_at DESC
LIMIT 1`, assignmentColumns)
	var row models.SectionCourseTeacher
	if err := r.db.GetContext(ctx, &row, query, sectionID, courseID); err != nil {
		return nil, err
	}
	return &row, nil
}

// Create inserts a new active assignment row.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.SectionCourseTeacher) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.AssignedAt.IsZero() {
		assignment.AssignedAt = time.Now().UTC()
	}
	assignment.IsActive = true
	const query = `INSERT INTO section_course_teachers (id, section_id, course_id, teacher_id, assigned_by, assigned_at, is_active, academic_year, semester)
		VALUES (:id, :section_id, :course_id, :teacher_id, :assigned_by, :assigned_at, :is_active, :academic_year, :semester)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return err
	}
	return nil
}

// Reactivate flips an inactive row back to active in place, overwriting the
// assignment fields while preserving the historical row id.
func (r *AssignmentRepository) Reactivate(ctx context.Context, id string, teacherID, assignedBy, academicYear, semester string, assignedAt time.Time) error {
	const query = `UPDATE section_course_teachers
SET teacher_id = $2, assigned_by = $3, assigned_at = $4, academic_year = $5, semester = $6,
    is_active = TRUE, removed_at = NULL, removed_by = NULL
WHERE id = $1 AND is_active = FALSE`
	result, err := r.db.ExecContext(ctx, query, id, teacherID, assignedBy, assignedAt, academicYear, semester)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check reactivated rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Deactivate soft-deletes the unique active row matching all three keys.
// Returns sql.ErrNoRows when no active row matches.
func (r *AssignmentRepository) Deactivate(ctx context.Context, teacherID, sectionID, courseID, removedBy string, removedAt time.Time) error {
	const query = `UPDATE section_course_teachers
SET is_active = FALSE, removed_at = $4, removed_by = $5
WHERE teacher_id = $1 AND section_id = $2 AND course_id = $3 AND is_active = TRUE`
	result, err := r.db.ExecContext(ctx, query, teacherID, sectionID, courseID, removedAt, removedBy)
	if err != nil {
		return fmt.Errorf("deactivate assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deactivated rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListActiveByTeacher returns the teacher's active rows with display data.
// Inactive history never appears in caller-facing listings.
func (r *AssignmentRepository) ListActiveByTeacher(ctx context.Context, teacherID string) ([]models.SectionAssignmentDetail, error) {
	const query = `
SELECT sct.id, sct.section_id, sct.course_id, sct.teacher_id, sct.assigned_by, sct.assigned_at,
       sct.is_active, sct.academic_year, sct.semester, sct.removed_at, sct.removed_by,
       s.name AS section_name, c.title AS course_title, c.code AS course_code, u.full_name AS teacher_name
FROM section_course_teachers sct
JOIN sections s ON s.id = sct.section_id
JOIN courses c ON c.id = sct.course_id
JOIN users u ON u.id = sct.teacher_id
WHERE sct.teacher_id = $1 AND sct.is_active = TRUE
ORDER BY s.name ASC, c.code ASC`
	var assignments []models.SectionAssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher assignments: %w", err)
	}
	return assignments, nil
}

// ListActiveBySection returns the section's active rows with display data.
func (r *AssignmentRepository) ListActiveBySection(ctx context.Context, sectionID string) ([]models.SectionAssignmentDetail, error) {
	const query = `
SELECT sct.id, sct.section_id, sct.course_id, sct.teacher_id, sct.assigned_by, sct.assigned_at,
       sct.is_active, sct.academic_year, sct.semester, sct.removed_at, sct.removed_by,
       s.name AS section_name, c.title AS course_title, c.code AS course_code, u.full_name AS teacher_name
FROM section_course_teachers sct
JOIN sections s ON s.id = sct.section_id
JOIN courses c ON c.id = sct.course_id
JOIN users u ON u.id = sct.teacher_id
WHERE sct.section_id = $1 AND sct.is_active = TRUE
ORDER BY c.code ASC`
	var assignments []models.SectionAssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, sectionID); err != nil {
		return nil, fmt.Errorf("list section assignments: %w", err)
	}
	return assignments, nil
}

// ExistsActiveByTeacherCourse reports whether the teacher holds an active
// assignment for the course in any section.
func (r *AssignmentRepository) ExistsActiveByTeacherCourse(ctx context.Context, teacherID, courseID string) (bool, error) {
	const query = `SELECT 1 FROM section_course_teachers WHERE teacher_id = $1 AND course_id = $2 AND is_active = TRUE LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, teacherID, courseID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check teacher course assignment: %w", err)
	}
	return true, nil
}

// ListActiveCourseIDsByTeacher returns distinct course ids from the teacher's
// active rows.
func (r *AssignmentRepository) ListActiveCourseIDsByTeacher(ctx context.Context, teacherID string) ([]string, error) {
	const query = `SELECT DISTINCT course_id FROM section_course_teachers WHERE teacher_id = $1 AND is_active = TRUE`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher course ids: %w", err)
	}
	return ids, nil
}
