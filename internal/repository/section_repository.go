package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/applicationadmin-sgt/sgtu-lms-api/internal/models"
)

// SectionRepository persists sections, their course offerings and student
// membership. Membership writes keep the forward relation (section_students)
// and the denormalized back-reference (users.section_id) in one transaction.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs the repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// FindByID returns a section by id.
func (r *SectionRepository) FindByID(ctx context.Context, id string) (*models.Section, error) {
	const query = `SELECT id, name, school_id, department_id, capacity, teacher_id, created_at FROM sections WHERE id = $1`
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, id); err != nil {
		return nil, err
	}
	return &section, nil
}

// HasCourse reports whether the course is attached to the section.
func (r *SectionRepository) HasCourse(ctx context.Context, sectionID, courseID string) (bool, error) {
	const query = `SELECT 1 FROM section_courses WHERE section_id = $1 AND course_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, sectionID, courseID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check section course: %w", err)
	}
	return true, nil
}

// AttachCourse adds a course to the section's offering. Attaching an already
// attached course is a no-op.
func (r *SectionRepository) AttachCourse(ctx context.Context, sectionID, courseID string) error {
	const query = `INSERT INTO section_courses (section_id, course_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, sectionID, courseID); err != nil {
		return fmt.Errorf("attach course: %w", err)
	}
	return nil
}

// DetachCourse removes a course from the section's offering.
func (r *SectionRepository) DetachCourse(ctx context.Context, sectionID, courseID string) error {
	const query = `DELETE FROM section_courses WHERE section_id = $1 AND course_id = $2`
	result, err := r.db.ExecContext(ctx, query, sectionID, courseID)
	if err != nil {
		return fmt.Errorf("detach course: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check detached rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListCourses returns the courses offered by the section.
func (r *SectionRepository) ListCourses(ctx context.Context, sectionID string) ([]models.CourseRef, error) {
	const query = `
SELECT c.id, c.title, c.code
FROM section_courses sc
JOIN courses c ON c.id = sc.course_id
WHERE sc.section_id = $1
ORDER BY c.code ASC`
	var courses []models.CourseRef
	if err := r.db.SelectContext(ctx, &courses, query, sectionID); err != nil {
		return nil, fmt.Errorf("list section courses: %w", err)
	}
	return courses, nil
}

// CountStudents returns the section's current member count.
func (r *SectionRepository) CountStudents(ctx context.Context, sectionID string) (int, error) {
	const query = `SELECT COUNT(*) FROM section_students WHERE section_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, sectionID); err != nil {
		return 0, fmt.Errorf("count section students: %w", err)
	}
	return count, nil
}

// IsMember reports whether the student is on the section's roster.
func (r *SectionRepository) IsMember(ctx context.Context, sectionID, studentID string) (bool, error) {
	const query = `SELECT 1 FROM section_students WHERE section_id = $1 AND student_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, sectionID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check section membership: %w", err)
	}
	return true, nil
}

// ListRoster returns the section's students with display data.
func (r *SectionRepository) ListRoster(ctx context.Context, sectionID string) ([]models.RosterEntry, error) {
	const query = `
SELECT ss.student_id, u.full_name, u.email, ss.joined_at
FROM section_students ss
JOIN users u ON u.id = ss.student_id
WHERE ss.section_id = $1
ORDER BY u.full_name ASC`
	var roster []models.RosterEntry
	if err := r.db.SelectContext(ctx, &roster, query, sectionID); err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	return roster, nil
}

// SectionsForStudent returns every section the student currently belongs to,
// excluding excludeSectionID when non-empty, most recent membership first.
// Under the one-student-one-section invariant this is at most one row; more
// than one means historical data needs operator remediation.
func (r *SectionRepository) SectionsForStudent(ctx context.Context, studentID, excludeSectionID string) ([]models.StudentSection, error) {
	query := `
SELECT ss.section_id, s.name AS section_name, ss.joined_at
FROM section_students ss
JOIN sections s ON s.id = ss.section_id
WHERE ss.student_id = $1`
	args := []interface{}{studentID}
	if excludeSectionID != "" {
		query += ` AND ss.section_id <> $2`
		args = append(args, excludeSectionID)
	}
	query += ` ORDER BY ss.joined_at DESC`
	var sections []models.StudentSection
	if err := r.db.SelectContext(ctx, &sections, query, args...); err != nil {
		return nil, fmt.Errorf("list student sections: %w", err)
	}
	return sections, nil
}

// AddStudents inserts roster rows and updates each student's back-reference in
// a single transaction. The unique index on student_id is the authoritative
// guard for one-student-one-section; a violation aborts the whole batch.
func (r *SectionRepository) AddStudents(ctx context.Context, sectionID string, studentIDs []string, joinedAt time.Time) error {
	if len(studentIDs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin membership tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertQuery = `INSERT INTO section_students (section_id, student_id, joined_at) VALUES ($1, $2, $3)`
	const backrefQuery = `UPDATE users SET section_id = $2, updated_at = $3 WHERE id = $1`
	for _, studentID := range studentIDs {
		if _, err := tx.ExecContext(ctx, insertQuery, sectionID, studentID, joinedAt); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, backrefQuery, studentID, sectionID, joinedAt); err != nil {
			return fmt.Errorf("update student back-reference: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit membership tx: %w", err)
	}
	return nil
}

// RemoveStudent deletes the roster row and clears the back-reference in a
// single transaction. Returns sql.ErrNoRows when the student was not a member.
func (r *SectionRepository) RemoveStudent(ctx context.Context, sectionID, studentID string, removedAt time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin membership tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const deleteQuery = `DELETE FROM section_students WHERE section_id = $1 AND student_id = $2`
	result, err := tx.ExecContext(ctx, deleteQuery, sectionID, studentID)
	if err != nil {
		return fmt.Errorf("remove section member: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check removed rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	const backrefQuery = `UPDATE users SET section_id = NULL, updated_at = $2 WHERE id = $1 AND section_id = $3`
	if _, err := tx.ExecContext(ctx, backrefQuery, studentID, removedAt, sectionID); err != nil {
		return fmt.Errorf("clear student back-reference: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit membership tx: %w", err)
	}
	return nil
}

// ListByLegacyTeacher returns sections where the teacher is set directly on
// the section record (whole-section authority).
func (r *SectionRepository) ListByLegacyTeacher(ctx context.Context, teacherID string) ([]models.SectionRef, error) {
	const query = `SELECT id, name FROM sections WHERE teacher_id = $1 ORDER BY name ASC`
	var sections []models.SectionRef
	if err := r.db.SelectContext(ctx, &sections, query, teacherID); err != nil {
		return nil, fmt.Errorf("list legacy teacher sections: %w", err)
	}
	return sections, nil
}

// StudentHasCourse reports whether any section the student belongs to offers
// the course. This derives from the authoritative forward relations, never
// from the denormalized users.section_id column.
func (r *SectionRepository) StudentHasCourse(ctx context.Context, studentID, courseID string) (bool, error) {
	const query = `
SELECT 1
FROM section_students ss
JOIN section_courses sc ON sc.section_id = ss.section_id
WHERE ss.student_id = $1 AND sc.course_id = $2
LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, courseID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student course reachability: %w", err)
	}
	return true, nil
}
