package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/applicationadmin-sgt/sgtu-lms-api/internal/models"
)

// CourseRepository reads course records and coordinator membership.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByID returns a course with its owning school and department names.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	const query = `
SELECT c.id, c.title, c.code, c.school_id, c.department_id, c.created_at,
       s.name AS school_name, d.name AS department_name
FROM courses c
JOIN schools s ON s.id = c.school_id
JOIN departments d ON d.id = c.department_id
WHERE c.id = $1`
	var course models.CourseDetail
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// List returns the whole course catalog ordered by code.
func (r *CourseRepository) List(ctx context.Context) ([]models.Course, error) {
	const query = `SELECT id, title, code, school_id, department_id, created_at FROM courses ORDER BY code ASC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// ListByIDs returns the courses matching the given ids, ordered by code.
func (r *CourseRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Course, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, title, code, school_id, department_id, created_at FROM courses WHERE id IN (?) ORDER BY code ASC`, ids)
	if err != nil {
		return nil, fmt.Errorf("build course id query: %w", err)
	}
	query = r.db.Rebind(query)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list courses by ids: %w", err)
	}
	return courses, nil
}

// IsCoordinator reports whether the user coordinates the course.
func (r *CourseRepository) IsCoordinator(ctx context.Context, courseID, userID string) (bool, error) {
	const query = `SELECT 1 FROM course_coordinators WHERE course_id = $1 AND user_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, courseID, userID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check coordinator: %w", err)
	}
	return true, nil
}

// ListCoordinatedCourseIDs returns ids of courses the user coordinates.
func (r *CourseRepository) ListCoordinatedCourseIDs(ctx context.Context, userID string) ([]string, error) {
	const query = `SELECT course_id FROM course_coordinators WHERE user_id = $1`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("list coordinated courses: %w", err)
	}
	return ids, nil
}

// ListCoordinators returns display data for a course's coordinators.
func (r *CourseRepository) ListCoordinators(ctx context.Context, courseID string) ([]models.UserRef, error) {
	const query = `
SELECT u.id, u.full_name, u.email
FROM course_coordinators cc
JOIN users u ON u.id = cc.user_id
WHERE cc.course_id = $1
ORDER BY u.full_name ASC`
	var coordinators []models.UserRef
	if err := r.db.SelectContext(ctx, &coordinators, query, courseID); err != nil {
		return nil, fmt.Errorf("list coordinators: %w", err)
	}
	return coordinators, nil
}
