package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Named constraints backing the "at most one active owner" invariants. The
// application checks first for friendly errors; these indexes make the
// check-then-write safe under concurrent requests, and violations are mapped
// back to domain conflicts.
const (
	ConstraintActiveAssignment = "ux_section_course_teachers_active"
	ConstraintStudentSection   = "ux_section_students_student"
)

// IsUniqueViolation reports whether err is a Postgres unique_violation on the
// named constraint. An empty constraint matches any unique violation.
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != "23505" {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
