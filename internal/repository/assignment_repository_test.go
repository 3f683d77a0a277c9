package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/applicationadmin-sgt/sgtu-lms-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAssignmentRepositoryFindBySectionCourse(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "section_id", "course_id", "teacher_id", "assigned_by", "assigned_at", "is_active", "academic_year", "semester", "removed_at", "removed_by"}).
		AddRow("sct-1", "sec-1", "crs-1", "t-1", "adm-1", time.Now(), true, "2026/2027", "1", nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY is_active DESC, assigned_at DESC")).
		WithArgs("sec-1", "crs-1").
		WillReturnRows(rows)

	row, err := repo.FindBySectionCourse(context.Background(), "sec-1", "crs-1")
	require.NoError(t, err)
	require.True(t, row.IsActive)
	require.Equal(t, "t-1", row.TeacherID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryCreatePassesUniqueViolation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	pqErr := &pq.Error{Code: "23505", Constraint: ConstraintActiveAssignment}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO section_course_teachers")).
		WillReturnError(pqErr)

	err := repo.Create(context.Background(), &models.SectionCourseTeacher{
		SectionID: "sec-1", CourseID: "crs-1", TeacherID: "t-1", AssignedBy: "adm-1",
		AcademicYear: "2026/2027", Semester: "1",
	})
	require.Error(t, err)
	require.True(t, IsUniqueViolation(err, ConstraintActiveAssignment))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryReactivateMissesFlipUpdatesNothing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND is_active = FALSE")).
		WithArgs("sct-1", "t-2", "adm-1", sqlmock.AnyArg(), "2026/2027", "2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Reactivate(context.Background(), "sct-1", "t-2", "adm-1", "2026/2027", "2", time.Now())
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryDeactivate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("SET is_active = FALSE, removed_at = $4, removed_by = $5")).
		WithArgs("t-1", "sec-1", "crs-1", sqlmock.AnyArg(), "adm-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Deactivate(context.Background(), "t-1", "sec-1", "crs-1", "adm-1", time.Now())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryDeactivateNoActiveRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("SET is_active = FALSE")).
		WithArgs("t-1", "sec-1", "crs-1", sqlmock.AnyArg(), "adm-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Deactivate(context.Background(), "t-1", "sec-1", "crs-1", "adm-1", time.Now())
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryListActiveByTeacher(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "section_id", "course_id", "teacher_id", "assigned_by", "assigned_at", "is_active", "academic_year", "semester", "removed_at", "removed_by", "section_name", "course_title", "course_code", "teacher_name"}).
		AddRow("sct-1", "sec-1", "crs-1", "t-1", "adm-1", time.Now(), true, "2026/2027", "1", nil, nil, "CS-A", "Algorithms", "CS201", "Ada")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE sct.teacher_id = $1 AND sct.is_active = TRUE")).
		WithArgs("t-1").
		WillReturnRows(rows)

	assignments, err := repo.ListActiveByTeacher(context.Background(), "t-1")
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	require.Equal(t, "CS-A", assignments[0].SectionName)
	require.NoError(t, mock.ExpectationsWereMet())
}
