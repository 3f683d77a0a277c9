package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectionRepositoryAddStudentsWritesBothRelations(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	joinedAt := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO section_students (section_id, student_id, joined_at)")).
		WithArgs("sec-1", "s-1", joinedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET section_id = $2")).
		WithArgs("s-1", "sec-1", joinedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO section_students (section_id, student_id, joined_at)")).
		WithArgs("sec-1", "s-2", joinedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET section_id = $2")).
		WithArgs("s-2", "sec-1", joinedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.AddStudents(context.Background(), "sec-1", []string{"s-1", "s-2"}, joinedAt)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryAddStudentsRollsBackOnUniqueViolation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	joinedAt := time.Now().UTC()
	pqErr := &pq.Error{Code: "23505", Constraint: ConstraintStudentSection}
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO section_students (section_id, student_id, joined_at)")).
		WithArgs("sec-1", "s-1", joinedAt).
		WillReturnError(pqErr)
	mock.ExpectRollback()

	err := repo.AddStudents(context.Background(), "sec-1", []string{"s-1"}, joinedAt)
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err, ConstraintStudentSection))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryAddStudentsEmptyBatchIsNoop(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	err := repo.AddStudents(context.Background(), "sec-1", nil, time.Now())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryRemoveStudentClearsBackref(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	removedAt := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM section_students WHERE section_id = $1 AND student_id = $2")).
		WithArgs("sec-1", "s-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("SET section_id = NULL, updated_at = $2 WHERE id = $1 AND section_id = $3")).
		WithArgs("s-1", removedAt, "sec-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.RemoveStudent(context.Background(), "sec-1", "s-1", removedAt)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryRemoveStudentNotMember(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM section_students")).
		WithArgs("sec-1", "s-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.RemoveStudent(context.Background(), "sec-1", "s-1", time.Now())
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryStudentHasCourse(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("JOIN section_courses sc ON sc.section_id = ss.section_id")).
		WithArgs("s-1", "crs-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	has, err := repo.StudentHasCourse(context.Background(), "s-1", "crs-1")
	require.NoError(t, err)
	assert.True(t, has)

	mock.ExpectQuery(regexp.QuoteMeta("JOIN section_courses sc ON sc.section_id = ss.section_id")).
		WithArgs("s-1", "crs-9").
		WillReturnError(sql.ErrNoRows)

	has, err = repo.StudentHasCourse(context.Background(), "s-1", "crs-9")
	require.NoError(t, err)
	assert.False(t, has)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositorySectionsForStudentExcludes(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	rows := sqlmock.NewRows([]string{"section_id", "section_name", "joined_at"}).
		AddRow("sec-2", "CS-B", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("AND ss.section_id <> $2")).
		WithArgs("s-1", "sec-1").
		WillReturnRows(rows)

	sections, err := repo.SectionsForStudent(context.Background(), "s-1", "sec-1")
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, "sec-2", sections[0].SectionID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryDetachCourseMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM section_courses WHERE section_id = $1 AND course_id = $2")).
		WithArgs("sec-1", "crs-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DetachCourse(context.Background(), "sec-1", "crs-1")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
