package service

import (
	"context"
	"database/sql"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/applicationadmin-sgt/sgtu-lms-api/internal/models"
	appErrors "github.com/applicationadmin-sgt/sgtu-lms-api/pkg/errors"
)

type mockAccessAssignments struct {
	activePairs map[string]bool // teacherID|courseID
	byTeacher   map[string][]string
}

func (m *mockAccessAssignments) ExistsActiveByTeacherCourse(ctx context.Context, teacherID, courseID string) (bool, error) {
	return m.activePairs[teacherID+"|"+courseID], nil
}

func (m *mockAccessAssignments) ListActiveCourseIDsByTeacher(ctx context.Context, teacherID string) ([]string, error) {
	return m.byTeacher[teacherID], nil
}

type mockAccessCourses struct {
	courses      map[string]*models.CourseDetail
	coordinators map[string][]string // courseID -> userIDs
}

func (m *mockAccessCourses) FindByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAccessCourses) IsCoordinator(ctx context.Context, courseID, userID string) (bool, error) {
	for _, id := range m.coordinators[courseID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAccessCourses) ListCoordinatedCourseIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	for courseID, users := range m.coordinators {
		for _, id := range users {
			if id == userID {
				ids = append(ids, courseID)
			}
		}
	}
	return ids, nil
}

type mockAccessSections struct {
	memberships    map[string][]models.StudentSection
	sectionCourses map[string][]models.CourseRef
	legacySections map[string][]models.SectionRef
}

func (m *mockAccessSections) StudentHasCourse(ctx context.Context, studentID, courseID string) (bool, error) {
	for _, membership := range m.memberships[studentID] {
		for _, course := range m.sectionCourses[membership.SectionID] {
			if course.ID == courseID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (m *mockAccessSections) SectionsForStudent(ctx context.Context, studentID, excludeSectionID string) ([]models.StudentSection, error) {
	return m.memberships[studentID], nil
}

func (m *mockAccessSections) ListCourses(ctx context.Context, sectionID string) ([]models.CourseRef, error) {
	return m.sectionCourses[sectionID], nil
}

func (m *mockAccessSections) ListByLegacyTeacher(ctx context.Context, teacherID string) ([]models.SectionRef, error) {
	return m.legacySections[teacherID], nil
}

func (m *mockAccessSections) HasCourse(ctx context.Context, sectionID, courseID string) (bool, error) {
	for _, course := range m.sectionCourses[sectionID] {
		if course.ID == courseID {
			return true, nil
		}
	}
	return false, nil
}

type mockAccessUsers struct {
	users map[string]*models.User
}

func (m *mockAccessUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func newAccessFixture() *AccessService {
	assignments := &mockAccessAssignments{
		activePairs: map[string]bool{"t1|crs1": true},
		byTeacher:   map[string][]string{"t1": {"crs1"}},
	}
	courses := &mockAccessCourses{
		courses: map[string]*models.CourseDetail{
			"crs1": {Course: models.Course{ID: "crs1"}},
			"crs2": {Course: models.Course{ID: "crs2"}},
			"crs3": {Course: models.Course{ID: "crs3"}},
		},
		coordinators: map[string][]string{"crs2": {"t1"}},
	}
	sections := &mockAccessSections{
		memberships: map[string][]models.StudentSection{
			"s1": {{SectionID: "sec1", SectionName: "CS-A"}},
		},
		sectionCourses: map[string][]models.CourseRef{
			"sec1": {{ID: "crs1"}, {ID: "crs3"}},
			"sec2": {{ID: "crs2"}},
		},
		legacySections: map[string][]models.SectionRef{
			"t3": {{ID: "sec2", Name: "CS-B"}},
		},
	}
	users := &mockAccessUsers{users: map[string]*models.User{
		"a1": {ID: "a1", Role: models.RoleAdmin, Active: true},
		"t1": {ID: "t1", Role: models.RoleTeacher, Active: true},
		"t2": {ID: "t2", Roles: []string{"TEACHER"}, Active: true},
		"t3": {ID: "t3", Role: models.RoleTeacher, Active: true},
		"s1": {ID: "s1", Role: models.RoleStudent, Active: true},
		"s2": {ID: "s2", Role: models.RoleStudent, Active: true},
		"x1": {ID: "x1", Active: true},
	}}
	return NewAccessService(assignments, courses, sections, users, zap.NewNop())
}

func TestCanAccessCourseAdminOverride(t *testing.T) {
	svc := newAccessFixture()
	allowed, err := svc.CanAccessCourse(context.Background(), "a1", "crs3")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestCanAccessCourseTeacherViaAssignment(t *testing.T) {
	svc := newAccessFixture()
	allowed, err := svc.CanAccessCourse(context.Background(), "t1", "crs1")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestCanAccessCourseTeacherViaCoordinatorship(t *testing.T) {
	svc := newAccessFixture()
	allowed, err := svc.CanAccessCourse(context.Background(), "t1", "crs2")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestCanAccessCourseTeacherViaDirectSection(t *testing.T) {
	svc := newAccessFixture()

	// t3 has no assignment rows and no coordinatorship; their authority comes
	// from being set directly on the section record.
	allowed, err := svc.CanAccessCourse(context.Background(), "t3", "crs2")
	require.NoError(t, err)
	assert.True(t, allowed)

	// The direct section does not reach courses it never offered.
	allowed, err = svc.CanAccessCourse(context.Background(), "t3", "crs1")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestCanAccessCourseTeacherWithoutReach(t *testing.T) {
	svc := newAccessFixture()
	allowed, err := svc.CanAccessCourse(context.Background(), "t2", "crs1")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestCanAccessCourseStudentViaSection(t *testing.T) {
	svc := newAccessFixture()
	allowed, err := svc.CanAccessCourse(context.Background(), "s1", "crs3")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestCanAccessCourseStudentOutsideSection(t *testing.T) {
	svc := newAccessFixture()
	allowed, err := svc.CanAccessCourse(context.Background(), "s1", "crs2")
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = svc.CanAccessCourse(context.Background(), "s2", "crs1")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestCanAccessCourseNoRole(t *testing.T) {
	svc := newAccessFixture()
	allowed, err := svc.CanAccessCourse(context.Background(), "x1", "crs1")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestCanAccessCourseMissingInput(t *testing.T) {
	svc := newAccessFixture()
	_, err := svc.CanAccessCourse(context.Background(), "", "crs1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.CanAccessCourse(context.Background(), "ghost", "crs1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAccessibleCourseIDsAdmin(t *testing.T) {
	svc := newAccessFixture()
	ids, allAccess, err := svc.AccessibleCourseIDs(context.Background(), "a1")
	require.NoError(t, err)
	assert.True(t, allAccess)
	assert.Empty(t, ids)
}

func TestAccessibleCourseIDsTeacherUnion(t *testing.T) {
	svc := newAccessFixture()
	ids, allAccess, err := svc.AccessibleCourseIDs(context.Background(), "t1")
	require.NoError(t, err)
	assert.False(t, allAccess)
	sort.Strings(ids)
	assert.Equal(t, []string{"crs1", "crs2"}, ids)
}

func TestAccessibleCourseIDsDirectSectionTeacher(t *testing.T) {
	svc := newAccessFixture()
	ids, allAccess, err := svc.AccessibleCourseIDs(context.Background(), "t3")
	require.NoError(t, err)
	assert.False(t, allAccess)
	assert.Equal(t, []string{"crs2"}, ids)
}

func TestAccessibleCourseIDsStudent(t *testing.T) {
	svc := newAccessFixture()
	ids, allAccess, err := svc.AccessibleCourseIDs(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, allAccess)
	sort.Strings(ids)
	assert.Equal(t, []string{"crs1", "crs3"}, ids)
}

func TestAccessibleCourseIDsUnenrolledStudent(t *testing.T) {
	svc := newAccessFixture()
	ids, _, err := svc.AccessibleCourseIDs(context.Background(), "s2")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
