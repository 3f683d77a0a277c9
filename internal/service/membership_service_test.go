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

type mockMembershipRepo struct {
	sections  map[string]*models.Section
	members   map[string][]string // sectionID -> studentIDs
	added     []string
	removed   []string
	addErr    error
	removeErr error
}

func (m *mockMembershipRepo) FindByID(ctx context.Context, id string) (*models.Section, error) {
	if s, ok := m.sections[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockMembershipRepo) CountStudents(ctx context.Context, sectionID string) (int, error) {
	return len(m.members[sectionID]), nil
}

func (m *mockMembershipRepo) IsMember(ctx context.Context, sectionID, studentID string) (bool, error) {
	for _, id := range m.members[sectionID] {
		if id == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockMembershipRepo) ListRoster(ctx context.Context, sectionID string) ([]models.RosterEntry, error) {
	var roster []models.RosterEntry
	for _, id := range m.members[sectionID] {
		roster = append(roster, models.RosterEntry{StudentID: id})
	}
	return roster, nil
}

func (m *mockMembershipRepo) SectionsForStudent(ctx context.Context, studentID, excludeSectionID string) ([]models.StudentSection, error) {
	var result []models.StudentSection
	for sectionID, students := range m.members {
		if sectionID == excludeSectionID {
			continue
		}
		for _, id := range students {
			if id == studentID {
				result = append(result, models.StudentSection{SectionID: sectionID, SectionName: m.sections[sectionID].Name})
			}
		}
	}
	return result, nil
}

func (m *mockMembershipRepo) AddStudents(ctx context.Context, sectionID string, studentIDs []string, joinedAt time.Time) error {
	if m.addErr != nil {
		return m.addErr
	}
	m.members[sectionID] = append(m.members[sectionID], studentIDs...)
	m.added = append(m.added, studentIDs...)
	return nil
}

func (m *mockMembershipRepo) RemoveStudent(ctx context.Context, sectionID, studentID string, removedAt time.Time) error {
	if m.removeErr != nil {
		return m.removeErr
	}
	m.removed = append(m.removed, studentID)
	return nil
}

type mockMembershipUsers struct {
	users map[string]*models.User
}

func (m *mockMembershipUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockMembershipUsers) FindByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	var result []models.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			result = append(result, *u)
		}
	}
	return result, nil
}

func newMembershipFixture() (*mockMembershipRepo, *mockMembershipUsers, *mockNotifier) {
	repo := &mockMembershipRepo{
		sections: map[string]*models.Section{
			"sec1": {ID: "sec1", Name: "CS-A", Capacity: 3},
			"sec2": {ID: "sec2", Name: "CS-B", Capacity: 30},
		},
		members: map[string][]string{},
	}
	users := &mockMembershipUsers{users: map[string]*models.User{
		"s1": {ID: "s1", FullName: "Alice", Role: models.RoleStudent, Active: true},
		"s2": {ID: "s2", FullName: "Bob", Roles: []string{"STUDENT"}, Active: true},
		"s3": {ID: "s3", FullName: "Cara", Role: models.RoleStudent, Active: true},
		"s4": {ID: "s4", FullName: "Dan", Role: models.RoleStudent, Active: true},
	}}
	return repo, users, &mockNotifier{}
}

func TestAssignStudentEnrolls(t *testing.T) {
	repo, users, notify := newMembershipFixture()
	svc := NewMembershipService(repo, users, notify, validator.New(), zap.NewNop())

	err := svc.AssignStudent(context.Background(), "sec1", "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, repo.added)
	assert.Contains(t, notify.recipients, "s1")
}

func TestAssignStudentAlreadyMember(t *testing.T) {
	repo, users, notify := newMembershipFixture()
	repo.members["sec1"] = []string{"s1"}
	svc := NewMembershipService(repo, users, notify, validator.New(), zap.NewNop())

	err := svc.AssignStudent(context.Background(), "sec1", "s1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyAssigned.Code, appErrors.FromError(err).Code)
}

func TestAssignStudentCrossSectionConflict(t *testing.T) {
	repo, users, notify := newMembershipFixture()
	repo.members["sec2"] = []string{"s1"}
	svc := NewMembershipService(repo, users, notify, validator.New(), zap.NewNop())

	err := svc.AssignStudent(context.Background(), "sec1", "s1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrCrossSection.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "CS-B")
	assert.Empty(t, repo.added)
}

func TestAssignStudentsSkipsExistingMembers(t *testing.T) {
	repo, users, notify := newMembershipFixture()
	repo.members["sec1"] = []string{"s1"}
	svc := NewMembershipService(repo, users, notify, validator.New(), zap.NewNop())

	err := svc.AssignStudents(context.Background(), "sec1", AssignStudentsRequest{StudentIDs: []string{"s1", "s2"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"s2"}, repo.added)
	assert.Equal(t, []string{"s2"}, notify.recipients)
}

func TestAssignStudentsCapacityBoundary(t *testing.T) {
	repo, users, notify := newMembershipFixture()
	repo.members["sec1"] = []string{"s1"}
	svc := NewMembershipService(repo, users, notify, validator.New(), zap.NewNop())

	// Capacity 3 with one member: a batch of two fits exactly.
	err := svc.AssignStudents(context.Background(), "sec1", AssignStudentsRequest{StudentIDs: []string{"s2", "s3"}})
	require.NoError(t, err)

	// Now full: one more overflows.
	err = svc.AssignStudents(context.Background(), "sec1", AssignStudentsRequest{StudentIDs: []string{"s4"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCapacityExceeded.Code, appErrors.FromError(err).Code)
}

func TestAssignStudentsCapacityZeroIsClosed(t *testing.T) {
	repo, users, notify := newMembershipFixture()
	repo.sections["sec0"] = &models.Section{ID: "sec0", Name: "CS-Z", Capacity: 0}
	svc := NewMembershipService(repo, users, notify, validator.New(), zap.NewNop())

	err := svc.AssignStudents(context.Background(), "sec0", AssignStudentsRequest{StudentIDs: []string{"s1"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCapacityExceeded.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.added)
}

func TestAssignStudentsCrossSectionAbortsWholeBatch(t *testing.T) {
	repo, users, notify := newMembershipFixture()
	repo.members["sec2"] = []string{"s2"}
	svc := NewMembershipService(repo, users, notify, validator.New(), zap.NewNop())

	err := svc.AssignStudents(context.Background(), "sec1", AssignStudentsRequest{StudentIDs: []string{"s1", "s2", "s3"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCrossSection.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.added)
	assert.Empty(t, notify.recipients)
}

func TestAssignStudentsRejectsInactiveStudent(t *testing.T) {
	repo, users, notify := newMembershipFixture()
	users.users["s1"].Active = false
	svc := NewMembershipService(repo, users, notify, validator.New(), zap.NewNop())

	err := svc.AssignStudents(context.Background(), "sec1", AssignStudentsRequest{StudentIDs: []string{"s1"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAssignStudentsRejectsNonStudent(t *testing.T) {
	repo, users, notify := newMembershipFixture()
	users.users["t1"] = &models.User{ID: "t1", FullName: "Ada", Role: models.RoleTeacher, Active: true}
	svc := NewMembershipService(repo, users, notify, validator.New(), zap.NewNop())

	err := svc.AssignStudents(context.Background(), "sec1", AssignStudentsRequest{StudentIDs: []string{"t1"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestAssignStudentsRejectsDuplicateInBatch(t *testing.T) {
	repo, users, notify := newMembershipFixture()
	svc := NewMembershipService(repo, users, notify, validator.New(), zap.NewNop())

	err := svc.AssignStudents(context.Background(), "sec1", AssignStudentsRequest{StudentIDs: []string{"s1", "s1"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRemoveStudentNotMember(t *testing.T) {
	repo, users, notify := newMembershipFixture()
	repo.removeErr = sql.ErrNoRows
	svc := NewMembershipService(repo, users, notify, validator.New(), zap.NewNop())

	err := svc.RemoveStudent(context.Background(), "sec1", "s1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotMember.Code, appErrors.FromError(err).Code)
}

func TestRemoveStudentSucceeds(t *testing.T) {
	repo, users, notify := newMembershipFixture()
	repo.members["sec1"] = []string{"s1"}
	svc := NewMembershipService(repo, users, notify, validator.New(), zap.NewNop())

	err := svc.RemoveStudent(context.Background(), "sec1", "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, repo.removed)
	assert.Contains(t, notify.recipients, "s1")
}

func TestCurrentSectionNotEnrolled(t *testing.T) {
	repo, users, notify := newMembershipFixture()
	svc := NewMembershipService(repo, users, notify, validator.New(), zap.NewNop())

	_, err := svc.CurrentSection(context.Background(), "s1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCurrentSectionResolves(t *testing.T) {
	repo, users, notify := newMembershipFixture()
	repo.members["sec2"] = []string{"s1"}
	svc := NewMembershipService(repo, users, notify, validator.New(), zap.NewNop())

	section, err := svc.CurrentSection(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "sec2", section.SectionID)
}
