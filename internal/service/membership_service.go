package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/applicationadmin-sgt/sgtu-lms-api/internal/models"
	"github.com/applicationadmin-sgt/sgtu-lms-api/internal/repository"
	appErrors "github.com/applicationadmin-sgt/sgtu-lms-api/pkg/errors"
)

type membershipSectionRepo interface {
	FindByID(ctx context.Context, id string) (*models.Section, error)
	CountStudents(ctx context.Context, sectionID string) (int, error)
	IsMember(ctx context.Context, sectionID, studentID string) (bool, error)
	ListRoster(ctx context.Context, sectionID string) ([]models.RosterEntry, error)
	SectionsForStudent(ctx context.Context, studentID, excludeSectionID string) ([]models.StudentSection, error)
	AddStudents(ctx context.Context, sectionID string, studentIDs []string, joinedAt time.Time) error
	RemoveStudent(ctx context.Context, sectionID, studentID string, removedAt time.Time) error
}

type membershipUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.User, error)
}

// AssignStudentsRequest is the bulk enrollment payload.
type AssignStudentsRequest struct {
	StudentIDs []string `json:"student_ids" validate:"required,min=1,dive,required"`
}

// MembershipService manages section rosters under two invariants: a student
// belongs to at most one section at a time, and a section never exceeds its
// capacity. Bulk assignment is all-or-nothing; any rejected student aborts
// the whole batch before a row is written.
type MembershipService struct {
	sections  membershipSectionRepo
	users     membershipUserReader
	notifier  notifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMembershipService creates a service instance.
func NewMembershipService(sections membershipSectionRepo, users membershipUserReader, notify notifier, validate *validator.Validate, logger *zap.Logger) *MembershipService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MembershipService{sections: sections, users: users, notifier: notify, validator: validate, logger: logger}
}

// AssignStudent enrolls a single student. Unlike the bulk path, enrolling a
// student who is already a member is an error, not a silent skip.
func (s *MembershipService) AssignStudent(ctx context.Context, sectionID, studentID string) error {
	member, err := s.sections.IsMember(ctx, sectionID, studentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check membership")
	}
	if member {
		return appErrors.Clone(appErrors.ErrAlreadyAssigned, "student is already a member of this section")
	}
	return s.AssignStudents(ctx, sectionID, AssignStudentsRequest{StudentIDs: []string{studentID}})
}

// AssignStudents enrolls a batch of students into the section. Students who
// already belong to this section are skipped; a cross-section conflict aborts
// the whole batch. Capacity is checked against the students actually being
// added, so a batch that would overflow is rejected even when individual adds
// would fit.
func (s *MembershipService) AssignStudents(ctx context.Context, sectionID string, req AssignStudentsRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	seen := make(map[string]struct{}, len(req.StudentIDs))
	for _, id := range req.StudentIDs {
		if _, dup := seen[id]; dup {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s appears more than once in the batch", id))
		}
		seen[id] = struct{}{}
	}

	section, err := s.sections.FindByID(ctx, sectionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}

	students, err := s.users.FindByIDs(ctx, req.StudentIDs)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	byID := make(map[string]models.User, len(students))
	for _, student := range students {
		byID[student.ID] = student
	}

	toAdd := make([]string, 0, len(req.StudentIDs))
	for _, studentID := range req.StudentIDs {
		student, ok := byID[studentID]
		if !ok {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student %s not found", studentID))
		}
		if !student.Active {
			return appErrors.Clone(appErrors.ErrInactiveAccount, fmt.Sprintf("student account %s is inactive", student.FullName))
		}
		if !student.HasRole(models.RoleStudent) {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("user %s does not have the student role", student.FullName))
		}
		member, err := s.sections.IsMember(ctx, sectionID, studentID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check membership")
		}
		if member {
			continue
		}
		if err := s.checkCrossSection(ctx, sectionID, studentID, student.FullName); err != nil {
			return err
		}
		toAdd = append(toAdd, studentID)
	}
	if len(toAdd) == 0 {
		return nil
	}

	current, err := s.sections.CountStudents(ctx, sectionID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count section members")
	}
	// Capacity zero is a closed section, not an uncapped one.
	if current+len(toAdd) > section.Capacity {
		return appErrors.Clone(appErrors.ErrCapacityExceeded,
			fmt.Sprintf("section %s holds %d of %d students; cannot add %d more", section.Name, current, section.Capacity, len(toAdd)))
	}

	joinedAt := time.Now().UTC()
	if err := s.sections.AddStudents(ctx, sectionID, toAdd, joinedAt); err != nil {
		// The unique index on student_id catches enrollments that raced past
		// the membership check above.
		if repository.IsUniqueViolation(err, repository.ConstraintStudentSection) {
			return appErrors.Clone(appErrors.ErrCrossSection, "a student in the batch was enrolled elsewhere concurrently")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll students")
	}

	if s.notifier != nil {
		for _, studentID := range toAdd {
			s.notifier.Notify(studentID, fmt.Sprintf("You were enrolled in section %s", section.Name), map[string]interface{}{
				"section_id": sectionID,
			})
		}
	}
	return nil
}

func (s *MembershipService) checkCrossSection(ctx context.Context, sectionID, studentID, name string) error {
	elsewhere, err := s.sections.SectionsForStudent(ctx, studentID, sectionID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check other memberships")
	}
	if len(elsewhere) > 0 {
		return appErrors.Clone(appErrors.ErrCrossSection,
			fmt.Sprintf("student %s already belongs to section %s; remove them there first", name, elsewhere[0].SectionName))
	}
	return nil
}

// RemoveStudent drops the student from the section roster.
func (s *MembershipService) RemoveStudent(ctx context.Context, sectionID, studentID string) error {
	if _, err := s.sections.FindByID(ctx, sectionID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	if err := s.sections.RemoveStudent(ctx, sectionID, studentID, time.Now().UTC()); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotMember, "student is not a member of this section")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove student")
	}
	if s.notifier != nil {
		s.notifier.Notify(studentID, "You were removed from your section", map[string]interface{}{
			"section_id": sectionID,
		})
	}
	return nil
}

// Roster returns the section's current members.
func (s *MembershipService) Roster(ctx context.Context, sectionID string) ([]models.RosterEntry, error) {
	if _, err := s.sections.FindByID(ctx, sectionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	roster, err := s.sections.ListRoster(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list roster")
	}
	return roster, nil
}

// CurrentSection resolves the student's section from the authoritative roster
// relation. More than one row violates the single-membership invariant; the
// most recent membership wins and the anomaly is logged for remediation.
func (s *MembershipService) CurrentSection(ctx context.Context, studentID string) (*models.StudentSection, error) {
	if _, err := s.users.FindByID(ctx, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	sections, err := s.sections.SectionsForStudent(ctx, studentID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list memberships")
	}
	if len(sections) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student is not enrolled in any section")
	}
	if len(sections) > 1 {
		s.logger.Warn("student belongs to multiple sections, resolving to most recent",
			zap.String("student_id", studentID),
			zap.Int("memberships", len(sections)),
			zap.String("resolved_section_id", sections[0].SectionID))
	}
	return &sections[0], nil
}
