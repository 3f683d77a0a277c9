package service

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/applicationadmin-sgt/sgtu-lms-api/internal/models"
	appErrors "github.com/applicationadmin-sgt/sgtu-lms-api/pkg/errors"
)

type accessAssignmentReader interface {
	ExistsActiveByTeacherCourse(ctx context.Context, teacherID, courseID string) (bool, error)
	ListActiveCourseIDsByTeacher(ctx context.Context, teacherID string) ([]string, error)
}

type accessCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.CourseDetail, error)
	IsCoordinator(ctx context.Context, courseID, userID string) (bool, error)
	ListCoordinatedCourseIDs(ctx context.Context, userID string) ([]string, error)
}

type accessSectionReader interface {
	StudentHasCourse(ctx context.Context, studentID, courseID string) (bool, error)
	SectionsForStudent(ctx context.Context, studentID, excludeSectionID string) ([]models.StudentSection, error)
	ListCourses(ctx context.Context, sectionID string) ([]models.CourseRef, error)
	ListByLegacyTeacher(ctx context.Context, teacherID string) ([]models.SectionRef, error)
	HasCourse(ctx context.Context, sectionID, courseID string) (bool, error)
}

type accessUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// AccessService decides whether a user may reach a course. Decisions are
// computed fresh on every call from the authoritative roster and assignment
// relations, never from the denormalized users.section_id column, and no
// result is cached: assignments and memberships change independently of the
// caller's session lifetime. "No access" is an answer, not an error.
type AccessService struct {
	assignments accessAssignmentReader
	courses     accessCourseReader
	sections    accessSectionReader
	users       accessUserReader
	logger      *zap.Logger
}

// NewAccessService creates a service instance.
func NewAccessService(assignments accessAssignmentReader, courses accessCourseReader, sections accessSectionReader, users accessUserReader, logger *zap.Logger) *AccessService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessService{assignments: assignments, courses: courses, sections: sections, users: users, logger: logger}
}

// CanAccessCourse evaluates the role branches in priority order, first match
// wins: admin override, teacher reach (an active assignment for the course in
// any section, coordinatorship, or a direct section where the section offers
// the course), student reach (the course is offered by a section the student
// belongs to).
func (s *AccessService) CanAccessCourse(ctx context.Context, userID, courseID string) (bool, error) {
	if userID == "" || courseID == "" {
		return false, appErrors.Clone(appErrors.ErrValidation, "user id and course id are required")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if !user.Active {
		return false, nil
	}

	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if err == sql.ErrNoRows {
			return false, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	if user.HasRole(models.RoleAdmin) {
		return true, nil
	}

	if user.HasRole(models.RoleTeacher) {
		assigned, err := s.assignments.ExistsActiveByTeacherCourse(ctx, userID, courseID)
		if err != nil {
			return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check assignments")
		}
		if assigned {
			return true, nil
		}
		coordinator, err := s.courses.IsCoordinator(ctx, courseID, userID)
		if err != nil {
			return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check coordinators")
		}
		if coordinator {
			return true, nil
		}
		// Teachers set directly on a section record hold whole-section
		// authority over every course the section offers.
		direct, err := s.sections.ListByLegacyTeacher(ctx, userID)
		if err != nil {
			return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list direct sections")
		}
		for _, section := range direct {
			offered, err := s.sections.HasCourse(ctx, section.ID, courseID)
			if err != nil {
				return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check section courses")
			}
			if offered {
				return true, nil
			}
		}
	}

	if user.HasRole(models.RoleStudent) {
		reachable, err := s.sections.StudentHasCourse(ctx, userID, courseID)
		if err != nil {
			return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check section courses")
		}
		if reachable {
			return true, nil
		}
	}

	return false, nil
}

// AccessibleCourseIDs returns every course id the user may reach, used to
// scope catalog listings. Admins get a nil set with the allAccess flag so
// callers skip filtering instead of materializing the whole catalog.
func (s *AccessService) AccessibleCourseIDs(ctx context.Context, userID string) (ids []string, allAccess bool, err error) {
	if userID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "user id is required")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if !user.Active {
		return nil, false, nil
	}

	if user.HasRole(models.RoleAdmin) {
		return nil, true, nil
	}

	set := make(map[string]struct{})

	if user.HasRole(models.RoleTeacher) {
		assigned, err := s.assignments.ListActiveCourseIDsByTeacher(ctx, userID)
		if err != nil {
			return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assigned courses")
		}
		for _, id := range assigned {
			set[id] = struct{}{}
		}
		coordinated, err := s.courses.ListCoordinatedCourseIDs(ctx, userID)
		if err != nil {
			return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list coordinated courses")
		}
		for _, id := range coordinated {
			set[id] = struct{}{}
		}
		direct, err := s.sections.ListByLegacyTeacher(ctx, userID)
		if err != nil {
			return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list direct sections")
		}
		for _, section := range direct {
			courses, err := s.sections.ListCourses(ctx, section.ID)
			if err != nil {
				return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list section courses")
			}
			for _, course := range courses {
				set[course.ID] = struct{}{}
			}
		}
	}

	if user.HasRole(models.RoleStudent) {
		memberships, err := s.sections.SectionsForStudent(ctx, userID, "")
		if err != nil {
			return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list memberships")
		}
		if len(memberships) > 1 {
			s.logger.Warn("student belongs to multiple sections, scoping to most recent",
				zap.String("student_id", userID),
				zap.Int("memberships", len(memberships)))
		}
		if len(memberships) > 0 {
			courses, err := s.sections.ListCourses(ctx, memberships[0].SectionID)
			if err != nil {
				return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list section courses")
			}
			for _, course := range courses {
				set[course.ID] = struct{}{}
			}
		}
	}

	ids = make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids, false, nil
}
