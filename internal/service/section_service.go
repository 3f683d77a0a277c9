package service

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/applicationadmin-sgt/sgtu-lms-api/internal/models"
	appErrors "github.com/applicationadmin-sgt/sgtu-lms-api/pkg/errors"
)

type sectionAdminRepo interface {
	FindByID(ctx context.Context, id string) (*models.Section, error)
	HasCourse(ctx context.Context, sectionID, courseID string) (bool, error)
	AttachCourse(ctx context.Context, sectionID, courseID string) error
	DetachCourse(ctx context.Context, sectionID, courseID string) error
	ListCourses(ctx context.Context, sectionID string) ([]models.CourseRef, error)
	CountStudents(ctx context.Context, sectionID string) (int, error)
}

type sectionAssignmentReader interface {
	FindBySectionCourse(ctx context.Context, sectionID, courseID string) (*models.SectionCourseTeacher, error)
}

// SectionDetail is the read model for a single section.
type SectionDetail struct {
	Section      models.Section     `json:"section"`
	Courses      []models.CourseRef `json:"courses"`
	StudentCount int                `json:"student_count"`
}

// SectionService manages a section's course offering. Attaching a course is
// the prerequisite for teacher assignment; detaching is refused while an
// active assignment still points at the pair.
type SectionService struct {
	sections    sectionAdminRepo
	assignments sectionAssignmentReader
	courses     courseReader
	cache       *CacheService
	logger      *zap.Logger
}

// NewSectionService creates a service instance.
func NewSectionService(sections sectionAdminRepo, assignments sectionAssignmentReader, courses courseReader, cache *CacheService, logger *zap.Logger) *SectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectionService{sections: sections, assignments: assignments, courses: courses, cache: cache, logger: logger}
}

// Get returns the section with its offering and member count.
func (s *SectionService) Get(ctx context.Context, sectionID string) (*SectionDetail, error) {
	section, err := s.sections.FindByID(ctx, sectionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	courses, err := s.sections.ListCourses(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list section courses")
	}
	count, err := s.sections.CountStudents(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count section members")
	}
	return &SectionDetail{Section: *section, Courses: courses, StudentCount: count}, nil
}

// AttachCourse adds the course to the section's offering. Idempotent.
func (s *SectionService) AttachCourse(ctx context.Context, sectionID, courseID string) error {
	if _, err := s.sections.FindByID(ctx, sectionID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if err := s.sections.AttachCourse(ctx, sectionID, courseID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to attach course")
	}
	s.invalidateSection(ctx, sectionID)
	return nil
}

// DetachCourse removes the course from the offering. A pair still held by an
// active teacher assignment cannot be detached; remove the assignment first.
func (s *SectionService) DetachCourse(ctx context.Context, sectionID, courseID string) error {
	assignment, err := s.assignments.FindBySectionCourse(ctx, sectionID, courseID)
	if err != nil && err != sql.ErrNoRows {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up assignment")
	}
	if assignment != nil && assignment.IsActive {
		return appErrors.Clone(appErrors.ErrPreconditionFailed,
			fmt.Sprintf("course is actively assigned to a teacher in this section; remove assignment %s first", assignment.ID))
	}
	if err := s.sections.DetachCourse(ctx, sectionID, courseID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "course is not attached to this section")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to detach course")
	}
	s.invalidateSection(ctx, sectionID)
	return nil
}

func (s *SectionService) invalidateSection(ctx context.Context, sectionID string) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, sectionAssignmentsCacheKey(sectionID)); err != nil {
		s.logger.Warn("failed to invalidate section cache", zap.String("section_id", sectionID), zap.Error(err))
	}
}
