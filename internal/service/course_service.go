package service

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/applicationadmin-sgt/sgtu-lms-api/internal/models"
	appErrors "github.com/applicationadmin-sgt/sgtu-lms-api/pkg/errors"
)

type courseCatalogRepo interface {
	FindByID(ctx context.Context, id string) (*models.CourseDetail, error)
	List(ctx context.Context) ([]models.Course, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Course, error)
	ListCoordinators(ctx context.Context, courseID string) ([]models.UserRef, error)
}

// CourseService serves catalog reads scoped by the caller's access surface.
type CourseService struct {
	courses courseCatalogRepo
	access  *AccessService
	logger  *zap.Logger
}

// NewCourseService creates a service instance.
func NewCourseService(courses courseCatalogRepo, access *AccessService, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{courses: courses, access: access, logger: logger}
}

// Catalog lists the courses the caller may reach. Admins see everything.
func (s *CourseService) Catalog(ctx context.Context, userID string) ([]models.Course, error) {
	ids, allAccess, err := s.access.AccessibleCourseIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if allAccess {
		courses, err := s.courses.List(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
		}
		return courses, nil
	}
	if len(ids) == 0 {
		return nil, nil
	}
	courses, err := s.courses.ListByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// Get returns course detail with coordinators, refusing callers outside the
// course's access surface.
func (s *CourseService) Get(ctx context.Context, userID, courseID string) (*models.CourseDetail, []models.UserRef, error) {
	allowed, err := s.access.CanAccessCourse(ctx, userID, courseID)
	if err != nil {
		return nil, nil, err
	}
	if !allowed {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "you do not have access to this course")
	}
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	coordinators, err := s.courses.ListCoordinators(ctx, courseID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list coordinators")
	}
	return course, coordinators, nil
}
