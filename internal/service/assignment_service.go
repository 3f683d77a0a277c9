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

type assignmentRepo interface {
	FindBySectionCourse(ctx context.Context, sectionID, courseID string) (*models.SectionCourseTeacher, error)
	Create(ctx context.Context, assignment *models.SectionCourseTeacher) error
	Reactivate(ctx context.Context, id string, teacherID, assignedBy, academicYear, semester string, assignedAt time.Time) error
	Deactivate(ctx context.Context, teacherID, sectionID, courseID, removedBy string, removedAt time.Time) error
	ListActiveByTeacher(ctx context.Context, teacherID string) ([]models.SectionAssignmentDetail, error)
	ListActiveBySection(ctx context.Context, sectionID string) ([]models.SectionAssignmentDetail, error)
}

type assignmentSectionReader interface {
	FindByID(ctx context.Context, id string) (*models.Section, error)
	HasCourse(ctx context.Context, sectionID, courseID string) (bool, error)
	ListCourses(ctx context.Context, sectionID string) ([]models.CourseRef, error)
	ListByLegacyTeacher(ctx context.Context, teacherID string) ([]models.SectionRef, error)
}

type assignmentUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	DepartmentName(ctx context.Context, departmentID string) (string, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.CourseDetail, error)
}

type notifier interface {
	Notify(recipientID, message string, data map[string]interface{})
}

// AssignTeacherRequest describes the assign payload.
type AssignTeacherRequest struct {
	CourseID     string `json:"course_id" validate:"required"`
	TeacherID    string `json:"teacher_id" validate:"required"`
	AcademicYear string `json:"academic_year" validate:"required"`
	Semester     string `json:"semester" validate:"required"`
}

// RemoveTeacherRequest describes the removal payload.
type RemoveTeacherRequest struct {
	CourseID  string `json:"course_id" validate:"required"`
	TeacherID string `json:"teacher_id" validate:"required"`
}

// AssignmentService maintains the one-active-teacher-per-(section,course)
// invariant over the section_course_teachers join table and reconciles the
// legacy whole-section teacher model with it on the read path.
type AssignmentService struct {
	assignments assignmentRepo
	sections    assignmentSectionReader
	courses     courseReader
	users       assignmentUserReader
	cache       *CacheService
	notifier    notifier
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAssignmentService creates a service instance.
func NewAssignmentService(
	assignments assignmentRepo,
	sections assignmentSectionReader,
	courses courseReader,
	users assignmentUserReader,
	cache *CacheService,
	notify notifier,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		assignments: assignments,
		sections:    sections,
		courses:     courses,
		users:       users,
		cache:       cache,
		notifier:    notify,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

// Assign binds a teacher to a course within a section. Re-assigning the same
// teacher is an idempotent no-op; a different active teacher is a conflict the
// caller must remove first; an inactive historical row is reactivated in
// place so the pair's history keeps a single lineage id.
func (s *AssignmentService) Assign(ctx context.Context, sectionID string, req AssignTeacherRequest, assignerID string) (*models.AssignResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	section, err := s.sections.FindByID(ctx, sectionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	attached, err := s.sections.HasCourse(ctx, sectionID, req.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check section courses")
	}
	if !attached {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed,
			fmt.Sprintf("course %s is not offered by section %s", course.Title, section.Name))
	}

	teacher, err := s.users.FindByID(ctx, req.TeacherID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if !teacher.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "teacher account is inactive")
	}
	if !teacher.HasRole(models.RoleTeacher) {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed,
			fmt.Sprintf("user %s does not have the teacher role", teacher.FullName))
	}

	if err := s.ensureDepartmentMatch(ctx, teacher, course); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	result, err := s.upsertAssignment(ctx, sectionID, req, assignerID, now)
	if err != nil {
		return nil, err
	}

	if !result.AlreadyAssigned {
		s.invalidateListings(ctx, req.TeacherID, sectionID)
		if s.notifier != nil {
			s.notifier.Notify(req.TeacherID, fmt.Sprintf("You were assigned to %s in section %s", course.Title, section.Name), map[string]interface{}{
				"section_id": sectionID,
				"course_id":  req.CourseID,
			})
		}
	}
	return result, nil
}

func (s *AssignmentService) upsertAssignment(ctx context.Context, sectionID string, req AssignTeacherRequest, assignerID string, now time.Time) (*models.AssignResult, error) {
	existing, err := s.assignments.FindBySectionCourse(ctx, sectionID, req.CourseID)
	if err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up assignment")
	}

	if existing != nil && existing.IsActive {
		if existing.TeacherID == req.TeacherID {
			return &models.AssignResult{Assignment: existing, AlreadyAssigned: true}, nil
		}
		s.metrics.RecordAssignmentConflict()
		return nil, appErrors.Clone(appErrors.ErrConflict,
			"another teacher already holds this course in this section; remove the current assignment first")
	}

	if existing != nil {
		if err := s.assignments.Reactivate(ctx, existing.ID, req.TeacherID, assignerID, req.AcademicYear, req.Semester, now); err != nil {
			// A concurrent assign either reactivated the row or created a
			// fresh active one; both mean the racer lost.
			if err == sql.ErrNoRows || repository.IsUniqueViolation(err, repository.ConstraintActiveAssignment) {
				return nil, appErrors.Clone(appErrors.ErrConflict,
					"another teacher already holds this course in this section; remove the current assignment first")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reactivate assignment")
		}
		reactivated := *existing
		reactivated.TeacherID = req.TeacherID
		reactivated.AssignedBy = assignerID
		reactivated.AssignedAt = now
		reactivated.AcademicYear = req.AcademicYear
		reactivated.Semester = req.Semester
		reactivated.IsActive = true
		reactivated.RemovedAt = nil
		reactivated.RemovedBy = nil
		return &models.AssignResult{Assignment: &reactivated, Reactivated: true}, nil
	}

	assignment := &models.SectionCourseTeacher{
		SectionID:    sectionID,
		CourseID:     req.CourseID,
		TeacherID:    req.TeacherID,
		AssignedBy:   assignerID,
		AssignedAt:   now,
		AcademicYear: req.AcademicYear,
		Semester:     req.Semester,
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		if repository.IsUniqueViolation(err, repository.ConstraintActiveAssignment) {
			return nil, appErrors.Clone(appErrors.ErrConflict,
				"another teacher already holds this course in this section; remove the current assignment first")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	return &models.AssignResult{Assignment: assignment}, nil
}

// Remove soft-deletes the active assignment matching teacher, section and
// course, keeping the row for audit history.
func (s *AssignmentService) Remove(ctx context.Context, sectionID string, req RemoveTeacherRequest, removerID string) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid removal payload")
	}

	if err := s.assignments.Deactivate(ctx, req.TeacherID, sectionID, req.CourseID, removerID, time.Now().UTC()); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "no active assignment matches this teacher, section and course")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove assignment")
	}

	s.invalidateListings(ctx, req.TeacherID, sectionID)
	if s.notifier != nil {
		s.notifier.Notify(req.TeacherID, "One of your course assignments was removed", map[string]interface{}{
			"section_id": sectionID,
			"course_id":  req.CourseID,
		})
	}
	return nil
}

// ListForTeacher returns the teacher's full assignment surface: sections held
// via the legacy direct model (authority over every course in the section)
// unioned with active course-specific rows, merged by section with courses
// de-duplicated by id. A section reached both ways keeps the direct tag since
// that is the broader scope.
func (s *AssignmentService) ListForTeacher(ctx context.Context, teacherID string) ([]models.TeacherSectionAssignments, error) {
	if _, err := s.users.FindByID(ctx, teacherID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	cacheKey := teacherAssignmentsCacheKey(teacherID)
	if s.cache.Enabled() {
		var cached []models.TeacherSectionAssignments
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return cached, nil
		}
	}

	legacySections, err := s.sections.ListByLegacyTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list direct sections")
	}

	var result []models.TeacherSectionAssignments
	bySection := make(map[string]int)
	for _, ref := range legacySections {
		courses, err := s.sections.ListCourses(ctx, ref.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list section courses")
		}
		bySection[ref.ID] = len(result)
		result = append(result, models.TeacherSectionAssignments{
			Section:        ref,
			AssignmentType: models.AssignmentTypeDirect,
			Courses:        courses,
		})
	}

	rows, err := s.assignments.ListActiveByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	for _, row := range rows {
		course := models.CourseRef{ID: row.CourseID, Title: row.CourseTitle, Code: row.CourseCode}
		if idx, ok := bySection[row.SectionID]; ok {
			result[idx].Courses = mergeCourse(result[idx].Courses, course)
			continue
		}
		bySection[row.SectionID] = len(result)
		result = append(result, models.TeacherSectionAssignments{
			Section:        models.SectionRef{ID: row.SectionID, Name: row.SectionName},
			AssignmentType: models.AssignmentTypeCourseSpecific,
			Courses:        []models.CourseRef{course},
		})
	}

	if s.cache.Enabled() {
		_ = s.cache.Set(ctx, cacheKey, result, 0)
	}
	return result, nil
}

// ListForSection returns the section's current active assignments.
func (s *AssignmentService) ListForSection(ctx context.Context, sectionID string) ([]models.SectionAssignmentDetail, error) {
	if _, err := s.sections.FindByID(ctx, sectionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	assignments, err := s.assignments.ListActiveBySection(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

func (s *AssignmentService) ensureDepartmentMatch(ctx context.Context, teacher *models.User, course *models.CourseDetail) error {
	// Permissive when either side has no department: absence means no
	// constraint, not a mismatch.
	if teacher.DepartmentID == nil || *teacher.DepartmentID == "" || course.DepartmentID == "" {
		return nil
	}
	if *teacher.DepartmentID == course.DepartmentID {
		return nil
	}
	teacherDept, err := s.users.DepartmentName(ctx, *teacher.DepartmentID)
	if err != nil && err != sql.ErrNoRows {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher department")
	}
	return appErrors.Clone(appErrors.ErrDepartmentMismatch,
		fmt.Sprintf("teacher belongs to department %q but course %s belongs to department %q", teacherDept, course.Title, course.DepartmentName))
}

func (s *AssignmentService) invalidateListings(ctx context.Context, teacherID, sectionID string) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, teacherAssignmentsCacheKey(teacherID)); err != nil {
		s.logger.Warn("failed to invalidate teacher listing cache", zap.String("teacher_id", teacherID), zap.Error(err))
	}
	if err := s.cache.Invalidate(ctx, sectionAssignmentsCacheKey(sectionID)); err != nil {
		s.logger.Warn("failed to invalidate section listing cache", zap.String("section_id", sectionID), zap.Error(err))
	}
}

func mergeCourse(courses []models.CourseRef, course models.CourseRef) []models.CourseRef {
	for _, existing := range courses {
		if existing.ID == course.ID {
			return courses
		}
	}
	return append(courses, course)
}

func teacherAssignmentsCacheKey(teacherID string) string {
	return "assignments:teacher:" + teacherID
}

func sectionAssignmentsCacheKey(sectionID string) string {
	return "assignments:section:" + sectionID
}
