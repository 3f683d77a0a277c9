package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/applicationadmin-sgt/sgtu-lms-api/internal/service"
	appErrors "github.com/applicationadmin-sgt/sgtu-lms-api/pkg/errors"
	"github.com/applicationadmin-sgt/sgtu-lms-api/pkg/export"
	"github.com/applicationadmin-sgt/sgtu-lms-api/pkg/response"
)

// SectionHandler exposes section administration and roster endpoints.
type SectionHandler struct {
	sections    *service.SectionService
	memberships *service.MembershipService
}

// NewSectionHandler constructs SectionHandler.
func NewSectionHandler(sections *service.SectionService, memberships *service.MembershipService) *SectionHandler {
	return &SectionHandler{sections: sections, memberships: memberships}
}

// Get godoc
// @Summary Get section detail
// @Tags Sections
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Router /sections/{id} [get]
func (h *SectionHandler) Get(c *gin.Context) {
	detail, err := h.sections.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// AttachCourse godoc
// @Summary Attach a course to a section
// @Tags Sections
// @Produce json
// @Param id path string true "Section ID"
// @Param courseId path string true "Course ID"
// @Success 204
// @Router /sections/{id}/courses/{courseId} [put]
func (h *SectionHandler) AttachCourse(c *gin.Context) {
	if err := h.sections.AttachCourse(c.Request.Context(), c.Param("id"), c.Param("courseId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DetachCourse godoc
// @Summary Detach a course from a section
// @Tags Sections
// @Produce json
// @Param id path string true "Section ID"
// @Param courseId path string true "Course ID"
// @Success 204
// @Router /sections/{id}/courses/{courseId} [delete]
func (h *SectionHandler) DetachCourse(c *gin.Context) {
	if err := h.sections.DetachCourse(c.Request.Context(), c.Param("id"), c.Param("courseId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Roster godoc
// @Summary List section members
// @Tags Sections
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Router /sections/{id}/students [get]
func (h *SectionHandler) Roster(c *gin.Context) {
	roster, err := h.memberships.Roster(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil)
}

// ExportRoster godoc
// @Summary Export section roster as CSV
// @Tags Sections
// @Produce text/csv
// @Param id path string true "Section ID"
// @Success 200 {file} file
// @Router /sections/{id}/students/export [get]
func (h *SectionHandler) ExportRoster(c *gin.Context) {
	roster, err := h.memberships.Roster(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	dataset := export.Dataset{Headers: []string{"student_id", "full_name", "email", "joined_at"}}
	for _, entry := range roster {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"student_id": entry.StudentID,
			"full_name":  entry.FullName,
			"email":      entry.Email,
			"joined_at":  entry.JoinedAt.Format("2006-01-02"),
		})
	}

	payload, err := export.NewCSVExporter().Render(dataset)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster export"))
		return
	}

	filename := fmt.Sprintf("roster-%s.csv", c.Param("id"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Data(http.StatusOK, "text/csv", payload)
}

// AssignStudents godoc
// @Summary Enroll students into a section
// @Description Bulk enrollment; students already in the section are skipped,
// @Description a cross-section conflict aborts the whole batch.
// @Tags Sections
// @Accept json
// @Produce json
// @Param id path string true "Section ID"
// @Param payload body service.AssignStudentsRequest true "Student IDs"
// @Success 204
// @Router /sections/{id}/students [post]
func (h *SectionHandler) AssignStudents(c *gin.Context) {
	var req service.AssignStudentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.memberships.AssignStudents(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AssignStudent godoc
// @Summary Enroll a single student into a section
// @Tags Sections
// @Produce json
// @Param id path string true "Section ID"
// @Param studentId path string true "Student ID"
// @Success 204
// @Router /sections/{id}/students/{studentId} [put]
func (h *SectionHandler) AssignStudent(c *gin.Context) {
	if err := h.memberships.AssignStudent(c.Request.Context(), c.Param("id"), c.Param("studentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RemoveStudent godoc
// @Summary Remove a student from a section
// @Tags Sections
// @Produce json
// @Param id path string true "Section ID"
// @Param studentId path string true "Student ID"
// @Success 204
// @Router /sections/{id}/students/{studentId} [delete]
func (h *SectionHandler) RemoveStudent(c *gin.Context) {
	if err := h.memberships.RemoveStudent(c.Request.Context(), c.Param("id"), c.Param("studentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CurrentSection godoc
// @Summary Resolve a student's current section
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/section [get]
func (h *SectionHandler) CurrentSection(c *gin.Context) {
	section, err := h.memberships.CurrentSection(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, section, nil)
}
