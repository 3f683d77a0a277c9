package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/applicationadmin-sgt/sgtu-lms-api/internal/service"
	appErrors "github.com/applicationadmin-sgt/sgtu-lms-api/pkg/errors"
	"github.com/applicationadmin-sgt/sgtu-lms-api/pkg/response"
)

// AssignmentHandler exposes teacher assignment endpoints.
type AssignmentHandler struct {
	assignments *service.AssignmentService
}

// NewAssignmentHandler constructs AssignmentHandler.
func NewAssignmentHandler(assignments *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

// Assign godoc
// @Summary Assign a teacher to a course within a section
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Section ID"
// @Param payload body service.AssignTeacherRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Router /sections/{id}/assignments [post]
func (h *AssignmentHandler) Assign(c *gin.Context) {
	var req service.AssignTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	result, err := h.assignments.Assign(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.AlreadyAssigned {
		response.JSON(c, http.StatusOK, result, nil)
		return
	}
	response.Created(c, result)
}

// Remove godoc
// @Summary Remove an active teacher assignment
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Section ID"
// @Param payload body service.RemoveTeacherRequest true "Removal payload"
// @Success 204
// @Router /sections/{id}/assignments [delete]
func (h *AssignmentHandler) Remove(c *gin.Context) {
	var req service.RemoveTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.assignments.Remove(c.Request.Context(), c.Param("id"), req, claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListForSection godoc
// @Summary List a section's active assignments
// @Tags Assignments
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Router /sections/{id}/assignments [get]
func (h *AssignmentHandler) ListForSection(c *gin.Context) {
	assignments, err := h.assignments.ListForSection(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// ListForTeacher godoc
// @Summary List a teacher's sections and courses
// @Description Unions whole-section authority with course-specific assignments.
// @Tags Assignments
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/assignments [get]
func (h *AssignmentHandler) ListForTeacher(c *gin.Context) {
	assignments, err := h.assignments.ListForTeacher(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}
