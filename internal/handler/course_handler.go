package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/applicationadmin-sgt/sgtu-lms-api/internal/service"
	appErrors "github.com/applicationadmin-sgt/sgtu-lms-api/pkg/errors"
	"github.com/applicationadmin-sgt/sgtu-lms-api/pkg/response"
)

// CourseHandler exposes catalog read endpoints scoped to the caller's reach.
type CourseHandler struct {
	courses *service.CourseService
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(courses *service.CourseService) *CourseHandler {
	return &CourseHandler{courses: courses}
}

// Catalog godoc
// @Summary List accessible courses
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) Catalog(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	courses, err := h.courses.Catalog(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// Get godoc
// @Summary Get course detail with coordinators
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	course, coordinators, err := h.courses.Get(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"course": course, "coordinators": coordinators}, nil)
}
