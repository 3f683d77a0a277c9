package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/applicationadmin-sgt/sgtu-lms-api/internal/models"
	"github.com/applicationadmin-sgt/sgtu-lms-api/internal/service"
	appErrors "github.com/applicationadmin-sgt/sgtu-lms-api/pkg/errors"
	"github.com/applicationadmin-sgt/sgtu-lms-api/pkg/response"
)

// AccessHandler exposes access resolution endpoints.
type AccessHandler struct {
	access *service.AccessService
}

// NewAccessHandler constructs AccessHandler.
func NewAccessHandler(access *service.AccessService) *AccessHandler {
	return &AccessHandler{access: access}
}

// accessSubject resolves whose access is being asked about. Admins may ask
// about any user through the user_id query parameter; everyone else only
// about themselves.
func accessSubject(c *gin.Context) (string, error) {
	claims := claimsFromContext(c)
	if claims == nil {
		return "", appErrors.ErrUnauthorized
	}
	if target := c.Query("user_id"); target != "" && target != claims.UserID {
		if !claims.HasRole(models.RoleAdmin) {
			return "", appErrors.Clone(appErrors.ErrForbidden, "only admins can query another user's access")
		}
		return target, nil
	}
	return claims.UserID, nil
}

// CanAccessCourse godoc
// @Summary Check course access
// @Tags Access
// @Produce json
// @Param courseId path string true "Course ID"
// @Param user_id query string false "Subject user (admin only)"
// @Success 200 {object} response.Envelope
// @Router /access/courses/{courseId} [get]
func (h *AccessHandler) CanAccessCourse(c *gin.Context) {
	subject, err := accessSubject(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	allowed, err := h.access.CanAccessCourse(c.Request.Context(), subject, c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"user_id": subject, "course_id": c.Param("courseId"), "allowed": allowed}, nil)
}

// AccessibleCourses godoc
// @Summary List accessible course ids
// @Tags Access
// @Produce json
// @Param user_id query string false "Subject user (admin only)"
// @Success 200 {object} response.Envelope
// @Router /access/courses [get]
func (h *AccessHandler) AccessibleCourses(c *gin.Context) {
	subject, err := accessSubject(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	ids, allAccess, err := h.access.AccessibleCourseIDs(c.Request.Context(), subject)
	if err != nil {
		response.Error(c, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	response.JSON(c, http.StatusOK, gin.H{"user_id": subject, "course_ids": ids, "all_access": allAccess}, nil)
}
