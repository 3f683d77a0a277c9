package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/applicationadmin-sgt/sgtu-lms-api/internal/service"
	appErrors "github.com/applicationadmin-sgt/sgtu-lms-api/pkg/errors"
	"github.com/applicationadmin-sgt/sgtu-lms-api/pkg/response"
)

// LockHandler exposes content lock and unlock escalation endpoints.
type LockHandler struct {
	unlocks *service.UnlockService
}

// NewLockHandler constructs LockHandler.
func NewLockHandler(unlocks *service.UnlockService) *LockHandler {
	return &LockHandler{unlocks: unlocks}
}

// Create godoc
// @Summary Create a content lock
// @Tags Locks
// @Accept json
// @Produce json
// @Param payload body service.CreateLockRequest true "Lock payload"
// @Success 201 {object} response.Envelope
// @Router /locks [post]
func (h *LockHandler) Create(c *gin.Context) {
	var req service.CreateLockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	lock, err := h.unlocks.CreateLock(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lock)
}

// Get godoc
// @Summary Get a lock
// @Tags Locks
// @Produce json
// @Param id path string true "Lock ID"
// @Success 200 {object} response.Envelope
// @Router /locks/{id} [get]
func (h *LockHandler) Get(c *gin.Context) {
	lock, err := h.unlocks.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lock, nil)
}

// ListForStudent godoc
// @Summary List a student's locks
// @Tags Locks
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/locks [get]
func (h *LockHandler) ListForStudent(c *gin.Context) {
	locks, err := h.unlocks.ListForStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, locks, nil)
}

// TeacherUnlock godoc
// @Summary Apply a teacher unlock
// @Description Refused with ESCALATION_REQUIRED once the teacher quota is spent.
// @Tags Locks
// @Accept json
// @Produce json
// @Param id path string true "Lock ID"
// @Param payload body service.UnlockRequest true "Unlock reason"
// @Success 200 {object} response.Envelope
// @Router /locks/{id}/teacher-unlock [post]
func (h *LockHandler) TeacherUnlock(c *gin.Context) {
	var req service.UnlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	lock, err := h.unlocks.TeacherUnlock(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lock, nil)
}

// DeanUnlock godoc
// @Summary Apply a dean unlock
// @Tags Locks
// @Accept json
// @Produce json
// @Param id path string true "Lock ID"
// @Param payload body service.UnlockRequest true "Unlock reason"
// @Success 200 {object} response.Envelope
// @Router /locks/{id}/dean-unlock [post]
func (h *LockHandler) DeanUnlock(c *gin.Context) {
	var req service.UnlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	lock, err := h.unlocks.DeanUnlock(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lock, nil)
}
