package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"example.com/fleetops/services/scheduler/api/middleware"
	"example.com/fleetops/services/scheduler/internal/service"
)

// ShiftHandler handles single-shift requests
type ShiftHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewShiftHandler creates a new ShiftHandler instance
func NewShiftHandler(svc service.Service, log *logrus.Logger) *ShiftHandler {
	return &ShiftHandler{
		service: svc,
		log:     log,
	}
}

// shiftID parses the :id path parameter
func shiftID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid shift ID",
		})
		return uuid.Nil, false
	}
	return id, true
}

// AssignShift handles single shift assignment
func (h *ShiftHandler) AssignShift(c *gin.Context) {
	var req service.AssignShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.WithError(err).Warn("Invalid assign-shift request")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}
	req.CreatedBy = middleware.ActorFromContext(c)

	shift, err := h.service.AssignShift(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, shift)
}

// UpdateShift handles shift updates with re-validation
func (h *ShiftHandler) UpdateShift(c *gin.Context) {
	id, ok := shiftID(c)
	if !ok {
		return
	}

	var req service.UpdateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	shift, err := h.service.UpdateShift(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, shift)
}

// DeleteShift handles shift deletion
func (h *ShiftHandler) DeleteShift(c *gin.Context) {
	id, ok := shiftID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteShift(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetShift handles shift retrieval
func (h *ShiftHandler) GetShift(c *gin.Context) {
	id, ok := shiftID(c)
	if !ok {
		return
	}

	shift, err := h.service.GetShift(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, shift)
}

// ApproveShift handles EIC approval of a pending shift
func (h *ShiftHandler) ApproveShift(c *gin.Context) {
	id, ok := shiftID(c)
	if !ok {
		return
	}

	shift, err := h.service.ApproveShift(c.Request.Context(), id, middleware.ActorFromContext(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, shift)
}

// RejectShift handles EIC rejection of a pending shift
func (h *ShiftHandler) RejectShift(c *gin.Context) {
	id, ok := shiftID(c)
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	shift, err := h.service.RejectShift(c.Request.Context(), id, middleware.ActorFromContext(c), req.Reason)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, shift)
}
