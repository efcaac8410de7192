package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"example.com/fleetops/services/scheduler/api/middleware"
	"example.com/fleetops/services/scheduler/internal/service"
)

// BulkHandler handles bulk scheduling requests
type BulkHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewBulkHandler creates a new BulkHandler instance
func NewBulkHandler(svc service.Service, log *logrus.Logger) *BulkHandler {
	return &BulkHandler{
		service: svc,
		log:     log,
	}
}

// FillWeek stamps a template across a week for a set of drivers
func (h *BulkHandler) FillWeek(c *gin.Context) {
	var req service.FillWeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}
	req.CreatedBy = middleware.ActorFromContext(c)

	result, err := h.service.FillWeek(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// FillMonth stamps a template across a month for a set of drivers
func (h *BulkHandler) FillMonth(c *gin.Context) {
	var req service.FillMonthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}
	req.CreatedBy = middleware.ActorFromContext(c)

	result, err := h.service.FillMonth(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CopyWeek copies a source week's shifts onto a target week
func (h *BulkHandler) CopyWeek(c *gin.Context) {
	var req service.CopyWeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}
	req.CreatedBy = middleware.ActorFromContext(c)

	result, err := h.service.CopyWeek(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ClearWeek deletes a week's shifts
func (h *BulkHandler) ClearWeek(c *gin.Context) {
	var req service.ClearWeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	result, err := h.service.ClearWeek(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// BulkApprove approves every pending shift in a date range
func (h *BulkHandler) BulkApprove(c *gin.Context) {
	var req service.BulkApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}
	req.Actor = middleware.ActorFromContext(c)

	result, err := h.service.BulkApprove(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
