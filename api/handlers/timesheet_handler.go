package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"example.com/fleetops/services/scheduler/internal/service"
)

// TimesheetHandler serves the driver x date grid projection
type TimesheetHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewTimesheetHandler creates a new TimesheetHandler instance
func NewTimesheetHandler(svc service.Service, log *logrus.Logger) *TimesheetHandler {
	return &TimesheetHandler{
		service: svc,
		log:     log,
	}
}

// GetTimesheet builds the grid for a date range, optionally for one driver
func (h *TimesheetHandler) GetTimesheet(c *gin.Context) {
	start, err := time.Parse(service.DateFormat, c.Query("start_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid or missing start_date",
		})
		return
	}
	end, err := time.Parse(service.DateFormat, c.Query("end_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid or missing end_date",
		})
		return
	}
	if end.Before(start) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "end_date must not be before start_date",
		})
		return
	}

	var driverID *uuid.UUID
	if filter := c.Query("driver_id"); filter != "" {
		id, err := uuid.Parse(filter)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid driver_id",
			})
			return
		}
		driverID = &id
	}

	grid, err := h.service.BuildGrid(c.Request.Context(), start, end, driverID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, grid)
}
