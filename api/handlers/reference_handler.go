package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"example.com/fleetops/services/scheduler/internal/models"
	"example.com/fleetops/services/scheduler/internal/service"
)

// ReferenceHandler exposes driver and vehicle reference data plus the
// sync endpoints the upstream management services push snapshots to.
type ReferenceHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewReferenceHandler creates a new ReferenceHandler instance
func NewReferenceHandler(svc service.Service, log *logrus.Logger) *ReferenceHandler {
	return &ReferenceHandler{
		service: svc,
		log:     log,
	}
}

func activeOnly(c *gin.Context) bool {
	v, err := strconv.ParseBool(c.DefaultQuery("active_only", "true"))
	if err != nil {
		return true
	}
	return v
}

// ListDrivers returns the known drivers
func (h *ReferenceHandler) ListDrivers(c *gin.Context) {
	drivers, err := h.service.ListDrivers(c.Request.Context(), activeOnly(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, drivers)
}

// ListVehicles returns the known vehicles
func (h *ReferenceHandler) ListVehicles(c *gin.Context) {
	vehicles, err := h.service.ListVehicles(c.Request.Context(), activeOnly(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, vehicles)
}

// SyncDriver upserts a driver snapshot
func (h *ReferenceHandler) SyncDriver(c *gin.Context) {
	var driver models.Driver
	if err := c.ShouldBindJSON(&driver); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	if err := h.service.SyncDriver(c.Request.Context(), &driver); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, driver)
}

// SyncVehicle upserts a vehicle snapshot
func (h *ReferenceHandler) SyncVehicle(c *gin.Context) {
	var vehicle models.Vehicle
	if err := c.ShouldBindJSON(&vehicle); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	if err := h.service.SyncVehicle(c.Request.Context(), &vehicle); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, vehicle)
}
