package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"example.com/fleetops/services/scheduler/internal/repository"
	"example.com/fleetops/services/scheduler/internal/service"
	"example.com/fleetops/services/scheduler/internal/validation"
)

// respondError maps domain errors onto HTTP responses. Validation conflicts
// and transition failures are expected outcomes and carry a structured body;
// anything unmapped is a 500.
func respondError(c *gin.Context, log *logrus.Logger, err error) {
	var conflict *validation.Conflict
	var fieldErrs validator.ValidationErrors
	switch {
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":    "Scheduling conflict",
			"conflict": conflict,
		})
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Shift is not pending",
			"code":  "INVALID_TRANSITION",
		})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Resource not found",
		})
	case errors.As(err, &fieldErrs),
		errors.Is(err, service.ErrInvalidArgument),
		errors.Is(err, service.ErrNoVehicle),
		errors.Is(err, service.ErrInactiveTemplate):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
	default:
		log.WithError(err).Error("Unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}
