package routes

import (
	"example.com/fleetops/services/scheduler/api/handlers"
	"example.com/fleetops/services/scheduler/api/middleware"
	"example.com/fleetops/services/scheduler/internal/models"
	"example.com/fleetops/services/scheduler/internal/repository"
	"example.com/fleetops/services/scheduler/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SetupRoutes sets up all the routes for the server
func SetupRoutes(r *gin.Engine, svc service.Service, refRepo repository.ReferenceRepository, log *logrus.Logger) {
	// Health check
	r.GET("/health", handlers.HealthCheck)

	// API routes
	api := r.Group("/api/v1")

	viewer := middleware.APIKeyAuth(refRepo, log, models.ViewerAuthLevel)
	dispatcher := middleware.APIKeyAuth(refRepo, log, models.DispatcherAuthLevel)
	approver := middleware.APIKeyAuth(refRepo, log, models.ApproverAuthLevel)
	sudo := middleware.APIKeyAuth(refRepo, log, models.SudoAuthLevel)

	// Shift routes
	shiftHandler := handlers.NewShiftHandler(svc, log)
	shifts := api.Group("/shifts")
	{
		shifts.POST("", dispatcher, shiftHandler.AssignShift)
		shifts.GET("/:id", viewer, shiftHandler.GetShift)
		shifts.PUT("/:id", dispatcher, shiftHandler.UpdateShift)
		shifts.DELETE("/:id", dispatcher, shiftHandler.DeleteShift)

		// Approval decisions, restricted to the engineer-in-charge level
		shifts.POST("/:id/approve", approver, shiftHandler.ApproveShift)
		shifts.POST("/:id/reject", approver, shiftHandler.RejectShift)
	}

	// Bulk operation routes
	bulkHandler := handlers.NewBulkHandler(svc, log)
	bulk := api.Group("/shifts/bulk")
	{
		bulk.POST("/fill-week", dispatcher, bulkHandler.FillWeek)
		bulk.POST("/fill-month", dispatcher, bulkHandler.FillMonth)
		bulk.POST("/copy-week", dispatcher, bulkHandler.CopyWeek)
		bulk.POST("/clear-week", dispatcher, bulkHandler.ClearWeek)
		bulk.POST("/approve", approver, bulkHandler.BulkApprove)
	}

	// Timesheet grid
	timesheetHandler := handlers.NewTimesheetHandler(svc, log)
	api.GET("/timesheet", viewer, timesheetHandler.GetTimesheet)

	// Template routes
	templateHandler := handlers.NewTemplateHandler(svc, log)
	templates := api.Group("/templates")
	{
		templates.GET("", viewer, templateHandler.ListTemplates)
		templates.GET("/active", viewer, templateHandler.ListActiveTemplates)
		templates.GET("/:id", viewer, templateHandler.GetTemplate)
		templates.POST("", sudo, templateHandler.CreateTemplate)
		templates.PUT("/:id", sudo, templateHandler.UpdateTemplate)
		templates.DELETE("/:id", sudo, templateHandler.DeleteTemplate)
	}

	// Reference data routes
	referenceHandler := handlers.NewReferenceHandler(svc, log)
	api.GET("/drivers", viewer, referenceHandler.ListDrivers)
	api.GET("/vehicles", viewer, referenceHandler.ListVehicles)

	sync := api.Group("/sync")
	{
		sync.POST("/drivers", sudo, referenceHandler.SyncDriver)
		sync.POST("/vehicles", sudo, referenceHandler.SyncVehicle)
	}
}
