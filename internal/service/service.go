package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"example.com/fleetops/services/scheduler/internal/cache"
	"example.com/fleetops/services/scheduler/internal/messaging"
	"example.com/fleetops/services/scheduler/internal/models"
	"example.com/fleetops/services/scheduler/internal/repository"
	"example.com/fleetops/services/scheduler/internal/search"
)

// Common service errors
var (
	// ErrInvalidTransition is returned for approve/reject on a non-pending shift
	ErrInvalidTransition = errors.New("invalid shift status transition")
	// ErrInactiveTemplate is returned when stamping from a deactivated template
	ErrInactiveTemplate = errors.New("shift template is not active")
	// ErrNoVehicle is returned when a driver has no vehicle for an assignment
	ErrNoVehicle = errors.New("no vehicle assigned to driver")
	// ErrInvalidArgument is returned for malformed dates, times, and fields
	ErrInvalidArgument = errors.New("invalid argument")
)

// Wire formats for dates and times of day
const (
	DateFormat = "2006-01-02"
	TimeFormat = "15:04"
)

// DefaultRejectionReason is stored when a rejection arrives without a reason.
const DefaultRejectionReason = "Rejected by EIC"

// Service defines the scheduling business logic operations
type Service interface {
	// Shift operations
	AssignShift(ctx context.Context, req *AssignShiftRequest) (*models.Shift, error)
	UpdateShift(ctx context.Context, id uuid.UUID, req *UpdateShiftRequest) (*models.Shift, error)
	DeleteShift(ctx context.Context, id uuid.UUID) error
	GetShift(ctx context.Context, id uuid.UUID) (*models.Shift, error)

	// Approval state machine
	ApproveShift(ctx context.Context, id uuid.UUID, actor string) (*models.Shift, error)
	RejectShift(ctx context.Context, id uuid.UUID, actor, reason string) (*models.Shift, error)
	BulkApprove(ctx context.Context, req *BulkApproveRequest) (*BulkApproveResult, error)

	// Bulk scheduling
	FillWeek(ctx context.Context, req *FillWeekRequest) (*BulkResult, error)
	FillMonth(ctx context.Context, req *FillMonthRequest) (*BulkResult, error)
	CopyWeek(ctx context.Context, req *CopyWeekRequest) (*BulkResult, error)
	ClearWeek(ctx context.Context, req *ClearWeekRequest) (*ClearWeekResult, error)

	// Timesheet projection
	BuildGrid(ctx context.Context, start, end time.Time, driverID *uuid.UUID) (*TimesheetGrid, error)

	// Template administration
	CreateTemplate(ctx context.Context, req *TemplateRequest) (*models.ShiftTemplate, error)
	UpdateTemplate(ctx context.Context, id uuid.UUID, req *TemplateRequest) (*models.ShiftTemplate, error)
	DeleteTemplate(ctx context.Context, id uuid.UUID) error
	GetTemplate(ctx context.Context, id uuid.UUID) (*models.ShiftTemplate, error)
	ListTemplates(ctx context.Context) ([]models.ShiftTemplate, error)
	ActiveTemplates(ctx context.Context) ([]models.ShiftTemplate, error)

	// Reference data read models
	ListDrivers(ctx context.Context, activeOnly bool) ([]models.Driver, error)
	ListVehicles(ctx context.Context, activeOnly bool) ([]models.Vehicle, error)
	SyncDriver(ctx context.Context, driver *models.Driver) error
	SyncVehicle(ctx context.Context, vehicle *models.Vehicle) error

	// Expiry sweep for pending shifts whose date has passed
	SweepExpired(ctx context.Context) (int64, error)

	// Trip execution event intake
	ProcessTripEvent(ctx context.Context, body []byte) error
}

// service is an implementation of the Service interface
type service struct {
	shiftRepo    repository.ShiftRepository
	templateRepo repository.TemplateRepository
	refRepo      repository.ReferenceRepository
	cache        cache.CacheClient
	bus          messaging.ServiceBusClient
	esClient     *search.ElasticClient
	log          *logrus.Logger
	locks        *keyedLocks
}

// ServiceConfig holds the dependencies for the service
type ServiceConfig struct {
	ShiftRepository    repository.ShiftRepository
	TemplateRepository repository.TemplateRepository
	ReferenceRepo      repository.ReferenceRepository
	Cache              cache.CacheClient
	MessagingClient    messaging.ServiceBusClient
	ElasticClient      *search.ElasticClient
	Logger             *logrus.Logger
}

// NewService creates a new service instance
func NewService(cfg ServiceConfig) (Service, error) {
	if cfg.ShiftRepository == nil {
		return nil, errors.New("shift repository is required")
	}
	if cfg.TemplateRepository == nil {
		return nil, errors.New("template repository is required")
	}
	if cfg.ReferenceRepo == nil {
		return nil, errors.New("reference repository is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	return &service{
		shiftRepo:    cfg.ShiftRepository,
		templateRepo: cfg.TemplateRepository,
		refRepo:      cfg.ReferenceRepo,
		cache:        cfg.Cache,
		bus:          cfg.MessagingClient,
		esClient:     cfg.ElasticClient,
		log:          cfg.Logger,
		locks:        newKeyedLocks(),
	}, nil
}

// parseDate parses a wire-format calendar date
func parseDate(value string) (time.Time, error) {
	date, err := time.Parse(DateFormat, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, expected %s", ErrInvalidArgument, value, DateFormat)
	}
	return models.DateOnly(date), nil
}

// combineTimes resolves HH:MM times of day against a calendar date. An end
// time at or before the start rolls over to the next day (night shifts).
func combineTimes(date time.Time, startOfDay, endOfDay string) (time.Time, time.Time, error) {
	start, err := time.Parse(TimeFormat, startOfDay)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid start time %q, expected %s", ErrInvalidArgument, startOfDay, TimeFormat)
	}
	end, err := time.Parse(TimeFormat, endOfDay)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid end time %q, expected %s", ErrInvalidArgument, endOfDay, TimeFormat)
	}

	day := models.DateOnly(date)
	startAt := day.Add(time.Duration(start.Hour())*time.Hour + time.Duration(start.Minute())*time.Minute)
	endAt := day.Add(time.Duration(end.Hour())*time.Hour + time.Duration(end.Minute())*time.Minute)
	if !endAt.After(startAt) {
		endAt = endAt.Add(24 * time.Hour)
	}
	return startAt, endAt, nil
}

// effectiveStatus applies the lazy expiry view: a pending shift whose date has
// passed reads as expired even before the sweep persists it.
func effectiveStatus(shift *models.Shift, now time.Time) models.ShiftStatus {
	if shift.Status == models.ShiftStatusPending && shift.ShiftDate.Before(models.DateOnly(now)) {
		return models.ShiftStatusExpired
	}
	return shift.Status
}
