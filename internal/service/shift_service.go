package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"example.com/fleetops/services/scheduler/internal/models"
	"example.com/fleetops/services/scheduler/internal/repository"
	"example.com/fleetops/services/scheduler/internal/utils"
	"example.com/fleetops/services/scheduler/internal/validation"
)

// AssignShiftRequest defines the request to assign a single shift. Either a
// template or an explicit start/end time pair must be given.
type AssignShiftRequest struct {
	DriverID    uuid.UUID  `json:"driver_id" validate:"required"`
	VehicleID   *uuid.UUID `json:"vehicle_id"`
	ShiftDate   string     `json:"shift_date" validate:"required"`
	TemplateID  *uuid.UUID `json:"template_id"`
	StartTime   string     `json:"start_time"`
	EndTime     string     `json:"end_time"`
	IsRecurring bool       `json:"is_recurring"`
	Notes       string     `json:"notes"`
	CreatedBy   string     `json:"-"`
}

// UpdateShiftRequest defines the request to update an existing shift
type UpdateShiftRequest struct {
	DriverID   *uuid.UUID `json:"driver_id"`
	VehicleID  *uuid.UUID `json:"vehicle_id"`
	ShiftDate  string     `json:"shift_date"`
	TemplateID *uuid.UUID `json:"template_id"`
	StartTime  string     `json:"start_time"`
	EndTime    string     `json:"end_time"`
	Notes      *string    `json:"notes"`
}

// shiftWindow is a resolved time window plus the type it was stamped with
type shiftWindow struct {
	start     time.Time
	end       time.Time
	shiftType models.ShiftType
}

// resolveWindow resolves a template or explicit times against a date
func (s *service) resolveWindow(ctx context.Context, date time.Time, templateID *uuid.UUID, startTime, endTime string) (*shiftWindow, error) {
	if templateID != nil {
		template, err := s.templateRepo.GetByID(ctx, *templateID)
		if err != nil {
			return nil, err
		}
		if !template.IsActive {
			return nil, ErrInactiveTemplate
		}
		start, end, err := combineTimes(date, template.StartTime, template.EndTime)
		if err != nil {
			return nil, err
		}
		return &shiftWindow{start: start, end: end, shiftType: models.ShiftTypeFromTemplateCode(template.Code)}, nil
	}

	if startTime == "" || endTime == "" {
		return nil, errors.Wrap(ErrInvalidArgument, "either template_id or start_time and end_time are required")
	}
	start, end, err := combineTimes(date, startTime, endTime)
	if err != nil {
		return nil, err
	}
	return &shiftWindow{start: start, end: end, shiftType: models.ShiftTypeCustom}, nil
}

// resolveVehicle falls back to the driver's default assigned vehicle when the
// request names none.
func (s *service) resolveVehicle(ctx context.Context, driverID uuid.UUID, vehicleID *uuid.UUID) (uuid.UUID, error) {
	if vehicleID != nil && *vehicleID != uuid.Nil {
		return *vehicleID, nil
	}

	driver, err := s.cachedDriver(ctx, driverID)
	if err != nil {
		return uuid.Nil, err
	}
	if driver.AssignedVehicleID == nil {
		return uuid.Nil, ErrNoVehicle
	}
	return *driver.AssignedVehicleID, nil
}

// cachedDriver reads a driver through the cache when one is configured
func (s *service) cachedDriver(ctx context.Context, id uuid.UUID) (*models.Driver, error) {
	if s.cache != nil {
		if driver, err := s.cache.GetDriver(ctx, id); err == nil {
			return driver, nil
		}
	}

	driver, err := s.refRepo.GetDriver(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetDriver(ctx, driver); err != nil {
			s.log.WithError(err).Warn("Failed to cache driver")
		}
	}
	return driver, nil
}

// loadContention loads every shift that could conflict with the draft: the
// driver's shifts and the vehicle's shifts on the draft's date.
func loadContention(ctx context.Context, repo repository.ShiftRepository, draft validation.ShiftDraft) ([]models.Shift, error) {
	driverShifts, err := repo.FindForDriverOnDate(ctx, draft.DriverID, draft.ShiftDate)
	if err != nil {
		return nil, err
	}
	vehicleShifts, err := repo.FindForVehicleOnDate(ctx, draft.VehicleID, draft.ShiftDate)
	if err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]bool, len(driverShifts))
	merged := make([]models.Shift, 0, len(driverShifts)+len(vehicleShifts))
	for _, shift := range driverShifts {
		seen[shift.ID] = true
		merged = append(merged, shift)
	}
	for _, shift := range vehicleShifts {
		if !seen[shift.ID] {
			merged = append(merged, shift)
		}
	}
	return merged, nil
}

// writeValidated runs the validate+write unit for one shift under the keyed
// locks and a repository transaction. A write that loses to a concurrent
// writer is retried once with re-validation before the conflict is surfaced.
func (s *service) writeValidated(ctx context.Context, draft validation.ShiftDraft, check validation.CheckFunc, write func(txRepo repository.ShiftRepository) error) error {
	release := s.locks.acquire(
		driverDateKey(draft.DriverID, draft.ShiftDate),
		vehicleDateKey(draft.VehicleID, draft.ShiftDate),
	)
	defer release()

	attempt := func() error {
		return s.shiftRepo.WithTransaction(ctx, func(txRepo repository.ShiftRepository) error {
			existing, err := loadContention(ctx, txRepo, draft)
			if err != nil {
				return err
			}
			if conflict := check(draft, existing); conflict != nil {
				return conflict
			}
			return write(txRepo)
		})
	}

	err := attempt()
	if err == nil {
		return nil
	}

	var conflict *validation.Conflict
	if errors.As(err, &conflict) || errors.Is(err, repository.ErrNotFound) {
		return err
	}

	// Lost a write race to a concurrent transaction; re-validate once.
	s.log.WithError(err).Warn("Shift write failed, retrying with re-validation")
	return attempt()
}

// AssignShift validates and creates a single pending shift
func (s *service) AssignShift(ctx context.Context, req *AssignShiftRequest) (*models.Shift, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	date, err := parseDate(req.ShiftDate)
	if err != nil {
		return nil, err
	}

	vehicleID, err := s.resolveVehicle(ctx, req.DriverID, req.VehicleID)
	if err != nil {
		return nil, err
	}

	window, err := s.resolveWindow(ctx, date, req.TemplateID, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	shift := &models.Shift{
		DriverID:    req.DriverID,
		VehicleID:   vehicleID,
		ShiftDate:   date,
		StartTime:   window.start,
		EndTime:     window.end,
		ShiftType:   window.shiftType,
		Status:      models.ShiftStatusPending,
		IsRecurring: req.IsRecurring,
		Notes:       req.Notes,
		CreatedBy:   req.CreatedBy,
	}
	if req.IsRecurring {
		pattern := models.RecurrenceDaily
		shift.RecurrencePattern = &pattern
	}

	draft := validation.ShiftDraft{
		DriverID:  shift.DriverID,
		VehicleID: shift.VehicleID,
		ShiftDate: shift.ShiftDate,
		StartTime: shift.StartTime,
		EndTime:   shift.EndTime,
	}

	err = s.writeValidated(ctx, draft, validation.CheckShift, func(txRepo repository.ShiftRepository) error {
		_, err := txRepo.Create(ctx, shift)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(map[string]interface{}{
		"shift_id":  shift.ID,
		"driver_id": shift.DriverID,
		"date":      shift.ShiftDate.Format(DateFormat),
	}).Info("Shift assigned")

	return shift, nil
}

// UpdateShift re-validates and saves changes to an existing shift. The
// shift's own row is excluded from conflict checks.
func (s *service) UpdateShift(ctx context.Context, id uuid.UUID, req *UpdateShiftRequest) (*models.Shift, error) {
	shift, err := s.shiftRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if shift.Status.IsTerminal() {
		return nil, ErrInvalidTransition
	}

	if req.DriverID != nil {
		shift.DriverID = *req.DriverID
	}
	if req.VehicleID != nil {
		shift.VehicleID = *req.VehicleID
	}
	if req.ShiftDate != "" {
		date, err := parseDate(req.ShiftDate)
		if err != nil {
			return nil, err
		}
		shift.ShiftDate = date
	}
	if req.TemplateID != nil || req.StartTime != "" {
		window, err := s.resolveWindow(ctx, shift.ShiftDate, req.TemplateID, req.StartTime, req.EndTime)
		if err != nil {
			return nil, err
		}
		shift.StartTime = window.start
		shift.EndTime = window.end
		shift.ShiftType = window.shiftType
	} else if req.ShiftDate != "" {
		// Date moved without new times: carry the time-of-day window over.
		start, end, err := combineTimes(shift.ShiftDate, shift.StartTime.Format(TimeFormat), shift.EndTime.Format(TimeFormat))
		if err != nil {
			return nil, err
		}
		shift.StartTime = start
		shift.EndTime = end
	}
	if req.Notes != nil {
		shift.Notes = *req.Notes
	}
	shift.Driver = nil
	shift.Vehicle = nil

	draft := validation.ShiftDraft{
		ShiftID:   &shift.ID,
		DriverID:  shift.DriverID,
		VehicleID: shift.VehicleID,
		ShiftDate: shift.ShiftDate,
		StartTime: shift.StartTime,
		EndTime:   shift.EndTime,
	}

	err = s.writeValidated(ctx, draft, validation.CheckShift, func(txRepo repository.ShiftRepository) error {
		_, err := txRepo.Update(ctx, shift)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField("shift_id", shift.ID).Info("Shift updated")
	return shift, nil
}

// DeleteShift removes a shift
func (s *service) DeleteShift(ctx context.Context, id uuid.UUID) error {
	if err := s.shiftRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.WithField("shift_id", id).Info("Shift deleted")
	return nil
}

// GetShift gets a shift by ID with the lazy expiry view applied
func (s *service) GetShift(ctx context.Context, id uuid.UUID) (*models.Shift, error) {
	shift, err := s.shiftRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	shift.Status = effectiveStatus(shift, time.Now())
	return shift, nil
}
