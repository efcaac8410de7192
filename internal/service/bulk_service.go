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

// FillWeekRequest defines the request to stamp one template across a week
type FillWeekRequest struct {
	DriverIDs    []uuid.UUID `json:"driver_ids" validate:"required,min=1"`
	StartDate    string      `json:"start_date" validate:"required"`
	TemplateID   uuid.UUID   `json:"template_id" validate:"required"`
	SkipExisting bool        `json:"skip_existing"`
	CreatedBy    string      `json:"-"`
}

// FillMonthRequest defines the request to stamp one template across a month
type FillMonthRequest struct {
	DriverIDs       []uuid.UUID `json:"driver_ids" validate:"required,min=1"`
	Year            int         `json:"year" validate:"required,min=2000"`
	Month           int         `json:"month" validate:"required,min=1,max=12"`
	TemplateID      uuid.UUID   `json:"template_id" validate:"required"`
	IncludeWeekends bool        `json:"include_weekends"`
	SkipExisting    bool        `json:"skip_existing"`
	CreatedBy       string      `json:"-"`
}

// CopyWeekRequest defines the request to copy a week's shifts to another week
type CopyWeekRequest struct {
	SourceStartDate string `json:"source_start_date" validate:"required"`
	TargetStartDate string `json:"target_start_date" validate:"required"`
	CreatedBy       string `json:"-"`
}

// ClearWeekRequest defines the request to delete a week's shifts
type ClearWeekRequest struct {
	StartDate   string `json:"start_date" validate:"required"`
	OnlyPending bool   `json:"only_pending"`
}

// BulkApproveRequest defines the request to approve all pending shifts in a range
type BulkApproveRequest struct {
	StartDate string     `json:"start_date" validate:"required"`
	EndDate   string     `json:"end_date" validate:"required"`
	DriverID  *uuid.UUID `json:"driver_id"`
	Actor     string     `json:"-"`
}

// BulkItemFailure reports a single failed item of a bulk operation
type BulkItemFailure struct {
	DriverID uuid.UUID `json:"driver_id"`
	Date     string    `json:"date"`
	Reason   string    `json:"reason"`
}

// BulkResult aggregates per-item outcomes of a bulk scheduling operation
type BulkResult struct {
	Created int               `json:"created_count"`
	Skipped int               `json:"skipped_count"`
	Failed  []BulkItemFailure `json:"failed"`
}

// SkippedShift reports a shift passed over by a bulk approval
type SkippedShift struct {
	ShiftID uuid.UUID `json:"shift_id"`
	Reason  string    `json:"reason"`
}

// BulkApproveResult aggregates the outcome of a bulk approval
type BulkApproveResult struct {
	Approved int            `json:"approved_count"`
	Skipped  []SkippedShift `json:"skipped"`
}

// ClearWeekResult reports the outcome of a week clear
type ClearWeekResult struct {
	Deleted int64 `json:"deleted_count"`
}

// errSkipExisting aborts a single bulk item because the slot is already taken
var errSkipExisting = errors.New("shift already exists for driver and date")

// createBulkItem runs the per-item unit of a fill operation: existence check,
// validation, and write, all under the item's keyed locks and transaction.
// Items are independent; a failure here never affects sibling items.
func (s *service) createBulkItem(ctx context.Context, driverID uuid.UUID, date time.Time, window *shiftWindow, skipExisting bool, createdBy string) error {
	vehicleID, err := s.resolveVehicle(ctx, driverID, nil)
	if err != nil {
		return err
	}

	pattern := models.RecurrenceDaily
	shift := &models.Shift{
		DriverID:          driverID,
		VehicleID:         vehicleID,
		ShiftDate:         date,
		StartTime:         window.start,
		EndTime:           window.end,
		ShiftType:         window.shiftType,
		Status:            models.ShiftStatusPending,
		IsRecurring:       true,
		RecurrencePattern: &pattern,
		CreatedBy:         createdBy,
	}

	draft := validation.ShiftDraft{
		DriverID:  driverID,
		VehicleID: vehicleID,
		ShiftDate: date,
		StartTime: window.start,
		EndTime:   window.end,
	}

	release := s.locks.acquire(
		driverDateKey(driverID, date),
		vehicleDateKey(vehicleID, date),
	)
	defer release()

	return s.shiftRepo.WithTransaction(ctx, func(txRepo repository.ShiftRepository) error {
		existing, err := loadContention(ctx, txRepo, draft)
		if err != nil {
			return err
		}

		if skipExisting {
			for _, sh := range existing {
				if sh.DriverID == driverID && sh.Status != models.ShiftStatusRejected && sh.Status != models.ShiftStatusExpired {
					return errSkipExisting
				}
			}
		}

		if conflict := validation.CheckShift(draft, existing); conflict != nil {
			return conflict
		}

		_, err = txRepo.Create(ctx, shift)
		return err
	})
}

// fillDates stamps the template window onto every (driver, date) pair,
// aggregating per-item outcomes. Best effort: one driver's conflict never
// aborts the others.
func (s *service) fillDates(ctx context.Context, driverIDs []uuid.UUID, dates []time.Time, templateID uuid.UUID, skipExisting bool, createdBy string) (*BulkResult, error) {
	template, err := s.templateRepo.GetByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if !template.IsActive {
		return nil, ErrInactiveTemplate
	}

	result := &BulkResult{Failed: []BulkItemFailure{}}
	for _, driverID := range driverIDs {
		for _, date := range dates {
			start, end, err := combineTimes(date, template.StartTime, template.EndTime)
			if err != nil {
				return nil, err
			}
			window := &shiftWindow{start: start, end: end, shiftType: models.ShiftTypeFromTemplateCode(template.Code)}

			err = s.createBulkItem(ctx, driverID, date, window, skipExisting, createdBy)
			switch {
			case err == nil:
				result.Created++
			case errors.Is(err, errSkipExisting):
				result.Skipped++
			default:
				result.Failed = append(result.Failed, BulkItemFailure{
					DriverID: driverID,
					Date:     date.Format(DateFormat),
					Reason:   err.Error(),
				})
			}
		}
	}

	return result, nil
}

// weekDates returns the 7 dates starting at weekStart
func weekDates(weekStart time.Time) []time.Time {
	dates := make([]time.Time, 0, 7)
	for i := 0; i < 7; i++ {
		dates = append(dates, weekStart.AddDate(0, 0, i))
	}
	return dates
}

// monthDates returns every date of the month; weekend dates are excluded from
// iteration entirely when includeWeekends is false.
func monthDates(year, month int, includeWeekends bool) []time.Time {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	var dates []time.Time
	for d := first; d.Month() == time.Month(month); d = d.AddDate(0, 0, 1) {
		if !includeWeekends && (d.Weekday() == time.Saturday || d.Weekday() == time.Sunday) {
			continue
		}
		dates = append(dates, d)
	}
	return dates
}

// FillWeek stamps one template across 7 days for each given driver
func (s *service) FillWeek(ctx context.Context, req *FillWeekRequest) (*BulkResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	weekStart, err := parseDate(req.StartDate)
	if err != nil {
		return nil, err
	}

	result, err := s.fillDates(ctx, req.DriverIDs, weekDates(weekStart), req.TemplateID, req.SkipExisting, req.CreatedBy)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(map[string]interface{}{
		"week_start": req.StartDate,
		"created":    result.Created,
		"skipped":    result.Skipped,
		"failed":     len(result.Failed),
	}).Info("Fill week completed")

	return result, nil
}

// FillMonth stamps one template across a calendar month for each given driver
func (s *service) FillMonth(ctx context.Context, req *FillMonthRequest) (*BulkResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	dates := monthDates(req.Year, req.Month, req.IncludeWeekends)
	result, err := s.fillDates(ctx, req.DriverIDs, dates, req.TemplateID, req.SkipExisting, req.CreatedBy)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(map[string]interface{}{
		"year":    req.Year,
		"month":   req.Month,
		"created": result.Created,
		"skipped": result.Skipped,
		"failed":  len(result.Failed),
	}).Info("Fill month completed")

	return result, nil
}

// CopyWeek copies every shift in the source week onto the corresponding
// weekday of the target week with a fresh pending status. Repeating the call
// duplicates shifts; callers clear the target week first if they want a
// clean slate.
func (s *service) CopyWeek(ctx context.Context, req *CopyWeekRequest) (*BulkResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	sourceStart, err := parseDate(req.SourceStartDate)
	if err != nil {
		return nil, err
	}
	targetStart, err := parseDate(req.TargetStartDate)
	if err != nil {
		return nil, err
	}

	sourceShifts, err := s.shiftRepo.FindByDateRange(ctx, sourceStart, sourceStart.AddDate(0, 0, 6), nil)
	if err != nil {
		return nil, err
	}

	result := &BulkResult{Failed: []BulkItemFailure{}}
	for _, source := range sourceShifts {
		dayOffset := int(models.DateOnly(source.ShiftDate).Sub(sourceStart).Hours() / 24)
		targetDate := targetStart.AddDate(0, 0, dayOffset)

		start, end, err := combineTimes(targetDate, source.StartTime.Format(TimeFormat), source.EndTime.Format(TimeFormat))
		if err != nil {
			return nil, err
		}

		copyShift := &models.Shift{
			DriverID:          source.DriverID,
			VehicleID:         source.VehicleID,
			ShiftDate:         targetDate,
			StartTime:         start,
			EndTime:           end,
			ShiftType:         source.ShiftType,
			Status:            models.ShiftStatusPending,
			IsRecurring:       source.IsRecurring,
			RecurrencePattern: source.RecurrencePattern,
			Notes:             source.Notes,
			CreatedBy:         req.CreatedBy,
		}

		draft := validation.ShiftDraft{
			DriverID:  copyShift.DriverID,
			VehicleID: copyShift.VehicleID,
			ShiftDate: copyShift.ShiftDate,
			StartTime: copyShift.StartTime,
			EndTime:   copyShift.EndTime,
		}

		err = s.writeValidated(ctx, draft, validation.CheckCopy, func(txRepo repository.ShiftRepository) error {
			_, err := txRepo.Create(ctx, copyShift)
			return err
		})
		if err != nil {
			result.Failed = append(result.Failed, BulkItemFailure{
				DriverID: source.DriverID,
				Date:     targetDate.Format(DateFormat),
				Reason:   err.Error(),
			})
			continue
		}
		result.Created++
	}

	s.log.WithFields(map[string]interface{}{
		"source_start": req.SourceStartDate,
		"target_start": req.TargetStartDate,
		"copied":       result.Created,
		"failed":       len(result.Failed),
	}).Info("Copy week completed")

	return result, nil
}

// ClearWeek deletes every shift in the 7-day window, optionally restricted to
// pending shifts.
func (s *service) ClearWeek(ctx context.Context, req *ClearWeekRequest) (*ClearWeekResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	weekStart, err := parseDate(req.StartDate)
	if err != nil {
		return nil, err
	}

	deleted, err := s.shiftRepo.DeleteInRange(ctx, weekStart, weekStart.AddDate(0, 0, 6), req.OnlyPending)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(map[string]interface{}{
		"week_start":   req.StartDate,
		"only_pending": req.OnlyPending,
		"deleted":      deleted,
	}).Info("Clear week completed")

	return &ClearWeekResult{Deleted: deleted}, nil
}

// BulkApprove approves every pending shift in the date range, optionally for
// one driver. Shifts that stop being pending before their turn are reported
// as skipped, never as a batch failure.
func (s *service) BulkApprove(ctx context.Context, req *BulkApproveRequest) (*BulkApproveResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return nil, err
	}

	pending, err := s.shiftRepo.FindPendingInRange(ctx, start, end, req.DriverID)
	if err != nil {
		return nil, err
	}

	result := &BulkApproveResult{Skipped: []SkippedShift{}}
	for _, shift := range pending {
		if _, err := s.ApproveShift(ctx, shift.ID, req.Actor); err != nil {
			result.Skipped = append(result.Skipped, SkippedShift{
				ShiftID: shift.ID,
				Reason:  err.Error(),
			})
			continue
		}
		result.Approved++
	}

	s.log.WithFields(map[string]interface{}{
		"start":    req.StartDate,
		"end":      req.EndDate,
		"approved": result.Approved,
		"skipped":  len(result.Skipped),
	}).Info("Bulk approve completed")

	return result, nil
}
