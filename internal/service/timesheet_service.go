package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"example.com/fleetops/services/scheduler/internal/models"
)

// DriverRow is one row of the timesheet grid
type DriverRow struct {
	Driver  models.Driver            `json:"driver"`
	Vehicle *models.Vehicle          `json:"vehicle,omitempty"`
	Shifts  map[string]*models.Shift `json:"shifts"`
}

// GridConflict flags a (driver, date) cell backed by more than one shift
type GridConflict struct {
	DriverID uuid.UUID   `json:"driver_id"`
	Date     string      `json:"date"`
	ShiftIDs []uuid.UUID `json:"shift_ids"`
}

// TimesheetGrid is the read-only driver x date projection of the shift
// repository, used for display and for bulk skip-existing checks.
type TimesheetGrid struct {
	Dates     []string               `json:"dates"`
	Drivers   []DriverRow            `json:"drivers"`
	Templates []models.ShiftTemplate `json:"templates"`
	Conflicts []GridConflict         `json:"conflicts"`
}

// BuildGrid projects the shift repository for a date range into a driver x
// date matrix. A cell holds at most one shift; when the underlying data holds
// more, the most recently created one wins and the cell is flagged as a
// conflict for operators.
func (s *service) BuildGrid(ctx context.Context, start, end time.Time, driverID *uuid.UUID) (*TimesheetGrid, error) {
	start = models.DateOnly(start)
	end = models.DateOnly(end)

	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(DateFormat))
	}

	var drivers []models.Driver
	if driverID != nil {
		driver, err := s.cachedDriver(ctx, *driverID)
		if err != nil {
			return nil, err
		}
		drivers = []models.Driver{*driver}
	} else {
		var err error
		drivers, err = s.refRepo.ListDrivers(ctx, true)
		if err != nil {
			return nil, err
		}
	}

	shifts, err := s.shiftRepo.FindByDateRange(ctx, start, end, driverID)
	if err != nil {
		return nil, err
	}

	// Bucket shifts per (driver, date); the repository orders by creation
	// time, so the last shift seen for a cell is the most recent one.
	type cellKey struct {
		driver uuid.UUID
		date   string
	}
	cells := make(map[cellKey][]models.Shift)
	now := time.Now()
	for _, shift := range shifts {
		shift.Status = effectiveStatus(&shift, now)
		key := cellKey{driver: shift.DriverID, date: shift.ShiftDate.Format(DateFormat)}
		cells[key] = append(cells[key], shift)
	}

	grid := &TimesheetGrid{
		Dates:     dates,
		Drivers:   make([]DriverRow, 0, len(drivers)),
		Conflicts: []GridConflict{},
	}

	for _, driver := range drivers {
		row := DriverRow{
			Driver: driver,
			Shifts: make(map[string]*models.Shift),
		}

		if driver.AssignedVehicleID != nil {
			if vehicle, err := s.cachedVehicle(ctx, *driver.AssignedVehicleID); err == nil {
				row.Vehicle = vehicle
			}
		}

		for _, date := range dates {
			cell := cells[cellKey{driver: driver.ID, date: date}]
			if len(cell) == 0 {
				continue
			}

			latest := cell[len(cell)-1]
			row.Shifts[date] = &latest

			if len(cell) > 1 {
				ids := make([]uuid.UUID, 0, len(cell))
				for _, sh := range cell {
					ids = append(ids, sh.ID)
				}
				grid.Conflicts = append(grid.Conflicts, GridConflict{
					DriverID: driver.ID,
					Date:     date,
					ShiftIDs: ids,
				})
			}
		}

		grid.Drivers = append(grid.Drivers, row)
	}

	templates, err := s.ActiveTemplates(ctx)
	if err != nil {
		return nil, err
	}
	grid.Templates = templates

	return grid, nil
}

// cachedVehicle reads a vehicle through the cache when one is configured
func (s *service) cachedVehicle(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	if s.cache != nil {
		if vehicle, err := s.cache.GetVehicle(ctx, id); err == nil {
			return vehicle, nil
		}
	}

	vehicle, err := s.refRepo.GetVehicle(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetVehicle(ctx, vehicle); err != nil {
			s.log.WithError(err).Warn("Failed to cache vehicle")
		}
	}
	return vehicle, nil
}
