package service

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"example.com/fleetops/services/scheduler/internal/models"
	"example.com/fleetops/services/scheduler/internal/repository"
)

func TestCreateTemplate(t *testing.T) {
	env := newTestEnv()

	template, err := env.svc.CreateTemplate(context.Background(), &TemplateRequest{
		Name:      "Early Morning",
		StartTime: "04:00",
		EndTime:   "12:00",
		Color:     "#f9a825",
	})
	require.NoError(t, err)
	require.Equal(t, "EARLY_MORNING", template.Code)
	require.True(t, template.IsActive)
}

func TestCreateTemplateBadTimes(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.CreateTemplate(context.Background(), &TemplateRequest{
		Name:      "Broken",
		StartTime: "6am",
		EndTime:   "14:00",
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestUpdateTemplateDoesNotTouchStampedShifts(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	driverID, _ := env.addDriver("One")
	templateID := env.addTemplate("Morning", "06:00", "14:00")

	shift, err := env.svc.AssignShift(ctx, &AssignShiftRequest{
		DriverID:   driverID,
		ShiftDate:  futureDate(7),
		TemplateID: &templateID,
	})
	require.NoError(t, err)

	_, err = env.svc.UpdateTemplate(ctx, templateID, &TemplateRequest{
		Name:      "Morning",
		StartTime: "07:00",
		EndTime:   "15:00",
	})
	require.NoError(t, err)

	// Shifts store resolved times, not a live template reference
	stored, err := env.shiftRepo.GetByID(ctx, shift.ID)
	require.NoError(t, err)
	require.Equal(t, "06:00", stored.StartTime.Format(TimeFormat))
}

func TestDeleteTemplateLeavesShifts(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	driverID, _ := env.addDriver("One")
	templateID := env.addTemplate("Morning", "06:00", "14:00")

	shift, err := env.svc.AssignShift(ctx, &AssignShiftRequest{
		DriverID:   driverID,
		ShiftDate:  futureDate(7),
		TemplateID: &templateID,
	})
	require.NoError(t, err)

	require.NoError(t, env.svc.DeleteTemplate(ctx, templateID))

	_, err = env.svc.GetTemplate(ctx, templateID)
	require.ErrorIs(t, err, repository.ErrNotFound)

	stored, err := env.shiftRepo.GetByID(ctx, shift.ID)
	require.NoError(t, err)
	require.Equal(t, models.ShiftTypeMorning, stored.ShiftType)
}

func TestActiveTemplates(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.addTemplate("Morning", "06:00", "14:00")
	inactive := env.addTemplate("Old Night", "21:00", "06:00")

	template, err := env.templateRepo.GetByID(ctx, inactive)
	require.NoError(t, err)
	template.IsActive = false
	_, err = env.templateRepo.Update(ctx, template)
	require.NoError(t, err)

	active, err := env.svc.ActiveTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "MORNING", active[0].Code)

	all, err := env.svc.ListTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestSyncDriver(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	driver := &models.Driver{
		Name:       "New Hire",
		EmployeeNo: "EMP-900",
		Active:     true,
	}
	require.NoError(t, env.svc.SyncDriver(ctx, driver))

	drivers, err := env.svc.ListDrivers(ctx, true)
	require.NoError(t, err)
	require.Len(t, drivers, 1)
	require.Equal(t, "EMP-900", drivers[0].EmployeeNo)
}
