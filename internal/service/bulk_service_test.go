package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"example.com/fleetops/services/scheduler/internal/models"
)

// nextMonday returns a wire-format Monday at least a week out, so fill and
// copy windows stay in the future for the whole test run.
func nextMonday(t *testing.T) string {
	t.Helper()
	day := models.DateOnly(time.Now().UTC()).AddDate(0, 0, 7)
	for day.Weekday() != time.Monday {
		day = day.AddDate(0, 0, 1)
	}
	return day.Format(DateFormat)
}

func TestFillWeekCreatesSevenPerDriver(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	driver1, _ := env.addDriver("One")
	driver2, _ := env.addDriver("Two")
	templateID := env.addTemplate("Morning", "06:00", "14:00")

	result, err := env.svc.FillWeek(ctx, &FillWeekRequest{
		DriverIDs:  []uuid.UUID{driver1, driver2},
		StartDate:  nextMonday(t),
		TemplateID: templateID,
		CreatedBy:  "dispatcher-1",
	})
	require.NoError(t, err)
	require.Equal(t, 14, result.Created)
	require.Zero(t, result.Skipped)
	require.Empty(t, result.Failed)

	// Fill-stamped rows carry the daily recurrence label
	require.Equal(t, 14, env.shiftRepo.count(func(s models.Shift) bool {
		return s.IsRecurring && s.RecurrencePattern != nil && *s.RecurrencePattern == models.RecurrenceDaily
	}))
}

func TestFillWeekSkipExisting(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	driver1, _ := env.addDriver("One")
	driver2, _ := env.addDriver("Two")
	templateID := env.addTemplate("Morning", "06:00", "14:00")
	weekStart := nextMonday(t)

	// Driver 1 already holds a shift on the second day of the week
	start, _ := time.Parse(DateFormat, weekStart)
	existingDate := start.AddDate(0, 0, 1)
	_, err := env.svc.AssignShift(ctx, &AssignShiftRequest{
		DriverID:  driver1,
		ShiftDate: existingDate.Format(DateFormat),
		StartTime: "06:00",
		EndTime:   "14:00",
	})
	require.NoError(t, err)

	result, err := env.svc.FillWeek(ctx, &FillWeekRequest{
		DriverIDs:    []uuid.UUID{driver1, driver2},
		StartDate:    weekStart,
		TemplateID:   templateID,
		SkipExisting: true,
	})
	require.NoError(t, err)
	require.Equal(t, 13, result.Created)
	require.Equal(t, 1, result.Skipped)
	require.Empty(t, result.Failed)
}

func TestFillWeekIdempotentWithSkipExisting(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	driverID, _ := env.addDriver("One")
	templateID := env.addTemplate("Morning", "06:00", "14:00")
	weekStart := nextMonday(t)

	req := &FillWeekRequest{
		DriverIDs:    []uuid.UUID{driverID},
		StartDate:    weekStart,
		TemplateID:   templateID,
		SkipExisting: true,
	}

	first, err := env.svc.FillWeek(ctx, req)
	require.NoError(t, err)
	require.Equal(t, 7, first.Created)

	second, err := env.svc.FillWeek(ctx, req)
	require.NoError(t, err)
	require.Zero(t, second.Created)
	require.Equal(t, 7, second.Skipped)
	require.Empty(t, second.Failed)

	require.Equal(t, 7, env.shiftRepo.count(func(s models.Shift) bool { return true }))
}

func TestFillWeekConflictIsolation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	driver1, _ := env.addDriver("One")
	driver2, _ := env.addDriver("Two")
	templateID := env.addTemplate("Morning", "06:00", "14:00")
	weekStart := nextMonday(t)

	// Driver 2 holds an overlapping shift on one day; without skip_existing
	// that single item fails, the rest of the batch proceeds
	start, _ := time.Parse(DateFormat, weekStart)
	_, err := env.svc.AssignShift(ctx, &AssignShiftRequest{
		DriverID:  driver2,
		ShiftDate: start.AddDate(0, 0, 2).Format(DateFormat),
		StartTime: "05:00",
		EndTime:   "13:00",
	})
	require.NoError(t, err)

	result, err := env.svc.FillWeek(ctx, &FillWeekRequest{
		DriverIDs:  []uuid.UUID{driver1, driver2},
		StartDate:  weekStart,
		TemplateID: templateID,
	})
	require.NoError(t, err)
	require.Equal(t, 13, result.Created)
	require.Len(t, result.Failed, 1)
	require.Equal(t, driver2, result.Failed[0].DriverID)
}

func TestFillWeekInactiveTemplate(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	driverID, _ := env.addDriver("One")
	templateID := env.addTemplate("Morning", "06:00", "14:00")

	template, err := env.templateRepo.GetByID(ctx, templateID)
	require.NoError(t, err)
	template.IsActive = false
	_, err = env.templateRepo.Update(ctx, template)
	require.NoError(t, err)

	_, err = env.svc.FillWeek(ctx, &FillWeekRequest{
		DriverIDs:  []uuid.UUID{driverID},
		StartDate:  nextMonday(t),
		TemplateID: templateID,
	})
	require.ErrorIs(t, err, ErrInactiveTemplate)
}

func TestFillMonthSkipsWeekends(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	driverID, _ := env.addDriver("One")
	templateID := env.addTemplate("Morning", "06:00", "14:00")

	// Pick a month two months out so every date is in the future
	target := time.Now().UTC().AddDate(0, 2, 0)
	year, month := target.Year(), int(target.Month())

	result, err := env.svc.FillMonth(ctx, &FillMonthRequest{
		DriverIDs:  []uuid.UUID{driverID},
		Year:       year,
		Month:      month,
		TemplateID: templateID,
	})
	require.NoError(t, err)

	weekdays := 0
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	for d := first; d.Month() == time.Month(month); d = d.AddDate(0, 0, 1) {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			weekdays++
		}
	}
	require.Equal(t, weekdays, result.Created)
	// Excluded weekend dates are not counted as skipped
	require.Zero(t, result.Skipped)
}

func TestFillMonthIncludeWeekends(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	driverID, _ := env.addDriver("One")
	templateID := env.addTemplate("Morning", "06:00", "14:00")

	target := time.Now().UTC().AddDate(0, 2, 0)
	year, month := target.Year(), int(target.Month())
	daysInMonth := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()

	result, err := env.svc.FillMonth(ctx, &FillMonthRequest{
		DriverIDs:       []uuid.UUID{driverID},
		Year:            year,
		Month:           month,
		TemplateID:      templateID,
		IncludeWeekends: true,
	})
	require.NoError(t, err)
	require.Equal(t, daysInMonth, result.Created)
}

func TestCopyWeek(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	templateID := env.addTemplate("Morning", "06:00", "14:00")
	sourceStart := nextMonday(t)

	// Five shifts across the source week for five drivers
	source, _ := time.Parse(DateFormat, sourceStart)
	names := []string{"One", "Two", "Three", "Four", "Five"}
	for i, name := range names {
		driverID, _ := env.addDriver(name)
		_, err := env.svc.AssignShift(ctx, &AssignShiftRequest{
			DriverID:   driverID,
			ShiftDate:  source.AddDate(0, 0, i).Format(DateFormat),
			TemplateID: &templateID,
		})
		require.NoError(t, err)
	}

	targetStart := source.AddDate(0, 0, 7).Format(DateFormat)
	result, err := env.svc.CopyWeek(ctx, &CopyWeekRequest{
		SourceStartDate: sourceStart,
		TargetStartDate: targetStart,
		CreatedBy:       "dispatcher-1",
	})
	require.NoError(t, err)
	require.Equal(t, 5, result.Created)
	require.Empty(t, result.Failed)

	// Copies land on the matching weekday offset with a fresh pending status
	target, _ := time.Parse(DateFormat, targetStart)
	copies, err := env.shiftRepo.FindByDateRange(ctx, target, target.AddDate(0, 0, 6), nil)
	require.NoError(t, err)
	require.Len(t, copies, 5)
	for i, copied := range copies {
		require.Equal(t, models.ShiftStatusPending, copied.Status)
		require.Equal(t, "dispatcher-1", copied.CreatedBy)
		require.Equal(t, target.AddDate(0, 0, i).Format(DateFormat), copied.ShiftDate.Format(DateFormat))
		require.Equal(t, "06:00", copied.StartTime.Format(TimeFormat))
	}
}

func TestCopyWeekNotIdempotent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	templateID := env.addTemplate("Morning", "06:00", "14:00")
	sourceStart := nextMonday(t)

	source, _ := time.Parse(DateFormat, sourceStart)
	for i, name := range []string{"One", "Two", "Three", "Four", "Five"} {
		driverID, _ := env.addDriver(name)
		_, err := env.svc.AssignShift(ctx, &AssignShiftRequest{
			DriverID:   driverID,
			ShiftDate:  source.AddDate(0, 0, i).Format(DateFormat),
			TemplateID: &templateID,
		})
		require.NoError(t, err)
	}

	req := &CopyWeekRequest{
		SourceStartDate: sourceStart,
		TargetStartDate: source.AddDate(0, 0, 7).Format(DateFormat),
	}

	first, err := env.svc.CopyWeek(ctx, req)
	require.NoError(t, err)
	require.Equal(t, 5, first.Created)

	// Re-running duplicates the target week rather than skipping
	second, err := env.svc.CopyWeek(ctx, req)
	require.NoError(t, err)
	require.Equal(t, 5, second.Created)

	target, _ := time.Parse(DateFormat, req.TargetStartDate)
	copies, err := env.shiftRepo.FindByDateRange(ctx, target, target.AddDate(0, 0, 6), nil)
	require.NoError(t, err)
	require.Len(t, copies, 10)
}

func TestClearWeek(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	driverID, _ := env.addDriver("One")
	templateID := env.addTemplate("Morning", "06:00", "14:00")
	weekStart := nextMonday(t)

	_, err := env.svc.FillWeek(ctx, &FillWeekRequest{
		DriverIDs:  []uuid.UUID{driverID},
		StartDate:  weekStart,
		TemplateID: templateID,
	})
	require.NoError(t, err)

	result, err := env.svc.ClearWeek(ctx, &ClearWeekRequest{StartDate: weekStart})
	require.NoError(t, err)
	require.Equal(t, int64(7), result.Deleted)
	require.Zero(t, env.shiftRepo.count(func(s models.Shift) bool { return true }))
}

func TestClearWeekOnlyPending(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	driverID, _ := env.addDriver("One")
	templateID := env.addTemplate("Morning", "06:00", "14:00")
	weekStart := nextMonday(t)

	_, err := env.svc.FillWeek(ctx, &FillWeekRequest{
		DriverIDs:  []uuid.UUID{driverID},
		StartDate:  weekStart,
		TemplateID: templateID,
	})
	require.NoError(t, err)

	// Approve the Monday shift; only_pending must leave it standing
	start, _ := time.Parse(DateFormat, weekStart)
	monday, err := env.shiftRepo.FindForDriverOnDate(ctx, driverID, start)
	require.NoError(t, err)
	require.Len(t, monday, 1)
	_, err = env.svc.ApproveShift(ctx, monday[0].ID, "eic-kamau")
	require.NoError(t, err)

	result, err := env.svc.ClearWeek(ctx, &ClearWeekRequest{
		StartDate:   weekStart,
		OnlyPending: true,
	})
	require.NoError(t, err)
	require.Equal(t, int64(6), result.Deleted)
	require.Equal(t, 1, env.shiftRepo.count(func(s models.Shift) bool {
		return s.Status == models.ShiftStatusApproved
	}))
}
