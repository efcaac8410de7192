package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"example.com/fleetops/services/scheduler/internal/models"
)

// ShiftRepository defines the interface for shift data access
type ShiftRepository interface {
	Create(ctx context.Context, shift *models.Shift) (*models.Shift, error)
	Update(ctx context.Context, shift *models.Shift) (*models.Shift, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Shift, error)

	FindByDateRange(ctx context.Context, start, end time.Time, driverID *uuid.UUID) ([]models.Shift, error)
	FindForDriverOnDate(ctx context.Context, driverID uuid.UUID, date time.Time) ([]models.Shift, error)
	FindForVehicleOnDate(ctx context.Context, vehicleID uuid.UUID, date time.Time) ([]models.Shift, error)
	FindPendingInRange(ctx context.Context, start, end time.Time, driverID *uuid.UUID) ([]models.Shift, error)

	DeleteInRange(ctx context.Context, start, end time.Time, onlyPending bool) (int64, error)
	MarkExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)

	WithTransaction(ctx context.Context, fn func(txRepo ShiftRepository) error) error
}

// shiftRepository implements ShiftRepository
type shiftRepository struct {
	db *gorm.DB
}

// NewShiftRepository creates a new shift repository
func NewShiftRepository(db *gorm.DB) ShiftRepository {
	return &shiftRepository{db: db}
}

// WithTransaction executes the given function within a database transaction
func (r *shiftRepository) WithTransaction(ctx context.Context, fn func(txRepo ShiftRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&shiftRepository{db: tx})
	})
}

// Create creates a new shift
func (r *shiftRepository) Create(ctx context.Context, shift *models.Shift) (*models.Shift, error) {
	if shift.ID == uuid.Nil {
		shift.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Omit("Driver", "Vehicle").Create(shift).Error; err != nil {
		return nil, err
	}
	return shift, nil
}

// Update saves all fields of an existing shift
func (r *shiftRepository) Update(ctx context.Context, shift *models.Shift) (*models.Shift, error) {
	if err := r.db.WithContext(ctx).Omit("Driver", "Vehicle").Save(shift).Error; err != nil {
		return nil, err
	}
	return shift, nil
}

// Delete removes a shift by ID
func (r *shiftRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Shift{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID gets a shift by ID
func (r *shiftRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Shift, error) {
	var shift models.Shift
	err := r.db.WithContext(ctx).
		Preload("Driver").
		Preload("Vehicle").
		Where("id = ?", id).
		First(&shift).Error
	if err != nil {
		if IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &shift, nil
}

// FindByDateRange finds all shifts whose date falls in [start, end],
// optionally filtered to one driver
func (r *shiftRepository) FindByDateRange(ctx context.Context, start, end time.Time, driverID *uuid.UUID) ([]models.Shift, error) {
	var shifts []models.Shift
	query := r.db.WithContext(ctx).
		Where("shift_date >= ? AND shift_date <= ?", models.DateOnly(start), models.DateOnly(end)).
		Order("shift_date, created_at")

	if driverID != nil {
		query = query.Where("driver_id = ?", *driverID)
	}

	if err := query.Find(&shifts).Error; err != nil {
		return nil, err
	}
	return shifts, nil
}

// FindForDriverOnDate finds all shifts for a driver on a calendar date
func (r *shiftRepository) FindForDriverOnDate(ctx context.Context, driverID uuid.UUID, date time.Time) ([]models.Shift, error) {
	var shifts []models.Shift
	err := r.db.WithContext(ctx).
		Where("driver_id = ? AND shift_date = ?", driverID, models.DateOnly(date)).
		Find(&shifts).Error
	if err != nil {
		return nil, err
	}
	return shifts, nil
}

// FindForVehicleOnDate finds all shifts referencing a vehicle on a calendar date
func (r *shiftRepository) FindForVehicleOnDate(ctx context.Context, vehicleID uuid.UUID, date time.Time) ([]models.Shift, error) {
	var shifts []models.Shift
	err := r.db.WithContext(ctx).
		Where("vehicle_id = ? AND shift_date = ?", vehicleID, models.DateOnly(date)).
		Find(&shifts).Error
	if err != nil {
		return nil, err
	}
	return shifts, nil
}

// FindPendingInRange finds pending shifts in [start, end], optionally for one driver
func (r *shiftRepository) FindPendingInRange(ctx context.Context, start, end time.Time, driverID *uuid.UUID) ([]models.Shift, error) {
	var shifts []models.Shift
	query := r.db.WithContext(ctx).
		Where("status = ?", models.ShiftStatusPending).
		Where("shift_date >= ? AND shift_date <= ?", models.DateOnly(start), models.DateOnly(end)).
		Order("shift_date, created_at")

	if driverID != nil {
		query = query.Where("driver_id = ?", *driverID)
	}

	if err := query.Find(&shifts).Error; err != nil {
		return nil, err
	}
	return shifts, nil
}

// DeleteInRange deletes shifts dated within [start, end]. When onlyPending is
// true, approved/active/completed shifts are left untouched.
func (r *shiftRepository) DeleteInRange(ctx context.Context, start, end time.Time, onlyPending bool) (int64, error) {
	query := r.db.WithContext(ctx).
		Where("shift_date >= ? AND shift_date <= ?", models.DateOnly(start), models.DateOnly(end))

	if onlyPending {
		query = query.Where("status = ?", models.ShiftStatusPending)
	}

	result := query.Delete(&models.Shift{})
	return result.RowsAffected, result.Error
}

// MarkExpiredBefore flips pending shifts dated before the cutoff to EXPIRED.
// Restricted to PENDING so terminal and operational statuses are never touched.
func (r *shiftRepository) MarkExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Shift{}).
		Where("status = ? AND shift_date < ?", models.ShiftStatusPending, models.DateOnly(cutoff)).
		Updates(map[string]interface{}{
			"status":     models.ShiftStatusExpired,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}
