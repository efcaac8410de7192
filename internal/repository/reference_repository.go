package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"example.com/fleetops/services/scheduler/internal/models"
)

// ReferenceRepository provides access to the driver and vehicle read models
// synced from the external driver/vehicle management collaborators.
type ReferenceRepository interface {
	GetDriver(ctx context.Context, id uuid.UUID) (*models.Driver, error)
	ListDrivers(ctx context.Context, activeOnly bool) ([]models.Driver, error)
	UpsertDriver(ctx context.Context, driver *models.Driver) error

	GetVehicle(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
	ListVehicles(ctx context.Context, activeOnly bool) ([]models.Vehicle, error)
	UpsertVehicle(ctx context.Context, vehicle *models.Vehicle) error

	GetAPIKeyByKey(ctx context.Context, key string) (*models.APIKey, error)
	CreateAPIKey(ctx context.Context, apiKey *models.APIKey) error
	ListAPIKeys(ctx context.Context) ([]models.APIKey, error)
	DeleteAPIKey(ctx context.Context, id uuid.UUID) error
	UpdateAPIKey(ctx context.Context, apiKey *models.APIKey) error
}

// referenceRepository implements ReferenceRepository
type referenceRepository struct {
	db *gorm.DB
}

// NewReferenceRepository creates a new reference repository
func NewReferenceRepository(db *gorm.DB) ReferenceRepository {
	return &referenceRepository{db: db}
}

// GetDriver gets a driver by ID
func (r *referenceRepository) GetDriver(ctx context.Context, id uuid.UUID) (*models.Driver, error) {
	var driver models.Driver
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&driver).Error
	if err != nil {
		if IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &driver, nil
}

// ListDrivers lists drivers, optionally restricted to active ones
func (r *referenceRepository) ListDrivers(ctx context.Context, activeOnly bool) ([]models.Driver, error) {
	var drivers []models.Driver
	query := r.db.WithContext(ctx).Order("name")
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	if err := query.Find(&drivers).Error; err != nil {
		return nil, err
	}
	return drivers, nil
}

// UpsertDriver inserts or refreshes a driver snapshot pushed by the collaborator
func (r *referenceRepository) UpsertDriver(ctx context.Context, driver *models.Driver) error {
	if driver.ID == uuid.Nil {
		driver.ID = uuid.New()
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "employee_no", "assigned_vehicle_id", "active", "updated_at"}),
		}).
		Create(driver).Error
}

// GetVehicle gets a vehicle by ID
func (r *referenceRepository) GetVehicle(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&vehicle).Error
	if err != nil {
		if IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &vehicle, nil
}

// ListVehicles lists vehicles, optionally restricted to active ones
func (r *referenceRepository) ListVehicles(ctx context.Context, activeOnly bool) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	query := r.db.WithContext(ctx).Order("registration")
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	if err := query.Find(&vehicles).Error; err != nil {
		return nil, err
	}
	return vehicles, nil
}

// UpsertVehicle inserts or refreshes a vehicle snapshot pushed by the collaborator
func (r *referenceRepository) UpsertVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	if vehicle.ID == uuid.Nil {
		vehicle.ID = uuid.New()
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"registration", "active", "updated_at"}),
		}).
		Create(vehicle).Error
}

// GetAPIKeyByKey gets an API key by its token value
func (r *referenceRepository) GetAPIKeyByKey(ctx context.Context, key string) (*models.APIKey, error) {
	var apiKey models.APIKey
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&apiKey).Error
	if err != nil {
		if IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &apiKey, nil
}

// CreateAPIKey creates a new API key
func (r *referenceRepository) CreateAPIKey(ctx context.Context, apiKey *models.APIKey) error {
	if apiKey.ID == uuid.Nil {
		apiKey.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(apiKey).Error
}

// ListAPIKeys lists all API keys
func (r *referenceRepository) ListAPIKeys(ctx context.Context) ([]models.APIKey, error) {
	var apiKeys []models.APIKey
	if err := r.db.WithContext(ctx).Order("created_at").Find(&apiKeys).Error; err != nil {
		return nil, err
	}
	return apiKeys, nil
}

// DeleteAPIKey removes an API key by ID
func (r *referenceRepository) DeleteAPIKey(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.APIKey{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAPIKey saves an API key
func (r *referenceRepository) UpdateAPIKey(ctx context.Context, apiKey *models.APIKey) error {
	return r.db.WithContext(ctx).Save(apiKey).Error
}
