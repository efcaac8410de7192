package service

import (
	"context"

	"example.com/fleetops/services/scheduler/internal/models"
)

// ListDrivers lists the driver read models
func (s *service) ListDrivers(ctx context.Context, activeOnly bool) ([]models.Driver, error) {
	return s.refRepo.ListDrivers(ctx, activeOnly)
}

// ListVehicles lists the vehicle read models
func (s *service) ListVehicles(ctx context.Context, activeOnly bool) ([]models.Vehicle, error) {
	return s.refRepo.ListVehicles(ctx, activeOnly)
}

// SyncDriver upserts a driver snapshot pushed by the driver-management
// collaborator and drops the stale cache entry.
func (s *service) SyncDriver(ctx context.Context, driver *models.Driver) error {
	if err := s.refRepo.UpsertDriver(ctx, driver); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.DeleteDriver(ctx, driver.ID); err != nil {
			s.log.WithError(err).Warn("Failed to evict driver from cache")
		}
	}
	return nil
}

// SyncVehicle upserts a vehicle snapshot pushed by the vehicle-management
// collaborator and drops the stale cache entry.
func (s *service) SyncVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	if err := s.refRepo.UpsertVehicle(ctx, vehicle); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.DeleteVehicle(ctx, vehicle.ID); err != nil {
			s.log.WithError(err).Warn("Failed to evict vehicle from cache")
		}
	}
	return nil
}
