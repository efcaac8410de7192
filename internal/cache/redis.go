package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"example.com/fleetops/services/scheduler/config"
	"example.com/fleetops/services/scheduler/internal/models"
)

// CacheClient defines the interface for cache operations
type CacheClient interface {
	// Driver reference caching methods
	GetDriver(ctx context.Context, id uuid.UUID) (*models.Driver, error)
	SetDriver(ctx context.Context, driver *models.Driver) error
	DeleteDriver(ctx context.Context, id uuid.UUID) error

	// Vehicle reference caching methods
	GetVehicle(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
	SetVehicle(ctx context.Context, vehicle *models.Vehicle) error
	DeleteVehicle(ctx context.Context, id uuid.UUID) error

	// Active template list caching methods
	GetActiveTemplates(ctx context.Context) ([]models.ShiftTemplate, error)
	SetActiveTemplates(ctx context.Context, templates []models.ShiftTemplate) error
	InvalidateTemplates(ctx context.Context) error

	Close() error
}

// RedisClient implements CacheClient using Redis
type RedisClient struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient creates a new Redis client
func NewRedisClient(cfg config.RedisConfig) (CacheClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{
		client: client,
		ttl:    time.Hour,
	}, nil
}

// Prefix keys to avoid collisions
func driverKey(id uuid.UUID) string {
	return fmt.Sprintf("driver:%s", id)
}

func vehicleKey(id uuid.UUID) string {
	return fmt.Sprintf("vehicle:%s", id)
}

const activeTemplatesKey = "templates:active"

// GetDriver retrieves a driver from cache
func (r *RedisClient) GetDriver(ctx context.Context, id uuid.UUID) (*models.Driver, error) {
	data, err := r.client.Get(ctx, driverKey(id)).Result()
	if err != nil {
		return nil, err
	}

	var driver models.Driver
	if err := json.Unmarshal([]byte(data), &driver); err != nil {
		return nil, err
	}
	return &driver, nil
}

// SetDriver stores a driver in cache
func (r *RedisClient) SetDriver(ctx context.Context, driver *models.Driver) error {
	data, err := json.Marshal(driver)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, driverKey(driver.ID), data, r.ttl).Err()
}

// DeleteDriver removes a driver from cache
func (r *RedisClient) DeleteDriver(ctx context.Context, id uuid.UUID) error {
	return r.client.Del(ctx, driverKey(id)).Err()
}

// GetVehicle retrieves a vehicle from cache
func (r *RedisClient) GetVehicle(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	data, err := r.client.Get(ctx, vehicleKey(id)).Result()
	if err != nil {
		return nil, err
	}

	var vehicle models.Vehicle
	if err := json.Unmarshal([]byte(data), &vehicle); err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// SetVehicle stores a vehicle in cache
func (r *RedisClient) SetVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	data, err := json.Marshal(vehicle)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, vehicleKey(vehicle.ID), data, r.ttl).Err()
}

// DeleteVehicle removes a vehicle from cache
func (r *RedisClient) DeleteVehicle(ctx context.Context, id uuid.UUID) error {
	return r.client.Del(ctx, vehicleKey(id)).Err()
}

// GetActiveTemplates retrieves the active template list from cache
func (r *RedisClient) GetActiveTemplates(ctx context.Context) ([]models.ShiftTemplate, error) {
	data, err := r.client.Get(ctx, activeTemplatesKey).Result()
	if err != nil {
		return nil, err
	}

	var templates []models.ShiftTemplate
	if err := json.Unmarshal([]byte(data), &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

// SetActiveTemplates stores the active template list in cache
func (r *RedisClient) SetActiveTemplates(ctx context.Context, templates []models.ShiftTemplate) error {
	data, err := json.Marshal(templates)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, activeTemplatesKey, data, r.ttl).Err()
}

// InvalidateTemplates removes the cached template list after a template write
func (r *RedisClient) InvalidateTemplates(ctx context.Context) error {
	return r.client.Del(ctx, activeTemplatesKey).Err()
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}
