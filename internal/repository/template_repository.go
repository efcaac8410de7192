package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"example.com/fleetops/services/scheduler/internal/models"
)

// TemplateRepository defines the interface for shift template data access
type TemplateRepository interface {
	Create(ctx context.Context, template *models.ShiftTemplate) (*models.ShiftTemplate, error)
	Update(ctx context.Context, template *models.ShiftTemplate) (*models.ShiftTemplate, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ShiftTemplate, error)
	GetByCode(ctx context.Context, code string) (*models.ShiftTemplate, error)
	FindActive(ctx context.Context) ([]models.ShiftTemplate, error)
	List(ctx context.Context) ([]models.ShiftTemplate, error)
}

// templateRepository implements TemplateRepository
type templateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository creates a new template repository
func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

// Create creates a new shift template
func (r *templateRepository) Create(ctx context.Context, template *models.ShiftTemplate) (*models.ShiftTemplate, error) {
	if template.ID == uuid.Nil {
		template.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(template).Error; err != nil {
		return nil, err
	}
	return template, nil
}

// Update saves all fields of an existing template
func (r *templateRepository) Update(ctx context.Context, template *models.ShiftTemplate) (*models.ShiftTemplate, error) {
	if err := r.db.WithContext(ctx).Save(template).Error; err != nil {
		return nil, err
	}
	return template, nil
}

// Delete removes a template. Shifts stamped from it keep their resolved times.
func (r *templateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ShiftTemplate{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID gets a template by ID
func (r *templateRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ShiftTemplate, error) {
	var template models.ShiftTemplate
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&template).Error
	if err != nil {
		if IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &template, nil
}

// GetByCode gets a template by its derived code
func (r *templateRepository) GetByCode(ctx context.Context, code string) (*models.ShiftTemplate, error) {
	var template models.ShiftTemplate
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&template).Error
	if err != nil {
		if IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &template, nil
}

// FindActive lists active templates
func (r *templateRepository) FindActive(ctx context.Context) ([]models.ShiftTemplate, error) {
	var templates []models.ShiftTemplate
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name").
		Find(&templates).Error
	if err != nil {
		return nil, err
	}
	return templates, nil
}

// List lists all templates
func (r *templateRepository) List(ctx context.Context) ([]models.ShiftTemplate, error) {
	var templates []models.ShiftTemplate
	if err := r.db.WithContext(ctx).Order("name").Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}
