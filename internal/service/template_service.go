package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"example.com/fleetops/services/scheduler/internal/models"
	"example.com/fleetops/services/scheduler/internal/utils"
)

// TemplateRequest defines the request to create or update a shift template
type TemplateRequest struct {
	Name      string `json:"name" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	Color     string `json:"color"`
	IsActive  *bool  `json:"is_active"`
}

// validateTemplateTimes checks the HH:MM fields parse; overnight windows are
// allowed, they roll over to the next day when stamped.
func validateTemplateTimes(req *TemplateRequest) error {
	today := models.DateOnly(time.Now())
	_, _, err := combineTimes(today, req.StartTime, req.EndTime)
	return err
}

// CreateTemplate creates a shift template with a derived unique code
func (s *service) CreateTemplate(ctx context.Context, req *TemplateRequest) (*models.ShiftTemplate, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	if err := validateTemplateTimes(req); err != nil {
		return nil, err
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	template := &models.ShiftTemplate{
		Name:      req.Name,
		Code:      models.TemplateCode(req.Name),
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Color:     req.Color,
		IsActive:  active,
	}

	created, err := s.templateRepo.Create(ctx, template)
	if err != nil {
		return nil, err
	}

	s.invalidateTemplateCache(ctx)
	s.log.WithField("code", created.Code).Info("Shift template created")
	return created, nil
}

// UpdateTemplate updates a shift template. Shifts already stamped from it
// keep their resolved times.
func (s *service) UpdateTemplate(ctx context.Context, id uuid.UUID, req *TemplateRequest) (*models.ShiftTemplate, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	if err := validateTemplateTimes(req); err != nil {
		return nil, err
	}

	template, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	template.Name = req.Name
	template.Code = models.TemplateCode(req.Name)
	template.StartTime = req.StartTime
	template.EndTime = req.EndTime
	template.Color = req.Color
	if req.IsActive != nil {
		template.IsActive = *req.IsActive
	}

	updated, err := s.templateRepo.Update(ctx, template)
	if err != nil {
		return nil, err
	}

	s.invalidateTemplateCache(ctx)
	s.log.WithField("code", updated.Code).Info("Shift template updated")
	return updated, nil
}

// DeleteTemplate removes a template without touching stamped shifts
func (s *service) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	if err := s.templateRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateTemplateCache(ctx)
	s.log.WithField("template_id", id).Info("Shift template deleted")
	return nil
}

// GetTemplate gets a template by ID
func (s *service) GetTemplate(ctx context.Context, id uuid.UUID) (*models.ShiftTemplate, error) {
	return s.templateRepo.GetByID(ctx, id)
}

// ListTemplates lists all templates
func (s *service) ListTemplates(ctx context.Context) ([]models.ShiftTemplate, error) {
	return s.templateRepo.List(ctx)
}

// ActiveTemplates lists active templates through the cache
func (s *service) ActiveTemplates(ctx context.Context) ([]models.ShiftTemplate, error) {
	if s.cache != nil {
		if templates, err := s.cache.GetActiveTemplates(ctx); err == nil {
			return templates, nil
		}
	}

	templates, err := s.templateRepo.FindActive(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetActiveTemplates(ctx, templates); err != nil {
			s.log.WithError(err).Warn("Failed to cache active templates")
		}
	}
	return templates, nil
}

func (s *service) invalidateTemplateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateTemplates(ctx); err != nil {
		s.log.WithError(err).Warn("Failed to invalidate template cache")
	}
}
