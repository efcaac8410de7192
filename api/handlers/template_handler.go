package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"example.com/fleetops/services/scheduler/internal/service"
)

// TemplateHandler manages shift template CRUD endpoints
type TemplateHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewTemplateHandler creates a new TemplateHandler instance
func NewTemplateHandler(svc service.Service, log *logrus.Logger) *TemplateHandler {
	return &TemplateHandler{
		service: svc,
		log:     log,
	}
}

func templateID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid template ID",
		})
		return uuid.Nil, false
	}
	return id, true
}

// CreateTemplate registers a new shift template
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	var req service.TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	tpl, err := h.service.CreateTemplate(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, tpl)
}

// UpdateTemplate modifies an existing shift template
func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	id, ok := templateID(c)
	if !ok {
		return
	}

	var req service.TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	tpl, err := h.service.UpdateTemplate(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, tpl)
}

// DeleteTemplate removes a shift template
func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	id, ok := templateID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteTemplate(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetTemplate fetches a single shift template
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	id, ok := templateID(c)
	if !ok {
		return
	}

	tpl, err := h.service.GetTemplate(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, tpl)
}

// ListTemplates returns all shift templates
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	templates, err := h.service.ListTemplates(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, templates)
}

// ListActiveTemplates returns only templates available for scheduling
func (h *TemplateHandler) ListActiveTemplates(c *gin.Context) {
	templates, err := h.service.ActiveTemplates(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, templates)
}
