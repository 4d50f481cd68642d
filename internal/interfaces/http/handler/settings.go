package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Fiarr4ikDev/DiplomForXenon/internal/application/settings"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/domain/catalog"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/interfaces/http/dto"
)

// SettingsHandler serves the appearance and stock threshold settings
type SettingsHandler struct {
	BaseHandler
	service *settings.Service
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(service *settings.Service) *SettingsHandler {
	return &SettingsHandler{service: service}
}

// Get returns the appearance settings
func (h *SettingsHandler) Get(c *gin.Context) {
	a, err := h.service.Load(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, a)
}

// Patch saves the fields present in the body
func (h *SettingsHandler) Patch(c *gin.Context) {
	var patch settings.Patch
	if !h.bindJSON(c, &patch) {
		return
	}
	a, err := h.service.Save(c.Request.Context(), patch)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, a)
}

// Reset restores the default appearance
func (h *SettingsHandler) Reset(c *gin.Context) {
	a, err := h.service.Reset(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, a)
}

// Thresholds returns the stock level thresholds
func (h *SettingsHandler) Thresholds(c *gin.Context) {
	t, err := h.service.Thresholds(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, thresholdsBody(t))
}

// SaveThresholds validates and stores the thresholds
func (h *SettingsHandler) SaveThresholds(c *gin.Context) {
	var req dto.ThresholdsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	t := catalog.Thresholds{Low: req.LowStockThreshold, Medium: req.MediumStockThreshold}
	if err := h.service.SaveThresholds(c.Request.Context(), t); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, thresholdsBody(t))
}

// ResetThresholds restores the default thresholds
func (h *SettingsHandler) ResetThresholds(c *gin.Context) {
	t, err := h.service.ResetThresholds(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, thresholdsBody(t))
}

func thresholdsBody(t catalog.Thresholds) dto.ThresholdsRequest {
	return dto.ThresholdsRequest{LowStockThreshold: t.Low, MediumStockThreshold: t.Medium}
}
