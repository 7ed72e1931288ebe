package handler

import (
	"errors"

	"sparrow-parcel/internal/core/web"
	"sparrow-parcel/internal/features/commissions/domain"
	"sparrow-parcel/internal/features/commissions/ports"

	"github.com/gofiber/fiber/v2"
)

// SettingsHandler handles HTTP requests for commission settings.
type SettingsHandler struct {
	service ports.SettingsService
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(service ports.SettingsService) *SettingsHandler {
	return &SettingsHandler{service: service}
}

// RegisterRoutes mounts the commission settings routes on the given router.
func (h *SettingsHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/initialize", h.Initialize)
	router.Post("/", h.CreateOrUpdate)
	router.Get("/", h.List)
	router.Get("/:deliveryType", h.GetByType)
	router.Put("/:deliveryType", h.UpdateByType)
	router.Delete("/:deliveryType", h.DeleteByType)
}

// SettingsRequest is the request body for creating or updating settings.
type SettingsRequest struct {
	DeliveryType        string  `json:"deliveryType"`
	CommissionRate      float64 `json:"commissionRate"`
	BaseAmount          float64 `json:"baseAmount"`
	UrgentDeliveryBonus float64 `json:"urgentDeliveryBonus"`
	Description         string  `json:"description"`
	IsActive            *bool   `json:"isActive"`
}

func (r SettingsRequest) toDomain() *domain.Settings {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return &domain.Settings{
		DeliveryType:        r.DeliveryType,
		CommissionRate:      r.CommissionRate,
		BaseAmount:          r.BaseAmount,
		UrgentDeliveryBonus: r.UrgentDeliveryBonus,
		Description:         r.Description,
		IsActive:            active,
	}
}

// Initialize handles POST /api/commission-settings/initialize.
// @Summary Seed default commission settings
// @Tags CommissionSettings
// @Produce json
// @Success 200 {object} web.Envelope
// @Failure 500 {object} web.Envelope
// @Router /api/commission-settings/initialize [post]
func (h *SettingsHandler) Initialize(c *fiber.Ctx) error {
	if err := h.service.InitializeDefaults(c.Context()); err != nil {
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to initialize commission settings", err)
	}

	settings, err := h.service.List(c.Context())
	if err != nil {
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to fetch commission settings", err)
	}
	return web.OKMessage(c, "Default commission settings initialized", settings)
}

// CreateOrUpdate handles POST /api/commission-settings.
// @Summary Create or update commission settings for a delivery type
// @Tags CommissionSettings
// @Accept json
// @Produce json
// @Param settings body SettingsRequest true "Settings"
// @Success 201 {object} web.Envelope
// @Failure 400 {object} web.Envelope
// @Router /api/commission-settings [post]
func (h *SettingsHandler) CreateOrUpdate(c *fiber.Ctx) error {
	var req SettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return web.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.DeliveryType == "" {
		return web.Fail(c, fiber.StatusBadRequest, "deliveryType is required")
	}

	saved, err := h.service.CreateOrUpdate(c.Context(), req.toDomain())
	if err != nil {
		if errors.Is(err, domain.ErrInvalidDeliveryType) {
			return web.Fail(c, fiber.StatusBadRequest, "Invalid delivery type")
		}
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to save commission settings", err)
	}
	return web.Created(c, "Commission settings saved successfully", saved)
}

// List handles GET /api/commission-settings.
func (h *SettingsHandler) List(c *fiber.Ctx) error {
	settings, err := h.service.List(c.Context())
	if err != nil {
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to fetch commission settings", err)
	}
	return web.OKList(c, len(settings), settings)
}

// GetByType handles GET /api/commission-settings/:deliveryType.
func (h *SettingsHandler) GetByType(c *fiber.Ctx) error {
	settings, err := h.service.GetByType(c.Context(), c.Params("deliveryType"))
	if err != nil {
		return notFoundOrServerError(c, err, "Failed to fetch commission settings")
	}
	return web.OK(c, settings)
}

// UpdateByType handles PUT /api/commission-settings/:deliveryType.
func (h *SettingsHandler) UpdateByType(c *fiber.Ctx) error {
	var req SettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return web.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	settings, err := h.service.UpdateByType(c.Context(), c.Params("deliveryType"), req.toDomain())
	if err != nil {
		return notFoundOrServerError(c, err, "Failed to update commission settings")
	}
	return web.OKMessage(c, "Commission settings updated successfully", settings)
}

// DeleteByType handles DELETE /api/commission-settings/:deliveryType.
func (h *SettingsHandler) DeleteByType(c *fiber.Ctx) error {
	settings, err := h.service.DeleteByType(c.Context(), c.Params("deliveryType"))
	if err != nil {
		if errors.Is(err, domain.ErrDefaultUndeletable) {
			return web.Fail(c, fiber.StatusBadRequest, "Cannot delete default commission settings")
		}
		return notFoundOrServerError(c, err, "Failed to delete commission settings")
	}
	return web.OKMessage(c, "Commission settings deleted successfully", settings)
}

func notFoundOrServerError(c *fiber.Ctx, err error, message string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return web.Fail(c, fiber.StatusNotFound, "Commission settings not found")
	}
	return web.FailWithError(c, fiber.StatusInternalServerError, message, err)
}
