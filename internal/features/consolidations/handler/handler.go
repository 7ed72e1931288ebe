package handler

import (
	"errors"

	"sparrow-parcel/internal/core/web"
	"sparrow-parcel/internal/features/consolidations/domain"
	"sparrow-parcel/internal/features/consolidations/ports"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ConsolidationHandler handles HTTP requests for consolidations.
type ConsolidationHandler struct {
	service ports.ConsolidationService
}

// NewConsolidationHandler creates a new ConsolidationHandler.
func NewConsolidationHandler(service ports.ConsolidationService) *ConsolidationHandler {
	return &ConsolidationHandler{service: service}
}

// RegisterRoutes mounts the consolidation routes on the given router.
func (h *ConsolidationHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/", h.Create)
	router.Get("/", h.List)
	router.Get("/:id", h.Get)
	router.Patch("/:id/status", h.UpdateStatus)
	router.Delete("/:id", h.Delete)
}

// CreateConsolidationRequest is the request body for creating a consolidation.
type CreateConsolidationRequest struct {
	ReferenceCode string   `json:"referenceCode"`
	Parcels       []string `json:"parcels"`
	CreatedBy     string   `json:"createdBy"`
	WarehouseID   string   `json:"warehouseId"`
}

// Create handles POST /api/consolidations.
func (h *ConsolidationHandler) Create(c *fiber.Ctx) error {
	var req CreateConsolidationRequest
	if err := c.BodyParser(&req); err != nil {
		return web.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if len(req.Parcels) == 0 {
		return web.Fail(c, fiber.StatusBadRequest, "At least one parcel is required")
	}
	createdBy, err := primitive.ObjectIDFromHex(req.CreatedBy)
	if err != nil {
		return web.Fail(c, fiber.StatusBadRequest, "createdBy is required")
	}

	consolidation := &domain.Consolidation{
		ReferenceCode: req.ReferenceCode,
		CreatedBy:     createdBy,
	}
	for _, id := range req.Parcels {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return web.Fail(c, fiber.StatusBadRequest, "Invalid parcel ID: "+id)
		}
		consolidation.ParcelIDs = append(consolidation.ParcelIDs, oid)
	}
	if oid, err := primitive.ObjectIDFromHex(req.WarehouseID); err == nil {
		consolidation.WarehouseID = &oid
	}

	created, err := h.service.Create(c.Context(), consolidation)
	if err != nil {
		return web.FailWithError(c, fiber.StatusBadRequest, "Failed to create consolidation", err)
	}
	return web.Created(c, "Consolidation created successfully", created)
}

// List handles GET /api/consolidations.
func (h *ConsolidationHandler) List(c *fiber.Ctx) error {
	filter := ports.Filter{
		Status:      domain.Status(c.Query("status")),
		WarehouseID: c.Query("warehouseId"),
	}

	consolidations, err := h.service.List(c.Context(), filter)
	if err != nil {
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to fetch consolidations", err)
	}
	return web.OKList(c, len(consolidations), consolidations)
}

// Get handles GET /api/consolidations/:id.
func (h *ConsolidationHandler) Get(c *fiber.Ctx) error {
	consolidation, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return web.Fail(c, fiber.StatusNotFound, "Consolidation not found")
		}
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to fetch consolidation", err)
	}
	return web.OK(c, consolidation)
}

// UpdateStatus handles PATCH /api/consolidations/:id/status.
func (h *ConsolidationHandler) UpdateStatus(c *fiber.Ctx) error {
	var req struct {
		Status domain.Status `json:"status"`
		Note   string        `json:"note"`
	}
	if err := c.BodyParser(&req); err != nil {
		return web.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Status == "" {
		return web.Fail(c, fiber.StatusBadRequest, "status is required")
	}

	consolidation, err := h.service.UpdateStatus(c.Context(), c.Params("id"), req.Status, req.Note)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidStatus) {
			return web.FailWithError(c, fiber.StatusBadRequest, "Failed to update consolidation status", err)
		}
		if errors.Is(err, domain.ErrNotFound) {
			return web.Fail(c, fiber.StatusNotFound, "Consolidation not found")
		}
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to update consolidation status", err)
	}
	return web.OKMessage(c, "Consolidation status updated successfully", consolidation)
}

// Delete handles DELETE /api/consolidations/:id.
func (h *ConsolidationHandler) Delete(c *fiber.Ctx) error {
	consolidation, err := h.service.Delete(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return web.Fail(c, fiber.StatusNotFound, "Consolidation not found")
		}
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to delete consolidation", err)
	}
	return web.OKMessage(c, "Consolidation deleted successfully", consolidation)
}
