package handler

import (
	"errors"

	"sparrow-parcel/internal/core/web"
	"sparrow-parcel/internal/features/parcels/domain"
	"sparrow-parcel/internal/features/parcels/ports"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ParcelHandler handles HTTP requests for parcels.
type ParcelHandler struct {
	service ports.ParcelService
}

// NewParcelHandler creates a new ParcelHandler.
func NewParcelHandler(service ports.ParcelService) *ParcelHandler {
	return &ParcelHandler{service: service}
}

// RegisterRoutes mounts the parcel routes on the given router.
func (h *ParcelHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/", h.Create)
	router.Get("/", h.List)
	router.Get("/tracking/:trackingNumber", h.GetByTrackingNumber)
	router.Get("/status/:status", h.ListByStatus)
	router.Get("/warehouse/:warehouseId", h.ListByWarehouse)
	router.Get("/driver/:driverId", h.ListByDriver)
	router.Get("/:id", h.Get)
	router.Put("/:id", h.Update)
	router.Patch("/:id/status", h.UpdateStatus)
	router.Patch("/:id/assign-driver", h.AssignDriver)
	router.Delete("/:id", h.Delete)
}

// CreateParcelRequest is the request body for creating a parcel.
type CreateParcelRequest struct {
	TrackingNumber string        `json:"trackingNumber"`
	Weight         domain.Weight `json:"weight"`
	Sender         domain.Party  `json:"sender"`
	Receiver       domain.Party  `json:"receiver"`
	WarehouseID    string        `json:"warehouseId"`
	PricingID      string        `json:"pricingId"`
	CreatedBy      string        `json:"createdBy"`
}

// UpdateStatusRequest is the request body for a parcel status update.
type UpdateStatusRequest struct {
	Status   domain.Status `json:"status"`
	Service  string        `json:"service"`
	Location string        `json:"location"`
	Note     string        `json:"note"`
}

// AssignDriverRequest is the request body for assigning a driver.
type AssignDriverRequest struct {
	DriverID string `json:"driverId"`
}

// Create handles POST /api/parcels.
// @Summary Create a parcel
// @Tags Parcels
// @Accept json
// @Produce json
// @Param parcel body CreateParcelRequest true "Parcel details"
// @Success 201 {object} web.Envelope
// @Failure 400 {object} web.Envelope
// @Router /api/parcels [post]
func (h *ParcelHandler) Create(c *fiber.Ctx) error {
	var req CreateParcelRequest
	if err := c.BodyParser(&req); err != nil {
		return web.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.TrackingNumber == "" {
		return web.Fail(c, fiber.StatusBadRequest, "trackingNumber is required")
	}

	parcel := &domain.Parcel{
		TrackingNumber: req.TrackingNumber,
		Weight:         req.Weight,
		Sender:         req.Sender,
		Receiver:       req.Receiver,
	}
	if oid, err := primitive.ObjectIDFromHex(req.WarehouseID); err == nil {
		parcel.WarehouseID = &oid
	}
	if oid, err := primitive.ObjectIDFromHex(req.PricingID); err == nil {
		parcel.PricingID = &oid
	}
	if oid, err := primitive.ObjectIDFromHex(req.CreatedBy); err == nil {
		parcel.CreatedBy = &oid
	}

	created, err := h.service.Create(c.Context(), parcel)
	if err != nil {
		return web.FailWithError(c, fiber.StatusBadRequest, "Failed to create parcel", err)
	}
	return web.Created(c, "Parcel created successfully", created)
}

// List handles GET /api/parcels with optional query filters.
func (h *ParcelHandler) List(c *fiber.Ctx) error {
	filter := ports.Filter{
		Status:      domain.Status(c.Query("status")),
		WarehouseID: c.Query("warehouseId"),
		DriverID:    c.Query("driverId"),
		PricingID:   c.Query("pricingId"),
	}

	parcels, err := h.service.List(c.Context(), filter)
	if err != nil {
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to fetch parcels", err)
	}
	return web.OKList(c, len(parcels), parcels)
}

// Get handles GET /api/parcels/:id.
func (h *ParcelHandler) Get(c *fiber.Ctx) error {
	parcel, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return notFoundOrServerError(c, err, "Failed to fetch parcel")
	}
	return web.OK(c, parcel)
}

// GetByTrackingNumber handles GET /api/parcels/tracking/:trackingNumber.
func (h *ParcelHandler) GetByTrackingNumber(c *fiber.Ctx) error {
	parcel, err := h.service.GetByTrackingNumber(c.Context(), c.Params("trackingNumber"))
	if err != nil {
		return notFoundOrServerError(c, err, "Failed to fetch parcel")
	}
	return web.OK(c, parcel)
}

// ListByStatus handles GET /api/parcels/status/:status.
func (h *ParcelHandler) ListByStatus(c *fiber.Ctx) error {
	parcels, err := h.service.List(c.Context(), ports.Filter{Status: domain.Status(c.Params("status"))})
	if err != nil {
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to fetch parcels", err)
	}
	return web.OKList(c, len(parcels), parcels)
}

// ListByWarehouse handles GET /api/parcels/warehouse/:warehouseId.
func (h *ParcelHandler) ListByWarehouse(c *fiber.Ctx) error {
	parcels, err := h.service.List(c.Context(), ports.Filter{WarehouseID: c.Params("warehouseId")})
	if err != nil {
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to fetch parcels", err)
	}
	return web.OKList(c, len(parcels), parcels)
}

// ListByDriver handles GET /api/parcels/driver/:driverId.
func (h *ParcelHandler) ListByDriver(c *fiber.Ctx) error {
	parcels, err := h.service.List(c.Context(), ports.Filter{DriverID: c.Params("driverId")})
	if err != nil {
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to fetch parcels", err)
	}
	return web.OKList(c, len(parcels), parcels)
}

// Update handles PUT /api/parcels/:id.
func (h *ParcelHandler) Update(c *fiber.Ctx) error {
	var req struct {
		TrackingNumber *string        `json:"trackingNumber"`
		Weight         *domain.Weight `json:"weight"`
		Sender         *domain.Party  `json:"sender"`
		Receiver       *domain.Party  `json:"receiver"`
		WarehouseID    *string        `json:"warehouseId"`
		PricingID      *string        `json:"pricingId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return web.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	parcel, err := h.service.Update(c.Context(), c.Params("id"), ports.Update{
		TrackingNumber: req.TrackingNumber,
		Weight:         req.Weight,
		Sender:         req.Sender,
		Receiver:       req.Receiver,
		WarehouseID:    req.WarehouseID,
		PricingID:      req.PricingID,
	})
	if err != nil {
		return notFoundOrServerError(c, err, "Failed to update parcel")
	}
	return web.OKMessage(c, "Parcel updated successfully", parcel)
}

// UpdateStatus handles PATCH /api/parcels/:id/status.
// @Summary Update parcel status
// @Tags Parcels
// @Accept json
// @Produce json
// @Param id path string true "Parcel ID"
// @Param status body UpdateStatusRequest true "New status"
// @Success 200 {object} web.Envelope
// @Failure 400 {object} web.Envelope
// @Failure 404 {object} web.Envelope
// @Router /api/parcels/{id}/status [patch]
func (h *ParcelHandler) UpdateStatus(c *fiber.Ctx) error {
	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return web.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Status == "" {
		return web.Fail(c, fiber.StatusBadRequest, "status is required")
	}

	parcel, err := h.service.UpdateStatus(c.Context(), c.Params("id"), req.Status, req.Service, req.Location, req.Note)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidStatus) {
			return web.FailWithError(c, fiber.StatusBadRequest, "Failed to update parcel status", err)
		}
		return notFoundOrServerError(c, err, "Failed to update parcel status")
	}
	return web.OKMessage(c, "Parcel status updated successfully", parcel)
}

// AssignDriver handles PATCH /api/parcels/:id/assign-driver.
func (h *ParcelHandler) AssignDriver(c *fiber.Ctx) error {
	var req AssignDriverRequest
	if err := c.BodyParser(&req); err != nil {
		return web.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.DriverID == "" {
		return web.Fail(c, fiber.StatusBadRequest, "driverId is required")
	}

	parcel, err := h.service.AssignDriver(c.Context(), c.Params("id"), req.DriverID)
	if err != nil {
		return notFoundOrServerError(c, err, "Failed to assign driver")
	}
	return web.OKMessage(c, "Driver assigned successfully", parcel)
}

// Delete handles DELETE /api/parcels/:id.
func (h *ParcelHandler) Delete(c *fiber.Ctx) error {
	parcel, err := h.service.Delete(c.Context(), c.Params("id"))
	if err != nil {
		return notFoundOrServerError(c, err, "Failed to delete parcel")
	}
	return web.OKMessage(c, "Parcel deleted successfully", parcel)
}

func notFoundOrServerError(c *fiber.Ctx, err error, message string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return web.Fail(c, fiber.StatusNotFound, "Parcel not found")
	}
	return web.FailWithError(c, fiber.StatusInternalServerError, message, err)
}
