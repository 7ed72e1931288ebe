package handler

import (
	"errors"

	"sparrow-parcel/internal/core/web"
	"sparrow-parcel/internal/features/tracking/domain"
	"sparrow-parcel/internal/features/tracking/ports"

	"github.com/gofiber/fiber/v2"
)

// TrackingHandler handles HTTP requests for shipment tracking.
type TrackingHandler struct {
	service ports.TrackingService
}

// NewTrackingHandler creates a new TrackingHandler.
func NewTrackingHandler(service ports.TrackingService) *TrackingHandler {
	return &TrackingHandler{service: service}
}

// RegisterRoutes mounts the tracking routes on the given router.
func (h *TrackingHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/active", h.Active)
	router.Get("/driver/:driverId", h.ByDriver)
	router.Get("/:trackingNumber", h.Get)
	router.Post("/:trackingNumber/event", h.AddEvent)
	router.Patch("/:trackingNumber/location", h.UpdateLocation)
}

// Get handles GET /api/tracking/:trackingNumber.
//
// @Summary Track a shipment
// @Description Returns the public tracking view for a tracking number, seeding it from the parcel on first lookup.
// @Tags tracking
// @Produce json
// @Param trackingNumber path string true "Tracking number"
// @Success 200 {object} web.Envelope
// @Failure 404 {object} web.Envelope
// @Router /api/tracking/{trackingNumber} [get]
func (h *TrackingHandler) Get(c *fiber.Ctx) error {
	tracking, err := h.service.GetByNumber(c.Context(), c.Params("trackingNumber"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return web.Fail(c, fiber.StatusNotFound, "Tracking information not found")
		}
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to fetch tracking information", err)
	}
	return web.OK(c, tracking)
}

// Active handles GET /api/tracking/active.
func (h *TrackingHandler) Active(c *fiber.Ctx) error {
	trackings, err := h.service.Active(c.Context())
	if err != nil {
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to fetch active trackings", err)
	}
	return web.OKList(c, len(trackings), trackings)
}

// ByDriver handles GET /api/tracking/driver/:driverId.
func (h *TrackingHandler) ByDriver(c *fiber.Ctx) error {
	trackings, err := h.service.ByDriver(c.Context(), c.Params("driverId"))
	if err != nil {
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to fetch driver trackings", err)
	}
	return web.OKList(c, len(trackings), trackings)
}

// AddEventRequest is the request body for recording a tracking event.
type AddEventRequest struct {
	Status      domain.Status         `json:"status"`
	Location    *domain.EventLocation `json:"location"`
	Description string                `json:"description"`
	Service     string                `json:"service"`
}

// AddEvent handles POST /api/tracking/:trackingNumber/event.
func (h *TrackingHandler) AddEvent(c *fiber.Ctx) error {
	var req AddEventRequest
	if err := c.BodyParser(&req); err != nil {
		return web.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Status == "" {
		return web.Fail(c, fiber.StatusBadRequest, "Status is required")
	}

	tracking, err := h.service.AddEvent(c.Context(), c.Params("trackingNumber"), req.Status, req.Location, req.Description, req.Service)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidStatus) {
			return web.FailWithError(c, fiber.StatusBadRequest, "Failed to add tracking event", err)
		}
		if errors.Is(err, domain.ErrNotFound) {
			return web.Fail(c, fiber.StatusNotFound, "Tracking information not found")
		}
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to add tracking event", err)
	}
	return web.OKMessage(c, "Tracking event added successfully", tracking)
}

// UpdateLocationRequest is the request body for a driver location ping.
type UpdateLocationRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

// UpdateLocation handles PATCH /api/tracking/:trackingNumber/location.
func (h *TrackingHandler) UpdateLocation(c *fiber.Ctx) error {
	var req UpdateLocationRequest
	if err := c.BodyParser(&req); err != nil {
		return web.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Latitude == 0 || req.Longitude == 0 {
		return web.Fail(c, fiber.StatusBadRequest, "Latitude and longitude are required")
	}

	tracking, err := h.service.UpdateLocation(c.Context(), c.Params("trackingNumber"), req.Latitude, req.Longitude, req.Address)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return web.Fail(c, fiber.StatusNotFound, "Tracking information not found")
		}
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to update location", err)
	}
	return web.OKMessage(c, "Location updated successfully", tracking)
}
