package handler

import (
	"errors"
	"time"

	"sparrow-parcel/internal/core/web"
	"sparrow-parcel/internal/features/tracker/domain"
	"sparrow-parcel/internal/features/tracker/ports"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrackerHandler handles HTTP requests for warehouse scan events.
type TrackerHandler struct {
	service ports.TrackerService
}

// NewTrackerHandler creates a new TrackerHandler.
func NewTrackerHandler(service ports.TrackerService) *TrackerHandler {
	return &TrackerHandler{service: service}
}

// RegisterRoutes mounts the tracker routes on the given router.
func (h *TrackerHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/", h.Create)
	router.Get("/", h.List)
	router.Get("/parcel/:parcelId/latest", h.LatestByParcel)
	router.Get("/parcel/:parcelId", h.ByParcel)
	router.Get("/status/:status", h.ByStatus)
	router.Get("/:id", h.Get)
	router.Put("/:id", h.Update)
	router.Delete("/:id", h.Delete)
}

// CreateEventRequest is the request body for recording a scan event.
type CreateEventRequest struct {
	ParcelID  string        `json:"parcelId"`
	Status    domain.Status `json:"status"`
	Location  string        `json:"location"`
	Timestamp *time.Time    `json:"timestamp"`
	Note      string        `json:"note"`
	UpdatedBy string        `json:"updatedBy"`
}

// Create handles POST /api/tracker.
func (h *TrackerHandler) Create(c *fiber.Ctx) error {
	var req CreateEventRequest
	if err := c.BodyParser(&req); err != nil {
		return web.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.ParcelID == "" || req.Status == "" {
		return web.Fail(c, fiber.StatusBadRequest, "parcelId and status are required")
	}
	parcelID, err := primitive.ObjectIDFromHex(req.ParcelID)
	if err != nil {
		return web.Fail(c, fiber.StatusBadRequest, "Invalid parcel ID")
	}

	event := &domain.Event{
		ParcelID: parcelID,
		Status:   req.Status,
		Location: req.Location,
		Note:     req.Note,
	}
	if req.Timestamp != nil {
		event.Timestamp = *req.Timestamp
	}
	if oid, err := primitive.ObjectIDFromHex(req.UpdatedBy); err == nil {
		event.UpdatedBy = &oid
	}

	created, err := h.service.Create(c.Context(), event)
	if err != nil {
		return web.FailWithError(c, fiber.StatusBadRequest, "Failed to create tracker event", err)
	}
	return web.Created(c, "Tracker event created successfully", created)
}

// List handles GET /api/tracker.
func (h *TrackerHandler) List(c *fiber.Ctx) error {
	filter := ports.Filter{
		ParcelID: c.Query("parcelId"),
		Status:   domain.Status(c.Query("status")),
		Location: c.Query("location"),
	}

	events, err := h.service.List(c.Context(), filter)
	if err != nil {
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to fetch tracker events", err)
	}
	return web.OKList(c, len(events), events)
}

// Get handles GET /api/tracker/:id.
func (h *TrackerHandler) Get(c *fiber.Ctx) error {
	event, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return web.Fail(c, fiber.StatusNotFound, "Tracker event not found")
		}
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to fetch tracker event", err)
	}
	return web.OK(c, event)
}

// ByParcel handles GET /api/tracker/parcel/:parcelId.
func (h *TrackerHandler) ByParcel(c *fiber.Ctx) error {
	events, err := h.service.ByParcel(c.Context(), c.Params("parcelId"))
	if err != nil {
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to fetch tracker events for parcel", err)
	}
	return web.OKList(c, len(events), events)
}

// LatestByParcel handles GET /api/tracker/parcel/:parcelId/latest.
func (h *TrackerHandler) LatestByParcel(c *fiber.Ctx) error {
	event, err := h.service.LatestByParcel(c.Context(), c.Params("parcelId"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return web.Fail(c, fiber.StatusNotFound, "No tracker events found for this parcel")
		}
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to fetch latest tracker event", err)
	}
	return web.OK(c, event)
}

// ByStatus handles GET /api/tracker/status/:status.
func (h *TrackerHandler) ByStatus(c *fiber.Ctx) error {
	events, err := h.service.ByStatus(c.Context(), domain.Status(c.Params("status")))
	if err != nil {
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to fetch tracker events by status", err)
	}
	return web.OKList(c, len(events), events)
}

// UpdateEventRequest is the request body for editing a scan event.
type UpdateEventRequest struct {
	Status    *domain.Status `json:"status"`
	Location  *string        `json:"location"`
	Note      *string        `json:"note"`
	Timestamp *time.Time     `json:"timestamp"`
}

// Update handles PUT /api/tracker/:id.
func (h *TrackerHandler) Update(c *fiber.Ctx) error {
	var req UpdateEventRequest
	if err := c.BodyParser(&req); err != nil {
		return web.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	event, err := h.service.Update(c.Context(), c.Params("id"), ports.Update{
		Status:    req.Status,
		Location:  req.Location,
		Note:      req.Note,
		Timestamp: req.Timestamp,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return web.Fail(c, fiber.StatusNotFound, "Tracker event not found")
		}
		return web.FailWithError(c, fiber.StatusBadRequest, "Failed to update tracker event", err)
	}
	return web.OKMessage(c, "Tracker event updated successfully", event)
}

// Delete handles DELETE /api/tracker/:id.
func (h *TrackerHandler) Delete(c *fiber.Ctx) error {
	event, err := h.service.Delete(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return web.Fail(c, fiber.StatusNotFound, "Tracker event not found")
		}
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to delete tracker event", err)
	}
	return web.OKMessage(c, "Tracker event deleted successfully", event)
}
