package handler

import (
	"errors"
	"time"

	"sparrow-parcel/internal/core/web"
	"sparrow-parcel/internal/features/earnings/domain"
	"sparrow-parcel/internal/features/earnings/ports"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EarningsHandler handles HTTP requests for driver earnings.
type EarningsHandler struct {
	service ports.EarningsService
}

// NewEarningsHandler creates a new EarningsHandler.
func NewEarningsHandler(service ports.EarningsService) *EarningsHandler {
	return &EarningsHandler{service: service}
}

// RegisterRoutes mounts the earnings routes on the given router.
func (h *EarningsHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/", h.Create)
	router.Get("/", h.List)
	router.Get("/driver/:driverId/summary", h.Summary)
	router.Get("/driver/:driverId", h.ListByDriver)
	router.Put("/:id", h.Update)
	router.Patch("/:id/status", h.UpdateStatus)
	router.Delete("/:id", h.Delete)
}

// CreateEarningsRequest is the request body for a manual earnings record.
type CreateEarningsRequest struct {
	Driver              string        `json:"driver"`
	Delivery            string        `json:"delivery"`
	BaseAmount          float64       `json:"baseAmount"`
	CommissionRate      float64       `json:"commissionRate"`
	BonusAmount         float64       `json:"bonusAmount"`
	Deductions          float64       `json:"deductions"`
	Status              domain.Status `json:"status"`
	DeliveryCompletedAt *time.Time    `json:"deliveryCompletedAt"`
	Notes               string        `json:"notes"`
}

// UpdateStatusRequest is the request body for an earnings status change.
type UpdateStatusRequest struct {
	Status domain.Status `json:"status"`
	Notes  string        `json:"notes"`
}

// Create handles POST /api/earnings.
// @Summary Create an earnings record
// @Tags Earnings
// @Accept json
// @Produce json
// @Param earnings body CreateEarningsRequest true "Earnings details"
// @Success 201 {object} web.Envelope
// @Failure 400 {object} web.Envelope
// @Router /api/earnings [post]
func (h *EarningsHandler) Create(c *fiber.Ctx) error {
	var req CreateEarningsRequest
	if err := c.BodyParser(&req); err != nil {
		return web.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Driver == "" || req.Delivery == "" {
		return web.Fail(c, fiber.StatusBadRequest, "driver and delivery are required")
	}
	if req.BaseAmount == 0 {
		return web.Fail(c, fiber.StatusBadRequest, "baseAmount is required")
	}

	driverID, err := primitive.ObjectIDFromHex(req.Driver)
	if err != nil {
		return web.Fail(c, fiber.StatusBadRequest, "Invalid driver ID")
	}
	deliveryID, err := primitive.ObjectIDFromHex(req.Delivery)
	if err != nil {
		return web.Fail(c, fiber.StatusBadRequest, "Invalid delivery ID")
	}

	earnings := &domain.Earnings{
		DriverID:       driverID,
		DeliveryID:     deliveryID,
		BaseAmount:     req.BaseAmount,
		CommissionRate: req.CommissionRate,
		BonusAmount:    req.BonusAmount,
		Deductions:     req.Deductions,
		Status:         req.Status,
		Notes:          req.Notes,
	}
	if req.DeliveryCompletedAt != nil {
		earnings.DeliveryCompletedAt = *req.DeliveryCompletedAt
	}

	created, err := h.service.Create(c.Context(), earnings)
	if err != nil {
		return web.FailWithError(c, fiber.StatusBadRequest, "Failed to create earnings record", err)
	}
	return web.Created(c, "Earnings record created successfully", created)
}

// List handles GET /api/earnings with optional status and driver filters.
func (h *EarningsHandler) List(c *fiber.Ctx) error {
	filter := ports.Filter{
		Status:   domain.Status(c.Query("status")),
		DriverID: c.Query("driver"),
	}

	records, err := h.service.List(c.Context(), filter)
	if err != nil {
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to fetch earnings", err)
	}
	return web.OKList(c, len(records), records)
}

// ListByDriver handles GET /api/earnings/driver/:driverId with optional
// status, startDate and endDate filters.
func (h *EarningsHandler) ListByDriver(c *fiber.Ctx) error {
	filter := ports.DriverFilter{Status: domain.Status(c.Query("status"))}
	var err error
	if filter.StartDate, err = parseDate(c.Query("startDate")); err != nil {
		return web.Fail(c, fiber.StatusBadRequest, "Invalid startDate")
	}
	if filter.EndDate, err = parseDate(c.Query("endDate")); err != nil {
		return web.Fail(c, fiber.StatusBadRequest, "Invalid endDate")
	}

	records, err := h.service.ListByDriver(c.Context(), c.Params("driverId"), filter)
	if err != nil {
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to fetch driver earnings", err)
	}
	return web.OKList(c, len(records), records)
}

// Summary handles GET /api/earnings/driver/:driverId/summary.
// @Summary Get a driver's earnings summary
// @Tags Earnings
// @Produce json
// @Param driverId path string true "Driver ID"
// @Param startDate query string false "Window start (RFC3339 or YYYY-MM-DD)"
// @Param endDate query string false "Window end (RFC3339 or YYYY-MM-DD)"
// @Success 200 {object} web.Envelope
// @Router /api/earnings/driver/{driverId}/summary [get]
func (h *EarningsHandler) Summary(c *fiber.Ctx) error {
	startDate, err := parseDate(c.Query("startDate"))
	if err != nil {
		return web.Fail(c, fiber.StatusBadRequest, "Invalid startDate")
	}
	endDate, err := parseDate(c.Query("endDate"))
	if err != nil {
		return web.Fail(c, fiber.StatusBadRequest, "Invalid endDate")
	}

	summary, err := h.service.Summary(c.Context(), c.Params("driverId"), startDate, endDate)
	if err != nil {
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to fetch earnings summary", err)
	}
	return web.OK(c, summary)
}

// Update handles PUT /api/earnings/:id.
func (h *EarningsHandler) Update(c *fiber.Ctx) error {
	var req struct {
		BaseAmount     *float64       `json:"baseAmount"`
		CommissionRate *float64       `json:"commissionRate"`
		BonusAmount    *float64       `json:"bonusAmount"`
		Deductions     *float64       `json:"deductions"`
		Status         *domain.Status `json:"status"`
		Notes          *string        `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return web.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	record, err := h.service.Update(c.Context(), c.Params("id"), ports.Update{
		BaseAmount:     req.BaseAmount,
		CommissionRate: req.CommissionRate,
		BonusAmount:    req.BonusAmount,
		Deductions:     req.Deductions,
		Status:         req.Status,
		Notes:          req.Notes,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return web.Fail(c, fiber.StatusNotFound, "Earnings record not found")
		}
		return web.FailWithError(c, fiber.StatusBadRequest, "Failed to update earnings", err)
	}
	return web.OKMessage(c, "Earnings updated successfully", record)
}

// UpdateStatus handles PATCH /api/earnings/:id/status.
func (h *EarningsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return web.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Status == "" {
		return web.Fail(c, fiber.StatusBadRequest, "Status is required")
	}

	record, err := h.service.UpdateStatus(c.Context(), c.Params("id"), req.Status, req.Notes)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return web.Fail(c, fiber.StatusNotFound, "Earnings record not found")
		}
		return web.FailWithError(c, fiber.StatusBadRequest, "Failed to update earnings status", err)
	}
	return web.OKMessage(c, "Earnings status updated successfully", record)
}

// Delete handles DELETE /api/earnings/:id.
func (h *EarningsHandler) Delete(c *fiber.Ctx) error {
	record, err := h.service.Delete(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return web.Fail(c, fiber.StatusNotFound, "Earnings record not found")
		}
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to delete earnings", err)
	}
	return web.OKMessage(c, "Earnings deleted successfully", record)
}

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
