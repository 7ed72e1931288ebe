package handler

import (
	"errors"

	"sparrow-parcel/internal/core/web"
	"sparrow-parcel/internal/features/payments/domain"
	"sparrow-parcel/internal/features/payments/ports"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentHandler handles HTTP requests for payments.
type PaymentHandler struct {
	service ports.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service ports.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// RegisterRoutes mounts the payment routes on the given router.
func (h *PaymentHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/", h.Create)
	router.Get("/", h.List)
	router.Get("/user/:userId", h.ByUser)
	router.Get("/status/:status", h.ByStatus)
	router.Get("/:id", h.Get)
	router.Put("/:id", h.Update)
	router.Delete("/:id", h.Delete)
}

// CreatePaymentRequest is the request body for creating a payment.
type CreatePaymentRequest struct {
	User            string        `json:"user"`
	Parcels         []string      `json:"parcels"`
	Amount          float64       `json:"amount"`
	PaymentMethod   domain.Method `json:"paymentMethod"`
	PaymentStatus   domain.Status `json:"paymentStatus"`
	ConsolidationID string        `json:"consolidatedShipmentId"`
	Notes           string        `json:"notes"`
}

// Create handles POST /api/payment.
//
// @Summary Create a payment
// @Description Records a customer payment covering one or more parcels.
// @Tags payments
// @Accept json
// @Produce json
// @Param payment body CreatePaymentRequest true "Payment"
// @Success 201 {object} web.Envelope
// @Failure 400 {object} web.Envelope
// @Router /api/payment [post]
func (h *PaymentHandler) Create(c *fiber.Ctx) error {
	var req CreatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return web.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.User == "" || req.Amount <= 0 || req.PaymentMethod == "" {
		return web.Fail(c, fiber.StatusBadRequest, "user, amount and paymentMethod are required")
	}
	userID, err := primitive.ObjectIDFromHex(req.User)
	if err != nil {
		return web.Fail(c, fiber.StatusBadRequest, "Invalid user ID")
	}

	payment := &domain.Payment{
		UserID: userID,
		Amount: req.Amount,
		Method: req.PaymentMethod,
		Status: req.PaymentStatus,
		Notes:  req.Notes,
	}
	for _, id := range req.Parcels {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return web.Fail(c, fiber.StatusBadRequest, "Invalid parcel ID: "+id)
		}
		payment.ParcelIDs = append(payment.ParcelIDs, oid)
	}
	if oid, err := primitive.ObjectIDFromHex(req.ConsolidationID); err == nil {
		payment.ConsolidationID = &oid
	}

	created, err := h.service.Create(c.Context(), payment)
	if err != nil {
		return web.FailWithError(c, fiber.StatusBadRequest, "Failed to create payment", err)
	}
	return web.Created(c, "Payment created successfully", created)
}

// List handles GET /api/payment.
func (h *PaymentHandler) List(c *fiber.Ctx) error {
	filter := ports.Filter{
		Status: domain.Status(c.Query("status")),
		UserID: c.Query("userId"),
	}

	payments, err := h.service.List(c.Context(), filter)
	if err != nil {
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to fetch payments", err)
	}
	return web.OKList(c, len(payments), payments)
}

// Get handles GET /api/payment/:id.
func (h *PaymentHandler) Get(c *fiber.Ctx) error {
	payment, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return web.Fail(c, fiber.StatusNotFound, "Payment not found")
		}
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to fetch payment", err)
	}
	return web.OK(c, payment)
}

// ByUser handles GET /api/payment/user/:userId.
func (h *PaymentHandler) ByUser(c *fiber.Ctx) error {
	payments, err := h.service.ByUser(c.Context(), c.Params("userId"))
	if err != nil {
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to fetch user payments", err)
	}
	return web.OKList(c, len(payments), payments)
}

// ByStatus handles GET /api/payment/status/:status.
func (h *PaymentHandler) ByStatus(c *fiber.Ctx) error {
	payments, err := h.service.ByStatus(c.Context(), domain.Status(c.Params("status")))
	if err != nil {
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to fetch payments by status", err)
	}
	return web.OKList(c, len(payments), payments)
}

// UpdatePaymentRequest is the request body for editing a payment.
type UpdatePaymentRequest struct {
	Amount        *float64       `json:"amount"`
	PaymentMethod *domain.Method `json:"paymentMethod"`
	PaymentStatus *domain.Status `json:"paymentStatus"`
	Notes         *string        `json:"notes"`
}

// Update handles PUT /api/payment/:id.
func (h *PaymentHandler) Update(c *fiber.Ctx) error {
	var req UpdatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return web.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	payment, err := h.service.Update(c.Context(), c.Params("id"), ports.Update{
		Amount: req.Amount,
		Method: req.PaymentMethod,
		Status: req.PaymentStatus,
		Notes:  req.Notes,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return web.Fail(c, fiber.StatusNotFound, "Payment not found")
		}
		return web.FailWithError(c, fiber.StatusBadRequest, "Failed to update payment", err)
	}
	return web.OKMessage(c, "Payment updated successfully", payment)
}

// Delete handles DELETE /api/payment/:id.
func (h *PaymentHandler) Delete(c *fiber.Ctx) error {
	payment, err := h.service.Delete(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return web.Fail(c, fiber.StatusNotFound, "Payment not found")
		}
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to delete payment", err)
	}
	return web.OKMessage(c, "Payment deleted successfully", payment)
}
