package handler

import (
	"errors"
	"time"

	"sparrow-parcel/internal/core/web"
	"sparrow-parcel/internal/features/invoices/domain"
	"sparrow-parcel/internal/features/invoices/ports"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InvoiceHandler handles HTTP requests for invoices.
type InvoiceHandler struct {
	service ports.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(service ports.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{service: service}
}

// RegisterRoutes mounts the invoice routes on the given router.
func (h *InvoiceHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/", h.Create)
	router.Get("/", h.List)
	router.Get("/user/:userId", h.ByUser)
	router.Get("/status/:status", h.ByStatus)
	router.Get("/:id", h.Get)
	router.Put("/:id", h.Update)
	router.Delete("/:id", h.Delete)
}

// CreateInvoiceRequest is the request body for creating an invoice.
type CreateInvoiceRequest struct {
	InvoiceNumber   string        `json:"invoiceNumber"`
	User            string        `json:"user"`
	Payment         string        `json:"payment"`
	Parcels         []string      `json:"parcels"`
	ConsolidationID string        `json:"consolidatedShipmentId"`
	Items           []domain.Item `json:"items"`
	Subtotal        float64       `json:"subtotal"`
	Tax             float64       `json:"tax"`
	ServiceFee      float64       `json:"serviceFee"`
	Discount        float64       `json:"discount"`
	TotalAmount     float64       `json:"totalAmount"`
	DueDate         *time.Time    `json:"dueDate"`
	Status          domain.Status `json:"status"`
	Notes           string        `json:"notes"`
}

// Create handles POST /api/invoice.
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	var req CreateInvoiceRequest
	if err := c.BodyParser(&req); err != nil {
		return web.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	userID, err := primitive.ObjectIDFromHex(req.User)
	if err != nil {
		return web.Fail(c, fiber.StatusBadRequest, "user is required")
	}
	paymentID, err := primitive.ObjectIDFromHex(req.Payment)
	if err != nil {
		return web.Fail(c, fiber.StatusBadRequest, "payment is required")
	}

	invoice := &domain.Invoice{
		InvoiceNumber: req.InvoiceNumber,
		UserID:        userID,
		PaymentID:     paymentID,
		Items:         req.Items,
		Subtotal:      req.Subtotal,
		Tax:           req.Tax,
		ServiceFee:    req.ServiceFee,
		Discount:      req.Discount,
		TotalAmount:   req.TotalAmount,
		DueDate:       req.DueDate,
		Status:        req.Status,
		Notes:         req.Notes,
	}
	for _, id := range req.Parcels {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return web.Fail(c, fiber.StatusBadRequest, "Invalid parcel ID: "+id)
		}
		invoice.ParcelIDs = append(invoice.ParcelIDs, oid)
	}
	if oid, err := primitive.ObjectIDFromHex(req.ConsolidationID); err == nil {
		invoice.ConsolidationID = &oid
	}

	created, err := h.service.Create(c.Context(), invoice)
	if err != nil {
		return web.FailWithError(c, fiber.StatusBadRequest, "Failed to create invoice", err)
	}
	return web.Created(c, "Invoice created successfully", created)
}

// List handles GET /api/invoice.
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	filter := ports.Filter{
		Status: domain.Status(c.Query("status")),
		UserID: c.Query("userId"),
	}

	invoices, err := h.service.List(c.Context(), filter)
	if err != nil {
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to fetch invoices", err)
	}
	return web.OKList(c, len(invoices), invoices)
}

// Get handles GET /api/invoice/:id.
func (h *InvoiceHandler) Get(c *fiber.Ctx) error {
	invoice, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return web.Fail(c, fiber.StatusNotFound, "Invoice not found")
		}
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to fetch invoice", err)
	}
	return web.OK(c, invoice)
}

// ByUser handles GET /api/invoice/user/:userId.
func (h *InvoiceHandler) ByUser(c *fiber.Ctx) error {
	invoices, err := h.service.ByUser(c.Context(), c.Params("userId"))
	if err != nil {
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to fetch user invoices", err)
	}
	return web.OKList(c, len(invoices), invoices)
}

// ByStatus handles GET /api/invoice/status/:status.
func (h *InvoiceHandler) ByStatus(c *fiber.Ctx) error {
	invoices, err := h.service.ByStatus(c.Context(), domain.Status(c.Params("status")))
	if err != nil {
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to fetch invoices by status", err)
	}
	return web.OKList(c, len(invoices), invoices)
}

// UpdateInvoiceRequest is the request body for editing an invoice.
type UpdateInvoiceRequest struct {
	Status     *domain.Status `json:"status"`
	DueDate    *time.Time     `json:"dueDate"`
	Tax        *float64       `json:"tax"`
	ServiceFee *float64       `json:"serviceFee"`
	Discount   *float64       `json:"discount"`
	Notes      *string        `json:"notes"`
}

// Update handles PUT /api/invoice/:id.
func (h *InvoiceHandler) Update(c *fiber.Ctx) error {
	var req UpdateInvoiceRequest
	if err := c.BodyParser(&req); err != nil {
		return web.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	invoice, err := h.service.Update(c.Context(), c.Params("id"), ports.Update{
		Status:     req.Status,
		DueDate:    req.DueDate,
		Tax:        req.Tax,
		ServiceFee: req.ServiceFee,
		Discount:   req.Discount,
		Notes:      req.Notes,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return web.Fail(c, fiber.StatusNotFound, "Invoice not found")
		}
		return web.FailWithError(c, fiber.StatusBadRequest, "Failed to update invoice", err)
	}
	return web.OKMessage(c, "Invoice updated successfully", invoice)
}

// Delete handles DELETE /api/invoice/:id.
func (h *InvoiceHandler) Delete(c *fiber.Ctx) error {
	invoice, err := h.service.Delete(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return web.Fail(c, fiber.StatusNotFound, "Invoice not found")
		}
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to delete invoice", err)
	}
	return web.OKMessage(c, "Invoice deleted successfully", invoice)
}
