package handler

import (
	"errors"
	"time"

	"sparrow-parcel/internal/core/web"
	"sparrow-parcel/internal/features/deliveries/domain"
	"sparrow-parcel/internal/features/deliveries/ports"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DeliveryHandler handles HTTP requests for deliveries.
type DeliveryHandler struct {
	service ports.DeliveryService
}

// NewDeliveryHandler creates a new DeliveryHandler.
func NewDeliveryHandler(service ports.DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{service: service}
}

// RegisterRoutes mounts the delivery routes on the given router.
func (h *DeliveryHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/", h.Create)
	router.Get("/", h.List)
	router.Get("/number/:deliveryNumber", h.GetByNumber)
	router.Get("/driver/:driverId", h.ListByDriver)
	router.Get("/status/:status", h.ListByStatus)
	router.Get("/type/:deliveryType", h.ListByType)
	router.Get("/item-type/:itemType", h.ListByItemType)
	router.Get("/warehouse/:warehouseId", h.ListByWarehouse)
	router.Get("/consolidation/:consolidationId", h.ListByConsolidation)
	router.Get("/:id", h.Get)
	router.Put("/:id", h.Update)
	router.Patch("/:id/status", h.UpdateStatus)
	router.Patch("/:id/reassign", h.Reassign)
	router.Delete("/:id", h.Delete)
}

// LocationRequest is a delivery endpoint in a request body.
type LocationRequest struct {
	Type         string  `json:"type"`
	WarehouseID  string  `json:"warehouseId"`
	Address      string  `json:"address"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	LocationName string  `json:"locationName"`
}

func (r LocationRequest) toDomain() domain.Location {
	location := domain.Location{
		Type:         r.Type,
		Address:      r.Address,
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
		LocationName: r.LocationName,
	}
	if oid, err := primitive.ObjectIDFromHex(r.WarehouseID); err == nil {
		location.WarehouseID = &oid
	}
	return location
}

// CreateDeliveryRequest is the request body for creating a delivery.
type CreateDeliveryRequest struct {
	DeliveryItemType      domain.ItemType  `json:"deliveryItemType"`
	Parcels               []string         `json:"parcels"`
	Consolidation         string           `json:"consolidation"`
	AssignedDriver        string           `json:"assignedDriver"`
	AssignedBy            string           `json:"assignedBy"`
	FromLocation          *LocationRequest `json:"fromLocation"`
	ToLocation            *LocationRequest `json:"toLocation"`
	Priority              domain.Priority  `json:"priority"`
	EstimatedPickupTime   *time.Time       `json:"estimatedPickupTime"`
	EstimatedDeliveryTime *time.Time       `json:"estimatedDeliveryTime"`
	DeliveryInstructions  string           `json:"deliveryInstructions"`
	Notes                 string           `json:"notes"`
}

// UpdateStatusRequest is the request body for a delivery status update.
type UpdateStatusRequest struct {
	Status   domain.Status    `json:"status"`
	Note     string           `json:"note"`
	Location *domain.GeoPoint `json:"location"`
}

// ReassignRequest is the request body for reassigning a delivery.
type ReassignRequest struct {
	NewDriverID  string `json:"newDriverId"`
	ReassignedBy string `json:"reassignedBy"`
}

// Create handles POST /api/deliveries.
// @Summary Create a delivery and assign it to a driver
// @Tags Deliveries
// @Accept json
// @Produce json
// @Param delivery body CreateDeliveryRequest true "Delivery details"
// @Success 201 {object} web.Envelope
// @Failure 400 {object} web.Envelope
// @Router /api/deliveries [post]
func (h *DeliveryHandler) Create(c *fiber.Ctx) error {
	var req CreateDeliveryRequest
	if err := c.BodyParser(&req); err != nil {
		return web.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if req.AssignedDriver == "" {
		return web.Fail(c, fiber.StatusBadRequest, "assignedDriver is required")
	}
	if req.DeliveryItemType == "" {
		return web.Fail(c, fiber.StatusBadRequest, `deliveryItemType is required (must be "parcel" or "consolidation")`)
	}
	if !req.DeliveryItemType.Valid() {
		return web.Fail(c, fiber.StatusBadRequest, `deliveryItemType must be either "parcel" or "consolidation"`)
	}
	if req.DeliveryItemType == domain.ItemTypeParcel && len(req.Parcels) == 0 {
		return web.Fail(c, fiber.StatusBadRequest, "At least one parcel is required for parcel delivery")
	}
	if req.DeliveryItemType == domain.ItemTypeConsolidation && req.Consolidation == "" {
		return web.Fail(c, fiber.StatusBadRequest, "consolidation ID is required for consolidation delivery")
	}
	if req.FromLocation == nil || req.ToLocation == nil {
		return web.Fail(c, fiber.StatusBadRequest, "fromLocation and toLocation are required")
	}
	if req.FromLocation.Type == "" || req.ToLocation.Type == "" {
		return web.Fail(c, fiber.StatusBadRequest, `fromLocation.type and toLocation.type are required (must be "warehouse" or "address")`)
	}

	driverID, err := primitive.ObjectIDFromHex(req.AssignedDriver)
	if err != nil {
		return web.Fail(c, fiber.StatusBadRequest, "Invalid assignedDriver ID")
	}

	delivery := &domain.Delivery{
		DeliveryItemType:      req.DeliveryItemType,
		AssignedDriver:        driverID,
		FromLocation:          req.FromLocation.toDomain(),
		ToLocation:            req.ToLocation.toDomain(),
		Priority:              req.Priority,
		EstimatedPickupTime:   req.EstimatedPickupTime,
		EstimatedDeliveryTime: req.EstimatedDeliveryTime,
		DeliveryInstructions:  req.DeliveryInstructions,
		Notes:                 req.Notes,
	}
	for _, p := range req.Parcels {
		oid, err := primitive.ObjectIDFromHex(p)
		if err != nil {
			return web.Fail(c, fiber.StatusBadRequest, "Invalid parcel ID")
		}
		delivery.ParcelIDs = append(delivery.ParcelIDs, oid)
	}
	if req.Consolidation != "" {
		oid, err := primitive.ObjectIDFromHex(req.Consolidation)
		if err != nil {
			return web.Fail(c, fiber.StatusBadRequest, "Invalid consolidation ID")
		}
		delivery.ConsolidationID = &oid
	}
	if oid, err := primitive.ObjectIDFromHex(req.AssignedBy); err == nil {
		delivery.AssignedBy = &oid
	}

	created, err := h.service.Create(c.Context(), delivery)
	if err != nil {
		return web.FailWithError(c, fiber.StatusBadRequest, "Failed to create delivery", err)
	}
	return web.Created(c, "Delivery created and assigned successfully", created)
}

// List handles GET /api/deliveries with optional query filters.
func (h *DeliveryHandler) List(c *fiber.Ctx) error {
	filter := ports.Filter{
		Status:       domain.Status(c.Query("status")),
		DriverID:     c.Query("driverId"),
		Priority:     domain.Priority(c.Query("priority")),
		DeliveryType: c.Query("deliveryType"),
		ItemType:     domain.ItemType(c.Query("deliveryItemType")),
	}

	deliveries, err := h.service.List(c.Context(), filter)
	if err != nil {
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to fetch deliveries", err)
	}
	return web.OKList(c, len(deliveries), deliveries)
}

// Get handles GET /api/deliveries/:id.
func (h *DeliveryHandler) Get(c *fiber.Ctx) error {
	delivery, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return notFoundOrServerError(c, err, "Failed to fetch delivery")
	}
	return web.OK(c, delivery)
}

// GetByNumber handles GET /api/deliveries/number/:deliveryNumber.
func (h *DeliveryHandler) GetByNumber(c *fiber.Ctx) error {
	delivery, err := h.service.GetByNumber(c.Context(), c.Params("deliveryNumber"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return web.Fail(c, fiber.StatusNotFound, "Delivery not found with this delivery number")
		}
		return web.FailWithError(c, fiber.StatusInternalServerError, "Failed to fetch delivery", err)
	}
	return web.OK(c, delivery)
}

// ListByDriver handles GET /api/deliveries/driver/:driverId.
func (h *DeliveryHandler) ListByDriver(c *fiber.Ctx) error {
	return h.list(c, ports.Filter{DriverID: c.Params("driverId")}, "Failed to fetch deliveries by driver")
}

// ListByStatus handles GET /api/deliveries/status/:status.
func (h *DeliveryHandler) ListByStatus(c *fiber.Ctx) error {
	return h.list(c, ports.Filter{Status: domain.Status(c.Params("status"))}, "Failed to fetch deliveries by status")
}

// ListByType handles GET /api/deliveries/type/:deliveryType.
func (h *DeliveryHandler) ListByType(c *fiber.Ctx) error {
	return h.list(c, ports.Filter{DeliveryType: c.Params("deliveryType")}, "Failed to fetch deliveries by type")
}

// ListByItemType handles GET /api/deliveries/item-type/:itemType.
func (h *DeliveryHandler) ListByItemType(c *fiber.Ctx) error {
	itemType := domain.ItemType(c.Params("itemType"))
	if !itemType.Valid() {
		return web.Fail(c, fiber.StatusBadRequest, `itemType must be either "parcel" or "consolidation"`)
	}
	return h.list(c, ports.Filter{ItemType: itemType}, "Failed to fetch deliveries by item type")
}

// ListByWarehouse handles GET /api/deliveries/warehouse/:warehouseId.
func (h *DeliveryHandler) ListByWarehouse(c *fiber.Ctx) error {
	return h.list(c, ports.Filter{WarehouseID: c.Params("warehouseId")}, "Failed to fetch deliveries by warehouse")
}

// ListByConsolidation handles GET /api/deliveries/consolidation/:consolidationId.
func (h *DeliveryHandler) ListByConsolidation(c *fiber.Ctx) error {
	return h.list(c, ports.Filter{ConsolidationID: c.Params("consolidationId")}, "Failed to fetch deliveries by consolidation")
}

func (h *DeliveryHandler) list(c *fiber.Ctx, filter ports.Filter, failMessage string) error {
	deliveries, err := h.service.List(c.Context(), filter)
	if err != nil {
		return web.FailWithError(c, fiber.StatusInternalServerError, failMessage, err)
	}
	return web.OKList(c, len(deliveries), deliveries)
}

// Update handles PUT /api/deliveries/:id.
func (h *DeliveryHandler) Update(c *fiber.Ctx) error {
	var req struct {
		AssignedDriver        *string             `json:"assignedDriver"`
		FromLocation          *LocationRequest    `json:"fromLocation"`
		ToLocation            *LocationRequest    `json:"toLocation"`
		Priority              *domain.Priority    `json:"priority"`
		EstimatedPickupTime   *time.Time          `json:"estimatedPickupTime"`
		EstimatedDeliveryTime *time.Time          `json:"estimatedDeliveryTime"`
		Distance              *float64            `json:"distance"`
		DeliveryInstructions  *string             `json:"deliveryInstructions"`
		RecipientSignature    *string             `json:"recipientSignature"`
		DeliveryProof         *[]domain.ProofItem `json:"deliveryProof"`
		Notes                 *string             `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return web.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	update := ports.Update{
		AssignedDriver:        req.AssignedDriver,
		Priority:              req.Priority,
		EstimatedPickupTime:   req.EstimatedPickupTime,
		EstimatedDeliveryTime: req.EstimatedDeliveryTime,
		Distance:              req.Distance,
		DeliveryInstructions:  req.DeliveryInstructions,
		RecipientSignature:    req.RecipientSignature,
		DeliveryProof:         req.DeliveryProof,
		Notes:                 req.Notes,
	}
	if req.FromLocation != nil {
		from := req.FromLocation.toDomain()
		update.FromLocation = &from
	}
	if req.ToLocation != nil {
		to := req.ToLocation.toDomain()
		update.ToLocation = &to
	}

	delivery, err := h.service.Update(c.Context(), c.Params("id"), update)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return web.Fail(c, fiber.StatusNotFound, "Delivery not found")
		}
		return web.FailWithError(c, fiber.StatusBadRequest, "Failed to update delivery", err)
	}
	return web.OKMessage(c, "Delivery updated successfully", delivery)
}

// UpdateStatus handles PATCH /api/deliveries/:id/status.
// @Summary Update delivery status
// @Tags Deliveries
// @Accept json
// @Produce json
// @Param id path string true "Delivery ID"
// @Param status body UpdateStatusRequest true "New status"
// @Success 200 {object} web.Envelope
// @Failure 400 {object} web.Envelope
// @Router /api/deliveries/{id}/status [patch]
func (h *DeliveryHandler) UpdateStatus(c *fiber.Ctx) error {
	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return web.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Status == "" {
		return web.Fail(c, fiber.StatusBadRequest, "Status is required")
	}

	delivery, err := h.service.UpdateStatus(c.Context(), c.Params("id"), ports.StatusUpdate{
		Status:   req.Status,
		Note:     req.Note,
		Location: req.Location,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return web.Fail(c, fiber.StatusNotFound, "Delivery not found")
		}
		return web.FailWithError(c, fiber.StatusBadRequest, "Failed to update delivery status", err)
	}
	return web.OKMessage(c, "Delivery status updated successfully", delivery)
}

// Reassign handles PATCH /api/deliveries/:id/reassign.
func (h *DeliveryHandler) Reassign(c *fiber.Ctx) error {
	var req ReassignRequest
	if err := c.BodyParser(&req); err != nil {
		return web.Fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.NewDriverID == "" {
		return web.Fail(c, fiber.StatusBadRequest, "newDriverId is required")
	}

	delivery, err := h.service.Reassign(c.Context(), c.Params("id"), req.NewDriverID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return web.Fail(c, fiber.StatusNotFound, "Delivery not found")
		}
		return web.FailWithError(c, fiber.StatusBadRequest, "Failed to reassign delivery", err)
	}
	return web.OKMessage(c, "Delivery reassigned successfully", delivery)
}

// Delete handles DELETE /api/deliveries/:id.
func (h *DeliveryHandler) Delete(c *fiber.Ctx) error {
	delivery, err := h.service.Delete(c.Context(), c.Params("id"))
	if err != nil {
		return notFoundOrServerError(c, err, "Failed to delete delivery")
	}
	return web.OKMessage(c, "Delivery deleted successfully", delivery)
}

func notFoundOrServerError(c *fiber.Ctx, err error, message string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return web.Fail(c, fiber.StatusNotFound, "Delivery not found")
	}
	return web.FailWithError(c, fiber.StatusInternalServerError, message, err)
}
