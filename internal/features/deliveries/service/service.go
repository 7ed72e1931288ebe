package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sparrow-parcel/internal/core/logger"
	"sparrow-parcel/internal/core/notify"
	"sparrow-parcel/internal/features/deliveries/domain"
	"sparrow-parcel/internal/features/deliveries/ports"

	consolidationdomain "sparrow-parcel/internal/features/consolidations/domain"
	directorydomain "sparrow-parcel/internal/features/directory/domain"
	directoryports "sparrow-parcel/internal/features/directory/ports"
	parceldomain "sparrow-parcel/internal/features/parcels/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const serviceName = "delivery-service"

// DeliveryServiceImpl implements ports.DeliveryService.
type DeliveryServiceImpl struct {
	repo       ports.DeliveryRepository
	users      directoryports.UserDirectory
	warehouses directoryports.WarehouseDirectory
	notifier   notify.Sender
	earnings   ports.EarningsCreator
}

// NewDeliveryService creates a new DeliveryServiceImpl. earnings may be nil
// when no earnings pipeline is wired.
func NewDeliveryService(
	repo ports.DeliveryRepository,
	users directoryports.UserDirectory,
	warehouses directoryports.WarehouseDirectory,
	notifier notify.Sender,
	earnings ports.EarningsCreator,
) *DeliveryServiceImpl {
	return &DeliveryServiceImpl{
		repo:       repo,
		users:      users,
		warehouses: warehouses,
		notifier:   notifier,
		earnings:   earnings,
	}
}

// Create validates and stores a new delivery, marks its items as assigned and
// notifies the driver and the assigning staff member.
func (s *DeliveryServiceImpl) Create(ctx context.Context, delivery *domain.Delivery) (*domain.Delivery, error) {
	if !delivery.DeliveryItemType.Valid() {
		return nil, errors.New(`deliveryItemType must be either "parcel" or "consolidation"`)
	}

	var consolidation *consolidationdomain.Consolidation
	switch delivery.DeliveryItemType {
	case domain.ItemTypeParcel:
		if len(delivery.ParcelIDs) == 0 {
			return nil, errors.New("at least one parcel is required for parcel delivery")
		}
		count, err := s.repo.CountParcels(ctx, delivery.ParcelIDs)
		if err != nil {
			return nil, err
		}
		if count != int64(len(delivery.ParcelIDs)) {
			return nil, errors.New("one or more parcels not found")
		}
	case domain.ItemTypeConsolidation:
		if delivery.ConsolidationID == nil {
			return nil, errors.New("consolidation ID is required for consolidation delivery")
		}
		var err error
		consolidation, err = s.repo.FindConsolidation(ctx, *delivery.ConsolidationID)
		if err != nil {
			return nil, err
		}
		if consolidation == nil {
			return nil, errors.New("consolidation not found")
		}
	}

	if err := s.requireDriver(ctx, delivery.AssignedDriver.Hex()); err != nil {
		return nil, err
	}

	if _, err := s.resolveLocation(ctx, delivery.FromLocation, "fromLocation"); err != nil {
		return nil, err
	}
	toWarehouse, err := s.resolveLocation(ctx, delivery.ToLocation, "toLocation")
	if err != nil {
		return nil, err
	}

	deliveryType, err := domain.DetermineType(delivery.FromLocation, delivery.ToLocation)
	if err != nil {
		return nil, err
	}
	delivery.DeliveryType = deliveryType

	if delivery.DeliveryNumber == "" {
		delivery.DeliveryNumber = domain.GenerateDeliveryNumber()
	}
	if delivery.Status == "" {
		delivery.Status = domain.StatusAssigned
	}
	if delivery.Priority == "" {
		delivery.Priority = domain.PriorityNormal
	}

	itemDescription := "consolidation"
	if delivery.DeliveryItemType == domain.ItemTypeParcel {
		itemDescription = fmt.Sprintf("%d parcel(s)", len(delivery.ParcelIDs))
	}
	delivery.StatusHistory = append(delivery.StatusHistory, domain.StatusHistoryEntry{
		Status:    delivery.Status,
		Timestamp: time.Now().UTC(),
		Note: fmt.Sprintf("Delivery created: %s - %s",
			strings.ReplaceAll(deliveryType, "_", " "), itemDescription),
	})

	if err := s.repo.Insert(ctx, delivery); err != nil {
		return nil, err
	}

	toWarehouseID := warehouseID(toWarehouse)

	switch delivery.DeliveryItemType {
	case domain.ItemTypeParcel:
		entry := parceldomain.StatusHistoryEntry{
			Status:    parceldomain.StatusAssignedToDriver,
			Service:   serviceName,
			Timestamp: time.Now().UTC(),
			Note:      fmt.Sprintf("Assigned to delivery %s", delivery.DeliveryNumber),
		}
		if err := s.repo.AssignParcels(ctx, delivery.ParcelIDs, delivery.AssignedDriver, toWarehouseID, parceldomain.StatusAssignedToDriver, entry); err != nil {
			return nil, err
		}
	case domain.ItemTypeConsolidation:
		consolidationEntry := consolidationdomain.StatusHistoryEntry{
			Status:    consolidationdomain.StatusInTransit,
			Timestamp: time.Now().UTC(),
			Note:      fmt.Sprintf("Assigned to delivery %s", delivery.DeliveryNumber),
		}
		if err := s.repo.PushConsolidationStatus(ctx, *delivery.ConsolidationID, consolidationdomain.StatusInTransit, consolidationEntry); err != nil {
			return nil, err
		}

		if len(consolidation.ParcelIDs) > 0 {
			entry := parceldomain.StatusHistoryEntry{
				Status:    parceldomain.StatusInTransit,
				Service:   serviceName,
				Timestamp: time.Now().UTC(),
				Note:      fmt.Sprintf("Consolidation assigned to delivery %s", delivery.DeliveryNumber),
			}
			if err := s.repo.AssignParcels(ctx, consolidation.ParcelIDs, delivery.AssignedDriver, toWarehouseID, parceldomain.StatusInTransit, entry); err != nil {
				return nil, err
			}
		}
	}

	readableType := domain.ReadableType(deliveryType)
	itemCount := "1 consolidation"
	if delivery.DeliveryItemType == domain.ItemTypeParcel {
		itemCount = fmt.Sprintf("%d parcel(s)", len(delivery.ParcelIDs))
	}

	s.notifier.Send(notify.Notification{
		UserID:     delivery.AssignedDriver.Hex(),
		Type:       "delivery_assignment",
		Title:      "New Delivery Assigned",
		Message:    fmt.Sprintf("You have been assigned %s delivery %s with %s", readableType, delivery.DeliveryNumber, itemCount),
		EntityType: "Delivery",
		EntityID:   delivery.ID.Hex(),
		Channels:   []string{notify.ChannelInApp, notify.ChannelPush},
	})

	if delivery.AssignedBy != nil {
		s.notifier.Send(notify.Notification{
			UserID:     delivery.AssignedBy.Hex(),
			Type:       "delivery_update",
			Title:      "Delivery Created",
			Message:    fmt.Sprintf("%s delivery %s has been created and assigned to driver", readableType, delivery.DeliveryNumber),
			EntityType: "Delivery",
			EntityID:   delivery.ID.Hex(),
			Channels:   []string{notify.ChannelInApp},
		})
	}

	return delivery, nil
}

// List returns deliveries matching the filter.
func (s *DeliveryServiceImpl) List(ctx context.Context, filter ports.Filter) ([]*domain.Delivery, error) {
	return s.repo.Find(ctx, filter)
}

// Get returns one delivery by ID.
func (s *DeliveryServiceImpl) Get(ctx context.Context, id string) (*domain.Delivery, error) {
	return s.repo.FindByID(ctx, id)
}

// GetByNumber returns one delivery by its delivery number.
func (s *DeliveryServiceImpl) GetByNumber(ctx context.Context, deliveryNumber string) (*domain.Delivery, error) {
	return s.repo.FindByNumber(ctx, deliveryNumber)
}

// Update applies a partial field update after validating any changed driver
// or locations.
func (s *DeliveryServiceImpl) Update(ctx context.Context, id string, update ports.Update) (*domain.Delivery, error) {
	if update.AssignedDriver != nil {
		if err := s.requireDriver(ctx, *update.AssignedDriver); err != nil {
			return nil, err
		}
	}
	if update.FromLocation != nil {
		if _, err := s.resolveLocation(ctx, *update.FromLocation, "fromLocation"); err != nil {
			return nil, err
		}
	}
	if update.ToLocation != nil {
		if _, err := s.resolveLocation(ctx, *update.ToLocation, "toLocation"); err != nil {
			return nil, err
		}
	}
	return s.repo.Update(ctx, id, update)
}

// UpdateStatus applies a status transition, propagates the matching statuses
// to the carried items and, on completion, records driver earnings. Earnings
// and notification failures never fail the transition.
func (s *DeliveryServiceImpl) UpdateStatus(ctx context.Context, id string, update ports.StatusUpdate) (*domain.Delivery, error) {
	if !update.Status.Valid() {
		return nil, domain.ErrInvalidStatus
	}

	delivery, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	oldStatus := delivery.Status

	var pickupAt, deliveredAt *time.Time
	now := time.Now().UTC()
	if update.Status == domain.StatusPickedUp && delivery.ActualPickupTime == nil {
		pickupAt = &now
	}
	if update.Status == domain.StatusDelivered && delivery.ActualDeliveryTime == nil {
		deliveredAt = &now
	}

	entry := domain.StatusHistoryEntry{
		Status:    update.Status,
		Timestamp: now,
		Note:      update.Note,
		Location:  update.Location,
	}
	updated, err := s.repo.ApplyStatus(ctx, id, update.Status, entry, pickupAt, deliveredAt)
	if err != nil {
		return nil, err
	}

	if update.Status == domain.StatusDelivered && s.earnings != nil {
		if err := s.earnings.CreateForDelivery(ctx, updated); err != nil {
			logger.Get().Error("failed to create earnings for delivery",
				zap.String("deliveryNumber", updated.DeliveryNumber),
				zap.Error(err))
		}
	}

	if parcelStatus, consolidationStatus, ok := domain.ItemStatuses(update.Status, updated.ToLocation.Type); ok {
		s.propagateItemStatuses(ctx, updated, update.Status, parcelStatus, consolidationStatus)
	}

	if oldStatus != update.Status {
		s.notifier.Send(notify.Notification{
			UserID:     updated.AssignedDriver.Hex(),
			Type:       "delivery_update",
			Title:      "Delivery Status Updated",
			Message:    fmt.Sprintf("Delivery %s status changed to %s", updated.DeliveryNumber, update.Status),
			EntityType: "Delivery",
			EntityID:   updated.ID.Hex(),
			Channels:   []string{notify.ChannelInApp},
		})
	}

	return updated, nil
}

func (s *DeliveryServiceImpl) propagateItemStatuses(ctx context.Context, delivery *domain.Delivery, status domain.Status, parcelStatus parceldomain.Status, consolidationStatus consolidationdomain.Status) {
	now := time.Now().UTC()

	switch delivery.DeliveryItemType {
	case domain.ItemTypeParcel:
		if len(delivery.ParcelIDs) == 0 {
			return
		}
		entry := parceldomain.StatusHistoryEntry{
			Status:    parcelStatus,
			Service:   serviceName,
			Timestamp: now,
			Note:      fmt.Sprintf("Delivery %s status: %s", delivery.DeliveryNumber, status),
		}
		if err := s.repo.PushParcelStatus(ctx, delivery.ParcelIDs, parcelStatus, entry); err != nil {
			logger.Get().Error("failed to propagate status to parcels",
				zap.String("deliveryNumber", delivery.DeliveryNumber), zap.Error(err))
		}
	case domain.ItemTypeConsolidation:
		if delivery.ConsolidationID == nil {
			return
		}
		consolidationEntry := consolidationdomain.StatusHistoryEntry{
			Status:    consolidationStatus,
			Timestamp: now,
			Note:      fmt.Sprintf("Delivery %s status: %s", delivery.DeliveryNumber, status),
		}
		if err := s.repo.PushConsolidationStatus(ctx, *delivery.ConsolidationID, consolidationStatus, consolidationEntry); err != nil {
			logger.Get().Error("failed to propagate status to consolidation",
				zap.String("deliveryNumber", delivery.DeliveryNumber), zap.Error(err))
		}

		if delivery.Consolidation != nil && len(delivery.Consolidation.ParcelIDs) > 0 {
			entry := parceldomain.StatusHistoryEntry{
				Status:    parcelStatus,
				Service:   serviceName,
				Timestamp: now,
				Note:      fmt.Sprintf("Consolidation delivery %s status: %s", delivery.DeliveryNumber, status),
			}
			if err := s.repo.PushParcelStatus(ctx, delivery.Consolidation.ParcelIDs, parcelStatus, entry); err != nil {
				logger.Get().Error("failed to propagate status to consolidation parcels",
					zap.String("deliveryNumber", delivery.DeliveryNumber), zap.Error(err))
			}
		}
	}
}

// Reassign moves the delivery to a new driver and notifies both drivers.
func (s *DeliveryServiceImpl) Reassign(ctx context.Context, id, newDriverID string) (*domain.Delivery, error) {
	newDriver, err := s.findDriver(ctx, newDriverID)
	if err != nil {
		return nil, err
	}

	delivery, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	oldDriverID := delivery.AssignedDriver

	oldName := "previous driver"
	if delivery.Driver != nil {
		oldName = delivery.Driver.UserName
	}

	entry := domain.StatusHistoryEntry{
		Status:    delivery.Status,
		Timestamp: time.Now().UTC(),
		Note:      fmt.Sprintf("Delivery reassigned from %s to %s", oldName, newDriver.UserName),
	}
	updated, err := s.repo.SetDriver(ctx, id, newDriver.ID, entry)
	if err != nil {
		return nil, err
	}

	s.notifier.Send(notify.Notification{
		UserID:     oldDriverID.Hex(),
		Type:       "delivery_update",
		Title:      "Delivery Reassigned",
		Message:    fmt.Sprintf("Delivery %s has been reassigned to another driver", updated.DeliveryNumber),
		EntityType: "Delivery",
		EntityID:   updated.ID.Hex(),
		Channels:   []string{notify.ChannelInApp, notify.ChannelPush},
	})
	s.notifier.Send(notify.Notification{
		UserID:     newDriver.ID.Hex(),
		Type:       "delivery_assignment",
		Title:      "New Delivery Assigned",
		Message:    fmt.Sprintf("You have been assigned delivery %s", updated.DeliveryNumber),
		EntityType: "Delivery",
		EntityID:   updated.ID.Hex(),
		Channels:   []string{notify.ChannelInApp, notify.ChannelPush},
	})

	return updated, nil
}

// Delete removes a delivery.
func (s *DeliveryServiceImpl) Delete(ctx context.Context, id string) (*domain.Delivery, error) {
	return s.repo.Delete(ctx, id)
}

func (s *DeliveryServiceImpl) findDriver(ctx context.Context, id string) (*directorydomain.User, error) {
	driver, err := s.users.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if driver == nil {
		return nil, errors.New("driver not found")
	}
	if !driver.IsDriver() {
		return nil, errors.New("assigned user is not a driver")
	}
	return driver, nil
}

func (s *DeliveryServiceImpl) requireDriver(ctx context.Context, id string) error {
	_, err := s.findDriver(ctx, id)
	return err
}

// resolveLocation validates a location and, for warehouse endpoints, resolves
// the warehouse record and checks that it is active.
func (s *DeliveryServiceImpl) resolveLocation(ctx context.Context, location domain.Location, label string) (*directorydomain.Warehouse, error) {
	if err := location.Validate(label); err != nil {
		return nil, err
	}
	if location.Type != domain.LocationWarehouse {
		return nil, nil
	}

	warehouse, err := s.warehouses.FindWarehouseByID(ctx, location.WarehouseID.Hex())
	if err != nil {
		return nil, err
	}
	if warehouse == nil {
		return nil, fmt.Errorf("%s warehouse not found", label)
	}
	if !warehouse.IsActive() {
		return nil, fmt.Errorf("%s warehouse is not active", label)
	}
	return warehouse, nil
}

func warehouseID(w *directorydomain.Warehouse) *primitive.ObjectID {
	if w == nil {
		return nil
	}
	id := w.ID
	return &id
}
