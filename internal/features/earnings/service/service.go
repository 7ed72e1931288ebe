package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sparrow-parcel/internal/core/logger"
	"sparrow-parcel/internal/core/notify"
	"sparrow-parcel/internal/features/earnings/domain"
	"sparrow-parcel/internal/features/earnings/ports"

	commissionsports "sparrow-parcel/internal/features/commissions/ports"
	deliverydomain "sparrow-parcel/internal/features/deliveries/domain"
	deliveryports "sparrow-parcel/internal/features/deliveries/ports"
	directoryports "sparrow-parcel/internal/features/directory/ports"
	parceldomain "sparrow-parcel/internal/features/parcels/domain"

	"go.uber.org/zap"
)

// EarningsServiceImpl implements ports.EarningsService. It also satisfies the
// deliveries EarningsCreator port so completed deliveries feed straight into
// driver payouts.
type EarningsServiceImpl struct {
	repo        ports.EarningsRepository
	users       directoryports.UserDirectory
	deliveries  deliveryports.DeliveryRepository
	commissions commissionsports.SettingsService
	notifier    notify.Sender
}

// NewEarningsService creates a new EarningsServiceImpl.
func NewEarningsService(
	repo ports.EarningsRepository,
	users directoryports.UserDirectory,
	deliveries deliveryports.DeliveryRepository,
	commissions commissionsports.SettingsService,
	notifier notify.Sender,
) *EarningsServiceImpl {
	return &EarningsServiceImpl{
		repo:        repo,
		users:       users,
		deliveries:  deliveries,
		commissions: commissions,
		notifier:    notifier,
	}
}

// CreateForDelivery records earnings for a completed delivery. It is
// idempotent: missing drivers, missing items and existing records all return
// nil so a repeated completion never creates duplicates or fails the caller.
func (s *EarningsServiceImpl) CreateForDelivery(ctx context.Context, delivery *deliverydomain.Delivery) error {
	if delivery.AssignedDriver.IsZero() {
		logger.Get().Warn("no driver assigned to delivery, skipping earnings",
			zap.String("deliveryNumber", delivery.DeliveryNumber))
		return nil
	}

	existing, err := s.repo.FindByDelivery(ctx, delivery.ID.Hex())
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	items, err := s.deliveryItems(ctx, delivery)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		logger.Get().Warn("no items found for earnings calculation",
			zap.String("deliveryNumber", delivery.DeliveryNumber))
		return nil
	}

	settings, rate, err := s.commissions.Resolve(ctx, delivery.DeliveryType)
	if err != nil {
		return err
	}

	baseAmount := domain.DeliveryBaseAmount(delivery, items, settings)

	var bonus float64
	if delivery.Priority == deliverydomain.PriorityUrgent && settings != nil {
		bonus = settings.UrgentDeliveryBonus
	}

	completedAt := time.Now().UTC()
	if delivery.ActualDeliveryTime != nil {
		completedAt = *delivery.ActualDeliveryTime
	}

	earnings := &domain.Earnings{
		DriverID:            delivery.AssignedDriver,
		DeliveryID:          delivery.ID,
		BaseAmount:          baseAmount,
		CommissionRate:      rate,
		BonusAmount:         bonus,
		Status:              domain.StatusApproved,
		DeliveryCompletedAt: completedAt,
	}
	earnings.Recalculate()

	if err := s.repo.Insert(ctx, earnings); err != nil {
		return err
	}

	logger.Get().Info("earnings created for delivery",
		zap.String("deliveryNumber", delivery.DeliveryNumber),
		zap.Float64("baseAmount", baseAmount),
		zap.Float64("commissionRate", rate),
		zap.Float64("totalEarnings", earnings.TotalEarnings))

	s.notifier.Send(notify.Notification{
		UserID:     delivery.AssignedDriver.Hex(),
		Type:       "earnings_created",
		Title:      "Earnings Added",
		Message:    fmt.Sprintf("You earned Rs. %.2f from delivery %s", earnings.TotalEarnings, delivery.DeliveryNumber),
		EntityType: "Earnings",
		EntityID:   earnings.ID.Hex(),
		Channels:   []string{notify.ChannelInApp, notify.ChannelPush},
	})

	return nil
}

func (s *EarningsServiceImpl) deliveryItems(ctx context.Context, delivery *deliverydomain.Delivery) ([]*parceldomain.Parcel, error) {
	if delivery.DeliveryItemType != deliverydomain.ItemTypeConsolidation {
		return delivery.Parcels, nil
	}

	if delivery.Consolidation != nil {
		return delivery.Consolidation.Parcels, nil
	}
	if delivery.ConsolidationID == nil {
		return nil, nil
	}

	consolidation, err := s.deliveries.FindConsolidation(ctx, *delivery.ConsolidationID)
	if err != nil {
		return nil, err
	}
	if consolidation == nil {
		return nil, nil
	}
	return consolidation.Parcels, nil
}

// Create stores a manually entered earnings record after validating the
// driver and the delivery assignment. An existing record for the delivery is
// returned unchanged.
func (s *EarningsServiceImpl) Create(ctx context.Context, earnings *domain.Earnings) (*domain.Earnings, error) {
	driver, err := s.users.FindUserByID(ctx, earnings.DriverID.Hex())
	if err != nil {
		return nil, err
	}
	if driver == nil {
		return nil, errors.New("driver not found")
	}
	if !driver.IsDriver() {
		return nil, errors.New("user is not a driver")
	}

	delivery, err := s.deliveries.FindByID(ctx, earnings.DeliveryID.Hex())
	if err != nil {
		if errors.Is(err, deliverydomain.ErrNotFound) {
			return nil, errors.New("delivery not found")
		}
		return nil, err
	}
	if delivery.AssignedDriver != earnings.DriverID {
		return nil, errors.New("driver not assigned to this delivery")
	}

	existing, err := s.repo.FindByDelivery(ctx, earnings.DeliveryID.Hex())
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	if earnings.CommissionRate == 0 {
		settings, rate, err := s.commissions.Resolve(ctx, delivery.DeliveryType)
		if err != nil {
			return nil, err
		}
		earnings.CommissionRate = rate
		if earnings.BaseAmount == 0 && settings != nil && settings.BaseAmount > 0 {
			earnings.BaseAmount = settings.BaseAmount
		}
	}
	if earnings.Status == "" {
		earnings.Status = domain.StatusPending
	}
	if !earnings.Status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	if earnings.DeliveryCompletedAt.IsZero() {
		earnings.DeliveryCompletedAt = time.Now().UTC()
	}
	earnings.Recalculate()

	if err := s.repo.Insert(ctx, earnings); err != nil {
		return nil, err
	}
	return earnings, nil
}

// List returns earnings matching the filter.
func (s *EarningsServiceImpl) List(ctx context.Context, filter ports.Filter) ([]*domain.Earnings, error) {
	return s.repo.Find(ctx, filter)
}

// ListByDriver returns a driver's earnings within the filter window.
func (s *EarningsServiceImpl) ListByDriver(ctx context.Context, driverID string, filter ports.DriverFilter) ([]*domain.Earnings, error) {
	return s.repo.FindByDriver(ctx, driverID, filter)
}

// Summary aggregates a driver's earnings over an optional completion window.
func (s *EarningsServiceImpl) Summary(ctx context.Context, driverID string, startDate, endDate *time.Time) (domain.Summary, error) {
	records, err := s.repo.FindByDriver(ctx, driverID, ports.DriverFilter{StartDate: startDate, EndDate: endDate})
	if err != nil {
		return domain.Summary{}, err
	}
	return domain.Summarize(records), nil
}

// Update applies a partial field update and recomputes the derived amounts.
func (s *EarningsServiceImpl) Update(ctx context.Context, id string, update ports.Update) (*domain.Earnings, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.BaseAmount != nil {
		current.BaseAmount = *update.BaseAmount
	}
	if update.CommissionRate != nil {
		current.CommissionRate = *update.CommissionRate
	}
	if update.BonusAmount != nil {
		current.BonusAmount = *update.BonusAmount
	}
	if update.Deductions != nil {
		current.Deductions = *update.Deductions
	}
	if update.Status != nil {
		if !update.Status.Valid() {
			return nil, domain.ErrInvalidStatus
		}
		current.Status = *update.Status
	}
	if update.Notes != nil {
		current.Notes = *update.Notes
	}
	current.Recalculate()

	return s.repo.Replace(ctx, current)
}

// UpdateStatus moves an earnings record through the payout workflow, stamping
// paidAt on payment.
func (s *EarningsServiceImpl) UpdateStatus(ctx context.Context, id string, status domain.Status, notes string) (*domain.Earnings, error) {
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}

	var paidAt *time.Time
	if status == domain.StatusPaid {
		now := time.Now().UTC()
		paidAt = &now
	}
	return s.repo.SetStatus(ctx, id, status, notes, paidAt)
}

// Delete removes an earnings record.
func (s *EarningsServiceImpl) Delete(ctx context.Context, id string) (*domain.Earnings, error) {
	return s.repo.Delete(ctx, id)
}
