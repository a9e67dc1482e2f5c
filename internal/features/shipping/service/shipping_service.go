package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-orders/internal/core/auth"
	"storefront-orders/internal/core/config"
	"storefront-orders/internal/core/logger"
	"storefront-orders/internal/core/metrics"
	orders "storefront-orders/internal/features/orders/domain"
	"storefront-orders/internal/features/shipping/domain"
	"storefront-orders/internal/features/shipping/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrForbidden is returned when the caller may not see the shipment's order.
var ErrForbidden = errors.New("caller may not access shipment")

// ShippingService hands orders to the courier aggregator and reconciles its tracking.
type ShippingService struct {
	repo    ports.ShipmentRepository
	courier ports.Courier
	orders  ports.OrderLifecycle
	config  config.ShippingConfig
	now     func() time.Time
}

// NewShippingService creates a new instance of ShippingService.
func NewShippingService(repo ports.ShipmentRepository, courier ports.Courier, orderLifecycle ports.OrderLifecycle, cfg config.ShippingConfig) *ShippingService {
	return &ShippingService{
		repo:    repo,
		courier: courier,
		orders:  orderLifecycle,
		config:  cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateShipment opens the order's single shipment with the courier and moves the order to
// processing.
func (s *ShippingService) CreateShipment(ctx context.Context, orderID string) (*domain.Shipment, error) {
	shipment, err := s.createShipment(ctx, orderID)
	metrics.RecordOrderOperation("create_shipment", err == nil)
	return shipment, err
}

func (s *ShippingService) createShipment(ctx context.Context, orderID string) (*domain.Shipment, error) {
	order, err := s.orders.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Shippable() {
		return nil, fmt.Errorf("%w: order %s is %s", domain.ErrOrderNotShippable, order.OrderNumber, order.OrderStatus)
	}

	id := uuid.NewString()
	claimed, err := s.repo.Reserve(ctx, order.ID, id)
	if err != nil {
		return nil, fmt.Errorf("service: failed to reserve shipment: %w", err)
	}
	if !claimed {
		return nil, fmt.Errorf("%w: order %s", domain.ErrShipmentExists, order.OrderNumber)
	}

	cod := order.PaymentMethod == orders.PaymentCOD
	courierOrder := s.courierOrder(order, cod)

	result, err := s.courier.CreateOrder(ctx, courierOrder)
	if err != nil {
		s.release(ctx, order.ID)
		logger.Get().Error("Courier order creation failed",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", domain.ErrCourier, err)
	}

	now := s.now()
	shipment := &domain.Shipment{
		ID:                id,
		OrderID:           order.ID,
		OrderNumber:       order.OrderNumber,
		CourierOrderID:    result.OrderID,
		CourierShipmentID: result.ShipmentID,
		AWBCode:           result.AWBCode,
		CourierCompanyID:  result.CourierCompanyID,
		CourierName:       result.CourierName,
		Status:            domain.StatusCreated,
		PickupLocation:    s.pickup(),
		DeliveryLocation:  delivery(order.ShippingAddress),
		Dimensions:        courierOrder.Dimensions,
		ShippingCharge:    order.ShippingCost,
		CODCharge:         domain.CODCharge(cod, order.Total, s.config.CODPercent),
		TrackingHistory:   []domain.TrackingEvent{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if shipment.AWBCode != "" {
		shipment.Status = domain.StatusAssigned
	}

	if err := s.repo.Save(ctx, shipment); err != nil {
		s.release(ctx, order.ID)
		return nil, fmt.Errorf("service: failed to save shipment: %w", err)
	}

	if _, err := s.orders.MarkProcessing(ctx, order.ID); err != nil {
		logger.Get().Error("Failed to mark order processing",
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
	}
	if shipment.AWBCode != "" {
		s.propagate(ctx, shipment, "")
	}

	logger.Get().Info("Shipment created",
		zap.String("order_number", order.OrderNumber),
		zap.String("courier_shipment_id", shipment.CourierShipmentID),
		zap.String("awb", shipment.AWBCode),
	)
	return shipment, nil
}

// AssignAWB asks the courier for an AWB. Shipments that already carry one are returned as is.
func (s *ShippingService) AssignAWB(ctx context.Context, orderID string) (*domain.Shipment, error) {
	shipment, err := s.repo.GetByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if shipment.AWBCode != "" {
		return shipment, nil
	}

	assignment, err := s.courier.AssignAWB(ctx, shipment.CourierShipmentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCourier, err)
	}

	shipment.AWBCode = assignment.AWBCode
	shipment.CourierCompanyID = assignment.CourierCompanyID
	shipment.CourierName = assignment.CourierName
	if shipment.Status == domain.StatusCreated {
		shipment.Status = domain.StatusAssigned
	}
	shipment.UpdatedAt = s.now()

	if err := s.repo.Save(ctx, shipment); err != nil {
		return nil, fmt.Errorf("service: failed to save shipment: %w", err)
	}
	s.propagate(ctx, shipment, "")
	return shipment, nil
}

// Reconcile polls the courier for the AWB, replaces the stored tracking history and pushes
// forward progress onto the order.
func (s *ShippingService) Reconcile(ctx context.Context, awb string) (*domain.Shipment, error) {
	shipment, err := s.repo.GetByAWB(ctx, awb)
	if err != nil {
		return nil, err
	}
	shipment, err = s.reconcile(ctx, shipment)
	metrics.RecordOrderOperation("reconcile_tracking", err == nil)
	return shipment, err
}

func (s *ShippingService) reconcile(ctx context.Context, shipment *domain.Shipment) (*domain.Shipment, error) {
	tracking, err := s.courier.Track(ctx, shipment.AWBCode)
	if errors.Is(err, domain.ErrTrackingUnavailable) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCourier, err)
	}

	raw := tracking.CurrentStatus
	if raw == "" && len(tracking.Activities) > 0 {
		raw = tracking.Activities[0].Status
	}

	status, known := domain.MapCourierStatus(raw)
	if !known {
		logger.Get().Warn("Unknown courier status",
			zap.String("awb", shipment.AWBCode),
			zap.String("status", raw),
		)
	}

	history := make([]domain.TrackingEvent, 0, len(tracking.Activities))
	for _, act := range tracking.Activities {
		history = append(history, domain.TrackingEvent{
			Status:       act.Status,
			StatusDetail: act.Activity,
			Timestamp:    act.Date,
			Location:     act.Location,
		})
	}

	shipment.Status = status
	shipment.StatusRaw = raw
	shipment.TrackingHistory = history
	shipment.UpdatedAt = s.now()

	if err := s.repo.Save(ctx, shipment); err != nil {
		return nil, fmt.Errorf("service: failed to save shipment: %w", err)
	}

	s.propagate(ctx, shipment, orderTarget(status))
	return shipment, nil
}

// TrackShipment reconciles the AWB on behalf of a caller who can see its order.
func (s *ShippingService) TrackShipment(ctx context.Context, caller *auth.Identity, awb string) (*domain.Shipment, error) {
	shipment, err := s.repo.GetByAWB(ctx, awb)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, caller, shipment.OrderID); err != nil {
		return nil, err
	}

	shipment, err = s.reconcile(ctx, shipment)
	metrics.RecordOrderOperation("reconcile_tracking", err == nil)
	return shipment, err
}

// GetShipment returns the stored shipment for an order the caller can see.
func (s *ShippingService) GetShipment(ctx context.Context, caller *auth.Identity, orderID string) (*domain.Shipment, error) {
	if err := s.authorize(ctx, caller, orderID); err != nil {
		return nil, err
	}
	return s.repo.GetByOrder(ctx, orderID)
}

// GetByOrder returns the order's shipment without an access check.
func (s *ShippingService) GetByOrder(ctx context.Context, orderID string) (*domain.Shipment, error) {
	return s.repo.GetByOrder(ctx, orderID)
}

func (s *ShippingService) authorize(ctx context.Context, caller *auth.Identity, orderID string) error {
	order, err := s.orders.FindOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if !order.AccessibleBy(caller) {
		return ErrForbidden
	}
	return nil
}

// propagate pushes the AWB and target status onto the order. Failures are logged; the
// shipment is already stored.
func (s *ShippingService) propagate(ctx context.Context, shipment *domain.Shipment, target orders.Status) {
	if _, err := s.orders.ApplyCourierProgress(ctx, shipment.OrderID, target, shipment.AWBCode); err != nil {
		logger.Get().Error("Failed to apply courier progress to order",
			zap.String("order_id", shipment.OrderID),
			zap.String("target", string(target)),
			zap.Error(err),
		)
	}
}

func (s *ShippingService) release(ctx context.Context, orderID string) {
	if err := s.repo.Release(context.WithoutCancel(ctx), orderID); err != nil {
		logger.Get().Error("Failed to release shipment reservation",
			zap.String("order_id", orderID),
			zap.Error(err),
		)
	}
}

func (s *ShippingService) courierOrder(order *orders.Order, cod bool) ports.CourierOrder {
	parcels := make([]domain.Parcel, 0, len(order.Items))
	items := make([]ports.CourierItem, 0, len(order.Items))
	for _, item := range order.Items {
		parcels = append(parcels, domain.Parcel{Weight: item.Weight, Quantity: item.Quantity})
		items = append(items, ports.CourierItem{
			Name:         item.Name,
			SKU:          item.ProductID,
			Units:        item.Quantity,
			SellingPrice: item.Price,
		})
	}

	return ports.CourierOrder{
		OrderNumber:    order.OrderNumber,
		OrderDate:      order.CreatedAt,
		PickupLocation: s.config.PickupLocation,
		Billing:        contact(order.BillingAddress, order.Email),
		Shipping:       contact(order.ShippingAddress, order.Email),
		Items:          items,
		COD:            cod,
		SubTotal:       order.Subtotal,
		ShippingCharge: order.ShippingCost,
		Discount:       order.Discount,
		Dimensions:     domain.PackageDimensions(parcels),
	}
}

func (s *ShippingService) pickup() domain.Location {
	return domain.Location{
		Name:    s.config.PickupLocation,
		Address: s.config.PickupAddress,
		City:    s.config.PickupCity,
		State:   s.config.PickupState,
		Pincode: s.config.PickupPincode,
		Phone:   s.config.PickupPhone,
	}
}

func contact(addr orders.Address, fallbackEmail string) ports.CourierContact {
	first, last := domain.SplitName(addr.FullName)
	email := addr.Email
	if email == "" {
		email = fallbackEmail
	}
	return ports.CourierContact{
		FirstName: first,
		LastName:  last,
		Address:   addr.AddressLine1,
		Address2:  addr.AddressLine2,
		City:      addr.City,
		State:     addr.State,
		Pincode:   addr.Pincode,
		Country:   addr.Country,
		Email:     email,
		Phone:     addr.Phone,
	}
}

func delivery(addr orders.Address) domain.Location {
	return domain.Location{
		Name:    addr.FullName,
		Address: addr.AddressLine1,
		City:    addr.City,
		State:   addr.State,
		Pincode: addr.Pincode,
		Country: addr.Country,
		Phone:   addr.Phone,
	}
}

// orderTarget is the order status implied by a shipment status. Empty means no change.
func orderTarget(status domain.Status) orders.Status {
	switch status {
	case domain.StatusPickedUp, domain.StatusInTransit, domain.StatusOutForDelivery:
		return orders.StatusShipped
	case domain.StatusDelivered:
		return orders.StatusDelivered
	}
	return ""
}
