package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront-orders/internal/core/auth"
	"storefront-orders/internal/core/logger"
	"storefront-orders/internal/core/mailer"
	"storefront-orders/internal/core/metrics"
	catalog "storefront-orders/internal/features/catalog/domain"
	"storefront-orders/internal/features/orders/domain"
	"storefront-orders/internal/features/orders/ports"
	shipping "storefront-orders/internal/features/shipping/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrEmptyCart is returned when an order has no line items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidQuantity is returned when a line item quantity is not positive.
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
	// ErrProductUnavailable is returned when a product is missing or inactive.
	ErrProductUnavailable = errors.New("product not available")
	// ErrInsufficientStock is returned when a product cannot cover the requested quantity.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrEmailMismatch is returned when the provided email does not match the order's email.
	ErrEmailMismatch = errors.New("email does not match order record")
	// ErrForbidden is returned when the caller may not access the order.
	ErrForbidden = errors.New("caller may not access order")
)

// orderNumberAttempts bounds retries when a generated order number collides.
const orderNumberAttempts = 3

// OrderService owns the order lifecycle.
type OrderService struct {
	repo      ports.OrderRepository
	inventory ports.Inventory
	shipments ports.ShipmentLookup
	mail      mailer.Sender
	now       func() time.Time
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(repo ports.OrderRepository, inventory ports.Inventory, mail mailer.Sender) *OrderService {
	return &OrderService{
		repo:      repo,
		inventory: inventory,
		mail:      mail,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetShipmentLookup attaches the shipping feature once it is constructed. Shipping depends on
// this service, so the lookup cannot be a constructor argument.
func (s *OrderService) SetShipmentLookup(lookup ports.ShipmentLookup) {
	s.shipments = lookup
}

// reservation is one applied stock decrement, kept so it can be reversed.
type reservation struct {
	productID string
	quantity  int
}

// PlaceOrder validates the cart against live stock, reserves stock item by item and persists
// the order. Any failure reverses every reservation already applied.
func (s *OrderService) PlaceOrder(ctx context.Context, caller *auth.Identity, input ports.PlaceOrderInput) (*domain.Order, error) {
	order, err := s.placeOrder(ctx, caller, input)
	metrics.RecordOrderOperation("place_order", err == nil)
	if err != nil {
		return nil, err
	}

	s.sendConfirmation(ctx, order)
	return order, nil
}

func (s *OrderService) placeOrder(ctx context.Context, caller *auth.Identity, input ports.PlaceOrderInput) (order *domain.Order, err error) {
	if caller == nil {
		return nil, ErrForbidden
	}
	if len(input.Items) == 0 {
		return nil, ErrEmptyCart
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidQuantity, item.ProductID)
		}
	}

	var reserved []reservation
	defer func() {
		if err != nil {
			s.release(ctx, reserved)
		}
	}()

	items := make([]domain.OrderItem, 0, len(input.Items))
	subtotal := decimal.Zero

	for _, line := range input.Items {
		product, err := s.inventory.GetByID(ctx, line.ProductID)
		if errors.Is(err, catalog.ErrProductNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProductUnavailable, line.ProductID)
		}
		if err != nil {
			return nil, fmt.Errorf("service: failed to load product: %w", err)
		}
		if !product.IsActive {
			return nil, fmt.Errorf("%w: %s", ErrProductUnavailable, product.Name)
		}
		if line.Quantity > product.Stock {
			return nil, fmt.Errorf("%w for %s", ErrInsufficientStock, product.Name)
		}

		ok, err := s.inventory.DecrementStock(ctx, product.ID, line.Quantity)
		if err != nil {
			return nil, fmt.Errorf("service: failed to reserve stock: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w for %s", ErrInsufficientStock, product.Name)
		}
		reserved = append(reserved, reservation{productID: product.ID, quantity: line.Quantity})

		price := product.EffectivePrice()
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))

		items = append(items, domain.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     price.InexactFloat64(),
			Quantity:  line.Quantity,
			Image:     product.Image,
			Weight:    product.Weight,
		})
	}

	now := s.now()
	billing := input.BillingAddress
	if billing == (domain.Address{}) {
		billing = input.ShippingAddress
	}

	email := caller.Email
	if email == "" {
		email = input.ShippingAddress.Email
	}

	order = &domain.Order{
		ID:              uuid.NewString(),
		UserID:          caller.CallerID,
		Email:           email,
		Items:           items,
		ShippingAddress: input.ShippingAddress,
		BillingAddress:  billing,
		Subtotal:        subtotal.Round(2).InexactFloat64(),
		Discount:        input.Discount,
		ShippingCost:    input.ShippingCost,
		Tax:             input.Tax,
		Total:           input.Total,
		PaymentMethod:   input.PaymentMethod,
		CouponCode:      input.CouponCode,
		Notes:           input.Notes,
		OrderStatus:     domain.StatusPending,
		PaymentStatus:   domain.PaymentPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	s.checkTotal(order, subtotal)

	for attempt := 1; ; attempt++ {
		order.OrderNumber = domain.GenerateOrderNumber(s.now())
		err = s.repo.Create(ctx, order)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrDuplicateOrderNumber) || attempt == orderNumberAttempts {
			return nil, fmt.Errorf("service: failed to create order: %w", err)
		}
	}

	logger.Get().Info("Order placed",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", order.UserID),
		zap.Int("items", len(order.Items)),
	)
	return order, nil
}

// release reverses applied reservations. Failures are logged; the caller already has an error.
func (s *OrderService) release(ctx context.Context, reserved []reservation) {
	for i := len(reserved) - 1; i >= 0; i-- {
		r := reserved[i]
		if err := s.inventory.IncrementStock(context.WithoutCancel(ctx), r.productID, r.quantity); err != nil {
			logger.Get().Error("Failed to release reserved stock",
				zap.String("product_id", r.productID),
				zap.Int("quantity", r.quantity),
				zap.Error(err),
			)
		}
	}
}

// checkTotal logs a client total that disagrees with the server-side figures. The client
// total is stored as given.
func (s *OrderService) checkTotal(order *domain.Order, subtotal decimal.Decimal) {
	expected := subtotal.
		Sub(decimal.NewFromFloat(order.Discount)).
		Add(decimal.NewFromFloat(order.ShippingCost)).
		Add(decimal.NewFromFloat(order.Tax)).
		Round(2)

	if !expected.Equal(decimal.NewFromFloat(order.Total).Round(2)) {
		logger.Get().Warn("Client total differs from computed total",
			zap.String("order_id", order.ID),
			zap.Float64("client_total", order.Total),
			zap.String("computed_total", expected.StringFixed(2)),
		)
	}
}

// ListOrders returns the caller's orders, or every order for elevated callers.
func (s *OrderService) ListOrders(ctx context.Context, caller *auth.Identity) ([]*domain.Order, error) {
	if caller == nil {
		return nil, ErrForbidden
	}

	var (
		orders []*domain.Order
		err    error
	)
	if caller.IsElevated() {
		orders, err = s.repo.ListAll(ctx)
	} else {
		orders, err = s.repo.ListByUser(ctx, caller.CallerID)
	}
	if err != nil {
		return nil, fmt.Errorf("service: failed to list orders: %w", err)
	}
	return orders, nil
}

// GetOrder returns an order the caller owns, or any order for elevated callers.
func (s *OrderService) GetOrder(ctx context.Context, caller *auth.Identity, id string) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.AccessibleBy(caller) {
		return nil, ErrForbidden
	}
	return order, nil
}

// TrackOrder resolves an order number for tracking. With an email the lookup works for guests
// and the email must match the order; without one the caller must own the order or be elevated.
func (s *OrderService) TrackOrder(ctx context.Context, caller *auth.Identity, orderNumber, email string) (*ports.TrackingView, error) {
	order, err := s.repo.GetByNumber(ctx, strings.TrimSpace(orderNumber))
	if err != nil {
		return nil, err
	}

	if email != "" {
		if !strings.EqualFold(strings.TrimSpace(order.Email), strings.TrimSpace(email)) {
			return nil, ErrEmailMismatch
		}
	} else if !order.AccessibleBy(caller) {
		return nil, ErrForbidden
	}

	view := &ports.TrackingView{
		Order:    order,
		Timeline: domain.Timeline(order),
	}

	if s.shipments != nil {
		shipment, err := s.shipments.GetByOrder(ctx, order.ID)
		switch {
		case err == nil:
			view.Shipment = shipment
		case errors.Is(err, shipping.ErrShipmentNotFound):
		default:
			return nil, fmt.Errorf("service: failed to load shipment: %w", err)
		}
	}

	return view, nil
}

// CancelOrder cancels an order that has not shipped and returns its stock. The status write is
// a compare-and-set, so only the call that actually moves the order to cancelled restocks.
func (s *OrderService) CancelOrder(ctx context.Context, caller *auth.Identity, id string) (*domain.Order, error) {
	order, err := s.repo.Update(ctx, id, func(o *domain.Order) (bool, error) {
		if !o.AccessibleBy(caller) {
			return false, ErrForbidden
		}
		if err := o.TransitionTo(domain.StatusCancelled, s.now()); err != nil {
			return false, err
		}
		return true, nil
	})
	metrics.RecordOrderOperation("cancel_order", err == nil)
	if err != nil {
		return nil, err
	}

	restock := make([]reservation, 0, len(order.Items))
	for _, item := range order.Items {
		restock = append(restock, reservation{productID: item.ProductID, quantity: item.Quantity})
	}
	s.release(ctx, restock)

	logger.Get().Info("Order cancelled",
		zap.String("order_id", order.ID),
		zap.String("by", caller.CallerID),
	)
	return order, nil
}

// RequestReturn moves a delivered order to returned. Only the owner may ask.
func (s *OrderService) RequestReturn(ctx context.Context, caller *auth.Identity, id string) (*domain.Order, error) {
	order, err := s.repo.Update(ctx, id, func(o *domain.Order) (bool, error) {
		if !o.OwnedBy(caller) {
			return false, ErrForbidden
		}
		if err := o.TransitionTo(domain.StatusReturned, s.now()); err != nil {
			return false, err
		}
		return true, nil
	})
	metrics.RecordOrderOperation("request_return", err == nil)
	if err != nil {
		return nil, err
	}
	return order, nil
}
