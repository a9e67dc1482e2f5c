package ports

import (
	"context"

	"storefront-orders/internal/core/auth"
	catalog "storefront-orders/internal/features/catalog/domain"
	"storefront-orders/internal/features/orders/domain"
	shipping "storefront-orders/internal/features/shipping/domain"
)

// OrderRepository is the secondary port for order documents.
// This is a Secondary Port (Driven Port).
type OrderRepository interface {
	// Create inserts a new order. It returns domain.ErrDuplicateOrderNumber when the order
	// number is already taken.
	Create(ctx context.Context, order *domain.Order) error
	// GetByID returns the order or domain.ErrOrderNotFound.
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// GetByNumber resolves the human-readable order number.
	GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	// Update loads the order, applies mutate and writes it back only if the stored document
	// did not change in between. mutate reports whether it changed anything; an error from
	// mutate aborts without writing.
	Update(ctx context.Context, id string, mutate func(*domain.Order) (bool, error)) (*domain.Order, error)
	// ListByUser returns the user's orders, newest first.
	ListByUser(ctx context.Context, userID string) ([]*domain.Order, error)
	// ListAll returns every order, newest first.
	ListAll(ctx context.Context) ([]*domain.Order, error)
}

// Inventory is the slice of the catalog used at checkout.
type Inventory interface {
	GetByID(ctx context.Context, id string) (*catalog.Product, error)
	DecrementStock(ctx context.Context, id string, qty int) (bool, error)
	IncrementStock(ctx context.Context, id string, qty int) error
}

// ShipmentLookup finds the shipment attached to an order, or shipping.ErrShipmentNotFound.
type ShipmentLookup interface {
	GetByOrder(ctx context.Context, orderID string) (*shipping.Shipment, error)
}

// CartItem is a requested line.
type CartItem struct {
	ProductID string
	Quantity  int
}

// PlaceOrderInput carries a checkout request.
type PlaceOrderInput struct {
	Items           []CartItem
	ShippingAddress domain.Address
	BillingAddress  domain.Address
	Discount        float64
	ShippingCost    float64
	Tax             float64
	Total           float64
	PaymentMethod   domain.PaymentMethod
	CouponCode      string
	Notes           string
}

// TrackingView is the read-side projection for order tracking.
type TrackingView struct {
	Order    *domain.Order      `json:"order"`
	Shipment *shipping.Shipment `json:"shipment,omitempty"`
	Timeline []domain.Stage     `json:"timeline"`
}

// OrderService is the primary port used by the order handler.
type OrderService interface {
	PlaceOrder(ctx context.Context, caller *auth.Identity, input PlaceOrderInput) (*domain.Order, error)
	ListOrders(ctx context.Context, caller *auth.Identity) ([]*domain.Order, error)
	GetOrder(ctx context.Context, caller *auth.Identity, id string) (*domain.Order, error)
	TrackOrder(ctx context.Context, caller *auth.Identity, orderNumber, email string) (*TrackingView, error)
	CancelOrder(ctx context.Context, caller *auth.Identity, id string) (*domain.Order, error)
	RequestReturn(ctx context.Context, caller *auth.Identity, id string) (*domain.Order, error)
}
