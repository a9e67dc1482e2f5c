package ports

import (
	"context"
	"time"

	"storefront-orders/internal/core/auth"
	orders "storefront-orders/internal/features/orders/domain"
	"storefront-orders/internal/features/shipping/domain"
)

// ShipmentRepository is the secondary port for shipment documents.
// This is a Secondary Port (Driven Port).
type ShipmentRepository interface {
	// Reserve claims the order's single shipment slot. It returns false when already claimed.
	Reserve(ctx context.Context, orderID, shipmentID string) (bool, error)
	// Release frees a claim whose courier call failed.
	Release(ctx context.Context, orderID string) error
	// Save writes the shipment and indexes its AWB when set.
	Save(ctx context.Context, shipment *domain.Shipment) error
	GetByOrder(ctx context.Context, orderID string) (*domain.Shipment, error)
	GetByAWB(ctx context.Context, awb string) (*domain.Shipment, error)
}

// CourierContact is a name and address block sent to the courier.
type CourierContact struct {
	FirstName string
	LastName  string
	Address   string
	Address2  string
	City      string
	State     string
	Pincode   string
	Country   string
	Email     string
	Phone     string
}

// CourierItem is a line item sent to the courier.
type CourierItem struct {
	Name         string
	SKU          string
	Units        int
	SellingPrice float64
}

// CourierOrder is the aggregator order payload.
type CourierOrder struct {
	OrderNumber    string
	OrderDate      time.Time
	PickupLocation string
	Billing        CourierContact
	Shipping       CourierContact
	Items          []CourierItem
	COD            bool
	SubTotal       float64
	ShippingCharge float64
	Discount       float64
	Dimensions     domain.Dimensions
}

// CourierOrderResult identifies the order on the aggregator side. AWB fields are set only
// when the aggregator assigns a courier immediately.
type CourierOrderResult struct {
	OrderID          string
	ShipmentID       string
	Status           string
	AWBCode          string
	CourierCompanyID string
	CourierName      string
}

// AWBAssignment is the courier picked for a shipment.
type AWBAssignment struct {
	AWBCode          string
	CourierCompanyID string
	CourierName      string
}

// CourierActivity is one scan as reported by the aggregator.
type CourierActivity struct {
	Date     time.Time
	Status   string
	Activity string
	Location string
}

// CourierTracking is the aggregator's latest view of a shipment.
type CourierTracking struct {
	CurrentStatus string
	Activities    []CourierActivity
}

// Courier is the external courier aggregator.
// This is a Secondary Port (Driven Port).
type Courier interface {
	CreateOrder(ctx context.Context, order CourierOrder) (*CourierOrderResult, error)
	AssignAWB(ctx context.Context, shipmentID string) (*AWBAssignment, error)
	Track(ctx context.Context, awb string) (*CourierTracking, error)
}

// OrderLifecycle is the part of the order service that shipping drives.
type OrderLifecycle interface {
	FindOrder(ctx context.Context, id string) (*orders.Order, error)
	MarkProcessing(ctx context.Context, id string) (*orders.Order, error)
	ApplyCourierProgress(ctx context.Context, id string, target orders.Status, awb string) (*orders.Order, error)
}

// ShippingService is the primary port used by the shipping handler.
type ShippingService interface {
	CreateShipment(ctx context.Context, orderID string) (*domain.Shipment, error)
	AssignAWB(ctx context.Context, orderID string) (*domain.Shipment, error)
	TrackShipment(ctx context.Context, caller *auth.Identity, awb string) (*domain.Shipment, error)
	GetShipment(ctx context.Context, caller *auth.Identity, orderID string) (*domain.Shipment, error)
}
