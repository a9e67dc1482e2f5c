package domain

import (
	"errors"
	"time"
)

var (
	// ErrShipmentNotFound is returned when no shipment exists for the order or AWB.
	ErrShipmentNotFound = errors.New("shipment not found")
	// ErrShipmentExists is returned when the order already has a shipment.
	ErrShipmentExists = errors.New("shipment already exists")
	// ErrCourier is returned when the courier aggregator call fails.
	ErrCourier = errors.New("courier request failed")
	// ErrOrderNotShippable is returned when the order is not in a shippable state.
	ErrOrderNotShippable = errors.New("order is not ready to ship")
	// ErrTrackingUnavailable is returned when the courier has no scans for the AWB yet.
	ErrTrackingUnavailable = errors.New("tracking not available yet")
)

// Status is the internal shipment status.
type Status string

const (
	StatusCreated        Status = "created"
	StatusAssigned       Status = "assigned"
	StatusPickedUp       Status = "picked_up"
	StatusInTransit      Status = "in_transit"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusReturned       Status = "returned"
	StatusCancelled      Status = "cancelled"
	// StatusUnknown marks courier text that has no mapping. The raw text is kept in StatusRaw.
	StatusUnknown Status = "unknown"
)

// Location is a pickup or delivery snapshot.
type Location struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
	Country string `json:"country,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// Dimensions are in centimetres and kilograms.
type Dimensions struct {
	Length  float64 `json:"length"`
	Breadth float64 `json:"breadth"`
	Height  float64 `json:"height"`
	Weight  float64 `json:"weight"`
}

// TrackingEvent is a single courier scan.
type TrackingEvent struct {
	Status       string    `json:"status"`
	StatusDetail string    `json:"statusDetail,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	Location     string    `json:"location,omitempty"`
}

// Shipment is the courier aggregator's handling of one order.
type Shipment struct {
	ID                string          `json:"id"`
	OrderID           string          `json:"orderId"`
	OrderNumber       string          `json:"orderNumber"`
	CourierOrderID    string          `json:"courierOrderId"`
	CourierShipmentID string          `json:"courierShipmentId"`
	AWBCode           string          `json:"awbCode,omitempty"`
	CourierCompanyID  string          `json:"courierCompanyId,omitempty"`
	CourierName       string          `json:"courierName,omitempty"`
	Status            Status          `json:"status"`
	StatusRaw         string          `json:"statusRaw,omitempty"`
	PickupLocation    Location        `json:"pickupLocation"`
	DeliveryLocation  Location        `json:"deliveryLocation"`
	Dimensions        Dimensions      `json:"dimensions"`
	ShippingCharge    float64         `json:"shippingCharge"`
	CODCharge         float64         `json:"codCharge"`
	TrackingHistory   []TrackingEvent `json:"trackingHistory"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}
