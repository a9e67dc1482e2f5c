package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"storefront-orders/internal/core/auth"

	"github.com/google/uuid"
)

var (
	// ErrOrderNotFound is returned when the order does not exist.
	ErrOrderNotFound = errors.New("order not found")
	// ErrInvalidTransition is returned when a status change is not allowed from the current status.
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrDuplicateOrderNumber is returned when a generated order number is already taken.
	ErrDuplicateOrderNumber = errors.New("order number already exists")
	// ErrConcurrentUpdate is returned when an order kept changing underneath an update.
	ErrConcurrentUpdate = errors.New("order modified concurrently")
)

// Status represents the fulfilment state of an order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusReturned   Status = "returned"
)

// PaymentStatus represents the settlement state of an order.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentOnline PaymentMethod = "online"
)

// Address is a postal address snapshot stored on the order.
type Address struct {
	FullName     string `json:"fullName"`
	Phone        string `json:"phone"`
	Email        string `json:"email,omitempty"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	Pincode      string `json:"pincode"`
	Country      string `json:"country"`
}

// OrderItem is a line item. Name, Price, Image and Weight are snapshots taken at checkout and
// are never re-read from the catalog.
type OrderItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image,omitempty"`
	Weight    float64 `json:"weight,omitempty"`
}

// Order represents a customer order.
type Order struct {
	ID              string        `json:"id"`
	OrderNumber     string        `json:"orderNumber"`
	UserID          string        `json:"userId"`
	Email           string        `json:"email"`
	Items           []OrderItem   `json:"items"`
	ShippingAddress Address       `json:"shippingAddress"`
	BillingAddress  Address       `json:"billingAddress"`
	Subtotal        float64       `json:"subtotal"`
	Discount        float64       `json:"discount"`
	ShippingCost    float64       `json:"shippingCost"`
	Tax             float64       `json:"tax"`
	Total           float64       `json:"total"`
	PaymentMethod   PaymentMethod `json:"paymentMethod"`
	CouponCode      string        `json:"couponCode,omitempty"`
	Notes           string        `json:"notes,omitempty"`
	TrackingNumber  string        `json:"trackingNumber,omitempty"`
	PaymentID       string        `json:"paymentId,omitempty"`
	OrderStatus     Status        `json:"orderStatus"`
	PaymentStatus   PaymentStatus `json:"paymentStatus"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// rank orders the forward path. Cancelled and returned are side branches.
var rank = map[Status]int{
	StatusPending:    1,
	StatusConfirmed:  2,
	StatusProcessing: 3,
	StatusShipped:    4,
	StatusDelivered:  5,
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to Status) bool {
	switch to {
	case StatusCancelled:
		return from == StatusPending || from == StatusConfirmed || from == StatusProcessing
	case StatusReturned:
		return from == StatusDelivered
	}

	f, okFrom := rank[from]
	t, okTo := rank[to]
	return okFrom && okTo && t > f
}

// TransitionTo moves the order to the given status and stamps UpdatedAt.
func (o *Order) TransitionTo(to Status, now time.Time) error {
	if !CanTransition(o.OrderStatus, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.OrderStatus, to)
	}
	o.OrderStatus = to
	o.UpdatedAt = now
	return nil
}

// Shippable reports whether a shipment may be opened for the order. Cash-on-delivery orders
// ship while payment is still pending.
func (o *Order) Shippable() bool {
	switch o.OrderStatus {
	case StatusConfirmed, StatusProcessing:
		return true
	case StatusPending:
		return o.PaymentMethod == PaymentCOD
	}
	return false
}

// OwnedBy reports whether the identity placed the order.
func (o *Order) OwnedBy(id *auth.Identity) bool {
	return id != nil && id.CallerID == o.UserID
}

// AccessibleBy reports whether the identity may read or act on the order.
func (o *Order) AccessibleBy(id *auth.Identity) bool {
	return o.OwnedBy(id) || id.IsElevated()
}

// GenerateOrderNumber builds "ORD" + the last 8 digits of the unix millisecond clock + 6
// random upper-case alphanumerics.
func GenerateOrderNumber(now time.Time) string {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	millis := strconv.FormatInt(now.UnixMilli(), 10)
	if len(millis) > 8 {
		millis = millis[len(millis)-8:]
	}

	random := uuid.New()
	var b strings.Builder
	b.Grow(3 + len(millis) + 6)
	b.WriteString("ORD")
	b.WriteString(millis)
	for i := 0; i < 6; i++ {
		b.WriteByte(alphabet[int(random[i])%len(alphabet)])
	}
	return b.String()
}
