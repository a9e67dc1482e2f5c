package ports

import (
	"context"

	"storefront-orders/internal/core/auth"
	orders "storefront-orders/internal/features/orders/domain"
	"storefront-orders/internal/features/payment/domain"
)

// Gateway opens payable orders with the external payment processor.
// This is a Secondary Port (Driven Port).
type Gateway interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string, notes map[string]string) (*domain.GatewayOrder, error)
}

// OrderLifecycle is the part of the order service that payment drives.
type OrderLifecycle interface {
	FindOrder(ctx context.Context, id string) (*orders.Order, error)
	ConfirmPayment(ctx context.Context, id, paymentID string) (*orders.Order, error)
	MarkPaymentFailed(ctx context.Context, id string) (*orders.Order, error)
}

// VerifyInput is the checkout callback relayed by the client.
type VerifyInput struct {
	OrderID          string
	GatewayOrderID   string
	GatewayPaymentID string
	GatewaySignature string
}

// PaymentService is the primary port used by the payment handler.
type PaymentService interface {
	CreatePaymentOrder(ctx context.Context, caller *auth.Identity, amount float64, receipt string) (*domain.Checkout, error)
	VerifyPayment(ctx context.Context, caller *auth.Identity, input VerifyInput) (*orders.Order, error)
	RecordFailure(ctx context.Context, caller *auth.Identity, orderID string) (*orders.Order, error)
}
