package service

import (
	"context"
	"errors"
	"fmt"

	"storefront-orders/internal/core/auth"
	"storefront-orders/internal/core/logger"
	"storefront-orders/internal/core/metrics"
	orders "storefront-orders/internal/features/orders/domain"
	"storefront-orders/internal/features/payment/domain"
	"storefront-orders/internal/features/payment/ports"

	"go.uber.org/zap"
)

// ErrForbidden is returned when the caller may not pay for the order.
var ErrForbidden = errors.New("caller may not access order")

// PaymentService issues gateway orders and verifies checkout signatures.
type PaymentService struct {
	gateway  ports.Gateway
	orders   ports.OrderLifecycle
	keyID    string
	secret   string
	currency string
}

// NewPaymentService creates a new PaymentService. keyID is relayed to clients; secret signs
// checkout callbacks.
func NewPaymentService(gateway ports.Gateway, orders ports.OrderLifecycle, keyID, secret, currency string) *PaymentService {
	return &PaymentService{
		gateway:  gateway,
		orders:   orders,
		keyID:    keyID,
		secret:   secret,
		currency: currency,
	}
}

// CreatePaymentOrder opens a payable order for amount (major units). Nothing is persisted.
func (s *PaymentService) CreatePaymentOrder(ctx context.Context, caller *auth.Identity, amount float64, receipt string) (*domain.Checkout, error) {
	if caller == nil {
		return nil, ErrForbidden
	}
	minor, err := domain.ToMinorUnits(amount)
	if err != nil {
		return nil, err
	}

	notes := map[string]string{
		"user_id": caller.CallerID,
		"email":   caller.Email,
	}

	order, err := s.gateway.CreateOrder(ctx, minor, s.currency, receipt, notes)
	metrics.RecordOrderOperation("create_payment_order", err == nil)
	if err != nil {
		logger.Get().Error("Payment gateway order failed",
			zap.String("receipt", receipt),
			zap.Int64("amount", minor),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", domain.ErrGateway, err)
	}

	return &domain.Checkout{
		ID:       order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		Key:      s.keyID,
	}, nil
}

// VerifyPayment checks the checkout signature and, only when it matches, marks the order paid.
func (s *PaymentService) VerifyPayment(ctx context.Context, caller *auth.Identity, input ports.VerifyInput) (*orders.Order, error) {
	if !domain.Verify(s.secret, input.GatewayOrderID, input.GatewayPaymentID, input.GatewaySignature) {
		metrics.RecordOrderOperation("verify_payment", false)
		logger.Get().Warn("Payment signature mismatch",
			zap.String("order_id", input.OrderID),
			zap.String("gateway_order_id", input.GatewayOrderID),
		)
		return nil, domain.ErrInvalidSignature
	}

	order, err := s.orders.FindOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if !order.AccessibleBy(caller) {
		return nil, ErrForbidden
	}

	order, err = s.orders.ConfirmPayment(ctx, input.OrderID, input.GatewayPaymentID)
	metrics.RecordOrderOperation("verify_payment", err == nil)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// RecordFailure marks a pending payment as failed after the client reports a checkout failure.
func (s *PaymentService) RecordFailure(ctx context.Context, caller *auth.Identity, orderID string) (*orders.Order, error) {
	order, err := s.orders.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.AccessibleBy(caller) {
		return nil, ErrForbidden
	}
	return s.orders.MarkPaymentFailed(ctx, orderID)
}
