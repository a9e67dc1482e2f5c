package service

import (
	"context"
	"fmt"

	"storefront-orders/internal/core/logger"
	"storefront-orders/internal/features/orders/domain"

	"go.uber.org/zap"
)

// The operations below are called by the payment and shipping features, which do their own
// access checks. Every status change goes through repo.Update so a concurrent cancel is never
// overwritten by a stale read.

// FindOrder loads an order without an access check.
func (s *OrderService) FindOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.repo.GetByID(ctx, id)
}

// ConfirmPayment marks the order paid and confirms it if still pending. Repeating the call
// leaves the order in the same state.
func (s *OrderService) ConfirmPayment(ctx context.Context, id, paymentID string) (*domain.Order, error) {
	order, err := s.repo.Update(ctx, id, func(o *domain.Order) (bool, error) {
		if o.PaymentStatus == domain.PaymentPaid && o.PaymentID == paymentID && o.OrderStatus != domain.StatusPending {
			return false, nil
		}
		o.PaymentStatus = domain.PaymentPaid
		o.PaymentID = paymentID
		o.UpdatedAt = s.now()
		if o.OrderStatus == domain.StatusPending {
			o.OrderStatus = domain.StatusConfirmed
		}
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("service: failed to confirm payment: %w", err)
	}

	logger.Get().Info("Payment confirmed",
		zap.String("order_id", order.ID),
		zap.String("payment_id", paymentID),
		zap.String("order_status", string(order.OrderStatus)),
	)
	return order, nil
}

// MarkPaymentFailed records a failed payment. Orders already paid are left alone.
func (s *OrderService) MarkPaymentFailed(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.repo.Update(ctx, id, func(o *domain.Order) (bool, error) {
		if o.PaymentStatus != domain.PaymentPending {
			return false, nil
		}
		o.PaymentStatus = domain.PaymentFailed
		o.UpdatedAt = s.now()
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("service: failed to record payment failure: %w", err)
	}
	return order, nil
}

// MarkProcessing moves the order to processing once a shipment exists.
func (s *OrderService) MarkProcessing(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.repo.Update(ctx, id, func(o *domain.Order) (bool, error) {
		if o.OrderStatus == domain.StatusProcessing {
			return false, nil
		}
		if err := o.TransitionTo(domain.StatusProcessing, s.now()); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("service: failed to mark processing: %w", err)
	}
	return order, nil
}

// ApplyCourierProgress records the tracking number and advances the order to target when that
// is a forward move. Stale or backward courier states leave the status unchanged. An empty
// target only updates the tracking number.
func (s *OrderService) ApplyCourierProgress(ctx context.Context, id string, target domain.Status, awb string) (*domain.Order, error) {
	order, err := s.repo.Update(ctx, id, func(o *domain.Order) (bool, error) {
		changed := false
		now := s.now()

		if awb != "" && o.TrackingNumber != awb {
			o.TrackingNumber = awb
			o.UpdatedAt = now
			changed = true
		}

		if target == domain.StatusShipped || target == domain.StatusDelivered {
			if domain.CanTransition(o.OrderStatus, target) {
				_ = o.TransitionTo(target, now)
				changed = true
			}
		}
		return changed, nil
	})
	if err != nil {
		return nil, fmt.Errorf("service: failed to apply courier progress: %w", err)
	}
	return order, nil
}
