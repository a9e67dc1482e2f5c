package service

import (
	"context"
	"errors"
	"testing"

	"storefront-orders/internal/core/auth"
	orders "storefront-orders/internal/features/orders/domain"
	"storefront-orders/internal/features/payment/domain"
	"storefront-orders/internal/features/payment/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const secret = "rzp_test_secret"

var customer = &auth.Identity{CallerID: "u-1", Email: "asha@example.com", Role: auth.RoleUser}

// MockGateway is a mock implementation of ports.Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string, notes map[string]string) (*domain.GatewayOrder, error) {
	args := m.Called(ctx, amountMinor, currency, receipt, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GatewayOrder), args.Error(1)
}

// MockOrderLifecycle is a mock implementation of ports.OrderLifecycle
type MockOrderLifecycle struct {
	mock.Mock
}

func (m *MockOrderLifecycle) result(args mock.Arguments) (*orders.Order, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orders.Order), args.Error(1)
}

func (m *MockOrderLifecycle) FindOrder(ctx context.Context, id string) (*orders.Order, error) {
	return m.result(m.Called(ctx, id))
}

func (m *MockOrderLifecycle) ConfirmPayment(ctx context.Context, id, paymentID string) (*orders.Order, error) {
	return m.result(m.Called(ctx, id, paymentID))
}

func (m *MockOrderLifecycle) MarkPaymentFailed(ctx context.Context, id string) (*orders.Order, error) {
	return m.result(m.Called(ctx, id))
}

func newService() (*PaymentService, *MockGateway, *MockOrderLifecycle) {
	gw := new(MockGateway)
	lc := new(MockOrderLifecycle)
	return NewPaymentService(gw, lc, "rzp_test_key", secret, "INR"), gw, lc
}

func TestPaymentService_CreatePaymentOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc, gw, _ := newService()
		gw.On("CreateOrder", ctx, int64(90000), "INR", "rcpt_1", map[string]string{"user_id": "u-1", "email": "asha@example.com"}).
			Return(&domain.GatewayOrder{ID: "order_1", Amount: 90000, Currency: "INR"}, nil).Once()

		checkout, err := svc.CreatePaymentOrder(ctx, customer, 900, "rcpt_1")
		require.NoError(t, err)
		assert.Equal(t, &domain.Checkout{ID: "order_1", Amount: 90000, Currency: "INR", Key: "rzp_test_key"}, checkout)
		gw.AssertExpectations(t)
	})

	t.Run("InvalidAmount", func(t *testing.T) {
		svc, gw, _ := newService()

		_, err := svc.CreatePaymentOrder(ctx, customer, 0, "rcpt_1")
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
		_, err = svc.CreatePaymentOrder(ctx, customer, -5, "rcpt_1")
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
		_, err = svc.CreatePaymentOrder(ctx, customer, 1e17, "rcpt_1")
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
		gw.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("GatewayFailure", func(t *testing.T) {
		svc, gw, _ := newService()
		gw.On("CreateOrder", ctx, int64(100), "INR", "rcpt_1", mock.Anything).Return(nil, errors.New("502")).Once()

		_, err := svc.CreatePaymentOrder(ctx, customer, 1, "rcpt_1")
		assert.ErrorIs(t, err, domain.ErrGateway)
	})
}

func TestPaymentService_VerifyPayment(t *testing.T) {
	ctx := context.Background()
	order := &orders.Order{ID: "o-1", UserID: "u-1", OrderStatus: orders.StatusPending, PaymentStatus: orders.PaymentPending}

	t.Run("ValidSignature", func(t *testing.T) {
		svc, _, lc := newService()
		lc.On("FindOrder", ctx, "o-1").Return(order, nil)
		lc.On("ConfirmPayment", ctx, "o-1", "pay_1").
			Return(&orders.Order{ID: "o-1", OrderStatus: orders.StatusConfirmed, PaymentStatus: orders.PaymentPaid}, nil).Once()

		got, err := svc.VerifyPayment(ctx, customer, ports.VerifyInput{
			OrderID:          "o-1",
			GatewayOrderID:   "order_1",
			GatewayPaymentID: "pay_1",
			GatewaySignature: domain.Signature(secret, "order_1", "pay_1"),
		})
		require.NoError(t, err)
		assert.Equal(t, orders.PaymentPaid, got.PaymentStatus)
		lc.AssertExpectations(t)
	})

	t.Run("InvalidSignatureNoMutation", func(t *testing.T) {
		svc, _, lc := newService()

		_, err := svc.VerifyPayment(ctx, customer, ports.VerifyInput{
			OrderID:          "o-1",
			GatewayOrderID:   "order_1",
			GatewayPaymentID: "pay_1",
			GatewaySignature: domain.Signature("wrong", "order_1", "pay_1"),
		})
		assert.ErrorIs(t, err, domain.ErrInvalidSignature)
		lc.AssertNotCalled(t, "ConfirmPayment", mock.Anything, mock.Anything, mock.Anything)
		lc.AssertNotCalled(t, "FindOrder", mock.Anything, mock.Anything)
	})

	t.Run("OtherCustomer", func(t *testing.T) {
		svc, _, lc := newService()
		lc.On("FindOrder", ctx, "o-1").Return(order, nil)

		_, err := svc.VerifyPayment(ctx, &auth.Identity{CallerID: "u-2", Role: auth.RoleUser}, ports.VerifyInput{
			OrderID:          "o-1",
			GatewayOrderID:   "order_1",
			GatewayPaymentID: "pay_1",
			GatewaySignature: domain.Signature(secret, "order_1", "pay_1"),
		})
		assert.ErrorIs(t, err, ErrForbidden)
		lc.AssertNotCalled(t, "ConfirmPayment", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("OrderNotFound", func(t *testing.T) {
		svc, _, lc := newService()
		lc.On("FindOrder", ctx, "o-9").Return(nil, orders.ErrOrderNotFound)

		_, err := svc.VerifyPayment(ctx, customer, ports.VerifyInput{
			OrderID:          "o-9",
			GatewayOrderID:   "order_1",
			GatewayPaymentID: "pay_1",
			GatewaySignature: domain.Signature(secret, "order_1", "pay_1"),
		})
		assert.ErrorIs(t, err, orders.ErrOrderNotFound)
	})
}

func TestPaymentService_RecordFailure(t *testing.T) {
	ctx := context.Background()
	svc, _, lc := newService()
	lc.On("FindOrder", ctx, "o-1").Return(&orders.Order{ID: "o-1", UserID: "u-1"}, nil)
	lc.On("MarkPaymentFailed", ctx, "o-1").Return(&orders.Order{ID: "o-1", PaymentStatus: orders.PaymentFailed}, nil).Once()

	got, err := svc.RecordFailure(ctx, customer, "o-1")
	require.NoError(t, err)
	assert.Equal(t, orders.PaymentFailed, got.PaymentStatus)
}
