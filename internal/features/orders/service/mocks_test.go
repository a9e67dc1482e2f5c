package service

import (
	"context"

	"storefront-orders/internal/core/mailer"
	catalog "storefront-orders/internal/features/catalog/domain"
	"storefront-orders/internal/features/orders/domain"
	shipping "storefront-orders/internal/features/shipping/domain"

	"github.com/stretchr/testify/mock"
)

// MockOrderRepository is a mock implementation of ports.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

// Update replays the read-modify-write as a GetByID call followed by a Save call when mutate
// changed the order, so tests stub and assert each step.
func (m *MockOrderRepository) Update(ctx context.Context, id string, mutate func(*domain.Order) (bool, error)) (*domain.Order, error) {
	order, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	changed, err := mutate(order)
	if err != nil {
		return nil, err
	}
	if !changed {
		return order, nil
	}
	if err := m.Save(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (m *MockOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockOrderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) ListAll(ctx context.Context) ([]*domain.Order, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*domain.Order), args.Error(1)
}

// MockInventory is a mock implementation of ports.Inventory
type MockInventory struct {
	mock.Mock
}

func (m *MockInventory) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockInventory) DecrementStock(ctx context.Context, id string, qty int) (bool, error) {
	args := m.Called(ctx, id, qty)
	return args.Bool(0), args.Error(1)
}

func (m *MockInventory) IncrementStock(ctx context.Context, id string, qty int) error {
	return m.Called(ctx, id, qty).Error(0)
}

// MockSender is a mock implementation of mailer.Sender
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, msg mailer.Message) error {
	return m.Called(ctx, msg).Error(0)
}

// MockShipmentLookup is a mock implementation of ports.ShipmentLookup
type MockShipmentLookup struct {
	mock.Mock
}

func (m *MockShipmentLookup) GetByOrder(ctx context.Context, orderID string) (*shipping.Shipment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.Shipment), args.Error(1)
}
