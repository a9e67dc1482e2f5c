package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storefront-orders/internal/core/logger"
	"storefront-orders/internal/features/orders/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	orderKeyPrefix  = "order:"
	numberKeyPrefix = "order_number:"
	userIndexPrefix = "orders:user:"
	allIndexKey     = "orders:all"

	// updateAttempts bounds optimistic retries when a watched order changes mid-update.
	updateAttempts = 10
)

// RedisOrderRepository stores orders as JSON documents with a unique order-number index and
// sorted-set listings scored by creation time.
type RedisOrderRepository struct {
	client *redis.Client
}

// NewRedisOrderRepository creates a new RedisOrderRepository.
func NewRedisOrderRepository(client *redis.Client) *RedisOrderRepository {
	return &RedisOrderRepository{client: client}
}

func orderKey(id string) string      { return orderKeyPrefix + id }
func numberKey(num string) string    { return numberKeyPrefix + num }
func userIndexKey(uid string) string { return userIndexPrefix + uid }

// Create claims the order number, then writes the document and listings in one MULTI block.
func (r *RedisOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}

	claimed, err := r.client.SetNX(ctx, numberKey(order.OrderNumber), order.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to claim order number %s: %w", order.OrderNumber, err)
	}
	if !claimed {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateOrderNumber, order.OrderNumber)
	}

	score := float64(order.CreatedAt.UnixMilli())
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, orderKey(order.ID), data, 0)
		pipe.ZAdd(ctx, userIndexKey(order.UserID), redis.Z{Score: score, Member: order.ID})
		pipe.ZAdd(ctx, allIndexKey, redis.Z{Score: score, Member: order.ID})
		return nil
	})
	if err != nil {
		if delErr := r.client.Del(context.WithoutCancel(ctx), numberKey(order.OrderNumber), orderKey(order.ID)).Err(); delErr != nil {
			logger.Get().Error("Failed to release order number",
				zap.String("order_number", order.OrderNumber),
				zap.String("order_id", order.ID),
				zap.Error(delErr),
			)
		}
		return fmt.Errorf("failed to create order %s: %w", order.ID, err)
	}
	return nil
}

// GetByID loads an order document.
func (r *RedisOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	data, err := r.client.Get(ctx, orderKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}

	var order domain.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order %s: %w", id, err)
	}
	return &order, nil
}

// GetByNumber resolves the number index and loads the order.
func (r *RedisOrderRepository) GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	id, err := r.client.Get(ctx, numberKey(orderNumber)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, orderNumber)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve order number %s: %w", orderNumber, err)
	}
	return r.GetByID(ctx, id)
}

// Update applies mutate under WATCH on the order key. A concurrent write aborts the MULTI
// block and the whole read-modify-write is retried against the fresh document.
func (r *RedisOrderRepository) Update(ctx context.Context, id string, mutate func(*domain.Order) (bool, error)) (*domain.Order, error) {
	key := orderKey(id)

	for attempt := 0; attempt < updateAttempts; attempt++ {
		var result *domain.Order
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				return fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
			}
			if err != nil {
				return fmt.Errorf("failed to get order %s: %w", id, err)
			}

			var order domain.Order
			if err := json.Unmarshal(data, &order); err != nil {
				return fmt.Errorf("failed to unmarshal order %s: %w", id, err)
			}

			changed, err := mutate(&order)
			if err != nil {
				return err
			}
			result = &order
			if !changed {
				return nil
			}

			updated, err := json.Marshal(&order)
			if err != nil {
				return fmt.Errorf("failed to marshal order: %w", err)
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.SetXX(ctx, key, updated, 0)
				return nil
			})
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}

	return nil, fmt.Errorf("%w: %s", domain.ErrConcurrentUpdate, id)
}

// ListByUser returns the user's orders, newest first.
func (r *RedisOrderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	return r.list(ctx, userIndexKey(userID))
}

// ListAll returns every order, newest first.
func (r *RedisOrderRepository) ListAll(ctx context.Context) ([]*domain.Order, error) {
	return r.list(ctx, allIndexKey)
}

func (r *RedisOrderRepository) list(ctx context.Context, index string) ([]*domain.Order, error) {
	ids, err := r.client.ZRevRange(ctx, index, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read index %s: %w", index, err)
	}
	if len(ids) == 0 {
		return []*domain.Order{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = orderKey(id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	orders := make([]*domain.Order, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var order domain.Order
		if err := json.Unmarshal([]byte(s), &order); err != nil {
			return nil, fmt.Errorf("failed to unmarshal order %s: %w", ids[i], err)
		}
		orders = append(orders, &order)
	}
	return orders, nil
}
