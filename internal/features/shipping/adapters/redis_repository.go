package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storefront-orders/internal/features/shipping/domain"

	"github.com/redis/go-redis/v9"
)

const (
	shipmentKeyPrefix = "shipment:"
	orderIndexPrefix  = "shipment:order:"
	awbIndexPrefix    = "shipment:awb:"
)

// RedisShipmentRepository stores shipments as JSON documents indexed by order and AWB. The
// order index doubles as the one-shipment-per-order claim.
type RedisShipmentRepository struct {
	client *redis.Client
}

// NewRedisShipmentRepository creates a new RedisShipmentRepository.
func NewRedisShipmentRepository(client *redis.Client) *RedisShipmentRepository {
	return &RedisShipmentRepository{client: client}
}

func shipmentKey(id string) string        { return shipmentKeyPrefix + id }
func orderIndexKey(orderID string) string { return orderIndexPrefix + orderID }
func awbIndexKey(awb string) string       { return awbIndexPrefix + awb }

// Reserve claims the order's shipment slot with SETNX.
func (r *RedisShipmentRepository) Reserve(ctx context.Context, orderID, shipmentID string) (bool, error) {
	ok, err := r.client.SetNX(ctx, orderIndexKey(orderID), shipmentID, 0).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve shipment for order %s: %w", orderID, err)
	}
	return ok, nil
}

// Release drops the claim.
func (r *RedisShipmentRepository) Release(ctx context.Context, orderID string) error {
	if err := r.client.Del(ctx, orderIndexKey(orderID)).Err(); err != nil {
		return fmt.Errorf("failed to release shipment for order %s: %w", orderID, err)
	}
	return nil
}

// Save writes the document together with its indexes.
func (r *RedisShipmentRepository) Save(ctx context.Context, shipment *domain.Shipment) error {
	data, err := json.Marshal(shipment)
	if err != nil {
		return fmt.Errorf("failed to marshal shipment: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, shipmentKey(shipment.ID), data, 0)
		pipe.Set(ctx, orderIndexKey(shipment.OrderID), shipment.ID, 0)
		if shipment.AWBCode != "" {
			pipe.Set(ctx, awbIndexKey(shipment.AWBCode), shipment.ID, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save shipment %s: %w", shipment.ID, err)
	}
	return nil
}

// GetByOrder returns the order's shipment. A claim without a document reads as not found.
func (r *RedisShipmentRepository) GetByOrder(ctx context.Context, orderID string) (*domain.Shipment, error) {
	return r.resolve(ctx, orderIndexKey(orderID), orderID)
}

// GetByAWB returns the shipment carrying the AWB.
func (r *RedisShipmentRepository) GetByAWB(ctx context.Context, awb string) (*domain.Shipment, error) {
	return r.resolve(ctx, awbIndexKey(awb), awb)
}

func (r *RedisShipmentRepository) resolve(ctx context.Context, index, ref string) (*domain.Shipment, error) {
	id, err := r.client.Get(ctx, index).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", domain.ErrShipmentNotFound, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve shipment %s: %w", ref, err)
	}

	data, err := r.client.Get(ctx, shipmentKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", domain.ErrShipmentNotFound, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shipment %s: %w", id, err)
	}

	var shipment domain.Shipment
	if err := json.Unmarshal(data, &shipment); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shipment %s: %w", id, err)
	}
	return &shipment, nil
}
