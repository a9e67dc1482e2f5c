package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"storefront-orders/internal/features/catalog/domain"

	"github.com/redis/go-redis/v9"
)

const (
	productKeyPrefix = "product:"
	stockKeySuffix   = ":stock"
)

// decrementScript performs the guarded decrement: -2 missing, -1 insufficient, else new stock.
var decrementScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if not current then
  return -2
end
local qty = tonumber(ARGV[1])
if tonumber(current) < qty then
  return -1
end
return redis.call('DECRBY', KEYS[1], qty)
`)

// RedisProductRepository stores each product as a JSON document plus a separate integer stock
// counter so stock can be changed atomically without rewriting the document.
type RedisProductRepository struct {
	client *redis.Client
}

// NewRedisProductRepository creates a new RedisProductRepository.
func NewRedisProductRepository(client *redis.Client) *RedisProductRepository {
	return &RedisProductRepository{client: client}
}

func productKey(id string) string { return productKeyPrefix + id }
func stockKey(id string) string   { return productKeyPrefix + id + stockKeySuffix }

// GetByID loads the document and its stock counter in one round trip.
func (r *RedisProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	pipe := r.client.Pipeline()
	docCmd := pipe.Get(ctx, productKey(id))
	stockCmd := pipe.Get(ctx, stockKey(id))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to load product %s: %w", id, err)
	}

	data, err := docCmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load product %s: %w", id, err)
	}

	var product domain.Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product %s: %w", id, err)
	}

	stock, err := stockCmd.Int()
	switch {
	case errors.Is(err, redis.Nil):
		product.Stock = 0
	case err != nil:
		return nil, fmt.Errorf("failed to read stock for %s: %w", id, err)
	default:
		product.Stock = stock
	}

	return &product, nil
}

// Save writes the document and stock counter in a single MULTI block.
func (r *RedisProductRepository) Save(ctx context.Context, product *domain.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("failed to marshal product: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, productKey(product.ID), data, 0)
		pipe.Set(ctx, stockKey(product.ID), strconv.Itoa(product.Stock), 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save product %s: %w", product.ID, err)
	}
	return nil
}

// DecrementStock implements the conditional decrement with a Lua script.
func (r *RedisProductRepository) DecrementStock(ctx context.Context, id string, qty int) (bool, error) {
	res, err := decrementScript.Run(ctx, r.client, []string{stockKey(id)}, qty).Int()
	if err != nil {
		return false, fmt.Errorf("failed to decrement stock for %s: %w", id, err)
	}

	switch res {
	case -2:
		return false, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	case -1:
		return false, nil
	default:
		return true, nil
	}
}

// IncrementStock returns qty units to the counter.
func (r *RedisProductRepository) IncrementStock(ctx context.Context, id string, qty int) error {
	if err := r.client.IncrBy(ctx, stockKey(id), int64(qty)).Err(); err != nil {
		return fmt.Errorf("failed to increment stock for %s: %w", id, err)
	}
	return nil
}
