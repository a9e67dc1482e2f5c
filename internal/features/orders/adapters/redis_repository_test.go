package adapters

import (
	"context"
	"testing"
	"time"

	"storefront-orders/internal/features/orders/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T) (*RedisOrderRepository, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisOrderRepository(client), mr
}

func newOrder(id, number, user string, created time.Time) *domain.Order {
	return &domain.Order{
		ID:            id,
		OrderNumber:   number,
		UserID:        user,
		Email:         user + "@example.com",
		Items:         []domain.OrderItem{{ProductID: "p-1", Name: "PLC", Price: 900, Quantity: 1}},
		Total:         900,
		PaymentMethod: domain.PaymentOnline,
		OrderStatus:   domain.StatusPending,
		PaymentStatus: domain.PaymentPending,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
}

func TestRedisOrderRepository_CreateAndGet(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, newOrder("o-1", "ORD1", "u-1", created)))

	byID, err := repo.GetByID(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, "ORD1", byID.OrderNumber)
	assert.Equal(t, created, byID.CreatedAt)

	byNumber, err := repo.GetByNumber(ctx, "ORD1")
	require.NoError(t, err)
	assert.Equal(t, "o-1", byNumber.ID)
}

func TestRedisOrderRepository_DuplicateNumber(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newOrder("o-1", "ORD1", "u-1", time.Now())))
	err := repo.Create(ctx, newOrder("o-2", "ORD1", "u-1", time.Now()))
	assert.ErrorIs(t, err, domain.ErrDuplicateOrderNumber)

	_, err = repo.GetByID(ctx, "o-2")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestRedisOrderRepository_CreateFailureReleasesNumber(t *testing.T) {
	repo, mr := setupRepo(t)
	ctx := context.Background()

	// A listing key of the wrong type makes the MULTI block fail.
	require.NoError(t, mr.Set(allIndexKey, "corrupt"))

	err := repo.Create(ctx, newOrder("o-1", "ORD1", "u-1", time.Now()))
	require.Error(t, err)
	assert.False(t, mr.Exists(numberKey("ORD1")))
	assert.False(t, mr.Exists(orderKey("o-1")))

	mr.Del(allIndexKey)
	require.NoError(t, repo.Create(ctx, newOrder("o-2", "ORD1", "u-1", time.Now())))
}

func TestRedisOrderRepository_NotFound(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	_, err = repo.GetByNumber(ctx, "ORDMISSING")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	_, err = repo.Update(ctx, "missing", func(o *domain.Order) (bool, error) { return true, nil })
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestRedisOrderRepository_Update(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newOrder("o-1", "ORD1", "u-1", time.Now())))

	t.Run("Writes", func(t *testing.T) {
		updated, err := repo.Update(ctx, "o-1", func(o *domain.Order) (bool, error) {
			o.OrderStatus = domain.StatusConfirmed
			o.PaymentStatus = domain.PaymentPaid
			return true, nil
		})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusConfirmed, updated.OrderStatus)

		got, err := repo.GetByID(ctx, "o-1")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusConfirmed, got.OrderStatus)
		assert.Equal(t, domain.PaymentPaid, got.PaymentStatus)
	})

	t.Run("UnchangedSkipsWrite", func(t *testing.T) {
		_, err := repo.Update(ctx, "o-1", func(o *domain.Order) (bool, error) {
			o.Notes = "not persisted"
			return false, nil
		})
		require.NoError(t, err)

		got, err := repo.GetByID(ctx, "o-1")
		require.NoError(t, err)
		assert.Empty(t, got.Notes)
	})

	t.Run("MutateErrorAborts", func(t *testing.T) {
		_, err := repo.Update(ctx, "o-1", func(o *domain.Order) (bool, error) {
			o.OrderStatus = domain.StatusCancelled
			return false, domain.ErrInvalidTransition
		})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)

		got, err := repo.GetByID(ctx, "o-1")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusConfirmed, got.OrderStatus)
	})

	t.Run("RetriesAfterConcurrentWrite", func(t *testing.T) {
		calls := 0
		updated, err := repo.Update(ctx, "o-1", func(o *domain.Order) (bool, error) {
			calls++
			if calls == 1 {
				// Another writer lands between the read and the write.
				_, err := repo.Update(ctx, "o-1", func(inner *domain.Order) (bool, error) {
					inner.TrackingNumber = "AWB1"
					return true, nil
				})
				require.NoError(t, err)
			}
			o.Notes = "leave at gate"
			return true, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
		assert.Equal(t, "AWB1", updated.TrackingNumber)

		got, err := repo.GetByID(ctx, "o-1")
		require.NoError(t, err)
		assert.Equal(t, "AWB1", got.TrackingNumber)
		assert.Equal(t, "leave at gate", got.Notes)
	})
}

func TestRedisOrderRepository_List(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, newOrder("o-1", "ORD1", "u-1", base)))
	require.NoError(t, repo.Create(ctx, newOrder("o-2", "ORD2", "u-2", base.Add(time.Minute))))
	require.NoError(t, repo.Create(ctx, newOrder("o-3", "ORD3", "u-1", base.Add(2*time.Minute))))

	mine, err := repo.ListByUser(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "o-3", mine[0].ID)
	assert.Equal(t, "o-1", mine[1].ID)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "o-3", all[0].ID)

	none, err := repo.ListByUser(ctx, "u-9")
	require.NoError(t, err)
	assert.Empty(t, none)
}
