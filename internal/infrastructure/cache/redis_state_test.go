package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sangkips/storefront-api/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T, ttl time.Duration) (*RedisStateRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStateRepository(client, "storefront", ttl), mr
}

func TestRedisState_CartRoundTrip(t *testing.T) {
	repo, mr := setupTestRedis(t, time.Hour)
	ctx := context.Background()

	snap := &entity.CartSnapshot{
		Items: []entity.LineItem{
			{ID: "var_1", VariantID: "var_1", Title: "Tee", UnitPrice: 49900, MRP: 79900, Currency: "INR", Quantity: 2, InStock: true},
		},
		CartID:    "cart_1",
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, repo.SaveCart(ctx, "sess_1", snap))
	assert.True(t, mr.Exists("storefront:cart:sess_1"))
	assert.Equal(t, time.Hour, mr.TTL("storefront:cart:sess_1"))

	got, err := repo.LoadCart(ctx, "sess_1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "cart_1", got.CartID)
	assert.Equal(t, snap.Items, got.Items)
	assert.True(t, snap.UpdatedAt.Equal(got.UpdatedAt))
}

func TestRedisState_Miss(t *testing.T) {
	repo, _ := setupTestRedis(t, time.Hour)
	ctx := context.Background()

	cart, err := repo.LoadCart(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, cart)

	wl, err := repo.LoadWishlist(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, wl)

	ui, err := repo.LoadUI(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, ui)
}

func TestRedisState_Expiry(t *testing.T) {
	repo, mr := setupTestRedis(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, repo.SaveUI(ctx, "sess_1", &entity.UIFlags{SidebarCollapsed: true}))
	mr.FastForward(2 * time.Minute)

	ui, err := repo.LoadUI(ctx, "sess_1")
	require.NoError(t, err)
	assert.Nil(t, ui)
}

func TestRedisState_CorruptValue(t *testing.T) {
	repo, mr := setupTestRedis(t, 0)
	require.NoError(t, mr.Set("storefront:wishlist:sess_1", "{not json"))

	_, err := repo.LoadWishlist(context.Background(), "sess_1")
	assert.Error(t, err)
}

func TestRedisState_DeleteRemovesAllKinds(t *testing.T) {
	repo, mr := setupTestRedis(t, 0)
	ctx := context.Background()

	require.NoError(t, repo.SaveCart(ctx, "sess_1", &entity.CartSnapshot{CartID: "cart_1"}))
	require.NoError(t, repo.SaveWishlist(ctx, "sess_1", &entity.WishlistSnapshot{
		Items: []entity.WishlistItem{{ProductID: "prod_1"}},
	}))
	require.NoError(t, repo.SaveUI(ctx, "sess_1", &entity.UIFlags{AnnouncementDismissed: true}))
	require.NoError(t, repo.SaveUI(ctx, "sess_2", &entity.UIFlags{}))

	require.NoError(t, repo.Delete(ctx, "sess_1"))

	assert.False(t, mr.Exists("storefront:cart:sess_1"))
	assert.False(t, mr.Exists("storefront:wishlist:sess_1"))
	assert.False(t, mr.Exists("storefront:ui:sess_1"))
	assert.True(t, mr.Exists("storefront:ui:sess_2"))
}

func TestRedisState_EmptyItemsDecodeAsEmptySlice(t *testing.T) {
	repo, _ := setupTestRedis(t, 0)
	ctx := context.Background()

	require.NoError(t, repo.SaveCart(ctx, "sess_1", &entity.CartSnapshot{}))
	got, err := repo.LoadCart(ctx, "sess_1")
	require.NoError(t, err)
	assert.NotNil(t, got.Items)
	assert.Empty(t, got.Items)
}
