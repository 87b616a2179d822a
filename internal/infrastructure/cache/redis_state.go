// Package cache persists per-session client state in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sangkips/storefront-api/internal/domain/entity"
	"github.com/sangkips/storefront-api/internal/domain/repository"
)

const (
	kindCart     = "cart"
	kindWishlist = "wishlist"
	kindUI       = "ui"
)

// RedisStateRepository stores JSON snapshots under <app>:<kind>:<session-id>
type RedisStateRepository struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStateRepository creates a new Redis backed state repository.
// A non-positive ttl stores keys without expiry.
func NewRedisStateRepository(client *redis.Client, appName string, ttl time.Duration) *RedisStateRepository {
	return &RedisStateRepository{client: client, prefix: appName, ttl: max(ttl, 0)}
}

var _ repository.StateRepository = (*RedisStateRepository)(nil)

func (r *RedisStateRepository) LoadCart(ctx context.Context, sessionID string) (*entity.CartSnapshot, error) {
	var snap entity.CartSnapshot
	ok, err := r.load(ctx, kindCart, sessionID, &snap)
	if !ok || err != nil {
		return nil, err
	}
	if snap.Items == nil {
		snap.Items = []entity.LineItem{}
	}
	return &snap, nil
}

func (r *RedisStateRepository) SaveCart(ctx context.Context, sessionID string, snapshot *entity.CartSnapshot) error {
	return r.save(ctx, kindCart, sessionID, snapshot)
}

func (r *RedisStateRepository) LoadWishlist(ctx context.Context, sessionID string) (*entity.WishlistSnapshot, error) {
	var snap entity.WishlistSnapshot
	ok, err := r.load(ctx, kindWishlist, sessionID, &snap)
	if !ok || err != nil {
		return nil, err
	}
	if snap.Items == nil {
		snap.Items = []entity.WishlistItem{}
	}
	return &snap, nil
}

func (r *RedisStateRepository) SaveWishlist(ctx context.Context, sessionID string, snapshot *entity.WishlistSnapshot) error {
	return r.save(ctx, kindWishlist, sessionID, snapshot)
}

func (r *RedisStateRepository) LoadUI(ctx context.Context, sessionID string) (*entity.UIFlags, error) {
	var flags entity.UIFlags
	ok, err := r.load(ctx, kindUI, sessionID, &flags)
	if !ok || err != nil {
		return nil, err
	}
	return &flags, nil
}

func (r *RedisStateRepository) SaveUI(ctx context.Context, sessionID string, flags *entity.UIFlags) error {
	return r.save(ctx, kindUI, sessionID, flags)
}

// Delete removes every kind of state stored for the session
func (r *RedisStateRepository) Delete(ctx context.Context, sessionID string) error {
	keys := []string{
		r.key(kindCart, sessionID),
		r.key(kindWishlist, sessionID),
		r.key(kindUI, sessionID),
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *RedisStateRepository) load(ctx context.Context, kind, sessionID string, dst any) (bool, error) {
	data, err := r.client.Get(ctx, r.key(kind, sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s failed: %w", kind, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("unmarshal %s failed: %w", kind, err)
	}
	return true, nil
}

func (r *RedisStateRepository) save(ctx context.Context, kind, sessionID string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", kind, err)
	}
	if err := r.client.Set(ctx, r.key(kind, sessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s failed: %w", kind, err)
	}
	return nil
}

func (r *RedisStateRepository) key(kind, sessionID string) string {
	return fmt.Sprintf("%s:%s:%s", r.prefix, kind, sessionID)
}
