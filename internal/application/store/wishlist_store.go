package store

import (
	"context"
	"sync"
	"time"

	"github.com/sangkips/storefront-api/internal/domain/entity"
	"github.com/sangkips/storefront-api/internal/domain/enum"
	"github.com/sangkips/storefront-api/internal/domain/repository"
	"github.com/sangkips/storefront-api/pkg/apperror"
	"go.uber.org/zap"
)

// WishlistRemote is the persistence API bound to one session
type WishlistRemote interface {
	List(ctx context.Context) ([]entity.WishlistItem, error)
	Add(ctx context.Context, productID string) error
	Remove(ctx context.Context, productID string) error
}

type boundWishlist struct {
	api       repository.WishlistAPI
	sessionID string
}

// BindWishlist binds the wishlist API to a session
func BindWishlist(api repository.WishlistAPI, sessionID string) WishlistRemote {
	return &boundWishlist{api: api, sessionID: sessionID}
}

func (b *boundWishlist) List(ctx context.Context) ([]entity.WishlistItem, error) {
	return b.api.List(ctx, b.sessionID)
}

func (b *boundWishlist) Add(ctx context.Context, productID string) error {
	return b.api.Add(ctx, b.sessionID, productID)
}

func (b *boundWishlist) Remove(ctx context.Context, productID string) error {
	return b.api.Remove(ctx, b.sessionID, productID)
}

// WishlistStore is the optimistic local wishlist for one session
type WishlistStore struct {
	remote WishlistRemote
	policy enum.SyncPolicy
	logger *zap.Logger
	queue  *syncQueue

	mu        sync.RWMutex
	items     []entity.WishlistItem
	version   uint64
	updatedAt time.Time

	notifyMu sync.Mutex
	obs      observers[entity.WishlistSnapshot]
}

// NewWishlistStore creates a new wishlist store
func NewWishlistStore(remote WishlistRemote, initial []entity.WishlistItem, opts Options) *WishlistStore {
	return &WishlistStore{
		remote:    remote,
		policy:    opts.Policy,
		logger:    opts.logger(),
		queue:     newSyncQueue(opts.QueueSize, opts.SyncTimeout),
		items:     entity.CloneWishlistItems(initial),
		updatedAt: time.Now(),
	}
}

// Subscribe registers fn to be called after every state change
func (s *WishlistStore) Subscribe(fn func(entity.WishlistSnapshot)) (unsubscribe func()) {
	return s.obs.subscribe(fn)
}

func (s *WishlistStore) Items() []entity.WishlistItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return entity.CloneWishlistItems(s.items)
}

// Snapshot returns the current persisted form of the wishlist
func (s *WishlistStore) Snapshot() entity.WishlistSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return entity.WishlistSnapshot{Items: entity.CloneWishlistItems(s.items), UpdatedAt: s.updatedAt}
}

// Has reports whether the product is in the wishlist
func (s *WishlistStore) Has(productID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(productID) >= 0
}

func (s *WishlistStore) Syncing() bool {
	return s.queue.busy()
}

// AddItem saves a product. Adding a product that is already saved is a no-op.
func (s *WishlistStore) AddItem(item entity.WishlistItem) error {
	if item.ProductID == "" {
		return apperror.NewFieldError("product_id", "Product is required")
	}

	s.mu.Lock()
	if s.indexOf(item.ProductID) >= 0 {
		s.mu.Unlock()
		return nil
	}
	return s.addLocked(item)
}

// RemoveItem drops a saved product
func (s *WishlistStore) RemoveItem(productID string) error {
	s.mu.Lock()
	if s.indexOf(productID) < 0 {
		s.mu.Unlock()
		return apperror.NewNotFoundError("Wishlist item")
	}
	return s.removeLocked(productID)
}

// ToggleItem adds the product if absent, removes it otherwise, and reports whether it was added
func (s *WishlistStore) ToggleItem(item entity.WishlistItem) (bool, error) {
	if item.ProductID == "" {
		return false, apperror.NewFieldError("product_id", "Product is required")
	}

	s.mu.Lock()
	if s.indexOf(item.ProductID) >= 0 {
		return false, s.removeLocked(item.ProductID)
	}
	return true, s.addLocked(item)
}

// Hydrate replaces local state with the persisted remote wishlist
func (s *WishlistStore) Hydrate(ctx context.Context) error {
	result := make(chan error, 1)
	s.mu.Lock()
	v := s.version
	err := s.queue.push(func(ctx context.Context) {
		result <- s.hydrate(ctx, v)
	})
	s.mu.Unlock()
	if err != nil {
		return err
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *WishlistStore) Flush(ctx context.Context) error {
	return s.queue.flush(ctx)
}

func (s *WishlistStore) Close() {
	s.queue.close()
}

func (s *WishlistStore) addLocked(item entity.WishlistItem) error {
	before := entity.CloneWishlistItems(s.items)
	if item.AddedAt.IsZero() {
		item.AddedAt = time.Now()
	}
	s.items = append(s.items, item)
	productID := item.ProductID
	return s.commitLocked(before, func(ctx context.Context) error {
		return s.remote.Add(ctx, productID)
	}, zap.String("op", "add"), zap.String("product_id", productID))
}

func (s *WishlistStore) removeLocked(productID string) error {
	before := entity.CloneWishlistItems(s.items)
	idx := s.indexOf(productID)
	s.items = append(s.items[:idx:idx], s.items[idx+1:]...)
	return s.commitLocked(before, func(ctx context.Context) error {
		return s.remote.Remove(ctx, productID)
	}, zap.String("op", "remove"), zap.String("product_id", productID))
}

// commitLocked must be called with s.mu held and releases it
func (s *WishlistStore) commitLocked(before []entity.WishlistItem, op func(context.Context) error, fields ...zap.Field) error {
	s.version++
	v := s.version
	err := s.queue.push(func(ctx context.Context) {
		if err := op(ctx); err != nil {
			s.logger.Warn("wishlist sync failed", append(fields, zap.Error(err))...)
			s.recover(v, before)
		}
	})
	if err != nil {
		s.items = before
		s.version--
		s.mu.Unlock()
		return err
	}
	s.updatedAt = time.Now()
	s.publishLocked()
	return nil
}

func (s *WishlistStore) recover(v uint64, before []entity.WishlistItem) {
	if s.policy == enum.SyncPolicyOptimistic {
		return
	}
	s.mu.Lock()
	if s.version == v {
		s.items = before
		s.updatedAt = time.Now()
		s.publishLocked()
		return
	}
	current := s.version
	if err := s.queue.push(func(ctx context.Context) {
		if err := s.hydrate(ctx, current); err != nil {
			s.logger.Warn("wishlist re-hydrate failed", zap.Error(err))
		}
	}); err != nil {
		s.logger.Warn("wishlist re-hydrate not queued", zap.Error(err))
	}
	s.mu.Unlock()
}

func (s *WishlistStore) hydrate(ctx context.Context, v uint64) error {
	items, err := s.remote.List(ctx)
	if err != nil {
		s.logger.Warn("wishlist hydrate failed", zap.Error(err))
		return err
	}
	s.mu.Lock()
	if s.version != v {
		s.mu.Unlock()
		return nil
	}
	s.items = entity.CloneWishlistItems(items)
	s.updatedAt = time.Now()
	s.publishLocked()
	return nil
}

func (s *WishlistStore) publishLocked() {
	snap := entity.WishlistSnapshot{
		Items:     entity.CloneWishlistItems(s.items),
		UpdatedAt: s.updatedAt,
	}
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()
	s.obs.notify(snap)
}

func (s *WishlistStore) indexOf(productID string) int {
	for i, it := range s.items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}
