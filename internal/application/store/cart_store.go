package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sangkips/storefront-api/internal/domain/entity"
	"github.com/sangkips/storefront-api/internal/domain/enum"
	"github.com/sangkips/storefront-api/pkg/apperror"
	"go.uber.org/zap"
)

// CartRemote is the remote side of a cart session
type CartRemote interface {
	CartID() string
	// Fetch returns nil, nil when there is no remote cart to hydrate from
	Fetch(ctx context.Context) (*entity.CartSnapshot, error)
	AddItem(ctx context.Context, variantID string, quantity int) (*entity.CartSnapshot, error)
	UpdateItem(ctx context.Context, variantID string, quantity int) (*entity.CartSnapshot, error)
	RemoveItem(ctx context.Context, variantID string) (*entity.CartSnapshot, error)
	Reset()
}

type cartOp func(ctx context.Context) (*entity.CartSnapshot, error)

// CartStore is the optimistic local cart for one session
type CartStore struct {
	remote CartRemote
	policy enum.SyncPolicy
	logger *zap.Logger
	queue  *syncQueue

	mu        sync.RWMutex
	items     []entity.LineItem
	cartID    string
	version   uint64
	updatedAt time.Time

	// held while notifying so subscribers see snapshots in order
	notifyMu sync.Mutex
	obs      observers[entity.CartSnapshot]
}

// NewCartStore creates a new cart store seeded with previously persisted items
func NewCartStore(remote CartRemote, initial []entity.LineItem, opts Options) *CartStore {
	return &CartStore{
		remote:    remote,
		policy:    opts.Policy,
		logger:    opts.logger(),
		queue:     newSyncQueue(opts.QueueSize, opts.SyncTimeout),
		items:     entity.CloneLineItems(initial),
		cartID:    remote.CartID(),
		updatedAt: time.Now(),
	}
}

// Subscribe registers fn to be called with a snapshot after every state change.
// fn must not mutate the store.
func (s *CartStore) Subscribe(fn func(entity.CartSnapshot)) (unsubscribe func()) {
	return s.obs.subscribe(fn)
}

// Items returns a copy of the current line items
func (s *CartStore) Items() []entity.LineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return entity.CloneLineItems(s.items)
}

// CartID returns the remote cart session id
func (s *CartStore) CartID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cartID
}

// Snapshot returns the current persisted form of the cart
func (s *CartStore) Snapshot() entity.CartSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Syncing is true while a remote sync is queued or running
func (s *CartStore) Syncing() bool {
	return s.queue.busy()
}

// AddItem increments the matching variant or appends it with quantity 1
func (s *CartStore) AddItem(item entity.LineItem) error {
	if item.VariantID == "" {
		return apperror.NewFieldError("variant_id", "Variant is required")
	}
	if !item.InStock {
		return apperror.NewFieldError("variant_id", "Item is out of stock")
	}

	s.mu.Lock()
	idx := s.indexOfVariant(item)
	if idx >= 0 {
		limit := s.items[idx].MaxQuantity
		if item.MaxQuantity > 0 {
			limit = item.MaxQuantity
		}
		if limit > 0 && s.items[idx].Quantity+1 > limit {
			s.mu.Unlock()
			return apperror.NewFieldError("quantity", fmt.Sprintf("Only %d available", limit))
		}
	}

	before := entity.CloneLineItems(s.items)
	if idx >= 0 {
		s.items[idx].Quantity++
	} else {
		item.Quantity = 1
		if item.ID == "" {
			item.ID = item.VariantID
		}
		if item.MRP == 0 {
			item.MRP = item.UnitPrice
		}
		s.items = append(s.items, item)
	}

	variantID := item.VariantID
	err := s.commitLocked(before, func(ctx context.Context) (*entity.CartSnapshot, error) {
		return s.remote.AddItem(ctx, variantID, 1)
	}, zap.String("op", "add"), zap.String("variant_id", variantID))
	return err
}

// RemoveItem drops the line item with the given id
func (s *CartStore) RemoveItem(id string) error {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return apperror.NewNotFoundError("Cart item")
	}

	before := entity.CloneLineItems(s.items)
	variantID := s.items[idx].VariantID
	s.items = append(s.items[:idx:idx], s.items[idx+1:]...)

	return s.commitLocked(before, func(ctx context.Context) (*entity.CartSnapshot, error) {
		return s.remote.RemoveItem(ctx, variantID)
	}, zap.String("op", "remove"), zap.String("variant_id", variantID))
}

// UpdateQuantity sets a line's quantity; quantity <= 0 removes it
func (s *CartStore) UpdateQuantity(id string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(id)
	}

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return apperror.NewNotFoundError("Cart item")
	}
	if limit := s.items[idx].MaxQuantity; limit > 0 && quantity > limit {
		s.mu.Unlock()
		return apperror.NewFieldError("quantity", fmt.Sprintf("Only %d available", limit))
	}

	before := entity.CloneLineItems(s.items)
	s.items[idx].Quantity = quantity
	variantID := s.items[idx].VariantID

	return s.commitLocked(before, func(ctx context.Context) (*entity.CartSnapshot, error) {
		return s.remote.UpdateItem(ctx, variantID, quantity)
	}, zap.String("op", "update"), zap.String("variant_id", variantID), zap.Int("quantity", quantity))
}

// ClearCart empties the cart and drops the remote cart session
func (s *CartStore) ClearCart() error {
	s.mu.Lock()
	before := entity.CloneLineItems(s.items)
	beforeID := s.cartID
	s.items = []entity.LineItem{}
	s.cartID = ""
	err := s.commitLocked(before, func(context.Context) (*entity.CartSnapshot, error) {
		s.remote.Reset()
		return &entity.CartSnapshot{Items: []entity.LineItem{}, UpdatedAt: time.Now()}, nil
	}, zap.String("op", "clear"))
	if err != nil {
		s.mu.Lock()
		s.cartID = beforeID
		s.mu.Unlock()
	}
	return err
}

// Hydrate replaces local state with the authoritative remote cart. It waits
// for every earlier sync and is skipped if a newer local change happens first.
func (s *CartStore) Hydrate(ctx context.Context) error {
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

// Flush waits for queued remote syncs to finish
func (s *CartStore) Flush(ctx context.Context) error {
	return s.queue.flush(ctx)
}

// Close drains pending syncs and stops the worker
func (s *CartStore) Close() {
	s.queue.close()
}

// commitLocked bumps the version, queues the remote op and publishes.
// It must be called with s.mu held and releases it.
func (s *CartStore) commitLocked(before []entity.LineItem, op cartOp, fields ...zap.Field) error {
	s.version++
	v := s.version
	err := s.queue.push(func(ctx context.Context) {
		s.reconcile(ctx, v, before, op, fields)
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

func (s *CartStore) reconcile(ctx context.Context, v uint64, before []entity.LineItem, op cartOp, fields []zap.Field) {
	res, err := op(ctx)
	if err != nil {
		s.logger.Warn("cart sync failed", append(fields, zap.Error(err))...)
		s.recover(v, before)
		return
	}
	s.apply(v, res)
}

// apply installs an authoritative result unless a newer local change exists
func (s *CartStore) apply(v uint64, res *entity.CartSnapshot) {
	cartID := s.remote.CartID()
	s.mu.Lock()
	s.cartID = cartID
	if res != nil && s.version == v {
		s.items = entity.CloneLineItems(res.Items)
		s.updatedAt = res.UpdatedAt
	}
	s.publishLocked()
}

func (s *CartStore) recover(v uint64, before []entity.LineItem) {
	cartID := s.remote.CartID()
	s.mu.Lock()
	s.cartID = cartID
	if s.policy == enum.SyncPolicyOptimistic {
		s.publishLocked()
		return
	}
	if s.version == v {
		s.items = before
		s.updatedAt = time.Now()
		s.publishLocked()
		return
	}
	// newer changes are queued behind us; reconcile once they have run
	current := s.version
	if err := s.queue.push(func(ctx context.Context) {
		if err := s.hydrate(ctx, current); err != nil {
			s.logger.Warn("cart re-hydrate failed", zap.Error(err))
		}
	}); err != nil {
		s.logger.Warn("cart re-hydrate not queued", zap.Error(err))
	}
	s.mu.Unlock()
}

func (s *CartStore) hydrate(ctx context.Context, v uint64) error {
	res, err := s.remote.Fetch(ctx)
	if err != nil {
		s.logger.Warn("cart hydrate failed", zap.Error(err))
		return err
	}
	s.apply(v, res)
	return nil
}

// publishLocked releases s.mu and notifies subscribers in order
func (s *CartStore) publishLocked() {
	snap := s.snapshotLocked()
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()
	s.obs.notify(snap)
}

func (s *CartStore) snapshotLocked() entity.CartSnapshot {
	return entity.CartSnapshot{
		Items:     entity.CloneLineItems(s.items),
		CartID:    s.cartID,
		UpdatedAt: s.updatedAt,
	}
}

func (s *CartStore) indexOf(id string) int {
	for i, it := range s.items {
		if it.ID == id || it.VariantID == id {
			return i
		}
	}
	return -1
}

func (s *CartStore) indexOfVariant(item entity.LineItem) int {
	for i, it := range s.items {
		if it.SameVariant(item) {
			return i
		}
	}
	return -1
}
