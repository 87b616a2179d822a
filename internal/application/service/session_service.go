package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/storefront-api/internal/application/checkout"
	"github.com/sangkips/storefront-api/internal/application/gateway"
	"github.com/sangkips/storefront-api/internal/application/store"
	"github.com/sangkips/storefront-api/internal/domain/entity"
	"github.com/sangkips/storefront-api/internal/domain/enum"
	"github.com/sangkips/storefront-api/internal/domain/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	dirtyCart = 1 << iota
	dirtyWishlist
	dirtyUI
)

// CheckoutState is the per-session checkout progress and selections.
// It is only accessed through Session.Checkout.
type CheckoutState struct {
	Machine         *checkout.Machine
	Contact         *entity.ContactInfo
	Address         *entity.Address
	ShippingOptions []entity.ShippingMethod
	Shipping        *entity.ShippingMethod
	PaymentMethod   enum.PaymentMethod
	Coupon          *entity.AppliedCoupon
	GiftCard        *entity.GiftCardBalance
	AttemptID       uuid.UUID
}

// Reset returns to the contact step and drops every selection
func (c *CheckoutState) Reset() {
	c.Machine.Reset()
	c.Contact = nil
	c.Address = nil
	c.ShippingOptions = nil
	c.Shipping = nil
	c.PaymentMethod = enum.PaymentMethodOnline
	c.Coupon = nil
	c.GiftCard = nil
	c.AttemptID = uuid.Nil
}

// Session is everything the BFF holds for one shopper
type Session struct {
	ID       uuid.UUID
	Cart     *store.CartStore
	Wishlist *store.WishlistStore
	UI       *store.UIStore
	Gateway  *gateway.CartGateway

	mu       sync.Mutex
	checkout CheckoutState
	lastSeen time.Time

	dirtyMu sync.Mutex
	dirty   int
	closed  bool
	signal  chan struct{}
	done    chan struct{}
	unsubs  []func()
}

// Checkout runs fn with exclusive access to the checkout state
func (s *Session) Checkout(fn func(st *CheckoutState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.checkout)
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen.Before(cutoff)
}

func (s *Session) markDirty(kind int) {
	s.dirtyMu.Lock()
	defer s.dirtyMu.Unlock()
	s.dirty |= kind
	if s.closed {
		return
	}
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

// stopSignals ends the persist loop after one final save
func (s *Session) stopSignals() {
	s.dirtyMu.Lock()
	defer s.dirtyMu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.signal)
	}
}

func (s *Session) takeDirty() int {
	s.dirtyMu.Lock()
	defer s.dirtyMu.Unlock()
	d := s.dirty
	s.dirty = 0
	return d
}

// SessionConfig configures the session registry
type SessionConfig struct {
	RegionID    string
	Store       store.Options
	IdleTTL     time.Duration
	SaveTimeout time.Duration
}

// SessionService owns the per-session stores. Sessions are loaded from the
// state repository on first use, hydrated from the remote APIs once, saved
// after every change and evicted when idle.
type SessionService struct {
	state     repository.StateRepository
	carts     repository.CartAPI
	wishlists repository.WishlistAPI
	cfg       SessionConfig
	logger    *zap.Logger

	group    singleflight.Group
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session

	stop     chan struct{}
	stopOnce sync.Once
}

// NewSessionService creates a new session registry and starts its eviction loop
func NewSessionService(
	state repository.StateRepository,
	carts repository.CartAPI,
	wishlists repository.WishlistAPI,
	cfg SessionConfig,
	logger *zap.Logger,
) *SessionService {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	if cfg.SaveTimeout <= 0 {
		cfg.SaveTimeout = 5 * time.Second
	}
	if cfg.Store.Logger == nil {
		cfg.Store.Logger = logger
	}
	s := &SessionService{
		state:     state,
		carts:     carts,
		wishlists: wishlists,
		cfg:       cfg,
		logger:    logger,
		sessions:  make(map[uuid.UUID]*Session),
		stop:      make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// Get returns the live session, loading it on first use
func (s *SessionService) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		sess.touch()
		return sess, nil
	}

	v, err, _ := s.group.Do(id.String(), func() (any, error) {
		s.mu.RLock()
		existing, ok := s.sessions[id]
		s.mu.RUnlock()
		if ok {
			return existing, nil
		}

		loaded, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.sessions[id] = loaded
		s.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	sess = v.(*Session)
	sess.touch()
	return sess, nil
}

// Active returns the number of live sessions
func (s *SessionService) Active() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Evict flushes, saves and closes the session if it is live
func (s *SessionService) Evict(ctx context.Context, id uuid.UUID) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		s.shutdown(ctx, sess)
	}
}

// Close evicts every session and stops the eviction loop
func (s *SessionService) Close(ctx context.Context) {
	s.stopOnce.Do(func() { close(s.stop) })

	s.mu.Lock()
	all := make([]*Session, 0, len(s.sessions))
	for id, sess := range s.sessions {
		all = append(all, sess)
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, sess := range all {
		wg.Add(1)
		go func(sess *Session) {
			defer wg.Done()
			s.shutdown(ctx, sess)
		}(sess)
	}
	wg.Wait()
}

func (s *SessionService) load(ctx context.Context, id uuid.UUID) (*Session, error) {
	sid := id.String()

	var (
		cartSnap *entity.CartSnapshot
		wishSnap *entity.WishlistSnapshot
		flags    *entity.UIFlags
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		cartSnap, err = s.state.LoadCart(gctx, sid)
		return err
	})
	g.Go(func() (err error) {
		wishSnap, err = s.state.LoadWishlist(gctx, sid)
		return err
	})
	g.Go(func() (err error) {
		flags, err = s.state.LoadUI(gctx, sid)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load session state: %w", err)
	}

	if cartSnap == nil {
		cartSnap = &entity.CartSnapshot{}
	}
	if wishSnap == nil {
		wishSnap = &entity.WishlistSnapshot{}
	}
	if flags == nil {
		flags = &entity.UIFlags{}
	}

	log := s.logger.With(zap.String("session_id", sid))
	opts := s.cfg.Store
	opts.Logger = log

	gw := gateway.NewCartGateway(s.carts, s.cfg.RegionID, cartSnap.CartID)
	sess := &Session{
		ID:       id,
		Gateway:  gw,
		Cart:     store.NewCartStore(gw, cartSnap.Items, opts),
		Wishlist: store.NewWishlistStore(store.BindWishlist(s.wishlists, sid), wishSnap.Items, opts),
		UI:       store.NewUIStore(*flags),
		checkout: CheckoutState{Machine: checkout.NewMachine()},
		lastSeen: time.Now(),
		signal:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	sess.unsubs = []func(){
		sess.Cart.Subscribe(func(entity.CartSnapshot) { sess.markDirty(dirtyCart) }),
		sess.Wishlist.Subscribe(func(entity.WishlistSnapshot) { sess.markDirty(dirtyWishlist) }),
		sess.UI.Subscribe(func(entity.UIFlags) { sess.markDirty(dirtyUI) }),
	}
	go s.persistLoop(sess)

	// hydration failures leave the persisted state in place
	go func() {
		hctx, cancel := context.WithTimeout(context.Background(), s.cfg.SaveTimeout*3)
		defer cancel()
		if err := sess.Cart.Hydrate(hctx); err != nil {
			log.Warn("cart hydrate failed", zap.Error(err))
		}
		if err := sess.Wishlist.Hydrate(hctx); err != nil {
			log.Warn("wishlist hydrate failed", zap.Error(err))
		}
	}()

	log.Debug("session loaded", zap.Int("cart_items", len(cartSnap.Items)))
	return sess, nil
}

func (s *SessionService) persistLoop(sess *Session) {
	defer close(sess.done)
	for range sess.signal {
		s.save(sess, sess.takeDirty())
	}
	// final save after the signal channel closes
	s.save(sess, sess.takeDirty())
}

func (s *SessionService) save(sess *Session, dirty int) {
	if dirty == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.SaveTimeout)
	defer cancel()

	sid := sess.ID.String()
	log := s.logger.With(zap.String("session_id", sid))
	if dirty&dirtyCart != 0 {
		snap := sess.Cart.Snapshot()
		if err := s.state.SaveCart(ctx, sid, &snap); err != nil {
			log.Warn("save cart failed", zap.Error(err))
		}
	}
	if dirty&dirtyWishlist != 0 {
		snap := sess.Wishlist.Snapshot()
		if err := s.state.SaveWishlist(ctx, sid, &snap); err != nil {
			log.Warn("save wishlist failed", zap.Error(err))
		}
	}
	if dirty&dirtyUI != 0 {
		flags := sess.UI.Flags()
		if err := s.state.SaveUI(ctx, sid, &flags); err != nil {
			log.Warn("save ui flags failed", zap.Error(err))
		}
	}
}

func (s *SessionService) shutdown(ctx context.Context, sess *Session) {
	if err := sess.Cart.Flush(ctx); err != nil {
		s.logger.Warn("cart flush on eviction failed", zap.String("session_id", sess.ID.String()), zap.Error(err))
	}
	if err := sess.Wishlist.Flush(ctx); err != nil {
		s.logger.Warn("wishlist flush on eviction failed", zap.String("session_id", sess.ID.String()), zap.Error(err))
	}
	sess.Cart.Close()
	sess.Wishlist.Close()
	for _, unsub := range sess.unsubs {
		unsub()
	}
	sess.stopSignals()
	<-sess.done
}

// cleanupLoop periodically evicts idle sessions
func (s *SessionService) cleanupLoop() {
	ticker := time.NewTicker(max(s.cfg.IdleTTL/4, time.Second))
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.evictIdle()
		case <-s.stop:
			return
		}
	}
}

func (s *SessionService) evictIdle() {
	cutoff := time.Now().Add(-s.cfg.IdleTTL)

	s.mu.Lock()
	var idle []*Session
	for id, sess := range s.sessions {
		if sess.idleSince(cutoff) {
			idle = append(idle, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range idle {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.SaveTimeout)
		s.shutdown(ctx, sess)
		cancel()
	}
	if len(idle) > 0 {
		s.logger.Debug("evicted idle sessions", zap.Int("count", len(idle)))
	}
}
