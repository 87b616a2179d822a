package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sangkips/storefront-api/internal/application/payment"
	"github.com/sangkips/storefront-api/internal/domain/entity"
	"github.com/sangkips/storefront-api/internal/domain/repository"
	"github.com/sangkips/storefront-api/pkg/email"
)

// memStateRepo implements repository.StateRepository in memory
type memStateRepo struct {
	mu        sync.Mutex
	carts     map[string]entity.CartSnapshot
	wishlists map[string]entity.WishlistSnapshot
	ui        map[string]entity.UIFlags
	loads     int
	saves     int
}

func newMemStateRepo() *memStateRepo {
	return &memStateRepo{
		carts:     make(map[string]entity.CartSnapshot),
		wishlists: make(map[string]entity.WishlistSnapshot),
		ui:        make(map[string]entity.UIFlags),
	}
}

func (m *memStateRepo) LoadCart(_ context.Context, sid string) (*entity.CartSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if c, ok := m.carts[sid]; ok {
		return &c, nil
	}
	return nil, nil
}

func (m *memStateRepo) SaveCart(_ context.Context, sid string, snap *entity.CartSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.carts[sid] = *snap
	return nil
}

func (m *memStateRepo) LoadWishlist(_ context.Context, sid string) (*entity.WishlistSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.wishlists[sid]; ok {
		return &w, nil
	}
	return nil, nil
}

func (m *memStateRepo) SaveWishlist(_ context.Context, sid string, snap *entity.WishlistSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.wishlists[sid] = *snap
	return nil
}

func (m *memStateRepo) LoadUI(_ context.Context, sid string) (*entity.UIFlags, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.ui[sid]; ok {
		return &f, nil
	}
	return nil, nil
}

func (m *memStateRepo) SaveUI(_ context.Context, sid string, flags *entity.UIFlags) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.ui[sid] = *flags
	return nil
}

func (m *memStateRepo) Delete(_ context.Context, sid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, sid)
	delete(m.wishlists, sid)
	delete(m.ui, sid)
	return nil
}

func (m *memStateRepo) cart(sid string) (entity.CartSnapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[sid]
	return c, ok
}

func (m *memStateRepo) loadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads
}

// fakeCartAPI is an in-memory commerce cart API
type fakeCartAPI struct {
	mu       sync.Mutex
	carts    map[string]*entity.RemoteCart
	shipping map[string]string
	nextCart int
	nextLine int
}

func newFakeCartAPI() *fakeCartAPI {
	return &fakeCartAPI{
		carts:    make(map[string]*entity.RemoteCart),
		shipping: make(map[string]string),
	}
}

func (f *fakeCartAPI) clone(c *entity.RemoteCart) *entity.RemoteCart {
	out := *c
	out.Items = append([]entity.RemoteLineItem(nil), c.Items...)
	return &out
}

func (f *fakeCartAPI) CreateCart(_ context.Context, regionID string) (*entity.RemoteCart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextCart++
	c := &entity.RemoteCart{ID: fmt.Sprintf("cart_%d", f.nextCart), RegionID: regionID, Currency: "inr"}
	f.carts[c.ID] = c
	return f.clone(c), nil
}

func (f *fakeCartAPI) RetrieveCart(_ context.Context, cartID string) (*entity.RemoteCart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.carts[cartID]
	if !ok {
		return nil, nil
	}
	return f.clone(c), nil
}

func (f *fakeCartAPI) AddLineItem(_ context.Context, cartID, variantID string, quantity int) (*entity.RemoteCart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.carts[cartID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	for i := range c.Items {
		if c.Items[i].VariantID == variantID {
			c.Items[i].Quantity += quantity
			return f.clone(c), nil
		}
	}
	f.nextLine++
	c.Items = append(c.Items, entity.RemoteLineItem{
		ID:        fmt.Sprintf("line_%d", f.nextLine),
		VariantID: variantID,
		ProductID: "prod_1",
		Title:     "Tee",
		Quantity:  quantity,
		UnitPrice: 100000,
	})
	return f.clone(c), nil
}

func (f *fakeCartAPI) UpdateLineItem(_ context.Context, cartID, lineID string, quantity int) (*entity.RemoteCart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.carts[cartID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	for i := range c.Items {
		if c.Items[i].ID == lineID {
			c.Items[i].Quantity = quantity
		}
	}
	return f.clone(c), nil
}

func (f *fakeCartAPI) DeleteLineItem(_ context.Context, cartID, lineID string) (*entity.RemoteCart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.carts[cartID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	kept := c.Items[:0]
	for _, it := range c.Items {
		if it.ID != lineID {
			kept = append(kept, it)
		}
	}
	c.Items = kept
	return f.clone(c), nil
}

func (f *fakeCartAPI) UpdateCart(_ context.Context, cartID string, update entity.CartUpdate) (*entity.RemoteCart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.carts[cartID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	if update.Email != "" {
		c.Email = update.Email
	}
	return f.clone(c), nil
}

func (f *fakeCartAPI) ListShippingOptions(_ context.Context, _ string) ([]entity.ShippingMethod, error) {
	return []entity.ShippingMethod{
		{ID: "so_std", Name: "Standard", Price: 4900, FreeShippingThreshold: 99900},
		{ID: "so_exp", Name: "Express", Price: 14900},
	}, nil
}

func (f *fakeCartAPI) AddShippingMethod(_ context.Context, cartID, optionID string) (*entity.RemoteCart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.carts[cartID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	f.shipping[cartID] = optionID
	return f.clone(c), nil
}

func (f *fakeCartAPI) CompleteCart(_ context.Context, cartID string) (*entity.CompletedOrder, error) {
	return &entity.CompletedOrder{ID: "order_" + cartID, DisplayID: "1"}, nil
}

func (f *fakeCartAPI) email(cartID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.carts[cartID]; ok {
		return c.Email
	}
	return ""
}

// fakeWishlistAPI keeps every session's wishlist in memory
type fakeWishlistAPI struct {
	mu    sync.Mutex
	items map[string][]entity.WishlistItem
}

func newFakeWishlistAPI() *fakeWishlistAPI {
	return &fakeWishlistAPI{items: make(map[string][]entity.WishlistItem)}
}

func (f *fakeWishlistAPI) List(_ context.Context, sid string) ([]entity.WishlistItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.WishlistItem(nil), f.items[sid]...), nil
}

func (f *fakeWishlistAPI) Add(_ context.Context, sid, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[sid] = append(f.items[sid], entity.WishlistItem{ProductID: productID})
	return nil
}

func (f *fakeWishlistAPI) Remove(_ context.Context, sid, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.items[sid][:0]
	for _, it := range f.items[sid] {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	f.items[sid] = kept
	return nil
}

// fakePromotionAPI serves fixed promotions and counts calls
type fakePromotionAPI struct {
	mu          sync.Mutex
	coupons     []entity.Coupon
	giftCards   map[string]entity.GiftCardBalance
	cod         entity.CODConfig
	prepaid     entity.PrepaidDiscountConfig
	couponCalls int
	configCalls int
}

func (f *fakePromotionAPI) ActiveCoupons(context.Context) ([]entity.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.couponCalls++
	return append([]entity.Coupon(nil), f.coupons...), nil
}

func (f *fakePromotionAPI) ValidateGiftCard(_ context.Context, code string) (*entity.GiftCardBalance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	gc, ok := f.giftCards[code]
	if !ok {
		return nil, repository.ErrGiftCardNotFound
	}
	return &gc, nil
}

func (f *fakePromotionAPI) CODConfig(context.Context) (*entity.CODConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configCalls++
	cfg := f.cod
	return &cfg, nil
}

func (f *fakePromotionAPI) PrepaidDiscountConfig(context.Context) (*entity.PrepaidDiscountConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configCalls++
	cfg := f.prepaid
	return &cfg, nil
}

func (f *fakePromotionAPI) calls() (coupons, config int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.couponCalls, f.configCalls
}

// fakeDispatcher records dispatched payments and returns a scripted result
type fakeDispatcher struct {
	mu       sync.Mutex
	requests []payment.Request
	result   entity.PaymentResult
	resumed  []entity.PaymentResult
	pending  []entity.PendingVerification
}

func (f *fakeDispatcher) Dispatch(_ context.Context, req payment.Request) entity.PaymentResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.result
}

func (f *fakeDispatcher) Resume(context.Context, uuid.UUID) ([]entity.PaymentResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resumed, nil
}

func (f *fakeDispatcher) Pending(context.Context, uuid.UUID) ([]entity.PendingVerification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.PendingVerification(nil), f.pending...), nil
}

func (f *fakeDispatcher) setResumed(results ...entity.PaymentResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumed = results
}

func (f *fakeDispatcher) setPending(markers ...entity.PendingVerification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = markers
}

func (f *fakeDispatcher) dispatched() []payment.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]payment.Request(nil), f.requests...)
}

// fakeMailer captures confirmations
type fakeMailer struct {
	sent chan email.OrderConfirmation
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{sent: make(chan email.OrderConfirmation, 4)}
}

func (f *fakeMailer) SendOrderConfirmation(_ string, order email.OrderConfirmation) error {
	f.sent <- order
	return nil
}
