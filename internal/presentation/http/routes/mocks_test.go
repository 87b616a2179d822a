package routes

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sangkips/storefront-api/internal/application/payment"
	"github.com/sangkips/storefront-api/internal/domain/entity"
	"github.com/sangkips/storefront-api/internal/domain/enum"
	"github.com/sangkips/storefront-api/internal/domain/repository"
)

// stubCartAPI keeps remote carts in memory
type stubCartAPI struct {
	mu    sync.Mutex
	carts map[string]*entity.RemoteCart
	next  int
}

func newStubCartAPI() *stubCartAPI {
	return &stubCartAPI{carts: make(map[string]*entity.RemoteCart)}
}

func (s *stubCartAPI) copyOf(c *entity.RemoteCart) *entity.RemoteCart {
	out := *c
	out.Items = append([]entity.RemoteLineItem(nil), c.Items...)
	return &out
}

func (s *stubCartAPI) CreateCart(_ context.Context, regionID string) (*entity.RemoteCart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	c := &entity.RemoteCart{ID: fmt.Sprintf("cart_%d", s.next), RegionID: regionID, Currency: "inr"}
	s.carts[c.ID] = c
	return s.copyOf(c), nil
}

func (s *stubCartAPI) RetrieveCart(_ context.Context, cartID string) (*entity.RemoteCart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.carts[cartID]; ok {
		return s.copyOf(c), nil
	}
	return nil, nil
}

func (s *stubCartAPI) AddLineItem(_ context.Context, cartID, variantID string, quantity int) (*entity.RemoteCart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[cartID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	c.Items = append(c.Items, entity.RemoteLineItem{
		ID:                 "line_" + variantID,
		VariantID:          variantID,
		ProductID:          "prod_1",
		Title:              "Tee",
		Quantity:           quantity,
		UnitPrice:          49900,
		CompareAtUnitPrice: 79900,
	})
	return s.copyOf(c), nil
}

func (s *stubCartAPI) UpdateLineItem(_ context.Context, cartID, _ string, _ int) (*entity.RemoteCart, error) {
	return s.RetrieveCart(context.Background(), cartID)
}

func (s *stubCartAPI) DeleteLineItem(_ context.Context, cartID, _ string) (*entity.RemoteCart, error) {
	return s.RetrieveCart(context.Background(), cartID)
}

func (s *stubCartAPI) UpdateCart(_ context.Context, cartID string, _ entity.CartUpdate) (*entity.RemoteCart, error) {
	return s.RetrieveCart(context.Background(), cartID)
}

func (s *stubCartAPI) ListShippingOptions(context.Context, string) ([]entity.ShippingMethod, error) {
	return []entity.ShippingMethod{{ID: "so_std", Name: "Standard", Price: 4900}}, nil
}

func (s *stubCartAPI) AddShippingMethod(_ context.Context, cartID, _ string) (*entity.RemoteCart, error) {
	return s.RetrieveCart(context.Background(), cartID)
}

func (s *stubCartAPI) CompleteCart(_ context.Context, cartID string) (*entity.CompletedOrder, error) {
	return &entity.CompletedOrder{ID: "order_" + cartID, DisplayID: "1"}, nil
}

type stubWishlistAPI struct{}

func (stubWishlistAPI) List(context.Context, string) ([]entity.WishlistItem, error) { return nil, nil }
func (stubWishlistAPI) Add(context.Context, string, string) error                   { return nil }
func (stubWishlistAPI) Remove(context.Context, string, string) error                { return nil }

type stubPromotionAPI struct{}

func (stubPromotionAPI) ActiveCoupons(context.Context) ([]entity.Coupon, error) {
	return []entity.Coupon{{Code: "SAVE10", DiscountType: enum.DiscountTypePercentage, DiscountValue: 10}}, nil
}

func (stubPromotionAPI) ValidateGiftCard(context.Context, string) (*entity.GiftCardBalance, error) {
	return nil, repository.ErrGiftCardNotFound
}

func (stubPromotionAPI) CODConfig(context.Context) (*entity.CODConfig, error) {
	return &entity.CODConfig{Enabled: true, Fee: 4000}, nil
}

func (stubPromotionAPI) PrepaidDiscountConfig(context.Context) (*entity.PrepaidDiscountConfig, error) {
	return &entity.PrepaidDiscountConfig{}, nil
}

type stubDispatcher struct{}

func (stubDispatcher) Dispatch(context.Context, payment.Request) entity.PaymentResult {
	return entity.PaymentResult{}
}

func (stubDispatcher) Resume(context.Context, uuid.UUID) ([]entity.PaymentResult, error) {
	return nil, nil
}

func (stubDispatcher) Pending(context.Context, uuid.UUID) ([]entity.PendingVerification, error) {
	return nil, nil
}

// memIdempotencyRepo keeps idempotency keys in memory
type memIdempotencyRepo struct {
	mu   sync.Mutex
	keys map[string]entity.IdempotencyKey
}

func newMemIdempotencyRepo() *memIdempotencyRepo {
	return &memIdempotencyRepo{keys: make(map[string]entity.IdempotencyKey)}
}

func (m *memIdempotencyRepo) GetByKey(_ context.Context, key string, sessionID uuid.UUID) (*entity.IdempotencyKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.keys[sessionID.String()+"/"+key]
	if !ok {
		return nil, nil
	}
	return &k, nil
}

func (m *memIdempotencyRepo) Create(_ context.Context, ikey *entity.IdempotencyKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[ikey.SessionID.String()+"/"+ikey.Key] = *ikey
	return nil
}

func (m *memIdempotencyRepo) DeleteExpired(context.Context) error { return nil }
