package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/sangkips/storefront-api/internal/domain/entity"
	"github.com/sangkips/storefront-api/internal/domain/repository"
)

// fakeCartAPI is an in-memory commerce cart API
type fakeCartAPI struct {
	mu       sync.Mutex
	carts    map[string]*entity.RemoteCart
	prices   map[string]int64
	nextCart int
	nextLine int
	creates  int
	err      error
}

func newFakeCartAPI() *fakeCartAPI {
	return &fakeCartAPI{
		carts:  make(map[string]*entity.RemoteCart),
		prices: map[string]int64{"var_1": 1000, "var_2": 2500},
	}
}

func (f *fakeCartAPI) copyCart(c *entity.RemoteCart) *entity.RemoteCart {
	out := *c
	out.Items = append([]entity.RemoteLineItem(nil), c.Items...)
	return &out
}

func (f *fakeCartAPI) CreateCart(_ context.Context, regionID string) (*entity.RemoteCart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.nextCart++
	f.creates++
	c := &entity.RemoteCart{ID: fmt.Sprintf("cart_%d", f.nextCart), RegionID: regionID, Currency: "inr"}
	f.carts[c.ID] = c
	return f.copyCart(c), nil
}

func (f *fakeCartAPI) RetrieveCart(_ context.Context, cartID string) (*entity.RemoteCart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.carts[cartID]
	if !ok {
		return nil, nil
	}
	return f.copyCart(c), nil
}

func (f *fakeCartAPI) AddLineItem(_ context.Context, cartID, variantID string, quantity int) (*entity.RemoteCart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.carts[cartID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	for i := range c.Items {
		if c.Items[i].VariantID == variantID {
			c.Items[i].Quantity += quantity
			return f.copyCart(c), nil
		}
	}
	f.nextLine++
	c.Items = append(c.Items, entity.RemoteLineItem{
		ID:                 fmt.Sprintf("line_%d", f.nextLine),
		VariantID:          variantID,
		ProductID:          "prod_" + variantID,
		Title:              variantID,
		Quantity:           quantity,
		UnitPrice:          f.prices[variantID],
		CompareAtUnitPrice: f.prices[variantID] + 500,
	})
	return f.copyCart(c), nil
}

func (f *fakeCartAPI) UpdateLineItem(_ context.Context, cartID, lineID string, quantity int) (*entity.RemoteCart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.carts[cartID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	for i := range c.Items {
		if c.Items[i].ID == lineID {
			c.Items[i].Quantity = quantity
		}
	}
	return f.copyCart(c), nil
}

func (f *fakeCartAPI) DeleteLineItem(_ context.Context, cartID, lineID string) (*entity.RemoteCart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
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
	return f.copyCart(c), nil
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
	return f.copyCart(c), nil
}

func (f *fakeCartAPI) ListShippingOptions(_ context.Context, _ string) ([]entity.ShippingMethod, error) {
	return []entity.ShippingMethod{{ID: "so_std", Name: "Standard", Price: 100}}, nil
}

func (f *fakeCartAPI) AddShippingMethod(_ context.Context, cartID, _ string) (*entity.RemoteCart, error) {
	return f.RetrieveCart(context.Background(), cartID)
}

func (f *fakeCartAPI) CompleteCart(_ context.Context, cartID string) (*entity.CompletedOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.carts[cartID]; !ok {
		return nil, repository.ErrCartNotFound
	}
	delete(f.carts, cartID)
	return &entity.CompletedOrder{ID: "order_" + cartID, DisplayID: "1001"}, nil
}

func (f *fakeCartAPI) drop(cartID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.carts, cartID)
}
