package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sangkips/storefront-api/internal/domain/entity"
)

var errRemote = errors.New("remote unavailable")

// fakeCartRemote keeps an authoritative cart in memory. Calls can be held
// on a gate or made to fail.
type fakeCartRemote struct {
	mu      sync.Mutex
	cartID  string
	order   []string
	qty     map[string]int
	calls   []string
	fail    map[int]error // call index -> error
	gate    chan struct{}
	gateFor int // call index held on gate, -1 for none
}

func newFakeCartRemote() *fakeCartRemote {
	return &fakeCartRemote{qty: make(map[string]int), fail: make(map[int]error), gateFor: -1}
}

func (f *fakeCartRemote) holdCall(n int) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	f.gateFor = n
	return f.gate
}

func (f *fakeCartRemote) failCall(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[n] = errRemote
}

// begin records the call and returns its failure, waiting on the gate first if held
func (f *fakeCartRemote) begin(name string) error {
	f.mu.Lock()
	n := len(f.calls)
	f.calls = append(f.calls, name)
	gate := f.gate
	held := f.gateFor == n
	err := f.fail[n]
	f.mu.Unlock()
	if held {
		<-gate
	}
	return err
}

func (f *fakeCartRemote) snapshotLocked() *entity.CartSnapshot {
	items := []entity.LineItem{}
	for _, v := range f.order {
		if q := f.qty[v]; q > 0 {
			items = append(items, entity.LineItem{
				ID:        "line_" + v,
				ProductID: "prod_" + v,
				VariantID: v,
				UnitPrice: 1000,
				MRP:       1000,
				Quantity:  q,
				InStock:   true,
			})
		}
	}
	return &entity.CartSnapshot{Items: items, CartID: f.cartID, UpdatedAt: time.Now()}
}

func (f *fakeCartRemote) CartID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cartID
}

func (f *fakeCartRemote) Fetch(_ context.Context) (*entity.CartSnapshot, error) {
	if err := f.begin("fetch"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cartID == "" {
		return nil, nil
	}
	return f.snapshotLocked(), nil
}

func (f *fakeCartRemote) AddItem(_ context.Context, variantID string, quantity int) (*entity.CartSnapshot, error) {
	if err := f.begin("add:" + variantID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cartID == "" {
		f.cartID = "cart_1"
	}
	if _, ok := f.qty[variantID]; !ok {
		f.order = append(f.order, variantID)
	}
	f.qty[variantID] += quantity
	return f.snapshotLocked(), nil
}

func (f *fakeCartRemote) UpdateItem(_ context.Context, variantID string, quantity int) (*entity.CartSnapshot, error) {
	if err := f.begin("update:" + variantID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.qty[variantID] = quantity
	return f.snapshotLocked(), nil
}

func (f *fakeCartRemote) RemoveItem(_ context.Context, variantID string) (*entity.CartSnapshot, error) {
	if err := f.begin("remove:" + variantID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.qty, variantID)
	return f.snapshotLocked(), nil
}

func (f *fakeCartRemote) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cartID = ""
	f.order = nil
	f.qty = make(map[string]int)
}

func (f *fakeCartRemote) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// fakeWishlistRemote is an in-memory wishlist API
type fakeWishlistRemote struct {
	mu    sync.Mutex
	items []entity.WishlistItem
	err   error
}

func (f *fakeWishlistRemote) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeWishlistRemote) List(_ context.Context) ([]entity.WishlistItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]entity.WishlistItem(nil), f.items...), nil
}

func (f *fakeWishlistRemote) Add(_ context.Context, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.items = append(f.items, entity.WishlistItem{ProductID: productID})
	return nil
}

func (f *fakeWishlistRemote) Remove(_ context.Context, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	kept := f.items[:0]
	for _, it := range f.items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	f.items = kept
	return nil
}
