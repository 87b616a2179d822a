// Package gateway binds a shopper session to a remote cart.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sangkips/storefront-api/internal/domain/entity"
	"github.com/sangkips/storefront-api/internal/domain/repository"
)

var (
	// ErrNoCart is returned by operations that need an existing remote cart
	ErrNoCart = errors.New("no remote cart for session")
	// ErrLineNotFound is returned when the remote cart has no line for a variant
	ErrLineNotFound = errors.New("line item not in remote cart")
)

// CartGateway wraps the remote cart API for one session. It creates the
// remote cart lazily and remembers which remote line holds each variant.
type CartGateway struct {
	api      repository.CartAPI
	regionID string

	mu     sync.Mutex
	cartID string
	lines  map[string]string // variant id -> remote line id
}

// NewCartGateway creates a new gateway, optionally resuming an existing cart session
func NewCartGateway(api repository.CartAPI, regionID, cartID string) *CartGateway {
	return &CartGateway{
		api:      api,
		regionID: regionID,
		cartID:   cartID,
		lines:    make(map[string]string),
	}
}

// CartID returns the current cart session id, empty when none exists
func (g *CartGateway) CartID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cartID
}

// Reset forgets the cart session. The remote cart itself is left alone.
func (g *CartGateway) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reset()
}

func (g *CartGateway) reset() {
	g.cartID = ""
	g.lines = make(map[string]string)
}

// Fetch retrieves the authoritative cart. It returns nil, nil when the
// session has no cart yet, and an empty snapshot when the remote cart is gone.
func (g *CartGateway) Fetch(ctx context.Context) (*entity.CartSnapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cartID == "" {
		return nil, nil
	}
	cart, err := g.api.RetrieveCart(ctx, g.cartID)
	if err != nil {
		return nil, fmt.Errorf("retrieve cart: %w", err)
	}
	if cart == nil {
		g.reset()
		return &entity.CartSnapshot{Items: []entity.LineItem{}, UpdatedAt: time.Now()}, nil
	}
	return g.accept(cart), nil
}

// AddItem adds quantity of a variant, creating the remote cart on first use
func (g *CartGateway) AddItem(ctx context.Context, variantID string, quantity int) (*entity.CartSnapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	cartID, err := g.ensureCart(ctx)
	if err != nil {
		return nil, err
	}
	cart, err := g.api.AddLineItem(ctx, cartID, variantID, quantity)
	if errors.Is(err, repository.ErrCartNotFound) {
		// the stored session points at a cart that is gone; start a new one
		g.reset()
		if cartID, err = g.ensureCart(ctx); err != nil {
			return nil, err
		}
		cart, err = g.api.AddLineItem(ctx, cartID, variantID, quantity)
	}
	if err != nil {
		return nil, fmt.Errorf("add line item: %w", err)
	}
	return g.accept(cart), nil
}

// UpdateItem sets the quantity of the line holding variantID
func (g *CartGateway) UpdateItem(ctx context.Context, variantID string, quantity int) (*entity.CartSnapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	lineID, err := g.lineFor(ctx, variantID)
	if err != nil {
		return nil, err
	}
	cart, err := g.api.UpdateLineItem(ctx, g.cartID, lineID, quantity)
	if err != nil {
		return nil, g.mutationError("update line item", err)
	}
	return g.accept(cart), nil
}

// RemoveItem deletes the line holding variantID
func (g *CartGateway) RemoveItem(ctx context.Context, variantID string) (*entity.CartSnapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	lineID, err := g.lineFor(ctx, variantID)
	if err != nil {
		return nil, err
	}
	cart, err := g.api.DeleteLineItem(ctx, g.cartID, lineID)
	if err != nil {
		return nil, g.mutationError("delete line item", err)
	}
	return g.accept(cart), nil
}

// Update pushes checkout details onto the remote cart
func (g *CartGateway) Update(ctx context.Context, update entity.CartUpdate) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cartID == "" {
		return ErrNoCart
	}
	cart, err := g.api.UpdateCart(ctx, g.cartID, update)
	if err != nil {
		return g.mutationError("update cart", err)
	}
	g.accept(cart)
	return nil
}

// ShippingOptions lists the shipping methods available for the cart
func (g *CartGateway) ShippingOptions(ctx context.Context) ([]entity.ShippingMethod, error) {
	cartID := g.CartID()
	if cartID == "" {
		return nil, ErrNoCart
	}
	options, err := g.api.ListShippingOptions(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("list shipping options: %w", err)
	}
	return options, nil
}

// SelectShipping attaches a shipping option to the cart
func (g *CartGateway) SelectShipping(ctx context.Context, optionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cartID == "" {
		return ErrNoCart
	}
	cart, err := g.api.AddShippingMethod(ctx, g.cartID, optionID)
	if err != nil {
		return g.mutationError("add shipping method", err)
	}
	g.accept(cart)
	return nil
}

// Complete turns the cart into an order and clears the session on success
func (g *CartGateway) Complete(ctx context.Context) (*entity.CompletedOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cartID == "" {
		return nil, ErrNoCart
	}
	order, err := g.api.CompleteCart(ctx, g.cartID)
	if err != nil {
		return nil, fmt.Errorf("complete cart: %w", err)
	}
	g.reset()
	return order, nil
}

func (g *CartGateway) ensureCart(ctx context.Context) (string, error) {
	if g.cartID != "" {
		return g.cartID, nil
	}
	cart, err := g.api.CreateCart(ctx, g.regionID)
	if err != nil {
		return "", fmt.Errorf("create cart: %w", err)
	}
	g.accept(cart)
	return g.cartID, nil
}

// lineFor resolves the remote line id, refreshing the mapping once if it is unknown
func (g *CartGateway) lineFor(ctx context.Context, variantID string) (string, error) {
	if g.cartID == "" {
		return "", ErrNoCart
	}
	if id, ok := g.lines[variantID]; ok {
		return id, nil
	}
	cart, err := g.api.RetrieveCart(ctx, g.cartID)
	if err != nil {
		return "", fmt.Errorf("retrieve cart: %w", err)
	}
	if cart == nil {
		g.reset()
		return "", repository.ErrCartNotFound
	}
	g.accept(cart)
	id, ok := g.lines[variantID]
	if !ok {
		return "", fmt.Errorf("variant %s: %w", variantID, ErrLineNotFound)
	}
	return id, nil
}

func (g *CartGateway) mutationError(op string, err error) error {
	if errors.Is(err, repository.ErrCartNotFound) {
		g.reset()
	}
	return fmt.Errorf("%s: %w", op, err)
}

// accept records the cart id and line mapping and returns the normalised snapshot
func (g *CartGateway) accept(cart *entity.RemoteCart) *entity.CartSnapshot {
	g.cartID = cart.ID
	g.lines = make(map[string]string, len(cart.Items))
	for _, it := range cart.Items {
		g.lines[it.VariantID] = it.ID
	}
	return &entity.CartSnapshot{
		Items:     Normalize(cart),
		CartID:    cart.ID,
		UpdatedAt: time.Now(),
	}
}

// Normalize converts a remote cart into local line items
func Normalize(cart *entity.RemoteCart) []entity.LineItem {
	items := make([]entity.LineItem, 0, len(cart.Items))
	currency := strings.ToUpper(cart.Currency)
	for _, r := range cart.Items {
		mrp := r.CompareAtUnitPrice
		if mrp < r.UnitPrice {
			mrp = r.UnitPrice
		}
		maxQty := 0
		if r.ManageInventory && !r.AllowBackorder {
			maxQty = max(r.InventoryQuantity, 0)
		}
		items = append(items, entity.LineItem{
			ID:          r.ID,
			ProductID:   r.ProductID,
			VariantID:   r.VariantID,
			Title:       r.Title,
			Thumbnail:   r.Thumbnail,
			UnitPrice:   r.UnitPrice,
			MRP:         mrp,
			Currency:    currency,
			Quantity:    r.Quantity,
			MaxQuantity: maxQty,
			InStock:     !r.ManageInventory || r.AllowBackorder || r.InventoryQuantity > 0,
		})
	}
	return items
}
