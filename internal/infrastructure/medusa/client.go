// Package medusa is a client for the Medusa v2 store API.
package medusa

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sangkips/storefront-api/internal/domain/entity"
	"github.com/sangkips/storefront-api/internal/domain/repository"
	"github.com/sangkips/storefront-api/internal/infrastructure/httpclient"
	"github.com/sangkips/storefront-api/pkg/money"
)

const cartFields = "*items,*items.variant,+items.variant.inventory_quantity,+items.compare_at_unit_price"

// Client implements repository.CartAPI
type Client struct {
	http *httpclient.Client
}

// NewClient creates a new Medusa store API client
func NewClient(hc *httpclient.Client) *Client {
	return &Client{http: hc}
}

var _ repository.CartAPI = (*Client)(nil)

func cartPath(cartID string, parts ...string) string {
	p := "/store/carts/" + url.PathEscape(cartID)
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

func withFields(path string) string {
	return path + "?fields=" + url.QueryEscape(cartFields)
}

func (c *Client) CreateCart(ctx context.Context, regionID string) (*entity.RemoteCart, error) {
	body := map[string]string{}
	if regionID != "" {
		body["region_id"] = regionID
	}
	var env cartEnvelope
	if err := c.http.Do(ctx, http.MethodPost, withFields("/store/carts"), body, &env); err != nil {
		return nil, err
	}
	return env.Cart.toEntity(), nil
}

func (c *Client) RetrieveCart(ctx context.Context, cartID string) (*entity.RemoteCart, error) {
	var env cartEnvelope
	err := c.http.Do(ctx, http.MethodGet, withFields(cartPath(cartID)), nil, &env)
	if httpclient.IsStatus(err, http.StatusNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if env.Cart.CompletedAt != nil {
		// a completed cart cannot be mutated; treat it as gone
		return nil, nil
	}
	return env.Cart.toEntity(), nil
}

func (c *Client) AddLineItem(ctx context.Context, cartID, variantID string, quantity int) (*entity.RemoteCart, error) {
	body := map[string]any{"variant_id": variantID, "quantity": quantity}
	return c.mutate(ctx, http.MethodPost, cartPath(cartID, "line-items"), body)
}

func (c *Client) UpdateLineItem(ctx context.Context, cartID, lineID string, quantity int) (*entity.RemoteCart, error) {
	body := map[string]any{"quantity": quantity}
	return c.mutate(ctx, http.MethodPost, cartPath(cartID, "line-items", lineID), body)
}

func (c *Client) DeleteLineItem(ctx context.Context, cartID, lineID string) (*entity.RemoteCart, error) {
	var env deleteEnvelope
	err := c.http.Do(ctx, http.MethodDelete, withFields(cartPath(cartID, "line-items", lineID)), nil, &env)
	if err != nil {
		return nil, mapCartError(err)
	}
	return env.Parent.toEntity(), nil
}

func (c *Client) UpdateCart(ctx context.Context, cartID string, update entity.CartUpdate) (*entity.RemoteCart, error) {
	body := updateCartRequest{
		Email:           update.Email,
		ShippingAddress: toMedusaAddress(update.ShippingAddress),
		BillingAddress:  toMedusaAddress(update.BillingAddress),
	}
	return c.mutate(ctx, http.MethodPost, cartPath(cartID), body)
}

func (c *Client) ListShippingOptions(ctx context.Context, cartID string) ([]entity.ShippingMethod, error) {
	var env shippingOptionsEnvelope
	path := "/store/shipping-options?cart_id=" + url.QueryEscape(cartID)
	if err := c.http.Do(ctx, http.MethodGet, path, nil, &env); err != nil {
		return nil, mapCartError(err)
	}

	methods := make([]entity.ShippingMethod, 0, len(env.ShippingOptions))
	for _, o := range env.ShippingOptions {
		m := entity.ShippingMethod{
			ID:    o.ID,
			Name:  o.Name,
			Price: money.ToMinor(o.Amount),
		}
		m.IsFree = m.Price == 0
		if o.Metadata.FreeShippingThreshold.Valid {
			m.FreeShippingThreshold = money.ToMinor(o.Metadata.FreeShippingThreshold.Decimal)
		}
		methods = append(methods, m)
	}
	return methods, nil
}

func (c *Client) AddShippingMethod(ctx context.Context, cartID, optionID string) (*entity.RemoteCart, error) {
	body := map[string]string{"option_id": optionID}
	return c.mutate(ctx, http.MethodPost, cartPath(cartID, "shipping-methods"), body)
}

func (c *Client) CompleteCart(ctx context.Context, cartID string) (*entity.CompletedOrder, error) {
	var env completeEnvelope
	if err := c.http.Do(ctx, http.MethodPost, cartPath(cartID, "complete"), nil, &env); err != nil {
		return nil, mapCartError(err)
	}
	if env.Type != "order" || env.Order == nil {
		msg := "cart could not be completed"
		if env.Error != nil && env.Error.Message != "" {
			msg = env.Error.Message
		}
		return nil, fmt.Errorf("complete cart %s: %s", cartID, msg)
	}
	return &entity.CompletedOrder{
		ID:        env.Order.ID,
		DisplayID: strconv.FormatInt(env.Order.DisplayID, 10),
	}, nil
}

func (c *Client) mutate(ctx context.Context, method, path string, body any) (*entity.RemoteCart, error) {
	var env cartEnvelope
	if err := c.http.Do(ctx, method, withFields(path), body, &env); err != nil {
		return nil, mapCartError(err)
	}
	return env.Cart.toEntity(), nil
}

func mapCartError(err error) error {
	if httpclient.IsStatus(err, http.StatusNotFound) {
		return fmt.Errorf("%w: %v", repository.ErrCartNotFound, err)
	}
	return err
}
