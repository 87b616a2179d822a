package medusa

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sangkips/storefront-api/internal/domain/entity"
	"github.com/sangkips/storefront-api/internal/domain/repository"
	"github.com/sangkips/storefront-api/internal/infrastructure/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const cartJSON = `{"cart":{"id":"cart_1","region_id":"reg_in","currency_code":"inr","items":[
	{"id":"li_1","title":"Tee","quantity":2,"unit_price":499.5,"compare_at_unit_price":799,
	 "variant_id":"var_1","product_id":"prod_1",
	 "variant":{"inventory_quantity":3,"manage_inventory":true,"allow_backorder":false}}
]}}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	hc := httpclient.New(httpclient.Config{
		Name:    "medusa",
		BaseURL: srv.URL,
		Timeout: 2 * time.Second,
		Headers: map[string]string{"x-publishable-api-key": "pk_test"},
	}, zaptest.NewLogger(t))
	return NewClient(hc)
}

func TestClient_RetrieveCartDecodesAmounts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pk_test", r.Header.Get("x-publishable-api-key"))
		assert.Equal(t, "/store/carts/cart_1", r.URL.Path)
		assert.NotEmpty(t, r.URL.Query().Get("fields"))
		_, _ = w.Write([]byte(cartJSON))
	})

	cart, err := c.RetrieveCart(context.Background(), "cart_1")
	require.NoError(t, err)
	require.NotNil(t, cart)
	assert.Equal(t, "INR", cart.Currency)
	require.Len(t, cart.Items, 1)

	it := cart.Items[0]
	assert.Equal(t, int64(49950), it.UnitPrice)
	assert.Equal(t, int64(79900), it.CompareAtUnitPrice)
	assert.Equal(t, 3, it.InventoryQuantity)
	assert.True(t, it.ManageInventory)
	assert.Equal(t, 2, it.Quantity)
}

func TestClient_RetrieveMissingCart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
	})

	cart, err := c.RetrieveCart(context.Background(), "cart_gone")
	require.NoError(t, err)
	assert.Nil(t, cart)
}

func TestClient_RetrieveCompletedCart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"cart":{"id":"cart_1","completed_at":"2024-01-01T00:00:00Z","items":[]}}`))
	})

	cart, err := c.RetrieveCart(context.Background(), "cart_1")
	require.NoError(t, err)
	assert.Nil(t, cart)
}

func TestClient_MutationOnMissingCart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.AddLineItem(context.Background(), "cart_gone", "var_1", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, repository.ErrCartNotFound))
}

func TestClient_AddLineItemSendsBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/store/carts/cart_1/line-items", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "var_1", body["variant_id"])
		assert.Equal(t, float64(1), body["quantity"])
		_, _ = w.Write([]byte(cartJSON))
	})

	cart, err := c.AddLineItem(context.Background(), "cart_1", "var_1", 1)
	require.NoError(t, err)
	assert.Equal(t, "cart_1", cart.ID)
}

func TestClient_DeleteLineItemReturnsParent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		_, _ = w.Write([]byte(`{"deleted":true,"parent":{"id":"cart_1","currency_code":"inr","items":[]}}`))
	})

	cart, err := c.DeleteLineItem(context.Background(), "cart_1", "li_1")
	require.NoError(t, err)
	assert.Equal(t, "cart_1", cart.ID)
	assert.Empty(t, cart.Items)
}

func TestClient_UpdateCartSplitsName(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body updateCartRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.co", body.Email)
		require.NotNil(t, body.ShippingAddress)
		assert.Equal(t, "Asha Devi", body.ShippingAddress.FirstName)
		assert.Equal(t, "Rao", body.ShippingAddress.LastName)
		assert.Equal(t, "in", body.ShippingAddress.CountryCode)
		_, _ = w.Write([]byte(cartJSON))
	})

	_, err := c.UpdateCart(context.Background(), "cart_1", entity.CartUpdate{
		Email:           "a@b.co",
		ShippingAddress: &entity.Address{FullName: "Asha Devi Rao", Line1: "1 Main", City: "Pune", Country: "IN"},
	})
	require.NoError(t, err)
}

func TestClient_ListShippingOptions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "cart_1", r.URL.Query().Get("cart_id"))
		_, _ = w.Write([]byte(`{"shipping_options":[
			{"id":"so_std","name":"Standard","amount":49,"metadata":{"free_shipping_threshold":999}},
			{"id":"so_free","name":"Pickup","amount":0,"metadata":{}}
		]}`))
	})

	methods, err := c.ListShippingOptions(context.Background(), "cart_1")
	require.NoError(t, err)
	require.Len(t, methods, 2)
	assert.Equal(t, int64(4900), methods[0].Price)
	assert.Equal(t, int64(99900), methods[0].FreeShippingThreshold)
	assert.False(t, methods[0].IsFree)
	assert.True(t, methods[1].IsFree)
}

func TestClient_CompleteCart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"type":"order","order":{"id":"order_1","display_id":1042}}`))
	})

	order, err := c.CompleteCart(context.Background(), "cart_1")
	require.NoError(t, err)
	assert.Equal(t, "order_1", order.ID)
	assert.Equal(t, "1042", order.DisplayID)
}

func TestClient_CompleteCartNotAnOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"type":"cart","error":{"message":"payment not authorized"}}`))
	})

	_, err := c.CompleteCart(context.Background(), "cart_1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payment not authorized")
}

func TestClient_BreakerOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	hc := httpclient.New(httpclient.Config{
		Name:    "medusa",
		BaseURL: srv.URL,
		Breaker: httpclient.BreakerSettings{Timeout: time.Minute, FailureRatio: 0.5, MinRequests: 2},
	}, zaptest.NewLogger(t))
	c := NewClient(hc)
	ctx := context.Background()

	for range 2 {
		_, err := c.CreateCart(ctx, "reg_in")
		require.Error(t, err)
	}
	_, err := c.CreateCart(ctx, "reg_in")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "medusa unavailable")
	assert.Equal(t, int32(2), calls.Load())
}
