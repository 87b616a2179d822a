// Package storefront is a client for the storefront backend's REST route
// handlers: wishlist persistence, promotions, checkout configuration and
// payment orchestration.
package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sangkips/storefront-api/internal/domain/entity"
	"github.com/sangkips/storefront-api/internal/domain/enum"
	"github.com/sangkips/storefront-api/internal/domain/repository"
	"github.com/sangkips/storefront-api/internal/infrastructure/httpclient"
	"github.com/sangkips/storefront-api/pkg/money"
	"github.com/shopspring/decimal"
)

const sessionHeader = "X-Session-ID"

// Client implements the wishlist, promotion and payment APIs
type Client struct {
	http *httpclient.Client
}

// NewClient creates a new storefront backend client
func NewClient(hc *httpclient.Client) *Client {
	return &Client{http: hc}
}

var (
	_ repository.WishlistAPI  = (*Client)(nil)
	_ repository.PromotionAPI = (*Client)(nil)
	_ repository.PaymentAPI   = (*Client)(nil)
)

// Wishlist

type wishlistItem struct {
	ProductID string          `json:"product_id"`
	Title     string          `json:"title"`
	Thumbnail string          `json:"thumbnail"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	AddedAt   time.Time       `json:"created_at"`
}

func (c *Client) List(ctx context.Context, sessionID string) ([]entity.WishlistItem, error) {
	var out struct {
		Items []wishlistItem `json:"items"`
	}
	if err := c.http.Do(ctx, http.MethodGet, "/wishlist", nil, &out, session(sessionID)); err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}

	items := make([]entity.WishlistItem, 0, len(out.Items))
	for _, it := range out.Items {
		items = append(items, entity.WishlistItem{
			ProductID: it.ProductID,
			Title:     it.Title,
			Thumbnail: it.Thumbnail,
			Price:     money.ToMinor(it.Price),
			Currency:  strings.ToUpper(it.Currency),
			AddedAt:   it.AddedAt,
		})
	}
	return items, nil
}

func (c *Client) Add(ctx context.Context, sessionID, productID string) error {
	body := map[string]string{"product_id": productID}
	if err := c.http.Do(ctx, http.MethodPost, "/wishlist", body, nil, session(sessionID)); err != nil {
		return fmt.Errorf("add to wishlist: %w", err)
	}
	return nil
}

func (c *Client) Remove(ctx context.Context, sessionID, productID string) error {
	path := "/wishlist/" + url.PathEscape(productID)
	err := c.http.Do(ctx, http.MethodDelete, path, nil, nil, session(sessionID))
	if err != nil && !httpclient.IsStatus(err, http.StatusNotFound) {
		return fmt.Errorf("remove from wishlist: %w", err)
	}
	return nil
}

// Promotions

type coupon struct {
	Code          string              `json:"code"`
	Description   string              `json:"description"`
	DiscountType  enum.DiscountType   `json:"discount_type"`
	DiscountValue decimal.Decimal     `json:"discount_value"`
	MaxDiscount   decimal.NullDecimal `json:"max_discount"`
	MinOrderValue decimal.NullDecimal `json:"min_order_value"`
}

func (c *Client) ActiveCoupons(ctx context.Context) ([]entity.Coupon, error) {
	var out struct {
		Coupons []coupon `json:"coupons"`
	}
	if err := c.http.Do(ctx, http.MethodGet, "/coupons/active", nil, &out); err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}

	coupons := make([]entity.Coupon, 0, len(out.Coupons))
	for _, cp := range out.Coupons {
		value := money.ToMinor(cp.DiscountValue)
		if cp.DiscountType == enum.DiscountTypePercentage {
			value = cp.DiscountValue.Round(0).IntPart()
		}
		coupons = append(coupons, entity.Coupon{
			Code:          strings.ToUpper(cp.Code),
			Description:   cp.Description,
			DiscountType:  cp.DiscountType,
			DiscountValue: value,
			MaxDiscount:   nullMinor(cp.MaxDiscount),
			MinOrderValue: nullMinor(cp.MinOrderValue),
		})
	}
	return coupons, nil
}

func (c *Client) ValidateGiftCard(ctx context.Context, code string) (*entity.GiftCardBalance, error) {
	var out struct {
		Valid    bool            `json:"valid"`
		Code     string          `json:"code"`
		Balance  decimal.Decimal `json:"balance"`
		Currency string          `json:"currency"`
	}
	body := map[string]string{"code": code}
	err := c.http.Do(ctx, http.MethodPost, "/gift-cards/validate", body, &out)
	if httpclient.IsStatus(err, http.StatusNotFound) {
		return nil, repository.ErrGiftCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("validate gift card: %w", err)
	}
	if !out.Valid {
		return nil, repository.ErrGiftCardNotFound
	}
	if out.Code == "" {
		out.Code = code
	}
	return &entity.GiftCardBalance{
		Code:     strings.ToUpper(out.Code),
		Balance:  money.ToMinor(out.Balance),
		Currency: strings.ToUpper(out.Currency),
	}, nil
}

func (c *Client) CODConfig(ctx context.Context) (*entity.CODConfig, error) {
	var out struct {
		Enabled bool            `json:"enabled"`
		Fee     decimal.Decimal `json:"fee"`
	}
	if err := c.http.Do(ctx, http.MethodGet, "/config/cod", nil, &out); err != nil {
		return nil, fmt.Errorf("fetch cod config: %w", err)
	}
	return &entity.CODConfig{Enabled: out.Enabled, Fee: money.ToMinor(out.Fee)}, nil
}

func (c *Client) PrepaidDiscountConfig(ctx context.Context) (*entity.PrepaidDiscountConfig, error) {
	var out struct {
		Enabled       bool                `json:"enabled"`
		Percentage    decimal.Decimal     `json:"percentage"`
		MaxDiscount   decimal.NullDecimal `json:"max_discount"`
		MinOrderValue decimal.NullDecimal `json:"min_order_value"`
	}
	if err := c.http.Do(ctx, http.MethodGet, "/config/prepaid-discount", nil, &out); err != nil {
		return nil, fmt.Errorf("fetch prepaid discount config: %w", err)
	}
	return &entity.PrepaidDiscountConfig{
		Enabled:       out.Enabled,
		Percentage:    out.Percentage.Round(0).IntPart(),
		MaxDiscount:   nullMinor(out.MaxDiscount),
		MinOrderValue: nullMinor(out.MinOrderValue),
	}, nil
}

// Payments

func (c *Client) CreatePayment(ctx context.Context, req entity.CreatePaymentRequest) (*entity.CreatePaymentResponse, error) {
	var out entity.CreatePaymentResponse
	if err := c.http.Do(ctx, http.MethodPost, "/payments/create", req, &out); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	if out.PaymentOrderID == "" {
		return nil, errors.New("create payment: empty payment order id")
	}
	return &out, nil
}

// VerifyPayment returns a failed response, not an error, when the backend
// definitively rejects the payment with a 4xx answer
func (c *Client) VerifyPayment(ctx context.Context, req entity.VerifyPaymentRequest) (*entity.VerifyPaymentResponse, error) {
	var headers map[string]string
	if req.IdempotencyKey != "" {
		headers = map[string]string{"Idempotency-Key": req.IdempotencyKey}
	}

	var out entity.VerifyPaymentResponse
	err := c.http.Do(ctx, http.MethodPost, "/payments/verify", req, &out, headers)
	if err == nil {
		return &out, nil
	}

	var se *httpclient.StatusError
	if errors.As(err, &se) && definitive(se.Code) {
		resp := &entity.VerifyPaymentResponse{}
		if jerr := json.Unmarshal([]byte(se.Body), resp); jerr != nil || resp.Error == "" {
			resp.Error = "Payment verification failed"
		}
		resp.Success = false
		return resp, nil
	}
	return nil, fmt.Errorf("verify payment: %w", err)
}

func definitive(code int) bool {
	return code >= 400 && code < 500 &&
		code != http.StatusRequestTimeout &&
		code != http.StatusConflict &&
		code != http.StatusTooManyRequests
}

func nullMinor(d decimal.NullDecimal) int64 {
	if !d.Valid {
		return 0
	}
	return money.ToMinor(d.Decimal)
}

func session(id string) map[string]string {
	return map[string]string{sessionHeader: id}
}
