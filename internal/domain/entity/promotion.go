package entity

import (
	"strings"

	"github.com/sangkips/storefront-api/internal/domain/enum"
)

// Coupon is an active promotion rule. DiscountValue is a minor-unit amount
// for flat coupons and a whole percentage for percentage coupons.
type Coupon struct {
	Code          string            `json:"code"`
	Description   string            `json:"description"`
	DiscountType  enum.DiscountType `json:"discount_type"`
	DiscountValue int64             `json:"discount_value"`
	MaxDiscount   int64             `json:"max_discount,omitempty"`
	MinOrderValue int64             `json:"min_order_value,omitempty"`
}

// Matches compares coupon codes case-insensitively
func (c Coupon) Matches(code string) bool {
	return strings.EqualFold(strings.TrimSpace(code), c.Code)
}

// AppliedCoupon is a coupon the shopper has applied. Discount is the amount
// computed against the subtotal at the time it was last evaluated.
type AppliedCoupon struct {
	Code        string `json:"code"`
	Discount    int64  `json:"discount"`
	Description string `json:"description"`
	Rule        Coupon `json:"rule"`
}

// GiftCardBalance is a validated gift card
type GiftCardBalance struct {
	Code     string `json:"code"`
	Balance  int64  `json:"balance"`
	Applied  int64  `json:"applied"`
	Currency string `json:"currency"`
}

// CODConfig is the cash-on-delivery configuration
type CODConfig struct {
	Enabled bool  `json:"enabled"`
	Fee     int64 `json:"fee"`
}

// PrepaidDiscountConfig rewards paying online
type PrepaidDiscountConfig struct {
	Enabled       bool  `json:"enabled"`
	Percentage    int64 `json:"percentage"`
	MaxDiscount   int64 `json:"max_discount"`
	MinOrderValue int64 `json:"min_order_value"`
}

// CheckoutConfig bundles the promotional configuration fetched for checkout
type CheckoutConfig struct {
	COD     CODConfig             `json:"cod"`
	Prepaid PrepaidDiscountConfig `json:"prepaid_discount"`
}
