// Package pricing derives order summaries from line items and checkout
// selections. Every function is pure; callers recompute on each change.
package pricing

import (
	"github.com/sangkips/storefront-api/internal/domain/entity"
	"github.com/sangkips/storefront-api/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// DefaultTaxRate is Indian GST
var DefaultTaxRate = decimal.NewFromFloat(0.18)

var hundred = decimal.NewFromInt(100)

// Input is everything the checkout summary depends on
type Input struct {
	Items         []entity.LineItem
	Coupon        *entity.AppliedCoupon
	GiftCard      *entity.GiftCardBalance
	Shipping      *entity.ShippingMethod
	PaymentMethod enum.PaymentMethod
	COD           entity.CODConfig
	Prepaid       entity.PrepaidDiscountConfig
	// TaxRate is optional; nil means the store default. Zero is a valid rate.
	TaxRate       *decimal.Decimal
	Currency      string
}

// Calculator carries the store-wide defaults
type Calculator struct {
	taxRate  decimal.Decimal
	currency string
}

// NewCalculator creates a new calculator; a negative rate falls back to DefaultTaxRate
func NewCalculator(taxRate float64, defaultCurrency string) *Calculator {
	rate := decimal.NewFromFloat(taxRate)
	if rate.IsNegative() {
		rate = DefaultTaxRate
	}
	return &Calculator{taxRate: rate, currency: defaultCurrency}
}

// Currency returns the default currency
func (c *Calculator) Currency() string {
	return c.currency
}

// CartSummary is the cart page summary: no shipping, COD, prepaid, tax or gift card yet
func (c *Calculator) CartSummary(items []entity.LineItem, coupon *entity.AppliedCoupon) entity.OrderSummary {
	return CartSummary(items, coupon, c.currency)
}

// CheckoutSummary fills in the configured tax rate and currency when the input leaves them unset
func (c *Calculator) CheckoutSummary(in Input) entity.OrderSummary {
	if in.TaxRate == nil {
		rate := c.taxRate
		in.TaxRate = &rate
	}
	if in.Currency == "" {
		in.Currency = c.currency
	}
	return CheckoutSummary(in)
}

// CartSummary computes the phase one summary
func CartSummary(items []entity.LineItem, coupon *entity.AppliedCoupon, currency string) entity.OrderSummary {
	s := lineTotals(items, currency)
	s.CouponDiscount, s.CouponValid = couponDiscount(coupon, s.Subtotal)
	s.GrandTotal = max(0, s.Subtotal-s.CouponDiscount)
	return s
}

// CheckoutSummary computes the full summary once shipping and payment are known
func CheckoutSummary(in Input) entity.OrderSummary {
	s := lineTotals(in.Items, in.Currency)
	s.CouponDiscount, s.CouponValid = couponDiscount(in.Coupon, s.Subtotal)
	s.ShippingFee = ShippingFee(in.Shipping, s.Subtotal)

	cod := in.PaymentMethod == enum.PaymentMethodCOD
	if cod && in.COD.Enabled {
		s.CODFee = in.COD.Fee
	}
	s.PrepaidDiscount = PrepaidDiscount(in.Prepaid, s.Subtotal, cod)

	rate := DefaultTaxRate
	if in.TaxRate != nil {
		rate = *in.TaxRate
	}
	taxable := s.Subtotal + s.ShippingFee + s.CODFee - s.PrepaidDiscount
	s.TaxAmount = roundMinor(decimal.NewFromInt(taxable).Mul(rate))

	preGiftCard := max(0, s.Subtotal-s.CouponDiscount+s.ShippingFee+s.CODFee-s.PrepaidDiscount+s.TaxAmount)
	if in.GiftCard != nil {
		s.GiftCardApplied = GiftCardApplied(in.GiftCard.Balance, preGiftCard)
	}

	s.GrandTotal = max(0, preGiftCard-s.GiftCardApplied)
	return s
}

func lineTotals(items []entity.LineItem, currency string) entity.OrderSummary {
	s := entity.OrderSummary{Currency: currency}
	for _, item := range items {
		qty := int64(item.Quantity)
		mrp := item.MRP
		if mrp == 0 {
			mrp = item.UnitPrice
		}
		s.Subtotal += item.UnitPrice * qty
		s.MRPTotal += mrp * qty
		s.TotalSavings += (mrp - item.UnitPrice) * qty
		s.ItemCount += item.Quantity
		if s.Currency == "" {
			s.Currency = item.Currency
		}
	}
	return s
}

func couponDiscount(coupon *entity.AppliedCoupon, subtotal int64) (int64, bool) {
	if coupon == nil {
		return 0, false
	}
	return CouponDiscount(coupon.Rule, subtotal)
}

// CouponDiscount evaluates a coupon rule against a subtotal. The second
// return is false when the subtotal is below the coupon's minimum order value.
func CouponDiscount(rule entity.Coupon, subtotal int64) (int64, bool) {
	if rule.MinOrderValue > 0 && subtotal < rule.MinOrderValue {
		return 0, false
	}
	switch rule.DiscountType {
	case enum.DiscountTypePercentage:
		return percentOf(subtotal, rule.DiscountValue, rule.MaxDiscount), true
	default:
		return max(0, rule.DiscountValue), true
	}
}

// ShippingFee returns the method price unless the method is free or the subtotal meets its threshold
func ShippingFee(method *entity.ShippingMethod, subtotal int64) int64 {
	if method == nil || method.IsFree {
		return 0
	}
	if method.FreeShippingThreshold > 0 && subtotal >= method.FreeShippingThreshold {
		return 0
	}
	return method.Price
}

// PrepaidDiscount is always zero for cash on delivery
func PrepaidDiscount(cfg entity.PrepaidDiscountConfig, subtotal int64, cod bool) int64 {
	if cod || !cfg.Enabled || subtotal < cfg.MinOrderValue {
		return 0
	}
	return percentOf(subtotal, cfg.Percentage, cfg.MaxDiscount)
}

// GiftCardApplied caps the balance at the order total so the total never goes negative
func GiftCardApplied(balance, total int64) int64 {
	return max(0, min(balance, total))
}

// percentOf returns round(amount * pct / 100), capped at limit when limit > 0
func percentOf(amount, pct, limit int64) int64 {
	v := roundMinor(decimal.NewFromInt(amount).Mul(decimal.NewFromInt(pct)).Div(hundred))
	if limit > 0 && v > limit {
		return limit
	}
	return v
}

// roundMinor rounds half away from zero to whole minor units
func roundMinor(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}
