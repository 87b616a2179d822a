package response

import (
	"time"

	"github.com/sangkips/storefront-api/internal/domain/entity"
	"github.com/sangkips/storefront-api/internal/domain/enum"
	"github.com/sangkips/storefront-api/pkg/money"
)

// Amounts are sent to clients as decimals in major units

// LineItemResponse is one cart line
type LineItemResponse struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"product_id"`
	VariantID   string  `json:"variant_id"`
	Title       string  `json:"title"`
	Thumbnail   string  `json:"thumbnail,omitempty"`
	UnitPrice   float64 `json:"unit_price"`
	MRP         float64 `json:"mrp"`
	Currency    string  `json:"currency"`
	Quantity    int     `json:"quantity"`
	MaxQuantity int     `json:"max_quantity,omitempty"`
	InStock     bool    `json:"in_stock"`
	LineTotal   float64 `json:"line_total"`
}

// SummaryResponse is an order summary
type SummaryResponse struct {
	Subtotal        float64 `json:"subtotal"`
	MRPTotal        float64 `json:"mrp_total"`
	TotalSavings    float64 `json:"total_savings"`
	CouponDiscount  float64 `json:"coupon_discount"`
	CouponValid     bool    `json:"coupon_valid"`
	GiftCardApplied float64 `json:"gift_card_applied"`
	PrepaidDiscount float64 `json:"prepaid_discount"`
	ShippingFee     float64 `json:"shipping_fee"`
	CODFee          float64 `json:"cod_fee"`
	TaxAmount       float64 `json:"tax_amount"`
	GrandTotal      float64 `json:"grand_total"`
	Currency        string  `json:"currency"`
	ItemCount       int     `json:"item_count"`
}

// CartResponse is the cart with its summary
type CartResponse struct {
	Items     []LineItemResponse `json:"items"`
	CartID    string             `json:"cart_id,omitempty"`
	Syncing   bool               `json:"syncing"`
	Summary   SummaryResponse    `json:"summary"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// CouponResponse is an active coupon
type CouponResponse struct {
	Code          string  `json:"code"`
	Description   string  `json:"description"`
	DiscountType  string  `json:"discount_type"`
	DiscountValue float64 `json:"discount_value"`
	MaxDiscount   float64 `json:"max_discount,omitempty"`
	MinOrderValue float64 `json:"min_order_value,omitempty"`
}

// AppliedCouponResponse is the coupon applied to the session
type AppliedCouponResponse struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Discount    float64 `json:"discount"`
}

// GiftCardResponse is a validated gift card
type GiftCardResponse struct {
	Code     string  `json:"code"`
	Balance  float64 `json:"balance"`
	Currency string  `json:"currency"`
}

// WishlistItemResponse is a saved product
type WishlistItemResponse struct {
	ProductID string    `json:"product_id"`
	Title     string    `json:"title,omitempty"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	Price     float64   `json:"price"`
	Currency  string    `json:"currency,omitempty"`
	AddedAt   time.Time `json:"added_at"`
}

// WishlistResponse is the session's wishlist
type WishlistResponse struct {
	Items   []WishlistItemResponse `json:"items"`
	Count   int                    `json:"count"`
	Syncing bool                   `json:"syncing"`
}

// CheckoutConfigResponse is the COD and prepaid configuration
type CheckoutConfigResponse struct {
	CODEnabled           bool    `json:"cod_enabled"`
	CODFee               float64 `json:"cod_fee"`
	PrepaidEnabled       bool    `json:"prepaid_discount_enabled"`
	PrepaidPercentage    int64   `json:"prepaid_discount_percentage"`
	PrepaidMaxDiscount   float64 `json:"prepaid_discount_max,omitempty"`
	PrepaidMinOrderValue float64 `json:"prepaid_discount_min_order_value,omitempty"`
}

// NewLineItemResponse converts a line item
func NewLineItemResponse(item entity.LineItem) LineItemResponse {
	return LineItemResponse{
		ID:          item.ID,
		ProductID:   item.ProductID,
		VariantID:   item.VariantID,
		Title:       item.Title,
		Thumbnail:   item.Thumbnail,
		UnitPrice:   money.Float(item.UnitPrice),
		MRP:         money.Float(item.MRP),
		Currency:    item.Currency,
		Quantity:    item.Quantity,
		MaxQuantity: item.MaxQuantity,
		InStock:     item.InStock,
		LineTotal:   money.Float(item.LineTotal()),
	}
}

// NewSummaryResponse converts an order summary
func NewSummaryResponse(s entity.OrderSummary) SummaryResponse {
	return SummaryResponse{
		Subtotal:        money.Float(s.Subtotal),
		MRPTotal:        money.Float(s.MRPTotal),
		TotalSavings:    money.Float(s.TotalSavings),
		CouponDiscount:  money.Float(s.CouponDiscount),
		CouponValid:     s.CouponValid,
		GiftCardApplied: money.Float(s.GiftCardApplied),
		PrepaidDiscount: money.Float(s.PrepaidDiscount),
		ShippingFee:     money.Float(s.ShippingFee),
		CODFee:          money.Float(s.CODFee),
		TaxAmount:       money.Float(s.TaxAmount),
		GrandTotal:      money.Float(s.GrandTotal),
		Currency:        s.Currency,
		ItemCount:       s.ItemCount,
	}
}

// NewCartResponse builds the cart payload
func NewCartResponse(snap entity.CartSnapshot, summary entity.OrderSummary, syncing bool) CartResponse {
	items := make([]LineItemResponse, 0, len(snap.Items))
	for _, it := range snap.Items {
		items = append(items, NewLineItemResponse(it))
	}
	return CartResponse{
		Items:     items,
		CartID:    snap.CartID,
		Syncing:   syncing,
		Summary:   NewSummaryResponse(summary),
		UpdatedAt: snap.UpdatedAt,
	}
}

// NewCouponResponses converts active coupons. Percentage values stay whole numbers.
func NewCouponResponses(coupons []entity.Coupon) []CouponResponse {
	out := make([]CouponResponse, 0, len(coupons))
	for _, c := range coupons {
		value := money.Float(c.DiscountValue)
		if c.DiscountType == enum.DiscountTypePercentage {
			value = float64(c.DiscountValue)
		}
		out = append(out, CouponResponse{
			Code:          c.Code,
			Description:   c.Description,
			DiscountType:  c.DiscountType.String(),
			DiscountValue: value,
			MaxDiscount:   money.Float(c.MaxDiscount),
			MinOrderValue: money.Float(c.MinOrderValue),
		})
	}
	return out
}

// NewAppliedCouponResponse returns nil when no coupon is applied
func NewAppliedCouponResponse(c *entity.AppliedCoupon) *AppliedCouponResponse {
	if c == nil {
		return nil
	}
	return &AppliedCouponResponse{Code: c.Code, Description: c.Description, Discount: money.Float(c.Discount)}
}

// NewGiftCardResponse returns nil when no gift card is applied
func NewGiftCardResponse(g *entity.GiftCardBalance) *GiftCardResponse {
	if g == nil {
		return nil
	}
	return &GiftCardResponse{Code: g.Code, Balance: money.Float(g.Balance), Currency: g.Currency}
}

// NewWishlistResponse builds the wishlist payload
func NewWishlistResponse(items []entity.WishlistItem, syncing bool) WishlistResponse {
	out := make([]WishlistItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, WishlistItemResponse{
			ProductID: it.ProductID,
			Title:     it.Title,
			Thumbnail: it.Thumbnail,
			Price:     money.Float(it.Price),
			Currency:  it.Currency,
			AddedAt:   it.AddedAt,
		})
	}
	return WishlistResponse{Items: out, Count: len(out), Syncing: syncing}
}

// NewCheckoutConfigResponse converts the checkout configuration
func NewCheckoutConfigResponse(cfg entity.CheckoutConfig) CheckoutConfigResponse {
	return CheckoutConfigResponse{
		CODEnabled:           cfg.COD.Enabled,
		CODFee:               money.Float(cfg.COD.Fee),
		PrepaidEnabled:       cfg.Prepaid.Enabled,
		PrepaidPercentage:    cfg.Prepaid.Percentage,
		PrepaidMaxDiscount:   money.Float(cfg.Prepaid.MaxDiscount),
		PrepaidMinOrderValue: money.Float(cfg.Prepaid.MinOrderValue),
	}
}
