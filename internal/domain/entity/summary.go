package entity

// OrderSummary is derived from line items and checkout selections. It is
// never stored on its own.
type OrderSummary struct {
	Subtotal        int64  `json:"subtotal"`
	MRPTotal        int64  `json:"mrp_total"`
	TotalSavings    int64  `json:"total_savings"`
	CouponDiscount  int64  `json:"coupon_discount"`
	CouponValid     bool   `json:"coupon_valid"`
	GiftCardApplied int64  `json:"gift_card_applied"`
	PrepaidDiscount int64  `json:"prepaid_discount"`
	ShippingFee     int64  `json:"shipping_fee"`
	CODFee          int64  `json:"cod_fee"`
	TaxAmount       int64  `json:"tax_amount"`
	GrandTotal      int64  `json:"grand_total"`
	Currency        string `json:"currency"`
	ItemCount       int    `json:"item_count"`
}
