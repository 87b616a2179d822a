package entity

// LineItem is one product variant held in the local cart.
// Prices are stored in currency minor units (paise/cents).
type LineItem struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	VariantID   string `json:"variant_id"`
	Title       string `json:"title"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	UnitPrice   int64  `json:"unit_price"`
	MRP         int64  `json:"mrp"`
	Currency    string `json:"currency"`
	Quantity    int    `json:"quantity"`
	MaxQuantity int    `json:"max_quantity,omitempty"` // 0 means unbounded
	InStock     bool   `json:"in_stock"`
}

// SameVariant reports whether two line items refer to the same product variant
func (l LineItem) SameVariant(other LineItem) bool {
	return l.ProductID == other.ProductID && l.VariantID == other.VariantID
}

// LineTotal returns unit price times quantity
func (l LineItem) LineTotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// CloneLineItems returns a copy of the slice so callers cannot alias store state
func CloneLineItems(items []LineItem) []LineItem {
	if items == nil {
		return []LineItem{}
	}
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}
