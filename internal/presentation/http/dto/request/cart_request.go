package request

import (
	"strings"

	"github.com/sangkips/storefront-api/internal/domain/entity"
	"github.com/sangkips/storefront-api/pkg/money"
	"github.com/shopspring/decimal"
)

// AddCartItemRequest adds one unit of a variant. Prices are major-unit decimals.
type AddCartItemRequest struct {
	ProductID   string              `json:"product_id" binding:"required,max=255"`
	VariantID   string              `json:"variant_id" binding:"required,max=255"`
	Title       string              `json:"title" binding:"max=255"`
	Thumbnail   string              `json:"thumbnail" binding:"omitempty,max=1024"`
	UnitPrice   decimal.Decimal     `json:"unit_price"`
	MRP         decimal.NullDecimal `json:"mrp"`
	Currency    string              `json:"currency" binding:"omitempty,len=3"`
	MaxQuantity int                 `json:"max_quantity" binding:"min=0"`
	InStock     *bool               `json:"in_stock"`
}

// ToEntity converts the request into a line item; stock defaults to available
func (r AddCartItemRequest) ToEntity() entity.LineItem {
	item := entity.LineItem{
		ProductID:   r.ProductID,
		VariantID:   r.VariantID,
		Title:       r.Title,
		Thumbnail:   r.Thumbnail,
		UnitPrice:   money.ToMinor(r.UnitPrice),
		Currency:    strings.ToUpper(r.Currency),
		MaxQuantity: r.MaxQuantity,
		InStock:     r.InStock == nil || *r.InStock,
	}
	if r.MRP.Valid {
		item.MRP = money.ToMinor(r.MRP.Decimal)
	}
	return item
}

// UpdateCartItemRequest sets a line's quantity; 0 removes the line
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required,min=0"`
}

// CodeRequest carries a coupon or gift card code
type CodeRequest struct {
	Code string `json:"code" binding:"required,max=64"`
}

// WishlistItemRequest saves a product
type WishlistItemRequest struct {
	ProductID string          `json:"product_id" binding:"required,max=255"`
	Title     string          `json:"title" binding:"max=255"`
	Thumbnail string          `json:"thumbnail" binding:"omitempty,max=1024"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency" binding:"omitempty,len=3"`
}

// ToEntity converts the request into a wishlist item
func (r WishlistItemRequest) ToEntity() entity.WishlistItem {
	return entity.WishlistItem{
		ProductID: r.ProductID,
		Title:     r.Title,
		Thumbnail: r.Thumbnail,
		Price:     money.ToMinor(r.Price),
		Currency:  strings.ToUpper(r.Currency),
	}
}

// UIFlagsRequest updates interface preferences; omitted flags are left alone
type UIFlagsRequest struct {
	AnnouncementDismissed *bool `json:"announcement_dismissed"`
	SidebarCollapsed      *bool `json:"sidebar_collapsed"`
}
