package entity

import "time"

// WishlistItem is a saved product
type WishlistItem struct {
	ProductID string    `json:"product_id"`
	Title     string    `json:"title,omitempty"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	Price     int64     `json:"price"`
	Currency  string    `json:"currency,omitempty"`
	AddedAt   time.Time `json:"added_at"`
}

// WishlistSnapshot is the persisted client state for a wishlist
type WishlistSnapshot struct {
	Items     []WishlistItem `json:"items"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// CloneWishlistItems returns a copy of the slice
func CloneWishlistItems(items []WishlistItem) []WishlistItem {
	if items == nil {
		return []WishlistItem{}
	}
	out := make([]WishlistItem, len(items))
	copy(out, items)
	return out
}
