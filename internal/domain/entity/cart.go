package entity

import "time"

// RemoteCart is the authoritative cart returned by the commerce platform
type RemoteCart struct {
	ID       string           `json:"id"`
	RegionID string           `json:"region_id"`
	Currency string           `json:"currency_code"`
	Email    string           `json:"email,omitempty"`
	Items    []RemoteLineItem `json:"items"`
}

// RemoteLineItem is a line item as reported by the commerce platform
type RemoteLineItem struct {
	ID                 string `json:"id"`
	VariantID          string `json:"variant_id"`
	ProductID          string `json:"product_id"`
	Title              string `json:"title"`
	Thumbnail          string `json:"thumbnail,omitempty"`
	Quantity           int    `json:"quantity"`
	UnitPrice          int64  `json:"unit_price"`
	CompareAtUnitPrice int64  `json:"compare_at_unit_price,omitempty"`
	InventoryQuantity  int    `json:"inventory_quantity"`
	ManageInventory    bool   `json:"manage_inventory"`
	AllowBackorder     bool   `json:"allow_backorder"`
}

// CartUpdate carries the checkout fields pushed onto the remote cart
type CartUpdate struct {
	Email           string   `json:"email,omitempty"`
	ShippingAddress *Address `json:"shipping_address,omitempty"`
	BillingAddress  *Address `json:"billing_address,omitempty"`
}

// CompletedOrder is returned when the remote cart is turned into an order
type CompletedOrder struct {
	ID        string `json:"id"`
	DisplayID string `json:"display_id"`
}

// CartSnapshot is the persisted client state for a cart
type CartSnapshot struct {
	Items     []LineItem `json:"items"`
	CartID    string     `json:"cart_id,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// UIFlags are the minor persisted interface preferences
type UIFlags struct {
	AnnouncementDismissed bool `json:"announcement_dismissed"`
	SidebarCollapsed      bool `json:"sidebar_collapsed"`
}
