package medusa

import (
	"strings"

	"github.com/sangkips/storefront-api/internal/domain/entity"
	"github.com/sangkips/storefront-api/pkg/money"
	"github.com/shopspring/decimal"
)

// Wire types for the Medusa v2 store API. Amounts are decimals in major units.

type cartEnvelope struct {
	Cart medusaCart `json:"cart"`
}

type deleteEnvelope struct {
	Deleted bool       `json:"deleted"`
	Parent  medusaCart `json:"parent"`
}

type medusaCart struct {
	ID           string           `json:"id"`
	RegionID     string           `json:"region_id"`
	CurrencyCode string           `json:"currency_code"`
	Email        string           `json:"email"`
	CompletedAt  *string          `json:"completed_at"`
	Items        []medusaLineItem `json:"items"`
}

type medusaLineItem struct {
	ID                 string              `json:"id"`
	Title              string              `json:"title"`
	Thumbnail          string              `json:"thumbnail"`
	Quantity           int                 `json:"quantity"`
	UnitPrice          decimal.Decimal     `json:"unit_price"`
	CompareAtUnitPrice decimal.NullDecimal `json:"compare_at_unit_price"`
	VariantID          string              `json:"variant_id"`
	ProductID          string              `json:"product_id"`
	Variant            *medusaVariant      `json:"variant"`
}

type medusaVariant struct {
	InventoryQuantity int  `json:"inventory_quantity"`
	ManageInventory   bool `json:"manage_inventory"`
	AllowBackorder    bool `json:"allow_backorder"`
}

type medusaAddress struct {
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Address1    string `json:"address_1,omitempty"`
	Address2    string `json:"address_2,omitempty"`
	City        string `json:"city,omitempty"`
	Province    string `json:"province,omitempty"`
	PostalCode  string `json:"postal_code,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

type updateCartRequest struct {
	Email           string         `json:"email,omitempty"`
	ShippingAddress *medusaAddress `json:"shipping_address,omitempty"`
	BillingAddress  *medusaAddress `json:"billing_address,omitempty"`
}

type shippingOptionsEnvelope struct {
	ShippingOptions []medusaShippingOption `json:"shipping_options"`
}

type medusaShippingOption struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
	Metadata struct {
		FreeShippingThreshold decimal.NullDecimal `json:"free_shipping_threshold"`
	} `json:"metadata"`
}

type completeEnvelope struct {
	Type  string `json:"type"`
	Order *struct {
		ID        string `json:"id"`
		DisplayID int64  `json:"display_id"`
	} `json:"order"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c medusaCart) toEntity() *entity.RemoteCart {
	cart := &entity.RemoteCart{
		ID:       c.ID,
		RegionID: c.RegionID,
		Currency: strings.ToUpper(c.CurrencyCode),
		Email:    c.Email,
		Items:    make([]entity.RemoteLineItem, 0, len(c.Items)),
	}
	for _, it := range c.Items {
		li := entity.RemoteLineItem{
			ID:        it.ID,
			VariantID: it.VariantID,
			ProductID: it.ProductID,
			Title:     it.Title,
			Thumbnail: it.Thumbnail,
			Quantity:  it.Quantity,
			UnitPrice: money.ToMinor(it.UnitPrice),
		}
		if it.CompareAtUnitPrice.Valid {
			li.CompareAtUnitPrice = money.ToMinor(it.CompareAtUnitPrice.Decimal)
		}
		if it.Variant != nil {
			li.InventoryQuantity = it.Variant.InventoryQuantity
			li.ManageInventory = it.Variant.ManageInventory
			li.AllowBackorder = it.Variant.AllowBackorder
		}
		cart.Items = append(cart.Items, li)
	}
	return cart
}

func toMedusaAddress(a *entity.Address) *medusaAddress {
	if a == nil {
		return nil
	}
	first, last := splitName(a.FullName)
	return &medusaAddress{
		FirstName:   first,
		LastName:    last,
		Address1:    a.Line1,
		Address2:    a.Line2,
		City:        a.City,
		Province:    a.State,
		PostalCode:  a.PostalCode,
		CountryCode: strings.ToLower(a.Country),
		Phone:       a.Phone,
	}
}

func splitName(full string) (string, string) {
	full = strings.TrimSpace(full)
	if i := strings.LastIndex(full, " "); i > 0 {
		return full[:i], full[i+1:]
	}
	return full, ""
}
