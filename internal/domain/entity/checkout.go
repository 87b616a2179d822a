package entity

import (
	"strings"

	"github.com/sangkips/storefront-api/internal/domain/enum"
)

// ContactInfo is collected on the contact step
type ContactInfo struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	FullName string `json:"full_name"`
}

// MissingFields lists required contact fields that are blank
func (c ContactInfo) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(c.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(c.Phone) == "" {
		missing = append(missing, "phone")
	}
	if strings.TrimSpace(c.FullName) == "" {
		missing = append(missing, "full_name")
	}
	return missing
}

// Address is a shipping address
type Address struct {
	FullName   string `json:"full_name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// MissingFields lists required address fields that are blank
func (a Address) MissingFields() []string {
	required := []struct {
		name  string
		value string
	}{
		{"full_name", a.FullName},
		{"line1", a.Line1},
		{"city", a.City},
		{"state", a.State},
		{"postal_code", a.PostalCode},
		{"country", a.Country},
	}
	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.name)
		}
	}
	return missing
}

// ShippingMethod is a shipping option offered for the cart
type ShippingMethod struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	Price                 int64  `json:"price"`
	IsFree                bool   `json:"is_free"`
	FreeShippingThreshold int64  `json:"free_shipping_threshold,omitempty"`
}

// CheckoutStep is one entry of the checkout progress indicator
type CheckoutStep struct {
	ID     enum.CheckoutStepID `json:"id"`
	Label  string              `json:"label"`
	Status enum.StepStatus     `json:"status"`
}
