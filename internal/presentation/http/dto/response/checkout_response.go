package response

import (
	"github.com/google/uuid"
	"github.com/sangkips/storefront-api/internal/application/service"
	"github.com/sangkips/storefront-api/internal/domain/entity"
	"github.com/sangkips/storefront-api/internal/domain/enum"
	"github.com/sangkips/storefront-api/pkg/money"
)

// ShippingMethodResponse is a shipping option
type ShippingMethodResponse struct {
	ID                    string  `json:"id"`
	Name                  string  `json:"name"`
	Price                 float64 `json:"price"`
	IsFree                bool    `json:"is_free"`
	FreeShippingThreshold float64 `json:"free_shipping_threshold,omitempty"`
}

// CheckoutResponse is the checkout progress and selections
type CheckoutResponse struct {
	CurrentStep    enum.CheckoutStepID     `json:"current_step"`
	Steps          []entity.CheckoutStep   `json:"steps"`
	Contact        *entity.ContactInfo     `json:"contact,omitempty"`
	Address        *entity.Address         `json:"address,omitempty"`
	ShippingMethod *ShippingMethodResponse `json:"shipping_method,omitempty"`
	PaymentMethod  enum.PaymentMethod      `json:"payment_method"`
	Coupon         *AppliedCouponResponse  `json:"coupon,omitempty"`
	GiftCard       *GiftCardResponse       `json:"gift_card,omitempty"`
	AttemptID      *uuid.UUID              `json:"attempt_id,omitempty"`
}

// NewShippingMethodResponse converts a shipping option
func NewShippingMethodResponse(m entity.ShippingMethod) ShippingMethodResponse {
	return ShippingMethodResponse{
		ID:                    m.ID,
		Name:                  m.Name,
		Price:                 money.Float(m.Price),
		IsFree:                m.IsFree || m.Price == 0,
		FreeShippingThreshold: money.Float(m.FreeShippingThreshold),
	}
}

// NewShippingMethodResponses converts shipping options
func NewShippingMethodResponses(methods []entity.ShippingMethod) []ShippingMethodResponse {
	out := make([]ShippingMethodResponse, 0, len(methods))
	for _, m := range methods {
		out = append(out, NewShippingMethodResponse(m))
	}
	return out
}

// NewCheckoutResponse converts the checkout view
func NewCheckoutResponse(v service.CheckoutView) CheckoutResponse {
	r := CheckoutResponse{
		CurrentStep:   v.Current,
		Steps:         v.Steps,
		Contact:       v.Contact,
		Address:       v.Address,
		PaymentMethod: v.PaymentMethod,
		Coupon:        NewAppliedCouponResponse(v.Coupon),
		GiftCard:      NewGiftCardResponse(v.GiftCard),
		AttemptID:     v.AttemptID,
	}
	if v.Shipping != nil {
		m := NewShippingMethodResponse(*v.Shipping)
		r.ShippingMethod = &m
	}
	return r
}
