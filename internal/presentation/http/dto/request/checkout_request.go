package request

import (
	"strings"

	"github.com/sangkips/storefront-api/internal/application/payment"
	"github.com/sangkips/storefront-api/internal/domain/entity"
	"github.com/sangkips/storefront-api/internal/domain/enum"
)

// ContactRequest is the contact step form. Required fields are checked by the
// checkout service so that every missing field is reported at once.
type ContactRequest struct {
	Email    string `json:"email" binding:"omitempty,email,max=255"`
	Phone    string `json:"phone" binding:"max=32"`
	FullName string `json:"full_name" binding:"max=255"`
}

// ToEntity converts the request into contact info
func (r ContactRequest) ToEntity() entity.ContactInfo {
	return entity.ContactInfo{
		Email:    strings.TrimSpace(r.Email),
		Phone:    strings.TrimSpace(r.Phone),
		FullName: strings.TrimSpace(r.FullName),
	}
}

// AddressFields is a postal address
type AddressFields struct {
	FullName   string `json:"full_name" binding:"max=255"`
	Line1      string `json:"line1" binding:"max=255"`
	Line2      string `json:"line2" binding:"max=255"`
	City       string `json:"city" binding:"max=100"`
	State      string `json:"state" binding:"max=100"`
	PostalCode string `json:"postal_code" binding:"max=20"`
	Country    string `json:"country" binding:"max=2"`
	Phone      string `json:"phone" binding:"max=32"`
}

// ToEntity converts the fields into an address
func (a AddressFields) ToEntity() entity.Address {
	return entity.Address{
		FullName:   strings.TrimSpace(a.FullName),
		Line1:      strings.TrimSpace(a.Line1),
		Line2:      strings.TrimSpace(a.Line2),
		City:       strings.TrimSpace(a.City),
		State:      strings.TrimSpace(a.State),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.ToUpper(strings.TrimSpace(a.Country)),
		Phone:      strings.TrimSpace(a.Phone),
	}
}

// AddressRequest is the address step form; billing defaults to the shipping address
type AddressRequest struct {
	AddressFields
	Billing *AddressFields `json:"billing_address"`
}

// BillingEntity returns nil when no separate billing address was sent
func (r AddressRequest) BillingEntity() *entity.Address {
	if r.Billing == nil {
		return nil
	}
	b := r.Billing.ToEntity()
	return &b
}

// ShippingRequest selects a shipping option
type ShippingRequest struct {
	OptionID string `json:"option_id" binding:"required,max=255"`
}

// GoToRequest jumps to a checkout step by name
type GoToRequest struct {
	Step string `json:"step" binding:"required"`
}

// PaymentMethodRequest selects "online" or "cod"
type PaymentMethodRequest struct {
	Method enum.PaymentMethod `json:"method"`
}

// RazorpayCallbackRequest is the Razorpay modal's success payload
type RazorpayCallbackRequest struct {
	PaymentID string `json:"razorpay_payment_id" binding:"required"`
	OrderID   string `json:"razorpay_order_id" binding:"required"`
	Signature string `json:"razorpay_signature"`
}

// ToResponse converts the request for the attempt registry
func (r RazorpayCallbackRequest) ToResponse() payment.RazorpayResponse {
	return payment.RazorpayResponse{PaymentID: r.PaymentID, OrderID: r.OrderID, Signature: r.Signature}
}

// StripeCallbackRequest reports a client-side confirmed payment intent
type StripeCallbackRequest struct {
	PaymentIntentID string `json:"payment_intent_id" binding:"required"`
}

// ToConfirmation converts the request for the attempt registry
func (r StripeCallbackRequest) ToConfirmation() payment.StripeConfirmation {
	return payment.StripeConfirmation{PaymentIntentID: r.PaymentIntentID}
}
