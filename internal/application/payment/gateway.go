package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ErrDismissed is returned by a gateway when the shopper closes the payment
// window or never completes it
var ErrDismissed = errors.New("payment dismissed")

// RazorpayOptions is what the browser needs to open the Razorpay modal
type RazorpayOptions struct {
	KeyID    string `json:"key_id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// RazorpayResponse is the modal's success handler payload
type RazorpayResponse struct {
	PaymentID string `json:"razorpay_payment_id"`
	OrderID   string `json:"razorpay_order_id"`
	Signature string `json:"razorpay_signature"`
}

// RazorpayCheckout opens the Razorpay modal and waits for its handler.
// A dismissed modal returns ErrDismissed.
type RazorpayCheckout interface {
	Open(ctx context.Context, opts RazorpayOptions) (*RazorpayResponse, error)
}

// StripeOptions is what the browser needs to confirm a payment intent
type StripeOptions struct {
	PublishableKey  string `json:"publishable_key,omitempty"`
	ClientSecret    string `json:"client_secret"`
	PaymentIntentID string `json:"payment_intent_id"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
}

// StripeConfirmation is reported once the intent is confirmed client-side
type StripeConfirmation struct {
	PaymentIntentID string `json:"payment_intent_id"`
}

// StripeConfirmer confirms a payment intent with the Stripe client SDK
type StripeConfirmer interface {
	Confirm(ctx context.Context, opts StripeOptions) (*StripeConfirmation, error)
}

// VerifyRazorpaySignature checks HMAC-SHA256(order_id|payment_id) against the signature
func VerifyRazorpaySignature(secret string, resp RazorpayResponse) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(resp.OrderID + "|" + resp.PaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(resp.Signature))
}
