package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/storefront-api/internal/domain/enum"
	"gorm.io/gorm"
)

// PaymentResult is the normalised outcome of every payment path
type PaymentResult struct {
	Success     bool   `json:"success"`
	OrderID     string `json:"order_id,omitempty"`
	OrderNumber string `json:"order_number,omitempty"`
	Error       string `json:"error,omitempty"`
	Cancelled   bool   `json:"cancelled,omitempty"`
	// CartID is the cart the payment was verified for
	CartID      string `json:"-"`
}

// CreatePaymentRequest asks the backend to open a gateway order or intent
type CreatePaymentRequest struct {
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	OrderID       string `json:"orderId"`
	CustomerEmail string `json:"customerEmail,omitempty"`
	CustomerName  string `json:"customerName,omitempty"`
	CustomerPhone string `json:"customerPhone,omitempty"`
}

// CreatePaymentResponse is the gateway order (Razorpay) or intent (Stripe)
type CreatePaymentResponse struct {
	PaymentOrderID string `json:"paymentOrderId"`
	ClientSecret   string `json:"clientSecret,omitempty"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	KeyID          string `json:"keyId,omitempty"`
}

// VerifyPaymentRequest asks the backend to verify a payment and materialise the order.
// IdempotencyKey is sent as a header and equals the gateway payment/intent id.
type VerifyPaymentRequest struct {
	Provider          enum.PaymentProvider `json:"provider"`
	RazorpayOrderID   string               `json:"razorpay_order_id,omitempty"`
	RazorpayPaymentID string               `json:"razorpay_payment_id,omitempty"`
	RazorpaySignature string               `json:"razorpay_signature,omitempty"`
	PaymentIntentID   string               `json:"payment_intent_id,omitempty"`
	CartID            string               `json:"medusaCartId"`
	IdempotencyKey    string               `json:"-"`
}

// GatewayPaymentID returns the id the verification is idempotent on
func (r VerifyPaymentRequest) GatewayPaymentID() string {
	switch r.Provider {
	case enum.PaymentProviderRazorpay:
		return r.RazorpayPaymentID
	case enum.PaymentProviderStripe:
		return r.PaymentIntentID
	default:
		return r.CartID
	}
}

// VerifyPaymentResponse is the backend's verification result
type VerifyPaymentResponse struct {
	Success     bool   `json:"success"`
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	Error       string `json:"error,omitempty"`
}

// PendingVerification marks a payment that was confirmed at the gateway but
// not yet verified by the backend
type PendingVerification struct {
	ID               uuid.UUID            `gorm:"type:uuid;primary_key" json:"id"`
	SessionID        uuid.UUID            `gorm:"type:uuid;not null;index" json:"session_id"`
	Provider         enum.PaymentProvider `gorm:"type:varchar(20);not null;uniqueIndex:idx_pending_provider_payment" json:"provider"`
	GatewayPaymentID string               `gorm:"size:255;not null;uniqueIndex:idx_pending_provider_payment" json:"gateway_payment_id"`
	CartID           string               `gorm:"size:255;not null" json:"cart_id"`
	Payload          string               `gorm:"type:text" json:"-"` // JSON VerifyPaymentRequest
	Attempts         int                  `gorm:"default:0" json:"attempts"`
	LastError        string               `gorm:"type:text" json:"last_error,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a pending verification
func (p *PendingVerification) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for PendingVerification
func (PendingVerification) TableName() string {
	return "pending_verifications"
}

// PaymentVerification caches a successful verification so that repeating it
// for the same gateway payment returns the same order
type PaymentVerification struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Provider         string    `gorm:"size:20;not null;uniqueIndex:idx_verification_provider_payment" json:"provider"`
	GatewayPaymentID string    `gorm:"size:255;not null;uniqueIndex:idx_verification_provider_payment" json:"gateway_payment_id"`
	CartID           string    `gorm:"size:255" json:"cart_id"`
	OrderID          string    `gorm:"size:255;not null" json:"order_id"`
	OrderNumber      string    `gorm:"size:100" json:"order_number"`
	CreatedAt        time.Time `json:"created_at"`
}

// BeforeCreate generates a UUID before creating a payment verification
func (v *PaymentVerification) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for PaymentVerification
func (PaymentVerification) TableName() string {
	return "payment_verifications"
}

// Result converts the cached verification into a payment result
func (v *PaymentVerification) Result() PaymentResult {
	return PaymentResult{Success: true, OrderID: v.OrderID, OrderNumber: v.OrderNumber, CartID: v.CartID}
}
