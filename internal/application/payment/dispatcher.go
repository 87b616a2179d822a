// Package payment routes a finalised order total to cash on delivery,
// Razorpay or Stripe and normalises the outcome.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/storefront-api/internal/domain/entity"
	"github.com/sangkips/storefront-api/internal/domain/enum"
	"github.com/sangkips/storefront-api/internal/domain/repository"
	"go.uber.org/zap"
)

// Request is a finalised order ready to be paid
type Request struct {
	SessionID uuid.UUID
	CartID    string
	Method    enum.PaymentMethod
	Amount    int64
	Currency  string
	Contact   entity.ContactInfo
}

// Config holds gateway credentials
type Config struct {
	RazorpayKeyID        string
	RazorpayKeySecret    string
	StripePublishableKey string
}

// Dispatcher runs the payment flows
type Dispatcher struct {
	api      repository.PaymentAPI
	razorpay RazorpayCheckout
	stripe   StripeConfirmer
	pending  repository.PendingVerificationRepository
	verified repository.PaymentVerificationRepository
	cfg      Config
	logger   *zap.Logger
}

// NewDispatcher creates a new payment dispatcher
func NewDispatcher(
	api repository.PaymentAPI,
	razorpay RazorpayCheckout,
	stripe StripeConfirmer,
	pending repository.PendingVerificationRepository,
	verified repository.PaymentVerificationRepository,
	cfg Config,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		api:      api,
		razorpay: razorpay,
		stripe:   stripe,
		pending:  pending,
		verified: verified,
		cfg:      cfg,
		logger:   logger,
	}
}

// Dispatch pays for the order. Every outcome, including a dismissed
// gateway window, is reported through the returned result.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) entity.PaymentResult {
	log := d.logger.With(
		zap.String("session_id", req.SessionID.String()),
		zap.String("cart_id", req.CartID),
		zap.String("method", req.Method.String()),
	)

	if req.CartID == "" {
		return failure("Cart is empty")
	}

	var res entity.PaymentResult
	switch {
	case req.Method == enum.PaymentMethodCOD:
		res = d.verify(ctx, req.SessionID, entity.VerifyPaymentRequest{
			Provider: enum.PaymentProviderCOD,
			CartID:   req.CartID,
		})
	case strings.EqualFold(req.Currency, "INR"):
		res = d.payRazorpay(ctx, req)
	default:
		res = d.payStripe(ctx, req)
	}

	switch {
	case res.Success:
		log.Info("payment completed", zap.String("order_id", res.OrderID))
	case res.Cancelled:
		log.Info("payment cancelled by shopper")
	default:
		log.Warn("payment failed", zap.String("error", res.Error))
	}
	return res
}

func (d *Dispatcher) payRazorpay(ctx context.Context, req Request) entity.PaymentResult {
	order, err := d.api.CreatePayment(ctx, createRequest(req))
	if err != nil {
		d.logger.Error("create razorpay order failed", zap.Error(err))
		return failure("Could not start payment, please try again")
	}

	keyID := order.KeyID
	if keyID == "" {
		keyID = d.cfg.RazorpayKeyID
	}
	resp, err := d.razorpay.Open(ctx, RazorpayOptions{
		KeyID:    keyID,
		OrderID:  order.PaymentOrderID,
		Amount:   order.Amount,
		Currency: order.Currency,
		Name:     req.Contact.FullName,
		Email:    req.Contact.Email,
		Phone:    req.Contact.Phone,
	})
	if errors.Is(err, ErrDismissed) {
		return cancelled()
	}
	if err != nil {
		return failure(err.Error())
	}

	// the signature and the verify call are bound to the order this server created
	if resp.OrderID != "" && resp.OrderID != order.PaymentOrderID {
		d.logger.Warn("razorpay callback for another order",
			zap.String("expected", order.PaymentOrderID),
			zap.String("got", resp.OrderID),
			zap.String("payment_id", resp.PaymentID))
		return failure("Payment does not belong to this order")
	}
	signed := RazorpayResponse{PaymentID: resp.PaymentID, OrderID: order.PaymentOrderID, Signature: resp.Signature}
	if d.cfg.RazorpayKeySecret != "" && !VerifyRazorpaySignature(d.cfg.RazorpayKeySecret, signed) {
		d.logger.Warn("razorpay signature mismatch", zap.String("payment_id", resp.PaymentID))
		return failure("Payment signature could not be verified")
	}

	return d.verify(ctx, req.SessionID, entity.VerifyPaymentRequest{
		Provider:          enum.PaymentProviderRazorpay,
		RazorpayOrderID:   order.PaymentOrderID,
		RazorpayPaymentID: resp.PaymentID,
		RazorpaySignature: resp.Signature,
		CartID:            req.CartID,
	})
}

func (d *Dispatcher) payStripe(ctx context.Context, req Request) entity.PaymentResult {
	intent, err := d.api.CreatePayment(ctx, createRequest(req))
	if err != nil {
		d.logger.Error("create payment intent failed", zap.Error(err))
		return failure("Could not start payment, please try again")
	}

	conf, err := d.stripe.Confirm(ctx, StripeOptions{
		PublishableKey:  d.cfg.StripePublishableKey,
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.PaymentOrderID,
		Amount:          intent.Amount,
		Currency:        intent.Currency,
	})
	if errors.Is(err, ErrDismissed) {
		return cancelled()
	}
	if err != nil {
		return failure(err.Error())
	}

	if conf.PaymentIntentID != "" && conf.PaymentIntentID != intent.PaymentOrderID {
		d.logger.Warn("stripe confirmation for another intent",
			zap.String("expected", intent.PaymentOrderID),
			zap.String("got", conf.PaymentIntentID))
		return failure("Payment does not belong to this order")
	}
	return d.verify(ctx, req.SessionID, entity.VerifyPaymentRequest{
		Provider:        enum.PaymentProviderStripe,
		PaymentIntentID: intent.PaymentOrderID,
		CartID:          req.CartID,
	})
}

// verify asks the backend to verify the payment and materialise the order.
// A pending marker is stored first so a crash before the answer can be resumed.
func (d *Dispatcher) verify(ctx context.Context, sessionID uuid.UUID, req entity.VerifyPaymentRequest) entity.PaymentResult {
	paymentID := req.GatewayPaymentID()
	req.IdempotencyKey = paymentID
	log := d.logger.With(
		zap.String("provider", req.Provider.String()),
		zap.String("payment_id", paymentID),
	)

	cached, err := d.verified.Get(ctx, req.Provider.String(), paymentID)
	if err != nil {
		log.Warn("verification cache lookup failed", zap.Error(err))
	}
	if cached != nil {
		if cached.CartID != req.CartID {
			log.Warn("payment already used for another cart",
				zap.String("cart_id", req.CartID),
				zap.String("paid_cart_id", cached.CartID))
			return failure("Payment has already been used for another order")
		}
		return cached.Result()
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return failure(fmt.Sprintf("encode verification: %v", err))
	}
	marker := &entity.PendingVerification{
		SessionID:        sessionID,
		Provider:         req.Provider,
		GatewayPaymentID: paymentID,
		CartID:           req.CartID,
		Payload:          string(payload),
	}
	if err := d.pending.Upsert(ctx, marker); err != nil {
		// the gateway already has the money; keep going and rely on the backend's idempotency
		log.Error("persist pending verification failed", zap.Error(err))
	}

	resp, err := d.api.VerifyPayment(ctx, req)
	if err != nil {
		log.Error("payment verification failed", zap.Error(err))
		if marker.ID != uuid.Nil {
			if rerr := d.pending.RecordFailure(ctx, marker.ID, err.Error()); rerr != nil {
				log.Warn("record verification failure", zap.Error(rerr))
			}
		}
		return failure("Payment received but order confirmation is pending. It will be retried automatically.")
	}

	if !resp.Success {
		d.clearMarker(ctx, marker, log)
		msg := resp.Error
		if msg == "" {
			msg = "Payment verification failed"
		}
		return failure(msg)
	}

	if err := d.verified.Create(ctx, &entity.PaymentVerification{
		Provider:         req.Provider.String(),
		GatewayPaymentID: paymentID,
		CartID:           req.CartID,
		OrderID:          resp.OrderID,
		OrderNumber:      resp.OrderNumber,
	}); err != nil {
		log.Warn("cache verification failed", zap.Error(err))
	}
	d.clearMarker(ctx, marker, log)

	return entity.PaymentResult{Success: true, OrderID: resp.OrderID, OrderNumber: resp.OrderNumber, CartID: req.CartID}
}

func (d *Dispatcher) clearMarker(ctx context.Context, marker *entity.PendingVerification, log *zap.Logger) {
	if marker.ID == uuid.Nil {
		return
	}
	if err := d.pending.Delete(ctx, marker.ID); err != nil {
		log.Warn("delete pending verification failed", zap.Error(err))
	}
}

// Pending lists the verifications the session still has outstanding
func (d *Dispatcher) Pending(ctx context.Context, sessionID uuid.UUID) ([]entity.PendingVerification, error) {
	markers, err := d.pending.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list pending verifications: %w", err)
	}
	return markers, nil
}

// Resume re-runs verification for every marker left behind by the session
func (d *Dispatcher) Resume(ctx context.Context, sessionID uuid.UUID) ([]entity.PaymentResult, error) {
	markers, err := d.pending.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list pending verifications: %w", err)
	}
	return d.resume(ctx, markers), nil
}

// ResumeAll re-runs verification for up to limit markers across all sessions
func (d *Dispatcher) ResumeAll(ctx context.Context, limit int) (int, error) {
	markers, err := d.pending.ListAll(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list pending verifications: %w", err)
	}
	results := d.resume(ctx, markers)
	done := 0
	for _, r := range results {
		if r.Success {
			done++
		}
	}
	if len(markers) > 0 {
		d.logger.Info("resumed pending verifications", zap.Int("pending", len(markers)), zap.Int("completed", done))
	}
	return done, nil
}

func (d *Dispatcher) resume(ctx context.Context, markers []entity.PendingVerification) []entity.PaymentResult {
	results := make([]entity.PaymentResult, 0, len(markers))
	for _, m := range markers {
		var req entity.VerifyPaymentRequest
		if err := json.Unmarshal([]byte(m.Payload), &req); err != nil {
			d.logger.Error("corrupt pending verification", zap.String("id", m.ID.String()), zap.Error(err))
			continue
		}
		results = append(results, d.verify(ctx, m.SessionID, req))
	}
	return results
}

func createRequest(req Request) entity.CreatePaymentRequest {
	return entity.CreatePaymentRequest{
		Amount:        req.Amount,
		Currency:      strings.ToUpper(req.Currency),
		OrderID:       req.CartID,
		CustomerEmail: req.Contact.Email,
		CustomerName:  req.Contact.FullName,
		CustomerPhone: req.Contact.Phone,
	}
}

func failure(msg string) entity.PaymentResult {
	return entity.PaymentResult{Success: false, Error: msg}
}

func cancelled() entity.PaymentResult {
	return entity.PaymentResult{Success: false, Cancelled: true, Error: "Payment cancelled"}
}
