package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/storefront-api/internal/application/gateway"
	"github.com/sangkips/storefront-api/internal/application/payment"
	"github.com/sangkips/storefront-api/internal/application/pricing"
	"github.com/sangkips/storefront-api/internal/domain/entity"
	"github.com/sangkips/storefront-api/internal/domain/enum"
	"github.com/sangkips/storefront-api/pkg/apperror"
	"github.com/sangkips/storefront-api/pkg/email"
	"github.com/sangkips/storefront-api/pkg/money"
	"go.uber.org/zap"
)

// PaymentDispatcher runs payments and resumes interrupted verifications
type PaymentDispatcher interface {
	Dispatch(ctx context.Context, req payment.Request) entity.PaymentResult
	Resume(ctx context.Context, sessionID uuid.UUID) ([]entity.PaymentResult, error)
	Pending(ctx context.Context, sessionID uuid.UUID) ([]entity.PendingVerification, error)
}

// OrderMailer sends order confirmations
type OrderMailer interface {
	SendOrderConfirmation(toEmail string, order email.OrderConfirmation) error
}

// CheckoutView is the checkout state returned to clients
type CheckoutView struct {
	Current       enum.CheckoutStepID     `json:"current_step"`
	Steps         []entity.CheckoutStep   `json:"steps"`
	Contact       *entity.ContactInfo     `json:"contact,omitempty"`
	Address       *entity.Address         `json:"address,omitempty"`
	Shipping      *entity.ShippingMethod  `json:"shipping_method,omitempty"`
	PaymentMethod enum.PaymentMethod      `json:"payment_method"`
	Coupon        *entity.AppliedCoupon   `json:"coupon,omitempty"`
	GiftCard      *entity.GiftCardBalance `json:"gift_card,omitempty"`
	AttemptID     *uuid.UUID              `json:"attempt_id,omitempty"`
}

// CheckoutService drives the checkout steps and places orders
type CheckoutService struct {
	promos   *PromotionService
	calc     *pricing.Calculator
	payments PaymentDispatcher
	attempts *payment.AttemptRegistry
	mailer   OrderMailer
	logger   *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	promos *PromotionService,
	calc *pricing.Calculator,
	payments PaymentDispatcher,
	attempts *payment.AttemptRegistry,
	mailer OrderMailer,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		promos:   promos,
		calc:     calc,
		payments: payments,
		attempts: attempts,
		mailer:   mailer,
		logger:   logger,
	}
}

// View returns the session's checkout state
func (s *CheckoutService) View(sess *Session) CheckoutView {
	var v CheckoutView
	_ = sess.Checkout(func(st *CheckoutState) error {
		v = viewOf(st)
		return nil
	})
	return v
}

// SubmitContact records the contact details, pushes the email onto the
// remote cart and completes the contact step
func (s *CheckoutService) SubmitContact(ctx context.Context, sess *Session, info entity.ContactInfo) (CheckoutView, error) {
	info.Email = strings.TrimSpace(info.Email)
	if missing := info.MissingFields(); len(missing) > 0 {
		return CheckoutView{}, requiredFields(missing)
	}
	if err := s.requireStep(sess, enum.CheckoutStepContact); err != nil {
		return CheckoutView{}, err
	}
	if err := s.pushToCart(ctx, sess, entity.CartUpdate{Email: info.Email}); err != nil {
		return CheckoutView{}, err
	}

	return s.completeStep(sess, enum.CheckoutStepContact, func(st *CheckoutState) {
		st.Contact = &info
	})
}

// SubmitAddress records the shipping address; billing defaults to it
func (s *CheckoutService) SubmitAddress(ctx context.Context, sess *Session, addr entity.Address, billing *entity.Address) (CheckoutView, error) {
	if missing := addr.MissingFields(); len(missing) > 0 {
		return CheckoutView{}, requiredFields(missing)
	}
	if billing != nil {
		if missing := billing.MissingFields(); len(missing) > 0 {
			for i := range missing {
				missing[i] = "billing." + missing[i]
			}
			return CheckoutView{}, requiredFields(missing)
		}
	}
	if err := s.requireStep(sess, enum.CheckoutStepAddress); err != nil {
		return CheckoutView{}, err
	}

	if addr.Phone == "" {
		_ = sess.Checkout(func(st *CheckoutState) error {
			if st.Contact != nil {
				addr.Phone = st.Contact.Phone
			}
			return nil
		})
	}
	if billing == nil {
		billing = &addr
	}
	if err := s.pushToCart(ctx, sess, entity.CartUpdate{ShippingAddress: &addr, BillingAddress: billing}); err != nil {
		return CheckoutView{}, err
	}

	return s.completeStep(sess, enum.CheckoutStepAddress, func(st *CheckoutState) {
		st.Address = &addr
		// options depend on the address
		st.ShippingOptions = nil
		st.Shipping = nil
	})
}

// ShippingOptions lists the shipping methods for the session's cart
func (s *CheckoutService) ShippingOptions(ctx context.Context, sess *Session) ([]entity.ShippingMethod, error) {
	if err := sess.Cart.Flush(ctx); err != nil {
		return nil, err
	}
	options, err := sess.Gateway.ShippingOptions(ctx)
	if errors.Is(err, gateway.ErrNoCart) {
		return nil, apperror.NewBadRequestError("Your cart is empty")
	}
	if err != nil {
		s.logger.Warn("list shipping options failed", zap.String("session_id", sess.ID.String()), zap.Error(err))
		return nil, apperror.ErrUpstream
	}

	_ = sess.Checkout(func(st *CheckoutState) error {
		st.ShippingOptions = options
		return nil
	})
	return options, nil
}

// SelectShipping attaches the chosen option to the remote cart and completes the shipping step
func (s *CheckoutService) SelectShipping(ctx context.Context, sess *Session, optionID string) (CheckoutView, error) {
	if strings.TrimSpace(optionID) == "" {
		return CheckoutView{}, apperror.NewFieldError("option_id", "Shipping method is required")
	}
	if err := s.requireStep(sess, enum.CheckoutStepShipping); err != nil {
		return CheckoutView{}, err
	}

	var options []entity.ShippingMethod
	_ = sess.Checkout(func(st *CheckoutState) error {
		options = st.ShippingOptions
		return nil
	})
	if options == nil {
		var err error
		if options, err = s.ShippingOptions(ctx, sess); err != nil {
			return CheckoutView{}, err
		}
	}

	var method *entity.ShippingMethod
	for i := range options {
		if options[i].ID == optionID {
			method = &options[i]
			break
		}
	}
	if method == nil {
		return CheckoutView{}, apperror.NewFieldError("option_id", "Shipping method is not available for this cart")
	}

	if err := s.cartCall(ctx, sess, func(ctx context.Context) error {
		return sess.Gateway.SelectShipping(ctx, optionID)
	}); err != nil {
		return CheckoutView{}, err
	}

	selected := *method
	return s.completeStep(sess, enum.CheckoutStepShipping, func(st *CheckoutState) {
		st.Shipping = &selected
	})
}

// Back moves to the previous step
func (s *CheckoutService) Back(sess *Session) CheckoutView {
	var v CheckoutView
	_ = sess.Checkout(func(st *CheckoutState) error {
		st.Machine.Back()
		v = viewOf(st)
		return nil
	})
	return v
}

// GoTo jumps to a completed step or the current one
func (s *CheckoutService) GoTo(sess *Session, step enum.CheckoutStepID) (CheckoutView, error) {
	var v CheckoutView
	err := sess.Checkout(func(st *CheckoutState) error {
		if !st.Machine.GoTo(step) {
			return apperror.NewConflictError(fmt.Sprintf("The %s step is not available yet", step.Label()))
		}
		v = viewOf(st)
		return nil
	})
	return v, err
}

// SetPaymentMethod selects online payment or cash on delivery
func (s *CheckoutService) SetPaymentMethod(ctx context.Context, sess *Session, method enum.PaymentMethod) (CheckoutView, error) {
	if method == enum.PaymentMethodCOD {
		cfg, err := s.promos.CheckoutConfig(ctx)
		if err != nil {
			return CheckoutView{}, err
		}
		if !cfg.COD.Enabled {
			return CheckoutView{}, apperror.NewFieldError("method", "Cash on delivery is not available")
		}
	}

	var v CheckoutView
	_ = sess.Checkout(func(st *CheckoutState) error {
		st.PaymentMethod = method
		v = viewOf(st)
		return nil
	})
	return v, nil
}

// CartSummary is the cart page summary
func (s *CheckoutService) CartSummary(sess *Session) entity.OrderSummary {
	var coupon *entity.AppliedCoupon
	_ = sess.Checkout(func(st *CheckoutState) error {
		coupon = st.Coupon
		return nil
	})
	items := sess.Cart.Items()
	return pricing.CartSummary(items, coupon, cartCurrency(items, s.calc.Currency()))
}

// CheckoutSummary is the full summary with shipping, payment method and gift card applied
func (s *CheckoutService) CheckoutSummary(ctx context.Context, sess *Session) (entity.OrderSummary, error) {
	cfg, err := s.promos.CheckoutConfig(ctx)
	if err != nil {
		return entity.OrderSummary{}, err
	}
	items := sess.Cart.Items()

	var summary entity.OrderSummary
	_ = sess.Checkout(func(st *CheckoutState) error {
		summary = s.calc.CheckoutSummary(s.input(st, items, cfg))
		return nil
	})
	return summary, nil
}

// PlaceOrder starts a payment attempt for the finalised order. The caller
// polls the attempt for the gateway action and the result.
func (s *CheckoutService) PlaceOrder(ctx context.Context, sess *Session) (payment.Attempt, error) {
	if err := sess.Cart.Flush(ctx); err != nil {
		return payment.Attempt{}, err
	}
	items := sess.Cart.Items()
	if len(items) == 0 {
		return payment.Attempt{}, apperror.NewBadRequestError("Your cart is empty")
	}
	cartID := sess.Cart.CartID()
	if cartID == "" {
		return payment.Attempt{}, apperror.NewConflictError("Cart is not synced yet, please try again")
	}
	if err := s.ensureNoPendingPayment(ctx, sess, cartID); err != nil {
		return payment.Attempt{}, err
	}

	cfg, err := s.promos.CheckoutConfig(ctx)
	if err != nil {
		return payment.Attempt{}, err
	}

	var attempt payment.Attempt
	err = sess.Checkout(func(st *CheckoutState) error {
		var missing []apperror.FieldError
		if st.Contact == nil {
			missing = append(missing, apperror.FieldError{Field: "contact", Message: "Contact information is required"})
		}
		if st.Address == nil {
			missing = append(missing, apperror.FieldError{Field: "address", Message: "Shipping address is required"})
		}
		if st.Shipping == nil {
			missing = append(missing, apperror.FieldError{Field: "shipping_method", Message: "Shipping method is required"})
		}
		if len(missing) > 0 {
			return apperror.NewValidationError(missing)
		}
		if st.PaymentMethod == enum.PaymentMethodCOD && !cfg.COD.Enabled {
			return apperror.NewFieldError("payment_method", "Cash on delivery is not available")
		}
		if st.AttemptID != uuid.Nil {
			if prev, err := s.attempts.Get(sess.ID, st.AttemptID); err == nil && !prev.Status.Terminal() {
				return apperror.NewConflictError("A payment is already in progress")
			}
		}

		summary := s.calc.CheckoutSummary(s.input(st, items, cfg))
		contact := *st.Contact
		req := payment.Request{
			SessionID: sess.ID,
			CartID:    cartID,
			Method:    st.PaymentMethod,
			Amount:    summary.GrandTotal,
			Currency:  summary.Currency,
			Contact:   contact,
		}
		attempt = s.attempts.Start(sess.ID, func(ctx context.Context) entity.PaymentResult {
			res := s.payments.Dispatch(ctx, req)
			if res.Success {
				s.completeOrder(sess, res, contact, items, summary, req.Method)
			}
			return res
		})
		st.AttemptID = attempt.ID
		return nil
	})
	return attempt, err
}

// Resume re-runs verification for payments the session left unconfirmed
func (s *CheckoutService) Resume(ctx context.Context, sess *Session) ([]entity.PaymentResult, error) {
	results, err := s.payments.Resume(ctx, sess.ID)
	if err != nil {
		s.logger.Error("resume payments failed", zap.String("session_id", sess.ID.String()), zap.Error(err))
		return nil, apperror.ErrInternalServer
	}
	cartID := sess.Cart.CartID()
	for _, res := range results {
		// a late confirmation for an older cart must not wipe the current one
		if res.Success && cartID != "" && res.CartID == cartID {
			s.completeOrder(sess, res, entity.ContactInfo{}, nil, entity.OrderSummary{}, enum.PaymentMethodOnline)
			break
		}
	}
	return results, nil
}

// ensureNoPendingPayment refuses a new payment while an earlier one for the
// same cart is still awaiting backend confirmation
func (s *CheckoutService) ensureNoPendingPayment(ctx context.Context, sess *Session, cartID string) error {
	markers, err := s.payments.Pending(ctx, sess.ID)
	if err != nil {
		s.logger.Error("list pending payments failed", zap.String("session_id", sess.ID.String()), zap.Error(err))
		return apperror.ErrInternalServer
	}
	for _, m := range markers {
		if m.CartID == cartID {
			return apperror.NewConflictError("Payment is pending confirmation")
		}
	}
	return nil
}

// Attempt returns a payment attempt owned by the session
func (s *CheckoutService) Attempt(sess *Session, id uuid.UUID) (payment.Attempt, error) {
	a, err := s.attempts.Get(sess.ID, id)
	return a, attemptError(err)
}

// WaitAttempt long-polls the attempt until it leaves the pending state
func (s *CheckoutService) WaitAttempt(ctx context.Context, sess *Session, id uuid.UUID, timeout time.Duration) (payment.Attempt, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	a, err := s.attempts.Wait(ctx, sess.ID, id)
	return a, attemptError(err)
}

// ResolveRazorpay delivers the Razorpay checkout callback
func (s *CheckoutService) ResolveRazorpay(sess *Session, id uuid.UUID, resp payment.RazorpayResponse) error {
	if resp.PaymentID == "" || resp.OrderID == "" {
		return apperror.NewFieldError("razorpay_payment_id", "Payment id and order id are required")
	}
	return attemptError(s.attempts.ResolveRazorpay(sess.ID, id, resp))
}

// ResolveStripe delivers the Stripe confirmation
func (s *CheckoutService) ResolveStripe(sess *Session, id uuid.UUID, conf payment.StripeConfirmation) error {
	return attemptError(s.attempts.ResolveStripe(sess.ID, id, conf))
}

// Dismiss reports that the shopper closed the gateway window
func (s *CheckoutService) Dismiss(sess *Session, id uuid.UUID) error {
	return attemptError(s.attempts.Dismiss(sess.ID, id))
}

// completeOrder clears the cart and checkout after a successful payment and
// sends the confirmation in the background
func (s *CheckoutService) completeOrder(sess *Session, res entity.PaymentResult, contact entity.ContactInfo, items []entity.LineItem, summary entity.OrderSummary, method enum.PaymentMethod) {
	log := s.logger.With(zap.String("session_id", sess.ID.String()), zap.String("order_id", res.OrderID))

	if err := sess.Cart.ClearCart(); err != nil {
		log.Warn("clear cart after order failed", zap.Error(err))
	}
	_ = sess.Checkout(func(st *CheckoutState) error {
		attemptID := st.AttemptID
		st.Reset()
		st.AttemptID = attemptID
		return nil
	})

	if s.mailer == nil || contact.Email == "" {
		return
	}
	confirmation := buildConfirmation(res, contact, items, summary, method)
	go func() {
		if err := s.mailer.SendOrderConfirmation(contact.Email, confirmation); err != nil {
			log.Warn("send order confirmation failed", zap.Error(err))
		}
	}()
}

func (s *CheckoutService) input(st *CheckoutState, items []entity.LineItem, cfg entity.CheckoutConfig) pricing.Input {
	return pricing.Input{
		Items:         items,
		Coupon:        st.Coupon,
		GiftCard:      st.GiftCard,
		Shipping:      st.Shipping,
		PaymentMethod: st.PaymentMethod,
		COD:           cfg.COD,
		Prepaid:       cfg.Prepaid,
		Currency:      cartCurrency(items, s.calc.Currency()),
	}
}

func (s *CheckoutService) requireStep(sess *Session, step enum.CheckoutStepID) error {
	return sess.Checkout(func(st *CheckoutState) error {
		if st.Machine.Current() != step {
			return apperror.NewConflictError(fmt.Sprintf("The %s step is not active", step.Label()))
		}
		return nil
	})
}

func (s *CheckoutService) completeStep(sess *Session, step enum.CheckoutStepID, apply func(st *CheckoutState)) (CheckoutView, error) {
	var v CheckoutView
	err := sess.Checkout(func(st *CheckoutState) error {
		if !st.Machine.Complete(step) {
			return apperror.NewConflictError(fmt.Sprintf("The %s step is not active", step.Label()))
		}
		apply(st)
		v = viewOf(st)
		return nil
	})
	return v, err
}

func (s *CheckoutService) pushToCart(ctx context.Context, sess *Session, update entity.CartUpdate) error {
	return s.cartCall(ctx, sess, func(ctx context.Context) error {
		return sess.Gateway.Update(ctx, update)
	})
}

// cartCall waits for queued cart syncs so the remote cart exists, then runs fn
func (s *CheckoutService) cartCall(ctx context.Context, sess *Session, fn func(context.Context) error) error {
	if err := sess.Cart.Flush(ctx); err != nil {
		return err
	}
	err := fn(ctx)
	if errors.Is(err, gateway.ErrNoCart) {
		return apperror.NewBadRequestError("Your cart is empty")
	}
	if err != nil {
		s.logger.Warn("remote cart update failed", zap.String("session_id", sess.ID.String()), zap.Error(err))
		return apperror.ErrUpstream
	}
	return nil
}

func viewOf(st *CheckoutState) CheckoutView {
	v := CheckoutView{
		Current:       st.Machine.Current(),
		Steps:         st.Machine.Steps(),
		Contact:       st.Contact,
		Address:       st.Address,
		Shipping:      st.Shipping,
		PaymentMethod: st.PaymentMethod,
		Coupon:        st.Coupon,
		GiftCard:      st.GiftCard,
	}
	if st.AttemptID != uuid.Nil {
		id := st.AttemptID
		v.AttemptID = &id
	}
	return v
}

func requiredFields(fields []string) error {
	errs := make([]apperror.FieldError, 0, len(fields))
	for _, f := range fields {
		errs = append(errs, apperror.FieldError{Field: f, Message: "This field is required"})
	}
	return apperror.NewValidationError(errs)
}

func attemptError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, payment.ErrAttemptNotFound):
		return apperror.NewNotFoundError("Payment attempt")
	case errors.Is(err, payment.ErrAttemptState):
		return apperror.NewConflictError(err.Error())
	default:
		return err
	}
}

func buildConfirmation(res entity.PaymentResult, contact entity.ContactInfo, items []entity.LineItem, summary entity.OrderSummary, method enum.PaymentMethod) email.OrderConfirmation {
	format := func(v int64) string {
		return strings.TrimSpace(summary.Currency + " " + money.FromMinor(v).StringFixed(2))
	}
	lines := make([]email.OrderLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, email.OrderLine{Title: it.Title, Quantity: it.Quantity, Total: format(it.LineTotal())})
	}

	c := email.OrderConfirmation{
		OrderID:     res.OrderID,
		OrderNumber: res.OrderNumber,
		Name:        contact.FullName,
		Lines:       lines,
		Subtotal:    format(summary.Subtotal),
		Shipping:    format(summary.ShippingFee + summary.CODFee),
		Tax:         format(summary.TaxAmount),
		GrandTotal:  format(summary.GrandTotal),
		PaymentLine: "Your payment has been received.",
	}
	if discount := summary.CouponDiscount + summary.GiftCardApplied + summary.PrepaidDiscount; discount > 0 {
		c.Discount = format(discount)
	}
	if method == enum.PaymentMethodCOD {
		c.PaymentLine = "Please keep " + c.GrandTotal + " ready for cash on delivery."
	}
	return c
}
