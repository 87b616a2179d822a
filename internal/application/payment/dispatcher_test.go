package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/storefront-api/internal/domain/entity"
	"github.com/sangkips/storefront-api/internal/domain/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testSecret = "rzp_secret"

func sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

type fixture struct {
	api      *mockPaymentAPI
	pending  *mockPendingRepo
	verified *mockVerificationRepo
	razorpay *scriptedRazorpay
	stripe   *scriptedStripe
	d        *Dispatcher
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		api:      &mockPaymentAPI{},
		pending:  newMockPendingRepo(),
		verified: newMockVerificationRepo(),
		razorpay: &scriptedRazorpay{},
		stripe:   &scriptedStripe{},
	}
	f.d = NewDispatcher(f.api, f.razorpay, f.stripe, f.pending, f.verified,
		Config{RazorpayKeyID: "rzp_key", RazorpayKeySecret: testSecret, StripePublishableKey: "pk_test"},
		zaptest.NewLogger(t))
	return f
}

func request(method enum.PaymentMethod, currency string) Request {
	return Request{
		SessionID: uuid.New(),
		CartID:    "cart_1",
		Method:    method,
		Amount:    236000,
		Currency:  currency,
		Contact:   entity.ContactInfo{Email: "a@example.com", Phone: "9999999999", FullName: "Asha"},
	}
}

func TestDispatch_COD(t *testing.T) {
	f := newFixture(t)

	res := f.d.Dispatch(context.Background(), request(enum.PaymentMethodCOD, "INR"))

	require.True(t, res.Success)
	assert.Equal(t, "order_cart_1", res.OrderID)
	calls := f.api.verifyCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, enum.PaymentProviderCOD, calls[0].Provider)
	assert.Equal(t, "cart_1", calls[0].IdempotencyKey)
	assert.Empty(t, f.api.creates)
	assert.Zero(t, f.pending.count())
}

func TestDispatch_RazorpayForINR(t *testing.T) {
	f := newFixture(t)
	f.razorpay.resp = &RazorpayResponse{PaymentID: "pay_1", OrderID: "order_rzp_1", Signature: sign("order_rzp_1", "pay_1")}

	res := f.d.Dispatch(context.Background(), request(enum.PaymentMethodOnline, "inr"))

	require.True(t, res.Success, res.Error)
	require.Len(t, f.razorpay.opened, 1)
	assert.Equal(t, "rzp_key", f.razorpay.opened[0].KeyID)
	assert.Equal(t, "order_rzp_1", f.razorpay.opened[0].OrderID)
	assert.Equal(t, int64(236000), f.api.creates[0].Amount)

	calls := f.api.verifyCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, enum.PaymentProviderRazorpay, calls[0].Provider)
	assert.Equal(t, "pay_1", calls[0].IdempotencyKey)
	assert.Empty(t, f.stripe.got)
}

func TestDispatch_RazorpaySignatureMismatch(t *testing.T) {
	f := newFixture(t)
	f.razorpay.resp = &RazorpayResponse{PaymentID: "pay_1", OrderID: "order_rzp_1", Signature: "forged"}

	res := f.d.Dispatch(context.Background(), request(enum.PaymentMethodOnline, "INR"))

	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
	assert.Empty(t, f.api.verifyCalls())
}

func TestDispatch_RazorpayCallbackForOtherOrderRejected(t *testing.T) {
	f := newFixture(t)
	// validly signed, but for an order this server did not create for the cart
	f.razorpay.resp = &RazorpayResponse{PaymentID: "pay_0", OrderID: "order_rzp_old", Signature: sign("order_rzp_old", "pay_0")}

	res := f.d.Dispatch(context.Background(), request(enum.PaymentMethodOnline, "INR"))

	assert.False(t, res.Success)
	assert.Equal(t, "Payment does not belong to this order", res.Error)
	assert.Empty(t, f.api.verifyCalls())
	assert.Zero(t, f.pending.count())
}

func TestDispatch_RazorpaySignedWithServerOrder(t *testing.T) {
	f := newFixture(t)
	// the browser omitted the order id; the signature is still checked against ours
	f.razorpay.resp = &RazorpayResponse{PaymentID: "pay_1", Signature: sign("order_rzp_1", "pay_1")}

	res := f.d.Dispatch(context.Background(), request(enum.PaymentMethodOnline, "INR"))

	require.True(t, res.Success, res.Error)
	calls := f.api.verifyCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "order_rzp_1", calls[0].RazorpayOrderID)
	assert.Equal(t, "cart_1", res.CartID)
}

func TestDispatch_ReplayedPaymentForOtherCartRejected(t *testing.T) {
	f := newFixture(t)
	f.razorpay.resp = &RazorpayResponse{PaymentID: "pay_1", OrderID: "order_rzp_1", Signature: sign("order_rzp_1", "pay_1")}

	first := f.d.Dispatch(context.Background(), request(enum.PaymentMethodOnline, "INR"))
	require.True(t, first.Success, first.Error)

	// same callback replayed while paying for a different, larger cart
	replay := request(enum.PaymentMethodOnline, "INR")
	replay.CartID = "cart_2"
	replay.Amount = 999999
	res := f.d.Dispatch(context.Background(), replay)

	assert.False(t, res.Success)
	assert.Empty(t, res.OrderID)
	assert.Len(t, f.api.verifyCalls(), 1)
	assert.Zero(t, f.pending.count())
}

func TestDispatch_StripeConfirmationForOtherIntentRejected(t *testing.T) {
	f := newFixture(t)
	f.stripe.conf = &StripeConfirmation{PaymentIntentID: "pi_old_paid_elsewhere"}

	res := f.d.Dispatch(context.Background(), request(enum.PaymentMethodOnline, "USD"))

	assert.False(t, res.Success)
	assert.Empty(t, f.api.verifyCalls())
}

func TestDispatch_StripeVerifiesServerIntent(t *testing.T) {
	f := newFixture(t)
	f.stripe.conf = &StripeConfirmation{}

	res := f.d.Dispatch(context.Background(), request(enum.PaymentMethodOnline, "USD"))

	require.True(t, res.Success, res.Error)
	calls := f.api.verifyCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "pi_1", calls[0].PaymentIntentID)
}

func TestDispatch_DismissIsCancelledNotError(t *testing.T) {
	f := newFixture(t)
	f.razorpay.err = ErrDismissed

	res := f.d.Dispatch(context.Background(), request(enum.PaymentMethodOnline, "INR"))

	assert.False(t, res.Success)
	assert.True(t, res.Cancelled)
	assert.Empty(t, f.api.verifyCalls())
}

func TestDispatch_StripeForOtherCurrencies(t *testing.T) {
	f := newFixture(t)
	f.stripe.conf = &StripeConfirmation{PaymentIntentID: "pi_1"}

	res := f.d.Dispatch(context.Background(), request(enum.PaymentMethodOnline, "usd"))

	require.True(t, res.Success, res.Error)
	require.Len(t, f.stripe.got, 1)
	assert.Equal(t, "pi_1_secret", f.stripe.got[0].ClientSecret)
	assert.Equal(t, "pk_test", f.stripe.got[0].PublishableKey)
	assert.Equal(t, "USD", f.api.creates[0].Currency)

	calls := f.api.verifyCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, enum.PaymentProviderStripe, calls[0].Provider)
	assert.Equal(t, "pi_1", calls[0].IdempotencyKey)
	assert.Empty(t, f.razorpay.opened)
}

func TestDispatch_VerifyFailureLeavesMarkerForResume(t *testing.T) {
	f := newFixture(t)
	f.stripe.conf = &StripeConfirmation{PaymentIntentID: "pi_1"}
	f.api.setVerifyErr(errBackend)
	req := request(enum.PaymentMethodOnline, "USD")

	res := f.d.Dispatch(context.Background(), req)
	assert.False(t, res.Success)
	require.Equal(t, 1, f.pending.count())

	markers, _ := f.pending.ListBySession(context.Background(), req.SessionID)
	require.Len(t, markers, 1)
	assert.Equal(t, 1, markers[0].Attempts)
	assert.Equal(t, "pi_1", markers[0].GatewayPaymentID)

	f.api.setVerifyErr(nil)
	results, err := f.d.Resume(context.Background(), req.SessionID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, "cart_1", results[0].CartID)
	assert.Zero(t, f.pending.count())

	last := f.api.verifyCalls()[1]
	assert.Equal(t, "pi_1", last.IdempotencyKey)
	assert.Equal(t, "cart_1", last.CartID)
}

func TestDispatch_RepeatedVerificationUsesCache(t *testing.T) {
	f := newFixture(t)
	f.stripe.conf = &StripeConfirmation{PaymentIntentID: "pi_1"}

	first := f.d.Dispatch(context.Background(), request(enum.PaymentMethodOnline, "USD"))
	second := f.d.Dispatch(context.Background(), request(enum.PaymentMethodOnline, "USD"))

	assert.Equal(t, first, second)
	assert.Len(t, f.api.verifyCalls(), 1)
}

func TestDispatch_DeclinedVerificationClearsMarker(t *testing.T) {
	f := newFixture(t)
	f.api.declined = true

	res := f.d.Dispatch(context.Background(), request(enum.PaymentMethodCOD, "INR"))

	assert.False(t, res.Success)
	assert.Equal(t, "signature invalid", res.Error)
	assert.Zero(t, f.pending.count())
}

func TestResumeAll(t *testing.T) {
	f := newFixture(t)
	f.api.setVerifyErr(errBackend)
	f.d.Dispatch(context.Background(), request(enum.PaymentMethodCOD, "INR"))
	require.Equal(t, 1, f.pending.count())

	f.api.setVerifyErr(nil)
	done, err := f.d.ResumeAll(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, done)
	assert.Zero(t, f.pending.count())
}

func TestAttemptRegistry_RazorpayFlow(t *testing.T) {
	f := newFixture(t)
	reg := NewAttemptRegistry(time.Minute, zaptest.NewLogger(t))
	t.Cleanup(reg.Close)
	d := NewDispatcher(f.api, reg, reg, f.pending, f.verified, Config{RazorpayKeyID: "rzp_key", RazorpayKeySecret: testSecret}, zaptest.NewLogger(t))

	req := request(enum.PaymentMethodOnline, "INR")
	att := reg.Start(req.SessionID, func(ctx context.Context) entity.PaymentResult {
		return d.Dispatch(ctx, req)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	view, err := reg.Wait(ctx, req.SessionID, att.ID)
	require.NoError(t, err)
	require.Equal(t, enum.AttemptStatusActionRequired, view.Status)
	require.NotNil(t, view.Action.Razorpay)
	assert.Equal(t, "order_rzp_1", view.Action.Razorpay.OrderID)

	_, err = reg.Get(uuid.New(), att.ID)
	assert.ErrorIs(t, err, ErrAttemptNotFound)
	assert.ErrorIs(t, reg.ResolveStripe(req.SessionID, att.ID, StripeConfirmation{}), ErrAttemptState)

	require.NoError(t, reg.ResolveRazorpay(req.SessionID, att.ID, RazorpayResponse{
		PaymentID: "pay_1",
		OrderID:   "order_rzp_1",
		Signature: sign("order_rzp_1", "pay_1"),
	}))

	require.Eventually(t, func() bool {
		v, err := reg.Get(req.SessionID, att.ID)
		return err == nil && v.Status.Terminal()
	}, 2*time.Second, 10*time.Millisecond)

	final, _ := reg.Get(req.SessionID, att.ID)
	assert.Equal(t, enum.AttemptStatusSucceeded, final.Status)
	require.NotNil(t, final.Result)
	assert.Equal(t, "order_cart_1", final.Result.OrderID)
}

func TestAttemptRegistry_Dismiss(t *testing.T) {
	f := newFixture(t)
	reg := NewAttemptRegistry(time.Minute, zaptest.NewLogger(t))
	t.Cleanup(reg.Close)
	d := NewDispatcher(f.api, reg, reg, f.pending, f.verified, Config{}, zaptest.NewLogger(t))

	req := request(enum.PaymentMethodOnline, "EUR")
	att := reg.Start(req.SessionID, func(ctx context.Context) entity.PaymentResult {
		return d.Dispatch(ctx, req)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	view, err := reg.Wait(ctx, req.SessionID, att.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Action.Stripe)
	assert.Equal(t, "pi_1_secret", view.Action.Stripe.ClientSecret)

	require.NoError(t, reg.Dismiss(req.SessionID, att.ID))
	require.Eventually(t, func() bool {
		v, _ := reg.Get(req.SessionID, att.ID)
		return v.Status == enum.AttemptStatusCancelled
	}, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, f.api.verifyCalls())
}

func TestAttemptRegistry_TimeoutCancelsAttempt(t *testing.T) {
	f := newFixture(t)
	reg := NewAttemptRegistry(50*time.Millisecond, zaptest.NewLogger(t))
	t.Cleanup(reg.Close)
	d := NewDispatcher(f.api, reg, reg, f.pending, f.verified, Config{RazorpayKeyID: "rzp_key", RazorpayKeySecret: testSecret}, zaptest.NewLogger(t))

	req := request(enum.PaymentMethodOnline, "INR")
	att := reg.Start(req.SessionID, func(ctx context.Context) entity.PaymentResult {
		return d.Dispatch(ctx, req)
	})

	// the browser never answers
	require.Eventually(t, func() bool {
		v, err := reg.Get(req.SessionID, att.ID)
		return err == nil && v.Status.Terminal()
	}, 2*time.Second, 10*time.Millisecond)

	final, _ := reg.Get(req.SessionID, att.ID)
	assert.Equal(t, enum.AttemptStatusCancelled, final.Status)
	require.NotNil(t, final.Result)
	assert.True(t, final.Result.Cancelled)
	assert.Nil(t, final.Action)
	assert.Empty(t, f.api.verifyCalls())

	err := reg.ResolveRazorpay(req.SessionID, att.ID, RazorpayResponse{
		PaymentID: "pay_1",
		OrderID:   "order_rzp_1",
		Signature: sign("order_rzp_1", "pay_1"),
	})
	assert.ErrorIs(t, err, ErrAttemptState)
}

func TestAttemptRegistry_OpenOutsideAttempt(t *testing.T) {
	reg := NewAttemptRegistry(time.Minute, zaptest.NewLogger(t))
	t.Cleanup(reg.Close)

	_, err := reg.Open(context.Background(), RazorpayOptions{})
	assert.ErrorIs(t, err, ErrNoAttempt)
}
