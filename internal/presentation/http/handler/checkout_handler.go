package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/storefront-api/internal/application/service"
	"github.com/sangkips/storefront-api/internal/domain/enum"
	"github.com/sangkips/storefront-api/internal/presentation/http/dto/request"
	"github.com/sangkips/storefront-api/internal/presentation/http/dto/response"
)

// maxAttemptWait caps the long-poll on a payment attempt
const maxAttemptWait = 30 * time.Second

// CheckoutHandler handles checkout steps, order placement and payment attempts
type CheckoutHandler struct {
	sessions *service.SessionService
	checkout *service.CheckoutService
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(sessions *service.SessionService, checkout *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{sessions: sessions, checkout: checkout}
}

// State returns the checkout progress and selections
func (h *CheckoutHandler) State(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}
	response.OK(c, "Checkout retrieved", response.NewCheckoutResponse(h.checkout.View(sess)))
}

// SubmitContact handles the contact step
func (h *CheckoutHandler) SubmitContact(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}

	var req request.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	view, err := h.checkout.SubmitContact(c.Request.Context(), sess, req.ToEntity())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Contact saved", response.NewCheckoutResponse(view))
}

// SubmitAddress handles the address step
func (h *CheckoutHandler) SubmitAddress(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}

	var req request.AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	view, err := h.checkout.SubmitAddress(c.Request.Context(), sess, req.ToEntity(), req.BillingEntity())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Address saved", response.NewCheckoutResponse(view))
}

// ShippingOptions lists the shipping methods for the cart
func (h *CheckoutHandler) ShippingOptions(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}

	options, err := h.checkout.ShippingOptions(c.Request.Context(), sess)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Shipping options retrieved", response.NewShippingMethodResponses(options))
}

// SelectShipping handles the shipping step
func (h *CheckoutHandler) SelectShipping(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}

	var req request.ShippingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	view, err := h.checkout.SelectShipping(c.Request.Context(), sess, req.OptionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Shipping method selected", response.NewCheckoutResponse(view))
}

// Back moves to the previous step
func (h *CheckoutHandler) Back(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}
	response.OK(c, "Moved back", response.NewCheckoutResponse(h.checkout.Back(sess)))
}

// GoTo jumps to a completed step
func (h *CheckoutHandler) GoTo(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}

	var req request.GoToRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	step, err := enum.ParseCheckoutStepID(req.Step)
	if err != nil {
		response.BadRequest(c, "Unknown checkout step")
		return
	}

	view, err := h.checkout.GoTo(sess, step)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Step changed", response.NewCheckoutResponse(view))
}

// SetPaymentMethod selects online payment or cash on delivery
func (h *CheckoutHandler) SetPaymentMethod(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}

	var req request.PaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	view, err := h.checkout.SetPaymentMethod(c.Request.Context(), sess, req.Method)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Payment method selected", response.NewCheckoutResponse(view))
}

// Summary returns the full order summary
func (h *CheckoutHandler) Summary(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}

	summary, err := h.checkout.CheckoutSummary(c.Request.Context(), sess)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Order summary retrieved", response.NewSummaryResponse(summary))
}

// PlaceOrder starts the payment for the order. The client polls the
// returned attempt for gateway actions and the result.
func (h *CheckoutHandler) PlaceOrder(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}

	attempt, err := h.checkout.PlaceOrder(c.Request.Context(), sess)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, "Payment started", attempt)
}

// Attempt returns a payment attempt. With ?wait=N it long-polls up to N
// seconds for the attempt to leave the pending state.
func (h *CheckoutHandler) Attempt(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	wait, _ := strconv.Atoi(c.DefaultQuery("wait", "0"))
	if wait <= 0 {
		attempt, err := h.checkout.Attempt(sess, id)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, "Payment attempt retrieved", attempt)
		return
	}

	timeout := min(time.Duration(wait)*time.Second, maxAttemptWait)
	attempt, err := h.checkout.WaitAttempt(c.Request.Context(), sess, id, timeout)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Payment attempt retrieved", attempt)
}

// RazorpayCallback delivers the Razorpay modal's success payload
func (h *CheckoutHandler) RazorpayCallback(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req request.RazorpayCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if err := h.checkout.ResolveRazorpay(sess, id, req.ToResponse()); err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, "Payment is being verified", gin.H{"attempt_id": id})
}

// StripeCallback reports a confirmed payment intent
func (h *CheckoutHandler) StripeCallback(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req request.StripeCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if err := h.checkout.ResolveStripe(sess, id, req.ToConfirmation()); err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, "Payment is being verified", gin.H{"attempt_id": id})
}

// Dismiss reports that the shopper closed the payment window
func (h *CheckoutHandler) Dismiss(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.checkout.Dismiss(sess, id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Payment cancelled", gin.H{"attempt_id": id})
}

// Resume re-runs verification for payments left unconfirmed by an interruption
func (h *CheckoutHandler) Resume(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}

	results, err := h.checkout.Resume(c.Request.Context(), sess)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Pending payments checked", results)
}
