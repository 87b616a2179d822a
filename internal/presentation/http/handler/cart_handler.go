package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/storefront-api/internal/application/service"
	"github.com/sangkips/storefront-api/internal/presentation/http/dto/request"
	"github.com/sangkips/storefront-api/internal/presentation/http/dto/response"
)

const hydrateTimeout = 10 * time.Second

// CartHandler handles cart-related HTTP requests. Mutations apply locally
// at once and sync to the commerce platform in the background.
type CartHandler struct {
	sessions *service.SessionService
	checkout *service.CheckoutService
	promos   *service.PromotionService
}

// NewCartHandler creates a new cart handler
func NewCartHandler(sessions *service.SessionService, checkout *service.CheckoutService, promos *service.PromotionService) *CartHandler {
	return &CartHandler{sessions: sessions, checkout: checkout, promos: promos}
}

// Get returns the cart with its summary
func (h *CartHandler) Get(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}
	response.OK(c, "Cart retrieved successfully", h.cart(sess))
}

// AddItem adds one unit of a variant
func (h *CartHandler) AddItem(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}

	var req request.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if req.UnitPrice.IsNegative() {
		response.BadRequest(c, "unit_price must not be negative")
		return
	}

	if err := sess.Cart.AddItem(req.ToEntity()); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Item added to cart", h.cart(sess))
}

// UpdateItem sets a line's quantity
func (h *CartHandler) UpdateItem(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}

	var req request.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if err := sess.Cart.UpdateQuantity(c.Param("id"), *req.Quantity); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Cart updated", h.cart(sess))
}

// RemoveItem drops a line
func (h *CartHandler) RemoveItem(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}
	if err := sess.Cart.RemoveItem(c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Item removed from cart", h.cart(sess))
}

// Clear empties the cart
func (h *CartHandler) Clear(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}
	if err := sess.Cart.ClearCart(); err != nil {
		response.Error(c, err)
		return
	}
	h.promos.RemoveCoupon(sess)
	response.OK(c, "Cart cleared", h.cart(sess))
}

// Hydrate reloads the cart from the commerce platform
func (h *CartHandler) Hydrate(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), hydrateTimeout)
	defer cancel()
	if err := sess.Cart.Hydrate(ctx); err != nil {
		_ = c.Error(err)
		response.ErrorWithCode(c, 502, "Could not refresh the cart, showing saved items")
		return
	}
	response.OK(c, "Cart refreshed", h.cart(sess))
}

// Summary returns the cart page summary
func (h *CartHandler) Summary(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}
	response.OK(c, "Cart summary retrieved", response.NewSummaryResponse(h.checkout.CartSummary(sess)))
}

// ApplyCoupon applies a coupon code to the cart
func (h *CartHandler) ApplyCoupon(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}

	var req request.CodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	applied, err := h.promos.ApplyCoupon(c.Request.Context(), sess, req.Code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Coupon applied", gin.H{
		"coupon": response.NewAppliedCouponResponse(applied),
		"cart":   h.cart(sess),
	})
}

// RemoveCoupon drops the applied coupon
func (h *CartHandler) RemoveCoupon(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}
	h.promos.RemoveCoupon(sess)
	response.OK(c, "Coupon removed", h.cart(sess))
}

func (h *CartHandler) cart(sess *service.Session) response.CartResponse {
	return response.NewCartResponse(sess.Cart.Snapshot(), h.checkout.CartSummary(sess), sess.Cart.Syncing())
}
