package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/storefront-api/internal/application/service"
	"github.com/sangkips/storefront-api/internal/presentation/http/dto/request"
	"github.com/sangkips/storefront-api/internal/presentation/http/dto/response"
)

// PromotionHandler serves coupons, gift cards and checkout configuration
type PromotionHandler struct {
	sessions *service.SessionService
	promos   *service.PromotionService
}

// NewPromotionHandler creates a new promotion handler
func NewPromotionHandler(sessions *service.SessionService, promos *service.PromotionService) *PromotionHandler {
	return &PromotionHandler{sessions: sessions, promos: promos}
}

// ListCoupons returns the active coupons
func (h *PromotionHandler) ListCoupons(c *gin.Context) {
	coupons, err := h.promos.ActiveCoupons(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Coupons retrieved successfully", response.NewCouponResponses(coupons))
}

// CheckoutConfig returns the COD and prepaid discount configuration
func (h *PromotionHandler) CheckoutConfig(c *gin.Context) {
	cfg, err := h.promos.CheckoutConfig(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Checkout configuration retrieved", response.NewCheckoutConfigResponse(cfg))
}

// ApplyGiftCard validates and applies a gift card
func (h *PromotionHandler) ApplyGiftCard(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}

	var req request.CodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	card, err := h.promos.ApplyGiftCard(c.Request.Context(), sess, req.Code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Gift card applied", response.NewGiftCardResponse(card))
}

// RemoveGiftCard drops the applied gift card
func (h *PromotionHandler) RemoveGiftCard(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}
	h.promos.RemoveGiftCard(sess)
	response.OK(c, "Gift card removed", nil)
}
