package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/storefront-api/internal/application/service"
	"github.com/sangkips/storefront-api/internal/presentation/http/dto/request"
	"github.com/sangkips/storefront-api/internal/presentation/http/dto/response"
)

// WishlistHandler handles wishlist HTTP requests
type WishlistHandler struct {
	sessions *service.SessionService
}

// NewWishlistHandler creates a new wishlist handler
func NewWishlistHandler(sessions *service.SessionService) *WishlistHandler {
	return &WishlistHandler{sessions: sessions}
}

// List returns the saved products
func (h *WishlistHandler) List(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}
	response.OK(c, "Wishlist retrieved successfully", h.wishlist(sess))
}

// Add saves a product; saving it twice is a no-op
func (h *WishlistHandler) Add(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}

	var req request.WishlistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if err := sess.Wishlist.AddItem(req.ToEntity()); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Added to wishlist", h.wishlist(sess))
}

// Toggle adds the product if absent and removes it otherwise
func (h *WishlistHandler) Toggle(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}

	var req request.WishlistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	added, err := sess.Wishlist.ToggleItem(req.ToEntity())
	if err != nil {
		response.Error(c, err)
		return
	}

	message := "Removed from wishlist"
	if added {
		message = "Added to wishlist"
	}
	response.OK(c, message, gin.H{
		"added":    added,
		"wishlist": h.wishlist(sess),
	})
}

// Remove drops a saved product
func (h *WishlistHandler) Remove(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}
	if err := sess.Wishlist.RemoveItem(c.Param("product_id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Removed from wishlist", h.wishlist(sess))
}

func (h *WishlistHandler) wishlist(sess *service.Session) response.WishlistResponse {
	return response.NewWishlistResponse(sess.Wishlist.Items(), sess.Wishlist.Syncing())
}
