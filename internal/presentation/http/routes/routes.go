package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/storefront-api/internal/config"
	domainRepo "github.com/sangkips/storefront-api/internal/domain/repository"
	"github.com/sangkips/storefront-api/internal/presentation/http/dto/response"
	"github.com/sangkips/storefront-api/internal/presentation/http/handler"
	"github.com/sangkips/storefront-api/internal/presentation/http/middleware"
	"github.com/sangkips/storefront-api/pkg/utils"
	"go.uber.org/zap"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Session   *handler.SessionHandler
	Cart      *handler.CartHandler
	Wishlist  *handler.WishlistHandler
	Promotion *handler.PromotionHandler
	Checkout  *handler.CheckoutHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
	RateLimiter     *middleware.SessionRateLimiter
	Logger          *zap.Logger
	// Health reports live session count and similar stats
	Health func() gin.H
}

// NewRateLimiter builds the per-session limiter from configuration
func NewRateLimiter(cfg config.RateLimitConfig) *middleware.SessionRateLimiter {
	duration := max(cfg.Duration, 1)
	return middleware.NewSessionRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: float64(cfg.Requests) / float64(duration),
		BurstSize:         cfg.Requests,
		CleanupInterval:   5 * time.Minute,
		EntryTTL:          10 * time.Minute,
	})
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Logger))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))
	router.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "Route not found")
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		body := gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		}
		if deps.Health != nil {
			for k, v := range deps.Health() {
				body[k] = v
			}
		}
		c.JSON(200, body)
	})

	rateLimiter := deps.RateLimiter
	if rateLimiter == nil {
		rateLimiter = NewRateLimiter(deps.Cfg.RateLimit)
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Session issuing; a valid token is refreshed for the same session
		public := v1.Group("")
		public.Use(middleware.OptionalAuthMiddleware(deps.JWTManager))
		public.Use(rateLimiter.Middleware())
		public.POST("/sessions", h.Session.Create)
		public.GET("/coupons", h.Promotion.ListCoupons)
		public.GET("/checkout/config", h.Promotion.CheckoutConfig)

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))
		protected.Use(rateLimiter.Middleware())

		registerProtectedRoutes(protected, h, deps)
	}

	return router
}

func registerProtectedRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	// UI preferences
	protected.GET("/ui", h.Session.GetUI)
	protected.PATCH("/ui", h.Session.UpdateUI)

	registerCartRoutes(protected, h)
	registerWishlistRoutes(protected, h)
	registerCheckoutRoutes(protected, h, deps)
}

func registerCartRoutes(protected *gin.RouterGroup, h *Handlers) {
	cart := protected.Group("/cart")
	{
		cart.GET("", h.Cart.Get)
		cart.DELETE("", h.Cart.Clear)
		cart.POST("/items", h.Cart.AddItem)
		cart.PATCH("/items/:id", h.Cart.UpdateItem)
		cart.DELETE("/items/:id", h.Cart.RemoveItem)
		cart.POST("/hydrate", h.Cart.Hydrate)
		cart.GET("/summary", h.Cart.Summary)
		cart.POST("/coupon", h.Cart.ApplyCoupon)
		cart.DELETE("/coupon", h.Cart.RemoveCoupon)
	}
}

func registerWishlistRoutes(protected *gin.RouterGroup, h *Handlers) {
	wishlist := protected.Group("/wishlist")
	{
		wishlist.GET("", h.Wishlist.List)
		wishlist.POST("", h.Wishlist.Add)
		wishlist.POST("/toggle", h.Wishlist.Toggle)
		wishlist.DELETE("/:product_id", h.Wishlist.Remove)
	}
}

func registerCheckoutRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	idempotency := middleware.Idempotency(middleware.IdempotencyConfig{
		Repo:   deps.IdempotencyRepo,
		Logger: deps.Logger,
	})

	checkout := protected.Group("/checkout")
	{
		checkout.GET("", h.Checkout.State)
		checkout.POST("/contact", h.Checkout.SubmitContact)
		checkout.POST("/address", h.Checkout.SubmitAddress)
		checkout.GET("/shipping-options", h.Checkout.ShippingOptions)
		checkout.POST("/shipping", h.Checkout.SelectShipping)
		checkout.POST("/back", h.Checkout.Back)
		checkout.POST("/step", h.Checkout.GoTo)
		checkout.POST("/payment-method", h.Checkout.SetPaymentMethod)
		checkout.POST("/gift-card", h.Promotion.ApplyGiftCard)
		checkout.DELETE("/gift-card", h.Promotion.RemoveGiftCard)
		checkout.GET("/summary", h.Checkout.Summary)
		checkout.POST("/place-order", idempotency, h.Checkout.PlaceOrder)
		checkout.POST("/resume", h.Checkout.Resume)

		attempts := checkout.Group("/attempts/:id")
		attempts.GET("", h.Checkout.Attempt)
		attempts.POST("/razorpay", h.Checkout.RazorpayCallback)
		attempts.POST("/stripe", h.Checkout.StripeCallback)
		attempts.POST("/dismiss", h.Checkout.Dismiss)
	}
}
