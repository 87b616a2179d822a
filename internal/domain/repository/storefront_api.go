package repository

import (
	"context"
	"errors"

	"github.com/sangkips/storefront-api/internal/domain/entity"
)

// ErrGiftCardNotFound is returned when a gift card code does not validate
var ErrGiftCardNotFound = errors.New("gift card not found")

// WishlistAPI persists a shopper's wishlist
type WishlistAPI interface {
	List(ctx context.Context, sessionID string) ([]entity.WishlistItem, error)
	Add(ctx context.Context, sessionID, productID string) error
	Remove(ctx context.Context, sessionID, productID string) error
}

// PromotionAPI serves coupons, gift cards and checkout configuration
type PromotionAPI interface {
	ActiveCoupons(ctx context.Context) ([]entity.Coupon, error)
	ValidateGiftCard(ctx context.Context, code string) (*entity.GiftCardBalance, error)
	CODConfig(ctx context.Context) (*entity.CODConfig, error)
	PrepaidDiscountConfig(ctx context.Context) (*entity.PrepaidDiscountConfig, error)
}

// PaymentAPI creates gateway payments and verifies them into orders.
// VerifyPayment must be idempotent on req.IdempotencyKey.
type PaymentAPI interface {
	CreatePayment(ctx context.Context, req entity.CreatePaymentRequest) (*entity.CreatePaymentResponse, error)
	VerifyPayment(ctx context.Context, req entity.VerifyPaymentRequest) (*entity.VerifyPaymentResponse, error)
}
