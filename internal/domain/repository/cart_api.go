package repository

import (
	"context"
	"errors"

	"github.com/sangkips/storefront-api/internal/domain/entity"
)

var (
	// ErrCartNotFound is returned by mutations against a cart that no longer exists
	ErrCartNotFound = errors.New("cart not found")
	// ErrCartCompleted is returned when a cart has already been turned into an order
	ErrCartCompleted = errors.New("cart already completed")
)

// CartAPI is the commerce platform's store cart API
type CartAPI interface {
	CreateCart(ctx context.Context, regionID string) (*entity.RemoteCart, error)
	// RetrieveCart returns nil, nil when the cart no longer exists
	RetrieveCart(ctx context.Context, cartID string) (*entity.RemoteCart, error)
	AddLineItem(ctx context.Context, cartID, variantID string, quantity int) (*entity.RemoteCart, error)
	UpdateLineItem(ctx context.Context, cartID, lineID string, quantity int) (*entity.RemoteCart, error)
	DeleteLineItem(ctx context.Context, cartID, lineID string) (*entity.RemoteCart, error)
	UpdateCart(ctx context.Context, cartID string, update entity.CartUpdate) (*entity.RemoteCart, error)
	ListShippingOptions(ctx context.Context, cartID string) ([]entity.ShippingMethod, error)
	AddShippingMethod(ctx context.Context, cartID, optionID string) (*entity.RemoteCart, error)
	CompleteCart(ctx context.Context, cartID string) (*entity.CompletedOrder, error)
}
