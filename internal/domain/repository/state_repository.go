package repository

import (
	"context"

	"github.com/sangkips/storefront-api/internal/domain/entity"
)

// StateRepository persists per-session client state. Loads return nil, nil
// when nothing has been stored yet.
type StateRepository interface {
	LoadCart(ctx context.Context, sessionID string) (*entity.CartSnapshot, error)
	SaveCart(ctx context.Context, sessionID string, snapshot *entity.CartSnapshot) error
	LoadWishlist(ctx context.Context, sessionID string) (*entity.WishlistSnapshot, error)
	SaveWishlist(ctx context.Context, sessionID string, snapshot *entity.WishlistSnapshot) error
	LoadUI(ctx context.Context, sessionID string) (*entity.UIFlags, error)
	SaveUI(ctx context.Context, sessionID string, flags *entity.UIFlags) error
	Delete(ctx context.Context, sessionID string) error
}
