package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/storefront-api/internal/domain/entity"
)

// PendingVerificationRepository stores payments awaiting backend verification
type PendingVerificationRepository interface {
	// Upsert creates the marker or refreshes it for the same provider and payment id
	Upsert(ctx context.Context, p *entity.PendingVerification) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]entity.PendingVerification, error)
	ListAll(ctx context.Context, limit int) ([]entity.PendingVerification, error)
	RecordFailure(ctx context.Context, id uuid.UUID, lastError string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// PaymentVerificationRepository caches successful verifications
type PaymentVerificationRepository interface {
	// Get returns nil, nil when the payment has not been verified
	Get(ctx context.Context, provider, gatewayPaymentID string) (*entity.PaymentVerification, error)
	Create(ctx context.Context, v *entity.PaymentVerification) error
}
