package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/storefront-api/internal/domain/entity"
	domainRepo "github.com/sangkips/storefront-api/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type pendingVerificationRepository struct {
	db *gorm.DB
}

// NewPendingVerificationRepository creates a new pending verification repository
func NewPendingVerificationRepository(db *gorm.DB) domainRepo.PendingVerificationRepository {
	return &pendingVerificationRepository{db: db}
}

func (r *pendingVerificationRepository) Upsert(ctx context.Context, p *entity.PendingVerification) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing entity.PendingVerification
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("provider = ? AND gateway_payment_id = ?", p.Provider, p.GatewayPaymentID).
			First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(p).Error
		}
		if err != nil {
			return err
		}

		p.ID = existing.ID
		p.Attempts = existing.Attempts
		p.CreatedAt = existing.CreatedAt
		return tx.Model(&existing).Updates(map[string]any{
			"session_id": p.SessionID,
			"cart_id":    p.CartID,
			"payload":    p.Payload,
		}).Error
	})
}

func (r *pendingVerificationRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]entity.PendingVerification, error) {
	var markers []entity.PendingVerification
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&markers).Error
	return markers, err
}

func (r *pendingVerificationRepository) ListAll(ctx context.Context, limit int) ([]entity.PendingVerification, error) {
	var markers []entity.PendingVerification
	query := r.db.WithContext(ctx).Order("updated_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&markers).Error
	return markers, err
}

func (r *pendingVerificationRepository) RecordFailure(ctx context.Context, id uuid.UUID, lastError string) error {
	return r.db.WithContext(ctx).
		Model(&entity.PendingVerification{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": lastError,
		}).Error
}

func (r *pendingVerificationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.PendingVerification{}, "id = ?", id).Error
}

type paymentVerificationRepository struct {
	db *gorm.DB
}

// NewPaymentVerificationRepository creates a new payment verification repository
func NewPaymentVerificationRepository(db *gorm.DB) domainRepo.PaymentVerificationRepository {
	return &paymentVerificationRepository{db: db}
}

func (r *paymentVerificationRepository) Get(ctx context.Context, provider, gatewayPaymentID string) (*entity.PaymentVerification, error) {
	var v entity.PaymentVerification
	err := r.db.WithContext(ctx).
		Where("provider = ? AND gateway_payment_id = ?", provider, gatewayPaymentID).
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Create ignores a concurrent insert for the same payment; the first result wins
func (r *paymentVerificationRepository) Create(ctx context.Context, v *entity.PaymentVerification) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(v).Error
}
