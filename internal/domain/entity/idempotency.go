package entity

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyKey stores processed requests to prevent duplicates
type IdempotencyKey struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Key          string    `gorm:"uniqueIndex:idx_idempotency_session_key;size:255;not null"` // Idempotency-Key header
	SessionID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_idempotency_session_key"`
	Endpoint     string    `gorm:"size:255;not null"` // e.g. "POST /api/v1/checkout/place-order"
	RequestHash  string    `gorm:"size:64;not null"`  // blake2b-256 of method, path and body
	ResponseCode int       `gorm:"not null"`
	ResponseBody string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	ExpiresAt    time.Time `gorm:"not null;index"`
}

// TableName returns the table name for IdempotencyKey
func (IdempotencyKey) TableName() string {
	return "idempotency_keys"
}

// IsExpired checks if the idempotency key has expired
func (i *IdempotencyKey) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}
