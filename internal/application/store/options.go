package store

import (
	"time"

	"github.com/sangkips/storefront-api/internal/domain/enum"
	"go.uber.org/zap"
)

// Options configures a store's remote sync behaviour
type Options struct {
	Policy      enum.SyncPolicy
	QueueSize   int
	SyncTimeout time.Duration
	Logger      *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}
