package cache

import (
	"context"
	"fmt"

	"github.com/sistemita/backend/internal/domain/shared"
	"github.com/sistemita/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewIdempotencyStore picks the store for cfg. With Redis disabled the
// in-memory store is used. With Redis enabled but unreachable, allowFallback
// decides between the in-memory store and an error.
func NewIdempotencyStore(ctx context.Context, cfg config.RedisConfig, allowFallback bool, logger *zap.Logger) (shared.IdempotencyStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled {
		logger.Info("Using in-memory idempotency store")
		return NewInMemoryIdempotencyStore(), nil
	}

	store, err := NewRedisIdempotencyStore(ctx, cfg)
	if err == nil {
		logger.Info("Using Redis idempotency store", zap.String("addr", cfg.Addr()))
		return store, nil
	}
	if !allowFallback {
		return nil, fmt.Errorf("redis idempotency store unavailable: %w", err)
	}

	logger.Warn("Redis unavailable, falling back to in-memory idempotency store; keys are not shared between instances",
		zap.Error(err))
	return NewInMemoryIdempotencyStore(), nil
}
