package event

import (
	"context"

	"github.com/sistemita/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// eventKeyPrefix keeps event ids apart from HTTP idempotency keys in a shared store
const eventKeyPrefix = "event:"

// IdempotentHandler runs the wrapped handler at most once per event id
// within the configured TTL. A failed delivery releases the id so a
// redelivery is processed.
type IdempotentHandler struct {
	handler shared.EventHandler
	store   shared.IdempotencyStore
	config  shared.IdempotencyConfig
	logger  *zap.Logger
}

// NewIdempotentHandler wraps handler with deduplication on store
func NewIdempotentHandler(handler shared.EventHandler, store shared.IdempotencyStore, config shared.IdempotencyConfig, logger *zap.Logger) *IdempotentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdempotentHandler{handler: handler, store: store, config: config, logger: logger}
}

// EventTypes returns the event types of the wrapped handler
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle delivers ev unless its id was already handled
func (h *IdempotentHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	if !h.config.Enabled {
		return h.handler.Handle(ctx, ev)
	}

	key := eventKeyPrefix + ev.EventID().String()
	isNew, err := h.store.MarkProcessed(ctx, key, h.config.TTL)
	switch {
	case err != nil:
		// delivering twice is preferred over dropping the event
		h.logger.Warn("Idempotency check failed, handling event anyway",
			zap.String("event_id", ev.EventID().String()), zap.Error(err))
	case !isNew:
		h.logger.Debug("Duplicate event skipped",
			zap.String("event_id", ev.EventID().String()),
			zap.String("event_type", ev.EventType()))
		return nil
	}

	if err := h.handler.Handle(ctx, ev); err != nil {
		if releaseErr := h.store.Release(ctx, key); releaseErr != nil {
			h.logger.Warn("Failed to release idempotency key", zap.String("key", key), zap.Error(releaseErr))
		}
		return err
	}
	return nil
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
