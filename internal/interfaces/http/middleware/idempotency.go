package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sistemita/backend/internal/domain/shared"
	"github.com/sistemita/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader is the request header clients use to make a POST safe to retry
const IdempotencyKeyHeader = "Idempotency-Key"

// MaxIdempotencyKeyLength bounds the header value stored per request
const MaxIdempotencyKeyLength = 255

const httpKeyPrefix = "http:"

// Idempotency rejects a request whose Idempotency-Key was already seen within
// ttl with 409 DUPLICATE_REQUEST. Keys are scoped to method and route. When
// the request fails (status >= 400) the key is released so the client can
// retry it, also when the handler panics. Requests without the header pass
// through.
func Idempotency(store shared.IdempotencyStore, ttl time.Duration, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
		if header == "" || store == nil {
			c.Next()
			return
		}
		if len(header) > MaxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeBadRequest, "Idempotency-Key is too long", getRequestID(c)))
			return
		}

		ctx := c.Request.Context()
		key := httpKeyPrefix + c.Request.Method + ":" + c.FullPath() + ":" + header
		isNew, err := store.MarkProcessed(ctx, key, ttl)
		if err != nil {
			logger.Warn("Idempotency store unavailable, processing request",
				zap.String("idempotency_key", header), zap.Error(err))
			c.Next()
			return
		}
		if !isNew {
			c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeDuplicateRequest,
				"A request with this Idempotency-Key was already processed",
				getRequestID(c)))
			return
		}

		release := func() {
			if err := store.Release(context.WithoutCancel(ctx), key); err != nil {
				logger.Warn("Failed to release idempotency key",
					zap.String("idempotency_key", header), zap.Error(err))
			}
		}
		// a panicking handler never wrote its response, so the key is freed
		// before the panic reaches the recovery middleware
		defer func() {
			if r := recover(); r != nil {
				release()
				panic(r)
			}
			if c.Writer.Status() >= http.StatusBadRequest {
				release()
			}
		}()

		c.Next()
	}
}
