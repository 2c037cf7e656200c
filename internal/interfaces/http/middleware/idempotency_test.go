package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sistemita/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	mock.Mock
}

func (s *failingStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := s.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (s *failingStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := s.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (s *failingStore) Release(ctx context.Context, key string) error {
	return s.Called(ctx, key).Error(0)
}

func (s *failingStore) Close() error { return nil }

func newIdempotentRouter(t *testing.T, status *int) (*gin.Engine, *cache.InMemoryIdempotencyStore, *int) {
	t.Helper()
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })

	calls := 0
	router := gin.New()
	router.Use(RequestID())
	router.POST("/imputations", Idempotency(store, time.Hour, nil), func(c *gin.Context) {
		calls++
		c.Status(*status)
	})
	return router, store, &calls
}

func post(router *gin.Engine, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/imputations", nil)
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIdempotency(t *testing.T) {
	t.Run("second request with the same key is rejected", func(t *testing.T) {
		status := http.StatusCreated
		router, _, calls := newIdempotentRouter(t, &status)

		assert.Equal(t, http.StatusCreated, post(router, "k1").Code)
		w := post(router, "k1")

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "DUPLICATE_REQUEST")
		assert.Contains(t, w.Body.String(), w.Header().Get(RequestIDHeader))
		assert.Equal(t, 1, *calls)

		assert.Equal(t, http.StatusCreated, post(router, "k2").Code)
		assert.Equal(t, 2, *calls)
	})

	t.Run("failed request releases its key", func(t *testing.T) {
		status := http.StatusUnprocessableEntity
		router, store, calls := newIdempotentRouter(t, &status)

		assert.Equal(t, http.StatusUnprocessableEntity, post(router, "k1").Code)
		assert.Equal(t, 0, store.Len())

		status = http.StatusCreated
		assert.Equal(t, http.StatusCreated, post(router, "k1").Code)
		assert.Equal(t, 2, *calls)
	})

	t.Run("requests without a key pass through", func(t *testing.T) {
		status := http.StatusCreated
		router, store, calls := newIdempotentRouter(t, &status)

		post(router, "")
		post(router, "")
		assert.Equal(t, 2, *calls)
		assert.Equal(t, 0, store.Len())
	})

	t.Run("oversized key is rejected", func(t *testing.T) {
		status := http.StatusCreated
		router, _, calls := newIdempotentRouter(t, &status)

		w := post(router, strings.Repeat("k", MaxIdempotencyKeyLength+1))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, 0, *calls)
	})
}

func TestIdempotency_StoreFailureProcessesRequest(t *testing.T) {
	store := new(failingStore)
	store.On("MarkProcessed", mock.Anything, "http:POST:/imputations:k1", time.Hour).
		Return(false, errors.New("connection refused"))

	calls := 0
	router := gin.New()
	router.POST("/imputations", Idempotency(store, time.Hour, nil), func(c *gin.Context) {
		calls++
		c.Status(http.StatusCreated)
	})

	w := post(router, "k1")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, calls)
	store.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
}

func TestIdempotency_ReleasesKeyWhenHandlerPanics(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })

	calls := 0
	router := gin.New()
	router.Use(gin.Recovery())
	router.POST("/imputations", Idempotency(store, time.Hour, nil), func(c *gin.Context) {
		calls++
		if calls == 1 {
			panic("boom")
		}
		c.Status(http.StatusCreated)
	})

	w := post(router, "key-panic")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	assert.Equal(t, 0, store.Len())

	w = post(router, "key-panic")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 2, calls)
}
