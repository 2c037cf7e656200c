package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sistemita/backend/internal/domain/shared"
	"github.com/sistemita/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) Release(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockStore) Close() error {
	return nil
}

func TestIdempotentHandler_SkipsRedelivery(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	inner := newTestHandler("TestEvent")
	h := NewIdempotentHandler(inner, store, shared.DefaultIdempotencyConfig(), nil)
	ev := newTestEvent("TestEvent")

	require.NoError(t, h.Handle(context.Background(), ev))
	require.NoError(t, h.Handle(context.Background(), ev))

	assert.Len(t, inner.getHandled(), 1)
	assert.Equal(t, []string{"TestEvent"}, h.EventTypes())
}

func TestIdempotentHandler_FailureReleasesKey(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	inner := newTestHandler("TestEvent")
	inner.setError(errors.New("downstream unavailable"))
	h := NewIdempotentHandler(inner, store, shared.DefaultIdempotencyConfig(), nil)
	ev := newTestEvent("TestEvent")

	assert.Error(t, h.Handle(context.Background(), ev))

	inner.setError(nil)
	require.NoError(t, h.Handle(context.Background(), ev))
	assert.Len(t, inner.getHandled(), 2)
}

func TestIdempotentHandler_StoreError(t *testing.T) {
	store := new(mockStore)
	ev := newTestEvent("TestEvent")
	store.On("MarkProcessed", mock.Anything, "event:"+ev.EventID().String(), 24*time.Hour).
		Return(false, errors.New("redis down"))
	inner := newTestHandler("TestEvent")
	h := NewIdempotentHandler(inner, store, shared.DefaultIdempotencyConfig(), nil)

	require.NoError(t, h.Handle(context.Background(), ev))

	assert.Len(t, inner.getHandled(), 1)
	store.AssertExpectations(t)
}

func TestIdempotentHandler_Disabled(t *testing.T) {
	store := new(mockStore)
	inner := newTestHandler("TestEvent")
	h := NewIdempotentHandler(inner, store, shared.IdempotencyConfig{Enabled: false}, nil)
	ev := newTestEvent("TestEvent")

	require.NoError(t, h.Handle(context.Background(), ev))
	require.NoError(t, h.Handle(context.Background(), ev))

	assert.Len(t, inner.getHandled(), 2)
	store.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything, mock.Anything)
}
