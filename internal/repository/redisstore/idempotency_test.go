package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zeenoside1/shopify-product-addons-app/internal/domain"
)

func TestIdempotencyStore_GetUnknown(t *testing.T) {
	_, client := newTestRedis(t)
	store := NewIdempotencyStore(client)

	rec, err := store.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestIdempotencyStore_FirstSaveWins(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewIdempotencyStore(client)
	ctx := context.Background()

	first := &domain.IdempotencyRecord{Key: "k1", RequestHash: "h1", StatusCode: 201, Body: []byte(`{"id":"a"}`)}
	require.NoError(t, store.Save(ctx, first, time.Hour))
	require.NoError(t, store.Save(ctx, &domain.IdempotencyRecord{Key: "k1", RequestHash: "h2", StatusCode: 400}, time.Hour))

	rec, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "h1", rec.RequestHash)
	assert.Equal(t, 201, rec.StatusCode)
	assert.JSONEq(t, `{"id":"a"}`, string(rec.Body))

	mr.FastForward(2 * time.Hour)
	rec, err = store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Nil(t, rec)
}
