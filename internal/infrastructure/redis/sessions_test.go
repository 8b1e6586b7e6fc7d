package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/marque-api/internal/config"
	"github.com/marque-api/internal/domain"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionStore(client), mr
}

func TestSessionStore_RoundTrip(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	issued := time.Now().UTC().Truncate(time.Second)
	sess := &domain.Session{Token: "abc", AdminID: 9, Market: domain.MarketUS, IssuedAt: issued, ExpiresAt: issued.Add(12 * time.Hour)}

	require.NoError(t, store.Save(ctx, sess))
	assert.True(t, mr.Exists(keyPrefix+"abc"))
	assert.InDelta(t, (12 * time.Hour).Seconds(), mr.TTL(keyPrefix+"abc").Seconds(), 5)

	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", got.Token)
	assert.Equal(t, int64(9), got.AdminID)
	assert.Equal(t, domain.MarketUS, got.Market)
	assert.True(t, got.ExpiresAt.Equal(sess.ExpiresAt))
}

func TestSessionStore_ExpiresWithSession(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	sess := &domain.Session{Token: "abc", AdminID: 9, Market: domain.MarketKG, ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Save(ctx, sess))

	mr.FastForward(2 * time.Hour)

	_, err := store.Get(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionStore_DeleteIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &domain.Session{Token: "abc", ExpiresAt: time.Now().Add(time.Hour)}))

	require.NoError(t, store.Delete(ctx, "abc"))
	require.NoError(t, store.Delete(ctx, "abc"))

	_, err := store.Get(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(context.Background(), config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	_ = client.Close()

	addr := mr.Addr()
	mr.Close()
	_, err = NewClient(context.Background(), config.RedisConfig{Addr: addr})
	assert.Error(t, err)
}
