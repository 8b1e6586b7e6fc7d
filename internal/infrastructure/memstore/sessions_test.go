package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/marque-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_SaveGetDelete(t *testing.T) {
	s := NewSessionStore()
	ctx := context.Background()
	sess := &domain.Session{Token: "tok", AdminID: 3, Market: domain.MarketKG, ExpiresAt: time.Now().Add(time.Hour)}

	require.NoError(t, s.Save(ctx, sess))
	got, err := s.Get(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.AdminID)
	assert.Equal(t, domain.MarketKG, got.Market)

	// Returned copies do not alias the stored session.
	got.Market = domain.MarketUS
	again, err := s.Get(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, domain.MarketKG, again.Market)

	require.NoError(t, s.Delete(ctx, "tok"))
	require.NoError(t, s.Delete(ctx, "tok"))
	_, err = s.Get(ctx, "tok")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionStore_Prune(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	s := NewSessionStore()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &domain.Session{Token: "old", ExpiresAt: now.Add(-time.Second)}))
	require.NoError(t, s.Save(ctx, &domain.Session{Token: "live", ExpiresAt: now.Add(time.Hour)}))

	assert.Equal(t, 1, s.Prune())
	_, err := s.Get(ctx, "old")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.Get(ctx, "live")
	assert.NoError(t, err)
}
