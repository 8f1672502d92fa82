package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/ndvi-service/internal/ndvi"
)

func TestMemoryStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	_, ok, err := s.GetToken(ctx, "acct/container")
	require.NoError(t, err)
	assert.False(t, ok)

	tok := ndvi.SASToken{Value: "sig=1", Expiry: time.Now().Add(time.Hour)}
	require.NoError(t, s.SaveToken(ctx, "acct/container", tok))

	got, ok, err := s.GetToken(ctx, "acct/container")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, tok, got)
}

func TestMemoryStore_EvictsSoonestExpiring(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	s := NewMemoryStore(2)

	require.NoError(t, s.SaveToken(ctx, "a", ndvi.SASToken{Value: "a", Expiry: now.Add(3 * time.Hour)}))
	require.NoError(t, s.SaveToken(ctx, "b", ndvi.SASToken{Value: "b", Expiry: now.Add(time.Hour)}))
	require.NoError(t, s.SaveToken(ctx, "c", ndvi.SASToken{Value: "c", Expiry: now.Add(2 * time.Hour)}))

	assert.Equal(t, 2, s.Len())
	_, ok, _ := s.GetToken(ctx, "b")
	assert.False(t, ok)

	// Overwriting an existing key never evicts.
	require.NoError(t, s.SaveToken(ctx, "a", ndvi.SASToken{Value: "a2", Expiry: now.Add(4 * time.Hour)}))
	assert.Equal(t, 2, s.Len())
}

func TestMemoryStore_Prune(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	s := NewMemoryStore(0)

	require.NoError(t, s.SaveToken(ctx, "expired", ndvi.SASToken{Value: "x", Expiry: now.Add(-time.Minute)}))
	require.NoError(t, s.SaveToken(ctx, "edge", ndvi.SASToken{Value: "y", Expiry: now}))
	require.NoError(t, s.SaveToken(ctx, "live", ndvi.SASToken{Value: "z", Expiry: now.Add(time.Minute)}))

	assert.Equal(t, 2, s.Prune(now))
	assert.Equal(t, 1, s.Len())
	_, ok, _ := s.GetToken(ctx, "live")
	assert.True(t, ok)
}

func TestSASTokenValid(t *testing.T) {
	now := time.Now()
	tok := ndvi.SASToken{Value: "sig", Expiry: now.Add(10 * time.Minute)}
	assert.True(t, tok.Valid(now, 5*time.Minute))
	assert.False(t, tok.Valid(now, 15*time.Minute))
	assert.False(t, ndvi.SASToken{Expiry: now.Add(time.Hour)}.Valid(now, 0))
}
