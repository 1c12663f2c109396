package oauthstate

import (
	"context"
	"testing"
	"time"

	"github.com/dropDatabas3/loyaltyauth/internal/oauth"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	clock := newFakeClock()
	s := newMemory(DefaultTTL, clock.Now)
	defer s.Close()

	runContract(t, s, clock, DefaultTTL)
}

func TestMemoryStore_ExactTTLBoundary(t *testing.T) {
	clock := newFakeClock()
	s := newMemory(time.Minute, clock.Now)
	ctx := context.Background()

	tok, err := s.Create(ctx, sampleRecord(oauth.Google))
	require.NoError(t, err)

	clock.Advance(time.Minute)
	_, err = s.Get(ctx, tok, oauth.Google)
	require.NoError(t, err)

	clock.Advance(time.Millisecond)
	_, err = s.Get(ctx, tok, oauth.Google)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := newMemory(DefaultTTL, time.Now)
	ctx := context.Background()

	tok, err := s.Create(ctx, sampleRecord(oauth.Line))
	require.NoError(t, err)

	got, err := s.Get(ctx, tok, oauth.Line)
	require.NoError(t, err)
	got.ReturnURL = "https://evil.example"
	*got.UserID = "tampered"

	again, err := s.Get(ctx, tok, oauth.Line)
	require.NoError(t, err)
	require.Equal(t, "https://app.example.com/profile", again.ReturnURL)
	require.NotEqual(t, "tampered", *again.UserID)
}

func TestNew(t *testing.T) {
	s, err := New(Config{Backend: "memory"})
	require.NoError(t, err)
	require.NoError(t, s.Ping(context.Background()))

	_, err = New(Config{Backend: "etcd"})
	require.Error(t, err)
}

func TestNewToken(t *testing.T) {
	tok, err := NewToken()
	require.NoError(t, err)
	require.Len(t, tok, 43)
	require.NotContains(t, tok, "=")
	require.NotContains(t, tok, "+")
	require.NotContains(t, tok, "/")
}
