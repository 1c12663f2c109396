package oauthstate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dropDatabas3/loyaltyauth/internal/oauth"
	"github.com/stretchr/testify/require"
)

// fakeClock avanza solo cuando el test lo pide.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{t: time.Unix(1_700_000_000, 0)} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func sampleRecord(p oauth.Provider) Record {
	uid := "7f1c1a9e-0000-4000-8000-000000000001"
	return Record{
		SessionID:   "sess-1",
		UserID:      &uid,
		UserAgent:   "Mozilla/5.0",
		IP:          "203.0.113.7",
		Host:        "api.example.com",
		Secure:      true,
		Provider:    p,
		ReturnURL:   "https://app.example.com/profile",
		OriginalURL: "/api/oauth/" + string(p),
		IsPWA:       true,
		Platform:    "ios",
	}
}

// runContract ejercita las propiedades comunes a todos los backends.
func runContract(t *testing.T, s Store, clock *fakeClock, ttl time.Duration) {
	ctx := context.Background()

	t.Run("create then get returns equal record", func(t *testing.T) {
		in := sampleRecord(oauth.Google)
		in.Timestamp = clock.Now().UnixMilli()
		tok, err := s.Create(ctx, in)
		require.NoError(t, err)
		require.NotEmpty(t, tok)

		got, err := s.Get(ctx, tok, oauth.Google)
		require.NoError(t, err)
		in.Token = tok
		require.Equal(t, &in, got)

		// un segundo Get sigue viendo el registro hasta que se borre
		_, err = s.Get(ctx, tok, oauth.Google)
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, tok, oauth.Google))
		_, err = s.Get(ctx, tok, oauth.Google)
		require.ErrorIs(t, err, ErrNotFound)

		// idempotente
		require.NoError(t, s.Delete(ctx, tok, oauth.Google))
	})

	t.Run("wrong provider is not found", func(t *testing.T) {
		tok, err := s.Create(ctx, sampleRecord(oauth.Line))
		require.NoError(t, err)

		_, err = s.Get(ctx, tok, oauth.Google)
		require.ErrorIs(t, err, ErrNotFound)

		// borrar con el provider equivocado no toca el registro
		require.NoError(t, s.Delete(ctx, tok, oauth.Google))
		_, err = s.Get(ctx, tok, oauth.Line)
		require.NoError(t, err)
		require.NoError(t, s.Delete(ctx, tok, oauth.Line))
	})

	t.Run("unknown and empty tokens", func(t *testing.T) {
		_, err := s.Get(ctx, "does-not-exist", oauth.Google)
		require.ErrorIs(t, err, ErrNotFound)
		_, err = s.Get(ctx, "", oauth.Google)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("defaults", func(t *testing.T) {
		rec := sampleRecord(oauth.Line)
		rec.Platform = ""
		tok, err := s.Create(ctx, rec)
		require.NoError(t, err)
		got, err := s.Get(ctx, tok, oauth.Line)
		require.NoError(t, err)
		require.Equal(t, "web", got.Platform)
		require.Equal(t, clock.Now().UnixMilli(), got.Timestamp)
		require.NoError(t, s.Delete(ctx, tok, oauth.Line))
	})

	t.Run("invalid provider rejected", func(t *testing.T) {
		_, err := s.Create(ctx, sampleRecord("github"))
		require.Error(t, err)
	})

	t.Run("tokens are unique", func(t *testing.T) {
		seen := map[string]bool{}
		for i := 0; i < 20; i++ {
			tok, err := s.Create(ctx, sampleRecord(oauth.Google))
			require.NoError(t, err)
			require.False(t, seen[tok])
			seen[tok] = true
			require.NoError(t, s.Delete(ctx, tok, oauth.Google))
		}
	})

	t.Run("stats and expiry", func(t *testing.T) {
		st, err := s.Stats(ctx)
		require.NoError(t, err)
		require.Equal(t, 0, st.Total)
		require.Nil(t, st.OldestTimestamp)

		first, err := s.Create(ctx, sampleRecord(oauth.Google))
		require.NoError(t, err)
		clock.Advance(time.Second)
		_, err = s.Create(ctx, sampleRecord(oauth.Line))
		require.NoError(t, err)
		_, err = s.Create(ctx, sampleRecord(oauth.Line))
		require.NoError(t, err)

		st, err = s.Stats(ctx)
		require.NoError(t, err)
		require.Equal(t, 3, st.Total)
		require.Equal(t, 1, st.ByProvider["google"])
		require.Equal(t, 2, st.ByProvider["line"])
		require.NotNil(t, st.OldestTimestamp)
		require.Equal(t, clock.Now().Add(-time.Second).UnixMilli(), *st.OldestTimestamp)

		clock.Advance(ttl + time.Second)

		// vencido: nunca se devuelve aunque siga físicamente guardado
		_, err = s.Get(ctx, first, oauth.Google)
		require.ErrorIs(t, err, ErrNotFound)

		n, err := s.CleanupExpired(ctx)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, 2)

		st, err = s.Stats(ctx)
		require.NoError(t, err)
		require.Equal(t, 0, st.Total)

		n, err = s.CleanupExpired(ctx)
		require.NoError(t, err)
		require.Equal(t, 0, n)
	})

	t.Run("take returns the record once", func(t *testing.T) {
		tok, err := s.Create(ctx, sampleRecord(oauth.Google))
		require.NoError(t, err)

		_, err = s.Take(ctx, tok, oauth.Line)
		require.ErrorIs(t, err, ErrNotFound)

		const n = 16
		var (
			wg  sync.WaitGroup
			mu  sync.Mutex
			got int
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				rec, err := s.Take(ctx, tok, oauth.Google)
				if err == nil && rec != nil && rec.Token == tok {
					mu.Lock()
					got++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		require.Equal(t, 1, got)

		_, err = s.Get(ctx, tok, oauth.Google)
		require.ErrorIs(t, err, ErrNotFound)

		_, err = s.Take(ctx, "", oauth.Google)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("take of expired record is not found", func(t *testing.T) {
		tok, err := s.Create(ctx, sampleRecord(oauth.Line))
		require.NoError(t, err)
		clock.Advance(ttl + time.Second)
		_, err = s.Take(ctx, tok, oauth.Line)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("concurrent create get delete", func(t *testing.T) {
		var wg sync.WaitGroup
		errs := make(chan error, 64)
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				tok, err := s.Create(ctx, sampleRecord(oauth.Google))
				if err != nil {
					errs <- err
					return
				}
				if _, err := s.Get(ctx, tok, oauth.Google); err != nil {
					errs <- err
					return
				}
				if err := s.Delete(ctx, tok, oauth.Google); err != nil {
					errs <- err
				}
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}
	})
}
