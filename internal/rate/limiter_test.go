package rate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLimiter(2, time.Minute)
	now := time.Date(2026, 1, 1, 10, 0, 10, 0, time.UTC)
	l.nowFn = func() time.Time { return now }

	r, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, r.Allowed)
	assert.Equal(t, int64(1), r.Remaining)

	r, _ = l.Allow(ctx, "1.2.3.4")
	assert.True(t, r.Allowed)
	assert.Equal(t, int64(0), r.Remaining)

	r, _ = l.Allow(ctx, "1.2.3.4")
	assert.False(t, r.Allowed)
	assert.Equal(t, int64(3), r.CurrentHits)
	assert.Equal(t, 50*time.Second, r.RetryAfter)

	// otra clave no comparte contador
	r, _ = l.Allow(ctx, "5.6.7.8")
	assert.True(t, r.Allowed)

	// ventana siguiente
	now = now.Add(time.Minute)
	r, _ = l.Allow(ctx, "1.2.3.4")
	assert.True(t, r.Allowed)
	assert.Equal(t, int64(1), r.CurrentHits)
}
