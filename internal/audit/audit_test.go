package audit

import (
	"context"
	"testing"

	"github.com/dropDatabas3/loyaltyauth/internal/observability/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := logger.ToContext(context.Background(), zap.New(core))

	Log(ctx, EventOAuthLogin, map[string]any{"provider": "line", "user_id": "u-1"})

	entries := logs.All()
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "audit", e.LoggerName)
	m := e.ContextMap()
	assert.Equal(t, EventOAuthLogin, m["event"])
	assert.Equal(t, "line", m["provider"])
	assert.Equal(t, "u-1", m["user_id"])
}
