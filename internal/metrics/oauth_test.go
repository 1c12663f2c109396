package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Idempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))
	require.NoError(t, Register(reg))
}

func TestCollectors(t *testing.T) {
	Callbacks.WithLabelValues("line", "oauth_token_failed").Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(Callbacks.WithLabelValues("line", "oauth_token_failed")))

	SetStateRecords(map[string]int{"google": 3}, []string{"google", "line"})
	assert.Equal(t, 3.0, testutil.ToFloat64(StateRecords.WithLabelValues("google")))
	assert.Equal(t, 0.0, testutil.ToFloat64(StateRecords.WithLabelValues("line")))

	ObserveProvider("google", "exchange", time.Now())
	assert.Equal(t, 1, testutil.CollectAndCount(ProviderDuration))
}
