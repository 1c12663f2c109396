package health

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ok(context.Context) error   { return nil }
func fail(context.Context) error { return assert.AnError }

func TestCheck(t *testing.T) {
	tests := []struct {
		name   string
		deps   Deps
		status string
		db     string
	}{
		{"all ok", Deps{StateCheck: ok, DBCheck: ok}, "ready", "ok"},
		{"memory identity", Deps{StateCheck: ok}, "ready", "disabled"},
		{"db down", Deps{StateCheck: ok, DBCheck: fail}, "degraded", "error"},
		{"state down", Deps{StateCheck: fail, DBCheck: ok}, "unavailable", "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewHealthService(tt.deps).Check(context.Background())
			assert.Equal(t, tt.status, resp.Status)
			assert.Equal(t, tt.db, resp.Components["db"].Status)
		})
	}
}
