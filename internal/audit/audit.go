// Package audit emite eventos de auditoría estructurados en el logger "audit".
// La traza persistente por usuario vive en user_audit_log (identity.Repository).
package audit

import (
	"context"
	"sort"

	"github.com/dropDatabas3/loyaltyauth/internal/observability/logger"
	"go.uber.org/zap"
)

const (
	EventOAuthLogin        = "oauth_login"
	EventOAuthLink         = "oauth_link"
	EventOAuthStateCleanup = "oauth_state_cleanup"
)

// Log escribe un evento de auditoría estructurado, con los campos ordenados por clave.
func Log(ctx context.Context, event string, fields map[string]any) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	zf := make([]zap.Field, 0, len(keys)+1)
	zf = append(zf, zap.String("event", event))
	for _, k := range keys {
		zf = append(zf, zap.Any(k, fields[k]))
	}
	logger.From(ctx).Named("audit").Info("audit", zf...)
}
