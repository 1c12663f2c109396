package logger

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// =================================================================================
// CAMPOS ESTÁNDAR - HTTP
// =================================================================================

// RequestID crea un campo para el ID del request.
func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

// Method crea un campo para el método HTTP.
func Method(v string) zap.Field {
	return zap.String("method", v)
}

// Path crea un campo para el path del request.
func Path(v string) zap.Field {
	return zap.String("path", v)
}

// Status crea un campo para el status code HTTP.
func Status(v int) zap.Field {
	return zap.Int("status", v)
}

// DurationMs crea un campo para la duración en milisegundos.
func DurationMs(v int64) zap.Field {
	return zap.Int64("duration_ms", v)
}

// Bytes crea un campo para los bytes de respuesta.
func Bytes(v int) zap.Field {
	return zap.Int("bytes", v)
}

// ClientIP crea un campo para la IP del cliente.
func ClientIP(v string) zap.Field {
	return zap.String("client_ip", v)
}

// UserAgent crea un campo para el User-Agent, truncado a 256 runas.
func UserAgent(v string) zap.Field {
	return zap.String("user_agent", truncate(v, 256))
}

// =================================================================================
// CAMPOS ESTÁNDAR - OAUTH
// =================================================================================

// Provider crea un campo para el proveedor OAuth (google, line).
func Provider(v string) zap.Field {
	return zap.String("provider", v)
}

// Phase crea un campo para la fase del flujo (start, callback, exchange, resolve).
func Phase(v string) zap.Field {
	return zap.String("phase", v)
}

// ErrorCode crea un campo para el código de error expuesto al usuario.
func ErrorCode(v string) zap.Field {
	return zap.String("error_code", v)
}

// StateToken loguea solo un prefijo del token de estado.
func StateToken(v string) zap.Field {
	return zap.String("state", MaskToken(v))
}

// UserID crea un campo para el ID del usuario.
func UserID(v string) zap.Field {
	return zap.String("user_id", v)
}

// Email crea un campo con el email enmascarado.
func Email(v string) zap.Field {
	return zap.String("email", MaskEmail(v))
}

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

// Component crea un campo para el componente/módulo.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Op crea un campo para la operación actual.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Layer crea un campo para la capa (controller, service, repository).
func Layer(v string) zap.Field {
	return zap.String("layer", v)
}

// Err crea un campo para un error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// =================================================================================
// CAMPOS ESTÁNDAR - DATOS
// =================================================================================

// Count crea un campo para un conteo.
func Count(v int) zap.Field {
	return zap.Int("count", v)
}

// Any crea un campo genérico para cualquier tipo.
func Any(key string, v any) zap.Field {
	return zap.Any(key, v)
}

// String crea un campo string genérico.
func String(key, v string) zap.Field {
	return zap.String(key, v)
}

// Int crea un campo int genérico.
func Int(key string, v int) zap.Field {
	return zap.Int(key, v)
}

// Int64 crea un campo int64 genérico.
func Int64(key string, v int64) zap.Field {
	return zap.Int64(key, v)
}

// Bool crea un campo bool genérico.
func Bool(key string, v bool) zap.Field {
	return zap.Bool(key, v)
}

// =================================================================================
// SANITIZADO
// =================================================================================

// MaskToken deja visibles los primeros 6 caracteres.
func MaskToken(v string) string {
	if len(v) <= 6 {
		return strings.Repeat("*", len(v))
	}
	return v[:6] + "…"
}

// MaskEmail convierte "juan.perez@x.com" en "j***@x.com".
func MaskEmail(v string) string {
	at := strings.IndexByte(v, '@')
	if at <= 0 {
		return MaskToken(v)
	}
	return v[:1] + "***" + v[at:]
}

// Sanitize recorta y elimina caracteres de control de un valor controlado por el usuario.
func Sanitize(v string, max int) string {
	v = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, v)
	return truncate(v, max)
}

func truncate(v string, max int) string {
	if utf8.RuneCountInString(v) <= max {
		return v
	}
	return string([]rune(v)[:max])
}
