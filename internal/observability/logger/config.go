package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config configura el logger.
type Config struct {
	// Env: "dev" consola con colores; "staging" y "prod" JSON; "test" descarta todo.
	Env string

	// Level: debug | info | warn | error. Default info.
	Level string

	ServiceName string
	Version     string
}

func (c Config) json() bool {
	switch strings.ToLower(strings.TrimSpace(c.Env)) {
	case "prod", "production", "staging":
		return true
	}
	return false
}

// build arma el logger. Nunca devuelve nil: si zap falla cae a NewProduction.
func build(cfg Config) *zap.Logger {
	if strings.EqualFold(cfg.Env, "test") {
		return zap.NewNop()
	}

	var zcfg zap.Config
	opts := []zap.Option{zap.AddCaller()}
	if cfg.json() {
		zcfg = zap.NewProductionConfig()
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	} else {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zcfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		zcfg.DisableStacktrace = true
	}
	zcfg.Level = zap.NewAtomicLevelAt(parseLevel(cfg.Level))
	zcfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	if base := baseFields(cfg); len(base) > 0 {
		opts = append(opts, zap.Fields(base...))
	}

	l, err := zcfg.Build(opts...)
	if err != nil {
		l, _ = zap.NewProduction()
	}
	return l
}

func baseFields(cfg Config) []zap.Field {
	var f []zap.Field
	if cfg.ServiceName != "" {
		f = append(f, zap.String("service", cfg.ServiceName))
	}
	if cfg.Version != "" {
		f = append(f, zap.String("version", cfg.Version))
	}
	// en JSON el env sirve para filtrar entre staging y prod
	if cfg.json() {
		f = append(f, zap.String("env", strings.ToLower(cfg.Env)))
	}
	return f
}

// parseLevel acepta también "warning"; cualquier valor inválido es info.
func parseLevel(lvl string) zapcore.Level {
	s := strings.ToLower(strings.TrimSpace(lvl))
	if s == "warning" {
		s = "warn"
	}
	l, err := zapcore.ParseLevel(s)
	if err != nil || s == "" {
		return zapcore.InfoLevel
	}
	return l
}
