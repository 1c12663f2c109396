package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/stretchr/testify/require"
)

func TestMaskToken(t *testing.T) {
	require.Equal(t, "abcdef…", MaskToken("abcdefghijkl"))
	require.Equal(t, "***", MaskToken("abc"))
	require.Equal(t, "", MaskToken(""))
}

func TestMaskEmail(t *testing.T) {
	require.Equal(t, "j***@example.com", MaskEmail("juan@example.com"))
	require.Equal(t, "***", MaskEmail("bad"))
}

func TestSanitize(t *testing.T) {
	require.Equal(t, "abc", Sanitize("a\nb\x00c", 10))
	require.Equal(t, "ñañ", Sanitize("ñañaña", 3))
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, zapcore.WarnLevel, parseLevel("WARNING"))
	require.Equal(t, zapcore.DebugLevel, parseLevel(" debug "))
	require.Equal(t, zapcore.InfoLevel, parseLevel(""))
	require.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestBuild(t *testing.T) {
	require.False(t, build(Config{Env: "test"}).Core().Enabled(zapcore.ErrorLevel))

	l := build(Config{Env: "prod", Level: "warn"})
	require.False(t, l.Core().Enabled(zapcore.InfoLevel))
	require.True(t, l.Core().Enabled(zapcore.WarnLevel))

	require.Len(t, baseFields(Config{Env: "staging", ServiceName: "loyaltyauth"}), 2)
	require.Len(t, baseFields(Config{Env: "dev", ServiceName: "loyaltyauth"}), 1)
}
