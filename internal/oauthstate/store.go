// Package oauthstate persiste los registros efímeros que correlacionan el
// inicio de un login OAuth con su callback.
//
// Soporta:
//   - Redis (distribuido, TTL nativo, para producción)
//   - Memory (in-process, sin TTL nativo: requiere CleanupExpired periódico)
//
// Un registro se consume como máximo una vez y nunca se devuelve vencido,
// aunque el backend todavía no lo haya desalojado.
package oauthstate

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/loyaltyauth/internal/oauth"
)

// DefaultTTL es la vida de un registro: 10 minutos.
const DefaultTTL = 10 * time.Minute

const keyPrefix = "oauth_state"

var (
	ErrNotFound    = errors.New("oauthstate: not found")
	ErrUnavailable = errors.New("oauthstate: backend unavailable")
)

// Record es el estado guardado entre el inicio y el callback.
type Record struct {
	Token        string         `json:"token"`
	SessionID    string         `json:"sessionId"`
	UserID       *string        `json:"userId,omitempty"`
	UserAgent    string         `json:"userAgent"`
	IP           string         `json:"ip"`
	Host         string         `json:"host"`
	Secure       bool           `json:"secure"`
	Provider     oauth.Provider `json:"provider"`
	ReturnURL    string         `json:"returnUrl"`
	OriginalURL  string         `json:"originalUrl"`
	Timestamp    int64          `json:"timestamp"` // unix ms
	IsPWA        bool           `json:"isPWA"`
	IsStandalone bool           `json:"isStandalone"`
	Platform     string         `json:"platform"`
}

// CreatedAt devuelve Timestamp como time.Time.
func (r *Record) CreatedAt() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// Age es el tiempo transcurrido desde la creación.
func (r *Record) Age(now time.Time) time.Duration {
	return now.Sub(r.CreatedAt())
}

func (r *Record) clone() *Record {
	c := *r
	if r.UserID != nil {
		uid := *r.UserID
		c.UserID = &uid
	}
	return &c
}

// Stats agrega conteos para monitoreo.
type Stats struct {
	Total           int            `json:"total"`
	ByProvider      map[string]int `json:"byProvider"`
	OldestTimestamp *int64         `json:"oldestTimestamp,omitempty"`
	Backend         string         `json:"backend"`
}

func (s *Stats) add(r *Record) {
	s.Total++
	s.ByProvider[string(r.Provider)]++
	if s.OldestTimestamp == nil || r.Timestamp < *s.OldestTimestamp {
		ts := r.Timestamp
		s.OldestTimestamp = &ts
	}
}

// Store define las operaciones sobre registros de estado.
type Store interface {
	// Create genera un token nuevo, persiste el registro con TTL y devuelve el token.
	Create(ctx context.Context, rec Record) (string, error)

	// Get devuelve ErrNotFound si el token no existe, venció o pertenece a otro provider.
	Get(ctx context.Context, token string, provider oauth.Provider) (*Record, error)

	// Take es Get + Delete atómico: de dos callbacks con el mismo token
	// sólo uno recibe el registro.
	Take(ctx context.Context, token string, provider oauth.Provider) (*Record, error)

	// Delete es idempotente.
	Delete(ctx context.Context, token string, provider oauth.Provider) error

	// Stats nunca falla por un store vacío.
	Stats(ctx context.Context) (Stats, error)

	// CleanupExpired elimina registros vencidos y devuelve cuántos borró.
	CleanupExpired(ctx context.Context) (int, error)

	Ping(ctx context.Context) error
	Close() error
}

// Config configura el backend.
type Config struct {
	Backend string // "redis" | "memory"
	TTL     time.Duration
	Redis   RedisConfig
}

// RedisConfig acepta una URL (redis://...) o Addr.
type RedisConfig struct {
	URL      string
	Addr     string
	Password string
	DB       int
}

// New crea el store según la configuración.
func New(cfg Config) (Store, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	switch strings.ToLower(cfg.Backend) {
	case "redis":
		return NewRedis(cfg.Redis, cfg.TTL)
	case "memory", "":
		return NewMemory(cfg.TTL), nil
	default:
		return nil, fmt.Errorf("oauthstate: unknown backend %q", cfg.Backend)
	}
}

// NewToken genera 32 bytes aleatorios en base64url sin padding.
func NewToken() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b[:]), nil
}

func key(provider oauth.Provider, token string) string {
	return keyPrefix + ":" + string(provider) + ":" + token
}

// prepare completa Token y Timestamp antes de persistir.
func prepare(rec *Record, now time.Time) error {
	if _, ok := oauth.ParseProvider(string(rec.Provider)); !ok {
		return fmt.Errorf("oauthstate: invalid provider %q", rec.Provider)
	}
	tok, err := NewToken()
	if err != nil {
		return fmt.Errorf("oauthstate: token: %w", err)
	}
	rec.Token = tok
	if rec.Timestamp == 0 {
		rec.Timestamp = now.UnixMilli()
	}
	if rec.Platform == "" {
		rec.Platform = "web"
	}
	return nil
}

func expired(rec *Record, ttl time.Duration, now time.Time) bool {
	return rec.Age(now) > ttl
}

func emptyStats(backend string) Stats {
	return Stats{ByProvider: map[string]int{}, Backend: backend}
}
