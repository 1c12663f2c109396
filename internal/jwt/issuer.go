// Package jwt emite y valida los tokens de sesión (HS256) entregados al
// frontend al terminar un login OAuth.
package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

const (
	DefaultAccessTTL  = 24 * time.Hour
	DefaultRefreshTTL = 7 * 24 * time.Hour

	// TypeRefresh marca los refresh tokens en el claim "type".
	TypeRefresh = "refresh"

	leeway = 30 * time.Second
)

var (
	ErrTokenInvalid = errors.New("invalid_token")
	ErrTokenExpired = errors.New("token_expired")
	ErrWrongType    = errors.New("wrong_token_type")
	ErrEmptySecret  = errors.New("jwt secret is empty")
)

// Subject es lo que se firma de un usuario.
type Subject struct {
	ID    string
	Email *string
	Role  string
}

// Claims es el payload de ambos tokens. El refresh solo lleva id, type
// y los claims de tiempo.
type Claims struct {
	UserID string  `json:"id"`
	Email  *string `json:"email,omitempty"`
	Role   string  `json:"role,omitempty"`
	Type   string  `json:"type,omitempty"`
	jwtv5.RegisteredClaims
}

// Pair es lo que el callback le entrega al frontend.
type Pair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Issuer firma con un secreto compartido.
type Issuer struct {
	secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	now        func() time.Time
}

// NewIssuer aplica los TTL por defecto cuando vienen en cero.
func NewIssuer(secret string, accessTTL, refreshTTL time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &Issuer{secret: []byte(secret), AccessTTL: accessTTL, RefreshTTL: refreshTTL, now: time.Now}, nil
}

// Mint firma el par access/refresh para sub.
func (i *Issuer) Mint(sub Subject) (Pair, error) {
	now := i.now().UTC().Truncate(time.Second)
	accessExp := now.Add(i.AccessTTL)
	refreshExp := now.Add(i.RefreshTTL)

	access, err := i.sign(Claims{
		UserID: sub.ID,
		Email:  sub.Email,
		Role:   sub.Role,
		RegisteredClaims: jwtv5.RegisteredClaims{
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(accessExp),
		},
	})
	if err != nil {
		return Pair{}, err
	}
	refresh, err := i.sign(Claims{
		UserID: sub.ID,
		Type:   TypeRefresh,
		RegisteredClaims: jwtv5.RegisteredClaims{
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(refreshExp),
		},
	})
	if err != nil {
		return Pair{}, err
	}
	return Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (i *Issuer) sign(c Claims) (string, error) {
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, c)
	tk.Header["typ"] = "JWT"
	return tk.SignedString(i.secret)
}
