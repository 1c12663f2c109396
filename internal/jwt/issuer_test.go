package jwt

import (
	"strings"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestIssuer(t *testing.T, now time.Time) *Issuer {
	t.Helper()
	i, err := NewIssuer(testSecret, 0, 0)
	require.NoError(t, err)
	i.now = func() time.Time { return now }
	return i
}

func TestNewIssuer_Defaults(t *testing.T) {
	i, err := NewIssuer(testSecret, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultAccessTTL, i.AccessTTL)
	assert.Equal(t, DefaultRefreshTTL, i.RefreshTTL)

	_, err = NewIssuer("", time.Hour, time.Hour)
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestMint_Claims(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	i := newTestIssuer(t, now)
	email := "ada@example.com"

	pair, err := i.Mint(Subject{ID: "u-1", Email: &email, Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, now.Add(24*time.Hour), pair.AccessExpiresAt)
	assert.Equal(t, now.Add(7*24*time.Hour), pair.RefreshExpiresAt)

	access, header, err := Decode(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "HS256", header["alg"])
	assert.Equal(t, "u-1", access["id"])
	assert.Equal(t, "ada@example.com", access["email"])
	assert.Equal(t, "admin", access["role"])
	assert.Equal(t, float64(now.Unix()), access["iat"])
	assert.Equal(t, float64(now.Add(24*time.Hour).Unix()), access["exp"])
	assert.NotContains(t, access, "type")

	refresh, _, err := Decode(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", refresh["id"])
	assert.Equal(t, "refresh", refresh["type"])
	assert.NotContains(t, refresh, "role")
	assert.NotContains(t, refresh, "email")
}

func TestParseAccess(t *testing.T) {
	now := time.Now()
	i := newTestIssuer(t, now)
	pair, err := i.Mint(Subject{ID: "u-1", Role: "customer"})
	require.NoError(t, err)

	c, err := i.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", c.UserID)
	assert.Nil(t, c.Email)
	assert.Equal(t, "customer", c.Role)

	_, err = i.ParseAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrWrongType)

	rc, err := i.ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", rc.UserID)
	_, err = i.ParseRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestParseAccess_Expiry(t *testing.T) {
	start := time.Now()
	i := newTestIssuer(t, start)
	i.AccessTTL = time.Minute
	pair, err := i.Mint(Subject{ID: "u-1"})
	require.NoError(t, err)

	// dentro del leeway
	i.now = func() time.Time { return start.Add(time.Minute + 20*time.Second) }
	_, err = i.ParseAccess(pair.AccessToken)
	require.NoError(t, err)

	i.now = func() time.Time { return start.Add(2 * time.Minute) }
	_, err = i.ParseAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseAccess_Rejects(t *testing.T) {
	i := newTestIssuer(t, time.Now())

	other, err := NewIssuer(strings.Repeat("z", 32), 0, 0)
	require.NoError(t, err)
	pair, err := other.Mint(Subject{ID: "u-1"})
	require.NoError(t, err)
	_, err = i.ParseAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	// HS512 con el mismo secreto
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS512, Claims{
		UserID:           "u-1",
		RegisteredClaims: jwtv5.RegisteredClaims{ExpiresAt: jwtv5.NewNumericDate(time.Now().Add(time.Hour))},
	})
	s, err := tk.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = i.ParseAccess(s)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	// sin exp
	tk = jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, Claims{UserID: "u-1"})
	s, err = tk.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = i.ParseAccess(s)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = i.ParseAccess("not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
