package jwt

import (
	"errors"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// ParseAccess valida firma HS256 y exp (con 30s de tolerancia) y rechaza refresh tokens.
func (i *Issuer) ParseAccess(token string) (*Claims, error) {
	c, err := i.parse(token)
	if err != nil {
		return nil, err
	}
	if c.Type == TypeRefresh {
		return nil, ErrWrongType
	}
	return c, nil
}

// ParseRefresh es el inverso: solo acepta type=refresh.
func (i *Issuer) ParseRefresh(token string) (*Claims, error) {
	c, err := i.parse(token)
	if err != nil {
		return nil, err
	}
	if c.Type != TypeRefresh {
		return nil, ErrWrongType
	}
	return c, nil
}

func (i *Issuer) parse(token string) (*Claims, error) {
	var c Claims
	tok, err := jwtv5.ParseWithClaims(token, &c,
		func(*jwtv5.Token) (any, error) { return i.secret, nil },
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithLeeway(leeway),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !tok.Valid || c.UserID == "" {
		return nil, ErrTokenInvalid
	}
	return &c, nil
}

// Decode lee las claims sin verificar la firma. Solo para diagnóstico (CLI).
func Decode(token string) (jwtv5.MapClaims, map[string]any, error) {
	claims := jwtv5.MapClaims{}
	tok, _, err := jwtv5.NewParser().ParseUnverified(token, claims)
	if err != nil {
		return nil, nil, err
	}
	return claims, tok.Header, nil
}
