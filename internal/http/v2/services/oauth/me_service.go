package oauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/loyaltyauth/internal/identity"
)

// MeService devuelve el usuario del access token.
type MeService interface {
	Me(ctx context.Context, userID string) (*identity.User, error)
}

type meService struct {
	users UserFinder
}

// NewMeService crea el service de /oauth/me.
func NewMeService(users UserFinder) MeService {
	return &meService{users: users}
}

func (s *meService) Me(ctx context.Context, userID string) (*identity.User, error) {
	if userID == "" {
		return nil, ErrUserNotFound
	}
	u, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, identity.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}
