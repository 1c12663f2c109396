package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/loyaltyauth/internal/identity"
	"github.com/jackc/pgx/v5"
)

// DefaultTierName es el tier de entrada al programa.
const DefaultTierName = "Bronze"

// Loyalty da de alta usuarios en el programa de loyalty.
type Loyalty struct{ s *Store }

// Loyalty devuelve el identity.LoyaltyEnroller sobre s.
func (s *Store) Loyalty() *Loyalty { return &Loyalty{s: s} }

var _ identity.LoyaltyEnroller = (*Loyalty)(nil)

// Ensure crea la fila user_loyalty si falta. Idempotente.
func (l *Loyalty) Ensure(ctx context.Context, userID string) error {
	tier, err := l.defaultTier(ctx)
	if err != nil {
		return err
	}
	_, err = l.s.pool.Exec(ctx, `
		INSERT INTO user_loyalty (user_id, tier_id, current_points, total_nights, lifetime_points)
		VALUES ($1::uuid, $2::uuid, 0, 0, 0)
		ON CONFLICT (user_id) DO NOTHING`,
		userID, tier)
	return err
}

// defaultTier: Bronze, o el tier más bajo si no existe.
func (l *Loyalty) defaultTier(ctx context.Context) (string, error) {
	var id string
	err := l.s.pool.QueryRow(ctx, `
		SELECT id::text FROM tiers
		ORDER BY (name = $1) DESC, min_points ASC
		LIMIT 1`, DefaultTierName).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("no loyalty tiers configured")
	}
	return id, err
}

// Notifications crea las preferencias de notificación por defecto.
type Notifications struct{ s *Store }

// Notifications devuelve el identity.NotificationDefaults sobre s.
func (s *Store) Notifications() *Notifications { return &Notifications{s: s} }

var _ identity.NotificationDefaults = (*Notifications)(nil)

func (n *Notifications) Ensure(ctx context.Context, userID string) error {
	_, err := n.s.pool.Exec(ctx,
		`INSERT INTO notification_preferences (user_id) VALUES ($1::uuid) ON CONFLICT (user_id) DO NOTHING`,
		userID)
	return err
}
