package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/loyaltyauth/internal/identity"
	"github.com/dropDatabas3/loyaltyauth/internal/oauth"
	"github.com/jackc/pgx/v5"
)

var _ identity.Repository = (*Store)(nil)
var _ identity.MembershipIDs = (*Store)(nil)

const selectUser = `
SELECT u.id::text, u.email, u.role::text, u.is_active, u.email_verified,
       u.oauth_provider, u.oauth_provider_id,
       p.first_name, p.last_name, p.avatar_url, p.membership_id, u.created_at
FROM users u
LEFT JOIN user_profiles p ON p.user_id = u.id
`

func scanUser(row pgx.Row) (*identity.User, error) {
	var (
		u         identity.User
		role      string
		createdAt time.Time
	)
	err := row.Scan(&u.ID, &u.Email, &role, &u.IsActive, &u.EmailVerified,
		&u.OAuthProvider, &u.OAuthProviderID,
		&u.FirstName, &u.LastName, &u.AvatarURL, &u.MembershipID, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, identity.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Role = identity.ParseRole(role)
	u.CreatedAt = &createdAt
	return &u, nil
}

func (s *Store) FindByProvider(ctx context.Context, provider oauth.Provider, subject string) (*identity.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		selectUser+`WHERE u.oauth_provider = $1 AND u.oauth_provider_id = $2`,
		provider.String(), subject))
}

func (s *Store) FindUnboundByEmail(ctx context.Context, email string) (*identity.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		selectUser+`WHERE LOWER(u.email) = LOWER($1) AND u.oauth_provider IS NULL LIMIT 1`,
		email))
}

func (s *Store) FindByID(ctx context.Context, id string) (*identity.User, error) {
	return scanUser(s.pool.QueryRow(ctx, selectUser+`WHERE u.id::text = $1`, id))
}

func (s *Store) LinkProvider(ctx context.Context, userID string, provider oauth.Provider, subject string, emailVerified bool) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users
		SET oauth_provider = $2, oauth_provider_id = $3,
		    email_verified = CASE WHEN $4::boolean THEN TRUE ELSE email_verified END,
		    updated_at = NOW()
		WHERE id::text = $1`,
		userID, provider.String(), subject, emailVerified)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return identity.ErrNotFound
	}
	return nil
}

// Create inserta users + user_profiles en una transacción.
func (s *Store) Create(ctx context.Context, in identity.NewUser) (*identity.User, error) {
	role := in.Role
	if role == "" {
		role = identity.RoleCustomer
	}
	var id string
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO users (email, password_hash, email_verified, role, oauth_provider, oauth_provider_id)
			VALUES ($1, '', $2, $3::user_role, $4, $5)
			RETURNING id::text`,
			in.Email, in.EmailVerified, string(role), in.Provider.String(), in.Subject,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO user_profiles (user_id, first_name, last_name, avatar_url, membership_id)
			VALUES ($1::uuid, $2, $3, $4, $5)`,
			id, in.FirstName, in.LastName, in.AvatarURL, in.MembershipID)
		if err != nil {
			return fmt.Errorf("insert profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.FindByID(ctx, id)
}

// MergeProfile nunca pisa valores con vacíos ni reemplaza avatares locales
// (/storage/… o emoji:…). Crea la fila de perfil si la cuenta no tenía.
func (s *Store) MergeProfile(ctx context.Context, userID string, upd identity.ProfileUpdate) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_profiles AS p (user_id, first_name, last_name, avatar_url)
		VALUES ($1::uuid, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''))
		ON CONFLICT (user_id) DO UPDATE SET
		    first_name = COALESCE(NULLIF($2, ''), p.first_name),
		    last_name  = COALESCE(NULLIF($3, ''), p.last_name),
		    avatar_url = CASE
		        WHEN p.avatar_url IS NULL
		          OR (p.avatar_url NOT LIKE '/storage/%' AND p.avatar_url NOT LIKE 'emoji:%')
		        THEN COALESCE(NULLIF($4, ''), p.avatar_url)
		        ELSE p.avatar_url
		    END,
		    updated_at = NOW()`,
		userID, upd.FirstName, upd.LastName, upd.AvatarURL)
	return err
}

func (s *Store) BackfillEmail(ctx context.Context, userID, email string, verified bool) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users
		SET email = $2,
		    email_verified = CASE WHEN $3::boolean THEN TRUE ELSE email_verified END,
		    updated_at = NOW()
		WHERE id::text = $1
		  AND email IS NULL
		  AND NOT EXISTS (
		      SELECT 1 FROM users o WHERE LOWER(o.email) = LOWER($2) AND o.id::text <> $1
		  )`,
		userID, email, verified)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) UpdateRole(ctx context.Context, userID string, role identity.Role) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET role = $2::user_role, updated_at = NOW() WHERE id::text = $1`,
		userID, string(role))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return identity.ErrNotFound
	}
	return nil
}

func (s *Store) AppendAudit(ctx context.Context, userID, action string, details map[string]any) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_audit_log (user_id, action, details) VALUES ($1::uuid, $2, $3)`,
		userID, action, details)
	return err
}

// Next implementa identity.MembershipIDs.
func (s *Store) Next(ctx context.Context) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx,
		`SELECT 'LYL' || LPAD(nextval('membership_id_sequence')::text, 8, '0')`).Scan(&id)
	return id, err
}
