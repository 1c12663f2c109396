package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dropDatabas3/loyaltyauth/internal/oauth"
	"github.com/dropDatabas3/loyaltyauth/internal/observability/logger"
	"go.uber.org/zap"
)

// Acciones que se escriben en user_audit_log.
const (
	ActionOAuthLogin = "oauth_login"
	ActionOAuthLink  = "oauth_link"
)

// Deps agrupa los colaboradores del Resolver.
type Deps struct {
	Repo          Repository
	Membership    MembershipIDs
	Loyalty       LoyaltyEnroller
	Notifications NotificationDefaults // opcional
	Admins        *AdminAllowList      // opcional
}

// Resolver convierte un perfil del provider en un usuario local.
type Resolver struct {
	repo          Repository
	membership    MembershipIDs
	loyalty       LoyaltyEnroller
	notifications NotificationDefaults
	admins        *AdminAllowList
}

// NewResolver arma el Resolver. Repo, Membership y Loyalty son obligatorios.
func NewResolver(d Deps) *Resolver {
	return &Resolver{
		repo:          d.Repo,
		membership:    d.Membership,
		loyalty:       d.Loyalty,
		notifications: d.Notifications,
		admins:        d.Admins,
	}
}

// ValidateProfile controla el mínimo que el provider tiene que informar.
func ValidateProfile(p *oauth.Profile) error {
	if p == nil || strings.TrimSpace(p.Subject) == "" {
		return fmt.Errorf("%w: missing subject", ErrInvalidProfile)
	}
	if p.Provider == oauth.Google && strings.TrimSpace(p.EmailValue()) == "" {
		return fmt.Errorf("%w: google profile without email", ErrInvalidProfile)
	}
	return nil
}

// Resolve busca, vincula o crea el usuario de p. Dos llamadas con el mismo
// perfil devuelven el mismo usuario; IsNewUser es true solo la primera vez.
func (r *Resolver) Resolve(ctx context.Context, p *oauth.Profile) (*Result, error) {
	if err := ValidateProfile(p); err != nil {
		return nil, err
	}
	log := logger.From(ctx).With(logger.Layer("identity"), logger.Provider(p.Provider.String()))

	u, isNew, err := r.findOrCreate(ctx, log, p)
	if err != nil {
		return nil, err
	}

	if !isNew {
		if err := r.repo.MergeProfile(ctx, u.ID, profileUpdate(p)); err != nil {
			return nil, processing("merge profile", err)
		}
		if err := r.backfillEmail(ctx, log, u, p); err != nil {
			return nil, err
		}
	}

	if err := r.elevate(ctx, log, u); err != nil {
		return nil, err
	}

	details := map[string]any{"provider": p.Provider.String(), "isNewUser": isNew}
	if p.Provider == oauth.Line {
		details["providerId"] = p.Subject
	}
	if err := r.repo.AppendAudit(ctx, u.ID, ActionOAuthLogin, details); err != nil {
		return nil, processing("audit", err)
	}

	if err := r.loyalty.Ensure(ctx, u.ID); err != nil {
		return nil, processing("loyalty enrollment", err)
	}

	if !isNew {
		// releer: merge y link cambian columnas que el caller devuelve
		fresh, err := r.repo.FindByID(ctx, u.ID)
		if err != nil {
			return nil, processing("reload user", err)
		}
		u = fresh
	}
	return &Result{User: u, IsNewUser: isNew}, nil
}

func (r *Resolver) findOrCreate(ctx context.Context, log *zap.Logger, p *oauth.Profile) (*User, bool, error) {
	u, err := r.repo.FindByProvider(ctx, p.Provider, p.Subject)
	if err == nil {
		log.Debug("existing oauth user", logger.UserID(u.ID))
		return u, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, processing("find by provider", err)
	}

	if email := p.EmailValue(); email != "" {
		u, err = r.repo.FindUnboundByEmail(ctx, email)
		switch {
		case err == nil:
			if err := r.repo.LinkProvider(ctx, u.ID, p.Provider, p.Subject, p.EmailVerified); err != nil {
				return nil, false, processing("link provider", err)
			}
			log.Info("linked provider to existing email account", logger.UserID(u.ID), logger.Email(email))
			return u, false, nil
		case !errors.Is(err, ErrNotFound):
			return nil, false, processing("find by email", err)
		}
	}

	u, err = r.create(ctx, p)
	if err != nil {
		return nil, false, err
	}
	log.Info("created oauth user", logger.UserID(u.ID))
	return u, true, nil
}

func (r *Resolver) create(ctx context.Context, p *oauth.Profile) (*User, error) {
	mid, err := r.membership.Next(ctx)
	if err != nil {
		return nil, processing("membership id", err)
	}
	in := NewUser{
		Email:         p.Email,
		EmailVerified: p.EmailVerified,
		Role:          RoleCustomer,
		Provider:      p.Provider,
		Subject:       p.Subject,
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		AvatarURL:     p.AvatarURL,
		MembershipID:  mid,
	}
	u, err := r.repo.Create(ctx, in)
	if err != nil {
		return nil, processing("create user", err)
	}
	if r.notifications != nil {
		if err := r.notifications.Ensure(ctx, u.ID); err != nil {
			logger.From(ctx).Warn("notification defaults failed",
				logger.Layer("identity"), logger.UserID(u.ID), logger.Err(err))
		}
	}
	return u, nil
}

// backfillEmail completa el email de cuentas creadas sin él (LINE sin scope email).
func (r *Resolver) backfillEmail(ctx context.Context, log *zap.Logger, u *User, p *oauth.Profile) error {
	email := p.EmailValue()
	if u.Email != nil || email == "" {
		return nil
	}
	ok, err := r.repo.BackfillEmail(ctx, u.ID, email, p.EmailVerified)
	if err != nil {
		return processing("backfill email", err)
	}
	if !ok {
		log.Info("email backfill skipped, owned by another account", logger.UserID(u.ID), logger.Email(email))
		return nil
	}
	u.Email = &email
	if p.EmailVerified {
		u.EmailVerified = true
	}
	log.Info("email backfilled", logger.UserID(u.ID), logger.Email(email))
	return nil
}

// elevate sube el rol según la allow-list. Nunca baja.
func (r *Resolver) elevate(ctx context.Context, log *zap.Logger, u *User) error {
	target := r.admins.RoleFor(u.EmailValue())
	if target.Rank() <= u.Role.Rank() {
		return nil
	}
	if err := r.repo.UpdateRole(ctx, u.ID, target); err != nil {
		return processing("update role", err)
	}
	log.Info("role elevated", logger.UserID(u.ID),
		logger.String("from", string(u.Role)), logger.String("to", string(target)))
	u.Role = target
	return nil
}

// Link vincula la identidad de p a un usuario ya autenticado.
func (r *Resolver) Link(ctx context.Context, userID string, p *oauth.Profile) (*User, error) {
	if p == nil || strings.TrimSpace(p.Subject) == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidProfile)
	}
	if _, err := r.repo.FindByID(ctx, userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, processing("find user", err)
	}

	owner, err := r.repo.FindByProvider(ctx, p.Provider, p.Subject)
	switch {
	case err == nil && owner.ID != userID:
		return nil, ErrAlreadyLinked
	case err != nil && !errors.Is(err, ErrNotFound):
		return nil, processing("find by provider", err)
	}

	if err := r.repo.LinkProvider(ctx, userID, p.Provider, p.Subject, false); err != nil {
		return nil, processing("link provider", err)
	}
	details := map[string]any{"provider": p.Provider.String(), "providerId": p.Subject}
	if err := r.repo.AppendAudit(ctx, userID, ActionOAuthLink, details); err != nil {
		return nil, processing("audit", err)
	}
	u, err := r.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, processing("reload user", err)
	}
	logger.From(ctx).Info("provider linked", logger.Layer("identity"),
		logger.Provider(p.Provider.String()), logger.UserID(userID))
	return u, nil
}

func profileUpdate(p *oauth.Profile) ProfileUpdate {
	return ProfileUpdate{
		FirstName: deref(p.FirstName),
		LastName:  deref(p.LastName),
		AvatarURL: deref(p.AvatarURL),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func processing(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrProcessing, op, err)
}
