// Package identity lleva un perfil normalizado del provider a un usuario local:
// búsqueda por vínculo, auto-link por email o alta; después merge de perfil,
// elevación de rol, auditoría y alta en loyalty.
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/dropDatabas3/loyaltyauth/internal/oauth"
)

var (
	// ErrNotFound es devuelto por Repository cuando no hay fila.
	ErrNotFound = errors.New("user not found")
	// ErrInvalidProfile indica que el perfil del proveedor no alcanza para crear una cuenta.
	ErrInvalidProfile = errors.New("invalid provider profile")
	// ErrProcessing envuelve fallas del repositorio y colaboradores.
	ErrProcessing = errors.New("identity processing failed")
	// ErrAlreadyLinked: la identidad externa pertenece a otro usuario.
	ErrAlreadyLinked = errors.New("provider identity already linked to another user")
)

// Role es el rol guardado en users.role.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleStaff      Role = "staff"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// ParseRole mapea valores vacíos o desconocidos a RoleCustomer.
func ParseRole(s string) Role {
	switch r := Role(s); r {
	case RoleStaff, RoleAdmin, RoleSuperAdmin:
		return r
	}
	return RoleCustomer
}

// Rank ordena los roles; la elevación solo sube.
func (r Role) Rank() int {
	switch r {
	case RoleStaff:
		return 1
	case RoleAdmin:
		return 2
	case RoleSuperAdmin:
		return 3
	}
	return 0
}

// User es la cuenta local tal como la ve el login.
type User struct {
	ID              string     `json:"id"`
	Email           *string    `json:"email"`
	Role            Role       `json:"role"`
	IsActive        bool       `json:"isActive"`
	EmailVerified   bool       `json:"emailVerified"`
	OAuthProvider   *string    `json:"oauthProvider,omitempty"`
	OAuthProviderID *string    `json:"-"`
	FirstName       *string    `json:"firstName"`
	LastName        *string    `json:"lastName"`
	AvatarURL       *string    `json:"avatarUrl"`
	MembershipID    *string    `json:"membershipId"`
	CreatedAt       *time.Time `json:"createdAt,omitempty"`
}

// EmailValue devuelve el email o "".
func (u *User) EmailValue() string {
	if u == nil || u.Email == nil {
		return ""
	}
	return *u.Email
}

// NewUser trae todo lo que necesita Repository.Create.
type NewUser struct {
	Email         *string
	EmailVerified bool
	Role          Role
	Provider      oauth.Provider
	Subject       string
	FirstName     *string
	LastName      *string
	AvatarURL     *string
	MembershipID  string
}

// ProfileUpdate son los valores entrantes. Un string vacío conserva el guardado.
type ProfileUpdate struct {
	FirstName string
	LastName  string
	AvatarURL string
}

// Result de una resolución exitosa.
type Result struct {
	User      *User
	IsNewUser bool
}

// Repository es el store relacional detrás del resolver.
// Las búsquedas devuelven ErrNotFound si no hay fila.
type Repository interface {
	FindByProvider(ctx context.Context, provider oauth.Provider, subject string) (*User, error)
	// FindUnboundByEmail compara sin mayúsculas y solo usuarios sin vínculo OAuth.
	FindUnboundByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	// LinkProvider vincula provider/subject. email_verified solo pasa de false a true.
	LinkProvider(ctx context.Context, userID string, provider oauth.Provider, subject string, emailVerified bool) error
	Create(ctx context.Context, in NewUser) (*User, error)
	MergeProfile(ctx context.Context, userID string, upd ProfileUpdate) error
	// BackfillEmail completa el email de un usuario sin email, salvo que otra
	// cuenta ya lo tenga. Indica si se actualizó la fila.
	BackfillEmail(ctx context.Context, userID, email string, verified bool) (bool, error)
	UpdateRole(ctx context.Context, userID string, role Role) error
	AppendAudit(ctx context.Context, userID, action string, details map[string]any) error
}

// MembershipIDs entrega números de socio ("LYL00000042").
type MembershipIDs interface {
	Next(ctx context.Context) (string, error)
}

// LoyaltyEnroller asegura la fila de loyalty del usuario. Idempotente.
type LoyaltyEnroller interface {
	Ensure(ctx context.Context, userID string) error
}

// NotificationDefaults crea las preferencias de notificación por defecto. Best-effort.
type NotificationDefaults interface {
	Ensure(ctx context.Context, userID string) error
}
