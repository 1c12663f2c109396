package identity

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dropDatabas3/loyaltyauth/internal/oauth"
	"github.com/google/uuid"
)

// IsLocalAvatar indica si el avatar lo gestiona la app (archivo subido o
// emoji); en ese caso la foto del provider no lo pisa.
func IsLocalAvatar(v string) bool {
	return strings.HasPrefix(v, "/storage/") || strings.HasPrefix(v, "emoji:")
}

// AuditEntry es una fila de user_audit_log en memoria.
type AuditEntry struct {
	UserID  string
	Action  string
	Details map[string]any
	At      time.Time
}

// Memory implementa Repository, MembershipIDs, LoyaltyEnroller y
// NotificationDefaults en proceso. Se usa sin DATABASE_URL en dev y en tests.
type Memory struct {
	mu       sync.Mutex
	users    map[string]*User
	seq      int64
	audit    []AuditEntry
	loyalty  map[string]struct{}
	notifDef map[string]struct{}
}

// NewMemory crea un store vacío.
func NewMemory() *Memory {
	return &Memory{
		users:    map[string]*User{},
		loyalty:  map[string]struct{}{},
		notifDef: map[string]struct{}{},
	}
}

func (m *Memory) FindByProvider(_ context.Context, provider oauth.Provider, subject string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.OAuthProvider != nil && *u.OAuthProvider == provider.String() &&
			u.OAuthProviderID != nil && *u.OAuthProviderID == subject {
			return cloneUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FindUnboundByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := normEmail(email)
	for _, u := range m.users {
		if u.OAuthProvider == nil && u.Email != nil && normEmail(*u.Email) == e {
			return cloneUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FindByID(_ context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (m *Memory) LinkProvider(_ context.Context, userID string, provider oauth.Provider, subject string, emailVerified bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	p := provider.String()
	u.OAuthProvider = &p
	u.OAuthProviderID = &subject
	if emailVerified {
		u.EmailVerified = true
	}
	return nil
}

func (m *Memory) Create(_ context.Context, in NewUser) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if in.Email != nil {
		e := normEmail(*in.Email)
		for _, u := range m.users {
			if u.Email != nil && normEmail(*u.Email) == e {
				return nil, fmt.Errorf("email %q already in use", *in.Email)
			}
		}
	}
	p := in.Provider.String()
	subject := in.Subject
	mid := in.MembershipID
	now := time.Now().UTC()
	role := in.Role
	if role == "" {
		role = RoleCustomer
	}
	u := &User{
		ID:              uuid.NewString(),
		Email:           copyStr(in.Email),
		Role:            role,
		IsActive:        true,
		EmailVerified:   in.EmailVerified,
		OAuthProvider:   &p,
		OAuthProviderID: &subject,
		FirstName:       copyStr(in.FirstName),
		LastName:        copyStr(in.LastName),
		AvatarURL:       copyStr(in.AvatarURL),
		MembershipID:    &mid,
		CreatedAt:       &now,
	}
	m.users[u.ID] = u
	return cloneUser(u), nil
}

// MergeProfile aplica las mismas reglas que el UPDATE de postgres.
func (m *Memory) MergeProfile(_ context.Context, userID string, upd ProfileUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	if upd.FirstName != "" {
		u.FirstName = &upd.FirstName
	}
	if upd.LastName != "" {
		u.LastName = &upd.LastName
	}
	if upd.AvatarURL != "" && (u.AvatarURL == nil || !IsLocalAvatar(*u.AvatarURL)) {
		u.AvatarURL = &upd.AvatarURL
	}
	return nil
}

func (m *Memory) BackfillEmail(_ context.Context, userID, email string, verified bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return false, ErrNotFound
	}
	if u.Email != nil {
		return false, nil
	}
	e := normEmail(email)
	for id, other := range m.users {
		if id != userID && other.Email != nil && normEmail(*other.Email) == e {
			return false, nil
		}
	}
	u.Email = &email
	if verified {
		u.EmailVerified = true
	}
	return true, nil
}

func (m *Memory) UpdateRole(_ context.Context, userID string, role Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.Role = role
	return nil
}

func (m *Memory) AppendAudit(_ context.Context, userID, action string, details map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, AuditEntry{UserID: userID, Action: action, Details: details, At: time.Now()})
	return nil
}

// Next implementa MembershipIDs.
func (m *Memory) Next(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return FormatMembershipID(m.seq), nil
}

// Ensure implementa LoyaltyEnroller.
func (m *Memory) Ensure(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loyalty[userID] = struct{}{}
	return nil
}

// Notifications adapta el store a NotificationDefaults; comparte la firma
// de Ensure con LoyaltyEnroller.
func (m *Memory) Notifications() NotificationDefaults { return memoryNotif{m} }

type memoryNotif struct{ m *Memory }

func (n memoryNotif) Ensure(_ context.Context, userID string) error {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()
	n.m.notifDef[userID] = struct{}{}
	return nil
}

// AddUser siembra un usuario (cuentas email/password preexistentes).
func (m *Memory) AddUser(u User) *User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleCustomer
	}
	c := cloneUser(&u)
	m.users[c.ID] = c
	return cloneUser(c)
}

// AuditLog devuelve una copia del log.
func (m *Memory) AuditLog() []AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]AuditEntry(nil), m.audit...)
}

// Enrolled indica si Ensure corrió para userID.
func (m *Memory) Enrolled(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.loyalty[userID]
	return ok
}

// HasNotificationDefaults indica si userID tiene preferencias por defecto.
func (m *Memory) HasNotificationDefaults(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.notifDef[userID]
	return ok
}

// Count de usuarios.
func (m *Memory) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

// FormatMembershipID arma LYL + 8 dígitos con ceros a la izquierda.
func FormatMembershipID(n int64) string {
	return fmt.Sprintf("LYL%08d", n)
}

func cloneUser(u *User) *User {
	c := *u
	c.Email = copyStr(u.Email)
	c.OAuthProvider = copyStr(u.OAuthProvider)
	c.OAuthProviderID = copyStr(u.OAuthProviderID)
	c.FirstName = copyStr(u.FirstName)
	c.LastName = copyStr(u.LastName)
	c.AvatarURL = copyStr(u.AvatarURL)
	c.MembershipID = copyStr(u.MembershipID)
	if u.CreatedAt != nil {
		t := *u.CreatedAt
		c.CreatedAt = &t
	}
	return &c
}

func copyStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
