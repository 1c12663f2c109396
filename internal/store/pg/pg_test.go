package pg

import (
	"context"
	"testing"
	"time"

	"github.com/dropDatabas3/loyaltyauth/internal/identity"
	"github.com/dropDatabas3/loyaltyauth/internal/oauth"
	migrations "github.com/dropDatabas3/loyaltyauth/migrations/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test: skipped with -short")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("loyalty"),
		postgres.WithUsername("loyalty"),
		postgres.WithPassword("pwd"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("docker not available: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	s := FromPool(pool)
	t.Cleanup(s.Close)

	res, err := NewMigrator(migrations.FS, migrations.Dir).Up(ctx, s)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, res.Applied)
	return s
}

func strp(s string) *string { return &s }

func TestMigrator_ParseMigrations(t *testing.T) {
	migs, err := NewMigrator(migrations.FS, migrations.Dir).ParseMigrations()
	require.NoError(t, err)
	require.Len(t, migs, 2)
	assert.Equal(t, 1, migs[0].Version)
	assert.Equal(t, "identity", migs[0].Name)
	assert.NotEmpty(t, migs[0].Up)
	assert.NotEmpty(t, migs[0].Down)
	assert.Equal(t, "loyalty", migs[1].Name)
}

func TestStore_Integration(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	t.Run("migrations are idempotent", func(t *testing.T) {
		res, err := NewMigrator(migrations.FS, migrations.Dir).Up(ctx, s)
		require.NoError(t, err)
		assert.Empty(t, res.Applied)
		assert.Equal(t, []int{1, 2}, res.Skipped)
	})

	t.Run("membership ids", func(t *testing.T) {
		a, err := s.Next(ctx)
		require.NoError(t, err)
		b, err := s.Next(ctx)
		require.NoError(t, err)
		assert.Regexp(t, `^LYL\d{8}$`, a)
		assert.NotEqual(t, a, b)
	})

	t.Run("resolver end to end", func(t *testing.T) {
		r := identity.NewResolver(identity.Deps{
			Repo:          s,
			Membership:    s,
			Loyalty:       s.Loyalty(),
			Notifications: s.Notifications(),
			Admins:        &identity.AdminAllowList{StaffEmails: []string{"desk@example.com"}},
		})

		p := &oauth.Profile{
			Provider:      oauth.Google,
			Subject:       "g-100",
			Email:         strp("desk@example.com"),
			EmailVerified: true,
			FirstName:     strp("Desk"),
			AvatarURL:     strp("https://img.example/a.png"),
		}
		first, err := r.Resolve(ctx, p)
		require.NoError(t, err)
		assert.True(t, first.IsNewUser)
		assert.Equal(t, identity.RoleStaff, first.User.Role)

		second, err := r.Resolve(ctx, p)
		require.NoError(t, err)
		assert.False(t, second.IsNewUser)
		assert.Equal(t, first.User.ID, second.User.ID)

		var loyaltyRows, notifRows, auditRows int
		require.NoError(t, s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM user_loyalty WHERE user_id::text = $1`, first.User.ID).Scan(&loyaltyRows))
		require.NoError(t, s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notification_preferences WHERE user_id::text = $1`, first.User.ID).Scan(&notifRows))
		require.NoError(t, s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM user_audit_log WHERE user_id::text = $1 AND action = 'oauth_login'`, first.User.ID).Scan(&auditRows))
		assert.Equal(t, 1, loyaltyRows)
		assert.Equal(t, 1, notifRows)
		assert.Equal(t, 2, auditRows)

		var tier string
		require.NoError(t, s.pool.QueryRow(ctx, `SELECT t.name FROM user_loyalty l JOIN tiers t ON t.id = l.tier_id WHERE l.user_id::text = $1`, first.User.ID).Scan(&tier))
		assert.Equal(t, DefaultTierName, tier)
	})

	t.Run("avatar guard", func(t *testing.T) {
		u, err := s.Create(ctx, identity.NewUser{
			Provider: oauth.Line, Subject: "U-avatar", MembershipID: "LYL90000001",
			AvatarURL: strp("/storage/avatars/me.png"), FirstName: strp("Keep"),
		})
		require.NoError(t, err)

		require.NoError(t, s.MergeProfile(ctx, u.ID, identity.ProfileUpdate{AvatarURL: "https://remote/p.jpg", FirstName: ""}))
		got, err := s.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "/storage/avatars/me.png", *got.AvatarURL)
		assert.Equal(t, "Keep", *got.FirstName)
	})

	t.Run("auto link only unbound accounts", func(t *testing.T) {
		_, err := s.pool.Exec(ctx, `INSERT INTO users (email, password_hash) VALUES ('Plain@Example.com', 'x')`)
		require.NoError(t, err)

		u, err := s.FindUnboundByEmail(ctx, "plain@example.com")
		require.NoError(t, err)
		require.NoError(t, s.LinkProvider(ctx, u.ID, oauth.Google, "g-plain", true))

		_, err = s.FindUnboundByEmail(ctx, "plain@example.com")
		assert.ErrorIs(t, err, identity.ErrNotFound)

		bound, err := s.FindByProvider(ctx, oauth.Google, "g-plain")
		require.NoError(t, err)
		assert.Equal(t, u.ID, bound.ID)
		assert.True(t, bound.EmailVerified)
	})

	t.Run("backfill respects ownership", func(t *testing.T) {
		u, err := s.Create(ctx, identity.NewUser{Provider: oauth.Line, Subject: "U-bf", MembershipID: "LYL90000002"})
		require.NoError(t, err)

		ok, err := s.BackfillEmail(ctx, u.ID, "PLAIN@example.com", false)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = s.BackfillEmail(ctx, u.ID, "fresh@example.com", true)
		require.NoError(t, err)
		assert.True(t, ok)
		got, err := s.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "fresh@example.com", got.EmailValue())
	})

	t.Run("not found", func(t *testing.T) {
		_, err := s.FindByID(ctx, "00000000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, identity.ErrNotFound)
		assert.ErrorIs(t, s.UpdateRole(ctx, "nope", identity.RoleAdmin), identity.ErrNotFound)
	})

	t.Run("down", func(t *testing.T) {
		reverted, err := NewMigrator(migrations.FS, migrations.Dir).Down(ctx, s, 1)
		require.NoError(t, err)
		assert.Equal(t, []int{2}, reverted)
		pending, err := NewMigrator(migrations.FS, migrations.Dir).Pending(ctx, s)
		require.NoError(t, err)
		assert.Equal(t, []int{2}, pending)
	})
}
