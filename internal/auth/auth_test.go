package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentora/property-portal/internal/auth"
	"github.com/rentora/property-portal/internal/model"
	"github.com/rentora/property-portal/internal/platform"
	"github.com/rentora/property-portal/internal/platform/platformtest"
	"github.com/rentora/property-portal/internal/repository"
	"github.com/rentora/property-portal/internal/session"
)

const testSecret = "test-secret"

type fixture struct {
	svc      *auth.Service
	srv      *platformtest.Server
	users    *repository.UserRepo
	grants   *repository.RoleGrantRepo
	sessions *session.Store
	switches []string
}

type recordingAuditor struct{ events *[]string }

func (a recordingAuditor) RoleSwitched(_ context.Context, userID string, from, to model.Role) {
	*a.events = append(*a.events, userID+":"+string(from)+">"+string(to))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := platformtest.New(testSecret)
	t.Cleanup(srv.Close)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	client := platform.NewClient(srv.URL(), "anon", "")
	f := &fixture{
		srv:      srv,
		users:    repository.NewUserRepo(client),
		grants:   repository.NewRoleGrantRepo(client),
		sessions: session.NewStore(rdb, time.Hour),
	}
	f.svc = auth.NewService(testSecret, f.users, f.grants, f.sessions, recordingAuditor{&f.switches})
	return f
}

func (f *fixture) seedUser(t *testing.T, id string, role model.Role, status model.UserStatus) *model.User {
	t.Helper()
	f.srv.Seed("users", map[string]any{
		"user_id": id,
		"email":   id + "@example.com",
		"role":    string(role),
		"status":  string(status),
	})
	u, err := f.users.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, u)
	return u
}

func signToken(t *testing.T, secret, sub string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   sub,
		"email": sub + "@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestResolveIdentityKnownUser(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "u1", model.RoleOwner, model.UserActive)

	ident, err := f.svc.ResolveIdentity(context.Background(), signToken(t, testSecret, "u1"))
	require.NoError(t, err)
	assert.Equal(t, "u1", ident.User.ID)
	assert.Equal(t, model.RoleOwner, ident.ActiveRole, "active role defaults to stored role")
}

func TestResolveIdentityBadSignature(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "u1", model.RoleOwner, model.UserActive)

	_, err := f.svc.ResolveIdentity(context.Background(), signToken(t, "wrong-secret", "u1"))
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestResolveIdentityExpiredToken(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "u1", model.RoleOwner, model.UserActive)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	signed, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = f.svc.ResolveIdentity(context.Background(), signed)
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestResolveIdentityProvisionsMissingRow(t *testing.T) {
	f := newFixture(t)

	ident, err := f.svc.ResolveIdentity(context.Background(), signToken(t, testSecret, "upstream-only"))
	require.NoError(t, err)
	assert.Equal(t, "upstream-only", ident.User.ID)
	assert.Equal(t, model.RoleTenant, ident.User.Role)
	assert.Equal(t, model.UserActive, ident.User.Status)
	assert.Equal(t, "upstream-only@example.com", ident.User.Email)

	// The row persists for the next request.
	u, err := f.users.GetByID(context.Background(), "upstream-only")
	require.NoError(t, err)
	require.NotNil(t, u)
}

func TestAvailableRolesUnionOfStoredAndGrants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.seedUser(t, "u1", model.RoleOwner, model.UserActive)
	require.NoError(t, f.grants.Grant(ctx, "u1", model.RoleTenant, "admin-1"))
	require.NoError(t, f.grants.Grant(ctx, "u1", model.RoleOwner, "admin-1")) // duplicate of stored

	roles, err := f.svc.AvailableRoles(ctx, u)
	require.NoError(t, err)
	assert.ElementsMatch(t, []model.Role{model.RoleOwner, model.RoleTenant}, roles)
}

func TestAvailableRolesAdminGetsAll(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, "a1", model.RoleAdmin, model.UserActive)

	roles, err := f.svc.AvailableRoles(context.Background(), u)
	require.NoError(t, err)
	assert.ElementsMatch(t, model.AllRoles, roles)
}

func TestSwitchRoleRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.seedUser(t, "u1", model.RoleOwner, model.UserActive)
	require.NoError(t, f.grants.Grant(ctx, "u1", model.RoleTenant, "u1"))

	require.NoError(t, f.svc.SwitchRole(ctx, u, model.RoleTenant))

	ident, err := f.svc.ResolveIdentity(ctx, signToken(t, testSecret, "u1"))
	require.NoError(t, err)
	assert.Equal(t, model.RoleTenant, ident.ActiveRole, "read after switch returns the target")
	assert.Equal(t, []string{"u1:owner>tenant"}, f.switches, "switch publishes an audit event")
}

func TestSwitchRoleDeniedLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.seedUser(t, "u1", model.RoleTenant, model.UserActive)

	err := f.svc.SwitchRole(ctx, u, model.RoleAdmin)
	assert.ErrorIs(t, err, repository.ErrRoleNotAvailable)

	ident, resolveErr := f.svc.ResolveIdentity(ctx, signToken(t, testSecret, "u1"))
	require.NoError(t, resolveErr)
	assert.Equal(t, model.RoleTenant, ident.ActiveRole)
	assert.Empty(t, f.switches)
}

func TestStaleSessionRoleFallsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.seedUser(t, "u1", model.RoleOwner, model.UserActive)
	require.NoError(t, f.grants.Grant(ctx, "u1", model.RoleMaintenance, "admin-1"))
	require.NoError(t, f.svc.SwitchRole(ctx, u, model.RoleMaintenance))

	// Grant revoked after the switch: the session role is no longer valid.
	require.NoError(t, f.grants.Revoke(ctx, "u1", model.RoleMaintenance))

	ident, err := f.svc.ResolveIdentity(ctx, signToken(t, testSecret, "u1"))
	require.NoError(t, err)
	assert.Equal(t, model.RoleOwner, ident.ActiveRole)
}

func TestSeedGrantsByRole(t *testing.T) {
	tests := []struct {
		role model.Role
		want []model.Role
	}{
		{model.RoleTenant, []model.Role{model.RoleTenant}},
		{model.RoleOwner, []model.Role{model.RoleOwner, model.RoleTenant}},
		{model.RoleMaintenance, []model.Role{model.RoleMaintenance}},
		{model.RoleAdmin, model.AllRoles},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			u := f.seedUser(t, "u-"+string(tt.role), tt.role, model.UserActive)

			f.svc.SeedGrants(ctx, u)

			granted, err := f.grants.ListRoles(ctx, u.ID)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, granted)
		})
	}
}

func TestEndSessionClearsSwitch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.seedUser(t, "u1", model.RoleOwner, model.UserActive)
	require.NoError(t, f.grants.Grant(ctx, "u1", model.RoleTenant, "u1"))
	require.NoError(t, f.svc.SwitchRole(ctx, u, model.RoleTenant))

	f.svc.EndSession(ctx, "u1")

	ident, err := f.svc.ResolveIdentity(ctx, signToken(t, testSecret, "u1"))
	require.NoError(t, err)
	assert.Equal(t, model.RoleOwner, ident.ActiveRole)
}
