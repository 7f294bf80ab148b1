package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentora/property-portal/internal/auth"
	"github.com/rentora/property-portal/internal/handler"
	"github.com/rentora/property-portal/internal/model"
	"github.com/rentora/property-portal/internal/platform"
	"github.com/rentora/property-portal/internal/platform/platformtest"
	"github.com/rentora/property-portal/internal/repository"
	"github.com/rentora/property-portal/internal/router"
	"github.com/rentora/property-portal/internal/session"
)

const testSecret = "handler-test-secret"

// app wires the full HTTP surface against the in-memory backend, the way
// main does, minus object storage and the broker.
type app struct {
	e      *echo.Echo
	srv    *platformtest.Server
	users  *repository.UserRepo
	grants *repository.RoleGrantRepo
	notes  *repository.NotificationRepo
	svc    *auth.Service
}

func newApp(t *testing.T) *app {
	t.Helper()
	srv := platformtest.New(testSecret)
	t.Cleanup(srv.Close)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	client := platform.NewClient(srv.URL(), "anon", "")
	users := repository.NewUserRepo(client)
	grants := repository.NewRoleGrantRepo(client)
	properties := repository.NewPropertyRepo(client)
	units := repository.NewUnitRepo(client)
	maintenance := repository.NewMaintenanceRepo(client)
	notes := repository.NewNotificationRepo(client)

	sessions := session.NewStore(rdb, time.Hour)
	svc := auth.NewService(testSecret, users, grants, sessions, nil)

	e := echo.New()
	e.HTTPErrorHandler = handler.HTTPErrorHandler
	router.Register(e, svc, router.Handlers{
		Auth:        handler.NewAuthHandler(client, users, svc),
		Users:       handler.NewUserHandler(client, users, grants, svc, nil),
		Properties:  handler.NewPropertyHandler(properties, nil),
		Units:       handler.NewUnitHandler(units, properties, nil),
		Maintenance: handler.NewMaintenanceHandler(maintenance, units, properties, users, notes, nil, nil),
		Dashboard:   handler.NewDashboardHandler(properties, units, maintenance, notes),
	}, nil)

	return &app{e: e, srv: srv, users: users, grants: grants, notes: notes, svc: svc}
}

func (a *app) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != nil {
		buf, _ := json.Marshal(body)
		rd = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *app) doForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

// seedActiveUser creates a provider account, an active user row and the
// registration-time grants, returning the user ID and a valid token.
func (a *app) seedActiveUser(t *testing.T, email string, role model.Role) (string, string) {
	t.Helper()
	acct := a.srv.SeedAccount(email, "password123")
	a.srv.Seed("users", map[string]any{
		"user_id":    acct.ID,
		"email":      email,
		"first_name": "Test",
		"last_name":  "User",
		"role":       string(role),
		"status":     "active",
	})
	a.srv.Seed("role_grants", map[string]any{
		"id": acct.ID + "-self", "user_id": acct.ID, "role": string(role),
	})
	if role == model.RoleOwner {
		a.srv.Seed("role_grants", map[string]any{
			"id": acct.ID + "-tenant", "user_id": acct.ID, "role": "tenant",
		})
	}
	return acct.ID, a.srv.Token(acct)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func detailOf(t *testing.T, rec *httptest.ResponseRecorder) any {
	t.Helper()
	var body map[string]any
	decodeBody(t, rec, &body)
	require.Contains(t, body, "detail", "error bodies always expose detail")
	return body["detail"]
}

// --- auth ---

func TestRegisterCreatesUserAndGrants(t *testing.T) {
	a := newApp(t)

	rec := a.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":      "owner@example.com",
		"password":   "password123",
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"role":       "owner",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var u model.User
	decodeBody(t, rec, &u)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, model.RoleOwner, u.Role)
	assert.Equal(t, model.UserActive, u.Status)

	// Owners can also act as tenants from day one.
	grants := a.srv.Rows("role_grants")
	roles := []string{}
	for _, g := range grants {
		roles = append(roles, g["role"].(string))
	}
	assert.ElementsMatch(t, []string{"owner", "tenant"}, roles)
}

func TestRegisterWeakPassword(t *testing.T) {
	a := newApp(t)
	rec := a.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":    "x@example.com",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Password must be at least 8 characters", detailOf(t, rec))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	a := newApp(t)
	a.seedActiveUser(t, "taken@example.com", model.RoleTenant)

	rec := a.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":    "taken@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email already registered", detailOf(t, rec))
}

func TestLoginReturnsTokenPair(t *testing.T) {
	a := newApp(t)
	a.seedActiveUser(t, "t@example.com", model.RoleTenant)

	rec := a.doForm("/api/auth/login", url.Values{
		"username": {"t@example.com"},
		"password": {"password123"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body map[string]any
	decodeBody(t, rec, &body)
	assert.NotEmpty(t, body["access_token"])
	assert.NotEmpty(t, body["refresh_token"])
	assert.Equal(t, "bearer", body["token_type"])
}

func TestLoginWrongPassword(t *testing.T) {
	a := newApp(t)
	a.seedActiveUser(t, "t@example.com", model.RoleTenant)

	rec := a.doForm("/api/auth/login", url.Values{
		"username": {"t@example.com"},
		"password": {"wrong"},
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Incorrect email or password", detailOf(t, rec))
}

func TestLoginInactiveUser(t *testing.T) {
	a := newApp(t)
	acct := a.srv.SeedAccount("gone@example.com", "password123")
	a.srv.Seed("users", map[string]any{
		"user_id": acct.ID, "email": "gone@example.com", "role": "tenant", "status": "inactive",
	})

	rec := a.doForm("/api/auth/login", url.Values{
		"username": {"gone@example.com"},
		"password": {"password123"},
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Inactive user", detailOf(t, rec))
}

func TestRefreshInvalidToken(t *testing.T) {
	a := newApp(t)
	rec := a.do(http.MethodPost, "/api/auth/refresh", "", map[string]any{
		"refresh_token": "nonsense",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutAlwaysSucceeds(t *testing.T) {
	a := newApp(t)
	rec := a.do(http.MethodPost, "/api/auth/logout", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestForgotPasswordNeverEnumerates(t *testing.T) {
	a := newApp(t)
	rec := a.do(http.MethodPost, "/api/auth/forgot-password", "", map[string]any{
		"email": "nobody@example.com",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

// --- identity and roles ---

func TestMeRequiresToken(t *testing.T) {
	a := newApp(t)
	rec := a.do(http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Could not validate credentials", detailOf(t, rec))
}

func TestMeIsIdempotent(t *testing.T) {
	a := newApp(t)
	id, token := a.seedActiveUser(t, "o@example.com", model.RoleOwner)

	first := a.do(http.MethodGet, "/api/users/me", token, nil)
	second := a.do(http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String(), "reads have no side effects")

	var body map[string]any
	decodeBody(t, first, &body)
	assert.Equal(t, id, body["user_id"])
	assert.Equal(t, "owner", body["active_role"])
	assert.True(t, body["email_verified"].(bool))
}

func TestSwitchRoleRoundTripOverHTTP(t *testing.T) {
	a := newApp(t)
	_, token := a.seedActiveUser(t, "o@example.com", model.RoleOwner)

	rec := a.do(http.MethodPost, "/api/users/switch-role", token, map[string]any{"role": "tenant"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	me := a.do(http.MethodGet, "/api/users/me", token, nil)
	var body map[string]any
	decodeBody(t, me, &body)
	assert.Equal(t, "tenant", body["active_role"], "switch persists across requests")
}

func TestSwitchRoleUnavailable(t *testing.T) {
	a := newApp(t)
	_, token := a.seedActiveUser(t, "t@example.com", model.RoleTenant)

	rec := a.do(http.MethodPost, "/api/users/switch-role", token, map[string]any{"role": "admin"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUserListIsAdminOnly(t *testing.T) {
	a := newApp(t)
	_, ownerToken := a.seedActiveUser(t, "o@example.com", model.RoleOwner)
	_, adminToken := a.seedActiveUser(t, "a@example.com", model.RoleAdmin)

	rec := a.do(http.MethodGet, "/api/users", ownerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(http.MethodGet, "/api/users", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []model.User
	decodeBody(t, rec, &users)
	assert.Len(t, users, 2)
}

func TestAdminGrantAndRevokeRole(t *testing.T) {
	a := newApp(t)
	tenantID, tenantToken := a.seedActiveUser(t, "t@example.com", model.RoleTenant)
	_, adminToken := a.seedActiveUser(t, "a@example.com", model.RoleAdmin)

	rec := a.do(http.MethodPost, "/api/users/"+tenantID+"/roles", adminToken, map[string]any{"role": "maintenance"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(http.MethodPost, "/api/users/switch-role", tenantToken, map[string]any{"role": "maintenance"})
	assert.Equal(t, http.StatusOK, rec.Code, "granted role becomes switchable")

	rec = a.do(http.MethodDelete, "/api/users/"+tenantID+"/roles/maintenance", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	me := a.do(http.MethodGet, "/api/users/me", tenantToken, nil)
	var body map[string]any
	decodeBody(t, me, &body)
	assert.Equal(t, "tenant", body["active_role"], "revoked session role falls back to stored")
}

func TestRevokePrimaryRoleRejected(t *testing.T) {
	a := newApp(t)
	tenantID, _ := a.seedActiveUser(t, "t@example.com", model.RoleTenant)
	_, adminToken := a.seedActiveUser(t, "a@example.com", model.RoleAdmin)

	rec := a.do(http.MethodDelete, "/api/users/"+tenantID+"/roles/tenant", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerificationDocumentUploadUnavailableWithoutStorage(t *testing.T) {
	a := newApp(t)
	_, token := a.seedActiveUser(t, "t@example.com", model.RoleTenant)

	rec := a.do(http.MethodPost, "/api/users/verification-documents", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
