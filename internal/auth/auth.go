// Package auth resolves who is calling and what role they are acting as.
// Tokens are minted by the hosted identity service; verification happens
// locally against the shared signing secret so the hot path never makes a
// network call for the token itself.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/rentora/property-portal/internal/model"
	"github.com/rentora/property-portal/internal/repository"
	"github.com/rentora/property-portal/internal/session"
)

// ErrUnauthenticated covers every token failure: missing, malformed,
// expired, bad signature, or a subject that cannot be resolved to a user.
var ErrUnauthenticated = errors.New("could not validate credentials")

// Auditor receives role-switch events. Implementations are best effort.
type Auditor interface {
	RoleSwitched(ctx context.Context, userID string, from, to model.Role)
}

// Identity is the resolved caller for one request.
type Identity struct {
	User       *model.User
	ActiveRole model.Role
}

// Service verifies tokens and manages role switching.
type Service struct {
	secret   []byte
	users    *repository.UserRepo
	grants   *repository.RoleGrantRepo
	sessions *session.Store
	audit    Auditor
}

func NewService(secret string, users *repository.UserRepo, grants *repository.RoleGrantRepo, sessions *session.Store, audit Auditor) *Service {
	return &Service{
		secret:   []byte(secret),
		users:    users,
		grants:   grants,
		sessions: sessions,
		audit:    audit,
	}
}

// ResolveIdentity verifies the bearer token, loads the internal user row
// for its subject and attaches the active role. A valid token whose
// subject has no internal row yet gets one provisioned on the fly, so
// accounts created directly on the identity service still work.
func (s *Service) ResolveIdentity(ctx context.Context, token string) (*Identity, error) {
	sub, email, err := s.verify(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	u, err := s.users.GetByID(ctx, sub)
	if err != nil {
		return nil, err
	}
	if u == nil {
		u, err = s.provision(ctx, sub, email)
		if err != nil {
			return nil, err
		}
	}
	return &Identity{User: u, ActiveRole: s.activeRole(ctx, u)}, nil
}

// AvailableRoles returns every role the user may act as: the stored role
// plus persisted grants. Admins may act as anything.
func (s *Service) AvailableRoles(ctx context.Context, u *model.User) ([]model.Role, error) {
	if u.Role == model.RoleAdmin {
		return append([]model.Role(nil), model.AllRoles...), nil
	}
	granted, err := s.grants.ListRoles(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	seen := map[model.Role]bool{u.Role: true}
	roles := []model.Role{u.Role}
	for _, r := range granted {
		if !seen[r] {
			seen[r] = true
			roles = append(roles, r)
		}
	}
	return roles, nil
}

// SwitchRole changes the role the user acts as for subsequent requests.
// The target must be among the user's available roles.
func (s *Service) SwitchRole(ctx context.Context, u *model.User, target model.Role) error {
	available, err := s.AvailableRoles(ctx, u)
	if err != nil {
		return err
	}
	if !containsRole(available, target) {
		return repository.ErrRoleNotAvailable
	}
	from := s.activeRole(ctx, u)
	if err := s.sessions.SetActiveRole(ctx, u.ID, target); err != nil {
		return fmt.Errorf("persist active role: %w", err)
	}
	if s.audit != nil {
		s.audit.RoleSwitched(ctx, u.ID, from, target)
	}
	return nil
}

// EndSession drops the switched role so the next login starts from the
// stored role again.
func (s *Service) EndSession(ctx context.Context, userID string) {
	s.sessions.Clear(ctx, userID)
}

// activeRole reads the session role, falling back to the stored role when
// unset. A session role that is no longer granted is ignored rather than
// honored stale.
func (s *Service) activeRole(ctx context.Context, u *model.User) model.Role {
	switched := s.sessions.ActiveRole(ctx, u.ID)
	if switched == "" || switched == u.Role {
		return u.Role
	}
	available, err := s.AvailableRoles(ctx, u)
	if err != nil || !containsRole(available, switched) {
		return u.Role
	}
	return switched
}

func (s *Service) verify(token string) (sub, email string, err error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", "", ErrUnauthenticated
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", ErrUnauthenticated
	}
	sub, _ = claims["sub"].(string)
	email, _ = claims["email"].(string)
	if sub == "" {
		return "", "", ErrUnauthenticated
	}
	return sub, email, nil
}

// provision creates the minimal internal row for an upstream account that
// was never registered through the API. Such users start as active
// tenants and finish their profile later.
func (s *Service) provision(ctx context.Context, id, email string) (*model.User, error) {
	logrus.WithField("user_id", id).Info("provisioning internal row for upstream account")
	u := &model.User{
		ID:     id,
		Email:  email,
		Role:   model.RoleTenant,
		Status: model.UserActive,
	}
	created, err := s.users.Create(ctx, u)
	if err != nil {
		// Lost a race with a concurrent first request for the same
		// account: read back whoever won.
		existing, getErr := s.users.GetByID(ctx, id)
		if getErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}
	if err := s.grants.Grant(ctx, id, model.RoleTenant, id); err != nil {
		logrus.WithError(err).WithField("user_id", id).Warn("seeding role grant failed")
	}
	return created, nil
}

// SeedGrants records the registration-time grants for a new account: the
// chosen role itself, tenant additionally for owners, and everything for
// admins.
func (s *Service) SeedGrants(ctx context.Context, u *model.User) {
	roles := []model.Role{u.Role}
	switch u.Role {
	case model.RoleOwner:
		roles = append(roles, model.RoleTenant)
	case model.RoleAdmin:
		roles = model.AllRoles
	}
	for _, r := range roles {
		if err := s.grants.Grant(ctx, u.ID, r, u.ID); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"user_id": u.ID,
				"role":    r,
			}).Warn("seeding role grant failed")
		}
	}
}

// TouchLastLogin stamps the login time, best effort.
func (s *Service) TouchLastLogin(ctx context.Context, userID string) {
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.users.UpdateFields(ctx, userID, map[string]any{"last_login_at": now}); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("last login update failed")
	}
}

func containsRole(roles []model.Role, r model.Role) bool {
	for _, have := range roles {
		if have == r {
			return true
		}
	}
	return false
}
