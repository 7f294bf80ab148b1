package repository

import (
	"context"

	"github.com/rentora/property-portal/internal/model"
	"github.com/rentora/property-portal/internal/platform"
)

// RoleGrantRepo stores which roles a user may switch into. The grants
// table is the persistent source of truth for available roles; the role
// stored on the account is always implicitly available on top of it.
type RoleGrantRepo struct {
	table *platform.Table
}

func NewRoleGrantRepo(c *platform.Client) *RoleGrantRepo {
	return &RoleGrantRepo{table: platform.NewTable(c, "role_grants")}
}

// ListRoles returns the roles granted to the user.
func (r *RoleGrantRepo) ListRoles(ctx context.Context, userID string) ([]model.Role, error) {
	recs, err := r.table.List(ctx, map[string]string{"user_id": userID}, platform.ListOptions{})
	if err != nil {
		return nil, err
	}
	roles := make([]model.Role, 0, len(recs))
	for _, rec := range recs {
		if s, ok := rec["role"].(string); ok && model.ValidRole(s) {
			roles = append(roles, model.Role(s))
		}
	}
	return roles, nil
}

// Grant records that the user may act as the role. Granting an already
// granted role is a no-op.
func (r *RoleGrantRepo) Grant(ctx context.Context, userID string, role model.Role, grantedBy string) error {
	existing, err := r.find(ctx, userID, role)
	if err != nil || existing != nil {
		return err
	}
	_, err = r.table.Create(ctx, platform.Record{
		"user_id":    userID,
		"role":       string(role),
		"granted_by": grantedBy,
	})
	return err
}

// Revoke removes the grant. Revoking an absent grant is a no-op.
func (r *RoleGrantRepo) Revoke(ctx context.Context, userID string, role model.Role) error {
	rec, err := r.find(ctx, userID, role)
	if err != nil || rec == nil {
		return err
	}
	id, _ := rec[r.table.PK()].(string)
	if id == "" {
		return nil
	}
	return r.table.Delete(ctx, id)
}

func (r *RoleGrantRepo) find(ctx context.Context, userID string, role model.Role) (platform.Record, error) {
	recs, err := r.table.List(ctx, map[string]string{
		"user_id": userID,
		"role":    string(role),
	}, platform.ListOptions{Limit: 1})
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	return recs[0], nil
}
