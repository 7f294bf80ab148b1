package repository

import (
	"context"
	"strings"
	"time"

	"github.com/rentora/property-portal/internal/model"
	"github.com/rentora/property-portal/internal/platform"
)

// UserRepo stores user rows. Credentials never pass through here; the
// identity provider owns them, this table only carries profile metadata
// keyed by the provider's subject ID.
type UserRepo struct {
	table *platform.Table
}

func NewUserRepo(c *platform.Client) *UserRepo {
	return &UserRepo{table: platform.NewTable(c, "users")}
}

// Create inserts a user row. The ID must be the identity provider's
// subject. A nil documents list is normalized to an empty one so clients
// never see null where an array belongs.
func (r *UserRepo) Create(ctx context.Context, u *model.User) (*model.User, error) {
	if u.VerificationDocuments == nil {
		u.VerificationDocuments = []model.VerificationDocument{}
	}
	fields := platform.Record{
		"user_id":                u.ID,
		"email":                  strings.ToLower(strings.TrimSpace(u.Email)),
		"first_name":             u.FirstName,
		"last_name":              u.LastName,
		"phone":                  u.Phone,
		"role":                   string(u.Role),
		"status":                 string(u.Status),
		"profile_completed":      u.ProfileCompleted,
		"is_verified":            u.IsVerified,
		"verification_documents": u.VerificationDocuments,
	}
	rec, err := r.table.Create(ctx, fields)
	if err != nil {
		return nil, err
	}
	return decodeUser(rec)
}

// GetByID fetches a user by the provider subject, nil when absent.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	rec, err := r.table.GetByID(ctx, id)
	if err != nil || rec == nil {
		return nil, err
	}
	return decodeUser(rec)
}

// GetByEmail fetches a user by normalized email, nil when absent.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	rec, err := r.table.GetByField(ctx, "email", strings.ToLower(strings.TrimSpace(email)))
	if err != nil || rec == nil {
		return nil, err
	}
	return decodeUser(rec)
}

// List returns users, optionally filtered by role.
func (r *UserRepo) List(ctx context.Context, role string, offset, limit int) ([]model.User, error) {
	filters := map[string]string{}
	if role != "" {
		filters["role"] = role
	}
	recs, err := r.table.List(ctx, filters, platform.ListOptions{Offset: offset, Limit: limit})
	if err != nil {
		return nil, err
	}
	var users []model.User
	if err := platform.DecodeRecords(recs, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Update applies a patch and returns the updated row, nil when absent.
func (r *UserRepo) Update(ctx context.Context, id string, patch model.UserPatch) (*model.User, error) {
	fields := patch.Fields()
	if len(fields) == 0 {
		return r.GetByID(ctx, id)
	}
	return r.UpdateFields(ctx, id, fields)
}

// UpdateFields applies a raw field map. Used for columns without a patch
// counterpart (last_login_at, verification_documents).
func (r *UserRepo) UpdateFields(ctx context.Context, id string, fields platform.Record) (*model.User, error) {
	fields["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	rec, err := r.table.Update(ctx, id, fields)
	if err != nil || rec == nil {
		return nil, err
	}
	return decodeUser(rec)
}

// AppendVerificationDocument adds one submitted document to the user's
// list. Read-modify-write: the store has no array-append operation in the
// generic adapter.
func (r *UserRepo) AppendVerificationDocument(ctx context.Context, id string, doc model.VerificationDocument) (*model.User, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, nil
	}
	docs := append(u.VerificationDocuments, doc)
	return r.UpdateFields(ctx, id, platform.Record{"verification_documents": docs})
}

// Deactivate flips the account status to inactive. Named for its effect:
// the row is not removed.
func (r *UserRepo) Deactivate(ctx context.Context, id string) error {
	_, err := r.UpdateFields(ctx, id, platform.Record{"status": string(model.UserInactive)})
	return err
}

func decodeUser(rec platform.Record) (*model.User, error) {
	var u model.User
	if err := platform.DecodeRecord(rec, &u); err != nil {
		return nil, err
	}
	if u.VerificationDocuments == nil {
		u.VerificationDocuments = []model.VerificationDocument{}
	}
	return &u, nil
}
