// Package session tracks the per-user active role between requests. The
// role a user is currently acting as is deliberately not a column on the
// user row: it is session state, held in Redis with a TTL, defaulting to
// the stored role whenever unset. Request handling reads it once into the
// request-scoped identity; nothing here is process-global.
package session

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rentora/property-portal/internal/model"
)

const keyPrefix = "active_role:"

// Store holds active-role state in Redis. A nil client degrades to "no
// session": every request then acts as the stored role and switches do not
// survive the request.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore returns a Store. ttl bounds how long a switched role outlives
// the last request; it is aligned with the refresh-token lifetime.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// ActiveRole returns the user's switched role, or "" when no switch is in
// effect (caller falls back to the stored role).
func (s *Store) ActiveRole(ctx context.Context, userID string) model.Role {
	if s == nil || s.rdb == nil {
		return ""
	}
	v, err := s.rdb.Get(ctx, keyPrefix+userID).Result()
	if err != nil || !model.ValidRole(v) {
		return ""
	}
	return model.Role(v)
}

// SetActiveRole records the user's active role.
func (s *Store) SetActiveRole(ctx context.Context, userID string, role model.Role) error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Set(ctx, keyPrefix+userID, string(role), s.ttl).Err()
}

// Clear drops the session state, e.g. on logout.
func (s *Store) Clear(ctx context.Context, userID string) {
	if s == nil || s.rdb == nil {
		return
	}
	s.rdb.Del(ctx, keyPrefix+userID)
}
