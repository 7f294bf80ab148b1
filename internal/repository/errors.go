// Package repository defines error values reused across repositories and
// the authorization layer. These sentinels let handlers distinguish
// failure scenarios without inspecting provider errors: ErrForbidden maps
// to HTTP 403, ErrConflict to 409, ErrRoleNotAvailable to the role-switch
// denial described in the permission layer.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own or with a role that does not permit it.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of
// conflicting state, such as a duplicate email at registration.
var ErrConflict = errors.New("conflict")

// ErrRoleNotAvailable is returned when a role switch targets a role the
// user has no grant for.
var ErrRoleNotAvailable = errors.New("role not available")
