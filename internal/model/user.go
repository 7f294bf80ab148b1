package model

import "time"

// Role enumerates the account roles understood by the permission layer.
// The stored role on a user record is always exactly one of these; the
// roles a user may *act* as are tracked separately in role_grants.
type Role string

const (
	RoleOwner       Role = "owner"
	RoleTenant      Role = "tenant"
	RoleMaintenance Role = "maintenance"
	RoleAdmin       Role = "admin"
)

// AllRoles lists every valid role value.
var AllRoles = []Role{RoleOwner, RoleTenant, RoleMaintenance, RoleAdmin}

// ValidRole reports whether s names a known role.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleOwner, RoleTenant, RoleMaintenance, RoleAdmin:
		return true
	}
	return false
}

// UserStatus enumerates account statuses. Transitions are not validated
// beyond membership in this set.
type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserInactive UserStatus = "inactive"
	UserPending  UserStatus = "pending"
)

// VerificationDocument is one identity/ownership document a user submitted
// for review. The file itself lives in object storage; only the public URL
// is kept here.
type VerificationDocument struct {
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url"`
	SubmittedAt time.Time `json:"submitted_at"`
	Status      string    `json:"status"` // pending | verified | rejected
}

// User mirrors a row of the hosted store's `users` table. The primary key
// is the identifier the identity provider assigned at sign-up, so auth
// subjects and user rows share one ID space.
type User struct {
	ID                    string                 `json:"user_id"`
	Email                 string                 `json:"email"`
	FirstName             string                 `json:"first_name"`
	LastName              string                 `json:"last_name"`
	Phone                 string                 `json:"phone,omitempty"`
	Role                  Role                   `json:"role"`
	Status                UserStatus             `json:"status"`
	ProfileCompleted      bool                   `json:"profile_completed"`
	IsVerified            bool                   `json:"is_verified"`
	ProfilePictureURL     string                 `json:"profile_picture_url,omitempty"`
	Street                string                 `json:"street,omitempty"`
	City                  string                 `json:"city,omitempty"`
	State                 string                 `json:"state,omitempty"`
	Zip                   string                 `json:"zip,omitempty"`
	Country               string                 `json:"country,omitempty"`
	VerificationDocuments []VerificationDocument `json:"verification_documents"`
	LastLoginAt           *time.Time             `json:"last_login_at,omitempty"`
	CreatedAt             time.Time              `json:"created_at"`
	UpdatedAt             time.Time              `json:"updated_at"`
}

// FullName joins first and last name for display fields on composite views.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// UserPatch carries a partial update of a user row. Nil fields are left
// untouched; Fields() produces the wire map handed to the table adapter.
type UserPatch struct {
	Email             *string     `json:"email,omitempty"`
	FirstName         *string     `json:"first_name,omitempty"`
	LastName          *string     `json:"last_name,omitempty"`
	Phone             *string     `json:"phone,omitempty"`
	Status            *UserStatus `json:"status,omitempty"`
	ProfilePictureURL *string     `json:"profile_picture_url,omitempty"`
	Street            *string     `json:"street,omitempty"`
	City              *string     `json:"city,omitempty"`
	State             *string     `json:"state,omitempty"`
	Zip               *string     `json:"zip,omitempty"`
	Country           *string     `json:"country,omitempty"`
	ProfileCompleted  *bool       `json:"profile_completed,omitempty"`
}

// Fields returns only the set values, keyed by column name.
func (p UserPatch) Fields() map[string]any {
	m := map[string]any{}
	putStr(m, "email", p.Email)
	putStr(m, "first_name", p.FirstName)
	putStr(m, "last_name", p.LastName)
	putStr(m, "phone", p.Phone)
	if p.Status != nil {
		m["status"] = string(*p.Status)
	}
	putStr(m, "profile_picture_url", p.ProfilePictureURL)
	putStr(m, "street", p.Street)
	putStr(m, "city", p.City)
	putStr(m, "state", p.State)
	putStr(m, "zip", p.Zip)
	putStr(m, "country", p.Country)
	if p.ProfileCompleted != nil {
		m["profile_completed"] = *p.ProfileCompleted
	}
	return m
}

func putStr(m map[string]any, key string, v *string) {
	if v != nil {
		m[key] = *v
	}
}
