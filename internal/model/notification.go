package model

import "time"

// NotificationType enumerates the notification kinds clients know how to
// render.
type NotificationType string

const (
	NotifyMaintenanceUpdate NotificationType = "maintenance_update"
	NotifyRoleChange        NotificationType = "role_change"
	NotifySystem            NotificationType = "system"
)

// Notification mirrors a row of the `notifications` table. Data carries an
// arbitrary payload (entity identifiers etc.) for client-side deep links.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	IsRead    bool             `json:"is_read"`
	Data      map[string]any   `json:"data,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// RoleGrant mirrors a row of the `role_grants` table: one row per role a
// user is allowed to switch into, beyond the role stored on the account.
type RoleGrant struct {
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	GrantedBy string    `json:"granted_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
