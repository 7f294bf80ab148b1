// Package queue defines message payloads exchanged over the message broker.
package queue

// RoleSwitchedEvent is published whenever a user changes their active
// role. Downstream consumers keep the audit trail without touching the
// primary store.
type RoleSwitchedEvent struct {
	UserID     string `json:"user_id"`
	FromRole   string `json:"from_role"`
	ToRole     string `json:"to_role"`
	SwitchedAt string `json:"switched_at"`
}

// NotificationCreatedEvent is published when an in-app notification is
// written, so external channels (email, push) can fan out later.
type NotificationCreatedEvent struct {
	NotificationID string `json:"notification_id"`
	UserID         string `json:"user_id"`
	Type           string `json:"type"`
	Title          string `json:"title"`
	CreatedAt      string `json:"created_at"`
}
