package repository

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/rentora/property-portal/internal/model"
	"github.com/rentora/property-portal/internal/platform"
)

// NotificationRepo stores per-user notifications.
type NotificationRepo struct {
	table *platform.Table
}

func NewNotificationRepo(c *platform.Client) *NotificationRepo {
	return &NotificationRepo{table: platform.NewTable(c, "notifications")}
}

// Create inserts an unread notification.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) (*model.Notification, error) {
	fields := platform.Record{
		"user_id": n.UserID,
		"type":    string(n.Type),
		"title":   n.Title,
		"message": n.Message,
		"is_read": false,
	}
	if n.Data != nil {
		fields["data"] = n.Data
	}
	rec, err := r.table.Create(ctx, fields)
	if err != nil || rec == nil {
		return nil, err
	}
	var out model.Notification
	if err := platform.DecodeRecord(rec, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateBestEffort inserts a notification as a side effect of another
// operation. A failure is logged and swallowed: secondary writes must
// never fail the primary one.
func (r *NotificationRepo) CreateBestEffort(ctx context.Context, n *model.Notification) {
	if _, err := r.Create(ctx, n); err != nil {
		logrus.WithError(err).WithField("user_id", n.UserID).Warn("notification write failed")
	}
}

// ListByUser returns the user's notifications, newest first.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool, offset, limit int) ([]model.Notification, error) {
	filters := map[string]string{"user_id": userID}
	if unreadOnly {
		filters["is_read"] = "false"
	}
	recs, err := r.table.List(ctx, filters, platform.ListOptions{
		Offset: offset, Limit: limit, OrderBy: "created_at", Desc: true,
	})
	if err != nil {
		return nil, err
	}
	notifications := []model.Notification{}
	if err := platform.DecodeRecords(recs, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// Counts returns the user's total and unread notification counts.
func (r *NotificationRepo) Counts(ctx context.Context, userID string) (total, unread int, err error) {
	recs, err := r.table.List(ctx, map[string]string{"user_id": userID}, platform.ListOptions{})
	if err != nil {
		return 0, 0, err
	}
	total = len(recs)
	for _, rec := range recs {
		if read, ok := rec["is_read"].(bool); ok && !read {
			unread++
		}
	}
	return total, unread, nil
}

// GetByID fetches one notification, nil when absent. Ownership checks are
// the caller's.
func (r *NotificationRepo) GetByID(ctx context.Context, id string) (*model.Notification, error) {
	rec, err := r.table.GetByID(ctx, id)
	if err != nil || rec == nil {
		return nil, err
	}
	var n model.Notification
	if err := platform.DecodeRecord(rec, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// MarkRead flips the read flag.
func (r *NotificationRepo) MarkRead(ctx context.Context, id string) error {
	_, err := r.table.Update(ctx, id, platform.Record{"is_read": true})
	return err
}
