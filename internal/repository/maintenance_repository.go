package repository

import (
	"context"
	"time"

	"github.com/rentora/property-portal/internal/model"
	"github.com/rentora/property-portal/internal/platform"
)

// MaintenanceFilter narrows List. The single-value conditions are pushed
// to the store as equality filters; PropertyIDs (an owner's whole
// portfolio) is applied in memory because the adapter has no set
// membership operator.
type MaintenanceFilter struct {
	TenantID    string
	AssignedTo  string
	PropertyID  string
	UnitID      string
	Status      string
	PropertyIDs []string
	Offset      int
	Limit       int
}

// MaintenanceRepo stores maintenance requests and their comment threads.
type MaintenanceRepo struct {
	requests *platform.Table
	comments *platform.Table
}

func NewMaintenanceRepo(c *platform.Client) *MaintenanceRepo {
	return &MaintenanceRepo{
		requests: platform.NewTable(c, "maintenance_requests"),
		comments: platform.NewTable(c, "maintenance_comments"),
	}
}

// Create inserts a request with status open.
func (r *MaintenanceRepo) Create(ctx context.Context, m *model.MaintenanceRequest) (*model.MaintenanceRequest, error) {
	if m.Photos == nil {
		m.Photos = []string{}
	}
	if m.Status == "" {
		m.Status = model.MaintenanceOpen
	}
	fields := platform.Record{
		"unit_id":     m.UnitID,
		"property_id": m.PropertyID,
		"tenant_id":   m.TenantID,
		"title":       m.Title,
		"description": m.Description,
		"category":    string(m.Category),
		"priority":    string(m.Priority),
		"status":      string(m.Status),
		"photos":      m.Photos,
	}
	if m.AccessInstructions != "" {
		fields["access_instructions"] = m.AccessInstructions
	}
	if m.ScheduledDate != nil {
		fields["scheduled_date"] = m.ScheduledDate.UTC().Format(time.RFC3339)
	}
	rec, err := r.requests.Create(ctx, fields)
	if err != nil {
		return nil, err
	}
	return decodeRequest(rec)
}

// GetByID fetches a request by identifier, nil when absent.
func (r *MaintenanceRepo) GetByID(ctx context.Context, id string) (*model.MaintenanceRequest, error) {
	rec, err := r.requests.GetByID(ctx, id)
	if err != nil || rec == nil {
		return nil, err
	}
	return decodeRequest(rec)
}

// List returns requests matching the filter, newest first.
func (r *MaintenanceRepo) List(ctx context.Context, f MaintenanceFilter) ([]model.MaintenanceRequest, error) {
	filters := map[string]string{}
	if f.TenantID != "" {
		filters["tenant_id"] = f.TenantID
	}
	if f.AssignedTo != "" {
		filters["assigned_to"] = f.AssignedTo
	}
	if f.PropertyID != "" {
		filters["property_id"] = f.PropertyID
	}
	if f.UnitID != "" {
		filters["unit_id"] = f.UnitID
	}
	if f.Status != "" {
		filters["status"] = f.Status
	}
	recs, err := r.requests.List(ctx, filters, platform.ListOptions{
		Offset: f.Offset, Limit: f.Limit, OrderBy: "created_at", Desc: true,
	})
	if err != nil {
		return nil, err
	}
	var reqs []model.MaintenanceRequest
	if err := platform.DecodeRecords(recs, &reqs); err != nil {
		return nil, err
	}
	if len(f.PropertyIDs) == 0 {
		return reqs, nil
	}
	allowed := make(map[string]bool, len(f.PropertyIDs))
	for _, id := range f.PropertyIDs {
		allowed[id] = true
	}
	out := reqs[:0]
	for _, m := range reqs {
		if allowed[m.PropertyID] {
			out = append(out, m)
		}
	}
	return out, nil
}

// Update applies a patch and returns the updated row, nil when absent.
// Field-level role restrictions are enforced by the handler before the
// patch gets here.
func (r *MaintenanceRepo) Update(ctx context.Context, id string, patch model.MaintenancePatch) (*model.MaintenanceRequest, error) {
	fields := patch.Fields()
	if len(fields) == 0 {
		return r.GetByID(ctx, id)
	}
	fields["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	rec, err := r.requests.Update(ctx, id, fields)
	if err != nil || rec == nil {
		return nil, err
	}
	return decodeRequest(rec)
}

// ListComments returns a request's comment thread, oldest first.
func (r *MaintenanceRepo) ListComments(ctx context.Context, requestID string) ([]model.MaintenanceComment, error) {
	recs, err := r.comments.List(ctx, map[string]string{"request_id": requestID},
		platform.ListOptions{OrderBy: "created_at"})
	if err != nil {
		return nil, err
	}
	comments := []model.MaintenanceComment{}
	if err := platform.DecodeRecords(recs, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// AddComment appends one comment to a request's thread.
func (r *MaintenanceRepo) AddComment(ctx context.Context, c *model.MaintenanceComment) (*model.MaintenanceComment, error) {
	fields := platform.Record{
		"request_id": c.RequestID,
		"user_id":    c.UserID,
		"user_name":  c.UserName,
		"user_role":  c.UserRole,
		"comment":    c.Comment,
	}
	if c.PhotoURL != "" {
		fields["photo_url"] = c.PhotoURL
	}
	rec, err := r.comments.Create(ctx, fields)
	if err != nil || rec == nil {
		return nil, err
	}
	var out model.MaintenanceComment
	if err := platform.DecodeRecord(rec, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func decodeRequest(rec platform.Record) (*model.MaintenanceRequest, error) {
	var m model.MaintenanceRequest
	if err := platform.DecodeRecord(rec, &m); err != nil {
		return nil, err
	}
	if m.Photos == nil {
		m.Photos = []string{}
	}
	return &m, nil
}
