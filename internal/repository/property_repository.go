package repository

import (
	"context"
	"strings"
	"time"

	"github.com/rentora/property-portal/internal/model"
	"github.com/rentora/property-portal/internal/platform"
)

// PropertyFilter narrows List. OwnerID is the only condition the store
// evaluates; the rest are applied in memory after the page comes back,
// because the generic adapter only pushes equality filters.
type PropertyFilter struct {
	OwnerID        string
	City           string // substring match, case-insensitive
	State          string
	PropertyType   string
	IncludeDeleted bool
	Offset         int
	Limit          int
}

// PropertyRepo stores property rows.
type PropertyRepo struct {
	table *platform.Table
}

func NewPropertyRepo(c *platform.Client) *PropertyRepo {
	return &PropertyRepo{table: platform.NewTable(c, "properties")}
}

// Create inserts a property. Nil list fields become empty lists and the
// status defaults to active.
func (r *PropertyRepo) Create(ctx context.Context, p *model.Property) (*model.Property, error) {
	if p.Amenities == nil {
		p.Amenities = []string{}
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Status == "" {
		p.Status = model.PropertyActive
	}
	fields := platform.Record{
		"owner_id":      p.OwnerID,
		"name":          p.Name,
		"street":        p.Street,
		"city":          p.City,
		"state":         p.State,
		"zip":           p.Zip,
		"country":       p.Country,
		"property_type": p.PropertyType,
		"year_built":    p.YearBuilt,
		"total_units":   p.TotalUnits,
		"amenities":     p.Amenities,
		"description":   p.Description,
		"images":        p.Images,
		"status":        string(p.Status),
	}
	if p.Latitude != nil {
		fields["latitude"] = *p.Latitude
	}
	if p.Longitude != nil {
		fields["longitude"] = *p.Longitude
	}
	rec, err := r.table.Create(ctx, fields)
	if err != nil {
		return nil, err
	}
	return decodeProperty(rec)
}

// GetByID fetches a property by identifier, nil when absent. Soft-deleted
// rows are returned too; visibility is the caller's decision.
func (r *PropertyRepo) GetByID(ctx context.Context, id string) (*model.Property, error) {
	rec, err := r.table.GetByID(ctx, id)
	if err != nil || rec == nil {
		return nil, err
	}
	return decodeProperty(rec)
}

// List returns properties matching the filter. Soft-deleted rows are
// excluded unless IncludeDeleted is set.
func (r *PropertyRepo) List(ctx context.Context, f PropertyFilter) ([]model.Property, error) {
	filters := map[string]string{}
	if f.OwnerID != "" {
		filters["owner_id"] = f.OwnerID
	}
	recs, err := r.table.List(ctx, filters, platform.ListOptions{
		Offset: f.Offset, Limit: f.Limit, OrderBy: "created_at", Desc: true,
	})
	if err != nil {
		return nil, err
	}
	var props []model.Property
	if err := platform.DecodeRecords(recs, &props); err != nil {
		return nil, err
	}
	out := props[:0]
	for _, p := range props {
		if !f.IncludeDeleted && p.Status == model.PropertyDeleted {
			continue
		}
		if f.City != "" && !strings.Contains(strings.ToLower(p.City), strings.ToLower(f.City)) {
			continue
		}
		if f.State != "" && p.State != f.State {
			continue
		}
		if f.PropertyType != "" && p.PropertyType != f.PropertyType {
			continue
		}
		if p.Amenities == nil {
			p.Amenities = []string{}
		}
		if p.Images == nil {
			p.Images = []string{}
		}
		out = append(out, p)
	}
	return out, nil
}

// Update applies a patch and returns the updated row, nil when absent.
func (r *PropertyRepo) Update(ctx context.Context, id string, patch model.PropertyPatch) (*model.Property, error) {
	fields := patch.Fields()
	if len(fields) == 0 {
		return r.GetByID(ctx, id)
	}
	return r.updateFields(ctx, id, fields)
}

// AppendImages adds uploaded image URLs to the property.
func (r *PropertyRepo) AppendImages(ctx context.Context, id string, urls []string) (*model.Property, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil || p == nil {
		return nil, err
	}
	return r.updateFields(ctx, id, platform.Record{"images": append(p.Images, urls...)})
}

// Deactivate flips the status to deleted. The row stays retrievable by
// identifier.
func (r *PropertyRepo) Deactivate(ctx context.Context, id string) error {
	_, err := r.updateFields(ctx, id, platform.Record{"status": string(model.PropertyDeleted)})
	return err
}

// HardDelete physically removes the row. Not reachable through the public
// API; kept for operational cleanup.
func (r *PropertyRepo) HardDelete(ctx context.Context, id string) error {
	return r.table.Delete(ctx, id)
}

func (r *PropertyRepo) updateFields(ctx context.Context, id string, fields platform.Record) (*model.Property, error) {
	fields["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	rec, err := r.table.Update(ctx, id, fields)
	if err != nil || rec == nil {
		return nil, err
	}
	return decodeProperty(rec)
}

func decodeProperty(rec platform.Record) (*model.Property, error) {
	var p model.Property
	if err := platform.DecodeRecord(rec, &p); err != nil {
		return nil, err
	}
	if p.Amenities == nil {
		p.Amenities = []string{}
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	return &p, nil
}
