package repository

import (
	"context"
	"time"

	"github.com/rentora/property-portal/internal/model"
	"github.com/rentora/property-portal/internal/platform"
)

// UnitFilter narrows ListByProperty. Status is evaluated by the store;
// bedrooms and the rent bounds are applied in memory (the adapter pushes
// equality only).
type UnitFilter struct {
	Status   string
	Bedrooms *float64
	MinRent  *float64
	MaxRent  *float64
	Offset   int
	Limit    int
}

// UnitRepo stores unit rows.
type UnitRepo struct {
	table *platform.Table
}

func NewUnitRepo(c *platform.Client) *UnitRepo {
	return &UnitRepo{table: platform.NewTable(c, "units")}
}

// Create inserts a unit under its property. Nil list fields become empty
// lists; status defaults to available.
func (r *UnitRepo) Create(ctx context.Context, u *model.Unit) (*model.Unit, error) {
	if u.Amenities == nil {
		u.Amenities = []string{}
	}
	if u.Images == nil {
		u.Images = []string{}
	}
	if u.Status == "" {
		u.Status = model.UnitAvailable
	}
	fields := platform.Record{
		"property_id":      u.PropertyID,
		"unit_number":      u.UnitNumber,
		"floor":            u.Floor,
		"bedrooms":         u.Bedrooms,
		"bathrooms":        u.Bathrooms,
		"square_feet":      u.SquareFeet,
		"rent_amount":      u.RentAmount,
		"security_deposit": u.SecurityDeposit,
		"status":           string(u.Status),
		"amenities":        u.Amenities,
		"description":      u.Description,
		"images":           u.Images,
	}
	rec, err := r.table.Create(ctx, fields)
	if err != nil {
		return nil, err
	}
	return decodeUnit(rec)
}

// GetByID fetches a unit by identifier, nil when absent.
func (r *UnitRepo) GetByID(ctx context.Context, id string) (*model.Unit, error) {
	rec, err := r.table.GetByID(ctx, id)
	if err != nil || rec == nil {
		return nil, err
	}
	return decodeUnit(rec)
}

// ListByProperty returns the property's units matching the filter.
func (r *UnitRepo) ListByProperty(ctx context.Context, propertyID string, f UnitFilter) ([]model.Unit, error) {
	filters := map[string]string{"property_id": propertyID}
	if f.Status != "" {
		filters["status"] = f.Status
	}
	recs, err := r.table.List(ctx, filters, platform.ListOptions{Offset: f.Offset, Limit: f.Limit})
	if err != nil {
		return nil, err
	}
	var units []model.Unit
	if err := platform.DecodeRecords(recs, &units); err != nil {
		return nil, err
	}
	out := units[:0]
	for _, u := range units {
		if f.Bedrooms != nil && u.Bedrooms != *f.Bedrooms {
			continue
		}
		if f.MinRent != nil && u.RentAmount < *f.MinRent {
			continue
		}
		if f.MaxRent != nil && u.RentAmount > *f.MaxRent {
			continue
		}
		if u.Amenities == nil {
			u.Amenities = []string{}
		}
		if u.Images == nil {
			u.Images = []string{}
		}
		out = append(out, u)
	}
	return out, nil
}

// CurrentForTenant returns the unit the tenant currently occupies, nil
// when they occupy none.
func (r *UnitRepo) CurrentForTenant(ctx context.Context, tenantID string) (*model.Unit, error) {
	recs, err := r.table.List(ctx, map[string]string{
		"tenant_id": tenantID,
		"status":    string(model.UnitOccupied),
	}, platform.ListOptions{Limit: 1})
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	return decodeUnit(recs[0])
}

// Update applies a patch and returns the updated row, nil when absent.
func (r *UnitRepo) Update(ctx context.Context, id string, patch model.UnitPatch) (*model.Unit, error) {
	fields := patch.Fields()
	if len(fields) == 0 {
		return r.GetByID(ctx, id)
	}
	return r.updateFields(ctx, id, fields)
}

// AppendImages adds uploaded image URLs to the unit.
func (r *UnitRepo) AppendImages(ctx context.Context, id string, urls []string) (*model.Unit, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil || u == nil {
		return nil, err
	}
	return r.updateFields(ctx, id, platform.Record{"images": append(u.Images, urls...)})
}

// Deactivate flips the status to inactive; the row stays retrievable.
func (r *UnitRepo) Deactivate(ctx context.Context, id string) error {
	_, err := r.updateFields(ctx, id, platform.Record{"status": string(model.UnitInactive)})
	return err
}

func (r *UnitRepo) updateFields(ctx context.Context, id string, fields platform.Record) (*model.Unit, error) {
	fields["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	rec, err := r.table.Update(ctx, id, fields)
	if err != nil || rec == nil {
		return nil, err
	}
	return decodeUnit(rec)
}

func decodeUnit(rec platform.Record) (*model.Unit, error) {
	var u model.Unit
	if err := platform.DecodeRecord(rec, &u); err != nil {
		return nil, err
	}
	if u.Amenities == nil {
		u.Amenities = []string{}
	}
	if u.Images == nil {
		u.Images = []string{}
	}
	return &u, nil
}
