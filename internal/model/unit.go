package model

import "time"

// UnitStatus enumerates the rental states of a unit. Deleting a unit flips
// its status to "inactive"; rows are never physically removed through the
// public API.
type UnitStatus string

const (
	UnitAvailable   UnitStatus = "available"
	UnitOccupied    UnitStatus = "occupied"
	UnitMaintenance UnitStatus = "maintenance"
	UnitReserved    UnitStatus = "reserved"
	UnitInactive    UnitStatus = "inactive"
)

// Unit mirrors a row of the `units` table. PropertyID references the
// properties table and transitively the owning user.
type Unit struct {
	ID              string     `json:"unit_id"`
	PropertyID      string     `json:"property_id"`
	TenantID        string     `json:"tenant_id,omitempty"`
	UnitNumber      string     `json:"unit_number"`
	Floor           int        `json:"floor,omitempty"`
	Bedrooms        float64    `json:"bedrooms"`
	Bathrooms       float64    `json:"bathrooms"`
	SquareFeet      float64    `json:"square_feet,omitempty"`
	RentAmount      float64    `json:"rent_amount"`
	SecurityDeposit float64    `json:"security_deposit,omitempty"`
	Status          UnitStatus `json:"status"`
	Amenities       []string   `json:"amenities"`
	Description     string     `json:"description,omitempty"`
	Images          []string   `json:"images"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// UnitPatch carries a partial update of a unit row.
type UnitPatch struct {
	UnitNumber      *string     `json:"unit_number,omitempty"`
	Floor           *int        `json:"floor,omitempty"`
	Bedrooms        *float64    `json:"bedrooms,omitempty"`
	Bathrooms       *float64    `json:"bathrooms,omitempty"`
	SquareFeet      *float64    `json:"square_feet,omitempty"`
	RentAmount      *float64    `json:"rent_amount,omitempty"`
	SecurityDeposit *float64    `json:"security_deposit,omitempty"`
	Status          *UnitStatus `json:"status,omitempty"`
	Amenities       *[]string   `json:"amenities,omitempty"`
	Description     *string     `json:"description,omitempty"`
}

// Fields returns only the set values, keyed by column name.
func (p UnitPatch) Fields() map[string]any {
	m := map[string]any{}
	putStr(m, "unit_number", p.UnitNumber)
	if p.Floor != nil {
		m["floor"] = *p.Floor
	}
	putF64(m, "bedrooms", p.Bedrooms)
	putF64(m, "bathrooms", p.Bathrooms)
	putF64(m, "square_feet", p.SquareFeet)
	putF64(m, "rent_amount", p.RentAmount)
	putF64(m, "security_deposit", p.SecurityDeposit)
	if p.Status != nil {
		m["status"] = string(*p.Status)
	}
	if p.Amenities != nil {
		m["amenities"] = *p.Amenities
	}
	putStr(m, "description", p.Description)
	return m
}

func putF64(m map[string]any, key string, v *float64) {
	if v != nil {
		m[key] = *v
	}
}
