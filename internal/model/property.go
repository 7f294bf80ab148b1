package model

import "time"

// PropertyStatus enumerates the lifecycle states of a property. "deleted"
// is a soft state: the row stays in the store and remains retrievable by
// identifier, it is only excluded from default listings.
type PropertyStatus string

const (
	PropertyActive   PropertyStatus = "active"
	PropertyInactive PropertyStatus = "inactive"
	PropertyDeleted  PropertyStatus = "deleted"
)

// Property mirrors a row of the `properties` table. OwnerID references the
// users table; authorization walks this foreign key at request time.
type Property struct {
	ID           string         `json:"property_id"`
	OwnerID      string         `json:"owner_id"`
	Name         string         `json:"name"`
	Street       string         `json:"street"`
	City         string         `json:"city"`
	State        string         `json:"state"`
	Zip          string         `json:"zip"`
	Country      string         `json:"country"`
	Latitude     *float64       `json:"latitude,omitempty"`
	Longitude    *float64       `json:"longitude,omitempty"`
	PropertyType string         `json:"property_type"`
	YearBuilt    int            `json:"year_built,omitempty"`
	TotalUnits   int            `json:"total_units"`
	Amenities    []string       `json:"amenities"`
	Description  string         `json:"description,omitempty"`
	Images       []string       `json:"images"`
	Status       PropertyStatus `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// PropertyPatch carries a partial update of a property row.
type PropertyPatch struct {
	Name         *string         `json:"name,omitempty"`
	Street       *string         `json:"street,omitempty"`
	City         *string         `json:"city,omitempty"`
	State        *string         `json:"state,omitempty"`
	Zip          *string         `json:"zip,omitempty"`
	Country      *string         `json:"country,omitempty"`
	PropertyType *string         `json:"property_type,omitempty"`
	YearBuilt    *int            `json:"year_built,omitempty"`
	TotalUnits   *int            `json:"total_units,omitempty"`
	Amenities    *[]string       `json:"amenities,omitempty"`
	Description  *string         `json:"description,omitempty"`
	Status       *PropertyStatus `json:"status,omitempty"`
}

// Fields returns only the set values, keyed by column name.
func (p PropertyPatch) Fields() map[string]any {
	m := map[string]any{}
	putStr(m, "name", p.Name)
	putStr(m, "street", p.Street)
	putStr(m, "city", p.City)
	putStr(m, "state", p.State)
	putStr(m, "zip", p.Zip)
	putStr(m, "country", p.Country)
	putStr(m, "property_type", p.PropertyType)
	if p.YearBuilt != nil {
		m["year_built"] = *p.YearBuilt
	}
	if p.TotalUnits != nil {
		m["total_units"] = *p.TotalUnits
	}
	if p.Amenities != nil {
		m["amenities"] = *p.Amenities
	}
	putStr(m, "description", p.Description)
	if p.Status != nil {
		m["status"] = string(*p.Status)
	}
	return m
}
