// Package view assembles response shapes that join rows from several
// tables. Assemblers are pure: the handler fetches, the assembler shapes.
package view

import (
	"math"

	"github.com/rentora/property-portal/internal/model"
)

// UnitDetail is a unit together with the property context a client needs
// to render it standalone.
type UnitDetail struct {
	model.Unit
	PropertyName string `json:"property_name"`
	PropertyCity string `json:"property_city,omitempty"`
	Street       string `json:"street,omitempty"`
	PropertyType string `json:"property_type,omitempty"`
}

// NewUnitDetail joins a unit with its property.
func NewUnitDetail(u model.Unit, p model.Property) UnitDetail {
	return UnitDetail{
		Unit:         u,
		PropertyName: p.Name,
		PropertyCity: p.City,
		Street:       p.Street,
		PropertyType: p.PropertyType,
	}
}

// MaintenanceDetail is a request expanded with names resolved from the
// related rows and the full comment thread.
type MaintenanceDetail struct {
	model.MaintenanceRequest
	PropertyName   string                     `json:"property_name,omitempty"`
	UnitNumber     string                     `json:"unit_number,omitempty"`
	TenantName     string                     `json:"tenant_name,omitempty"`
	AssignedToName string                     `json:"assigned_to_name,omitempty"`
	Comments       []model.MaintenanceComment `json:"comments"`
}

// NewMaintenanceDetail joins a request with its related rows. Any of the
// related pointers may be nil; the corresponding field stays empty.
func NewMaintenanceDetail(m model.MaintenanceRequest, p *model.Property, u *model.Unit, tenant, staff *model.User, comments []model.MaintenanceComment) MaintenanceDetail {
	d := MaintenanceDetail{MaintenanceRequest: m, Comments: comments}
	if d.Comments == nil {
		d.Comments = []model.MaintenanceComment{}
	}
	if p != nil {
		d.PropertyName = p.Name
	}
	if u != nil {
		d.UnitNumber = u.UnitNumber
	}
	if tenant != nil {
		d.TenantName = tenant.FullName()
	}
	if staff != nil {
		d.AssignedToName = staff.FullName()
	}
	return d
}

// PropertySummary is the per-property line of the owner dashboard.
type PropertySummary struct {
	PropertyID    string  `json:"property_id"`
	Name          string  `json:"name"`
	City          string  `json:"city"`
	TotalUnits    int     `json:"total_units"`
	OccupiedUnits int     `json:"occupied_units"`
	MonthlyIncome float64 `json:"monthly_income"`
}

// OwnerStats aggregates an owner's portfolio for the dashboard.
type OwnerStats struct {
	TotalProperties         int               `json:"total_properties"`
	TotalUnits              int               `json:"total_units"`
	OccupiedUnits           int               `json:"occupied_units"`
	VacantUnits             int               `json:"vacant_units"`
	OccupancyRate           float64           `json:"occupancy_rate"`
	TotalMonthlyIncome      float64           `json:"total_monthly_income"`
	OpenMaintenanceRequests int               `json:"open_maintenance_requests"`
	Properties              []PropertySummary `json:"properties"`
}

// BuildOwnerStats aggregates properties and their units. Occupied units
// count toward income at their rent amount; the occupancy rate is a
// percentage rounded to one decimal. Inactive units do not count as
// rentable stock.
func BuildOwnerStats(properties []model.Property, unitsByProperty map[string][]model.Unit, openRequests int) OwnerStats {
	stats := OwnerStats{
		TotalProperties:         len(properties),
		OpenMaintenanceRequests: openRequests,
		Properties:              []PropertySummary{},
	}
	for _, p := range properties {
		sum := PropertySummary{PropertyID: p.ID, Name: p.Name, City: p.City}
		for _, u := range unitsByProperty[p.ID] {
			if u.Status == model.UnitInactive {
				continue
			}
			sum.TotalUnits++
			if u.Status == model.UnitOccupied {
				sum.OccupiedUnits++
				sum.MonthlyIncome += u.RentAmount
			}
		}
		stats.TotalUnits += sum.TotalUnits
		stats.OccupiedUnits += sum.OccupiedUnits
		stats.TotalMonthlyIncome += sum.MonthlyIncome
		stats.Properties = append(stats.Properties, sum)
	}
	stats.VacantUnits = stats.TotalUnits - stats.OccupiedUnits
	if stats.TotalUnits > 0 {
		rate := float64(stats.OccupiedUnits) / float64(stats.TotalUnits) * 100
		stats.OccupancyRate = math.Round(rate*10) / 10
	}
	return stats
}

// TenantStats is the tenant side of the dashboard.
type TenantStats struct {
	CurrentUnit     *model.Unit                `json:"current_unit"`
	CurrentProperty *model.Property            `json:"current_property"`
	ActiveRequests  int                        `json:"active_requests"`
	RecentRequests  []model.MaintenanceRequest `json:"recent_requests"`
}

// BuildTenantStats summarizes the tenant's occupancy and requests.
// Requests are assumed newest first; at most five are echoed back.
func BuildTenantStats(unit *model.Unit, property *model.Property, requests []model.MaintenanceRequest) TenantStats {
	stats := TenantStats{
		CurrentUnit:     unit,
		CurrentProperty: property,
		RecentRequests:  []model.MaintenanceRequest{},
	}
	for _, r := range requests {
		switch r.Status {
		case model.MaintenanceOpen, model.MaintenanceAssigned, model.MaintenanceInProgress:
			stats.ActiveRequests++
		}
		if len(stats.RecentRequests) < 5 {
			stats.RecentRequests = append(stats.RecentRequests, r)
		}
	}
	return stats
}
