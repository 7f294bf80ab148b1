package view

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rentora/property-portal/internal/model"
)

func TestBuildOwnerStats(t *testing.T) {
	props := []model.Property{
		{ID: "p1", Name: "Elm Court", City: "Berlin"},
		{ID: "p2", Name: "Oak House", City: "Hamburg"},
	}
	units := map[string][]model.Unit{
		"p1": {
			{ID: "u1", Status: model.UnitOccupied, RentAmount: 1200},
			{ID: "u2", Status: model.UnitAvailable, RentAmount: 1000},
			{ID: "u3", Status: model.UnitOccupied, RentAmount: 800},
			{ID: "u4", Status: model.UnitInactive, RentAmount: 999},
		},
		"p2": {
			{ID: "u5", Status: model.UnitAvailable, RentAmount: 1500},
		},
	}

	stats := BuildOwnerStats(props, units, 3)

	assert.Equal(t, 2, stats.TotalProperties)
	assert.Equal(t, 4, stats.TotalUnits, "inactive units are not rentable stock")
	assert.Equal(t, 2, stats.OccupiedUnits)
	assert.Equal(t, 2, stats.VacantUnits)
	assert.Equal(t, 50.0, stats.OccupancyRate)
	assert.Equal(t, 2000.0, stats.TotalMonthlyIncome, "only occupied units earn")
	assert.Equal(t, 3, stats.OpenMaintenanceRequests)

	assert.Len(t, stats.Properties, 2)
	assert.Equal(t, "p1", stats.Properties[0].PropertyID)
	assert.Equal(t, 3, stats.Properties[0].TotalUnits)
	assert.Equal(t, 2000.0, stats.Properties[0].MonthlyIncome)
	assert.Equal(t, 0.0, stats.Properties[1].MonthlyIncome)
}

func TestBuildOwnerStatsEmptyPortfolio(t *testing.T) {
	stats := BuildOwnerStats(nil, nil, 0)
	assert.Equal(t, 0, stats.TotalProperties)
	assert.Equal(t, 0.0, stats.OccupancyRate, "no division by zero")
	assert.NotNil(t, stats.Properties)
}

func TestBuildOwnerStatsRateRounding(t *testing.T) {
	props := []model.Property{{ID: "p1"}}
	units := map[string][]model.Unit{
		"p1": {
			{Status: model.UnitOccupied},
			{Status: model.UnitAvailable},
			{Status: model.UnitAvailable},
		},
	}
	stats := BuildOwnerStats(props, units, 0)
	assert.Equal(t, 33.3, stats.OccupancyRate)
}

func TestBuildTenantStats(t *testing.T) {
	unit := &model.Unit{ID: "u1", PropertyID: "p1"}
	property := &model.Property{ID: "p1", Name: "Elm Court"}
	reqs := []model.MaintenanceRequest{
		{ID: "m1", Status: model.MaintenanceOpen},
		{ID: "m2", Status: model.MaintenanceInProgress},
		{ID: "m3", Status: model.MaintenanceCompleted},
		{ID: "m4", Status: model.MaintenanceAssigned},
		{ID: "m5", Status: model.MaintenanceCancelled},
		{ID: "m6", Status: model.MaintenanceOpen},
	}

	stats := BuildTenantStats(unit, property, reqs)

	assert.Equal(t, unit, stats.CurrentUnit)
	assert.Equal(t, property, stats.CurrentProperty)
	assert.Equal(t, 4, stats.ActiveRequests, "completed and cancelled are not active")
	assert.Len(t, stats.RecentRequests, 5, "recap is capped at five")
	assert.Equal(t, "m1", stats.RecentRequests[0].ID)
}

func TestBuildTenantStatsNoOccupancy(t *testing.T) {
	stats := BuildTenantStats(nil, nil, nil)
	assert.Nil(t, stats.CurrentUnit)
	assert.Equal(t, 0, stats.ActiveRequests)
	assert.NotNil(t, stats.RecentRequests)
}

func TestNewUnitDetail(t *testing.T) {
	d := NewUnitDetail(
		model.Unit{ID: "u1", UnitNumber: "4B"},
		model.Property{ID: "p1", Name: "Elm Court", City: "Berlin", Street: "Elm St 1", PropertyType: "apartment"},
	)
	assert.Equal(t, "u1", d.ID)
	assert.Equal(t, "Elm Court", d.PropertyName)
	assert.Equal(t, "Berlin", d.PropertyCity)
	assert.Equal(t, "apartment", d.PropertyType)
}

func TestNewMaintenanceDetailNilRelations(t *testing.T) {
	d := NewMaintenanceDetail(model.MaintenanceRequest{ID: "m1"}, nil, nil, nil, nil, nil)
	assert.Equal(t, "m1", d.ID)
	assert.Empty(t, d.PropertyName)
	assert.Empty(t, d.TenantName)
	assert.NotNil(t, d.Comments, "comments render as an empty list, not null")
}

func TestNewMaintenanceDetailResolvesNames(t *testing.T) {
	d := NewMaintenanceDetail(
		model.MaintenanceRequest{ID: "m1"},
		&model.Property{Name: "Elm Court"},
		&model.Unit{UnitNumber: "4B"},
		&model.User{FirstName: "Ada", LastName: "Lovelace"},
		&model.User{FirstName: "Grace", LastName: "Hopper"},
		[]model.MaintenanceComment{{ID: "c1"}},
	)
	assert.Equal(t, "Elm Court", d.PropertyName)
	assert.Equal(t, "4B", d.UnitNumber)
	assert.Equal(t, "Ada Lovelace", d.TenantName)
	assert.Equal(t, "Grace Hopper", d.AssignedToName)
	assert.Len(t, d.Comments, 1)
}
