package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rentora/property-portal/internal/model"
	"github.com/rentora/property-portal/internal/repository"
	"github.com/rentora/property-portal/internal/view"
)

// DashboardHandler assembles the landing summary and serves the
// notification feed.
type DashboardHandler struct {
	Properties    *repository.PropertyRepo
	Units         *repository.UnitRepo
	Maintenance   *repository.MaintenanceRepo
	Notifications *repository.NotificationRepo
}

func NewDashboardHandler(props *repository.PropertyRepo, units *repository.UnitRepo, m *repository.MaintenanceRepo, notes *repository.NotificationRepo) *DashboardHandler {
	return &DashboardHandler{Properties: props, Units: units, Maintenance: m, Notifications: notes}
}

type summaryResp struct {
	AccountStatus model.UserStatus     `json:"account_status"`
	ActiveRole    model.Role           `json:"active_role"`
	Notifications []model.Notification `json:"notifications"`
	OwnerStats    *view.OwnerStats     `json:"owner_stats,omitempty"`
	TenantStats   *view.TenantStats    `json:"tenant_stats,omitempty"`
}

// Summary returns the role-dependent dashboard: owners and admins get
// portfolio statistics, tenants their occupancy and request recap.
func (h *DashboardHandler) Summary(c echo.Context) error {
	ident := identity(c)
	ctx := c.Request().Context()

	recent, err := h.Notifications.ListByUser(ctx, ident.User.ID, false, 0, 5)
	if err != nil {
		return err
	}
	resp := summaryResp{
		AccountStatus: ident.User.Status,
		ActiveRole:    ident.ActiveRole,
		Notifications: recent,
	}

	switch ident.ActiveRole {
	case model.RoleOwner, model.RoleAdmin:
		stats, err := h.ownerStats(c, ident.User.ID)
		if err != nil {
			return err
		}
		resp.OwnerStats = stats
	case model.RoleTenant:
		stats, err := h.tenantStats(c, ident.User.ID)
		if err != nil {
			return err
		}
		resp.TenantStats = stats
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *DashboardHandler) ownerStats(c echo.Context, ownerID string) (*view.OwnerStats, error) {
	ctx := c.Request().Context()
	props, err := h.Properties.List(ctx, repository.PropertyFilter{OwnerID: ownerID})
	if err != nil {
		return nil, err
	}
	unitsByProperty := make(map[string][]model.Unit, len(props))
	propertyIDs := make([]string, len(props))
	for i, p := range props {
		propertyIDs[i] = p.ID
		units, err := h.Units.ListByProperty(ctx, p.ID, repository.UnitFilter{})
		if err != nil {
			return nil, err
		}
		unitsByProperty[p.ID] = units
	}
	open := 0
	if len(propertyIDs) > 0 {
		reqs, err := h.Maintenance.List(ctx, repository.MaintenanceFilter{
			Status:      string(model.MaintenanceOpen),
			PropertyIDs: propertyIDs,
		})
		if err != nil {
			return nil, err
		}
		open = len(reqs)
	}
	stats := view.BuildOwnerStats(props, unitsByProperty, open)
	return &stats, nil
}

func (h *DashboardHandler) tenantStats(c echo.Context, tenantID string) (*view.TenantStats, error) {
	ctx := c.Request().Context()
	unit, err := h.Units.CurrentForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	var property *model.Property
	if unit != nil {
		if property, err = h.Properties.GetByID(ctx, unit.PropertyID); err != nil {
			return nil, err
		}
	}
	reqs, err := h.Maintenance.List(ctx, repository.MaintenanceFilter{TenantID: tenantID})
	if err != nil {
		return nil, err
	}
	stats := view.BuildTenantStats(unit, property, reqs)
	return &stats, nil
}

// Notifications returns the caller's feed with unread filtering and the
// total/unread counters.
func (h *DashboardHandler) NotificationFeed(c echo.Context) error {
	ident := identity(c)
	skip, limit := skipLimit(c, 20)
	unreadOnly := c.QueryParam("unread_only") == "true"

	ctx := c.Request().Context()
	items, err := h.Notifications.ListByUser(ctx, ident.User.ID, unreadOnly, skip, limit)
	if err != nil {
		return err
	}
	total, unread, err := h.Notifications.Counts(ctx, ident.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"notifications": items,
		"total_count":   total,
		"unread_count":  unread,
	})
}

// MarkNotificationRead flips one of the caller's notifications to read.
// Someone else's notification answers 404, not 403, to avoid confirming
// its existence.
func (h *DashboardHandler) MarkNotificationRead(c echo.Context) error {
	ident := identity(c)
	ctx := c.Request().Context()
	n, err := h.Notifications.GetByID(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	if n == nil || n.UserID != ident.User.ID {
		return detailErr(http.StatusNotFound, "Notification not found")
	}
	if err := h.Notifications.MarkRead(ctx, n.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
