package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/rentora/property-portal/internal/auth"
	"github.com/rentora/property-portal/internal/model"
	"github.com/rentora/property-portal/internal/queue"
	"github.com/rentora/property-portal/internal/repository"
	"github.com/rentora/property-portal/internal/storage"
	"github.com/rentora/property-portal/internal/view"
)

// MaintenanceHandler bundles dependencies for the maintenance workflow.
// Visibility and the patchable field set both depend on the caller's
// active role; the matrices live in this file, not in the repository.
type MaintenanceHandler struct {
	Maintenance   *repository.MaintenanceRepo
	Units         *repository.UnitRepo
	Properties    *repository.PropertyRepo
	Users         *repository.UserRepo
	Notifications *repository.NotificationRepo
	Uploads       *storage.Uploader
	Events        *queue.Publisher
}

func NewMaintenanceHandler(m *repository.MaintenanceRepo, units *repository.UnitRepo, props *repository.PropertyRepo, users *repository.UserRepo, notes *repository.NotificationRepo, up *storage.Uploader, events *queue.Publisher) *MaintenanceHandler {
	return &MaintenanceHandler{
		Maintenance:   m,
		Units:         units,
		Properties:    props,
		Users:         users,
		Notifications: notes,
		Uploads:       up,
		Events:        events,
	}
}

type createMaintenanceReq struct {
	UnitID             string     `json:"unit_id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Category           string     `json:"category"`
	Priority           string     `json:"priority"`
	AccessInstructions string     `json:"access_instructions"`
	ScheduledDate      *time.Time `json:"scheduled_date"`
}

// Create files a request against a unit. The reporting tenant is the
// caller; owners may only file against their own properties. Occupancy
// of the unit by the caller is not verified.
func (h *MaintenanceHandler) Create(c echo.Context) error {
	ident := identity(c)
	var req createMaintenanceReq
	if err := c.Bind(&req); err != nil {
		return detailErr(http.StatusBadRequest, "invalid request body")
	}
	if req.UnitID == "" || req.Title == "" || req.Description == "" {
		return detailErr(http.StatusBadRequest, "unit_id, title and description are required")
	}
	if !model.ValidMaintenanceCategory(req.Category) {
		return detailErr(http.StatusBadRequest, "Invalid category")
	}
	if req.Priority == "" {
		req.Priority = string(model.PriorityMedium)
	}
	if !model.ValidMaintenancePriority(req.Priority) {
		return detailErr(http.StatusBadRequest, "Invalid priority")
	}

	ctx := c.Request().Context()
	unit, err := h.Units.GetByID(ctx, req.UnitID)
	if err != nil {
		return err
	}
	if unit == nil {
		return detailErr(http.StatusNotFound, "Unit not found")
	}
	property, err := h.Properties.GetByID(ctx, unit.PropertyID)
	if err != nil {
		return err
	}
	if property == nil {
		return detailErr(http.StatusNotFound, "Property not found")
	}
	if ident.ActiveRole == model.RoleOwner && property.OwnerID != ident.User.ID {
		return detailErr(http.StatusForbidden, "Not enough permissions")
	}

	created, err := h.Maintenance.Create(ctx, &model.MaintenanceRequest{
		UnitID:             unit.ID,
		PropertyID:         property.ID,
		TenantID:           ident.User.ID,
		Title:              req.Title,
		Description:        req.Description,
		Category:           model.MaintenanceCategory(req.Category),
		Priority:           model.MaintenancePriority(req.Priority),
		AccessInstructions: req.AccessInstructions,
		ScheduledDate:      req.ScheduledDate,
	})
	if err != nil {
		return err
	}

	h.notify(c, property.OwnerID, model.NotifyMaintenanceUpdate,
		"New maintenance request",
		fmt.Sprintf("%s reported %q for unit %s at %s", ident.User.FullName(), created.Title, unit.UnitNumber, property.Name),
		created.ID)
	return c.JSON(http.StatusCreated, created)
}

// List returns the requests the active role may see: tenants their own,
// owners their properties', maintenance staff their assignments, admins
// everything.
func (h *MaintenanceHandler) List(c echo.Context) error {
	ident := identity(c)
	skip, limit := skipLimit(c, 50)
	filter := repository.MaintenanceFilter{
		PropertyID: c.QueryParam("property_id"),
		UnitID:     c.QueryParam("unit_id"),
		Status:     c.QueryParam("status"),
		Offset:     skip,
		Limit:      limit,
	}
	if filter.Status != "" && !model.ValidMaintenanceStatus(filter.Status) {
		return detailErr(http.StatusBadRequest, "Invalid status")
	}

	ctx := c.Request().Context()
	switch ident.ActiveRole {
	case model.RoleTenant:
		filter.TenantID = ident.User.ID
	case model.RoleMaintenance:
		filter.AssignedTo = ident.User.ID
	case model.RoleOwner:
		props, err := h.Properties.List(ctx, repository.PropertyFilter{OwnerID: ident.User.ID, IncludeDeleted: true})
		if err != nil {
			return err
		}
		if len(props) == 0 {
			return c.JSON(http.StatusOK, []model.MaintenanceRequest{})
		}
		ids := make([]string, len(props))
		for i, p := range props {
			ids[i] = p.ID
		}
		filter.PropertyIDs = ids
	case model.RoleAdmin:
	}

	reqs, err := h.Maintenance.List(ctx, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reqs)
}

// Get returns one request expanded with the related rows and the comment
// thread.
func (h *MaintenanceHandler) Get(c echo.Context) error {
	ident := identity(c)
	m, property, err := h.authorized(c, ident)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	unit, err := h.Units.GetByID(ctx, m.UnitID)
	if err != nil {
		return err
	}
	tenant, err := h.Users.GetByID(ctx, m.TenantID)
	if err != nil {
		return err
	}
	var staff *model.User
	if m.AssignedTo != "" {
		if staff, err = h.Users.GetByID(ctx, m.AssignedTo); err != nil {
			return err
		}
	}
	comments, err := h.Maintenance.ListComments(ctx, m.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view.NewMaintenanceDetail(*m, property, unit, tenant, staff, comments))
}

// Update patches a request. The patch is narrowed to the fields the
// active role may touch before it reaches the store; out-of-scope fields
// are rejected, not silently dropped.
func (h *MaintenanceHandler) Update(c echo.Context) error {
	ident := identity(c)
	m, _, err := h.authorized(c, ident)
	if err != nil {
		return err
	}
	var patch model.MaintenancePatch
	if err := c.Bind(&patch); err != nil {
		return detailErr(http.StatusBadRequest, "invalid request body")
	}
	if err := narrowPatch(ident.ActiveRole, &patch); err != nil {
		return err
	}
	if patch.Status != nil && !model.ValidMaintenanceStatus(string(*patch.Status)) {
		return detailErr(http.StatusBadRequest, "Invalid status")
	}
	if patch.Priority != nil && !model.ValidMaintenancePriority(string(*patch.Priority)) {
		return detailErr(http.StatusBadRequest, "Invalid priority")
	}

	ctx := c.Request().Context()
	updated, err := h.Maintenance.Update(ctx, m.ID, patch)
	if err != nil {
		return err
	}
	if updated == nil {
		return detailErr(http.StatusNotFound, "Maintenance request not found")
	}

	if patch.Status != nil && *patch.Status != m.Status {
		if *patch.Status == model.MaintenanceAssigned && updated.AssignedTo != "" {
			h.notify(c, updated.AssignedTo, model.NotifyMaintenanceUpdate,
				"Maintenance request assigned to you",
				fmt.Sprintf("Request %q was assigned to you", updated.Title),
				updated.ID)
		}
		if updated.TenantID != ident.User.ID {
			h.notify(c, updated.TenantID, model.NotifyMaintenanceUpdate,
				"Maintenance request updated",
				fmt.Sprintf("Request %q is now %s", updated.Title, updated.Status),
				updated.ID)
		}
	}
	return c.JSON(http.StatusOK, updated)
}

// AddComment appends a comment, with an optional photo attachment, and
// notifies the other side of the conversation.
func (h *MaintenanceHandler) AddComment(c echo.Context) error {
	ident := identity(c)
	m, property, err := h.authorized(c, ident)
	if err != nil {
		return err
	}
	text := c.FormValue("comment")
	if text == "" {
		return detailErr(http.StatusBadRequest, "Comment text is required")
	}

	ctx := c.Request().Context()
	photoURL := ""
	if data, contentType, filename, err := readFormFile(c, "file"); err != nil {
		return err
	} else if data != nil {
		if h.Uploads == nil {
			return detailErr(http.StatusServiceUnavailable, "File uploads are not configured")
		}
		key := fmt.Sprintf("maintenance/%s/%s-%s", m.ID, uuid.NewString(), filename)
		photoURL, err = h.Uploads.Upload(ctx, key, contentType, bytes.NewReader(data))
		if err != nil {
			logrus.WithError(err).Error("comment attachment upload failed")
			return detailErr(http.StatusBadGateway, "File upload failed")
		}
	}

	comment, err := h.Maintenance.AddComment(ctx, &model.MaintenanceComment{
		RequestID: m.ID,
		UserID:    ident.User.ID,
		UserName:  ident.User.FullName(),
		UserRole:  string(ident.ActiveRole),
		Comment:   text,
		PhotoURL:  photoURL,
	})
	if err != nil {
		return err
	}

	// Tenant comments go to the owner, everyone else's to the tenant.
	recipient := m.TenantID
	if ident.User.ID == m.TenantID && property != nil {
		recipient = property.OwnerID
	}
	if recipient != "" && recipient != ident.User.ID {
		h.notify(c, recipient, model.NotifyMaintenanceUpdate,
			"New comment on maintenance request",
			fmt.Sprintf("%s commented on %q", ident.User.FullName(), m.Title),
			m.ID)
	}
	return c.JSON(http.StatusCreated, comment)
}

// authorized loads the request from :id and checks the active role's
// visibility rule. The property is returned too when it could be loaded;
// it may be nil for admins looking at orphaned rows.
func (h *MaintenanceHandler) authorized(c echo.Context, ident *auth.Identity) (*model.MaintenanceRequest, *model.Property, error) {
	ctx := c.Request().Context()
	m, err := h.Maintenance.GetByID(ctx, c.Param("id"))
	if err != nil {
		return nil, nil, err
	}
	if m == nil {
		return nil, nil, detailErr(http.StatusNotFound, "Maintenance request not found")
	}
	property, err := h.Properties.GetByID(ctx, m.PropertyID)
	if err != nil {
		return nil, nil, err
	}
	switch ident.ActiveRole {
	case model.RoleAdmin:
		return m, property, nil
	case model.RoleTenant:
		if m.TenantID == ident.User.ID {
			return m, property, nil
		}
	case model.RoleMaintenance:
		if m.AssignedTo == ident.User.ID {
			return m, property, nil
		}
	case model.RoleOwner:
		if property != nil && property.OwnerID == ident.User.ID {
			return m, property, nil
		}
	}
	return nil, nil, detailErr(http.StatusForbidden, "Not enough permissions")
}

// narrowPatch rejects fields outside the active role's column set.
func narrowPatch(role model.Role, p *model.MaintenancePatch) error {
	if role == model.RoleAdmin {
		return nil
	}
	forbidden := func(name string) error {
		return detailErr(http.StatusForbidden, fmt.Sprintf("Role %s may not update %s", role, name))
	}
	switch role {
	case model.RoleTenant:
		switch {
		case p.Status != nil:
			return forbidden("status")
		case p.Priority != nil:
			return forbidden("priority")
		case p.AssignedTo != nil:
			return forbidden("assigned_to")
		case p.ResolutionNotes != nil:
			return forbidden("resolution_notes")
		case p.EstimatedCost != nil || p.ActualCost != nil:
			return forbidden("costs")
		case p.CompletionDate != nil:
			return forbidden("completion_date")
		case p.Title != nil || p.Category != nil:
			return forbidden("title or category")
		}
	case model.RoleOwner:
		switch {
		case p.Description != nil || p.AccessInstructions != nil || p.ScheduledDate != nil:
			return forbidden("tenant fields")
		case p.EstimatedCost != nil || p.ActualCost != nil:
			return forbidden("costs")
		case p.CompletionDate != nil:
			return forbidden("completion_date")
		case p.Title != nil || p.Category != nil:
			return forbidden("title or category")
		}
	case model.RoleMaintenance:
		switch {
		case p.Description != nil || p.AccessInstructions != nil || p.ScheduledDate != nil:
			return forbidden("tenant fields")
		case p.Priority != nil:
			return forbidden("priority")
		case p.AssignedTo != nil:
			return forbidden("assigned_to")
		case p.Title != nil || p.Category != nil:
			return forbidden("title or category")
		}
	}
	return nil
}

// notify writes an in-app notification and publishes the matching event,
// both best effort.
func (h *MaintenanceHandler) notify(c echo.Context, userID string, typ model.NotificationType, title, message, requestID string) {
	ctx := c.Request().Context()
	n := &model.Notification{
		UserID:  userID,
		Type:    typ,
		Title:   title,
		Message: message,
		Data:    map[string]any{"request_id": requestID},
	}
	created, err := h.Notifications.Create(ctx, n)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("notification write failed")
		return
	}
	if h.Events != nil {
		h.Events.NotificationCreated(ctx, created)
	}
}
