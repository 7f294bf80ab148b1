package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rentora/property-portal/internal/auth"
	"github.com/rentora/property-portal/internal/model"
	"github.com/rentora/property-portal/internal/repository"
	"github.com/rentora/property-portal/internal/storage"
)

// PropertyHandler bundles dependencies for property CRUD. Ownership is
// checked per row: owners only touch their own properties, admins touch
// everything.
type PropertyHandler struct {
	Properties *repository.PropertyRepo
	Uploads    *storage.Uploader
}

func NewPropertyHandler(props *repository.PropertyRepo, up *storage.Uploader) *PropertyHandler {
	return &PropertyHandler{Properties: props, Uploads: up}
}

type createPropertyReq struct {
	Name         string   `json:"name"`
	Street       string   `json:"street"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	Zip          string   `json:"zip"`
	Country      string   `json:"country"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	PropertyType string   `json:"property_type"`
	YearBuilt    int      `json:"year_built"`
	TotalUnits   int      `json:"total_units"`
	Amenities    []string `json:"amenities"`
	Description  string   `json:"description"`
}

// Create inserts a property owned by the caller. The owner is always the
// authenticated user, never taken from the body.
func (h *PropertyHandler) Create(c echo.Context) error {
	ident := identity(c)
	var req createPropertyReq
	if err := c.Bind(&req); err != nil {
		return detailErr(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" || req.Street == "" || req.City == "" {
		return detailErr(http.StatusBadRequest, "Name, street and city are required")
	}
	p, err := h.Properties.Create(c.Request().Context(), &model.Property{
		OwnerID:      ident.User.ID,
		Name:         req.Name,
		Street:       req.Street,
		City:         req.City,
		State:        req.State,
		Zip:          req.Zip,
		Country:      req.Country,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		PropertyType: req.PropertyType,
		YearBuilt:    req.YearBuilt,
		TotalUnits:   req.TotalUnits,
		Amenities:    req.Amenities,
		Description:  req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

// List returns properties visible to the active role: admins see all
// non-deleted rows, owners their own, everyone else an empty list.
func (h *PropertyHandler) List(c echo.Context) error {
	ident := identity(c)
	skip, limit := skipLimit(c, 50)
	filter := repository.PropertyFilter{
		City:         c.QueryParam("city"),
		State:        c.QueryParam("state"),
		PropertyType: c.QueryParam("property_type"),
		Offset:       skip,
		Limit:        limit,
	}
	switch ident.ActiveRole {
	case model.RoleAdmin:
	case model.RoleOwner:
		filter.OwnerID = ident.User.ID
	default:
		return c.JSON(http.StatusOK, []model.Property{})
	}
	props, err := h.Properties.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, props)
}

// Get returns one property after an ownership check. Soft-deleted rows
// stay retrievable by their owner and admins.
func (h *PropertyHandler) Get(c echo.Context) error {
	p, err := h.authorized(c, identity(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Update patches a property.
func (h *PropertyHandler) Update(c echo.Context) error {
	ident := identity(c)
	if _, err := h.authorized(c, ident); err != nil {
		return err
	}
	var patch model.PropertyPatch
	if err := c.Bind(&patch); err != nil {
		return detailErr(http.StatusBadRequest, "invalid request body")
	}
	if patch.Status != nil && *patch.Status == model.PropertyDeleted {
		return detailErr(http.StatusBadRequest, "Use DELETE to remove a property")
	}
	p, err := h.Properties.Update(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return err
	}
	if p == nil {
		return detailErr(http.StatusNotFound, "Property not found")
	}
	return c.JSON(http.StatusOK, p)
}

// Delete soft-deletes a property: the status flips to deleted and the
// row remains fetchable by ID.
func (h *PropertyHandler) Delete(c echo.Context) error {
	ident := identity(c)
	if _, err := h.authorized(c, ident); err != nil {
		return err
	}
	if err := h.Properties.Deactivate(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// UploadImages stores one or more image files and appends their URLs to
// the property.
func (h *PropertyHandler) UploadImages(c echo.Context) error {
	if h.Uploads == nil {
		return detailErr(http.StatusServiceUnavailable, "File uploads are not configured")
	}
	ident := identity(c)
	p, err := h.authorized(c, ident)
	if err != nil {
		return err
	}
	urls, err := uploadFormFiles(c, h.Uploads, fmt.Sprintf("properties/%s", p.ID))
	if err != nil {
		return err
	}
	updated, err := h.Properties.AppendImages(c.Request().Context(), p.ID, urls)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

// authorized loads the property from the :id parameter and verifies the
// caller may act on it.
func (h *PropertyHandler) authorized(c echo.Context, ident *auth.Identity) (*model.Property, error) {
	p, err := h.Properties.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, detailErr(http.StatusNotFound, "Property not found")
	}
	if !isAdmin(ident) && p.OwnerID != ident.User.ID {
		return nil, detailErr(http.StatusForbidden, "Not enough permissions")
	}
	return p, nil
}
