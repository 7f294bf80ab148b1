package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rentora/property-portal/internal/auth"
	"github.com/rentora/property-portal/internal/model"
	"github.com/rentora/property-portal/internal/repository"
	"github.com/rentora/property-portal/internal/storage"
	"github.com/rentora/property-portal/internal/view"
)

// UnitHandler bundles dependencies for unit CRUD. Every write walks the
// ownership chain unit -> property -> owner.
type UnitHandler struct {
	Units      *repository.UnitRepo
	Properties *repository.PropertyRepo
	Uploads    *storage.Uploader
}

func NewUnitHandler(units *repository.UnitRepo, props *repository.PropertyRepo, up *storage.Uploader) *UnitHandler {
	return &UnitHandler{Units: units, Properties: props, Uploads: up}
}

type createUnitReq struct {
	UnitNumber      string   `json:"unit_number"`
	Floor           int      `json:"floor"`
	Bedrooms        float64  `json:"bedrooms"`
	Bathrooms       float64  `json:"bathrooms"`
	SquareFeet      float64  `json:"square_feet"`
	RentAmount      float64  `json:"rent_amount"`
	SecurityDeposit float64  `json:"security_deposit"`
	Amenities       []string `json:"amenities"`
	Description     string   `json:"description"`
}

// Create inserts a unit under the property from the path.
func (h *UnitHandler) Create(c echo.Context) error {
	ident := identity(c)
	p, err := h.ownedProperty(c, ident, c.Param("id"))
	if err != nil {
		return err
	}
	var req createUnitReq
	if err := c.Bind(&req); err != nil {
		return detailErr(http.StatusBadRequest, "invalid request body")
	}
	if req.UnitNumber == "" {
		return detailErr(http.StatusBadRequest, "Unit number is required")
	}
	if req.RentAmount < 0 || req.SecurityDeposit < 0 {
		return detailErr(http.StatusBadRequest, "Amounts cannot be negative")
	}
	u, err := h.Units.Create(c.Request().Context(), &model.Unit{
		PropertyID:      p.ID,
		UnitNumber:      req.UnitNumber,
		Floor:           req.Floor,
		Bedrooms:        req.Bedrooms,
		Bathrooms:       req.Bathrooms,
		SquareFeet:      req.SquareFeet,
		RentAmount:      req.RentAmount,
		SecurityDeposit: req.SecurityDeposit,
		Amenities:       req.Amenities,
		Description:     req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, u)
}

// ListByProperty returns a property's units with optional status,
// bedrooms and rent-range filters.
func (h *UnitHandler) ListByProperty(c echo.Context) error {
	ident := identity(c)
	p, err := h.ownedProperty(c, ident, c.Param("id"))
	if err != nil {
		return err
	}
	status := c.QueryParam("status")
	if status != "" {
		if s := model.UnitStatus(status); s != model.UnitAvailable && s != model.UnitOccupied &&
			s != model.UnitMaintenance && s != model.UnitReserved && s != model.UnitInactive {
			return detailErr(http.StatusBadRequest, "Invalid status")
		}
	}
	skip, limit := skipLimit(c, 50)
	units, err := h.Units.ListByProperty(c.Request().Context(), p.ID, repository.UnitFilter{
		Status:   status,
		Bedrooms: queryFloat(c, "bedrooms"),
		MinRent:  queryFloat(c, "min_rent"),
		MaxRent:  queryFloat(c, "max_rent"),
		Offset:   skip,
		Limit:    limit,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, units)
}

// Get returns a unit joined with its property context.
func (h *UnitHandler) Get(c echo.Context) error {
	ident := identity(c)
	u, p, err := h.authorized(c, ident, false)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view.NewUnitDetail(*u, *p))
}

// Update patches a unit.
func (h *UnitHandler) Update(c echo.Context) error {
	ident := identity(c)
	u, _, err := h.authorized(c, ident, true)
	if err != nil {
		return err
	}
	var patch model.UnitPatch
	if err := c.Bind(&patch); err != nil {
		return detailErr(http.StatusBadRequest, "invalid request body")
	}
	updated, err := h.Units.Update(c.Request().Context(), u.ID, patch)
	if err != nil {
		return err
	}
	if updated == nil {
		return detailErr(http.StatusNotFound, "Unit not found")
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete soft-deletes a unit by flipping its status to inactive.
func (h *UnitHandler) Delete(c echo.Context) error {
	ident := identity(c)
	u, _, err := h.authorized(c, ident, true)
	if err != nil {
		return err
	}
	if err := h.Units.Deactivate(c.Request().Context(), u.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// UploadImages stores image files and appends their URLs to the unit.
func (h *UnitHandler) UploadImages(c echo.Context) error {
	if h.Uploads == nil {
		return detailErr(http.StatusServiceUnavailable, "File uploads are not configured")
	}
	ident := identity(c)
	u, _, err := h.authorized(c, ident, true)
	if err != nil {
		return err
	}
	urls, err := uploadFormFiles(c, h.Uploads, fmt.Sprintf("units/%s", u.ID))
	if err != nil {
		return err
	}
	updated, err := h.Units.AppendImages(c.Request().Context(), u.ID, urls)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

// authorized loads the unit from :id and its property, then checks
// access. Writes require the owner chain (or admin); reads additionally
// admit the unit's current tenant.
func (h *UnitHandler) authorized(c echo.Context, ident *auth.Identity, write bool) (*model.Unit, *model.Property, error) {
	ctx := c.Request().Context()
	u, err := h.Units.GetByID(ctx, c.Param("id"))
	if err != nil {
		return nil, nil, err
	}
	if u == nil {
		return nil, nil, detailErr(http.StatusNotFound, "Unit not found")
	}
	p, err := h.Properties.GetByID(ctx, u.PropertyID)
	if err != nil {
		return nil, nil, err
	}
	if p == nil {
		return nil, nil, detailErr(http.StatusNotFound, "Property not found")
	}
	if isAdmin(ident) || p.OwnerID == ident.User.ID {
		return u, p, nil
	}
	if !write && u.TenantID == ident.User.ID {
		return u, p, nil
	}
	return nil, nil, detailErr(http.StatusForbidden, "Not enough permissions")
}

// ownedProperty loads a property from the given ID and verifies the
// caller owns it or is admin.
func (h *UnitHandler) ownedProperty(c echo.Context, ident *auth.Identity, id string) (*model.Property, error) {
	p, err := h.Properties.GetByID(c.Request().Context(), id)
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
