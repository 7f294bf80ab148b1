package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/rentora/property-portal/internal/auth"
	"github.com/rentora/property-portal/internal/model"
	"github.com/rentora/property-portal/internal/platform"
	"github.com/rentora/property-portal/internal/repository"
	"github.com/rentora/property-portal/internal/storage"
)

// UserHandler bundles dependencies for profile and role management.
type UserHandler struct {
	Platform *platform.Client
	Users    *repository.UserRepo
	Grants   *repository.RoleGrantRepo
	Auth     *auth.Service
	Uploads  *storage.Uploader
}

func NewUserHandler(p *platform.Client, users *repository.UserRepo, grants *repository.RoleGrantRepo, svc *auth.Service, up *storage.Uploader) *UserHandler {
	return &UserHandler{Platform: p, Users: users, Grants: grants, Auth: svc, Uploads: up}
}

type meResp struct {
	model.User
	ActiveRole     model.Role   `json:"active_role"`
	AvailableRoles []model.Role `json:"available_roles"`
	EmailVerified  bool         `json:"email_verified"`
}

// Me returns the caller's profile enriched with role state and the
// provider's email-confirmation flag.
func (h *UserHandler) Me(c echo.Context) error {
	ident := identity(c)
	ctx := c.Request().Context()
	available, err := h.Auth.AvailableRoles(ctx, ident.User)
	if err != nil {
		return err
	}
	resp := meResp{User: *ident.User, ActiveRole: ident.ActiveRole, AvailableRoles: available}
	header := c.Request().Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		if account, err := h.Platform.User(ctx, token); err == nil {
			resp.EmailVerified = account.EmailConfirmedAt != nil
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// UpdateMe patches the caller's profile. An email change goes to the
// identity provider first; the internal row only follows when the
// provider accepted it.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	ident := identity(c)
	var patch model.UserPatch
	if err := c.Bind(&patch); err != nil {
		return detailErr(http.StatusBadRequest, "invalid request body")
	}
	// Status and role changes do not belong to self-service.
	patch.Status = nil
	ctx := c.Request().Context()
	if patch.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*patch.Email))
		if email == "" {
			return detailErr(http.StatusBadRequest, "Email cannot be empty")
		}
		if err := h.Platform.UpdateUserEmail(ctx, ident.User.ID, email); err != nil {
			if pe, ok := platform.AsError(err); ok && pe.Status < http.StatusInternalServerError {
				return detailErr(http.StatusBadRequest, "Email update rejected")
			}
			return err
		}
		patch.Email = &email
	}
	u, err := h.Users.Update(ctx, ident.User.ID, patch)
	if err != nil {
		return err
	}
	if u == nil {
		return detailErr(http.StatusNotFound, "User not found")
	}
	return c.JSON(http.StatusOK, u)
}

// List returns users, admin only. ?role narrows by stored role.
func (h *UserHandler) List(c echo.Context) error {
	role := c.QueryParam("role")
	if role != "" && !model.ValidRole(role) {
		return detailErr(http.StatusBadRequest, "Invalid role")
	}
	skip, limit := skipLimit(c, 50)
	users, err := h.Users.List(c.Request().Context(), role, skip, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

type profileSetupReq struct {
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	Phone             string `json:"phone"`
	Street            string `json:"street"`
	City              string `json:"city"`
	State             string `json:"state"`
	Zip               string `json:"zip"`
	Country           string `json:"country"`
	ProfilePictureURL string `json:"profile_picture_url"`
}

// ProfileSetup fills in the profile fields and marks the profile
// completed in one shot.
func (h *UserHandler) ProfileSetup(c echo.Context) error {
	ident := identity(c)
	var req profileSetupReq
	if err := c.Bind(&req); err != nil {
		return detailErr(http.StatusBadRequest, "invalid request body")
	}
	if req.FirstName == "" || req.LastName == "" {
		return detailErr(http.StatusBadRequest, "First and last name are required")
	}
	done := true
	patch := model.UserPatch{
		FirstName:        &req.FirstName,
		LastName:         &req.LastName,
		ProfileCompleted: &done,
	}
	if req.Phone != "" {
		patch.Phone = &req.Phone
	}
	if req.Street != "" {
		patch.Street = &req.Street
	}
	if req.City != "" {
		patch.City = &req.City
	}
	if req.State != "" {
		patch.State = &req.State
	}
	if req.Zip != "" {
		patch.Zip = &req.Zip
	}
	if req.Country != "" {
		patch.Country = &req.Country
	}
	if req.ProfilePictureURL != "" {
		patch.ProfilePictureURL = &req.ProfilePictureURL
	}
	u, err := h.Users.Update(c.Request().Context(), ident.User.ID, patch)
	if err != nil {
		return err
	}
	if u == nil {
		return detailErr(http.StatusNotFound, "User not found")
	}
	return c.JSON(http.StatusOK, u)
}

// Profile returns the bare profile row.
func (h *UserHandler) Profile(c echo.Context) error {
	return c.JSON(http.StatusOK, identity(c).User)
}

type switchRoleReq struct {
	Role string `json:"role"`
}

// SwitchRole changes the caller's active role for subsequent requests.
func (h *UserHandler) SwitchRole(c echo.Context) error {
	ident := identity(c)
	var req switchRoleReq
	if err := c.Bind(&req); err != nil || req.Role == "" {
		return detailErr(http.StatusBadRequest, "role is required")
	}
	if !model.ValidRole(req.Role) {
		return detailErr(http.StatusBadRequest, "Invalid role")
	}
	target := model.Role(req.Role)
	err := h.Auth.SwitchRole(c.Request().Context(), ident.User, target)
	if err == repository.ErrRoleNotAvailable {
		return detailErr(http.StatusForbidden, fmt.Sprintf("Role %q is not available for this account", target))
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"active_role": target})
}

// UploadVerificationDocument stores a submitted document in object
// storage and appends it to the user's list with status pending. It does
// not flip is_verified; review does.
func (h *UserHandler) UploadVerificationDocument(c echo.Context) error {
	if h.Uploads == nil {
		return detailErr(http.StatusServiceUnavailable, "File uploads are not configured")
	}
	ident := identity(c)
	docType := c.FormValue("type")
	if docType == "" {
		return detailErr(http.StatusBadRequest, "Document type is required")
	}
	data, contentType, filename, err := readFormFile(c, "file")
	if err != nil {
		return err
	}
	if data == nil {
		return detailErr(http.StatusBadRequest, "File is required")
	}
	ctx := c.Request().Context()
	key := fmt.Sprintf("verification/%s/%s-%s", ident.User.ID, uuid.NewString(), filename)
	url, err := h.Uploads.Upload(ctx, key, contentType, bytes.NewReader(data))
	if err != nil {
		logrus.WithError(err).Error("verification document upload failed")
		return detailErr(http.StatusBadGateway, "File upload failed")
	}
	u, err := h.Users.AppendVerificationDocument(ctx, ident.User.ID, model.VerificationDocument{
		Type:        docType,
		Description: c.FormValue("description"),
		URL:         url,
		SubmittedAt: time.Now().UTC(),
		Status:      "pending",
	})
	if err != nil {
		return err
	}
	if u == nil {
		return detailErr(http.StatusNotFound, "User not found")
	}
	return c.JSON(http.StatusCreated, u)
}

type grantRoleReq struct {
	Role string `json:"role"`
}

// GrantRole records an extra role for a user, admin only.
func (h *UserHandler) GrantRole(c echo.Context) error {
	ident := identity(c)
	userID := c.Param("id")
	var req grantRoleReq
	if err := c.Bind(&req); err != nil || !model.ValidRole(req.Role) {
		return detailErr(http.StatusBadRequest, "Invalid role")
	}
	ctx := c.Request().Context()
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return detailErr(http.StatusNotFound, "User not found")
	}
	if err := h.Grants.Grant(ctx, userID, model.Role(req.Role), ident.User.ID); err != nil {
		return err
	}
	roles, err := h.Auth.AvailableRoles(ctx, u)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"user_id": userID, "available_roles": roles})
}

// RevokeRole removes a granted role, admin only. The stored role cannot
// be revoked.
func (h *UserHandler) RevokeRole(c echo.Context) error {
	userID := c.Param("id")
	role := c.Param("role")
	if !model.ValidRole(role) {
		return detailErr(http.StatusBadRequest, "Invalid role")
	}
	ctx := c.Request().Context()
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return detailErr(http.StatusNotFound, "User not found")
	}
	if u.Role == model.Role(role) {
		return detailErr(http.StatusBadRequest, "Cannot revoke the account's primary role")
	}
	if err := h.Grants.Revoke(ctx, userID, model.Role(role)); err != nil {
		return err
	}
	roles, err := h.Auth.AvailableRoles(ctx, u)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"user_id": userID, "available_roles": roles})
}
