package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/rentora/property-portal/internal/auth"
	"github.com/rentora/property-portal/internal/model"
	"github.com/rentora/property-portal/internal/platform"
	"github.com/rentora/property-portal/internal/repository"
)

// AuthHandler bundles dependencies for the authentication endpoints.
// Credentials live entirely in the identity provider; these handlers
// orchestrate the provider calls and keep the internal user row in step.
type AuthHandler struct {
	Platform *platform.Client
	Users    *repository.UserRepo
	Auth     *auth.Service
}

func NewAuthHandler(p *platform.Client, users *repository.UserRepo, svc *auth.Service) *AuthHandler {
	return &AuthHandler{Platform: p, Users: users, Auth: svc}
}

type registerReq struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
}

type tokenResp struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Register creates the provider account, then the internal user row keyed
// by the provider subject, then seeds the role grants.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return detailErr(http.StatusBadRequest, "invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		return detailErr(http.StatusBadRequest, "Email is required")
	}
	if len(req.Password) < 8 {
		return detailErr(http.StatusBadRequest, "Password must be at least 8 characters")
	}
	role := model.RoleTenant
	if req.Role != "" {
		if !model.ValidRole(req.Role) {
			return detailErr(http.StatusBadRequest, "Invalid role")
		}
		role = model.Role(req.Role)
	}

	ctx := c.Request().Context()
	if existing, err := h.Users.GetByEmail(ctx, req.Email); err != nil {
		return err
	} else if existing != nil {
		return detailErr(http.StatusBadRequest, "Email already registered")
	}

	account, err := h.Platform.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		if pe, ok := platform.AsError(err); ok && pe.Status < http.StatusInternalServerError {
			return detailErr(http.StatusBadRequest, "Email already registered")
		}
		return err
	}

	u, err := h.Users.Create(ctx, &model.User{
		ID:        account.ID,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Role:      role,
		Status:    model.UserActive,
	})
	if err != nil {
		return err
	}
	h.Auth.SeedGrants(ctx, u)
	return c.JSON(http.StatusCreated, u)
}

// Login exchanges form credentials (username/password, OAuth2 password
// flow shape) for the provider's token pair. The internal row gates
// access: a missing row is 401, an inactive account 403.
func (h *AuthHandler) Login(c echo.Context) error {
	email := strings.ToLower(strings.TrimSpace(c.FormValue("username")))
	password := c.FormValue("password")
	if email == "" || password == "" {
		return detailErr(http.StatusBadRequest, "Username and password are required")
	}

	ctx := c.Request().Context()
	sess, err := h.Platform.SignInWithPassword(ctx, email, password)
	if err != nil {
		if pe, ok := platform.AsError(err); ok && pe.Status < http.StatusInternalServerError {
			return detailErr(http.StatusUnauthorized, "Incorrect email or password")
		}
		return err
	}

	u, err := h.Users.GetByID(ctx, sess.User.ID)
	if err != nil {
		return err
	}
	if u == nil {
		return detailErr(http.StatusUnauthorized, "User profile not found")
	}
	if u.Status != model.UserActive {
		return detailErr(http.StatusForbidden, "Inactive user")
	}
	h.Auth.TouchLastLogin(ctx, u.ID)

	return c.JSON(http.StatusOK, tokenResp{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		TokenType:    "bearer",
	})
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh exchanges a refresh token for a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return detailErr(http.StatusBadRequest, "refresh_token is required")
	}
	sess, err := h.Platform.RefreshSession(c.Request().Context(), req.RefreshToken)
	if err != nil {
		if pe, ok := platform.AsError(err); ok && pe.Status < http.StatusInternalServerError {
			return detailErr(http.StatusUnauthorized, "Invalid refresh token")
		}
		return err
	}
	return c.JSON(http.StatusOK, tokenResp{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		TokenType:    "bearer",
	})
}

// Logout revokes the provider session and drops the active-role session,
// both best effort. Always answers 200 so clients can clear tokens
// unconditionally.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	header := c.Request().Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok && token != "" {
		h.Platform.SignOut(ctx, token)
		if ident, err := h.Auth.ResolveIdentity(ctx, token); err == nil {
			h.Auth.EndSession(ctx, ident.User.ID)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Successfully logged out"})
}

type forgotPasswordReq struct {
	Email string `json:"email"`
}

// ForgotPassword asks the provider to send a reset email. The answer is
// 200 whether or not the account exists.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordReq
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return detailErr(http.StatusBadRequest, "Email is required")
	}
	if err := h.Platform.Recover(c.Request().Context(), req.Email); err != nil {
		logrus.WithError(err).Warn("password recovery request failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

type resetPasswordReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ResetPassword completes the recovery flow with the token from the reset
// email.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil || req.Token == "" {
		return detailErr(http.StatusBadRequest, "Token is required")
	}
	if len(req.NewPassword) < 8 {
		return detailErr(http.StatusBadRequest, "Password must be at least 8 characters")
	}
	if err := h.Platform.UpdatePassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		if pe, ok := platform.AsError(err); ok && pe.Status < http.StatusInternalServerError {
			return detailErr(http.StatusBadRequest, "Invalid or expired token")
		}
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
