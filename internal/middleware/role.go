package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rentora/property-portal/internal/auth"
	"github.com/rentora/property-portal/internal/model"
)

// RequireActive rejects callers whose account is not active. Runs after
// Authenticate.
func RequireActive() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ident := IdentityFrom(c)
			if ident.User.Status != model.UserActive {
				return echo.NewHTTPError(http.StatusForbidden, "Inactive user")
			}
			return next(c)
		}
	}
}

// RequireRole authorizes by ACTIVE role, not stored role. When the active
// role is insufficient but a sufficient role is among the caller's
// available roles, the 403 carries a machine-readable hint telling the
// client to switch first instead of a dead-end denial.
func RequireRole(svc *auth.Service, roles ...model.Role) echo.MiddlewareFunc {
	required := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		required[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ident := IdentityFrom(c)
			if required[ident.ActiveRole] {
				return next(c)
			}
			available, err := svc.AvailableRoles(c.Request().Context(), ident.User)
			if err != nil {
				return err
			}
			for _, r := range available {
				if required[r] {
					return echo.NewHTTPError(http.StatusForbidden, map[string]any{
						"message":         "Operation requires a different active role",
						"code":            "ROLE_SWITCH_REQUIRED",
						"active_role":     ident.ActiveRole,
						"required_roles":  roles,
						"available_roles": available,
					})
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "Not enough permissions")
		}
	}
}
