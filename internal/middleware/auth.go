package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/rentora/property-portal/internal/auth"
)

const identityKey = "identity"

// Authenticate resolves the bearer token into an Identity and stashes it
// on the context. Requests without a valid token are rejected with 401.
func Authenticate(svc *auth.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c.Request().Header.Get("Authorization"))
			if token == "" {
				return unauthorized()
			}
			ident, err := svc.ResolveIdentity(c.Request().Context(), token)
			if err != nil {
				if err == auth.ErrUnauthenticated {
					return unauthorized()
				}
				return err
			}
			c.Set(identityKey, ident)
			c.Set("user_id", ident.User.ID)
			c.Set("role", string(ident.ActiveRole))
			return next(c)
		}
	}
}

// IdentityFrom returns the identity placed by Authenticate. It panics if
// called on a route that skipped the middleware; that is a wiring bug,
// not a runtime condition.
func IdentityFrom(c echo.Context) *auth.Identity {
	return c.Get(identityKey).(*auth.Identity)
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func unauthorized() error {
	err := echo.NewHTTPError(http.StatusUnauthorized, "Could not validate credentials")
	err.SetInternal(auth.ErrUnauthenticated)
	return err
}
