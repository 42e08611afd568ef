package middleware

import (
	"net/http"

	"pharmatrack/internal/common"
	"pharmatrack/internal/scope"

	"github.com/labstack/echo/v4"
)

// RequireOrganizer admits only the organization owner.
func RequireOrganizer() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := common.GetIdentityFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
			}
			if id.Role != scope.RoleOrganizer {
				return echo.NewHTTPError(http.StatusForbidden, "Organizer access required")
			}
			return next(c)
		}
	}
}

// RequireOrganizerOr admits the organizer or a staff member holding role.
// Any other caller is rejected with 403 regardless of organization.
func RequireOrganizerOr(role scope.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := common.GetIdentityFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
			}
			if id.Role != scope.RoleOrganizer && id.Role != role {
				return echo.NewHTTPError(http.StatusForbidden, "Insufficient role")
			}
			return next(c)
		}
	}
}
