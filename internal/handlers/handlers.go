package handlers

import (
	"errors"

	"pharmatrack/internal/common"
	"pharmatrack/internal/scope"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
)

// callerScope resolves the caller's row-visibility scope from the request.
// Handlers behind the JWT middleware always find an identity; the boolean
// guards direct test invocations.
func callerScope(c echo.Context) (scope.Identity, scope.Scope, bool) {
	id, ok := common.GetIdentityFromContext(c.Request().Context())
	if !ok {
		return scope.Identity{}, scope.Scope{}, false
	}
	return id, scope.ForIdentity(id), true
}

// notFound reports whether err is the uniform missing-or-foreign-row result.
func notFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// listResponse is the envelope every list endpoint returns.
type listResponse struct {
	Data interface{} `json:"data"`
	Page common.Page `json:"page"`
}
