package middleware

import (
	"context"
	"net/http"

	"pharmatrack/internal/caching"
	"pharmatrack/internal/common"
	"pharmatrack/internal/repositories"
	"pharmatrack/internal/scope"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// IdentityResolver turns a token subject into a full caller identity. The
// lookup hits redis first and falls back to the database; the cached entry
// expires after caching.IdentityTTL so role changes cannot go unseen forever.
type IdentityResolver struct {
	users repositories.UserRepository
	staff repositories.StaffRepository
	orgs  repositories.OrganizationRepository
	cache caching.CacheService
}

func NewIdentityResolver(users repositories.UserRepository, staff repositories.StaffRepository,
	orgs repositories.OrganizationRepository, cache caching.CacheService) *IdentityResolver {
	return &IdentityResolver{users: users, staff: staff, orgs: orgs, cache: cache}
}

func (r *IdentityResolver) Resolve(ctx context.Context, userID uuid.UUID) (scope.Identity, error) {
	if cached, err := r.cache.GetIdentity(ctx, userID); err == nil && cached != nil {
		return *cached, nil
	}

	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		return scope.Identity{}, err
	}
	role, err := scope.ParseRole(user.Role)
	if err != nil {
		return scope.Identity{}, err
	}

	id := scope.Identity{UserID: user.ID, Role: role}
	if role == scope.RoleOrganizer {
		org, err := r.orgs.GetByOwner(ctx, user.ID)
		if err != nil {
			return scope.Identity{}, err
		}
		id.OrganizationID = org.ID
	} else {
		staff, err := r.staff.GetByUserID(ctx, user.ID)
		if err != nil {
			return scope.Identity{}, err
		}
		id.OrganizationID = staff.OrganizationID
		id.StaffID = &staff.ID
	}

	// Best effort; a failed cache write only costs the next request a lookup.
	_ = r.cache.SetIdentity(ctx, id)
	return id, nil
}

// JWT validates the bearer token signature and expiry.
func JWT(jwtSecret string) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(jwtSecret),
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
		},
	})
}

// ResolveIdentity reads the validated token, resolves the caller identity and
// attaches it to the request context. Must run after JWT.
func ResolveIdentity(resolver *IdentityResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing token")
			}

			sub, err := token.Claims.GetSubject()
			if err != nil || sub == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing subject in token")
			}
			userID, err := uuid.Parse(sub)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid subject format")
			}

			identity, err := resolver.Resolve(c.Request().Context(), userID)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "User not found")
			}

			ctx := common.WithIdentity(c.Request().Context(), identity)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}
