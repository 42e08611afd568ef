package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"pharmatrack/internal/common"
	"pharmatrack/internal/scope"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func requestWithIdentity(t *testing.T, role scope.Role) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	id := scope.Identity{UserID: uuid.New(), OrganizationID: uuid.New(), Role: role}
	if role != scope.RoleOrganizer {
		staffID := uuid.New()
		id.StaffID = &staffID
	}
	req = req.WithContext(common.WithIdentity(req.Context(), id))

	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func TestRequireOrganizer_AdmitsOrganizer(t *testing.T) {
	c, _ := requestWithIdentity(t, scope.RoleOrganizer)
	err := RequireOrganizer()(okHandler)(c)
	assert.NoError(t, err)
}

func TestRequireOrganizer_RejectsStaff(t *testing.T) {
	for _, role := range []scope.Role{scope.RoleAgent, scope.RolePharmacist, scope.RoleManagement} {
		c, _ := requestWithIdentity(t, role)
		err := RequireOrganizer()(okHandler)(c)
		httpErr, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusForbidden, httpErr.Code)
	}
}

func TestRequireOrganizerOr_AdmitsOrganizerAndMatchingRole(t *testing.T) {
	for _, role := range []scope.Role{scope.RoleOrganizer, scope.RoleAgent} {
		c, _ := requestWithIdentity(t, role)
		err := RequireOrganizerOr(scope.RoleAgent)(okHandler)(c)
		assert.NoError(t, err, "role %s should be admitted", role)
	}
}

func TestRequireOrganizerOr_RejectsOtherStaffRoles(t *testing.T) {
	for _, role := range []scope.Role{scope.RolePharmacist, scope.RoleManagement} {
		c, _ := requestWithIdentity(t, role)
		err := RequireOrganizerOr(scope.RoleAgent)(okHandler)(c)
		httpErr, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusForbidden, httpErr.Code, "role %s should be rejected", role)
	}
}

func TestRequireOrganizerOr_RejectsUnauthenticated(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	err := RequireOrganizerOr(scope.RolePharmacist)(okHandler)(c)
	httpErr, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}
