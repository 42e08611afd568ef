package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"pharmatrack/internal/common"
	"pharmatrack/internal/scope"
	"pharmatrack/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

// stubAuthService records Revoke calls. The embedded interface stays nil;
// Logout touches nothing else.
type stubAuthService struct {
	services.AuthService
	revoked []uuid.UUID
}

func (s *stubAuthService) Revoke(ctx context.Context, userID uuid.UUID) error {
	s.revoked = append(s.revoked, userID)
	return nil
}

func logoutRequest(authenticated bool, userID uuid.UUID) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	if authenticated {
		id := scope.Identity{
			UserID:         userID,
			OrganizationID: uuid.New(),
			Role:           scope.RoleOrganizer,
		}
		req = req.WithContext(common.WithIdentity(req.Context(), id))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	stub := &stubAuthService{}
	h := NewAuthHandlers(stub, nil, nil, nil)
	userID := uuid.New()

	c, rec := logoutRequest(true, userID)
	assert.NoError(t, h.Logout(c))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []uuid.UUID{userID}, stub.revoked)
}

func TestLogout_WithoutIdentityIsUnauthorized(t *testing.T) {
	stub := &stubAuthService{}
	h := NewAuthHandlers(stub, nil, nil, nil)

	c, rec := logoutRequest(false, uuid.Nil)
	assert.NoError(t, h.Logout(c))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, stub.revoked)
}
