package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pharmatrack/internal/common"
	"pharmatrack/internal/repositories"
	"pharmatrack/internal/scope"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/suite"
)

type CategoryHandlersTestSuite struct {
	suite.Suite
	mock     pgxmock.PgxPoolIface
	handlers *CategoryHandlers
	orgID    uuid.UUID
}

func (s *CategoryHandlersTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	s.Require().NoError(err)
	s.mock = mock
	s.handlers = NewCategoryHandlers(repositories.NewCategoryRepo(mock))
	s.orgID = uuid.New()
}

func (s *CategoryHandlersTestSuite) TearDownTest() {
	s.mock.Close()
}

// listRequest builds an authenticated GET /categories with the given query
// string and returns the echo context plus the response recorder.
func (s *CategoryHandlersTestSuite) listRequest(query string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/categories?"+query, nil)
	id := scope.Identity{
		UserID:         uuid.New(),
		OrganizationID: s.orgID,
		Role:           scope.RoleOrganizer,
	}
	req = req.WithContext(common.WithIdentity(req.Context(), id))
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func (s *CategoryHandlersTestSuite) expectCount(total int) {
	s.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM categories WHERE organization_id = \$1`).
		WithArgs(s.orgID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(total))
}

func (s *CategoryHandlersTestSuite) expectList(limit, offset, rows int) {
	result := pgxmock.NewRows([]string{"id", "organization_id", "name", "slug", "created_at", "updated_at"})
	for i := 0; i < rows; i++ {
		result.AddRow(uuid.New(), s.orgID, "Referral", "referral-abc123", time.Now(), time.Now())
	}
	s.mock.ExpectQuery(`SELECT id, organization_id, name, slug, created_at, updated_at\s+FROM categories\s+WHERE organization_id = \$1`).
		WithArgs(s.orgID, limit, offset).
		WillReturnRows(result)
}

type listPage struct {
	Page struct {
		Number     int `json:"page"`
		Size       int `json:"page_size"`
		Total      int `json:"total"`
		TotalPages int `json:"total_pages"`
	} `json:"page"`
}

func (s *CategoryHandlersTestSuite) decodePage(rec *httptest.ResponseRecorder) listPage {
	var body listPage
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func (s *CategoryHandlersTestSuite) TestList_NonIntegerPageFallsBackToFirst() {
	s.expectCount(25)
	s.expectList(10, 0, 10)

	c, rec := s.listRequest("page=abc")
	s.Require().NoError(s.handlers.List(c))

	s.Equal(http.StatusOK, rec.Code)
	body := s.decodePage(rec)
	s.Equal(1, body.Page.Number)
	s.Equal(10, body.Page.Size)
	s.Equal(25, body.Page.Total)
	s.Equal(3, body.Page.TotalPages)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *CategoryHandlersTestSuite) TestList_PastEndPageClampsToLast() {
	s.expectCount(25)
	s.expectList(10, 20, 5)

	c, rec := s.listRequest("page=9999")
	s.Require().NoError(s.handlers.List(c))

	s.Equal(http.StatusOK, rec.Code)
	body := s.decodePage(rec)
	s.Equal(3, body.Page.Number)
	s.Equal(3, body.Page.TotalPages)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *CategoryHandlersTestSuite) TestList_EmptyResultIsSingleEmptyPage() {
	s.expectCount(0)
	s.expectList(10, 0, 0)

	c, rec := s.listRequest("page=5")
	s.Require().NoError(s.handlers.List(c))

	s.Equal(http.StatusOK, rec.Code)
	body := s.decodePage(rec)
	s.Equal(1, body.Page.Number)
	s.Equal(0, body.Page.Total)
	s.Equal(1, body.Page.TotalPages)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *CategoryHandlersTestSuite) TestList_WithoutIdentityIsUnauthorized() {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/categories", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	s.Require().NoError(s.handlers.List(c))
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func TestCategoryHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(CategoryHandlersTestSuite))
}
