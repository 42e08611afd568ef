package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pharmatrack/internal/common"
	"pharmatrack/internal/repositories"
	"pharmatrack/internal/scope"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/suite"
)

type PatientHandlersTestSuite struct {
	suite.Suite
	mock     pgxmock.PgxPoolIface
	handlers *PatientHandlers
	orgID    uuid.UUID
}

func (s *PatientHandlersTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	s.Require().NoError(err)
	s.mock = mock
	s.handlers = NewPatientHandlers(nil, repositories.NewPatientRepo(mock),
		repositories.NewPatientDetailRepo(mock), repositories.NewStaffRepo(mock))
	s.orgID = uuid.New()
}

func (s *PatientHandlersTestSuite) TearDownTest() {
	s.mock.Close()
}

func (s *PatientHandlersTestSuite) request(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	id := scope.Identity{
		UserID:         uuid.New(),
		OrganizationID: s.orgID,
		Role:           scope.RoleOrganizer,
	}
	req = req.WithContext(common.WithIdentity(req.Context(), id))
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func (s *PatientHandlersTestSuite) expectGetBySlug(patientID uuid.UUID, slug string) {
	now := time.Now()
	s.mock.ExpectQuery(`SELECT .+ FROM patients WHERE organization_id = \$1 AND slug = \$2`).
		WithArgs(s.orgID, slug).
		WillReturnRows(pgxmock.NewRows([]string{"id", "organization_id", "assigned_staff_id", "lead_id",
			"first_name", "last_name", "email", "phone", "unique_code", "slug", "created_at", "updated_at"}).
			AddRow(patientID, s.orgID, nil, nil, "Meera", "Shah", "meera@example.com",
				"555-0110", "0123456789ABCDEF0123456789ABCDEF", slug, now, now))
}

// Deleting a patient removes its detail record in the same request.
func (s *PatientHandlersTestSuite) TestDelete_RemovesDetailRecord() {
	patientID := uuid.New()
	s.expectGetBySlug(patientID, "meera-abc123")
	s.mock.ExpectExec(`DELETE FROM patient_details WHERE organization_id = \$1 AND patient_id = \$2`).
		WithArgs(s.orgID, patientID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	s.mock.ExpectExec(`DELETE FROM patients WHERE organization_id = \$1 AND slug = \$2`).
		WithArgs(s.orgID, "meera-abc123").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	c, rec := s.request(http.MethodDelete, "/patients/meera-abc123", "")
	c.SetParamNames("slug")
	c.SetParamValues("meera-abc123")
	s.Require().NoError(s.handlers.Delete(c))

	s.Equal(http.StatusNoContent, rec.Code)
	s.NoError(s.mock.ExpectationsWereMet())
}

// A patient without a detail record still deletes cleanly.
func (s *PatientHandlersTestSuite) TestDelete_MissingDetailIsIgnored() {
	patientID := uuid.New()
	s.expectGetBySlug(patientID, "meera-abc123")
	s.mock.ExpectExec(`DELETE FROM patient_details WHERE organization_id = \$1 AND patient_id = \$2`).
		WithArgs(s.orgID, patientID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	s.mock.ExpectExec(`DELETE FROM patients WHERE organization_id = \$1 AND slug = \$2`).
		WithArgs(s.orgID, "meera-abc123").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	c, rec := s.request(http.MethodDelete, "/patients/meera-abc123", "")
	c.SetParamNames("slug")
	c.SetParamValues("meera-abc123")
	s.Require().NoError(s.handlers.Delete(c))

	s.Equal(http.StatusNoContent, rec.Code)
	s.NoError(s.mock.ExpectationsWereMet())
}

// The assigned staff check applies to patients too.
func (s *PatientHandlersTestSuite) TestCreate_ForeignStaffAssignmentIsNotFound() {
	foreign := uuid.New()
	s.mock.ExpectQuery(`SELECT .+ FROM staff WHERE organization_id = \$1 AND id = \$2`).
		WithArgs(s.orgID, foreign).
		WillReturnError(pgx.ErrNoRows)

	body := `{"first_name":"Meera","assigned_staff_id":"` + foreign.String() + `"}`
	c, rec := s.request(http.MethodPost, "/patients", body)
	s.Require().NoError(s.handlers.Create(c))

	s.Equal(http.StatusNotFound, rec.Code)
	s.NoError(s.mock.ExpectationsWereMet())
}

func TestPatientHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(PatientHandlersTestSuite))
}
