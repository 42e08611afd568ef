package handlers

import (
	"encoding/json"
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

type LeadHandlersTestSuite struct {
	suite.Suite
	mock     pgxmock.PgxPoolIface
	handlers *LeadHandlers
	orgID    uuid.UUID
	agentID  uuid.UUID
}

func (s *LeadHandlersTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	s.Require().NoError(err)
	s.mock = mock
	s.handlers = NewLeadHandlers(repositories.NewLeadRepo(mock), repositories.NewStaffRepo(mock))
	s.orgID = uuid.New()
	s.agentID = uuid.New()
}

func (s *LeadHandlersTestSuite) TearDownTest() {
	s.mock.Close()
}

func (s *LeadHandlersTestSuite) organizer() scope.Identity {
	return scope.Identity{
		UserID:         uuid.New(),
		OrganizationID: s.orgID,
		Role:           scope.RoleOrganizer,
	}
}

func (s *LeadHandlersTestSuite) agent() scope.Identity {
	return scope.Identity{
		UserID:         uuid.New(),
		OrganizationID: s.orgID,
		Role:           scope.RoleAgent,
		StaffID:        &s.agentID,
	}
}

func (s *LeadHandlersTestSuite) request(method, target, body string, id scope.Identity) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	req = req.WithContext(common.WithIdentity(req.Context(), id))
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func (s *LeadHandlersTestSuite) expectStaffLookup(staffID uuid.UUID) {
	now := time.Now()
	rows := pgxmock.NewRows([]string{"id", "organization_id", "user_id", "role", "first_name",
		"last_name", "email", "phone", "slug", "created_at", "updated_at"}).
		AddRow(staffID, s.orgID, uuid.New(), "agent", "Asha", "Verma",
			"asha@example.com", "555-0101", "asha-abc123", now, now)
	s.mock.ExpectQuery(`SELECT .+ FROM staff WHERE organization_id = \$1 AND id = \$2`).
		WithArgs(s.orgID, staffID).
		WillReturnRows(rows)
}

// A lead cannot be assigned to a staff record outside the caller's
// organization, even by the organizer. The row must never reach the database.
func (s *LeadHandlersTestSuite) TestCreate_ForeignStaffAssignmentIsNotFound() {
	foreign := uuid.New()
	s.mock.ExpectQuery(`SELECT .+ FROM staff WHERE organization_id = \$1 AND id = \$2`).
		WithArgs(s.orgID, foreign).
		WillReturnError(pgx.ErrNoRows)

	body := `{"first_name":"Ravi","last_name":"Iyer","assigned_staff_id":"` + foreign.String() + `"}`
	c, rec := s.request(http.MethodPost, "/leads", body, s.organizer())
	s.Require().NoError(s.handlers.Create(c))

	s.Equal(http.StatusNotFound, rec.Code)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *LeadHandlersTestSuite) TestUpdate_ForeignStaffAssignmentIsNotFound() {
	foreign := uuid.New()
	s.mock.ExpectQuery(`SELECT .+ FROM staff WHERE organization_id = \$1 AND id = \$2`).
		WithArgs(s.orgID, foreign).
		WillReturnError(pgx.ErrNoRows)

	body := `{"first_name":"Ravi","last_name":"Iyer","assigned_staff_id":"` + foreign.String() + `"}`
	c, rec := s.request(http.MethodPut, "/leads/ravi-abc123", body, s.organizer())
	c.SetParamNames("slug")
	c.SetParamValues("ravi-abc123")
	s.Require().NoError(s.handlers.Update(c))

	s.Equal(http.StatusNotFound, rec.Code)
	s.NoError(s.mock.ExpectationsWereMet())
}

// Organizer assigns a lead to an agent; the agent then sees exactly that lead
// and the listing stays keyed to the agent's own staff record.
func (s *LeadHandlersTestSuite) TestAssignedLeadIsVisibleToItsAgent() {
	s.expectStaffLookup(s.agentID)
	s.mock.ExpectExec(`INSERT INTO leads`).
		WithArgs(pgxmock.AnyArg(), s.orgID, &s.agentID, (*uuid.UUID)(nil),
			"Asha", "Verma", "asha.v@example.com", "555-0102", "Pune", "walk-in", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	body := `{"first_name":"Asha","last_name":"Verma","email":"asha.v@example.com",` +
		`"phone":"555-0102","city":"Pune","notes":"walk-in",` +
		`"assigned_staff_id":"` + s.agentID.String() + `"}`
	c, rec := s.request(http.MethodPost, "/leads", body, s.organizer())
	s.Require().NoError(s.handlers.Create(c))
	s.Require().Equal(http.StatusCreated, rec.Code)

	var created struct {
		ID              uuid.UUID  `json:"id"`
		AssignedStaffID *uuid.UUID `json:"assigned_staff_id"`
		Slug            string     `json:"slug"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &created))
	s.Require().NotNil(created.AssignedStaffID)
	s.Equal(s.agentID, *created.AssignedStaffID)

	s.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM leads WHERE organization_id = \$1 AND assigned_staff_id = \$2`).
		WithArgs(s.orgID, s.agentID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	now := time.Now()
	s.mock.ExpectQuery(`SELECT .+ FROM leads WHERE organization_id = \$1 AND assigned_staff_id = \$2 ORDER BY created_at DESC LIMIT \$3 OFFSET \$4`).
		WithArgs(s.orgID, s.agentID, 10, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "organization_id", "assigned_staff_id", "category_id",
			"first_name", "last_name", "email", "phone", "city", "notes", "slug", "created_at", "updated_at"}).
			AddRow(created.ID, s.orgID, &s.agentID, nil,
				"Asha", "Verma", "asha.v@example.com", "555-0102", "Pune", "walk-in", created.Slug, now, now))

	c, rec = s.request(http.MethodGet, "/leads", "", s.agent())
	s.Require().NoError(s.handlers.List(c))
	s.Require().Equal(http.StatusOK, rec.Code)

	var listed struct {
		Data []struct {
			Slug            string     `json:"slug"`
			AssignedStaffID *uuid.UUID `json:"assigned_staff_id"`
		} `json:"data"`
		Page struct {
			Total int `json:"total"`
		} `json:"page"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &listed))
	s.Equal(1, listed.Page.Total)
	s.Require().Len(listed.Data, 1)
	s.Equal(created.Slug, listed.Data[0].Slug)
	s.Require().NotNil(listed.Data[0].AssignedStaffID)
	s.Equal(s.agentID, *listed.Data[0].AssignedStaffID)
	s.NoError(s.mock.ExpectationsWereMet())
}

func TestLeadHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(LeadHandlersTestSuite))
}
