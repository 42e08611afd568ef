package repositories

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"pharmatrack/internal/models"
	"pharmatrack/internal/scope"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type LeadRepoTestSuite struct {
	suite.Suite
	mock    pgxmock.PgxPoolIface
	repo    LeadRepository
	orgID1  uuid.UUID
	orgID2  uuid.UUID
	staffID uuid.UUID
	context context.Context
}

func (suite *LeadRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewLeadRepo(mock)
	suite.orgID1 = uuid.New()
	suite.orgID2 = uuid.New()
	suite.staffID = uuid.New()
	suite.context = context.Background()
}

func (suite *LeadRepoTestSuite) TearDownTest() {
	suite.mock.Close()
}

func TestLeadRepoTestSuite(t *testing.T) {
	suite.Run(t, new(LeadRepoTestSuite))
}

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+-[a-z0-9]{6}$`)

func (suite *LeadRepoTestSuite) newLead() *models.Lead {
	return &models.Lead{
		ID:             uuid.New(),
		OrganizationID: suite.orgID1,
		FirstName:      "Asha",
		LastName:       "Varma",
		Email:          "asha@example.com",
		Phone:          "555-0101",
		City:           "Pune",
	}
}

func (suite *LeadRepoTestSuite) TestCreate_Success() {
	lead := suite.newLead()

	suite.mock.ExpectExec(`INSERT INTO leads`).
		WithArgs(lead.ID, lead.OrganizationID, lead.AssignedStaffID, lead.CategoryID,
			lead.FirstName, lead.LastName, lead.Email, lead.Phone, lead.City, lead.Notes, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Create(suite.context, lead)
	assert.NoError(suite.T(), err)
	assert.Regexp(suite.T(), slugPattern, lead.Slug)
}

func (suite *LeadRepoTestSuite) TestCreate_RetriesOnSlugCollision() {
	lead := suite.newLead()
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "leads_slug_key"}

	suite.mock.ExpectExec(`INSERT INTO leads`).
		WithArgs(lead.ID, lead.OrganizationID, lead.AssignedStaffID, lead.CategoryID,
			lead.FirstName, lead.LastName, lead.Email, lead.Phone, lead.City, lead.Notes, pgxmock.AnyArg()).
		WillReturnError(dup)
	suite.mock.ExpectExec(`INSERT INTO leads`).
		WithArgs(lead.ID, lead.OrganizationID, lead.AssignedStaffID, lead.CategoryID,
			lead.FirstName, lead.LastName, lead.Email, lead.Phone, lead.City, lead.Notes, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Create(suite.context, lead)
	assert.NoError(suite.T(), err)
	assert.Regexp(suite.T(), slugPattern, lead.Slug)
}

func (suite *LeadRepoTestSuite) TestCreate_DatabaseError() {
	lead := suite.newLead()

	suite.mock.ExpectExec(`INSERT INTO leads`).
		WithArgs(lead.ID, lead.OrganizationID, lead.AssignedStaffID, lead.CategoryID,
			lead.FirstName, lead.LastName, lead.Email, lead.Phone, lead.City, lead.Notes, pgxmock.AnyArg()).
		WillReturnError(errors.New("database connection failed"))

	err := suite.repo.Create(suite.context, lead)
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "database connection failed")
}

func (suite *LeadRepoTestSuite) TestGetBySlug_Success() {
	leadID := uuid.New()
	now := time.Now()

	suite.mock.ExpectQuery(`SELECT id, organization_id, assigned_staff_id, category_id, first_name, last_name, email, phone, city, notes, slug, created_at, updated_at FROM leads WHERE organization_id = \$1 AND slug = \$2`).
		WithArgs(suite.orgID1, "asha-x7k2m9").
		WillReturnRows(pgxmock.NewRows([]string{"id", "organization_id", "assigned_staff_id", "category_id",
			"first_name", "last_name", "email", "phone", "city", "notes", "slug", "created_at", "updated_at"}).
			AddRow(leadID, suite.orgID1, nil, nil, "Asha", "Varma", "asha@example.com", "555-0101", "Pune", "", "asha-x7k2m9", now, now))

	result, err := suite.repo.GetBySlug(suite.context, scope.Organization(suite.orgID1), "asha-x7k2m9")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), leadID, result.ID)
	assert.Equal(suite.T(), "Asha", result.FirstName)
}

func (suite *LeadRepoTestSuite) TestGetBySlug_WrongOrganization() {
	suite.mock.ExpectQuery(`FROM leads WHERE organization_id = \$1 AND slug = \$2`).
		WithArgs(suite.orgID2, "asha-x7k2m9").
		WillReturnError(pgx.ErrNoRows)

	result, err := suite.repo.GetBySlug(suite.context, scope.Organization(suite.orgID2), "asha-x7k2m9")
	assert.ErrorIs(suite.T(), err, pgx.ErrNoRows)
	assert.Nil(suite.T(), result)
}

func (suite *LeadRepoTestSuite) TestGetBySlug_StaffScopeNarrows() {
	suite.mock.ExpectQuery(`FROM leads WHERE organization_id = \$1 AND assigned_staff_id = \$2 AND slug = \$3`).
		WithArgs(suite.orgID1, suite.staffID, "asha-x7k2m9").
		WillReturnError(pgx.ErrNoRows)

	sc := scope.Scope{OrganizationID: suite.orgID1, StaffID: &suite.staffID}
	result, err := suite.repo.GetBySlug(suite.context, sc, "asha-x7k2m9")
	assert.ErrorIs(suite.T(), err, pgx.ErrNoRows)
	assert.Nil(suite.T(), result)
}

func (suite *LeadRepoTestSuite) TestUpdate_RegeneratesSlug() {
	lead := suite.newLead()
	lead.Slug = "asha-x7k2m9"

	suite.mock.ExpectExec(`UPDATE leads`).
		WithArgs(lead.AssignedStaffID, lead.CategoryID, lead.FirstName, lead.LastName,
			lead.Email, lead.Phone, lead.City, lead.Notes, pgxmock.AnyArg(), lead.ID, suite.orgID1).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := suite.repo.Update(suite.context, scope.Organization(suite.orgID1), lead)
	assert.NoError(suite.T(), err)
	assert.NotEqual(suite.T(), "asha-x7k2m9", lead.Slug)
	assert.Regexp(suite.T(), slugPattern, lead.Slug)
}

func (suite *LeadRepoTestSuite) TestUpdate_NoRowsIsNotFound() {
	lead := suite.newLead()

	suite.mock.ExpectExec(`UPDATE leads`).
		WithArgs(lead.AssignedStaffID, lead.CategoryID, lead.FirstName, lead.LastName,
			lead.Email, lead.Phone, lead.City, lead.Notes, pgxmock.AnyArg(), lead.ID, suite.orgID2).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := suite.repo.Update(suite.context, scope.Organization(suite.orgID2), lead)
	assert.ErrorIs(suite.T(), err, pgx.ErrNoRows)
}

func (suite *LeadRepoTestSuite) TestDelete_Success() {
	suite.mock.ExpectExec(`DELETE FROM leads WHERE organization_id = \$1 AND slug = \$2`).
		WithArgs(suite.orgID1, "asha-x7k2m9").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := suite.repo.Delete(suite.context, scope.Organization(suite.orgID1), "asha-x7k2m9")
	assert.NoError(suite.T(), err)
}

func (suite *LeadRepoTestSuite) TestDelete_WrongStaffIsNotFound() {
	otherStaff := uuid.New()

	suite.mock.ExpectExec(`DELETE FROM leads WHERE organization_id = \$1 AND assigned_staff_id = \$2 AND slug = \$3`).
		WithArgs(suite.orgID1, otherStaff, "asha-x7k2m9").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	sc := scope.Scope{OrganizationID: suite.orgID1, StaffID: &otherStaff}
	err := suite.repo.Delete(suite.context, sc, "asha-x7k2m9")
	assert.ErrorIs(suite.T(), err, pgx.ErrNoRows)
}

func (suite *LeadRepoTestSuite) TestCount_WithSearch() {
	suite.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM leads WHERE organization_id = \$1 AND \(first_name ILIKE \$2 OR last_name ILIKE \$2 OR email ILIKE \$2 OR city ILIKE \$2\)`).
		WithArgs(suite.orgID1, "%asha%").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	count, err := suite.repo.Count(suite.context, scope.Organization(suite.orgID1), "asha")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 3, count)
}

func (suite *LeadRepoTestSuite) TestList_Success() {
	now := time.Now()
	rows := pgxmock.NewRows([]string{"id", "organization_id", "assigned_staff_id", "category_id",
		"first_name", "last_name", "email", "phone", "city", "notes", "slug", "created_at", "updated_at"}).
		AddRow(uuid.New(), suite.orgID1, nil, nil, "Asha", "Varma", "asha@example.com", "555-0101", "Pune", "", "asha-x7k2m9", now, now).
		AddRow(uuid.New(), suite.orgID1, nil, nil, "Ravi", "Iyer", "ravi@example.com", "555-0102", "Mumbai", "", "ravi-p3q8r1", now, now)

	suite.mock.ExpectQuery(`FROM leads WHERE organization_id = \$1 ORDER BY created_at DESC LIMIT \$2 OFFSET \$3`).
		WithArgs(suite.orgID1, 10, 0).
		WillReturnRows(rows)

	result, err := suite.repo.List(suite.context, scope.Organization(suite.orgID1), "", 10, 0)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), result, 2)
	assert.Equal(suite.T(), "Asha", result[0].FirstName)
	assert.Equal(suite.T(), "Ravi", result[1].FirstName)
}

func (suite *LeadRepoTestSuite) TestList_StaffScope() {
	now := time.Now()
	rows := pgxmock.NewRows([]string{"id", "organization_id", "assigned_staff_id", "category_id",
		"first_name", "last_name", "email", "phone", "city", "notes", "slug", "created_at", "updated_at"}).
		AddRow(uuid.New(), suite.orgID1, &suite.staffID, nil, "Asha", "Varma", "asha@example.com", "555-0101", "Pune", "", "asha-x7k2m9", now, now)

	suite.mock.ExpectQuery(`FROM leads WHERE organization_id = \$1 AND assigned_staff_id = \$2 ORDER BY created_at DESC LIMIT \$3 OFFSET \$4`).
		WithArgs(suite.orgID1, suite.staffID, 10, 0).
		WillReturnRows(rows)

	sc := scope.Scope{OrganizationID: suite.orgID1, StaffID: &suite.staffID}
	result, err := suite.repo.List(suite.context, sc, "", 10, 0)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), result, 1)
	assert.Equal(suite.T(), suite.staffID, *result[0].AssignedStaffID)
}

func (suite *LeadRepoTestSuite) TestList_EmptyResult() {
	rows := pgxmock.NewRows([]string{"id", "organization_id", "assigned_staff_id", "category_id",
		"first_name", "last_name", "email", "phone", "city", "notes", "slug", "created_at", "updated_at"})

	suite.mock.ExpectQuery(`FROM leads WHERE organization_id = \$1 ORDER BY created_at DESC LIMIT \$2 OFFSET \$3`).
		WithArgs(suite.orgID2, 10, 0).
		WillReturnRows(rows)

	result, err := suite.repo.List(suite.context, scope.Organization(suite.orgID2), "", 10, 0)
	assert.NoError(suite.T(), err)
	assert.Empty(suite.T(), result)
}
