package repositories

import (
	"context"
	"regexp"
	"testing"
	"time"

	"pharmatrack/internal/models"
	"pharmatrack/internal/scope"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type PatientRepoTestSuite struct {
	suite.Suite
	mock    pgxmock.PgxPoolIface
	repo    PatientRepository
	orgID   uuid.UUID
	context context.Context
}

func (suite *PatientRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewPatientRepo(mock)
	suite.orgID = uuid.New()
	suite.context = context.Background()
}

func (suite *PatientRepoTestSuite) TearDownTest() {
	suite.mock.Close()
}

func TestPatientRepoTestSuite(t *testing.T) {
	suite.Run(t, new(PatientRepoTestSuite))
}

var uniqueCodePattern = regexp.MustCompile(`^[0-9A-F]{32}$`)

func (suite *PatientRepoTestSuite) newPatient() *models.Patient {
	return &models.Patient{
		ID:             uuid.New(),
		OrganizationID: suite.orgID,
		FirstName:      "Meera",
		LastName:       "Iyer",
		Email:          "meera@example.com",
		Phone:          "555-0202",
	}
}

func (suite *PatientRepoTestSuite) TestCreate_MintsUniqueCode() {
	patient := suite.newPatient()

	suite.mock.ExpectExec(`INSERT INTO patients`).
		WithArgs(patient.ID, suite.orgID, patient.AssignedStaffID, patient.LeadID,
			patient.FirstName, patient.LastName, patient.Email, patient.Phone,
			pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Create(suite.context, patient)
	assert.NoError(suite.T(), err)
	assert.Regexp(suite.T(), uniqueCodePattern, patient.UniqueCode)
	assert.Regexp(suite.T(), slugPattern, patient.Slug)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *PatientRepoTestSuite) TestCreate_PreservesExistingCode() {
	patient := suite.newPatient()
	patient.UniqueCode = "00112233445566778899AABBCCDDEEFF"

	suite.mock.ExpectExec(`INSERT INTO patients`).
		WithArgs(patient.ID, suite.orgID, patient.AssignedStaffID, patient.LeadID,
			patient.FirstName, patient.LastName, patient.Email, patient.Phone,
			"00112233445566778899AABBCCDDEEFF", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Create(suite.context, patient)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "00112233445566778899AABBCCDDEEFF", patient.UniqueCode)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *PatientRepoTestSuite) TestUpdate_RegeneratesSlugKeepsCode() {
	patient := suite.newPatient()
	patient.UniqueCode = "FFEEDDCCBBAA99887766554433221100"
	patient.Slug = "meera-abc123"

	suite.mock.ExpectExec(`UPDATE patients`).
		WithArgs(patient.AssignedStaffID, patient.FirstName, patient.LastName, patient.Email,
			patient.Phone, "FFEEDDCCBBAA99887766554433221100", pgxmock.AnyArg(), patient.ID, suite.orgID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := suite.repo.Update(suite.context, scope.Organization(suite.orgID), patient)
	assert.NoError(suite.T(), err)
	assert.NotEqual(suite.T(), "meera-abc123", patient.Slug)
	assert.Regexp(suite.T(), slugPattern, patient.Slug)
	assert.Equal(suite.T(), "FFEEDDCCBBAA99887766554433221100", patient.UniqueCode)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *PatientRepoTestSuite) TestGetBySlug_ForeignOrganizationIsNotFound() {
	otherOrg := uuid.New()
	suite.mock.ExpectQuery(`SELECT .+ FROM patients WHERE organization_id = \$1 AND slug = \$2`).
		WithArgs(otherOrg, "meera-abc123").
		WillReturnError(pgx.ErrNoRows)

	_, err := suite.repo.GetBySlug(suite.context, scope.Organization(otherOrg), "meera-abc123")
	assert.ErrorIs(suite.T(), err, pgx.ErrNoRows)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *PatientRepoTestSuite) TestGetByID_Success() {
	patient := suite.newPatient()
	now := time.Now()

	suite.mock.ExpectQuery(`SELECT .+ FROM patients WHERE organization_id = \$1 AND id = \$2`).
		WithArgs(suite.orgID, patient.ID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "organization_id", "assigned_staff_id", "lead_id",
			"first_name", "last_name", "email", "phone", "unique_code", "slug", "created_at", "updated_at"}).
			AddRow(patient.ID, suite.orgID, nil, nil, patient.FirstName, patient.LastName,
				patient.Email, patient.Phone, "00112233445566778899AABBCCDDEEFF", "meera-abc123", now, now))

	got, err := suite.repo.GetByID(suite.context, scope.Organization(suite.orgID), patient.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), patient.ID, got.ID)
	assert.Equal(suite.T(), "00112233445566778899AABBCCDDEEFF", got.UniqueCode)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}
