package services

import (
	"context"
	"testing"
	"time"

	"pharmatrack/internal/repositories"
	"pharmatrack/internal/scope"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetIdentity(ctx context.Context, userID uuid.UUID) (*scope.Identity, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scope.Identity), args.Error(1)
}

func (m *MockCacheService) SetIdentity(ctx context.Context, id scope.Identity) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCacheService) DeleteIdentity(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockCacheService) SetRefreshToken(ctx context.Context, userID uuid.UUID, token string, ttl time.Duration) error {
	args := m.Called(ctx, userID, token, ttl)
	return args.Error(0)
}

func (m *MockCacheService) GetRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockCacheService) DeleteRefreshToken(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockCacheService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// chanNotifier records sent mail so tests can wait for the fire-and-forget
// goroutine without racing it.
type chanNotifier struct {
	sent chan string
}

func (n *chanNotifier) SendEmail(_ context.Context, recipient, _, _ string) error {
	n.sent <- recipient
	return nil
}

type StaffServiceTestSuite struct {
	suite.Suite
	mock     pgxmock.PgxPoolIface
	cache    *MockCacheService
	notifier *chanNotifier
	svc      StaffService
	orgID    uuid.UUID
	context  context.Context
}

func (suite *StaffServiceTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.cache = new(MockCacheService)
	suite.notifier = &chanNotifier{sent: make(chan string, 1)}
	suite.svc = NewStaffService(mock, repositories.NewStaffRepo(mock), suite.cache, suite.notifier)
	suite.orgID = uuid.New()
	suite.context = context.Background()
}

func (suite *StaffServiceTestSuite) TearDownTest() {
	suite.mock.Close()
}

func TestStaffServiceTestSuite(t *testing.T) {
	suite.Run(t, new(StaffServiceTestSuite))
}

func (suite *StaffServiceTestSuite) TestInvite_Success() {
	suite.mock.ExpectBegin()
	suite.mock.ExpectExec(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), "nina@example.com", pgxmock.AnyArg(), "Nina", "Rao", "pharmacist").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectExec(`INSERT INTO staff`).
		WithArgs(pgxmock.AnyArg(), suite.orgID, pgxmock.AnyArg(), "pharmacist",
			"Nina", "Rao", "nina@example.com", "555-0103", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectCommit()

	staff, err := suite.svc.Invite(suite.context, suite.orgID, "Acme Pharmacy", InviteStaffInput{
		Role:      scope.RolePharmacist,
		FirstName: "Nina",
		LastName:  "Rao",
		Email:     "nina@example.com",
		Phone:     "555-0103",
	})
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.orgID, staff.OrganizationID)
	assert.NotEmpty(suite.T(), staff.Slug)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())

	select {
	case recipient := <-suite.notifier.sent:
		assert.Equal(suite.T(), "nina@example.com", recipient)
	case <-time.After(2 * time.Second):
		suite.T().Fatal("onboarding email was never dispatched")
	}
}

func (suite *StaffServiceTestSuite) TestInvite_DuplicateEmailLeavesNoRows() {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}

	suite.mock.ExpectBegin()
	suite.mock.ExpectExec(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), "nina@example.com", pgxmock.AnyArg(), "Nina", "Rao", "pharmacist").
		WillReturnError(dup)
	suite.mock.ExpectRollback()

	staff, err := suite.svc.Invite(suite.context, suite.orgID, "Acme Pharmacy", InviteStaffInput{
		Role:      scope.RolePharmacist,
		FirstName: "Nina",
		LastName:  "Rao",
		Email:     "nina@example.com",
	})
	assert.ErrorIs(suite.T(), err, ErrEmailExists)
	assert.Nil(suite.T(), staff)
	// No staff insert was expected; the transaction is rolled back whole.
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())

	select {
	case <-suite.notifier.sent:
		suite.T().Fatal("no email may be sent for a failed invite")
	case <-time.After(50 * time.Millisecond):
	}
}

func (suite *StaffServiceTestSuite) TestInvite_RejectsOrganizerRole() {
	staff, err := suite.svc.Invite(suite.context, suite.orgID, "Acme Pharmacy", InviteStaffInput{
		Role:      scope.RoleOrganizer,
		FirstName: "Nina",
	})
	assert.ErrorIs(suite.T(), err, ErrInvalidStaffRole)
	assert.Nil(suite.T(), staff)
}

func (suite *StaffServiceTestSuite) TestInvite_StaffInsertFailureRollsBack() {
	suite.mock.ExpectBegin()
	suite.mock.ExpectExec(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), "nina@example.com", pgxmock.AnyArg(), "Nina", "Rao", "agent").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectExec(`INSERT INTO staff`).
		WithArgs(pgxmock.AnyArg(), suite.orgID, pgxmock.AnyArg(), "agent",
			"Nina", "Rao", "nina@example.com", "", pgxmock.AnyArg()).
		WillReturnError(assert.AnError)
	suite.mock.ExpectRollback()

	staff, err := suite.svc.Invite(suite.context, suite.orgID, "Acme Pharmacy", InviteStaffInput{
		Role:      scope.RoleAgent,
		FirstName: "Nina",
		LastName:  "Rao",
		Email:     "nina@example.com",
	})
	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), staff)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *StaffServiceTestSuite) staffRow(staffID, userID uuid.UUID) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows([]string{"id", "organization_id", "user_id", "role", "first_name",
		"last_name", "email", "phone", "slug", "created_at", "updated_at"}).
		AddRow(staffID, suite.orgID, userID, "agent", "Dev", "Nair",
			"dev@example.com", "555-0104", "dev-abc123", now, now)
}

func (suite *StaffServiceTestSuite) TestUpdate_SyncsUserAccount() {
	staffID := uuid.New()
	userID := uuid.New()

	suite.mock.ExpectQuery(`SELECT .+ FROM staff WHERE organization_id = \$1 AND slug = \$2`).
		WithArgs(suite.orgID, "dev-abc123").
		WillReturnRows(suite.staffRow(staffID, userID))
	suite.mock.ExpectBegin()
	suite.mock.ExpectExec(`UPDATE staff`).
		WithArgs("pharmacist", "Dev", "Nair", "dev.nair@example.com", "555-0104",
			pgxmock.AnyArg(), suite.orgID, staffID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectExec(`UPDATE users`).
		WithArgs("dev.nair@example.com", "Dev", "Nair", "pharmacist", userID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectCommit()
	suite.cache.On("DeleteIdentity", mock.Anything, userID).Return(nil)

	staff, err := suite.svc.Update(suite.context, suite.orgID, "dev-abc123", UpdateStaffInput{
		Role:      scope.RolePharmacist,
		FirstName: "Dev",
		LastName:  "Nair",
		Email:     "dev.nair@example.com",
		Phone:     "555-0104",
	})
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "pharmacist", staff.Role)
	assert.Equal(suite.T(), "dev.nair@example.com", staff.Email)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.cache.AssertCalled(suite.T(), "DeleteIdentity", mock.Anything, userID)
}

func (suite *StaffServiceTestSuite) TestUpdate_DuplicateEmailRollsBackBothRows() {
	staffID := uuid.New()
	userID := uuid.New()
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}

	suite.mock.ExpectQuery(`SELECT .+ FROM staff WHERE organization_id = \$1 AND slug = \$2`).
		WithArgs(suite.orgID, "dev-abc123").
		WillReturnRows(suite.staffRow(staffID, userID))
	suite.mock.ExpectBegin()
	suite.mock.ExpectExec(`UPDATE staff`).
		WithArgs("pharmacist", "Dev", "Nair", "taken@example.com", "555-0104",
			pgxmock.AnyArg(), suite.orgID, staffID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectExec(`UPDATE users`).
		WithArgs("taken@example.com", "Dev", "Nair", "pharmacist", userID).
		WillReturnError(dup)
	suite.mock.ExpectRollback()

	staff, err := suite.svc.Update(suite.context, suite.orgID, "dev-abc123", UpdateStaffInput{
		Role:      scope.RolePharmacist,
		FirstName: "Dev",
		LastName:  "Nair",
		Email:     "taken@example.com",
		Phone:     "555-0104",
	})
	assert.ErrorIs(suite.T(), err, ErrEmailExists)
	assert.Nil(suite.T(), staff)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.cache.AssertNotCalled(suite.T(), "DeleteIdentity", mock.Anything, mock.Anything)
}
