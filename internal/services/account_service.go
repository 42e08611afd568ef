package services

import (
	"context"
	"errors"
	"fmt"

	"pharmatrack/internal/models"
	"pharmatrack/internal/repositories"
	"pharmatrack/internal/scope"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrEmailExists is returned when a signup or invite collides with an
	// existing user account.
	ErrEmailExists = errors.New("email already exists")

	// ErrInvalidCredentials covers both unknown email and wrong password so
	// the two cases are indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Pool is the transactional slice of pgxpool the services need. pgxmock
// pools satisfy it too.
type Pool interface {
	repositories.Database
	Begin(ctx context.Context) (pgx.Tx, error)
}

type SignupInput struct {
	Email            string
	Password         string
	FirstName        string
	LastName         string
	OrganizationName string
}

// AccountService owns the user/organization lifecycle: signup creates both
// rows in one transaction so an organizer account can never exist without
// its organization.
type AccountService interface {
	Signup(ctx context.Context, input SignupInput) (*models.User, *models.Organization, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
}

type accountService struct {
	pool     Pool
	userRepo repositories.UserRepository
	orgRepo  repositories.OrganizationRepository
}

func NewAccountService(pool Pool, userRepo repositories.UserRepository, orgRepo repositories.OrganizationRepository) AccountService {
	return &accountService{pool: pool, userRepo: userRepo, orgRepo: orgRepo}
}

func (s *accountService) Signup(ctx context.Context, input SignupInput) (*models.User, *models.Organization, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        input.Email,
		PasswordHash: string(hash),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Role:         string(scope.RoleOrganizer),
	}
	org := &models.Organization{
		ID:          uuid.New(),
		OwnerUserID: user.ID,
		Name:        input.OrganizationName,
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	txUsers := repositories.NewUserRepo(tx)
	txOrgs := repositories.NewOrganizationRepo(tx)

	if err := txUsers.Create(ctx, user); err != nil {
		if repositories.IsUniqueViolation(err) {
			return nil, nil, ErrEmailExists
		}
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}
	if err := txOrgs.Create(ctx, org); err != nil {
		return nil, nil, fmt.Errorf("failed to create organization: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit signup: %w", err)
	}
	return user, org, nil
}

func (s *accountService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
