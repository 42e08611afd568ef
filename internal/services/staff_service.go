package services

import (
	"context"
	"errors"
	"fmt"

	"pharmatrack/internal/caching"
	"pharmatrack/internal/models"
	"pharmatrack/internal/repositories"
	"pharmatrack/internal/scope"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	"github.com/labstack/gommon/random"
	"golang.org/x/crypto/bcrypt"
)

// invitePasswordLength sizes the generated one-time password mailed to a
// newly invited staff member.
const invitePasswordLength = 100

var ErrInvalidStaffRole = errors.New("role must be agent, pharmacist or management")

type InviteStaffInput struct {
	Role      scope.Role
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

type UpdateStaffInput struct {
	Role      scope.Role
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// StaffService manages staff records and the user accounts behind them.
// Invite creates both rows in one transaction; a failure anywhere leaves
// zero rows behind.
type StaffService interface {
	Invite(ctx context.Context, orgID uuid.UUID, orgName string, input InviteStaffInput) (*models.Staff, error)
	GetBySlug(ctx context.Context, orgID uuid.UUID, slug string) (*models.Staff, error)
	Update(ctx context.Context, orgID uuid.UUID, slug string, input UpdateStaffInput) (*models.Staff, error)
	Delete(ctx context.Context, orgID uuid.UUID, slug string) error
	List(ctx context.Context, orgID uuid.UUID, search string, limit, offset int) ([]*models.Staff, error)
	Count(ctx context.Context, orgID uuid.UUID, search string) (int, error)
}

type staffService struct {
	pool      Pool
	staffRepo repositories.StaffRepository
	cacheSvc  caching.CacheService
	notifier  Notifier
}

func NewStaffService(pool Pool, staffRepo repositories.StaffRepository, cacheSvc caching.CacheService, notifier Notifier) StaffService {
	return &staffService{pool: pool, staffRepo: staffRepo, cacheSvc: cacheSvc, notifier: notifier}
}

func (s *staffService) Invite(ctx context.Context, orgID uuid.UUID, orgName string, input InviteStaffInput) (*models.Staff, error) {
	if !input.Role.StaffRole() {
		return nil, ErrInvalidStaffRole
	}

	password := random.String(invitePasswordLength, random.Alphanumeric)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        input.Email,
		PasswordHash: string(hash),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Role:         string(input.Role),
	}
	staff := &models.Staff{
		ID:             uuid.New(),
		OrganizationID: orgID,
		UserID:         user.ID,
		Role:           string(input.Role),
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		Email:          input.Email,
		Phone:          input.Phone,
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	txUsers := repositories.NewUserRepo(tx)
	txStaff := repositories.NewStaffRepo(tx)

	if err := txUsers.Create(ctx, user); err != nil {
		if repositories.IsUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if err := txStaff.Create(ctx, staff); err != nil {
		return nil, fmt.Errorf("failed to create staff: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit invite: %w", err)
	}

	// Delivery failures do not undo the invite.
	go func() {
		body, err := OnboardingEmail(input.FirstName, orgName, input.Email, password)
		if err != nil {
			log.Errorf("failed to render onboarding email for %s: %v", input.Email, err)
			return
		}
		if err := s.notifier.SendEmail(context.Background(), input.Email, "Welcome to "+orgName, body); err != nil {
			log.Errorf("failed to send onboarding email to %s: %v", input.Email, err)
		}
	}()

	return staff, nil
}

func (s *staffService) GetBySlug(ctx context.Context, orgID uuid.UUID, slug string) (*models.Staff, error) {
	return s.staffRepo.GetBySlug(ctx, orgID, slug)
}

// Update rewrites the staff row and the user account behind it in one
// transaction. Login reads users.email and the auth middleware reads
// users.role, so a role or email change must reach both tables or neither.
func (s *staffService) Update(ctx context.Context, orgID uuid.UUID, slug string, input UpdateStaffInput) (*models.Staff, error) {
	if !input.Role.StaffRole() {
		return nil, ErrInvalidStaffRole
	}

	staff, err := s.staffRepo.GetBySlug(ctx, orgID, slug)
	if err != nil {
		return nil, err
	}

	staff.Role = string(input.Role)
	staff.FirstName = input.FirstName
	staff.LastName = input.LastName
	staff.Email = input.Email
	staff.Phone = input.Phone

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := repositories.NewStaffRepo(tx).Update(ctx, staff); err != nil {
		return nil, err
	}
	account := &models.User{
		ID:        staff.UserID,
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Role:      string(input.Role),
	}
	if err := repositories.NewUserRepo(tx).Update(ctx, account); err != nil {
		if repositories.IsUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to update user account: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit update: %w", err)
	}

	// The cached identity carries the old role until invalidated.
	if err := s.cacheSvc.DeleteIdentity(ctx, staff.UserID); err != nil {
		log.Warnf("failed to invalidate identity cache for %s: %v", staff.UserID, err)
	}
	return staff, nil
}

// Delete removes the staff record and the user account behind it. Rows
// assigned to the staff member are unassigned by the schema, not deleted.
func (s *staffService) Delete(ctx context.Context, orgID uuid.UUID, slug string) error {
	staff, err := s.staffRepo.GetBySlug(ctx, orgID, slug)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := repositories.NewStaffRepo(tx).Delete(ctx, orgID, slug); err != nil {
		return err
	}
	if err := repositories.NewUserRepo(tx).Delete(ctx, staff.UserID); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}

	if err := s.cacheSvc.DeleteIdentity(ctx, staff.UserID); err != nil {
		log.Warnf("failed to invalidate identity cache for %s: %v", staff.UserID, err)
	}
	return nil
}

func (s *staffService) List(ctx context.Context, orgID uuid.UUID, search string, limit, offset int) ([]*models.Staff, error) {
	return s.staffRepo.List(ctx, orgID, search, limit, offset)
}

func (s *staffService) Count(ctx context.Context, orgID uuid.UUID, search string) (int, error) {
	return s.staffRepo.Count(ctx, orgID, search)
}
