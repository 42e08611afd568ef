package repositories

import (
	"context"

	"pharmatrack/internal/models"
	"pharmatrack/internal/slugid"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type OrganizationRepository interface {
	Create(ctx context.Context, org *models.Organization) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	GetByOwner(ctx context.Context, ownerUserID uuid.UUID) (*models.Organization, error)
	Update(ctx context.Context, org *models.Organization) error
	List(ctx context.Context, limit, offset int) ([]*models.Organization, error)
}

type organizationRepo struct {
	db Database
}

func NewOrganizationRepo(db Database) OrganizationRepository {
	return &organizationRepo{db: db}
}

func (r *organizationRepo) Create(ctx context.Context, org *models.Organization) error {
	query := `
		INSERT INTO organizations (id, owner_user_id, name, slug, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`
	var err error
	for attempt := 0; attempt < slugAttempts; attempt++ {
		org.Slug = slugid.New(org.Name)
		_, err = r.db.Exec(ctx, query, org.ID, org.OwnerUserID, org.Name, org.Slug)
		if err == nil || !IsUniqueViolation(err) {
			return err
		}
	}
	return err
}

func (r *organizationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	org := &models.Organization{}
	query := `
		SELECT id, owner_user_id, name, slug, created_at, updated_at
		FROM organizations
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&org.ID, &org.OwnerUserID, &org.Name, &org.Slug,
		&org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return org, nil
}

func (r *organizationRepo) GetByOwner(ctx context.Context, ownerUserID uuid.UUID) (*models.Organization, error) {
	org := &models.Organization{}
	query := `
		SELECT id, owner_user_id, name, slug, created_at, updated_at
		FROM organizations
		WHERE owner_user_id = $1
	`
	err := r.db.QueryRow(ctx, query, ownerUserID).Scan(&org.ID, &org.OwnerUserID, &org.Name, &org.Slug,
		&org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return org, nil
}

func (r *organizationRepo) Update(ctx context.Context, org *models.Organization) error {
	org.Slug = slugid.New(org.Name)
	query := `
		UPDATE organizations
		SET name = $1, slug = $2, updated_at = NOW()
		WHERE id = $3
	`
	tag, err := r.db.Exec(ctx, query, org.Name, org.Slug, org.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// List walks all organizations; used by background jobs, never by request
// handlers.
func (r *organizationRepo) List(ctx context.Context, limit, offset int) ([]*models.Organization, error) {
	query := `
		SELECT id, owner_user_id, name, slug, created_at, updated_at
		FROM organizations
		ORDER BY created_at ASC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []*models.Organization
	for rows.Next() {
		org := &models.Organization{}
		if err := rows.Scan(&org.ID, &org.OwnerUserID, &org.Name, &org.Slug,
			&org.CreatedAt, &org.UpdatedAt); err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}
