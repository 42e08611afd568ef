package repositories

import (
	"context"
	"fmt"

	"pharmatrack/internal/models"
	"pharmatrack/internal/slugid"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Categories carry no staff assignment; they are organizer-managed grouping
// labels, so methods are keyed by organization id.
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetBySlug(ctx context.Context, orgID uuid.UUID, slug string) (*models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, orgID uuid.UUID, slug string) error
	Count(ctx context.Context, orgID uuid.UUID, search string) (int, error)
	List(ctx context.Context, orgID uuid.UUID, search string, limit, offset int) ([]*models.Category, error)
}

type categoryRepo struct {
	db Database
}

func NewCategoryRepo(db Database) CategoryRepository {
	return &categoryRepo{db: db}
}

func (r *categoryRepo) Create(ctx context.Context, category *models.Category) error {
	query := `
		INSERT INTO categories (id, organization_id, name, slug, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`
	var err error
	for attempt := 0; attempt < slugAttempts; attempt++ {
		category.Slug = slugid.New(category.Name)
		_, err = r.db.Exec(ctx, query, category.ID, category.OrganizationID, category.Name, category.Slug)
		if err == nil || !IsUniqueViolation(err) {
			return err
		}
	}
	return err
}

func (r *categoryRepo) GetBySlug(ctx context.Context, orgID uuid.UUID, slug string) (*models.Category, error) {
	category := &models.Category{}
	query := `
		SELECT id, organization_id, name, slug, created_at, updated_at
		FROM categories
		WHERE organization_id = $1 AND slug = $2
	`
	err := r.db.QueryRow(ctx, query, orgID, slug).Scan(&category.ID, &category.OrganizationID,
		&category.Name, &category.Slug, &category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return category, nil
}

func (r *categoryRepo) Update(ctx context.Context, category *models.Category) error {
	category.Slug = slugid.New(category.Name)
	query := `
		UPDATE categories
		SET name = $1, slug = $2, updated_at = NOW()
		WHERE organization_id = $3 AND id = $4
	`
	tag, err := r.db.Exec(ctx, query, category.Name, category.Slug, category.OrganizationID, category.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *categoryRepo) Delete(ctx context.Context, orgID uuid.UUID, slug string) error {
	query := `DELETE FROM categories WHERE organization_id = $1 AND slug = $2`
	tag, err := r.db.Exec(ctx, query, orgID, slug)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *categoryRepo) Count(ctx context.Context, orgID uuid.UUID, search string) (int, error) {
	query := `SELECT COUNT(*) FROM categories WHERE organization_id = $1`
	args := []interface{}{orgID}
	if search != "" {
		query += ` AND ` + searchClause([]string{"name"}, 2)
		args = append(args, "%"+search+"%")
	}

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *categoryRepo) List(ctx context.Context, orgID uuid.UUID, search string, limit, offset int) ([]*models.Category, error) {
	query := `
		SELECT id, organization_id, name, slug, created_at, updated_at
		FROM categories
		WHERE organization_id = $1
	`
	args := []interface{}{orgID}
	if search != "" {
		query += ` AND ` + searchClause([]string{"name"}, 2)
		args = append(args, "%"+search+"%")
	}
	query += fmt.Sprintf(` ORDER BY created_at ASC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		category := &models.Category{}
		if err := rows.Scan(&category.ID, &category.OrganizationID, &category.Name, &category.Slug,
			&category.CreatedAt, &category.UpdatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}
