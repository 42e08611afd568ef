package repositories

import (
	"context"
	"fmt"

	"pharmatrack/internal/models"
	"pharmatrack/internal/scope"
	"pharmatrack/internal/slugid"

	"github.com/jackc/pgx/v5"
)

type LeadRepository interface {
	Create(ctx context.Context, lead *models.Lead) error
	GetBySlug(ctx context.Context, sc scope.Scope, slug string) (*models.Lead, error)
	Update(ctx context.Context, sc scope.Scope, lead *models.Lead) error
	Delete(ctx context.Context, sc scope.Scope, slug string) error
	Count(ctx context.Context, sc scope.Scope, search string) (int, error)
	List(ctx context.Context, sc scope.Scope, search string, limit, offset int) ([]*models.Lead, error)
}

type leadRepo struct {
	db Database
}

func NewLeadRepo(db Database) LeadRepository {
	return &leadRepo{db: db}
}

const leadColumns = "id, organization_id, assigned_staff_id, category_id, first_name, last_name, email, phone, city, notes, slug, created_at, updated_at"

var leadSearchFields = []string{"first_name", "last_name", "email", "city"}

func (r *leadRepo) Create(ctx context.Context, lead *models.Lead) error {
	query := `
		INSERT INTO leads (id, organization_id, assigned_staff_id, category_id, first_name, last_name, email, phone, city, notes, slug, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
	`
	var err error
	for attempt := 0; attempt < slugAttempts; attempt++ {
		lead.Slug = slugid.New(lead.FirstName)
		_, err = r.db.Exec(ctx, query, lead.ID, lead.OrganizationID, lead.AssignedStaffID, lead.CategoryID,
			lead.FirstName, lead.LastName, lead.Email, lead.Phone, lead.City, lead.Notes, lead.Slug)
		if err == nil || !IsUniqueViolation(err) {
			return err
		}
	}
	return err
}

func (r *leadRepo) GetBySlug(ctx context.Context, sc scope.Scope, slug string) (*models.Lead, error) {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`SELECT %s FROM leads WHERE %s AND slug = $%d`, leadColumns, clause, len(args)+1)
	args = append(args, slug)

	lead := &models.Lead{}
	err := r.db.QueryRow(ctx, query, args...).Scan(&lead.ID, &lead.OrganizationID, &lead.AssignedStaffID,
		&lead.CategoryID, &lead.FirstName, &lead.LastName, &lead.Email, &lead.Phone, &lead.City,
		&lead.Notes, &lead.Slug, &lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return lead, nil
}

func (r *leadRepo) Update(ctx context.Context, sc scope.Scope, lead *models.Lead) error {
	// Slug is regenerated on every save; the caller sees the new one on lead.
	lead.Slug = slugid.New(lead.FirstName)
	clause, scopeArgs := scopeClauseAt(sc, 11)
	query := fmt.Sprintf(`
		UPDATE leads
		SET assigned_staff_id = $1, category_id = $2, first_name = $3, last_name = $4, email = $5,
		    phone = $6, city = $7, notes = $8, slug = $9, updated_at = NOW()
		WHERE id = $10 AND %s
	`, clause)
	args := append([]interface{}{lead.AssignedStaffID, lead.CategoryID, lead.FirstName, lead.LastName,
		lead.Email, lead.Phone, lead.City, lead.Notes, lead.Slug, lead.ID}, scopeArgs...)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *leadRepo) Delete(ctx context.Context, sc scope.Scope, slug string) error {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`DELETE FROM leads WHERE %s AND slug = $%d`, clause, len(args)+1)
	args = append(args, slug)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *leadRepo) Count(ctx context.Context, sc scope.Scope, search string) (int, error) {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM leads WHERE %s`, clause)
	if search != "" {
		query += ` AND ` + searchClause(leadSearchFields, len(args)+1)
		args = append(args, "%"+search+"%")
	}

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *leadRepo) List(ctx context.Context, sc scope.Scope, search string, limit, offset int) ([]*models.Lead, error) {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`SELECT %s FROM leads WHERE %s`, leadColumns, clause)
	if search != "" {
		query += ` AND ` + searchClause(leadSearchFields, len(args)+1)
		args = append(args, "%"+search+"%")
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []*models.Lead
	for rows.Next() {
		lead := &models.Lead{}
		if err := rows.Scan(&lead.ID, &lead.OrganizationID, &lead.AssignedStaffID, &lead.CategoryID,
			&lead.FirstName, &lead.LastName, &lead.Email, &lead.Phone, &lead.City, &lead.Notes,
			&lead.Slug, &lead.CreatedAt, &lead.UpdatedAt); err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}
