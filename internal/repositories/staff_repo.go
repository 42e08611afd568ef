package repositories

import (
	"context"
	"fmt"

	"pharmatrack/internal/models"
	"pharmatrack/internal/slugid"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Staff rows are only ever managed by the organizer, so these methods are
// keyed by organization id rather than a full scope.
type StaffRepository interface {
	Create(ctx context.Context, staff *models.Staff) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Staff, error)
	GetBySlug(ctx context.Context, orgID uuid.UUID, slug string) (*models.Staff, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Staff, error)
	Update(ctx context.Context, staff *models.Staff) error
	Delete(ctx context.Context, orgID uuid.UUID, slug string) error
	Count(ctx context.Context, orgID uuid.UUID, search string) (int, error)
	List(ctx context.Context, orgID uuid.UUID, search string, limit, offset int) ([]*models.Staff, error)
}

type staffRepo struct {
	db Database
}

func NewStaffRepo(db Database) StaffRepository {
	return &staffRepo{db: db}
}

const staffColumns = "id, organization_id, user_id, role, first_name, last_name, email, phone, slug, created_at, updated_at"

func scanStaff(row pgx.Row) (*models.Staff, error) {
	s := &models.Staff{}
	err := row.Scan(&s.ID, &s.OrganizationID, &s.UserID, &s.Role, &s.FirstName, &s.LastName,
		&s.Email, &s.Phone, &s.Slug, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *staffRepo) Create(ctx context.Context, staff *models.Staff) error {
	query := `
		INSERT INTO staff (id, organization_id, user_id, role, first_name, last_name, email, phone, slug, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`
	var err error
	for attempt := 0; attempt < slugAttempts; attempt++ {
		staff.Slug = slugid.New(staff.FirstName)
		_, err = r.db.Exec(ctx, query, staff.ID, staff.OrganizationID, staff.UserID, staff.Role,
			staff.FirstName, staff.LastName, staff.Email, staff.Phone, staff.Slug)
		if err == nil || !IsUniqueViolation(err) {
			return err
		}
	}
	return err
}

func (r *staffRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Staff, error) {
	query := fmt.Sprintf(`SELECT %s FROM staff WHERE organization_id = $1 AND id = $2`, staffColumns)
	return scanStaff(r.db.QueryRow(ctx, query, orgID, id))
}

func (r *staffRepo) GetBySlug(ctx context.Context, orgID uuid.UUID, slug string) (*models.Staff, error) {
	query := fmt.Sprintf(`SELECT %s FROM staff WHERE organization_id = $1 AND slug = $2`, staffColumns)
	return scanStaff(r.db.QueryRow(ctx, query, orgID, slug))
}

func (r *staffRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Staff, error) {
	query := fmt.Sprintf(`SELECT %s FROM staff WHERE user_id = $1`, staffColumns)
	return scanStaff(r.db.QueryRow(ctx, query, userID))
}

func (r *staffRepo) Update(ctx context.Context, staff *models.Staff) error {
	// The slug is regenerated on every save; callers must re-read it.
	staff.Slug = slugid.New(staff.FirstName)
	query := `
		UPDATE staff
		SET role = $1, first_name = $2, last_name = $3, email = $4, phone = $5, slug = $6, updated_at = NOW()
		WHERE organization_id = $7 AND id = $8
	`
	tag, err := r.db.Exec(ctx, query, staff.Role, staff.FirstName, staff.LastName, staff.Email,
		staff.Phone, staff.Slug, staff.OrganizationID, staff.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *staffRepo) Delete(ctx context.Context, orgID uuid.UUID, slug string) error {
	query := `DELETE FROM staff WHERE organization_id = $1 AND slug = $2`
	tag, err := r.db.Exec(ctx, query, orgID, slug)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *staffRepo) Count(ctx context.Context, orgID uuid.UUID, search string) (int, error) {
	query := `SELECT COUNT(*) FROM staff WHERE organization_id = $1`
	args := []interface{}{orgID}
	if search != "" {
		query += ` AND ` + searchClause([]string{"first_name", "last_name", "email"}, 2)
		args = append(args, "%"+search+"%")
	}

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *staffRepo) List(ctx context.Context, orgID uuid.UUID, search string, limit, offset int) ([]*models.Staff, error) {
	query := fmt.Sprintf(`SELECT %s FROM staff WHERE organization_id = $1`, staffColumns)
	args := []interface{}{orgID}
	if search != "" {
		query += ` AND ` + searchClause([]string{"first_name", "last_name", "email"}, 2)
		args = append(args, "%"+search+"%")
	}
	query += fmt.Sprintf(` ORDER BY created_at ASC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Staff
	for rows.Next() {
		s := &models.Staff{}
		if err := rows.Scan(&s.ID, &s.OrganizationID, &s.UserID, &s.Role, &s.FirstName, &s.LastName,
			&s.Email, &s.Phone, &s.Slug, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
