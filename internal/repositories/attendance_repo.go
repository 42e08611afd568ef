package repositories

import (
	"context"
	"fmt"

	"pharmatrack/internal/models"
	"pharmatrack/internal/scope"
	"pharmatrack/internal/slugid"

	"github.com/jackc/pgx/v5"
)

type AttendanceRepository interface {
	Create(ctx context.Context, att *models.Attendance) error
	GetBySlug(ctx context.Context, sc scope.Scope, slug string) (*models.Attendance, error)
	Update(ctx context.Context, sc scope.Scope, att *models.Attendance) error
	Delete(ctx context.Context, sc scope.Scope, slug string) error
	Count(ctx context.Context, sc scope.Scope, search string) (int, error)
	List(ctx context.Context, sc scope.Scope, search string, limit, offset int) ([]*models.Attendance, error)
}

type attendanceRepo struct {
	db Database
}

func NewAttendanceRepo(db Database) AttendanceRepository {
	return &attendanceRepo{db: db}
}

const attendanceColumns = "id, organization_id, assigned_staff_id, date, check_in, check_out, reference, slug, created_at, updated_at"

func (r *attendanceRepo) Create(ctx context.Context, att *models.Attendance) error {
	if att.Reference == "" {
		att.Reference = slugid.Code()
	}
	query := `
		INSERT INTO attendances (id, organization_id, assigned_staff_id, date, check_in, check_out, reference, slug, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`
	var err error
	for attempt := 0; attempt < slugAttempts; attempt++ {
		att.Slug = slugid.New(att.Date.Format("2006-01-02"))
		_, err = r.db.Exec(ctx, query, att.ID, att.OrganizationID, att.AssignedStaffID, att.Date,
			att.CheckIn, att.CheckOut, att.Reference, att.Slug)
		if err == nil || !IsUniqueViolation(err) {
			return err
		}
	}
	return err
}

func (r *attendanceRepo) GetBySlug(ctx context.Context, sc scope.Scope, slug string) (*models.Attendance, error) {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`SELECT %s FROM attendances WHERE %s AND slug = $%d`,
		attendanceColumns, clause, len(args)+1)
	args = append(args, slug)

	att := &models.Attendance{}
	err := r.db.QueryRow(ctx, query, args...).Scan(&att.ID, &att.OrganizationID, &att.AssignedStaffID,
		&att.Date, &att.CheckIn, &att.CheckOut, &att.Reference, &att.Slug, &att.CreatedAt, &att.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return att, nil
}

func (r *attendanceRepo) Update(ctx context.Context, sc scope.Scope, att *models.Attendance) error {
	att.Slug = slugid.New(att.Date.Format("2006-01-02"))
	clause, scopeArgs := scopeClauseAt(sc, 7)
	query := fmt.Sprintf(`
		UPDATE attendances
		SET assigned_staff_id = $1, date = $2, check_in = $3, check_out = $4, slug = $5, updated_at = NOW()
		WHERE id = $6 AND %s
	`, clause)
	args := append([]interface{}{att.AssignedStaffID, att.Date, att.CheckIn, att.CheckOut, att.Slug,
		att.ID}, scopeArgs...)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *attendanceRepo) Delete(ctx context.Context, sc scope.Scope, slug string) error {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`DELETE FROM attendances WHERE %s AND slug = $%d`, clause, len(args)+1)
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

func (r *attendanceRepo) Count(ctx context.Context, sc scope.Scope, search string) (int, error) {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM attendances WHERE %s`, clause)
	if search != "" {
		query += ` AND ` + searchClause([]string{"reference"}, len(args)+1)
		args = append(args, "%"+search+"%")
	}

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *attendanceRepo) List(ctx context.Context, sc scope.Scope, search string, limit, offset int) ([]*models.Attendance, error) {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`SELECT %s FROM attendances WHERE %s`, attendanceColumns, clause)
	if search != "" {
		query += ` AND ` + searchClause([]string{"reference"}, len(args)+1)
		args = append(args, "%"+search+"%")
	}
	query += fmt.Sprintf(` ORDER BY date DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Attendance
	for rows.Next() {
		att := &models.Attendance{}
		if err := rows.Scan(&att.ID, &att.OrganizationID, &att.AssignedStaffID, &att.Date, &att.CheckIn,
			&att.CheckOut, &att.Reference, &att.Slug, &att.CreatedAt, &att.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, att)
	}
	return out, rows.Err()
}
