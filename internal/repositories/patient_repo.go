package repositories

import (
	"context"
	"fmt"

	"pharmatrack/internal/models"
	"pharmatrack/internal/scope"
	"pharmatrack/internal/slugid"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PatientRepository interface {
	Create(ctx context.Context, patient *models.Patient) error
	GetBySlug(ctx context.Context, sc scope.Scope, slug string) (*models.Patient, error)
	GetByID(ctx context.Context, sc scope.Scope, id uuid.UUID) (*models.Patient, error)
	Update(ctx context.Context, sc scope.Scope, patient *models.Patient) error
	Delete(ctx context.Context, sc scope.Scope, slug string) error
	Count(ctx context.Context, sc scope.Scope, search string) (int, error)
	List(ctx context.Context, sc scope.Scope, search string, limit, offset int) ([]*models.Patient, error)
}

type patientRepo struct {
	db Database
}

func NewPatientRepo(db Database) PatientRepository {
	return &patientRepo{db: db}
}

const patientColumns = "id, organization_id, assigned_staff_id, lead_id, first_name, last_name, email, phone, unique_code, slug, created_at, updated_at"

var patientSearchFields = []string{"first_name", "last_name", "email"}

func scanPatient(row pgx.Row) (*models.Patient, error) {
	p := &models.Patient{}
	err := row.Scan(&p.ID, &p.OrganizationID, &p.AssignedStaffID, &p.LeadID, &p.FirstName, &p.LastName,
		&p.Email, &p.Phone, &p.UniqueCode, &p.Slug, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *patientRepo) Create(ctx context.Context, patient *models.Patient) error {
	// The unique code is minted once; the slug is fresh on every attempt.
	if patient.UniqueCode == "" {
		patient.UniqueCode = slugid.Code()
	}
	query := `
		INSERT INTO patients (id, organization_id, assigned_staff_id, lead_id, first_name, last_name, email, phone, unique_code, slug, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
	`
	var err error
	for attempt := 0; attempt < slugAttempts; attempt++ {
		patient.Slug = slugid.New(patient.FirstName)
		_, err = r.db.Exec(ctx, query, patient.ID, patient.OrganizationID, patient.AssignedStaffID,
			patient.LeadID, patient.FirstName, patient.LastName, patient.Email, patient.Phone,
			patient.UniqueCode, patient.Slug)
		if err == nil || !IsUniqueViolation(err) {
			return err
		}
	}
	return err
}

func (r *patientRepo) GetBySlug(ctx context.Context, sc scope.Scope, slug string) (*models.Patient, error) {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`SELECT %s FROM patients WHERE %s AND slug = $%d`, patientColumns, clause, len(args)+1)
	args = append(args, slug)
	return scanPatient(r.db.QueryRow(ctx, query, args...))
}

func (r *patientRepo) GetByID(ctx context.Context, sc scope.Scope, id uuid.UUID) (*models.Patient, error) {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`SELECT %s FROM patients WHERE %s AND id = $%d`, patientColumns, clause, len(args)+1)
	args = append(args, id)
	return scanPatient(r.db.QueryRow(ctx, query, args...))
}

func (r *patientRepo) Update(ctx context.Context, sc scope.Scope, patient *models.Patient) error {
	patient.Slug = slugid.New(patient.FirstName)
	clause, scopeArgs := scopeClauseAt(sc, 9)
	query := fmt.Sprintf(`
		UPDATE patients
		SET assigned_staff_id = $1, first_name = $2, last_name = $3, email = $4, phone = $5,
		    unique_code = $6, slug = $7, updated_at = NOW()
		WHERE id = $8 AND %s
	`, clause)
	args := append([]interface{}{patient.AssignedStaffID, patient.FirstName, patient.LastName,
		patient.Email, patient.Phone, patient.UniqueCode, patient.Slug, patient.ID}, scopeArgs...)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *patientRepo) Delete(ctx context.Context, sc scope.Scope, slug string) error {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`DELETE FROM patients WHERE %s AND slug = $%d`, clause, len(args)+1)
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

func (r *patientRepo) Count(ctx context.Context, sc scope.Scope, search string) (int, error) {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM patients WHERE %s`, clause)
	if search != "" {
		query += ` AND ` + searchClause(patientSearchFields, len(args)+1)
		args = append(args, "%"+search+"%")
	}

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *patientRepo) List(ctx context.Context, sc scope.Scope, search string, limit, offset int) ([]*models.Patient, error) {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`SELECT %s FROM patients WHERE %s`, patientColumns, clause)
	if search != "" {
		query += ` AND ` + searchClause(patientSearchFields, len(args)+1)
		args = append(args, "%"+search+"%")
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patients []*models.Patient
	for rows.Next() {
		p := &models.Patient{}
		if err := rows.Scan(&p.ID, &p.OrganizationID, &p.AssignedStaffID, &p.LeadID, &p.FirstName,
			&p.LastName, &p.Email, &p.Phone, &p.UniqueCode, &p.Slug, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}
