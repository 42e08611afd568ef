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

type PatientDetailRepository interface {
	Create(ctx context.Context, detail *models.PatientDetail) error
	GetByPatient(ctx context.Context, sc scope.Scope, patientID uuid.UUID) (*models.PatientDetail, error)
	Update(ctx context.Context, sc scope.Scope, detail *models.PatientDetail) error
	Delete(ctx context.Context, sc scope.Scope, patientID uuid.UUID) error
}

type patientDetailRepo struct {
	db Database
}

func NewPatientDetailRepo(db Database) PatientDetailRepository {
	return &patientDetailRepo{db: db}
}

const patientDetailColumns = "id, organization_id, assigned_staff_id, patient_id, date_of_birth, gender, weight_kg, height_cm, allergies, past_medical_history, slug, created_at, updated_at"

func (r *patientDetailRepo) Create(ctx context.Context, detail *models.PatientDetail) error {
	query := `
		INSERT INTO patient_details (id, organization_id, assigned_staff_id, patient_id, date_of_birth, gender, weight_kg, height_cm, allergies, past_medical_history, slug, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
	`
	var err error
	for attempt := 0; attempt < slugAttempts; attempt++ {
		detail.Slug = slugid.New("detail")
		_, err = r.db.Exec(ctx, query, detail.ID, detail.OrganizationID, detail.AssignedStaffID,
			detail.PatientID, detail.DateOfBirth, detail.Gender, detail.WeightKg, detail.HeightCm,
			detail.Allergies, detail.PastMedicalHistory, detail.Slug)
		if err == nil || !IsUniqueViolation(err) {
			return err
		}
	}
	return err
}

func (r *patientDetailRepo) GetByPatient(ctx context.Context, sc scope.Scope, patientID uuid.UUID) (*models.PatientDetail, error) {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`SELECT %s FROM patient_details WHERE %s AND patient_id = $%d`,
		patientDetailColumns, clause, len(args)+1)
	args = append(args, patientID)

	d := &models.PatientDetail{}
	err := r.db.QueryRow(ctx, query, args...).Scan(&d.ID, &d.OrganizationID, &d.AssignedStaffID,
		&d.PatientID, &d.DateOfBirth, &d.Gender, &d.WeightKg, &d.HeightCm, &d.Allergies,
		&d.PastMedicalHistory, &d.Slug, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *patientDetailRepo) Update(ctx context.Context, sc scope.Scope, detail *models.PatientDetail) error {
	detail.Slug = slugid.New("detail")
	clause, scopeArgs := scopeClauseAt(sc, 10)
	query := fmt.Sprintf(`
		UPDATE patient_details
		SET assigned_staff_id = $1, date_of_birth = $2, gender = $3, weight_kg = $4, height_cm = $5,
		    allergies = $6, past_medical_history = $7, slug = $8, updated_at = NOW()
		WHERE patient_id = $9 AND %s
	`, clause)
	args := append([]interface{}{detail.AssignedStaffID, detail.DateOfBirth, detail.Gender,
		detail.WeightKg, detail.HeightCm, detail.Allergies, detail.PastMedicalHistory, detail.Slug,
		detail.PatientID}, scopeArgs...)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *patientDetailRepo) Delete(ctx context.Context, sc scope.Scope, patientID uuid.UUID) error {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`DELETE FROM patient_details WHERE %s AND patient_id = $%d`, clause, len(args)+1)
	args = append(args, patientID)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
