package repositories

import (
	"context"
	"fmt"

	"pharmatrack/internal/models"
	"pharmatrack/internal/scope"
	"pharmatrack/internal/slugid"

	"github.com/jackc/pgx/v5"
)

type MedicationHistoryRepository interface {
	Create(ctx context.Context, rec *models.MedicationHistory) error
	GetBySlug(ctx context.Context, sc scope.Scope, slug string) (*models.MedicationHistory, error)
	Update(ctx context.Context, sc scope.Scope, rec *models.MedicationHistory) error
	Delete(ctx context.Context, sc scope.Scope, slug string) error
	Count(ctx context.Context, sc scope.Scope, search string) (int, error)
	List(ctx context.Context, sc scope.Scope, search string, limit, offset int) ([]*models.MedicationHistory, error)
}

type medicationHistoryRepo struct {
	db Database
}

func NewMedicationHistoryRepo(db Database) MedicationHistoryRepository {
	return &medicationHistoryRepo{db: db}
}

const medicationHistoryColumns = "id, organization_id, assigned_staff_id, patient_id, drug_name, dose, frequency, route, indication, start_date, slug, created_at, updated_at"

func (r *medicationHistoryRepo) Create(ctx context.Context, rec *models.MedicationHistory) error {
	query := `
		INSERT INTO medication_histories (id, organization_id, assigned_staff_id, patient_id, drug_name, dose, frequency, route, indication, start_date, slug, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
	`
	var err error
	for attempt := 0; attempt < slugAttempts; attempt++ {
		rec.Slug = slugid.New(rec.DrugName)
		_, err = r.db.Exec(ctx, query, rec.ID, rec.OrganizationID, rec.AssignedStaffID, rec.PatientID,
			rec.DrugName, rec.Dose, rec.Frequency, rec.Route, rec.Indication, rec.StartDate, rec.Slug)
		if err == nil || !IsUniqueViolation(err) {
			return err
		}
	}
	return err
}

func (r *medicationHistoryRepo) GetBySlug(ctx context.Context, sc scope.Scope, slug string) (*models.MedicationHistory, error) {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`SELECT %s FROM medication_histories WHERE %s AND slug = $%d`,
		medicationHistoryColumns, clause, len(args)+1)
	args = append(args, slug)

	rec := &models.MedicationHistory{}
	err := r.db.QueryRow(ctx, query, args...).Scan(&rec.ID, &rec.OrganizationID, &rec.AssignedStaffID,
		&rec.PatientID, &rec.DrugName, &rec.Dose, &rec.Frequency, &rec.Route, &rec.Indication,
		&rec.StartDate, &rec.Slug, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *medicationHistoryRepo) Update(ctx context.Context, sc scope.Scope, rec *models.MedicationHistory) error {
	rec.Slug = slugid.New(rec.DrugName)
	clause, scopeArgs := scopeClauseAt(sc, 10)
	query := fmt.Sprintf(`
		UPDATE medication_histories
		SET assigned_staff_id = $1, drug_name = $2, dose = $3, frequency = $4, route = $5,
		    indication = $6, start_date = $7, slug = $8, updated_at = NOW()
		WHERE id = $9 AND %s
	`, clause)
	args := append([]interface{}{rec.AssignedStaffID, rec.DrugName, rec.Dose, rec.Frequency, rec.Route,
		rec.Indication, rec.StartDate, rec.Slug, rec.ID}, scopeArgs...)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *medicationHistoryRepo) Delete(ctx context.Context, sc scope.Scope, slug string) error {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`DELETE FROM medication_histories WHERE %s AND slug = $%d`, clause, len(args)+1)
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

func (r *medicationHistoryRepo) Count(ctx context.Context, sc scope.Scope, search string) (int, error) {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM medication_histories WHERE %s`, clause)
	if search != "" {
		query += ` AND ` + searchClause([]string{"drug_name", "indication"}, len(args)+1)
		args = append(args, "%"+search+"%")
	}

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *medicationHistoryRepo) List(ctx context.Context, sc scope.Scope, search string, limit, offset int) ([]*models.MedicationHistory, error) {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`SELECT %s FROM medication_histories WHERE %s`, medicationHistoryColumns, clause)
	if search != "" {
		query += ` AND ` + searchClause([]string{"drug_name", "indication"}, len(args)+1)
		args = append(args, "%"+search+"%")
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.MedicationHistory
	for rows.Next() {
		rec := &models.MedicationHistory{}
		if err := rows.Scan(&rec.ID, &rec.OrganizationID, &rec.AssignedStaffID, &rec.PatientID,
			&rec.DrugName, &rec.Dose, &rec.Frequency, &rec.Route, &rec.Indication, &rec.StartDate,
			&rec.Slug, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type MedicationChangeRepository interface {
	Create(ctx context.Context, rec *models.MedicationChange) error
	GetBySlug(ctx context.Context, sc scope.Scope, slug string) (*models.MedicationChange, error)
	Update(ctx context.Context, sc scope.Scope, rec *models.MedicationChange) error
	Delete(ctx context.Context, sc scope.Scope, slug string) error
	Count(ctx context.Context, sc scope.Scope, search string) (int, error)
	List(ctx context.Context, sc scope.Scope, search string, limit, offset int) ([]*models.MedicationChange, error)
}

type medicationChangeRepo struct {
	db Database
}

func NewMedicationChangeRepo(db Database) MedicationChangeRepository {
	return &medicationChangeRepo{db: db}
}

const medicationChangeColumns = "id, organization_id, assigned_staff_id, patient_id, drug_name, change, reason, change_date, slug, created_at, updated_at"

func (r *medicationChangeRepo) Create(ctx context.Context, rec *models.MedicationChange) error {
	query := `
		INSERT INTO medication_changes (id, organization_id, assigned_staff_id, patient_id, drug_name, change, reason, change_date, slug, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`
	var err error
	for attempt := 0; attempt < slugAttempts; attempt++ {
		rec.Slug = slugid.New(rec.DrugName)
		_, err = r.db.Exec(ctx, query, rec.ID, rec.OrganizationID, rec.AssignedStaffID, rec.PatientID,
			rec.DrugName, rec.Change, rec.Reason, rec.ChangeDate, rec.Slug)
		if err == nil || !IsUniqueViolation(err) {
			return err
		}
	}
	return err
}

func (r *medicationChangeRepo) GetBySlug(ctx context.Context, sc scope.Scope, slug string) (*models.MedicationChange, error) {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`SELECT %s FROM medication_changes WHERE %s AND slug = $%d`,
		medicationChangeColumns, clause, len(args)+1)
	args = append(args, slug)

	rec := &models.MedicationChange{}
	err := r.db.QueryRow(ctx, query, args...).Scan(&rec.ID, &rec.OrganizationID, &rec.AssignedStaffID,
		&rec.PatientID, &rec.DrugName, &rec.Change, &rec.Reason, &rec.ChangeDate, &rec.Slug,
		&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *medicationChangeRepo) Update(ctx context.Context, sc scope.Scope, rec *models.MedicationChange) error {
	rec.Slug = slugid.New(rec.DrugName)
	clause, scopeArgs := scopeClauseAt(sc, 8)
	query := fmt.Sprintf(`
		UPDATE medication_changes
		SET assigned_staff_id = $1, drug_name = $2, change = $3, reason = $4, change_date = $5,
		    slug = $6, updated_at = NOW()
		WHERE id = $7 AND %s
	`, clause)
	args := append([]interface{}{rec.AssignedStaffID, rec.DrugName, rec.Change, rec.Reason,
		rec.ChangeDate, rec.Slug, rec.ID}, scopeArgs...)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *medicationChangeRepo) Delete(ctx context.Context, sc scope.Scope, slug string) error {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`DELETE FROM medication_changes WHERE %s AND slug = $%d`, clause, len(args)+1)
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

func (r *medicationChangeRepo) Count(ctx context.Context, sc scope.Scope, search string) (int, error) {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM medication_changes WHERE %s`, clause)
	if search != "" {
		query += ` AND ` + searchClause([]string{"drug_name", "reason"}, len(args)+1)
		args = append(args, "%"+search+"%")
	}

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *medicationChangeRepo) List(ctx context.Context, sc scope.Scope, search string, limit, offset int) ([]*models.MedicationChange, error) {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`SELECT %s FROM medication_changes WHERE %s`, medicationChangeColumns, clause)
	if search != "" {
		query += ` AND ` + searchClause([]string{"drug_name", "reason"}, len(args)+1)
		args = append(args, "%"+search+"%")
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.MedicationChange
	for rows.Next() {
		rec := &models.MedicationChange{}
		if err := rows.Scan(&rec.ID, &rec.OrganizationID, &rec.AssignedStaffID, &rec.PatientID,
			&rec.DrugName, &rec.Change, &rec.Reason, &rec.ChangeDate, &rec.Slug,
			&rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
