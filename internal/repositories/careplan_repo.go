package repositories

import (
	"context"
	"fmt"

	"pharmatrack/internal/models"
	"pharmatrack/internal/scope"
	"pharmatrack/internal/slugid"

	"github.com/jackc/pgx/v5"
)

type CarePlanRepository interface {
	Create(ctx context.Context, plan *models.PharmaceuticalCarePlan) error
	GetBySlug(ctx context.Context, sc scope.Scope, slug string) (*models.PharmaceuticalCarePlan, error)
	Update(ctx context.Context, sc scope.Scope, plan *models.PharmaceuticalCarePlan) error
	Delete(ctx context.Context, sc scope.Scope, slug string) error
	Count(ctx context.Context, sc scope.Scope, search string) (int, error)
	List(ctx context.Context, sc scope.Scope, search string, limit, offset int) ([]*models.PharmaceuticalCarePlan, error)
}

type carePlanRepo struct {
	db Database
}

func NewCarePlanRepo(db Database) CarePlanRepository {
	return &carePlanRepo{db: db}
}

const carePlanColumns = "id, organization_id, assigned_staff_id, patient_id, medication_history_id, medication_change_id, monitoring_plan_id, analysis_id, follow_up_plan_id, progress_notes, slug, created_at, updated_at"

func scanCarePlan(row pgx.Row) (*models.PharmaceuticalCarePlan, error) {
	plan := &models.PharmaceuticalCarePlan{}
	err := row.Scan(&plan.ID, &plan.OrganizationID, &plan.AssignedStaffID, &plan.PatientID,
		&plan.MedicationHistoryID, &plan.MedicationChangeID, &plan.MonitoringPlanID, &plan.AnalysisID,
		&plan.FollowUpPlanID, &plan.ProgressNotes, &plan.Slug, &plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func (r *carePlanRepo) Create(ctx context.Context, plan *models.PharmaceuticalCarePlan) error {
	query := `
		INSERT INTO pharmaceutical_care_plans (id, organization_id, assigned_staff_id, patient_id, medication_history_id, medication_change_id, monitoring_plan_id, analysis_id, follow_up_plan_id, progress_notes, slug, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
	`
	var err error
	for attempt := 0; attempt < slugAttempts; attempt++ {
		plan.Slug = slugid.New("care-plan")
		_, err = r.db.Exec(ctx, query, plan.ID, plan.OrganizationID, plan.AssignedStaffID, plan.PatientID,
			plan.MedicationHistoryID, plan.MedicationChangeID, plan.MonitoringPlanID, plan.AnalysisID,
			plan.FollowUpPlanID, plan.ProgressNotes, plan.Slug)
		if err == nil || !IsUniqueViolation(err) {
			return err
		}
	}
	return err
}

func (r *carePlanRepo) GetBySlug(ctx context.Context, sc scope.Scope, slug string) (*models.PharmaceuticalCarePlan, error) {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`SELECT %s FROM pharmaceutical_care_plans WHERE %s AND slug = $%d`,
		carePlanColumns, clause, len(args)+1)
	args = append(args, slug)
	return scanCarePlan(r.db.QueryRow(ctx, query, args...))
}

func (r *carePlanRepo) Update(ctx context.Context, sc scope.Scope, plan *models.PharmaceuticalCarePlan) error {
	plan.Slug = slugid.New("care-plan")
	clause, scopeArgs := scopeClauseAt(sc, 10)
	query := fmt.Sprintf(`
		UPDATE pharmaceutical_care_plans
		SET assigned_staff_id = $1, medication_history_id = $2, medication_change_id = $3,
		    monitoring_plan_id = $4, analysis_id = $5, follow_up_plan_id = $6, progress_notes = $7,
		    slug = $8, updated_at = NOW()
		WHERE id = $9 AND %s
	`, clause)
	args := append([]interface{}{plan.AssignedStaffID, plan.MedicationHistoryID, plan.MedicationChangeID,
		plan.MonitoringPlanID, plan.AnalysisID, plan.FollowUpPlanID, plan.ProgressNotes, plan.Slug,
		plan.ID}, scopeArgs...)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *carePlanRepo) Delete(ctx context.Context, sc scope.Scope, slug string) error {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`DELETE FROM pharmaceutical_care_plans WHERE %s AND slug = $%d`, clause, len(args)+1)
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

func (r *carePlanRepo) Count(ctx context.Context, sc scope.Scope, search string) (int, error) {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM pharmaceutical_care_plans WHERE %s`, clause)
	if search != "" {
		query += ` AND ` + searchClause([]string{"progress_notes"}, len(args)+1)
		args = append(args, "%"+search+"%")
	}

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *carePlanRepo) List(ctx context.Context, sc scope.Scope, search string, limit, offset int) ([]*models.PharmaceuticalCarePlan, error) {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`SELECT %s FROM pharmaceutical_care_plans WHERE %s`, carePlanColumns, clause)
	if search != "" {
		query += ` AND ` + searchClause([]string{"progress_notes"}, len(args)+1)
		args = append(args, "%"+search+"%")
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.PharmaceuticalCarePlan
	for rows.Next() {
		plan := &models.PharmaceuticalCarePlan{}
		if err := rows.Scan(&plan.ID, &plan.OrganizationID, &plan.AssignedStaffID, &plan.PatientID,
			&plan.MedicationHistoryID, &plan.MedicationChangeID, &plan.MonitoringPlanID, &plan.AnalysisID,
			&plan.FollowUpPlanID, &plan.ProgressNotes, &plan.Slug, &plan.CreatedAt, &plan.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, plan)
	}
	return out, rows.Err()
}
