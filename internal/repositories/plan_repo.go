package repositories

import (
	"context"
	"fmt"
	"time"

	"pharmatrack/internal/models"
	"pharmatrack/internal/scope"
	"pharmatrack/internal/slugid"

	"github.com/jackc/pgx/v5"
)

type MonitoringPlanRepository interface {
	Create(ctx context.Context, plan *models.MonitoringPlan) error
	GetBySlug(ctx context.Context, sc scope.Scope, slug string) (*models.MonitoringPlan, error)
	Update(ctx context.Context, sc scope.Scope, plan *models.MonitoringPlan) error
	Delete(ctx context.Context, sc scope.Scope, slug string) error
	Count(ctx context.Context, sc scope.Scope, search string) (int, error)
	List(ctx context.Context, sc scope.Scope, search string, limit, offset int) ([]*models.MonitoringPlan, error)
}

type monitoringPlanRepo struct {
	db Database
}

func NewMonitoringPlanRepo(db Database) MonitoringPlanRepository {
	return &monitoringPlanRepo{db: db}
}

const monitoringPlanColumns = "id, organization_id, assigned_staff_id, patient_id, parameter, frequency, justification, expected_result, slug, created_at, updated_at"

func (r *monitoringPlanRepo) Create(ctx context.Context, plan *models.MonitoringPlan) error {
	query := `
		INSERT INTO monitoring_plans (id, organization_id, assigned_staff_id, patient_id, parameter, frequency, justification, expected_result, slug, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`
	var err error
	for attempt := 0; attempt < slugAttempts; attempt++ {
		plan.Slug = slugid.New(plan.Parameter)
		_, err = r.db.Exec(ctx, query, plan.ID, plan.OrganizationID, plan.AssignedStaffID, plan.PatientID,
			plan.Parameter, plan.Frequency, plan.Justification, plan.ExpectedResult, plan.Slug)
		if err == nil || !IsUniqueViolation(err) {
			return err
		}
	}
	return err
}

func (r *monitoringPlanRepo) GetBySlug(ctx context.Context, sc scope.Scope, slug string) (*models.MonitoringPlan, error) {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`SELECT %s FROM monitoring_plans WHERE %s AND slug = $%d`,
		monitoringPlanColumns, clause, len(args)+1)
	args = append(args, slug)

	plan := &models.MonitoringPlan{}
	err := r.db.QueryRow(ctx, query, args...).Scan(&plan.ID, &plan.OrganizationID, &plan.AssignedStaffID,
		&plan.PatientID, &plan.Parameter, &plan.Frequency, &plan.Justification, &plan.ExpectedResult,
		&plan.Slug, &plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func (r *monitoringPlanRepo) Update(ctx context.Context, sc scope.Scope, plan *models.MonitoringPlan) error {
	plan.Slug = slugid.New(plan.Parameter)
	clause, scopeArgs := scopeClauseAt(sc, 8)
	query := fmt.Sprintf(`
		UPDATE monitoring_plans
		SET assigned_staff_id = $1, parameter = $2, frequency = $3, justification = $4,
		    expected_result = $5, slug = $6, updated_at = NOW()
		WHERE id = $7 AND %s
	`, clause)
	args := append([]interface{}{plan.AssignedStaffID, plan.Parameter, plan.Frequency,
		plan.Justification, plan.ExpectedResult, plan.Slug, plan.ID}, scopeArgs...)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *monitoringPlanRepo) Delete(ctx context.Context, sc scope.Scope, slug string) error {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`DELETE FROM monitoring_plans WHERE %s AND slug = $%d`, clause, len(args)+1)
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

func (r *monitoringPlanRepo) Count(ctx context.Context, sc scope.Scope, search string) (int, error) {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM monitoring_plans WHERE %s`, clause)
	if search != "" {
		query += ` AND ` + searchClause([]string{"parameter", "justification"}, len(args)+1)
		args = append(args, "%"+search+"%")
	}

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *monitoringPlanRepo) List(ctx context.Context, sc scope.Scope, search string, limit, offset int) ([]*models.MonitoringPlan, error) {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`SELECT %s FROM monitoring_plans WHERE %s`, monitoringPlanColumns, clause)
	if search != "" {
		query += ` AND ` + searchClause([]string{"parameter", "justification"}, len(args)+1)
		args = append(args, "%"+search+"%")
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.MonitoringPlan
	for rows.Next() {
		plan := &models.MonitoringPlan{}
		if err := rows.Scan(&plan.ID, &plan.OrganizationID, &plan.AssignedStaffID, &plan.PatientID,
			&plan.Parameter, &plan.Frequency, &plan.Justification, &plan.ExpectedResult, &plan.Slug,
			&plan.CreatedAt, &plan.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, plan)
	}
	return out, rows.Err()
}

type ClinicalAnalysisRepository interface {
	Create(ctx context.Context, rec *models.ClinicalProblemAnalysis) error
	GetBySlug(ctx context.Context, sc scope.Scope, slug string) (*models.ClinicalProblemAnalysis, error)
	Update(ctx context.Context, sc scope.Scope, rec *models.ClinicalProblemAnalysis) error
	Delete(ctx context.Context, sc scope.Scope, slug string) error
	Count(ctx context.Context, sc scope.Scope, search string) (int, error)
	List(ctx context.Context, sc scope.Scope, search string, limit, offset int) ([]*models.ClinicalProblemAnalysis, error)
}

type clinicalAnalysisRepo struct {
	db Database
}

func NewClinicalAnalysisRepo(db Database) ClinicalAnalysisRepository {
	return &clinicalAnalysisRepo{db: db}
}

const clinicalAnalysisColumns = "id, organization_id, assigned_staff_id, patient_id, problem, assessment, priority, action_plan, slug, created_at, updated_at"

func (r *clinicalAnalysisRepo) Create(ctx context.Context, rec *models.ClinicalProblemAnalysis) error {
	query := `
		INSERT INTO clinical_problem_analyses (id, organization_id, assigned_staff_id, patient_id, problem, assessment, priority, action_plan, slug, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`
	var err error
	for attempt := 0; attempt < slugAttempts; attempt++ {
		rec.Slug = slugid.New(rec.Problem)
		_, err = r.db.Exec(ctx, query, rec.ID, rec.OrganizationID, rec.AssignedStaffID, rec.PatientID,
			rec.Problem, rec.Assessment, rec.Priority, rec.ActionPlan, rec.Slug)
		if err == nil || !IsUniqueViolation(err) {
			return err
		}
	}
	return err
}

func (r *clinicalAnalysisRepo) GetBySlug(ctx context.Context, sc scope.Scope, slug string) (*models.ClinicalProblemAnalysis, error) {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`SELECT %s FROM clinical_problem_analyses WHERE %s AND slug = $%d`,
		clinicalAnalysisColumns, clause, len(args)+1)
	args = append(args, slug)

	rec := &models.ClinicalProblemAnalysis{}
	err := r.db.QueryRow(ctx, query, args...).Scan(&rec.ID, &rec.OrganizationID, &rec.AssignedStaffID,
		&rec.PatientID, &rec.Problem, &rec.Assessment, &rec.Priority, &rec.ActionPlan, &rec.Slug,
		&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *clinicalAnalysisRepo) Update(ctx context.Context, sc scope.Scope, rec *models.ClinicalProblemAnalysis) error {
	rec.Slug = slugid.New(rec.Problem)
	clause, scopeArgs := scopeClauseAt(sc, 8)
	query := fmt.Sprintf(`
		UPDATE clinical_problem_analyses
		SET assigned_staff_id = $1, problem = $2, assessment = $3, priority = $4, action_plan = $5,
		    slug = $6, updated_at = NOW()
		WHERE id = $7 AND %s
	`, clause)
	args := append([]interface{}{rec.AssignedStaffID, rec.Problem, rec.Assessment, rec.Priority,
		rec.ActionPlan, rec.Slug, rec.ID}, scopeArgs...)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *clinicalAnalysisRepo) Delete(ctx context.Context, sc scope.Scope, slug string) error {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`DELETE FROM clinical_problem_analyses WHERE %s AND slug = $%d`, clause, len(args)+1)
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

func (r *clinicalAnalysisRepo) Count(ctx context.Context, sc scope.Scope, search string) (int, error) {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM clinical_problem_analyses WHERE %s`, clause)
	if search != "" {
		query += ` AND ` + searchClause([]string{"problem", "assessment"}, len(args)+1)
		args = append(args, "%"+search+"%")
	}

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *clinicalAnalysisRepo) List(ctx context.Context, sc scope.Scope, search string, limit, offset int) ([]*models.ClinicalProblemAnalysis, error) {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`SELECT %s FROM clinical_problem_analyses WHERE %s`, clinicalAnalysisColumns, clause)
	if search != "" {
		query += ` AND ` + searchClause([]string{"problem", "assessment"}, len(args)+1)
		args = append(args, "%"+search+"%")
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.ClinicalProblemAnalysis
	for rows.Next() {
		rec := &models.ClinicalProblemAnalysis{}
		if err := rows.Scan(&rec.ID, &rec.OrganizationID, &rec.AssignedStaffID, &rec.PatientID,
			&rec.Problem, &rec.Assessment, &rec.Priority, &rec.ActionPlan, &rec.Slug,
			&rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type FollowUpPlanRepository interface {
	Create(ctx context.Context, plan *models.FollowUpPlan) error
	GetBySlug(ctx context.Context, sc scope.Scope, slug string) (*models.FollowUpPlan, error)
	Update(ctx context.Context, sc scope.Scope, plan *models.FollowUpPlan) error
	Delete(ctx context.Context, sc scope.Scope, slug string) error
	Count(ctx context.Context, sc scope.Scope, search string) (int, error)
	List(ctx context.Context, sc scope.Scope, search string, limit, offset int) ([]*models.FollowUpPlan, error)
	ListDueOn(ctx context.Context, sc scope.Scope, day time.Time) ([]*models.FollowUpPlan, error)
}

type followUpPlanRepo struct {
	db Database
}

func NewFollowUpPlanRepo(db Database) FollowUpPlanRepository {
	return &followUpPlanRepo{db: db}
}

const followUpPlanColumns = "id, organization_id, assigned_staff_id, patient_id, reason, review_date, adherence_notes, referral, slug, created_at, updated_at"

func (r *followUpPlanRepo) Create(ctx context.Context, plan *models.FollowUpPlan) error {
	query := `
		INSERT INTO follow_up_plans (id, organization_id, assigned_staff_id, patient_id, reason, review_date, adherence_notes, referral, slug, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`
	var err error
	for attempt := 0; attempt < slugAttempts; attempt++ {
		plan.Slug = slugid.New(plan.Reason)
		_, err = r.db.Exec(ctx, query, plan.ID, plan.OrganizationID, plan.AssignedStaffID, plan.PatientID,
			plan.Reason, plan.ReviewDate, plan.AdherenceNotes, plan.Referral, plan.Slug)
		if err == nil || !IsUniqueViolation(err) {
			return err
		}
	}
	return err
}

func (r *followUpPlanRepo) GetBySlug(ctx context.Context, sc scope.Scope, slug string) (*models.FollowUpPlan, error) {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`SELECT %s FROM follow_up_plans WHERE %s AND slug = $%d`,
		followUpPlanColumns, clause, len(args)+1)
	args = append(args, slug)
	return scanFollowUpPlan(r.db.QueryRow(ctx, query, args...))
}

func scanFollowUpPlan(row pgx.Row) (*models.FollowUpPlan, error) {
	plan := &models.FollowUpPlan{}
	err := row.Scan(&plan.ID, &plan.OrganizationID, &plan.AssignedStaffID, &plan.PatientID,
		&plan.Reason, &plan.ReviewDate, &plan.AdherenceNotes, &plan.Referral, &plan.Slug,
		&plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func (r *followUpPlanRepo) Update(ctx context.Context, sc scope.Scope, plan *models.FollowUpPlan) error {
	plan.Slug = slugid.New(plan.Reason)
	clause, scopeArgs := scopeClauseAt(sc, 8)
	query := fmt.Sprintf(`
		UPDATE follow_up_plans
		SET assigned_staff_id = $1, reason = $2, review_date = $3, adherence_notes = $4, referral = $5,
		    slug = $6, updated_at = NOW()
		WHERE id = $7 AND %s
	`, clause)
	args := append([]interface{}{plan.AssignedStaffID, plan.Reason, plan.ReviewDate,
		plan.AdherenceNotes, plan.Referral, plan.Slug, plan.ID}, scopeArgs...)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *followUpPlanRepo) Delete(ctx context.Context, sc scope.Scope, slug string) error {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`DELETE FROM follow_up_plans WHERE %s AND slug = $%d`, clause, len(args)+1)
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

func (r *followUpPlanRepo) Count(ctx context.Context, sc scope.Scope, search string) (int, error) {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM follow_up_plans WHERE %s`, clause)
	if search != "" {
		query += ` AND ` + searchClause([]string{"reason", "referral"}, len(args)+1)
		args = append(args, "%"+search+"%")
	}

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *followUpPlanRepo) List(ctx context.Context, sc scope.Scope, search string, limit, offset int) ([]*models.FollowUpPlan, error) {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`SELECT %s FROM follow_up_plans WHERE %s`, followUpPlanColumns, clause)
	if search != "" {
		query += ` AND ` + searchClause([]string{"reason", "referral"}, len(args)+1)
		args = append(args, "%"+search+"%")
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	return r.queryPlans(ctx, query, args)
}

// ListDueOn returns the plans whose review date falls on day; the reminder
// job calls it with an organizer-level scope per organization.
func (r *followUpPlanRepo) ListDueOn(ctx context.Context, sc scope.Scope, day time.Time) ([]*models.FollowUpPlan, error) {
	clause, args := scopeClause(sc)
	query := fmt.Sprintf(`SELECT %s FROM follow_up_plans WHERE %s AND review_date::date = $%d ORDER BY created_at ASC`,
		followUpPlanColumns, clause, len(args)+1)
	args = append(args, day.Format("2006-01-02"))

	return r.queryPlans(ctx, query, args)
}

func (r *followUpPlanRepo) queryPlans(ctx context.Context, query string, args []interface{}) ([]*models.FollowUpPlan, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.FollowUpPlan
	for rows.Next() {
		plan := &models.FollowUpPlan{}
		if err := rows.Scan(&plan.ID, &plan.OrganizationID, &plan.AssignedStaffID, &plan.PatientID,
			&plan.Reason, &plan.ReviewDate, &plan.AdherenceNotes, &plan.Referral, &plan.Slug,
			&plan.CreatedAt, &plan.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, plan)
	}
	return out, rows.Err()
}
