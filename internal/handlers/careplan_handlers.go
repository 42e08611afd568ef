package handlers

import (
	"net/http"
	"time"

	"pharmatrack/internal/common"
	"pharmatrack/internal/models"
	"pharmatrack/internal/repositories"
	"pharmatrack/internal/scope"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// CarePlanHandlers serves the six clinical record endpoints (organizer or
// pharmacist): medication histories and changes, monitoring plans, clinical
// problem analyses, follow-up plans, and the aggregate care plan.
type CarePlanHandlers struct {
	patientRepo  repositories.PatientRepository
	historyRepo  repositories.MedicationHistoryRepository
	changeRepo   repositories.MedicationChangeRepository
	monitorRepo  repositories.MonitoringPlanRepository
	analysisRepo repositories.ClinicalAnalysisRepository
	followUpRepo repositories.FollowUpPlanRepository
	planRepo     repositories.CarePlanRepository
}

func NewCarePlanHandlers(patientRepo repositories.PatientRepository,
	historyRepo repositories.MedicationHistoryRepository, changeRepo repositories.MedicationChangeRepository,
	monitorRepo repositories.MonitoringPlanRepository, analysisRepo repositories.ClinicalAnalysisRepository,
	followUpRepo repositories.FollowUpPlanRepository, planRepo repositories.CarePlanRepository) *CarePlanHandlers {
	return &CarePlanHandlers{
		patientRepo:  patientRepo,
		historyRepo:  historyRepo,
		changeRepo:   changeRepo,
		monitorRepo:  monitorRepo,
		analysisRepo: analysisRepo,
		followUpRepo: followUpRepo,
		planRepo:     planRepo,
	}
}

// resolvePatient checks the referenced patient is visible to the caller. A
// foreign patient id is reported as not found, never as forbidden. On
// failure the response has already been written.
func (h *CarePlanHandlers) resolvePatient(c echo.Context, sc scope.Scope, raw string) (*models.Patient, bool) {
	patientID, err := common.ValidateUUID(raw, "patient_id")
	if err != nil {
		common.SendValidationError(c, "patient_id", err.Error())
		return nil, false
	}
	patient, err := h.patientRepo.GetByID(c.Request().Context(), sc, patientID)
	if err != nil {
		if notFound(err) {
			common.SendNotFoundError(c, "Patient")
		} else {
			common.SendServerError(c, "Failed to load patient")
		}
		return nil, false
	}
	return patient, true
}

// --- Medication histories ---

type MedicationHistoryRequest struct {
	PatientID  string     `json:"patient_id"`
	DrugName   string     `json:"drug_name"`
	Dose       string     `json:"dose"`
	Frequency  string     `json:"frequency"`
	Route      string     `json:"route"`
	Indication string     `json:"indication"`
	StartDate  *time.Time `json:"start_date"`
}

func (h *CarePlanHandlers) CreateMedicationHistory(c echo.Context) error {
	ctx := c.Request().Context()
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req MedicationHistoryRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.DrugName, "drug_name"); err != nil {
		return common.SendValidationError(c, "drug_name", err.Error())
	}
	patient, ok := h.resolvePatient(c, sc, req.PatientID)
	if !ok {
		return nil
	}

	rec := &models.MedicationHistory{
		ID:              uuid.New(),
		OrganizationID:  patient.OrganizationID,
		AssignedStaffID: patient.AssignedStaffID,
		PatientID:       patient.ID,
		DrugName:        req.DrugName,
		Dose:            req.Dose,
		Frequency:       req.Frequency,
		Route:           req.Route,
		Indication:      req.Indication,
		StartDate:       req.StartDate,
	}
	if err := h.historyRepo.Create(ctx, rec); err != nil {
		return common.SendServerError(c, "Failed to create medication history")
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *CarePlanHandlers) ListMedicationHistories(c echo.Context) error {
	ctx := c.Request().Context()
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	search := common.SanitizeSearchQuery(c.QueryParam("search"))
	total, err := h.historyRepo.Count(ctx, sc, search)
	if err != nil {
		return common.SendServerError(c, "Failed to count medication histories")
	}
	page := common.ClampPage(c.QueryParam("page"), total, common.DefaultPageSize)

	recs, err := h.historyRepo.List(ctx, sc, search, page.Size, page.Offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list medication histories")
	}
	return c.JSON(http.StatusOK, listResponse{Data: recs, Page: page})
}

func (h *CarePlanHandlers) GetMedicationHistory(c echo.Context) error {
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	rec, err := h.historyRepo.GetBySlug(c.Request().Context(), sc, c.Param("slug"))
	if err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Medication history")
		}
		return common.SendServerError(c, "Failed to load medication history")
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *CarePlanHandlers) UpdateMedicationHistory(c echo.Context) error {
	ctx := c.Request().Context()
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req MedicationHistoryRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.DrugName, "drug_name"); err != nil {
		return common.SendValidationError(c, "drug_name", err.Error())
	}

	rec, err := h.historyRepo.GetBySlug(ctx, sc, c.Param("slug"))
	if err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Medication history")
		}
		return common.SendServerError(c, "Failed to load medication history")
	}

	rec.DrugName = req.DrugName
	rec.Dose = req.Dose
	rec.Frequency = req.Frequency
	rec.Route = req.Route
	rec.Indication = req.Indication
	rec.StartDate = req.StartDate

	if err := h.historyRepo.Update(ctx, sc, rec); err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Medication history")
		}
		return common.SendServerError(c, "Failed to update medication history")
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *CarePlanHandlers) DeleteMedicationHistory(c echo.Context) error {
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	if err := h.historyRepo.Delete(c.Request().Context(), sc, c.Param("slug")); err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Medication history")
		}
		return common.SendServerError(c, "Failed to delete medication history")
	}
	return c.NoContent(http.StatusNoContent)
}

// --- Medication changes ---

type MedicationChangeRequest struct {
	PatientID  string     `json:"patient_id"`
	DrugName   string     `json:"drug_name"`
	Change     string     `json:"change"`
	Reason     string     `json:"reason"`
	ChangeDate *time.Time `json:"change_date"`
}

func (h *CarePlanHandlers) CreateMedicationChange(c echo.Context) error {
	ctx := c.Request().Context()
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req MedicationChangeRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.DrugName, "drug_name"); err != nil {
		return common.SendValidationError(c, "drug_name", err.Error())
	}
	patient, ok := h.resolvePatient(c, sc, req.PatientID)
	if !ok {
		return nil
	}

	rec := &models.MedicationChange{
		ID:              uuid.New(),
		OrganizationID:  patient.OrganizationID,
		AssignedStaffID: patient.AssignedStaffID,
		PatientID:       patient.ID,
		DrugName:        req.DrugName,
		Change:          req.Change,
		Reason:          req.Reason,
		ChangeDate:      req.ChangeDate,
	}
	if err := h.changeRepo.Create(ctx, rec); err != nil {
		return common.SendServerError(c, "Failed to create medication change")
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *CarePlanHandlers) ListMedicationChanges(c echo.Context) error {
	ctx := c.Request().Context()
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	search := common.SanitizeSearchQuery(c.QueryParam("search"))
	total, err := h.changeRepo.Count(ctx, sc, search)
	if err != nil {
		return common.SendServerError(c, "Failed to count medication changes")
	}
	page := common.ClampPage(c.QueryParam("page"), total, common.DefaultPageSize)

	recs, err := h.changeRepo.List(ctx, sc, search, page.Size, page.Offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list medication changes")
	}
	return c.JSON(http.StatusOK, listResponse{Data: recs, Page: page})
}

func (h *CarePlanHandlers) GetMedicationChange(c echo.Context) error {
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	rec, err := h.changeRepo.GetBySlug(c.Request().Context(), sc, c.Param("slug"))
	if err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Medication change")
		}
		return common.SendServerError(c, "Failed to load medication change")
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *CarePlanHandlers) UpdateMedicationChange(c echo.Context) error {
	ctx := c.Request().Context()
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req MedicationChangeRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.DrugName, "drug_name"); err != nil {
		return common.SendValidationError(c, "drug_name", err.Error())
	}

	rec, err := h.changeRepo.GetBySlug(ctx, sc, c.Param("slug"))
	if err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Medication change")
		}
		return common.SendServerError(c, "Failed to load medication change")
	}

	rec.DrugName = req.DrugName
	rec.Change = req.Change
	rec.Reason = req.Reason
	rec.ChangeDate = req.ChangeDate

	if err := h.changeRepo.Update(ctx, sc, rec); err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Medication change")
		}
		return common.SendServerError(c, "Failed to update medication change")
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *CarePlanHandlers) DeleteMedicationChange(c echo.Context) error {
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	if err := h.changeRepo.Delete(c.Request().Context(), sc, c.Param("slug")); err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Medication change")
		}
		return common.SendServerError(c, "Failed to delete medication change")
	}
	return c.NoContent(http.StatusNoContent)
}

// --- Monitoring plans ---

type MonitoringPlanRequest struct {
	PatientID      string `json:"patient_id"`
	Parameter      string `json:"parameter"`
	Frequency      string `json:"frequency"`
	Justification  string `json:"justification"`
	ExpectedResult string `json:"expected_result"`
}

func (h *CarePlanHandlers) CreateMonitoringPlan(c echo.Context) error {
	ctx := c.Request().Context()
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req MonitoringPlanRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.Parameter, "parameter"); err != nil {
		return common.SendValidationError(c, "parameter", err.Error())
	}
	patient, ok := h.resolvePatient(c, sc, req.PatientID)
	if !ok {
		return nil
	}

	plan := &models.MonitoringPlan{
		ID:              uuid.New(),
		OrganizationID:  patient.OrganizationID,
		AssignedStaffID: patient.AssignedStaffID,
		PatientID:       patient.ID,
		Parameter:       req.Parameter,
		Frequency:       req.Frequency,
		Justification:   req.Justification,
		ExpectedResult:  req.ExpectedResult,
	}
	if err := h.monitorRepo.Create(ctx, plan); err != nil {
		return common.SendServerError(c, "Failed to create monitoring plan")
	}
	return c.JSON(http.StatusCreated, plan)
}

func (h *CarePlanHandlers) ListMonitoringPlans(c echo.Context) error {
	ctx := c.Request().Context()
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	search := common.SanitizeSearchQuery(c.QueryParam("search"))
	total, err := h.monitorRepo.Count(ctx, sc, search)
	if err != nil {
		return common.SendServerError(c, "Failed to count monitoring plans")
	}
	page := common.ClampPage(c.QueryParam("page"), total, common.DefaultPageSize)

	plans, err := h.monitorRepo.List(ctx, sc, search, page.Size, page.Offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list monitoring plans")
	}
	return c.JSON(http.StatusOK, listResponse{Data: plans, Page: page})
}

func (h *CarePlanHandlers) GetMonitoringPlan(c echo.Context) error {
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	plan, err := h.monitorRepo.GetBySlug(c.Request().Context(), sc, c.Param("slug"))
	if err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Monitoring plan")
		}
		return common.SendServerError(c, "Failed to load monitoring plan")
	}
	return c.JSON(http.StatusOK, plan)
}

func (h *CarePlanHandlers) UpdateMonitoringPlan(c echo.Context) error {
	ctx := c.Request().Context()
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req MonitoringPlanRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.Parameter, "parameter"); err != nil {
		return common.SendValidationError(c, "parameter", err.Error())
	}

	plan, err := h.monitorRepo.GetBySlug(ctx, sc, c.Param("slug"))
	if err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Monitoring plan")
		}
		return common.SendServerError(c, "Failed to load monitoring plan")
	}

	plan.Parameter = req.Parameter
	plan.Frequency = req.Frequency
	plan.Justification = req.Justification
	plan.ExpectedResult = req.ExpectedResult

	if err := h.monitorRepo.Update(ctx, sc, plan); err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Monitoring plan")
		}
		return common.SendServerError(c, "Failed to update monitoring plan")
	}
	return c.JSON(http.StatusOK, plan)
}

func (h *CarePlanHandlers) DeleteMonitoringPlan(c echo.Context) error {
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	if err := h.monitorRepo.Delete(c.Request().Context(), sc, c.Param("slug")); err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Monitoring plan")
		}
		return common.SendServerError(c, "Failed to delete monitoring plan")
	}
	return c.NoContent(http.StatusNoContent)
}

// --- Clinical problem analyses ---

type ClinicalAnalysisRequest struct {
	PatientID  string `json:"patient_id"`
	Problem    string `json:"problem"`
	Assessment string `json:"assessment"`
	Priority   string `json:"priority"`
	ActionPlan string `json:"action_plan"`
}

func (h *CarePlanHandlers) CreateClinicalAnalysis(c echo.Context) error {
	ctx := c.Request().Context()
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req ClinicalAnalysisRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.Problem, "problem"); err != nil {
		return common.SendValidationError(c, "problem", err.Error())
	}
	patient, ok := h.resolvePatient(c, sc, req.PatientID)
	if !ok {
		return nil
	}

	rec := &models.ClinicalProblemAnalysis{
		ID:              uuid.New(),
		OrganizationID:  patient.OrganizationID,
		AssignedStaffID: patient.AssignedStaffID,
		PatientID:       patient.ID,
		Problem:         req.Problem,
		Assessment:      req.Assessment,
		Priority:        req.Priority,
		ActionPlan:      req.ActionPlan,
	}
	if err := h.analysisRepo.Create(ctx, rec); err != nil {
		return common.SendServerError(c, "Failed to create clinical analysis")
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *CarePlanHandlers) ListClinicalAnalyses(c echo.Context) error {
	ctx := c.Request().Context()
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	search := common.SanitizeSearchQuery(c.QueryParam("search"))
	total, err := h.analysisRepo.Count(ctx, sc, search)
	if err != nil {
		return common.SendServerError(c, "Failed to count clinical analyses")
	}
	page := common.ClampPage(c.QueryParam("page"), total, common.DefaultPageSize)

	recs, err := h.analysisRepo.List(ctx, sc, search, page.Size, page.Offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list clinical analyses")
	}
	return c.JSON(http.StatusOK, listResponse{Data: recs, Page: page})
}

func (h *CarePlanHandlers) GetClinicalAnalysis(c echo.Context) error {
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	rec, err := h.analysisRepo.GetBySlug(c.Request().Context(), sc, c.Param("slug"))
	if err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Clinical analysis")
		}
		return common.SendServerError(c, "Failed to load clinical analysis")
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *CarePlanHandlers) UpdateClinicalAnalysis(c echo.Context) error {
	ctx := c.Request().Context()
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req ClinicalAnalysisRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.Problem, "problem"); err != nil {
		return common.SendValidationError(c, "problem", err.Error())
	}

	rec, err := h.analysisRepo.GetBySlug(ctx, sc, c.Param("slug"))
	if err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Clinical analysis")
		}
		return common.SendServerError(c, "Failed to load clinical analysis")
	}

	rec.Problem = req.Problem
	rec.Assessment = req.Assessment
	rec.Priority = req.Priority
	rec.ActionPlan = req.ActionPlan

	if err := h.analysisRepo.Update(ctx, sc, rec); err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Clinical analysis")
		}
		return common.SendServerError(c, "Failed to update clinical analysis")
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *CarePlanHandlers) DeleteClinicalAnalysis(c echo.Context) error {
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	if err := h.analysisRepo.Delete(c.Request().Context(), sc, c.Param("slug")); err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Clinical analysis")
		}
		return common.SendServerError(c, "Failed to delete clinical analysis")
	}
	return c.NoContent(http.StatusNoContent)
}

// --- Follow-up plans ---

type FollowUpPlanRequest struct {
	PatientID      string     `json:"patient_id"`
	Reason         string     `json:"reason"`
	ReviewDate     *time.Time `json:"review_date"`
	AdherenceNotes string     `json:"adherence_notes"`
	Referral       string     `json:"referral"`
}

func (h *CarePlanHandlers) CreateFollowUpPlan(c echo.Context) error {
	ctx := c.Request().Context()
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req FollowUpPlanRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.Reason, "reason"); err != nil {
		return common.SendValidationError(c, "reason", err.Error())
	}
	patient, ok := h.resolvePatient(c, sc, req.PatientID)
	if !ok {
		return nil
	}

	plan := &models.FollowUpPlan{
		ID:              uuid.New(),
		OrganizationID:  patient.OrganizationID,
		AssignedStaffID: patient.AssignedStaffID,
		PatientID:       patient.ID,
		Reason:          req.Reason,
		ReviewDate:      req.ReviewDate,
		AdherenceNotes:  req.AdherenceNotes,
		Referral:        req.Referral,
	}
	if err := h.followUpRepo.Create(ctx, plan); err != nil {
		return common.SendServerError(c, "Failed to create follow-up plan")
	}
	return c.JSON(http.StatusCreated, plan)
}

func (h *CarePlanHandlers) ListFollowUpPlans(c echo.Context) error {
	ctx := c.Request().Context()
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	search := common.SanitizeSearchQuery(c.QueryParam("search"))
	total, err := h.followUpRepo.Count(ctx, sc, search)
	if err != nil {
		return common.SendServerError(c, "Failed to count follow-up plans")
	}
	page := common.ClampPage(c.QueryParam("page"), total, common.DefaultPageSize)

	plans, err := h.followUpRepo.List(ctx, sc, search, page.Size, page.Offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list follow-up plans")
	}
	return c.JSON(http.StatusOK, listResponse{Data: plans, Page: page})
}

func (h *CarePlanHandlers) GetFollowUpPlan(c echo.Context) error {
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	plan, err := h.followUpRepo.GetBySlug(c.Request().Context(), sc, c.Param("slug"))
	if err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Follow-up plan")
		}
		return common.SendServerError(c, "Failed to load follow-up plan")
	}
	return c.JSON(http.StatusOK, plan)
}

func (h *CarePlanHandlers) UpdateFollowUpPlan(c echo.Context) error {
	ctx := c.Request().Context()
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req FollowUpPlanRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.Reason, "reason"); err != nil {
		return common.SendValidationError(c, "reason", err.Error())
	}

	plan, err := h.followUpRepo.GetBySlug(ctx, sc, c.Param("slug"))
	if err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Follow-up plan")
		}
		return common.SendServerError(c, "Failed to load follow-up plan")
	}

	plan.Reason = req.Reason
	plan.ReviewDate = req.ReviewDate
	plan.AdherenceNotes = req.AdherenceNotes
	plan.Referral = req.Referral

	if err := h.followUpRepo.Update(ctx, sc, plan); err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Follow-up plan")
		}
		return common.SendServerError(c, "Failed to update follow-up plan")
	}
	return c.JSON(http.StatusOK, plan)
}

func (h *CarePlanHandlers) DeleteFollowUpPlan(c echo.Context) error {
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	if err := h.followUpRepo.Delete(c.Request().Context(), sc, c.Param("slug")); err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Follow-up plan")
		}
		return common.SendServerError(c, "Failed to delete follow-up plan")
	}
	return c.NoContent(http.StatusNoContent)
}

// --- Aggregate care plans ---

type CarePlanRequest struct {
	PatientID           string  `json:"patient_id"`
	MedicationHistoryID *string `json:"medication_history_id"`
	MedicationChangeID  *string `json:"medication_change_id"`
	MonitoringPlanID    *string `json:"monitoring_plan_id"`
	AnalysisID          *string `json:"analysis_id"`
	FollowUpPlanID      *string `json:"follow_up_plan_id"`
	ProgressNotes       string  `json:"progress_notes"`
}

// carePlanRefs parses the optional record references. On failure the
// response has already been written.
func (h *CarePlanHandlers) carePlanRefs(c echo.Context, req *CarePlanRequest) (refs [5]*uuid.UUID, ok bool) {
	fields := [5]struct {
		raw  *string
		name string
	}{
		{req.MedicationHistoryID, "medication_history_id"},
		{req.MedicationChangeID, "medication_change_id"},
		{req.MonitoringPlanID, "monitoring_plan_id"},
		{req.AnalysisID, "analysis_id"},
		{req.FollowUpPlanID, "follow_up_plan_id"},
	}
	for i, f := range fields {
		id, err := optionalUUID(f.raw, f.name)
		if err != nil {
			common.SendValidationError(c, f.name, err.Error())
			return refs, false
		}
		refs[i] = id
	}
	return refs, true
}

func (h *CarePlanHandlers) CreateCarePlan(c echo.Context) error {
	ctx := c.Request().Context()
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req CarePlanRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	patient, ok := h.resolvePatient(c, sc, req.PatientID)
	if !ok {
		return nil
	}
	refs, ok := h.carePlanRefs(c, &req)
	if !ok {
		return nil
	}

	plan := &models.PharmaceuticalCarePlan{
		ID:                  uuid.New(),
		OrganizationID:      patient.OrganizationID,
		AssignedStaffID:     patient.AssignedStaffID,
		PatientID:           patient.ID,
		MedicationHistoryID: refs[0],
		MedicationChangeID:  refs[1],
		MonitoringPlanID:    refs[2],
		AnalysisID:          refs[3],
		FollowUpPlanID:      refs[4],
		ProgressNotes:       req.ProgressNotes,
	}
	if err := h.planRepo.Create(ctx, plan); err != nil {
		return common.SendServerError(c, "Failed to create care plan")
	}
	return c.JSON(http.StatusCreated, plan)
}

func (h *CarePlanHandlers) ListCarePlans(c echo.Context) error {
	ctx := c.Request().Context()
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	search := common.SanitizeSearchQuery(c.QueryParam("search"))
	total, err := h.planRepo.Count(ctx, sc, search)
	if err != nil {
		return common.SendServerError(c, "Failed to count care plans")
	}
	page := common.ClampPage(c.QueryParam("page"), total, common.DefaultPageSize)

	plans, err := h.planRepo.List(ctx, sc, search, page.Size, page.Offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list care plans")
	}
	return c.JSON(http.StatusOK, listResponse{Data: plans, Page: page})
}

func (h *CarePlanHandlers) GetCarePlan(c echo.Context) error {
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	plan, err := h.planRepo.GetBySlug(c.Request().Context(), sc, c.Param("slug"))
	if err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Care plan")
		}
		return common.SendServerError(c, "Failed to load care plan")
	}
	return c.JSON(http.StatusOK, plan)
}

func (h *CarePlanHandlers) UpdateCarePlan(c echo.Context) error {
	ctx := c.Request().Context()
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req CarePlanRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	refs, ok := h.carePlanRefs(c, &req)
	if !ok {
		return nil
	}

	plan, err := h.planRepo.GetBySlug(ctx, sc, c.Param("slug"))
	if err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Care plan")
		}
		return common.SendServerError(c, "Failed to load care plan")
	}

	plan.MedicationHistoryID = refs[0]
	plan.MedicationChangeID = refs[1]
	plan.MonitoringPlanID = refs[2]
	plan.AnalysisID = refs[3]
	plan.FollowUpPlanID = refs[4]
	plan.ProgressNotes = req.ProgressNotes

	if err := h.planRepo.Update(ctx, sc, plan); err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Care plan")
		}
		return common.SendServerError(c, "Failed to update care plan")
	}
	return c.JSON(http.StatusOK, plan)
}

func (h *CarePlanHandlers) DeleteCarePlan(c echo.Context) error {
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	if err := h.planRepo.Delete(c.Request().Context(), sc, c.Param("slug")); err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Care plan")
		}
		return common.SendServerError(c, "Failed to delete care plan")
	}
	return c.NoContent(http.StatusNoContent)
}
