package handlers

import (
	"net/http"
	"time"

	"pharmatrack/internal/common"
	"pharmatrack/internal/models"
	"pharmatrack/internal/repositories"
	"pharmatrack/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// PatientHandlers serves the patient endpoints (organizer or pharmacist),
// including lead conversion and the per-patient detail record.
type PatientHandlers struct {
	patientService services.PatientService
	patientRepo    repositories.PatientRepository
	detailRepo     repositories.PatientDetailRepository
	staffRepo      repositories.StaffRepository
}

func NewPatientHandlers(patientService services.PatientService, patientRepo repositories.PatientRepository,
	detailRepo repositories.PatientDetailRepository, staffRepo repositories.StaffRepository) *PatientHandlers {
	return &PatientHandlers{
		patientService: patientService,
		patientRepo:    patientRepo,
		detailRepo:     detailRepo,
		staffRepo:      staffRepo,
	}
}

type PatientRequest struct {
	FirstName       string  `json:"first_name"`
	LastName        string  `json:"last_name"`
	Email           string  `json:"email"`
	Phone           string  `json:"phone"`
	AssignedStaffID *string `json:"assigned_staff_id"`
}

func (h *PatientHandlers) Create(c echo.Context) error {
	ctx := c.Request().Context()
	id, _, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req PatientRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.FirstName, "first_name"); err != nil {
		return common.SendValidationError(c, "first_name", err.Error())
	}
	assignedTo, ok := assignedStaff(c, h.staffRepo, id, req.AssignedStaffID)
	if !ok {
		return nil
	}

	patient := &models.Patient{
		ID:              uuid.New(),
		OrganizationID:  id.OrganizationID,
		AssignedStaffID: assignedTo,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Phone:           req.Phone,
	}
	if err := h.patientRepo.Create(ctx, patient); err != nil {
		return common.SendServerError(c, "Failed to create patient")
	}
	return c.JSON(http.StatusCreated, patient)
}

// Convert registers a patient from an existing lead within the caller's
// scope. A lead outside the scope is a plain not-found.
func (h *PatientHandlers) Convert(c echo.Context) error {
	ctx := c.Request().Context()
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	patient, err := h.patientService.ConvertLead(ctx, sc, c.Param("slug"))
	if err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Lead")
		}
		return common.SendServerError(c, "Failed to convert lead")
	}
	return c.JSON(http.StatusCreated, patient)
}

func (h *PatientHandlers) List(c echo.Context) error {
	ctx := c.Request().Context()
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	search := common.SanitizeSearchQuery(c.QueryParam("search"))
	total, err := h.patientRepo.Count(ctx, sc, search)
	if err != nil {
		return common.SendServerError(c, "Failed to count patients")
	}
	page := common.ClampPage(c.QueryParam("page"), total, common.DefaultPageSize)

	patients, err := h.patientRepo.List(ctx, sc, search, page.Size, page.Offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list patients")
	}
	return c.JSON(http.StatusOK, listResponse{Data: patients, Page: page})
}

func (h *PatientHandlers) Get(c echo.Context) error {
	ctx := c.Request().Context()
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	patient, err := h.patientRepo.GetBySlug(ctx, sc, c.Param("slug"))
	if err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Patient")
		}
		return common.SendServerError(c, "Failed to load patient")
	}
	return c.JSON(http.StatusOK, patient)
}

func (h *PatientHandlers) Update(c echo.Context) error {
	ctx := c.Request().Context()
	id, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req PatientRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.FirstName, "first_name"); err != nil {
		return common.SendValidationError(c, "first_name", err.Error())
	}
	assignedTo, ok := assignedStaff(c, h.staffRepo, id, req.AssignedStaffID)
	if !ok {
		return nil
	}

	patient, err := h.patientRepo.GetBySlug(ctx, sc, c.Param("slug"))
	if err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Patient")
		}
		return common.SendServerError(c, "Failed to load patient")
	}

	patient.AssignedStaffID = assignedTo
	patient.FirstName = req.FirstName
	patient.LastName = req.LastName
	patient.Email = req.Email
	patient.Phone = req.Phone

	if err := h.patientRepo.Update(ctx, sc, patient); err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Patient")
		}
		return common.SendServerError(c, "Failed to update patient")
	}
	return c.JSON(http.StatusOK, patient)
}

func (h *PatientHandlers) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	patient, err := h.patientRepo.GetBySlug(ctx, sc, c.Param("slug"))
	if err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Patient")
		}
		return common.SendServerError(c, "Failed to load patient")
	}

	// Detail records do not outlive the patient. Absence is not an error.
	if err := h.detailRepo.Delete(ctx, sc, patient.ID); err != nil && !notFound(err) {
		return common.SendServerError(c, "Failed to delete patient")
	}
	if err := h.patientRepo.Delete(ctx, sc, patient.Slug); err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Patient")
		}
		return common.SendServerError(c, "Failed to delete patient")
	}
	return c.NoContent(http.StatusNoContent)
}

type PatientDetailRequest struct {
	DateOfBirth        *time.Time `json:"date_of_birth"`
	Gender             string     `json:"gender"`
	WeightKg           *float64   `json:"weight_kg"`
	HeightCm           *float64   `json:"height_cm"`
	Allergies          string     `json:"allergies"`
	PastMedicalHistory string     `json:"past_medical_history"`
}

func (h *PatientHandlers) GetDetail(c echo.Context) error {
	ctx := c.Request().Context()
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	patient, err := h.patientRepo.GetBySlug(ctx, sc, c.Param("slug"))
	if err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Patient")
		}
		return common.SendServerError(c, "Failed to load patient")
	}

	detail, err := h.detailRepo.GetByPatient(ctx, sc, patient.ID)
	if err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Patient detail")
		}
		return common.SendServerError(c, "Failed to load patient detail")
	}
	return c.JSON(http.StatusOK, detail)
}

// PutDetail creates the detail record on first write and updates it after.
func (h *PatientHandlers) PutDetail(c echo.Context) error {
	ctx := c.Request().Context()
	_, sc, ok := callerScope(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req PatientDetailRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	patient, err := h.patientRepo.GetBySlug(ctx, sc, c.Param("slug"))
	if err != nil {
		if notFound(err) {
			return common.SendNotFoundError(c, "Patient")
		}
		return common.SendServerError(c, "Failed to load patient")
	}

	detail, err := h.detailRepo.GetByPatient(ctx, sc, patient.ID)
	switch {
	case err == nil:
		detail.DateOfBirth = req.DateOfBirth
		detail.Gender = req.Gender
		detail.WeightKg = req.WeightKg
		detail.HeightCm = req.HeightCm
		detail.Allergies = req.Allergies
		detail.PastMedicalHistory = req.PastMedicalHistory
		if err := h.detailRepo.Update(ctx, sc, detail); err != nil {
			return common.SendServerError(c, "Failed to update patient detail")
		}
		return c.JSON(http.StatusOK, detail)
	case notFound(err):
		detail = &models.PatientDetail{
			ID:                 uuid.New(),
			OrganizationID:     patient.OrganizationID,
			AssignedStaffID:    patient.AssignedStaffID,
			PatientID:          patient.ID,
			DateOfBirth:        req.DateOfBirth,
			Gender:             req.Gender,
			WeightKg:           req.WeightKg,
			HeightCm:           req.HeightCm,
			Allergies:          req.Allergies,
			PastMedicalHistory: req.PastMedicalHistory,
		}
		if err := h.detailRepo.Create(ctx, detail); err != nil {
			return common.SendServerError(c, "Failed to create patient detail")
		}
		return c.JSON(http.StatusCreated, detail)
	default:
		return common.SendServerError(c, "Failed to load patient detail")
	}
}
