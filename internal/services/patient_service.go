package services

import (
	"context"

	"pharmatrack/internal/models"
	"pharmatrack/internal/repositories"
	"pharmatrack/internal/scope"

	"github.com/google/uuid"
)

// PatientService covers the flows that span more than one table. Plain
// patient CRUD goes through the repository directly.
type PatientService interface {
	ConvertLead(ctx context.Context, sc scope.Scope, leadSlug string) (*models.Patient, error)
}

type patientService struct {
	leadRepo    repositories.LeadRepository
	patientRepo repositories.PatientRepository
}

func NewPatientService(leadRepo repositories.LeadRepository, patientRepo repositories.PatientRepository) PatientService {
	return &patientService{leadRepo: leadRepo, patientRepo: patientRepo}
}

// ConvertLead registers a patient from an existing lead. The lead is kept
// and referenced so the conversion stays traceable; its assignment carries
// over to the patient.
func (s *patientService) ConvertLead(ctx context.Context, sc scope.Scope, leadSlug string) (*models.Patient, error) {
	lead, err := s.leadRepo.GetBySlug(ctx, sc, leadSlug)
	if err != nil {
		return nil, err
	}

	patient := &models.Patient{
		ID:              uuid.New(),
		OrganizationID:  lead.OrganizationID,
		AssignedStaffID: lead.AssignedStaffID,
		LeadID:          &lead.ID,
		FirstName:       lead.FirstName,
		LastName:        lead.LastName,
		Email:           lead.Email,
		Phone:           lead.Phone,
	}
	if err := s.patientRepo.Create(ctx, patient); err != nil {
		return nil, err
	}
	return patient, nil
}
