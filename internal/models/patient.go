package models

import (
	"time"

	"github.com/google/uuid"
)

// Patient is a converted lead (or a directly registered patient). UniqueCode
// is a 32-hex reference number generated once and kept on later saves.
type Patient struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	OrganizationID  uuid.UUID  `json:"organization_id" db:"organization_id"`
	AssignedStaffID *uuid.UUID `json:"assigned_staff_id" db:"assigned_staff_id"`
	LeadID          *uuid.UUID `json:"lead_id" db:"lead_id"`
	FirstName       string     `json:"first_name" db:"first_name"`
	LastName        string     `json:"last_name" db:"last_name"`
	Email           string     `json:"email" db:"email"`
	Phone           string     `json:"phone" db:"phone"`
	UniqueCode      string     `json:"unique_code" db:"unique_code"`
	Slug            string     `json:"slug" db:"slug"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// PatientDetail carries per-patient demographics and clinical background.
// One row per patient.
type PatientDetail struct {
	ID                 uuid.UUID  `json:"id" db:"id"`
	OrganizationID     uuid.UUID  `json:"organization_id" db:"organization_id"`
	AssignedStaffID    *uuid.UUID `json:"assigned_staff_id" db:"assigned_staff_id"`
	PatientID          uuid.UUID  `json:"patient_id" db:"patient_id"`
	DateOfBirth        *time.Time `json:"date_of_birth" db:"date_of_birth"`
	Gender             string     `json:"gender" db:"gender"`
	WeightKg           *float64   `json:"weight_kg" db:"weight_kg"`
	HeightCm           *float64   `json:"height_cm" db:"height_cm"`
	Allergies          string     `json:"allergies" db:"allergies"`
	PastMedicalHistory string     `json:"past_medical_history" db:"past_medical_history"`
	Slug               string     `json:"slug" db:"slug"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}
