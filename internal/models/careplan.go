package models

import (
	"time"

	"github.com/google/uuid"
)

// MedicationHistory records one drug a patient is or was taking.
type MedicationHistory struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	OrganizationID  uuid.UUID  `json:"organization_id" db:"organization_id"`
	AssignedStaffID *uuid.UUID `json:"assigned_staff_id" db:"assigned_staff_id"`
	PatientID       uuid.UUID  `json:"patient_id" db:"patient_id"`
	DrugName        string     `json:"drug_name" db:"drug_name"`
	Dose            string     `json:"dose" db:"dose"`
	Frequency       string     `json:"frequency" db:"frequency"`
	Route           string     `json:"route" db:"route"`
	Indication      string     `json:"indication" db:"indication"`
	StartDate       *time.Time `json:"start_date" db:"start_date"`
	Slug            string     `json:"slug" db:"slug"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// MedicationChange records a dose change, stop or switch for a patient.
type MedicationChange struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	OrganizationID  uuid.UUID  `json:"organization_id" db:"organization_id"`
	AssignedStaffID *uuid.UUID `json:"assigned_staff_id" db:"assigned_staff_id"`
	PatientID       uuid.UUID  `json:"patient_id" db:"patient_id"`
	DrugName        string     `json:"drug_name" db:"drug_name"`
	Change          string     `json:"change" db:"change"`
	Reason          string     `json:"reason" db:"reason"`
	ChangeDate      *time.Time `json:"change_date" db:"change_date"`
	Slug            string     `json:"slug" db:"slug"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// MonitoringPlan defines a parameter to watch for a patient and how often.
type MonitoringPlan struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	OrganizationID  uuid.UUID  `json:"organization_id" db:"organization_id"`
	AssignedStaffID *uuid.UUID `json:"assigned_staff_id" db:"assigned_staff_id"`
	PatientID       uuid.UUID  `json:"patient_id" db:"patient_id"`
	Parameter       string     `json:"parameter" db:"parameter"`
	Frequency       string     `json:"frequency" db:"frequency"`
	Justification   string     `json:"justification" db:"justification"`
	ExpectedResult  string     `json:"expected_result" db:"expected_result"`
	Slug            string     `json:"slug" db:"slug"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// ClinicalProblemAnalysis captures the assessment of one clinical problem.
type ClinicalProblemAnalysis struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	OrganizationID  uuid.UUID  `json:"organization_id" db:"organization_id"`
	AssignedStaffID *uuid.UUID `json:"assigned_staff_id" db:"assigned_staff_id"`
	PatientID       uuid.UUID  `json:"patient_id" db:"patient_id"`
	Problem         string     `json:"problem" db:"problem"`
	Assessment      string     `json:"assessment" db:"assessment"`
	Priority        string     `json:"priority" db:"priority"`
	ActionPlan      string     `json:"action_plan" db:"action_plan"`
	Slug            string     `json:"slug" db:"slug"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// FollowUpPlan schedules a patient review. ReviewDate drives the daily
// reminder job.
type FollowUpPlan struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	OrganizationID  uuid.UUID  `json:"organization_id" db:"organization_id"`
	AssignedStaffID *uuid.UUID `json:"assigned_staff_id" db:"assigned_staff_id"`
	PatientID       uuid.UUID  `json:"patient_id" db:"patient_id"`
	Reason          string     `json:"reason" db:"reason"`
	ReviewDate      *time.Time `json:"review_date" db:"review_date"`
	AdherenceNotes  string     `json:"adherence_notes" db:"adherence_notes"`
	Referral        string     `json:"referral" db:"referral"`
	Slug            string     `json:"slug" db:"slug"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// PharmaceuticalCarePlan aggregates the clinical records of one patient.
// The component references are nullable so a plan can be assembled over time.
type PharmaceuticalCarePlan struct {
	ID                  uuid.UUID  `json:"id" db:"id"`
	OrganizationID      uuid.UUID  `json:"organization_id" db:"organization_id"`
	AssignedStaffID     *uuid.UUID `json:"assigned_staff_id" db:"assigned_staff_id"`
	PatientID           uuid.UUID  `json:"patient_id" db:"patient_id"`
	MedicationHistoryID *uuid.UUID `json:"medication_history_id" db:"medication_history_id"`
	MedicationChangeID  *uuid.UUID `json:"medication_change_id" db:"medication_change_id"`
	MonitoringPlanID    *uuid.UUID `json:"monitoring_plan_id" db:"monitoring_plan_id"`
	AnalysisID          *uuid.UUID `json:"analysis_id" db:"analysis_id"`
	FollowUpPlanID      *uuid.UUID `json:"follow_up_plan_id" db:"follow_up_plan_id"`
	ProgressNotes       string     `json:"progress_notes" db:"progress_notes"`
	Slug                string     `json:"slug" db:"slug"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`
}
