package models

import (
	"time"

	"github.com/google/uuid"
)

// Lead is a sales prospect owned by one organization and optionally assigned
// to one staff record. If the staff member is removed the lead becomes
// unassigned, not deleted.
type Lead struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	OrganizationID  uuid.UUID  `json:"organization_id" db:"organization_id"`
	AssignedStaffID *uuid.UUID `json:"assigned_staff_id" db:"assigned_staff_id"`
	CategoryID      *uuid.UUID `json:"category_id" db:"category_id"`
	FirstName       string     `json:"first_name" db:"first_name"`
	LastName        string     `json:"last_name" db:"last_name"`
	Email           string     `json:"email" db:"email"`
	Phone           string     `json:"phone" db:"phone"`
	City            string     `json:"city" db:"city"`
	Notes           string     `json:"notes" db:"notes"`
	Slug            string     `json:"slug" db:"slug"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}
