package models

import (
	"time"

	"github.com/google/uuid"
)

// Attendance records one staff member's presence for one day. Reference is a
// 32-hex code generated once and kept across saves.
type Attendance struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	OrganizationID  uuid.UUID  `json:"organization_id" db:"organization_id"`
	AssignedStaffID *uuid.UUID `json:"assigned_staff_id" db:"assigned_staff_id"`
	Date            time.Time  `json:"date" db:"date"`
	CheckIn         *time.Time `json:"check_in" db:"check_in"`
	CheckOut        *time.Time `json:"check_out" db:"check_out"`
	Reference       string     `json:"reference" db:"reference"`
	Slug            string     `json:"slug" db:"slug"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}
