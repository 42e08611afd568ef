package scope

import (
	"fmt"

	"github.com/google/uuid"
)

// Role is the closed set of account roles. Every user carries exactly one.
type Role string

const (
	RoleOrganizer  Role = "organizer"
	RoleAgent      Role = "agent"
	RolePharmacist Role = "pharmacist"
	RoleManagement Role = "management"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOrganizer, RoleAgent, RolePharmacist, RoleManagement:
		return true
	}
	return false
}

// StaffRole reports whether r is a staff role (everything except organizer).
func (r Role) StaffRole() bool {
	return r.Valid() && r != RoleOrganizer
}

// ParseRole converts a stored role string back into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Identity is the authenticated caller: the user account, the organization it
// belongs to, its role, and (for staff roles) the staff record backing it.
// StaffID is nil exactly when Role is RoleOrganizer.
type Identity struct {
	UserID         uuid.UUID  `json:"user_id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	Role           Role       `json:"role"`
	StaffID        *uuid.UUID `json:"staff_id,omitempty"`
}

// Scope is the row-visibility filter every repository query is keyed by.
// A nil StaffID grants the whole organization (organizer); a non-nil StaffID
// narrows visibility to rows assigned to that staff record.
type Scope struct {
	OrganizationID uuid.UUID
	StaffID        *uuid.UUID
}

// ForIdentity derives the access scope from an identity. This is the single
// place the visibility policy lives: organizers see their whole organization,
// staff roles see only rows assigned to their own staff record.
func ForIdentity(id Identity) Scope {
	if id.Role == RoleOrganizer {
		return Scope{OrganizationID: id.OrganizationID}
	}
	return Scope{OrganizationID: id.OrganizationID, StaffID: id.StaffID}
}

// Organization returns an organizer-level scope for org. Used by background
// jobs that walk an organization's rows outside a request.
func Organization(orgID uuid.UUID) Scope {
	return Scope{OrganizationID: orgID}
}
