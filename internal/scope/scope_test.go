package scope

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestForIdentity_Organizer(t *testing.T) {
	orgID := uuid.New()
	id := Identity{
		UserID:         uuid.New(),
		OrganizationID: orgID,
		Role:           RoleOrganizer,
	}

	sc := ForIdentity(id)
	assert.Equal(t, orgID, sc.OrganizationID)
	assert.Nil(t, sc.StaffID, "organizer scope must cover the whole organization")
}

func TestForIdentity_StaffRoles(t *testing.T) {
	orgID := uuid.New()
	staffID := uuid.New()

	for _, role := range []Role{RoleAgent, RolePharmacist, RoleManagement} {
		id := Identity{
			UserID:         uuid.New(),
			OrganizationID: orgID,
			Role:           role,
			StaffID:        &staffID,
		}

		sc := ForIdentity(id)
		assert.Equal(t, orgID, sc.OrganizationID)
		if assert.NotNil(t, sc.StaffID, "staff role %s must be narrowed to its own record", role) {
			assert.Equal(t, staffID, *sc.StaffID)
		}
	}
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("pharmacist")
	assert.NoError(t, err)
	assert.Equal(t, RolePharmacist, r)

	_, err = ParseRole("superuser")
	assert.Error(t, err)

	_, err = ParseRole("")
	assert.Error(t, err)
}

func TestRolePredicates(t *testing.T) {
	assert.True(t, RoleOrganizer.Valid())
	assert.False(t, RoleOrganizer.StaffRole())
	assert.True(t, RoleAgent.StaffRole())
	assert.True(t, RoleManagement.StaffRole())
	assert.False(t, Role("admin").Valid())
}
