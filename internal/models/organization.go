package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization is the tenant boundary. Exactly one exists per organizer user
// and it is created in the same transaction as the user account.
type Organization struct {
	ID          uuid.UUID `json:"id" db:"id"`
	OwnerUserID uuid.UUID `json:"owner_user_id" db:"owner_user_id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
