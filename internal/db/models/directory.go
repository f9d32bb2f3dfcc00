// Package models - directory.go defines the people and property records the
// engine reads for routing notifications: users, properties with their
// manager, units, and property ownership spans.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the caller role supplied by the upstream identity layer. Only
// TECHNICIAN changes completion semantics; every other role self-approves.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleManager    Role = "MANAGER"
	RoleTechnician Role = "TECHNICIAN"
	RoleOwner      Role = "OWNER"
)

// User is a directory entry used for assignment and notification routing.
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Role      Role      `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Property is the root of the property/unit hierarchy.
type Property struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	Address   string     `json:"address" db:"address"`
	ManagerID *uuid.UUID `json:"manager_id,omitempty" db:"manager_id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// Unit is a rentable unit within a property.
type Unit struct {
	ID         uuid.UUID `json:"id" db:"id"`
	PropertyID uuid.UUID `json:"property_id" db:"property_id"`
	Name       string    `json:"name" db:"name"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// PropertyOwnership records an ownership span. A span with no EndDate, or an
// EndDate in the future, is active: active owners receive recommendation
// notifications.
type PropertyOwnership struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	PropertyID uuid.UUID  `json:"property_id" db:"property_id"`
	OwnerID    uuid.UUID  `json:"owner_id" db:"owner_id"`
	StartDate  time.Time  `json:"start_date" db:"start_date"`
	EndDate    *time.Time `json:"end_date,omitempty" db:"end_date"`
}

// ActiveAt reports whether the ownership span covers the given instant.
func (o *PropertyOwnership) ActiveAt(t time.Time) bool {
	return o.EndDate == nil || o.EndDate.After(t)
}
