// Package models - template.go defines read-only inspection blueprints.
// Template rooms and checklist items are deep-copied into new inspections by
// the recurring generator; templates themselves are never mutated by the engine.
package models

import (
	"time"

	"github.com/google/uuid"
)

// InspectionTemplate is a reusable room/checklist blueprint.
type InspectionTemplate struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	// Populated by joins — not stored in columns
	Rooms []TemplateRoom `json:"rooms,omitempty" db:"-"`
}

// TemplateRoom is an ordered room within a template.
type TemplateRoom struct {
	ID         uuid.UUID `json:"id" db:"id"`
	TemplateID uuid.UUID `json:"template_id" db:"template_id"`
	Name       string    `json:"name" db:"name"`
	SortOrder  int       `json:"sort_order" db:"sort_order"`

	// Populated by joins — not stored in columns
	ChecklistItems []TemplateChecklistItem `json:"checklist_items,omitempty" db:"-"`
}

// TemplateChecklistItem is an ordered check within a template room.
type TemplateChecklistItem struct {
	ID          uuid.UUID `json:"id" db:"id"`
	RoomID      uuid.UUID `json:"room_id" db:"room_id"`
	Description string    `json:"description" db:"description"`
	SortOrder   int       `json:"sort_order" db:"sort_order"`
}
