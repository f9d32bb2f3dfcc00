// Package models - inspection.go defines the Inspection aggregate: the
// inspection record itself plus its ordered room and checklist item children.
// Status transitions are owned by the lifecycle service; repositories only
// persist what the service decides.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// InspectionStatus is the lifecycle state of an inspection.
//
// Valid transitions:
//
//	SCHEDULED → IN_PROGRESS → {PENDING_APPROVAL, COMPLETED}
//	PENDING_APPROVAL → COMPLETED (approve) | IN_PROGRESS (reject)
//	any non-terminal → CANCELLED
//
// COMPLETED and CANCELLED are terminal.
type InspectionStatus string

const (
	StatusScheduled       InspectionStatus = "SCHEDULED"
	StatusInProgress      InspectionStatus = "IN_PROGRESS"
	StatusPendingApproval InspectionStatus = "PENDING_APPROVAL"
	StatusCompleted       InspectionStatus = "COMPLETED"
	StatusCancelled       InspectionStatus = "CANCELLED"
)

// Terminal reports whether no further transitions are allowed from s.
func (s InspectionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// InspectionType categorizes why an inspection exists.
type InspectionType string

const (
	TypeRoutine    InspectionType = "ROUTINE"
	TypeMoveIn     InspectionType = "MOVE_IN"
	TypeMoveOut    InspectionType = "MOVE_OUT"
	TypeEmergency  InspectionType = "EMERGENCY"
	TypeCompliance InspectionType = "COMPLIANCE"
)

// ChecklistItemStatus is the outcome recorded for a single checklist item
// during the conduct-inspection workflow. FAILED items drive recommendation
// generation at completion time.
type ChecklistItemStatus string

const (
	ChecklistPending ChecklistItemStatus = "PENDING"
	ChecklistPassed  ChecklistItemStatus = "PASSED"
	ChecklistFailed  ChecklistItemStatus = "FAILED"
	ChecklistNA      ChecklistItemStatus = "NA"
)

// Inspection is the unit of work managed by the lifecycle engine.
type Inspection struct {
	ID                    uuid.UUID        `json:"id" db:"id"`
	Title                 string           `json:"title" db:"title"`
	Type                  InspectionType   `json:"type" db:"type"`
	Status                InspectionStatus `json:"status" db:"status"`
	PropertyID            uuid.UUID        `json:"property_id" db:"property_id"`
	UnitID                *uuid.UUID       `json:"unit_id,omitempty" db:"unit_id"`
	AssignedToID          uuid.UUID        `json:"assigned_to_id" db:"assigned_to_id"`
	CompletedByID         *uuid.UUID       `json:"completed_by_id,omitempty" db:"completed_by_id"`
	ApprovedByID          *uuid.UUID       `json:"approved_by_id,omitempty" db:"approved_by_id"`
	RejectedByID          *uuid.UUID       `json:"rejected_by_id,omitempty" db:"rejected_by_id"`
	Findings              string           `json:"findings" db:"findings"`
	Notes                 string           `json:"notes" db:"notes"`
	Tags                  pq.StringArray   `json:"tags" db:"tags"`
	ScheduledDate         time.Time        `json:"scheduled_date" db:"scheduled_date"`
	CompletedDate         *time.Time       `json:"completed_date,omitempty" db:"completed_date"`
	ApprovedAt            *time.Time       `json:"approved_at,omitempty" db:"approved_at"`
	RejectedAt            *time.Time       `json:"rejected_at,omitempty" db:"rejected_at"`
	RejectionReason       *string          `json:"rejection_reason,omitempty" db:"rejection_reason"`
	TenantSignature       *string          `json:"tenant_signature,omitempty" db:"tenant_signature"`
	ReportID              *uuid.UUID       `json:"report_id,omitempty" db:"report_id"`
	RecurringInspectionID *uuid.UUID       `json:"recurring_inspection_id,omitempty" db:"recurring_inspection_id"`
	CreatedAt             time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at" db:"updated_at"`

	// Populated by joins — not stored in columns
	Rooms []InspectionRoom `json:"rooms,omitempty" db:"-"`
}

// InspectionRoom is an ordered child record of an inspection.
type InspectionRoom struct {
	ID           uuid.UUID `json:"id" db:"id"`
	InspectionID uuid.UUID `json:"inspection_id" db:"inspection_id"`
	Name         string    `json:"name" db:"name"`
	SortOrder    int       `json:"sort_order" db:"sort_order"`

	// Populated by joins — not stored in columns
	ChecklistItems []InspectionChecklistItem `json:"checklist_items,omitempty" db:"-"`
}

// InspectionChecklistItem is a single check within a room.
type InspectionChecklistItem struct {
	ID          uuid.UUID           `json:"id" db:"id"`
	RoomID      uuid.UUID           `json:"room_id" db:"room_id"`
	Description string              `json:"description" db:"description"`
	Status      ChecklistItemStatus `json:"status" db:"status"`
	SortOrder   int                 `json:"sort_order" db:"sort_order"`
}
