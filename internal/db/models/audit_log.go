// Package models - audit_log.go defines the append-only audit trail for
// inspection lifecycle events, capturing actor, action, and a structured
// changes payload. Entries are never updated or deleted.
package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction identifies the lifecycle event an audit entry records.
type AuditAction string

const (
	AuditCompleted             AuditAction = "COMPLETED"
	AuditApproved              AuditAction = "APPROVED"
	AuditRejected              AuditAction = "REJECTED"
	AuditJobCreated            AuditAction = "JOB_CREATED"
	AuditRecommendationCreated AuditAction = "RECOMMENDATION_CREATED"
	AuditSignatureAdded        AuditAction = "SIGNATURE_ADDED"
)

// InspectionAuditLog is one append-only audit entry.
type InspectionAuditLog struct {
	ID           uuid.UUID              `json:"id" db:"id"`
	InspectionID uuid.UUID              `json:"inspection_id" db:"inspection_id"`
	UserID       *uuid.UUID             `json:"user_id,omitempty" db:"user_id"` // nil for system-originated entries
	Action       AuditAction            `json:"action" db:"action"`
	Changes      map[string]interface{} `json:"changes,omitempty" db:"-"` // JSONB: before/after or action payload
	CreatedAt    time.Time              `json:"created_at" db:"created_at"`
}
