// Package models - artifact.go defines the follow-up artifacts created as a
// side effect of inspection completion: Jobs derived from parsed findings and
// Recommendations derived from failed checklist items.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Priority ranks follow-up work.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// JobStatus is the workflow state of a follow-up job.
type JobStatus string

const (
	JobOpen       JobStatus = "OPEN"
	JobInProgress JobStatus = "IN_PROGRESS"
	JobDone       JobStatus = "DONE"
	JobCancelled  JobStatus = "CANCELLED"
)

// RecommendationStatus is the workflow state of an owner recommendation.
type RecommendationStatus string

const (
	RecommendationSubmitted RecommendationStatus = "SUBMITTED"
	RecommendationAccepted  RecommendationStatus = "ACCEPTED"
	RecommendationDeclined  RecommendationStatus = "DECLINED"
	RecommendationDone      RecommendationStatus = "DONE"
)

// Job is a follow-up work item created 1:1 with a parsed finding. It always
// references the originating inspection.
type Job struct {
	ID           uuid.UUID `json:"id" db:"id"`
	InspectionID uuid.UUID `json:"inspection_id" db:"inspection_id"`
	Title        string    `json:"title" db:"title"`
	Description  string    `json:"description" db:"description"`
	Priority     Priority  `json:"priority" db:"priority"`
	Status       JobStatus `json:"status" db:"status"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Recommendation is a suggested remediation surfaced to property owners,
// created 1:1 with every FAILED checklist item. ReportID references the
// originating inspection's report when one exists.
type Recommendation struct {
	ID           uuid.UUID            `json:"id" db:"id"`
	InspectionID uuid.UUID            `json:"inspection_id" db:"inspection_id"`
	ReportID     *uuid.UUID           `json:"report_id,omitempty" db:"report_id"`
	Title        string               `json:"title" db:"title"`
	Description  string               `json:"description" db:"description"`
	Priority     Priority             `json:"priority" db:"priority"`
	Status       RecommendationStatus `json:"status" db:"status"`
	CreatedAt    time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at" db:"updated_at"`
}
