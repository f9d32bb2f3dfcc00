// Package models - recurring_inspection.go defines the recurrence schedule
// that periodically materializes inspection instances.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Frequency is the recurrence cadence of a schedule.
type Frequency string

const (
	FrequencyDaily     Frequency = "DAILY"
	FrequencyWeekly    Frequency = "WEEKLY"
	FrequencyMonthly   Frequency = "MONTHLY"
	FrequencyQuarterly Frequency = "QUARTERLY"
	FrequencyYearly    Frequency = "YEARLY"
)

// RecurringInspection is a recurrence definition. While IsActive, NextDueDate
// is always the earliest not-yet-materialized occurrence. Once NextDueDate
// would exceed EndDate the schedule is deactivated permanently.
type RecurringInspection struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	Title             string     `json:"title" db:"title"`
	Frequency         Frequency  `json:"frequency" db:"frequency"`
	Interval          int        `json:"interval" db:"interval"`
	DayOfMonth        *int       `json:"day_of_month,omitempty" db:"day_of_month"`
	DayOfWeek         *int       `json:"day_of_week,omitempty" db:"day_of_week"`
	NextDueDate       time.Time  `json:"next_due_date" db:"next_due_date"`
	LastGeneratedDate *time.Time `json:"last_generated_date,omitempty" db:"last_generated_date"`
	EndDate           *time.Time `json:"end_date,omitempty" db:"end_date"`
	IsActive          bool       `json:"is_active" db:"is_active"`
	TemplateID        *uuid.UUID `json:"template_id,omitempty" db:"template_id"`
	PropertyID        uuid.UUID  `json:"property_id" db:"property_id"`
	UnitID            *uuid.UUID `json:"unit_id,omitempty" db:"unit_id"`
	AssignedToID      uuid.UUID  `json:"assigned_to_id" db:"assigned_to_id"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}
