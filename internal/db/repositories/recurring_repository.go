// recurring_repository.go provides database operations for recurrence
// schedules: selecting due schedules for a generation pass and advancing a
// schedule after its due date has been materialized (or found already
// materialized).
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/facilityhub/facilityhub/internal/db/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// RecurringInspectionRepository handles recurrence schedule database operations.
type RecurringInspectionRepository struct {
	db *sqlx.DB
}

// NewRecurringInspectionRepository creates a new RecurringInspectionRepository.
func NewRecurringInspectionRepository(db *sqlx.DB) *RecurringInspectionRepository {
	return &RecurringInspectionRepository{db: db}
}

const recurringColumns = `
	id, title, frequency, interval, day_of_month, day_of_week,
	next_due_date, last_generated_date, end_date, is_active,
	template_id, property_id, unit_id, assigned_to_id, created_at, updated_at`

// GetByID returns a schedule by its UUID, or nil if not found.
func (r *RecurringInspectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.RecurringInspection, error) {
	query := `SELECT` + recurringColumns + `
		FROM recurring_inspections
		WHERE id = $1
	`

	var schedule models.RecurringInspection
	err := r.db.GetContext(ctx, &schedule, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recurring inspection: %w", err)
	}

	return &schedule, nil
}

// ListDue returns all active schedules whose next due date falls within the
// horizon and whose end date (when set) has not yet passed, ordered by due
// date so older backlogs are processed first.
func (r *RecurringInspectionRepository) ListDue(ctx context.Context, horizon, now time.Time) ([]*models.RecurringInspection, error) {
	query := `SELECT` + recurringColumns + `
		FROM recurring_inspections
		WHERE is_active
		  AND next_due_date <= $1
		  AND (end_date IS NULL OR end_date > $2)
		ORDER BY next_due_date
	`

	schedules := make([]*models.RecurringInspection, 0)
	if err := r.db.SelectContext(ctx, &schedules, query, horizon, now); err != nil {
		return nil, fmt.Errorf("failed to list due recurring inspections: %w", err)
	}

	return schedules, nil
}

// AdvanceTx moves a schedule forward inside the supplied transaction:
// nextDueDate and lastGeneratedDate are always persisted, and isActive=false
// permanently deactivates a schedule whose next occurrence would fall past
// its end date.
func (r *RecurringInspectionRepository) AdvanceTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, nextDueDate, lastGeneratedDate time.Time, isActive bool) error {
	query := `
		UPDATE recurring_inspections
		SET next_due_date = $2,
		    last_generated_date = $3,
		    is_active = $4,
		    updated_at = $5
		WHERE id = $1
	`

	_, err := tx.ExecContext(ctx, query, id, nextDueDate, lastGeneratedDate, isActive, time.Now())
	if err != nil {
		return fmt.Errorf("failed to advance recurring inspection: %w", err)
	}

	return nil
}
