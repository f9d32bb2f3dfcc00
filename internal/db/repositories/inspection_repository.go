// inspection_repository.go provides database operations for inspections and
// their room/checklist children. Lifecycle writes take a *sqlx.Tx so the
// status transition and its derived artifacts share one unit of work.
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

// InspectionRepository handles inspection database operations.
type InspectionRepository struct {
	db *sqlx.DB
}

// NewInspectionRepository creates a new InspectionRepository.
func NewInspectionRepository(db *sqlx.DB) *InspectionRepository {
	return &InspectionRepository{db: db}
}

const inspectionColumns = `
	id, title, type, status, property_id, unit_id, assigned_to_id,
	completed_by_id, approved_by_id, rejected_by_id, findings, notes, tags,
	scheduled_date, completed_date, approved_at, rejected_at, rejection_reason,
	tenant_signature, report_id, recurring_inspection_id, created_at, updated_at`

// GetByID returns an inspection by its UUID, or nil if not found.
func (r *InspectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Inspection, error) {
	query := `SELECT` + inspectionColumns + `
		FROM inspections
		WHERE id = $1
	`

	var insp models.Inspection
	err := r.db.GetContext(ctx, &insp, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get inspection: %w", err)
	}

	return &insp, nil
}

// GetWithDetails returns an inspection together with its rooms and checklist
// items (both in sort order), or nil if the inspection does not exist.
func (r *InspectionRepository) GetWithDetails(ctx context.Context, id uuid.UUID) (*models.Inspection, error) {
	insp, err := r.GetByID(ctx, id)
	if err != nil || insp == nil {
		return insp, err
	}

	roomQuery := `
		SELECT id, inspection_id, name, sort_order
		FROM inspection_rooms
		WHERE inspection_id = $1
		ORDER BY sort_order, id
	`
	if err := r.db.SelectContext(ctx, &insp.Rooms, roomQuery, id); err != nil {
		return nil, fmt.Errorf("failed to load inspection rooms: %w", err)
	}

	itemQuery := `
		SELECT id, room_id, description, status, sort_order
		FROM inspection_checklist_items
		WHERE room_id = $1
		ORDER BY sort_order, id
	`
	for i := range insp.Rooms {
		if err := r.db.SelectContext(ctx, &insp.Rooms[i].ChecklistItems, itemQuery, insp.Rooms[i].ID); err != nil {
			return nil, fmt.Errorf("failed to load checklist items: %w", err)
		}
	}

	return insp, nil
}

// UpdateLifecycleTx persists the lifecycle-owned columns of an inspection
// inside the supplied transaction. It is the single writer used by the
// complete, approve, and reject transitions.
func (r *InspectionRepository) UpdateLifecycleTx(ctx context.Context, tx *sqlx.Tx, insp *models.Inspection) error {
	insp.UpdatedAt = time.Now()

	query := `
		UPDATE inspections
		SET status = $2,
		    assigned_to_id = $3,
		    completed_by_id = $4,
		    approved_by_id = $5,
		    rejected_by_id = $6,
		    findings = $7,
		    notes = $8,
		    tags = $9,
		    completed_date = $10,
		    approved_at = $11,
		    rejected_at = $12,
		    rejection_reason = $13,
		    tenant_signature = $14,
		    updated_at = $15
		WHERE id = $1
	`

	result, err := tx.ExecContext(ctx, query,
		insp.ID,
		insp.Status,
		insp.AssignedToID,
		insp.CompletedByID,
		insp.ApprovedByID,
		insp.RejectedByID,
		insp.Findings,
		insp.Notes,
		insp.Tags,
		insp.CompletedDate,
		insp.ApprovedAt,
		insp.RejectedAt,
		insp.RejectionReason,
		insp.TenantSignature,
		insp.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update inspection lifecycle fields: %w", err)
	}

	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return fmt.Errorf("inspection %s vanished during update", insp.ID)
	}

	return nil
}

// ExistsForSchedule reports whether an inspection materialized from the given
// recurring schedule already exists for the given due date. This is the
// generator's idempotency check.
func (r *InspectionRepository) ExistsForSchedule(ctx context.Context, scheduleID uuid.UUID, scheduledDate time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM inspections
			WHERE recurring_inspection_id = $1 AND scheduled_date = $2
		)
	`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, scheduleID, scheduledDate); err != nil {
		return false, fmt.Errorf("failed to check for existing scheduled inspection: %w", err)
	}

	return exists, nil
}

// CreateTx inserts a new inspection row inside the supplied transaction.
func (r *InspectionRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, insp *models.Inspection) error {
	if insp.ID == uuid.Nil {
		insp.ID = uuid.New()
	}
	now := time.Now()
	insp.CreatedAt = now
	insp.UpdatedAt = now
	if insp.Tags == nil {
		insp.Tags = []string{}
	}

	query := `
		INSERT INTO inspections (
			id, title, type, status, property_id, unit_id, assigned_to_id,
			findings, notes, tags, scheduled_date, recurring_inspection_id,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`

	_, err := tx.ExecContext(ctx, query,
		insp.ID,
		insp.Title,
		insp.Type,
		insp.Status,
		insp.PropertyID,
		insp.UnitID,
		insp.AssignedToID,
		insp.Findings,
		insp.Notes,
		insp.Tags,
		insp.ScheduledDate,
		insp.RecurringInspectionID,
		insp.CreatedAt,
		insp.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create inspection: %w", err)
	}

	return nil
}

// CreateRoomTx inserts an inspection room inside the supplied transaction.
func (r *InspectionRepository) CreateRoomTx(ctx context.Context, tx *sqlx.Tx, room *models.InspectionRoom) error {
	if room.ID == uuid.Nil {
		room.ID = uuid.New()
	}

	query := `
		INSERT INTO inspection_rooms (id, inspection_id, name, sort_order)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := tx.ExecContext(ctx, query, room.ID, room.InspectionID, room.Name, room.SortOrder); err != nil {
		return fmt.Errorf("failed to create inspection room: %w", err)
	}

	return nil
}

// CreateChecklistItemTx inserts a checklist item inside the supplied transaction.
func (r *InspectionRepository) CreateChecklistItemTx(ctx context.Context, tx *sqlx.Tx, item *models.InspectionChecklistItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.Status == "" {
		item.Status = models.ChecklistPending
	}

	query := `
		INSERT INTO inspection_checklist_items (id, room_id, description, status, sort_order)
		VALUES ($1, $2, $3, $4, $5)
	`

	if _, err := tx.ExecContext(ctx, query, item.ID, item.RoomID, item.Description, item.Status, item.SortOrder); err != nil {
		return fmt.Errorf("failed to create checklist item: %w", err)
	}

	return nil
}
