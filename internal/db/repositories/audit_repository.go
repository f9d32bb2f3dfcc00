// audit_repository.go implements the append-only inspection audit trail.
// Audit writes are best-effort telemetry, not a correctness gate: RecordTx
// guards the insert with a savepoint so a failed audit write is rolled back
// and logged without poisoning the surrounding transaction.
package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/facilityhub/facilityhub/internal/db/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// AuditRepository handles audit log database operations.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// RecordTx appends an audit entry inside the supplied transaction. Failures
// are logged and swallowed: the entry is written under a savepoint, so an
// insert error rolls back only the audit write and the triggering operation
// proceeds untouched.
func (r *AuditRepository) RecordTx(ctx context.Context, tx *sqlx.Tx, entry *models.InspectionAuditLog) {
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now()

	var changesJSON []byte
	if entry.Changes != nil {
		var err error
		changesJSON, err = json.Marshal(entry.Changes)
		if err != nil {
			slog.Warn("audit: failed to marshal changes payload, skipping entry",
				"inspection_id", entry.InspectionID, "action", entry.Action, "error", err)
			return
		}
	}

	if _, err := tx.ExecContext(ctx, `SAVEPOINT audit_entry`); err != nil {
		slog.Warn("audit: failed to create savepoint, skipping entry",
			"inspection_id", entry.InspectionID, "action", entry.Action, "error", err)
		return
	}

	query := `
		INSERT INTO inspection_audit_logs (id, inspection_id, user_id, action, changes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := tx.ExecContext(ctx, query,
		entry.ID,
		entry.InspectionID,
		entry.UserID,
		entry.Action,
		changesJSON,
		entry.CreatedAt,
	)
	if err != nil {
		slog.Warn("audit: failed to write entry",
			"inspection_id", entry.InspectionID, "action", entry.Action, "error", err)
		if _, rbErr := tx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT audit_entry`); rbErr != nil {
			slog.Warn("audit: failed to roll back to savepoint", "error", rbErr)
		}
		return
	}

	if _, err := tx.ExecContext(ctx, `RELEASE SAVEPOINT audit_entry`); err != nil {
		slog.Warn("audit: failed to release savepoint", "error", err)
	}
}

// ListByInspection retrieves the audit trail of one inspection, newest first,
// with pagination. The total count covers all entries for the inspection.
func (r *AuditRepository) ListByInspection(ctx context.Context, inspectionID uuid.UUID, limit, offset int) ([]*models.InspectionAuditLog, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM inspection_audit_logs WHERE inspection_id = $1`
	if err := r.db.GetContext(ctx, &total, countQuery, inspectionID); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit entries: %w", err)
	}

	query := `
		SELECT id, inspection_id, user_id, action, changes, created_at
		FROM inspection_audit_logs
		WHERE inspection_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, inspectionID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.InspectionAuditLog, 0)
	for rows.Next() {
		entry := &models.InspectionAuditLog{}
		var changesJSON []byte

		err := rows.Scan(
			&entry.ID,
			&entry.InspectionID,
			&entry.UserID,
			&entry.Action,
			&changesJSON,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan audit entry: %w", err)
		}

		if changesJSON != nil {
			if err := json.Unmarshal(changesJSON, &entry.Changes); err != nil {
				return nil, 0, fmt.Errorf("failed to unmarshal audit changes: %w", err)
			}
		}

		entries = append(entries, entry)
	}

	return entries, total, rows.Err()
}
