// template_repository.go provides read access to inspection templates. The
// engine only ever reads templates: the generator deep-copies their rooms and
// checklist items into new inspections and never writes back.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/facilityhub/facilityhub/internal/db/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// TemplateRepository handles inspection template database operations.
type TemplateRepository struct {
	db *sqlx.DB
}

// NewTemplateRepository creates a new TemplateRepository.
func NewTemplateRepository(db *sqlx.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// GetWithRooms returns a template together with its rooms and checklist items
// (both in sort order), or nil if the template does not exist.
func (r *TemplateRepository) GetWithRooms(ctx context.Context, id uuid.UUID) (*models.InspectionTemplate, error) {
	query := `
		SELECT id, name, description, created_at, updated_at
		FROM inspection_templates
		WHERE id = $1
	`

	var tmpl models.InspectionTemplate
	err := r.db.GetContext(ctx, &tmpl, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get inspection template: %w", err)
	}

	roomQuery := `
		SELECT id, template_id, name, sort_order
		FROM template_rooms
		WHERE template_id = $1
		ORDER BY sort_order, id
	`
	if err := r.db.SelectContext(ctx, &tmpl.Rooms, roomQuery, id); err != nil {
		return nil, fmt.Errorf("failed to load template rooms: %w", err)
	}

	itemQuery := `
		SELECT id, room_id, description, sort_order
		FROM template_checklist_items
		WHERE room_id = $1
		ORDER BY sort_order, id
	`
	for i := range tmpl.Rooms {
		if err := r.db.SelectContext(ctx, &tmpl.Rooms[i].ChecklistItems, itemQuery, tmpl.Rooms[i].ID); err != nil {
			return nil, fmt.Errorf("failed to load template checklist items: %w", err)
		}
	}

	return &tmpl, nil
}
