package repositories

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var templateCols = []string{"id", "name", "description", "created_at", "updated_at"}

func newTemplateRepo(t *testing.T) (*TemplateRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewTemplateRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestTemplateRepository_GetWithRooms(t *testing.T) {
	repo, mock := newTemplateRepo(t)
	id := uuid.New()
	roomID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT.*FROM inspection_templates`).WithArgs(id).
		WillReturnRows(mock.NewRows(templateCols).
			AddRow(id, "Standard unit", "Default move-in template", now, now))
	mock.ExpectQuery(`SELECT.*FROM template_rooms`).WithArgs(id).
		WillReturnRows(mock.NewRows([]string{"id", "template_id", "name", "sort_order"}).
			AddRow(roomID, id, "Living room", 0))
	mock.ExpectQuery(`SELECT.*FROM template_checklist_items`).WithArgs(roomID).
		WillReturnRows(mock.NewRows([]string{"id", "room_id", "description", "sort_order"}).
			AddRow(uuid.New(), roomID, "Windows open and close", 0))

	tmpl, err := repo.GetWithRooms(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tmpl.Rooms) != 1 || len(tmpl.Rooms[0].ChecklistItems) != 1 {
		t.Fatalf("unexpected shape: %+v", tmpl)
	}
	if tmpl.Rooms[0].ChecklistItems[0].Description != "Windows open and close" {
		t.Errorf("unexpected item: %+v", tmpl.Rooms[0].ChecklistItems[0])
	}
}

func TestTemplateRepository_GetWithRoomsNotFound(t *testing.T) {
	repo, mock := newTemplateRepo(t)

	mock.ExpectQuery(`SELECT.*FROM inspection_templates`).
		WillReturnRows(mock.NewRows(templateCols))

	tmpl, err := repo.GetWithRooms(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tmpl != nil {
		t.Errorf("expected nil for missing template, got %+v", tmpl)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("room query should not run for a missing template: %v", err)
	}
}
