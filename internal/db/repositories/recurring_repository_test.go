package repositories

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/facilityhub/facilityhub/internal/db/models"
)

var recurringTestCols = []string{
	"id", "title", "frequency", "interval", "day_of_month", "day_of_week",
	"next_due_date", "last_generated_date", "end_date", "is_active",
	"template_id", "property_id", "unit_id", "assigned_to_id", "created_at", "updated_at",
}

func newRecurringRepo(t *testing.T) (*RecurringInspectionRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewRecurringInspectionRepository(sqlx.NewDb(db, "sqlmock")), mock
}

// --- GetByID ---

func TestRecurringRepository_GetByID(t *testing.T) {
	repo, mock := newRecurringRepo(t)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT.*FROM recurring_inspections`).WithArgs(id).
		WillReturnRows(mock.NewRows(recurringTestCols).AddRow(
			id, "Monthly boiler check", models.FrequencyMonthly, 1, nil, nil,
			now, nil, nil, true,
			nil, uuid.New(), nil, uuid.New(), now, now,
		))

	schedule, err := repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if schedule == nil || schedule.ID != id {
		t.Fatalf("unexpected schedule: %+v", schedule)
	}
	if schedule.Frequency != models.FrequencyMonthly {
		t.Errorf("frequency = %s, want MONTHLY", schedule.Frequency)
	}
}

func TestRecurringRepository_GetByIDNotFound(t *testing.T) {
	repo, mock := newRecurringRepo(t)

	mock.ExpectQuery(`SELECT.*FROM recurring_inspections`).
		WillReturnRows(mock.NewRows(recurringTestCols))

	schedule, err := repo.GetByID(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if schedule != nil {
		t.Errorf("expected nil for missing schedule, got %+v", schedule)
	}
}

// --- ListDue ---

func TestRecurringRepository_ListDue(t *testing.T) {
	repo, mock := newRecurringRepo(t)
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	horizon := now.AddDate(0, 0, 7)

	mock.ExpectQuery(`SELECT.*FROM recurring_inspections`).WithArgs(horizon, now).
		WillReturnRows(mock.NewRows(recurringTestCols).AddRow(
			uuid.New(), "Weekly stairwell check", models.FrequencyWeekly, 1, nil, 5,
			now.AddDate(0, 0, 2), nil, nil, true,
			nil, uuid.New(), nil, uuid.New(), now, now,
		))

	schedules, err := repo.ListDue(context.Background(), horizon, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(schedules) != 1 {
		t.Fatalf("schedules = %d, want 1", len(schedules))
	}
	if schedules[0].DayOfWeek == nil || *schedules[0].DayOfWeek != 5 {
		t.Errorf("day_of_week not scanned: %+v", schedules[0].DayOfWeek)
	}
}

func TestRecurringRepository_ListDueEmpty(t *testing.T) {
	repo, mock := newRecurringRepo(t)

	mock.ExpectQuery(`SELECT.*FROM recurring_inspections`).
		WillReturnRows(mock.NewRows(recurringTestCols))

	schedules, err := repo.ListDue(context.Background(), time.Now(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if schedules == nil {
		t.Fatal("expected empty slice, not nil")
	}
}

// --- AdvanceTx ---

func TestRecurringRepository_AdvanceTx(t *testing.T) {
	repo, mock := newRecurringRepo(t)
	id := uuid.New()
	next := time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)
	last := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE recurring_inspections`).
		WithArgs(id, next, last, false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := repo.db.Beginx()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := repo.AdvanceTx(context.Background(), tx, id, next, last, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
