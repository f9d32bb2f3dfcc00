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

var userTestCols = []string{"id", "name", "email", "role", "created_at", "updated_at"}

func newDirectoryRepo(t *testing.T) (*DirectoryRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewDirectoryRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestDirectoryRepository_GetUserByID(t *testing.T) {
	repo, mock := newDirectoryRepo(t)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT.*FROM users`).WithArgs(id).
		WillReturnRows(mock.NewRows(userTestCols).
			AddRow(id, "Dana Whitfield", "dana@example.com", models.RoleTechnician, now, now))

	user, err := repo.GetUserByID(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user == nil || user.ID != id {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.Role != models.RoleTechnician {
		t.Errorf("role = %s, want TECHNICIAN", user.Role)
	}
}

func TestDirectoryRepository_GetUserByIDNotFound(t *testing.T) {
	repo, mock := newDirectoryRepo(t)

	mock.ExpectQuery(`SELECT.*FROM users`).
		WillReturnRows(mock.NewRows(userTestCols))

	user, err := repo.GetUserByID(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user != nil {
		t.Errorf("expected nil for missing user, got %+v", user)
	}
}

func TestDirectoryRepository_GetPropertyManagerNone(t *testing.T) {
	repo, mock := newDirectoryRepo(t)

	mock.ExpectQuery(`SELECT.*JOIN properties`).
		WillReturnRows(mock.NewRows(userTestCols))

	user, err := repo.GetPropertyManager(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user != nil {
		t.Errorf("expected nil for unmanaged property, got %+v", user)
	}
}

func TestDirectoryRepository_ListActiveOwners(t *testing.T) {
	repo, mock := newDirectoryRepo(t)
	propertyID := uuid.New()
	asOf := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	mock.ExpectQuery(`SELECT.*JOIN property_ownerships`).WithArgs(propertyID, asOf).
		WillReturnRows(mock.NewRows(userTestCols).
			AddRow(uuid.New(), "Alex Ortiz", "alex@example.com", models.RoleOwner, now, now).
			AddRow(uuid.New(), "Sam Pruitt", "sam@example.com", models.RoleOwner, now, now))

	owners, err := repo.ListActiveOwners(context.Background(), propertyID, asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(owners) != 2 {
		t.Fatalf("owners = %d, want 2", len(owners))
	}
	if owners[0].Name != "Alex Ortiz" {
		t.Errorf("unexpected ordering: %+v", owners[0])
	}
}

func TestDirectoryRepository_ListActiveOwnersEmpty(t *testing.T) {
	repo, mock := newDirectoryRepo(t)

	mock.ExpectQuery(`SELECT.*JOIN property_ownerships`).
		WillReturnRows(mock.NewRows(userTestCols))

	owners, err := repo.ListActiveOwners(context.Background(), uuid.New(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if owners == nil {
		t.Fatal("expected empty slice, not nil")
	}
}
