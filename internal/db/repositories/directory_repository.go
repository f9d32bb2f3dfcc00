// directory_repository.go provides read access to the people and property
// records the engine needs for notification routing: users, a property's
// manager, and the property's currently active owners.
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

// DirectoryRepository handles user and property lookups.
type DirectoryRepository struct {
	db *sqlx.DB
}

// NewDirectoryRepository creates a new DirectoryRepository.
func NewDirectoryRepository(db *sqlx.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

// GetUserByID returns a user by UUID, or nil if not found.
func (r *DirectoryRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `
		SELECT id, name, email, role, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// GetPropertyManager returns the manager of a property, or nil when the
// property has no manager assigned.
func (r *DirectoryRepository) GetPropertyManager(ctx context.Context, propertyID uuid.UUID) (*models.User, error) {
	query := `
		SELECT u.id, u.name, u.email, u.role, u.created_at, u.updated_at
		FROM users u
		JOIN properties p ON p.manager_id = u.id
		WHERE p.id = $1
	`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, propertyID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get property manager: %w", err)
	}

	return &user, nil
}

// ListActiveOwners returns the users whose ownership of the property is
// active as of the given instant (no end date, or an end date in the future).
func (r *DirectoryRepository) ListActiveOwners(ctx context.Context, propertyID uuid.UUID, asOf time.Time) ([]*models.User, error) {
	query := `
		SELECT u.id, u.name, u.email, u.role, u.created_at, u.updated_at
		FROM users u
		JOIN property_ownerships o ON o.owner_id = u.id
		WHERE o.property_id = $1
		  AND (o.end_date IS NULL OR o.end_date > $2)
		ORDER BY u.name
	`

	owners := make([]*models.User, 0)
	if err := r.db.SelectContext(ctx, &owners, query, propertyID, asOf); err != nil {
		return nil, fmt.Errorf("failed to list active property owners: %w", err)
	}

	return owners, nil
}
