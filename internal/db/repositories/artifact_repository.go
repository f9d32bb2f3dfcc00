// artifact_repository.go provides database operations for the follow-up
// artifacts created at inspection completion: jobs and recommendations. All
// creation paths take a *sqlx.Tx because artifacts only ever come into
// existence inside the completion unit of work.
package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/facilityhub/facilityhub/internal/db/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ArtifactRepository handles job and recommendation database operations.
type ArtifactRepository struct {
	db *sqlx.DB
}

// NewArtifactRepository creates a new ArtifactRepository.
func NewArtifactRepository(db *sqlx.DB) *ArtifactRepository {
	return &ArtifactRepository{db: db}
}

// CreateJobTx inserts a follow-up job inside the supplied transaction.
func (r *ArtifactRepository) CreateJobTx(ctx context.Context, tx *sqlx.Tx, job *models.Job) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	now := time.Now()
	job.CreatedAt = now
	job.UpdatedAt = now
	if job.Status == "" {
		job.Status = models.JobOpen
	}

	query := `
		INSERT INTO jobs (id, inspection_id, title, description, priority, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := tx.ExecContext(ctx, query,
		job.ID,
		job.InspectionID,
		job.Title,
		job.Description,
		job.Priority,
		job.Status,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

// CreateRecommendationTx inserts a recommendation inside the supplied transaction.
func (r *ArtifactRepository) CreateRecommendationTx(ctx context.Context, tx *sqlx.Tx, rec *models.Recommendation) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if rec.Status == "" {
		rec.Status = models.RecommendationSubmitted
	}

	query := `
		INSERT INTO recommendations (id, inspection_id, report_id, title, description, priority, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := tx.ExecContext(ctx, query,
		rec.ID,
		rec.InspectionID,
		rec.ReportID,
		rec.Title,
		rec.Description,
		rec.Priority,
		rec.Status,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create recommendation: %w", err)
	}

	return nil
}

// ListJobsByInspection returns all jobs originating from one inspection.
func (r *ArtifactRepository) ListJobsByInspection(ctx context.Context, inspectionID uuid.UUID) ([]*models.Job, error) {
	query := `
		SELECT id, inspection_id, title, description, priority, status, created_at, updated_at
		FROM jobs
		WHERE inspection_id = $1
		ORDER BY created_at
	`

	jobs := make([]*models.Job, 0)
	if err := r.db.SelectContext(ctx, &jobs, query, inspectionID); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	return jobs, nil
}

// ListRecommendationsByInspection returns all recommendations originating from one inspection.
func (r *ArtifactRepository) ListRecommendationsByInspection(ctx context.Context, inspectionID uuid.UUID) ([]*models.Recommendation, error) {
	query := `
		SELECT id, inspection_id, report_id, title, description, priority, status, created_at, updated_at
		FROM recommendations
		WHERE inspection_id = $1
		ORDER BY created_at
	`

	recs := make([]*models.Recommendation, 0)
	if err := r.db.SelectContext(ctx, &recs, query, inspectionID); err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}

	return recs, nil
}
