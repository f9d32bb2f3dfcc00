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

var jobCols = []string{"id", "inspection_id", "title", "description", "priority", "status", "created_at", "updated_at"}
var recommendationCols = []string{"id", "inspection_id", "report_id", "title", "description", "priority", "status", "created_at", "updated_at"}

func newArtifactRepo(t *testing.T) (*ArtifactRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewArtifactRepository(sqlx.NewDb(db, "sqlmock")), mock
}

// --- CreateJobTx ---

func TestArtifactRepository_CreateJobTxDefaultsStatusOpen(t *testing.T) {
	repo, mock := newArtifactRepo(t)
	job := &models.Job{
		InspectionID: uuid.New(),
		Title:        "Quarterly walkthrough - Follow-up 1",
		Description:  "URGENT: roof leak above unit 4",
		Priority:     models.PriorityUrgent,
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO jobs`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := repo.db.Beginx()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := repo.CreateJobTx(context.Background(), tx, job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if job.ID == uuid.Nil {
		t.Error("ID should be generated")
	}
	if job.Status != models.JobOpen {
		t.Errorf("status = %s, want OPEN", job.Status)
	}
	if job.CreatedAt.IsZero() || job.UpdatedAt.IsZero() {
		t.Error("timestamps should be stamped")
	}
}

// --- CreateRecommendationTx ---

func TestArtifactRepository_CreateRecommendationTxDefaultsStatusSubmitted(t *testing.T) {
	repo, mock := newArtifactRepo(t)
	rec := &models.Recommendation{
		InspectionID: uuid.New(),
		Title:        "Quarterly walkthrough: Kitchen - Sink drains freely",
		Description:  "Checklist item failed in Kitchen: Sink drains freely",
		Priority:     models.PriorityMedium,
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO recommendations`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := repo.db.Beginx()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := repo.CreateRecommendationTx(context.Background(), tx, rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if rec.Status != models.RecommendationSubmitted {
		t.Errorf("status = %s, want SUBMITTED", rec.Status)
	}
}

// --- Listings ---

func TestArtifactRepository_ListJobsByInspection(t *testing.T) {
	repo, mock := newArtifactRepo(t)
	inspectionID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT.*FROM jobs`).WithArgs(inspectionID).
		WillReturnRows(mock.NewRows(jobCols).
			AddRow(uuid.New(), inspectionID, "Follow-up 1", "fix leak", models.PriorityUrgent, models.JobOpen, now, now).
			AddRow(uuid.New(), inspectionID, "Follow-up 2", "replace pane", models.PriorityHigh, models.JobOpen, now, now))

	jobs, err := repo.ListJobsByInspection(context.Background(), inspectionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("jobs = %d, want 2", len(jobs))
	}
	if jobs[0].Priority != models.PriorityUrgent {
		t.Errorf("priority = %s, want URGENT", jobs[0].Priority)
	}
}

func TestArtifactRepository_ListJobsByInspectionEmpty(t *testing.T) {
	repo, mock := newArtifactRepo(t)

	mock.ExpectQuery(`SELECT.*FROM jobs`).
		WillReturnRows(mock.NewRows(jobCols))

	jobs, err := repo.ListJobsByInspection(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if jobs == nil {
		t.Fatal("expected empty slice, not nil")
	}
	if len(jobs) != 0 {
		t.Errorf("jobs = %d, want 0", len(jobs))
	}
}

func TestArtifactRepository_ListRecommendationsByInspection(t *testing.T) {
	repo, mock := newArtifactRepo(t)
	inspectionID := uuid.New()
	reportID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT.*FROM recommendations`).WithArgs(inspectionID).
		WillReturnRows(mock.NewRows(recommendationCols).
			AddRow(uuid.New(), inspectionID, reportID, "Kitchen - Sink drains freely", "Checklist item failed in Kitchen", models.PriorityMedium, models.RecommendationSubmitted, now, now))

	recs, err := repo.ListRecommendationsByInspection(context.Background(), inspectionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("recs = %d, want 1", len(recs))
	}
	if recs[0].ReportID == nil || *recs[0].ReportID != reportID {
		t.Errorf("report id not carried through: %+v", recs[0].ReportID)
	}
}
