// Package inspections implements the inspection lifecycle engine: the
// complete/approve/reject state machine, the finding parser, and follow-up
// artifact generation. The status transition and every artifact it derives
// commit in one database transaction; notifications go out only after that
// transaction commits.
package inspections

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/facilityhub/facilityhub/internal/db"
	"github.com/facilityhub/facilityhub/internal/db/models"
	"github.com/facilityhub/facilityhub/internal/db/repositories"
	"github.com/facilityhub/facilityhub/internal/notify"
	"github.com/facilityhub/facilityhub/internal/safego"
	"github.com/facilityhub/facilityhub/internal/telemetry"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// recommendationTitleLimit caps the checklist item excerpt embedded in a
// recommendation title.
const recommendationTitleLimit = 100

// Actor identifies the authenticated caller of a lifecycle operation.
type Actor struct {
	ID   uuid.UUID
	Role models.Role
}

// CompletionRequest carries the optional payload of a completion call. Nil
// pointer fields leave the stored value untouched.
type CompletionRequest struct {
	Findings       *string
	Notes          *string
	Tags           []string
	AutoCreateJobs bool
	PreviewOnly    bool
}

// CompletionResult reports the outcome of Complete. In preview mode the
// inspection reflects the would-be post-completion state and nothing is
// persisted.
type CompletionResult struct {
	Inspection      *models.Inspection       `json:"inspection"`
	Jobs            []*models.Job            `json:"jobs"`
	Recommendations []*models.Recommendation `json:"recommendations"`
	Preview         bool                     `json:"preview"`
}

// Service orchestrates inspection lifecycle transitions.
type Service struct {
	db          *sqlx.DB
	inspections *repositories.InspectionRepository
	artifacts   *repositories.ArtifactRepository
	audit       *repositories.AuditRepository
	directory   *repositories.DirectoryRepository
	dispatcher  *notify.Dispatcher
}

// NewService creates a lifecycle Service on top of the given database handle
// and notification dispatcher.
func NewService(database *sqlx.DB, dispatcher *notify.Dispatcher) *Service {
	return &Service{
		db:          database,
		inspections: repositories.NewInspectionRepository(database),
		artifacts:   repositories.NewArtifactRepository(database),
		audit:       repositories.NewAuditRepository(database),
		directory:   repositories.NewDirectoryRepository(database),
		dispatcher:  dispatcher,
	}
}

// Complete transitions an inspection to its completed state. The outcome
// depends on the actor's role: technicians land in PENDING_APPROVAL awaiting
// review, every other role lands in COMPLETED with the actor recorded as the
// approver. Follow-up jobs (from parsed findings, when requested) and
// recommendations (from FAILED checklist items, always) are created in the
// same transaction.
//
// With PreviewOnly set, the full derivation runs but nothing is written.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, actor Actor, req CompletionRequest) (*CompletionResult, error) {
	insp, err := s.inspections.GetWithDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	if insp == nil {
		return nil, ErrNotFound
	}
	if insp.Status.Terminal() {
		return nil, fmt.Errorf("%w: inspection is already %s", ErrInvalidState, insp.Status)
	}

	now := time.Now()
	prevStatus := insp.Status

	if req.Findings != nil {
		insp.Findings = *req.Findings
	}
	if req.Notes != nil {
		insp.Notes = *req.Notes
	}
	if req.Tags != nil {
		insp.Tags = pq.StringArray(req.Tags)
	}
	insp.CompletedDate = &now
	insp.CompletedByID = &actor.ID

	if actor.Role == models.RoleTechnician {
		insp.Status = models.StatusPendingApproval
	} else {
		insp.Status = models.StatusCompleted
		insp.ApprovedByID = &actor.ID
		insp.ApprovedAt = &now
	}

	jobs := deriveJobs(insp, req.AutoCreateJobs)
	recs := deriveRecommendations(insp)

	result := &CompletionResult{
		Inspection:      insp,
		Jobs:            jobs,
		Recommendations: recs,
		Preview:         req.PreviewOnly,
	}

	if req.PreviewOnly {
		return result, nil
	}

	err = db.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.inspections.UpdateLifecycleTx(ctx, tx, insp); err != nil {
			return err
		}

		s.audit.RecordTx(ctx, tx, &models.InspectionAuditLog{
			InspectionID: insp.ID,
			UserID:       &actor.ID,
			Action:       models.AuditCompleted,
			Changes: map[string]interface{}{
				"status_from": prevStatus,
				"status_to":   insp.Status,
				"role":        actor.Role,
			},
		})

		for _, job := range jobs {
			if err := s.artifacts.CreateJobTx(ctx, tx, job); err != nil {
				return err
			}
			s.audit.RecordTx(ctx, tx, &models.InspectionAuditLog{
				InspectionID: insp.ID,
				UserID:       &actor.ID,
				Action:       models.AuditJobCreated,
				Changes: map[string]interface{}{
					"job_id":   job.ID,
					"title":    job.Title,
					"priority": job.Priority,
				},
			})
		}

		for _, rec := range recs {
			if err := s.artifacts.CreateRecommendationTx(ctx, tx, rec); err != nil {
				return err
			}
			s.audit.RecordTx(ctx, tx, &models.InspectionAuditLog{
				InspectionID: insp.ID,
				UserID:       &actor.ID,
				Action:       models.AuditRecommendationCreated,
				Changes: map[string]interface{}{
					"recommendation_id": rec.ID,
					"title":             rec.Title,
				},
			})
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	telemetry.InspectionCompletionsTotal.WithLabelValues(string(insp.Status)).Inc()
	telemetry.FollowUpJobsCreatedTotal.Add(float64(len(jobs)))
	telemetry.RecommendationsCreatedTotal.Add(float64(len(recs)))

	s.notifyCompleted(ctx, insp, actor, jobs, recs)

	return result, nil
}

// Approve moves a PENDING_APPROVAL inspection to COMPLETED, stamping the
// approver. Any other starting status is rejected with ErrInvalidState.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, actor Actor) (*models.Inspection, error) {
	insp, err := s.inspections.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if insp == nil {
		return nil, ErrNotFound
	}
	if insp.Status != models.StatusPendingApproval {
		return nil, fmt.Errorf("%w: cannot approve inspection in status %s", ErrInvalidState, insp.Status)
	}

	now := time.Now()
	insp.Status = models.StatusCompleted
	insp.ApprovedByID = &actor.ID
	insp.ApprovedAt = &now
	insp.RejectedByID = nil
	insp.RejectedAt = nil
	insp.RejectionReason = nil

	err = db.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.inspections.UpdateLifecycleTx(ctx, tx, insp); err != nil {
			return err
		}
		s.audit.RecordTx(ctx, tx, &models.InspectionAuditLog{
			InspectionID: insp.ID,
			UserID:       &actor.ID,
			Action:       models.AuditApproved,
			Changes: map[string]interface{}{
				"status_from": models.StatusPendingApproval,
				"status_to":   models.StatusCompleted,
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	telemetry.InspectionApprovalsTotal.Inc()

	s.notifyApproved(ctx, insp)

	return insp, nil
}

// Reject sends a PENDING_APPROVAL inspection back to IN_PROGRESS with a
// reason, optionally reassigning it. Any other starting status is rejected
// with ErrInvalidState.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, actor Actor, reason string, reassignTo *uuid.UUID) (*models.Inspection, error) {
	insp, err := s.inspections.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if insp == nil {
		return nil, ErrNotFound
	}
	if insp.Status != models.StatusPendingApproval {
		return nil, fmt.Errorf("%w: cannot reject inspection in status %s", ErrInvalidState, insp.Status)
	}

	now := time.Now()
	insp.Status = models.StatusInProgress
	insp.RejectedByID = &actor.ID
	insp.RejectedAt = &now
	insp.RejectionReason = &reason
	insp.ApprovedByID = nil
	insp.ApprovedAt = nil
	insp.CompletedDate = nil
	if reassignTo != nil {
		insp.AssignedToID = *reassignTo
	}

	changes := map[string]interface{}{
		"status_from": models.StatusPendingApproval,
		"status_to":   models.StatusInProgress,
		"reason":      reason,
	}
	if reassignTo != nil {
		changes["reassigned_to"] = *reassignTo
	}

	err = db.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.inspections.UpdateLifecycleTx(ctx, tx, insp); err != nil {
			return err
		}
		s.audit.RecordTx(ctx, tx, &models.InspectionAuditLog{
			InspectionID: insp.ID,
			UserID:       &actor.ID,
			Action:       models.AuditRejected,
			Changes:      changes,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	telemetry.InspectionRejectionsTotal.Inc()

	s.notifyRejected(ctx, insp, reason)

	return insp, nil
}

// AddSignature records a tenant signature on a move-in or move-out
// inspection. Other inspection types have no signature workflow.
func (s *Service) AddSignature(ctx context.Context, id uuid.UUID, actor Actor, signature string) (*models.Inspection, error) {
	insp, err := s.inspections.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if insp == nil {
		return nil, ErrNotFound
	}
	if insp.Type != models.TypeMoveIn && insp.Type != models.TypeMoveOut {
		return nil, fmt.Errorf("%w: signatures apply only to move-in and move-out inspections", ErrInvalidState)
	}

	insp.TenantSignature = &signature

	err = db.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.inspections.UpdateLifecycleTx(ctx, tx, insp); err != nil {
			return err
		}
		s.audit.RecordTx(ctx, tx, &models.InspectionAuditLog{
			InspectionID: insp.ID,
			UserID:       &actor.ID,
			Action:       models.AuditSignatureAdded,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return insp, nil
}

// Get returns an inspection with its rooms and checklist items.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Inspection, error) {
	insp, err := s.inspections.GetWithDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	if insp == nil {
		return nil, ErrNotFound
	}
	return insp, nil
}

// Jobs returns the follow-up jobs created from one inspection.
func (s *Service) Jobs(ctx context.Context, id uuid.UUID) ([]*models.Job, error) {
	insp, err := s.inspections.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if insp == nil {
		return nil, ErrNotFound
	}
	return s.artifacts.ListJobsByInspection(ctx, id)
}

// Recommendations returns the recommendations created from one inspection.
func (s *Service) Recommendations(ctx context.Context, id uuid.UUID) ([]*models.Recommendation, error) {
	insp, err := s.inspections.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if insp == nil {
		return nil, ErrNotFound
	}
	return s.artifacts.ListRecommendationsByInspection(ctx, id)
}

// AuditTrail returns the audit entries of one inspection, newest first.
func (s *Service) AuditTrail(ctx context.Context, id uuid.UUID, limit, offset int) ([]*models.InspectionAuditLog, int, error) {
	insp, err := s.inspections.GetByID(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	if insp == nil {
		return nil, 0, ErrNotFound
	}
	return s.audit.ListByInspection(ctx, id, limit, offset)
}

// deriveJobs parses the findings text into follow-up jobs. Jobs are numbered
// in finding order starting at 1.
func deriveJobs(insp *models.Inspection, autoCreate bool) []*models.Job {
	jobs := make([]*models.Job, 0)
	if !autoCreate || insp.Findings == "" {
		return jobs
	}

	for i, finding := range ParseFindings(insp.Findings) {
		jobs = append(jobs, &models.Job{
			InspectionID: insp.ID,
			Title:        fmt.Sprintf("%s - Follow-up %d", insp.Title, i+1),
			Description:  finding.Description,
			Priority:     finding.Priority,
			Status:       models.JobOpen,
		})
	}

	return jobs
}

// deriveRecommendations creates one recommendation per FAILED checklist item,
// walking rooms and items in sort order.
func deriveRecommendations(insp *models.Inspection) []*models.Recommendation {
	recs := make([]*models.Recommendation, 0)

	for _, room := range insp.Rooms {
		for _, item := range room.ChecklistItems {
			if item.Status != models.ChecklistFailed {
				continue
			}
			recs = append(recs, &models.Recommendation{
				InspectionID: insp.ID,
				ReportID:     insp.ReportID,
				Title:        fmt.Sprintf("%s: %s - %s", insp.Title, room.Name, truncate(item.Description, recommendationTitleLimit)),
				Description:  fmt.Sprintf("Checklist item failed in %s: %s", room.Name, item.Description),
				Priority:     models.PriorityMedium,
				Status:       models.RecommendationSubmitted,
			})
		}
	}

	return recs
}

// truncate cuts s to at most limit runes, never splitting a multi-byte rune.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// notifyCompleted resolves recipients and dispatches completion and
// recommendation notifications in the background. Recipient lookups and
// delivery are best-effort: failures are logged, never surfaced.
func (s *Service) notifyCompleted(ctx context.Context, insp *models.Inspection, actor Actor, jobs []*models.Job, recs []*models.Recommendation) {
	actorUser, err := s.directory.GetUserByID(ctx, actor.ID)
	if err != nil || actorUser == nil {
		if err != nil {
			slog.Warn("notify: failed to resolve actor", "user_id", actor.ID, "error", err)
		}
		actorUser = &models.User{ID: actor.ID, Name: "Unknown user", Role: actor.Role}
	}

	manager, err := s.directory.GetPropertyManager(ctx, insp.PropertyID)
	if err != nil {
		slog.Warn("notify: failed to resolve property manager", "property_id", insp.PropertyID, "error", err)
	}

	var owners []notify.Recipient
	if len(recs) > 0 {
		ownerUsers, err := s.directory.ListActiveOwners(ctx, insp.PropertyID, time.Now())
		if err != nil {
			slog.Warn("notify: failed to resolve property owners", "property_id", insp.PropertyID, "error", err)
		}
		for _, u := range ownerUsers {
			owners = append(owners, notify.Recipient{Name: u.Name, Email: u.Email})
		}
	}

	safego.Go(func() {
		bg := context.Background()

		var mgr *notify.Recipient
		if manager != nil {
			mgr = &notify.Recipient{Name: manager.Name, Email: manager.Email}
		}
		s.dispatcher.DispatchCompleted(bg, notify.InspectionCompleted{
			Inspection:  insp,
			Actor:       actorUser,
			CreatedJobs: jobs,
			Manager:     mgr,
		})

		for _, rec := range recs {
			s.dispatcher.DispatchRecommendation(bg, notify.RecommendationCreated{
				Inspection:     insp,
				Recommendation: rec,
				Owners:         owners,
			})
		}
	})
}

func (s *Service) notifyApproved(ctx context.Context, insp *models.Inspection) {
	assignee, err := s.directory.GetUserByID(ctx, insp.AssignedToID)
	if err != nil {
		slog.Warn("notify: failed to resolve assignee", "user_id", insp.AssignedToID, "error", err)
	}

	safego.Go(func() {
		var to *notify.Recipient
		if assignee != nil {
			to = &notify.Recipient{Name: assignee.Name, Email: assignee.Email}
		}
		s.dispatcher.DispatchApproved(context.Background(), notify.InspectionApproved{
			Inspection: insp,
			Assignee:   to,
		})
	})
}

func (s *Service) notifyRejected(ctx context.Context, insp *models.Inspection, reason string) {
	owner, err := s.directory.GetUserByID(ctx, insp.AssignedToID)
	if err != nil {
		slog.Warn("notify: failed to resolve inspection owner", "user_id", insp.AssignedToID, "error", err)
	}

	safego.Go(func() {
		var to *notify.Recipient
		if owner != nil {
			to = &notify.Recipient{Name: owner.Name, Email: owner.Email}
		}
		s.dispatcher.DispatchRejected(context.Background(), notify.InspectionRejected{
			Inspection: insp,
			Reason:     reason,
			Owner:      to,
		})
	})
}
