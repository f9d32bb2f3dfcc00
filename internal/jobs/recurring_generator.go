// recurring_generator.go implements the RecurringInspectionGenerator background
// job, which periodically materializes inspection instances from recurrence
// schedules. Each pass selects every active schedule due within the lookahead
// horizon, creates the missing inspection (deep-copying the template's rooms
// and checklist items when the schedule has one), and advances the schedule's
// next due date. A pass is idempotent: an occurrence that already exists is
// skipped and the schedule is still advanced, so re-runs and manual triggers
// are always safe. One broken schedule never stops the rest of the pass.
package jobs

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/facilityhub/facilityhub/internal/config"
	"github.com/facilityhub/facilityhub/internal/db"
	"github.com/facilityhub/facilityhub/internal/db/models"
	"github.com/facilityhub/facilityhub/internal/db/repositories"
	"github.com/facilityhub/facilityhub/internal/recurrence"
	"github.com/facilityhub/facilityhub/internal/telemetry"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
)

// ErrPassInProgress is returned by RunOnce when another generation pass
// already holds the invocation lock.
var ErrPassInProgress = errors.New("a generation pass is already in progress")

// RecurringInspectionGenerator periodically materializes inspections from
// recurrence schedules.
type RecurringInspectionGenerator struct {
	db            *sqlx.DB
	schedules     *repositories.RecurringInspectionRepository
	inspections   *repositories.InspectionRepository
	templates     *repositories.TemplateRepository
	lock          Locker
	interval      time.Duration
	lookaheadDays int
	stopChan      chan struct{}
	now           func() time.Time
}

// NewRecurringInspectionGenerator creates a new RecurringInspectionGenerator.
func NewRecurringInspectionGenerator(database *sqlx.DB, cfg *config.RecurrenceConfig) *RecurringInspectionGenerator {
	hours := cfg.CheckIntervalHours
	if hours <= 0 {
		hours = 24
	}
	return &RecurringInspectionGenerator{
		db:            database,
		schedules:     repositories.NewRecurringInspectionRepository(database),
		inspections:   repositories.NewInspectionRepository(database),
		templates:     repositories.NewTemplateRepository(database),
		lock:          NewLocker(&cfg.Lock),
		interval:      time.Duration(hours) * time.Hour,
		lookaheadDays: cfg.LookaheadDays,
		stopChan:      make(chan struct{}),
		now:           time.Now,
	}
}

// Start begins the background generation loop. It runs an initial pass
// immediately, then repeats on the configured interval. The loop exits when
// ctx is cancelled or Stop() is called.
func (g *RecurringInspectionGenerator) Start(ctx context.Context) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	log.Printf("Recurring inspection generator started (interval: %v, lookahead: %d days)",
		g.interval, g.lookaheadDays)

	// Run once immediately on startup
	g.runPass(ctx)

	for {
		select {
		case <-ticker.C:
			g.runPass(ctx)
		case <-g.stopChan:
			log.Println("Recurring inspection generator stopped")
			return
		case <-ctx.Done():
			log.Println("Recurring inspection generator context cancelled")
			return
		}
	}
}

// Stop signals the background loop to exit.
func (g *RecurringInspectionGenerator) Stop() {
	close(g.stopChan)
}

// runPass wraps RunOnce for the scheduled loop, logging instead of returning.
func (g *RecurringInspectionGenerator) runPass(ctx context.Context) {
	created, err := g.RunOnce(ctx)
	if err != nil {
		if errors.Is(err, ErrPassInProgress) {
			log.Println("Recurring generator: skipping scheduled pass, another pass is running")
			return
		}
		log.Printf("Recurring generator: pass failed: %v", err)
		return
	}
	if created > 0 {
		log.Printf("Recurring generator: pass created %d inspection(s)", created)
	}
}

// RunOnce executes a single generation pass and returns the number of
// inspections created. It is the shared implementation behind the scheduled
// loop and the manual trigger endpoint.
func (g *RecurringInspectionGenerator) RunOnce(ctx context.Context) (int, error) {
	release, ok := g.lock.TryLock(ctx)
	if !ok {
		return 0, ErrPassInProgress
	}
	defer release()

	timer := prometheus.NewTimer(telemetry.RecurringGenerationDuration)
	defer timer.ObserveDuration()

	now := g.now()
	horizon := now.AddDate(0, 0, g.lookaheadDays)

	schedules, err := g.schedules.ListDue(ctx, horizon, now)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, schedule := range schedules {
		n, err := g.processSchedule(ctx, schedule, now)
		if err != nil {
			telemetry.RecurringGenerationErrorsTotal.WithLabelValues(schedule.ID.String()).Inc()
			log.Printf("Recurring generator: schedule %s failed: %v", schedule.ID, err)
			continue
		}
		created += n
	}

	telemetry.RecurringInspectionsGeneratedTotal.Add(float64(created))
	return created, nil
}

// processSchedule materializes one schedule's current due date and advances
// the schedule, in a single transaction. Returns 1 when an inspection was
// created, 0 when the occurrence already existed.
func (g *RecurringInspectionGenerator) processSchedule(ctx context.Context, schedule *models.RecurringInspection, now time.Time) (int, error) {
	exists, err := g.inspections.ExistsForSchedule(ctx, schedule.ID, schedule.NextDueDate)
	if err != nil {
		return 0, err
	}

	var tmpl *models.InspectionTemplate
	if !exists && schedule.TemplateID != nil {
		tmpl, err = g.templates.GetWithRooms(ctx, *schedule.TemplateID)
		if err != nil {
			return 0, err
		}
		if tmpl == nil {
			log.Printf("Recurring generator: schedule %s references missing template %s, creating without checklist",
				schedule.ID, *schedule.TemplateID)
		}
	}

	next := recurrence.Next(schedule.Frequency, schedule.Interval, schedule.NextDueDate, schedule.DayOfMonth, schedule.DayOfWeek)
	active := schedule.EndDate == nil || !next.After(*schedule.EndDate)

	created := 0
	err = db.RunInTx(ctx, g.db, func(tx *sqlx.Tx) error {
		if !exists {
			insp := &models.Inspection{
				Title:                 schedule.Title,
				Type:                  models.TypeRoutine,
				Status:                models.StatusScheduled,
				PropertyID:            schedule.PropertyID,
				UnitID:                schedule.UnitID,
				AssignedToID:          schedule.AssignedToID,
				ScheduledDate:         schedule.NextDueDate,
				RecurringInspectionID: &schedule.ID,
			}
			if err := g.inspections.CreateTx(ctx, tx, insp); err != nil {
				return err
			}
			if tmpl != nil {
				if err := g.copyTemplateTx(ctx, tx, insp, tmpl); err != nil {
					return err
				}
			}
			created = 1
		}

		return g.schedules.AdvanceTx(ctx, tx, schedule.ID, next, now, active)
	})
	if err != nil {
		return 0, err
	}

	return created, nil
}

// copyTemplateTx deep-copies a template's rooms and checklist items onto a
// freshly created inspection, preserving order. Every item starts PENDING.
func (g *RecurringInspectionGenerator) copyTemplateTx(ctx context.Context, tx *sqlx.Tx, insp *models.Inspection, tmpl *models.InspectionTemplate) error {
	for _, tr := range tmpl.Rooms {
		room := &models.InspectionRoom{
			InspectionID: insp.ID,
			Name:         tr.Name,
			SortOrder:    tr.SortOrder,
		}
		if err := g.inspections.CreateRoomTx(ctx, tx, room); err != nil {
			return err
		}
		for _, ti := range tr.ChecklistItems {
			item := &models.InspectionChecklistItem{
				RoomID:      room.ID,
				Description: ti.Description,
				Status:      models.ChecklistPending,
				SortOrder:   ti.SortOrder,
			}
			if err := g.inspections.CreateChecklistItemTx(ctx, tx, item); err != nil {
				return err
			}
		}
	}
	return nil
}
