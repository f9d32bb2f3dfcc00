// Package notify implements the best-effort notification side-channel for
// inspection lifecycle events. Dispatch happens strictly after the lifecycle
// transaction commits and is decoupled from delivery transport through the
// Notifier interface; per-recipient failures are isolated, counted, and
// logged — they are structurally unable to fail the operation that produced
// the event.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/facilityhub/facilityhub/internal/db/models"
	"github.com/facilityhub/facilityhub/internal/telemetry"
)

// Recipient is a resolved notification target.
type Recipient struct {
	Name  string
	Email string
}

// Notifier delivers a single message to a single recipient. Implementations
// must be safe for concurrent use.
type Notifier interface {
	Send(ctx context.Context, to Recipient, subject, body string) error
}

// InspectionCompleted is emitted after a completion transaction commits.
type InspectionCompleted struct {
	Inspection  *models.Inspection
	Actor       *models.User
	CreatedJobs []*models.Job
	Manager     *Recipient // property manager; nil when the property has none
}

// InspectionApproved is emitted after an approval commits.
type InspectionApproved struct {
	Inspection *models.Inspection
	Assignee   *Recipient
}

// InspectionRejected is emitted after a rejection commits. Owner is whoever
// now owns the inspection: the reassignee when one was given, else the
// original assignee.
type InspectionRejected struct {
	Inspection *models.Inspection
	Reason     string
	Owner      *Recipient
}

// RecommendationCreated is emitted once per recommendation created during a
// completion, fanned out to every active owner of the property.
type RecommendationCreated struct {
	Inspection     *models.Inspection
	Recommendation *models.Recommendation
	Owners         []Recipient
}

// Dispatcher fans lifecycle events out to their recipients.
type Dispatcher struct {
	notifier Notifier
}

// NewDispatcher creates a Dispatcher delivering through the given notifier.
func NewDispatcher(notifier Notifier) *Dispatcher {
	return &Dispatcher{notifier: notifier}
}

// DispatchCompleted notifies the property manager that an inspection was
// completed, including the list of follow-up jobs created alongside it.
func (d *Dispatcher) DispatchCompleted(ctx context.Context, ev InspectionCompleted) {
	if ev.Manager == nil {
		slog.Debug("notify: no property manager to notify", "inspection_id", ev.Inspection.ID)
		return
	}

	subject := fmt.Sprintf("Inspection completed: %s", ev.Inspection.Title)

	lines := []string{
		fmt.Sprintf("Hello %s,", ev.Manager.Name),
		"",
		fmt.Sprintf("Inspection '%s' was completed by %s and is now %s.",
			ev.Inspection.Title, ev.Actor.Name, ev.Inspection.Status),
	}
	if len(ev.CreatedJobs) > 0 {
		lines = append(lines, "", fmt.Sprintf("%d follow-up job(s) were created:", len(ev.CreatedJobs)))
		for _, job := range ev.CreatedJobs {
			lines = append(lines, fmt.Sprintf("  - [%s] %s", job.Priority, job.Title))
		}
	}
	lines = append(lines, "", "— FacilityHub")

	d.send(ctx, "inspection_completed", *ev.Manager, subject, strings.Join(lines, "\r\n"))
}

// DispatchApproved notifies the original assignee that their submission was
// approved.
func (d *Dispatcher) DispatchApproved(ctx context.Context, ev InspectionApproved) {
	if ev.Assignee == nil {
		return
	}

	subject := fmt.Sprintf("Inspection approved: %s", ev.Inspection.Title)
	body := strings.Join([]string{
		fmt.Sprintf("Hello %s,", ev.Assignee.Name),
		"",
		fmt.Sprintf("Your inspection '%s' has been approved.", ev.Inspection.Title),
		"",
		"— FacilityHub",
	}, "\r\n")

	d.send(ctx, "inspection_approved", *ev.Assignee, subject, body)
}

// DispatchRejected notifies the current owner of the inspection that it was
// rejected back to IN_PROGRESS.
func (d *Dispatcher) DispatchRejected(ctx context.Context, ev InspectionRejected) {
	if ev.Owner == nil {
		return
	}

	subject := fmt.Sprintf("Inspection rejected: %s", ev.Inspection.Title)
	body := strings.Join([]string{
		fmt.Sprintf("Hello %s,", ev.Owner.Name),
		"",
		fmt.Sprintf("Inspection '%s' was rejected and returned to you for rework.", ev.Inspection.Title),
		fmt.Sprintf("Reason: %s", ev.Reason),
		"",
		"— FacilityHub",
	}, "\r\n")

	d.send(ctx, "inspection_rejected", *ev.Owner, subject, body)
}

// DispatchRecommendation fans a recommendation out to every active property
// owner concurrently. One failed delivery never prevents the others from
// being attempted.
func (d *Dispatcher) DispatchRecommendation(ctx context.Context, ev RecommendationCreated) {
	if len(ev.Owners) == 0 {
		slog.Debug("notify: no active owners to notify", "inspection_id", ev.Inspection.ID)
		return
	}

	subject := fmt.Sprintf("New recommendation for your property: %s", ev.Recommendation.Title)

	var wg sync.WaitGroup
	for _, owner := range ev.Owners {
		wg.Add(1)
		go func(to Recipient) {
			defer wg.Done()
			body := strings.Join([]string{
				fmt.Sprintf("Hello %s,", to.Name),
				"",
				fmt.Sprintf("Inspection '%s' produced a recommendation for your property:", ev.Inspection.Title),
				"",
				fmt.Sprintf("  %s", ev.Recommendation.Title),
				fmt.Sprintf("  Priority: %s", ev.Recommendation.Priority),
				"",
				fmt.Sprintf("Details: %s", ev.Recommendation.Description),
				"",
				"— FacilityHub",
			}, "\r\n")
			d.send(ctx, "recommendation_created", to, subject, body)
		}(owner)
	}
	wg.Wait()
}

// send delivers one message, recording the outcome. Errors are logged and
// counted, never returned: delivery is best-effort by contract.
func (d *Dispatcher) send(ctx context.Context, event string, to Recipient, subject, body string) {
	if err := d.notifier.Send(ctx, to, subject, body); err != nil {
		telemetry.NotificationFailuresTotal.WithLabelValues(event).Inc()
		slog.Warn("notify: delivery failed", "event", event, "recipient", to.Email, "error", err)
		return
	}
	telemetry.NotificationsSentTotal.WithLabelValues(event).Inc()
}
