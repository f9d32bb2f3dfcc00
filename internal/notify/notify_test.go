package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/facilityhub/facilityhub/internal/config"
	"github.com/facilityhub/facilityhub/internal/db/models"
)

// captureNotifier records deliveries for assertions. failFor makes delivery
// to one address fail so failure isolation can be verified.
type captureNotifier struct {
	mu      sync.Mutex
	sent    []capturedMessage
	failFor string
}

type capturedMessage struct {
	To      Recipient
	Subject string
	Body    string
}

func (n *captureNotifier) Send(_ context.Context, to Recipient, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failFor != "" && to.Email == n.failFor {
		return errors.New("mailbox unavailable")
	}
	n.sent = append(n.sent, capturedMessage{To: to, Subject: subject, Body: body})
	return nil
}

func (n *captureNotifier) messages() []capturedMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]capturedMessage, len(n.sent))
	copy(out, n.sent)
	return out
}

func testEvent() InspectionCompleted {
	return InspectionCompleted{
		Inspection: &models.Inspection{
			ID:     uuid.New(),
			Title:  "Quarterly walkthrough",
			Status: models.StatusCompleted,
		},
		Actor:   &models.User{Name: "Dana Whitfield"},
		Manager: &Recipient{Name: "Priya Shah", Email: "priya@example.com"},
	}
}

// --- DispatchCompleted ---

func TestDispatchCompleted(t *testing.T) {
	n := &captureNotifier{}
	d := NewDispatcher(n)

	ev := testEvent()
	ev.CreatedJobs = []*models.Job{
		{Title: "Quarterly walkthrough - Follow-up 1", Priority: models.PriorityUrgent},
	}
	d.DispatchCompleted(context.Background(), ev)

	msgs := n.messages()
	if len(msgs) != 1 {
		t.Fatalf("sent = %d, want 1", len(msgs))
	}
	if msgs[0].To.Email != "priya@example.com" {
		t.Errorf("recipient = %s, want manager", msgs[0].To.Email)
	}
	if !strings.Contains(msgs[0].Subject, "Quarterly walkthrough") {
		t.Errorf("subject missing title: %q", msgs[0].Subject)
	}
	if !strings.Contains(msgs[0].Body, "1 follow-up job(s)") {
		t.Errorf("body missing job summary: %q", msgs[0].Body)
	}
	if !strings.Contains(msgs[0].Body, "[URGENT]") {
		t.Errorf("body missing job priority: %q", msgs[0].Body)
	}
}

func TestDispatchCompleted_NoManagerIsNoOp(t *testing.T) {
	n := &captureNotifier{}
	d := NewDispatcher(n)

	ev := testEvent()
	ev.Manager = nil
	d.DispatchCompleted(context.Background(), ev)

	if len(n.messages()) != 0 {
		t.Errorf("expected no deliveries without a manager")
	}
}

// --- DispatchApproved / DispatchRejected ---

func TestDispatchApproved(t *testing.T) {
	n := &captureNotifier{}
	d := NewDispatcher(n)

	d.DispatchApproved(context.Background(), InspectionApproved{
		Inspection: &models.Inspection{ID: uuid.New(), Title: "Annual fire check"},
		Assignee:   &Recipient{Name: "Dana", Email: "dana@example.com"},
	})

	msgs := n.messages()
	if len(msgs) != 1 {
		t.Fatalf("sent = %d, want 1", len(msgs))
	}
	if !strings.Contains(msgs[0].Subject, "approved") {
		t.Errorf("unexpected subject: %q", msgs[0].Subject)
	}
}

func TestDispatchRejected_IncludesReason(t *testing.T) {
	n := &captureNotifier{}
	d := NewDispatcher(n)

	d.DispatchRejected(context.Background(), InspectionRejected{
		Inspection: &models.Inspection{ID: uuid.New(), Title: "Annual fire check"},
		Reason:     "photos missing for unit 4",
		Owner:      &Recipient{Name: "Dana", Email: "dana@example.com"},
	})

	msgs := n.messages()
	if len(msgs) != 1 {
		t.Fatalf("sent = %d, want 1", len(msgs))
	}
	if !strings.Contains(msgs[0].Body, "photos missing for unit 4") {
		t.Errorf("body missing rejection reason: %q", msgs[0].Body)
	}
}

// --- DispatchRecommendation ---

func TestDispatchRecommendation_FansOutToAllOwners(t *testing.T) {
	n := &captureNotifier{}
	d := NewDispatcher(n)

	d.DispatchRecommendation(context.Background(), RecommendationCreated{
		Inspection: &models.Inspection{ID: uuid.New(), Title: "Quarterly walkthrough"},
		Recommendation: &models.Recommendation{
			Title:    "Kitchen - Sink drains freely",
			Priority: models.PriorityMedium,
		},
		Owners: []Recipient{
			{Name: "Alex", Email: "alex@example.com"},
			{Name: "Sam", Email: "sam@example.com"},
		},
	})

	msgs := n.messages()
	if len(msgs) != 2 {
		t.Fatalf("sent = %d, want 2", len(msgs))
	}
}

func TestDispatchRecommendation_OneFailureDoesNotBlockOthers(t *testing.T) {
	n := &captureNotifier{failFor: "alex@example.com"}
	d := NewDispatcher(n)

	d.DispatchRecommendation(context.Background(), RecommendationCreated{
		Inspection:     &models.Inspection{ID: uuid.New(), Title: "Quarterly walkthrough"},
		Recommendation: &models.Recommendation{Title: "Rec", Priority: models.PriorityLow},
		Owners: []Recipient{
			{Name: "Alex", Email: "alex@example.com"},
			{Name: "Sam", Email: "sam@example.com"},
		},
	})

	msgs := n.messages()
	if len(msgs) != 1 {
		t.Fatalf("sent = %d, want 1", len(msgs))
	}
	if msgs[0].To.Email != "sam@example.com" {
		t.Errorf("wrong survivor: %s", msgs[0].To.Email)
	}
}

// --- NewNotifier selection ---

func TestNewNotifier_DisabledReturnsLogNotifier(t *testing.T) {
	n := NewNotifier(&config.NotificationsConfig{Enabled: false})
	if _, ok := n.(*LogNotifier); !ok {
		t.Fatalf("expected *LogNotifier, got %T", n)
	}
}

func TestNewNotifier_MissingHostReturnsLogNotifier(t *testing.T) {
	n := NewNotifier(&config.NotificationsConfig{Enabled: true})
	if _, ok := n.(*LogNotifier); !ok {
		t.Fatalf("expected *LogNotifier, got %T", n)
	}
}

func TestNewNotifier_ConfiguredReturnsSMTPNotifier(t *testing.T) {
	cfg := &config.NotificationsConfig{Enabled: true}
	cfg.SMTP.Host = "smtp.example.com"
	cfg.SMTP.Port = 587
	n := NewNotifier(cfg)
	if _, ok := n.(*SMTPNotifier); !ok {
		t.Fatalf("expected *SMTPNotifier, got %T", n)
	}
}
