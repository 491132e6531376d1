package worker

import (
	"strings"
	"testing"
	"time"

	"github.com/nexus-society/backend/internal/models"
)

func TestDecisionEmail(t *testing.T) {
	ev := &models.Event{
		Title: "Annual Hackathon",
		Date:  time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
		Venue: "Main Auditorium",
	}

	subject, body := decisionEmail("Priya", ev, models.RegistrationApproved, "")
	if !strings.Contains(subject, "approved") || !strings.Contains(subject, ev.Title) {
		t.Errorf("approved subject = %q", subject)
	}
	for _, want := range []string{"Priya", "Annual Hackathon", "Main Auditorium", "12 September 2026"} {
		if !strings.Contains(body, want) {
			t.Errorf("approved body missing %q: %q", want, body)
		}
	}

	subject, body = decisionEmail("Priya", ev, models.RegistrationRejected, "event is full")
	if !strings.Contains(subject, "update") {
		t.Errorf("rejected subject = %q", subject)
	}
	if !strings.Contains(body, "not approved") {
		t.Errorf("rejected body = %q", body)
	}
	if !strings.Contains(body, "event is full") {
		t.Errorf("rejected body missing reviewer notes: %q", body)
	}
}
