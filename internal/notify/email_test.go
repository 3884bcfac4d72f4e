package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"holiday-booking/internal/conflict"
	"holiday-booking/internal/model"
)

func sampleConflict() conflict.Conflict {
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	return conflict.BookingVsEvent{
		Booking: model.Booking{ID: "A", GuestName: "Anna <VIP>", Status: model.StatusApproved,
			StartDate: start, EndDate: start.AddDate(0, 0, 7)},
		Event: model.CalendarEvent{ID: "E", Summary: "Müller", AllDay: true,
			Start: start.AddDate(0, 0, 4), End: start.AddDate(0, 0, 9)},
	}
}

func TestEmailNotify(t *testing.T) {
	var (
		received postmarkEmail
		gotToken string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Postmark-Server-Token")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"MessageID": "test-id"}`))
	}))
	defer server.Close()

	e := NewEmail("test-token", "noreply@example.com", "owner@example.com", "https://home.test/",
		WithHTTPClient(server.Client()), WithEndpoint(server.URL))
	if err := e.NotifyConflictDetected(context.Background(), sampleConflict()); err != nil {
		t.Fatalf("NotifyConflictDetected() error = %v", err)
	}

	if gotToken != "test-token" {
		t.Errorf("server token = %q, want %q", gotToken, "test-token")
	}
	if received.To != "owner@example.com" || received.From != "noreply@example.com" {
		t.Errorf("addresses = %q -> %q", received.From, received.To)
	}
	if received.Subject != "Booking conflict: Anna <VIP> / Müller" {
		t.Errorf("subject = %q", received.Subject)
	}
	if !strings.Contains(received.HtmlBody, "Anna &lt;VIP&gt;") {
		t.Errorf("html body not escaped: %s", received.HtmlBody)
	}
	if !strings.Contains(received.TextBody, "https://home.test/admin/conflicts") {
		t.Errorf("text body lacks link: %s", received.TextBody)
	}
}

func TestEmailNotifyErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	e := NewEmail("t", "a@example.com", "b@example.com", "", WithEndpoint(server.URL))
	if err := e.NotifyConflictDetected(context.Background(), sampleConflict()); err == nil {
		t.Error("want error for 422 response")
	}

	if err := NewEmail("", "", "", "").NotifyConflictDetected(context.Background(), sampleConflict()); err == nil {
		t.Error("want error for unconfigured client")
	}
}
