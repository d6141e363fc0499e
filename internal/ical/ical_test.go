package ical

import (
	"strings"
	"testing"

	"sharedcal/internal/model"
)

func TestExportTimedAndAllDay(t *testing.T) {
	events := []model.Event{
		{
			ID: "ev-timed", Title: "Team Meeting", Date: "2024-03-01",
			StartTime: "09:00", EndTime: "10:30",
			Location: "Room 4", Description: "Quarterly review",
			Status: model.StatusScheduled,
		},
		{
			ID: "ev-allday", Title: "Holiday", Date: "2024-03-04",
			Status: model.StatusCancelled,
		},
	}

	out, err := Export(events)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"UID:ev-timed",
		"SUMMARY:Team Meeting",
		"LOCATION:Room 4",
		"DTSTART:20240301T090000Z",
		"DTEND:20240301T103000Z",
		"STATUS:CONFIRMED",
		"UID:ev-allday",
		"DTSTART;VALUE=DATE:20240304",
		"STATUS:CANCELLED",
		"END:VCALENDAR",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("serialized calendar missing %q", want)
		}
	}
}

func TestExportSkipsUnparseableEvents(t *testing.T) {
	events := []model.Event{
		{ID: "bad", Title: "x", Date: "not-a-date"},
		{ID: "good", Title: "y", Date: "2024-03-01"},
	}
	out, err := Export(events)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if strings.Contains(out, "UID:bad") {
		t.Error("unparseable event must be skipped")
	}
	if !strings.Contains(out, "UID:good") {
		t.Error("valid event must survive")
	}
}

func TestImport(t *testing.T) {
	body := []byte(strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"UID:abc",
		"SUMMARY:Lunch",
		"LOCATION:Cafe",
		"DTSTART:20240301T120000Z",
		"DTEND:20240301T130000Z",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:def",
		"SUMMARY:Conference",
		"DTSTART;VALUE=DATE:20240310",
		"DTEND;VALUE=DATE:20240311",
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n"))

	events, err := Import(body)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("imported %d events, want 2", len(events))
	}

	timed := events[0]
	if timed.ID != "abc" || timed.Title != "Lunch" || timed.Location != "Cafe" {
		t.Errorf("timed event = %+v", timed)
	}
	if timed.Date != "2024-03-01" || timed.StartTime != "12:00" || timed.EndTime != "13:00" {
		t.Errorf("timed event date/times = %q %q %q", timed.Date, timed.StartTime, timed.EndTime)
	}
	if timed.Category != model.CategoryPersonal || timed.Priority != model.PriorityMedium {
		t.Errorf("defaults not applied: %+v", timed)
	}

	allDay := events[1]
	if allDay.Date != "2024-03-10" || allDay.StartTime != "" || allDay.EndTime != "" {
		t.Errorf("all-day event = %+v", allDay)
	}
}

func TestImportEmptyBody(t *testing.T) {
	if _, err := Import(nil); err == nil {
		t.Fatal("expected error for empty body")
	}
}

func TestRoundTrip(t *testing.T) {
	events := []model.Event{
		{ID: "r1", Title: "Gym", Date: "2024-05-02", StartTime: "18:00", EndTime: "19:00"},
	}
	out, err := Export(events)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	back, err := Import([]byte(out))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(back) != 1 {
		t.Fatalf("round trip yielded %d events", len(back))
	}
	got := back[0]
	if got.ID != "r1" || got.Title != "Gym" || got.Date != "2024-05-02" ||
		got.StartTime != "18:00" || got.EndTime != "19:00" {
		t.Fatalf("round trip event = %+v", got)
	}
}
