package grid

import (
	"encoding/json"
	"testing"
	"time"

	"sharedcal/internal/model"
)

func testEngine(today string) *Engine {
	return &Engine{Now: func() time.Time {
		t, _ := time.Parse(model.DateLayout, today)
		return t
	}}
}

func TestLayoutSpanInvariant(t *testing.T) {
	e := testEngine("2024-03-15")

	tests := []struct {
		name      string
		anchor    time.Time
		weekStart time.Weekday
		wantDays  int
	}{
		// March 2024: Fri Mar 1 .. Sun Mar 31, Sunday weeks => Feb 25 .. Apr 6.
		{name: "march 2024 sunday", anchor: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), weekStart: time.Sunday, wantDays: 42},
		// February 2026: Sun Feb 1 .. Sat Feb 28 is exactly four Sunday weeks.
		{name: "february 2026 sunday", anchor: time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), weekStart: time.Sunday, wantDays: 28},
		{name: "march 2024 monday", anchor: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), weekStart: time.Monday, wantDays: 35},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := e.Layout(tt.anchor, nil, Options{WeekStart: tt.weekStart})

			if len(m.Days)%7 != 0 {
				t.Fatalf("day count %d not a multiple of 7", len(m.Days))
			}
			if len(m.Days) != tt.wantDays {
				t.Fatalf("day count = %d, want %d", len(m.Days), tt.wantDays)
			}

			firstWeekday := parseWeekday(t, m.Days[0].Date)
			if firstWeekday != tt.weekStart {
				t.Errorf("first cell weekday = %v, want %v", firstWeekday, tt.weekStart)
			}
			lastWeekday := parseWeekday(t, m.Days[len(m.Days)-1].Date)
			if want := time.Weekday((int(tt.weekStart) + 6) % 7); lastWeekday != want {
				t.Errorf("last cell weekday = %v, want %v", lastWeekday, want)
			}

			// Every anchor-month date is present and marked InMonth.
			_, month, _ := tt.anchor.Date()
			inMonth := 0
			for _, day := range m.Days {
				d := parseDate(t, day.Date)
				if (d.Month() == month) != day.InMonth {
					t.Errorf("cell %s InMonth = %v", day.Date, day.InMonth)
				}
				if day.InMonth {
					inMonth++
				}
			}
			lastOfMonth := time.Date(tt.anchor.Year(), month+1, 0, 0, 0, 0, 0, time.UTC)
			if inMonth != lastOfMonth.Day() {
				t.Errorf("in-month cells = %d, want %d", inMonth, lastOfMonth.Day())
			}
		})
	}
}

func parseDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		t.Fatalf("bad cell date %q: %v", s, err)
	}
	return d
}

func parseWeekday(t *testing.T, s string) time.Weekday {
	return parseDate(t, s).Weekday()
}

func findDay(t *testing.T, m Month, date string) DayCell {
	t.Helper()
	for _, day := range m.Days {
		if day.Date == date {
			return day
		}
	}
	t.Fatalf("no cell for %s", date)
	return DayCell{}
}

func TestLayoutBucketsAndSortsEvents(t *testing.T) {
	e := testEngine("2024-03-15")
	events := []model.Event{
		{ID: "timed-9", Date: "2024-03-01", StartTime: "09:00", EndTime: "10:00"},
		{ID: "all-day", Date: "2024-03-01"},
		{ID: "timed-8", Date: "2024-03-01", StartTime: "08:00", EndTime: "08:30"},
		{ID: "elsewhere", Date: "2024-03-02", StartTime: "09:00", EndTime: "10:00"},
	}

	m := e.Layout(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), events, Options{})

	day := findDay(t, m, "2024-03-01")
	want := []string{"all-day", "timed-8", "timed-9"}
	if len(day.Events) != len(want) {
		t.Fatalf("bucketed %d events, want %d", len(day.Events), len(want))
	}
	for i, id := range want {
		if day.Events[i].ID != id {
			t.Errorf("events[%d] = %q, want %q", i, day.Events[i].ID, id)
		}
	}

	other := findDay(t, m, "2024-03-02")
	if len(other.Events) != 1 || other.Events[0].ID != "elsewhere" {
		t.Errorf("2024-03-02 events = %v", other.Events)
	}
}

func TestLayoutDisplayPolicy(t *testing.T) {
	e := testEngine("2024-03-15")
	var events []model.Event
	for _, start := range []string{"09:00", "10:00", "11:00", "12:00", "13:00"} {
		events = append(events, model.Event{ID: start, Date: "2024-03-04", StartTime: start, EndTime: "23:00"})
	}
	anchor := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	day := findDay(t, e.Layout(anchor, events, Options{}), "2024-03-04")
	if len(day.Visible) != 3 || day.Overflow != 2 {
		t.Fatalf("default policy: visible=%d overflow=%d", len(day.Visible), day.Overflow)
	}

	day = findDay(t, e.Layout(anchor, events, Options{Compact: true}), "2024-03-04")
	if len(day.Visible) != 2 || day.Overflow != 3 {
		t.Fatalf("compact policy: visible=%d overflow=%d", len(day.Visible), day.Overflow)
	}

	// Visible is a prefix of the full sorted list, so revealing the
	// overflow shows the same ordering.
	for i := range day.Visible {
		if day.Visible[i].ID != day.Events[i].ID {
			t.Errorf("visible[%d] = %q, events[%d] = %q", i, day.Visible[i].ID, i, day.Events[i].ID)
		}
	}

	// No overflow when at or under the cap.
	day = findDay(t, e.Layout(anchor, events[:3], Options{}), "2024-03-04")
	if day.Overflow != 0 || len(day.Visible) != 3 {
		t.Fatalf("under cap: visible=%d overflow=%d", len(day.Visible), day.Overflow)
	}
}

func TestLayoutTodayAndWeekend(t *testing.T) {
	e := testEngine("2024-03-15")
	m := e.Layout(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), nil, Options{})

	for _, day := range m.Days {
		if day.IsToday != (day.Date == "2024-03-15") {
			t.Errorf("cell %s IsToday = %v", day.Date, day.IsToday)
		}
		wd := parseWeekday(t, day.Date)
		if day.IsWeekend != (wd == time.Saturday || wd == time.Sunday) {
			t.Errorf("cell %s IsWeekend = %v", day.Date, day.IsWeekend)
		}
	}

	// 2024-03-16 is a Saturday.
	if day := findDay(t, m, "2024-03-16"); !day.IsWeekend {
		t.Error("2024-03-16 must be a weekend cell")
	}
}

func TestLayoutDeterministic(t *testing.T) {
	e := testEngine("2024-03-15")
	events := []model.Event{
		{ID: "a", Date: "2024-03-05", StartTime: "09:00"},
		{ID: "b", Date: "2024-03-05", StartTime: "09:00"},
		{ID: "c", Date: "2024-03-05"},
		{ID: "d", Date: "2024-03-12", StartTime: "10:00"},
	}
	anchor := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	first, _ := json.Marshal(e.Layout(anchor, events, Options{}))
	second, _ := json.Marshal(e.Layout(anchor, events, Options{}))
	if string(first) != string(second) {
		t.Fatal("identical inputs must produce identical layouts")
	}

	// Equal start times keep collection order (stable sort).
	day := findDay(t, e.Layout(anchor, events, Options{}), "2024-03-05")
	want := []string{"c", "a", "b"}
	for i, id := range want {
		if day.Events[i].ID != id {
			t.Errorf("events[%d] = %q, want %q", i, day.Events[i].ID, id)
		}
	}
}
