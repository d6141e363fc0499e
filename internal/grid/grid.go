// Package grid projects an event collection onto a month view: a whole
// number of 7-day weeks spanning the anchor month, with events bucketed and
// sorted per day. Layout performs no I/O and is pure with respect to its
// inputs; only the IsToday flag depends on the wall clock, which is
// injectable.
package grid

import (
	"sort"
	"time"

	"sharedcal/internal/model"
)

// Visible-event caps for the per-day display policy. A compact viewport
// lowers the cap.
const (
	maxVisibleDefault = 3
	maxVisibleCompact = 2
)

// Options controls the layout.
type Options struct {
	// WeekStart is the weekday of the grid's first column. The settings
	// record stores 0 for Sunday and 1 for Monday; time.Weekday matches.
	WeekStart time.Weekday
	// Compact lowers the per-day visible-event cap.
	Compact bool
}

// DayCell is one date's rendering unit.
type DayCell struct {
	Date      string `json:"date"` // YYYY-MM-DD
	DayNumber int    `json:"dayNumber"`
	InMonth   bool   `json:"isCurrentMonth"`
	IsToday   bool   `json:"isToday"`
	IsWeekend bool   `json:"isWeekend"`

	// Events holds the full sorted list for the day: all-day events first,
	// then timed events in ascending start-time order.
	Events []model.Event `json:"events"`
	// Visible is the prefix of Events within the cap; Overflow counts the
	// rest for the "N more" affordance. Revealing the overflow always shows
	// the same sorted full list.
	Visible  []model.Event `json:"visible"`
	Overflow int           `json:"overflow"`
}

// Month is a laid-out grid.
type Month struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Days  []DayCell  `json:"days"`
}

// Engine computes month layouts. Now is injectable so IsToday is
// deterministic in tests.
type Engine struct {
	Now func() time.Time
}

// NewEngine returns an Engine on the system clock.
func NewEngine() *Engine {
	return &Engine{Now: time.Now}
}

// Layout resolves the anchor's month, extends it backward to the most
// recent week start and forward to the following week end, and builds one
// DayCell per date in the inclusive range. The day count is always a
// multiple of 7.
func (e *Engine) Layout(anchor time.Time, events []model.Event, opts Options) Month {
	year, month, _ := anchor.Date()
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	back := (int(first.Weekday()) - int(opts.WeekStart) + 7) % 7
	start := first.AddDate(0, 0, -back)

	weekEnd := (int(opts.WeekStart) + 6) % 7
	fwd := (weekEnd - int(last.Weekday()) + 7) % 7
	end := last.AddDate(0, 0, fwd)

	byDate := bucketByDate(events)
	today := e.Now().Format(model.DateLayout)

	visibleCap := maxVisibleDefault
	if opts.Compact {
		visibleCap = maxVisibleCompact
	}

	var days []DayCell
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		date := d.Format(model.DateLayout)
		dayEvents := sortDayEvents(byDate[date])

		visible := dayEvents
		if len(visible) > visibleCap {
			visible = visible[:visibleCap]
		}

		days = append(days, DayCell{
			Date:      date,
			DayNumber: d.Day(),
			InMonth:   d.Month() == month,
			IsToday:   date == today,
			IsWeekend: d.Weekday() == time.Saturday || d.Weekday() == time.Sunday,
			Events:    dayEvents,
			Visible:   visible,
			Overflow:  len(dayEvents) - len(visible),
		})
	}

	return Month{Year: year, Month: month, Days: days}
}

func bucketByDate(events []model.Event) map[string][]model.Event {
	byDate := make(map[string][]model.Event)
	for _, ev := range events {
		byDate[ev.Date] = append(byDate[ev.Date], ev)
	}
	return byDate
}

// sortDayEvents orders a day's bucket: all-day events before timed ones,
// timed events ascending by start time. The sort is stable, so events that
// compare equal keep their collection order and the layout stays
// deterministic for identical inputs.
func sortDayEvents(events []model.Event) []model.Event {
	out := make([]model.Event, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.AllDay() != b.AllDay() {
			return a.AllDay()
		}
		return a.StartTime < b.StartTime
	})
	return out
}
