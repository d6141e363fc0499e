// Package ical converts between the stored event collection and the
// iCalendar interchange format, so a calendar can be handed to (or taken
// from) any ICS-speaking client.
package ical

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	appLog "sharedcal/internal/log"
	"sharedcal/internal/model"
)

const productID = "-//sharedcal//calendar//EN"

// Export serializes events into a single VCALENDAR. All-day events become
// date-valued VEVENTs spanning one day; timed events combine the naive date
// with their HH:MM wall-clock times in UTC. Events whose date or times fail
// to parse are skipped with a log entry rather than failing the whole
// export.
func Export(events []model.Event) (string, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)

	for _, ev := range events {
		date, err := ev.ParseDate()
		if err != nil {
			appLog.Warn("ical: skipping event with bad date", "id", ev.ID, "date", ev.Date)
			continue
		}

		ve := cal.AddEvent(ev.ID)
		ve.SetSummary(ev.Title)
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
		if ev.Location != "" {
			ve.SetLocation(ev.Location)
		}
		if ev.URL != "" {
			ve.SetURL(ev.URL)
		}

		if ev.StartTime == "" || ev.EndTime == "" {
			ve.SetAllDayStartAt(date)
			ve.SetAllDayEndAt(date.AddDate(0, 0, 1))
		} else {
			start, err := combine(date, ev.StartTime)
			if err != nil {
				appLog.Warn("ical: skipping event with bad start time", "id", ev.ID, "start", ev.StartTime)
				continue
			}
			end, err := combine(date, ev.EndTime)
			if err != nil {
				appLog.Warn("ical: skipping event with bad end time", "id", ev.ID, "end", ev.EndTime)
				continue
			}
			ve.SetStartAt(start)
			ve.SetEndAt(end)
		}

		switch ev.Status {
		case model.StatusCancelled:
			ve.SetStatus(ics.ObjectStatusCancelled)
		case model.StatusScheduled, model.StatusCompleted:
			ve.SetStatus(ics.ObjectStatusConfirmed)
		case model.StatusInProgress:
			ve.SetStatus(ics.ObjectStatusTentative)
		}

		if ts, err := time.Parse(time.RFC3339, ev.CreatedAt); err == nil {
			ve.SetCreatedTime(ts)
		}
		if ts, err := time.Parse(time.RFC3339, ev.UpdatedAt); err == nil {
			ve.SetModifiedAt(ts)
		}
	}

	return cal.Serialize(), nil
}

func combine(date time.Time, hhmm string) (time.Time, error) {
	clock, err := time.Parse(model.TimeLayout, hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), 0, 0, time.UTC), nil
}

// Import parses an ICS payload into event records. Recurrence rules are not
// expanded here; each VEVENT maps to exactly one event. VEVENTs without a
// usable start are skipped, the rest default to personal/medium/scheduled.
func Import(body []byte) ([]model.Event, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ics.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ical: parse: %w", err)
	}

	var out []model.Event
	for _, ve := range cal.Events() {
		ev, err := importVEvent(ve)
		if err != nil {
			appLog.Warn("ical: skipping vevent", "err", err)
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func importVEvent(ve *ics.VEvent) (model.Event, error) {
	start, err := ve.GetStartAt()
	if err != nil {
		return model.Event{}, fmt.Errorf("missing DTSTART: %w", err)
	}

	ev := model.Event{
		Date:     start.Format(model.DateLayout),
		Color:    "#2196F3",
		Category: model.CategoryPersonal,
		Priority: model.PriorityMedium,
		Status:   model.StatusScheduled,
	}

	if p := ve.GetProperty(ics.ComponentPropertyUniqueId); p != nil {
		ev.ID = p.Value
	}
	if p := ve.GetProperty(ics.ComponentPropertySummary); p != nil {
		ev.Title = p.Value
	}
	if p := ve.GetProperty(ics.ComponentPropertyDescription); p != nil {
		ev.Description = p.Value
	}
	if p := ve.GetProperty(ics.ComponentPropertyLocation); p != nil {
		ev.Location = p.Value
	}

	if !isAllDay(ve) {
		ev.StartTime = start.Format(model.TimeLayout)
		if end, err := ve.GetEndAt(); err == nil {
			ev.EndTime = end.Format(model.TimeLayout)
		}
	}

	return ev, nil
}

// isAllDay detects date-valued DTSTART: VALUE=DATE or a value without a
// time component.
func isAllDay(ve *ics.VEvent) bool {
	p := ve.GetProperty(ics.ComponentPropertyDtStart)
	if p == nil {
		return false
	}
	if params := p.ICalParameters; params != nil {
		if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			return true
		}
	}
	return !strings.Contains(p.Value, "T")
}
