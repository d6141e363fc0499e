// Package event constructs fully-populated event records, expands recurrence
// rules into concrete instances, suggests details from free-text titles and
// detects scheduling conflicts. Nothing here performs I/O; persistence is the
// store's concern.
package event

import (
	"strings"
	"time"

	"github.com/nats-io/nuid"

	"sharedcal/internal/model"
)

// Factory builds event records. NewID and Now are injectable so tests can
// pin identifiers and timestamps; production code uses nuid (unique across
// rapid successive calls, unlike a bare timestamp) and the wall clock.
type Factory struct {
	NewID func() string
	Now   func() time.Time
}

// NewFactory returns a Factory wired to nuid and the system clock.
func NewFactory() *Factory {
	return &Factory{
		NewID: nuid.Next,
		Now:   time.Now,
	}
}

// Options carries the optional fields of a new event. Zero values fall back
// to the documented defaults.
type Options struct {
	ID             string
	StartTime      string
	EndTime        string
	Description    string
	Color          string
	Icon           string
	Category       model.Category
	Priority       model.Priority
	Status         model.Status
	SharedWith     []string
	Reminders      []int
	Location       string
	URL            string
	IsRecurring    bool
	RecurrenceRule *model.RecurrenceRule
	ParentEventID  string
	Tags           []string
}

// DefaultColor is applied when a new event carries no explicit color.
const DefaultColor = "#2196F3"

// New constructs a fully-populated event from minimal input. Defaults:
// personal category, medium priority, scheduled status, empty collections.
// Both timestamps are stamped to now; an id is generated when none is
// supplied.
func (f *Factory) New(title, date string, opts Options) model.Event {
	now := f.Now().UTC().Format(time.RFC3339)

	ev := model.Event{
		ID:             opts.ID,
		Title:          strings.TrimSpace(title),
		Date:           date,
		StartTime:      opts.StartTime,
		EndTime:        opts.EndTime,
		Description:    opts.Description,
		Color:          opts.Color,
		Icon:           opts.Icon,
		Category:       opts.Category,
		Priority:       opts.Priority,
		Status:         opts.Status,
		SharedWith:     opts.SharedWith,
		Reminders:      opts.Reminders,
		Location:       opts.Location,
		URL:            opts.URL,
		IsRecurring:    opts.IsRecurring,
		RecurrenceRule: opts.RecurrenceRule,
		ParentEventID:  opts.ParentEventID,
		Tags:           opts.Tags,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if ev.ID == "" {
		ev.ID = f.NewID()
	}
	if ev.Color == "" {
		ev.Color = DefaultColor
	}
	if ev.Category == "" {
		ev.Category = model.CategoryPersonal
	}
	if ev.Priority == "" {
		ev.Priority = model.PriorityMedium
	}
	if ev.Status == "" {
		ev.Status = model.StatusScheduled
	}
	if ev.SharedWith == nil {
		ev.SharedWith = []string{}
	}
	if ev.Reminders == nil {
		ev.Reminders = []int{}
	}
	if ev.Tags == nil {
		ev.Tags = []string{}
	}

	return ev
}
