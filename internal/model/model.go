package model

import (
	"encoding/json"
	"time"
)

// DateLayout is the naive local-date format used throughout the application.
// Dates carry no timezone component; "2024-03-01" means the same wall-clock
// day wherever it is read.
const DateLayout = "2006-01-02"

// TimeLayout is the 24-hour wall-clock format for event start/end times.
// Fixed-width, so lexicographic comparison equals chronological comparison.
const TimeLayout = "15:04"

// Category classifies an event. The set is closed.
type Category string

const (
	CategoryWork      Category = "work"
	CategoryPersonal  Category = "personal"
	CategoryFamily    Category = "family"
	CategoryHealth    Category = "health"
	CategoryTravel    Category = "travel"
	CategoryEducation Category = "education"
	CategorySocial    Category = "social"
	CategoryHoliday   Category = "holiday"
)

// Categories lists every valid category in display order.
func Categories() []Category {
	return []Category{
		CategoryWork, CategoryPersonal, CategoryFamily, CategoryHealth,
		CategoryTravel, CategoryEducation, CategorySocial, CategoryHoliday,
	}
}

// Priority is the event priority level.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists every valid priority.
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh}
}

// Status is the lifecycle state of an event.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every valid status.
func Statuses() []Status {
	return []Status{StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled}
}

// Frequency is the cadence of a recurrence rule.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// RecurrenceRule describes how derived instances are generated from a base
// event: every Interval days/weeks/months/years.
type RecurrenceRule struct {
	Frequency Frequency `json:"frequency"`
	Interval  int       `json:"interval"`
}

// Event is the central entity: one calendar entry, persisted as JSON.
// Field names match the export file format, so an exported snapshot from an
// older installation imports unchanged.
type Event struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Date  string `json:"date"` // YYYY-MM-DD, naive local date

	// StartTime/EndTime are HH:MM strings; both empty means all-day.
	StartTime string `json:"startTime,omitempty"`
	EndTime   string `json:"endTime,omitempty"`

	Description string   `json:"description,omitempty"`
	Color       string   `json:"color,omitempty"`
	Icon        string   `json:"icon,omitempty"`
	Category    Category `json:"category,omitempty"`
	Priority    Priority `json:"priority,omitempty"`
	Status      Status   `json:"status,omitempty"`

	// SharedWith is display metadata only; no invitations are delivered.
	SharedWith []string `json:"sharedWith,omitempty"`

	// Reminders holds lead times in minutes before the event.
	Reminders []int  `json:"reminders,omitempty"`
	Location  string `json:"location,omitempty"`
	URL       string `json:"url,omitempty"`

	IsRecurring    bool            `json:"isRecurring,omitempty"`
	RecurrenceRule *RecurrenceRule `json:"recurrenceRule,omitempty"`
	// ParentEventID links a generated instance back to its base event.
	ParentEventID string `json:"parentEventId,omitempty"`

	Tags []string `json:"tags,omitempty"`

	// RFC 3339 timestamps. CreatedAt is set once; UpdatedAt is refreshed on
	// every mutation.
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// AllDay reports whether the event has no start time and therefore sorts
// ahead of timed events within a day.
func (e Event) AllDay() bool {
	return e.StartTime == ""
}

// ParseDate returns the event date as a time.Time at midnight UTC.
func (e Event) ParseDate() (time.Time, error) {
	return time.Parse(DateLayout, e.Date)
}

// IsToday reports whether the event falls on the given wall-clock day.
func (e Event) IsToday(now time.Time) bool {
	return e.Date == now.Format(DateLayout)
}

// DaysUntil returns the number of whole days from now's date to the event
// date. Negative for past events, zero for today.
func (e Event) DaysUntil(now time.Time) (int, error) {
	d, err := e.ParseDate()
	if err != nil {
		return 0, err
	}
	today, _ := time.Parse(DateLayout, now.Format(DateLayout))
	return int(d.Sub(today).Hours() / 24), nil
}

// Settings is the flat record of user preferences. Persisted settings are
// decoded over a DefaultSettings value, so missing or unknown keys never
// break reads; the merge happens once at the deserialization boundary.
type Settings struct {
	Theme                string `json:"theme"`
	StartOfWeek          int    `json:"startOfWeek"`          // 0 = Sunday, 1 = Monday
	TimeFormat           int    `json:"timeFormat"`           // 12 or 24 hour
	DefaultEventDuration int    `json:"defaultEventDuration"` // minutes
	ShowWeekends         bool   `json:"showWeekends"`
	CompactView          bool   `json:"compactView"`
	Notifications        bool   `json:"notifications"`
	DefaultView          string `json:"defaultView"`
	AutoSave             bool   `json:"autoSave"`
	Language             string `json:"language"`
}

// DefaultSettings returns the compiled-in preference defaults.
func DefaultSettings() Settings {
	return Settings{
		Theme:                "light",
		StartOfWeek:          0,
		TimeFormat:           12,
		DefaultEventDuration: 60,
		ShowWeekends:         true,
		CompactView:          false,
		Notifications:        true,
		DefaultView:          "month",
		AutoSave:             true,
		Language:             "en",
	}
}

// Backup is one rotation slot: a full serialized export snapshot.
type Backup struct {
	ID   string `json:"id"`
	Date string `json:"date"` // RFC 3339 creation time
	Data string `json:"data"` // exportData output, verbatim
}

// SyncEntry is a write queued while offline, intended for eventual remote
// application. Nothing currently drains the queue; it is a stub boundary for
// a future remote-sync integration.
type SyncEntry struct {
	ID        string          `json:"id"`
	Action    string          `json:"action"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"` // RFC 3339
}
