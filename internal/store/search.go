package store

import (
	"strings"

	"sharedcal/internal/model"
)

// SearchFilter narrows a text search. Zero values disable each criterion;
// DateFrom/DateTo are inclusive YYYY-MM-DD bounds compared as strings.
type SearchFilter struct {
	DateFrom   string
	DateTo     string
	Category   model.Category
	SharedOnly bool
}

// SearchEvents returns events whose title or description contains the query
// (case-insensitive) and which pass every set filter criterion.
func (s *Store) SearchEvents(query string, filter SearchFilter) []model.Event {
	events := s.Events()
	term := strings.ToLower(query)

	out := make([]model.Event, 0)
	for _, ev := range events {
		if !strings.Contains(strings.ToLower(ev.Title), term) &&
			!strings.Contains(strings.ToLower(ev.Description), term) {
			continue
		}
		if filter.DateFrom != "" && ev.Date < filter.DateFrom {
			continue
		}
		if filter.DateTo != "" && ev.Date > filter.DateTo {
			continue
		}
		if filter.Category != "" && ev.Category != filter.Category {
			continue
		}
		if filter.SharedOnly && len(ev.SharedWith) == 0 {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// Statistics is a quick usage summary over the persisted collection.
type Statistics struct {
	TotalEvents     int `json:"totalEvents"`
	ThisMonth       int `json:"thisMonth"`
	UpcomingEvents  int `json:"upcomingEvents"`
	CompletedEvents int `json:"completedEvents"`
	SharedEvents    int `json:"sharedEvents"`
	StorageUsed     int `json:"storageUsed"`
}

// Statistics aggregates counts for the current wall-clock month and the
// storage footprint.
func (s *Store) Statistics() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := s.eventsLocked()
	now := s.Now()
	today := now.Format(model.DateLayout)
	month := now.Format("2006-01")

	stats := Statistics{
		TotalEvents: len(events),
		StorageUsed: s.storageSizeLocked(),
	}
	for _, ev := range events {
		if strings.HasPrefix(ev.Date, month) {
			stats.ThisMonth++
		}
		if ev.Date > today {
			stats.UpcomingEvents++
		}
		if ev.Status == model.StatusCompleted {
			stats.CompletedEvents++
		}
		if len(ev.SharedWith) > 0 {
			stats.SharedEvents++
		}
	}
	return stats
}
