package event

import (
	"fmt"
	"time"

	"sharedcal/internal/model"
)

// Statistics is an aggregate breakdown of an event collection.
type Statistics struct {
	Total      int                      `json:"total"`
	ByCategory map[model.Category]int   `json:"byCategory"`
	ByPriority map[model.Priority]int   `json:"byPriority"`
	ByStatus   map[model.Status]int     `json:"byStatus"`
	ByMonth    map[string]int           `json:"byMonth"` // YYYY-MM
	// AverageEventsPerDay is events divided by the number of distinct dates
	// that carry at least one event, as a one-decimal string.
	AverageEventsPerDay string `json:"averageEventsPerDay"`
	MostActiveDay       string `json:"mostActiveDay"`
}

var weekdayNames = []string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

// EventStatistics computes per-category, per-priority, per-status and
// per-month counts plus the most active weekday over the given collection.
// Events with an unparseable date still count toward the totals but not
// toward the weekday breakdown.
func EventStatistics(events []model.Event) Statistics {
	stats := Statistics{
		Total:               len(events),
		ByCategory:          make(map[model.Category]int),
		ByPriority:          make(map[model.Priority]int),
		ByStatus:            make(map[model.Status]int),
		ByMonth:             make(map[string]int),
		AverageEventsPerDay: "0",
	}

	for _, c := range model.Categories() {
		stats.ByCategory[c] = 0
	}
	for _, p := range model.Priorities() {
		stats.ByPriority[p] = 0
	}
	for _, s := range model.Statuses() {
		stats.ByStatus[s] = 0
	}

	dayCount := make(map[time.Weekday]int)
	uniqueDates := make(map[string]struct{})

	for _, ev := range events {
		if ev.Category != "" {
			stats.ByCategory[ev.Category]++
		}
		if ev.Priority != "" {
			stats.ByPriority[ev.Priority]++
		}
		if ev.Status != "" {
			stats.ByStatus[ev.Status]++
		}
		if len(ev.Date) >= 7 {
			stats.ByMonth[ev.Date[:7]]++
		}
		uniqueDates[ev.Date] = struct{}{}
		if d, err := ev.ParseDate(); err == nil {
			dayCount[d.Weekday()]++
		}
	}

	// Ties resolve to the earliest weekday, Sunday first.
	best, bestCount := time.Sunday, 0
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if dayCount[wd] > bestCount {
			best, bestCount = wd, dayCount[wd]
		}
	}
	stats.MostActiveDay = weekdayNames[best]

	if len(events) > 0 && len(uniqueDates) > 0 {
		stats.AverageEventsPerDay = fmt.Sprintf("%.1f", float64(len(events))/float64(len(uniqueDates)))
	}

	return stats
}
