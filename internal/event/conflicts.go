package event

import "sharedcal/internal/model"

// FindConflicts returns every existing event whose timed interval overlaps
// the candidate's on the same date. All-day events (missing either time)
// never conflict, and an event never conflicts with itself (compared by id).
//
// Two timed events overlap when their [start,end) intervals intersect:
// newStart < existingEnd && newEnd > existingStart. Abutting events do not
// conflict. HH:MM strings compare lexicographically, which matches
// chronological order for the fixed-width format.
func FindConflicts(candidate model.Event, existing []model.Event) []model.Event {
	if candidate.StartTime == "" || candidate.EndTime == "" {
		return nil
	}

	var conflicts []model.Event
	for _, ev := range existing {
		if ev.ID == candidate.ID {
			continue
		}
		if ev.Date != candidate.Date {
			continue
		}
		if ev.StartTime == "" || ev.EndTime == "" {
			continue
		}
		if candidate.StartTime < ev.EndTime && candidate.EndTime > ev.StartTime {
			conflicts = append(conflicts, ev)
		}
	}
	return conflicts
}
