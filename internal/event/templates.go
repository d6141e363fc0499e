package event

import "sharedcal/internal/model"

// Template is a ready-made starting point for common event kinds. Duration
// is in minutes and feeds the form's end-time pre-fill.
type Template struct {
	Name     string         `json:"name"`
	Title    string         `json:"title"`
	Category model.Category `json:"category"`
	Color    string         `json:"color"`
	Icon     string         `json:"icon"`
	Duration int            `json:"duration"`
	Priority model.Priority `json:"priority"`
}

// Templates returns the built-in event templates.
func Templates() []Template {
	return []Template{
		{
			Name:     "Work Meeting",
			Title:    "Team Meeting",
			Category: model.CategoryWork,
			Color:    "#FF9800",
			Icon:     "💼",
			Duration: 60,
			Priority: model.PriorityHigh,
		},
		{
			Name:     "Doctor Appointment",
			Title:    "Doctor Appointment",
			Category: model.CategoryHealth,
			Color:    "#F44336",
			Icon:     "🏥",
			Duration: 30,
			Priority: model.PriorityHigh,
		},
		{
			Name:     "Birthday Party",
			Title:    "Birthday Celebration",
			Category: model.CategoryFamily,
			Color:    "#E91E63",
			Icon:     "🎂",
			Duration: 180,
			Priority: model.PriorityMedium,
		},
		{
			Name:     "Study Session",
			Title:    "Study Session",
			Category: model.CategoryEducation,
			Color:    "#673AB7",
			Icon:     "📚",
			Duration: 120,
			Priority: model.PriorityMedium,
		},
		{
			Name:     "Workout",
			Title:    "Workout Session",
			Category: model.CategoryPersonal,
			Color:    "#4CAF50",
			Icon:     "🏃",
			Duration: 60,
			Priority: model.PriorityLow,
		},
	}
}
