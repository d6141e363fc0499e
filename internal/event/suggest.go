package event

import (
	"strings"

	"sharedcal/internal/model"
)

// Suggestion is the heuristic outcome of matching a title against the
// keyword rules: a convenience for pre-filling the event form, not a
// correctness-critical path.
type Suggestion struct {
	Category model.Category `json:"category"`
	Color    string         `json:"color"`
	Icon     string         `json:"icon"`
	Priority model.Priority `json:"priority"`
}

// suggestRule is one entry of the ordered first-match table. An empty
// priority leaves the default untouched.
type suggestRule struct {
	keywords []string
	category model.Category
	color    string
	icon     string
	priority model.Priority
}

// suggestionRules is evaluated top to bottom; the first rule whose keyword
// set matches wins. Kept as pure data so the table is testable on its own.
var suggestionRules = []suggestRule{
	{
		keywords: []string{"meeting", "call", "conference", "presentation", "deadline", "project"},
		category: model.CategoryWork,
		color:    "#FF9800",
		icon:     "💼",
		priority: model.PriorityHigh,
	},
	{
		keywords: []string{"doctor", "dentist", "appointment", "medical", "checkup", "surgery"},
		category: model.CategoryHealth,
		color:    "#F44336",
		icon:     "🏥",
		priority: model.PriorityHigh,
	},
	{
		keywords: []string{"family", "birthday", "anniversary", "graduation", "wedding"},
		category: model.CategoryFamily,
		color:    "#4CAF50",
		icon:     "👨‍👩‍👧‍👦",
	},
	{
		keywords: []string{"flight", "vacation", "trip", "travel", "hotel", "airport"},
		category: model.CategoryTravel,
		color:    "#00BCD4",
		icon:     "✈️",
	},
	{
		keywords: []string{"class", "lecture", "exam", "study", "school", "university"},
		category: model.CategoryEducation,
		color:    "#673AB7",
		icon:     "🎓",
	},
	{
		keywords: []string{"party", "dinner", "lunch", "coffee", "drinks", "social"},
		category: model.CategorySocial,
		color:    "#E91E63",
		icon:     "🍽️",
	},
}

// SuggestDetails matches the lowercased title against the ordered rule
// table; the first matching rule sets category, color, icon and (for work
// and health) raises priority. A second, independent pass then overrides the
// icon for birthday-style titles and the icon plus category for
// holiday-style titles, regardless of which rule matched first.
func SuggestDetails(title string) Suggestion {
	s := Suggestion{
		Category: model.CategoryPersonal,
		Color:    DefaultColor,
		Priority: model.PriorityMedium,
	}

	lower := strings.ToLower(title)

	for _, rule := range suggestionRules {
		if !containsAny(lower, rule.keywords) {
			continue
		}
		s.Category = rule.category
		s.Color = rule.color
		s.Icon = rule.icon
		if rule.priority != "" {
			s.Priority = rule.priority
		}
		break
	}

	// Special occasions override whatever the first pass decided.
	if containsAny(lower, []string{"birthday", "bday"}) {
		s.Icon = "🎂"
	} else if containsAny(lower, []string{"holiday", "christmas", "thanksgiving", "easter"}) {
		s.Category = model.CategoryHoliday
		s.Icon = "🎉"
	}

	return s
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
