// Package validate checks candidate event records before they reach the
// store. All violated rules are reported together; nothing is mutated and
// nothing is thrown.
package validate

import (
	"regexp"
	"strings"
	"time"

	"sharedcal/internal/model"
)

var (
	hexColorPattern = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)
	rgbColorPattern = regexp.MustCompile(`^rgb\(\s*\d+\s*,\s*\d+\s*,\s*\d+\s*\)$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Result is the outcome of validating a candidate event.
type Result struct {
	Valid  bool     `json:"isValid"`
	Errors []string `json:"errors"`
}

// Event validates a candidate event record and accumulates every violated
// rule into Result.Errors. It never short-circuits: a candidate missing both
// a title and a date reports both messages.
func Event(candidate model.Event) Result {
	var errs []string

	if strings.TrimSpace(candidate.Title) == "" {
		errs = append(errs, "Event title is required")
	}

	if candidate.Date == "" {
		errs = append(errs, "Event date is required")
	} else if _, err := time.Parse(model.DateLayout, candidate.Date); err != nil {
		errs = append(errs, "Invalid event date")
	}

	if candidate.StartTime != "" && candidate.EndTime != "" {
		// Fixed-width HH:MM, so string order equals chronological order.
		if candidate.StartTime >= candidate.EndTime {
			errs = append(errs, "End time must be after start time")
		}
	}

	if candidate.Color != "" && !ValidColor(candidate.Color) {
		errs = append(errs, "Invalid color format")
	}

	if len(candidate.SharedWith) > 0 {
		var invalid []string
		for _, email := range candidate.SharedWith {
			if !ValidEmail(strings.TrimSpace(email)) {
				invalid = append(invalid, email)
			}
		}
		if len(invalid) > 0 {
			errs = append(errs, "Invalid email addresses: "+strings.Join(invalid, ", "))
		}
	}

	return Result{Valid: len(errs) == 0, Errors: errs}
}

// ValidColor reports whether a color string is hex (#RGB or #RRGGBB) or an
// rgb(r,g,b) triple.
func ValidColor(color string) bool {
	return hexColorPattern.MatchString(color) || rgbColorPattern.MatchString(color)
}

// ValidEmail reports whether an address has a basic local@domain.tld shape.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
