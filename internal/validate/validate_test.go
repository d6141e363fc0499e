package validate

import (
	"strings"
	"testing"

	"sharedcal/internal/model"
)

func TestEventValid(t *testing.T) {
	res := Event(model.Event{
		ID:         "ev1",
		Title:      "Team Meeting",
		Date:       "2024-03-01",
		StartTime:  "09:00",
		EndTime:    "10:00",
		Color:      "#FF9800",
		SharedWith: []string{"alice@example.com", "bob@example.org"},
	})
	if !res.Valid {
		t.Fatalf("expected valid, got errors: %v", res.Errors)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("expected empty error list, got %v", res.Errors)
	}
}

func TestEventAccumulatesErrors(t *testing.T) {
	res := Event(model.Event{
		Title:     "   ",
		StartTime: "10:00",
		EndTime:   "09:00",
		Color:     "blue",
	})
	if res.Valid {
		t.Fatal("expected invalid")
	}
	want := []string{
		"Event title is required",
		"Event date is required",
		"End time must be after start time",
		"Invalid color format",
	}
	if len(res.Errors) != len(want) {
		t.Fatalf("expected %d errors, got %v", len(want), res.Errors)
	}
	for i, msg := range want {
		if res.Errors[i] != msg {
			t.Errorf("errors[%d] = %q, want %q", i, res.Errors[i], msg)
		}
	}
}

func TestEventRules(t *testing.T) {
	tests := []struct {
		name    string
		ev      model.Event
		wantErr string
	}{
		{
			name:    "unparseable date",
			ev:      model.Event{Title: "x", Date: "03/01/2024"},
			wantErr: "Invalid event date",
		},
		{
			name:    "equal start and end",
			ev:      model.Event{Title: "x", Date: "2024-03-01", StartTime: "09:00", EndTime: "09:00"},
			wantErr: "End time must be after start time",
		},
		{
			name:    "bad shared email",
			ev:      model.Event{Title: "x", Date: "2024-03-01", SharedWith: []string{"not-an-email"}},
			wantErr: "Invalid email addresses: not-an-email",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Event(tt.ev)
			if res.Valid {
				t.Fatal("expected invalid")
			}
			found := false
			for _, e := range res.Errors {
				if strings.Contains(e, tt.wantErr) {
					found = true
				}
			}
			if !found {
				t.Fatalf("errors %v do not contain %q", res.Errors, tt.wantErr)
			}
		})
	}
}

func TestEventTimesOptional(t *testing.T) {
	// All-day and start-only events skip the time-order rule.
	for _, ev := range []model.Event{
		{Title: "x", Date: "2024-03-01"},
		{Title: "x", Date: "2024-03-01", StartTime: "09:00"},
	} {
		if res := Event(ev); !res.Valid {
			t.Fatalf("expected valid, got %v", res.Errors)
		}
	}
}

func TestValidColor(t *testing.T) {
	tests := []struct {
		color string
		want  bool
	}{
		{"#2196F3", true},
		{"#abc", true},
		{"rgb(33, 150, 243)", true},
		{"rgb(0,0,0)", true},
		{"#22", false},
		{"#12345", false},
		{"rgba(0,0,0,1)", false},
		{"blue", false},
	}
	for _, tt := range tests {
		if got := ValidColor(tt.color); got != tt.want {
			t.Errorf("ValidColor(%q) = %v, want %v", tt.color, got, tt.want)
		}
	}
}

func TestValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"alice@example.com", true},
		{"a.b+c@sub.example.org", true},
		{"alice", false},
		{"alice@", false},
		{"alice@example", false},
		{"a b@example.com", false},
	}
	for _, tt := range tests {
		if got := ValidEmail(tt.email); got != tt.want {
			t.Errorf("ValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}
