package event

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"sharedcal/internal/model"
)

// frequencies maps the rule cadence onto RFC 5545 frequencies.
var frequencies = map[model.Frequency]rrule.Frequency{
	model.FrequencyDaily:   rrule.DAILY,
	model.FrequencyWeekly:  rrule.WEEKLY,
	model.FrequencyMonthly: rrule.MONTHLY,
	model.FrequencyYearly:  rrule.YEARLY,
}

// ExpandRecurrence generates concrete instances of base according to rule,
// up to and including the until date. The base date itself is never
// re-emitted; each instance is a clone of base with a fresh id, the advanced
// date and ParentEventID pointing back at base. The base event is not
// mutated.
//
// Month-end stepping follows RFC 5545 semantics (via rrule): a monthly rule
// anchored on the 31st only yields months that have a 31st. This is the
// documented resolution of the rollover question; there is no clamping and
// no overflow into the following month.
func (f *Factory) ExpandRecurrence(base model.Event, rule model.RecurrenceRule, until string) ([]model.Event, error) {
	start, err := base.ParseDate()
	if err != nil {
		return nil, fmt.Errorf("expand recurrence: base date: %w", err)
	}
	end, err := time.Parse(model.DateLayout, until)
	if err != nil {
		return nil, fmt.Errorf("expand recurrence: until date: %w", err)
	}

	freq, ok := frequencies[rule.Frequency]
	if !ok {
		return nil, fmt.Errorf("expand recurrence: unknown frequency %q", rule.Frequency)
	}
	interval := rule.Interval
	if interval <= 0 {
		interval = 1
	}

	if end.Before(start) {
		return nil, nil
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:     freq,
		Interval: interval,
		Dtstart:  start,
		Until:    end,
	})
	if err != nil {
		return nil, fmt.Errorf("expand recurrence: %w", err)
	}

	now := f.Now().UTC().Format(time.RFC3339)

	var out []model.Event
	for _, occ := range r.All() {
		if !occ.After(start) {
			continue
		}
		inst := base
		inst.ID = f.NewID()
		inst.Date = occ.Format(model.DateLayout)
		inst.ParentEventID = base.ID
		inst.CreatedAt = now
		inst.UpdatedAt = now
		out = append(out, inst)
	}
	return out, nil
}
