package recurrence

import (
	"time"

	"github.com/mwhitlock/lexcal/internal/model"
)

// Safety cap on candidate generation for unbounded patterns over huge windows.
const maxCandidates = 10000

// InstanceKey identifies one ephemeral occurrence of a recurring template.
// It replaces ad-hoc id+timestamp string concatenation so instance ids cannot
// collide across differently formatted timestamps.
type InstanceKey struct {
	TemplateID string
	Start      time.Time
}

// String renders the key as "<template-id>@<RFC3339 start>"; used as the
// instance's id so UI list keys stay unique.
func (k InstanceKey) String() string {
	return k.TemplateID + "@" + k.Start.UTC().Format(time.RFC3339)
}

// ParseInstanceKey splits an instance id back into its template id and start.
func ParseInstanceKey(id string) (InstanceKey, bool) {
	i := len(id) - 1
	for ; i >= 0; i-- {
		if id[i] == '@' {
			break
		}
	}
	if i <= 0 {
		return InstanceKey{}, false
	}
	start, err := time.Parse(time.RFC3339, id[i+1:])
	if err != nil {
		return InstanceKey{}, false
	}
	return InstanceKey{TemplateID: id[:i], Start: start}, true
}

// Expand materializes the occurrences of a recurring template whose start
// falls within [rangeStart, rangeEnd]. Instances are never persisted: each is
// a clone of the template with shifted start/end (duration preserved) and a
// synthesized id. The occurrence count bound applies from the first
// occurrence of the series, not only those inside the window.
//
// Calling Expand on a non-recurring event or one without a pattern is a
// contract violation and fails rather than returning an empty slice.
func Expand(template model.Event, rangeStart, rangeEnd time.Time) ([]model.Event, error) {
	if !template.IsRecurring || template.Recurrence == nil {
		return nil, &model.ValidationError{Field: "recurrence_pattern", Reason: "event is not recurring"}
	}
	p := *template.Recurrence
	if _, ok := freqNames[p.Frequency]; !ok {
		return nil, &model.ValidationError{Field: "recurrence_pattern", Reason: "missing or unknown frequency"}
	}
	if p.Interval < 1 {
		return nil, &model.ValidationError{Field: "recurrence_pattern", Reason: "interval must be >= 1"}
	}

	duration := template.End.Sub(template.Start)

	var out []model.Event
	for n := 0; n < maxCandidates; n++ {
		if p.Occurrences != nil && n >= *p.Occurrences {
			break
		}

		start := nthStart(template.Start, p, n)
		if p.EndDate != nil && start.After(*p.EndDate) {
			break
		}
		if start.After(rangeEnd) {
			break
		}
		if start.Before(rangeStart) {
			continue
		}

		inst := template.Clone()
		inst.ID = InstanceKey{TemplateID: template.ID, Start: start}.String()
		inst.Start = start
		inst.End = start.Add(duration)
		out = append(out, inst)
	}

	return out, nil
}

// nthStart returns the start of the n-th occurrence (n=0 is the template's
// own start). Steps are computed from the anchor rather than cumulatively so
// month-end overflow (Jan 31 + 1 month = Mar 2/3 per AddDate) does not drift
// further with each step.
func nthStart(anchor time.Time, p model.RecurrencePattern, n int) time.Time {
	switch p.Frequency {
	case model.Daily:
		return anchor.AddDate(0, 0, n*p.Interval)
	case model.Weekly:
		return anchor.AddDate(0, 0, 7*n*p.Interval)
	case model.Monthly:
		return anchor.AddDate(0, n*p.Interval, 0)
	case model.Yearly:
		return anchor.AddDate(n*p.Interval, 0, 0)
	}
	return anchor
}

// NextOccurrence returns the first occurrence starting at or after t, or
// false when the series is exhausted before t.
func NextOccurrence(template model.Event, t time.Time) (model.Event, bool) {
	horizon := t.AddDate(10, 0, 0)
	instances, err := Expand(template, t, horizon)
	if err != nil || len(instances) == 0 {
		return model.Event{}, false
	}
	return instances[0], true
}
