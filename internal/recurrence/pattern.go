// Package recurrence materializes concrete occurrences of recurring events
// inside a date window and owns the string form of the recurrence_rule column.
package recurrence

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mwhitlock/lexcal/internal/model"
)

var freqNames = map[model.Frequency]string{
	model.Daily:   "DAILY",
	model.Weekly:  "WEEKLY",
	model.Monthly: "MONTHLY",
	model.Yearly:  "YEARLY",
}

var freqFromName = map[string]model.Frequency{
	"DAILY":   model.Daily,
	"WEEKLY":  model.Weekly,
	"MONTHLY": model.Monthly,
	"YEARLY":  model.Yearly,
}

const untilLayout = "20060102T150405"

// Format serializes a pattern to the stored string form, e.g.
// "FREQ=DAILY;INTERVAL=2;COUNT=5" or "FREQ=WEEKLY;UNTIL=20240131T090000".
func Format(p model.RecurrencePattern) (string, error) {
	name, ok := freqNames[p.Frequency]
	if !ok {
		return "", fmt.Errorf("unknown frequency: %q", p.Frequency)
	}

	parts := []string{"FREQ=" + name}
	if p.Interval > 1 {
		parts = append(parts, fmt.Sprintf("INTERVAL=%d", p.Interval))
	}
	if p.Occurrences != nil {
		parts = append(parts, fmt.Sprintf("COUNT=%d", *p.Occurrences))
	}
	if p.EndDate != nil {
		parts = append(parts, "UNTIL="+p.EndDate.Format(untilLayout))
	}
	return strings.Join(parts, ";"), nil
}

// Parse is the inverse of Format.
func Parse(rule string) (model.RecurrencePattern, error) {
	if rule == "" {
		return model.RecurrencePattern{}, fmt.Errorf("empty rule")
	}

	p := model.RecurrencePattern{Interval: 1}
	var hasFreq bool

	for _, part := range strings.Split(rule, ";") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return model.RecurrencePattern{}, fmt.Errorf("invalid rule part: %q", part)
		}
		key, val := kv[0], kv[1]

		switch key {
		case "FREQ":
			f, ok := freqFromName[val]
			if !ok {
				return model.RecurrencePattern{}, fmt.Errorf("unknown frequency: %q", val)
			}
			p.Frequency = f
			hasFreq = true

		case "INTERVAL":
			n, err := strconv.Atoi(val)
			if err != nil || n < 1 {
				return model.RecurrencePattern{}, fmt.Errorf("invalid interval: %q", val)
			}
			p.Interval = n

		case "COUNT":
			n, err := strconv.Atoi(val)
			if err != nil || n < 0 {
				return model.RecurrencePattern{}, fmt.Errorf("invalid count: %q", val)
			}
			p.Occurrences = &n

		case "UNTIL":
			t, err := time.Parse(untilLayout, val)
			if err != nil {
				t, err = time.Parse("20060102", val)
				if err != nil {
					return model.RecurrencePattern{}, fmt.Errorf("invalid UNTIL: %q", val)
				}
			}
			p.EndDate = &t

		default:
			return model.RecurrencePattern{}, fmt.Errorf("unsupported rule key: %q", key)
		}
	}

	if !hasFreq {
		return model.RecurrencePattern{}, fmt.Errorf("FREQ is required")
	}

	return p, nil
}

// Describe returns a human-readable summary of the pattern.
func Describe(p model.RecurrencePattern) string {
	unit := map[model.Frequency]string{
		model.Daily:   "day",
		model.Weekly:  "week",
		model.Monthly: "month",
		model.Yearly:  "year",
	}[p.Frequency]
	if unit == "" {
		return ""
	}
	if p.Interval > 1 {
		return fmt.Sprintf("Repeats every %d %ss", p.Interval, unit)
	}
	return "Repeats every " + unit
}
