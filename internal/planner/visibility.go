package planner

import (
	"time"

	"github.com/mwhitlock/lexcal/internal/model"
	"github.com/mwhitlock/lexcal/internal/recurrence"
)

// VisibleEvents returns the events whose calendar, in either set, is checked.
// Visibility depends only on the calendar id, so this filter composes with
// recurrence expansion in either order.
func VisibleEvents(events []model.Event, myCalendars, otherCalendars []model.Calendar) []model.Event {
	checked := make(map[string]bool, len(myCalendars)+len(otherCalendars))
	for _, c := range myCalendars {
		if c.Checked {
			checked[c.ID] = true
		}
	}
	for _, c := range otherCalendars {
		if c.Checked {
			checked[c.ID] = true
		}
	}

	visible := []model.Event{}
	for _, e := range events {
		if checked[e.CalendarID] {
			visible = append(visible, e)
		}
	}
	return visible
}

// Schedule returns the visible events for a display window: cached one-off
// events that overlap the window, plus expanded instances of visible
// recurring templates.
func (p *Planner) Schedule(rangeStart, rangeEnd time.Time) ([]model.Event, error) {
	snap := p.Snapshot()
	visible := VisibleEvents(snap.Events, snap.MyCalendars, snap.OtherCalendars)

	out := []model.Event{}
	for _, e := range visible {
		if e.IsRecurring && e.Recurrence != nil {
			instances, err := recurrence.Expand(e, rangeStart, rangeEnd)
			if err != nil {
				return nil, err
			}
			out = append(out, instances...)
			continue
		}
		if e.Overlaps(rangeStart, rangeEnd) {
			out = append(out, e)
		}
	}
	return out, nil
}
