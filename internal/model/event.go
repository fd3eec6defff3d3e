package model

import "time"

// Well-known event type names. Types are backed by event_types rows and
// resolved by name on write, so the set is open-ended; these are the names
// the UI offers by default.
const (
	TypeClientMeeting   = "client-meeting"
	TypeInternalMeeting = "internal-meeting"
	TypeCourt           = "court"
	TypeDeadline        = "deadline"
	TypePersonal        = "personal"
)

// Frequency is a recurrence step unit.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// RecurrencePattern describes how a recurring event repeats. At most one of
// EndDate/Occurrences acts as the termination bound; when both are absent the
// series is unbounded and expansion is limited by the requested window only.
type RecurrencePattern struct {
	Frequency   Frequency  `json:"frequency"`
	Interval    int        `json:"interval"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Occurrences *int       `json:"occurrences,omitempty"`
}

// CourtInfo holds court appearance details, flattened to scalar columns in
// persisted form.
type CourtInfo struct {
	CourtName    string `json:"court_name,omitempty"`
	JudgeDetails string `json:"judge_details,omitempty"`
	DocketNumber string `json:"docket_number,omitempty"`
}

// Document is a linked document reference, stored as a satellite row.
type Document struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// EventType is a display category with a color, keyed by name.
type EventType struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Event is the in-memory event shape. Satellite collections (attendees,
// reminder, documents) live in separate tables and are merged in by the
// fetch path, not by row mapping.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	AllDay      bool      `json:"all_day"`

	Type   string `json:"type,omitempty"`
	TypeID string `json:"type_id,omitempty"`
	Color  string `json:"color,omitempty"`

	CalendarID    string `json:"calendar_id"`
	CalendarColor string `json:"calendar_color,omitempty"`

	IsRecurring bool               `json:"is_recurring"`
	Recurrence  *RecurrencePattern `json:"recurrence_pattern,omitempty"`

	Attendees []string   `json:"attendees"`
	Reminder  Reminder   `json:"reminder"`
	Documents []Document `json:"documents"`

	CaseID         string     `json:"case_id,omitempty"`
	ClientName     string     `json:"client_name,omitempty"`
	AssignedLawyer string     `json:"assigned_lawyer,omitempty"`
	CourtInfo      *CourtInfo `json:"court_info,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the event.
func (e Event) Clone() Event {
	out := e
	if e.Recurrence != nil {
		r := *e.Recurrence
		if e.Recurrence.EndDate != nil {
			d := *e.Recurrence.EndDate
			r.EndDate = &d
		}
		if e.Recurrence.Occurrences != nil {
			n := *e.Recurrence.Occurrences
			r.Occurrences = &n
		}
		out.Recurrence = &r
	}
	if e.CourtInfo != nil {
		ci := *e.CourtInfo
		out.CourtInfo = &ci
	}
	if e.Attendees != nil {
		out.Attendees = append([]string(nil), e.Attendees...)
	}
	if e.Documents != nil {
		out.Documents = append([]Document(nil), e.Documents...)
	}
	return out
}

// NormalizeAllDay snaps Start to the beginning of its day and End to
// 23:59:59.999 of its day. No-op unless AllDay is set.
func (e *Event) NormalizeAllDay() {
	if !e.AllDay {
		return
	}
	y, m, d := e.Start.Date()
	e.Start = time.Date(y, m, d, 0, 0, 0, 0, e.Start.Location())
	y, m, d = e.End.Date()
	e.End = time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), e.End.Location())
}

// Overlaps reports whether the event intersects [rangeStart, rangeEnd).
func (e Event) Overlaps(rangeStart, rangeEnd time.Time) bool {
	return e.Start.Before(rangeEnd) && e.End.After(rangeStart)
}
