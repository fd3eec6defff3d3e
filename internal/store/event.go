package store

import (
	"database/sql"
	"fmt"
	"time"
)

// EventStore performs row CRUD on the events table. It deals in EventRow;
// conversion to and from the domain shape is the mapper's job.
type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

const eventCols = `id, title, description, location, start_time, end_time, all_day,
	event_type_id, calendar_id, is_recurring, recurrence_rule,
	case_id, client_name, assigned_lawyer, court_name, judge_details, docket_number,
	created_at, updated_at`

func scanEventRow(scanner interface{ Scan(...any) error }) (*EventRow, error) {
	var r EventRow
	var allDay, isRecurring int
	err := scanner.Scan(
		&r.ID, &r.Title, &r.Description, &r.Location, &r.StartTime, &r.EndTime, &allDay,
		&r.EventTypeID, &r.CalendarID, &isRecurring, &r.RecurrenceRule,
		&r.CaseID, &r.ClientName, &r.AssignedLawyer, &r.CourtName, &r.JudgeDetails, &r.DocketNumber,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.AllDay = allDay != 0
	r.IsRecurring = isRecurring != 0
	return &r, nil
}

func (s *EventStore) List() ([]EventRow, error) {
	rows, err := s.db.Query(`SELECT ` + eventCols + ` FROM events ORDER BY start_time`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []EventRow
	for rows.Next() {
		r, err := scanEventRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *r)
	}
	return events, rows.Err()
}

func (s *EventStore) GetByID(id string) (*EventRow, error) {
	row := s.db.QueryRow(`SELECT `+eventCols+` FROM events WHERE id = ?`, id)
	r, err := scanEventRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return r, nil
}

func (s *EventStore) Create(r EventRow) (*EventRow, error) {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT INTO events (id, title, description, location, start_time, end_time, all_day,
			event_type_id, calendar_id, is_recurring, recurrence_rule,
			case_id, client_name, assigned_lawyer, court_name, judge_details, docket_number,
			created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Title, r.Description, r.Location, r.StartTime, r.EndTime, boolInt(r.AllDay),
		r.EventTypeID, r.CalendarID, boolInt(r.IsRecurring), r.RecurrenceRule,
		r.CaseID, r.ClientName, r.AssignedLawyer, r.CourtName, r.JudgeDetails, r.DocketNumber,
		now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return s.GetByID(r.ID)
}

func (s *EventStore) Update(r EventRow) (*EventRow, error) {
	_, err := s.db.Exec(
		`UPDATE events
		 SET title = ?, description = ?, location = ?, start_time = ?, end_time = ?, all_day = ?,
			event_type_id = ?, calendar_id = ?, is_recurring = ?, recurrence_rule = ?,
			case_id = ?, client_name = ?, assigned_lawyer = ?, court_name = ?, judge_details = ?, docket_number = ?,
			updated_at = ?
		 WHERE id = ?`,
		r.Title, r.Description, r.Location, r.StartTime, r.EndTime, boolInt(r.AllDay),
		r.EventTypeID, r.CalendarID, boolInt(r.IsRecurring), r.RecurrenceRule,
		r.CaseID, r.ClientName, r.AssignedLawyer, r.CourtName, r.JudgeDetails, r.DocketNumber,
		time.Now().UTC(), r.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return s.GetByID(r.ID)
}

func (s *EventStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// ReminderCandidate pairs an event's scheduling fields with one of its
// reminder offsets, for the push scheduler.
type ReminderCandidate struct {
	EventID        string
	Title          string
	StartTime      time.Time
	EndTime        time.Time
	IsRecurring    bool
	RecurrenceRule sql.NullString
	Minutes        int
}

// ListReminderCandidates returns every (event, reminder offset) pair.
func (s *EventStore) ListReminderCandidates() ([]ReminderCandidate, error) {
	rows, err := s.db.Query(
		`SELECT e.id, e.title, e.start_time, e.end_time, e.is_recurring, e.recurrence_rule, r.reminder_time
		 FROM events e
		 JOIN event_reminders r ON r.event_id = e.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query reminder candidates: %w", err)
	}
	defer rows.Close()

	var out []ReminderCandidate
	for rows.Next() {
		var c ReminderCandidate
		var isRecurring int
		if err := rows.Scan(&c.EventID, &c.Title, &c.StartTime, &c.EndTime, &isRecurring, &c.RecurrenceRule, &c.Minutes); err != nil {
			return nil, fmt.Errorf("scan reminder candidate: %w", err)
		}
		c.IsRecurring = isRecurring != 0
		out = append(out, c)
	}
	return out, rows.Err()
}
