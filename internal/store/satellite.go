package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mwhitlock/lexcal/internal/model"
)

// SatelliteStore manages the three one-to-many collections hanging off an
// event: attendees, reminders, documents. Every reconcile deletes the
// existing rows and reinserts the new collection; the collections are small
// and fully owned by the parent event, so a diff/patch is not worth it.
type SatelliteStore struct {
	db *sql.DB
}

func NewSatelliteStore(db *sql.DB) *SatelliteStore {
	return &SatelliteStore{db: db}
}

// ReconcileAttendees replaces the attendee rows for an event. A value
// containing "@" is stored in the email column, anything else in name.
func (s *SatelliteStore) ReconcileAttendees(eventID string, attendees []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin attendees reconcile: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM event_attendees WHERE event_id = ?`, eventID); err != nil {
		return fmt.Errorf("delete attendees: %w", err)
	}

	for i, a := range attendees {
		var name, email sql.NullString
		if strings.Contains(a, "@") {
			email = sql.NullString{String: a, Valid: true}
		} else {
			name = sql.NullString{String: a, Valid: true}
		}
		if _, err := tx.Exec(
			`INSERT INTO event_attendees (event_id, name, email, position) VALUES (?, ?, ?, ?)`,
			eventID, name, email, i,
		); err != nil {
			return fmt.Errorf("insert attendee: %w", err)
		}
	}

	return tx.Commit()
}

// ReconcileReminder replaces the reminder row for an event. ReminderNone
// deletes without reinserting.
func (s *SatelliteStore) ReconcileReminder(eventID string, r model.Reminder) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin reminder reconcile: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM event_reminders WHERE event_id = ?`, eventID); err != nil {
		return fmt.Errorf("delete reminders: %w", err)
	}

	if minutes, ok := r.Minutes(); ok {
		if _, err := tx.Exec(
			`INSERT INTO event_reminders (event_id, reminder_type, reminder_time) VALUES (?, 'popup', ?)`,
			eventID, minutes,
		); err != nil {
			return fmt.Errorf("insert reminder: %w", err)
		}
	}

	return tx.Commit()
}

// ReconcileDocuments replaces the document rows for an event. Documents
// without an id get one.
func (s *SatelliteStore) ReconcileDocuments(eventID string, docs []model.Document) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin documents reconcile: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM event_documents WHERE event_id = ?`, eventID); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}

	for i, d := range docs {
		id := d.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := tx.Exec(
			`INSERT INTO event_documents (id, event_id, name, url, position) VALUES (?, ?, ?, ?, ?)`,
			id, eventID, d.Name, d.URL, i,
		); err != nil {
			return fmt.Errorf("insert document: %w", err)
		}
	}

	return tx.Commit()
}

// Attendees returns the attendee values in insertion order.
func (s *SatelliteStore) Attendees(eventID string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT name, email FROM event_attendees WHERE event_id = ? ORDER BY position, id`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("query attendees: %w", err)
	}
	defer rows.Close()

	attendees := []string{}
	for rows.Next() {
		var name, email sql.NullString
		if err := rows.Scan(&name, &email); err != nil {
			return nil, fmt.Errorf("scan attendee: %w", err)
		}
		switch {
		case email.Valid && email.String != "":
			attendees = append(attendees, email.String)
		case name.Valid:
			attendees = append(attendees, name.String)
		}
	}
	return attendees, rows.Err()
}

// Reminder returns the event's reminder code. When multiple rows exist the
// earliest offset wins; no rows means ReminderNone.
func (s *SatelliteStore) Reminder(eventID string) (model.Reminder, error) {
	var minutes int
	err := s.db.QueryRow(
		`SELECT reminder_time FROM event_reminders WHERE event_id = ? ORDER BY reminder_time ASC LIMIT 1`,
		eventID,
	).Scan(&minutes)
	if err == sql.ErrNoRows {
		return model.ReminderNone, nil
	}
	if err != nil {
		return model.ReminderNone, fmt.Errorf("query reminder: %w", err)
	}
	return model.ReminderFromMinutes(minutes), nil
}

// Documents returns the document rows in insertion order.
func (s *SatelliteStore) Documents(eventID string) ([]model.Document, error) {
	rows, err := s.db.Query(
		`SELECT id, name, url FROM event_documents WHERE event_id = ? ORDER BY position, id`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	docs := []model.Document{}
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.ID, &d.Name, &d.URL); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// DeleteAll removes every satellite row for an event. Used before deleting
// the primary row rather than relying on cascade behavior alone.
func (s *SatelliteStore) DeleteAll(eventID string) error {
	for _, table := range []string{"event_attendees", "event_reminders", "event_documents"} {
		if _, err := s.db.Exec(`DELETE FROM `+table+` WHERE event_id = ?`, eventID); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	return nil
}
