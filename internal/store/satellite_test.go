package store

import (
	"testing"

	"github.com/mwhitlock/lexcal/internal/model"
)

func TestReconcileAttendeesSplitsEmailAndName(t *testing.T) {
	db := setupDB(t)
	cal := mustCreateCalendar(t, db, testCalendar())
	row := baseEventRow(cal.ID)
	if _, err := NewEventStore(db).Create(row); err != nil {
		t.Fatalf("create event: %v", err)
	}

	s := NewSatelliteStore(db)
	want := []string{"paralegal@firm.example", "Jordan Ellis", "client@acme.example"}
	if err := s.ReconcileAttendees(row.ID, want); err != nil {
		t.Fatalf("reconcile attendees: %v", err)
	}

	got, err := s.Attendees(row.ID)
	if err != nil {
		t.Fatalf("read attendees: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d attendees, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("attendee[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	var emails, names int
	if err := db.QueryRow(`SELECT COUNT(email) FROM event_attendees WHERE event_id = ?`, row.ID).Scan(&emails); err != nil {
		t.Fatalf("count emails: %v", err)
	}
	if err := db.QueryRow(`SELECT COUNT(name) FROM event_attendees WHERE event_id = ?`, row.ID).Scan(&names); err != nil {
		t.Fatalf("count names: %v", err)
	}
	if emails != 2 || names != 1 {
		t.Errorf("emails = %d, names = %d; want 2 and 1", emails, names)
	}
}

func TestReconcileAttendeesReplacesExisting(t *testing.T) {
	db := setupDB(t)
	cal := mustCreateCalendar(t, db, testCalendar())
	row := baseEventRow(cal.ID)
	if _, err := NewEventStore(db).Create(row); err != nil {
		t.Fatalf("create event: %v", err)
	}

	s := NewSatelliteStore(db)
	if err := s.ReconcileAttendees(row.ID, []string{"a@x.example", "b@x.example"}); err != nil {
		t.Fatalf("first reconcile: %v", err)
	}
	if err := s.ReconcileAttendees(row.ID, []string{"c@x.example"}); err != nil {
		t.Fatalf("second reconcile: %v", err)
	}

	got, err := s.Attendees(row.ID)
	if err != nil {
		t.Fatalf("read attendees: %v", err)
	}
	if len(got) != 1 || got[0] != "c@x.example" {
		t.Errorf("got %v, want [c@x.example]", got)
	}
}

func TestReminderRoundTrip(t *testing.T) {
	db := setupDB(t)
	cal := mustCreateCalendar(t, db, testCalendar())
	row := baseEventRow(cal.ID)
	if _, err := NewEventStore(db).Create(row); err != nil {
		t.Fatalf("create event: %v", err)
	}

	s := NewSatelliteStore(db)
	if err := s.ReconcileReminder(row.ID, model.Reminder1Hour); err != nil {
		t.Fatalf("reconcile reminder: %v", err)
	}

	got, err := s.Reminder(row.ID)
	if err != nil {
		t.Fatalf("read reminder: %v", err)
	}
	if got != model.Reminder1Hour {
		t.Errorf("reminder = %q, want %q", got, model.Reminder1Hour)
	}

	var minutes int
	if err := db.QueryRow(`SELECT reminder_time FROM event_reminders WHERE event_id = ?`, row.ID).Scan(&minutes); err != nil {
		t.Fatalf("read minutes: %v", err)
	}
	if minutes != 60 {
		t.Errorf("stored minutes = %d, want 60", minutes)
	}
}

func TestReminderNoneDeletes(t *testing.T) {
	db := setupDB(t)
	cal := mustCreateCalendar(t, db, testCalendar())
	row := baseEventRow(cal.ID)
	if _, err := NewEventStore(db).Create(row); err != nil {
		t.Fatalf("create event: %v", err)
	}

	s := NewSatelliteStore(db)
	if err := s.ReconcileReminder(row.ID, model.Reminder15Min); err != nil {
		t.Fatalf("set reminder: %v", err)
	}
	if err := s.ReconcileReminder(row.ID, model.ReminderNone); err != nil {
		t.Fatalf("clear reminder: %v", err)
	}

	got, err := s.Reminder(row.ID)
	if err != nil {
		t.Fatalf("read reminder: %v", err)
	}
	if got != model.ReminderNone {
		t.Errorf("reminder = %q, want none", got)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM event_reminders WHERE event_id = ?`, row.ID).Scan(&n); err != nil {
		t.Fatalf("count reminders: %v", err)
	}
	if n != 0 {
		t.Errorf("found %d reminder rows, want 0", n)
	}
}

func TestReminderEarliestWins(t *testing.T) {
	db := setupDB(t)
	cal := mustCreateCalendar(t, db, testCalendar())
	row := baseEventRow(cal.ID)
	if _, err := NewEventStore(db).Create(row); err != nil {
		t.Fatalf("create event: %v", err)
	}

	for _, minutes := range []int{1440, 15, 60} {
		if _, err := db.Exec(
			`INSERT INTO event_reminders (event_id, reminder_type, reminder_time) VALUES (?, 'popup', ?)`,
			row.ID, minutes,
		); err != nil {
			t.Fatalf("insert reminder row: %v", err)
		}
	}

	got, err := NewSatelliteStore(db).Reminder(row.ID)
	if err != nil {
		t.Fatalf("read reminder: %v", err)
	}
	if got != model.Reminder15Min {
		t.Errorf("reminder = %q, want %q", got, model.Reminder15Min)
	}
}

func TestReconcileDocuments(t *testing.T) {
	db := setupDB(t)
	cal := mustCreateCalendar(t, db, testCalendar())
	row := baseEventRow(cal.ID)
	if _, err := NewEventStore(db).Create(row); err != nil {
		t.Fatalf("create event: %v", err)
	}

	s := NewSatelliteStore(db)
	docs := []model.Document{
		{Name: "Motion to dismiss", URL: "https://docs.example/motion.pdf"},
		{ID: "11111111-1111-1111-1111-111111111111", Name: "Exhibit A", URL: "https://docs.example/exhibit-a.pdf"},
	}
	if err := s.ReconcileDocuments(row.ID, docs); err != nil {
		t.Fatalf("reconcile documents: %v", err)
	}

	got, err := s.Documents(row.ID)
	if err != nil {
		t.Fatalf("read documents: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d documents, want 2", len(got))
	}
	if got[0].ID == "" {
		t.Error("expected a generated id for the first document")
	}
	if got[0].Name != "Motion to dismiss" || got[1].ID != docs[1].ID {
		t.Errorf("got %+v", got)
	}
}

func TestDeleteAllClearsSatellites(t *testing.T) {
	db := setupDB(t)
	cal := mustCreateCalendar(t, db, testCalendar())
	row := baseEventRow(cal.ID)
	if _, err := NewEventStore(db).Create(row); err != nil {
		t.Fatalf("create event: %v", err)
	}

	s := NewSatelliteStore(db)
	if err := s.ReconcileAttendees(row.ID, []string{"a@x.example"}); err != nil {
		t.Fatalf("set attendees: %v", err)
	}
	if err := s.ReconcileReminder(row.ID, model.Reminder5Min); err != nil {
		t.Fatalf("set reminder: %v", err)
	}
	if err := s.ReconcileDocuments(row.ID, []model.Document{{Name: "Brief", URL: "https://docs.example/b.pdf"}}); err != nil {
		t.Fatalf("set documents: %v", err)
	}

	if err := s.DeleteAll(row.ID); err != nil {
		t.Fatalf("delete all: %v", err)
	}

	for _, table := range []string{"event_attendees", "event_reminders", "event_documents"} {
		var n int
		if err := db.QueryRow(`SELECT COUNT(*) FROM `+table+` WHERE event_id = ?`, row.ID).Scan(&n); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if n != 0 {
			t.Errorf("%s still has %d rows", table, n)
		}
	}
}
