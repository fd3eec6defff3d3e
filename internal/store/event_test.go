package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
)

func baseEventRow(calendarID string) EventRow {
	return EventRow{
		ID:         uuid.NewString(),
		Title:      "Deposition prep",
		StartTime:  time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC),
		EndTime:    time.Date(2024, 3, 4, 11, 0, 0, 0, time.UTC),
		CalendarID: calendarID,
	}
}

func TestEventCreateAndGet(t *testing.T) {
	db := setupDB(t)
	cal := mustCreateCalendar(t, db, testCalendar())
	s := NewEventStore(db)

	row := baseEventRow(cal.ID)
	row.Description = "Review exhibits"
	row.Location = "Room 4"
	row.CaseID = "2024-cv-0113"
	row.ClientName = "Acme Corp"
	row.AssignedLawyer = "D. Reyes"
	row.CourtName = "Superior Court"
	row.JudgeDetails = "Hon. L. Park"
	row.DocketNumber = "D-4411"

	created, err := s.Create(row)
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if created.Title != "Deposition prep" || created.CaseID != "2024-cv-0113" {
		t.Errorf("got %+v", created)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}

	got, err := s.GetByID(row.ID)
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if got.CourtName != "Superior Court" || got.DocketNumber != "D-4411" {
		t.Errorf("court columns = %q %q", got.CourtName, got.DocketNumber)
	}
}

func TestEventGetMissing(t *testing.T) {
	db := setupDB(t)
	got, err := NewEventStore(db).GetByID(uuid.NewString())
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if got != nil {
		t.Error("expected nil for missing event")
	}
}

func TestEventUpdate(t *testing.T) {
	db := setupDB(t)
	cal := mustCreateCalendar(t, db, testCalendar())
	s := NewEventStore(db)

	row := baseEventRow(cal.ID)
	if _, err := s.Create(row); err != nil {
		t.Fatalf("create event: %v", err)
	}

	row.Title = "Rescheduled"
	row.StartTime = row.StartTime.Add(24 * time.Hour)
	row.EndTime = row.EndTime.Add(24 * time.Hour)
	row.IsRecurring = true
	row.RecurrenceRule = sql.NullString{String: "FREQ=WEEKLY;INTERVAL=2", Valid: true}

	got, err := s.Update(row)
	if err != nil {
		t.Fatalf("update event: %v", err)
	}
	if got.Title != "Rescheduled" || !got.IsRecurring {
		t.Errorf("got %+v", got)
	}
	if !got.RecurrenceRule.Valid || got.RecurrenceRule.String != "FREQ=WEEKLY;INTERVAL=2" {
		t.Errorf("rule = %+v", got.RecurrenceRule)
	}
}

func TestEventDelete(t *testing.T) {
	db := setupDB(t)
	cal := mustCreateCalendar(t, db, testCalendar())
	s := NewEventStore(db)

	row := baseEventRow(cal.ID)
	if _, err := s.Create(row); err != nil {
		t.Fatalf("create event: %v", err)
	}
	if err := s.Delete(row.ID); err != nil {
		t.Fatalf("delete event: %v", err)
	}
	got, err := s.GetByID(row.ID)
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if got != nil {
		t.Error("expected event to be gone")
	}
}

func TestListReminderCandidates(t *testing.T) {
	db := setupDB(t)
	cal := mustCreateCalendar(t, db, testCalendar())
	events := NewEventStore(db)
	sats := NewSatelliteStore(db)

	withReminder := baseEventRow(cal.ID)
	if _, err := events.Create(withReminder); err != nil {
		t.Fatalf("create event: %v", err)
	}
	if err := sats.ReconcileReminder(withReminder.ID, "30min"); err != nil {
		t.Fatalf("reconcile reminder: %v", err)
	}

	without := baseEventRow(cal.ID)
	if _, err := events.Create(without); err != nil {
		t.Fatalf("create second event: %v", err)
	}

	got, err := events.ListReminderCandidates()
	if err != nil {
		t.Fatalf("list candidates: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	if got[0].EventID != withReminder.ID || got[0].Minutes != 30 {
		t.Errorf("candidate = %+v", got[0])
	}
}
