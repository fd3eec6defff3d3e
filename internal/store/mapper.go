package store

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mwhitlock/lexcal/internal/model"
	"github.com/mwhitlock/lexcal/internal/recurrence"
)

// DefaultEventColor is used when an event's type cannot be resolved.
const DefaultEventColor = "#6b7280"

// EventRow mirrors the events table: flat columns, foreign keys, and the
// recurrence pattern in its serialized string form.
type EventRow struct {
	ID             string
	Title          string
	Description    string
	Location       string
	StartTime      time.Time
	EndTime        time.Time
	AllDay         bool
	EventTypeID    sql.NullString
	CalendarID     string
	IsRecurring    bool
	RecurrenceRule sql.NullString
	CaseID         string
	ClientName     string
	AssignedLawyer string
	CourtName      string
	JudgeDetails   string
	DocketNumber   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TypeInfo is the resolved display name and color of an event type.
type TypeInfo struct {
	Name  string
	Color string
}

// ToDomain converts a row to the in-memory event shape. Type name/color come
// from typeByID (default color when unresolved), the calendar color from
// calendarColor. Satellite collections are defaulted to safe empties here;
// the fetch path merges the real ones separately.
func ToDomain(row EventRow, typeByID func(id string) (TypeInfo, bool), calendarColor func(id string) (string, bool)) (model.Event, error) {
	e := model.Event{
		ID:             row.ID,
		Title:          row.Title,
		Description:    row.Description,
		Location:       row.Location,
		Start:          row.StartTime,
		End:            row.EndTime,
		AllDay:         row.AllDay,
		CalendarID:     row.CalendarID,
		IsRecurring:    row.IsRecurring,
		CaseID:         row.CaseID,
		ClientName:     row.ClientName,
		AssignedLawyer: row.AssignedLawyer,
		Attendees:      []string{},
		Reminder:       model.ReminderNone,
		Documents:      []model.Document{},
		Color:          DefaultEventColor,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}

	if row.EventTypeID.Valid {
		e.TypeID = row.EventTypeID.String
		if info, ok := typeByID(row.EventTypeID.String); ok {
			e.Type = info.Name
			e.Color = info.Color
		}
	}

	if color, ok := calendarColor(row.CalendarID); ok {
		e.CalendarColor = color
	}

	if row.RecurrenceRule.Valid && row.RecurrenceRule.String != "" {
		p, err := recurrence.Parse(row.RecurrenceRule.String)
		if err != nil {
			return model.Event{}, &model.RemoteError{Op: "parse recurrence rule", Err: err}
		}
		e.Recurrence = &p
	}

	if row.CourtName != "" || row.JudgeDetails != "" || row.DocketNumber != "" {
		e.CourtInfo = &model.CourtInfo{
			CourtName:    row.CourtName,
			JudgeDetails: row.JudgeDetails,
			DocketNumber: row.DocketNumber,
		}
	}

	return e, nil
}

// ToRow converts a domain event to its relational shape: court info flattened
// to scalar columns, the recurrence pattern serialized (null when absent).
// Event type resolution is the registry's job, so EventTypeID is carried over
// as-is when already known.
func ToRow(e model.Event) (EventRow, error) {
	row := EventRow{
		ID:             e.ID,
		Title:          e.Title,
		Description:    e.Description,
		Location:       e.Location,
		StartTime:      e.Start.UTC(),
		EndTime:        e.End.UTC(),
		AllDay:         e.AllDay,
		CalendarID:     e.CalendarID,
		IsRecurring:    e.IsRecurring,
		CaseID:         e.CaseID,
		ClientName:     e.ClientName,
		AssignedLawyer: e.AssignedLawyer,
	}

	if e.TypeID != "" {
		row.EventTypeID = sql.NullString{String: e.TypeID, Valid: true}
	}

	if e.Recurrence != nil {
		rule, err := recurrence.Format(*e.Recurrence)
		if err != nil {
			return EventRow{}, &model.ValidationError{Field: "recurrence_pattern", Reason: err.Error()}
		}
		row.RecurrenceRule = sql.NullString{String: rule, Valid: true}
	}

	if e.CourtInfo != nil {
		row.CourtName = e.CourtInfo.CourtName
		row.JudgeDetails = e.CourtInfo.JudgeDetails
		row.DocketNumber = e.CourtInfo.DocketNumber
	}

	return row, nil
}

// ValidateID checks that id is a syntactically valid identifier.
func ValidateID(field, id string) error {
	if id == "" {
		return &model.ValidationError{Field: field, Reason: "must not be empty"}
	}
	if _, err := uuid.Parse(id); err != nil {
		return &model.ValidationError{Field: field, Reason: "not a valid identifier"}
	}
	return nil
}

// ValidateEventForCreate enforces the write contract before any remote call.
func ValidateEventForCreate(e model.Event) error {
	if strings.TrimSpace(e.Title) == "" {
		return &model.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if err := ValidateID("calendar_id", e.CalendarID); err != nil {
		return err
	}
	if e.Start.IsZero() {
		return &model.ValidationError{Field: "start", Reason: "must be set"}
	}
	if e.End.IsZero() {
		return &model.ValidationError{Field: "end", Reason: "must be set"}
	}
	if e.IsRecurring && e.Recurrence == nil {
		return &model.ValidationError{Field: "recurrence_pattern", Reason: "required for recurring events"}
	}
	return nil
}

// ValidateEventForUpdate additionally requires a valid event id.
func ValidateEventForUpdate(e model.Event) error {
	if err := ValidateID("id", e.ID); err != nil {
		return err
	}
	return ValidateEventForCreate(e)
}
