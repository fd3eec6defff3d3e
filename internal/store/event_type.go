package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mwhitlock/lexcal/internal/model"
)

// EventTypeRegistry resolves event type names to event_types rows,
// creating them on first use.
type EventTypeRegistry struct {
	db *sql.DB
}

func NewEventTypeRegistry(db *sql.DB) *EventTypeRegistry {
	return &EventTypeRegistry{db: db}
}

func (r *EventTypeRegistry) GetByID(id string) (*model.EventType, error) {
	var t model.EventType
	err := r.db.QueryRow(
		`SELECT id, name, color FROM event_types WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &t.Color)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event type: %w", err)
	}
	return &t, nil
}

// Resolve returns the id of the type matching name (case-insensitive),
// creating a new row with the given color when no match exists. An empty
// color falls back to the default event color.
func (r *EventTypeRegistry) Resolve(name, color string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &model.ValidationError{Field: "type", Reason: "must not be empty"}
	}

	var id string
	err := r.db.QueryRow(
		`SELECT id FROM event_types WHERE name = ? COLLATE NOCASE`, name,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("lookup event type: %w", err)
	}

	if color == "" {
		color = DefaultEventColor
	}
	id = uuid.NewString()
	if _, err := r.db.Exec(
		`INSERT INTO event_types (id, name, color) VALUES (?, ?, ?)`,
		id, name, color,
	); err != nil {
		return "", fmt.Errorf("create event type: %w", err)
	}
	return id, nil
}

func (r *EventTypeRegistry) List() ([]model.EventType, error) {
	rows, err := r.db.Query(`SELECT id, name, color FROM event_types ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list event types: %w", err)
	}
	defer rows.Close()

	var types []model.EventType
	for rows.Next() {
		var t model.EventType
		if err := rows.Scan(&t.ID, &t.Name, &t.Color); err != nil {
			return nil, fmt.Errorf("scan event type: %w", err)
		}
		types = append(types, t)
	}
	return types, rows.Err()
}
