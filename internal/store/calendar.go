package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mwhitlock/lexcal/internal/model"
)

// CalendarStore performs row CRUD on the calendars table. The checked flag
// and shared-with list are session state and never touch the database.
type CalendarStore struct {
	db *sql.DB
}

func NewCalendarStore(db *sql.DB) *CalendarStore {
	return &CalendarStore{db: db}
}

const calendarCols = `id, name, color, owner_id, is_firm, is_statute, is_public, created_at, updated_at`

func scanCalendar(scanner interface{ Scan(...any) error }) (*model.Calendar, error) {
	var c model.Calendar
	var ownerID sql.NullString
	var isFirm, isStatute, isPublic int
	err := scanner.Scan(&c.ID, &c.Name, &c.Color, &ownerID, &isFirm, &isStatute, &isPublic, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.OwnerID = ownerID.String
	c.IsFirm = isFirm != 0
	c.IsStatute = isStatute != 0
	c.IsPublic = isPublic != 0
	return &c, nil
}

func (s *CalendarStore) List() ([]model.Calendar, error) {
	rows, err := s.db.Query(`SELECT ` + calendarCols + ` FROM calendars ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query calendars: %w", err)
	}
	defer rows.Close()

	var cals []model.Calendar
	for rows.Next() {
		c, err := scanCalendar(rows)
		if err != nil {
			return nil, fmt.Errorf("scan calendar: %w", err)
		}
		cals = append(cals, *c)
	}
	return cals, rows.Err()
}

func (s *CalendarStore) GetByID(id string) (*model.Calendar, error) {
	row := s.db.QueryRow(`SELECT `+calendarCols+` FROM calendars WHERE id = ?`, id)
	c, err := scanCalendar(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get calendar: %w", err)
	}
	return c, nil
}

func (s *CalendarStore) Create(c model.Calendar) (*model.Calendar, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	var ownerID sql.NullString
	if c.OwnerID != "" {
		ownerID = sql.NullString{String: c.OwnerID, Valid: true}
	}
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT INTO calendars (id, name, color, owner_id, is_firm, is_statute, is_public, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Color, ownerID, boolInt(c.IsFirm), boolInt(c.IsStatute), boolInt(c.IsPublic), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert calendar: %w", err)
	}
	return s.GetByID(c.ID)
}

func (s *CalendarStore) Update(c model.Calendar) (*model.Calendar, error) {
	var ownerID sql.NullString
	if c.OwnerID != "" {
		ownerID = sql.NullString{String: c.OwnerID, Valid: true}
	}
	_, err := s.db.Exec(
		`UPDATE calendars
		 SET name = ?, color = ?, owner_id = ?, is_firm = ?, is_statute = ?, is_public = ?, updated_at = ?
		 WHERE id = ?`,
		c.Name, c.Color, ownerID, boolInt(c.IsFirm), boolInt(c.IsStatute), boolInt(c.IsPublic), time.Now().UTC(), c.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update calendar: %w", err)
	}
	return s.GetByID(c.ID)
}

// Delete removes the calendar row. Dependent events are cleaned up by the
// schema's cascade, not by this store.
func (s *CalendarStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM calendars WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete calendar: %w", err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
