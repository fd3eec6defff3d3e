package store

import (
	"database/sql"
	"fmt"

	"github.com/mwhitlock/lexcal/internal/model"
)

type PushStore struct {
	db *sql.DB
}

func NewPushStore(db *sql.DB) *PushStore {
	return &PushStore{db: db}
}

// Upsert saves a subscription, replacing any existing row for the endpoint.
func (s *PushStore) Upsert(sub model.PushSubscription) (*model.PushSubscription, error) {
	result, err := s.db.Exec(
		`INSERT INTO push_subscriptions (user_id, endpoint, p256dh_key, auth_key, device_name)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(endpoint) DO UPDATE SET
			user_id = excluded.user_id,
			p256dh_key = excluded.p256dh_key,
			auth_key = excluded.auth_key,
			device_name = excluded.device_name`,
		sub.UserID, sub.Endpoint, sub.P256dhKey, sub.AuthKey, sub.DeviceName,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert push subscription: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		sub.ID = id
	}
	return &sub, nil
}

func (s *PushStore) ListAll() ([]model.PushSubscription, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, endpoint, p256dh_key, auth_key, device_name, created_at FROM push_subscriptions`,
	)
	if err != nil {
		return nil, fmt.Errorf("query push subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.PushSubscription
	for rows.Next() {
		var sub model.PushSubscription
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.DeviceName, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan push subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *PushStore) Delete(id int64, userID string) error {
	_, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete push subscription: %w", err)
	}
	return nil
}

func (s *PushStore) DeleteByEndpoint(endpoint string) error {
	_, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	if err != nil {
		return fmt.Errorf("delete push subscription by endpoint: %w", err)
	}
	return nil
}

// WasSent reports whether a reminder for this occurrence and offset has
// already fired.
func (s *PushStore) WasSent(instanceKey string, minutes int) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM reminder_log WHERE instance_key = ? AND reminder_time = ?`,
		instanceKey, minutes,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check reminder log: %w", err)
	}
	return n > 0, nil
}

// RecordSent marks a reminder as fired. Duplicate records are ignored.
func (s *PushStore) RecordSent(instanceKey string, minutes int) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO reminder_log (instance_key, reminder_time) VALUES (?, ?)`,
		instanceKey, minutes,
	)
	if err != nil {
		return fmt.Errorf("record reminder sent: %w", err)
	}
	return nil
}
