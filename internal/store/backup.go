package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mwhitlock/lexcal/internal/model"
)

type BackupStore struct {
	db *sql.DB
}

func NewBackupStore(db *sql.DB) *BackupStore {
	return &BackupStore{db: db}
}

func (s *BackupStore) Create(filename, s3Key string) (*model.Backup, error) {
	now := time.Now().UTC()
	result, err := s.db.Exec(
		`INSERT INTO backups (filename, s3_key, status, started_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		filename, s3Key, model.BackupStatusPending, now, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create backup record: %w", err)
	}
	id, _ := result.LastInsertId()
	return &model.Backup{
		ID:        id,
		Filename:  filename,
		S3Key:     s3Key,
		Status:    model.BackupStatusPending,
		StartedAt: &now,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *BackupStore) GetByID(id int64) (*model.Backup, error) {
	b := &model.Backup{}
	var errMsg sql.NullString
	var startedAt, completedAt sql.NullTime
	err := s.db.QueryRow(
		`SELECT id, filename, s3_key, size_bytes, status, error_message, started_at, completed_at, created_at, updated_at
		 FROM backups WHERE id = ?`, id,
	).Scan(&b.ID, &b.Filename, &b.S3Key, &b.SizeBytes, &b.Status, &errMsg, &startedAt, &completedAt, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get backup %d: %w", id, err)
	}
	b.ErrorMessage = errMsg.String
	if startedAt.Valid {
		b.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		b.CompletedAt = &completedAt.Time
	}
	return b, nil
}

func (s *BackupStore) MarkCompleted(id, sizeBytes int64) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`UPDATE backups SET status = ?, size_bytes = ?, completed_at = ?, updated_at = ? WHERE id = ?`,
		model.BackupStatusCompleted, sizeBytes, now, now, id,
	)
	if err != nil {
		return fmt.Errorf("mark backup completed: %w", err)
	}
	return nil
}

func (s *BackupStore) MarkFailed(id int64, msg string) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`UPDATE backups SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		model.BackupStatusFailed, msg, now, id,
	)
	if err != nil {
		return fmt.Errorf("mark backup failed: %w", err)
	}
	return nil
}

func (s *BackupStore) ListRecent(limit int) ([]model.Backup, error) {
	rows, err := s.db.Query(
		`SELECT id, filename, s3_key, size_bytes, status, error_message, started_at, completed_at, created_at, updated_at
		 FROM backups ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	defer rows.Close()

	var backups []model.Backup
	for rows.Next() {
		var b model.Backup
		var errMsg sql.NullString
		var startedAt, completedAt sql.NullTime
		if err := rows.Scan(&b.ID, &b.Filename, &b.S3Key, &b.SizeBytes, &b.Status, &errMsg, &startedAt, &completedAt, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan backup: %w", err)
		}
		b.ErrorMessage = errMsg.String
		if startedAt.Valid {
			b.StartedAt = &startedAt.Time
		}
		if completedAt.Valid {
			b.CompletedAt = &completedAt.Time
		}
		backups = append(backups, b)
	}
	return backups, rows.Err()
}
