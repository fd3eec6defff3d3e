package backup

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/mwhitlock/lexcal/internal/store"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Config holds backup manager configuration. An empty bucket or passphrase
// disables scheduled backups.
type Config struct {
	S3         S3Config
	DBPath     string
	Passphrase string
	Interval   time.Duration
}

// State represents the backup manager state.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDisabled State = "disabled"
	StateError    State = "error"
)

// Status holds the current backup manager status.
type Status struct {
	State      State      `json:"state"`
	LastBackup *time.Time `json:"last_backup,omitempty"`
	Error      string     `json:"error,omitempty"`
	InProgress bool       `json:"in_progress"`
}

// StatusCallback is called whenever the backup state changes.
type StatusCallback func(Status)

// Manager takes periodic encrypted snapshots of the database and uploads
// them to S3-compatible storage.
type Manager struct {
	mu       sync.RWMutex
	cfg      Config
	status   Status
	callback StatusCallback
	logger   *slog.Logger

	db      *sql.DB
	backups *store.BackupStore
	client  s3Client

	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a new backup manager.
func NewManager(cfg Config, db *sql.DB, bs *store.BackupStore, logger *slog.Logger, callback StatusCallback) *Manager {
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	m := &Manager{
		cfg:      cfg,
		db:       db,
		backups:  bs,
		logger:   logger.With("component", "backup"),
		callback: callback,
		status:   Status{State: StateDisabled},
	}

	if cfg.S3.Bucket != "" && cfg.S3.AccessKey != "" && cfg.S3.SecretKey != "" && cfg.Passphrase != "" {
		m.client = newS3Client(cfg.S3)
		m.status.State = StateIdle
	}

	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Enabled reports whether backups are configured.
func (m *Manager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client != nil
}

// Start begins the scheduled backup loop.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.status.State == StateDisabled {
		m.mu.Unlock()
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	interval := m.cfg.Interval
	m.mu.Unlock()

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := m.BackupNow(ctx); err != nil {
					m.logger.Error("scheduled backup failed", "error", err)
				}
			}
		}
	}()
}

// Stop gracefully stops the backup manager.
func (m *Manager) Stop() {
	m.mu.RLock()
	cancel := m.cancel
	done := m.done
	m.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Status returns the current backup status.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
	if m.callback != nil {
		m.callback(s)
	}
}

// BackupNow takes a snapshot, encrypts it, and uploads it. Returns the
// backup record id.
func (m *Manager) BackupNow(ctx context.Context) (int64, error) {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	passphrase := m.cfg.Passphrase
	m.mu.RUnlock()

	if client == nil {
		return 0, fmt.Errorf("backup not configured")
	}

	m.setStatus(Status{State: StateRunning, InProgress: true})

	timestamp := time.Now().UTC().Format("2006-01-02T150405Z")
	filename := fmt.Sprintf("backup-%s.db.enc", timestamp)
	s3Key := "backups/" + filename

	record, err := m.backups.Create(filename, s3Key)
	if err != nil {
		m.setStatus(Status{State: StateError, Error: err.Error()})
		return 0, fmt.Errorf("create backup record: %w", err)
	}

	fail := func(err error) (int64, error) {
		m.backups.MarkFailed(record.ID, err.Error())
		m.setStatus(Status{State: StateError, Error: err.Error()})
		return 0, err
	}

	tmpDir := os.TempDir()
	snapshot := filepath.Join(tmpDir, fmt.Sprintf("lexcal-backup-%d.db", record.ID))
	encFile := filepath.Join(tmpDir, fmt.Sprintf("lexcal-backup-%d.db.enc", record.ID))
	defer os.Remove(snapshot)
	defer os.Remove(encFile)

	// VACUUM INTO produces a consistent single-file snapshot even with WAL on.
	if _, err := m.db.ExecContext(ctx, "VACUUM INTO ?", snapshot); err != nil {
		return fail(fmt.Errorf("snapshot database: %w", err))
	}

	salt, err := GenerateSalt()
	if err != nil {
		return fail(err)
	}
	if err := EncryptFile(snapshot, encFile, passphrase, salt); err != nil {
		return fail(fmt.Errorf("encrypt snapshot: %w", err))
	}

	encData, err := os.Open(encFile)
	if err != nil {
		return fail(fmt.Errorf("open encrypted file: %w", err))
	}
	defer encData.Close()

	stat, err := encData.Stat()
	if err != nil {
		return fail(fmt.Errorf("stat encrypted file: %w", err))
	}

	if _, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(s3Key),
		Body:          encData,
		ContentLength: aws.Int64(stat.Size()),
	}); err != nil {
		return fail(fmt.Errorf("upload to s3: %w", err))
	}

	if err := m.backups.MarkCompleted(record.ID, stat.Size()); err != nil {
		m.logger.Error("mark backup completed", "error", err)
	}

	now := time.Now().UTC()
	m.setStatus(Status{State: StateIdle, LastBackup: &now})
	m.logger.Info("backup uploaded", "key", s3Key, "bytes", stat.Size())

	return record.ID, nil
}

// Restore downloads a backup, decrypts it, validates its integrity, and
// writes the plaintext database to destPath. Swapping the live database file
// and restarting is the operator's move, not this method's.
func (m *Manager) Restore(ctx context.Context, backupID int64, destPath string) error {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	passphrase := m.cfg.Passphrase
	m.mu.RUnlock()

	if client == nil {
		return fmt.Errorf("backup not configured")
	}

	record, err := m.backups.GetByID(backupID)
	if err != nil {
		return fmt.Errorf("get backup: %w", err)
	}
	if record == nil {
		return fmt.Errorf("backup not found")
	}

	encFile := filepath.Join(os.TempDir(), fmt.Sprintf("lexcal-restore-%d.db.enc", backupID))
	defer os.Remove(encFile)

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(record.S3Key),
	})
	if err != nil {
		return fmt.Errorf("download from s3: %w", err)
	}
	defer result.Body.Close()

	outFile, err := os.Create(encFile)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(outFile, result.Body); err != nil {
		outFile.Close()
		return fmt.Errorf("write downloaded file: %w", err)
	}
	outFile.Close()

	if err := DecryptFile(encFile, destPath, passphrase); err != nil {
		return fmt.Errorf("decrypt backup: %w", err)
	}

	tmpDB, err := sql.Open("sqlite", destPath)
	if err != nil {
		return fmt.Errorf("open restored db: %w", err)
	}
	var integrity string
	if err := tmpDB.QueryRow("PRAGMA integrity_check").Scan(&integrity); err != nil {
		tmpDB.Close()
		return fmt.Errorf("integrity check: %w", err)
	}
	tmpDB.Close()
	if integrity != "ok" {
		return fmt.Errorf("integrity check failed: %s", integrity)
	}

	m.logger.Info("restore complete", "dest", destPath)
	return nil
}
