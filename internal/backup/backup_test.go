package backup

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/mwhitlock/lexcal/internal/database"
	"github.com/mwhitlock/lexcal/internal/model"
	"github.com/mwhitlock/lexcal/internal/store"
)

// mockS3Client implements s3Client for testing.
type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	getErr  error
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, _ := io.ReadAll(input.Body)
	m.objects[*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, &s3NotFound{}
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(data)),
	}, nil
}

type s3NotFound struct{}

func (e *s3NotFound) Error() string { return "NoSuchKey" }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func enabledConfig() Config {
	return Config{
		S3:         S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"},
		Passphrase: "test-passphrase",
	}
}

func TestManagerStateLifecycle(t *testing.T) {
	// Without S3 config -> disabled
	m := NewManager(Config{}, nil, nil, discardLogger(), nil)
	if m.Status().State != StateDisabled {
		t.Errorf("state = %q, want %q", m.Status().State, StateDisabled)
	}
	if m.Enabled() {
		t.Error("expected disabled manager")
	}

	// Config without passphrase -> still disabled
	noPass := enabledConfig()
	noPass.Passphrase = ""
	if m := NewManager(noPass, nil, nil, discardLogger(), nil); m.Status().State != StateDisabled {
		t.Errorf("state = %q, want disabled without passphrase", m.Status().State)
	}

	// Full config -> idle
	m2 := NewManager(enabledConfig(), nil, nil, discardLogger(), nil)
	if m2.Status().State != StateIdle {
		t.Errorf("state = %q, want %q", m2.Status().State, StateIdle)
	}
}

func TestManagerStatusCallback(t *testing.T) {
	var received []Status
	var mu sync.Mutex
	cb := func(s Status) {
		mu.Lock()
		received = append(received, s)
		mu.Unlock()
	}

	m := NewManager(enabledConfig(), nil, nil, discardLogger(), cb)

	m.setStatus(Status{State: StateRunning, InProgress: true})
	m.setStatus(Status{State: StateIdle})

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 2 {
		t.Fatalf("received %d callbacks, want 2", len(received))
	}
	if received[0].State != StateRunning {
		t.Errorf("first callback state = %q, want %q", received[0].State, StateRunning)
	}
	if received[1].State != StateIdle {
		t.Errorf("second callback state = %q, want %q", received[1].State, StateIdle)
	}
}

func TestManagerStopSafety(t *testing.T) {
	m := NewManager(enabledConfig(), nil, nil, discardLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)
	time.Sleep(50 * time.Millisecond)
	cancel()
	m.Stop()

	// Double stop should not panic
	m.Stop()
}

func TestManagerDisabledNoStart(t *testing.T) {
	m := NewManager(Config{}, nil, nil, discardLogger(), nil)

	m.Start(context.Background()) // should be a no-op for disabled state

	// Stop should not block
	m.Stop()
}

func TestBackupAndRestoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "lexcal.db")

	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := enabledConfig()
	cfg.DBPath = dbPath
	m := NewManager(cfg, db, store.NewBackupStore(db), discardLogger(), nil)

	mock := newMockS3()
	m.client = mock

	id, err := m.BackupNow(context.Background())
	if err != nil {
		t.Fatalf("backup now: %v", err)
	}

	record, err := store.NewBackupStore(db).GetByID(id)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if record == nil || record.Status != model.BackupStatusCompleted {
		t.Fatalf("record = %+v, want completed", record)
	}
	if record.SizeBytes == 0 {
		t.Error("expected a non-zero encrypted size")
	}

	mock.mu.Lock()
	if _, ok := mock.objects[record.S3Key]; !ok {
		t.Errorf("object %q not uploaded", record.S3Key)
	}
	mock.mu.Unlock()

	if m.Status().State != StateIdle || m.Status().LastBackup == nil {
		t.Errorf("status = %+v, want idle with last backup set", m.Status())
	}

	restored := filepath.Join(dir, "restored.db")
	if err := m.Restore(context.Background(), id, restored); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if fi, err := os.Stat(restored); err != nil || fi.Size() == 0 {
		t.Errorf("restored file missing or empty: %v", err)
	}
}

func TestBackupFailureMarksRecord(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "lexcal.db")

	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := enabledConfig()
	cfg.DBPath = dbPath
	m := NewManager(cfg, db, store.NewBackupStore(db), discardLogger(), nil)

	mock := newMockS3()
	mock.putErr = &s3NotFound{}
	m.client = mock

	if _, err := m.BackupNow(context.Background()); err == nil {
		t.Fatal("expected upload failure")
	}
	if m.Status().State != StateError {
		t.Errorf("state = %q, want %q", m.Status().State, StateError)
	}

	recent, err := store.NewBackupStore(db).ListRecent(1)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(recent) != 1 || recent[0].Status != model.BackupStatusFailed {
		t.Errorf("recent = %+v, want one failed record", recent)
	}
}
