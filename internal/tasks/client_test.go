package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipshelf/clipshelf/internal/importer"
)

func TestNewClient(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg)
	require.NoError(t, err)
	require.NotNil(t, client)

	// Verify tasks database was created alongside the main one
	tasksDBPath := filepath.Join(tmpDir, "test-tasks.db")
	_, err = os.Stat(tasksDBPath)
	assert.NoError(t, err, "tasks database should be created")

	err = client.Close()
	assert.NoError(t, err)
}

func TestClientStartStop(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg)
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go client.Start(ctx)
	time.Sleep(50 * time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()

	success := client.Stop(stopCtx)
	assert.True(t, success, "stop should succeed gracefully")
}

// fakeImporter records the path it was asked to import.
type fakeImporter struct {
	path    string
	summary importer.Summary
	err     error
}

func (f *fakeImporter) ImportFile(path string) (importer.Summary, error) {
	f.path = path
	return f.summary, f.err
}

func TestImportClippingsFileProcessor(t *testing.T) {
	t.Run("successful import deletes staged file", func(t *testing.T) {
		staged := filepath.Join(t.TempDir(), "MyClippings.txt")
		require.NoError(t, os.WriteFile(staged, []byte("stub"), 0o644))

		imp := &fakeImporter{summary: importer.Summary{Processed: 2, Added: 2}}
		processor := ImportClippingsFileProcessor(imp, nil)

		err := processor(context.Background(), ImportClippingsFileTask{Path: staged, DeleteAfter: true})
		require.NoError(t, err)
		assert.Equal(t, staged, imp.path)

		_, statErr := os.Stat(staged)
		assert.True(t, os.IsNotExist(statErr), "staged file should be removed after import")
	})

	t.Run("import error is returned and file kept", func(t *testing.T) {
		staged := filepath.Join(t.TempDir(), "MyClippings.txt")
		require.NoError(t, os.WriteFile(staged, []byte("stub"), 0o644))

		imp := &fakeImporter{err: errors.New("database locked")}
		processor := ImportClippingsFileProcessor(imp, nil)

		err := processor(context.Background(), ImportClippingsFileTask{Path: staged, DeleteAfter: true})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database locked")

		_, statErr := os.Stat(staged)
		assert.NoError(t, statErr, "failed imports keep the file for retries")
	})

	t.Run("nil importer is rejected", func(t *testing.T) {
		processor := ImportClippingsFileProcessor(nil, nil)
		err := processor(context.Background(), ImportClippingsFileTask{Path: "whatever"})
		require.Error(t, err)
	})
}

// countingCleaner pretends to purge audit events.
type countingCleaner struct {
	retention time.Duration
	deleted   int64
	err       error
}

func (c *countingCleaner) DeleteOldEvents(retention time.Duration) (int64, error) {
	c.retention = retention
	return c.deleted, c.err
}

func TestCleanupAuditEventsProcessor(t *testing.T) {
	t.Run("uses configured retention", func(t *testing.T) {
		cleaner := &countingCleaner{deleted: 7}
		processor := CleanupAuditEventsProcessor(cleaner)

		err := processor(context.Background(), CleanupAuditEventsTask{RetentionDays: 14})
		require.NoError(t, err)
		assert.Equal(t, 14*24*time.Hour, cleaner.retention)
	})

	t.Run("falls back to 30 days", func(t *testing.T) {
		cleaner := &countingCleaner{}
		processor := CleanupAuditEventsProcessor(cleaner)

		err := processor(context.Background(), CleanupAuditEventsTask{})
		require.NoError(t, err)
		assert.Equal(t, 30*24*time.Hour, cleaner.retention)
	})

	t.Run("propagates cleaner errors", func(t *testing.T) {
		cleaner := &countingCleaner{err: errors.New("table missing")}
		processor := CleanupAuditEventsProcessor(cleaner)

		err := processor(context.Background(), CleanupAuditEventsTask{})
		require.Error(t, err)
	})
}
