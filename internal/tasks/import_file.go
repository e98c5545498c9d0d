package tasks

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/clipshelf/clipshelf/internal/importer"
)

// ClippingsImporter runs a clippings file through the import pipeline.
// Implemented by importer.Importer.
type ClippingsImporter interface {
	ImportFile(path string) (importer.Summary, error)
}

// ImportAuditor records import outcomes in the audit trail.
// Implemented by audit.Service.
type ImportAuditor interface {
	LogImport(description string, clippingsAdded, duplicates, malformed, booksCreated int, err error)
}

// ImportClippingsFileTask imports a clippings file previously saved to disk,
// typically an HTTP upload handed off for background processing.
type ImportClippingsFileTask struct {
	Path string `json:"path"`

	// DeleteAfter removes the file once the import succeeds. Uploads are
	// staged in a spool directory and should not accumulate.
	DeleteAfter bool `json:"delete_after"`
}

// Config returns the queue configuration for clippings import tasks.
func (t ImportClippingsFileTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "import_clippings_file",
		MaxAttempts: 3,
		Backoff:     1 * time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ImportClippingsFileProcessor creates a processor function for
// ImportClippingsFileTask. The auditor may be nil.
func ImportClippingsFileProcessor(imp ClippingsImporter, auditor ImportAuditor) backlite.QueueProcessor[ImportClippingsFileTask] {
	return func(ctx context.Context, task ImportClippingsFileTask) error {
		if imp == nil {
			return fmt.Errorf("clippings importer not configured")
		}

		summary, err := imp.ImportFile(task.Path)

		if auditor != nil {
			description := fmt.Sprintf("Background import of %s: %d added, %d duplicates, %d malformed",
				task.Path, summary.Added, summary.Duplicates, summary.Malformed)
			auditor.LogImport(description, summary.Added, summary.Duplicates, summary.Malformed, summary.BooksCreated, err)
		}

		if err != nil {
			return fmt.Errorf("import clippings file %s: %w", task.Path, err)
		}

		log.Printf("[TASK] Imported %s: %d added, %d duplicates, %d malformed, %d new books",
			task.Path, summary.Added, summary.Duplicates, summary.Malformed, summary.BooksCreated)

		if task.DeleteAfter {
			if err := os.Remove(task.Path); err != nil {
				log.Printf("[TASK] Failed to remove imported file %s: %v", task.Path, err)
			}
		}

		return nil
	}
}

// NewImportClippingsFileQueue creates a backlite queue for clippings import tasks.
func NewImportClippingsFileQueue(imp ClippingsImporter, auditor ImportAuditor) backlite.Queue {
	return backlite.NewQueue(ImportClippingsFileProcessor(imp, auditor))
}
