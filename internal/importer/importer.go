// Package importer turns a Kindle clippings file into normalized book and
// clipping records without duplicating entries across repeated imports.
package importer

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/clipshelf/clipshelf/internal/entities"
	"github.com/clipshelf/clipshelf/internal/kindle"
	"github.com/clipshelf/clipshelf/internal/matching"
)

// Store is the storage surface the importer needs. Implemented by
// internal/database/books.Repository.
type Store interface {
	GetAllBooks() ([]entities.Book, error)
	CreateBook(book *entities.Book) error
	ClippingExists(contentHash string) (bool, error)
	CreateClipping(clipping *entities.Clipping) error
}

// SessionRecorder persists per-run bookkeeping. Implemented by
// internal/database.Database. May be nil, in which case runs are not recorded.
type SessionRecorder interface {
	CreateImportSession(session *entities.ImportSession) error
	CompleteImportSession(session *entities.ImportSession) error
}

// Summary is the outcome of one import run.
type Summary struct {
	Processed    int      `json:"processed"`    // parsed entries considered
	Added        int      `json:"added"`        // clippings newly inserted
	Duplicates   int      `json:"duplicates"`   // exact re-import duplicates skipped
	Malformed    int      `json:"malformed"`    // blocks the parser gave up on
	BooksTouched int      `json:"books_touched"`
	BooksCreated int      `json:"books_created"`
	Failures     []string `json:"failures,omitempty"` // per-block reasons, non-fatal
}

// Importer runs the parse → deduplicate → resolve book → insert pipeline.
// It is a synchronous, single-file batch operation; concurrent imports into
// the same database need external coordination.
type Importer struct {
	store    Store
	sessions SessionRecorder
	parser   *kindle.Parser
	matcher  *matching.Matcher
}

// New creates an importer. A threshold of 0 selects the default.
func New(store Store, sessions SessionRecorder, threshold float64) *Importer {
	return &Importer{
		store:    store,
		sessions: sessions,
		parser:   kindle.NewParser(),
		matcher:  matching.NewMatcher(threshold),
	}
}

// ImportFile imports a clippings file from disk.
func (im *Importer) ImportFile(path string) (Summary, error) {
	file, err := os.Open(path)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to open clippings file: %w", err)
	}
	defer file.Close()

	return im.Import(file)
}

// Import reads raw clippings text and inserts every non-duplicate clipping,
// resolving each one to an existing or newly created book.
//
// Malformed blocks are reported in the summary and never abort the run.
// A storage error aborts the remaining batch; the partial summary is
// returned together with the error.
func (im *Importer) Import(r io.Reader) (Summary, error) {
	var summary Summary

	result, err := im.parser.Parse(r)
	if err != nil {
		return summary, err
	}

	summary.Processed = len(result.Entries)
	summary.Malformed = len(result.Skipped)
	for _, skipped := range result.Skipped {
		summary.Failures = append(summary.Failures,
			fmt.Sprintf("block near line %d: %s", skipped.Line, skipped.Reason))
	}

	session := im.startSession()

	// Load the library once; books created during this run are appended so
	// later entries in the same file resolve against them too.
	existing, err := im.store.GetAllBooks()
	if err != nil {
		return summary, im.fail(session, summary, fmt.Errorf("failed to load books: %w", err))
	}
	library := make([]*entities.Book, 0, len(existing))
	for i := range existing {
		library = append(library, &existing[i])
	}

	seenHashes := make(map[string]bool)
	touched := make(map[uint]bool)

	for _, entry := range result.Entries {
		// Exact duplicates: within this batch, then against storage
		if seenHashes[entry.ContentHash] {
			summary.Duplicates++
			continue
		}
		exists, err := im.store.ClippingExists(entry.ContentHash)
		if err != nil {
			return summary, im.fail(session, summary, fmt.Errorf("duplicate lookup failed: %w", err))
		}
		if exists {
			seenHashes[entry.ContentHash] = true
			summary.Duplicates++
			continue
		}

		book := im.matcher.Match(library, entry.Title, entry.Author)
		if book == nil {
			book = &entities.Book{
				Title:  strings.TrimSpace(entry.Title),
				Author: strings.TrimSpace(entry.Author),
			}
			if err := im.store.CreateBook(book); err != nil {
				return summary, im.fail(session, summary, err)
			}
			library = append(library, book)
			summary.BooksCreated++
			log.Printf("Created book %q by %q (ID %d)", book.Title, book.Author, book.ID)
		}

		clipping := &entities.Clipping{
			BookID:      book.ID,
			Type:        entry.Type,
			Text:        entry.Text,
			Page:        entry.Page,
			PageEnd:     entry.PageEnd,
			Location:    entry.Location,
			LocationEnd: entry.LocationEnd,
			ClippedAt:   entry.AddedAt,
			ContentHash: entry.ContentHash,
		}
		if err := im.store.CreateClipping(clipping); err != nil {
			return summary, im.fail(session, summary, fmt.Errorf("import aborted after %d clippings: %w", summary.Added, err))
		}

		seenHashes[entry.ContentHash] = true
		touched[book.ID] = true
		summary.Added++
	}

	summary.BooksTouched = len(touched)

	im.complete(session, summary, entities.ImportStatusCompleted, "")

	log.Printf("Import finished: %d processed, %d added, %d duplicates, %d malformed, %d books touched (%d new)",
		summary.Processed, summary.Added, summary.Duplicates, summary.Malformed,
		summary.BooksTouched, summary.BooksCreated)

	return summary, nil
}

func (im *Importer) startSession() *entities.ImportSession {
	if im.sessions == nil {
		return nil
	}
	session := &entities.ImportSession{Status: entities.ImportStatusRunning}
	if err := im.sessions.CreateImportSession(session); err != nil {
		log.Printf("Failed to record import session: %v", err)
		return nil
	}
	return session
}

func (im *Importer) fail(session *entities.ImportSession, summary Summary, err error) error {
	im.complete(session, summary, entities.ImportStatusFailed, err.Error())
	return err
}

func (im *Importer) complete(session *entities.ImportSession, summary Summary, status entities.ImportStatus, errMsg string) {
	if session == nil {
		return
	}
	session.Status = status
	session.Processed = summary.Processed
	session.ClippingsCreated = summary.Added
	session.DuplicatesSkipped = summary.Duplicates
	session.MalformedSkipped = summary.Malformed
	session.BooksCreated = summary.BooksCreated
	session.Errors = errMsg
	if err := im.sessions.CompleteImportSession(session); err != nil {
		log.Printf("Failed to complete import session: %v", err)
	}
}
