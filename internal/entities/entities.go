package entities

import "time"

// ClipType classifies a clipping as exported by the Kindle device.
type ClipType string

const (
	ClipTypeHighlight ClipType = "highlight"
	ClipTypeNote      ClipType = "note"
	ClipTypeBookmark  ClipType = "bookmark"
)

type ImportStatus string

const (
	ImportStatusRunning   ImportStatus = "running"
	ImportStatusCompleted ImportStatus = "completed"
	ImportStatusFailed    ImportStatus = "failed"
)

type Book struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Title     string     `gorm:"index;size:512" json:"title"`
	Author    string     `gorm:"index;size:256" json:"author,omitempty"`
	Clippings []Clipping `gorm:"foreignKey:BookID" json:"clippings,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type Clipping struct {
	ID     uint     `gorm:"primaryKey" json:"id"`
	BookID uint     `gorm:"index" json:"book_id"`
	Type   ClipType `gorm:"index;size:20" json:"type"`
	Text   string   `gorm:"type:text" json:"text,omitempty"` // empty for bookmarks

	// Position on the device. Kindle reports pages, locations, or both.
	Page        int `json:"page,omitempty"`
	PageEnd     int `json:"page_end,omitempty"`
	Location    int `json:"location,omitempty"`
	LocationEnd int `json:"location_end,omitempty"`

	ClippedAt time.Time `gorm:"index" json:"clipped_at"`

	// SHA-256 over the clipping's type, position and text. The unique index
	// is what guarantees a clipping is never stored twice across re-imports.
	ContentHash string `gorm:"uniqueIndex;size:64" json:"content_hash"`

	Book      Book      `gorm:"foreignKey:BookID" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// ImportSession records one importer run for later inspection.
type ImportSession struct {
	ID                uint         `gorm:"primaryKey" json:"id"`
	Status            ImportStatus `gorm:"size:20;default:'running'" json:"status"`
	Processed         int          `json:"processed"`
	ClippingsCreated  int          `json:"clippings_created"`
	DuplicatesSkipped int          `json:"duplicates_skipped"`
	MalformedSkipped  int          `json:"malformed_skipped"`
	BooksCreated      int          `json:"books_created"`
	Errors            string       `gorm:"type:text" json:"errors,omitempty"`
	StartedAt         time.Time    `json:"started_at"`
	CompletedAt       *time.Time   `json:"completed_at,omitempty"`
}

type AuditEventType string

const (
	AuditEventImport  AuditEventType = "import"
	AuditEventCleanup AuditEventType = "cleanup"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailed  AuditStatus = "failed"
)

type AuditEvent struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	EventType   AuditEventType `gorm:"index;size:50" json:"event_type"`
	Action      string         `gorm:"size:100" json:"action"`      // e.g., "kindle_import"
	Description string         `gorm:"size:500" json:"description"` // Human-readable summary
	Metadata    string         `gorm:"type:text" json:"metadata,omitempty"` // JSON for extra data
	Status      AuditStatus    `gorm:"size:20" json:"status"`
	ErrorMsg    string         `gorm:"size:500" json:"error_msg,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

func (Book) TableName() string {
	return "books"
}

func (Clipping) TableName() string {
	return "clippings"
}

func (ImportSession) TableName() string {
	return "import_sessions"
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
