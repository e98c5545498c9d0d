package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/clipshelf/clipshelf/internal/entities"
)

type Database struct {
	DB *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.Book{},
		&entities.Clipping{},
		&entities.ImportSession{},
		&entities.AuditEvent{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database initialized at %s", dbPath)

	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateImportSession starts bookkeeping for one importer run.
func (d *Database) CreateImportSession(session *entities.ImportSession) error {
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now()
	}
	return d.DB.Create(session).Error
}

// CompleteImportSession writes the final status and counts for a run.
func (d *Database) CompleteImportSession(session *entities.ImportSession) error {
	now := time.Now()
	session.CompletedAt = &now
	return d.DB.Save(session).Error
}

// GetRecentImportSessions returns the most recent import runs.
func (d *Database) GetRecentImportSessions(limit int) ([]entities.ImportSession, error) {
	if limit <= 0 {
		limit = 20
	}
	var sessions []entities.ImportSession
	err := d.DB.Order("started_at DESC").Limit(limit).Find(&sessions).Error
	return sessions, err
}
