// Package books provides database operations for book and clipping storage.
//
// Books and clippings are only ever created here during import; the
// repository deliberately has no update methods for either.
package books

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/clipshelf/clipshelf/internal/entities"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Repository handles all book and clipping database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetAllBooks retrieves all books ordered by author and title, without
// their clippings preloaded.
func (r *Repository) GetAllBooks() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Order("author ASC, title ASC").Find(&books).Error
	return books, err
}

// GetBookByID retrieves a book with its clippings ordered by position.
func (r *Repository) GetBookByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Preload("Clippings", func(db *gorm.DB) *gorm.DB {
		return db.Order("location ASC, page ASC, clipped_at ASC")
	}).First(&book, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// SearchBooks searches books by title or author (case-insensitive partial match).
func (r *Repository) SearchBooks(query string) ([]entities.Book, error) {
	var books []entities.Book
	searchPattern := "%" + query + "%"
	err := r.db.
		Where("LOWER(title) LIKE LOWER(?) OR LOWER(author) LIKE LOWER(?)", searchPattern, searchPattern).
		Order("author ASC, title ASC").
		Find(&books).Error
	return books, err
}

// CreateBook inserts a new book.
func (r *Repository) CreateBook(book *entities.Book) error {
	if err := r.db.Create(book).Error; err != nil {
		return fmt.Errorf("failed to create book %q: %w", book.Title, err)
	}
	return nil
}

// ClippingExists reports whether a clipping with the given content hash is
// already stored.
func (r *Repository) ClippingExists(contentHash string) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Clipping{}).
		Where("content_hash = ?", contentHash).
		Count(&count).Error
	return count > 0, err
}

// CreateClipping inserts a new clipping.
func (r *Repository) CreateClipping(clipping *entities.Clipping) error {
	if err := r.db.Create(clipping).Error; err != nil {
		return fmt.Errorf("failed to create clipping: %w", err)
	}
	return nil
}

// GetClippingsForBook retrieves all clippings for a book ordered by position.
func (r *Repository) GetClippingsForBook(bookID uint) ([]entities.Clipping, error) {
	var clippings []entities.Clipping
	err := r.db.
		Where("book_id = ?", bookID).
		Order("location ASC, page ASC, clipped_at ASC").
		Find(&clippings).Error
	return clippings, err
}

// GetRandomClipping returns one random highlight or note, optionally
// restricted to a book. Bookmarks carry no text and are never returned.
func (r *Repository) GetRandomClipping(bookID uint) (*entities.Clipping, error) {
	query := r.db.Where("type IN ?", []entities.ClipType{
		entities.ClipTypeHighlight,
		entities.ClipTypeNote,
	})
	if bookID > 0 {
		query = query.Where("book_id = ?", bookID)
	}

	var clipping entities.Clipping
	err := query.Order("RANDOM()").First(&clipping).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &clipping, nil
}

// GetStats returns total book and clipping counts.
func (r *Repository) GetStats() (totalBooks int64, totalClippings int64, err error) {
	err = r.db.Model(&entities.Book{}).Count(&totalBooks).Error
	if err != nil {
		return
	}
	err = r.db.Model(&entities.Clipping{}).Count(&totalClippings).Error
	return
}
