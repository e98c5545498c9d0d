package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/clipshelf/clipshelf/internal/database/books"
)

type BooksController struct {
	repo *books.Repository
}

func NewBooksController(repo *books.Repository) *BooksController {
	return &BooksController{
		repo: repo,
	}
}

func (controller *BooksController) GetAllBooks(c *gin.Context) {
	allBooks, err := controller.repo.GetAllBooks()
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"books": allBooks, "count": len(allBooks)})
}

func (controller *BooksController) GetBookByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := controller.repo.GetBookByID(id)
	if errors.Is(err, books.ErrNotFound) {
		respondNotFound(c, "book")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get book")
		return
	}

	c.IndentedJSON(http.StatusOK, book)
}

func (controller *BooksController) SearchBooks(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		respondBadRequest(c, "q query parameter is required")
		return
	}

	matched, err := controller.repo.SearchBooks(query)
	if err != nil {
		respondInternalError(c, err, "search books")
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{"books": matched, "count": len(matched)})
}

func (controller *BooksController) GetClippingsForBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if _, err := controller.repo.GetBookByID(id); errors.Is(err, books.ErrNotFound) {
		respondNotFound(c, "book")
		return
	} else if err != nil {
		respondInternalError(c, err, "get book")
		return
	}

	clippings, err := controller.repo.GetClippingsForBook(id)
	if err != nil {
		respondInternalError(c, err, "list clippings")
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{"clippings": clippings, "count": len(clippings)})
}

func (controller *BooksController) GetBookStats(c *gin.Context) {
	totalBooks, totalClippings, err := controller.repo.GetStats()
	if err != nil {
		respondInternalError(c, err, "book stats")
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{
		"total_books":     totalBooks,
		"total_clippings": totalClippings,
	})
}

// GetRandomQuote returns a random highlight or note, optionally limited to
// one book via the book_id query parameter.
func (controller *BooksController) GetRandomQuote(c *gin.Context) {
	var bookID uint
	if raw := c.Query("book_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondBadRequest(c, "invalid book_id")
			return
		}
		bookID = uint(parsed)
	}

	clipping, err := controller.repo.GetRandomClipping(bookID)
	if errors.Is(err, books.ErrNotFound) {
		respondNotFound(c, "quote")
		return
	}
	if err != nil {
		respondInternalError(c, err, "random quote")
		return
	}

	c.IndentedJSON(http.StatusOK, clipping)
}
