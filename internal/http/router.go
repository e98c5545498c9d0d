// Package http exposes the clippings library over a JSON API.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/clipshelf/clipshelf/internal/audit"
	"github.com/clipshelf/clipshelf/internal/database"
	"github.com/clipshelf/clipshelf/internal/database/books"
	"github.com/clipshelf/clipshelf/internal/importer"
	"github.com/clipshelf/clipshelf/internal/tasks"
)

// RouterConfig holds all dependencies needed to construct the HTTP router.
type RouterConfig struct {
	Database     *database.Database
	BooksRepo    *books.Repository
	Importer     *importer.Importer
	AuditService *audit.Service

	// TaskClient enables the async import and task status endpoints.
	// May be nil when background processing is disabled.
	TaskClient *tasks.Client

	// UploadDir is where async import uploads are staged.
	UploadDir string

	Version string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.Version)
	booksController := NewBooksController(cfg.BooksRepo)
	kindleImporter := NewKindleImportController(cfg.Importer, cfg.AuditService, cfg.TaskClient, cfg.UploadDir)
	auditController := NewAuditController(cfg.AuditService)

	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	router.POST("/import/kindle", kindleImporter.Import)
	if cfg.TaskClient != nil {
		router.POST("/import/kindle/async", kindleImporter.ImportAsync)

		tasksController := NewTasksController(cfg.TaskClient)
		router.GET("/api/tasks/:id", tasksController.GetTaskStatus)
	}

	api := router.Group("/api")
	{
		api.GET("/books", booksController.GetAllBooks)
		api.GET("/books/search", booksController.SearchBooks)
		api.GET("/books/stats", booksController.GetBookStats)
		api.GET("/books/:id", booksController.GetBookByID)
		api.GET("/books/:id/clippings", booksController.GetClippingsForBook)

		api.GET("/quotes/random", booksController.GetRandomQuote)

		api.GET("/audit/events", auditController.GetEvents)
	}

	return router
}
