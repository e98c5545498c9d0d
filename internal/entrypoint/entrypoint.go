// Package entrypoint wires the application together and runs the HTTP server.
package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clipshelf/clipshelf/internal/audit"
	"github.com/clipshelf/clipshelf/internal/config"
	"github.com/clipshelf/clipshelf/internal/database"
	auditrepo "github.com/clipshelf/clipshelf/internal/database/audit"
	"github.com/clipshelf/clipshelf/internal/database/books"
	http_controllers "github.com/clipshelf/clipshelf/internal/http"
	"github.com/clipshelf/clipshelf/internal/importer"
	"github.com/clipshelf/clipshelf/internal/scheduler"
	"github.com/clipshelf/clipshelf/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully within the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Shutdown callback first so the task queue drains before the listener dies
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// Run wires the application together and serves HTTP.
func Run(cfg *config.Config, version string) {
	log.Printf("Starting clipshelf v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	booksRepo := books.NewRepository(db.DB)
	auditService := audit.NewService(auditrepo.NewRepository(db.DB))
	imp := importer.New(booksRepo, db, cfg.Import.FuzzyThreshold)

	// Background task queue (optional)
	var taskClient *tasks.Client
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			MaxRetries:        cfg.Tasks.MaxRetries,
			RetryDelay:        cfg.Tasks.RetryDelay,
			TaskTimeout:       cfg.Tasks.TaskTimeout,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}
		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}

		taskClient.Register(
			tasks.NewImportClippingsFileQueue(imp, auditService),
			tasks.NewCleanupAuditEventsQueue(auditService),
		)

		taskCtx, taskCancel := context.WithCancel(context.Background())
		defer taskCancel()
		go taskClient.Start(taskCtx)
	} else {
		log.Printf("Task queue disabled; async imports unavailable")
	}

	// Periodic audit retention cleanup
	cleanupScheduler := scheduler.NewAuditCleanupScheduler(
		taskClient,
		auditService,
		cfg.Audit.CleanupSchedule,
		cfg.Audit.RetentionDays,
	)
	if err := cleanupScheduler.Start(context.Background()); err != nil {
		log.Printf("WARNING: audit cleanup scheduler not started: %v", err)
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:     db,
		BooksRepo:    booksRepo,
		Importer:     imp,
		AuditService: auditService,
		TaskClient:   taskClient,
		UploadDir:    cfg.Import.UploadDir,
		Version:      version,
	})

	Serve(router, cfg, func(ctx context.Context) {
		cleanupScheduler.Stop()
		if taskClient != nil {
			taskClient.Stop(ctx)
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task queue: %v", err)
			}
		}
	})
}
