package http

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clipshelf/clipshelf/internal/audit"
	"github.com/clipshelf/clipshelf/internal/importer"
	"github.com/clipshelf/clipshelf/internal/tasks"
)

const (
	maxKindleFileSize = 10 * 1024 * 1024 // 10 MB
)

type KindleImportController struct {
	importer     *importer.Importer
	auditService *audit.Service
	taskClient   *tasks.Client
	uploadDir    string
}

func NewKindleImportController(imp *importer.Importer, auditService *audit.Service, taskClient *tasks.Client, uploadDir string) *KindleImportController {
	return &KindleImportController{
		importer:     imp,
		auditService: auditService,
		taskClient:   taskClient,
		uploadDir:    uploadDir,
	}
}

type KindleImportResult struct {
	Success bool             `json:"success"`
	Error   string           `json:"error,omitempty"`
	Summary importer.Summary `json:"summary"`
}

// Import handles POST /import/kindle: a multipart upload of MyClippings.txt
// imported synchronously.
func (c *KindleImportController) Import(ctx *gin.Context) {
	file, header, err := ctx.Request.FormFile("clippings_file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, &KindleImportResult{
			Success: false,
			Error:   "Clippings file not provided",
		})
		return
	}
	defer file.Close()

	if header.Size > maxKindleFileSize {
		ctx.JSON(http.StatusBadRequest, &KindleImportResult{
			Success: false,
			Error:   fmt.Sprintf("File too large (max %d MB)", maxKindleFileSize/(1024*1024)),
		})
		return
	}

	limitedReader := io.LimitReader(file, maxKindleFileSize+1)

	summary, importErr := c.importer.Import(limitedReader)

	if c.auditService != nil {
		desc := fmt.Sprintf("Imported %s: %d added, %d duplicates, %d malformed",
			header.Filename, summary.Added, summary.Duplicates, summary.Malformed)
		c.auditService.LogImport(desc, summary.Added, summary.Duplicates, summary.Malformed, summary.BooksCreated, importErr)
	}

	if importErr != nil {
		ctx.JSON(http.StatusInternalServerError, &KindleImportResult{
			Success: false,
			Error:   fmt.Sprintf("Import failed: %v", importErr),
			Summary: summary,
		})
		return
	}

	ctx.JSON(http.StatusOK, &KindleImportResult{
		Success: true,
		Summary: summary,
	})
}

// ImportAsync handles POST /import/kindle/async: the upload is staged to the
// spool directory and imported by a background worker.
func (c *KindleImportController) ImportAsync(ctx *gin.Context) {
	if c.taskClient == nil {
		respondBadRequest(ctx, "background imports are disabled")
		return
	}

	file, header, err := ctx.Request.FormFile("clippings_file")
	if err != nil {
		respondBadRequest(ctx, "Clippings file not provided")
		return
	}
	defer file.Close()

	if header.Size > maxKindleFileSize {
		respondBadRequest(ctx, fmt.Sprintf("File too large (max %d MB)", maxKindleFileSize/(1024*1024)))
		return
	}

	if err := os.MkdirAll(c.uploadDir, 0o755); err != nil {
		respondInternalError(ctx, err, "create upload dir")
		return
	}

	staged := filepath.Join(c.uploadDir, fmt.Sprintf("clippings-%d.txt", time.Now().UnixNano()))
	out, err := os.Create(staged)
	if err != nil {
		respondInternalError(ctx, err, "stage upload")
		return
	}
	if _, err := io.Copy(out, io.LimitReader(file, maxKindleFileSize+1)); err != nil {
		out.Close()
		os.Remove(staged)
		respondInternalError(ctx, err, "stage upload")
		return
	}
	if err := out.Close(); err != nil {
		os.Remove(staged)
		respondInternalError(ctx, err, "stage upload")
		return
	}

	ids, err := c.taskClient.Add(tasks.ImportClippingsFileTask{
		Path:        staged,
		DeleteAfter: true,
	}).Save()
	if err != nil {
		os.Remove(staged)
		respondInternalError(ctx, err, "queue import task")
		return
	}

	respondAccepted(ctx, "import queued", gin.H{"task_id": ids[0]})
}
