package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipshelf/clipshelf/internal/database"
	"github.com/clipshelf/clipshelf/internal/database/books"
	"github.com/clipshelf/clipshelf/internal/importer"
)

func setupImportTest(t *testing.T) (*gin.Engine, *books.Repository, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := "./test_import_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	repo := books.NewRepository(db.DB)
	imp := importer.New(repo, db, 0)
	controller := NewKindleImportController(imp, nil, nil, t.TempDir())

	router := gin.New()
	router.POST("/import/kindle", controller.Import)
	router.POST("/import/kindle/async", controller.ImportAsync)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return router, repo, cleanup
}

func multipartUpload(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestKindleImportController_Import(t *testing.T) {
	clippings := `The Power of Now (Eckhart Tolle)
- Your Highlight on page 8 | Location 64-64 | Added on Tuesday, April 15, 2025 10:16:21 PM

would change for the better. Values would shift in the flotsam
==========
`

	t.Run("imports uploaded file", func(t *testing.T) {
		router, repo, cleanup := setupImportTest(t)
		defer cleanup()

		body, contentType := multipartUpload(t, "clippings_file", "MyClippings.txt", clippings)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/import/kindle", body)
		req.Header.Set("Content-Type", contentType)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var result KindleImportResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.True(t, result.Success)
		assert.Equal(t, 1, result.Summary.Added)
		assert.Equal(t, 1, result.Summary.BooksCreated)

		allBooks, err := repo.GetAllBooks()
		require.NoError(t, err)
		assert.Len(t, allBooks, 1)
	})

	t.Run("re-upload reports duplicates", func(t *testing.T) {
		router, _, cleanup := setupImportTest(t)
		defer cleanup()

		for i := 0; i < 2; i++ {
			body, contentType := multipartUpload(t, "clippings_file", "MyClippings.txt", clippings)
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("POST", "/import/kindle", body)
			req.Header.Set("Content-Type", contentType)
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)

			if i == 1 {
				var result KindleImportResult
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
				assert.Equal(t, 0, result.Summary.Added)
				assert.Equal(t, 1, result.Summary.Duplicates)
			}
		}
	})

	t.Run("missing file is a bad request", func(t *testing.T) {
		router, _, cleanup := setupImportTest(t)
		defer cleanup()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/import/kindle", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed blocks reported but not fatal", func(t *testing.T) {
		router, _, cleanup := setupImportTest(t)
		defer cleanup()

		mixed := "Broken Entry\njunk line\n==========\n" + clippings

		body, contentType := multipartUpload(t, "clippings_file", "MyClippings.txt", mixed)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/import/kindle", body)
		req.Header.Set("Content-Type", contentType)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var result KindleImportResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.True(t, result.Success)
		assert.Equal(t, 1, result.Summary.Added)
		assert.Equal(t, 1, result.Summary.Malformed)
		assert.NotEmpty(t, result.Summary.Failures)
	})
}

func TestKindleImportController_ImportAsync_Disabled(t *testing.T) {
	router, _, cleanup := setupImportTest(t)
	defer cleanup()

	body, contentType := multipartUpload(t, "clippings_file", "MyClippings.txt", "stub")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/import/kindle/async", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	// No task client wired in this setup
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
