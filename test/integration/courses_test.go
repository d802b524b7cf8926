package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/institute/coursecatalog/internal/config"
	"github.com/institute/coursecatalog/internal/database"
	"github.com/institute/coursecatalog/internal/handlers"
	"github.com/institute/coursecatalog/internal/middleware"
	"github.com/institute/coursecatalog/internal/models"
	"github.com/institute/coursecatalog/internal/repositories"
	"github.com/institute/coursecatalog/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	testDB     *sql.DB
	testRouter chi.Router
	testLogger *zap.Logger
)

// cleanupTestData removes all stored documents
func cleanupTestData(t *testing.T, db *sql.DB) {
	t.Helper()
	_, err := db.Exec("DELETE FROM documents")
	require.NoError(t, err, "Failed to cleanup test data")
}

// setupTestRouter creates a test router with all handlers and the request middleware chain
func setupTestRouter(db *sql.DB, dialect repositories.Dialect, logger *zap.Logger) chi.Router {
	repo, err := repositories.NewDocumentRepository(db, dialect, logger)
	if err != nil {
		panic(fmt.Sprintf("Failed to create repository: %v", err))
	}
	ledger := services.NewHistoryLedger(repo, logger)
	content := services.NewCourseContentService(repo, ledger, 5*time.Second, logger)
	listing := services.NewCourseListingService(repo, 5*time.Second, 4, logger)
	courseHandler := handlers.NewCourseHandler(content, listing, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.LoggerMiddleware(logger))
	r.Use(middleware.RecoveryMiddleware(logger))
	r.Use(middleware.RequestSizeLimitMiddleware(middleware.DefaultMaxRequestSize))
	r.Route("/api/v1", func(r chi.Router) {
		courseHandler.RegisterRoutes(r, middleware.EditorMiddleware)
	})

	return r
}

// TestMain sets up and tears down the test environment
func TestMain(m *testing.M) {
	var err error
	testLogger, err = zap.NewDevelopment()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	cfg, err := config.LoadTestConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load test config: %v", err))
	}

	// Without a MySQL test database the suite runs on a temporary SQLite file
	var tmpDir string
	if cfg.Database.Driver == config.DriverSQLite && cfg.Database.SQLitePath == "" {
		tmpDir, err = os.MkdirTemp("", "coursecatalog-integration")
		if err != nil {
			panic(fmt.Sprintf("Failed to create temp dir: %v", err))
		}
		cfg.Database.SQLitePath = filepath.Join(tmpDir, "catalog.db")
	}

	db, dialect, err := database.Open(context.Background(), cfg)
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to test database: %v", err))
	}
	testDB = db

	if err := database.Migrate(testDB, dialect); err != nil {
		panic(fmt.Sprintf("Failed to migrate test database: %v", err))
	}

	testRouter = setupTestRouter(testDB, dialect, testLogger)

	code := m.Run()

	testDB.Close()
	if tmpDir != "" {
		os.RemoveAll(tmpDir)
	}
	os.Exit(code)
}

// doRequest sends a request through the test router, as editor u1 when withEditor is set
func doRequest(t *testing.T, method, path, body string, withEditor bool) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if withEditor {
		req.Header.Set(middleware.EditorUIDHeader, "u1")
		req.Header.Set(middleware.EditorEmailHeader, "u1@x.com")
	}
	w := httptest.NewRecorder()
	testRouter.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func TestIntegration_PublishAndList(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	defer cleanupTestData(t, testDB)

	w := doRequest(t, http.MethodPut, "/api/v1/courses/intro-101", `{"title":"Intro","order":1,"published":false,"startDate":"5 Mar 2026"}`, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	created := decode[models.Course](t, w)
	assert.Equal(t, "2026-03-05", created.StartDateISO)
	assert.Equal(t, int64(1), created.Version)

	w = doRequest(t, http.MethodGet, "/api/v1/courses", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Course](t, w), 1)

	w = doRequest(t, http.MethodGet, "/api/v1/courses/published", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]models.Course](t, w))

	w = doRequest(t, http.MethodPut, "/api/v1/courses/intro-101", `{"published":true,"changeDescription":"publish"}`, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(t, http.MethodGet, "/api/v1/courses/published", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	published := decode[[]models.Course](t, w)
	require.Len(t, published, 1)
	assert.Equal(t, "intro-101", published[0].ID)
	assert.Equal(t, "Intro", published[0].Title)

	w = doRequest(t, http.MethodGet, "/api/v1/courses/intro-101/history", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[[]models.HistoryEntry](t, w)
	require.Len(t, history, 1)
	assert.Equal(t, false, history[0].Snapshot["published"])
	assert.Equal(t, "publish", history[0].ChangeDescription)
	assert.Equal(t, "u1@x.com", history[0].EditedByEmail)
}

func TestIntegration_RestoreFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	defer cleanupTestData(t, testDB)

	w := doRequest(t, http.MethodPut, "/api/v1/courses/go-201", `{"title":"S1","status":"upcoming"}`, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = doRequest(t, http.MethodPut, "/api/v1/courses/go-201", `{"title":"S2","expectedVersion":1}`, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// A stale version token is rejected.
	w = doRequest(t, http.MethodPut, "/api/v1/courses/go-201", `{"title":"S3","expectedVersion":1}`, true)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(t, http.MethodPost, "/api/v1/courses/go-201/history/does-not-exist/restore", "", true)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"History version not found"}`, w.Body.String())

	w = doRequest(t, http.MethodGet, "/api/v1/courses/go-201/history", "", false)
	history := decode[[]models.HistoryEntry](t, w)
	require.Len(t, history, 1)

	w = doRequest(t, http.MethodGet, "/api/v1/courses/go-201/history/"+history[0].ID, "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "S1", decode[models.HistoryEntry](t, w).Snapshot["title"])

	w = doRequest(t, http.MethodPost, "/api/v1/courses/go-201/history/"+history[0].ID+"/restore", "", true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	restored := decode[models.Course](t, w)
	assert.Equal(t, "S1", restored.Title)
	assert.Equal(t, int64(3), restored.Version)

	w = doRequest(t, http.MethodGet, "/api/v1/courses/go-201/history", "", false)
	history = decode[[]models.HistoryEntry](t, w)
	require.Len(t, history, 2)
	assert.Equal(t, "S2", history[0].Snapshot["title"])
	assert.True(t, strings.HasPrefix(history[0].ChangeDescription, "Restored from version "))
}

func TestIntegration_ContentAndCascade(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	defer cleanupTestData(t, testDB)

	w := doRequest(t, http.MethodPut, "/api/v1/courses/c1/modules/m1", `{"title":"Orphan"}`, true)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, http.MethodPut, "/api/v1/courses/c1", `{"title":"Course"}`, true)
	require.Equal(t, http.StatusOK, w.Code)

	for _, m := range []string{"m2", "m1"} {
		order := strings.TrimPrefix(m, "m")
		w = doRequest(t, http.MethodPut, "/api/v1/courses/c1/modules/"+m, `{"title":"`+m+`","order":`+order+`}`, true)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		for _, l := range []string{"l2", "l1"} {
			lOrder := strings.TrimPrefix(l, "l")
			body := `{"title":"` + l + `","type":"text","order":` + lOrder + `}`
			w = doRequest(t, http.MethodPut, "/api/v1/courses/c1/modules/"+m+"/lessons/"+l, body, true)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		}
	}

	w = doRequest(t, http.MethodPut, "/api/v1/courses/c1/modules/m1/lessons/bad", `{"type":"audio"}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, http.MethodGet, "/api/v1/courses/c1/content", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	content := decode[models.CourseContent](t, w)
	require.Len(t, content.Modules, 2)
	assert.Equal(t, "m1", content.Modules[0].ID)
	require.Len(t, content.Modules[0].Lessons, 2)
	assert.Equal(t, "l1", content.Modules[0].Lessons[0].ID)

	w = doRequest(t, http.MethodDelete, "/api/v1/courses/c1/modules/m1", "", true)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(t, http.MethodGet, "/api/v1/courses/c1/modules/m1/lessons", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]models.Lesson](t, w))

	w = doRequest(t, http.MethodGet, "/api/v1/courses/c1/modules", "", false)
	modules := decode[[]models.Module](t, w)
	require.Len(t, modules, 1)
	assert.Equal(t, "m2", modules[0].ID)

	// Unpublishing keeps content and history.
	w = doRequest(t, http.MethodDelete, "/api/v1/courses/c1", "", true)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = doRequest(t, http.MethodGet, "/api/v1/courses/c1/content", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	content = decode[models.CourseContent](t, w)
	assert.False(t, content.Course.Published)
	assert.Len(t, content.Modules, 1)

	w = doRequest(t, http.MethodDelete, "/api/v1/courses/missing", "", true)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIntegration_WritesRequireEditor(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	defer cleanupTestData(t, testDB)

	w := doRequest(t, http.MethodPut, "/api/v1/courses/c1", `{"title":"x"}`, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	w = doRequest(t, http.MethodGet, "/api/v1/courses/c1", "", false)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
