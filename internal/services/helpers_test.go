package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/institute/coursecatalog/internal/config"
	"github.com/institute/coursecatalog/internal/database"
	"github.com/institute/coursecatalog/internal/models"
	"github.com/institute/coursecatalog/internal/repositories"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testEditor = models.Editor{UID: "u1", Email: "u1@x.com"}

// setupStore creates a document repository over a migrated temporary SQLite database
func setupStore(t *testing.T) DocumentRepository {
	t.Helper()

	cfg := &config.Config{Database: config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "catalog.db"),
	}}

	db, dialect, err := database.Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db, dialect))

	repo, err := repositories.NewDocumentRepository(db, dialect, zap.NewNop())
	require.NoError(t, err)
	return repo
}

// testServices wires the ledger and both services over one store
type testServices struct {
	docs    DocumentRepository
	ledger  *historyLedger
	content *courseContentService
	listing *courseListingService
}

func setupServices(t *testing.T, docs DocumentRepository) *testServices {
	t.Helper()

	logger := zap.NewNop()
	ledger := NewHistoryLedger(docs, logger)
	return &testServices{
		docs:    docs,
		ledger:  ledger,
		content: NewCourseContentService(docs, ledger, 5*time.Second, logger),
		listing: NewCourseListingService(docs, 5*time.Second, 2, logger),
	}
}

func ptr[T any](v T) *T {
	return &v
}

// faultyDocuments wraps a repository and fails selected calls
type faultyDocuments struct {
	DocumentRepository

	mu sync.Mutex
	// deletesBeforeFailure is the number of deletes that succeed before every later delete fails with deleteErr
	deletesBeforeFailure int
	deleteErr            error
	deletes              int
	// listErr fails every List on a path in listErrPaths
	listErr      error
	listErrPaths map[repositories.Path]bool
	// putErr fails every Put
	putErr error
}

func (f *faultyDocuments) Put(ctx context.Context, path repositories.Path, id string, fields map[string]any, merge bool) error {
	if f.putErr != nil {
		return f.putErr
	}
	return f.DocumentRepository.Put(ctx, path, id, fields, merge)
}

func (f *faultyDocuments) Delete(ctx context.Context, path repositories.Path, id string) error {
	f.mu.Lock()
	f.deletes++
	fail := f.deleteErr != nil && f.deletes > f.deletesBeforeFailure
	f.mu.Unlock()
	if fail {
		return f.deleteErr
	}
	return f.DocumentRepository.Delete(ctx, path, id)
}

func (f *faultyDocuments) List(ctx context.Context, path repositories.Path, query models.ListQuery) ([]models.Document, error) {
	if f.listErr != nil && f.listErrPaths[path] {
		return nil, f.listErr
	}
	return f.DocumentRepository.List(ctx, path, query)
}

// mockHistoryLedger is a mock implementation of HistoryLedger
type mockHistoryLedger struct {
	entry     *models.HistoryEntry
	entries   []models.HistoryEntry
	err       error
	recordErr error
	recorded  int
}

func (m *mockHistoryLedger) RecordTo(ctx context.Context, docs repositories.Documents, courseID string, snapshot map[string]any, editor models.Editor, description string) (*models.HistoryEntry, error) {
	if m.recordErr != nil {
		return nil, m.recordErr
	}
	m.recorded++
	return &models.HistoryEntry{ID: "h", Snapshot: snapshot}, nil
}

func (m *mockHistoryLedger) List(ctx context.Context, courseID string) ([]models.HistoryEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.entries, nil
}

func (m *mockHistoryLedger) Get(ctx context.Context, courseID, historyID string) (*models.HistoryEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.entry, nil
}
