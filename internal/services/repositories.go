package services

import (
	"context"
	"time"

	"github.com/institute/coursecatalog/internal/models"
	"github.com/institute/coursecatalog/internal/repositories"
)

// DocumentReader is the interface that wraps read access to the document store
type DocumentReader interface {
	// Method Get retrieve a single document from the collection "path" by its id.
	//
	// "ctx" is used to bound the read; an expired context yields an error matching apperrors.ErrTimeout.
	// If the document does not exist, an error matching apperrors.ErrNotFound is returned together with "nil" value.
	Get(ctx context.Context, path repositories.Path, id string) (*models.Document, error)
	// Method List retrieve the documents of the collection "path" matching every filter of "query".
	//
	// Documents are ordered by query.OrderBy and then by ascending id. An empty collection returns an empty slice.
	// Please reference Get method for more information about "ctx" and error values.
	List(ctx context.Context, path repositories.Path, query models.ListQuery) ([]models.Document, error)
}

// DocumentRepository is the interface that wraps read and write access to the document store
type DocumentRepository interface {
	repositories.Documents
	// Method RunInTx runs "fn" inside a single store transaction.
	//
	// Every read and write made through "tx" commits together when "fn" returns nil, and is rolled back otherwise.
	// The error returned by "fn" is returned unchanged.
	RunInTx(ctx context.Context, fn func(tx repositories.Documents) error) error
}

// HistoryLedger is the interface that wraps methods for course history access
type HistoryLedger interface {
	// Method RecordTo append a new history entry for course "courseID" through "docs".
	//
	// "docs" may be an open transaction, which makes the entry part of that transaction.
	// "snapshot" is the full previous course state; "editor" and "description" are stored alongside it.
	RecordTo(ctx context.Context, docs repositories.Documents, courseID string, snapshot map[string]any, editor models.Editor, description string) (*models.HistoryEntry, error)
	// Method List retrieve the history of course "courseID", newest first.
	List(ctx context.Context, courseID string) ([]models.HistoryEntry, error)
	// Method Get retrieve one history entry.
	//
	// If the entry does not exist, an error matching apperrors.ErrHistoryNotFound is returned together with "nil" value.
	Get(ctx context.Context, courseID, historyID string) (*models.HistoryEntry, error)
}

// withTimeout bounds ctx by d when d is positive
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
