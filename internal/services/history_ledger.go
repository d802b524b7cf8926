package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/institute/coursecatalog/internal/apperrors"
	"github.com/institute/coursecatalog/internal/models"
	"github.com/institute/coursecatalog/internal/repositories"
	"go.uber.org/zap"
)

type historyLedger struct {
	docs   repositories.Documents
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// NewHistoryLedger creates a history ledger storing entries under each course's history collection
func NewHistoryLedger(docs repositories.Documents, logger *zap.Logger) *historyLedger {
	return &historyLedger{
		docs:   docs,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Record appends a new history entry for a course
//
// The entry gets a generated id and the current time; existing entries are never touched.
func (l *historyLedger) Record(ctx context.Context, courseID string, snapshot map[string]any, editor models.Editor, description string) (*models.HistoryEntry, error) {
	return l.RecordTo(ctx, l.docs, courseID, snapshot, editor, description)
}

// RecordTo appends a new history entry through docs, which may be an open transaction
func (l *historyLedger) RecordTo(ctx context.Context, docs repositories.Documents, courseID string, snapshot map[string]any, editor models.Editor, description string) (*models.HistoryEntry, error) {
	if err := repositories.ValidateID(courseID); err != nil {
		return nil, err
	}
	if snapshot == nil {
		snapshot = map[string]any{}
	}

	entry := &models.HistoryEntry{
		ID:                l.newID(),
		Snapshot:          snapshot,
		EditedBy:          editor.UID,
		EditedByEmail:     editor.Email,
		Timestamp:         models.NewTimestamp(l.now()),
		ChangeDescription: description,
	}

	if err := docs.Put(ctx, repositories.HistoryPath(courseID), entry.ID, entry.Fields(), false); err != nil {
		l.logger.Error("failed to record history entry", zap.String("course_id", courseID), zap.Error(err))
		return nil, fmt.Errorf("failed to record history for course %s: %w", courseID, err)
	}

	return entry, nil
}

// List retrieves the history entries of a course, newest first
func (l *historyLedger) List(ctx context.Context, courseID string) ([]models.HistoryEntry, error) {
	if err := repositories.ValidateID(courseID); err != nil {
		return nil, err
	}

	docs, err := l.docs.List(ctx, repositories.HistoryPath(courseID), models.ListQuery{
		OrderBy:   models.HistoryFieldTimestamp,
		Direction: models.SortDescending,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list history for course %s: %w", courseID, err)
	}

	entries := make([]models.HistoryEntry, 0, len(docs))
	for _, doc := range docs {
		entry, err := models.HistoryEntryFromDocument(doc)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

// Get retrieves one history entry, or an error matching apperrors.ErrHistoryNotFound
func (l *historyLedger) Get(ctx context.Context, courseID, historyID string) (*models.HistoryEntry, error) {
	if err := repositories.ValidateID(courseID); err != nil {
		return nil, err
	}
	if err := repositories.ValidateID(historyID); err != nil {
		return nil, err
	}

	doc, err := l.docs.Get(ctx, repositories.HistoryPath(courseID), historyID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.ErrHistoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get history entry %s: %w", historyID, err)
	}

	return models.HistoryEntryFromDocument(*doc)
}
