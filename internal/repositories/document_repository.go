package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/institute/coursecatalog/internal/apperrors"
	"github.com/institute/coursecatalog/internal/models"
	"go.uber.org/zap"
)

// Documents wraps the record operations of the document store.
// The same operations are available on the repository and inside RunInTx.
type Documents interface {
	// Get retrieves one document, or an error matching apperrors.ErrNotFound
	Get(ctx context.Context, path Path, id string) (*models.Document, error)
	// List retrieves every document of a collection matching the query filters, in query order
	List(ctx context.Context, path Path, query models.ListQuery) ([]models.Document, error)
	// Put writes fields to a document, creating it if needed.
	// With merge the fields are merged onto the existing document, otherwise they replace it.
	Put(ctx context.Context, path Path, id string, fields map[string]any, merge bool) error
	// Delete removes exactly one document. Deleting a missing document is not an error.
	Delete(ctx context.Context, path Path, id string) error
}

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type documentRepository struct {
	db      *sql.DB
	q       querier
	dialect sqlDialect
	logger  *zap.Logger
	inTx    bool
}

var _ Documents = (*documentRepository)(nil)

// NewDocumentRepository creates a document repository over db for the given dialect
func NewDocumentRepository(db *sql.DB, dialect Dialect, logger *zap.Logger) (*documentRepository, error) {
	sd, err := lookupDialect(dialect)
	if err != nil {
		return nil, err
	}
	return &documentRepository{
		db:      db,
		q:       db,
		dialect: sd,
		logger:  logger,
	}, nil
}

// RunInTx runs fn against a transactional view of the store.
//
// The transaction commits when fn returns nil and rolls back otherwise.
// Calls nested inside an open transaction reuse it.
func (r *documentRepository) RunInTx(ctx context.Context, fn func(tx Documents) error) error {
	if r.inTx {
		return fn(r)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("failed to begin transaction", zap.Error(err))
		return r.classify(ctx, "begin transaction", err)
	}

	txRepo := &documentRepository{
		db:      r.db,
		q:       tx,
		dialect: r.dialect,
		logger:  r.logger,
		inTx:    true,
	}

	if err := fn(txRepo); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			r.logger.Warn("failed to roll back transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("failed to commit transaction", zap.Error(err))
		return r.classify(ctx, "commit transaction", err)
	}
	return nil
}

// Get retrieves a document by collection path and id
func (r *documentRepository) Get(ctx context.Context, path Path, id string) (*models.Document, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	if err := validatePath(path); err != nil {
		return nil, err
	}

	query := "SELECT fields FROM documents WHERE collection = ? AND doc_id = ?"
	if r.inTx {
		query += r.dialect.lockSuffix
	}

	var raw []byte
	err := r.q.QueryRowContext(ctx, query, string(path), id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s/%s: %w", path, id, apperrors.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("failed to query document", zap.String("collection", string(path)), zap.String("id", id), zap.Error(err))
		return nil, r.classify(ctx, "get document", err)
	}

	fields, err := decodeFields(raw)
	if err != nil {
		r.logger.Error("failed to decode document", zap.String("collection", string(path)), zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return &models.Document{ID: id, Fields: fields}, nil
}

// List retrieves the documents of a collection
//
// Documents are ordered by query.OrderBy in query.Direction, then by ascending id.
// Documents without the OrderBy field sort as NULL.
func (r *documentRepository) List(ctx context.Context, path Path, query models.ListQuery) ([]models.Document, error) {
	var sb strings.Builder
	args := []any{string(path)}

	sb.WriteString("SELECT doc_id, fields FROM documents WHERE collection = ?")

	for _, filter := range query.Filters {
		expr, err := r.dialect.extract(filter.Field)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(filter.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode filter value for %s: %w", filter.Field, apperrors.ErrInvalidInput)
		}
		sb.WriteString(" AND ")
		sb.WriteString(expr)
		sb.WriteString(" = ")
		sb.WriteString(r.dialect.jsonParam)
		args = append(args, string(value))
	}

	sb.WriteString(" ORDER BY ")
	if query.OrderBy != "" {
		expr, err := r.dialect.extract(query.OrderBy)
		if err != nil {
			return nil, err
		}
		direction := "ASC"
		switch query.Direction {
		case models.SortAscending, "":
		case models.SortDescending:
			direction = "DESC"
		default:
			return nil, fmt.Errorf("invalid sort direction %q: %w", query.Direction, apperrors.ErrInvalidInput)
		}
		sb.WriteString(expr)
		sb.WriteString(" ")
		sb.WriteString(direction)
		sb.WriteString(", ")
	}
	sb.WriteString("doc_id ASC")

	rows, err := r.q.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		r.logger.Error("failed to query documents", zap.String("collection", string(path)), zap.Error(err))
		return nil, r.classify(ctx, "list documents", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			r.logger.Error("failed to scan document", zap.String("collection", string(path)), zap.Error(err))
			return nil, r.classify(ctx, "scan document", err)
		}
		fields, err := decodeFields(raw)
		if err != nil {
			r.logger.Error("failed to decode document", zap.String("collection", string(path)), zap.String("id", id), zap.Error(err))
			return nil, err
		}
		docs = append(docs, models.Document{ID: id, Fields: fields})
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating rows", zap.String("collection", string(path)), zap.Error(err))
		return nil, r.classify(ctx, "iterate documents", err)
	}

	return docs, nil
}

// Put upserts a document
//
// With merge set, fields are applied as a JSON merge patch: a nil value removes the key.
func (r *documentRepository) Put(ctx context.Context, path Path, id string, fields map[string]any, merge bool) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if err := validatePath(path); err != nil {
		return err
	}
	if fields == nil {
		fields = map[string]any{}
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode document %s/%s: %w", path, id, apperrors.ErrInvalidInput)
	}

	query := r.dialect.upsertReplace
	if merge {
		query = r.dialect.upsertMerge
	}

	if _, err := r.q.ExecContext(ctx, query, string(path), id, string(raw)); err != nil {
		r.logger.Error("failed to write document", zap.String("collection", string(path)), zap.String("id", id), zap.Bool("merge", merge), zap.Error(err))
		return r.classify(ctx, "put document", err)
	}

	return nil
}

// Delete removes a document by collection path and id
func (r *documentRepository) Delete(ctx context.Context, path Path, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if err := validatePath(path); err != nil {
		return err
	}

	query := "DELETE FROM documents WHERE collection = ? AND doc_id = ?"
	if _, err := r.q.ExecContext(ctx, query, string(path), id); err != nil {
		r.logger.Error("failed to delete document", zap.String("collection", string(path)), zap.String("id", id), zap.Error(err))
		return r.classify(ctx, "delete document", err)
	}

	return nil
}

// classify maps a driver failure onto the store error kinds
func (r *documentRepository) classify(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("failed to %s: %w", op, apperrors.ErrTimeout)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	return fmt.Errorf("failed to %s: %w: %w", op, apperrors.ErrStoreUnavailable, err)
}

func decodeFields(raw []byte) (map[string]any, error) {
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode document fields: %w", err)
	}
	return fields, nil
}
