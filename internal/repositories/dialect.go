package repositories

import (
	"fmt"
	"regexp"

	"github.com/institute/coursecatalog/internal/apperrors"
)

// Dialect selects the SQL flavour of the document table
type Dialect string

const (
	DialectMySQL  Dialect = "mysql"
	DialectSQLite Dialect = "sqlite"
)

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// sqlDialect holds the statements that differ between backends
type sqlDialect struct {
	// extractFormat renders a top-level JSON field of the fields column.
	extractFormat string
	// jsonParam converts a bound JSON-encoded value into a comparable value.
	jsonParam     string
	upsertMerge   string
	upsertReplace string
	// lockSuffix is appended to reads inside a transaction.
	lockSuffix string
}

var dialects = map[Dialect]sqlDialect{
	DialectMySQL: {
		extractFormat: "JSON_EXTRACT(fields, '$.%s')",
		jsonParam:     "CAST(? AS JSON)",
		upsertMerge:   "INSERT INTO documents (collection, doc_id, fields) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE fields = JSON_MERGE_PATCH(fields, VALUES(fields))",
		upsertReplace: "INSERT INTO documents (collection, doc_id, fields) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE fields = VALUES(fields)",
		lockSuffix:    " FOR UPDATE",
	},
	DialectSQLite: {
		extractFormat: "json_extract(fields, '$.%s')",
		jsonParam:     "json_extract(?, '$')",
		upsertMerge:   "INSERT INTO documents (collection, doc_id, fields) VALUES (?, ?, ?) ON CONFLICT(collection, doc_id) DO UPDATE SET fields = json_patch(documents.fields, excluded.fields)",
		upsertReplace: "INSERT INTO documents (collection, doc_id, fields) VALUES (?, ?, ?) ON CONFLICT(collection, doc_id) DO UPDATE SET fields = excluded.fields",
		// SQLite serializes writers at BEGIN (see _txlock=immediate in the DSN).
		lockSuffix: "",
	},
}

func lookupDialect(d Dialect) (sqlDialect, error) {
	sd, ok := dialects[d]
	if !ok {
		return sqlDialect{}, fmt.Errorf("unsupported dialect %q", d)
	}
	return sd, nil
}

func (d sqlDialect) extract(field string) (string, error) {
	if !fieldNamePattern.MatchString(field) {
		return "", fmt.Errorf("invalid field name %q: %w", field, apperrors.ErrInvalidInput)
	}
	return fmt.Sprintf(d.extractFormat, field), nil
}
