// Package database opens the document store connection and applies its schema
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/institute/coursecatalog/internal/config"
	"github.com/institute/coursecatalog/internal/repositories"
	_ "modernc.org/sqlite"
)

const migrationsTable = "catalog_schema_migrations"

// Open connects to the configured database and returns the matching repository dialect
func Open(ctx context.Context, cfg *config.Config) (*sql.DB, repositories.Dialect, error) {
	var dialect repositories.Dialect
	switch cfg.Database.Driver {
	case config.DriverMySQL:
		dialect = repositories.DialectMySQL
	case config.DriverSQLite:
		dialect = repositories.DialectSQLite
	default:
		return nil, "", fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	dsn := cfg.DSN()
	if dsn == "" {
		return nil, "", fmt.Errorf("database DSN is empty")
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database: %w", err)
	}

	if dialect == repositories.DialectMySQL {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("failed to ping database: %w", err)
	}

	return db, dialect, nil
}

// Migrate applies the embedded schema migrations for the dialect
func Migrate(db *sql.DB, dialect repositories.Dialect) error {
	source, err := iofs.New(repositories.Migrations, "migrations/"+string(dialect))
	if err != nil {
		return fmt.Errorf("failed to open migration source: %w", err)
	}

	var m *migrate.Migrate
	switch dialect {
	case repositories.DialectMySQL:
		driver, err := migratemysql.WithInstance(db, &migratemysql.Config{MigrationsTable: migrationsTable})
		if err != nil {
			return fmt.Errorf("failed to create migration driver: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", source, "mysql", driver)
		if err != nil {
			return fmt.Errorf("failed to create migrate instance: %w", err)
		}
	case repositories.DialectSQLite:
		driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{MigrationsTable: migrationsTable})
		if err != nil {
			return fmt.Errorf("failed to create migration driver: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", source, "sqlite", driver)
		if err != nil {
			return fmt.Errorf("failed to create migrate instance: %w", err)
		}
	default:
		return fmt.Errorf("unsupported dialect %q", dialect)
	}

	// The migrate instance is not closed: closing it would close db.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
