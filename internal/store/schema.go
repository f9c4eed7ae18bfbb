package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"claimguard/internal/config"
)

//go:embed schema_sqlite.sql
var schemaSQLite string

//go:embed schema_postgres.sql
var schemaPostgres string

// schemaVersion is the current schema version. Bump this when the schema changes.
// Users will need to clear their claim database after schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

func (s *Store) schemaSQL() string {
	if s.driver == config.DriverPostgres {
		return schemaPostgres
	}
	return schemaSQLite
}

func (s *Store) schemaVersionTableExists(ctx context.Context) (bool, error) {
	var query string
	if s.driver == config.DriverPostgres {
		query = "SELECT COUNT(1) FROM information_schema.tables WHERE table_name = 'schema_version'"
	} else {
		query = "SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = 'schema_version'"
	}
	var count int
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return false, fmt.Errorf("check schema_version table: %w", err)
	}
	return count > 0, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	exists, err := s.schemaVersionTableExists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (run 'claimguard queue clear' or delete the database)",
			ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// pgx rejects multi-statement exec, so the schema runs one statement at
	// a time for both backends.
	for _, stmt := range strings.Split(s.schemaSQL(), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, s.rebind("INSERT INTO schema_version (version) VALUES (?)"), schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}
