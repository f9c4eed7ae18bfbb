package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"claimguard/internal/claims"
	"claimguard/internal/config"
)

// CheckHealth returns diagnostic information about the claim database.
func (s *Store) CheckHealth(ctx context.Context) (claims.DatabaseHealth, error) {
	health := claims.DatabaseHealth{
		Driver:        s.driver,
		DBPath:        s.path,
		SchemaVersion: strconv.Itoa(schemaVersion),
	}

	if s.db == nil {
		return health, errors.New("claim database connection unavailable")
	}

	if s.driver == config.DriverSQLite {
		if s.path == "" {
			return health, errors.New("claim database path is unknown")
		}
		info, err := os.Stat(s.path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				health.DatabaseExists = false
				return health, nil
			}
			return health, fmt.Errorf("stat claim database: %w", err)
		}
		if info.IsDir() {
			return health, fmt.Errorf("claim database path %q is a directory", s.path)
		}
		health.DatabaseExists = true
	}

	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping claim database: %w", err)
	}
	health.DatabaseReadable = true
	if s.driver == config.DriverPostgres {
		health.DatabaseExists = true
	}

	tableExists, err := s.claimsTableExists(connCtx)
	if err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("query table info: %w", err)
	}
	health.TableExists = tableExists

	if health.TableExists {
		columns, err := s.claimsTableColumns(connCtx)
		if err != nil {
			health.Error = err.Error()
			return health, err
		}
		health.ColumnsPresent = columns

		missingMap := make(map[string]struct{})
		for _, col := range strings.Split(claimColumns, ", ") {
			missingMap[col] = struct{}{}
		}
		for _, col := range columns {
			delete(missingMap, col)
		}
		for col := range missingMap {
			health.MissingColumns = append(health.MissingColumns, col)
		}

		row := s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM claims")
		if err := row.Scan(&health.TotalClaims); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("count claims: %w", err)
		}
	}

	// PostgreSQL has no integrity_check pragma; a readable connection with
	// the schema in place counts as intact.
	if s.driver == config.DriverSQLite {
		var integrityResult string
		row := s.db.QueryRowContext(connCtx, "PRAGMA integrity_check")
		if err := row.Scan(&integrityResult); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("integrity check: %w", err)
		}
		health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")
	} else {
		health.IntegrityCheck = health.TableExists
	}

	return health, nil
}

func (s *Store) claimsTableExists(ctx context.Context) (bool, error) {
	var query string
	if s.driver == config.DriverPostgres {
		query = "SELECT COUNT(1) FROM information_schema.tables WHERE table_name = 'claims'"
	} else {
		query = "SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = 'claims'"
	}
	var count int
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return count > 0, nil
}

func (s *Store) claimsTableColumns(ctx context.Context) ([]string, error) {
	if s.driver == config.DriverPostgres {
		rows, err := s.db.QueryContext(ctx,
			"SELECT column_name FROM information_schema.columns WHERE table_name = 'claims' ORDER BY ordinal_position")
		if err != nil {
			return nil, fmt.Errorf("table info: %w", err)
		}
		defer rows.Close()

		var columns []string
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return nil, fmt.Errorf("scan table info: %w", err)
			}
			columns = append(columns, name)
		}
		return columns, rows.Err()
	}

	rows, err := s.db.QueryContext(ctx, "PRAGMA table_info(claims)")
	if err != nil {
		return nil, fmt.Errorf("table info: %w", err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var (
			cid     int
			name    string
			typeStr string
			notNull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typeStr, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		columns = append(columns, name)
	}
	return columns, rows.Err()
}
