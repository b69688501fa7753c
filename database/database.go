package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Conn pairs a query target with the placeholder format of its driver.
type Conn struct {
	Q  Querier
	SB sq.StatementBuilderType
}

// PoolOptions sizes the connection pool. Zero values keep database/sql defaults.
type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Builder returns the statement builder for driver.
func Builder(driver string) sq.StatementBuilderType {
	if driver == DriverPostgres {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

var schema = map[string][]string{
	DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS actors (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			date_of_birth DATE NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS movies (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			creation_date DATE NOT NULL,
			actor_id INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_movies_actor_id ON movies (actor_id);`,
	},
	DriverPostgres: {
		`CREATE TABLE IF NOT EXISTS actors (
			id BIGSERIAL PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			date_of_birth DATE NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS movies (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			creation_date DATE NOT NULL,
			actor_id BIGINT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_movies_actor_id ON movies (actor_id);`,
	},
}

// InitDB opens the database and creates the catalog tables if they are missing.
func InitDB(driver, dataSourceName string, pool PoolOptions) (*sql.DB, error) {
	stmts, ok := schema[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}

	if driver == DriverSQLite {
		// enable write-ahead logging for better concurrency
		if _, err = db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			log.Warn().Err(err).Msg("failed to set WAL mode")
		}
	}

	for _, stmt := range stmts {
		if _, err = db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create catalog schema: %w", err)
		}
	}

	log.Info().Str("driver", driver).Msg("database initialized successfully")
	return db, nil
}
