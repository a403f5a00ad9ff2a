package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/contabilidad-io/contabilidad/internal/config"
	_ "github.com/lib/pq" // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the sql.DB pool together with the dialect it speaks. It is
// created once in main and handed to whoever needs it; there is no
// package-level connection.
type DB struct {
	conn    *sql.DB
	dialect Dialect
}

// Open connects to the configured backend, verifies the connection and
// runs pending migrations.
func Open(cfg *config.Config) (*DB, error) {
	var (
		conn    *sql.DB
		dialect Dialect
		err     error
	)

	switch cfg.DatabaseType {
	case "postgres":
		conn, err = openPostgres(cfg)
		dialect = DialectPostgres
	case "sqlite", "":
		conn, err = openSQLite(cfg)
		dialect = DialectSQLite
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.DatabaseType)
	}
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn, dialect: dialect}
	if err := db.runMigrations(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Printf("database initialized (%s)", dialect)
	return db, nil
}

// openPostgres opens a PostgreSQL connection pool.
func openPostgres(cfg *config.Config) (*sql.DB, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost,
		cfg.DatabasePort,
		cfg.DatabaseUser,
		cfg.DatabasePassword,
		cfg.DatabaseName,
		cfg.DatabaseSSLMode,
	)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL connection: %w", err)
	}

	if cfg.DatabaseMaxConns > 0 {
		conn.SetMaxOpenConns(cfg.DatabaseMaxConns)
	}
	if cfg.DatabaseMaxIdle > 0 {
		conn.SetMaxIdleConns(cfg.DatabaseMaxIdle)
	}
	if cfg.DatabaseConnMaxLifetime != "" && cfg.DatabaseConnMaxLifetime != "0" {
		if d, err := time.ParseDuration(cfg.DatabaseConnMaxLifetime); err == nil {
			conn.SetConnMaxLifetime(d)
		}
	}

	return conn, nil
}

// openSQLite opens the embedded database, creating the data directory
// if needed.
func openSQLite(cfg *config.Config) (*sql.DB, error) {
	dataDir := filepath.Dir(cfg.DatabasePath)
	if dataDir != "." {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_foreign_keys=on", cfg.DatabasePath)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	return conn, nil
}

// Close releases the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Dialect returns the SQL dialect in use.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// nowISO is the timestamp format used for updated_at columns and reset
// token expiries; the schema stores them as ISO-8601 text on both
// backends.
func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}
