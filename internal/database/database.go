// Package database persists pipeline outputs (run metadata, elbow curves,
// cluster profiles) so past analyses can be listed and browsed. Fitted models
// are never stored.
package database

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Connection settings applied to every open. WAL keeps the serve command
// readable while an analyze run is writing; the busy timeout covers the
// same overlap on the write side.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA foreign_keys=ON",
}

// DB is the run store backing the analyze, runs, and serve commands.
type DB struct {
	conn *sql.DB
	path string
}

// Open opens (creating if needed) the run store at dbPath and brings its
// schema up to date. The parent directory must already exist.
func Open(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening run store: %w", err)
	}

	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}

	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &DB{conn: conn, path: dbPath}, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Path returns the run store file path.
func (db *DB) Path() string {
	return db.path
}
