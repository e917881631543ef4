// Package sessiondb records session activity to sqlite: plane
// lifecycle events and object placements. The live session never
// reads it back; it exists for replay, reporting and debugging.
package sessiondb

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"

	_ "modernc.org/sqlite"
)

// The embedded migrations are the only definition of the recorder
// schema.
//
//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Migrations returns the migration source: the embedded files, or the
// contents of dir when set (dev override for trying schema changes
// without rebuilding).
func Migrations(dir string) (fs.FS, error) {
	if dir != "" {
		return os.DirFS(dir), nil
	}
	return fs.Sub(embeddedMigrations, "migrations")
}

// DB wraps the sqlite handle for the session recorder.
type DB struct {
	*sql.DB
	path string
}

// OpenDB opens (or creates) the recorder database at path without
// touching the schema; migrations manage it. Use ":memory:" for tests.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	if path == ":memory:" {
		// Every new pool connection would get its own empty in-memory
		// database; pin the pool to one connection.
		db.SetMaxOpenConns(1)
	}
	return &DB{DB: db, path: path}, nil
}

// NewDB opens the recorder database and brings its schema up to date
// from the embedded migrations.
func NewDB(path string) (*DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}

	fsys, err := Migrations("")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load embedded migrations: %w", err)
	}
	if err := db.MigrateUp(fsys); err != nil {
		db.Close()
		return nil, fmt.Errorf("create session schema: %w", err)
	}
	return db, nil
}
