// Package sqlite provides a SQLite-backed revision storage driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	_ "github.com/mattn/go-sqlite3"

	entdriver "github.com/papercomputeco/uidsl/pkg/storage/ent/driver"
)

// Driver implements storage.Driver using SQLite.
type Driver struct {
	*entdriver.EntDriver
}

// NewDriver creates a new SQLite-backed driver.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewDriver(ctx context.Context, dbPath string) (*Driver, error) {
	// Open the database using the github.com/mattn/go-sqlite3 driver (registered as "sqlite3")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// An in-memory database lives and dies with its connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	ed, err := entdriver.New(db, dialect.SQLite)
	if err != nil {
		db.Close()
		return nil, err
	}

	if err := ed.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return &Driver{EntDriver: ed}, nil
}
