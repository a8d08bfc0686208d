// Package sqlite implements the flight archive on a file-backed SQLite
// database. It wraps the shared GORM backend; the only SQLite-specific
// concern is opening the database.
package sqlite

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fltvhs/recorder/internal/config"
	"github.com/fltvhs/recorder/internal/model"
	"github.com/fltvhs/recorder/internal/storage/gormdb"
)

// Backend archives flights in a SQLite file.
type Backend struct {
	*gormdb.Backend
	cfg config.SQLiteConfig
}

// New creates a SQLite backend. The database is opened on Init.
func New(cfg config.SQLiteConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init opens the database and migrates the schema.
func (b *Backend) Init() error {
	path := b.cfg.Path
	if path == "" {
		// In-memory database, useful for tests and dry runs.
		path = ":memory:"
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("opening sqlite database %s: %w", path, err)
	}
	b.Backend = gormdb.New(db)
	return b.Backend.Init()
}

// SaveFlight archives one flight.
func (b *Backend) SaveFlight(a *model.Archive) error {
	if b.Backend == nil {
		return fmt.Errorf("sqlite backend not initialized")
	}
	return b.Backend.SaveFlight(a)
}

// Close closes the database if it was opened.
func (b *Backend) Close() error {
	if b.Backend == nil {
		return nil
	}
	return b.Backend.Close()
}
