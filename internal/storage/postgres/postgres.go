// Package postgres implements the flight archive on PostgreSQL. It wraps
// the shared GORM backend; the only Postgres-specific concern is the
// connection itself.
package postgres

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fltvhs/recorder/internal/config"
	"github.com/fltvhs/recorder/internal/model"
	"github.com/fltvhs/recorder/internal/storage/gormdb"
)

// Backend archives flights in PostgreSQL.
type Backend struct {
	*gormdb.Backend
	cfg config.PostgresConfig
}

// New creates a Postgres backend. The connection is opened on Init.
func New(cfg config.PostgresConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init connects, validates the connection, and migrates the schema.
func (b *Backend) Init() error {
	dsn := fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		b.cfg.Host,
		b.cfg.Port,
		b.cfg.Username,
		b.cfg.Password,
		b.cfg.Database,
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        10000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("accessing sql interface: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("validating connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)

	b.Backend = gormdb.New(db)
	return b.Backend.Init()
}

// SaveFlight archives one flight.
func (b *Backend) SaveFlight(a *model.Archive) error {
	if b.Backend == nil {
		return fmt.Errorf("postgres backend not initialized")
	}
	return b.Backend.SaveFlight(a)
}

// Close closes the connection if it was opened.
func (b *Backend) Close() error {
	if b.Backend == nil {
		return nil
	}
	return b.Backend.Close()
}
