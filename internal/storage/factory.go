package storage

import (
	"fmt"

	"github.com/fltvhs/recorder/internal/config"
	"github.com/fltvhs/recorder/internal/storage/memory"
	"github.com/fltvhs/recorder/internal/storage/postgres"
	"github.com/fltvhs/recorder/internal/storage/sqlite"
)

// NewBackend creates a storage backend based on configuration.
func NewBackend(cfg config.StorageConfig) (Backend, error) {
	switch cfg.Type {
	case "postgres":
		return postgres.New(cfg.Postgres), nil
	case "sqlite":
		return sqlite.New(cfg.SQLite), nil
	case "memory":
		return memory.New(cfg.Memory), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
