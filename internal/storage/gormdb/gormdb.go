// Package gormdb implements the flight archive on any GORM dialect. The
// sqlite and postgres backends wrap it; the only driver-specific concern
// they keep is opening the connection.
package gormdb

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/fltvhs/recorder/internal/model"
)

// Backend archives flights through a GORM connection.
type Backend struct {
	db *gorm.DB
}

// New wraps an open GORM connection.
func New(db *gorm.DB) *Backend {
	return &Backend{db: db}
}

// Init migrates the schema.
func (b *Backend) Init() error {
	if err := b.db.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (b *Backend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return fmt.Errorf("accessing sql interface: %w", err)
	}
	return sqlDB.Close()
}

// SaveFlight writes the recording and its child rows in one transaction.
func (b *Backend) SaveFlight(a *model.Archive) error {
	return b.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&a.Recording).Error; err != nil {
			return fmt.Errorf("creating recording row: %w", err)
		}
		for i := range a.Entities {
			a.Entities[i].RecordingID = a.Recording.ID
		}
		for i := range a.Features {
			a.Features[i].RecordingID = a.Recording.ID
		}
		for i := range a.GeneralEvents {
			a.GeneralEvents[i].RecordingID = a.Recording.ID
		}

		if len(a.Entities) > 0 {
			if err := tx.Create(&a.Entities).Error; err != nil {
				return fmt.Errorf("creating entity rows: %w", err)
			}
		}
		if len(a.Features) > 0 {
			if err := tx.Create(&a.Features).Error; err != nil {
				return fmt.Errorf("creating feature rows: %w", err)
			}
		}
		if len(a.GeneralEvents) > 0 {
			if err := tx.Create(&a.GeneralEvents).Error; err != nil {
				return fmt.Errorf("creating general event rows: %w", err)
			}
		}
		return nil
	})
}
