// Package storage defines where converted flights are archived.
package storage

import "github.com/fltvhs/recorder/internal/model"

// Backend is the interface all storage implementations must satisfy.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// SaveFlight archives one converted flight. The recording row gets
	// its ID assigned; child rows are linked to it.
	SaveFlight(a *model.Archive) error
}

// Uploadable is an optional interface for backends that produce files
// suitable for upload to a replay frontend.
type Uploadable interface {
	GetExportedFilePaths() []string
}
