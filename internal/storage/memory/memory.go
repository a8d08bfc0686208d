// Package memory archives flights in memory and exports them as JSON
// files on Close, for setups without a database.
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fltvhs/recorder/internal/config"
	"github.com/fltvhs/recorder/internal/model"
)

// Backend stores archives in memory and exports to JSON.
type Backend struct {
	cfg config.MemoryConfig

	mu       sync.Mutex
	archives []*model.Archive
	exported []string
	nextID   uint
}

// New creates a memory backend.
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init creates the output directory.
func (b *Backend) Init() error {
	if err := os.MkdirAll(b.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	return nil
}

// SaveFlight keeps the archive for export and assigns recording IDs.
func (b *Backend) SaveFlight(a *model.Archive) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	a.Recording.ID = b.nextID
	for i := range a.Entities {
		a.Entities[i].RecordingID = a.Recording.ID
	}
	for i := range a.Features {
		a.Features[i].RecordingID = a.Recording.ID
	}
	for i := range a.GeneralEvents {
		a.GeneralEvents[i].RecordingID = a.Recording.ID
	}
	b.archives = append(b.archives, a)
	return nil
}

// Close exports every saved flight as a JSON file.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, a := range b.archives {
		path, err := b.export(a)
		if err != nil {
			return err
		}
		b.exported = append(b.exported, path)
	}
	b.archives = nil
	return nil
}

// GetExportedFilePaths returns the JSON files written by Close.
func (b *Backend) GetExportedFilePaths() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.exported...)
}

func (b *Backend) export(a *model.Archive) (string, error) {
	name := strings.TrimSuffix(a.Recording.FileName, filepath.Ext(a.Recording.FileName))
	name += ".json"
	if b.cfg.CompressOutput {
		name += ".gz"
	}
	path := filepath.Join(b.cfg.OutputDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating export file: %w", err)
	}
	defer f.Close()

	if b.cfg.CompressOutput {
		gz := gzip.NewWriter(f)
		if err := json.NewEncoder(gz).Encode(a); err != nil {
			return "", fmt.Errorf("encoding archive: %w", err)
		}
		if err := gz.Close(); err != nil {
			return "", fmt.Errorf("closing gzip stream: %w", err)
		}
	} else {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		if err := enc.Encode(a); err != nil {
			return "", fmt.Errorf("encoding archive: %w", err)
		}
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing export file: %w", err)
	}
	return path, nil
}
