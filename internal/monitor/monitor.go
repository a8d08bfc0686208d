// Package monitor periodically snapshots recorder health to a status file
// so operators can watch a live recording without attaching a debugger.
package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// QueueStats is anything that can report recording backlog.
type QueueStats interface {
	QueueLen() int
	DroppedCount() uint64
}

// Status is one point-in-time snapshot of the recorder.
type Status struct {
	Time         time.Time `json:"time"`
	QueueLength  int       `json:"queueLength"`
	DroppedTotal uint64    `json:"droppedTotal"`
}

// Dependencies holds everything the monitor service needs.
type Dependencies struct {
	Logger    *slog.Logger
	Stats     QueueStats
	StatusDir string
	Interval  time.Duration
}

// Service manages status monitoring.
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service. A zero interval defaults to
// one second.
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = time.Second
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running.
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Snapshot returns the current recorder status.
func (s *Service) Snapshot() Status {
	return Status{
		Time:         time.Now(),
		QueueLength:  s.deps.Stats.QueueLen(),
		DroppedTotal: s.deps.Stats.DroppedCount(),
	}
}

// StatusFilePath returns where snapshots are written.
func (s *Service) StatusFilePath() string {
	return filepath.Join(s.deps.StatusDir, "status.json")
}

// Start starts the status monitor goroutine.
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	s.mu.Unlock()

	if err := os.MkdirAll(s.deps.StatusDir, 0o755); err != nil {
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return fmt.Errorf("creating status dir: %w", err)
	}

	go func() {
		defer close(s.done)
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		s.deps.Logger.Debug("starting status monitor", "path", s.StatusFilePath())

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopChan:
				return
			case <-ticker.C:
				if err := s.writeStatus(); err != nil {
					s.deps.Logger.Error("failed to write status file", "error", err)
				}
			}
		}
	}()

	return nil
}

// writeStatus replaces the status file atomically so readers never see a
// half-written snapshot.
func (s *Service) writeStatus() error {
	snap := s.Snapshot()
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.StatusFilePath() + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.StatusFilePath())
}

// Stop stops the status monitor and waits for the goroutine to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()

	<-done
}
