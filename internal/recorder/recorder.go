// Package recorder writes ACMI records to a recording sink while the
// simulation runs. Producers encode and enqueue on their own goroutines;
// a single flusher drains batches to the sink so the sim loop never
// blocks on disk.
package recorder

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/fltvhs/recorder/internal/queue"
	"github.com/fltvhs/recorder/pkg/acmi"
)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Config tunes the recorder. Zero values get sensible defaults.
type Config struct {
	// QueueSize caps the staging queue; records beyond it are dropped.
	QueueSize int
	// FlushInterval is how often the flusher drains the queue.
	FlushInterval time.Duration
}

const (
	defaultQueueSize     = 4096
	defaultFlushInterval = 2 * time.Second
)

// Recorder encodes records into a bounded queue and flushes them to the
// sink in the background. Safe for concurrent use.
type Recorder struct {
	sink   io.Writer
	queue  *queue.Queue[[]byte]
	logger Logger

	encoded metric.Int64Counter
	dropped metric.Int64Counter
	written metric.Int64Counter

	flushInterval time.Duration

	mu       sync.Mutex
	writeErr error

	stop chan struct{}
	done chan struct{}
}

// New creates a recorder writing to sink and starts the flush goroutine.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(sink io.Writer, logger Logger, cfg Config) (*Recorder, error) {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = defaultFlushInterval
	}

	r := &Recorder{
		sink:          sink,
		queue:         queue.New[[]byte](cfg.QueueSize),
		logger:        logger,
		flushInterval: cfg.FlushInterval,
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}

	m := meter()
	var err error

	r.encoded, err = m.Int64Counter(
		"recorder.records.encoded",
		metric.WithDescription("Total records encoded and queued"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating encoded counter: %w", err)
	}

	r.dropped, err = m.Int64Counter(
		"recorder.records.dropped",
		metric.WithDescription("Total records dropped due to full queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	r.written, err = m.Int64Counter(
		"recorder.bytes.written",
		metric.WithDescription("Total bytes flushed to the recording sink"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating written counter: %w", err)
	}

	go r.flushLoop()

	return r, nil
}

// Record encodes the payload with its timestamp and queues it for the
// flusher. Encoding happens here so the caller may reuse the payload.
// A full queue drops the record and is reported through metrics, not an
// error; only malformed payloads fail.
func (r *Recorder) Record(p acmi.Payload, at float32) error {
	buf, err := acmi.Encode(p, at)
	if err != nil {
		return fmt.Errorf("encoding %s record: %w", p.Tag(), err)
	}

	ctx := context.Background()
	if n := r.queue.Push(buf); n > 0 {
		r.dropped.Add(ctx, int64(n))
		r.logger.Error("record dropped, queue full",
			"tag", p.Tag().String(), "totalDropped", r.queue.Dropped())
		return nil
	}
	r.encoded.Add(ctx, 1)
	return nil
}

// TimeOfDay records the time-of-day offset marker.
func (r *Recorder) TimeOfDay(secondsPastMidnight float32) error {
	return r.Record(acmi.TodOffset{}, secondsPastMidnight)
}

// WriteCallsigns records the callsign list, indexed by UID. Call it once
// at the end of a recording, when every entity and feature is known.
func (r *Recorder) WriteCallsigns(at float32, callsigns []acmi.Callsign) error {
	return r.Record(acmi.CallsignList{Callsigns: callsigns}, at)
}

// QueueLen returns the number of records waiting to be flushed.
func (r *Recorder) QueueLen() int {
	return r.queue.Len()
}

// DroppedCount returns how many records the bounded queue has discarded.
func (r *Recorder) DroppedCount() uint64 {
	return r.queue.Dropped()
}

func (r *Recorder) flushLoop() {
	defer close(r.done)
	ticker := time.NewTicker(r.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.flush()
		case <-r.stop:
			r.flush()
			return
		}
	}
}

// flush drains the queue and writes every buffered record to the sink.
// The first write error is kept and surfaced by Close; later records are
// discarded since the recording is broken past that point anyway.
func (r *Recorder) flush() {
	batch := r.queue.Drain()
	if len(batch) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writeErr != nil {
		return
	}

	var bytes int64
	for _, rec := range batch {
		n, err := r.sink.Write(rec)
		bytes += int64(n)
		if err != nil {
			r.writeErr = fmt.Errorf("writing recording: %w", err)
			r.logger.Error("recording write failed", "error", err)
			break
		}
	}
	r.written.Add(context.Background(), bytes)
}

// Close stops the flusher, drains whatever is queued, and reports the
// first write error encountered. The recorder is unusable afterwards.
func (r *Recorder) Close(ctx context.Context) error {
	close(r.stop)
	select {
	case <-r.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writeErr
}
