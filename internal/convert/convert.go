// Package convert runs the flt-to-vhs pipeline: parse recordings, merge
// continuations, write playback files, and archive the results.
package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fltvhs/recorder/internal/config"
	"github.com/fltvhs/recorder/internal/flight"
	"github.com/fltvhs/recorder/internal/geo"
	"github.com/fltvhs/recorder/internal/influx"
	"github.com/fltvhs/recorder/internal/logging"
	"github.com/fltvhs/recorder/internal/model"
	"github.com/fltvhs/recorder/internal/storage"
	"github.com/fltvhs/recorder/internal/vhs"
)

// parseWorkers bounds concurrent file parsing.
const parseWorkers = 4

// Result describes what happened to one output flight.
type Result struct {
	// SourceFiles are the .flt files folded into this flight, in order.
	SourceFiles []string
	// VhsPath is the playback file written, empty when skipped.
	VhsPath   string
	Corrupted bool
	Merged    int
	// Duration is the recorded play time in seconds.
	Duration float32
	Err      error
}

// Converter drives the pipeline. Storage and stats are optional; a nil
// backend just skips archiving.
type Converter struct {
	logger      *slog.Logger
	parser      *flight.Parser
	theater     geo.Theater
	theaterName string
	cfg         config.ConvertConfig

	store storage.Backend
	stats *influx.Manager

	// current is the recording being written, stamped onto every log
	// record while a flight is finished.
	current atomic.Value
}

// New creates a converter.
func New(logger *slog.Logger, theaterName string, theater geo.Theater, cfg config.ConvertConfig, store storage.Backend, stats *influx.Manager) *Converter {
	c := &Converter{
		theater:     theater,
		theaterName: theaterName,
		cfg:         cfg,
		store:       store,
		stats:       stats,
	}
	c.logger = slog.New(logging.NewContextHandler(logger.Handler(), c.contextAttrs))
	c.parser = flight.NewParser(c.logger)
	return c
}

func (c *Converter) contextAttrs() []slog.Attr {
	if name, ok := c.current.Load().(string); ok && name != "" {
		return []slog.Attr{slog.String("recording", name)}
	}
	return nil
}

// ConvertAll processes the given recordings. Files are parsed
// concurrently, then merged in name order so continuations of an
// interrupted flight end up in one playback file.
func (c *Converter) ConvertAll(ctx context.Context, fltPaths []string) ([]Result, error) {
	if len(fltPaths) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(c.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	paths := append([]string(nil), fltPaths...)
	sort.Strings(paths)

	flights, parseErrs := c.parseAll(paths)

	var results []Result
	for i := 0; i < len(paths); i++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if parseErrs[i] != nil {
			results = append(results, Result{
				SourceFiles: []string{paths[i]},
				Err:         parseErrs[i],
			})
			continue
		}

		f := flights[i]
		sources := []string{paths[i]}
		merged := 0

		if c.cfg.Merge {
			for i+1 < len(paths) && parseErrs[i+1] == nil && f.CanMerge(flights[i+1]) {
				i++
				f.Merge(flights[i])
				sources = append(sources, paths[i])
				merged++
			}
		}

		results = append(results, c.finish(ctx, f, sources, merged))
	}
	return results, nil
}

// parseAll reads and parses every file through a small worker pool.
func (c *Converter) parseAll(paths []string) ([]*flight.Flight, []error) {
	flights := make([]*flight.Flight, len(paths))
	errs := make([]error, len(paths))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < parseWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				buf, err := os.ReadFile(paths[i])
				if err != nil {
					errs[i] = fmt.Errorf("reading recording: %w", err)
					continue
				}
				flights[i] = c.parser.Parse(buf)
			}
		}()
	}
	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return flights, errs
}

func (c *Converter) finish(ctx context.Context, f *flight.Flight, sources []string, merged int) Result {
	c.current.Store(filepath.Base(sources[0]))
	defer c.current.Store("")

	res := Result{
		SourceFiles: sources,
		Corrupted:   f.Corrupted,
		Merged:      merged,
		Duration:    f.Duration(),
	}
	start := time.Now()

	if f.Corrupted && !c.cfg.AllowPartial {
		res.Err = fmt.Errorf("recording %s is corrupt and partial output is disabled", sources[0])
		return res
	}

	vhsPath := c.vhsPath(sources[0])
	out, err := os.Create(vhsPath)
	if err != nil {
		res.Err = fmt.Errorf("creating playback file: %w", err)
		return res
	}
	if err := vhs.Write(f, out); err != nil {
		out.Close()
		os.Remove(vhsPath)
		res.Err = err
		return res
	}
	if err := out.Close(); err != nil {
		res.Err = fmt.Errorf("closing playback file: %w", err)
		return res
	}
	res.VhsPath = vhsPath

	c.logger.Info("converted recording",
		"vhs", vhsPath,
		"sources", len(sources),
		"entities", len(f.Entities),
		"positions", f.PositionCount(),
		"corrupted", f.Corrupted,
	)

	if c.store != nil {
		archive, err := model.FromFlight(filepath.Base(sources[0]), c.theaterName, c.theater, f)
		if err != nil {
			res.Err = err
			return res
		}
		if err := c.store.SaveFlight(archive); err != nil {
			res.Err = fmt.Errorf("archiving flight: %w", err)
			return res
		}
	}

	if c.stats != nil {
		point := influx.ConversionPoint(influx.ConversionStats{
			FileName:      filepath.Base(sources[0]),
			Theater:       c.theaterName,
			Corrupted:     f.Corrupted,
			Merged:        merged,
			Entities:      len(f.Entities),
			Features:      len(f.Features),
			Positions:     f.PositionCount(),
			DurationSec:   f.Duration(),
			ConvertMillis: time.Since(start).Milliseconds(),
		})
		if err := c.stats.WritePoint(ctx, point); err != nil {
			c.logger.Warn("failed to report conversion stats", "error", err)
		}
	}

	if !c.cfg.KeepFlt {
		for _, src := range sources {
			if err := os.Remove(src); err != nil {
				c.logger.Warn("failed to remove source recording",
					"path", src, "error", err)
			}
		}
	}

	return res
}

func (c *Converter) vhsPath(fltPath string) string {
	base := filepath.Base(fltPath)
	base = strings.TrimSuffix(base, filepath.Ext(base)) + ".vhs"
	return filepath.Join(c.cfg.OutputDir, base)
}
