// Command flt2vhs converts ACMI flight recordings (.flt) into playback
// files (.vhs), optionally archiving each flight to a storage backend,
// reporting conversion stats to InfluxDB, and uploading exports to an
// archive server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fltvhs/recorder/internal/api"
	"github.com/fltvhs/recorder/internal/config"
	"github.com/fltvhs/recorder/internal/convert"
	"github.com/fltvhs/recorder/internal/geo"
	"github.com/fltvhs/recorder/internal/influx"
	"github.com/fltvhs/recorder/internal/logging"
	"github.com/fltvhs/recorder/internal/storage"
)

// Version and BuildDate can be set at build time via ldflags.
var (
	Version   string = "0.0.1"
	BuildDate string = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	configDir := flag.String("config", ".", "directory containing flt2vhs.cfg.json")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("flt2vhs %s (built %s)\n", Version, BuildDate)
		return 0
	}

	sessionStart := time.Now()

	// Defaults are registered before the file is read, so a missing config
	// file is not fatal.
	configErr := config.Load(*configDir)

	logsDir := config.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logs dir: %v\n", err)
		return 1
	}
	logFile, err := os.Create(logging.LogFilePath(logsDir, "flt2vhs", sessionStart))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log file: %v\n", err)
		return 1
	}
	defer logFile.Close()

	manager := logging.NewManager()
	if config.GetBool("graylog.enabled") {
		gw, err := logging.NewGraylogWriter(config.GetString("graylog.address"), "flt2vhs")
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to connect to Graylog: %v\n", err)
			return 1
		}
		defer gw.Close()
		manager.Setup(logFile, config.GetString("logLevel"), gw)
	} else {
		manager.Setup(logFile, config.GetString("logLevel"), nil)
	}
	logger := manager.Logger()
	logger.Info("flt2vhs starting", "version", Version, "buildDate", BuildDate)
	if configErr != nil {
		logger.Warn("no config file found, using defaults", "error", configErr)
	}

	paths := flag.Args()
	if len(paths) == 0 {
		paths, err = filepath.Glob("*.flt")
		if err != nil || len(paths) == 0 {
			logger.Error("no .flt files given or found in the working directory")
			return 1
		}
	}

	backend, err := storage.NewBackend(config.GetStorageConfig())
	if err != nil {
		logger.Error("failed to create storage backend", "error", err)
		return 1
	}
	if err := backend.Init(); err != nil {
		logger.Error("failed to initialize storage backend", "error", err)
		return 1
	}

	var stats *influx.Manager
	influxCfg := config.GetInfluxConfig()
	if influxCfg.Enabled {
		backupPath := filepath.Join(logsDir, "influx_backup.gz")
		stats = influx.NewManager(influxCfg,
			zerolog.New(os.Stderr).With().Timestamp().Logger(), backupPath)
		if err := stats.Connect(); err != nil {
			logger.Warn("influx unavailable, stats disabled", "error", err)
			stats = nil
		} else {
			defer stats.Close()
		}
	}

	theaterCfg := config.GetTheaterConfig()
	theaterName := config.GetString("theater.name")
	converter := convert.New(logger, theaterName,
		geo.Theater{OriginLat: theaterCfg.OriginLat, OriginLon: theaterCfg.OriginLon},
		config.GetConvertConfig(), backend, stats)

	results, err := converter.ConvertAll(context.Background(), paths)
	if err != nil {
		logger.Error("conversion aborted", "error", err)
		return 1
	}

	converted, failures, durations := tally(results)
	failed := len(failures)
	for _, r := range failures {
		logger.Error("conversion failed",
			"sources", r.SourceFiles, "error", r.Err)
	}

	if err := backend.Close(); err != nil {
		logger.Error("failed to close storage backend", "error", err)
		failed++
	}

	if failed == 0 {
		failed += uploadExports(logger, backend, theaterName, durations)
	}

	logger.Info("flt2vhs finished",
		"converted", converted, "failed", failed)
	if failed > 0 {
		return 1
	}
	return 0
}

// uploadExports sends files exported by the storage backend to the
// archive server, when both the backend exports and the API is enabled.
func uploadExports(logger *slog.Logger, backend storage.Backend, theater string, durations map[string]float32) int {
	apiCfg := config.GetAPIConfig()
	if !apiCfg.Enabled {
		return 0
	}
	uploadable, ok := backend.(storage.Uploadable)
	if !ok {
		return 0
	}

	client := api.New(apiCfg.ServerURL, apiCfg.APIKey)
	if err := client.Healthcheck(); err != nil {
		logger.Error("archive server unreachable", "error", err)
		return 1
	}

	failed := 0
	for _, path := range uploadable.GetExportedFilePaths() {
		name := filepath.Base(path)
		base := strings.TrimSuffix(strings.TrimSuffix(name, ".gz"), ".json")
		err := client.Upload(path, api.UploadMetadata{
			Theater:         theater,
			FileName:        name,
			DurationSeconds: durations[base],
			Tag:             apiCfg.Tag,
		})
		if err != nil {
			logger.Error("upload failed", "path", path, "error", err)
			failed++
			continue
		}
		logger.Info("uploaded recording", "path", path)
	}
	return failed
}

// tally splits conversion results into a success count and the failed
// results, and collects playback durations keyed by recording base name.
// Failures past conversion, like a storage close or upload error, never
// change the converted count.
func tally(results []convert.Result) (converted int, failures []convert.Result, durations map[string]float32) {
	durations = make(map[string]float32, len(results))
	for _, r := range results {
		if r.Err != nil {
			failures = append(failures, r)
			continue
		}
		converted++
		durations[trimExt(filepath.Base(r.VhsPath))] = r.Duration
	}
	return converted, failures, durations
}

// trimExt strips one extension, so "a.json.gz" becomes "a.json".
func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
