// Package logging wires slog output for the conversion tools: console
// plus a per-session log file, optionally mirrored to Graylog, with a
// burst-sampled zerolog trace logger for record-rate hot paths.
package logging

import (
	"fmt"
	"path/filepath"
	"time"
)

// LogFilePath builds a session log file path using OS-appropriate path
// separators.
func LogFilePath(logsDir, toolName string, sessionStart time.Time) string {
	return filepath.Join(
		logsDir,
		fmt.Sprintf("%s.%s.log", toolName, sessionStart.Format("20060102_150405")),
	)
}
