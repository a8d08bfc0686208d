package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// NewTraceLogger builds a zerolog logger for record-rate hot paths.
// Recorders see thousands of records per second; the sampler lets a
// burst of five entries through every ten seconds and thereafter one in
// a hundred.
func NewTraceLogger(out io.Writer) zerolog.Logger {
	base := zerolog.New(out).With().Timestamp().Logger()
	return base.Sample(&zerolog.BurstSampler{
		Burst:       5,
		Period:      10 * time.Second,
		NextSampler: &zerolog.BasicSampler{N: 100},
	})
}

// RecorderLogger adapts zerolog.Logger to the recorder.Logger interface.
type RecorderLogger struct {
	logger zerolog.Logger
}

// NewRecorderLogger wraps a zerolog.Logger.
func NewRecorderLogger(logger zerolog.Logger) *RecorderLogger {
	return &RecorderLogger{logger: logger}
}

// Debug logs a debug message with optional key-value pairs.
func (l *RecorderLogger) Debug(msg string, keysAndValues ...any) {
	l.logger.Debug().Fields(toFields(keysAndValues)).Msg(msg)
}

// Info logs an info message with optional key-value pairs.
func (l *RecorderLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Info().Fields(toFields(keysAndValues)).Msg(msg)
}

// Error logs an error message with optional key-value pairs.
func (l *RecorderLogger) Error(msg string, keysAndValues ...any) {
	l.logger.Error().Fields(toFields(keysAndValues)).Msg(msg)
}

// toFields converts key-value pairs to a map for zerolog.
func toFields(keysAndValues []any) map[string]any {
	fields := make(map[string]any, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			fields[key] = keysAndValues[i+1]
		}
	}
	return fields
}
