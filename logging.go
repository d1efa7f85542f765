package cimcore

import (
	"fmt"
	"log/slog"
)

// Logger is an optional interface for debug logging.
// If not set, no logging is performed.
type Logger interface {
	// Printf formats and logs a debug message.
	Printf(format string, v ...interface{})
}

// logSink fans a debug message out to whichever logger is configured.
type logSink struct {
	logger     Logger
	slogLogger *slog.Logger
}

func (s logSink) logf(format string, v ...interface{}) {
	if s.logger != nil {
		s.logger.Printf(format, v...)
	}
	if s.slogLogger != nil {
		s.slogLogger.Debug(fmt.Sprintf(format, v...))
	}
}
