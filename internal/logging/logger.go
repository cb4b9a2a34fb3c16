// Package logging provides the diagnostics logger used while reading dumps.
// Records go to stderr unless a log file is configured.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// Options controls where and how much is logged.
type Options struct {
	Debug  bool   // force debug level
	File   string // append to this file instead of stderr
	Prefix string
}

// LoggerCloser wraps a logger and provides a Close method for cleanup
type LoggerCloser struct {
	*log.Logger
	closer io.Closer
}

// Close closes the underlying writer if it's closeable
func (lc *LoggerCloser) Close() error {
	if lc.closer != nil {
		return lc.closer.Close()
	}
	return nil
}

// ParseLevel maps a level name to a log level, defaulting to info.
func ParseLevel(name string) log.Level {
	switch name {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// NewLoggerWithWriter creates a logger writing to w.
// JITVIEW_LOG_LEVEL and JITVIEW_LOG_PREFIX override the defaults.
func NewLoggerWithWriter(w io.Writer, opts Options) *LoggerCloser {
	lg := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})

	lg.SetLevel(ParseLevel(os.Getenv("JITVIEW_LOG_LEVEL")))
	if opts.Debug {
		lg.SetLevel(log.DebugLevel)
	}

	prefix := opts.Prefix
	if env := os.Getenv("JITVIEW_LOG_PREFIX"); env != "" {
		prefix = env
	}
	if prefix == "" {
		prefix = "jitview "
	}

	var closer io.Closer
	if c, ok := w.(io.Closer); ok && w != os.Stderr {
		closer = c
	}

	return &LoggerCloser{
		Logger: lg.WithPrefix(prefix),
		closer: closer,
	}
}

// NewLogger opens the configured destination. JITVIEW_LOG_TO_FILE=1 picks a
// timestamped file in the working directory when no file is configured.
// If the file cannot be opened, stderr is used.
func NewLogger(opts Options) *LoggerCloser {
	path := opts.File
	if path == "" && os.Getenv("JITVIEW_LOG_TO_FILE") == "1" {
		path = fmt.Sprintf("jitview-%s-debug.log", time.Now().Format("20060102-150405"))
	}

	output := io.Writer(os.Stderr)
	if path != "" {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err == nil {
			output = f
		}
	}

	return NewLoggerWithWriter(output, opts)
}
