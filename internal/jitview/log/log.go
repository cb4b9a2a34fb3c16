// Package log configures the process-wide slog logger.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

var (
	initOnce    sync.Once
	initialized atomic.Bool
)

// Setup installs the default slog logger once. Later calls are no-ops.
func Setup(debugMode bool) {
	SetupWriter(os.Stderr, debugMode)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(w io.Writer, debugMode bool) {
	initOnce.Do(func() {
		level := slog.LevelInfo
		if debugMode {
			level = slog.LevelDebug
		}

		handler := slog.NewTextHandler(w, &slog.HandlerOptions{
			Level:     level,
			AddSource: debugMode,
		})

		slog.SetDefault(slog.New(handler))
		initialized.Store(true)
	})
}

func Initialized() bool {
	return initialized.Load()
}

// RecoverPanic must be deferred. It logs a panic with its stack and runs
// cleanup; the panic is not re-raised.
func RecoverPanic(name string, cleanup func()) {
	if r := recover(); r != nil {
		if Initialized() {
			slog.Error(fmt.Sprintf("Panic in %s", name),
				"panic", r,
				"stack", string(debug.Stack()))
		} else {
			fmt.Fprintf(os.Stderr, "panic in %s: %v\n%s", name, r, debug.Stack())
		}
		if cleanup != nil {
			cleanup()
		}
	}
}
