// Package logger provides verbose logging for the kicad-lcsc CLI.
// When verbose mode is enabled via the --verbose flag, debug messages
// are printed to stderr to help users follow fetches, retries and
// library writes.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu      sync.RWMutex
	verbose bool
	sink    = zapcore.Lock(zapcore.AddSync(os.Stderr))
	sugar   = build(sink, false)
)

// build creates a console logger that writes "[LEVEL] message" lines.
// When verbose is false every level is suppressed.
func build(w zapcore.WriteSyncer, v bool) *zap.SugaredLogger {
	level := zap.NewAtomicLevelAt(zapcore.FatalLevel)
	if v {
		level.SetLevel(zapcore.DebugLevel)
	}
	enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey:       "msg",
		LevelKey:         "level",
		LineEnding:       zapcore.DefaultLineEnding,
		ConsoleSeparator: " ",
		EncodeLevel: func(l zapcore.Level, pae zapcore.PrimitiveArrayEncoder) {
			pae.AppendString("[" + l.CapitalString() + "]")
		},
		EncodeDuration: zapcore.StringDurationEncoder,
	})
	core := zapcore.NewCore(enc, w, level)
	return zap.New(core).Sugar()
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	sugar = build(sink, v)
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for verbose logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	sink = zapcore.Lock(zapcore.AddSync(w))
	sugar = build(sink, verbose)
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	current().Debugf(format, args...)
}

// Debugw prints a message with structured key/value pairs if verbose mode is enabled.
func Debugw(msg string, keysAndValues ...any) {
	current().Debugw(msg, keysAndValues...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		_, _ = fmt.Fprintf(sink, "\n=== %s ===\n", name)
	}
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	current().Infof(format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	current().Warnf(format, args...)
}

// Warnw prints a warning with structured key/value pairs if verbose mode is enabled.
func Warnw(msg string, keysAndValues ...any) {
	current().Warnw(msg, keysAndValues...)
}
