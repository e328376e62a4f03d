package ulogger

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jrick/logrotate/rotator"
)

const (
	logRollMaxSizeBytes = 10 * 1024 * 1024
	logRollKeep         = 8
)

// FileLogger is a Logger whose output goes to a size-rotated file on disk
// (plain JSON, via the same zerolog machinery as ZLoggerWrapper) instead of
// the console. Wraps github.com/jrick/logrotate/rotator.Rotator as an
// io.Writer.
type FileLogger struct {
	*ZLoggerWrapper
	r *rotator.Rotator
}

// NewFileLogger constructs a FileLogger writing to the path set by
// WithFile. It falls back to stdout if no file path is given (so callers
// that build options programmatically never get a nil Logger).
func NewFileLogger(service string, options ...Option) *FileLogger {
	opts := DefaultOptions()
	for _, o := range options {
		o(opts)
	}

	if opts.filePath == "" {
		return &FileLogger{ZLoggerWrapper: NewZeroLogger(service, options...)}
	}

	dir := filepath.Dir(opts.filePath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		fmt.Fprintf(os.Stderr, "ulogger: failed to create log directory %s: %v\n", dir, err)
		return &FileLogger{ZLoggerWrapper: NewZeroLogger(service, options...)}
	}

	r, err := rotator.New(opts.filePath, logRollMaxSizeBytes, false, logRollKeep)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ulogger: failed to open log rotator at %s: %v\n", opts.filePath, err)
		return &FileLogger{ZLoggerWrapper: NewZeroLogger(service, options...)}
	}

	z := &ZLoggerWrapper{}
	*z = *NewZeroLoggerForWriter(service, r, opts.logLevel, opts.skipFrame)

	return &FileLogger{ZLoggerWrapper: z, r: r}
}

// NewZeroLoggerForWriter builds a plain (non-pretty) ZLoggerWrapper writing
// JSON lines to w, bypassing the terminal-detection NewZeroLogger performs
// (a rotator is never a terminal, but it also isn't the stdout/stderr
// *os.File isTerminal expects, so it always resolves to the plain branch
// anyway - this entry point exists to make that explicit).
func NewZeroLoggerForWriter(service string, w *rotator.Rotator, logLevel string, skipFrame int) *ZLoggerWrapper {
	return NewZeroLogger(service, WithWriter(w), WithLevel(logLevel), WithSkipFrame(skipFrame))
}

// New derives a child FileLogger sharing the same rotator.
func (f *FileLogger) New(service string, options ...Option) Logger {
	if f.r == nil {
		return f.ZLoggerWrapper.New(service, options...)
	}

	opts := DefaultOptions()
	opts.logLevel = f.Logger.GetLevel().String()

	for _, o := range options {
		o(opts)
	}

	z := NewZeroLoggerForWriter(service, f.r, opts.logLevel, 0)

	return &FileLogger{ZLoggerWrapper: z, r: f.r}
}

// Close flushes and closes the underlying rotator, if one was opened.
func (f *FileLogger) Close() error {
	if f.r == nil {
		return nil
	}

	return f.r.Close()
}
