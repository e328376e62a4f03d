package ulogger

import "io"

// Option configures a Logger constructed by New, NewZeroLogger or
// NewFileLogger.
type Option func(*Options)

// Options holds the resolved configuration for a Logger constructor.
type Options struct {
	logLevel  string
	writer    io.Writer
	filePath  string
	skipFrame int
}

// DefaultOptions returns the baseline configuration: info level, stdout,
// no file sink.
func DefaultOptions() *Options {
	return &Options{
		logLevel:  "info",
		skipFrame: 0,
	}
}

// WithLevel sets the initial log level ("debug", "info", "warn", "error",
// "fatal").
func WithLevel(level string) Option {
	return func(o *Options) { o.logLevel = level }
}

// WithWriter overrides the destination writer (defaults to stdout).
func WithWriter(w io.Writer) Option {
	return func(o *Options) { o.writer = w }
}

// WithFile routes log output to a rotating file at path instead of stdout.
func WithFile(path string) Option {
	return func(o *Options) { o.filePath = path }
}

// WithSkipFrame adjusts the caller-frame skip count used for source
// location reporting, for loggers wrapped by another layer.
func WithSkipFrame(n int) Option {
	return func(o *Options) { o.skipFrame = n }
}
