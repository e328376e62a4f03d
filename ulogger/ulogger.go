// Package ulogger provides the ledger's logging interface and its
// implementations: a colorized zerolog console/JSON logger, and a
// rotating-file logger for long-running daemons. Constructed with
// New(service, options...); no gocore-backed logger variant or Sentry
// wiring, since this service reports to neither.
package ulogger

const (
	colorBlack = iota + 30
	colorRed
	colorGreen
	colorYellow
	colorBlue
	colorMagenta
	colorCyan
	colorWhite

	colorBold     = 1
	colorDarkGray = 90
)

// Logger is the logging interface every package in this module depends on,
// never a concrete *zerolog.Logger, so call sites can be tested against a
// fake and the implementation swapped per deployment.
type Logger interface {
	LogLevel() int
	SetLogLevel(level string)
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	New(service string, options ...Option) Logger
}

// New constructs a Logger. The default implementation is the zerolog-backed
// console/JSON logger; passing WithFile switches to the rotating file
// logger.
func New(service string, options ...Option) Logger {
	opts := DefaultOptions()
	for _, o := range options {
		o(opts)
	}

	if opts.filePath != "" {
		return NewFileLogger(service, options...)
	}

	return NewZeroLogger(service, options...)
}

func levelToInt(level string) int {
	switch level {
	case "debug":
		return 0
	case "info":
		return 1
	case "warn", "warning":
		return 2
	case "error":
		return 3
	case "fatal":
		return 4
	default:
		return 1
	}
}
