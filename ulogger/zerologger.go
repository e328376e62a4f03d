package ulogger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// ZLoggerWrapper is the default Logger implementation: zerolog under a
// colorized console writer when stdout is a terminal, plain JSON otherwise.
type ZLoggerWrapper struct {
	zerolog.Logger
	service string
	w       io.Writer
}

// NewZeroLogger constructs a ZLoggerWrapper for service.
func NewZeroLogger(service string, options ...Option) *ZLoggerWrapper {
	if service == "" {
		service = "utxoledger"
	}

	opts := DefaultOptions()
	for _, o := range options {
		o(opts)
	}

	if opts.writer == nil {
		opts.writer = os.Stdout
	}

	var z *ZLoggerWrapper
	if isTerminal(opts.writer) {
		z = prettyZeroLogger(opts.writer, service)
	} else {
		z = &ZLoggerWrapper{
			zerolog.New(opts.writer).With().
				CallerWithSkipFrameCount(zerolog.CallerSkipFrameCount + opts.skipFrame + 2).
				Timestamp().
				Logger(),
			service,
			opts.writer,
		}
	}

	z.SetLogLevel(opts.logLevel)

	return z
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}

func prettyZeroLogger(writer io.Writer, service string) *ZLoggerWrapper {
	noColor := !isTerminal(writer) || os.Getenv("NO_COLOR") != ""

	output := zerolog.ConsoleWriter{
		Out:        writer,
		NoColor:    noColor,
		TimeFormat: time.RFC3339,
	}

	output.FormatTimestamp = func(i interface{}) string {
		parsed, _ := time.Parse(time.RFC3339, fmt.Sprintf("%s", i))
		return parsed.Format("15:04:05")
	}

	output.FormatLevel = func(i interface{}) string {
		l := strings.ToUpper(fmt.Sprintf("%-6s", i))

		switch i {
		case "debug":
			l = colorize(l, colorBlue, noColor)
		case "info":
			l = colorize(l, colorGreen, noColor)
		case "warn":
			l = colorize(l, colorYellow, noColor)
		case "error", "fatal", "panic":
			l = colorize(l, colorRed, noColor)
		default:
			l = colorize(l, colorWhite, noColor)
		}

		return fmt.Sprintf("| %s|", l)
	}

	output.FormatMessage = func(i interface{}) string {
		return fmt.Sprintf("| %-6s| %s", service, i)
	}

	output.FormatFieldName = func(i interface{}) string {
		return fmt.Sprintf("%s:", i)
	}

	output.FormatFieldValue = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("%s", i))
	}

	output.FormatCaller = func(i interface{}) string {
		c, _ := i.(string)
		if c == "" {
			return c
		}

		if cwd, err := os.Getwd(); err == nil {
			if rel, err := filepath.Rel(cwd, c); err == nil {
				c = rel
			}
		}

		split := strings.Split(c, "/")
		current := len(split) - 1
		c = split[current]
		current--

		for current >= 0 {
			if len(c)+len(split[current])+1 > 32 {
				break
			}

			c = split[current] + "/" + c
			current--
		}

		return colorize(fmt.Sprintf("%-32s", c), colorBold, noColor)
	}

	return &ZLoggerWrapper{
		zerolog.New(output).With().
			CallerWithSkipFrameCount(zerolog.CallerSkipFrameCount + 1).
			Timestamp().
			Logger(),
		service,
		writer,
	}
}

// New derives a child logger that inherits its parent's writer and level
// unless overridden by options.
func (z *ZLoggerWrapper) New(service string, options ...Option) Logger {
	opts := DefaultOptions()
	opts.writer = z.w
	opts.logLevel = z.Logger.GetLevel().String()

	for _, o := range options {
		o(opts)
	}

	return NewZeroLogger(service, WithWriter(opts.writer), WithLevel(opts.logLevel))
}

func (z *ZLoggerWrapper) SetLogLevel(logLevel string) {
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		z.Logger = z.Logger.Level(zerolog.DebugLevel)
	case "INFO":
		z.Logger = z.Logger.Level(zerolog.InfoLevel)
	case "WARN", "WARNING":
		z.Logger = z.Logger.Level(zerolog.WarnLevel)
	case "ERROR":
		z.Logger = z.Logger.Level(zerolog.ErrorLevel)
	case "FATAL":
		z.Logger = z.Logger.Level(zerolog.FatalLevel)
	default:
		z.Logger = z.Logger.Level(zerolog.InfoLevel)
	}
}

func (z *ZLoggerWrapper) LogLevel() int {
	return levelToInt(z.Logger.GetLevel().String())
}

func (z *ZLoggerWrapper) Debugf(format string, args ...interface{}) {
	z.Logger.Debug().Msgf(format, args...)
}

func (z *ZLoggerWrapper) Infof(format string, args ...interface{}) {
	z.Logger.Info().Msgf(format, args...)
}

func (z *ZLoggerWrapper) Warnf(format string, args ...interface{}) {
	z.Logger.Warn().Msgf(format, args...)
}

func (z *ZLoggerWrapper) Errorf(format string, args ...interface{}) {
	z.Logger.Error().Msgf(format, args...)
}

func (z *ZLoggerWrapper) Fatalf(format string, args ...interface{}) {
	z.Logger.Fatal().Msgf(format, args...)
}

// Output duplicates the logger with w as its output.
func (z *ZLoggerWrapper) Output(w io.Writer) *ZLoggerWrapper {
	return &ZLoggerWrapper{z.Logger.Output(w), z.service, w}
}

// With creates a child logger context.
func (z *ZLoggerWrapper) With() zerolog.Context {
	return z.Logger.With()
}

func (z *ZLoggerWrapper) UpdateContext(update func(c zerolog.Context) zerolog.Context) {
	z.Logger.UpdateContext(update)
}

func (z *ZLoggerWrapper) Level(lvl zerolog.Level) zerolog.Logger {
	return z.Logger.Level(lvl)
}

func (z *ZLoggerWrapper) GetLevel() zerolog.Level {
	return z.Logger.GetLevel()
}

func (z *ZLoggerWrapper) Sample(s zerolog.Sampler) zerolog.Logger {
	return z.Logger.Sample(s)
}

func (z *ZLoggerWrapper) Hook(h zerolog.Hook) zerolog.Logger {
	return z.Logger.Hook(h)
}

func (z *ZLoggerWrapper) Trace() *zerolog.Event {
	return z.Logger.Trace()
}

func (z *ZLoggerWrapper) Debug() *zerolog.Event {
	return z.Logger.Debug()
}

func (z *ZLoggerWrapper) Info() *zerolog.Event {
	return z.Logger.Info()
}

func (z *ZLoggerWrapper) Warn() *zerolog.Event {
	return z.Logger.Warn()
}

func (z *ZLoggerWrapper) Error() *zerolog.Event {
	return z.Logger.Error()
}

func (z *ZLoggerWrapper) Err(err error) *zerolog.Event {
	return z.Logger.Err(err)
}

func (z *ZLoggerWrapper) Fatal() *zerolog.Event {
	return z.Logger.Fatal()
}

func (z *ZLoggerWrapper) Panic() *zerolog.Event {
	return z.Logger.Panic()
}

func (z *ZLoggerWrapper) WithLevel(level zerolog.Level) *zerolog.Event {
	return z.Logger.WithLevel(level)
}

func (z *ZLoggerWrapper) Log() *zerolog.Event {
	return z.Logger.Log()
}

func (z *ZLoggerWrapper) Print(v ...interface{}) {
	z.Logger.Print(v...)
}

func (z *ZLoggerWrapper) Printf(format string, v ...interface{}) {
	z.Logger.Printf(format, v...)
}

// Write implements io.Writer so this logger can back the standard library's
// log package for third-party code that expects one.
func (z *ZLoggerWrapper) Write(p []byte) (n int, err error) {
	return z.Logger.Write(p)
}

// colorize wraps s in ANSI code c, unless disabled is true, NO_COLOR is set
// or c is 0.
func colorize(s interface{}, c int, disabled bool) string {
	if os.Getenv("NO_COLOR") != "" || c == 0 {
		disabled = true
	}

	if disabled {
		return fmt.Sprintf("%s", s)
	}

	return fmt.Sprintf("\x1b[%dm%v\x1b[0m", c, s)
}
