package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Field keys whose values are phone numbers. They are masked before output.
var phoneFields = map[string]struct{}{
	"phone":      {},
	"user_phone": {},
}

// Logger wraps zerolog.Logger with map-based structured fields.
type Logger struct {
	zlog zerolog.Logger
}

// New creates a Logger writing to stdout.
// Development uses colored console output at debug level; any other
// environment emits JSON at info level.
func New(env string) *Logger {
	return NewWithWriter(env, os.Stdout)
}

// NewWithWriter creates a Logger writing to out. The CLI passes stderr so
// command output on stdout stays machine readable.
func NewWithWriter(env string, out io.Writer) *Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	level := zerolog.InfoLevel
	if env == "development" {
		level = zerolog.DebugLevel
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	zlog := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "agro-api").
		Logger()

	return &Logger{zlog: zlog}
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// Debug logs a debug message with optional fields.
func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	emit(l.zlog.Debug(), msg, fields)
}

// Info logs an info message with optional fields.
func (l *Logger) Info(msg string, fields map[string]interface{}) {
	emit(l.zlog.Info(), msg, fields)
}

// Warn logs a warning message with optional fields.
func (l *Logger) Warn(msg string, fields map[string]interface{}) {
	emit(l.zlog.Warn(), msg, fields)
}

// Error logs an error message with an error and optional fields.
func (l *Logger) Error(msg string, err error, fields map[string]interface{}) {
	emit(l.zlog.Error().Err(err), msg, fields)
}

// Fatal logs a fatal message and exits the application.
func (l *Logger) Fatal(msg string, err error, fields map[string]interface{}) {
	emit(l.zlog.Fatal().Err(err), msg, fields)
}

// With creates a child logger carrying the given fields on every entry.
func (l *Logger) With(fields map[string]interface{}) *Logger {
	ctx := l.zlog.With()
	for key, value := range fields {
		ctx = ctx.Interface(key, maskField(key, value))
	}
	return &Logger{zlog: ctx.Logger()}
}

// WithRequestID creates a child logger with a request ID field.
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		zlog: l.zlog.With().Str("request_id", requestID).Logger(),
	}
}

// WithComponent creates a child logger tagged with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{
		zlog: l.zlog.With().Str("component", name).Logger(),
	}
}

// GetZerolog returns the underlying zerolog.Logger for advanced usage.
func (l *Logger) GetZerolog() *zerolog.Logger {
	return &l.zlog
}

func emit(event *zerolog.Event, msg string, fields map[string]interface{}) {
	for key, value := range fields {
		event = event.Interface(key, maskField(key, value))
	}
	event.Msg(msg)
}

func maskField(key string, value interface{}) interface{} {
	if _, ok := phoneFields[key]; !ok {
		return value
	}
	s, ok := value.(string)
	if !ok {
		return value
	}
	return MaskPhone(s)
}

// MaskPhone keeps only the last four characters of a phone number.
func MaskPhone(phone string) string {
	runes := []rune(phone)
	if len(runes) <= 4 {
		return "****"
	}
	masked := make([]rune, len(runes))
	for i, r := range runes {
		if i < len(runes)-4 && r >= '0' && r <= '9' {
			masked[i] = '*'
		} else {
			masked[i] = r
		}
	}
	return string(masked)
}
