// Package logger is the diagnostic trace sink for jobrun. It is not used
// for job output: run logs go through internal/jobs.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents log severity levels.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config value such as "warn" to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value interface{}
}

// F creates a new Field.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Logger is the interface for all logger implementations.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	WithFields(fields ...Field) Logger
}

// baseLogger holds the shared writer and formats one line per entry.
// The mutex is shared by pointer so WithFields children serialize with
// their parent.
type baseLogger struct {
	writer io.Writer
	level  Level
	fields []Field
	mu     *sync.Mutex
}

func newBase(w io.Writer, level Level) baseLogger {
	return baseLogger{writer: w, level: level, mu: &sync.Mutex{}}
}

func (b *baseLogger) with(fields []Field) baseLogger {
	all := make([]Field, 0, len(b.fields)+len(fields))
	all = append(all, b.fields...)
	all = append(all, fields...)
	return baseLogger{writer: b.writer, level: b.level, fields: all, mu: b.mu}
}

func (b *baseLogger) log(level Level, msg string, fields ...Field) {
	if level < b.level {
		return
	}

	var sb strings.Builder
	for _, f := range b.fields {
		fmt.Fprintf(&sb, " %s=%v", f.Key, f.Value)
	}
	for _, f := range fields {
		fmt.Fprintf(&sb, " %s=%v", f.Key, f.Value)
	}

	timestamp := time.Now().UTC().Format(time.RFC3339)

	b.mu.Lock()
	defer b.mu.Unlock()
	fmt.Fprintf(b.writer, "[%s] %s: %s%s\n", timestamp, level.String(), msg, sb.String())
}

// StdoutLogger logs to stdout, or to any writer via NewWriterLogger.
type StdoutLogger struct {
	baseLogger
}

// NewStdoutLogger creates a logger that writes to stdout.
func NewStdoutLogger(level Level) *StdoutLogger {
	return NewWriterLogger(os.Stdout, level)
}

// NewWriterLogger creates a logger that writes to w.
func NewWriterLogger(w io.Writer, level Level) *StdoutLogger {
	return &StdoutLogger{baseLogger: newBase(w, level)}
}

func (l *StdoutLogger) Debug(msg string, fields ...Field) { l.log(LevelDebug, msg, fields...) }
func (l *StdoutLogger) Info(msg string, fields ...Field)  { l.log(LevelInfo, msg, fields...) }
func (l *StdoutLogger) Warn(msg string, fields ...Field)  { l.log(LevelWarn, msg, fields...) }
func (l *StdoutLogger) Error(msg string, fields ...Field) { l.log(LevelError, msg, fields...) }

func (l *StdoutLogger) WithFields(fields ...Field) Logger {
	return &StdoutLogger{baseLogger: l.with(fields)}
}

// FileLogger logs to a file.
type FileLogger struct {
	baseLogger
	file *os.File
}

// NewFileLogger creates a logger that appends to the file at path.
func NewFileLogger(path string, level Level) (*FileLogger, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}

	return &FileLogger{
		baseLogger: newBase(file, level),
		file:       file,
	}, nil
}

func (l *FileLogger) Debug(msg string, fields ...Field) { l.log(LevelDebug, msg, fields...) }
func (l *FileLogger) Info(msg string, fields ...Field)  { l.log(LevelInfo, msg, fields...) }
func (l *FileLogger) Warn(msg string, fields ...Field)  { l.log(LevelWarn, msg, fields...) }
func (l *FileLogger) Error(msg string, fields ...Field) { l.log(LevelError, msg, fields...) }

func (l *FileLogger) WithFields(fields ...Field) Logger {
	return &FileLogger{baseLogger: l.with(fields), file: l.file}
}

// Close closes the trace file.
func (l *FileLogger) Close() error {
	return l.file.Close()
}

// MultiLogger fans every entry out to several loggers.
type MultiLogger struct {
	loggers []Logger
	fields  []Field
}

// NewMultiLogger creates a logger that writes to multiple destinations.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

func (m *MultiLogger) all(fields []Field) []Field {
	out := make([]Field, 0, len(m.fields)+len(fields))
	out = append(out, m.fields...)
	return append(out, fields...)
}

func (m *MultiLogger) Debug(msg string, fields ...Field) {
	for _, l := range m.loggers {
		l.Debug(msg, m.all(fields)...)
	}
}

func (m *MultiLogger) Info(msg string, fields ...Field) {
	for _, l := range m.loggers {
		l.Info(msg, m.all(fields)...)
	}
}

func (m *MultiLogger) Warn(msg string, fields ...Field) {
	for _, l := range m.loggers {
		l.Warn(msg, m.all(fields)...)
	}
}

func (m *MultiLogger) Error(msg string, fields ...Field) {
	for _, l := range m.loggers {
		l.Error(msg, m.all(fields)...)
	}
}

func (m *MultiLogger) WithFields(fields ...Field) Logger {
	return &MultiLogger{loggers: m.loggers, fields: m.all(fields)}
}

// NopLogger discards everything.
type NopLogger struct{}

// NewNoopLogger returns a logger that drops all entries.
func NewNoopLogger() NopLogger { return NopLogger{} }

func (NopLogger) Debug(string, ...Field)       {}
func (NopLogger) Info(string, ...Field)        {}
func (NopLogger) Warn(string, ...Field)        {}
func (NopLogger) Error(string, ...Field)       {}
func (n NopLogger) WithFields(...Field) Logger { return n }
