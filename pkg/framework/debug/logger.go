// Package debug provides logging, profiling and buffer inspection for the
// loader side of tablesynth. Nothing here may be called from the audio path.
package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity of a log message.
type LogLevel int

const (
	// LogLevelDebug is for detailed debugging information.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is for general informational messages.
	LogLevelInfo
	// LogLevelWarn is for warning messages.
	LogLevelWarn
	// LogLevelError is for error messages.
	LogLevelError
	// LogLevelOff disables all logging.
	LogLevelOff
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a level name (case-insensitive) to a LogLevel.
func ParseLevel(name string) (LogLevel, error) {
	switch strings.ToLower(name) {
	case "debug":
		return LogLevelDebug, nil
	case "info", "":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	case "off", "none":
		return LogLevelOff, nil
	}
	return LogLevelInfo, fmt.Errorf("unknown log level %q", name)
}

// Logger writes leveled messages followed by key=value fields:
//
//	logger.Info("table loaded", "cycles", 4, "length", 2048)
//
// produces
//
//	[INFO] [tablesynth] table loaded cycles=4 length=2048
type Logger struct {
	mu      sync.Mutex
	output  io.Writer
	level   LogLevel
	prefix  string
	flags   int
	enabled bool
	fields  []any
}

// Flags for logger output formatting.
const (
	FlagTime      = 1 << iota // Include timestamp
	FlagShortFile             // Include short file name and line number
	FlagLongFile              // Include full file path and line number
	FlagLevel                 // Include log level
	FlagPrefix                // Include prefix
)

// DefaultFlags are the default formatting flags.
const DefaultFlags = FlagTime | FlagLevel | FlagPrefix

var defaultLogger = New(os.Stderr, "tablesynth", DefaultFlags)

// New creates a new logger instance at LogLevelInfo.
func New(output io.Writer, prefix string, flags int) *Logger {
	return &Logger{
		output:  output,
		prefix:  prefix,
		flags:   flags,
		level:   LogLevelInfo,
		enabled: true,
	}
}

// NewFileLogger creates a logger that appends to filename, creating
// its directory if needed. The caller owns the returned file.
func NewFileLogger(filename, prefix string, flags int) (*Logger, *os.File, error) {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return New(file, prefix, flags), file, nil
}

// With returns a logger that appends the given key/value pairs to every
// message. The child shares the parent's output but not its settings.
func (l *Logger) With(keyvals ...any) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	fields := make([]any, 0, len(l.fields)+len(keyvals))
	fields = append(fields, l.fields...)
	fields = append(fields, keyvals...)
	return &Logger{
		output:  l.output,
		level:   l.level,
		prefix:  l.prefix,
		flags:   l.flags,
		enabled: l.enabled,
		fields:  fields,
	}
}

// SetOutput sets the output destination for the logger.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Level returns the minimum log level.
func (l *Logger) Level() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// SetPrefix sets the logger prefix.
func (l *Logger) SetPrefix(prefix string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prefix = prefix
}

// SetFlags sets the output formatting flags.
func (l *Logger) SetFlags(flags int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.flags = flags
}

// SetEnabled enables or disables the logger.
func (l *Logger) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

// IsEnabled returns whether the logger is enabled.
func (l *Logger) IsEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

func (l *Logger) log(level LogLevel, msg string, keyvals []any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.enabled || level < l.level || l.output == nil {
		return
	}

	var sb strings.Builder

	if l.flags&FlagTime != 0 {
		sb.WriteString(time.Now().Format("2006-01-02 15:04:05.000 "))
	}
	if l.flags&FlagLevel != 0 {
		sb.WriteString("[")
		sb.WriteString(level.String())
		sb.WriteString("] ")
	}
	if l.flags&FlagPrefix != 0 && l.prefix != "" {
		sb.WriteString("[")
		sb.WriteString(l.prefix)
		sb.WriteString("] ")
	}
	if l.flags&(FlagShortFile|FlagLongFile) != 0 {
		// Skip log() and Debug/Info/etc, plus the package-level wrapper
		// when called through one.
		skip := 2
		if _, file, _, ok := runtime.Caller(skip); ok && filepath.Base(file) == "logger.go" {
			skip++
		}
		if _, file, line, ok := runtime.Caller(skip); ok {
			if l.flags&FlagShortFile != 0 {
				file = filepath.Base(file)
			}
			sb.WriteString(file)
			sb.WriteString(":")
			sb.WriteString(strconv.Itoa(line))
			sb.WriteString(": ")
		}
	}

	sb.WriteString(strings.TrimSuffix(msg, "\n"))
	writeFields(&sb, l.fields)
	writeFields(&sb, keyvals)
	sb.WriteString("\n")

	io.WriteString(l.output, sb.String())
}

// writeFields appends " key=value" for each pair. A trailing key without a
// value is written as key=MISSING.
func writeFields(sb *strings.Builder, keyvals []any) {
	for i := 0; i < len(keyvals); i += 2 {
		sb.WriteString(" ")
		sb.WriteString(fmt.Sprint(keyvals[i]))
		sb.WriteString("=")
		if i+1 >= len(keyvals) {
			sb.WriteString("MISSING")
			break
		}
		sb.WriteString(formatValue(keyvals[i+1]))
	}
}

func formatValue(v any) string {
	var s string
	switch val := v.(type) {
	case string:
		s = val
	case error:
		s = val.Error()
	case float32:
		s = strconv.FormatFloat(float64(val), 'g', 6, 32)
	case float64:
		s = strconv.FormatFloat(val, 'g', 6, 64)
	case time.Duration:
		s = val.String()
	default:
		s = fmt.Sprint(val)
	}
	if s == "" || strings.ContainsAny(s, " \t\"=") {
		return strconv.Quote(s)
	}
	return s
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, keyvals ...any) {
	l.log(LogLevelDebug, msg, keyvals)
}

// Info logs an informational message.
func (l *Logger) Info(msg string, keyvals ...any) {
	l.log(LogLevelInfo, msg, keyvals)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, keyvals ...any) {
	l.log(LogLevelWarn, msg, keyvals)
}

// Error logs an error message.
func (l *Logger) Error(msg string, keyvals ...any) {
	l.log(LogLevelError, msg, keyvals)
}

// Global logger functions

// Default returns the default logger instance.
func Default() *Logger {
	return defaultLogger
}

// SetOutput sets the output destination for the default logger.
func SetOutput(w io.Writer) {
	defaultLogger.SetOutput(w)
}

// SetLevel sets the minimum log level for the default logger.
func SetLevel(level LogLevel) {
	defaultLogger.SetLevel(level)
}

// SetFlags sets the output formatting flags for the default logger.
func SetFlags(flags int) {
	defaultLogger.SetFlags(flags)
}

// Debug logs a debug message using the default logger.
func Debug(msg string, keyvals ...any) {
	defaultLogger.Debug(msg, keyvals...)
}

// Info logs an informational message using the default logger.
func Info(msg string, keyvals ...any) {
	defaultLogger.Info(msg, keyvals...)
}

// Warn logs a warning message using the default logger.
func Warn(msg string, keyvals ...any) {
	defaultLogger.Warn(msg, keyvals...)
}

// Error logs an error message using the default logger.
func Error(msg string, keyvals ...any) {
	defaultLogger.Error(msg, keyvals...)
}
