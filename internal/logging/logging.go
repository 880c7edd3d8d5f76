// Package logging provides structured logging functionality using Go's slog package.
// It supports both text and JSON output formats and configurable log levels.
// Conversion progress (one line per report, one per host) is emitted through it.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	// File permissions for directories and log files.
	logDirPerm  = 0750
	logFilePerm = 0600
)

// LogLevel represents the available log levels.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// LogFormat represents the available log formats.
type LogFormat string

const (
	FormatText LogFormat = "text"
	FormatJSON LogFormat = "json"
)

// Config holds logging configuration.
type Config struct {
	Level     LogLevel  `yaml:"level" json:"level"`
	Format    LogFormat `yaml:"format" json:"format"`
	Output    string    `yaml:"output" json:"output"`
	AddSource bool      `yaml:"add_source" json:"add_source"`
}

// DefaultConfig returns a default logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:     LevelInfo,
		Format:    FormatText,
		Output:    "stdout",
		AddSource: false,
	}
}

// Logger wraps slog.Logger with additional functionality.
type Logger struct {
	*slog.Logger
	config Config
}

// New creates a new structured logger with the given configuration.
func New(cfg Config) (*Logger, error) {
	var writer io.Writer
	switch cfg.Output {
	case "", "stdout":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	default:
		// Anything else is a file path.
		if err := os.MkdirAll(filepath.Dir(cfg.Output), logDirPerm); err != nil {
			return nil, err
		}
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePerm)
		if err != nil {
			return nil, err
		}
		writer = file
	}

	return NewWithWriter(cfg, writer), nil
}

// NewWithWriter creates a logger that writes to w, ignoring cfg.Output.
func NewWithWriter(cfg Config, w io.Writer) *Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	switch cfg.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
		config: cfg,
	}
}

func parseLevel(level LogLevel) slog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewDefault creates a logger with default configuration.
func NewDefault() *Logger {
	logger, _ := New(DefaultConfig())
	return logger
}

// WithFields adds structured fields to the logger.
func (l *Logger) WithFields(fields ...any) *Logger {
	return &Logger{
		Logger: l.With(fields...),
		config: l.config,
	}
}

// WithComponent adds a component field to the logger.
func (l *Logger) WithComponent(component string) *Logger {
	return l.WithFields("component", component)
}

// WithRunID adds the conversion run identifier to the logger.
func (l *Logger) WithRunID(runID string) *Logger {
	return l.WithFields("run_id", runID)
}

// WithReport adds a report field to the logger.
func (l *Logger) WithReport(report string) *Logger {
	return l.WithFields("report", report)
}

// WithError adds an error field to the logger.
func (l *Logger) WithError(err error) *Logger {
	return l.WithFields("error", err)
}

// InfoReport logs report-related information.
func (l *Logger) InfoReport(msg, report string, fields ...any) {
	allFields := append([]any{"report", report}, fields...)
	l.Info(msg, allFields...)
}

// WarnReport logs recoverable report problems such as a lenient parse fallback.
func (l *Logger) WarnReport(msg, report string, err error, fields ...any) {
	allFields := append([]any{"report", report, "error", err}, fields...)
	l.Warn(msg, allFields...)
}

// ErrorReport logs report-related errors.
func (l *Logger) ErrorReport(msg, report string, err error, fields ...any) {
	allFields := append([]any{"report", report, "error", err}, fields...)
	l.Error(msg, allFields...)
}

// InfoHost logs host-level progress.
func (l *Logger) InfoHost(msg, host string, fields ...any) {
	allFields := append([]any{"host", host}, fields...)
	l.Info(msg, allFields...)
}

// InfoWorkbook logs workbook-related information.
func (l *Logger) InfoWorkbook(msg string, fields ...any) {
	allFields := append([]any{"component", "workbook"}, fields...)
	l.Info(msg, allFields...)
}

// ErrorWorkbook logs workbook-related errors.
func (l *Logger) ErrorWorkbook(msg string, err error, fields ...any) {
	allFields := append([]any{"component", "workbook", "error", err}, fields...)
	l.Error(msg, allFields...)
}

// Global logger instance - can be replaced for testing.
var defaultLogger = NewDefault()

// SetDefault sets the default logger instance.
func SetDefault(logger *Logger) {
	defaultLogger = logger
}

// Default returns the default logger instance.
func Default() *Logger {
	return defaultLogger
}

// Debug logs at debug level using the default logger.
func Debug(msg string, fields ...any) {
	defaultLogger.Debug(msg, fields...)
}

// Info logs at info level using the default logger.
func Info(msg string, fields ...any) {
	defaultLogger.Info(msg, fields...)
}

// Warn logs at warn level using the default logger.
func Warn(msg string, fields ...any) {
	defaultLogger.Warn(msg, fields...)
}

// Error logs at error level using the default logger.
func Error(msg string, fields ...any) {
	defaultLogger.Error(msg, fields...)
}

// InfoReport logs report-related information using the default logger.
func InfoReport(msg, report string, fields ...any) {
	defaultLogger.InfoReport(msg, report, fields...)
}

// WarnReport logs recoverable report problems using the default logger.
func WarnReport(msg, report string, err error, fields ...any) {
	defaultLogger.WarnReport(msg, report, err, fields...)
}

// ErrorReport logs report-related errors using the default logger.
func ErrorReport(msg, report string, err error, fields ...any) {
	defaultLogger.ErrorReport(msg, report, err, fields...)
}

// InfoHost logs host-level progress using the default logger.
func InfoHost(msg, host string, fields ...any) {
	defaultLogger.InfoHost(msg, host, fields...)
}

// InfoWorkbook logs workbook-related information using the default logger.
func InfoWorkbook(msg string, fields ...any) {
	defaultLogger.InfoWorkbook(msg, fields...)
}

// ErrorWorkbook logs workbook-related errors using the default logger.
func ErrorWorkbook(msg string, err error, fields ...any) {
	defaultLogger.ErrorWorkbook(msg, err, fields...)
}
