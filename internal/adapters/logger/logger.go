// Package logger implements a logging adapter using log/slog.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	"go.trai.ch/stash/internal/core/domain"
	"go.trai.ch/stash/internal/core/ports"
)

// Attribute keys added to every coded or attributed record.
const (
	codeKey    = "code"
	contextKey = "context"
)

// sink is the handler state shared between a Logger and the loggers derived from it with With.
type sink struct {
	mu       sync.RWMutex
	logger   *slog.Logger
	jsonMode bool
	output   io.Writer
}

// Logger implements ports.Logger using log/slog.
type Logger struct {
	sink *sink
	bec  *domain.BuildEventContext
}

var _ ports.Logger = (*Logger)(nil)

// New creates a new Logger writing pretty records to stderr.
func New() *Logger {
	s := &sink{output: os.Stderr}
	s.rebuild()
	return &Logger{sink: s}
}

// SetOutput updates the logger's output destination.
// It preserves the current JSON mode setting. If w is nil, os.Stderr is used.
// Loggers derived with With follow the change.
func (l *Logger) SetOutput(w io.Writer) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	if w == nil {
		w = os.Stderr
	}
	l.sink.output = w
	l.sink.rebuild()
}

// SetJSON switches between JSON and pretty logging.
// The output destination is preserved from SetOutput calls.
func (l *Logger) SetJSON(enable bool) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	l.sink.jsonMode = enable
	l.sink.rebuild()
}

// rebuild replaces the slog logger. Callers hold the write lock.
func (s *sink) rebuild() {
	w := s.output
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var handler slog.Handler
	if s.jsonMode {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = NewPrettyHandler(w, opts)
	}
	s.logger = slog.New(handler)
}

// With returns a Logger that attributes every record to bec.
func (l *Logger) With(bec domain.BuildEventContext) ports.Logger {
	return &Logger{sink: l.sink, bec: &bec}
}

// Info logs an informational message.
func (l *Logger) Info(msg string) {
	l.log(slog.LevelInfo, msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.log(slog.LevelWarn, msg)
}

// LogMessage logs an informational coded diagnostic.
func (l *Logger) LogMessage(code domain.DiagnosticCode, args ...any) {
	l.log(slog.LevelInfo, domain.FormatDiagnostic(code, args...), slog.String(codeKey, string(code)))
}

// LogWarning logs a coded diagnostic at warning level.
func (l *Logger) LogWarning(code domain.DiagnosticCode, args ...any) {
	l.log(slog.LevelWarn, domain.FormatDiagnostic(code, args...), slog.String(codeKey, string(code)))
}

// Error logs an error. JSON mode keeps the error structured; pretty mode renders the chain.
func (l *Logger) Error(err error) {
	if err == nil {
		return
	}

	l.sink.mu.RLock()
	jsonMode := l.sink.jsonMode
	l.sink.mu.RUnlock()

	if jsonMode {
		l.log(slog.LevelError, "operation failed", slog.Any("error", err))
		return
	}
	l.log(slog.LevelError, formatErrorEntries(collectErrorEntries(err)))
}

func (l *Logger) log(level slog.Level, msg string, attrs ...slog.Attr) {
	if l.bec != nil {
		attrs = append(attrs, slog.Any(contextKey, *l.bec))
	}

	l.sink.mu.RLock()
	defer l.sink.mu.RUnlock()

	l.sink.logger.LogAttrs(context.Background(), level, msg, attrs...)
}
