package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logger configuration
type Config struct {
	Level       string
	JSONFormat  bool
	EnableColor bool
	ServiceName string
	// FilePath, when set, tees output into a size-rotated file.
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Output     io.Writer
}

// DefaultConfig returns default logger configuration read from the environment
func DefaultConfig() *Config {
	return &Config{
		Level:       os.Getenv("LOG_LEVEL"),
		JSONFormat:  os.Getenv("LOG_FORMAT") == "json",
		EnableColor: os.Getenv("LOG_COLOR") != "false",
		ServiceName: os.Getenv("SERVICE_NAME"),
		FilePath:    os.Getenv("LOG_FILE"),
		MaxSizeMB:   100,
		MaxBackups:  5,
		MaxAgeDays:  28,
	}
}

// Logger is a structured logger backed by zerolog
type Logger struct {
	zl zerolog.Logger
}

type ctxKey string

const (
	requestIDKey ctxKey = "requestID"
	userIDKey    ctxKey = "userID"
)

var (
	defaultLogger *Logger
	mu            sync.RWMutex
)

// New creates a new logger with given config
func New(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}

	out := config.Output
	if out == nil {
		out = os.Stdout
	}
	if !config.JSONFormat {
		out = zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    !config.EnableColor,
			TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		}
	}
	if config.FilePath != "" {
		rotator := &lumberjack.Logger{
			Filename:   config.FilePath,
			MaxSize:    config.MaxSizeMB,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAgeDays,
			Compress:   true,
		}
		out = zerolog.MultiLevelWriter(out, rotator)
	}

	ctx := zerolog.New(out).Level(parseLevel(config.Level)).With().Timestamp()
	if config.ServiceName != "" {
		ctx = ctx.Str("service", config.ServiceName)
	}
	return &Logger{zl: ctx.Logger()}
}

// Default returns the process-wide logger
func Default() *Logger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		defaultLogger = New(nil)
	}
	return defaultLogger
}

// SetDefault replaces the process-wide logger
func SetDefault(l *Logger) {
	mu.Lock()
	defaultLogger = l
	mu.Unlock()
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// With creates a child logger with an additional field
func (l *Logger) With(key string, value interface{}) *Logger {
	return &Logger{zl: l.zl.With().Interface(key, value).Logger()}
}

// WithFields creates a child logger with multiple additional fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{zl: l.zl.With().Fields(fields).Logger()}
}

// WithError adds error field to logger
func (l *Logger) WithError(err error) *Logger {
	return &Logger{zl: l.zl.With().Err(err).Logger()}
}

// WithContext extracts request-scoped fields from context
func (l *Logger) WithContext(ctx context.Context) *Logger {
	zctx := l.zl.With()
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		zctx = zctx.Str("request_id", requestID)
	}
	if userID, ok := ctx.Value(userIDKey).(int64); ok && userID > 0 {
		zctx = zctx.Int64("user_id", userID)
	}
	return &Logger{zl: zctx.Logger()}
}

// ContextWithRequestID stores the request id for WithContext
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// ContextWithUserID stores the authenticated user id for WithContext
func ContextWithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// RequestIDFromContext returns the request id or ""
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// Log methods

func (l *Logger) Debug(msg string, args ...interface{}) {
	l.zl.Debug().Msg(format(msg, args))
}

func (l *Logger) Info(msg string, args ...interface{}) {
	l.zl.Info().Msg(format(msg, args))
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	l.zl.Warn().Msg(format(msg, args))
}

func (l *Logger) Error(msg string, args ...interface{}) {
	l.zl.Error().Msg(format(msg, args))
}

func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.zl.Fatal().Msg(format(msg, args))
}

func format(msg string, args []interface{}) string {
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}

// ============================================================
// Request Logger - HTTP request/response logging
// ============================================================

// RequestLog represents an HTTP request log
type RequestLog struct {
	Method       string
	Path         string
	Status       int
	Duration     time.Duration
	ClientIP     string
	UserAgent    string
	RequestID    string
	UserID       int64
	ResponseSize int64
	Error        string
}

// LogRequest logs an HTTP request
func (l *Logger) LogRequest(req RequestLog) {
	var evt *zerolog.Event
	switch {
	case req.Status >= 500:
		evt = l.zl.Error()
	case req.Status >= 400:
		evt = l.zl.Warn()
	default:
		evt = l.zl.Info()
	}

	evt = evt.
		Str("method", req.Method).
		Str("path", req.Path).
		Int("status", req.Status).
		Int64("duration_ms", req.Duration.Milliseconds()).
		Str("client_ip", req.ClientIP).
		Str("request_id", req.RequestID).
		Int64("response_size", req.ResponseSize)
	if req.UserAgent != "" {
		evt = evt.Str("user_agent", req.UserAgent)
	}
	if req.UserID > 0 {
		evt = evt.Int64("user_id", req.UserID)
	}
	if req.Error != "" {
		evt = evt.Str("error", req.Error)
	}

	evt.Msgf("%s %s -> %d (%s)", req.Method, req.Path, req.Status, req.Duration)
}

// ============================================================
// Business Event Logger
// ============================================================

// EventLog represents a business event log
type EventLog struct {
	Event    string
	UserID   int64
	EntityID int64
	Entity   string
	Action   string
	Success  bool
	Metadata map[string]interface{}
	Error    string
}

// LogEvent logs a business event
func (l *Logger) LogEvent(evt EventLog) {
	e := l.zl.Info()
	if !evt.Success {
		e = l.zl.Error()
	}

	e = e.
		Str("event", evt.Event).
		Str("action", evt.Action).
		Str("entity", evt.Entity).
		Int64("entity_id", evt.EntityID).
		Bool("success", evt.Success)
	if evt.UserID > 0 {
		e = e.Int64("user_id", evt.UserID)
	}
	if len(evt.Metadata) > 0 {
		e = e.Fields(evt.Metadata)
	}
	if evt.Error != "" {
		e = e.Str("error", evt.Error)
	}

	e.Msgf("[%s] %s %s (ID: %d)", evt.Event, evt.Action, evt.Entity, evt.EntityID)
}

// ============================================================
// Helper functions
// ============================================================

func parseLevel(s string) zerolog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "FATAL":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// ============================================================
// Package-level convenience functions
// ============================================================

func Debug(msg string, args ...interface{}) { Default().Debug(msg, args...) }
func Info(msg string, args ...interface{})  { Default().Info(msg, args...) }
func Warn(msg string, args ...interface{})  { Default().Warn(msg, args...) }
func Error(msg string, args ...interface{}) { Default().Error(msg, args...) }
func Fatal(msg string, args ...interface{}) { Default().Fatal(msg, args...) }

func With(key string, value interface{}) *Logger       { return Default().With(key, value) }
func WithFields(fields map[string]interface{}) *Logger { return Default().WithFields(fields) }
func WithError(err error) *Logger                      { return Default().WithError(err) }
func WithContext(ctx context.Context) *Logger          { return Default().WithContext(ctx) }
