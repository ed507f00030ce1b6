package logging

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const RequestIDHeader = "X-Request-Id"

type requestIDKey struct{}

var base atomic.Pointer[zap.Logger]

func init() {
	base.Store(zap.NewNop())
}

// New builds the process logger. Production gets JSON output, everything
// else the console encoder.
func New(level, env string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	cfg := zap.NewDevelopmentConfig()
	if env == "production" {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}

// SetDefault replaces the logger used by NewLogger.
func SetDefault(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	base.Store(l)
}

func Default() *zap.Logger {
	return base.Load()
}

// WithRequestID stores a request id in ctx.
func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, rid)
}

// RequestID returns the request id carried by ctx, or "".
func RequestID(ctx context.Context) string {
	if rid, ok := ctx.Value(requestIDKey{}).(string); ok {
		return rid
	}
	return ""
}

// EnsureRequestID returns ctx unchanged when it already carries a request id,
// otherwise a child context with a fresh one.
func EnsureRequestID(ctx context.Context) (context.Context, string) {
	if rid := RequestID(ctx); rid != "" {
		return ctx, rid
	}
	rid := uuid.NewString()
	return WithRequestID(ctx, rid), rid
}

// Logger provides structured logging scoped to one request
type Logger struct {
	requestID string
	z         *zap.Logger
}

// NewLogger creates a logger with request context
func NewLogger(ctx context.Context) *Logger {
	requestID := RequestID(ctx)
	if requestID == "" {
		requestID = "unknown"
	}
	return &Logger{
		requestID: requestID,
		z:         base.Load().With(zap.String("request_id", requestID)),
	}
}

func (l *Logger) RequestID() string {
	return l.requestID
}

// LogError logs an error with context
func (l *Logger) LogError(operation string, err error, fields ...zap.Field) {
	l.z.Error(operation, append(fields, zap.String("operation", operation), zap.Error(err))...)
}

// LogErrorf logs a formatted error with context
func (l *Logger) LogErrorf(operation string, format string, args ...interface{}) {
	l.z.Error(fmt.Sprintf(format, args...), zap.String("operation", operation))
}

// LogInfo logs an info message with structured fields
func (l *Logger) LogInfo(operation string, message string, fields ...zap.Field) {
	l.z.Info(message, append(fields, zap.String("operation", operation))...)
}

// LogInfof logs a formatted info message with context
func (l *Logger) LogInfof(operation string, format string, args ...interface{}) {
	l.z.Info(fmt.Sprintf(format, args...), zap.String("operation", operation))
}

// LogWarn logs a warning with structured fields
func (l *Logger) LogWarn(operation string, message string, fields ...zap.Field) {
	l.z.Warn(message, append(fields, zap.String("operation", operation))...)
}

// LogWarnf logs a formatted warning with context
func (l *Logger) LogWarnf(operation string, format string, args ...interface{}) {
	l.z.Warn(fmt.Sprintf(format, args...), zap.String("operation", operation))
}

func (l *Logger) LogDebug(operation string, message string, fields ...zap.Field) {
	l.z.Debug(message, append(fields, zap.String("operation", operation))...)
}
