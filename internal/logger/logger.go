package logger

import (
	"fmt"
	"time"

	"orderlyflow/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.SugaredLogger with the fields this service logs by.
type Logger struct {
	*zap.SugaredLogger
}

func New(cfg config.LoggerConfig) (*Logger, error) {
	var zapConfig zap.Config
	if cfg.Format == "json" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	switch cfg.Output {
	case "", "stdout":
		zapConfig.OutputPaths = []string{"stdout"}
	case "stderr":
		zapConfig.OutputPaths = []string{"stderr"}
	default:
		zapConfig.OutputPaths = []string{cfg.Output}
	}
	zapConfig.ErrorOutputPaths = []string{"stderr"}

	zapLogger, err := zapConfig.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return &Logger{SugaredLogger: zapLogger.Sugar()}, nil
}

// NewNop discards everything. Used by tests and as a nil fallback.
func NewNop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// Or returns l, or a no-op logger when l is nil.
func Or(l *Logger) *Logger {
	if l == nil {
		return NewNop()
	}
	return l
}

func (l *Logger) WithFields(fields ...any) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(fields...)}
}

func (l *Logger) WithError(err error) *Logger {
	return l.WithFields("error", err.Error())
}

func (l *Logger) WithComponent(component string) *Logger {
	return l.WithFields("component", component)
}

func (l *Logger) WithUserID(userID string) *Logger {
	return l.WithFields("user_id", userID)
}

func (l *Logger) WithBoard(boardID string) *Logger {
	return l.WithFields("board_id", boardID)
}

func (l *Logger) LogHTTPRequest(method, path, ip string, status int, duration time.Duration) {
	fields := []any{
		"method", method,
		"path", path,
		"status_code", status,
		"duration_ms", float64(duration.Microseconds()) / 1000,
		"ip", ip,
	}
	switch {
	case status >= 500:
		l.Errorw("HTTP request", fields...)
	case status >= 400:
		l.Warnw("HTTP request", fields...)
	default:
		l.Infow("HTTP request", fields...)
	}
}

// LogMutation records the outcome of one optimistic mutation.
func (l *Logger) LogMutation(kind, outcome string, duration time.Duration, err error) {
	fields := []any{
		"kind", kind,
		"outcome", outcome,
		"duration_ms", float64(duration.Microseconds()) / 1000,
	}
	if err != nil {
		l.Warnw("Mutation rolled back", append(fields, "error", err.Error())...)
		return
	}
	l.Debugw("Mutation confirmed", fields...)
}

// Close flushes buffered entries.
func (l *Logger) Close() error {
	return l.SugaredLogger.Sync()
}
