package runtime

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel represents the severity of a log entry.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogField represents a key-value pair in structured logging.
type LogField struct {
	Key   string
	Value any
}

// Field creates a LogField from a key-value pair.
func Field(key string, value any) LogField {
	return LogField{Key: key, Value: value}
}

// Logger provides structured logging capabilities with context support.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...LogField)
	Info(ctx context.Context, msg string, fields ...LogField)
	Warn(ctx context.Context, msg string, fields ...LogField)
	Error(ctx context.Context, msg string, err error, fields ...LogField)
	WithFields(fields ...LogField) Logger
}

// NoOpLogger is a logger that discards all log entries.
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(_ context.Context, _ string, _ ...LogField)          {}
func (n *NoOpLogger) Info(_ context.Context, _ string, _ ...LogField)           {}
func (n *NoOpLogger) Warn(_ context.Context, _ string, _ ...LogField)           {}
func (n *NoOpLogger) Error(_ context.Context, _ string, _ error, _ ...LogField) {}
func (n *NoOpLogger) WithFields(_ ...LogField) Logger                           { return n }

// LogrusLogger adapts a logrus entry to Logger. The build step stored in the
// context is attached to every entry.
type LogrusLogger struct {
	entry *logrus.Entry
}

// NewLogrusLogger wraps base. A nil base uses the logrus standard logger.
func NewLogrusLogger(base *logrus.Logger) *LogrusLogger {
	if base == nil {
		base = logrus.StandardLogger()
	}
	return &LogrusLogger{entry: logrus.NewEntry(base)}
}

func (l *LogrusLogger) with(ctx context.Context, fields []LogField) *logrus.Entry {
	data := make(logrus.Fields, len(fields)+1)
	if step := stepFromContext(ctx); step != "" {
		data["step"] = step
	}
	for _, f := range fields {
		data[f.Key] = f.Value
	}
	return l.entry.WithFields(data)
}

func (l *LogrusLogger) Debug(ctx context.Context, msg string, fields ...LogField) {
	l.with(ctx, fields).Debug(msg)
}

func (l *LogrusLogger) Info(ctx context.Context, msg string, fields ...LogField) {
	l.with(ctx, fields).Info(msg)
}

func (l *LogrusLogger) Warn(ctx context.Context, msg string, fields ...LogField) {
	l.with(ctx, fields).Warn(msg)
}

func (l *LogrusLogger) Error(ctx context.Context, msg string, err error, fields ...LogField) {
	l.with(ctx, fields).WithError(err).Error(msg)
}

func (l *LogrusLogger) WithFields(fields ...LogField) Logger {
	return &LogrusLogger{entry: l.with(context.Background(), fields)}
}

// InitLog configures the logrus standard logger for level and returns it.
// When logPath is set to anything but "console" the output is a rotating
// file.
func InitLog(level string, logPath string) (*logrus.Logger, error) {
	if strings.TrimSpace(level) == "" {
		level = string(LogLevelInfo)
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	logger := logrus.StandardLogger()
	logger.SetLevel(parsed)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetOutput(os.Stderr)

	if logPath != "" && logPath != "console" {
		logger.SetOutput(&lumberjack.Logger{
			Filename:   filepath.ToSlash(logPath),
			MaxSize:    5, // MB
			MaxBackups: 10,
			MaxAge:     30, // days
			Compress:   true,
		})
	}
	return logger, nil
}

type stepKey struct{}

// WithStep records the current build step in ctx for log correlation.
func WithStep(ctx context.Context, step string) context.Context {
	return context.WithValue(ctx, stepKey{}, step)
}

func stepFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if step, ok := ctx.Value(stepKey{}).(string); ok {
		return step
	}
	return ""
}
