package logger

import (
	"fmt"
	"log/slog"
	"sync/atomic"
)

var linkLogger atomic.Pointer[LinkLogger]

func init() {
	linkLogger.Store(NewLinkLogger(slog.Default()))
}

// LinkLogger wraps slog and also satisfies badger.Logger.
type LinkLogger struct {
	slogger *slog.Logger
}

func NewLinkLogger(l *slog.Logger) *LinkLogger {
	return &LinkLogger{
		slogger: l,
	}
}

func Default() *LinkLogger {
	return linkLogger.Load()
}

// SetDefault replaces the package logger, e.g. with a plugin handler.
func SetDefault(l *slog.Logger) {
	linkLogger.Store(NewLinkLogger(l))
	slog.SetDefault(l)
}

func SetLogLevel(level slog.Level) {
	slog.SetLogLoggerLevel(level)
}

// ParseLevel maps the configuration spelling of a level to slog.
// Unknown values yield INFO.
func ParseLevel(level string) slog.Level {
	switch level {
	case "DEBUG", "debug":
		return slog.LevelDebug
	case "INFO", "info":
		return slog.LevelInfo
	case "WARN", "warn":
		return slog.LevelWarn
	case "ERROR", "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// slog wrapper

func Debug(msg string, args ...any) {
	linkLogger.Load().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	linkLogger.Load().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	linkLogger.Load().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	linkLogger.Load().Error(msg, args...)
}

func With(args ...any) *slog.Logger {
	return linkLogger.Load().slogger.With(args...)
}

func (l *LinkLogger) Slog() *slog.Logger {
	return l.slogger
}

func (l *LinkLogger) Debug(msg string, args ...any) {
	l.slogger.Debug(msg, args...)
}

func (l *LinkLogger) Info(msg string, args ...any) {
	l.slogger.Info(msg, args...)
}

func (l *LinkLogger) Warn(msg string, args ...any) {
	l.slogger.Warn(msg, args...)
}

func (l *LinkLogger) Error(msg string, args ...any) {
	l.slogger.Error(msg, args...)
}

// badger.Logger

func (l *LinkLogger) Errorf(format string, args ...interface{}) {
	l.slogger.Error(fmt.Sprintf(format, args...))
}

func (l *LinkLogger) Warningf(format string, args ...interface{}) {
	l.slogger.Warn(fmt.Sprintf(format, args...))
}

func (l *LinkLogger) Infof(format string, args ...interface{}) {
	l.slogger.Info(fmt.Sprintf(format, args...))
}

func (l *LinkLogger) Debugf(format string, args ...interface{}) {
	l.slogger.Debug(fmt.Sprintf(format, args...))
}

func genericPairs(v ...interface{}) []any {
	pairs := make([]any, 0, len(v)/2)
	for i := 0; i < len(v)-1; i += 2 {
		key, ok := v[i].(string)
		if !ok {
			key = fmt.Sprintf("non_string_key_%d", i)
		}
		pairs = append(pairs, slog.Any(key, v[i+1]))
	}
	return pairs
}
