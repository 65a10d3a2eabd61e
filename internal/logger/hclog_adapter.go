package logger

import (
	"io"
	"log"
	"log/slog"

	"github.com/hashicorp/go-hclog"
)

// HCLogAdapter adapts LinkLogger to hashicorp/go-hclog.Logger so go-plugin
// output (including lines re-logged from plugin stderr) lands in the agent log.
type HCLogAdapter struct {
	logger *LinkLogger
	name   string
	args   []interface{}
	level  hclog.Level
}

// NewHCLogAdapter creates a new HCLog adapter wrapping the default logger.
func NewHCLogAdapter() hclog.Logger {
	return &HCLogAdapter{
		logger: Default(),
		name:   "plugin",
		level:  hclog.Info,
	}
}

func (h *HCLogAdapter) pairs(args []interface{}) []any {
	all := make([]interface{}, 0, len(h.args)+len(args)+2)
	all = append(all, "logger", h.name)
	all = append(all, h.args...)
	all = append(all, args...)
	return genericPairs(all...)
}

func (h *HCLogAdapter) Log(level hclog.Level, msg string, args ...interface{}) {
	switch level {
	case hclog.Trace, hclog.Debug:
		h.Debug(msg, args...)
	case hclog.Info, hclog.NoLevel:
		h.Info(msg, args...)
	case hclog.Warn:
		h.Warn(msg, args...)
	case hclog.Error:
		h.Error(msg, args...)
	}
}

func (h *HCLogAdapter) Trace(msg string, args ...interface{}) {
	h.logger.Debug(msg, h.pairs(args)...)
}

func (h *HCLogAdapter) Debug(msg string, args ...interface{}) {
	h.logger.Debug(msg, h.pairs(args)...)
}

func (h *HCLogAdapter) Info(msg string, args ...interface{}) {
	h.logger.Info(msg, h.pairs(args)...)
}

func (h *HCLogAdapter) Warn(msg string, args ...interface{}) {
	h.logger.Warn(msg, h.pairs(args)...)
}

func (h *HCLogAdapter) Error(msg string, args ...interface{}) {
	h.logger.Error(msg, h.pairs(args)...)
}

func (h *HCLogAdapter) IsTrace() bool {
	return h.level <= hclog.Trace
}

func (h *HCLogAdapter) IsDebug() bool {
	return h.level <= hclog.Debug
}

func (h *HCLogAdapter) IsInfo() bool {
	return h.level <= hclog.Info
}

func (h *HCLogAdapter) IsWarn() bool {
	return h.level <= hclog.Warn
}

func (h *HCLogAdapter) IsError() bool {
	return h.level <= hclog.Error
}

func (h *HCLogAdapter) ImpliedArgs() []interface{} {
	return h.args
}

func (h *HCLogAdapter) With(args ...interface{}) hclog.Logger {
	return &HCLogAdapter{
		logger: h.logger,
		name:   h.name,
		args:   append(append([]interface{}{}, h.args...), args...),
		level:  h.level,
	}
}

func (h *HCLogAdapter) Name() string {
	return h.name
}

func (h *HCLogAdapter) Named(name string) hclog.Logger {
	return &HCLogAdapter{
		logger: h.logger,
		name:   h.name + "." + name,
		args:   h.args,
		level:  h.level,
	}
}

func (h *HCLogAdapter) ResetNamed(name string) hclog.Logger {
	return &HCLogAdapter{
		logger: h.logger,
		name:   name,
		args:   h.args,
		level:  h.level,
	}
}

func (h *HCLogAdapter) SetLevel(level hclog.Level) {
	h.level = level
}

func (h *HCLogAdapter) GetLevel() hclog.Level {
	return h.level
}

func (h *HCLogAdapter) StandardLogger(opts *hclog.StandardLoggerOptions) *log.Logger {
	return slog.NewLogLogger(h.logger.slogger.Handler(), slog.LevelInfo)
}

func (h *HCLogAdapter) StandardWriter(opts *hclog.StandardLoggerOptions) io.Writer {
	return io.Discard
}
