package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nerrad567/gray-logic-node/internal/infrastructure/config"
)

// ServiceName is the value of the "service" attribute on every entry.
const ServiceName = "graylogic-node"

// ErrUnknownLevel is returned by SetLevel for unrecognised level names.
var ErrUnknownLevel = errors.New("logging: unknown level")

// Logger wraps slog.Logger with node-specific functionality.
//
// It provides structured logging with default fields and a level that can be
// changed at runtime (see SetLevel). Children created with With share the
// level of their parent.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Logger struct {
	*slog.Logger
	level *slog.LevelVar
}

// New creates a new Logger with the specified configuration.
//
// It configures:
//   - Output format (JSON for production, text for development)
//   - Log level filtering
//   - Default fields (service, node, version)
//   - Output destination
func New(cfg config.LoggingConfig, node, version string) *Logger {
	var output io.Writer
	switch strings.ToLower(cfg.Output) {
	case "stderr":
		output = os.Stderr
	default:
		output = os.Stdout
	}
	return newWithWriter(cfg, output, node, version)
}

func newWithWriter(cfg config.LoggingConfig, output io.Writer, node, version string) *Logger {
	level := new(slog.LevelVar)
	level.Set(parseLevel(cfg.Level))

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(output, opts)
	default:
		handler = slog.NewJSONHandler(output, opts)
	}

	attrs := []slog.Attr{
		slog.String("service", ServiceName),
		slog.String("version", version),
	}
	if node != "" {
		attrs = append(attrs, slog.String("node", node))
	}
	handler = handler.WithAttrs(attrs)

	return &Logger{
		Logger: slog.New(handler),
		level:  level,
	}
}

// parseLevel converts a string log level to slog.Level.
//
// Supported levels: debug, info, warn, error
// Defaults to info if unrecognised.
func parseLevel(level string) slog.Level {
	l, ok := lookupLevel(level)
	if !ok {
		return slog.LevelInfo
	}
	return l
}

func lookupLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// Level returns the current level name in lower case ("debug", "info", ...).
func (l *Logger) Level() string {
	if l.level == nil {
		return strings.ToLower(slog.LevelInfo.String())
	}
	return strings.ToLower(l.level.Level().String())
}

// SetLevel changes the level of this logger and every logger derived from it.
func (l *Logger) SetLevel(level string) error {
	lv, ok := lookupLevel(level)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownLevel, level)
	}
	if l.level == nil {
		return fmt.Errorf("%w: logger has a fixed level", ErrUnknownLevel)
	}
	l.level.Set(lv)
	return nil
}

// With returns a new Logger with additional default attributes.
//
// Example:
//
//	mqttLogger := logger.With("component", "mqtt")
//	mqttLogger.Info("connected") // Includes component=mqtt
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(args...),
		level:  l.level,
	}
}

// Default creates a default logger for use before configuration is loaded.
//
// This logger outputs to stdout in JSON format at info level.
func Default() *Logger {
	return New(config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}, "", "dev")
}
