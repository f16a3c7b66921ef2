package log

import (
	"context"
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	level            = new(slog.LevelVar)
	output io.Writer = os.Stderr
)

func init() {
	slog.SetDefault(NewTextLogger().Logger)
}

func SetLevel(l slog.Level) {
	level.Set(l)
}

// SetOutputFile copies log output to a size-rotated file. Loggers created
// before the call keep writing to stderr only.
func SetOutputFile(path string) {
	output = io.MultiWriter(os.Stderr, &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
	})
	slog.SetDefault(NewTextLogger().Logger)
}

type Logger struct {
	*slog.Logger
}

func (l *Logger) With(v ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(v...),
	}
}

func (l *Logger) WithGroup(name string) *Logger {
	return &Logger{
		Logger: l.Logger.WithGroup(name),
	}
}

func NewTextLogger() *Logger {
	return NewLogger(output)
}

func NewLogger(w io.Writer) *Logger {
	h := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		Level:           charmlog.DebugLevel,
	})

	return &Logger{
		Logger: slog.New(&leveledHandler{Handler: h, level: level}),
	}
}

// leveledHandler gates records on the package level so SetLevel applies to
// loggers that already exist.
type leveledHandler struct {
	slog.Handler
	level slog.Leveler
}

func (h *leveledHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *leveledHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &leveledHandler{Handler: h.Handler.WithAttrs(attrs), level: h.level}
}

func (h *leveledHandler) WithGroup(name string) slog.Handler {
	return &leveledHandler{Handler: h.Handler.WithGroup(name), level: h.level}
}
