package telemetry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// NewConsoleLogger returns a logger that writes colored records to stderr.
func NewConsoleLogger(cfg *Config) *slog.Logger {
	return slog.New(newConsoleHandler(cfg))
}

func newConsoleHandler(cfg *Config) slog.Handler {
	noColor := cfg.NoColor || !isatty.IsTerminal(os.Stderr.Fd())

	var out io.Writer = os.Stderr
	if !noColor {
		out = colorable.NewColorable(os.Stderr)
	}

	return tint.NewHandler(out, &tint.Options{
		Level:      cfg.LogLevel,
		TimeFormat: time.StampMilli,
		NoColor:    noColor,
	})
}

// SetDefaultLogger sets the default slog logger. If lp is not nil
// the records are also sent to the OpenTelemetry logger provider.
func SetDefaultLogger(cfg *Config, lp *sdklog.LoggerProvider) {
	handler := newConsoleHandler(cfg)

	if lp != nil {
		handler = newFanoutHandler(
			handler,
			otelslog.NewHandler(cfg.ServiceName, otelslog.WithLoggerProvider(lp)),
		)
	}

	slog.SetDefault(slog.New(handler))
}

// fanoutHandler forwards each record to all the handlers that accept its level.
type fanoutHandler struct {
	handlers []slog.Handler
}

func newFanoutHandler(handlers ...slog.Handler) *fanoutHandler {
	return &fanoutHandler{handlers: handlers}
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error

	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}
		errs = append(errs, handler.Handle(ctx, record.Clone()))
	}

	return errors.Join(errs...)
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, 0, len(h.handlers))
	for _, handler := range h.handlers {
		handlers = append(handlers, handler.WithAttrs(attrs))
	}
	return newFanoutHandler(handlers...)
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, 0, len(h.handlers))
	for _, handler := range h.handlers {
		handlers = append(handlers, handler.WithGroup(name))
	}
	return newFanoutHandler(handlers...)
}
