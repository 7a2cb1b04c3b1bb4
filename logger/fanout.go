package logger

import (
	"context"
	"errors"
	"log/slog"
)

// FanoutHandler sends every record to all of its handlers. A record is handed
// to a handler only if that handler is enabled for the record's level.
type FanoutHandler struct {
	handlers []slog.Handler
}

// NewFanoutHandler creates a handler writing to every non-nil handler given.
func NewFanoutHandler(handlers ...slog.Handler) *FanoutHandler {
	clean := make([]slog.Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			clean = append(clean, h)
		}
	}

	return &FanoutHandler{handlers: clean}
}

func (f *FanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}

	return false
}

// Handle passes a clone of the record to each enabled handler and joins their errors.
func (f *FanoutHandler) Handle(ctx context.Context, rec slog.Record) error {
	var errs []error

	for _, h := range f.handlers {
		if !h.Enabled(ctx, rec.Level) {
			continue
		}

		if err := h.Handle(ctx, rec.Clone()); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (f *FanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		out[i] = h.WithAttrs(attrs)
	}

	return &FanoutHandler{handlers: out}
}

func (f *FanoutHandler) WithGroup(name string) slog.Handler {
	out := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		out[i] = h.WithGroup(name)
	}

	return &FanoutHandler{handlers: out}
}
