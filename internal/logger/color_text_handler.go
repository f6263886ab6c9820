package logger

import (
	"context"
	"io"
	"log/slog"
)

const ansiReset = "\033[0m"

// levelColor picks an ANSI code per level band, so custom levels
// between the standard ones still get a sensible color.
func levelColor(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "\033[91m" // bright red
	case l >= slog.LevelWarn:
		return "\033[93m" // bright yellow
	case l >= slog.LevelInfo:
		return "\033[92m" // bright green
	default:
		return "\033[90m" // bright black, debug noise
	}
}

// ColorTextHandler decorates a text handler with a colored level tag in
// front of each message for terminal output. Attribute and group state
// stays on the wrapped handler so derived loggers keep their colors.
type ColorTextHandler struct {
	inner slog.Handler
}

func NewColorTextHandler(w io.Writer, opts *slog.HandlerOptions) *ColorTextHandler {
	return &ColorTextHandler{inner: slog.NewTextHandler(w, opts)}
}

func (h *ColorTextHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.inner.Enabled(ctx, l)
}

func (h *ColorTextHandler) Handle(ctx context.Context, r slog.Record) error {
	r.Message = levelColor(r.Level) + r.Level.String() + ansiReset + " " + r.Message
	return h.inner.Handle(ctx, r)
}

func (h *ColorTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ColorTextHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *ColorTextHandler) WithGroup(name string) slog.Handler {
	return &ColorTextHandler{inner: h.inner.WithGroup(name)}
}
