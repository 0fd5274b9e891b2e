package server

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jba/slog/withsupport"
)

// ConsoleMessage is a log record forwarded to the browser console
type ConsoleMessage struct {
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
	Level     string            `json:"level"` // "debug", "info", "warning", "error"
	Attrs     map[string]string `json:"attrs,omitempty"`
}

// ConsoleHandler is a slog.Handler that sends records to a render's console
// channel. Sends never block; records are dropped while the channel is full.
// Records are also passed on to next, the server's own handler, when set.
type ConsoleHandler struct {
	level slog.Leveler
	with  *withsupport.GroupOrAttrs
	out   chan<- ConsoleMessage
	next  slog.Handler
}

// NewConsoleHandler creates a handler for one render. A nil level means
// slog.LevelInfo.
func NewConsoleHandler(out chan<- ConsoleMessage, next slog.Handler, level slog.Leveler) *ConsoleHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &ConsoleHandler{level: level, out: out, next: next}
}

func (h *ConsoleHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level >= h.level.Level() {
		return true
	}
	return h.next != nil && h.next.Enabled(ctx, level)
}

func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	h2 := *h
	h2.with = h.with.WithGroup(name)
	if h.next != nil {
		h2.next = h.next.WithGroup(name)
	}
	return &h2
}

func (h *ConsoleHandler) WithAttrs(as []slog.Attr) slog.Handler {
	h2 := *h
	h2.with = h.with.WithAttrs(as)
	if h.next != nil {
		h2.next = h.next.WithAttrs(as)
	}
	return &h2
}

func (h *ConsoleHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.next != nil && h.next.Enabled(ctx, r.Level) {
		if err := h.next.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	if r.Level < h.level.Level() || h.out == nil {
		return nil
	}

	msg := ConsoleMessage{
		Message:   r.Message,
		Timestamp: r.Time,
		Level:     consoleLevel(r.Level),
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	attrs := map[string]string{}
	groups := h.with.Apply(func(groups []string, a slog.Attr) {
		addAttr(attrs, groups, a)
	})
	r.Attrs(func(a slog.Attr) bool {
		addAttr(attrs, groups, a)
		return true
	})
	if len(attrs) > 0 {
		msg.Attrs = attrs
	}

	select {
	case h.out <- msg:
	default:
	}
	return nil
}

// addAttr flattens a into attrs, joining group names with dots
func addAttr(attrs map[string]string, groups []string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			groups = append(groups[:len(groups):len(groups)], a.Key)
		}
		for _, ga := range a.Value.Group() {
			addAttr(attrs, groups, ga)
		}
		return
	}

	key := a.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + a.Key
	}
	if a.Value.Kind() == slog.KindTime {
		attrs[key] = a.Value.Time().Format(time.RFC3339Nano)
		return
	}
	attrs[key] = a.Value.String()
}

func consoleLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warning"
	case level >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}
