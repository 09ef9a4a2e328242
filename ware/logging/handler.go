package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
)

const (
	placeholderTime    = "time"
	placeholderLevel   = "level"
	placeholderMessage = "message"
	placeholderExtra   = "extra"
	timeLayout         = "2006-01-02 15:04:05.000"
)

// templateHandler renders each record through a text template such as
// "{time} | {level} | {message} | {extra[node]}". Unknown placeholders are written verbatim.
type templateHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	format string
	level  slog.Leveler
	attrs  []slog.Attr
	prefix string
}

func newTemplateHandler(w io.Writer, format string, level slog.Leveler) *templateHandler {
	return &templateHandler{
		mu:     &sync.Mutex{},
		w:      w,
		format: format,
		level:  level,
	}
}

// Enabled implements slog.Handler interface.
func (h *templateHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler interface.
func (h *templateHandler) Handle(_ context.Context, record slog.Record) error {
	attrs := make([]slog.Attr, 0, len(h.attrs)+record.NumAttrs())
	attrs = append(attrs, h.attrs...)
	record.Attrs(func(attr slog.Attr) bool {
		attrs = append(attrs, h.qualify(attr))
		return true
	})

	line := h.render(record, attrs)

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := io.WriteString(h.w, line)

	return err
}

// WithAttrs implements slog.Handler interface.
func (h *templateHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)
	for _, attr := range attrs {
		clone.attrs = append(clone.attrs, h.qualify(attr))
	}

	return &clone
}

// WithGroup implements slog.Handler interface.
func (h *templateHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	clone := *h
	clone.prefix = h.prefix + name + "."

	return &clone
}

func (h *templateHandler) qualify(attr slog.Attr) slog.Attr {
	if h.prefix == "" {
		return attr
	}

	return slog.Attr{Key: h.prefix + attr.Key, Value: attr.Value}
}

func (h *templateHandler) render(record slog.Record, attrs []slog.Attr) string {
	var b strings.Builder

	rest := h.format
	for {
		start := strings.IndexByte(rest, '{')
		if start < 0 {
			b.WriteString(rest)
			break
		}

		end := strings.IndexByte(rest[start:], '}')
		if end < 0 {
			b.WriteString(rest)
			break
		}
		end += start

		b.WriteString(rest[:start])
		name := rest[start+1 : end]
		if value, ok := placeholderValue(name, record, attrs); ok {
			b.WriteString(value)
		} else {
			b.WriteString(rest[start : end+1])
		}

		rest = rest[end+1:]
	}

	b.WriteByte('\n')

	return b.String()
}

func placeholderValue(name string, record slog.Record, attrs []slog.Attr) (string, bool) {
	switch name {
	case placeholderTime:
		return record.Time.Format(timeLayout), true
	case placeholderLevel:
		return LevelName(record.Level), true
	case placeholderMessage:
		return record.Message, true
	case placeholderExtra:
		return joinAttrs(attrs), true
	}

	if key, ok := strings.CutPrefix(name, placeholderExtra+"["); ok && strings.HasSuffix(key, "]") {
		key = strings.TrimSuffix(key, "]")
		for i := len(attrs) - 1; i >= 0; i-- {
			if attrs[i].Key == key {
				return attrs[i].Value.Resolve().String(), true
			}
		}

		return "", true
	}

	return "", false
}

func joinAttrs(attrs []slog.Attr) string {
	parts := make([]string, 0, len(attrs))
	for _, attr := range attrs {
		parts = append(parts, attr.Key+"="+attr.Value.Resolve().String())
	}

	return strings.Join(parts, " ")
}

// replaceLevelAttr renames levels for the slog text and JSON handlers.
func replaceLevelAttr(groups []string, attr slog.Attr) slog.Attr {
	if len(groups) == 0 && attr.Key == slog.LevelKey {
		if level, ok := attr.Value.Any().(slog.Level); ok {
			return slog.String(slog.LevelKey, LevelName(level))
		}
	}

	return attr
}
