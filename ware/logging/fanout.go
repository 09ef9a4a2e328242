package logging

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
)

// ErrUnknownHandler is returned when removing a handler ID the sink doesn't hold.
var ErrUnknownHandler = errors.New("unknown log handler id")

// handlerSet holds the handlers of one sink, keyed by the ID AddHandler returned.
type handlerSet struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]slog.Handler
}

func newHandlerSet(primary slog.Handler) *handlerSet {
	return &handlerSet{
		nextID:   1,
		handlers: map[int]slog.Handler{0: primary},
	}
}

func (s *handlerSet) add(handler slog.Handler) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.handlers[id] = handler

	return id
}

func (s *handlerSet) remove(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.handlers[id]; !exists {
		return false
	}

	delete(s.handlers, id)

	return true
}

// snapshot returns the handlers in the order they were added.
func (s *handlerSet) snapshot() []slog.Handler {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int, 0, len(s.handlers))
	for id := range s.handlers {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	handlers := make([]slog.Handler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, s.handlers[id])
	}

	return handlers
}

// handlerOp is one WithAttrs or WithGroup call, replayed on every handler of the set,
// including handlers added after the call.
type handlerOp struct {
	attrs []slog.Attr
	group string
}

// fanoutHandler sends each record to every handler of its set.
type fanoutHandler struct {
	set *handlerSet
	ops []handlerOp
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.set.snapshot() {
		if handler.Enabled(ctx, level) {
			return true
		}
	}

	return false
}

func (h *fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error

	for _, handler := range h.set.snapshot() {
		handler = h.apply(handler)
		if !handler.Enabled(ctx, record.Level) {
			continue
		}

		if err := handler.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}

	return h.with(handlerOp{attrs: attrs})
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	return h.with(handlerOp{group: name})
}

func (h *fanoutHandler) with(op handlerOp) *fanoutHandler {
	return &fanoutHandler{
		set: h.set,
		ops: append(slices.Clip(h.ops), op),
	}
}

func (h *fanoutHandler) apply(handler slog.Handler) slog.Handler {
	for _, op := range h.ops {
		if op.group != "" {
			handler = handler.WithGroup(op.group)
			continue
		}

		handler = handler.WithAttrs(op.attrs)
	}

	return handler
}
