package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/warekit/ware/singleton"
)

// ErrNilHandler is returned when a nil slog.Handler is supplied.
var ErrNilHandler = errors.New("slog handler must not be nil")

var fallbackSink = sync.OnceValue(func() *Sink {
	s := &Sink{
		id:   uuid.New(),
		now:  time.Now,
		exit: os.Exit,
	}
	s.useHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{ReplaceAttr: replaceLevelAttr}))

	return s
})

// Sink is the process log destination. Create the process sink with Configure,
// unregistered sinks with NewSink or NewSinkWithHandler.
type Sink struct {
	id               uuid.UUID
	logger           *slog.Logger
	handlers         *handlerSet
	contextualLogger ContextualLogger
	metricsCollector MetricsCollector
	tracingCollector TracingCollector
	now              func() time.Time
	exit             func(code int)
	closer           io.Closer
}

// Option defines a functional option for configuring a Sink.
type Option func(*Sink) error

// WithContextualLogger routes CatchContext records through logger, e.g. for trace correlation.
func WithContextualLogger(logger ContextualLogger) Option {
	return func(s *Sink) error {
		s.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the collector that times Catch boundaries and counts caught errors.
func WithMetrics(collector MetricsCollector) Option {
	return func(s *Sink) error {
		s.metricsCollector = collector
		return nil
	}
}

// WithTracing wraps every Catch boundary of the sink in a span.
func WithTracing(collector TracingCollector) Option {
	return func(s *Sink) error {
		s.tracingCollector = collector
		return nil
	}
}

// WithClock replaces time.Now for time based rotation.
func WithClock(now func() time.Time) Option {
	return func(s *Sink) error {
		if now != nil {
			s.now = now
		}

		return nil
	}
}

// WithExit replaces os.Exit for CatchExit.
func WithExit(exit func(code int)) Option {
	return func(s *Sink) error {
		if exit != nil {
			s.exit = exit
		}

		return nil
	}
}

// Configure creates the process sink on the first call and returns it on every later call.
// Arguments of later calls are ignored.
func Configure(cfg Config, options ...Option) (*Sink, error) {
	return singleton.GetOrCreate(singleton.Default(), func() (*Sink, error) {
		return NewSink(cfg, options...)
	})
}

// ConfigureWithHandler is Configure for a caller-supplied slog.Handler.
func ConfigureWithHandler(handler slog.Handler, options ...Option) (*Sink, error) {
	return singleton.GetOrCreate(singleton.Default(), func() (*Sink, error) {
		return NewSinkWithHandler(handler, options...)
	})
}

// Current returns the configured process sink.
// Before Configure ran it returns an unregistered stderr sink, so a later Configure still takes effect.
func Current() *Sink {
	if sink, ok := singleton.Lookup[*Sink](singleton.Default()); ok && sink != nil {
		return sink
	}

	return fallbackSink()
}

// NewSink builds a Sink from cfg without registering it.
func NewSink(cfg Config, options ...Option) (*Sink, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	policy, err := parseRotation(cfg.Rotation)
	if err != nil {
		return nil, err
	}

	s, err := newSink(options)
	if err != nil {
		return nil, err
	}

	if cfg.DeleteOld && cfg.Path != "" {
		if removeErr := removeRegularFile(cfg.Path); removeErr != nil {
			return nil, removeErr
		}
	}

	var w io.Writer = os.Stderr
	if cfg.Path != "" {
		file, fileErr := newFileWriter(cfg.Path, policy, s.now)
		if fileErr != nil {
			return nil, fileErr
		}

		s.closer = file
		w = file
	}

	s.useHandler(buildHandler(w, cfg, level))

	return s, nil
}

// NewSinkWithHandler builds a Sink around handler without registering it.
func NewSinkWithHandler(handler slog.Handler, options ...Option) (*Sink, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}

	s, err := newSink(options)
	if err != nil {
		return nil, err
	}

	s.useHandler(handler)

	return s, nil
}

func newSink(options []Option) (*Sink, error) {
	s := &Sink{
		id:   uuid.New(),
		now:  time.Now,
		exit: os.Exit,
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func buildHandler(w io.Writer, cfg Config, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevelAttr,
	}

	switch {
	case cfg.Serialize:
		return slog.NewJSONHandler(w, opts)
	case cfg.Format != "":
		return newTemplateHandler(w, cfg.Format, level)
	default:
		return slog.NewTextHandler(w, opts)
	}
}

func removeRegularFile(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	if !info.Mode().IsRegular() {
		return nil
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("removing old log file: %w", err)
	}

	return nil
}

func (s *Sink) useHandler(primary slog.Handler) {
	s.handlers = newHandlerSet(primary)
	s.logger = slog.New(&fanoutHandler{set: s.handlers})
}

// AddHandler sends every later record of the sink to handler as well and returns an ID for
// RemoveHandler. The handler given at construction has ID 0.
func (s *Sink) AddHandler(handler slog.Handler) (int, error) {
	if handler == nil {
		return 0, ErrNilHandler
	}

	return s.handlers.add(handler), nil
}

// RemoveHandler stops sending records to the handler with the given ID.
func (s *Sink) RemoveHandler(id int) error {
	if !s.handlers.remove(id) {
		return fmt.Errorf("%w: %d", ErrUnknownHandler, id)
	}

	return nil
}

// ID identifies this sink instance.
func (s *Sink) ID() uuid.UUID {
	return s.id
}

// Logger exposes the underlying slog.Logger.
func (s *Sink) Logger() *slog.Logger {
	return s.logger
}

// Debug logs at debug level.
func (s *Sink) Debug(msg string, args ...any) {
	s.logger.Debug(msg, args...)
}

// Info logs at info level.
func (s *Sink) Info(msg string, args ...any) {
	s.logger.Info(msg, args...)
}

// Warn logs at warning level.
func (s *Sink) Warn(msg string, args ...any) {
	s.logger.Warn(msg, args...)
}

// Error logs at error level.
func (s *Sink) Error(msg string, args ...any) {
	s.logger.Error(msg, args...)
}

// Critical logs at LevelCritical.
func (s *Sink) Critical(msg string, args ...any) {
	s.logger.Log(context.Background(), LevelCritical, msg, args...)
}

// Close releases the log file, if any.
func (s *Sink) Close() error {
	if s.closer == nil {
		return nil
	}

	return s.closer.Close()
}
