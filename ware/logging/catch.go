package logging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	logAttrNode         = "node"
	logAttrErrorType    = "error_type"
	logAttrErrorID      = "error_id"
	logAttrStatus       = "status"
	metricCaughtErrors  = "caught_errors_total"
	metricCatchDuration = "catch_duration_seconds"
	spanNamePrefix      = "catch "
	statusSuccess       = "success"
	statusError         = "error"
	unknownOrigin       = "unknown"
	genericSuffix       = "[...]"
	exitFailure         = 1
)

// ErrorKind is a sentinel error whose text is a stable error_type label.
// Create package sentinels with NewErrorKind and wrap them with %w to add details.
type ErrorKind struct {
	name string
}

// NewErrorKind creates a sentinel error named name.
func NewErrorKind(name string) error {
	return &ErrorKind{name: name}
}

func (k *ErrorKind) Error() string {
	return k.name
}

// LoggedError marks an error that has already been logged by a Catch boundary.
// It wraps the original error, so errors.Is and errors.As still match the original kind and its causes.
type LoggedError struct {
	Origin string
	ID     uuid.UUID
	Err    error
}

func (e *LoggedError) Error() string {
	return e.Origin + ": " + e.Err.Error()
}

func (e *LoggedError) Unwrap() error {
	return e.Err
}

// IsLogged reports whether every failure in err has already been logged by a Catch boundary.
// A joined error counts as logged only if each of its branches does.
func IsLogged(err error) bool {
	for err != nil {
		switch e := err.(type) {
		case *LoggedError:
			return true
		case interface{ Unwrap() []error }:
			branches := e.Unwrap()
			if len(branches) == 0 {
				return false
			}

			for _, branch := range branches {
				if !IsLogged(branch) {
					return false
				}
			}

			return true
		}

		err = errors.Unwrap(err)
	}

	return false
}

// Catch runs fn with the Current sink and the caller as origin.
func Catch(fn func() error) error {
	return Current().catch(context.Background(), callerOrigin(1), slog.LevelError, ignoreContext(fn))
}

// CatchContext runs fn with the Current sink and the caller as origin, logging with ctx.
func CatchContext(ctx context.Context, fn func(ctx context.Context) error) error {
	return Current().catch(ctx, callerOrigin(1), slog.LevelError, fn)
}

// CatchExit is the outermost boundary of a program: it runs fn with the Current sink and the
// caller as origin, and terminates the process with exit code 1 if fn fails.
func CatchExit(fn func() error) {
	Current().catchExit(callerOrigin(1), fn)
}

// CatchValue is Catch for operations returning a value. On error the zero value is returned.
func CatchValue[T any](fn func() (T, error)) (T, error) {
	var result T

	err := Current().catch(context.Background(), callerOrigin(1), slog.LevelError, func(context.Context) error {
		var fnErr error
		result, fnErr = fn()
		return fnErr
	})
	if err != nil {
		var empty T
		return empty, err
	}

	return result, nil
}

// Catch runs fn and logs its error once under origin.
//
// A nil error is returned unchanged. An error that IsLogged is returned unchanged without
// logging. Any other error is logged at error level and returned wrapped in a *LoggedError.
// A joined error with a branch not yet logged is logged as a whole, so its logged branches
// appear in that record a second time.
func (s *Sink) Catch(origin string, fn func() error) error {
	return s.catch(context.Background(), origin, slog.LevelError, ignoreContext(fn))
}

// CatchExit runs fn as the outermost boundary of a program. A failure not yet logged is logged
// at LevelCritical, then the process exits with code 1 (see WithExit).
func (s *Sink) CatchExit(origin string, fn func() error) {
	s.catchExit(origin, fn)
}

func (s *Sink) catchExit(origin string, fn func() error) {
	if err := s.catch(context.Background(), origin, LevelCritical, ignoreContext(fn)); err != nil {
		s.exit(exitFailure)
	}
}

// CatchContext is Catch with a context for the log record. With a ContextualLogger configured,
// the record goes through it instead of the sink's slog.Logger. With a TracingCollector configured,
// fn receives the context of the span opened for this boundary.
func (s *Sink) CatchContext(ctx context.Context, origin string, fn func(ctx context.Context) error) error {
	return s.catch(ctx, origin, slog.LevelError, fn)
}

func (s *Sink) catch(ctx context.Context, origin string, level slog.Level, fn func(ctx context.Context) error) error {
	start := time.Now()
	ctx, spanCtx := s.startSpan(ctx, origin)

	err := fn(ctx)

	duration := time.Since(start)

	switch {
	case err == nil:
		s.recordDuration(ctx, origin, statusSuccess, duration)
		s.finishSpan(spanCtx, statusSuccess, nil)

		return nil

	case IsLogged(err):
		s.recordDuration(ctx, origin, statusError, duration)
		s.finishSpan(spanCtx, statusError, nil)

		return err
	}

	logged := &LoggedError{
		Origin: origin,
		ID:     uuid.New(),
		Err:    err,
	}

	errorType := ErrorType(err)
	s.logCaught(ctx, level, logged, errorType)
	s.recordDuration(ctx, origin, statusError, duration)
	s.recordCaughtMetrics(ctx, origin, errorType)
	s.finishSpan(spanCtx, statusError, map[string]string{
		logAttrErrorType: errorType,
		logAttrErrorID:   logged.ID.String(),
	})

	return logged
}

func ignoreContext(fn func() error) func(context.Context) error {
	return func(context.Context) error {
		return fn()
	}
}

// logCaught emits the single record for a caught error. A contextual logger only knows
// error level, so it receives critical records at error level too.
func (s *Sink) logCaught(ctx context.Context, level slog.Level, logged *LoggedError, errorType string) {
	args := []any{
		logAttrNode, logged.Origin,
		logAttrErrorType, errorType,
		logAttrErrorID, logged.ID.String(),
	}

	if s.contextualLogger != nil {
		s.contextualLogger.ErrorContext(ctx, logged.Err.Error(), args...)
		return
	}

	s.logger.Log(ctx, level, logged.Err.Error(), args...)
}

// recordDuration records how long a Catch boundary ran if the metrics collector is configured.
func (s *Sink) recordDuration(ctx context.Context, origin, status string, duration time.Duration) {
	if s.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		logAttrNode:   origin,
		logAttrStatus: status,
	}

	if contextual, ok := s.metricsCollector.(ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metricCatchDuration, duration, labels)
		return
	}

	s.metricsCollector.RecordDuration(metricCatchDuration, duration, labels)
}

// recordCaughtMetrics counts a caught error if the metrics collector is configured.
func (s *Sink) recordCaughtMetrics(ctx context.Context, origin, errorType string) {
	if s.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		logAttrNode:      origin,
		logAttrErrorType: errorType,
	}

	if contextual, ok := s.metricsCollector.(ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metricCaughtErrors, labels)
		return
	}

	s.metricsCollector.IncrementCounter(metricCaughtErrors, labels)
}

// startSpan opens a span for a Catch boundary if the tracing collector is configured.
func (s *Sink) startSpan(ctx context.Context, origin string) (context.Context, SpanContext) {
	if s.tracingCollector == nil {
		return ctx, nil
	}

	return s.tracingCollector.StartSpan(ctx, spanNamePrefix+origin, map[string]string{logAttrNode: origin})
}

// finishSpan closes a span opened by startSpan.
func (s *Sink) finishSpan(spanCtx SpanContext, status string, attrs map[string]string) {
	if s.tracingCollector == nil || spanCtx == nil {
		return
	}

	s.tracingCollector.FinishSpan(spanCtx, status, attrs)
}

// ErrorType names the kind of err for metric labels: the name of the first ErrorKind in its
// chain, or else the Go type of the innermost error. Error texts never become labels.
func ErrorType(err error) string {
	var kind *ErrorKind
	if errors.As(err, &kind) {
		return kind.name
	}

	root := err
	for {
		next := errors.Unwrap(root)
		if next == nil {
			break
		}
		root = next
	}

	return fmt.Sprintf("%T", root)
}

// callerOrigin returns "<package>.<function>" of the function skip frames above its caller.
func callerOrigin(skip int) string {
	pcs := make([]uintptr, 8)
	if runtime.Callers(skip+2, pcs) == 0 {
		return unknownOrigin
	}

	frame, _ := runtime.CallersFrames(pcs).Next()
	if frame.Function == "" {
		return unknownOrigin
	}

	return shortFuncName(frame.Function)
}

// shortFuncName strips the import path and type arguments:
// "github.com/x/y/ware.LoadJSONFromEnv[...]" becomes "ware.LoadJSONFromEnv".
func shortFuncName(name string) string {
	name = strings.ReplaceAll(name, genericSuffix, "")

	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		return name[i+1:]
	}

	return name
}
