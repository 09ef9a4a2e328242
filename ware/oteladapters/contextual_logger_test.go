package oteladapters_test

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/embedded"
	"go.opentelemetry.io/otel/log/noop"
	"go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/AntonStoeckl/warekit/testutil/helper"
	"github.com/AntonStoeckl/warekit/ware/logging"
	"github.com/AntonStoeckl/warekit/ware/oteladapters"
)

// emittedRecord is the part of a log.Record the tests assert on, copied at Emit time.
type emittedRecord struct {
	severity log.Severity
	body     string
	attrs    map[string]string
}

// recordingLogger is an OpenTelemetry log.Logger keeping every emitted record with its context.
type recordingLogger struct {
	embedded.Logger

	mu       sync.Mutex
	records  []emittedRecord
	contexts []context.Context
}

func (l *recordingLogger) Emit(ctx context.Context, record log.Record) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, emittedRecord{
		severity: record.Severity(),
		body:     record.Body().AsString(),
		attrs:    attributesOf(record),
	})
	l.contexts = append(l.contexts, ctx)
}

func (l *recordingLogger) Enabled(context.Context, log.EnabledParameters) bool {
	return true
}

func attributesOf(record log.Record) map[string]string {
	attrs := make(map[string]string)
	record.WalkAttributes(func(kv log.KeyValue) bool {
		attrs[kv.Key] = kv.Value.AsString()
		return true
	})

	return attrs
}

func Test_SlogBridgeLogger_AllLevels(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})

	logger := oteladapters.NewSlogBridgeLoggerWithHandler(handler)
	ctx := context.Background()

	logger.DebugContext(ctx, "debug message", "level_name", "debug")
	logger.InfoContext(ctx, "info message", "level_name", "info")
	logger.WarnContext(ctx, "warn message", "level_name", "warn")
	logger.ErrorContext(ctx, "error message", "level_name", "error")

	output := buf.String()
	assert.Contains(t, output, `"level":"DEBUG","msg":"debug message"`)
	assert.Contains(t, output, `"level":"INFO","msg":"info message"`)
	assert.Contains(t, output, `"level":"WARN","msg":"warn message"`)
	assert.Contains(t, output, `"level":"ERROR","msg":"error message"`)
}

func Test_SlogBridgeLogger_WithBridgeProvider_DoesNotPanic(t *testing.T) {
	logger := oteladapters.NewSlogBridgeLogger("warekit")

	assert.NotPanics(t, func() {
		logger.ErrorContext(context.Background(), "boom", "node", "ware.LoadYAML")
	})

	assert.NotNil(t, oteladapters.NewBridgeHandler("warekit"))
}

func Test_SlogBridgeLogger_AsCatchLogger(t *testing.T) {
	var buf bytes.Buffer
	bridge := oteladapters.NewSlogBridgeLoggerWithHandler(slog.NewJSONHandler(&buf, nil))

	handlerSpy := helper.NewLogHandlerSpy(false)
	sink, err := logging.NewSinkWithHandler(handlerSpy, logging.WithContextualLogger(bridge))
	require.NoError(t, err)

	err = sink.CatchContext(context.Background(), "ware.LoadYAML", func(context.Context) error {
		return assert.AnError
	})

	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 0, handlerSpy.GetRecordCount())
	assert.Contains(t, buf.String(), `"node":"ware.LoadYAML"`)
	assert.Contains(t, buf.String(), `"error_type":"*errors.errorString"`)
}

func Test_OTelLogger_AllLevels(t *testing.T) {
	otelLogger := &recordingLogger{}
	logger := oteladapters.NewOTelLogger(otelLogger)
	ctx := context.Background()

	logger.DebugContext(ctx, "debug message")
	logger.InfoContext(ctx, "info message")
	logger.WarnContext(ctx, "warn message")
	logger.ErrorContext(ctx, "error message", "node", "ware.JoinPaths", "attempt", 3, "dangling")

	require.Len(t, otelLogger.records, 4)
	assert.Equal(t, log.SeverityDebug, otelLogger.records[0].severity)
	assert.Equal(t, log.SeverityInfo, otelLogger.records[1].severity)
	assert.Equal(t, log.SeverityWarn, otelLogger.records[2].severity)
	assert.Equal(t, log.SeverityError, otelLogger.records[3].severity)

	assert.Equal(t, "error message", otelLogger.records[3].body)
	assert.Equal(t, map[string]string{"node": "ware.JoinPaths", "attempt": "3"}, otelLogger.records[3].attrs)
}

func Test_OTelLogger_NoopProvider(t *testing.T) {
	logger := oteladapters.NewOTelLogger(noop.NewLoggerProvider().Logger("test"))

	assert.NotPanics(t, func() {
		logger.InfoContext(context.Background(), "test message", "key1", "value1", "key2")
	})
}

func Test_OTelLogger_CatchRecordCarriesTraceContext(t *testing.T) {
	provider := trace.NewTracerProvider()
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	otelLogger := &recordingLogger{}
	sink, err := logging.NewSinkWithHandler(
		helper.NewLogHandlerSpy(false),
		logging.WithContextualLogger(oteladapters.NewOTelLogger(otelLogger)),
		logging.WithTracing(oteladapters.NewTracingCollector(provider.Tracer("warekit"))),
	)
	require.NoError(t, err)

	var innerSpan oteltrace.SpanContext
	err = sink.CatchContext(context.Background(), "dbengine.Open", func(ctx context.Context) error {
		innerSpan = oteltrace.SpanContextFromContext(ctx)
		return assert.AnError
	})
	require.Error(t, err)

	require.Len(t, otelLogger.records, 1)
	assert.Equal(t, log.SeverityError, otelLogger.records[0].severity)
	assert.Equal(t, "*errors.errorString", otelLogger.records[0].attrs["error_type"])

	loggedSpan := oteltrace.SpanContextFromContext(otelLogger.contexts[0])
	assert.True(t, innerSpan.IsValid())
	assert.Equal(t, innerSpan.TraceID(), loggedSpan.TraceID())
	assert.Equal(t, innerSpan.SpanID(), loggedSpan.SpanID())
}
