// Package testdoubles provides test doubles (spies) for the logging observability interfaces.
//
//   - ContextualLoggerSpy: captures structured logging with context
//   - MetricsCollectorSpy: captures durations and counter increments for verification
//   - TracingCollectorSpy: captures span lifecycle and attributes
//
// These test doubles enable testing of the Catch instrumentation without requiring actual telemetry backends.
package testdoubles
