package helper

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/warekit/ware/logging"
	"github.com/AntonStoeckl/warekit/ware/singleton"
)

// GivenProcessSinkSpy resets the default registry, configures the process sink around a fresh
// LogHandlerSpy and resets the registry again when the test ends.
// Tests using it must not run in parallel.
func GivenProcessSinkSpy(t testing.TB, options ...logging.Option) (*logging.Sink, *LogHandlerSpy) {
	t.Helper()

	singleton.Default().Reset()
	t.Cleanup(singleton.Default().Reset)

	spy := NewLogHandlerSpy(false)
	sink, err := logging.ConfigureWithHandler(spy, options...)
	require.NoError(t, err, "error in arranging test data")

	return sink, spy
}
