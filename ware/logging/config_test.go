package logging_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/warekit/ware/logging"
)

func Test_ParseLevel(t *testing.T) {
	testCases := []struct {
		name     string
		expected slog.Level
	}{
		{name: "DEBUG", expected: slog.LevelDebug},
		{name: "", expected: slog.LevelInfo},
		{name: "info", expected: slog.LevelInfo},
		{name: "WARNING", expected: slog.LevelWarn},
		{name: "WARN", expected: slog.LevelWarn},
		{name: "ERROR", expected: slog.LevelError},
		{name: " critical ", expected: logging.LevelCritical},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			level, err := logging.ParseLevel(tc.name)
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, level)
		})
	}
}

func Test_ParseLevel_Unknown(t *testing.T) {
	_, err := logging.ParseLevel("FATAL")

	assert.ErrorIs(t, err, logging.ErrInvalidLevel)
}

func Test_LevelName(t *testing.T) {
	assert.Equal(t, "DEBUG", logging.LevelName(slog.LevelDebug))
	assert.Equal(t, "INFO", logging.LevelName(slog.LevelInfo))
	assert.Equal(t, "WARNING", logging.LevelName(slog.LevelWarn))
	assert.Equal(t, "ERROR", logging.LevelName(slog.LevelError))
	assert.Equal(t, "CRITICAL", logging.LevelName(logging.LevelCritical))
}

func Test_ConfigFromEnv(t *testing.T) {
	t.Setenv("LOG_PATH", "/var/log/app.log")
	t.Setenv("LOG_FORMAT", "{time} {message}")
	t.Setenv("LOG_ROTATION", "1 day")
	t.Setenv("LOG_LEVEL", "ERROR")
	t.Setenv("LOG_SERIALIZE", "true")
	t.Setenv("LOG_DELETE_OLD", "not-a-bool")

	cfg := logging.ConfigFromEnv()

	assert.Equal(t, logging.Config{
		Path:      "/var/log/app.log",
		Format:    "{time} {message}",
		Rotation:  "1 day",
		Level:     "ERROR",
		Serialize: true,
		DeleteOld: false,
	}, cfg)
}

func Test_ConfigFromEnv_DefaultsLevelToInfo(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")

	cfg := logging.ConfigFromEnv()

	assert.Equal(t, "INFO", cfg.Level)
}
