package logging

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

const (
	envLogPath      = "LOG_PATH"
	envLogFormat    = "LOG_FORMAT"
	envLogRotation  = "LOG_ROTATION"
	envLogLevel     = "LOG_LEVEL"
	envLogSerialize = "LOG_SERIALIZE"
	envLogDeleteOld = "LOG_DELETE_OLD"
	defaultLevel    = "INFO"
)

// LevelCritical sits above slog.LevelError.
const LevelCritical = slog.Level(12)

var (
	// ErrInvalidLevel is returned when a level name is not one of DEBUG, INFO, WARNING, ERROR, CRITICAL.
	ErrInvalidLevel = errors.New("invalid log level")

	// ErrInvalidRotation is returned when a rotation policy can't be parsed.
	ErrInvalidRotation = errors.New("invalid rotation policy")
)

// Config describes the process log sink.
type Config struct {
	// Path of the log file. Empty writes to stderr without rotation.
	Path string

	// Format is a text template with {time}, {level}, {message}, {extra} and {extra[key]} placeholders.
	// Empty uses slog's key=value layout.
	Format string

	// Rotation is a size threshold ("10 MB") or a time threshold ("1 day", "12h"). Empty disables rotation.
	// Sizes are rounded up to whole mebibytes and must be at least 1 MiB. Time thresholds also
	// rotate at 100 MB.
	Rotation string

	// Level is the minimum severity: DEBUG, INFO, WARNING, ERROR or CRITICAL.
	Level string

	// Serialize switches to JSON output and ignores Format.
	Serialize bool

	// DeleteOld removes a pre-existing file at Path before the sink starts.
	DeleteOld bool
}

// ConfigFromEnv reads the sink configuration from LOG_* environment variables.
//
// LOG_LEVEL defaults to INFO. LOG_SERIALIZE and LOG_DELETE_OLD accept strconv.ParseBool values,
// anything unparsable counts as false.
func ConfigFromEnv() Config {
	level := os.Getenv(envLogLevel)
	if level == "" {
		level = defaultLevel
	}

	return Config{
		Path:      os.Getenv(envLogPath),
		Format:    os.Getenv(envLogFormat),
		Rotation:  os.Getenv(envLogRotation),
		Level:     level,
		Serialize: envBool(envLogSerialize),
		DeleteOld: envBool(envLogDeleteOld),
	}
}

// ParseLevel maps a level name to its slog.Level. An empty name is INFO.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "", "INFO":
		return slog.LevelInfo, nil
	case "WARNING", "WARN":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	case "CRITICAL":
		return LevelCritical, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, name)
	}
}

// LevelName returns the name used in rendered records.
func LevelName(level slog.Level) string {
	switch {
	case level >= LevelCritical:
		return "CRITICAL"
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARNING"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

func envBool(key string) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return false
	}

	return value
}
