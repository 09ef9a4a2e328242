// Package logging provides a process-wide log sink over log/slog and the Catch wrapper that logs
// every failure exactly once.
//
// The sink is singleton-scoped: Configure builds it through the default singleton registry, so only
// one sink configuration exists per process and later Configure calls return the first sink unchanged.
//
// Catch runs an operation and observes its error. The first Catch boundary an error crosses emits one
// error-level record tagged with the origin ("<package>.<function>") and returns a *LoggedError that
// wraps the original. Outer Catch boundaries recognize the marker and pass the error through without
// logging again. Catch never suppresses an error.
//
// Usage examples:
//
//	// Configure once at program start
//	sink, err := logging.Configure(logging.Config{
//		Path:     "var/app.log",
//		Format:   "{time} | {level} | {message} | {extra}",
//		Rotation: "10 MB",
//		Level:    "INFO",
//	})
//
//	// Wrap helpers
//	func LoadSettings(path string) (Settings, error) {
//		return logging.CatchValue(func() (Settings, error) {
//			return parse(path)
//		})
//	}
package logging
