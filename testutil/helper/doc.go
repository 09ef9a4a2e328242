// Package helper provides test helpers shared by the warekit test suites: a capturing slog.Handler
// and a guard that swaps the process sink in and out of the default singleton registry.
package helper
