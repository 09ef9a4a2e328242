// Package ware holds small process helpers: path joining, a JSON bridge through environment
// variables, YAML and JSON files, message formatting and a few collection checks.
//
// Every fallible helper except GetOrError runs inside logging.Catch, so a failure is logged once
// at the helper that produced it and callers receive a *logging.LoggedError wrapping one of the
// sentinel errors below. Use errors.Is to branch on the kind:
//
//	settings, err := ware.LoadYAML("config/app.yaml", ware.LoaderSafe)
//	if errors.Is(err, ware.ErrUnexpectedType) {
//		// document root is not a mapping
//	}
package ware
