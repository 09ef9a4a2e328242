// Package singleton provides a process-wide registry that holds at most one instance per type.
//
// The registry is keyed by type identity. The first GetOrCreate call for a type runs the supplied
// constructor and stores its result, all later calls for the same type return the stored instance
// and never run their constructor.
//
// Usage:
//
//	sink, err := singleton.GetOrCreate(singleton.Default(), func() (*Sink, error) {
//		return NewSink(cfg)
//	})
//
// A constructor must not request its own type from the same registry, that call would block forever.
package singleton
