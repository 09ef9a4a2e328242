package singleton

import (
	"reflect"
	"sync"
)

var defaultRegistry = NewRegistry()

// Registry maps a type identity to its single instance.
type Registry struct {
	mu      sync.Mutex
	entries map[reflect.Type]*entry
}

type entry struct {
	mu       sync.Mutex
	created  bool
	instance any
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[reflect.Type]*entry),
	}
}

// Default returns the process-wide Registry.
func Default() *Registry {
	return defaultRegistry
}

// GetOrCreate returns the instance stored for T, constructing it on the first request.
//
// Later calls ignore their construct func and return the stored instance unchanged.
// If construct fails, its error is returned as-is and nothing is stored, so the next call constructs again.
func GetOrCreate[T any](r *Registry, construct func() (T, error)) (T, error) {
	e := r.entryFor(typeOf[T]())

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.created {
		return instanceAs[T](e), nil
	}

	instance, err := construct()
	if err != nil {
		var empty T
		return empty, err
	}

	e.instance = instance
	e.created = true

	return instance, nil
}

// Lookup returns the instance stored for T without constructing one.
func Lookup[T any](r *Registry) (T, bool) {
	var empty T

	r.mu.Lock()
	e, ok := r.entries[typeOf[T]()]
	r.mu.Unlock()

	if !ok {
		return empty, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.created {
		return empty, false
	}

	return instanceAs[T](e), true
}

// Len returns the number of constructed instances.
func (r *Registry) Len() int {
	r.mu.Lock()
	entries := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.Unlock()

	count := 0
	for _, e := range entries {
		e.mu.Lock()
		if e.created {
			count++
		}
		e.mu.Unlock()
	}

	return count
}

// Reset drops all stored instances. Intended for tests.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = make(map[reflect.Type]*entry)
}

// entryFor inserts an empty entry for t if absent and returns it.
func (r *Registry) entryFor(t reflect.Type) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[t]
	if !ok {
		e = &entry{}
		r.entries[t] = e
	}

	return e
}

// instanceAs tolerates a stored nil interface value.
func instanceAs[T any](e *entry) T {
	instance, _ := e.instance.(T)
	return instance
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
