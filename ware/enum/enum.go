// Package enum models named, ordered sets of constant members, with helpers to join sets,
// collect their values and find the set a value belongs to.
package enum

import (
	"fmt"
	"slices"

	"github.com/AntonStoeckl/warekit/ware"
	"github.com/AntonStoeckl/warekit/ware/logging"
)

var ErrDuplicateMember = logging.NewErrorKind("duplicate enum member")

// Member is one named value of an Enum.
type Member[V comparable] struct {
	Name  string
	Value V
}

// Enum is an immutable ordered list of members with unique names.
type Enum[V comparable] struct {
	name    string
	members []Member[V]
}

// M is a shorthand for building a Member.
func M[V comparable](name string, value V) Member[V] {
	return Member[V]{Name: name, Value: value}
}

// New creates an Enum. Member names must be unique.
func New[V comparable](name string, members ...Member[V]) (Enum[V], error) {
	seen := make(map[string]struct{}, len(members))
	for _, member := range members {
		if _, exists := seen[member.Name]; exists {
			return Enum[V]{}, fmt.Errorf("%w: %s already in %s", ErrDuplicateMember, member.Name, name)
		}
		seen[member.Name] = struct{}{}
	}

	return Enum[V]{name: name, members: slices.Clone(members)}, nil
}

// Name returns the enum name.
func (e Enum[V]) Name() string {
	return e.name
}

// Members returns a copy of the members in declaration order.
func (e Enum[V]) Members() []Member[V] {
	return slices.Clone(e.members)
}

// Value returns the value of the member called name.
func (e Enum[V]) Value(name string) (V, bool) {
	for _, member := range e.members {
		if member.Name == name {
			return member.Value, true
		}
	}

	var empty V
	return empty, false
}

// Contains reports whether any member holds value.
func (e Enum[V]) Contains(value V) bool {
	return slices.ContainsFunc(e.members, func(member Member[V]) bool {
		return member.Value == value
	})
}

// Values returns the member values of all enums, in order.
func Values[V comparable](enums ...Enum[V]) []V {
	var values []V
	for _, e := range enums {
		for _, member := range e.members {
			values = append(values, member.Value)
		}
	}

	return values
}

// Extend builds a new enum named like applied, holding the members of every inherited enum
// followed by the members of applied. A member name occurring twice is ErrDuplicateMember.
func Extend[V comparable](applied Enum[V], inherited ...Enum[V]) (Enum[V], error) {
	var joined []Member[V]
	for _, e := range inherited {
		joined = append(joined, e.members...)
	}
	joined = append(joined, applied.members...)

	return New(applied.name, joined...)
}

// MatchContaining returns the first enum holding value.
// No enum holding it is ware.ErrInvalidArgument.
func MatchContaining[V comparable](value V, enums ...Enum[V]) (Enum[V], error) {
	for _, e := range enums {
		if e.Contains(value) {
			return e, nil
		}
	}

	message, err := ware.NewFormatter().Format("Given enums don't contain given value {}.", value)
	if err != nil {
		return Enum[V]{}, err
	}

	return Enum[V]{}, fmt.Errorf("%w: %s", ware.ErrInvalidArgument, message)
}
