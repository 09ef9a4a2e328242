package ware

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/AntonStoeckl/warekit/ware/logging"
)

const (
	placeholder          = "{}"
	defaultNoArgPhrase   = "None"
	defaultEnclosingChar = "`"
)

var defaultFormatter = NewFormatter()

// Formatter fills "{}" placeholders with enclosed argument values.
type Formatter struct {
	noArgPhrase string
	enclosing   string
}

// FormatOption configures a Formatter.
type FormatOption func(*Formatter)

// WithNoArgPhrase sets the text written in place of missing values. Defaults to "None".
func WithNoArgPhrase(phrase string) FormatOption {
	return func(f *Formatter) {
		f.noArgPhrase = phrase
	}
}

// WithEnclosingChar sets the text written on both sides of every value. Defaults to a backtick.
func WithEnclosingChar(enclosing string) FormatOption {
	return func(f *Formatter) {
		f.enclosing = enclosing
	}
}

// WithoutEnclosing writes values bare.
func WithoutEnclosing() FormatOption {
	return WithEnclosingChar("")
}

// NewFormatter creates a Formatter with the phrase "None" and backtick enclosing unless overridden.
func NewFormatter(options ...FormatOption) *Formatter {
	f := &Formatter{
		noArgPhrase: defaultNoArgPhrase,
		enclosing:   defaultEnclosingChar,
	}

	for _, option := range options {
		option(f)
	}

	return f
}

// FormatMessage formats text with the default Formatter.
//
//	FormatMessage("Value is {}", []any{nil}) // "Value is `None`"
func FormatMessage(text string, args ...any) (string, error) {
	return logging.CatchValue(func() (string, error) {
		return defaultFormatter.format(text, args)
	})
}

// Format replaces each "{}" in text with the next value, enclosed.
//
// Slice arguments are unpacked into their elements, an empty slice counts as one missing value.
// Missing values are nil, empty strings, zero floats, empty collections and nil pointers; they are
// written as the no-arg phrase. Integers and booleans are always written, zero and false included.
// A placeholder count different from the value count is ErrFormatMismatch.
func (f *Formatter) Format(text string, args ...any) (string, error) {
	return logging.CatchValue(func() (string, error) {
		return f.format(text, args)
	})
}

func (f *Formatter) format(text string, args []any) (string, error) {
	values := f.collect(args)

	if count := strings.Count(text, placeholder); count != len(values) {
		return "", fmt.Errorf("%w: text %q has %d placeholders for %d values %v",
			ErrFormatMismatch, text, count, len(values), values)
	}

	parts := strings.Split(text, placeholder)

	var b strings.Builder
	b.WriteString(parts[0])
	for i, value := range values {
		b.WriteString(f.enclosing)
		b.WriteString(value)
		b.WriteString(f.enclosing)
		b.WriteString(parts[i+1])
	}

	return b.String(), nil
}

func (f *Formatter) collect(args []any) []string {
	values := make([]string, 0, len(args))

	for _, arg := range args {
		rv := reflect.ValueOf(arg)
		if arg == nil || rv.Kind() != reflect.Slice {
			values = append(values, f.render(arg))
			continue
		}

		if rv.Len() == 0 {
			values = append(values, f.noArgPhrase)
			continue
		}

		for i := range rv.Len() {
			values = append(values, f.render(rv.Index(i).Interface()))
		}
	}

	return values
}

func (f *Formatter) render(value any) string {
	if isMissing(value) {
		return f.noArgPhrase
	}

	return fmt.Sprint(value)
}

func isMissing(value any) bool {
	if value == nil {
		return true
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String, reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() == 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() == 0
	case reflect.Complex64, reflect.Complex128:
		return rv.Complex() == 0
	case reflect.Pointer, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
