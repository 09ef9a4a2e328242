package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	megabyte        = 1024 * 1024
	dirPermissions  = 0o755
	filePermissions = 0o644
)

var durationWords = regexp.MustCompile(`^(\d+)\s*(second|minute|hour|day|week)s?$`)

var durationUnits = map[string]time.Duration{
	"second": time.Second,
	"minute": time.Minute,
	"hour":   time.Hour,
	"day":    24 * time.Hour,
	"week":   7 * 24 * time.Hour,
}

// rotationPolicy is either size based or time based. A time based policy keeps lumberjack's
// default size cap of 100 megabytes.
type rotationPolicy struct {
	maxSizeMB int
	interval  time.Duration
}

// parseRotation accepts "N second|minute|hour|day|week[s]", Go durations ("90m") and
// byte sizes ("10 MB", "2MiB"). Go durations win over sizes, so "10m" is ten minutes.
// lumberjack counts sizes in whole mebibytes: smaller sizes are rejected, larger ones rounded up.
func parseRotation(raw string) (rotationPolicy, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return rotationPolicy{}, nil
	}

	if match := durationWords.FindStringSubmatch(value); match != nil {
		count, err := strconv.Atoi(match[1])
		if err != nil || count <= 0 {
			return rotationPolicy{}, fmt.Errorf("%w: %q", ErrInvalidRotation, raw)
		}

		return rotationPolicy{interval: time.Duration(count) * durationUnits[match[2]]}, nil
	}

	if interval, err := time.ParseDuration(value); err == nil {
		if interval <= 0 {
			return rotationPolicy{}, fmt.Errorf("%w: %q", ErrInvalidRotation, raw)
		}

		return rotationPolicy{interval: interval}, nil
	}

	size, err := humanize.ParseBytes(value)
	if err != nil || size == 0 {
		return rotationPolicy{}, fmt.Errorf("%w: %q", ErrInvalidRotation, raw)
	}

	if size < megabyte {
		return rotationPolicy{}, fmt.Errorf("%w: %q is below the 1 MiB rotation granularity", ErrInvalidRotation, raw)
	}

	sizeMB := int((size + megabyte - 1) / megabyte)

	return rotationPolicy{maxSizeMB: sizeMB}, nil
}

// newFileWriter opens path for appending. With a rotation policy it is a compressing
// lumberjack writer, without one a plain file that never rotates.
func newFileWriter(path string, policy rotationPolicy, now func() time.Time) (io.WriteCloser, error) {
	if policy == (rotationPolicy{}) {
		if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
			return nil, err
		}

		return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, filePermissions)
	}

	file := &lumberjack.Logger{
		Filename: path,
		MaxSize:  policy.maxSizeMB,
		Compress: true,
	}

	if policy.interval <= 0 {
		return file, nil
	}

	return &intervalWriter{
		file:     file,
		interval: policy.interval,
		now:      now,
		next:     now().Add(policy.interval),
	}, nil
}

// intervalWriter rotates its file on the first write after each interval elapsed.
type intervalWriter struct {
	mu       sync.Mutex
	file     *lumberjack.Logger
	interval time.Duration
	now      func() time.Time
	next     time.Time
}

func (w *intervalWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if now := w.now(); !now.Before(w.next) {
		if err := w.file.Rotate(); err != nil {
			return 0, err
		}

		w.next = now.Add(w.interval)
	}

	return w.file.Write(p)
}

func (w *intervalWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.file.Close()
}
