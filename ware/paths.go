package ware

import (
	"fmt"
	"strings"

	"github.com/AntonStoeckl/warekit/ware/logging"
)

// JoinPaths joins paths into one absolute path.
//
// Each element loses one leading "/" (or, if it has none, one leading "./") and one trailing "/"
// before it is appended as "/element". So "./" marks a path relative to the previous element:
//
//	JoinPaths("/srv/app/", "./var/db.sqlite") // "/srv/app/var/db.sqlite"
//
// An element that is empty after trimming is ErrInvalidArgument.
func JoinPaths(paths ...string) (string, error) {
	return logging.CatchValue(func() (string, error) {
		var b strings.Builder

		for i, path := range paths {
			trimmed := path
			if strings.HasPrefix(trimmed, "/") {
				trimmed = trimmed[1:]
			} else if strings.HasPrefix(trimmed, "./") {
				trimmed = trimmed[2:]
			}
			trimmed = strings.TrimSuffix(trimmed, "/")

			if trimmed == "" {
				return "", fmt.Errorf("%w: path element %d %q is empty", ErrInvalidArgument, i, path)
			}

			b.WriteByte('/')
			b.WriteString(trimmed)
		}

		return b.String(), nil
	})
}
