package dbengine

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/AntonStoeckl/warekit/ware"
	"github.com/AntonStoeckl/warekit/ware/logging"
)

const (
	schemeSeparator  = "://"
	schemeSQLite     = "sqlite"
	schemePostgres   = "postgres"
	schemePostgreSQL = "postgresql"
	memoryMarker     = ":memory:"
	sqlitePrefix     = schemeSQLite + ":///"
	memoryURI        = sqlitePrefix + memoryMarker
)

// NormalizeURI turns rawURI into a URI Open accepts.
//
// Any URI mentioning ":memory:" becomes "sqlite:///:memory:". A "sqlite://rel" URI becomes
// "sqlite:///" followed by JoinPaths(modulePath, rel), so the path part is absolute.
// PostgreSQL URIs are checked with pgx and returned unchanged.
// Any other scheme, or a URI without exactly one "://", is ErrInvalidArgument.
func NormalizeURI(modulePath, rawURI string) (string, error) {
	return logging.CatchValue(func() (string, error) {
		if strings.Contains(rawURI, memoryMarker) {
			return memoryURI, nil
		}

		parts := strings.Split(rawURI, schemeSeparator)
		if len(parts) != 2 {
			return "", fmt.Errorf("%w: database uri %q must contain exactly one %q", ware.ErrInvalidArgument, rawURI, schemeSeparator)
		}

		scheme, rest := parts[0], parts[1]

		switch scheme {
		case schemeSQLite:
			path, err := ware.JoinPaths(modulePath, rest)
			if err != nil {
				return "", err
			}

			return sqlitePrefix + path, nil

		case schemePostgres, schemePostgreSQL:
			if _, err := pgx.ParseConfig(rawURI); err != nil {
				return "", fmt.Errorf("%w: %v", ware.ErrInvalidArgument, err)
			}

			return rawURI, nil

		default:
			return "", fmt.Errorf("%w: Couldn't recognize database name: `%s`", ware.ErrInvalidArgument, scheme)
		}
	})
}

// schemeOf returns the scheme of a normalized URI, or "" if it has none.
func schemeOf(uri string) string {
	scheme, _, found := strings.Cut(uri, schemeSeparator)
	if !found {
		return ""
	}

	return scheme
}
