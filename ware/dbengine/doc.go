// Package dbengine normalizes database URIs and opens sqlite or PostgreSQL connections for them.
//
// Relative sqlite paths are resolved against a module directory:
//
//	uri, err := dbengine.NormalizeURI("/srv/app", "sqlite://var/app.db") // "sqlite:////srv/app/var/app.db"
//	db, err := dbengine.Open(ctx, uri, dbengine.WithLogger(slog.Default()))
//
// sqlite is served by the pure Go modernc.org/sqlite driver, PostgreSQL by lib/pq behind sqlx,
// or by a pgx pool through OpenPGXPool. Every operation runs inside a logging.Catch boundary.
package dbengine
