package dbengine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"  // dialect import
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"  // driver import
	_ "modernc.org/sqlite" // driver import

	"github.com/AntonStoeckl/warekit/ware"
	"github.com/AntonStoeckl/warekit/ware/logging"
)

const (
	driverSQLite          = "sqlite"
	driverPostgres        = "postgres"
	dialectSQLite         = "sqlite3"
	dialectPostgres       = "postgres"
	defaultPingTimeout    = 5 * time.Second
	tableSQLiteMaster     = "sqlite_master"
	tableInfoSchemaTables = "tables"
	schemaInformation     = "information_schema"
	colType               = "type"
	colName               = "name"
	colTableSchema        = "table_schema"
	colTableName          = "table_name"
	typeTable             = "table"
	logMsgOpened          = "database opened"
	logMsgClosed          = "database closed"
	logMsgSQLExecuted     = "executed sql for: "
	logAttrDialect        = "dialect"
	logAttrQuery          = "query"
	logAttrDurationMS     = "duration_ms"
	logActionTableExists  = "table_exists"
)

// ErrNilDatabase is returned for operations on a Database without an open connection.
var ErrNilDatabase = logging.NewErrorKind("database connection must not be nil")

// Logger interface for SQL query logging and lifecycle messages.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Database is an open sqlite or PostgreSQL connection pool.
type Database struct {
	db          *sqlx.DB
	dialect     string
	logger      Logger
	pingTimeout time.Duration
}

// Option defines a functional option for configuring a Database.
type Option func(*Database) error

// WithLogger sets the logger for the Database.
// Debug level receives executed SQL with timing, Info level open and close events.
func WithLogger(logger Logger) Option {
	return func(d *Database) error {
		d.logger = logger
		return nil
	}
}

// WithPingTimeout bounds the connectivity check Open runs before returning.
func WithPingTimeout(timeout time.Duration) Option {
	return func(d *Database) error {
		if timeout <= 0 {
			return fmt.Errorf("%w: ping timeout must be positive, got %s", ware.ErrInvalidArgument, timeout)
		}

		d.pingTimeout = timeout

		return nil
	}
}

// Open connects to the database named by a normalized uri (see NormalizeURI) and pings it.
//
// "sqlite:///<path>" opens the file at <path> and "sqlite:///:memory:" a private in-memory
// database held by a single connection. "postgres://" and "postgresql://" URIs open through lib/pq.
func Open(ctx context.Context, uri string, options ...Option) (*Database, error) {
	var database *Database

	err := logging.CatchContext(ctx, func(ctx context.Context) error {
		d := &Database{pingTimeout: defaultPingTimeout}

		for _, option := range options {
			if err := option(d); err != nil {
				return err
			}
		}

		if err := d.connect(ctx, uri); err != nil {
			return err
		}

		database = d

		return nil
	})
	if err != nil {
		return nil, err
	}

	return database, nil
}

func (d *Database) connect(ctx context.Context, uri string) error {
	var driver, dsn string

	switch schemeOf(uri) {
	case schemeSQLite:
		if !strings.HasPrefix(uri, sqlitePrefix) {
			return fmt.Errorf("%w: sqlite uri %q is not normalized", ware.ErrInvalidArgument, uri)
		}

		driver, dsn, d.dialect = driverSQLite, strings.TrimPrefix(uri, sqlitePrefix), dialectSQLite

	case schemePostgres, schemePostgreSQL:
		driver, dsn, d.dialect = driverPostgres, uri, dialectPostgres

	default:
		return fmt.Errorf("%w: Couldn't recognize database uri: `%s`", ware.ErrInvalidArgument, uri)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return err
	}

	if dsn == memoryMarker {
		// every connection would see its own empty database
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, d.pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping %s database: %w", d.dialect, err)
	}

	d.db = db

	if d.logger != nil {
		d.logger.Info(logMsgOpened, logAttrDialect, d.dialect)
	}

	return nil
}

// OpenPGXPool opens a pgx connection pool for a PostgreSQL uri and pings it.
func OpenPGXPool(ctx context.Context, uri string) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool

	err := logging.CatchContext(ctx, func(ctx context.Context) error {
		if scheme := schemeOf(uri); scheme != schemePostgres && scheme != schemePostgreSQL {
			return fmt.Errorf("%w: pgx pool needs a postgres uri, got %q", ware.ErrInvalidArgument, uri)
		}

		cfg, err := pgxpool.ParseConfig(uri)
		if err != nil {
			return fmt.Errorf("%w: %v", ware.ErrInvalidArgument, err)
		}

		p, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return fmt.Errorf("new pool: %w", err)
		}

		pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
		defer cancel()

		if err := p.Ping(pingCtx); err != nil {
			p.Close()
			return fmt.Errorf("ping db: %w", err)
		}

		pool = p

		return nil
	})
	if err != nil {
		return nil, err
	}

	return pool, nil
}

// Dialect returns the goqu dialect name of the database: "sqlite3" or "postgres".
func (d *Database) Dialect() string {
	return d.dialect
}

// SQLX returns the underlying connection pool.
func (d *Database) SQLX() *sqlx.DB {
	return d.db
}

// TableExists reports whether a table with the given name exists in the current schema.
func (d *Database) TableExists(ctx context.Context, table string) (bool, error) {
	var exists bool

	err := logging.CatchContext(ctx, func(ctx context.Context) error {
		if d.db == nil {
			return ErrNilDatabase
		}

		if table == "" {
			return fmt.Errorf("%w: table name must not be empty", ware.ErrInvalidArgument)
		}

		query, args, err := d.buildTableExistsQuery(table)
		if err != nil {
			return err
		}

		start := time.Now()

		var count int
		if err := d.db.GetContext(ctx, &count, query, args...); err != nil {
			return err
		}

		d.logQuery(logActionTableExists, query, time.Since(start))

		exists = count > 0

		return nil
	})
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (d *Database) buildTableExistsQuery(table string) (string, []any, error) {
	dialect := goqu.Dialect(d.dialect)

	if d.dialect == dialectSQLite {
		return dialect.
			From(tableSQLiteMaster).
			Select(goqu.COUNT(goqu.Star())).
			Where(
				goqu.C(colType).Eq(typeTable),
				goqu.C(colName).Eq(table),
			).
			Prepared(true).
			ToSQL()
	}

	return dialect.
		From(goqu.S(schemaInformation).Table(tableInfoSchemaTables)).
		Select(goqu.COUNT(goqu.Star())).
		Where(
			goqu.C(colTableSchema).Eq(goqu.L("current_schema()")),
			goqu.C(colTableName).Eq(table),
		).
		Prepared(true).
		ToSQL()
}

// Close closes the connection pool. Closing a Database twice is a no-op.
func (d *Database) Close() error {
	if d.db == nil {
		return nil
	}

	err := d.db.Close()
	d.db = nil

	if d.logger != nil {
		d.logger.Info(logMsgClosed, logAttrDialect, d.dialect)
	}

	return err
}

func (d *Database) logQuery(action, query string, duration time.Duration) {
	if d.logger != nil {
		d.logger.Debug(logMsgSQLExecuted+action, logAttrQuery, query, logAttrDurationMS, duration.Milliseconds())
	}
}
