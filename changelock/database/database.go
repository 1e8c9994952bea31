// Package database provides the handle the lock service works against: a
// connection pool with its dialect, its canonical identity and the names of
// the change log tables.
package database

import (
	"context"
	"database/sql"
	"sync"

	"github.com/juju/errors"

	// Drivers for the supported dialects.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/git-hulk/go-changelock/changelock/dialect"
)

const (
	DefaultChangeLogTableName = "databasechangelog"
	DefaultLockTableName      = "databasechangeloglock"
)

// Execer is the part of *sql.DB, *sql.Tx and *sql.Conn the executors use.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Database is a handle on one target database.
type Database struct {
	db      *sql.DB
	dialect dialect.Dialect

	identity       string
	changeLogTable string
	lockTable      string

	// txMu protects tx, the unit of work opened by Begin.
	txMu sync.Mutex
	tx   *sql.Tx
}

type Option func(*Database)

// WithIdentity overrides the identity derived from the DSN.
func WithIdentity(identity string) Option {
	return func(d *Database) {
		d.identity = identity
	}
}

// WithTableNames overrides the change log and lock table names, empty
// names keep the defaults.
func WithTableNames(changeLog, lock string) Option {
	return func(d *Database) {
		if changeLog != "" {
			d.changeLogTable = changeLog
		}
		if lock != "" {
			d.lockTable = lock
		}
	}
}

// WithDialect overrides the dialect picked from the driver name.
func WithDialect(dia dialect.Dialect) Option {
	return func(d *Database) {
		d.dialect = dia
	}
}

// Open opens a pool for driverName ("sqlite", "pgx", "postgres" or "mysql")
// and wraps it in a Database.
func Open(driverName, dsn string, opts ...Option) (*Database, error) {
	dia, err := dialect.ForDriver(driverName)
	if err != nil {
		return nil, errors.Trace(err)
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, errors.Annotatef(err, "open %s database", driverName)
	}
	return New(db, dia, CanonicalIdentity(driverName, dsn), opts...), nil
}

// New wraps an already opened pool.
func New(db *sql.DB, dia dialect.Dialect, identity string, opts ...Option) *Database {
	d := &Database{
		db:             db,
		dialect:        dia,
		identity:       identity,
		changeLogTable: DefaultChangeLogTableName,
		lockTable:      DefaultLockTableName,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Database) Identity() string { return d.identity }

func (d *Database) Dialect() dialect.Dialect { return d.dialect }

func (d *Database) ChangeLogTableName() string { return d.changeLogTable }

func (d *Database) LockTableName() string { return d.lockTable }

// DB returns the underlying pool.
func (d *Database) DB() *sql.DB { return d.db }

// Execer returns the open unit of work, or the pool when there is none.
func (d *Database) Execer() Execer {
	d.txMu.Lock()
	defer d.txMu.Unlock()
	if d.tx != nil {
		return d.tx
	}
	return d.db
}

// Begin opens a unit of work. Statements run through Execer join it until
// Commit or Rollback.
func (d *Database) Begin(ctx context.Context) error {
	d.txMu.Lock()
	defer d.txMu.Unlock()
	if d.tx != nil {
		return errors.AlreadyExistsf("unit of work on %s", d.identity)
	}
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Annotate(err, "begin unit of work")
	}
	d.tx = tx
	return nil
}

// Commit finalizes the open unit of work. Without one, statements were
// already committed as they ran and Commit does nothing.
func (d *Database) Commit() error {
	d.txMu.Lock()
	tx := d.tx
	d.tx = nil
	d.txMu.Unlock()
	if tx == nil {
		return nil
	}
	return errors.Annotate(tx.Commit(), "commit unit of work")
}

// Rollback abandons the open unit of work, if any.
func (d *Database) Rollback() error {
	d.txMu.Lock()
	tx := d.tx
	d.tx = nil
	d.txMu.Unlock()
	if tx == nil {
		return nil
	}
	return errors.Annotate(tx.Rollback(), "rollback unit of work")
}

// Close rolls back a pending unit of work and closes the pool.
func (d *Database) Close() error {
	if err := d.Rollback(); err != nil {
		_ = d.db.Close()
		return err
	}
	return d.db.Close()
}
