// Package dialect holds the vendor specific pieces needed to store the
// change log lock: placeholders, column types, literals, idempotent
// inserts, existence probes and classification of "object not found"
// errors.
package dialect

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/juju/errors"
)

// Dialect describes how a database vendor spells the primitives used by the
// lock statements.
type Dialect interface {
	Name() string
	Placeholder(n int) string
	QuoteIdentifier(name string) string
	BoolType() string
	TimestampType() string
	True() string
	False() string
	// InsertIfAbsentSQL returns an insert that is silently skipped when a row
	// with the same key already exists.
	InsertIfAbsentSQL(table, key string, columns []string) string
	// TableExistsSQL returns a query with a single placeholder bound to the
	// table name that yields the number of matching tables.
	TableExistsSQL() string
	// IsNotFound reports whether err means the referenced table does not exist.
	IsNotFound(err error) bool
	// IsAlreadyExists reports whether err means a concurrent creation of the
	// same table won.
	IsAlreadyExists(err error) bool
}

// ForDriver maps a database/sql driver name to its dialect.
func ForDriver(driverName string) (Dialect, error) {
	switch strings.ToLower(driverName) {
	case "postgres", "postgresql", "pgx":
		return Postgres{}, nil
	case "mysql":
		return MySQL{}, nil
	case "sqlite", "sqlite3":
		return SQLite{}, nil
	}
	return nil, errors.NotSupportedf("driver %q", driverName)
}

// Literal renders v as an inline SQL literal of dialect d. It is used when
// statements are recorded rather than executed.
func Literal(d Dialect, v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if val {
			return d.True()
		}
		return d.False()
	case string:
		return quoteString(val)
	case []byte:
		return quoteString(string(val))
	case time.Time:
		return quoteString(val.UTC().Format("2006-01-02 15:04:05.000"))
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case fmt.Stringer:
		return quoteString(val.String())
	default:
		return quoteString(fmt.Sprint(val))
	}
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func placeholders(d Dialect, n int) []string {
	list := make([]string, n)
	for i := range list {
		list[i] = d.Placeholder(i + 1)
	}
	return list
}

func quoteAll(d Dialect, names []string) []string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = d.QuoteIdentifier(name)
	}
	return quoted
}
