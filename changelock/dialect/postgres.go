package dialect

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/juju/errors"
	"github.com/lib/pq"
)

// SQLSTATE codes.
const (
	undefinedTable = "42P01"
	duplicateTable = "42P07"
	// uniqueViolation is raised on pg_type when two sessions run the same
	// CREATE TABLE IF NOT EXISTS concurrently.
	uniqueViolation = "23505"
)

type Postgres struct{}

func (Postgres) Name() string { return "postgres" }

func (Postgres) Placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func (Postgres) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (Postgres) BoolType() string { return "BOOLEAN" }

func (Postgres) TimestampType() string { return "TIMESTAMP" }

func (Postgres) True() string { return "TRUE" }

func (Postgres) False() string { return "FALSE" }

func (p Postgres) InsertIfAbsentSQL(table, key string, columns []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO NOTHING",
		p.QuoteIdentifier(table),
		strings.Join(quoteAll(p, columns), ", "),
		strings.Join(placeholders(p, len(columns)), ", "),
		p.QuoteIdentifier(key),
	)
}

func (Postgres) TableExistsSQL() string {
	return `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1`
}

// IsNotFound understands errors coming from both pgx and lib/pq.
func (Postgres) IsNotFound(err error) bool {
	return postgresCode(err) == undefinedTable
}

func (Postgres) IsAlreadyExists(err error) bool {
	code := postgresCode(err)
	return code == duplicateTable || code == uniqueViolation
}

func postgresCode(err error) string {
	if err == nil {
		return ""
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
