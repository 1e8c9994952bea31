// Package executor runs or records the lock statements. Applying executes
// them against the database, Recording renders them to a writer for preview.
// Callers depend on Executor only and never on the variant bound.
package executor

import (
	"context"

	"github.com/git-hulk/go-changelock/changelock/database"
	"github.com/git-hulk/go-changelock/changelock/dialect"
	"github.com/git-hulk/go-changelock/changelock/statement"
)

// Target is the database an executor is bound to.
type Target interface {
	Identity() string
	Dialect() dialect.Dialect
	Execer() database.Execer
}

type Executor interface {
	// Execute runs a statement that returns no rows.
	Execute(ctx context.Context, stmt statement.Statement, visitors ...Visitor) Result
	// QueryRow runs a single row query and scans it into dest. A missing row
	// or a missing table is reported as StatusNotFound.
	QueryRow(ctx context.Context, stmt statement.Statement, dest ...any) Result
}
