package executor

import (
	"context"
	"database/sql"

	"github.com/juju/errors"

	"github.com/git-hulk/go-changelock/changelock/statement"
)

// Applying executes statements against the target database.
type Applying struct {
	target Target
}

func NewApplying(t Target) *Applying {
	return &Applying{target: t}
}

func (e *Applying) Execute(ctx context.Context, stmt statement.Statement, visitors ...Visitor) Result {
	d := e.target.Dialect()
	q, args := stmt.Render(d)
	q = Visit(q, d, visitors...)

	res, err := e.target.Execer().ExecContext(ctx, q, args...)
	if err != nil {
		return e.classify(err, stmt)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return failed(errors.Annotatef(err, "rows affected by %T on %s", stmt, stmt.Table()))
	}
	return succeeded(rows)
}

func (e *Applying) QueryRow(ctx context.Context, stmt statement.Statement, dest ...any) Result {
	q, args := stmt.Render(e.target.Dialect())
	err := e.target.Execer().QueryRowContext(ctx, q, args...).Scan(dest...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound(err)
		}
		return e.classify(err, stmt)
	}
	return succeeded(0)
}

func (e *Applying) classify(err error, stmt statement.Statement) Result {
	if e.target.Dialect().IsNotFound(err) {
		return notFound(err)
	}
	return failed(errors.Annotatef(err, "%T on %s", stmt, stmt.Table()))
}
