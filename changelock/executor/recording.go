package executor

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/juju/errors"

	"github.com/git-hulk/go-changelock/changelock/dialect"
	"github.com/git-hulk/go-changelock/changelock/statement"
)

// Recording writes statements to a writer instead of running them. Nothing
// reaches the database: every statement reports one affected row and every
// query finds nothing.
type Recording struct {
	dialect dialect.Dialect

	mu       sync.Mutex
	w        io.Writer
	recorded int
}

func NewRecording(w io.Writer, d dialect.Dialect) *Recording {
	return &Recording{w: w, dialect: d}
}

func (e *Recording) Execute(_ context.Context, stmt statement.Statement, visitors ...Visitor) Result {
	q, args := stmt.Render(e.dialect)
	q = Visit(Inline(e.dialect, q, args), e.dialect, visitors...)

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := fmt.Fprintf(e.w, "%s;\n\n", q); err != nil {
		return failed(errors.Annotatef(err, "record %T on %s", stmt, stmt.Table()))
	}
	e.recorded++
	return succeeded(1)
}

func (e *Recording) QueryRow(_ context.Context, _ statement.Statement, _ ...any) Result {
	return notFound(nil)
}

// Recorded returns the number of statements written so far.
func (e *Recording) Recorded() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recorded
}

// Inline substitutes the bound arguments into q as literals.
func Inline(d dialect.Dialect, q string, args []any) string {
	if len(args) == 0 {
		return q
	}
	if d.Placeholder(1) == d.Placeholder(2) {
		p := d.Placeholder(1)
		for _, arg := range args {
			q = strings.Replace(q, p, dialect.Literal(d, arg), 1)
		}
		return q
	}
	// Numbered placeholders are replaced from the highest down so $1 never
	// clobbers the prefix of $10.
	for i := len(args); i >= 1; i-- {
		q = strings.ReplaceAll(q, d.Placeholder(i), dialect.Literal(d, args[i-1]))
	}
	return q
}
