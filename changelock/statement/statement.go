// Package statement defines the abstract statements the lock service issues.
// A statement only knows its shape; the dialect decides how it is spelled.
package statement

import (
	"fmt"
	"strings"
	"time"

	"github.com/git-hulk/go-changelock/changelock/dialect"
)

// LockRowID is the primary key of the single row of the lock table.
const LockRowID = 1

// Lock table columns.
const (
	ColumnID       = "id"
	ColumnLocked   = "locked"
	ColumnGranted  = "lockgranted"
	ColumnLockedBy = "lockedby"
)

// Statement is an executable unit rendered per dialect.
type Statement interface {
	// Table is the table the statement operates on.
	Table() string
	// Render returns the SQL text and its bound arguments.
	Render(d dialect.Dialect) (string, []any)
}

// CreateLockTable creates the lock table when it does not exist yet.
type CreateLockTable struct {
	Name string
}

func (s CreateLockTable) Table() string { return s.Name }

func (s CreateLockTable) Render(d dialect.Dialect) (string, []any) {
	q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    %s INT NOT NULL PRIMARY KEY,
    %s %s NOT NULL,
    %s %s NULL,
    %s VARCHAR(255) NULL
)`,
		d.QuoteIdentifier(s.Name),
		d.QuoteIdentifier(ColumnID),
		d.QuoteIdentifier(ColumnLocked), d.BoolType(),
		d.QuoteIdentifier(ColumnGranted), d.TimestampType(),
		d.QuoteIdentifier(ColumnLockedBy),
	)
	return q, nil
}

// InitLockRow inserts the unlocked lock row unless it is already there.
type InitLockRow struct {
	Name string
}

func (s InitLockRow) Table() string { return s.Name }

func (s InitLockRow) Render(d dialect.Dialect) (string, []any) {
	q := d.InsertIfAbsentSQL(s.Name, ColumnID, []string{ColumnID, ColumnLocked})
	return q, []any{LockRowID, false}
}

// DropTable drops a table. Without IfExists a missing table is reported by
// the database as an error.
type DropTable struct {
	Name     string
	IfExists bool
}

func (s DropTable) Table() string { return s.Name }

func (s DropTable) Render(d dialect.Dialect) (string, []any) {
	if s.IfExists {
		return "DROP TABLE IF EXISTS " + d.QuoteIdentifier(s.Name), nil
	}
	return "DROP TABLE " + d.QuoteIdentifier(s.Name), nil
}

// TableExists counts the tables called Name in the current schema.
type TableExists struct {
	Name string
}

func (s TableExists) Table() string { return s.Name }

func (s TableExists) Render(d dialect.Dialect) (string, []any) {
	return d.TableExistsSQL(), []any{s.Name}
}

// SelectLock reads the lock row: id, locked, lockgranted, lockedby.
type SelectLock struct {
	Name string
}

func (s SelectLock) Table() string { return s.Name }

func (s SelectLock) Render(d dialect.Dialect) (string, []any) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		strings.Join(quoteColumns(d, ColumnID, ColumnLocked, ColumnGranted, ColumnLockedBy), ", "),
		d.QuoteIdentifier(s.Name),
		d.QuoteIdentifier(ColumnID), d.Placeholder(1),
	)
	return q, []any{LockRowID}
}

// AcquireLock marks the lock row as held by LockedBy. It only matches an
// unlocked row, so of two racing writers exactly one sees an affected row.
type AcquireLock struct {
	Name     string
	LockedBy string
	Granted  time.Time
}

func (s AcquireLock) Table() string { return s.Name }

func (s AcquireLock) Render(d dialect.Dialect) (string, []any) {
	q := fmt.Sprintf("UPDATE %s SET %s = %s, %s = %s, %s = %s WHERE %s = %s AND %s = %s",
		d.QuoteIdentifier(s.Name),
		d.QuoteIdentifier(ColumnLocked), d.True(),
		d.QuoteIdentifier(ColumnGranted), d.Placeholder(1),
		d.QuoteIdentifier(ColumnLockedBy), d.Placeholder(2),
		d.QuoteIdentifier(ColumnID), d.Placeholder(3),
		d.QuoteIdentifier(ColumnLocked), d.False(),
	)
	return q, []any{s.Granted, s.LockedBy, LockRowID}
}

// ReleaseLock clears the lock row. With LockedBy set it only clears a lock
// owned by that holder; an empty LockedBy clears whatever lock is there.
type ReleaseLock struct {
	Name     string
	LockedBy string
}

func (s ReleaseLock) Table() string { return s.Name }

func (s ReleaseLock) Render(d dialect.Dialect) (string, []any) {
	q := fmt.Sprintf("UPDATE %s SET %s = %s, %s = NULL, %s = NULL WHERE %s = %s",
		d.QuoteIdentifier(s.Name),
		d.QuoteIdentifier(ColumnLocked), d.False(),
		d.QuoteIdentifier(ColumnGranted),
		d.QuoteIdentifier(ColumnLockedBy),
		d.QuoteIdentifier(ColumnID), d.Placeholder(1),
	)
	args := []any{LockRowID}
	if s.LockedBy != "" {
		q += fmt.Sprintf(" AND %s = %s", d.QuoteIdentifier(ColumnLockedBy), d.Placeholder(2))
		args = append(args, s.LockedBy)
	}
	return q, args
}

func quoteColumns(d dialect.Dialect, columns ...string) []string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.QuoteIdentifier(c)
	}
	return quoted
}
