package dialect

import (
	"fmt"
	"strings"

	"github.com/juju/errors"
	"modernc.org/sqlite"
)

type SQLite struct{}

func (SQLite) Name() string { return "sqlite" }

func (SQLite) Placeholder(n int) string { return "?" }

func (SQLite) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (SQLite) BoolType() string { return "BOOLEAN" }

func (SQLite) TimestampType() string { return "TIMESTAMP" }

func (SQLite) True() string { return "1" }

func (SQLite) False() string { return "0" }

func (s SQLite) InsertIfAbsentSQL(table, _ string, columns []string) string {
	return fmt.Sprintf("INSERT OR IGNORE INTO %s (%s) VALUES (%s)",
		s.QuoteIdentifier(table),
		strings.Join(quoteAll(s, columns), ", "),
		strings.Join(placeholders(s, len(columns)), ", "),
	)
}

func (SQLite) TableExistsSQL() string {
	return `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
}

// IsNotFound reports SQLITE_ERROR results about a missing table. SQLite has
// no dedicated result code for it, so the message is inspected.
func (SQLite) IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return isNoSuchTable(sqliteErr.Error())
	}
	return isNoSuchTable(err.Error())
}

func (SQLite) IsAlreadyExists(err error) bool {
	return err != nil && strings.Contains(err.Error(), "already exists")
}

func isNoSuchTable(msg string) bool {
	return strings.Contains(msg, "no such table")
}
