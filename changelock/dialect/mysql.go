package dialect

import (
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/juju/errors"
)

// MySQL server error numbers.
const (
	erTableExists = 1050
	erBadTable    = 1051
	erNoSuchTable = 1146
)

type MySQL struct{}

func (MySQL) Name() string { return "mysql" }

func (MySQL) Placeholder(n int) string { return "?" }

func (MySQL) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (MySQL) BoolType() string { return "TINYINT(1)" }

func (MySQL) TimestampType() string { return "DATETIME(3)" }

func (MySQL) True() string { return "1" }

func (MySQL) False() string { return "0" }

func (m MySQL) InsertIfAbsentSQL(table, _ string, columns []string) string {
	return fmt.Sprintf("INSERT IGNORE INTO %s (%s) VALUES (%s)",
		m.QuoteIdentifier(table),
		strings.Join(quoteAll(m, columns), ", "),
		strings.Join(placeholders(m, len(columns)), ", "),
	)
}

func (MySQL) TableExistsSQL() string {
	return `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?`
}

func (MySQL) IsNotFound(err error) bool {
	n, ok := mysqlErrorNumber(err)
	return ok && (n == erNoSuchTable || n == erBadTable)
}

func (MySQL) IsAlreadyExists(err error) bool {
	n, ok := mysqlErrorNumber(err)
	return ok && n == erTableExists
}

func mysqlErrorNumber(err error) (uint16, bool) {
	var myErr *mysql.MySQLError
	if err == nil || !errors.As(err, &myErr) {
		return 0, false
	}
	return myErr.Number, true
}
