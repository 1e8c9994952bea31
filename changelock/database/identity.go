package database

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// CanonicalIdentity derives the identity of the database a DSN points at.
// Credentials and connection parameters are dropped so two handles on the
// same target resolve to the same identity.
func CanonicalIdentity(driverName, dsn string) string {
	switch strings.ToLower(driverName) {
	case "sqlite", "sqlite3":
		return sqliteIdentity(dsn)
	case "mysql":
		if !strings.Contains(dsn, "://") {
			return mysqlIdentity(dsn)
		}
	case "postgres", "postgresql", "pgx":
		if !strings.Contains(dsn, "://") {
			return postgresKeywordIdentity(dsn)
		}
	}
	if strings.Contains(dsn, "://") {
		if id, ok := urlIdentity(dsn); ok {
			return id
		}
	}
	return strings.ToLower(driverName) + ":" + dsn
}

func urlIdentity(dsn string) (string, bool) {
	u, err := url.Parse(dsn)
	if err != nil || u.Host == "" {
		return "", false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme == "postgresql" {
		scheme = "postgres"
	}
	return fmt.Sprintf("%s://%s%s", scheme, strings.ToLower(u.Host), u.Path), true
}

// postgresKeywordIdentity handles "host=db port=5432 dbname=app" DSNs.
func postgresKeywordIdentity(dsn string) string {
	fields := map[string]string{
		"host": "localhost",
		"port": "5432",
	}
	for _, kv := range strings.Fields(dsn) {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		fields[strings.ToLower(k)] = strings.Trim(v, `'`)
	}
	return fmt.Sprintf("postgres://%s:%s/%s", strings.ToLower(fields["host"]), fields["port"], fields["dbname"])
}

// mysqlIdentity handles "user:pass@tcp(host:3306)/app?parseTime=true" DSNs.
func mysqlIdentity(dsn string) string {
	rest := dsn
	if i := strings.LastIndex(rest, "@"); i >= 0 {
		rest = rest[i+1:]
	}
	rest, _, _ = strings.Cut(rest, "?")
	addr, name, _ := strings.Cut(rest, "/")
	if open := strings.Index(addr, "("); open >= 0 && strings.HasSuffix(addr, ")") {
		addr = addr[open+1 : len(addr)-1]
	}
	return fmt.Sprintf("mysql://%s/%s", strings.ToLower(addr), name)
}

func sqliteIdentity(dsn string) string {
	path, query, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	params, _ := url.ParseQuery(query)
	if path == "" || path == ":memory:" || params.Get("mode") == "memory" {
		if params.Get("cache") == "shared" && path != "" && path != ":memory:" {
			return "sqlite:memory:" + path
		}
		// Private in-memory databases are distinct per handle.
		return "sqlite:memory:" + uuid.NewString()
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return "sqlite:" + filepath.Clean(path)
}
