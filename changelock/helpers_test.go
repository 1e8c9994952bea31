package changelock

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/git-hulk/go-changelock/changelock/database"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.WaitTimeout = 500 * time.Millisecond
	cfg.PollInterval = 20 * time.Millisecond
	return cfg
}

// openSQLite opens a new handle on the SQLite file at path, the same path
// opened twice behaves like two connections to one database.
func openSQLite(t *testing.T, path string, opts ...database.Option) *database.Database {
	t.Helper()
	db, err := database.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)", opts...)
	require.NoError(t, err)
	db.DB().SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func tempDBPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "changelock.db")
}

func newTestRegistry(t *testing.T, cfg Config, opts ...RegistryOption) *Registry {
	t.Helper()
	r, err := NewRegistry(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(r.ResetAll)
	return r
}
