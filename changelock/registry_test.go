package changelock

import (
	"context"
	"sync"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/require"

	"github.com/git-hulk/go-changelock/changelock/database"
	"github.com/git-hulk/go-changelock/changelock/executor"
)

func TestRegistry_SameTargetSharesService(t *testing.T) {
	path := tempDBPath(t)
	r := newTestRegistry(t, testConfig())

	first := r.GetInstance(openSQLite(t, path))
	second := r.GetInstance(openSQLite(t, path))
	require.Same(t, first, second)

	other := r.GetInstance(openSQLite(t, tempDBPath(t)))
	require.NotSame(t, first, other)
	require.NotEqual(t, first.ID(), other.ID())
}

func TestRegistry_SharedLockState(t *testing.T) {
	ctx := context.Background()
	path := tempDBPath(t)
	r := newTestRegistry(t, testConfig())

	acquired, err := r.GetInstance(openSQLite(t, path)).AcquireLock(ctx)
	require.NoError(t, err)
	require.True(t, acquired)
	require.True(t, r.GetInstance(openSQLite(t, path)).HasChangeLogLock())
}

func TestRegistry_ConcurrentFirstAccess(t *testing.T) {
	db := openSQLite(t, tempDBPath(t))
	r := newTestRegistry(t, testConfig())

	const callers = 32
	services := make([]*Service, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			services[i] = r.GetInstance(db)
		}(i)
	}
	wg.Wait()

	for _, s := range services {
		require.Same(t, services[0], s)
	}
}

func TestRegistry_ResetAllKeepsPersistedLock(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t, tempDBPath(t))
	r := newTestRegistry(t, testConfig())

	before := r.GetInstance(db)
	require.NoError(t, before.WaitForLock(ctx))

	r.ResetAll()
	after := r.GetInstance(db)
	require.NotSame(t, before, after)
	require.False(t, after.HasChangeLogLock())

	acquired, err := after.AcquireLock(ctx)
	require.NoError(t, err)
	require.False(t, acquired)

	locks, err := after.ListLocks(ctx)
	require.NoError(t, err)
	require.Len(t, locks, 1)
	require.Equal(t, before.ID(), locks[0].LockedBy)
}

func TestRegistry_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.WaitTimeout = 0
	_, err := NewRegistry(cfg)
	require.True(t, errors.Is(err, errors.NotValid))
}

func TestRegistry_ExecutorFactory(t *testing.T) {
	ctx := context.Background()
	var built int
	r := newTestRegistry(t, testConfig(), WithExecutorFactory(func(target executor.Target) executor.Executor {
		built++
		return executor.NewApplying(target)
	}))

	db := openSQLite(t, tempDBPath(t), database.WithTableNames("", "migration_lock"))
	require.NoError(t, r.GetInstance(db).WaitForLock(ctx))
	require.Equal(t, 1, built)

	var count int
	require.NoError(t, db.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM "migration_lock" WHERE "locked" = 1`).Scan(&count))
	require.Equal(t, 1, count)
}

func TestRegistry_ResetAllRebindsClosedHandle(t *testing.T) {
	ctx := context.Background()
	path := tempDBPath(t)
	r := newTestRegistry(t, testConfig())

	stale := openSQLite(t, path)
	require.NoError(t, r.GetInstance(stale).Reset(ctx))
	require.NoError(t, stale.Close())

	fresh := openSQLite(t, path)
	_, err := r.GetInstance(fresh).TableExists(ctx)
	require.Error(t, err, "cached service still uses the closed handle")

	r.ResetAll()
	exists, err := r.GetInstance(fresh).TableExists(ctx)
	require.NoError(t, err)
	require.True(t, exists)
}
