package changelock

import (
	"context"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/require"
)

func TestRun_ReleasesAfterRunner(t *testing.T) {
	ctx := context.Background()
	path := tempDBPath(t)
	x := newTestRegistry(t, testConfig()).GetInstance(openSQLite(t, path))
	y := newTestRegistry(t, testConfig()).GetInstance(openSQLite(t, path))

	var ran bool
	err := x.Run(ctx, RunnerFunc(func(ctx context.Context) error {
		ran = true
		require.True(t, x.HasChangeLogLock())
		acquired, err := y.AcquireLock(ctx)
		require.NoError(t, err)
		require.False(t, acquired)
		return nil
	}))
	require.NoError(t, err)
	require.True(t, ran)
	require.False(t, x.HasChangeLogLock())

	acquired, err := y.AcquireLock(ctx)
	require.NoError(t, err)
	require.True(t, acquired)
}

func TestRun_RunnerError(t *testing.T) {
	ctx := context.Background()
	s := newTestRegistry(t, testConfig()).GetInstance(openSQLite(t, tempDBPath(t)))

	boom := errors.New("boom")
	err := s.Run(ctx, RunnerFunc(func(context.Context) error { return boom }))
	require.True(t, errors.Is(err, boom))
	require.False(t, s.HasChangeLogLock())

	locks, err := s.ListLocks(ctx)
	require.NoError(t, err)
	require.Empty(t, locks)
}

func TestRun_KeepsLockAlreadyHeld(t *testing.T) {
	ctx := context.Background()
	s := newTestRegistry(t, testConfig()).GetInstance(openSQLite(t, tempDBPath(t)))
	require.NoError(t, s.WaitForLock(ctx))

	require.NoError(t, s.Run(ctx, RunnerFunc(func(context.Context) error { return nil })))
	require.True(t, s.HasChangeLogLock())
}

func TestRun_Timeout(t *testing.T) {
	ctx := context.Background()
	path := tempDBPath(t)
	x := newTestRegistry(t, testConfig()).GetInstance(openSQLite(t, path))
	y := newTestRegistry(t, testConfig()).GetInstance(openSQLite(t, path))
	require.NoError(t, x.WaitForLock(ctx))

	err := y.Run(ctx, RunnerFunc(func(context.Context) error {
		t.Fatal("runner must not run without the lock")
		return nil
	}))
	require.True(t, errors.Is(err, ErrLockTimeout))
	require.Error(t, y.Run(ctx, nil))
}
