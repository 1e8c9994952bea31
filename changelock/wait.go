package changelock

import (
	"context"
	"time"

	"github.com/juju/errors"
	"github.com/juju/retry"

	"github.com/git-hulk/go-changelock/internal"
)

// WaitForLock blocks until the lock is acquired, the configured wait
// timeout elapses or ctx is done. Only contention is retried: any other
// failure is returned at once. On timeout the error matches ErrLockTimeout
// and names the holder seen last.
func (s *Service) WaitForLock(ctx context.Context) error {
	start := s.clock.Now()
	attempt := func() error {
		acquired, err := s.AcquireLock(ctx)
		if err != nil {
			return err
		}
		if !acquired {
			return errLockHeldByOther
		}
		return nil
	}

	args := s.cfg.retryArgs(attempt, s.clock, ctx.Done())
	args.IsFatalError = func(err error) bool {
		return !errors.Is(err, errLockHeldByOther)
	}
	args.NotifyFunc = func(_ error, n int) {
		internal.GetLogger().Printf("Waiting for change log lock on %s, attempt %d", s.db.Identity(), n)
	}

	err := retry.Call(args)
	switch {
	case err == nil:
		return nil
	case retry.IsAttemptsExceeded(err), retry.IsDurationExceeded(err):
		return s.timeoutError(ctx, s.clock.Now().Sub(start))
	case retry.IsRetryStopped(err):
		return errors.Annotate(ctx.Err(), "wait for change log lock")
	}
	return errors.Trace(err)
}

func (s *Service) timeoutError(ctx context.Context, waited time.Duration) error {
	timeout := &LockTimeoutError{Waited: waited}
	locks, err := s.ListLocks(ctx)
	if err != nil {
		internal.GetLogger().Printf("Failed to read change log lock holder, err: %v", err)
		return timeout
	}
	if len(locks) > 0 {
		timeout.Holder = locks[0].LockedBy
		timeout.Granted = locks[0].Granted
	}
	return timeout
}
