package changelock

import (
	"context"

	"github.com/juju/errors"

	"github.com/git-hulk/go-changelock/internal"
)

// Runner is the work executed while holding the change log lock.
type Runner interface {
	RunLocked(ctx context.Context) error
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context) error

func (f RunnerFunc) RunLocked(ctx context.Context) error {
	return f(ctx)
}

// Run waits for the lock, runs r and releases the lock afterwards whatever
// r returned. A lock already held by s is kept after r finishes.
func (s *Service) Run(ctx context.Context, r Runner) (err error) {
	if r == nil {
		return errors.NotValidf("nil runner")
	}
	if s.HasChangeLogLock() {
		return errors.Trace(r.RunLocked(ctx))
	}
	if err := s.WaitForLock(ctx); err != nil {
		return errors.Trace(err)
	}
	defer func() {
		// Release even when ctx was cancelled while r ran.
		releaseErr := s.ReleaseLock(context.WithoutCancel(ctx))
		if releaseErr == nil {
			return
		}
		if err != nil {
			internal.GetLogger().Printf("Failed to release change log lock on %s, err: %v", s.db.Identity(), releaseErr)
			return
		}
		err = errors.Annotate(releaseErr, "release change log lock")
	}()
	return errors.Trace(r.RunLocked(ctx))
}
