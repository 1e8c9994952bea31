package changelock

import (
	"fmt"
	"time"

	"github.com/juju/errors"
)

// ErrLockTimeout is matched by the error WaitForLock returns when the lock
// could not be acquired in time.
const ErrLockTimeout = errors.ConstError("change log lock wait timed out")

// errLockHeldByOther is the retryable outcome of a single acquire attempt.
const errLockHeldByOther = errors.ConstError("change log lock is held by another holder")

// LockTimeoutError describes who held the lock when waiting gave up.
type LockTimeoutError struct {
	// Holder and Granted are empty when the lock was free at the last read.
	Holder  string
	Granted time.Time
	Waited  time.Duration
}

func (e *LockTimeoutError) Error() string {
	if e.Holder == "" {
		return fmt.Sprintf("could not acquire change log lock after %s", e.Waited)
	}
	return fmt.Sprintf("could not acquire change log lock after %s: currently locked by %s since %s",
		e.Waited, e.Holder, e.Granted.Format(time.RFC3339))
}

func (e *LockTimeoutError) Is(target error) bool {
	return target == ErrLockTimeout
}
