// Package changelock guarantees that at most one process at a time believes
// it may change a database schema. The lock is a single row in a table of
// the target database, so the database is the only coordination medium.
package changelock

import (
	"context"
	"sync"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"go.uber.org/atomic"

	"github.com/git-hulk/go-changelock/changelock/executor"
	"github.com/git-hulk/go-changelock/changelock/statement"
	"github.com/git-hulk/go-changelock/internal"
)

// Database is the handle a Service coordinates on.
type Database interface {
	executor.Target
	ChangeLogTableName() string
	LockTableName() string
	// Commit finalizes the caller's unit of work so writes become visible to
	// other connections.
	Commit() error
}

// Service coordinates the change log lock of one database. Obtain it from a
// Registry so callers in the same process share it.
type Service struct {
	db        Database
	executors *executor.Binder
	cfg       Config
	clock     clock.Clock
	id        string

	// mu serialises the lock protocol within the process.
	mu       sync.Mutex
	hasLock  atomic.Bool
	readyFor executor.Executor
}

func newService(db Database, executors *executor.Binder, cfg Config, clk clock.Clock, id string) *Service {
	return &Service{
		db:        db,
		executors: executors,
		cfg:       cfg,
		clock:     clk,
		id:        id,
	}
}

// ID returns the holder identity written to the lock row.
func (s *Service) ID() string {
	return s.id
}

// Identity returns the identity of the database the service coordinates on.
func (s *Service) Identity() string {
	return s.db.Identity()
}

// HasChangeLogLock reports whether this service acquired the lock and has
// not released it since. The database is not consulted.
func (s *Service) HasChangeLogLock() bool {
	return s.hasLock.Load()
}

// AcquireLock makes a single attempt to take the lock. It returns false
// without error when someone else holds it, and true straight away when
// this service already does.
func (s *Service) AcquireLock(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasLock.Load() {
		return true, nil
	}

	exec := s.executors.For(s.db)
	if err := s.ensureTable(ctx, exec); err != nil {
		return false, errors.Trace(err)
	}
	rec, missing, err := s.readRecord(ctx, exec)
	if err != nil {
		return false, errors.Trace(err)
	}
	if rec.Locked {
		return false, nil
	}

	res := s.writeLock(ctx, exec)
	if missing && (res.NotFound() || (res.OK() && res.RowsAffected == 0)) {
		// The table or its row vanished after it was created.
		s.readyFor = nil
		if err := s.ensureTable(ctx, exec); err != nil {
			return false, errors.Trace(err)
		}
		res = s.writeLock(ctx, exec)
	}
	if err := res.Failure(); err != nil {
		return false, errors.Annotate(err, "acquire change log lock")
	}
	if res.NotFound() {
		s.readyFor = nil
		return false, nil
	}
	if res.RowsAffected == 0 {
		// Another holder won the race between our read and our write.
		return false, nil
	}
	if err := s.db.Commit(); err != nil {
		return false, errors.Annotate(err, "commit change log lock")
	}
	s.hasLock.Store(true)
	internal.GetLogger().Printf("Successfully acquired change log lock on %s as %s", s.db.Identity(), s.id)
	return true, nil
}

// ReleaseLock gives the lock back. Releasing a lock this service does not
// hold does nothing.
func (s *Service) ReleaseLock(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasLock.Load() {
		return nil
	}
	if err := s.clearRecord(ctx, s.id); err != nil {
		return errors.Annotate(err, "release change log lock")
	}
	s.hasLock.Store(false)
	internal.GetLogger().Printf("Successfully released change log lock on %s", s.db.Identity())
	return nil
}

// ForceReleaseLock clears the lock row whoever holds it.
func (s *Service) ForceReleaseLock(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.clearRecord(ctx, ""); err != nil {
		return errors.Annotate(err, "force release change log lock")
	}
	s.hasLock.Store(false)
	internal.GetLogger().Printf("Forcibly released change log lock on %s", s.db.Identity())
	return nil
}

// Reset drops and recreates the lock table, discarding any lock held by
// anyone. It is meant for clearing stuck locks.
func (s *Service) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exec := s.executors.For(s.db)
	if err := s.dropTable(ctx, exec, s.db.LockTableName()); err != nil {
		return errors.Annotate(err, "reset change log lock")
	}
	s.readyFor = nil
	s.hasLock.Store(false)
	if err := s.ensureTable(ctx, exec); err != nil {
		return errors.Annotate(err, "reset change log lock")
	}
	internal.GetLogger().Printf("Reset change log lock table %s on %s", s.db.LockTableName(), s.db.Identity())
	return nil
}

// ListLocks returns the held locks, none when the lock is free or the lock
// table does not exist. Nothing is modified.
func (s *Service) ListLocks(ctx context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, _, err := s.readRecord(ctx, s.executors.For(s.db))
	if err != nil {
		return nil, errors.Trace(err)
	}
	if !rec.Locked {
		return nil, nil
	}
	return []Record{rec}, nil
}

// TableExists reports whether the lock table exists.
func (s *Service) TableExists(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	res := s.executors.For(s.db).QueryRow(ctx, statement.TableExists{Name: s.db.LockTableName()}, &count)
	if res.NotFound() {
		return false, nil
	}
	if err := res.Failure(); err != nil {
		return false, errors.Annotatef(err, "check lock table %s", s.db.LockTableName())
	}
	return count > 0, nil
}

// DropChangeLogTable drops the change log table, a missing table is fine.
func (s *Service) DropChangeLogTable(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.dropTable(ctx, s.executors.For(s.db), s.db.ChangeLogTableName())
}

// ensureTable creates the lock table and its row unless exec already did.
func (s *Service) ensureTable(ctx context.Context, exec executor.Executor) error {
	if s.readyFor == exec {
		return nil
	}
	name := s.db.LockTableName()
	if err := exec.Execute(ctx, statement.CreateLockTable{Name: name}).Failure(); err != nil {
		if !s.db.Dialect().IsAlreadyExists(err) {
			return errors.Annotatef(err, "create lock table %s", name)
		}
		internal.GetLogger().Printf("Lock table %s was created concurrently on %s", name, s.db.Identity())
	}
	if err := exec.Execute(ctx, statement.InitLockRow{Name: name}).Failure(); err != nil {
		return errors.Annotatef(err, "initialize lock table %s", name)
	}
	if err := s.db.Commit(); err != nil {
		return errors.Annotatef(err, "commit lock table %s", name)
	}
	s.readyFor = exec
	return nil
}

// dropTable drops name, treating a missing table as already dropped.
func (s *Service) dropTable(ctx context.Context, exec executor.Executor, name string) error {
	res := exec.Execute(ctx, statement.DropTable{Name: name})
	if err := res.Failure(); err != nil {
		return errors.Annotatef(err, "drop table %s", name)
	}
	if res.NotFound() {
		internal.GetLogger().Printf("Table %s does not exist on %s, nothing to drop", name, s.db.Identity())
	}
	return errors.Annotatef(s.db.Commit(), "commit drop of table %s", name)
}

// readRecord reads the lock row. missing reports that the table or the row
// is not there, which leaves the lock free.
func (s *Service) readRecord(ctx context.Context, exec executor.Executor) (rec Record, missing bool, err error) {
	var row recordRow
	res := exec.QueryRow(ctx, statement.SelectLock{Name: s.db.LockTableName()}, row.dest()...)
	switch res.Status {
	case executor.StatusSuccess:
		return row.record(), false, nil
	case executor.StatusNotFound:
		return Record{ID: statement.LockRowID}, true, nil
	}
	return Record{}, false, errors.Annotatef(res.Err, "read lock table %s", s.db.LockTableName())
}

func (s *Service) writeLock(ctx context.Context, exec executor.Executor) executor.Result {
	return exec.Execute(ctx, statement.AcquireLock{
		Name:     s.db.LockTableName(),
		LockedBy: s.id,
		Granted:  s.clock.Now().UTC(),
	})
}

// clearRecord unlocks the row, only when held by lockedBy if it is set.
func (s *Service) clearRecord(ctx context.Context, lockedBy string) error {
	res := s.executors.For(s.db).Execute(ctx, statement.ReleaseLock{
		Name:     s.db.LockTableName(),
		LockedBy: lockedBy,
	})
	if err := res.Failure(); err != nil {
		return errors.Trace(err)
	}
	switch {
	case res.NotFound():
		internal.GetLogger().Printf("Lock table %s is gone on %s, lock already released", s.db.LockTableName(), s.db.Identity())
	case res.RowsAffected == 0 && lockedBy != "":
		internal.GetLogger().Printf("Change log lock on %s was no longer held by %s", s.db.Identity(), lockedBy)
	}
	return errors.Trace(s.db.Commit())
}
