package changelock

import (
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/juju/errors"

	"github.com/git-hulk/go-changelock/changelock/executor"
)

// Registry hands out one Service per database identity so that every
// caller in the process shares the same view of the lock.
type Registry struct {
	cfg       Config
	clock     clock.Clock
	holder    string
	executors *executor.Binder

	mu       sync.Mutex
	services map[string]*Service
}

type RegistryOption func(*Registry)

// WithClock sets the clock used for grant timestamps and waiting.
func WithClock(c clock.Clock) RegistryOption {
	return func(r *Registry) {
		r.clock = c
	}
}

// WithHolder fixes the holder identity written by the registry's services.
func WithHolder(holder string) RegistryOption {
	return func(r *Registry) {
		r.holder = holder
	}
}

// WithExecutorFactory sets how default executors are built.
func WithExecutorFactory(factory executor.Factory) RegistryOption {
	return func(r *Registry) {
		r.executors = executor.NewBinder(factory)
	}
}

func NewRegistry(cfg Config, opts ...RegistryOption) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	r := &Registry{
		cfg:      cfg,
		clock:    clock.WallClock,
		services: make(map[string]*Service),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.executors == nil {
		r.executors = executor.NewBinder(nil)
	}
	return r, nil
}

// GetInstance returns the service for db, creating it on first use. The
// service stays bound to the first handle seen for the identity; once that
// handle is closed, call ResetAll so the next lookup binds a fresh one.
func (r *Registry) GetInstance(db Database) *Service {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.services[db.Identity()]; ok {
		return s
	}
	s := newService(db, r.executors, r.cfg, r.clock, r.holderID())
	r.services[db.Identity()] = s
	return s
}

// ResetAll forgets every service and executor binding along with the
// handles they were bound to. Locks persisted in databases are kept.
func (r *Registry) ResetAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services = make(map[string]*Service)
	r.executors.Reset()
}

// Executors returns the executor bindings the registry's services use.
func (r *Registry) Executors() *executor.Binder {
	return r.executors
}

func (r *Registry) holderID() string {
	if r.holder != "" {
		return r.holder
	}
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%s (%d/%s)", host, os.Getpid(), uuid.NewString()[:8])
}
