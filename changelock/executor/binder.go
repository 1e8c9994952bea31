package executor

import "sync"

// Factory builds the default executor for a target.
type Factory func(t Target) Executor

// Binder keeps the executor bound to each database identity. Targets without
// an explicit binding get the executor built by the factory, which is kept
// for later calls.
type Binder struct {
	factory Factory

	mu    sync.Mutex
	bound map[string]Executor
}

// NewBinder creates a binder, a nil factory defaults to Applying executors.
func NewBinder(factory Factory) *Binder {
	if factory == nil {
		factory = func(t Target) Executor { return NewApplying(t) }
	}
	return &Binder{
		factory: factory,
		bound:   make(map[string]Executor),
	}
}

// For returns the executor bound to t.
func (b *Binder) For(t Target) Executor {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e, ok := b.bound[t.Identity()]; ok {
		return e
	}
	e := b.factory(t)
	b.bound[t.Identity()] = e
	return e
}

// Set binds e to t, replacing any previous binding. Persisted state is not
// touched; only statements issued afterwards are affected.
func (b *Binder) Set(t Target, e Executor) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bound[t.Identity()] = e
}

// Unset drops the binding of t so the next For builds a default executor.
func (b *Binder) Unset(t Target) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.bound, t.Identity())
}

// Reset drops every binding.
func (b *Binder) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bound = make(map[string]Executor)
}
