// Package semaphore provides the blocking primitives the restaurant actors
// coordinate with.  A Semaphore supports a blocking Down (decrement) and a
// non-blocking Up (increment).  Binary semaphores refuse a second Up while
// the first one is still pending, which turns a lost wake-up into a visible
// error instead of a silent hang.
//
// Semaphores belong to a Set.  Removing the set wakes every blocked caller
// with ErrRemoved, mirroring what happens to processes blocked on a System V
// semaphore set that is deleted underneath them.
package semaphore

import (
	"errors"
	"fmt"
	"sync"
)

// ErrRemoved is returned by every operation on a semaphore whose set has
// been removed.  Callers must treat it as fatal.
var ErrRemoved = errors.New("semaphore set removed")

// ErrOverflow is returned when a binary semaphore is raised while it is
// already raised.  It means two writers signalled a rendezvous that only
// admits one.
var ErrOverflow = errors.New("binary semaphore raised twice")

// Semaphore is a counting semaphore built on a mutex and a condition
// variable.  The zero value is not usable; create semaphores through a Set.
type Semaphore struct {
	name    string
	mu      sync.Mutex
	free    *sync.Cond
	value   int
	limit   int // 0 means unbounded, 1 means binary
	removed bool
}

func newSemaphore(name string, initial, limit int) *Semaphore {
	s := &Semaphore{name: name, value: initial, limit: limit}
	s.free = sync.NewCond(&s.mu)
	return s
}

// Name returns the name the semaphore was registered under.
func (s *Semaphore) Name() string { return s.name }

// Down blocks until the value is positive and then decrements it.
func (s *Semaphore) Down() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.value <= 0 && !s.removed {
		s.free.Wait()
	}
	if s.removed {
		return fmt.Errorf("down %s: %w", s.name, ErrRemoved)
	}
	s.value--
	return nil
}

// TryDown decrements the value if it is positive and reports whether it did.
// It never blocks.
func (s *Semaphore) TryDown() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removed {
		return false, fmt.Errorf("down %s: %w", s.name, ErrRemoved)
	}
	if s.value <= 0 {
		return false, nil
	}
	s.value--
	return true, nil
}

// Up increments the value and wakes one blocked caller.
func (s *Semaphore) Up() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removed {
		return fmt.Errorf("up %s: %w", s.name, ErrRemoved)
	}
	if s.limit > 0 && s.value >= s.limit {
		return fmt.Errorf("up %s: %w", s.name, ErrOverflow)
	}
	s.value++
	s.free.Signal()
	return nil
}

// Value returns the current value.  It is meant for tests and diagnostics;
// the protocol never branches on it.
func (s *Semaphore) Value() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

func (s *Semaphore) remove() {
	s.mu.Lock()
	s.removed = true
	s.mu.Unlock()
	s.free.Broadcast()
}
