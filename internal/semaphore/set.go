package semaphore

import (
	"fmt"
	"sync"
)

// Set is a named collection of semaphores created together and removed
// together.  It plays the role of the semaphore set every actor connects to
// at startup.
type Set struct {
	mu      sync.Mutex
	byName  map[string]*Semaphore
	ordered []*Semaphore
	removed bool
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{byName: make(map[string]*Semaphore)}
}

// Binary registers a binary semaphore with the given initial value (0 or 1).
// It panics when the name is already taken or the value is out of range,
// since both are wiring mistakes made once at startup.
func (s *Set) Binary(name string, initial int) *Semaphore {
	if initial < 0 || initial > 1 {
		panic(fmt.Sprintf("semaphore %s: binary initial value %d", name, initial))
	}
	return s.add(newSemaphore(name, initial, 1))
}

// Counting registers an unbounded counting semaphore.
func (s *Set) Counting(name string, initial int) *Semaphore {
	if initial < 0 {
		panic(fmt.Sprintf("semaphore %s: negative initial value %d", name, initial))
	}
	return s.add(newSemaphore(name, initial, 0))
}

// BinaryArray registers n binary semaphores named prefix[0] .. prefix[n-1],
// all starting at zero.  The slice is indexed by group or table id.
func (s *Set) BinaryArray(prefix string, n int) []*Semaphore {
	out := make([]*Semaphore, n)
	for i := range out {
		out[i] = s.Binary(fmt.Sprintf("%s[%d]", prefix, i), 0)
	}
	return out
}

// CountingArray registers n counting semaphores named prefix[0] ..
// prefix[n-1], all starting at zero.
func (s *Set) CountingArray(prefix string, n int) []*Semaphore {
	out := make([]*Semaphore, n)
	for i := range out {
		out[i] = s.Counting(fmt.Sprintf("%s[%d]", prefix, i), 0)
	}
	return out
}

func (s *Set) add(sem *Semaphore) *Semaphore {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.byName[sem.name]; dup {
		panic("semaphore registered twice: " + sem.name)
	}
	if s.removed {
		sem.removed = true
	}
	s.byName[sem.name] = sem
	s.ordered = append(s.ordered, sem)
	return sem
}

// Lookup returns the semaphore registered under name.
func (s *Set) Lookup(name string) (*Semaphore, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sem, ok := s.byName[name]
	return sem, ok
}

// Len returns the number of registered semaphores.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ordered)
}

// Remove marks every semaphore removed and wakes all blocked callers.  It is
// idempotent.
func (s *Set) Remove() {
	s.mu.Lock()
	if s.removed {
		s.mu.Unlock()
		return
	}
	s.removed = true
	sems := append([]*Semaphore(nil), s.ordered...)
	s.mu.Unlock()
	for _, sem := range sems {
		sem.remove()
	}
}

// Removed reports whether Remove was called.
func (s *Set) Removed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removed
}
