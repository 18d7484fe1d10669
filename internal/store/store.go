// Package store holds the state every restaurant actor shares, the
// mutual-exclusion primitive guarding it, and the request mailboxes built on
// top of both.  Nothing in the shared state may be touched without holding
// the mutex; Locked and Update are the only ways in.
package store

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/iliyamo/restaurant-sim/internal/model"
	"github.com/iliyamo/restaurant-sim/internal/semaphore"
	"github.com/iliyamo/restaurant-sim/internal/statelog"
)

// ErrNotAttached is returned by Detach when no actor is attached.
var ErrNotAttached = errors.New("store: detach without attach")

// Store is the shared state region.  The mutex is a binary semaphore from
// the run's semaphore set, so removing the set also fails every pending
// lock acquisition.
type Store struct {
	mutex    *semaphore.Semaphore
	state    model.FullState
	sink     statelog.Sink
	seq      uint64
	attached atomic.Int32
}

// New wraps the initial state.  A nil sink discards snapshots.
func New(initial model.FullState, mutex *semaphore.Semaphore, sink statelog.Sink) *Store {
	if sink == nil {
		sink = statelog.Discard{}
	}
	return &Store{mutex: mutex, state: initial.Clone(), sink: sink}
}

// Attach registers an actor as a user of the store.
func (s *Store) Attach() { s.attached.Add(1) }

// Detach unregisters an actor.
func (s *Store) Detach() error {
	for {
		n := s.attached.Load()
		if n <= 0 {
			return ErrNotAttached
		}
		if s.attached.CompareAndSwap(n, n-1) {
			return nil
		}
	}
}

// Attached returns the number of attached actors.
func (s *Store) Attached() int { return int(s.attached.Load()) }

// Locked runs fn inside the critical section without recording a snapshot.
// fn must only read and write fields and raise semaphores; it must never
// block.
func (s *Store) Locked(fn func(st *model.FullState) error) error {
	return s.critical(fn, false)
}

// Update runs fn inside the critical section and, when fn succeeds, appends
// a snapshot of the resulting state to the sink before releasing the mutex.
// Every status mutation goes through Update.
func (s *Store) Update(fn func(st *model.FullState) error) error {
	return s.critical(fn, true)
}

func (s *Store) critical(fn func(st *model.FullState) error, save bool) error {
	if err := s.mutex.Down(); err != nil {
		return fmt.Errorf("enter critical region: %w", err)
	}
	err := fn(&s.state)
	if err == nil && save {
		s.seq++
		s.state.Seq = s.seq
		s.sink.Save(s.state.Clone())
	}
	if upErr := s.mutex.Up(); upErr != nil {
		return errors.Join(err, fmt.Errorf("exit critical region: %w", upErr))
	}
	return err
}

// Snapshot returns a copy of the current state taken under the mutex.
func (s *Store) Snapshot() (model.FullState, error) {
	var out model.FullState
	err := s.Locked(func(st *model.FullState) error {
		out = st.Clone()
		return nil
	})
	return out, err
}
