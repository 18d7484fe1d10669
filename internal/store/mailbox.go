package store

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/iliyamo/restaurant-sim/internal/model"
	"github.com/iliyamo/restaurant-sim/internal/semaphore"
)

// ErrSlotViolation means a second envelope was deposited before the server
// consumed the first one.  The handshake makes this impossible; seeing it
// means the primitives were wired wrong.
var ErrSlotViolation = errors.New("mailbox: more than one envelope in flight")

// Mailbox is a single-slot request channel between many clients and one
// server.  The slot itself lives in the shared state.
//
// Client: Down(slotFree) -> lock -> write envelope -> Up(arrived) -> unlock.
// Server: Down(arrived) -> lock -> copy envelope -> unlock -> Up(slotFree).
//
// The server frees the slot only after it finished copying, so a client can
// never overwrite an envelope that has not been read.
type Mailbox struct {
	name     string
	store    *Store
	slotFree *semaphore.Semaphore
	arrived  *semaphore.Semaphore
	slot     func(st *model.FullState) *model.Request

	inFlight  atomic.Int32
	delivered atomic.Int64
}

// NewMailbox builds a mailbox over an existing slot of the shared state.
// slotFree must start at 1 and arrived at 0.
func NewMailbox(name string, s *Store, slotFree, arrived *semaphore.Semaphore, slot func(st *model.FullState) *model.Request) *Mailbox {
	return &Mailbox{name: name, store: s, slotFree: slotFree, arrived: arrived, slot: slot}
}

// Name returns the mailbox name.
func (m *Mailbox) Name() string { return m.name }

// Send waits until the slot is free and deposits req.  When critical is not
// nil it runs in the same critical section, before the server is woken, and
// a state snapshot is saved; callers use it to publish their new status.
func (m *Mailbox) Send(req model.Request, critical func(st *model.FullState)) error {
	if err := m.slotFree.Down(); err != nil {
		return fmt.Errorf("%s: wait for free slot: %w", m.name, err)
	}
	return m.deposit(req, critical)
}

// TrySend deposits req only if the slot is free right now.  It reports
// whether the envelope was deposited.
func (m *Mailbox) TrySend(req model.Request, critical func(st *model.FullState)) (bool, error) {
	ok, err := m.slotFree.TryDown()
	if err != nil {
		return false, fmt.Errorf("%s: try free slot: %w", m.name, err)
	}
	if !ok {
		return false, nil
	}
	return true, m.deposit(req, critical)
}

func (m *Mailbox) deposit(req model.Request, critical func(st *model.FullState)) error {
	if n := m.inFlight.Add(1); n != 1 {
		return fmt.Errorf("%s: %d envelopes: %w", m.name, n, ErrSlotViolation)
	}
	write := func(st *model.FullState) error {
		if critical != nil {
			critical(st)
		}
		*m.slot(st) = req
		return m.arrived.Up()
	}
	var err error
	if critical != nil {
		err = m.store.Update(write)
	} else {
		err = m.store.Locked(write)
	}
	if err != nil {
		return fmt.Errorf("%s: deposit %s: %w", m.name, req, err)
	}
	return nil
}

// Receive publishes the server's idle status through idle (may be nil),
// blocks until an envelope arrives, copies it and frees the slot.  The
// mutex is never held while blocked.
func (m *Mailbox) Receive(idle func(st *model.FullState)) (model.Request, error) {
	if idle != nil {
		if err := m.store.Update(func(st *model.FullState) error {
			idle(st)
			return nil
		}); err != nil {
			return model.Request{}, fmt.Errorf("%s: publish idle: %w", m.name, err)
		}
	}
	if err := m.arrived.Down(); err != nil {
		return model.Request{}, fmt.Errorf("%s: wait for request: %w", m.name, err)
	}
	var req model.Request
	if err := m.store.Locked(func(st *model.FullState) error {
		req = *m.slot(st)
		return nil
	}); err != nil {
		return model.Request{}, fmt.Errorf("%s: read request: %w", m.name, err)
	}
	m.inFlight.Add(-1)
	m.delivered.Add(1)
	if err := m.slotFree.Up(); err != nil {
		return model.Request{}, fmt.Errorf("%s: free slot: %w", m.name, err)
	}
	return req, nil
}

// Delivered returns how many envelopes the server has received.
func (m *Mailbox) Delivered() int { return int(m.delivered.Load()) }
