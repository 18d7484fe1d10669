// Package actor implements the four restaurant roles.  Each actor runs its
// own loop against a store.Shared and talks to the others only through the
// shared state and the semaphores in it.
//
// Every failure an actor sees is fatal: the actor returns a *FatalError and
// does nothing else.  There is no retry.
package actor

import (
	"errors"
	"fmt"
)

// ErrInvariant marks a logical violation of the protocol, such as seating a
// group twice.  It is always wrapped in a FatalError.
var ErrInvariant = errors.New("invariant violated")

// FatalError is the unrecoverable error an actor stops with.
type FatalError struct {
	Actor string // e.g. "receptionist" or "group 3"
	Op    string // protocol step that failed
	Err   error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Actor, e.Op, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

func fatal(actor, op string, err error) error {
	if err == nil {
		return nil
	}
	var fe *FatalError
	if errors.As(err, &fe) {
		return err
	}
	return &FatalError{Actor: actor, Op: op, Err: err}
}

func violation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}
