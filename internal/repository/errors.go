// Package repository holds the persistence of run history and of the latest
// state snapshot of every run.  The sentinel errors let handlers tell a
// missing record from a storage failure.
package repository

import "errors"

// ErrRunNotFound is returned when no run with the requested id exists.
// Handlers translate it into an HTTP 404 response.
var ErrRunNotFound = errors.New("run not found")

// ErrStateNotFound is returned when no snapshot was stored for a run yet.
var ErrStateNotFound = errors.New("state not found")
