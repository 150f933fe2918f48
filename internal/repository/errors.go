// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// allocation service and handlers to distinguish between different failure
// scenarios. For example, ErrBedConflict signals that a bed status
// transition was refused because the row was not in the expected state,
// while ErrConflict signals that a delete cannot proceed because of
// dependent records (e.g. removing a room that still houses students).
package repository

import (
	"errors"
	"fmt"
)

// ErrConflict is returned when a delete or update cannot be
// performed because of conflicting state, such as attempting to
// delete a room whose beds are still reserved or occupied. Handlers
// should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrBedConflict is the sentinel wrapped by BedConflictError. Callers
// that do not care about the details can test with
// errors.Is(err, ErrBedConflict).
var ErrBedConflict = errors.New("bed state conflict")

// BedConflictError reports a refused bed transition together with the
// status the row actually held, so callers can tell the user which bed
// to re-query. It unwraps to ErrBedConflict.
type BedConflictError struct {
	BedID  uint64 // bed whose transition was refused
	Status string // status the bed held at the time of the attempt
}

func (e *BedConflictError) Error() string {
	return fmt.Sprintf("bed %d is %s", e.BedID, e.Status)
}

func (e *BedConflictError) Unwrap() error { return ErrBedConflict }

// timeLayout is the format used for every timestamp written from Go.
// Writing pre-formatted UTC strings keeps the SQL identical across the
// MySQL production driver and the sqlite driver used in tests.
const timeLayout = "2006-01-02 15:04:05"
