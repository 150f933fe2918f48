// Package allocation implements the bed allocation core: the
// application workflow, direct check-in/out, and the transactional
// coordination that keeps bed, application and student rows consistent
// under concurrent requests.
package allocation

import (
	"errors"

	"github.com/campuskeep/dormitory/internal/repository"
)

// Expected, recoverable failures surfaced to callers. Handlers map
// these onto HTTP statuses; none of them is retried internally, so the
// caller can re-fetch fresh availability and decide again.
var (
	// ErrBedUnavailable means the bed transition lost to a concurrent
	// operation or the bed was simply not free. Errors carrying this
	// sentinel are *repository.BedConflictError values reporting the
	// status the bed actually held.
	ErrBedUnavailable = repository.ErrBedConflict

	// ErrNotPending means a terminal transition was attempted on an
	// application that has already been processed.
	ErrNotPending = repository.ErrNotPending

	// ErrDuplicateApplication means the student already has a pending
	// application.
	ErrDuplicateApplication = errors.New("student already has a pending application")

	// ErrAlreadyAssigned means the student currently occupies a bed.
	ErrAlreadyAssigned = errors.New("student already has a bed assignment")

	// ErrNotAssigned means a check-out was requested for a student with
	// no current bed.
	ErrNotAssigned = errors.New("student has no bed assignment")

	// ErrForbidden means the caller does not own the application it is
	// trying to withdraw.
	ErrForbidden = errors.New("forbidden")
)
