package allocation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/campuskeep/dormitory/internal/queue"
	"github.com/campuskeep/dormitory/internal/repository"
)

// Service coordinates every multi-entity allocation mutation. Each
// operation runs in a single transaction spanning the bed, application
// and student rows; the bed row's conditional update is the
// serialization point, and the dependent rows are only touched after
// the bed transition succeeds, within the same transaction. Any
// failure rolls back the whole operation, so no partial state is ever
// observable. Correctness does not depend on in-process locking:
// several server instances may run this code against the same
// database concurrently.
type Service struct {
	db       *sql.DB
	beds     *repository.BedRepo
	students *repository.StudentRepo
	apps     *repository.ApplicationRepo
	stays    *repository.StayRecordRepo

	// Publish, when set, is called after a successful commit with the
	// event describing the mutation. Publish failures are the
	// publisher's problem; they never fail the request.
	Publish func(ctx context.Context, ev queue.AllocationEvent) error
}

// NewService constructs the allocation service over the shared DB
// handle and its repositories.
func NewService(db *sql.DB, beds *repository.BedRepo, students *repository.StudentRepo,
	apps *repository.ApplicationRepo, stays *repository.StayRecordRepo) *Service {
	if db == nil || beds == nil || students == nil || apps == nil || stays == nil {
		panic("nil dependency passed to allocation.NewService")
	}
	return &Service{db: db, beds: beds, students: students, apps: apps, stays: stays}
}

// Submit files a room application for the student against the given
// bed. The bed is reserved first via the ledger's conditional update;
// only when that wins is the PENDING application row created, so at
// most one pending application can reference a bed at any time and no
// tie-breaking beyond first-committer-wins is ever needed.
func (s *Service) Submit(ctx context.Context, studentNo string, bedID uint64) (*repository.Application, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// The student row lock serializes same-student submissions, so the
	// pending and assignment checks below always see the latest
	// committed state rather than a stale snapshot.
	if _, err := s.students.LockByNoTx(ctx, tx, studentNo); err != nil {
		return nil, err
	}
	pending, err := s.apps.HasPendingTx(ctx, tx, studentNo)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, ErrDuplicateApplication
	}
	occupied, err := s.beds.FindByOccupantTx(ctx, tx, studentNo)
	if err != nil {
		return nil, err
	}
	if occupied != nil {
		return nil, ErrAlreadyAssigned
	}

	if err := s.beds.ReserveTx(ctx, tx, bedID); err != nil {
		return nil, err
	}
	app, err := s.apps.CreateTx(ctx, tx, studentNo, bedID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	s.emit(ctx, queue.AllocationEvent{
		Action:        queue.ActionApplicationSubmitted,
		StudentNo:     studentNo,
		BedID:         bedID,
		ApplicationID: app.ID,
		Actor:         studentNo,
	})
	return app, nil
}

// Approve confirms a pending application: the bed moves
// RESERVED -> OCCUPIED, the application becomes APPROVED, the
// student's denormalized dorm fields are populated and a stay record
// is opened — all in one transaction.
//
// Under correct reserved-state discipline the bed cannot have left
// RESERVED while the application is PENDING, but a conflict is
// defended against anyway: the application is marked REJECTED with a
// system reason and the conflict is surfaced so the caller can
// refresh.
func (s *Service) Approve(ctx context.Context, applicationID uint64, approver string) (*repository.Application, *repository.BedLocation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	app, err := s.apps.GetByIDTx(ctx, tx, applicationID)
	if err != nil {
		return nil, nil, err
	}
	if app.Status != repository.ApplicationPending {
		return nil, nil, ErrNotPending
	}

	if err := s.beds.ConfirmOccupancyTx(ctx, tx, app.BedID, app.StudentNo); err != nil {
		if errors.Is(err, ErrBedUnavailable) {
			// The bed was taken out from under the reservation. Fail the
			// application in place and let the caller re-render.
			if rejErr := s.apps.MarkRejectedTx(ctx, tx, applicationID, approver,
				"bed is no longer available"); rejErr != nil {
				return nil, nil, rejErr
			}
			if cmErr := tx.Commit(); cmErr != nil {
				return nil, nil, cmErr
			}
			committed = true
			s.emit(ctx, queue.AllocationEvent{
				Action:        queue.ActionApplicationRejected,
				StudentNo:     app.StudentNo,
				BedID:         app.BedID,
				ApplicationID: applicationID,
				Actor:         approver,
				Detail:        "auto-rejected: bed is no longer available",
			})
		}
		return nil, nil, err
	}
	if err := s.apps.MarkApprovedTx(ctx, tx, applicationID, approver); err != nil {
		return nil, nil, err
	}
	loc, err := s.beds.LocateTx(ctx, tx, app.BedID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.students.SetAssignmentTx(ctx, tx, app.StudentNo, loc); err != nil {
		return nil, nil, err
	}
	if err := s.stays.OpenTx(ctx, tx, app.StudentNo, app.BedID); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	committed = true

	app.Status = repository.ApplicationApproved
	s.emit(ctx, queue.AllocationEvent{
		Action:        queue.ActionApplicationApproved,
		StudentNo:     app.StudentNo,
		BedID:         app.BedID,
		ApplicationID: applicationID,
		Actor:         approver,
		Detail:        fmt.Sprintf("%s room %s bed %s", loc.BuildingName, loc.RoomNumber, loc.BedNumber),
	})
	return app, loc, nil
}

// Reject declines a pending application and releases its reservation.
func (s *Service) Reject(ctx context.Context, applicationID uint64, approver, reason string) error {
	if reason == "" {
		reason = "application rejected by manager"
	}
	return s.finalize(ctx, applicationID, approver, reason, queue.ActionApplicationRejected, "")
}

// Withdraw cancels the student's own pending application, with the
// same ledger effect as a rejection.
func (s *Service) Withdraw(ctx context.Context, applicationID uint64, studentNo string) error {
	return s.finalize(ctx, applicationID, studentNo, "withdrawn by student", queue.ActionApplicationWithdrawn, studentNo)
}

// finalize is the shared PENDING -> REJECTED path for reject and
// withdraw. ownerNo, when non-empty, restricts the operation to the
// application's own student.
func (s *Service) finalize(ctx context.Context, applicationID uint64, actor, reason, action, ownerNo string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	app, err := s.apps.GetByIDTx(ctx, tx, applicationID)
	if err != nil {
		return err
	}
	if ownerNo != "" && app.StudentNo != ownerNo {
		return ErrForbidden
	}
	if err := s.apps.MarkRejectedTx(ctx, tx, applicationID, actor, reason); err != nil {
		return err
	}
	if err := s.beds.ReleaseTx(ctx, tx, app.BedID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true

	s.emit(ctx, queue.AllocationEvent{
		Action:        action,
		StudentNo:     app.StudentNo,
		BedID:         app.BedID,
		ApplicationID: applicationID,
		Actor:         actor,
		Detail:        reason,
	})
	return nil
}

// CheckIn assigns a bed to a student directly, bypassing the
// application workflow. It gates on the same bed status field as the
// workflow, so a direct check-in racing an application for the same
// bed is resolved by the ledger: exactly one succeeds.
func (s *Service) CheckIn(ctx context.Context, studentNo string, bedID uint64, actor string) (*repository.BedLocation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Same student row lock as Submit: two check-ins for one student
	// against different beds must not both pass the assignment check.
	if _, err := s.students.LockByNoTx(ctx, tx, studentNo); err != nil {
		return nil, err
	}
	occupied, err := s.beds.FindByOccupantTx(ctx, tx, studentNo)
	if err != nil {
		return nil, err
	}
	if occupied != nil {
		return nil, ErrAlreadyAssigned
	}

	if err := s.beds.DirectAssignTx(ctx, tx, bedID, studentNo); err != nil {
		return nil, err
	}
	loc, err := s.beds.LocateTx(ctx, tx, bedID)
	if err != nil {
		return nil, err
	}
	if err := s.students.SetAssignmentTx(ctx, tx, studentNo, loc); err != nil {
		return nil, err
	}
	if err := s.stays.OpenTx(ctx, tx, studentNo, bedID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	s.emit(ctx, queue.AllocationEvent{
		Action:    queue.ActionCheckedIn,
		StudentNo: studentNo,
		BedID:     bedID,
		Actor:     actor,
		Detail:    fmt.Sprintf("%s room %s bed %s", loc.BuildingName, loc.RoomNumber, loc.BedNumber),
	})
	return loc, nil
}

// CheckOut releases the student's current bed, clears the denormalized
// dorm fields and closes the open stay record.
func (s *Service) CheckOut(ctx context.Context, studentNo string, actor string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := s.students.LockByNoTx(ctx, tx, studentNo); err != nil {
		return err
	}
	bed, err := s.beds.FindByOccupantTx(ctx, tx, studentNo)
	if err != nil {
		return err
	}
	if bed == nil {
		return ErrNotAssigned
	}

	if err := s.beds.ReleaseTx(ctx, tx, bed.ID); err != nil {
		return err
	}
	if err := s.students.ClearAssignmentTx(ctx, tx, studentNo); err != nil {
		return err
	}
	if err := s.stays.CloseForStudentTx(ctx, tx, studentNo); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true

	s.emit(ctx, queue.AllocationEvent{
		Action:    queue.ActionCheckedOut,
		StudentNo: studentNo,
		BedID:     bed.ID,
		Actor:     actor,
	})
	return nil
}

// emit publishes an allocation event when a publisher is configured.
// Publish errors are logged by the publisher and otherwise ignored.
func (s *Service) emit(ctx context.Context, ev queue.AllocationEvent) {
	if s.Publish == nil {
		return
	}
	ev.OccurredAt = time.Now().UTC().Format("2006-01-02 15:04:05")
	_ = s.Publish(ctx, ev)
}
