package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Application status values. PENDING is the only non-terminal state;
// rows are never deleted, so processed applications double as history.
const (
	ApplicationPending  = "PENDING"
	ApplicationApproved = "APPROVED"
	ApplicationRejected = "REJECTED"
)

// Application mirrors the 'room_applications' table. A PENDING
// application holds its bed RESERVED in the ledger; the two rows move
// to their terminal states inside the same transaction.
type Application struct {
	ID           uint64
	StudentNo    string
	BedID        uint64
	Status       string // PENDING | APPROVED | REJECTED
	ApplyTime    string
	ProcessTime  *string
	ProcessedBy  *string
	RejectReason *string
}

// ApplicationDetail joins an application with where its bed is, for
// manager review listings.
type ApplicationDetail struct {
	Application
	StudentName  string
	BuildingName string
	RoomNumber   string
	BedNumber    string
}

// ErrApplicationNotFound is returned when an application lookup yields no rows.
var ErrApplicationNotFound = errors.New("application not found")

// ErrNotPending is returned when a terminal transition is attempted on
// an application that is no longer PENDING.
var ErrNotPending = errors.New("application is not pending")

// ApplicationRepo provides data access for room applications.
type ApplicationRepo struct {
	db *sql.DB
}

// NewApplicationRepo constructs an ApplicationRepo with the given DB handle.
func NewApplicationRepo(db *sql.DB) *ApplicationRepo { return &ApplicationRepo{db: db} }

// CreateTx inserts a PENDING application within the provided
// transaction and populates the generated ID and apply time. The
// caller must have reserved the bed first, in the same transaction.
func (r *ApplicationRepo) CreateTx(ctx context.Context, tx *sql.Tx, studentNo string, bedID uint64) (*Application, error) {
	applyTime := time.Now().UTC().Format(timeLayout)
	const q = `INSERT INTO room_applications (student_no, bed_id, status, apply_time) VALUES (?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, studentNo, bedID, ApplicationPending, applyTime)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &Application{
		ID:        uint64(id),
		StudentNo: studentNo,
		BedID:     bedID,
		Status:    ApplicationPending,
		ApplyTime: applyTime,
	}, nil
}

// GetByIDTx retrieves an application by id within a transaction.
func (r *ApplicationRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*Application, error) {
	const q = `SELECT id, student_no, bed_id, status, apply_time, process_time, processed_by, reject_reason
	           FROM room_applications WHERE id = ?`
	var a Application
	var pt, pb, rr sql.NullString
	err := tx.QueryRowContext(ctx, q, id).
		Scan(&a.ID, &a.StudentNo, &a.BedID, &a.Status, &a.ApplyTime, &pt, &pb, &rr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	if pt.Valid {
		v := pt.String
		a.ProcessTime = &v
	}
	if pb.Valid {
		v := pb.String
		a.ProcessedBy = &v
	}
	if rr.Valid {
		v := rr.String
		a.RejectReason = &v
	}
	return &a, nil
}

// HasPendingTx reports whether the student already has a PENDING
// application. Checked inside the submit transaction to enforce the
// one-pending-per-student rule.
func (r *ApplicationRepo) HasPendingTx(ctx context.Context, tx *sql.Tx, studentNo string) (bool, error) {
	const q = `SELECT COUNT(*) FROM room_applications WHERE student_no = ? AND status = ?`
	var n int
	if err := tx.QueryRowContext(ctx, q, studentNo, ApplicationPending).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkApprovedTx moves an application PENDING -> APPROVED. Like the bed
// transitions, this is a conditional UPDATE checked via RowsAffected so
// that two managers processing the same application cannot both win.
func (r *ApplicationRepo) MarkApprovedTx(ctx context.Context, tx *sql.Tx, id uint64, approver string) error {
	const q = `UPDATE room_applications SET status = ?, process_time = ?, processed_by = ?
	           WHERE id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, q,
		ApplicationApproved, time.Now().UTC().Format(timeLayout), approver, id, ApplicationPending)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotPending
	}
	return nil
}

// MarkRejectedTx moves an application PENDING -> REJECTED and records
// the reason. Same conditional-update discipline as MarkApprovedTx.
func (r *ApplicationRepo) MarkRejectedTx(ctx context.Context, tx *sql.Tx, id uint64, processor, reason string) error {
	const q = `UPDATE room_applications SET status = ?, process_time = ?, processed_by = ?, reject_reason = ?
	           WHERE id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, q,
		ApplicationRejected, time.Now().UTC().Format(timeLayout), processor, reason, id, ApplicationPending)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotPending
	}
	return nil
}

// ListByStatus returns applications in the given status with student
// and bed location context, newest first. An empty status lists all.
func (r *ApplicationRepo) ListByStatus(ctx context.Context, status string) ([]ApplicationDetail, error) {
	q := `SELECT a.id, a.student_no, a.bed_id, a.status, a.apply_time, a.process_time, a.processed_by, a.reject_reason,
	             s.name, bld.name, rm.room_number, b.bed_number
	      FROM room_applications a
	      JOIN students s ON s.student_no = a.student_no
	      JOIN beds b ON b.id = a.bed_id
	      JOIN rooms rm ON rm.id = b.room_id
	      JOIN buildings bld ON bld.id = rm.building_id`
	args := []interface{}{}
	if status != "" {
		q += ` WHERE a.status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY a.id DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanApplicationDetails(rows)
}

// ListByStudent returns the student's applications, newest first.
func (r *ApplicationRepo) ListByStudent(ctx context.Context, studentNo string) ([]ApplicationDetail, error) {
	const q = `SELECT a.id, a.student_no, a.bed_id, a.status, a.apply_time, a.process_time, a.processed_by, a.reject_reason,
	                  s.name, bld.name, rm.room_number, b.bed_number
	           FROM room_applications a
	           JOIN students s ON s.student_no = a.student_no
	           JOIN beds b ON b.id = a.bed_id
	           JOIN rooms rm ON rm.id = b.room_id
	           JOIN buildings bld ON bld.id = rm.building_id
	           WHERE a.student_no = ?
	           ORDER BY a.id DESC`
	rows, err := r.db.QueryContext(ctx, q, studentNo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanApplicationDetails(rows)
}

func scanApplicationDetails(rows *sql.Rows) ([]ApplicationDetail, error) {
	out := make([]ApplicationDetail, 0)
	for rows.Next() {
		var d ApplicationDetail
		var pt, pb, rr sql.NullString
		if err := rows.Scan(&d.ID, &d.StudentNo, &d.BedID, &d.Status, &d.ApplyTime, &pt, &pb, &rr,
			&d.StudentName, &d.BuildingName, &d.RoomNumber, &d.BedNumber); err != nil {
			return nil, err
		}
		if pt.Valid {
			v := pt.String
			d.ProcessTime = &v
		}
		if pb.Valid {
			v := pb.String
			d.ProcessedBy = &v
		}
		if rr.Valid {
			v := rr.String
			d.RejectReason = &v
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
