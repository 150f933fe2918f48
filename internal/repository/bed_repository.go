package repository // repository defines data access for beds

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives
	"errors"       // errors for sentinel definitions
	"strconv"      // strconv renders bed numbers when provisioning
	"time"         // time stamps status transitions
)

// Bed status values. The bed row is the single serialization point of
// the allocation subsystem: every transition below is a single
// conditional UPDATE gated on the current status, so two operations
// racing for the same bed have exactly one winner.
const (
	BedAvailable = "AVAILABLE" // free for reservation or direct check-in
	BedReserved  = "RESERVED"  // held by exactly one pending application
	BedOccupied  = "OCCUPIED"  // a student currently lives here
)

// Bed represents a physical bed within a room. Status carries the
// allocation state machine; StudentNo is set only while OCCUPIED and
// is unique across beds, so a student can never occupy two at once.
type Bed struct {
	ID        uint64  // primary key
	RoomID    uint64  // FK -> rooms.id
	BedNumber string  // position within the room (1-based, stored as text)
	Status    string  // AVAILABLE | RESERVED | OCCUPIED
	StudentNo *string // occupant student number while OCCUPIED
	CreatedAt string
	UpdatedAt string
}

// BedLocation names where a bed physically is. It feeds the student
// record's denormalized dorm fields, which must always mirror the
// ledger's truth.
type BedLocation struct {
	BuildingName string
	RoomNumber   string
	BedNumber    string
}

// ErrBedNotFound is returned when a bed lookup yields no rows.
var ErrBedNotFound = errors.New("bed not found")

// BedRepo provides methods to work with beds in the database.
type BedRepo struct {
	db *sql.DB
}

// NewBedRepo constructs a BedRepo with the given DB handle.
func NewBedRepo(db *sql.DB) *BedRepo {
	return &BedRepo{db: db}
}

// DB exposes the underlying handle so callers can begin transactions.
func (r *BedRepo) DB() *sql.DB { return r.db }

// CreateForRoomTx provisions one bed per capacity slot for a freshly
// created room, numbered "1".."N", all AVAILABLE. The insertion occurs
// within the provided transaction; the caller must commit or roll back.
func (r *BedRepo) CreateForRoomTx(ctx context.Context, tx *sql.Tx, roomID uint64, capacity uint32) error {
	if capacity == 0 {
		return nil
	}
	query := `INSERT INTO beds (room_id, bed_number, status) VALUES `
	args := make([]interface{}, 0, int(capacity)*3)
	for i := uint32(0); i < capacity; i++ {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, roomID, strconv.FormatUint(uint64(i+1), 10), BedAvailable)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// GetByID retrieves a bed by its id.
func (r *BedRepo) GetByID(ctx context.Context, id uint64) (*Bed, error) {
	const q = `SELECT id, room_id, bed_number, status, student_no, created_at, updated_at
	           FROM beds WHERE id = ?`
	return scanBed(r.db.QueryRowContext(ctx, q, id))
}

// GetByIDTx is GetByID within an existing transaction.
func (r *BedRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*Bed, error) {
	const q = `SELECT id, room_id, bed_number, status, student_no, created_at, updated_at
	           FROM beds WHERE id = ?`
	return scanBed(tx.QueryRowContext(ctx, q, id))
}

func scanBed(row *sql.Row) (*Bed, error) {
	var b Bed
	var occupant sql.NullString
	err := row.Scan(&b.ID, &b.RoomID, &b.BedNumber, &b.Status, &occupant, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBedNotFound
		}
		return nil, err
	}
	if occupant.Valid {
		s := occupant.String
		b.StudentNo = &s
	}
	return &b, nil
}

// ListByRoom retrieves all beds of a room ordered by bed_number.
func (r *BedRepo) ListByRoom(ctx context.Context, roomID uint64) ([]Bed, error) {
	const q = `SELECT id, room_id, bed_number, status, student_no, created_at, updated_at
	           FROM beds
	           WHERE room_id = ?
	           ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Bed
	for rows.Next() {
		var b Bed
		var occupant sql.NullString
		if err := rows.Scan(&b.ID, &b.RoomID, &b.BedNumber, &b.Status, &occupant, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		if occupant.Valid {
			s := occupant.String
			b.StudentNo = &s
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ReserveTx transitions a bed AVAILABLE -> RESERVED. The transition is a
// single conditional UPDATE checked via RowsAffected, never a
// read-then-write pair: when two applications race for the same bed the
// database picks exactly one winner and the loser receives a
// BedConflictError carrying the status it lost to.
func (r *BedRepo) ReserveTx(ctx context.Context, tx *sql.Tx, bedID uint64) error {
	const q = `UPDATE beds SET status = ?, updated_at = ?
	           WHERE id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, q, BedReserved, nowStamp(), bedID, BedAvailable)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.conflictTx(ctx, tx, bedID)
	}
	return nil
}

// ConfirmOccupancyTx transitions a bed RESERVED -> OCCUPIED and records
// the occupant. It fails with a conflict when the bed is no longer
// RESERVED, e.g. the reservation was released or a direct check-in won.
func (r *BedRepo) ConfirmOccupancyTx(ctx context.Context, tx *sql.Tx, bedID uint64, studentNo string) error {
	const q = `UPDATE beds SET status = ?, student_no = ?, updated_at = ?
	           WHERE id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, q, BedOccupied, studentNo, nowStamp(), bedID, BedReserved)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.conflictTx(ctx, tx, bedID)
	}
	return nil
}

// DirectAssignTx transitions a bed AVAILABLE -> OCCUPIED, skipping the
// reservation step. Used by manager check-in. A bed held by a pending
// application is RESERVED and therefore refused here, which is what
// keeps the two allocation paths mutually exclusive.
func (r *BedRepo) DirectAssignTx(ctx context.Context, tx *sql.Tx, bedID uint64, studentNo string) error {
	const q = `UPDATE beds SET status = ?, student_no = ?, updated_at = ?
	           WHERE id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, q, BedOccupied, studentNo, nowStamp(), bedID, BedAvailable)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.conflictTx(ctx, tx, bedID)
	}
	return nil
}

// ReleaseTx returns a bed to AVAILABLE and clears the occupant. It is
// deliberately unconditional and idempotent: releasing an already
// AVAILABLE bed is a no-op. RowsAffected is not consulted because MySQL
// reports zero affected rows for updates that change nothing.
func (r *BedRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, bedID uint64) error {
	const q = `UPDATE beds SET status = ?, student_no = NULL, updated_at = ?
	           WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, BedAvailable, nowStamp(), bedID)
	return err
}

// FindByOccupantTx returns the bed currently occupied by the given
// student, or nil when the student has no assignment. The bed row, not
// the student's denormalized fields, is the authority on assignment.
func (r *BedRepo) FindByOccupantTx(ctx context.Context, tx *sql.Tx, studentNo string) (*Bed, error) {
	const q = `SELECT id, room_id, bed_number, status, student_no, created_at, updated_at
	           FROM beds WHERE student_no = ? AND status = ? LIMIT 1`
	b, err := scanBed(tx.QueryRowContext(ctx, q, studentNo, BedOccupied))
	if errors.Is(err, ErrBedNotFound) {
		return nil, nil
	}
	return b, err
}

// LocateTx resolves a bed's building name, room number and bed number
// for the student record's denormalized dorm fields.
func (r *BedRepo) LocateTx(ctx context.Context, tx *sql.Tx, bedID uint64) (*BedLocation, error) {
	const q = `SELECT bld.name, rm.room_number, b.bed_number
	           FROM beds b
	           JOIN rooms rm ON rm.id = b.room_id
	           JOIN buildings bld ON bld.id = rm.building_id
	           WHERE b.id = ?`
	var loc BedLocation
	err := tx.QueryRowContext(ctx, q, bedID).Scan(&loc.BuildingName, &loc.RoomNumber, &loc.BedNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBedNotFound
		}
		return nil, err
	}
	return &loc, nil
}

// conflictTx builds the error for a refused transition. A missing row
// surfaces as ErrBedNotFound; anything else reports the status that
// caused the guard to miss.
func (r *BedRepo) conflictTx(ctx context.Context, tx *sql.Tx, bedID uint64) error {
	var status string
	err := tx.QueryRowContext(ctx, `SELECT status FROM beds WHERE id = ?`, bedID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBedNotFound
		}
		return err
	}
	return &BedConflictError{BedID: bedID, Status: status}
}

// nowStamp renders the current UTC time in the shared timestamp layout.
func nowStamp() string {
	return time.Now().UTC().Format(timeLayout)
}
