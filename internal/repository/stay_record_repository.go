package repository

import (
	"context"
	"database/sql"
	"time"
)

// Stay record status values.
const (
	StayCurrent    = "CURRENTLY_LIVING"
	StayCheckedOut = "CHECKED_OUT"
)

// StayRecord mirrors the 'stay_records' table: one row per residence
// period, opened on check-in and closed on check-out. Records are the
// historical counterpart of the live bed ledger.
type StayRecord struct {
	ID           uint64
	StudentNo    string
	BedID        uint64
	CheckInDate  string
	CheckOutDate *string
	Status       string // CURRENTLY_LIVING | CHECKED_OUT
}

// StayRecordRepo provides data access for stay records.
type StayRecordRepo struct {
	db *sql.DB
}

// NewStayRecordRepo constructs a StayRecordRepo with the given DB handle.
func NewStayRecordRepo(db *sql.DB) *StayRecordRepo { return &StayRecordRepo{db: db} }

// OpenTx inserts a CURRENTLY_LIVING record within the provided
// transaction, dated today (UTC).
func (r *StayRecordRepo) OpenTx(ctx context.Context, tx *sql.Tx, studentNo string, bedID uint64) error {
	const q = `INSERT INTO stay_records (student_no, bed_id, check_in_date, status) VALUES (?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q, studentNo, bedID, time.Now().UTC().Format("2006-01-02"), StayCurrent)
	return err
}

// CloseForStudentTx marks the student's open record CHECKED_OUT with
// today's date. A missing open record is not an error; the bed ledger,
// not the history table, decides whether a check-out is legal.
func (r *StayRecordRepo) CloseForStudentTx(ctx context.Context, tx *sql.Tx, studentNo string) error {
	const q = `UPDATE stay_records SET status = ?, check_out_date = ?
	           WHERE student_no = ? AND status = ?`
	_, err := tx.ExecContext(ctx, q, StayCheckedOut, time.Now().UTC().Format("2006-01-02"), studentNo, StayCurrent)
	return err
}

// ListByStudent returns the student's stay history, newest first.
func (r *StayRecordRepo) ListByStudent(ctx context.Context, studentNo string) ([]StayRecord, error) {
	const q = `SELECT id, student_no, bed_id, check_in_date, check_out_date, status
	           FROM stay_records WHERE student_no = ? ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, q, studentNo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]StayRecord, 0)
	for rows.Next() {
		var rec StayRecord
		var co sql.NullString
		if err := rows.Scan(&rec.ID, &rec.StudentNo, &rec.BedID, &rec.CheckInDate, &co, &rec.Status); err != nil {
			return nil, err
		}
		if co.Valid {
			v := co.String
			rec.CheckOutDate = &v
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
