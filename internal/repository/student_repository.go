package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// Student mirrors the 'students' table. StudentNo is the immutable
// business key. The three Dorm* fields are a denormalized convenience
// copy of the student's current assignment; they are only ever written
// inside the same transaction as the bed transition they mirror, so
// they cannot diverge from the ledger.
type Student struct {
	StudentNo    string
	Name         string
	Gender       string
	Phone        string
	Major        string
	DormBuilding *string
	RoomNumber   *string
	BedNumber    *string
	CreatedAt    string
	UpdatedAt    string
}

// ErrStudentNotFound is returned when a student lookup yields no rows.
var ErrStudentNotFound = errors.New("student not found")

// ErrStudentExists is returned when creating a student whose number is taken.
var ErrStudentExists = errors.New("student number already exists")

// StudentRepo provides data access for student profiles.
type StudentRepo struct {
	db *sql.DB
}

// NewStudentRepo constructs a StudentRepo with the given DB handle.
func NewStudentRepo(db *sql.DB) *StudentRepo { return &StudentRepo{db: db} }

// Create inserts a student profile.
func (r *StudentRepo) Create(ctx context.Context, s *Student) error {
	const q = `INSERT INTO students (student_no, name, gender, phone, major) VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, s.StudentNo, s.Name, s.Gender, s.Phone, s.Major)
	if err != nil {
		// MySQL reports duplicate keys as error 1062; sqlite mentions UNIQUE.
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "1062") || strings.Contains(msg, "unique") {
			return ErrStudentExists
		}
		return err
	}
	return nil
}

// GetByNo retrieves a student by student number.
func (r *StudentRepo) GetByNo(ctx context.Context, studentNo string) (*Student, error) {
	const q = `SELECT student_no, name, gender, phone, major, dorm_building, room_number, bed_number, created_at, updated_at
	           FROM students WHERE student_no = ?`
	return scanStudent(r.db.QueryRowContext(ctx, q, studentNo))
}

// GetByNoTx is GetByNo within an existing transaction.
func (r *StudentRepo) GetByNoTx(ctx context.Context, tx *sql.Tx, studentNo string) (*Student, error) {
	const q = `SELECT student_no, name, gender, phone, major, dorm_building, room_number, bed_number, created_at, updated_at
	           FROM students WHERE student_no = ?`
	return scanStudent(tx.QueryRowContext(ctx, q, studentNo))
}

// LockByNoTx loads the student while holding an exclusive row lock for
// the remainder of the transaction. Allocation flows call this before
// their duplicate-pending and current-assignment checks, so two
// transactions for the same student queue on the row instead of both
// reading a snapshot from before the other committed. The lock is a
// self-assignment UPDATE rather than SELECT ... FOR UPDATE because the
// sqlite test driver has no FOR UPDATE; MySQL locks the row either
// way. The UPDATE's affected count is not checked (MySQL reports 0
// when values are unchanged), existence is decided by the SELECT.
func (r *StudentRepo) LockByNoTx(ctx context.Context, tx *sql.Tx, studentNo string) (*Student, error) {
	const lock = `UPDATE students SET student_no = student_no WHERE student_no = ?`
	if _, err := tx.ExecContext(ctx, lock, studentNo); err != nil {
		return nil, err
	}
	return r.GetByNoTx(ctx, tx, studentNo)
}

func scanStudent(row *sql.Row) (*Student, error) {
	var s Student
	var bld, room, bed sql.NullString
	err := row.Scan(&s.StudentNo, &s.Name, &s.Gender, &s.Phone, &s.Major, &bld, &room, &bed, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	if bld.Valid {
		v := bld.String
		s.DormBuilding = &v
	}
	if room.Valid {
		v := room.String
		s.RoomNumber = &v
	}
	if bed.Valid {
		v := bed.String
		s.BedNumber = &v
	}
	return &s, nil
}

// List returns all students ordered by student number.
func (r *StudentRepo) List(ctx context.Context) ([]Student, error) {
	const q = `SELECT student_no, name, gender, phone, major, dorm_building, room_number, bed_number, created_at, updated_at
	           FROM students ORDER BY student_no`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Student, 0)
	for rows.Next() {
		var s Student
		var bld, room, bed sql.NullString
		if err := rows.Scan(&s.StudentNo, &s.Name, &s.Gender, &s.Phone, &s.Major,
			&bld, &room, &bed, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		if bld.Valid {
			v := bld.String
			s.DormBuilding = &v
		}
		if room.Valid {
			v := room.String
			s.RoomNumber = &v
		}
		if bed.Valid {
			v := bed.String
			s.BedNumber = &v
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SetAssignmentTx writes the denormalized dorm fields. Must only be
// called inside the transaction whose bed transition it mirrors.
func (r *StudentRepo) SetAssignmentTx(ctx context.Context, tx *sql.Tx, studentNo string, loc *BedLocation) error {
	const q = `UPDATE students SET dorm_building = ?, room_number = ?, bed_number = ?, updated_at = ?
	           WHERE student_no = ?`
	res, err := tx.ExecContext(ctx, q, loc.BuildingName, loc.RoomNumber, loc.BedNumber, nowStamp(), studentNo)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStudentNotFound
	}
	return nil
}

// ClearAssignmentTx blanks the denormalized dorm fields on check-out.
func (r *StudentRepo) ClearAssignmentTx(ctx context.Context, tx *sql.Tx, studentNo string) error {
	const q = `UPDATE students SET dorm_building = NULL, room_number = NULL, bed_number = NULL, updated_at = ?
	           WHERE student_no = ?`
	res, err := tx.ExecContext(ctx, q, nowStamp(), studentNo)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStudentNotFound
	}
	return nil
}
