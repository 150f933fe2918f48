package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// testSchema mirrors the production tables in sqlite dialect. The
// repositories read and write timestamps as plain strings, which is
// what keeps them portable across MySQL and the in-memory test DB.
var testSchema = []string{
	`CREATE TABLE users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		student_no TEXT,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE refresh_tokens (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		token_hash TEXT NOT NULL UNIQUE,
		expires_at TEXT NOT NULL,
		revoked_at TEXT
	)`,
	`CREATE TABLE buildings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		location TEXT NOT NULL DEFAULT '',
		manager_contact TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE rooms (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		building_id INTEGER NOT NULL,
		room_number TEXT NOT NULL,
		capacity INTEGER NOT NULL,
		room_type TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (building_id, room_number)
	)`,
	`CREATE TABLE beds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		room_id INTEGER NOT NULL,
		bed_number TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'AVAILABLE',
		student_no TEXT UNIQUE,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (room_id, bed_number)
	)`,
	`CREATE TABLE students (
		student_no TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		gender TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		major TEXT NOT NULL DEFAULT '',
		dorm_building TEXT,
		room_number TEXT,
		bed_number TEXT,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE room_applications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		student_no TEXT NOT NULL,
		bed_id INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		apply_time TEXT NOT NULL,
		process_time TEXT,
		processed_by TEXT,
		reject_reason TEXT
	)`,
	`CREATE TABLE stay_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		student_no TEXT NOT NULL,
		bed_id INTEGER NOT NULL,
		check_in_date TEXT NOT NULL,
		check_out_date TEXT,
		status TEXT NOT NULL DEFAULT 'CURRENTLY_LIVING'
	)`,
	`CREATE TABLE audit_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		actor TEXT NOT NULL,
		action TEXT NOT NULL,
		student_no TEXT NOT NULL,
		bed_id INTEGER NOT NULL,
		detail TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`,
}

// newTestDB opens an in-memory sqlite database limited to a single
// connection, which both keeps the :memory: store alive and serializes
// concurrent transactions the way a real server's pool contention
// would.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	for _, stmt := range testSchema {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// seedRoom provisions a building and one room with the given capacity,
// returning the room ID and its bed IDs in bed-number order.
func seedRoom(t *testing.T, db *sql.DB, buildingName, roomNumber string, capacity uint32) (uint64, []uint64) {
	t.Helper()
	ctx := context.Background()
	buildings := NewBuildingRepo(db)
	beds := NewBedRepo(db)
	rooms := NewRoomRepo(db, beds)

	b := &Building{Name: buildingName}
	require.NoError(t, buildings.Create(ctx, b))
	rm := &Room{BuildingID: b.ID, RoomNumber: roomNumber, Capacity: capacity}
	require.NoError(t, rooms.CreateWithBeds(ctx, rm))

	list, err := beds.ListByRoom(ctx, rm.ID)
	require.NoError(t, err)
	require.Len(t, list, int(capacity))
	ids := make([]uint64, 0, len(list))
	for _, bed := range list {
		ids = append(ids, bed.ID)
	}
	return rm.ID, ids
}

// seedStudent inserts a student profile.
func seedStudent(t *testing.T, db *sql.DB, studentNo, name string) {
	t.Helper()
	s := &Student{StudentNo: studentNo, Name: name, Gender: "F"}
	require.NoError(t, NewStudentRepo(db).Create(context.Background(), s))
}

// inTx runs fn inside a transaction and commits it.
func inTx(t *testing.T, db *sql.DB, fn func(tx *sql.Tx) error) error {
	t.Helper()
	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	require.NoError(t, tx.Commit())
	return nil
}
