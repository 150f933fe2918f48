package repository

import (
	"context"
	"database/sql"
	"errors"
)

// Room represents a dormitory room. One bed row exists for every
// capacity slot, provisioned together with the room.
type Room struct {
	ID         uint64
	BuildingID uint64
	RoomNumber string
	Capacity   uint32
	RoomType   string // e.g. STANDARD | ENSUITE | ACCESSIBLE
	CreatedAt  string
	UpdatedAt  string
}

// RoomSummary augments a room with its current occupancy, derived from
// the bed ledger rather than stored as a counter. Because each of the
// room's capacity slots is one bed row and a bed holds at most one
// occupant, occupiedBedCount <= capacity holds by construction.
type RoomSummary struct {
	Room
	OccupiedBeds uint32
}

// ErrRoomNotFound is returned when a room lookup yields no rows.
var ErrRoomNotFound = errors.New("room not found")

// RoomRepo provides data access for rooms.
type RoomRepo struct {
	db   *sql.DB
	beds *BedRepo
}

// NewRoomRepo constructs a RoomRepo. The bed repository is required
// because provisioning a room creates its beds in the same transaction.
func NewRoomRepo(db *sql.DB, beds *BedRepo) *RoomRepo {
	return &RoomRepo{db: db, beds: beds}
}

// CreateWithBeds inserts a room and provisions one AVAILABLE bed per
// capacity slot atomically. On success the room's ID is populated.
func (r *RoomRepo) CreateWithBeds(ctx context.Context, rm *Room) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const q = `INSERT INTO rooms (building_id, room_number, capacity, room_type) VALUES (?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, rm.BuildingID, rm.RoomNumber, rm.Capacity, rm.RoomType)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rm.ID = uint64(id)

	if err := r.beds.CreateForRoomTx(ctx, tx, rm.ID, rm.Capacity); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID retrieves a room by its id.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*Room, error) {
	const q = `SELECT id, building_id, room_number, capacity, room_type, created_at, updated_at
	           FROM rooms WHERE id = ?`
	var rm Room
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&rm.ID, &rm.BuildingID, &rm.RoomNumber, &rm.Capacity, &rm.RoomType, &rm.CreatedAt, &rm.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return &rm, nil
}

// ListByBuilding returns all rooms of a building with derived occupancy.
func (r *RoomRepo) ListByBuilding(ctx context.Context, buildingID uint64) ([]RoomSummary, error) {
	const q = `SELECT rm.id, rm.building_id, rm.room_number, rm.capacity, rm.room_type, rm.created_at, rm.updated_at,
	                  COALESCE(SUM(CASE WHEN b.status = 'OCCUPIED' THEN 1 ELSE 0 END), 0)
	           FROM rooms rm
	           LEFT JOIN beds b ON b.room_id = rm.id
	           WHERE rm.building_id = ?
	           GROUP BY rm.id, rm.building_id, rm.room_number, rm.capacity, rm.room_type, rm.created_at, rm.updated_at
	           ORDER BY rm.id`
	rows, err := r.db.QueryContext(ctx, q, buildingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]RoomSummary, 0)
	for rows.Next() {
		var s RoomSummary
		if err := rows.Scan(&s.ID, &s.BuildingID, &s.RoomNumber, &s.Capacity, &s.RoomType,
			&s.CreatedAt, &s.UpdatedAt, &s.OccupiedBeds); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteByID removes a room and its beds. Blocked with ErrConflict
// while any bed is reserved or occupied.
func (r *RoomRepo) DeleteByID(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var exists uint64
	err = tx.QueryRowContext(ctx, `SELECT id FROM rooms WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRoomNotFound
		}
		return err
	}

	var active uint32
	const countQ = `SELECT COUNT(*) FROM beds WHERE room_id = ? AND status <> 'AVAILABLE'`
	if err := tx.QueryRowContext(ctx, countQ, id).Scan(&active); err != nil {
		return err
	}
	if active > 0 {
		return ErrConflict
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM beds WHERE room_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
