package repository

import (
	"context"
	"database/sql"
	"errors"
)

// Building represents a dormitory building. Buildings own rooms, which
// in turn own beds (strict containment).
type Building struct {
	ID             uint64
	Name           string
	Location       string
	ManagerContact string
	CreatedAt      string
	UpdatedAt      string
}

// BuildingSummary augments a building with bed availability counts for
// the read-only listings consumed by dashboards.
type BuildingSummary struct {
	Building
	TotalBeds     uint32
	AvailableBeds uint32
}

// ErrBuildingNotFound is returned when a building lookup yields no rows.
var ErrBuildingNotFound = errors.New("building not found")

// BuildingRepo provides data access for buildings.
type BuildingRepo struct {
	db *sql.DB
}

// NewBuildingRepo constructs a BuildingRepo with the given DB handle.
func NewBuildingRepo(db *sql.DB) *BuildingRepo { return &BuildingRepo{db: db} }

// Create inserts a building. On success the ID field is populated.
func (r *BuildingRepo) Create(ctx context.Context, b *Building) error {
	const q = `INSERT INTO buildings (name, location, manager_contact) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, b.Name, b.Location, b.ManagerContact)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// GetByID retrieves a building by its id.
func (r *BuildingRepo) GetByID(ctx context.Context, id uint64) (*Building, error) {
	const q = `SELECT id, name, location, manager_contact, created_at, updated_at
	           FROM buildings WHERE id = ?`
	var b Building
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&b.ID, &b.Name, &b.Location, &b.ManagerContact, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBuildingNotFound
		}
		return nil, err
	}
	return &b, nil
}

// List returns all buildings together with total and free bed counts.
func (r *BuildingRepo) List(ctx context.Context) ([]BuildingSummary, error) {
	const q = `SELECT bld.id, bld.name, bld.location, bld.manager_contact, bld.created_at, bld.updated_at,
	                  COUNT(b.id),
	                  COALESCE(SUM(CASE WHEN b.status = 'AVAILABLE' THEN 1 ELSE 0 END), 0)
	           FROM buildings bld
	           LEFT JOIN rooms rm ON rm.building_id = bld.id
	           LEFT JOIN beds b ON b.room_id = rm.id
	           GROUP BY bld.id, bld.name, bld.location, bld.manager_contact, bld.created_at, bld.updated_at
	           ORDER BY bld.id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]BuildingSummary, 0)
	for rows.Next() {
		var s BuildingSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Location, &s.ManagerContact, &s.CreatedAt, &s.UpdatedAt,
			&s.TotalBeds, &s.AvailableBeds); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteByID removes a building with its rooms and beds. The cascade is
// blocked with ErrConflict while any contained bed is reserved or
// occupied, so a delete can never orphan an active assignment.
func (r *BuildingRepo) DeleteByID(ctx context.Context, id uint64) error {
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
	err = tx.QueryRowContext(ctx, `SELECT id FROM buildings WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBuildingNotFound
		}
		return err
	}

	var active uint32
	const countQ = `SELECT COUNT(*) FROM beds b
	                JOIN rooms rm ON rm.id = b.room_id
	                WHERE rm.building_id = ? AND b.status <> 'AVAILABLE'`
	if err := tx.QueryRowContext(ctx, countQ, id).Scan(&active); err != nil {
		return err
	}
	if active > 0 {
		return ErrConflict
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM beds WHERE room_id IN (SELECT id FROM rooms WHERE building_id = ?)`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE building_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM buildings WHERE id = ?`, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
