package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildingListCountsAvailability(t *testing.T) {
	db := newTestDB(t)
	_, bedIDs := seedRoom(t, db, "North Hall", "101", 3)
	beds := NewBedRepo(db)
	ctx := context.Background()

	require.NoError(t, inTx(t, db, func(tx *sql.Tx) error {
		return beds.DirectAssignTx(ctx, tx, bedIDs[0], "S100")
	}))
	require.NoError(t, inTx(t, db, func(tx *sql.Tx) error {
		return beds.ReserveTx(ctx, tx, bedIDs[1])
	}))

	list, err := NewBuildingRepo(db).List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, uint32(3), list[0].TotalBeds)
	assert.Equal(t, uint32(1), list[0].AvailableBeds)
}

func TestDeleteBuildingBlockedWhileBedsActive(t *testing.T) {
	db := newTestDB(t)
	_, bedIDs := seedRoom(t, db, "North Hall", "101", 2)
	beds := NewBedRepo(db)
	buildings := NewBuildingRepo(db)
	ctx := context.Background()

	require.NoError(t, inTx(t, db, func(tx *sql.Tx) error {
		return beds.DirectAssignTx(ctx, tx, bedIDs[0], "S100")
	}))

	var buildingID uint64
	require.NoError(t, db.QueryRow(`SELECT id FROM buildings LIMIT 1`).Scan(&buildingID))

	err := buildings.DeleteByID(ctx, buildingID)
	assert.ErrorIs(t, err, ErrConflict)

	// Once the bed is released the cascade goes through.
	require.NoError(t, inTx(t, db, func(tx *sql.Tx) error {
		return beds.ReleaseTx(ctx, tx, bedIDs[0])
	}))
	require.NoError(t, buildings.DeleteByID(ctx, buildingID))

	_, err = buildings.GetByID(ctx, buildingID)
	assert.ErrorIs(t, err, ErrBuildingNotFound)
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM beds`).Scan(&n))
	assert.Zero(t, n)
}

func TestDeleteMissingBuilding(t *testing.T) {
	db := newTestDB(t)
	err := NewBuildingRepo(db).DeleteByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrBuildingNotFound)
}

func TestRoomOccupancyDerived(t *testing.T) {
	db := newTestDB(t)
	_, bedIDs := seedRoom(t, db, "North Hall", "101", 4)
	beds := NewBedRepo(db)
	ctx := context.Background()

	require.NoError(t, inTx(t, db, func(tx *sql.Tx) error {
		return beds.DirectAssignTx(ctx, tx, bedIDs[0], "S100")
	}))
	require.NoError(t, inTx(t, db, func(tx *sql.Tx) error {
		return beds.DirectAssignTx(ctx, tx, bedIDs[1], "S101")
	}))
	// A reservation is not occupancy.
	require.NoError(t, inTx(t, db, func(tx *sql.Tx) error {
		return beds.ReserveTx(ctx, tx, bedIDs[2])
	}))

	var buildingID uint64
	require.NoError(t, db.QueryRow(`SELECT building_id FROM rooms LIMIT 1`).Scan(&buildingID))

	beds2 := NewBedRepo(db)
	rooms := NewRoomRepo(db, beds2)
	summaries, err := rooms.ListByBuilding(ctx, buildingID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, uint32(2), summaries[0].OccupiedBeds)
	assert.LessOrEqual(t, summaries[0].OccupiedBeds, summaries[0].Capacity)
}

func TestDeleteRoomBlockedWhileBedsActive(t *testing.T) {
	db := newTestDB(t)
	roomID, bedIDs := seedRoom(t, db, "North Hall", "101", 1)
	beds := NewBedRepo(db)
	rooms := NewRoomRepo(db, beds)
	ctx := context.Background()

	require.NoError(t, inTx(t, db, func(tx *sql.Tx) error {
		return beds.ReserveTx(ctx, tx, bedIDs[0])
	}))
	assert.ErrorIs(t, rooms.DeleteByID(ctx, roomID), ErrConflict)

	require.NoError(t, inTx(t, db, func(tx *sql.Tx) error {
		return beds.ReleaseTx(ctx, tx, bedIDs[0])
	}))
	require.NoError(t, rooms.DeleteByID(ctx, roomID))
	_, err := rooms.GetByID(ctx, roomID)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}
