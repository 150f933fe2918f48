package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateForRoomNumbersBeds(t *testing.T) {
	db := newTestDB(t)
	roomID, bedIDs := seedRoom(t, db, "North Hall", "101", 4)
	require.Len(t, bedIDs, 4)

	list, err := NewBedRepo(db).ListByRoom(context.Background(), roomID)
	require.NoError(t, err)
	for i, b := range list {
		assert.Equal(t, BedAvailable, b.Status)
		assert.Equal(t, strconv.Itoa(i+1), b.BedNumber)
		assert.Nil(t, b.StudentNo)
	}
}

func TestReserveOnlyFromAvailable(t *testing.T) {
	db := newTestDB(t)
	_, bedIDs := seedRoom(t, db, "North Hall", "101", 1)
	beds := NewBedRepo(db)
	bedID := bedIDs[0]

	require.NoError(t, inTx(t, db, func(tx *sql.Tx) error {
		return beds.ReserveTx(context.Background(), tx, bedID)
	}))

	// Second reservation loses and learns the status it lost to.
	err := inTx(t, db, func(tx *sql.Tx) error {
		return beds.ReserveTx(context.Background(), tx, bedID)
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBedConflict)
	var conflict *BedConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, bedID, conflict.BedID)
	assert.Equal(t, BedReserved, conflict.Status)
}

func TestDirectAssignRefusesReservedBed(t *testing.T) {
	db := newTestDB(t)
	_, bedIDs := seedRoom(t, db, "North Hall", "101", 1)
	beds := NewBedRepo(db)
	bedID := bedIDs[0]

	require.NoError(t, inTx(t, db, func(tx *sql.Tx) error {
		return beds.ReserveTx(context.Background(), tx, bedID)
	}))

	err := inTx(t, db, func(tx *sql.Tx) error {
		return beds.DirectAssignTx(context.Background(), tx, bedID, "S100")
	})
	assert.ErrorIs(t, err, ErrBedConflict)
}

func TestConfirmOccupancyRequiresReservation(t *testing.T) {
	db := newTestDB(t)
	_, bedIDs := seedRoom(t, db, "North Hall", "101", 1)
	beds := NewBedRepo(db)
	bedID := bedIDs[0]
	ctx := context.Background()

	// Confirming an AVAILABLE bed is refused.
	err := inTx(t, db, func(tx *sql.Tx) error {
		return beds.ConfirmOccupancyTx(ctx, tx, bedID, "S100")
	})
	assert.ErrorIs(t, err, ErrBedConflict)

	require.NoError(t, inTx(t, db, func(tx *sql.Tx) error {
		return beds.ReserveTx(ctx, tx, bedID)
	}))
	require.NoError(t, inTx(t, db, func(tx *sql.Tx) error {
		return beds.ConfirmOccupancyTx(ctx, tx, bedID, "S100")
	}))

	b, err := beds.GetByID(ctx, bedID)
	require.NoError(t, err)
	assert.Equal(t, BedOccupied, b.Status)
	require.NotNil(t, b.StudentNo)
	assert.Equal(t, "S100", *b.StudentNo)
}

func TestReleaseIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	_, bedIDs := seedRoom(t, db, "North Hall", "101", 1)
	beds := NewBedRepo(db)
	bedID := bedIDs[0]
	ctx := context.Background()

	require.NoError(t, inTx(t, db, func(tx *sql.Tx) error {
		return beds.DirectAssignTx(ctx, tx, bedID, "S100")
	}))

	for i := 0; i < 2; i++ {
		require.NoError(t, inTx(t, db, func(tx *sql.Tx) error {
			return beds.ReleaseTx(ctx, tx, bedID)
		}))
	}

	b, err := beds.GetByID(ctx, bedID)
	require.NoError(t, err)
	assert.Equal(t, BedAvailable, b.Status)
	assert.Nil(t, b.StudentNo)
}

func TestTransitionOnMissingBed(t *testing.T) {
	db := newTestDB(t)
	beds := NewBedRepo(db)

	err := inTx(t, db, func(tx *sql.Tx) error {
		return beds.ReserveTx(context.Background(), tx, 9999)
	})
	assert.ErrorIs(t, err, ErrBedNotFound)
	assert.False(t, errors.Is(err, ErrBedConflict))
}

func TestOccupantUniqueAcrossBeds(t *testing.T) {
	db := newTestDB(t)
	_, bedIDs := seedRoom(t, db, "North Hall", "101", 3)
	beds := NewBedRepo(db)
	ctx := context.Background()

	require.NoError(t, inTx(t, db, func(tx *sql.Tx) error {
		return beds.DirectAssignTx(ctx, tx, bedIDs[0], "S100")
	}))

	// The per-bed status guard passes (the second bed is AVAILABLE),
	// but the unique index on student_no refuses a second occupied row
	// for the same student.
	err := inTx(t, db, func(tx *sql.Tx) error {
		return beds.DirectAssignTx(ctx, tx, bedIDs[1], "S100")
	})
	require.Error(t, err)
	msg := strings.ToLower(err.Error())
	assert.True(t, strings.Contains(msg, "1062") || strings.Contains(msg, "unique"), msg)

	// Unoccupied beds carry NULL occupants, which never collide.
	require.NoError(t, inTx(t, db, func(tx *sql.Tx) error {
		return beds.ReserveTx(ctx, tx, bedIDs[2])
	}))
}

func TestFindByOccupant(t *testing.T) {
	db := newTestDB(t)
	_, bedIDs := seedRoom(t, db, "North Hall", "101", 2)
	beds := NewBedRepo(db)
	ctx := context.Background()

	err := inTx(t, db, func(tx *sql.Tx) error {
		b, err := beds.FindByOccupantTx(ctx, tx, "S100")
		require.NoError(t, err)
		assert.Nil(t, b)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, inTx(t, db, func(tx *sql.Tx) error {
		return beds.DirectAssignTx(ctx, tx, bedIDs[1], "S100")
	}))

	err = inTx(t, db, func(tx *sql.Tx) error {
		b, err := beds.FindByOccupantTx(ctx, tx, "S100")
		require.NoError(t, err)
		require.NotNil(t, b)
		assert.Equal(t, bedIDs[1], b.ID)
		return nil
	})
	require.NoError(t, err)
}

func TestLocate(t *testing.T) {
	db := newTestDB(t)
	_, bedIDs := seedRoom(t, db, "North Hall", "303", 1)
	beds := NewBedRepo(db)

	err := inTx(t, db, func(tx *sql.Tx) error {
		loc, err := beds.LocateTx(context.Background(), tx, bedIDs[0])
		require.NoError(t, err)
		assert.Equal(t, "North Hall", loc.BuildingName)
		assert.Equal(t, "303", loc.RoomNumber)
		assert.Equal(t, "1", loc.BedNumber)
		return nil
	})
	require.NoError(t, err)
}
