package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travelmind/booking/apperror"
	"github.com/travelmind/booking/model"
	"gorm.io/gorm"
)

const testRoomID = "0b4f8f3e-7d1a-4f89-9a3c-1f2e5d6c7b8a"

func TestCheckAndBlockMarksNightsHalfOpen(t *testing.T) {
	db := newTestDB(t)
	repo := NewAvailabilityRepository(db)

	checkIn := day(2026, 3, 15)
	checkOut := day(2026, 3, 18)

	err := db.Transaction(func(tx *gorm.DB) error {
		return repo.CheckAndBlock(tx, testRoomID, checkIn, checkOut)
	})
	require.NoError(t, err)

	var rows []model.RoomAvailability
	require.NoError(t, db.Order("date ASC").Find(&rows).Error)
	require.Len(t, rows, 3)

	for i, expected := range []int{15, 16, 17} {
		assert.Equal(t, expected, rows[i].Date.Day())
		assert.False(t, rows[i].IsAvailable)
	}

	available, err := repo.IsAvailable(testRoomID, checkIn, checkOut)
	require.NoError(t, err)
	assert.False(t, available)
}

func TestCheckAndBlockRejectsOverlapWithoutSideEffects(t *testing.T) {
	db := newTestDB(t)
	repo := NewAvailabilityRepository(db)

	err := db.Transaction(func(tx *gorm.DB) error {
		return repo.CheckAndBlock(tx, testRoomID, day(2026, 3, 15), day(2026, 3, 18))
	})
	require.NoError(t, err)

	// Overlaps on the 17th.
	err = db.Transaction(func(tx *gorm.DB) error {
		return repo.CheckAndBlock(tx, testRoomID, day(2026, 3, 17), day(2026, 3, 19))
	})
	require.ErrorIs(t, err, apperror.ErrRoomUnavailable)

	// The rollback must discard the row materialized for the 18th.
	var count int64
	require.NoError(t, db.Model(&model.RoomAvailability{}).Count(&count).Error)
	assert.EqualValues(t, 3, count)
}

func TestCheckAndBlockAllowsBackToBackStays(t *testing.T) {
	db := newTestDB(t)
	repo := NewAvailabilityRepository(db)

	err := db.Transaction(func(tx *gorm.DB) error {
		return repo.CheckAndBlock(tx, testRoomID, day(2026, 3, 15), day(2026, 3, 17))
	})
	require.NoError(t, err)

	// Checkout day of the first stay is the check-in day of the second.
	err = db.Transaction(func(tx *gorm.DB) error {
		return repo.CheckAndBlock(tx, testRoomID, day(2026, 3, 17), day(2026, 3, 19))
	})
	require.NoError(t, err)
}

func TestCheckAndBlockRejectsEmptyRange(t *testing.T) {
	db := newTestDB(t)
	repo := NewAvailabilityRepository(db)

	err := db.Transaction(func(tx *gorm.DB) error {
		return repo.CheckAndBlock(tx, testRoomID, day(2026, 3, 15), day(2026, 3, 15))
	})
	require.ErrorIs(t, err, apperror.ErrInvalidRange)
}

func TestReleaseReopensBlockedNights(t *testing.T) {
	db := newTestDB(t)
	repo := NewAvailabilityRepository(db)

	checkIn := day(2026, 3, 15)
	checkOut := day(2026, 3, 18)

	err := db.Transaction(func(tx *gorm.DB) error {
		return repo.CheckAndBlock(tx, testRoomID, checkIn, checkOut)
	})
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		return repo.Release(tx, testRoomID, checkIn, checkOut)
	})
	require.NoError(t, err)

	available, err := repo.IsAvailable(testRoomID, checkIn, checkOut)
	require.NoError(t, err)
	assert.True(t, available)

	// The released range can be booked again.
	err = db.Transaction(func(tx *gorm.DB) error {
		return repo.CheckAndBlock(tx, testRoomID, checkIn, checkOut)
	})
	require.NoError(t, err)
}

func TestReleaseIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewAvailabilityRepository(db)

	for i := 0; i < 2; i++ {
		err := db.Transaction(func(tx *gorm.DB) error {
			return repo.Release(tx, testRoomID, day(2026, 3, 15), day(2026, 3, 18))
		})
		require.NoError(t, err)
	}
}

func TestIsAvailableForUntouchedRoom(t *testing.T) {
	db := newTestDB(t)
	repo := NewAvailabilityRepository(db)

	available, err := repo.IsAvailable(testRoomID, day(2026, 3, 15), day(2026, 3, 18))
	require.NoError(t, err)
	assert.True(t, available)
}

func TestIsAvailableIgnoresOtherRooms(t *testing.T) {
	db := newTestDB(t)
	repo := NewAvailabilityRepository(db)

	err := db.Transaction(func(tx *gorm.DB) error {
		return repo.CheckAndBlock(tx, testRoomID, day(2026, 3, 15), day(2026, 3, 18))
	})
	require.NoError(t, err)

	available, err := repo.IsAvailable("5f6e7d8c-9b0a-4c1d-8e2f-3a4b5c6d7e8f", day(2026, 3, 15), day(2026, 3, 18))
	require.NoError(t, err)
	assert.True(t, available)
}
