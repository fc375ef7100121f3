package postgres

import (
	"fmt"
	"time"

	"github.com/travelmind/booking/apperror"
	"github.com/travelmind/booking/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresAvailabilityRepository struct {
	db *gorm.DB
}

func NewAvailabilityRepository(db *gorm.DB) *PostgresAvailabilityRepository {
	return &PostgresAvailabilityRepository{db: db}
}

func dayBound(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// nightsIn expands a half-open [checkIn, checkOut) range into calendar days,
// normalized to UTC midnight. The checkOut night is excluded.
func nightsIn(checkIn, checkOut time.Time) []time.Time {
	var days []time.Time
	for d := dayBound(checkIn); d.Before(dayBound(checkOut)); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// CheckAndBlock verifies and blocks the date range under row locks held by
// the caller's transaction. Missing day rows are materialized as available
// first so that every day in the range exists and can be locked; two
// concurrent callers for overlapping ranges therefore serialize on the same
// rows and exactly one of them can succeed.
func (r *PostgresAvailabilityRepository) CheckAndBlock(tx *gorm.DB, roomID string, checkIn, checkOut time.Time) error {
	days := nightsIn(checkIn, checkOut)
	if len(days) == 0 {
		return apperror.ErrInvalidRange
	}

	rows := make([]model.RoomAvailability, 0, len(days))
	for _, day := range days {
		rows = append(rows, model.RoomAvailability{RoomID: roomID, Date: day, IsAvailable: true})
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to materialize availability rows: %w", err)
	}

	var locked []model.RoomAvailability
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("room_id = ? AND date >= ? AND date < ?", roomID, days[0], dayBound(checkOut)).
		Find(&locked).Error
	if err != nil {
		return fmt.Errorf("failed to lock availability rows: %w", err)
	}

	for _, row := range locked {
		if !row.IsAvailable {
			return apperror.ErrRoomUnavailable
		}
	}

	err = tx.Model(&model.RoomAvailability{}).
		Where("room_id = ? AND date >= ? AND date < ?", roomID, days[0], dayBound(checkOut)).
		Update("is_available", false).Error
	if err != nil {
		return fmt.Errorf("failed to block availability rows: %w", err)
	}

	return nil
}

// Release marks the range available again. Days without a row are already
// available, so only existing rows are touched.
func (r *PostgresAvailabilityRepository) Release(tx *gorm.DB, roomID string, checkIn, checkOut time.Time) error {
	days := nightsIn(checkIn, checkOut)
	if len(days) == 0 {
		return nil
	}

	err := tx.Model(&model.RoomAvailability{}).
		Where("room_id = ? AND date >= ? AND date < ?", roomID, days[0], dayBound(checkOut)).
		Update("is_available", true).Error
	if err != nil {
		return fmt.Errorf("failed to release availability rows: %w", err)
	}

	return nil
}

// IsAvailable runs outside any write transaction and takes no locks.
func (r *PostgresAvailabilityRepository) IsAvailable(roomID string, checkIn, checkOut time.Time) (bool, error) {
	days := nightsIn(checkIn, checkOut)
	if len(days) == 0 {
		return false, apperror.ErrInvalidRange
	}

	var blocked int64
	err := r.db.Model(&model.RoomAvailability{}).
		Where("room_id = ? AND date >= ? AND date < ? AND is_available = ?", roomID, days[0], dayBound(checkOut), false).
		Count(&blocked).Error
	if err != nil {
		return false, fmt.Errorf("failed to count blocked days: %w", err)
	}

	return blocked == 0, nil
}
