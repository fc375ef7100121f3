package postgres

import (
	"errors"
	"fmt"

	"github.com/travelmind/booking/apperror"
	"github.com/travelmind/booking/model"
	"gorm.io/gorm"
)

type PostgresBookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *PostgresBookingRepository {
	return &PostgresBookingRepository{db: db}
}

// Create inserts the booking and its payment in the caller's transaction.
// A booking always has exactly one payment; creating them apart would break
// that invariant under partial failure.
func (r *PostgresBookingRepository) Create(tx *gorm.DB, booking *model.Booking, payment *model.Payment) error {
	if err := tx.Create(booking).Error; err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	if err := tx.Create(payment).Error; err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *PostgresBookingRepository) GetByID(bookingID string) (*model.Booking, error) {
	var booking model.Booking
	err := r.db.Where("id = ?", bookingID).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("booking not found")
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

func (r *PostgresBookingRepository) UpdateStatus(tx *gorm.DB, bookingID string, status model.BookingStatus) error {
	result := tx.Model(&model.Booking{}).Where("id = ?", bookingID).Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update booking status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("booking not found")
	}
	return nil
}

// TransitionStatus updates the status only when the current one is none of
// excluded. Two concurrent transitions serialize on the row lock and the
// loser's update matches zero rows, so it reports false instead of writing.
func (r *PostgresBookingRepository) TransitionStatus(tx *gorm.DB, bookingID string, to model.BookingStatus, excluded ...model.BookingStatus) (bool, error) {
	query := tx.Model(&model.Booking{}).Where("id = ?", bookingID)
	if len(excluded) > 0 {
		query = query.Where("status NOT IN ?", excluded)
	}
	result := query.Update("status", to)
	if result.Error != nil {
		return false, fmt.Errorf("failed to transition booking status: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Delete hard-deletes the booking and its payment. The payment goes first so
// a failure leaves the 1:1 pair intact.
func (r *PostgresBookingRepository) Delete(tx *gorm.DB, bookingID string) error {
	if err := tx.Where("booking_id = ?", bookingID).Delete(&model.Payment{}).Error; err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	result := tx.Where("id = ?", bookingID).Delete(&model.Booking{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("booking not found")
	}
	return nil
}

// List retrieves bookings for a specific user with filtering
func (r *PostgresBookingRepository) List(filter model.BookingFilter) ([]model.Booking, int, error) {
	var bookings []model.Booking
	var total int64

	query := r.db.Model(&model.Booking{}).Where("user_id = ?", filter.UserID)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	err := query.Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&bookings).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	return bookings, int(total), nil
}

// GetDB returns the database instance for health checks
func (r *PostgresBookingRepository) GetDB() *gorm.DB {
	return r.db
}
