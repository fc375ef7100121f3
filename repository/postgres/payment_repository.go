package postgres

import (
	"errors"
	"fmt"

	"github.com/travelmind/booking/apperror"
	"github.com/travelmind/booking/model"
	"gorm.io/gorm"
)

type PostgresPaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{db: db}
}

func (r *PostgresPaymentRepository) GetByBookingID(bookingID string) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.Where("booking_id = ?", bookingID).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("payment not found")
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &payment, nil
}

func (r *PostgresPaymentRepository) GetByTransactionID(transactionID string) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.Where("transaction_id = ?", transactionID).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("no payment matches this transaction reference")
		}
		return nil, fmt.Errorf("failed to get payment by transaction id: %w", err)
	}
	return &payment, nil
}

// SetTransactionID stores a freshly issued reference, overwriting any prior
// unconfirmed one. The previous reference stops matching from this point on.
func (r *PostgresPaymentRepository) SetTransactionID(paymentID, transactionID, method string) error {
	err := r.db.Model(&model.Payment{}).Where("id = ?", paymentID).
		Updates(map[string]interface{}{
			"transaction_id": transactionID,
			"method":         method,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to set transaction id: %w", err)
	}
	return nil
}

// MarkSucceeded is a conditional update: the WHERE clause excludes already
// succeeded rows, so when two confirmations race on the same reference the
// loser's update matches zero rows after the winner commits.
func (r *PostgresPaymentRepository) MarkSucceeded(tx *gorm.DB, paymentID string) (bool, error) {
	result := tx.Model(&model.Payment{}).
		Where("id = ? AND status <> ?", paymentID, model.PaymentStatusSucceeded).
		Update("status", model.PaymentStatusSucceeded)
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark payment succeeded: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
