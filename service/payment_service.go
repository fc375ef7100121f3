package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/travelmind/booking/apperror"
	"github.com/travelmind/booking/config"
	"github.com/travelmind/booking/events"
	"github.com/travelmind/booking/model"
	"github.com/travelmind/booking/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PaymentService issues transaction references and confirms bank transfers.
// Confirm pairs Payment.SUCCEEDED with Booking.CONFIRMED in one transaction;
// an observer must never see a succeeded payment on a pending booking.
type PaymentService struct {
	db       *gorm.DB
	payments repository.PaymentRepository
	bookings repository.BookingRepository
	outbox   repository.OutboxRepository
	account  config.Payment
	log      *zap.SugaredLogger
}

func NewPaymentService(
	db *gorm.DB,
	payments repository.PaymentRepository,
	bookings repository.BookingRepository,
	outbox repository.OutboxRepository,
	account config.Payment,
	log *zap.SugaredLogger,
) *PaymentService {
	return &PaymentService{
		db:       db,
		payments: payments,
		bookings: bookings,
		outbox:   outbox,
		account:  account,
		log:      log,
	}
}

func newTransactionID() string {
	return "txn_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Initiate issues a fresh opaque transaction reference for the booking's
// payment. Calling it again before confirmation overwrites the previous
// reference: only the newest one is valid, callers must present the latest
// instructions to the payer.
func (s *PaymentService) Initiate(ctx context.Context, bookingID, userID, role string) (*model.PaymentInstructions, error) {
	booking, err := s.bookings.GetByID(bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID && role != RoleAdmin {
		return nil, apperror.ErrForbidden
	}
	if booking.Status == model.BookingStatusCancelled {
		return nil, apperror.InvalidTransition("cannot initiate payment for a cancelled booking")
	}

	payment, err := s.payments.GetByBookingID(bookingID)
	if err != nil {
		return nil, err
	}
	if payment.Status == model.PaymentStatusSucceeded {
		return nil, apperror.ErrAlreadyCompleted
	}

	transactionID := newTransactionID()
	if err := s.payments.SetTransactionID(payment.ID, transactionID, "bank_transfer"); err != nil {
		return nil, err
	}

	s.log.Infow("payment initiated", "booking_id", bookingID, "transaction_id", transactionID)
	return &model.PaymentInstructions{
		TransactionID: transactionID,
		Amount:        payment.Amount,
		Currency:      payment.Currency,
		BankName:      s.account.BankName,
		AccountName:   s.account.AccountName,
		AccountNumber: s.account.AccountNumber,
	}, nil
}

// Confirm settles the payment matching the transaction reference. Bank
// callbacks may be delivered more than once, so Confirm is idempotent:
// after the first success every repeat returns the confirmed result without
// re-running the transition or raising a second event.
func (s *PaymentService) Confirm(ctx context.Context, transactionID string) (*model.ConfirmPaymentResponse, error) {
	payment, err := s.payments.GetByTransactionID(transactionID)
	if err != nil {
		return nil, err
	}

	if payment.Status == model.PaymentStatusSucceeded {
		booking, err := s.bookings.GetByID(payment.BookingID)
		if err != nil {
			return nil, err
		}
		return &model.ConfirmPaymentResponse{
			BookingID:     payment.BookingID,
			PaymentStatus: string(payment.Status),
			BookingStatus: string(booking.Status),
		}, nil
	}

	booking, err := s.bookings.GetByID(payment.BookingID)
	if err != nil {
		return nil, err
	}

	// The status read above ran outside the transaction, so a concurrent
	// confirmation of the same reference may commit in between. The flip is
	// therefore conditional: the loser matches zero rows, writes nothing and
	// raises no second event.
	flipped := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		flipped, err = s.payments.MarkSucceeded(tx, payment.ID)
		if err != nil {
			return err
		}
		if !flipped {
			return nil
		}
		if err := s.bookings.UpdateStatus(tx, payment.BookingID, model.BookingStatusConfirmed); err != nil {
			return err
		}
		return s.outbox.Append(tx, events.RKBookingConfirmed, payment.BookingID, events.BookingEvent{
			BookingID:  booking.ID,
			UserID:     booking.UserID,
			RoomID:     booking.RoomID,
			CheckIn:    booking.CheckIn,
			CheckOut:   booking.CheckOut,
			OccurredAt: time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}

	if !flipped {
		booking, err = s.bookings.GetByID(payment.BookingID)
		if err != nil {
			return nil, err
		}
		return &model.ConfirmPaymentResponse{
			BookingID:     payment.BookingID,
			PaymentStatus: string(model.PaymentStatusSucceeded),
			BookingStatus: string(booking.Status),
		}, nil
	}

	s.log.Infow("payment confirmed", "booking_id", payment.BookingID, "transaction_id", transactionID)
	return &model.ConfirmPaymentResponse{
		BookingID:     payment.BookingID,
		PaymentStatus: string(model.PaymentStatusSucceeded),
		BookingStatus: string(model.BookingStatusConfirmed),
	}, nil
}
