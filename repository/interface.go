package repository

import (
	"time"

	"github.com/travelmind/booking/model"
	"gorm.io/gorm"
)

// Methods that take a tx argument must run inside the caller's transaction:
// the availability check and the booking/payment inserts share one
// transaction handle so verification and mutation happen under the same
// lock scope.

// AvailabilityRepository is the per-room, per-day availability ledger.
type AvailabilityRepository interface {
	// CheckAndBlock locks every calendar day in [checkIn, checkOut) for the
	// room, materializing missing rows first. If any locked day is blocked
	// it returns apperror.ErrRoomUnavailable and the surrounding transaction
	// must be rolled back; otherwise it marks the whole range blocked.
	CheckAndBlock(tx *gorm.DB, roomID string, checkIn, checkOut time.Time) error

	// Release marks every day in the range available. Idempotent.
	Release(tx *gorm.DB, roomID string, checkIn, checkOut time.Time) error

	// IsAvailable is the advisory read-only check used for pre-flight UI
	// queries. The authoritative check is CheckAndBlock.
	IsAvailable(roomID string, checkIn, checkOut time.Time) (bool, error)
}

// BookingRepository defines the interface for booking data operations
type BookingRepository interface {
	// Create inserts the booking and its 1:1 payment inside tx.
	Create(tx *gorm.DB, booking *model.Booking, payment *model.Payment) error
	GetByID(bookingID string) (*model.Booking, error)
	UpdateStatus(tx *gorm.DB, bookingID string, status model.BookingStatus) error
	// TransitionStatus updates the status only when the current one is none
	// of excluded, and reports whether this call changed the row. Concurrent
	// transitions serialize on the row lock, so at most one caller wins.
	TransitionStatus(tx *gorm.DB, bookingID string, to model.BookingStatus, excluded ...model.BookingStatus) (bool, error)
	// Delete removes the booking and its payment inside tx.
	Delete(tx *gorm.DB, bookingID string) error
	List(filter model.BookingFilter) ([]model.Booking, int, error)

	// Health check
	GetDB() *gorm.DB
}

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	GetByBookingID(bookingID string) (*model.Payment, error)
	GetByTransactionID(transactionID string) (*model.Payment, error)
	// SetTransactionID overwrites any prior unconfirmed reference.
	SetTransactionID(paymentID, transactionID, method string) error
	// MarkSucceeded flips the payment to SUCCEEDED unless it already is, and
	// reports whether this call did the flip. Exactly one of any set of
	// concurrent callers observes true.
	MarkSucceeded(tx *gorm.DB, paymentID string) (bool, error)
}

// RoomRepository reads collaborator-owned room/hotel data.
type RoomRepository interface {
	GetByID(roomID string) (*model.Room, error)
}

// OutboxRepository stores pending domain events for the dispatcher.
type OutboxRepository interface {
	// Append writes the event row inside the caller's transaction.
	Append(tx *gorm.DB, eventType, aggregateID string, payload any) error
	ClaimDue(now time.Time, limit int) ([]model.OutboxEvent, error)
	Reschedule(eventID string, attempts int, nextAttemptAt time.Time) error
	Delete(eventID string) error
	// CountByType supports tests and operational introspection.
	CountByType(eventType string) (int64, error)
}
