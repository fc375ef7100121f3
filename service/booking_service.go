package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/travelmind/booking/apperror"
	"github.com/travelmind/booking/cache"
	"github.com/travelmind/booking/events"
	"github.com/travelmind/booking/model"
	"github.com/travelmind/booking/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const RoleAdmin = "ADMIN"

// BookingService owns the booking saga and the cancellation/deletion state
// machine. Every multi-row write runs in one transaction: availability
// verification, the booking/payment pair, and the outbox row commit
// together or not at all.
type BookingService struct {
	db              *gorm.DB
	bookings        repository.BookingRepository
	rooms           repository.RoomRepository
	availability    repository.AvailabilityRepository
	outbox          repository.OutboxRepository
	cache           cache.CacheRepository
	availabilityTTL time.Duration
	log             *zap.SugaredLogger
}

func NewBookingService(
	db *gorm.DB,
	bookings repository.BookingRepository,
	rooms repository.RoomRepository,
	availability repository.AvailabilityRepository,
	outbox repository.OutboxRepository,
	cacheRepo cache.CacheRepository,
	availabilityTTL time.Duration,
	log *zap.SugaredLogger,
) *BookingService {
	return &BookingService{
		db:              db,
		bookings:        bookings,
		rooms:           rooms,
		availability:    availability,
		outbox:          outbox,
		cache:           cacheRepo,
		availabilityTTL: availabilityTTL,
		log:             log,
	}
}

// DB exposes the underlying handle for health checks.
func (s *BookingService) DB() *gorm.DB {
	return s.db
}

// CreateBookingParams carries validated handler input into the saga.
type CreateBookingParams struct {
	UserID          string
	RoomID          string
	CheckIn         time.Time
	CheckOut        time.Time
	Guests          int
	TotalPrice      float64
	SpecialRequests *string
}

// Create runs the booking saga: Requested -> Reserved (atomic) -> Announced.
// The availability check-and-block, the booking and payment inserts, and the
// booking.created outbox row all share one transaction, so two concurrent
// requests for overlapping dates serialize on the same locked day rows and
// exactly one commits. The loser sees ErrRoomUnavailable with no partial
// effects.
func (s *BookingService) Create(ctx context.Context, params CreateBookingParams) (*model.Booking, error) {
	if !params.CheckIn.Before(params.CheckOut) {
		return nil, apperror.ErrInvalidRange
	}

	room, err := s.rooms.GetByID(params.RoomID)
	if err != nil {
		return nil, err
	}
	if !room.IsActive {
		return nil, apperror.NotFound("room not found")
	}

	guests := params.Guests
	if guests <= 0 {
		guests = 1
	}
	if guests > room.MaxGuests {
		return nil, apperror.BadRequest("invalid_guests", "guest count exceeds room capacity")
	}

	var booking *model.Booking
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.availability.CheckAndBlock(tx, params.RoomID, params.CheckIn, params.CheckOut); err != nil {
			return err
		}

		booking = &model.Booking{
			ID:              uuid.NewString(),
			UserID:          params.UserID,
			RoomID:          params.RoomID,
			CheckIn:         params.CheckIn,
			CheckOut:        params.CheckOut,
			Guests:          guests,
			TotalPrice:      params.TotalPrice,
			Currency:        room.Currency,
			Status:          model.BookingStatusPending,
			SpecialRequests: params.SpecialRequests,
			CreatedAt:       time.Now().UTC(),
		}
		payment := &model.Payment{
			ID:        uuid.NewString(),
			BookingID: booking.ID,
			Amount:    params.TotalPrice,
			Currency:  room.Currency,
			Status:    model.PaymentStatusPending,
		}
		if err := s.bookings.Create(tx, booking, payment); err != nil {
			return err
		}

		return s.outbox.Append(tx, events.RKBookingCreated, booking.ID, events.BookingEvent{
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

	// Cached pre-flight answers for this room are stale now. Best effort:
	// a failure here only shortens the advisory cache, it cannot affect the
	// committed booking.
	if err := s.cache.InvalidateRoom(params.RoomID); err != nil {
		s.log.Warnw("failed to invalidate availability cache", "room_id", params.RoomID, "error", err)
	}

	s.log.Infow("booking created",
		"booking_id", booking.ID,
		"room_id", booking.RoomID,
		"check_in", booking.CheckIn.Format("2006-01-02"),
		"check_out", booking.CheckOut.Format("2006-01-02"),
	)
	return booking, nil
}

// Get returns the booking if the caller owns it or is an admin.
func (s *BookingService) Get(bookingID, userID, role string) (*model.Booking, error) {
	booking, err := s.bookings.GetByID(bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID && role != RoleAdmin {
		return nil, apperror.ErrForbidden
	}
	return booking, nil
}

func (s *BookingService) List(userID string, filter model.BookingFilter) ([]model.Booking, int, error) {
	filter.UserID = userID
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.bookings.List(filter)
}

// Cancel transitions the booking to CANCELLED and releases its blocked dates
// in the same transaction. Writing them separately would risk a cancelled
// booking whose dates stay blocked if the process dies between the writes.
func (s *BookingService) Cancel(ctx context.Context, bookingID, userID, role string) (*model.Booking, error) {
	booking, err := s.Get(bookingID, userID, role)
	if err != nil {
		return nil, err
	}

	switch booking.Status {
	case model.BookingStatusCancelled:
		return nil, apperror.InvalidTransition("booking is already cancelled")
	case model.BookingStatusCompleted:
		return nil, apperror.InvalidTransition("cannot cancel a completed booking")
	}

	// The status check above ran outside the transaction; a concurrent
	// cancel or completion may commit in between. The transition is
	// conditional so the loser releases nothing and emits no second event.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		changed, err := s.bookings.TransitionStatus(tx, bookingID, model.BookingStatusCancelled,
			model.BookingStatusCancelled, model.BookingStatusCompleted)
		if err != nil {
			return err
		}
		if !changed {
			return apperror.ErrInvalidTransition
		}
		if err := s.availability.Release(tx, booking.RoomID, booking.CheckIn, booking.CheckOut); err != nil {
			return err
		}
		return s.outbox.Append(tx, events.RKBookingCancelled, booking.ID, events.BookingEvent{
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

	if err := s.cache.InvalidateRoom(booking.RoomID); err != nil {
		s.log.Warnw("failed to invalidate availability cache", "room_id", booking.RoomID, "error", err)
	}

	booking.Status = model.BookingStatusCancelled
	s.log.Infow("booking cancelled", "booking_id", booking.ID, "room_id", booking.RoomID)
	return booking, nil
}

// Delete hard-deletes a non-confirmed booking and its payment. Confirmed
// bookings must be cancelled first so their dates are released through the
// cancel path.
func (s *BookingService) Delete(ctx context.Context, bookingID, userID, role string) error {
	booking, err := s.Get(bookingID, userID, role)
	if err != nil {
		return err
	}

	if booking.Status == model.BookingStatusConfirmed {
		return apperror.InvalidTransition("cannot delete a confirmed booking, cancel it first")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.bookings.Delete(tx, bookingID); err != nil {
			return err
		}
		// A deleted booking must not keep holding its dates. Cancelled
		// bookings released them already; Release is idempotent either way.
		return s.availability.Release(tx, booking.RoomID, booking.CheckIn, booking.CheckOut)
	})
	if err != nil {
		return err
	}

	if err := s.cache.InvalidateRoom(booking.RoomID); err != nil {
		s.log.Warnw("failed to invalidate availability cache", "room_id", booking.RoomID, "error", err)
	}

	s.log.Infow("booking deleted", "booking_id", bookingID)
	return nil
}

// CheckAvailability is the advisory pre-flight check backed by a short-lived
// cache. It takes no locks; the authoritative answer is the one inside the
// booking transaction.
func (s *BookingService) CheckAvailability(roomID string, checkIn, checkOut time.Time) (bool, error) {
	if !checkIn.Before(checkOut) {
		return false, apperror.ErrInvalidRange
	}

	if cached, err := s.cache.GetAvailability(roomID, checkIn, checkOut); err == nil && cached != nil {
		return *cached, nil
	}

	available, err := s.availability.IsAvailable(roomID, checkIn, checkOut)
	if err != nil {
		return false, err
	}

	if err := s.cache.SetAvailability(roomID, checkIn, checkOut, available, s.availabilityTTL); err != nil {
		s.log.Warnw("failed to cache availability", "room_id", roomID, "error", err)
	}
	return available, nil
}
