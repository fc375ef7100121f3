package queue

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/travelmind/booking/apperror"
	"github.com/travelmind/booking/model"
	"github.com/travelmind/booking/repository"
	"go.uber.org/zap"
)

// EventBridge turns stored outbox rows into broker messages. For booking
// events it discards the stored payload and rebuilds the message from the
// canonical database row, so consumers always see the state as of dispatch,
// not as of the original write. Collaborator events (hotel.*, review.*) are
// forwarded as-is.
type EventBridge struct {
	bookings repository.BookingRepository
	rooms    repository.RoomRepository
	log      *zap.SugaredLogger
}

func NewEventBridge(bookings repository.BookingRepository, rooms repository.RoomRepository, log *zap.SugaredLogger) *EventBridge {
	return &EventBridge{bookings: bookings, rooms: rooms, log: log}
}

// Message builds the wire body for the event. A nil body with a nil error
// means the underlying entity no longer exists and the event should be
// dropped rather than retried.
func (b *EventBridge) Message(ev model.OutboxEvent) ([]byte, error) {
	if !strings.HasPrefix(ev.EventType, "booking.") {
		return ev.Payload, nil
	}

	booking, err := b.bookings.GetByID(ev.AggregateID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			b.log.Warnw("dropping event for deleted booking", "event_type", ev.EventType, "booking_id", ev.AggregateID)
			return nil, nil
		}
		return nil, err
	}

	msg := model.BookingMessage{
		ID:         booking.ID,
		UserID:     booking.UserID,
		RoomID:     booking.RoomID,
		CheckIn:    booking.CheckIn,
		CheckOut:   booking.CheckOut,
		Guests:     booking.Guests,
		TotalPrice: booking.TotalPrice,
		Currency:   booking.Currency,
		Status:     string(booking.Status),
	}

	room, err := b.rooms.GetByID(booking.RoomID)
	switch {
	case err == nil:
		msg.HotelID = room.HotelID
		msg.HotelName = room.HotelName
		msg.RoomName = room.Name
	case errors.Is(err, apperror.ErrNotFound):
		// Room rows are collaborator-owned and can disappear; publish the
		// booking snapshot without the denormalized names.
		b.log.Warnw("room missing during event enrichment", "room_id", booking.RoomID, "booking_id", booking.ID)
	default:
		return nil, err
	}

	return json.Marshal(msg)
}
