package events

import "time"

// Exchange and routing-key contract shared by the outbox dispatcher and the
// downstream consumers. One durable topic exchange; queues bind by key and
// dead-letter into the DLX after exhausting their retry budget.
const (
	Exchange    = "travelmind.events"
	DLXExchange = "travelmind.dlx"
)

const (
	RKBookingCreated   = "booking.created"
	RKBookingConfirmed = "booking.confirmed"
	RKBookingCancelled = "booking.cancelled"

	// Published by external collaborators through the same bridge.
	RKHotelCreated  = "hotel.created"
	RKHotelUpdated  = "hotel.updated"
	RKHotelDeleted  = "hotel.deleted"
	RKReviewCreated = "review.created"
	RKReviewDeleted = "review.deleted"
)

const (
	QueueBookingNotification = "booking.notification.queue"
	QueueBookingAnalytics    = "booking.analytics.queue"
	QueueSearchIndexing      = "search.indexing.queue"
)

// BookingEvent is the payload snapshot stored on an outbox row for booking
// events. The bridge treats it as a pointer only: the published message is
// rebuilt from the canonical database row, so late delivery can never ship
// stale state.
type BookingEvent struct {
	BookingID  string    `json:"booking_id"`
	UserID     string    `json:"user_id"`
	RoomID     string    `json:"room_id"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
	OccurredAt time.Time `json:"occurred_at"`
}
