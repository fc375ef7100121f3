package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/travelmind/booking/events"
	"github.com/travelmind/booking/model"
	"go.uber.org/zap"
)

// EmailTemplate represents an email to be sent (logged to console).
type EmailTemplate struct {
	To      string
	Subject string
	Body    string
}

// NotificationHandler turns booking lifecycle messages into guest emails.
// Delivery is mocked: the rendered email is logged, not sent, and the user id
// stands in for the recipient address until profile lookup lands.
type NotificationHandler struct {
	log       *zap.SugaredLogger
	processed int64
}

func NewNotificationHandler(log *zap.SugaredLogger) *NotificationHandler {
	return &NotificationHandler{log: log}
}

func (h *NotificationHandler) Processed() int64 {
	return atomic.LoadInt64(&h.processed)
}

func (h *NotificationHandler) Handle(ctx context.Context, routingKey string, body []byte) error {
	var msg model.BookingMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("failed to unmarshal booking message: %w", err)
	}

	var email *EmailTemplate
	switch routingKey {
	case events.RKBookingCreated:
		email = generateBookingReceivedEmail(&msg)
	case events.RKBookingConfirmed:
		email = generateBookingConfirmedEmail(&msg)
	case events.RKBookingCancelled:
		email = generateBookingCancelledEmail(&msg)
	default:
		h.log.Warnw("unknown notification routing key", "routing_key", routingKey)
		return nil
	}

	if err := h.sendEmailMock(email); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	atomic.AddInt64(&h.processed, 1)
	h.log.Infow("notification sent", "routing_key", routingKey, "booking_id", msg.ID)
	return nil
}

// sendEmailMock simulates email sending by logging to console.
func (h *NotificationHandler) sendEmailMock(email *EmailTemplate) error {
	h.log.Infow("MOCK EMAIL SENT",
		"to", email.To,
		"subject", email.Subject,
		"body", email.Body,
	)
	return nil
}

func stayLine(msg *model.BookingMessage) string {
	return msg.CheckIn.Format("2006-01-02") + " to " + msg.CheckOut.Format("2006-01-02")
}

func generateBookingReceivedEmail(msg *model.BookingMessage) *EmailTemplate {
	subject := "Booking Received - " + msg.HotelName

	body := "Dear guest,\n\n" +
		"We have received your booking request.\n\n" +
		"Hotel: " + msg.HotelName + "\n" +
		"Room: " + msg.RoomName + "\n" +
		"Stay: " + stayLine(msg) + "\n" +
		"Guests: " + fmt.Sprintf("%d", msg.Guests) + "\n" +
		"Amount: " + fmt.Sprintf("%.2f %s", msg.TotalPrice, msg.Currency) + "\n" +
		"Booking ID: " + msg.ID + "\n\n" +
		"Complete the payment to confirm your stay.\n\n" +
		"Travelmind"

	return &EmailTemplate{To: msg.UserID, Subject: subject, Body: body}
}

func generateBookingConfirmedEmail(msg *model.BookingMessage) *EmailTemplate {
	subject := "Booking Confirmed - " + msg.HotelName

	body := "Dear guest,\n\n" +
		"Your booking has been confirmed!\n\n" +
		"Hotel: " + msg.HotelName + "\n" +
		"Room: " + msg.RoomName + "\n" +
		"Stay: " + stayLine(msg) + "\n" +
		"Booking ID: " + msg.ID + "\n\n" +
		"We look forward to welcoming you.\n\n" +
		"Travelmind"

	return &EmailTemplate{To: msg.UserID, Subject: subject, Body: body}
}

func generateBookingCancelledEmail(msg *model.BookingMessage) *EmailTemplate {
	subject := "Booking Cancelled - " + msg.HotelName

	body := "Dear guest,\n\n" +
		"Your booking has been cancelled.\n\n" +
		"Hotel: " + msg.HotelName + "\n" +
		"Stay: " + stayLine(msg) + "\n" +
		"Booking ID: " + msg.ID + "\n\n" +
		"Any completed payment will be refunded within 3-5 business days.\n\n" +
		"Travelmind"

	return &EmailTemplate{To: msg.UserID, Subject: subject, Body: body}
}
