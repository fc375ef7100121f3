package model

import "time"

// ============================================================================
// BROKER MESSAGE STRUCTURES
// ============================================================================

// BookingMessage is the wire format published for booking.* routing keys.
// It carries a denormalized snapshot (hotel/room names, dates, amounts) so
// consumers need no further lookup. The bridge builds it from the canonical
// database row, never from the in-process event payload.
type BookingMessage struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	RoomID     string    `json:"room_id"`
	HotelID    string    `json:"hotel_id"`
	HotelName  string    `json:"hotel_name"`
	RoomName   string    `json:"room_name"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
	Guests     int       `json:"guests"`
	TotalPrice float64   `json:"total_price"`
	Currency   string    `json:"currency"`
	Status     string    `json:"status"`
}

// PaymentInstructions is returned by the payment initiate endpoint: the
// currently valid transaction reference plus the settlement account the
// payer should transfer to. Re-initiating replaces the reference.
type PaymentInstructions struct {
	TransactionID string  `json:"transaction_id"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	BankName      string  `json:"bank_name"`
	AccountName   string  `json:"account_name"`
	AccountNumber string  `json:"account_number"`
}

// ConfirmPaymentResponse reports the joint payment/booking state after a
// confirmation. Repeated confirmations of the same reference return the
// same confirmed result.
type ConfirmPaymentResponse struct {
	BookingID     string `json:"booking_id"`
	PaymentStatus string `json:"payment_status"`
	BookingStatus string `json:"booking_status"`
}
