package model

import (
	"time"
)

// ============================================================================
// DATABASE ENTITIES (Internal - GORM only, no JSON tags)
// ============================================================================

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusSucceeded PaymentStatus = "SUCCEEDED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// Booking represents the database model for bookings. CheckIn/CheckOut is a
// half-open range: the checkIn night is included, the checkOut night is not.
type Booking struct {
	ID              string        `gorm:"primaryKey;type:uuid"`
	UserID          string        `gorm:"not null;index"`
	RoomID          string        `gorm:"not null;index"`
	CheckIn         time.Time     `gorm:"not null"`
	CheckOut        time.Time     `gorm:"not null"`
	Guests          int           `gorm:"not null;default:1"`
	TotalPrice      float64       `gorm:"type:decimal(10,2);not null"`
	Currency        string        `gorm:"type:varchar(3);not null;default:'USD'"`
	Status          BookingStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	SpecialRequests *string       `gorm:"type:text"`
	CreatedAt       time.Time     `gorm:"default:CURRENT_TIMESTAMP"`
}

func (Booking) TableName() string {
	return "bookings"
}

// Payment is the 1:1 payment record for a booking, created in the same
// transaction as the booking itself.
type Payment struct {
	ID            string        `gorm:"primaryKey;type:uuid"`
	BookingID     string        `gorm:"not null;uniqueIndex"`
	Amount        float64       `gorm:"type:decimal(10,2);not null"`
	Currency      string        `gorm:"type:varchar(3);not null;default:'USD'"`
	Status        PaymentStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`
	TransactionID *string       `gorm:"type:varchar(64);uniqueIndex"`
	Method        string        `gorm:"type:varchar(32)"`
	CreatedAt     time.Time     `gorm:"default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time
}

func (Payment) TableName() string {
	return "payments"
}

// ============================================================================
// REPOSITORY DATA TRANSFER OBJECTS (Internal - no JSON tags)
// ============================================================================

// BookingFilter represents filtering options for booking queries
type BookingFilter struct {
	UserID string
	Status string
	Limit  int
	Offset int
}

// ============================================================================
// API DATA TRANSFER OBJECTS (External - JSON tags for HTTP)
// ============================================================================

// CreateBookingRequest represents the API request to create a booking.
// Dates use the YYYY-MM-DD calendar-day format.
type CreateBookingRequest struct {
	RoomID          string  `json:"room_id" binding:"required"`
	CheckIn         string  `json:"check_in" binding:"required"`
	CheckOut        string  `json:"check_out" binding:"required"`
	Guests          int     `json:"guests"`
	TotalPrice      float64 `json:"total_price" binding:"required,gt=0"`
	SpecialRequests *string `json:"special_requests"`
}

// BookingResponse represents a booking in API responses
type BookingResponse struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	RoomID          string    `json:"room_id"`
	CheckIn         string    `json:"check_in"`
	CheckOut        string    `json:"check_out"`
	Guests          int       `json:"guests"`
	TotalPrice      float64   `json:"total_price"`
	Currency        string    `json:"currency"`
	Status          string    `json:"status"`
	SpecialRequests *string   `json:"special_requests,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// UserBookingsResponse represents the list of user bookings
type UserBookingsResponse struct {
	Bookings []BookingResponse `json:"bookings"`
	Total    int               `json:"total"`
}

// AvailabilityResponse represents the pre-flight availability check result.
// It is advisory only; the authoritative check runs inside the booking
// transaction.
type AvailabilityResponse struct {
	RoomID    string `json:"room_id"`
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
	Available bool   `json:"available"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse represents error response structure
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ============================================================================
// CONVERSION METHODS
// ============================================================================

const dateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar day as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// ToResponse converts a Booking entity to its API representation
func (b *Booking) ToResponse() BookingResponse {
	return BookingResponse{
		ID:              b.ID,
		UserID:          b.UserID,
		RoomID:          b.RoomID,
		CheckIn:         b.CheckIn.Format(dateLayout),
		CheckOut:        b.CheckOut.Format(dateLayout),
		Guests:          b.Guests,
		TotalPrice:      b.TotalPrice,
		Currency:        b.Currency,
		Status:          string(b.Status),
		SpecialRequests: b.SpecialRequests,
		CreatedAt:       b.CreatedAt,
	}
}
