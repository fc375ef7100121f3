package model

import (
	"time"

	"github.com/lib/pq"
)

// Room is read-only collaborator data owned by the hotel catalog service.
// The booking core reads it for validation (price, capacity, active flag)
// and for event enrichment (hotel/room names).
type Room struct {
	ID        string         `gorm:"primaryKey;type:uuid"`
	HotelID   string         `gorm:"not null;index"`
	HotelName string         `gorm:"type:varchar(255);not null"`
	Name      string         `gorm:"type:varchar(255);not null"`
	Price     float64        `gorm:"type:decimal(10,2);not null"`
	Currency  string         `gorm:"type:varchar(3);not null;default:'USD'"`
	MaxGuests int            `gorm:"not null;default:2"`
	Amenities pq.StringArray `gorm:"type:text[]"`
	IsActive  bool           `gorm:"not null;default:true"`
	CreatedAt time.Time      `gorm:"default:CURRENT_TIMESTAMP"`
}

func (Room) TableName() string {
	return "rooms"
}

// RoomAvailability is one calendar day of one room. A missing row means the
// day is available; rows are materialized lazily the first time a booking
// touches the day. Owned exclusively by the availability ledger and mutated
// only inside a booking or cancel transaction.
type RoomAvailability struct {
	ID          uint      `gorm:"primaryKey"`
	RoomID      string    `gorm:"not null;uniqueIndex:idx_room_date"`
	Date        time.Time `gorm:"not null;uniqueIndex:idx_room_date"`
	IsAvailable bool      `gorm:"not null;default:true"`
}

func (RoomAvailability) TableName() string {
	return "room_availability"
}
