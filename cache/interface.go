package cache

import "time"

// CacheRepository caches pre-flight availability answers. Entries are
// advisory only and are dropped for the whole room whenever its calendar
// changes, so a stale positive can never outlive a booking transaction.
type CacheRepository interface {
	GetAvailability(roomID string, checkIn, checkOut time.Time) (*bool, error)
	SetAvailability(roomID string, checkIn, checkOut time.Time, available bool, ttl time.Duration) error
	InvalidateRoom(roomID string) error

	// Health check
	Ping() error
}
