package model

import "time"

// OutboxEvent is a pending domain event written in the same transaction as
// the state change it describes. The dispatcher publishes it to the broker
// and deletes the row only after the broker acknowledges, so a crash between
// commit and publish loses nothing.
type OutboxEvent struct {
	ID            string    `gorm:"primaryKey;type:uuid"`
	EventType     string    `gorm:"type:varchar(64);not null;index"`
	AggregateID   string    `gorm:"not null"`
	Payload       []byte    `gorm:"not null"`
	Attempts      int       `gorm:"not null;default:0"`
	NextAttemptAt time.Time `gorm:"not null;index"`
	CreatedAt     time.Time `gorm:"default:CURRENT_TIMESTAMP"`
}

func (OutboxEvent) TableName() string {
	return "outbox_events"
}
