package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/travelmind/booking/model"
	"gorm.io/gorm"
)

type PostgresOutboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) *PostgresOutboxRepository {
	return &PostgresOutboxRepository{db: db}
}

// Append writes the event row in the caller's transaction so the event and
// the state change it describes commit or roll back together.
func (r *PostgresOutboxRepository) Append(tx *gorm.DB, eventType, aggregateID string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal outbox payload: %w", err)
	}

	event := model.OutboxEvent{
		ID:            uuid.NewString(),
		EventType:     eventType,
		AggregateID:   aggregateID,
		Payload:       body,
		NextAttemptAt: time.Now().UTC(),
	}
	if err := tx.Create(&event).Error; err != nil {
		return fmt.Errorf("failed to append outbox event: %w", err)
	}
	return nil
}

// ClaimDue returns events whose next attempt is due, oldest first.
func (r *PostgresOutboxRepository) ClaimDue(now time.Time, limit int) ([]model.OutboxEvent, error) {
	var events []model.OutboxEvent
	err := r.db.Where("next_attempt_at <= ?", now).
		Order("created_at ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to claim outbox events: %w", err)
	}
	return events, nil
}

func (r *PostgresOutboxRepository) Reschedule(eventID string, attempts int, nextAttemptAt time.Time) error {
	err := r.db.Model(&model.OutboxEvent{}).Where("id = ?", eventID).
		Updates(map[string]interface{}{
			"attempts":        attempts,
			"next_attempt_at": nextAttemptAt,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to reschedule outbox event: %w", err)
	}
	return nil
}

func (r *PostgresOutboxRepository) Delete(eventID string) error {
	if err := r.db.Where("id = ?", eventID).Delete(&model.OutboxEvent{}).Error; err != nil {
		return fmt.Errorf("failed to delete outbox event: %w", err)
	}
	return nil
}

func (r *PostgresOutboxRepository) CountByType(eventType string) (int64, error) {
	var count int64
	err := r.db.Model(&model.OutboxEvent{}).Where("event_type = ?", eventType).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count outbox events: %w", err)
	}
	return count, nil
}
