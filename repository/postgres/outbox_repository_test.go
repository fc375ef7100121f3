package postgres

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travelmind/booking/events"
	"github.com/travelmind/booking/model"
	"gorm.io/gorm"
)

func TestOutboxAppendRollsBackWithTransaction(t *testing.T) {
	db := newTestDB(t)
	repo := NewOutboxRepository(db)

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := repo.Append(tx, events.RKBookingCreated, "agg-1", events.BookingEvent{BookingID: "agg-1"}); err != nil {
			return err
		}
		return gorm.ErrInvalidData
	})
	require.Error(t, err)

	count, err := repo.CountByType(events.RKBookingCreated)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}

func TestOutboxClaimDueReturnsOldestFirst(t *testing.T) {
	db := newTestDB(t)
	repo := NewOutboxRepository(db)

	base := time.Now().UTC().Add(-time.Minute)
	for i, aggregate := range []string{"agg-1", "agg-2", "agg-3"} {
		event := model.OutboxEvent{
			ID:            aggregate,
			EventType:     events.RKBookingCreated,
			AggregateID:   aggregate,
			Payload:       json.RawMessage(`{}`),
			NextAttemptAt: base,
			CreatedAt:     base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, db.Create(&event).Error)
	}

	due, err := repo.ClaimDue(time.Now().UTC(), 2)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "agg-1", due[0].AggregateID)
	assert.Equal(t, "agg-2", due[1].AggregateID)
}

func TestOutboxRescheduleDefersEvent(t *testing.T) {
	db := newTestDB(t)
	repo := NewOutboxRepository(db)

	err := db.Transaction(func(tx *gorm.DB) error {
		return repo.Append(tx, events.RKBookingCreated, "agg-1", events.BookingEvent{BookingID: "agg-1"})
	})
	require.NoError(t, err)

	due, err := repo.ClaimDue(time.Now().UTC(), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)

	future := time.Now().UTC().Add(time.Hour)
	require.NoError(t, repo.Reschedule(due[0].ID, due[0].Attempts+1, future))

	due, err = repo.ClaimDue(time.Now().UTC(), 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	var event model.OutboxEvent
	require.NoError(t, db.First(&event).Error)
	assert.Equal(t, 1, event.Attempts)
}

func TestOutboxDeleteRemovesEvent(t *testing.T) {
	db := newTestDB(t)
	repo := NewOutboxRepository(db)

	err := db.Transaction(func(tx *gorm.DB) error {
		return repo.Append(tx, events.RKBookingConfirmed, "agg-1", events.BookingEvent{BookingID: "agg-1"})
	})
	require.NoError(t, err)

	due, err := repo.ClaimDue(time.Now().UTC(), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)

	require.NoError(t, repo.Delete(due[0].ID))

	count, err := repo.CountByType(events.RKBookingConfirmed)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}
