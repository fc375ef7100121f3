package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/travelmind/booking/events"
	"go.uber.org/zap"
)

// IndexingHandler maintains the Redis-backed search projections: hotel
// documents for text search and a per-hotel booking counter used for
// popularity ranking. Handlers are idempotent so redelivered messages only
// rewrite the same state.
type IndexingHandler struct {
	client *redis.Client
	log    *zap.SugaredLogger
}

func NewIndexingHandler(client *redis.Client, log *zap.SugaredLogger) *IndexingHandler {
	return &IndexingHandler{client: client, log: log}
}

func hotelDocKey(hotelID string) string {
	return "search:hotel:" + hotelID
}

const popularityKey = "search:hotel_popularity"

func (h *IndexingHandler) Handle(ctx context.Context, routingKey string, body []byte) error {
	switch {
	case strings.HasPrefix(routingKey, "hotel."):
		return h.handleHotel(ctx, routingKey, body)
	case routingKey == events.RKBookingConfirmed:
		return h.handleBookingConfirmed(ctx, body)
	case strings.HasPrefix(routingKey, "booking."), strings.HasPrefix(routingKey, "review."):
		// Only confirmed bookings move the ranking; reviews are indexed by
		// the review service itself.
		return nil
	default:
		h.log.Warnw("unknown indexing routing key", "routing_key", routingKey)
		return nil
	}
}

func (h *IndexingHandler) handleHotel(ctx context.Context, routingKey string, body []byte) error {
	var hotel struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &hotel); err != nil {
		return fmt.Errorf("failed to unmarshal hotel message: %w", err)
	}
	if hotel.ID == "" {
		h.log.Warnw("hotel message without id, skipping", "routing_key", routingKey)
		return nil
	}

	if routingKey == events.RKHotelDeleted {
		pipe := h.client.TxPipeline()
		pipe.Del(ctx, hotelDocKey(hotel.ID))
		pipe.ZRem(ctx, popularityKey, hotel.ID)
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("failed to remove hotel from index: %w", err)
		}
		h.log.Infow("hotel removed from search index", "hotel_id", hotel.ID)
		return nil
	}

	// Created and updated both overwrite the stored document.
	if err := h.client.Set(ctx, hotelDocKey(hotel.ID), body, 0).Err(); err != nil {
		return fmt.Errorf("failed to index hotel document: %w", err)
	}
	h.log.Infow("hotel indexed", "hotel_id", hotel.ID, "routing_key", routingKey)
	return nil
}

func (h *IndexingHandler) handleBookingConfirmed(ctx context.Context, body []byte) error {
	var msg struct {
		ID      string `json:"id"`
		HotelID string `json:"hotel_id"`
	}
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("failed to unmarshal booking message: %w", err)
	}
	if msg.HotelID == "" {
		return nil
	}

	// Dedupe on booking id: a redelivered confirmation must not double-count.
	added, err := h.client.SAdd(ctx, "search:counted_bookings", msg.ID).Result()
	if err != nil {
		return fmt.Errorf("failed to record counted booking: %w", err)
	}
	if added == 0 {
		return nil
	}

	if err := h.client.ZIncrBy(ctx, popularityKey, 1, msg.HotelID).Err(); err != nil {
		return fmt.Errorf("failed to bump hotel popularity: %w", err)
	}
	h.log.Debugw("hotel popularity bumped", "hotel_id", msg.HotelID, "booking_id", msg.ID)
	return nil
}
