package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisCacheRepository struct {
	client *redis.Client
	ctx    context.Context
}

func NewRedisCacheRepository(redisURL, password string, db int) (*RedisCacheRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisURL,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCacheRepository{
		client: client,
		ctx:    ctx,
	}, nil
}

// All ranges for one room live in a single hash so InvalidateRoom is one DEL.
func (r *RedisCacheRepository) roomKey(roomID string) string {
	return fmt.Sprintf("room_availability:%s", roomID)
}

func rangeField(checkIn, checkOut time.Time) string {
	return fmt.Sprintf("%s:%s", checkIn.Format("2006-01-02"), checkOut.Format("2006-01-02"))
}

// GetAvailability returns nil on a cache miss.
func (r *RedisCacheRepository) GetAvailability(roomID string, checkIn, checkOut time.Time) (*bool, error) {
	value, err := r.client.HGet(r.ctx, r.roomKey(roomID), rangeField(checkIn, checkOut)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	available, err := strconv.ParseBool(value)
	if err != nil {
		return nil, err
	}
	return &available, nil
}

func (r *RedisCacheRepository) SetAvailability(roomID string, checkIn, checkOut time.Time, available bool, ttl time.Duration) error {
	key := r.roomKey(roomID)
	if err := r.client.HSet(r.ctx, key, rangeField(checkIn, checkOut), strconv.FormatBool(available)).Err(); err != nil {
		return err
	}
	return r.client.Expire(r.ctx, key, ttl).Err()
}

// InvalidateRoom drops every cached range for the room.
func (r *RedisCacheRepository) InvalidateRoom(roomID string) error {
	return r.client.Del(r.ctx, r.roomKey(roomID)).Err()
}

// Ping checks if Redis is healthy
func (r *RedisCacheRepository) Ping() error {
	return r.client.Ping(r.ctx).Err()
}
