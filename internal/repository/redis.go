package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"innkeeper/internal/config"
	"innkeeper/internal/models"

	"github.com/redis/go-redis/v9"
)

const calendarKeyPrefix = "calendar:"

func calendarKey(roomID string) string {
	return calendarKeyPrefix + roomID
}

// RedisCalendarCache keeps raw room calendars in redis under "calendar:<room>".
type RedisCalendarCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisCalendarCache(client *redis.Client, ttl time.Duration) *RedisCalendarCache {
	return &RedisCalendarCache{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisCalendarCache) GetCalendar(ctx context.Context, roomID string) (*models.BookedDates, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, calendarKey(roomID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get calendar from redis: %w", err)
	}

	var cal models.BookedDates
	if err := json.Unmarshal(val, &cal); err != nil {
		return nil, fmt.Errorf("failed to unmarshal calendar: %w", err)
	}

	return &cal, nil
}

func (r *RedisCalendarCache) SetCalendar(ctx context.Context, roomID string, cal *models.BookedDates) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(cal)
	if err != nil {
		return fmt.Errorf("failed to marshal calendar: %w", err)
	}

	if err := r.client.Set(ctx, calendarKey(roomID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set calendar in redis: %w", err)
	}

	return nil
}

func (r *RedisCalendarCache) DeleteCalendar(ctx context.Context, roomID string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, calendarKey(roomID)).Err(); err != nil {
		return fmt.Errorf("failed to delete calendar from redis: %w", err)
	}
	return nil
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
