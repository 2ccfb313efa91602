// Package cache is an optional Redis-backed store for the last known
// transcript and booking reference per user.
//
// Graceful fallback: when Redis is unreachable every operation is a
// no-op returning zero values, so the session keeps working from the
// server alone.
package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key prefixes.
const (
	KeyTranscript = "transcript:" // last loaded transcript per user
	KeyBooking    = "booking:"    // last confirmed booking ref per user
)

// DefaultTTL is how long cached entries live.
const DefaultTTL = 24 * time.Hour

// Config holds Redis connection settings.
type Config struct {
	URL      string // redis://host:port
	Password string
	DB       int
}

// Cache wraps a Redis client. A nil *Cache is valid and does nothing.
type Cache struct {
	client *redis.Client
}

// Open connects to Redis. Returns nil (a working no-op cache) when the
// URL is unset or the connection fails.
func Open(cfg Config) *Cache {
	if cfg.URL == "" {
		return nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		log.Printf("[Cache] invalid Redis URL: %v", err)
		return nil
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	opts.DB = cfg.DB
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	c := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		log.Printf("[Cache] Redis unavailable, caching disabled: %v", err)
		c.Close()
		return nil
	}

	log.Println("[Cache] Redis connected")
	return &Cache{client: c}
}

// Available reports whether a Redis connection is live.
func (c *Cache) Available() bool {
	return c != nil && c.client != nil
}

// Close closes the Redis connection.
func (c *Cache) Close() {
	if c.Available() {
		c.client.Close()
	}
}

// GetJSON reads a JSON value into out. Returns false when missing or
// unavailable.
func (c *Cache) GetJSON(ctx context.Context, key string, out any) bool {
	if !c.Available() {
		return false
	}
	raw, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[Cache] get failed (%s): %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		log.Printf("[Cache] parse failed (%s): %v", key, err)
		return false
	}
	return true
}

// SetJSON writes a JSON-serialized value with the default TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, value any) bool {
	if !c.Available() {
		return false
	}
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("[Cache] marshal failed (%s): %v", key, err)
		return false
	}
	if err := c.client.Set(ctx, key, string(data), DefaultTTL).Err(); err != nil {
		log.Printf("[Cache] set failed (%s): %v", key, err)
		return false
	}
	return true
}

// Del deletes a key.
func (c *Cache) Del(ctx context.Context, key string) {
	if !c.Available() {
		return
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		log.Printf("[Cache] del failed (%s): %v", key, err)
	}
}

// TranscriptKey returns the cache key for a user's transcript.
func TranscriptKey(userID string) string {
	return KeyTranscript + userID
}

// BookingKey returns the cache key for a user's last booking reference.
func BookingKey(userID string) string {
	return KeyBooking + userID
}
