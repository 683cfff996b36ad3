// Package codes manages the pool of live join codes. A code must be unique
// among currently non-ended sessions; reservations are released when the
// session ends and expire with the quiz so abandoned lobbies do not pin
// codes forever.
package codes

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Allocator reserves join codes for live sessions.
type Allocator interface {
	// Reserve claims code for sessionID. It returns false without error when
	// the code is already held by a live session, in which case the caller
	// generates a fresh code and retries.
	Reserve(ctx context.Context, code, sessionID string, ttl time.Duration) (bool, error)
	// Release frees a code once its session has ended.
	Release(ctx context.Context, code string) error
}

// RedisAllocator implements Allocator on Redis. SET NX gives an atomic
// claim across server replicas and the TTL bounds a reservation's lifetime
// by the quiz expiry.
type RedisAllocator struct {
	rdb *redis.Client
}

// NewRedisAllocator creates an allocator on the given Redis address.
func NewRedisAllocator(addr, password string, db int) (*RedisAllocator, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return &RedisAllocator{rdb: rdb}, nil
}

func codeKey(code string) string { return "joincode:" + code }

// Reserve claims the code with SET NX.
func (a *RedisAllocator) Reserve(ctx context.Context, code, sessionID string, ttl time.Duration) (bool, error) {
	ok, err := a.rdb.SetNX(ctx, codeKey(code), sessionID, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reserving join code: %w", err)
	}
	return ok, nil
}

// Release frees the code.
func (a *RedisAllocator) Release(ctx context.Context, code string) error {
	return a.rdb.Del(ctx, codeKey(code)).Err()
}

// Close closes the Redis connection.
func (a *RedisAllocator) Close() error { return a.rdb.Close() }

type reservation struct {
	sessionID string
	expiresAt time.Time
}

// MemoryAllocator implements Allocator in process memory for tests and
// single-node runs without Redis.
type MemoryAllocator struct {
	mu    sync.Mutex
	codes map[string]reservation
	now   func() time.Time
}

// NewMemoryAllocator creates an empty in-memory allocator.
func NewMemoryAllocator() *MemoryAllocator {
	return &MemoryAllocator{codes: make(map[string]reservation), now: time.Now}
}

// Reserve claims the code if it is free or its reservation has lapsed.
func (a *MemoryAllocator) Reserve(ctx context.Context, code, sessionID string, ttl time.Duration) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if r, ok := a.codes[code]; ok && r.expiresAt.After(a.now()) {
		return false, nil
	}
	a.codes[code] = reservation{sessionID: sessionID, expiresAt: a.now().Add(ttl)}
	return true, nil
}

// Release frees the code.
func (a *MemoryAllocator) Release(ctx context.Context, code string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.codes, code)
	return nil
}
