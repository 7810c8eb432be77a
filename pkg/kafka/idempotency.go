package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore records processed event IDs. Implementations must be safe
// for concurrent use.
type IdempotencyStore interface {
	// Contains returns true if the event ID has already been processed.
	Contains(ctx context.Context, eventID string) (bool, error)
	// Add marks an event ID as processed.
	Add(ctx context.Context, eventID string) error
}

// MemoryIdempotencyStore keeps IDs in process memory. Entries expire after
// ttl and are purged lazily on lookup.
type MemoryIdempotencyStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	ttl     time.Duration
}

// NewMemoryIdempotencyStore creates a new in-memory store.
func NewMemoryIdempotencyStore(ttl time.Duration) *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{
		entries: make(map[string]time.Time),
		ttl:     ttl,
	}
}

// Contains checks if the event ID exists and is not expired.
func (s *MemoryIdempotencyStore) Contains(_ context.Context, eventID string) (bool, error) {
	s.mu.RLock()
	ts, exists := s.entries[eventID]
	s.mu.RUnlock()

	if !exists {
		return false, nil
	}
	if time.Since(ts) > s.ttl {
		s.mu.Lock()
		delete(s.entries, eventID)
		s.mu.Unlock()
		return false, nil
	}
	return true, nil
}

// Add marks the event ID as processed with the current timestamp.
func (s *MemoryIdempotencyStore) Add(_ context.Context, eventID string) error {
	s.mu.Lock()
	s.entries[eventID] = time.Now()
	s.mu.Unlock()
	return nil
}

// Len returns the number of entries, expired ones included.
func (s *MemoryIdempotencyStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// RedisIdempotencyStore shares processed IDs across consumer replicas.
type RedisIdempotencyStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisIdempotencyStore stores keys as prefix+eventID with the given ttl.
func NewRedisIdempotencyStore(client redis.Cmdable, prefix string, ttl time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, prefix: prefix, ttl: ttl}
}

// Contains reports whether eventID has been recorded.
func (s *RedisIdempotencyStore) Contains(ctx context.Context, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+eventID).Result()
	if err != nil {
		return false, fmt.Errorf("idempotency lookup: %w", err)
	}
	return n > 0, nil
}

// Add records eventID until the TTL lapses.
func (s *RedisIdempotencyStore) Add(ctx context.Context, eventID string) error {
	if err := s.client.Set(ctx, s.prefix+eventID, 1, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency record: %w", err)
	}
	return nil
}

// FallbackIdempotencyStore records every ID in a local store as well as the
// shared one. When the shared store cannot be reached, lookups fall back to
// the local copy so redeliveries to this replica are still skipped.
type FallbackIdempotencyStore struct {
	shared IdempotencyStore
	local  *MemoryIdempotencyStore
	logger *slog.Logger
}

// NewFallbackIdempotencyStore wraps shared with an in-memory copy whose
// entries live for ttl.
func NewFallbackIdempotencyStore(shared IdempotencyStore, ttl time.Duration, logger *slog.Logger) *FallbackIdempotencyStore {
	return &FallbackIdempotencyStore{
		shared: shared,
		local:  NewMemoryIdempotencyStore(ttl),
		logger: logger,
	}
}

// Contains asks the shared store, or the local copy when that fails.
func (s *FallbackIdempotencyStore) Contains(ctx context.Context, eventID string) (bool, error) {
	seen, err := s.shared.Contains(ctx, eventID)
	if err == nil {
		return seen, nil
	}
	s.logger.Warn("shared idempotency store unavailable, using local copy",
		slog.String("event_id", eventID),
		slog.String("error", err.Error()),
	)
	return s.local.Contains(ctx, eventID)
}

// Add records eventID locally, then in the shared store. A shared store
// failure is returned after the local record is written.
func (s *FallbackIdempotencyStore) Add(ctx context.Context, eventID string) error {
	_ = s.local.Add(ctx, eventID)
	return s.shared.Add(ctx, eventID)
}

// IdempotentHandler skips events whose EventID the store has already seen.
// A store failure falls through to processing.
func IdempotentHandler(store IdempotencyStore, inner Handler, logger *slog.Logger) Handler {
	return func(ctx context.Context, event *Event) error {
		if event.EventID == "" {
			return inner(ctx, event)
		}

		exists, err := store.Contains(ctx, event.EventID)
		if err != nil {
			logger.Warn("idempotency store lookup failed, processing anyway",
				slog.String("event_id", event.EventID),
				slog.String("error", err.Error()),
			)
			return inner(ctx, event)
		}
		if exists {
			consumerDuplicates.WithLabelValues(event.EventType).Inc()
			logger.Debug("skipping duplicate event",
				slog.String("event_id", event.EventID),
				slog.String("event_type", event.EventType),
				slog.String("aggregate_id", event.AggregateID),
			)
			return nil
		}

		if err := inner(ctx, event); err != nil {
			return err
		}

		if addErr := store.Add(ctx, event.EventID); addErr != nil {
			logger.Warn("failed to record event ID in idempotency store",
				slog.String("event_id", event.EventID),
				slog.String("error", addErr.Error()),
			)
		}
		return nil
	}
}
