package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Kurzwaffle/antiques/internal/session"
	apperrors "github.com/Kurzwaffle/antiques/pkg/errors"
)

const keyPrefix = "session:"

// SessionRepository implements repository.SessionRepository using Redis.
// Every write resets the key's TTL so idle sessions expire on their own.
type SessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionRepository creates a new Redis-backed session repository.
func NewSessionRepository(client *redis.Client, ttl time.Duration) *SessionRepository {
	return &SessionRepository{
		client: client,
		ttl:    ttl,
	}
}

// Create stores a new session snapshot.
func (r *SessionRepository) Create(ctx context.Context, snap session.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ok, err := r.client.SetNX(ctx, keyPrefix+snap.ID, data, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis setnx session: %w", err)
	}
	if !ok {
		return apperrors.Conflict(fmt.Sprintf("session %s already exists", snap.ID))
	}
	return nil
}

// Get retrieves a session snapshot by id.
func (r *SessionRepository) Get(ctx context.Context, id string) (session.Snapshot, error) {
	data, err := r.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return session.Snapshot{}, apperrors.NotFound("session", id)
		}
		return session.Snapshot{}, fmt.Errorf("redis get session: %w", err)
	}

	var snap session.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return session.Snapshot{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return snap, nil
}

// SaveIfVersion writes snap inside a WATCH/MULTI transaction that only
// commits when the stored version equals expectedVersion.
func (r *SessionRepository) SaveIfVersion(ctx context.Context, snap session.Snapshot, expectedVersion int64) (bool, error) {
	key := keyPrefix + snap.ID
	data, err := json.Marshal(snap)
	if err != nil {
		return false, fmt.Errorf("marshal session: %w", err)
	}

	saved := false
	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}

		var stored struct {
			Version int64 `json:"version"`
		}
		if err := json.Unmarshal(current, &stored); err != nil {
			return fmt.Errorf("unmarshal stored session: %w", err)
		}
		if stored.Version != expectedVersion {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		saved = true
		return nil
	}

	if err := r.client.Watch(ctx, txf, key); err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return false, nil
		}
		return false, fmt.Errorf("redis save session: %w", err)
	}
	return saved, nil
}

// Delete removes a session snapshot.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}
	return nil
}
