package helpers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient initializes a redis client
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// SessionStore keeps JSON session records in Redis under prefix+id.
// A nil *SessionStore is valid and stores nothing.
type SessionStore struct {
	rdb    *redis.Client
	prefix string
}

// NewSessionStore returns nil when rdb is nil.
func NewSessionStore(rdb *redis.Client, prefix string) *SessionStore {
	if rdb == nil {
		return nil
	}
	return &SessionStore{rdb: rdb, prefix: prefix}
}

func (s *SessionStore) key(id string) string { return s.prefix + id }

// Put stores record under id for ttl.
func (s *SessionStore) Put(ctx context.Context, id string, record any, ttl time.Duration) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", id, err)
	}
	return s.rdb.Set(ctx, s.key(id), b, ttl).Err()
}

// Get decodes the record stored under id into dest. found is false for an
// expired or revoked session.
func (s *SessionStore) Get(ctx context.Context, id string, dest any) (found bool, err error) {
	if s == nil {
		return false, nil
	}
	raw, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode session %s: %w", id, err)
	}
	return true, nil
}

// Delete drops the record under id. Missing records are not an error.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if s == nil {
		return nil
	}
	return s.rdb.Del(ctx, s.key(id)).Err()
}
