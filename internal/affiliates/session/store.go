// Package session keeps the affiliate code a visitor arrived with, keyed by
// an opaque session id carried in a cookie.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "affiliate:session:"

// Store is a Redis-backed affiliate session store.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore creates a store whose entries expire after ttl.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// Code returns the affiliate code stored for sid, or "" when there is none.
func (s *Store) Code(ctx context.Context, sid string) (string, error) {
	if sid == "" {
		return "", nil
	}
	code, err := s.rdb.Get(ctx, keyPrefix+sid).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read affiliate session: %w", err)
	}
	return code, nil
}

// Remember stores code for sid and refreshes the expiry. It reports whether
// the session carried a different code (or none) before the call.
func (s *Store) Remember(ctx context.Context, sid, code string) (bool, error) {
	prev, err := s.rdb.SetArgs(ctx, keyPrefix+sid, code, redis.SetArgs{TTL: s.ttl, Get: true}).Result()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("write affiliate session: %w", err)
	}
	return prev != code, nil
}
