// Package redis persists catalog blobs as plain Redis strings.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Store handles Redis operations for the key-value backend
type Store struct {
	client *redis.Client
}

// NewStore wraps an already connected client
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// Get returns the value under key. A missing key is not an error.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, Key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key without expiry
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, Key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// maxModifyAttempts bounds optimistic retries when another client keeps
// changing the watched key.
const maxModifyAttempts = 16

// Modify runs fn between WATCH and EXEC. If another client writes the key in
// between, EXEC aborts and the cycle starts over with the new value.
func (s *Store) Modify(ctx context.Context, key string, fn func(string, bool) (string, error)) error {
	k := Key(key)
	txf := func(tx *redis.Tx) error {
		value, err := tx.Get(ctx, k).Result()
		found := true
		if errors.Is(err, redis.Nil) {
			value, found = "", false
		} else if err != nil {
			return fmt.Errorf("failed to get %s: %w", key, err)
		}

		next, err := fn(value, found)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, next, 0)
			return nil
		})
		return err
	}

	for range maxModifyAttempts {
		err := s.client.Watch(ctx, txf, k)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("failed to modify %s: %w after %d attempts", key, redis.TxFailedErr, maxModifyAttempts)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}
