package flags

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/redis/go-redis/v9"
)

// All flags live in a single hash keyed by flag name, so list and delete
// stay one command each and there is no index to drift out of sync.
const hashKey = "flags:items"

var keyRe = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,128}$`)

type Store struct {
	client redis.Cmdable
}

func NewStore(client redis.Cmdable) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &Store{client: client}, nil
}

func ValidateKey(key string) error {
	if !keyRe.MatchString(key) {
		return fmt.Errorf("invalid flag key")
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, key string, value bool) (*Flag, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	flag := &Flag{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	b, err := json.Marshal(flag)
	if err != nil {
		return nil, fmt.Errorf("marshal flag: %w", err)
	}

	if err := s.client.HSet(ctx, hashKey, key, b).Err(); err != nil {
		return nil, fmt.Errorf("upsert flag: %w", err)
	}
	return flag, nil
}

func (s *Store) Get(ctx context.Context, key string) (*Flag, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	val, err := s.client.HGet(ctx, hashKey, key).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get flag: %w", err)
	}

	var f Flag
	if err := json.Unmarshal([]byte(val), &f); err != nil {
		return nil, fmt.Errorf("unmarshal flag: %w", err)
	}
	return &f, nil
}

// Enabled resolves a flag for pipeline decisions. Unset and unreachable both
// fall back to the given default so a Redis outage never flips a switch.
func (s *Store) Enabled(ctx context.Context, key string, fallback bool) bool {
	f, err := s.Get(ctx, key)
	if err != nil {
		return fallback
	}
	return f.Value
}

// EnsureDefaults seeds the well-known flags that have never been set.
// HSETNX leaves existing values alone.
func (s *Store) EnsureDefaults(ctx context.Context) error {
	for key, value := range Defaults() {
		flag := &Flag{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
		b, err := json.Marshal(flag)
		if err != nil {
			return fmt.Errorf("marshal flag: %w", err)
		}
		if err := s.client.HSetNX(ctx, hashKey, key, b).Err(); err != nil {
			return fmt.Errorf("seed flag %s: %w", key, err)
		}
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]*Flag, error) {
	fields, err := s.client.HGetAll(ctx, hashKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}

	out := make([]*Flag, 0, len(fields))
	for key, raw := range fields {
		if err := ValidateKey(key); err != nil {
			continue
		}
		var f Flag
		if err := json.Unmarshal([]byte(raw), &f); err != nil {
			continue
		}
		out = append(out, &f)
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	if err := s.client.HDel(ctx, hashKey, key).Err(); err != nil {
		return fmt.Errorf("delete flag: %w", err)
	}
	return nil
}
