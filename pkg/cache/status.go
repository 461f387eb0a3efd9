package cache

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Status tracks which users are logged in. One user may hold at most one
// live login; a second login attempt is rejected while the flag exists.
type Status struct {
	client *redis.Client
}

// NewStatus wraps client for login-status flags.
func NewStatus(client *redis.Client) *Status {
	return &Status{client: client}
}

// Append marks uid as logged in.
func (s *Status) Append(ctx context.Context, uid string) error {
	return s.client.Set(ctx, uid, "1", 0).Err()
}

// Remove clears the login flag.
func (s *Status) Remove(ctx context.Context, uid string) error {
	return s.client.Del(ctx, uid).Err()
}

// Exists reports whether uid is logged in.
func (s *Status) Exists(ctx context.Context, uid string) (bool, error) {
	val, err := s.client.Get(ctx, uid).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return val == "1", nil
}
