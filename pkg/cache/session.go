package cache

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Session maps login session ids to the user id that owns them. Entries
// live until logout; a client presenting an unknown session id is not
// logged in.
type Session struct {
	client *redis.Client
}

// NewSession wraps client for session lookups.
func NewSession(client *redis.Client) *Session {
	return &Session{client: client}
}

// Append binds ssid to uid.
func (s *Session) Append(ctx context.Context, ssid, uid string) error {
	return s.client.Set(ctx, ssid, uid, 0).Err()
}

// Remove drops the session.
func (s *Session) Remove(ctx context.Context, ssid string) error {
	return s.client.Del(ctx, ssid).Err()
}

// UID returns the user id bound to ssid, or empty when the session does
// not exist.
func (s *Session) UID(ctx context.Context, ssid string) (string, error) {
	uid, err := s.client.Get(ctx, ssid).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return uid, err
}
