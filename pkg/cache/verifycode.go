package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCodeTTL keeps an emailed verification code valid for ten minutes,
// matching the validity window promised in the mail body.
const DefaultCodeTTL = 600 * time.Second

// VerifyCode stores emailed verification codes keyed by code id. Codes
// expire on their own and are consumed explicitly after a successful
// verification.
type VerifyCode struct {
	client *redis.Client
}

// NewVerifyCode wraps client for verification codes.
func NewVerifyCode(client *redis.Client) *VerifyCode {
	return &VerifyCode{client: client}
}

// Append stores code under cid for ttl. A zero ttl selects DefaultCodeTTL.
func (v *VerifyCode) Append(ctx context.Context, cid, code string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultCodeTTL
	}
	return v.client.Set(ctx, cid, code, ttl).Err()
}

// Remove consumes the code.
func (v *VerifyCode) Remove(ctx context.Context, cid string) error {
	return v.client.Del(ctx, cid).Err()
}

// Code returns the stored code for cid, or empty when it never existed or
// already expired.
func (v *VerifyCode) Code(ctx context.Context, cid string) (string, error) {
	code, err := v.client.Get(ctx, cid).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return code, err
}
