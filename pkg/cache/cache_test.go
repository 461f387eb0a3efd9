package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupMiniRedis starts an in-process Redis for the test.
func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestSessionLifecycle(t *testing.T) {
	_, client := setupMiniRedis(t)
	sessions := NewSession(client)
	ctx := context.Background()

	uid, err := sessions.UID(ctx, "nosuch")
	require.NoError(t, err)
	assert.Empty(t, uid, "unknown session resolves to no user")

	require.NoError(t, sessions.Append(ctx, "ssid-1", "user-1"))
	uid, err = sessions.UID(ctx, "ssid-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", uid)

	require.NoError(t, sessions.Remove(ctx, "ssid-1"))
	uid, err = sessions.UID(ctx, "ssid-1")
	require.NoError(t, err)
	assert.Empty(t, uid)
}

func TestStatusSingleLogin(t *testing.T) {
	_, client := setupMiniRedis(t)
	status := NewStatus(client)
	ctx := context.Background()

	online, err := status.Exists(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, online)

	require.NoError(t, status.Append(ctx, "user-1"))
	online, err = status.Exists(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, online)

	require.NoError(t, status.Remove(ctx, "user-1"))
	online, err = status.Exists(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, online)
}

func TestVerifyCodeExpiry(t *testing.T) {
	mr, client := setupMiniRedis(t)
	codes := NewVerifyCode(client)
	ctx := context.Background()

	require.NoError(t, codes.Append(ctx, "cid-1", "042517", 0))

	code, err := codes.Code(ctx, "cid-1")
	require.NoError(t, err)
	assert.Equal(t, "042517", code)

	// Past the ten-minute window the code is gone.
	mr.FastForward(DefaultCodeTTL + time.Second)
	code, err = codes.Code(ctx, "cid-1")
	require.NoError(t, err)
	assert.Empty(t, code)
}

func TestVerifyCodeConsumed(t *testing.T) {
	_, client := setupMiniRedis(t)
	codes := NewVerifyCode(client)
	ctx := context.Background()

	require.NoError(t, codes.Append(ctx, "cid-2", "735962", time.Minute))
	require.NoError(t, codes.Remove(ctx, "cid-2"))

	code, err := codes.Code(ctx, "cid-2")
	require.NoError(t, err)
	assert.Empty(t, code, "consumed codes cannot be replayed")
}
