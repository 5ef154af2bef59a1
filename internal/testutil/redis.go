package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
)

const defaultRedisAddr = "127.0.0.1:6379"

// RedisAddr returns TEST_REDIS_ADDR or the default local address.
func RedisAddr() string {
	if addr := os.Getenv("TEST_REDIS_ADDR"); addr != "" {
		return addr
	}
	return defaultRedisAddr
}

// NewRedisClient returns a client for a local Redis with a flushed test
// database, skipping the test when Redis is not reachable.
func NewRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	if !reachable(RedisAddr()) {
		t.Skip("Redis not available")
	}
	client := redis.NewClient(&redis.Options{Addr: RedisAddr(), DB: 15})
	ctx := context.Background()
	if err := client.FlushDB(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Redis not usable: %v", err)
	}
	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})
	return client
}
