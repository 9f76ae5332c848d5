package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, client
}

func TestRedis_Allow(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()
	l := NewRedis(client, "bizdir:rl:")

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "import:ip:1.2.3.4", 2, time.Minute)
		if err != nil || !ok {
			t.Fatalf("request %d: Allow() = %v, %v; want true", i+1, ok, err)
		}
	}
	ok, err := l.Allow(ctx, "import:ip:1.2.3.4", 2, time.Minute)
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if ok {
		t.Error("3rd request within window should be rejected")
	}

	if ttl := mr.TTL("bizdir:rl:import:ip:1.2.3.4"); ttl <= 0 || ttl > time.Minute {
		t.Errorf("counter TTL = %v, want (0, 1m]", ttl)
	}

	mr.FastForward(time.Minute)
	if ok, _ := l.Allow(ctx, "import:ip:1.2.3.4", 2, time.Minute); !ok {
		t.Error("request after window expiry should be allowed")
	}
}

func TestRedis_Unavailable(t *testing.T) {
	mr, client := setupTestRedis(t)
	l := NewRedis(client, "rl:")
	mr.Close()

	if _, err := l.Allow(context.Background(), "k", 1, time.Minute); err == nil {
		t.Error("Allow() expected error when redis is down")
	}
}

func TestNewRedisFromURL(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	l, err := NewRedisFromURL(context.Background(), "redis://"+mr.Addr(), "rl:")
	if err != nil {
		t.Fatalf("NewRedisFromURL() error = %v", err)
	}
	defer l.Close()

	if _, err := NewRedisFromURL(context.Background(), "not a url", "rl:"); err == nil {
		t.Error("NewRedisFromURL() expected error for bad url")
	}
}
