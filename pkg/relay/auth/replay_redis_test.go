package auth

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisReplayCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := NewRedisReplayCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	seen, err := cache.SeenOrStore("sig-1", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if seen {
		t.Error("fresh signature reported as seen")
	}

	seen, err = cache.SeenOrStore("sig-1", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if !seen {
		t.Error("repeated signature not reported as seen")
	}

	// After the TTL passes the signature is accepted again
	mr.FastForward(2 * time.Minute)

	seen, err = cache.SeenOrStore("sig-1", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if seen {
		t.Error("expired signature reported as seen")
	}
}
