package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv8 "github.com/go-redis/redis/v8"
)

func newTestService(t *testing.T) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewFromClient(redisv8.NewClient(&redisv8.Options{Addr: mr.Addr()})), mr
}

func TestLock_Exclusive(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)

	l1, err := s.TryLock(ctx, "lock:site:a", time.Minute)
	if err != nil || l1 == nil {
		t.Fatalf("first TryLock = %v, %v", l1, err)
	}
	l2, err := s.TryLock(ctx, "lock:site:a", time.Minute)
	if err != nil || l2 != nil {
		t.Fatalf("second TryLock = %v, %v; want nil, nil", l2, err)
	}
	if err := s.Unlock(ctx, l1); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	l3, err := s.TryLock(ctx, "lock:site:a", time.Minute)
	if err != nil || l3 == nil {
		t.Fatalf("TryLock after unlock = %v, %v", l3, err)
	}
}

func TestLock_ExpiredLockNotReleasedByOldHolder(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestService(t)

	old, _ := s.TryLock(ctx, "lock:site:b", time.Second)
	mr.FastForward(2 * time.Second)
	current, _ := s.TryLock(ctx, "lock:site:b", time.Minute)
	if current == nil {
		t.Fatal("expected lock after expiry")
	}
	if err := s.Unlock(ctx, old); err != nil {
		t.Fatalf("Unlock old: %v", err)
	}
	if again, _ := s.TryLock(ctx, "lock:site:b", time.Minute); again != nil {
		t.Fatal("old holder released a lock it no longer owns")
	}
}

func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)

	type rec struct{ N int }
	if err := s.CacheSet(ctx, "k", rec{N: 7}, time.Minute); err != nil {
		t.Fatalf("CacheSet: %v", err)
	}
	var got rec
	if err := s.CacheGet(ctx, "k", &got); err != nil || got.N != 7 {
		t.Fatalf("CacheGet = %+v, %v", got, err)
	}
	if err := s.CacheGet(ctx, "missing", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("CacheGet(missing) = %v, want ErrCacheMiss", err)
	}
	if err := s.HealthCheck(ctx); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}
