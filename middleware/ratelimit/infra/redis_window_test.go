package infra

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

func TestRedisWindowStore_TimeUsesServerClock(t *testing.T) {
	rdb, mr := newTestRedis(t)
	s := NewRedisWindowStore(rdb)

	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	mr.SetTime(fixed)

	got, err := s.Time(context.Background())
	if err != nil {
		t.Fatalf("Time: %v", err)
	}
	if !got.Equal(fixed) {
		t.Fatalf("expected %s, got %s", fixed, got)
	}
}

func TestRedisWindowStore_PruneCountInsert(t *testing.T) {
	rdb, _ := newTestRedis(t)
	s := NewRedisWindowStore(rdb)
	ctx := context.Background()

	t0 := time.Unix(1_700_000_000, 0)
	if err := s.Insert(ctx, "w:k", "a", t0); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.Insert(ctx, "w:k", "b", t0.Add(10*time.Second)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	// mesmo member não duplica
	_ = s.Insert(ctx, "w:k", "b", t0.Add(10*time.Second))

	n, err := s.Card(ctx, "w:k")
	if err != nil || n != 2 {
		t.Fatalf("expected 2 members, got %d (err=%v)", n, err)
	}

	removed, err := s.RemoveBefore(ctx, "w:k", t0.Add(10*time.Second))
	if err != nil {
		t.Fatalf("RemoveBefore: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected only the older entry removed, got %d", removed)
	}
	if n, _ := s.Card(ctx, "w:k"); n != 1 {
		t.Fatalf("expected 1 member left, got %d", n)
	}
}

func TestRedisWindowStore_ExpireAndTTL(t *testing.T) {
	rdb, mr := newTestRedis(t)
	s := NewRedisWindowStore(rdb)
	ctx := context.Background()

	ttl, err := s.TTL(ctx, "w:missing")
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl >= 0 {
		t.Fatalf("expected negative ttl for missing key, got %s", ttl)
	}

	_ = s.Insert(ctx, "w:k", "a", time.Now())
	if err := s.Expire(ctx, "w:k", 2*time.Minute); err != nil {
		t.Fatalf("Expire: %v", err)
	}
	ttl, _ = s.TTL(ctx, "w:k")
	if ttl != 2*time.Minute {
		t.Fatalf("expected ttl=2m, got %s", ttl)
	}

	mr.FastForward(2*time.Minute + time.Second)
	if n, _ := s.Card(ctx, "w:k"); n != 0 {
		t.Fatalf("expected key to expire, got %d members", n)
	}
}

func TestRedisWindowStore_ErrorsWhenServerDown(t *testing.T) {
	rdb, mr := newTestRedis(t)
	s := NewRedisWindowStore(rdb)
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := s.Card(ctx, "w:k"); err == nil {
		t.Fatalf("expected error with server down")
	}
}
