package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStorePutOverwrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first := Code{Code: "111111", Email: "a@example.com", ExpiresAt: time.Now().Add(5 * time.Minute)}
	second := Code{Code: "222222", Email: "a@example.com", ExpiresAt: time.Now().Add(5 * time.Minute)}

	if err := store.Put(ctx, "sid", first, time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(ctx, "sid", second, time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := store.Get(ctx, "sid")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Code != "222222" {
		t.Fatalf("expected latest code to win, got %s", got.Code)
	}
}

func TestMemoryStoreConsumeIfMatch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	code := Code{Code: "123456", Email: "a@example.com", ExpiresAt: time.Now().Add(5 * time.Minute)}

	if err := store.Put(ctx, "sid", code, time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}

	// Wrong code must not consume.
	ok, err := store.ConsumeIfMatch(ctx, "sid", "a@example.com", "000000")
	if err != nil || ok {
		t.Fatalf("expected no consume on mismatch, got ok=%v err=%v", ok, err)
	}
	if _, err := store.Get(ctx, "sid"); err != nil {
		t.Fatalf("code should still be present after mismatch: %v", err)
	}

	// Matching consume succeeds exactly once.
	ok, err = store.ConsumeIfMatch(ctx, "sid", "a@example.com", "123456")
	if err != nil || !ok {
		t.Fatalf("expected consume, got ok=%v err=%v", ok, err)
	}
	ok, err = store.ConsumeIfMatch(ctx, "sid", "a@example.com", "123456")
	if err != nil || ok {
		t.Fatalf("second consume must fail, got ok=%v err=%v", ok, err)
	}
	if _, err := store.Get(ctx, "sid"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after consume, got %v", err)
	}
}

func TestMemoryStoreTTLEviction(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	code := Code{Code: "123456", Email: "a@example.com", ExpiresAt: time.Now().Add(time.Minute)}

	if err := store.Put(ctx, "sid", code, -time.Second); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Get(ctx, "sid"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected evicted entry, got %v", err)
	}
}
