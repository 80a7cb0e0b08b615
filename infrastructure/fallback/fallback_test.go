package fallback

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestExecuteReturnsFromPrimaryWhenItSucceeds(t *testing.T) {
	h := NewHandler(DefaultConfig())
	result := h.Execute(context.Background(), func(ctx context.Context) (interface{}, error) {
		return "primary-value", nil
	})

	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.Value != "primary-value" || result.Source != "primary" {
		t.Errorf("expected primary-value from primary, got %v from %s", result.Value, result.Source)
	}
}

func TestExecuteFallsBackWhenPrimaryFails(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseDelay = time.Millisecond
	h := NewHandler(cfg)

	result := h.Execute(context.Background(),
		func(ctx context.Context) (interface{}, error) { return nil, errors.New("primary down") },
		func(ctx context.Context) (interface{}, error) { return "fallback-value", nil },
	)

	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.Value != "fallback-value" || result.Source != "fallback" {
		t.Errorf("expected fallback-value from fallback, got %v from %s", result.Value, result.Source)
	}
	if result.Attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", result.Attempts)
	}
}

func TestExecuteExhaustsAllAttempts(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseDelay = time.Millisecond
	h := NewHandler(cfg)

	result := h.Execute(context.Background(),
		func(ctx context.Context) (interface{}, error) { return nil, errors.New("down") },
	)

	if result.Err == nil {
		t.Fatal("expected error when every source fails")
	}
	if result.Source != "exhausted" {
		t.Errorf("expected source=exhausted, got %s", result.Source)
	}
}

func TestCacheGetSetAndExpiry(t *testing.T) {
	h := NewHandler(DefaultConfig())

	if _, ok := h.GetCache("missing"); ok {
		t.Fatal("expected miss for unset key")
	}

	h.SetCache("key", 42, time.Minute)
	val, ok := h.GetCache("key")
	if !ok || val.(int) != 42 {
		t.Fatalf("GetCache() = %v, %v, want 42, true", val, ok)
	}

	h.SetCache("expired", 1, time.Nanosecond)
	time.Sleep(time.Millisecond)
	if _, ok := h.GetCache("expired"); ok {
		t.Error("expected expired entry to be a miss")
	}
}

func TestCleanupRemovesExpiredEntries(t *testing.T) {
	h := NewHandler(DefaultConfig())
	h.SetCache("expired", 1, time.Nanosecond)
	time.Sleep(time.Millisecond)

	h.Cleanup()

	h.mu.RLock()
	_, stillPresent := h.cache["expired"]
	h.mu.RUnlock()

	if stillPresent {
		t.Error("expected Cleanup to remove expired entry")
	}
}
