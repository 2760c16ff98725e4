package cache

import (
	"testing"
	"time"
)

func TestTTLCacheSetGet(t *testing.T) {
	c := NewTTLCache()
	c.Set("k", "v", time.Minute)

	v, ok := c.Get("k")
	if !ok || v != "v" {
		t.Fatalf("expected hit, got %v %v", v, ok)
	}
}

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache()
	c.Set("k", "v", 10*time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestTTLCacheNoExpiry(t *testing.T) {
	c := NewTTLCache()
	c.Set("k", 42, 0)

	time.Sleep(10 * time.Millisecond)
	if v, ok := c.Get("k"); !ok || v != 42 {
		t.Fatalf("zero ttl must not expire")
	}
}

func TestTTLCacheDelete(t *testing.T) {
	c := NewTTLCache()
	c.Set("k", "v", time.Minute)
	c.Delete("k")

	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected miss after delete")
	}
}
