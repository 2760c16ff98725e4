package ratelimit

import "testing"

func TestAllowWithinCapacity(t *testing.T) {
	l := New()
	for i := 0; i < 5; i++ {
		if !l.Allow("ibkr", 5, 0) {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if l.Allow("ibkr", 5, 0) {
		t.Fatalf("request over capacity should be denied")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := New()
	for i := 0; i < 3; i++ {
		l.Allow("ibkr", 3, 0)
	}
	if l.Allow("ibkr", 3, 0) {
		t.Fatalf("ibkr bucket should be empty")
	}
	if !l.Allow("tradernet", 3, 0) {
		t.Fatalf("tradernet bucket must not be affected")
	}
}
