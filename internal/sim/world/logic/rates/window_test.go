package rates

import "testing"

func TestAllowFixedWindow(t *testing.T) {
	start, count := int64(0), 0
	var ok bool
	var retry int64
	for i := 0; i < 3; i++ {
		start, count, ok, _ = Allow(1000, start, count, 500, 3)
		if !ok {
			t.Fatalf("event %d rejected", i)
		}
	}
	start, count, ok, retry = Allow(1200, start, count, 500, 3)
	if ok || retry != 300 {
		t.Fatalf("expected rejection with retry 300, got ok=%v retry=%d", ok, retry)
	}
	_, count, ok, _ = Allow(1500, start, count, 500, 3)
	if !ok || count != 1 {
		t.Fatalf("expected window reset, ok=%v count=%d", ok, count)
	}
}

func TestAllowDisabled(t *testing.T) {
	for _, tc := range []struct {
		window int64
		max    int
	}{{0, 5}, {100, 0}} {
		if _, _, ok, _ := Allow(10, 0, 1000, tc.window, tc.max); !ok {
			t.Fatalf("window=%d max=%d should admit", tc.window, tc.max)
		}
	}
}

func TestWindowClockGoingBackwards(t *testing.T) {
	w := Window{WindowMs: 1000, Max: 1}
	if ok, _ := w.Allow(5000); !ok {
		t.Fatalf("first event rejected")
	}
	if ok, _ := w.Allow(5100); ok {
		t.Fatalf("second event in window admitted")
	}
	if ok, _ := w.Allow(100); !ok {
		t.Fatalf("expected restart after clock moved backwards")
	}
}
