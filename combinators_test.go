package semaphore

import (
	"context"
	"testing"
)

func TestTryGetUnitsFailsWhenUnavailable(t *testing.T) {
	sem := New(1)
	defer sem.Close()

	h, ok := TryGetUnits(sem, 2)
	if ok || h != nil {
		t.Fatalf("expected TryGetUnits to fail, got handle=%v ok=%v", h, ok)
	}
	if got := sem.Current(); got != 1 {
		t.Fatalf("count should be untouched, got %d", got)
	}
}

func TestTryGetUnitsZeroAlwaysSucceeds(t *testing.T) {
	sem := New(0)
	defer sem.Close()

	h, ok := TryGetUnits(sem, 0)
	if !ok || h.Count() != 0 {
		t.Fatalf("TryGetUnits(0) should always succeed with an empty handle")
	}
}

func TestWithBoundedRegionSucceeds(t *testing.T) {
	sem := New(2)
	defer sem.Close()

	ran := false
	err := WithBoundedRegion(context.Background(), sem, 2, func() error {
		ran = true
		if got := sem.Current(); got != 0 {
			t.Fatalf("count while held = %d, want 0", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithBoundedRegion: %v", err)
	}
	if !ran {
		t.Fatal("fn was not invoked")
	}
	if got := sem.Current(); got != 2 {
		t.Fatalf("count after region = %d, want 2", got)
	}
}
