package semaphore

import (
	"errors"
	"testing"
)

func TestHandleSplitAndAdoptRoundTrip(t *testing.T) {
	sem := New(10)
	defer sem.Close()

	h, ok := TryGetUnits(sem, 10)
	if !ok {
		t.Fatal("expected TryGetUnits to succeed")
	}

	split, err := h.Split(4)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if got := h.Count(); got != 6 {
		t.Fatalf("h.Count() after split = %d, want 6", got)
	}
	if got := split.Count(); got != 4 {
		t.Fatalf("split.Count() = %d, want 4", got)
	}

	h.Adopt(split)
	if got := h.Count(); got != 10 {
		t.Fatalf("h.Count() after adopt = %d, want 10", got)
	}
	if got := split.Count(); got != 0 {
		t.Fatalf("split.Count() after adopt = %d, want 0", got)
	}

	h.ReturnAll()
	if got := sem.Current(); got != 10 {
		t.Fatalf("final count = %d, want 10", got)
	}
}

func TestHandleReturnUnitsOutOfRange(t *testing.T) {
	sem := New(5)
	defer sem.Close()

	h, ok := TryGetUnits(sem, 2)
	if !ok {
		t.Fatal("expected TryGetUnits to succeed")
	}

	err := h.ReturnUnits(3)
	var invalidErr *InvalidArgumentError
	if !errors.As(err, &invalidErr) {
		t.Fatalf("expected *InvalidArgumentError, got %v", err)
	}
	if got := h.Count(); got != 2 {
		t.Fatalf("h.Count() after failed return = %d, want 2", got)
	}

	h.ReturnAll()
}

func TestHandleReleaseDoesNotSignal(t *testing.T) {
	sem := New(5)
	defer sem.Close()

	h, ok := TryGetUnits(sem, 5)
	if !ok {
		t.Fatal("expected TryGetUnits to succeed")
	}

	if got := h.Release(); got != 5 {
		t.Fatalf("Release() = %d, want 5", got)
	}
	if got := sem.Current(); got != 0 {
		t.Fatalf("count after Release = %d, want 0 (units discarded, not returned)", got)
	}
	if h.Bool() {
		t.Fatal("handle should be empty after Release")
	}
}

func TestAdoptAcrossDifferentSemaphoresPanics(t *testing.T) {
	semA := New(5)
	semB := New(5)
	defer semA.Close()
	defer semB.Close()

	hA, _ := TryGetUnits(semA, 1)
	hB, _ := TryGetUnits(semB, 1)

	defer func() {
		if recover() == nil {
			t.Fatal("expected Adopt across semaphores to panic")
		}
		hA.ReturnAll()
		hB.ReturnAll()
	}()
	hA.Adopt(hB)
}

func TestConsumeUnitsRoundTrip(t *testing.T) {
	sem := New(5)
	defer sem.Close()

	h := ConsumeUnits(sem, 3)
	if got := sem.AvailableUnits(); got != 2 {
		t.Fatalf("available_units() after consume = %d, want 2", got)
	}

	h.ReturnAll()
	if got := sem.AvailableUnits(); got != 5 {
		t.Fatalf("available_units() after returning consumed handle = %d, want 5", got)
	}
}

func TestSplitDoesNotDoubleCountOutstandingUnits(t *testing.T) {
	sem := New(5, WithLeakDetection(true))

	res := <-sem.GetUnits(5).ToChannel()
	h, ok := res.(*UnitsHandle)
	if !ok {
		t.Fatalf("expected a handle, got %#v", res)
	}

	split, err := h.Split(2)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	h.ReturnAll()
	split.ReturnAll()

	// Every unit has been returned; Close must not report a leak.
	if err := sem.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
