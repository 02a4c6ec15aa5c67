package semaphore

import (
	"context"
	"testing"
	"time"
)

func TestExecutorSubmitWaitRunsInOrder(t *testing.T) {
	e := NewExecutor()
	defer e.Close()

	var order []int
	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			i := i
			_ = e.Submit(func() { order = append(order, i) })
		}
		close(done)
	}()
	<-done

	if err := e.SubmitWait(func() {}); err != nil {
		t.Fatalf("SubmitWait: %v", err)
	}
	if len(order) != 5 {
		t.Fatalf("len(order) = %d, want 5", len(order))
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("order[%d] = %d, want %d", i, v, i)
		}
	}
}

func TestExecutorReentrantSubmitWaitDoesNotDeadlock(t *testing.T) {
	e := NewExecutor()
	defer e.Close()

	done := make(chan struct{})
	err := e.SubmitWait(func() {
		// Reentrant call from within the executor's own goroutine must run
		// inline rather than deadlocking against itself.
		inner := e.SubmitWait(func() { close(done) })
		if inner != nil {
			t.Errorf("inner SubmitWait: %v", inner)
		}
	})
	if err != nil {
		t.Fatalf("SubmitWait: %v", err)
	}
	select {
	case <-done:
	default:
		t.Fatal("reentrant task did not run")
	}
}

func TestExecutorSubmitAfterShutdownFails(t *testing.T) {
	e := NewExecutor()
	if err := e.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	if err := e.Submit(func() {}); err != ErrExecutorTerminated {
		t.Fatalf("Submit after shutdown = %v, want ErrExecutorTerminated", err)
	}
}

func TestExecutorShutdownDrainsQueuedTasks(t *testing.T) {
	e := NewExecutor()

	ran := make(chan struct{}, 1)
	_ = e.Submit(func() {
		time.Sleep(5 * time.Millisecond)
		ran <- struct{}{}
	})

	if err := e.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	select {
	case <-ran:
	default:
		t.Fatal("queued task was not drained before shutdown completed")
	}
}
