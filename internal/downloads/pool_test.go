package downloads

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolNeverExceedsCapacity(t *testing.T) {
	for _, capacity := range []int{1, 2, 4} {
		pool := NewPool(capacity)
		var current, peak, total int64
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			pool.Submit(func() {
				defer wg.Done()
				n := atomic.AddInt64(&current, 1)
				for {
					old := atomic.LoadInt64(&peak)
					if n <= old || atomic.CompareAndSwapInt64(&peak, old, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt64(&current, -1)
				atomic.AddInt64(&total, 1)
			})
		}
		wg.Wait()
		if got := atomic.LoadInt64(&peak); got > int64(capacity) {
			t.Errorf("capacity %d: observed %d concurrent jobs", capacity, got)
		}
		if got := atomic.LoadInt64(&total); got != 20 {
			t.Errorf("capacity %d: expected 20 completed jobs, got %d", capacity, got)
		}
	}
}

func TestPoolRunsBacklogInSubmissionOrder(t *testing.T) {
	pool := NewPool(1)
	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	release := make(chan struct{})

	// Occupy the single slot so the rest queue up deterministically.
	wg.Add(1)
	pool.Submit(func() {
		defer wg.Done()
		<-release
	})
	for i := 1; i <= 5; i++ {
		i := i // per-iteration copy: go.mod targets go 1.21, which shares the loop variable
		wg.Add(1)
		pool.Submit(func() {
			defer wg.Done()
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}
	close(release)
	wg.Wait()

	for i, got := range order {
		if got != i+1 {
			t.Fatalf("backlog ran out of order: %v", order)
		}
	}
}

func TestPoolSurvivesPanickingWork(t *testing.T) {
	pool := NewPool(1)
	var wg sync.WaitGroup
	wg.Add(1)
	pool.Submit(func() {
		defer wg.Done()
		panic("boom")
	})

	ran := false
	wg.Add(1)
	pool.Submit(func() {
		defer wg.Done()
		ran = true
	})
	wg.Wait()
	if !ran {
		t.Fatal("work submitted after a panic never ran")
	}
}

func TestDefaultCapacityClamped(t *testing.T) {
	got := DefaultCapacity()
	if got < 2 || got > 8 {
		t.Fatalf("DefaultCapacity() = %d, want within [2, 8]", got)
	}
}
