package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGovernor_WindowBound(t *testing.T) {
	g := NewGovernor(5, 10, 0)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := g.Acquire(ctx); err != nil {
			t.Fatalf("acquire %d failed: %v", i, err)
		}
		g.Release()
	}

	if got := g.CallsInWindow(); got != 5 {
		t.Errorf("expected 5 calls in window, got %d", got)
	}

	// Sixth call must block until the window drains.
	ctxShort, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if err := g.Acquire(ctxShort); err == nil {
		t.Error("expected sixth acquire to block past the deadline")
	}
}

func TestGovernor_WindowSlides(t *testing.T) {
	g := NewGovernor(2, 10, 0)

	// Fake clock: first two calls happen "a minute ago".
	base := time.Now()
	offset := -61 * time.Second
	var mu sync.Mutex
	g.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return base.Add(offset)
	}

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := g.Acquire(ctx); err != nil {
			t.Fatalf("acquire failed: %v", err)
		}
		g.Release()
	}

	mu.Lock()
	offset = 0
	mu.Unlock()

	// Old timestamps aged out, so this must not block.
	if err := g.Acquire(ctx); err != nil {
		t.Fatalf("acquire after window slide failed: %v", err)
	}
	g.Release()

	if got := g.CallsInWindow(); got != 1 {
		t.Errorf("expected 1 call in fresh window, got %d", got)
	}
}

func TestGovernor_ConcurrentCallersNeverExceedBounds(t *testing.T) {
	const (
		perMinute  = 20
		concurrent = 3
		callers    = 10
	)
	g := NewGovernor(perMinute, concurrent, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	var inflight, maxInflight, total int64
	var wg sync.WaitGroup
	for c := 0; c < callers; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if err := g.Acquire(ctx); err != nil {
					return
				}
				cur := atomic.AddInt64(&inflight, 1)
				for {
					old := atomic.LoadInt64(&maxInflight)
					if cur <= old || atomic.CompareAndSwapInt64(&maxInflight, old, cur) {
						break
					}
				}
				atomic.AddInt64(&total, 1)
				time.Sleep(time.Millisecond)
				atomic.AddInt64(&inflight, -1)
				g.Release()
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt64(&maxInflight); got > concurrent {
		t.Errorf("in-flight calls exceeded bound: %d > %d", got, concurrent)
	}
	// Everything ran inside a single 60s window, so the total is the
	// window count.
	if got := atomic.LoadInt64(&total); got > perMinute {
		t.Errorf("calls in window exceeded bound: %d > %d", got, perMinute)
	}
}

func TestGovernor_AcquireHonorsCancel(t *testing.T) {
	g := NewGovernor(10, 1, 0)
	ctx := context.Background()

	if err := g.Acquire(ctx); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	// Slot is held; a second acquire must give up on cancel.
	ctxShort, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := g.Acquire(ctxShort); err == nil {
		t.Error("expected context error while slot is held")
	}
	g.Release()
}

func TestGovernor_Smoothing(t *testing.T) {
	g := NewGovernor(100, 10, 50) // 50 calls/sec spacing
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 4; i++ {
		if err := g.Acquire(ctx); err != nil {
			t.Fatalf("acquire failed: %v", err)
		}
		g.Release()
	}
	// Burst of 1 plus 3 spaced calls needs roughly 60ms.
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("expected smoothing to spread calls, took only %v", elapsed)
	}
}
