package utils

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestKeySetNoDuplicates(t *testing.T) {
	s := NewKeySet()

	if !s.Add("Phương Trang|06:00|Bến xe Miền Đông") {
		t.Error("first Add should return true")
	}
	if s.Add("Phương Trang|06:00|Bến xe Miền Đông") {
		t.Error("second Add of same key should return false")
	}
	if !s.Contains("Phương Trang|06:00|Bến xe Miền Đông") {
		t.Error("Contains should report an added key")
	}
	if s.Size() != 1 {
		t.Errorf("size: got %d, want 1", s.Size())
	}
}

func TestKeySetConcurrency(t *testing.T) {
	s := NewKeySet()
	var added int64

	pool := NewWorkerPool(10, 0)
	for i := 0; i < 100; i++ {
		pool.Submit(context.Background(), func(context.Context) {
			if s.Add("same-trip") {
				atomic.AddInt64(&added, 1)
			}
		})
	}
	pool.Wait()

	if added != 1 {
		t.Errorf("expected exactly 1 successful add, got %d", added)
	}
}

func TestWorkerPoolRateLimit(t *testing.T) {
	rateLimitMs := 100
	pool := NewWorkerPool(1, rateLimitMs)

	var mu sync.Mutex
	var timestamps []time.Time
	for i := 0; i < 3; i++ {
		pool.Submit(context.Background(), func(context.Context) {
			mu.Lock()
			timestamps = append(timestamps, time.Now())
			mu.Unlock()
		})
	}
	pool.Wait()

	if len(timestamps) != 3 {
		t.Fatalf("jobs run: got %d, want 3", len(timestamps))
	}
	// timestamps are taken just after the limiter releases, allow a little slack
	min := time.Duration(rateLimitMs)*time.Millisecond - 5*time.Millisecond
	for i := 1; i < len(timestamps); i++ {
		if gap := timestamps[i].Sub(timestamps[i-1]); gap < min {
			t.Errorf("gap between job %d and %d: %v < minimum %v", i-1, i, gap, min)
		}
	}
}

func TestWorkerPoolFirstJobStartsImmediately(t *testing.T) {
	pool := NewWorkerPool(1, 500)
	start := time.Now()
	var ran time.Time
	pool.Submit(context.Background(), func(context.Context) { ran = time.Now() })
	pool.Wait()

	if gap := ran.Sub(start); gap > 100*time.Millisecond {
		t.Errorf("first job waited %v", gap)
	}
}

func TestWorkerPoolSkipsCancelledJobs(t *testing.T) {
	pool := NewWorkerPool(1, 200)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var ran atomic.Int32
	for i := 0; i < 3; i++ {
		pool.Submit(ctx, func(context.Context) {
			ran.Add(1)
			cancel()
		})
	}
	pool.Wait()

	if got := ran.Load(); got != 1 {
		t.Errorf("jobs run: got %d, want 1", got)
	}
	if got := pool.Skipped(); got != 2 {
		t.Errorf("Skipped: got %d, want 2", got)
	}
}
