package utils

import (
	"context"
	"sync"
	"time"
)

// WorkerPool runs jobs on at most maxWorkers goroutines. Job starts are
// spaced at least interval apart, whatever the concurrency.
type WorkerPool struct {
	interval  time.Duration
	semaphore chan struct{}
	wg        sync.WaitGroup

	mu      sync.Mutex
	next    time.Time
	skipped int
}

// NewWorkerPool creates a WorkerPool with the given concurrency and minimum
// gap between job starts.
func NewWorkerPool(maxWorkers, rateLimitMs int) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &WorkerPool{
		interval:  time.Duration(rateLimitMs) * time.Millisecond,
		semaphore: make(chan struct{}, maxWorkers),
	}
}

// Submit blocks until a worker is free, then runs job on it once its start
// slot comes up. A job whose context ends before it starts is skipped.
func (wp *WorkerPool) Submit(ctx context.Context, job func(ctx context.Context)) {
	wp.wg.Add(1)
	select {
	case wp.semaphore <- struct{}{}:
	case <-ctx.Done():
		wp.skip()
		wp.wg.Done()
		return
	}

	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.semaphore }()

		if wait := wp.reserve(); wait > 0 {
			timer := time.NewTimer(wait)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
			}
		}
		if ctx.Err() != nil {
			wp.skip()
			return
		}
		job(ctx)
	}()
}

// Wait blocks until all submitted jobs have completed or been skipped.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// Skipped returns how many jobs never ran because their context ended.
func (wp *WorkerPool) Skipped() int {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	return wp.skipped
}

// reserve claims the next start slot and returns how long to wait for it.
func (wp *WorkerPool) reserve() time.Duration {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	now := time.Now()
	start := wp.next
	if start.Before(now) {
		start = now
	}
	wp.next = start.Add(wp.interval)
	return start.Sub(now)
}

func (wp *WorkerPool) skip() {
	wp.mu.Lock()
	wp.skipped++
	wp.mu.Unlock()
}

// KeySet is a thread-safe set of string keys, used to drop trips seen on
// more than one page or route.
type KeySet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewKeySet creates an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{seen: make(map[string]struct{})}
}

// Add returns true if the key was newly added, false if already present.
func (s *KeySet) Add(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[key]; exists {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// Contains reports whether key has been added.
func (s *KeySet) Contains(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.seen[key]
	return exists
}

// Size returns the number of unique keys tracked.
func (s *KeySet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}
