package rewrite

import (
	"context"
	"sync"
	"time"
)

// ExecutorRegistry tracks the active executors, keyed by rewrite id. It is
// injected into the service and the SSE handler; there is no process-wide
// instance. Completed executors are retained for a while so late stream
// subscribers can still catch up, then reaped by the cleanup loop.
type ExecutorRegistry struct {
	executors map[string]*Executor
	mu        sync.RWMutex

	cleanupInterval time.Duration
	retentionPeriod time.Duration

	completionTimes map[string]time.Time
	timesMu         sync.Mutex
}

// NewExecutorRegistry creates a registry. Call StartCleanup on it once.
func NewExecutorRegistry(cleanupInterval, retentionPeriod time.Duration) *ExecutorRegistry {
	return &ExecutorRegistry{
		executors:       make(map[string]*Executor),
		cleanupInterval: cleanupInterval,
		retentionPeriod: retentionPeriod,
		completionTimes: make(map[string]time.Time),
	}
}

// Register adds an executor. Returns false if the id is already taken.
func (r *ExecutorRegistry) Register(rewriteID string, executor *Executor) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.executors[rewriteID]; exists {
		return false
	}
	r.executors[rewriteID] = executor
	return true
}

// Get returns the executor for a rewrite, or nil.
func (r *ExecutorRegistry) Get(rewriteID string) *Executor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.executors[rewriteID]
}

// Remove drops an executor. Safe when absent.
func (r *ExecutorRegistry) Remove(rewriteID string) {
	r.mu.Lock()
	delete(r.executors, rewriteID)
	r.mu.Unlock()

	r.timesMu.Lock()
	delete(r.completionTimes, rewriteID)
	r.timesMu.Unlock()
}

// Count returns the number of tracked executors.
func (r *ExecutorRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.executors)
}

// StartCleanup runs the reaper loop until ctx is cancelled.
func (r *ExecutorRegistry) StartCleanup(ctx context.Context) {
	ticker := time.NewTicker(r.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.cleanup()
		}
	}
}

func (r *ExecutorRegistry) cleanup() {
	now := time.Now()
	var toRemove []string

	r.mu.RLock()
	for rewriteID, executor := range r.executors {
		if executor.Status() == StatusStreaming {
			continue
		}

		r.timesMu.Lock()
		completedAt, tracked := r.completionTimes[rewriteID]
		if !tracked {
			r.completionTimes[rewriteID] = now
		}
		r.timesMu.Unlock()

		if tracked && now.Sub(completedAt) > r.retentionPeriod {
			toRemove = append(toRemove, rewriteID)
		}
	}
	r.mu.RUnlock()

	for _, rewriteID := range toRemove {
		r.Remove(rewriteID)
	}
}
