package worker

import (
	"sync"
	"sync/atomic"
	"time"
)

// CircuitBreaker opens after threshold consecutive failures. Once the reset
// timeout has passed since the last failure one call is let through again.
// A threshold of 0 never opens.
type CircuitBreaker struct {
	failures     int32
	threshold    int32
	resetTimeout time.Duration
	lastFailure  time.Time
	mu           sync.RWMutex
}

func NewCircuitBreaker(threshold int32, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		threshold:    threshold,
		resetTimeout: resetTimeout,
	}
}

// IsOpen returns true if calls should not proceed
func (cb *CircuitBreaker) IsOpen() bool {
	if cb.threshold <= 0 {
		return false
	}

	cb.mu.RLock()
	defer cb.mu.RUnlock()

	if atomic.LoadInt32(&cb.failures) >= cb.threshold {
		if cb.resetTimeout > 0 && time.Since(cb.lastFailure) > cb.resetTimeout {
			// half-open
			return false
		}
		return true
	}
	return false
}

func (cb *CircuitBreaker) RecordSuccess() {
	atomic.StoreInt32(&cb.failures, 0)
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	atomic.AddInt32(&cb.failures, 1)
	cb.lastFailure = time.Now()
}

func (cb *CircuitBreaker) GetFailures() int32 {
	return atomic.LoadInt32(&cb.failures)
}
