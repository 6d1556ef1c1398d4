package detector

import (
	"sync"
	"time"
)

// tickBreaker is the detection-tick circuit breaker: it counts
// consecutive failures and, once a threshold is reached, pauses ticks
// for a cooldown before resetting. Adapted from the teacher's
// pkg/concurrency CircuitBreaker state machine, simplified to the two
// states this spec actually needs (closed/tripped) instead of a full
// closed/half-open/open cycle, since the detection tick has no
// "trial request" concept — it just waits out the cooldown and resumes.
type tickBreaker struct {
	mu                  sync.Mutex
	failureThreshold    int
	cooldown            time.Duration
	consecutiveFailures int
	trippedUntil        time.Time
}

func newTickBreaker(failureThreshold int, cooldown time.Duration) *tickBreaker {
	return &tickBreaker{failureThreshold: failureThreshold, cooldown: cooldown}
}

// Allow reports whether a tick may run right now.
func (b *tickBreaker) Allow(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return now.After(b.trippedUntil)
}

// RecordSuccess clears the consecutive-failure counter.
func (b *tickBreaker) RecordSuccess() {
	b.mu.Lock()
	b.consecutiveFailures = 0
	b.mu.Unlock()
}

// RecordFailure increments the consecutive-failure counter, tripping the
// breaker for Cooldown once the threshold is reached.
func (b *tickBreaker) RecordFailure(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutiveFailures++
	if b.consecutiveFailures >= b.failureThreshold {
		b.trippedUntil = now.Add(b.cooldown)
		b.consecutiveFailures = 0
	}
}
