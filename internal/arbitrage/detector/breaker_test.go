package detector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickBreakerTripsAfterThreshold(t *testing.T) {
	b := newTickBreaker(3, time.Minute)
	now := time.Now()

	assert.True(t, b.Allow(now))
	b.RecordFailure(now)
	b.RecordFailure(now)
	assert.True(t, b.Allow(now), "should still allow below threshold")
	b.RecordFailure(now)
	assert.False(t, b.Allow(now), "should trip at threshold")
}

func TestTickBreakerResetsOnSuccess(t *testing.T) {
	b := newTickBreaker(2, time.Minute)
	now := time.Now()
	b.RecordFailure(now)
	b.RecordSuccess()
	b.RecordFailure(now)
	assert.True(t, b.Allow(now), "success should reset the consecutive-failure count")
}

func TestTickBreakerResumesAfterCooldown(t *testing.T) {
	b := newTickBreaker(1, 10*time.Millisecond)
	now := time.Now()
	b.RecordFailure(now)
	assert.False(t, b.Allow(now))
	assert.True(t, b.Allow(now.Add(20*time.Millisecond)))
}
