package ratewindow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindowAllowsUpToLimit(t *testing.T) {
	w := New(3, time.Minute)
	now := time.Now()

	assert.True(t, w.Allow("route", now))
	assert.True(t, w.Allow("route", now))
	assert.True(t, w.Allow("route", now))
	assert.False(t, w.Allow("route", now))
}

func TestWindowExpiresOldEvents(t *testing.T) {
	w := New(1, time.Second)
	now := time.Now()

	assert.True(t, w.Allow("route", now))
	assert.False(t, w.Allow("route", now.Add(500*time.Millisecond)))
	assert.True(t, w.Allow("route", now.Add(2*time.Second)))
}

func TestWindowKeysAreIndependent(t *testing.T) {
	w := New(1, time.Minute)
	now := time.Now()

	assert.True(t, w.Allow("a-b-bridge1", now))
	assert.True(t, w.Allow("a-c-bridge1", now))
}

func TestRecentValuesCapsAtCapacity(t *testing.T) {
	r := NewRecentValues(10)
	for i := 0; i < 15; i++ {
		r.Add(float64(i))
	}
	assert.Equal(t, 10, r.Len())
	vals := r.Values()
	assert.Equal(t, float64(5), vals[0])
	assert.Equal(t, float64(14), vals[9])
}
