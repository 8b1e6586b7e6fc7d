package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestPerWindow_ThreePerFifteenMinutes(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	k := PerWindow(3, 15*time.Minute).WithClock(c.now)

	assert.True(t, k.Allow("+996700123456"))
	assert.True(t, k.Allow("+996700123456"))
	assert.True(t, k.Allow("+996700123456"))
	assert.False(t, k.Allow("+996700123456"))

	// Keys are independent.
	assert.True(t, k.Allow("+12125551234"))

	c.t = c.t.Add(5 * time.Minute)
	assert.True(t, k.Allow("+996700123456"))
	assert.False(t, k.Allow("+996700123456"))

	c.t = c.t.Add(15 * time.Minute)
	assert.True(t, k.Allow("+996700123456"))
	assert.True(t, k.Allow("+996700123456"))
	assert.True(t, k.Allow("+996700123456"))
	assert.False(t, k.Allow("+996700123456"))
}

func TestPerWindow_NonPositiveMeansNoLimiter(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.Nil(t, PerWindow(0, 15*time.Minute))
		assert.Nil(t, PerWindow(-1, 15*time.Minute))
		assert.Nil(t, PerWindow(3, 0))
	})
}

func TestSweep_DropsIdleKeys(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	k := New(1, 1).WithClock(c.now)

	k.Allow("a")
	c.t = c.t.Add(time.Minute)
	k.Allow("b")
	c.t = c.t.Add(10 * time.Minute)
	k.Sweep()

	assert.Equal(t, 1, k.size())
}
