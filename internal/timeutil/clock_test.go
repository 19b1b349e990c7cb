package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealClockNow(t *testing.T) {
	t.Parallel()

	var c Clock = RealClock{}
	before := time.Now()
	got := c.Now()
	after := time.Now()

	assert.False(t, got.Before(before))
	assert.False(t, got.After(after))
}

func TestRealClockSince(t *testing.T) {
	t.Parallel()

	var c Clock = RealClock{}
	past := time.Now().Add(-time.Second)
	assert.GreaterOrEqual(t, c.Since(past), time.Second)
}

func TestMockClockNowAndSet(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 4, 12, 6, 30, 0, 0, time.UTC)
	c := NewMockClock(base)
	require.Equal(t, base, c.Now())

	later := base.Add(time.Hour)
	c.Set(later)
	assert.Equal(t, later, c.Now())
}

func TestMockClockAdvance(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 4, 12, 6, 30, 0, 0, time.UTC)
	c := NewMockClock(base)

	c.Advance(90 * time.Second)
	assert.Equal(t, base.Add(90*time.Second), c.Now())

	c.Advance(30 * time.Second)
	assert.Equal(t, base.Add(2*time.Minute), c.Now())
}

func TestMockClockSince(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 4, 12, 6, 30, 0, 0, time.UTC)
	c := NewMockClock(base)

	start := c.Now()
	c.Advance(250 * time.Millisecond)
	assert.Equal(t, 250*time.Millisecond, c.Since(start))
}

func TestMockClockSleepRecords(t *testing.T) {
	t.Parallel()

	c := NewMockClock(time.Date(2026, 4, 12, 6, 30, 0, 0, time.UTC))

	c.Sleep(10 * time.Millisecond)
	c.Sleep(20 * time.Millisecond)

	// Sleep must not advance the mocked time.
	assert.Equal(t, time.Date(2026, 4, 12, 6, 30, 0, 0, time.UTC), c.Now())
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, c.Sleeps())
}
