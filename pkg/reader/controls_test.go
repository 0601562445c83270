package reader

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestControlsTimerHidesAfterQuietPeriod(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewControlsTimer(1, ControlsHideDelay)

	c.Show(start)
	assert.True(t, c.Visible())
	assert.Equal(t, start.Add(3000*time.Millisecond), c.HideAt())

	assert.True(t, c.Expire(c.Generation()))
	assert.False(t, c.Visible())
	assert.True(t, c.HideAt().IsZero())
}

func TestControlsTimerInputRestartsWindow(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewControlsTimer(1, ControlsHideDelay)

	c.Show(start)
	first := c.Generation()

	second := start.Add(2000 * time.Millisecond)
	c.Show(second)

	// the countdown armed at t=0 must not hide the controls at t=3000
	assert.False(t, c.Expire(first))
	assert.True(t, c.Visible())
	assert.Equal(t, second.Add(ControlsHideDelay), c.HideAt())

	assert.True(t, c.Expire(c.Generation()))
	assert.False(t, c.Visible())
}

func TestControlsTimerCommandFires(t *testing.T) {
	c := NewControlsTimer(7, 10*time.Millisecond)
	cmd := c.Show(time.Now())

	msg := cmd()
	expired, ok := msg.(ControlsExpiredMsg)
	assert.True(t, ok)
	assert.Equal(t, uint64(7), expired.Session)
	assert.Equal(t, c.Generation(), expired.Generation)
}

func TestControlsTimerCancelledCommandYieldsNothing(t *testing.T) {
	c := NewControlsTimer(1, time.Hour)
	cmd := c.Show(time.Now())
	gen := c.Generation()

	c.Cancel()

	done := make(chan any, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		assert.Nil(t, msg)
	case <-time.After(time.Second):
		t.Fatal("cancelled countdown kept running")
	}
	assert.False(t, c.Expire(gen))
}

func TestControlsTimerRestartCancelsPrevious(t *testing.T) {
	c := NewControlsTimer(1, time.Hour)
	first := c.Show(time.Now())
	c.Show(time.Now())

	done := make(chan any, 1)
	go func() { done <- first() }()
	select {
	case msg := <-done:
		assert.Nil(t, msg)
	case <-time.After(time.Second):
		t.Fatal("previous countdown was not cancelled")
	}
}
