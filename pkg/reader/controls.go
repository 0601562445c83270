package reader

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ControlsHideDelay is the quiet period after which the reader chrome hides.
const ControlsHideDelay = 3000 * time.Millisecond

// ControlsExpiredMsg is delivered when a hide countdown runs out.
type ControlsExpiredMsg struct {
	Session    uint64
	Generation uint64
}

// ControlsTimer owns the visibility of the reader chrome and the single
// pending hide countdown. Arming a new countdown cancels the previous one
// and bumps the generation, so an old countdown that already fired is
// ignored by Expire.
type ControlsTimer struct {
	session    uint64
	delay      time.Duration
	visible    bool
	generation uint64
	hideAt     time.Time
	cancel     context.CancelFunc
}

func NewControlsTimer(session uint64, delay time.Duration) *ControlsTimer {
	return &ControlsTimer{session: session, delay: delay}
}

// Show makes the controls visible and restarts the countdown. The returned
// command waits for the delay and yields a ControlsExpiredMsg, or nothing
// if it was cancelled first.
func (c *ControlsTimer) Show(now time.Time) tea.Cmd {
	c.stop()
	c.visible = true
	c.generation++
	c.hideAt = now.Add(c.delay)

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	session, gen, delay := c.session, c.generation, c.delay

	return func() tea.Msg {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
			return ControlsExpiredMsg{Session: session, Generation: gen}
		case <-ctx.Done():
			return nil
		}
	}
}

// Expire hides the controls if gen is the countdown currently armed.
func (c *ControlsTimer) Expire(gen uint64) bool {
	if gen != c.generation || !c.visible {
		return false
	}
	c.visible = false
	c.hideAt = time.Time{}
	c.cancel = nil
	return true
}

// Cancel drops the pending countdown without changing visibility.
func (c *ControlsTimer) Cancel() {
	c.stop()
	c.generation++
	c.hideAt = time.Time{}
}

func (c *ControlsTimer) stop() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *ControlsTimer) Visible() bool { return c.visible }

// HideAt is when the armed countdown ends; zero when none is armed.
func (c *ControlsTimer) HideAt() time.Time { return c.hideAt }

func (c *ControlsTimer) Generation() uint64 { return c.generation }
