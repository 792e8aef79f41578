package secret

import "time"

// Cooldown throttles PIN guessing: failures before the freeAttempts-th
// are free, that failure starts a wait of waitMin, and every failure
// after it doubles the wait time, capped at waitMax.
type Cooldown struct {
	freeAttempts int
	waitMin      time.Duration
	waitMax      time.Duration
	waitLog2     int

	attempts int
	until    time.Time

	now func() time.Time
}

// NewCooldown returns a Cooldown with the device's default throttling
// parameters: two free attempts, then from the third consecutive failure
// on a wait starting at one minute and doubling up to a one-hour cap.
func NewCooldown() *Cooldown {
	return &Cooldown{
		freeAttempts: 3,
		waitMin:      60 * time.Second,
		waitMax:      3600 * time.Second,
		waitLog2:     6,
		now:          time.Now,
	}
}

// Remaining returns how much longer the cooldown lasts, or zero if a PIN
// attempt is currently allowed.
func (c *Cooldown) Remaining() time.Duration {
	if rem := c.until.Sub(c.now()); rem > 0 {
		return rem
	}
	return 0
}

// Fail records a failed PIN attempt and extends the cooldown once the
// free-attempt budget is exhausted.
func (c *Cooldown) Fail() {
	c.attempts++
	if c.attempts >= c.freeAttempts {
		c.until = c.now().Add(c.wait(c.attempts))
	}
}

// Success clears the failure count and any active cooldown.
func (c *Cooldown) Success() {
	c.attempts = 0
	c.until = time.Time{}
}

func (c *Cooldown) wait(attempts int) time.Duration {
	switch {
	case attempts < c.freeAttempts:
		return 0
	case attempts >= c.freeAttempts+c.waitLog2:
		return c.waitMax
	default:
		return c.waitMin << (attempts - c.freeAttempts)
	}
}
