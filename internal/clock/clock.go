// Package clock implements the simulated time controller. It owns the only
// wall-clock timer in the simulation; every other component receives the
// simulated instant as a parameter.
package clock

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// DefaultPeriod is the wall-clock interval between steps of a running mode.
const DefaultPeriod = 200 * time.Millisecond

// Mode is a playback mode of the controller.
type Mode int

const (
	Idle Mode = iota
	Play15m
	Fwd1h
	Fwd2h
	Fwd1d
	Rew1h
	Rew2h
	Rew1d
)

var modeNames = map[Mode]string{
	Idle:    "idle",
	Play15m: "play15m",
	Fwd1h:   "fwd1h",
	Fwd2h:   "fwd2h",
	Fwd1d:   "fwd1d",
	Rew1h:   "rew1h",
	Rew2h:   "rew2h",
	Rew1d:   "rew1d",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Step returns the signed amount of simulated time one firing adds.
func (m Mode) Step() time.Duration {
	switch m {
	case Play15m:
		return 15 * time.Minute
	case Fwd1h:
		return time.Hour
	case Fwd2h:
		return 2 * time.Hour
	case Fwd1d:
		return 24 * time.Hour
	case Rew1h:
		return -time.Hour
	case Rew2h:
		return -2 * time.Hour
	case Rew1d:
		return -24 * time.Hour
	}
	return 0
}

// ParseMode parses a mode name such as "fwd1h".
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Idle, nil
	}
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return Idle, fmt.Errorf("unknown clock mode %q", s)
}

// Controller produces the simulated instant. Selecting a non-idle mode starts
// a repeating timer; each firing adds the mode's step to the instant and
// publishes the result on Ticks. Mode changes are last-write-wins.
type Controller struct {
	ctx    context.Context
	period time.Duration

	mu   sync.Mutex
	now  time.Time
	mode Mode
	stop chan struct{}
	wg   sync.WaitGroup

	ticks chan time.Time
}

// NewController creates an idle controller at the initial instant. A zero
// initial instant means the current wall-clock time; a non-positive period
// means DefaultPeriod. The running timer stops when ctx is cancelled.
func NewController(ctx context.Context, initial time.Time, period time.Duration) *Controller {
	if initial.IsZero() {
		initial = time.Now()
	}
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Controller{
		ctx:    ctx,
		period: period,
		now:    initial,
		mode:   Idle,
		ticks:  make(chan time.Time, 1),
	}
}

// Ticks delivers the simulated instant after every step or reset.
func (c *Controller) Ticks() <-chan time.Time {
	return c.ticks
}

// Now returns the current simulated instant.
func (c *Controller) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Mode returns the current playback mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// SetMode switches playback mode, cancelling any running timer first.
func (c *Controller) SetMode(m Mode) {
	c.mu.Lock()
	c.stopTimerLocked()
	c.mode = m
	if m != Idle {
		stop := make(chan struct{})
		c.stop = stop
		c.wg.Add(1)
		go c.run(m, stop)
	}
	c.mu.Unlock()
}

// Pause returns the controller to idle.
func (c *Controller) Pause() {
	c.SetMode(Idle)
}

// Reset jumps the simulated instant to t. It does not change the mode: a
// running mode keeps stepping from the new instant.
func (c *Controller) Reset(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
	c.publish(t)
}

// Step applies one firing of the current mode synchronously and returns the
// new instant. It is a no-op while idle.
func (c *Controller) Step() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.mode.Step())
	return c.now
}

// Close stops the running timer and waits for it to exit.
func (c *Controller) Close() {
	c.mu.Lock()
	c.stopTimerLocked()
	c.mode = Idle
	c.mu.Unlock()
	c.wg.Wait()
}

func (c *Controller) stopTimerLocked() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}

func (c *Controller) run(m Mode, stop <-chan struct{}) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			select {
			case <-stop:
				// Mode changed while this firing was pending.
				c.mu.Unlock()
				return
			default:
			}
			c.now = c.now.Add(m.Step())
			t := c.now
			c.mu.Unlock()

			// Every step is delivered; a slow consumer slows the clock down
			// instead of skipping simulated days.
			select {
			case c.ticks <- t:
			case <-stop:
				return
			case <-c.ctx.Done():
				return
			}
		case <-stop:
			return
		case <-c.ctx.Done():
			return
		}
	}
}

// publish delivers t without blocking, replacing an undelivered instant.
func (c *Controller) publish(t time.Time) {
	for {
		select {
		case c.ticks <- t:
			return
		default:
		}
		select {
		case <-c.ticks:
		default:
		}
	}
}
