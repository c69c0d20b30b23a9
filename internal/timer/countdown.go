package timer

import (
	"errors"
	"sync"
	"time"
)

var ErrDoubleTimer = errors.New("countdown already running")

// Countdown runs one countdown at a time. Each unit lasts Interval.
type Countdown struct {
	interval time.Duration

	mu     sync.Mutex
	gen    uint64
	active bool
	stop   chan struct{}
}

func NewCountdown(interval time.Duration) *Countdown {
	if interval <= 0 {
		interval = time.Second
	}
	return &Countdown{interval: interval}
}

// Start counts from units down to 0. onTick fires for every value including 0,
// then onComplete fires once. Callbacks run on the countdown's goroutine.
func (c *Countdown) Start(units int, onTick func(remaining int), onComplete func()) error {
	if units < 0 {
		units = 0
	}

	c.mu.Lock()
	if c.active {
		c.mu.Unlock()
		return ErrDoubleTimer
	}
	c.gen++
	c.active = true
	c.stop = make(chan struct{})
	gen, stop := c.gen, c.stop
	c.mu.Unlock()

	go c.run(gen, stop, units, onTick, onComplete)
	return nil
}

// Cancel stops the running countdown. Safe to call at any time, including
// from inside a callback.
func (c *Countdown) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return
	}
	c.gen++
	c.active = false
	close(c.stop)
}

func (c *Countdown) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *Countdown) run(gen uint64, stop <-chan struct{}, units int, onTick func(int), onComplete func()) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for remaining := units; remaining >= 0; remaining-- {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		if !c.current(gen) {
			return
		}
		if onTick != nil {
			onTick(remaining)
		}
	}

	if !c.finish(gen) {
		return
	}
	if onComplete != nil {
		onComplete()
	}
}

func (c *Countdown) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active && c.gen == gen
}

// finish marks the countdown idle so onComplete may start the next one.
func (c *Countdown) finish(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active || c.gen != gen {
		return false
	}
	c.active = false
	return true
}
