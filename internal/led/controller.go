package led

import (
	"fmt"
	"sync"

	"github.com/nerrad567/gray-logic-ledd/internal/gpio"
)

// Controller owns OutputState.
//
// Thread Safety: Set is serialized; Current may be called concurrently.
type Controller struct {
	line gpio.Line

	mu     sync.Mutex
	handle gpio.Handle
	level  bool

	obsMu     sync.RWMutex
	observers []func(level bool)
}

// NewController returns a detached controller with the level OFF.
func NewController(line gpio.Line) *Controller {
	return &Controller{line: line}
}

// Attach binds the controller to a claimed output line. The endpoint calls
// it once the direction has been configured.
func (c *Controller) Attach(h gpio.Handle) {
	c.mu.Lock()
	c.handle = h
	c.mu.Unlock()
}

// Detach forgets the line handle and resets the stored level to OFF. It is
// called after the handle has been released.
func (c *Controller) Detach() {
	c.mu.Lock()
	c.handle = nil
	c.level = false
	c.mu.Unlock()
}

// OnChange registers fn to be called after every successful Set, including
// repeated sets of the same level. fn runs on the caller's goroutine and
// must not call Set.
func (c *Controller) OnChange(fn func(level bool)) {
	c.obsMu.Lock()
	c.observers = append(c.observers, fn)
	c.obsMu.Unlock()
}

// Set stores level and applies it to the line. Setting the same level
// again re-drives the line and succeeds.
//
// On a hardware failure the previous level is restored and the returned
// error wraps ErrHardware.
func (c *Controller) Set(level bool) error {
	c.mu.Lock()
	if c.handle == nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: %w", ErrHardware, ErrDetached)
	}

	prev := c.level
	c.level = level
	if err := c.line.SetLevel(c.handle, level); err != nil {
		c.level = prev
		c.mu.Unlock()
		return fmt.Errorf("%w: %w", ErrHardware, err)
	}
	c.mu.Unlock()

	c.notify(level)
	return nil
}

// Current returns the stored level.
func (c *Controller) Current() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.level
}

func (c *Controller) notify(level bool) {
	c.obsMu.RLock()
	observers := c.observers
	c.obsMu.RUnlock()

	for _, fn := range observers {
		fn(level)
	}
}
