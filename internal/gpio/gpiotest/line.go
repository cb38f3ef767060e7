// Package gpiotest provides an in-memory gpio.Line for tests.
package gpiotest

import (
	"fmt"
	"sync"

	"github.com/nerrad567/gray-logic-ledd/internal/gpio"
)

// Line is a recording fake. Set the *Err fields to inject failures; every
// operation (successful or not) is appended to the op log and passed to
// Trace when set.
type Line struct {
	ClaimErr     error
	DirectionErr error
	SetLevelErr  error
	ReleaseErr   error

	// Trace, if set, receives every op string as it happens. Tests use it
	// to interleave line ops with other fakes in one ordered log.
	Trace func(op string)

	mu        sync.Mutex
	ops       []string
	claimed   *handle
	direction gpio.Direction
	level     bool
	released  int
}

type handle struct {
	pin   gpio.Pin
	valid bool
}

func (h *handle) Pin() gpio.Pin { return h.pin }

// New returns a Line with no injected failures.
func New() *Line {
	return &Line{}
}

func (l *Line) record(op string) {
	l.ops = append(l.ops, op)
	if l.Trace != nil {
		l.Trace(op)
	}
}

func (l *Line) Claim(pin gpio.Pin) (gpio.Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.record("line.claim " + pin.String())
	if l.ClaimErr != nil {
		return nil, fmt.Errorf("%w: %w", gpio.ErrLineUnavailable, l.ClaimErr)
	}
	if l.claimed != nil && l.claimed.valid {
		return nil, fmt.Errorf("%w: %s already claimed", gpio.ErrLineUnavailable, pin)
	}
	l.claimed = &handle{pin: pin, valid: true}
	l.direction = gpio.Input
	return l.claimed, nil
}

func (l *Line) Release(h gpio.Handle) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.record("line.release")
	fh, err := l.check(h)
	if err != nil {
		return err
	}
	if l.ReleaseErr != nil {
		return l.ReleaseErr
	}
	fh.valid = false
	l.direction = gpio.Input
	l.released++
	return nil
}

func (l *Line) SetDirection(h gpio.Handle, d gpio.Direction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.record("line.direction " + d.String())
	if _, err := l.check(h); err != nil {
		return err
	}
	if l.DirectionErr != nil {
		return fmt.Errorf("%w: %w", gpio.ErrDirection, l.DirectionErr)
	}
	l.direction = d
	if d == gpio.Output {
		l.level = false
	}
	return nil
}

func (l *Line) SetLevel(h gpio.Handle, on bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if on {
		l.record("line.level 1")
	} else {
		l.record("line.level 0")
	}
	if _, err := l.check(h); err != nil {
		return err
	}
	if l.SetLevelErr != nil {
		return fmt.Errorf("%w: %w", gpio.ErrSetLevel, l.SetLevelErr)
	}
	if l.direction != gpio.Output {
		return fmt.Errorf("%w: line is not an output", gpio.ErrSetLevel)
	}
	l.level = on
	return nil
}

func (l *Line) check(h gpio.Handle) (*handle, error) {
	fh, ok := h.(*handle)
	if !ok || fh == nil || !fh.valid {
		return nil, gpio.ErrInvalidHandle
	}
	return fh, nil
}

// Ops returns a copy of the op log.
func (l *Line) Ops() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.ops...)
}

// Level is the physical level last driven.
func (l *Line) Level() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// Claimed reports whether the pin is currently held.
func (l *Line) Claimed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.claimed != nil && l.claimed.valid
}

// Direction is the current configured direction.
func (l *Line) Direction() gpio.Direction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.direction
}

// Releases counts successful releases.
func (l *Line) Releases() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.released
}

// SetFailLevel injects (or clears, with nil) a SetLevel failure after
// construction, under the lock.
func (l *Line) SetFailLevel(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.SetLevelErr = err
}

// MustOutput claims pin and configures it as an output. It panics if the
// fake refuses, which only happens when failures were injected.
func (l *Line) MustOutput(pin gpio.Pin) gpio.Handle {
	h, err := l.Claim(pin)
	if err != nil {
		panic(err)
	}
	if err := l.SetDirection(h, gpio.Output); err != nil {
		panic(err)
	}
	return h
}

var _ gpio.Line = (*Line)(nil)
