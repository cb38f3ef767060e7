//go:build !linux

package gpio

import (
	"fmt"
	"runtime"
)

// Cdev is unavailable off Linux; every claim fails so startup aborts cleanly.
type Cdev struct {
	consumer string
}

// NewCdev returns a Line whose claims always fail on this platform.
func NewCdev(consumer string) *Cdev {
	return &Cdev{consumer: consumer}
}

func (c *Cdev) Claim(pin Pin) (Handle, error) {
	return nil, fmt.Errorf("%w: %s: gpio character device not supported on %s", ErrLineUnavailable, pin, runtime.GOOS)
}

func (c *Cdev) Release(Handle) error                 { return ErrInvalidHandle }
func (c *Cdev) SetDirection(Handle, Direction) error { return ErrInvalidHandle }
func (c *Cdev) SetLevel(Handle, bool) error          { return ErrInvalidHandle }
