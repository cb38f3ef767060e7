//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// Cdev implements Line on the Linux GPIO character device (uAPI v1/v2).
type Cdev struct {
	consumer string
}

// cdevHandle carries the requested line.
type cdevHandle struct {
	pin  Pin
	line *gpiocdev.Line
}

func (h *cdevHandle) Pin() Pin { return h.pin }

// NewCdev returns a Line that labels its requests with consumer, which
// shows up in gpioinfo output.
func NewCdev(consumer string) *Cdev {
	return &Cdev{consumer: consumer}
}

// Claim requests the line as an input so claiming never glitches an output.
func (c *Cdev) Claim(pin Pin) (Handle, error) {
	l, err := gpiocdev.RequestLine(pin.Chip, pin.Offset,
		gpiocdev.WithConsumer(c.consumer),
		gpiocdev.AsInput,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLineUnavailable, pin, err)
	}
	return &cdevHandle{pin: pin, line: l}, nil
}

// Release reverts the line to input before closing the request, leaving
// the pin undriven.
func (c *Cdev) Release(h Handle) error {
	ch, err := c.handle(h)
	if err != nil {
		return err
	}
	reconfErr := ch.line.Reconfigure(gpiocdev.AsInput)
	closeErr := ch.line.Close()
	ch.line = nil
	if err := errors.Join(reconfErr, closeErr); err != nil {
		return fmt.Errorf("releasing %s: %w", ch.pin, err)
	}
	return nil
}

// SetDirection reconfigures the line. Output starts low.
func (c *Cdev) SetDirection(h Handle, d Direction) error {
	ch, err := c.handle(h)
	if err != nil {
		return err
	}

	var opt gpiocdev.LineConfigOption = gpiocdev.AsInput
	if d == Output {
		opt = gpiocdev.AsOutput(0)
	}
	if err := ch.line.Reconfigure(opt); err != nil {
		return fmt.Errorf("%w: %s as %s: %w", ErrDirection, ch.pin, d, err)
	}
	return nil
}

// SetLevel drives the line.
func (c *Cdev) SetLevel(h Handle, on bool) error {
	ch, err := c.handle(h)
	if err != nil {
		return err
	}

	v := 0
	if on {
		v = 1
	}
	if err := ch.line.SetValue(v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSetLevel, ch.pin, err)
	}
	return nil
}

func (c *Cdev) handle(h Handle) (*cdevHandle, error) {
	ch, ok := h.(*cdevHandle)
	if !ok || ch == nil || ch.line == nil {
		return nil, ErrInvalidHandle
	}
	return ch, nil
}
