package endpoint

import (
	"errors"
	"fmt"

	"github.com/nerrad567/gray-logic-ledd/internal/led"
)

// Error kinds. Use errors.Is() to check for these errors in calling code.
var (
	// ErrAllocation covers device-number, class and node setup failures.
	ErrAllocation = errors.New("endpoint: allocation failed")

	// ErrLineClaim is returned when the LED line cannot be claimed.
	ErrLineClaim = errors.New("endpoint: line claim failed")

	// ErrDirectionConfig is returned when the line cannot be made an output.
	ErrDirectionConfig = errors.New("endpoint: direction configuration failed")

	// ErrIOFault is returned when the caller's buffer cannot be read or written.
	ErrIOFault = errors.New("endpoint: i/o fault")

	// ErrHardware is returned when a level change fails at the line.
	ErrHardware = led.ErrHardware

	// ErrNotReady is returned by protocol calls outside the Ready state.
	ErrNotReady = errors.New("endpoint: not ready")

	// ErrAlreadyInitialized is returned by a second Initialize.
	ErrAlreadyInitialized = errors.New("endpoint: already initialized")

	// ErrSessionClosed is returned by reads and writes on a closed session.
	ErrSessionClosed = errors.New("endpoint: session closed")
)

// InitError reports the acquisition step that failed. Everything acquired
// before Step has been released by the time it is returned.
type InitError struct {
	Step Step
	Err  error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("endpoint initialisation failed at %s: %v", e.Step, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}
